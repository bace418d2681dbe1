/*
Package config provides configuration of the custody ledger tools.

Configuration is a YAML file:

	Ledger:
	  Currency: uosmo
	  Decimals: 6
	  MinBootstrap: 1000
	DB:
	  Type: leveldb
	  LevelDBOptions:
	    DataDirectoryPath: ./custody_data
	Logger:
	  Level: info

DB section is passed to neo-go storage as is, so any store supported by it
(inmemory, leveldb, boltdb) can be used.
*/
package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/nspcc-dev/neo-go/pkg/core/storage/dbconfig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultCurrency is a ledger currency used when none is configured.
	DefaultCurrency = "uosmo"
	// DefaultDecimals is a ledger currency precision used when none is configured.
	DefaultDecimals = 6
	// DefaultMinBootstrap is a bootstrap minimum used when none is configured.
	DefaultMinBootstrap = 1000
	// DefaultDataDirectory is a LevelDB directory path used by default.
	DefaultDataDirectory = "./custody_data"
)

var errInvalidConfig = errors.New("invalid configuration")

type (
	// Config is a top-level configuration.
	Config struct {
		Ledger Ledger                   `yaml:"Ledger"`
		DB     dbconfig.DBConfiguration `yaml:"DB"`
		Logger Logger                   `yaml:"Logger"`
	}

	// Ledger groups parameters of the ledger.
	Ledger struct {
		// The only accepted currency.
		Currency string `yaml:"Currency"`
		// Precision of the currency, used to display amounts only.
		Decimals int `yaml:"Decimals"`
		// Lower bound of the bootstrap funds.
		MinBootstrap int64 `yaml:"MinBootstrap"`
	}

	// Logger groups logging parameters.
	Logger struct {
		Level string `yaml:"Level"`
	}
)

// Default returns configuration with all default values.
func Default() Config {
	return Config{
		Ledger: Ledger{
			Currency:     DefaultCurrency,
			Decimals:     DefaultDecimals,
			MinBootstrap: DefaultMinBootstrap,
		},
		DB: dbconfig.DBConfiguration{
			Type: dbconfig.LevelDB,
			LevelDBOptions: dbconfig.LevelDBOptions{
				DataDirectoryPath: DefaultDataDirectory,
			},
		},
		Logger: Logger{
			Level: "info",
		},
	}
}

// Load reads configuration from the YAML file. Values missing in the file are
// taken from Default. Empty path means default configuration.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("decode YAML config: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks configuration values.
func (c Config) Validate() error {
	switch {
	case c.Ledger.Currency == "":
		return fmt.Errorf("%w: empty ledger currency", errInvalidConfig)
	case c.Ledger.Decimals < 0:
		return fmt.Errorf("%w: negative currency decimals %d", errInvalidConfig, c.Ledger.Decimals)
	case c.Ledger.MinBootstrap < 0:
		return fmt.Errorf("%w: negative bootstrap minimum %d", errInvalidConfig, c.Ledger.MinBootstrap)
	}

	switch c.DB.Type {
	case dbconfig.InMemoryDB, dbconfig.LevelDB, dbconfig.BoltDB:
	default:
		return fmt.Errorf("%w: unsupported DB type '%s'", errInvalidConfig, c.DB.Type)
	}

	_, err := c.Logger.level()
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidConfig, err)
	}

	return nil
}

// MinBootstrapAmount returns bootstrap minimum as big integer.
func (l Ledger) MinBootstrapAmount() *big.Int {
	return big.NewInt(l.MinBootstrap)
}

// Build creates zap logger with the configured level.
func (l Logger) Build() (*zap.Logger, error) {
	lvl, err := l.level()
	if err != nil {
		return nil, err
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.Encoding = "console"
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Level = zap.NewAtomicLevelAt(lvl)

	return cc.Build()
}

func (l Logger) level() (zapcore.Level, error) {
	var lvl zapcore.Level

	if l.Level == "" {
		return zapcore.InfoLevel, nil
	}

	err := lvl.UnmarshalText([]byte(l.Level))
	if err != nil {
		return lvl, fmt.Errorf("log level: %w", err)
	}

	return lvl, nil
}
