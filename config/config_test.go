package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/storage/dbconfig"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, data string) string {
	p := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(p, []byte(data), 0600))
	return p
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, DefaultCurrency, cfg.Ledger.Currency)
	require.EqualValues(t, DefaultMinBootstrap, cfg.Ledger.MinBootstrapAmount().Int64())
	require.Equal(t, dbconfig.LevelDB, cfg.DB.Type)

	loaded, err := Load("")
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestLoad(t *testing.T) {
	p := writeConfig(t, `
Ledger:
  Currency: uluna
  MinBootstrap: 10
DB:
  Type: boltdb
  BoltDBOptions:
    FilePath: /tmp/custody.bolt
Logger:
  Level: debug
`)

	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "uluna", cfg.Ledger.Currency)
	require.Equal(t, DefaultDecimals, cfg.Ledger.Decimals)
	require.EqualValues(t, 10, cfg.Ledger.MinBootstrap)
	require.Equal(t, dbconfig.BoltDB, cfg.DB.Type)
	require.Equal(t, "/tmp/custody.bolt", cfg.DB.BoltDBOptions.FilePath)
	require.Equal(t, "debug", cfg.Logger.Level)

	l, err := cfg.Logger.Build()
	require.NoError(t, err)
	require.NotNil(t, l)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "Ledger: [1, 2"))
	require.Error(t, err)

	for _, data := range []string{
		"Ledger:\n  Currency: \"\"\n",
		"Ledger:\n  Decimals: -1\n",
		"Ledger:\n  MinBootstrap: -5\n",
		"DB:\n  Type: redis\n",
		"Logger:\n  Level: verbose\n",
	} {
		_, err := Load(writeConfig(t, data))
		require.ErrorIs(t, err, errInvalidConfig, data)
	}
}
