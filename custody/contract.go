package custody

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/nspcc-dev/custody-contract/balance"
	"github.com/nspcc-dev/custody-contract/common"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
	"go.uber.org/zap"
)

const (
	// DefaultMinBootstrap is a bootstrap minimum used when none is specified.
	DefaultMinBootstrap = 1000

	// prefix of ledger parameters and counters
	infoPrefix = 'i'
)

var (
	currencyKey  = []byte{infoPrefix, 'c'}
	minimumKey   = []byte{infoPrefix, 'm'}
	ownerKey     = []byte{infoPrefix, 'o'}
	bootstrapKey = []byte{infoPrefix, 'b'}
	versionKey   = []byte{infoPrefix, 'v'}
	heightKey    = []byte{infoPrefix, 'h'}

	// prefixes covering all ledger storage items
	snapshotPrefixes = [][]byte{
		{infoPrefix},
		{balance.AccountPrefix},
		{balance.SupplyKey},
	}
)

var (
	// ErrNotInstantiated is returned by Open if there is no ledger in the
	// storage.
	ErrNotInstantiated = errors.New("ledger is not instantiated")

	// ErrAlreadyInstantiated is returned by Instantiate if the storage already
	// contains a ledger.
	ErrAlreadyInstantiated = errors.New("ledger is already instantiated")
)

// Config groups immutable parameters of the ledger fixed at instantiation.
type Config struct {
	// The only currency accepted for deposits.
	Currency string `json:"currency"`
	// Bootstrap funds lower bound.
	MinBootstrap *big.Int `json:"min_bootstrap"`
	// Instantiating caller.
	Owner string `json:"owner"`
	// Bootstrap funds amount.
	Bootstrap *big.Int `json:"bootstrap"`
	// Ledger format version.
	Version int `json:"version"`
}

// DepositEvent describes successfully committed deposit.
type DepositEvent struct {
	// Unique identifier of the call.
	CallID string
	// Credited account.
	Account string
	// Credited amount of the ledger currency.
	Amount *big.Int
	// Ledger height after the call.
	Height uint64
}

// Prm groups parameters of the Contract shared by Instantiate and Open.
type Prm struct {
	// Writes operation results into the log. Nop logger is used if unset.
	Logger *zap.Logger

	// Optional subscriber of committed deposits. It is called synchronously
	// after the call is committed and outside the ledger lock.
	OnDeposit func(DepositEvent)
}

// InstantiatePrm groups parameters of the ledger instantiation.
type InstantiatePrm struct {
	Prm

	// The only currency accepted by the ledger.
	Currency string
	// Lower bound of the bootstrap funds, DefaultMinBootstrap if nil.
	MinBootstrap *big.Int

	// Instantiating caller and its bootstrap funds.
	Owner string
	Funds []Coin
}

// Contract is a custody ledger accepting deposits of a single currency.
// All calls are serialized across all Contract values opened over the same
// storage, each call is committed to the underlying durable storage as a whole
// or not at all.
type Contract struct {
	log       *zap.Logger
	onDeposit func(DepositEvent)

	mtx   *sync.RWMutex
	store storage.Store
	cfg   Config
}

// Instantiate creates a new ledger in the given storage. Bootstrap funds must
// consist of exactly one entry of the ledger currency not less than the
// minimum, otherwise ErrInvalidInstantiation is returned and the storage is
// left untouched.
func Instantiate(st storage.Store, prm InstantiatePrm) (*Contract, error) {
	minimum := prm.MinBootstrap
	if minimum == nil {
		minimum = big.NewInt(DefaultMinBootstrap)
	}

	switch {
	case prm.Currency == "":
		return nil, fmt.Errorf("%w: empty currency", ErrInvalidInstantiation)
	case prm.Owner == "":
		return nil, fmt.Errorf("%w: empty owner", ErrInvalidInstantiation)
	case minimum.Sign() < 0:
		return nil, fmt.Errorf("%w: negative bootstrap minimum", ErrInvalidInstantiation)
	}

	c := newContract(st, prm.Prm)

	c.mtx.Lock()
	defer c.mtx.Unlock()

	_, err := st.Get(versionKey)
	if err == nil {
		return nil, ErrAlreadyInstantiated
	} else if !errors.Is(err, storage.ErrKeyNotFound) {
		return nil, fmt.Errorf("check ledger presence: %w", err)
	}

	amount, err := checkBootstrap(prm.Funds, prm.Currency, minimum)
	if err != nil {
		c.log.Info("ledger instantiation rejected", zap.String("owner", prm.Owner), zap.Error(err))
		return nil, err
	}

	c.cfg = Config{
		Currency:     prm.Currency,
		MinBootstrap: new(big.Int).Set(minimum),
		Owner:        prm.Owner,
		Bootstrap:    amount,
		Version:      common.Version,
	}

	cache := storage.NewMemCachedStore(st)
	putConfig(cache, c.cfg)
	cache.Put(heightKey, bigint.ToBytes(big.NewInt(1)))

	_, err = cache.Persist()
	if err != nil {
		return nil, fmt.Errorf("persist ledger: %w", err)
	}

	c.log.Info("ledger initialized",
		zap.String("currency", c.cfg.Currency),
		zap.String("owner", c.cfg.Owner),
		zap.Stringer("bootstrap", c.cfg.Bootstrap),
		zap.String("version", common.VersionString(c.cfg.Version)))

	return c, nil
}

// Open attaches to the ledger previously instantiated in the given storage.
func Open(st storage.Store, prm Prm) (*Contract, error) {
	c := newContract(st, prm)

	c.mtx.RLock()
	cfg, err := readConfig(st)
	c.mtx.RUnlock()
	if err != nil {
		return nil, err
	}

	err = common.CheckVersion(cfg.Version)
	if err != nil {
		return nil, fmt.Errorf("check ledger version: %w", err)
	}

	c.cfg = cfg

	return c, nil
}

func newContract(st storage.Store, prm Prm) *Contract {
	l := prm.Logger
	if l == nil {
		l = zap.NewNop()
	}

	return &Contract{
		log:       l,
		onDeposit: prm.OnDeposit,
		mtx:       storeLock(st),
		store:     st,
	}
}

// ledger locks by storage, shared by all Contract values over the same storage.
// Entries live as long as the process.
var storeLocks = struct {
	sync.Mutex
	m map[storage.Store]*sync.RWMutex
}{m: make(map[storage.Store]*sync.RWMutex)}

func storeLock(st storage.Store) *sync.RWMutex {
	storeLocks.Lock()
	defer storeLocks.Unlock()

	l, ok := storeLocks.m[st]
	if !ok {
		l = new(sync.RWMutex)
		storeLocks.m[st] = l
	}

	return l
}

// Config returns parameters of the ledger.
func (c *Contract) Config() Config {
	res := c.cfg
	res.MinBootstrap = new(big.Int).Set(c.cfg.MinBootstrap)
	res.Bootstrap = new(big.Int).Set(c.cfg.Bootstrap)
	return res
}

// Deposit credits caller with funds attached to the call. Funds must consist
// of exactly one entry of the ledger currency with positive amount, otherwise
// ErrInvalidDeposit is returned and the ledger is not changed.
func (c *Contract) Deposit(caller string, funds []Coin) error {
	ev, err := c.deposit(caller, funds)
	if err != nil {
		return err
	}

	c.log.Info("funds have been deposited",
		zap.String("call", ev.CallID),
		zap.String("account", ev.Account),
		zap.Stringer("amount", ev.Amount),
		zap.Uint64("height", ev.Height))

	if c.onDeposit != nil {
		c.onDeposit(ev)
	}

	return nil
}

func (c *Contract) deposit(caller string, funds []Coin) (DepositEvent, error) {
	if caller == "" {
		return DepositEvent{}, fmt.Errorf("%w: empty caller", ErrInvalidDeposit)
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()

	amount, err := checkDeposit(funds, c.cfg.Currency)
	if err != nil {
		c.log.Debug("deposit rejected", zap.String("caller", caller), zap.Error(err))
		return DepositEvent{}, err
	}

	cache := storage.NewMemCachedStore(c.store)

	err = balance.NewStore(cache).Credit(caller, amount)
	if err != nil {
		return DepositEvent{}, fmt.Errorf("credit %s: %w", caller, err)
	}

	height, err := getInt(cache, heightKey)
	if err != nil {
		return DepositEvent{}, err
	}

	height.Add(height, big.NewInt(1))
	cache.Put(heightKey, bigint.ToBytes(height))

	_, err = cache.Persist()
	if err != nil {
		return DepositEvent{}, fmt.Errorf("persist deposit: %w", err)
	}

	return DepositEvent{
		CallID:  newCallID(),
		Account: caller,
		Amount:  amount,
		Height:  height.Uint64(),
	}, nil
}

// Balance returns amount of the ledger currency credited to the account.
// Zero is returned for unknown accounts.
func (c *Contract) Balance(account string) (Coin, error) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	amount, err := balance.NewStore(storage.NewMemCachedStore(c.store)).Balance(account)
	if err != nil {
		return Coin{}, err
	}

	return Coin{Denom: c.cfg.Currency, Amount: amount}, nil
}

// TotalSupply returns the sum of all deposits.
func (c *Contract) TotalSupply() (Coin, error) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	amount, err := balance.NewStore(storage.NewMemCachedStore(c.store)).TotalSupply()
	if err != nil {
		return Coin{}, err
	}

	return Coin{Denom: c.cfg.Currency, Amount: amount}, nil
}

// Height returns number of state-changing calls committed to the ledger
// including instantiation.
func (c *Contract) Height() (uint64, error) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	h, err := getInt(c.store, heightKey)
	if err != nil {
		return 0, err
	}

	return h.Uint64(), nil
}

// IterateBalances passes all non-zero balances into f in account order.
// Iteration stops when f returns false. The ledger is locked for deposits
// during the iteration.
func (c *Contract) IterateBalances(f func(account string, amount Coin) bool) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	balance.NewStore(storage.NewMemCachedStore(c.store)).Iterate(func(account string, amount *big.Int) bool {
		return f(account, Coin{Denom: c.cfg.Currency, Amount: amount})
	})
}

// Snapshot passes all raw storage items of the ledger into f and returns the
// ledger height the items correspond to. Snapshot breaks on any f's error and
// returns it.
func (c *Contract) Snapshot(f func(key, value []byte) error) (uint64, error) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	h, err := getInt(c.store, heightKey)
	if err != nil {
		return 0, err
	}

	for i := 0; i < len(snapshotPrefixes) && err == nil; i++ {
		c.store.Seek(storage.SeekRange{Prefix: snapshotPrefixes[i]}, func(k, v []byte) bool {
			err = f(bytes.Clone(k), bytes.Clone(v))
			return err == nil
		})
	}

	return h.Uint64(), err
}

func newCallID() string {
	id := uuid.New()
	return base58.Encode(id[:])
}

type getter interface {
	Get(key []byte) ([]byte, error)
}

func getInt(st getter, key []byte) (*big.Int, error) {
	data, err := st.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return new(big.Int), nil
		}
		return nil, fmt.Errorf("read storage item %x: %w", key, err)
	}

	return bigint.FromBytes(data), nil
}

func putConfig(cache *storage.MemCachedStore, cfg Config) {
	cache.Put(currencyKey, []byte(cfg.Currency))
	cache.Put(minimumKey, bigint.ToBytes(cfg.MinBootstrap))
	cache.Put(ownerKey, []byte(cfg.Owner))
	cache.Put(bootstrapKey, bigint.ToBytes(cfg.Bootstrap))
	cache.Put(versionKey, bigint.ToBytes(big.NewInt(int64(cfg.Version))))
}

func readConfig(st storage.Store) (Config, error) {
	var cfg Config

	v, err := st.Get(versionKey)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return cfg, ErrNotInstantiated
		}
		return cfg, fmt.Errorf("read ledger version: %w", err)
	}

	cfg.Version = int(bigint.FromBytes(v).Int64())

	currency, err := st.Get(currencyKey)
	if err != nil {
		return cfg, fmt.Errorf("read ledger currency: %w", err)
	}

	cfg.Currency = string(currency)

	owner, err := st.Get(ownerKey)
	if err != nil {
		return cfg, fmt.Errorf("read ledger owner: %w", err)
	}

	cfg.Owner = string(owner)

	cfg.MinBootstrap, err = getInt(st, minimumKey)
	if err != nil {
		return cfg, err
	}

	cfg.Bootstrap, err = getInt(st, bootstrapKey)
	if err != nil {
		return cfg, err
	}

	return cfg, nil
}
