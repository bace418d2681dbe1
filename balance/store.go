package balance

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
)

const (
	// AccountPrefix is a prefix of account balance keys.
	AccountPrefix = 'a'
	// SupplyKey is a key of the total supply.
	SupplyKey = 't'
)

// KV is a key-value view Store works over. It is satisfied by
// storage.MemCachedStore.
type KV interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte)
	Seek(rng storage.SeekRange, f func(k, v []byte) bool)
}

// Store is a balance store of the custody ledger.
type Store struct {
	kv KV
}

// NewStore returns Store working over the given view.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// AccountKey returns storage key of the account balance.
func AccountKey(account string) []byte {
	return append([]byte{AccountPrefix}, account...)
}

// Balance returns currently recorded amount of the account. Zero is returned
// for accounts that have never deposited.
func (s *Store) Balance(account string) (*big.Int, error) {
	return s.getInt(AccountKey(account))
}

// Credit adds amount to the account balance creating it if absent. Amount
// must already be validated by the caller.
func (s *Store) Credit(account string, amount *big.Int) error {
	key := AccountKey(account)

	cur, err := s.getInt(key)
	if err != nil {
		return err
	}

	supply, err := s.getInt([]byte{SupplyKey})
	if err != nil {
		return err
	}

	s.kv.Put(key, bigint.ToBytes(cur.Add(cur, amount)))
	s.kv.Put([]byte{SupplyKey}, bigint.ToBytes(supply.Add(supply, amount)))

	return nil
}

// TotalSupply returns the sum of all credited amounts.
func (s *Store) TotalSupply() (*big.Int, error) {
	return s.getInt([]byte{SupplyKey})
}

// Iterate passes all recorded balances into f in account key order. Iteration
// stops when f returns false.
func (s *Store) Iterate(f func(account string, amount *big.Int) bool) {
	s.kv.Seek(storage.SeekRange{Prefix: []byte{AccountPrefix}}, func(k, v []byte) bool {
		return f(string(k[1:]), bigint.FromBytes(v))
	})
}

func (s *Store) getInt(key []byte) (*big.Int, error) {
	data, err := s.kv.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return new(big.Int), nil
		}
		return nil, fmt.Errorf("read storage item %x: %w", key, err)
	}

	return bigint.FromBytes(data), nil
}
