package dump

import (
	"bytes"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/custody-contract/balance"
	"github.com/nspcc-dev/custody-contract/custody"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
	"github.com/stretchr/testify/require"
)

const currency = "uosmo"

func newLedger(t *testing.T) *custody.Contract {
	c, err := custody.Instantiate(storage.NewMemoryStore(), custody.InstantiatePrm{
		Currency: currency,
		Owner:    "creator",
		Funds:    custody.Coins(1000, currency),
	})
	require.NoError(t, err)

	require.NoError(t, c.Deposit("alice", custody.Coins(100, currency)))
	require.NoError(t, c.Deposit("bob", custody.Coins(5, currency)))

	return c
}

func TestID(t *testing.T) {
	id := ID{Label: "testnet", Height: 42}
	require.Equal(t, "testnet-42", id.String())

	var decoded ID
	require.NoError(t, decoded.decodeString(id.String()+"-ledger.json"))
	require.Equal(t, id, decoded)

	require.Error(t, decoded.decodeString("testnet"))
	require.Error(t, decoded.decodeString("testnet-x-ledger.json"))
}

func TestLedgerAndRestore(t *testing.T) {
	dir := t.TempDir()
	c := newLedger(t)

	id, err := Ledger(c, dir, "local")
	require.NoError(t, err)
	require.Equal(t, ID{Label: "local", Height: 3}, id)

	require.FileExists(t, filepath.Join(dir, "local-3-ledger.json"))
	require.FileExists(t, filepath.Join(dir, "local-3-storage.csv"))

	// same ID can't be dumped twice
	_, err = Ledger(c, dir, "local")
	require.ErrorIs(t, err, os.ErrExist)

	r, err := ReadDump(dir, id)
	require.NoError(t, err)
	require.EqualValues(t, 3, r.Height())
	require.Equal(t, c.Config(), r.Config())

	var n int
	r.IterateStorage(func(_, _ []byte) { n++ })
	require.Positive(t, n)

	st := storage.NewMemoryStore()
	require.NoError(t, r.Restore(st))
	require.ErrorIs(t, r.Restore(st), ErrStorageNotEmpty)

	restored, err := custody.Open(st, custody.Prm{})
	require.NoError(t, err)
	require.Equal(t, c.Config(), restored.Config())

	for account, expected := range map[string]int64{"alice": 100, "bob": 5, "creator": 0} {
		b, err := restored.Balance(account)
		require.NoError(t, err)
		require.EqualValues(t, expected, b.Amount.Int64(), account)
	}

	h, err := restored.Height()
	require.NoError(t, err)
	require.EqualValues(t, 3, h)
}

func TestRestore_Inconsistent(t *testing.T) {
	dir := t.TempDir()

	id, err := Ledger(newLedger(t), dir, "local")
	require.NoError(t, err)

	setItem := func(r *Reader, key []byte, value []byte) {
		for i := range r.items {
			if bytes.Equal(r.items[i].k, key) {
				r.items[i].v = value
				return
			}
		}
		r.items = append(r.items, kv{k: key, v: value})
	}

	for _, tc := range []struct {
		name   string
		tamper func(r *Reader)
	}{
		{name: "inflated balance", tamper: func(r *Reader) {
			setItem(r, balance.AccountKey("alice"), bigint.ToBytes(big.NewInt(1000000)))
		}},
		{name: "new account", tamper: func(r *Reader) {
			setItem(r, balance.AccountKey("mallory"), bigint.ToBytes(big.NewInt(1)))
		}},
		{name: "zero balance", tamper: func(r *Reader) {
			setItem(r, balance.AccountKey("mallory"), bigint.ToBytes(big.NewInt(0)))
		}},
		{name: "foreign key", tamper: func(r *Reader) {
			setItem(r, []byte("xyz"), []byte{1})
		}},
		{name: "duplicated key", tamper: func(r *Reader) {
			r.items = append(r.items, r.items[0])
		}},
		{name: "currency mismatch", tamper: func(r *Reader) {
			r.state.Config.Currency = "uluna"
		}},
		{name: "bootstrap mismatch", tamper: func(r *Reader) {
			r.state.Config.Bootstrap = big.NewInt(5000)
		}},
		{name: "missing parameters", tamper: func(r *Reader) {
			r.state.Config.MinBootstrap = nil
		}},
		{name: "height mismatch", tamper: func(r *Reader) {
			r.state.Height++
		}},
		{name: "no items", tamper: func(r *Reader) {
			r.items = nil
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r, err := ReadDump(dir, id)
			require.NoError(t, err)

			tc.tamper(r)

			st := storage.NewMemoryStore()
			require.ErrorIs(t, r.Restore(st), ErrInconsistentDump)

			_, err = custody.Open(st, custody.Prm{})
			require.ErrorIs(t, err, custody.ErrNotInstantiated)
		})
	}
}

func TestIterateDumps(t *testing.T) {
	dir := t.TempDir()
	c := newLedger(t)

	_, err := Ledger(c, dir, "first")
	require.NoError(t, err)

	require.NoError(t, c.Deposit("carol", custody.Coins(1, currency)))

	_, err = Ledger(c, dir, "second")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("not a dump"), 0600))

	ids := make(map[ID]int)
	err = IterateDumps(dir, func(id ID, r *Reader) {
		var n int
		r.IterateStorage(func(_, _ []byte) { n++ })
		ids[id] = n
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	require.Contains(t, ids, ID{Label: "first", Height: 3})
	require.Contains(t, ids, ID{Label: "second", Height: 4})
	// one more account item, supply and height are overwritten
	require.Equal(t, ids[ID{Label: "first", Height: 3}]+1, ids[ID{Label: "second", Height: 4}])

	require.NoError(t, IterateDumps(filepath.Join(dir, "missing"), func(ID, *Reader) {
		t.Fatal("no dumps expected")
	}))
}

func TestNewCreator_Label(t *testing.T) {
	for _, label := range []string{"", "my-label"} {
		_, err := NewCreator(t.TempDir(), ID{Label: label})
		require.ErrorIs(t, err, errInvalidLabel, label)
	}
}
