package dump

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/big"
	"path/filepath"
	"strings"

	"github.com/nspcc-dev/custody-contract/custody"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
)

var (
	// ErrStorageNotEmpty is returned by Reader.Restore if the target storage
	// already holds a ledger.
	ErrStorageNotEmpty = errors.New("storage is not empty")

	// ErrInconsistentDump is returned by Reader.Restore if dumped storage
	// items do not form a valid ledger or do not match the dumped state.
	ErrInconsistentDump = errors.New("inconsistent dump")
)

// IterateDumps iterates over all ledger dumps collected by the Creator model
// in the specified directory, and passes ID and Reader of each dump into f.
// Files not related to dumps are skipped.
func IterateDumps(dir string, f func(ID, *Reader)) error {
	var id ID
	var r Reader
	var streams dumpStreams

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, e error) error {
		if errors.Is(e, fs.ErrNotExist) {
			return nil
		}

		if e != nil {
			return e
		}

		if d.IsDir() {
			if path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()

		if !strings.HasSuffix(name, sep+stateFileSuffix) {
			return nil
		}

		err := id.decodeString(name)
		if err != nil {
			return fmt.Errorf("decode dump ID from file name '%s': %w", name, err)
		}

		err = initDumpStreams(&streams, dir, id, true)
		if err != nil {
			return fmt.Errorf("init dump streams ('%s'): %w", name, err)
		}

		err = r.fromDumpStreams(streams.ledger, streams.storageItems)
		streams.close()
		if err != nil {
			return fmt.Errorf("init dump reader ('%s'): %w", name, err)
		}

		f(id, &r)

		return nil
	})
}

// ReadDump reads the dump with the given ID from the specified directory.
func ReadDump(dir string, id ID) (*Reader, error) {
	var streams dumpStreams

	err := initDumpStreams(&streams, dir, id, true)
	if err != nil {
		return nil, err
	}

	defer streams.close()

	var r Reader

	err = r.fromDumpStreams(streams.ledger, streams.storageItems)
	if err != nil {
		return nil, fmt.Errorf("init dump reader: %w", err)
	}

	return &r, nil
}

type kv struct{ k, v []byte }

// Reader reads ledger state collected in the superior dump.
type Reader struct {
	state dumpLedgerState
	items []kv
}

func (x *Reader) fromDumpStreams(rLedger, rStorageItems io.Reader) error {
	x.state = dumpLedgerState{}

	err := json.NewDecoder(rLedger).Decode(&x.state)
	if err != nil {
		return fmt.Errorf("decode ledger state from JSON: %w", err)
	}

	var rec []string
	var _kv kv

	_csv := csv.NewReader(rStorageItems)
	_csv.FieldsPerRecord = 2
	_csv.ReuseRecord = true

	x.items = x.items[:0]

	for {
		rec, err = _csv.Read()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read next CSV record: %w", err)
		}

		// out-of-range safety guaranteed by csv settings
		_kv.k, err = _encoding.DecodeString(rec[0])
		if err != nil {
			return fmt.Errorf("decode storage item key: %w", err)
		}

		_kv.v, err = _encoding.DecodeString(rec[1])
		if err != nil {
			return fmt.Errorf("decode storage item value: %w", err)
		}

		x.items = append(x.items, _kv)
	}
}

// Height returns ledger height at which the dump was taken.
func (x *Reader) Height() uint64 {
	return x.state.Height
}

// Config returns parameters of the dumped ledger.
func (x *Reader) Config() custody.Config {
	return x.state.Config
}

// IterateStorage passes all storage items of the dumped ledger into f.
func (x *Reader) IterateStorage(f func(key, value []byte)) {
	for i := range x.items {
		f(x.items[i].k, x.items[i].v)
	}
}

// Restore writes all storage items of the dump into the given storage which
// must not hold a ledger. Items are checked to form a consistent ledger
// matching the dumped state first, ErrInconsistentDump is returned otherwise.
// After successful restore, the ledger can be opened with custody.Open.
func (x *Reader) Restore(st storage.Store) error {
	_, err := custody.Open(st, custody.Prm{})
	if err == nil {
		return ErrStorageNotEmpty
	} else if !errors.Is(err, custody.ErrNotInstantiated) {
		return fmt.Errorf("check target storage: %w", err)
	}

	err = x.verify()
	if err != nil {
		return err
	}

	cache := storage.NewMemCachedStore(st)
	for i := range x.items {
		cache.Put(x.items[i].k, x.items[i].v)
	}

	_, err = cache.Persist()
	if err != nil {
		return fmt.Errorf("persist restored items: %w", err)
	}

	return nil
}

// verify stages dumped items in memory and checks them against each other
// and against the dumped ledger state.
func (x *Reader) verify() error {
	var (
		stage = storage.NewMemoryStore()
		cache = storage.NewMemCachedStore(stage)
	)

	seen := make(map[string]struct{}, len(x.items))

	for i := range x.items {
		k := x.items[i].k
		if !custody.IsLedgerKey(k) {
			return fmt.Errorf("%w: unexpected storage key %x", ErrInconsistentDump, k)
		}

		if _, ok := seen[string(k)]; ok {
			return fmt.Errorf("%w: duplicated storage key %x", ErrInconsistentDump, k)
		}

		seen[string(k)] = struct{}{}
		cache.Put(k, x.items[i].v)
	}

	_, err := cache.Persist()
	if err != nil {
		return fmt.Errorf("stage dumped items: %w", err)
	}

	c, err := custody.Open(stage, custody.Prm{})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInconsistentDump, err)
	}

	err = c.Verify()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInconsistentDump, err)
	}

	if !sameConfig(c.Config(), x.state.Config) {
		return fmt.Errorf("%w: ledger parameters differ from storage items", ErrInconsistentDump)
	}

	h, err := c.Height()
	if err != nil {
		return err
	}

	if h != x.state.Height {
		return fmt.Errorf("%w: ledger height %d, storage items are at %d", ErrInconsistentDump, x.state.Height, h)
	}

	return nil
}

func sameConfig(a, b custody.Config) bool {
	return a.Currency == b.Currency &&
		a.Owner == b.Owner &&
		a.Version == b.Version &&
		sameInt(a.MinBootstrap, b.MinBootstrap) &&
		sameInt(a.Bootstrap, b.Bootstrap)
}

func sameInt(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}
