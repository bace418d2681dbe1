package dump

import (
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/nspcc-dev/custody-contract/custody"
)

// Creator dumps states of the custody ledger. Output file format:
//
//	'<label>-<height>-ledger.json': JSON object with ledger height and parameters
//	'<label>-<height>-storage.csv': CSV of ledger storage
//
// Storage CSV are 'key,value' where binary key-value are base64-encoded.
//
// Use IterateDumps to access existing dumps.
type Creator struct {
	dumpStreams

	state dumpLedgerState

	storageItemsCSV *csv.Writer
}

// NewCreator returns Creator which dumps the ledger into given directory. The
// dump is identified by specified ID. Resulting Creator should be closed when
// finished working with it.
//
// NewCreator fails if dump with provided ID already exists.
func NewCreator(dir string, id ID) (*Creator, error) {
	err := checkLabel(id.Label)
	if err != nil {
		return nil, err
	}

	var res Creator

	err = initDumpStreams(&res.dumpStreams, dir, id, false)
	if err != nil {
		return nil, err
	}

	res.state.Height = id.Height
	res.storageItemsCSV = csv.NewWriter(res.dumpStreams.storageItems)

	return &res, nil
}

// SetConfig sets parameters of the dumped ledger.
func (x *Creator) SetConfig(cfg custody.Config) {
	x.state.Config = cfg
}

// Write saves given binary key-value into the dump as storage item.
func (x *Creator) Write(key, value []byte) error {
	err := x.storageItemsCSV.Write([]string{
		_encoding.EncodeToString(key),
		_encoding.EncodeToString(value),
	})
	if err != nil {
		return fmt.Errorf("write storage item as CSV data: %w", err)
	}

	return nil
}

// Flush flushes accumulated dump to the file system.
func (x *Creator) Flush() error {
	jEnc := json.NewEncoder(x.dumpStreams.ledger)
	jEnc.SetIndent("", " ")

	err := jEnc.Encode(x.state)
	if err != nil {
		return fmt.Errorf("encode ledger state to JSON: %w", err)
	}

	x.storageItemsCSV.Flush()

	err = x.storageItemsCSV.Error()
	if err != nil {
		return fmt.Errorf("flush CSV data: %w", err)
	}

	return nil
}

// Close releases underlying resources of the Creator and makes it unusable.
func (x *Creator) Close() {
	x.close()
}

// Ledger dumps full state of the given ledger into directory under given
// label. The dump is identified by the ledger height at which the state was
// taken.
func Ledger(c *custody.Contract, dir, label string) (ID, error) {
	var items [][2][]byte

	h, err := c.Snapshot(func(key, value []byte) error {
		items = append(items, [2][]byte{key, value})
		return nil
	})
	if err != nil {
		return ID{}, fmt.Errorf("read ledger storage: %w", err)
	}

	id := ID{Label: label, Height: h}

	d, err := NewCreator(dir, id)
	if err != nil {
		return id, err
	}

	defer d.Close()

	d.SetConfig(c.Config())

	for i := range items {
		err = d.Write(items[i][0], items[i][1])
		if err != nil {
			return id, err
		}
	}

	return id, d.Flush()
}
