package dump

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nspcc-dev/custody-contract/custody"
)

// ID is a unique identifier of the dump prepared according to the model
// described in the current package.
type ID struct {
	// Label of the dump source (e.g. testnet, backup).
	Label string
	// Ledger height at which the state was taken.
	Height uint64
}

// String returns hyphen-separated ID fields.
func (x ID) String() string {
	return x.Label + sep + strconv.FormatUint(x.Height, 10)
}

// decodes ID fields from the hyphen-separated string.
func (x *ID) decodeString(s string) error {
	ss := strings.Split(s, sep)
	if len(ss) < 2 {
		return fmt.Errorf("expected '%s'-separated string with at least 2 items", sep)
	}

	n, err := strconv.ParseUint(ss[1], 10, 64)
	if err != nil {
		return fmt.Errorf("decode height from '%s': %w", ss[1], err)
	}

	x.Label = ss[0]
	x.Height = n

	return nil
}

// global encoding of binary values.
var _encoding = base64.StdEncoding

var errInvalidLabel = errors.New("invalid dump label")

// dumpLedgerState is a JSON-encoded information about the dumped ledger.
type dumpLedgerState struct {
	Height uint64         `json:"height"`
	Config custody.Config `json:"config"`
}

// dumpStreams groups data streams for ledger state and storage.
type dumpStreams struct {
	ledger, storageItems io.ReadWriteCloser
}

// close closes all streams.
func (x *dumpStreams) close() {
	_ = x.storageItems.Close()
	_ = x.ledger.Close()
}

const (
	// word separator used in dump file naming
	sep = "-"
	// suffix of file with ledger state
	stateFileSuffix = "ledger.json"
	// suffix of file with storage items
	storageFileSuffix = "storage.csv"
)

func checkLabel(label string) error {
	if label == "" || strings.Contains(label, sep) {
		return fmt.Errorf("%w: '%s' must be non-empty and have no '%s'", errInvalidLabel, label, sep)
	}
	return nil
}

// initDumpStreams opens data streams for the dump files located in the
// specified directory. If read flag is set, streams are read-only. Otherwise,
// files must not exist, and streams are write only.
func initDumpStreams(d *dumpStreams, dir string, id ID, read bool) error {
	var (
		err         error
		pathStorage = filepath.Join(dir, id.String()+sep+storageFileSuffix)
		pathLedger  = filepath.Join(dir, id.String()+sep+stateFileSuffix)
		flag        = os.O_RDONLY
		perm        os.FileMode
	)

	if !read {
		for _, p := range []string{pathStorage, pathLedger} {
			if err = checkFileNotExists(p); err != nil {
				return err
			}
		}

		flag = os.O_CREATE | os.O_WRONLY
		perm = 0600
	}

	d.storageItems, err = os.OpenFile(pathStorage, flag, perm)
	if err != nil {
		return fmt.Errorf("open file with storage items: %w", err)
	}

	d.ledger, err = os.OpenFile(pathLedger, flag, perm)
	if err != nil {
		_ = d.storageItems.Close()
		return fmt.Errorf("open file with ledger state: %w", err)
	}

	return nil
}

// checkFileNotExists checks that there is no file at the specified path.
func checkFileNotExists(p string) error {
	_, err := os.Stat(p)
	if !errors.Is(err, os.ErrNotExist) {
		if err == nil {
			err = os.ErrExist
		}
		return fmt.Errorf("file '%s' absence check failed: %w", p, err)
	}
	return nil
}
