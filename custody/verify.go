package custody

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/custody-contract/balance"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
)

// ErrCorruptedLedger is returned by Verify if ledger storage items are
// inconsistent with each other.
var ErrCorruptedLedger = errors.New("corrupted ledger")

var infoKeys = [][]byte{currencyKey, minimumKey, ownerKey, bootstrapKey, versionKey, heightKey}

// IsLedgerKey checks whether key is a storage key the ledger can write.
func IsLedgerKey(key []byte) bool {
	switch {
	case len(key) > 1 && key[0] == balance.AccountPrefix:
		return true
	case len(key) == 1 && key[0] == balance.SupplyKey:
		return true
	}

	for i := range infoKeys {
		if bytes.Equal(key, infoKeys[i]) {
			return true
		}
	}

	return false
}

// Verify checks that the ledger state could be produced by validated calls:
// parameters are well-formed, the height is positive, every recorded balance
// is positive and they sum up to the total supply.
func (c *Contract) Verify() error {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	switch cfg := c.cfg; {
	case cfg.Currency == "":
		return fmt.Errorf("%w: empty currency", ErrCorruptedLedger)
	case cfg.Owner == "":
		return fmt.Errorf("%w: empty owner", ErrCorruptedLedger)
	case cfg.MinBootstrap.Sign() < 0:
		return fmt.Errorf("%w: negative bootstrap minimum", ErrCorruptedLedger)
	case cfg.Bootstrap.Cmp(cfg.MinBootstrap) < 0 || cfg.Bootstrap.Sign() <= 0:
		return fmt.Errorf("%w: bootstrap %s is out of range", ErrCorruptedLedger, cfg.Bootstrap)
	}

	h, err := getInt(c.store, heightKey)
	if err != nil {
		return err
	} else if h.Sign() <= 0 || !h.IsUint64() {
		return fmt.Errorf("%w: invalid height %s", ErrCorruptedLedger, h)
	}

	bs := balance.NewStore(storage.NewMemCachedStore(c.store))

	supply, err := bs.TotalSupply()
	if err != nil {
		return err
	}

	sum := new(big.Int)
	bs.Iterate(func(account string, amount *big.Int) bool {
		if amount.Sign() <= 0 {
			err = fmt.Errorf("%w: non-positive balance of '%s'", ErrCorruptedLedger, account)
			return false
		}
		sum.Add(sum, amount)
		return true
	})
	if err != nil {
		return err
	}

	if sum.Cmp(supply) != 0 {
		return fmt.Errorf("%w: balances sum up to %s, total supply is %s", ErrCorruptedLedger, sum, supply)
	}

	return nil
}
