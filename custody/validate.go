package custody

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrInvalidInstantiation is returned when bootstrap funds of the ledger
	// are missing, of the wrong currency or below the minimum.
	ErrInvalidInstantiation = errors.New("Invalid instantiation")

	// ErrInvalidDeposit is returned when funds attached to the deposit are
	// empty, have more than one entry, are of the wrong currency or have
	// non-positive amount.
	ErrInvalidDeposit = errors.New("Invalid deposit!")
)

// singleCoin returns the only entry of funds if it is of the given currency.
// Entry count is checked before any denomination match: a genuine coin next to
// any other entry (including zero-amount ones) is rejected as a whole.
func singleCoin(funds []Coin, currency string, kind error) (Coin, error) {
	switch len(funds) {
	case 0:
		return Coin{}, fmt.Errorf("%w: no funds attached", kind)
	case 1:
	default:
		return Coin{}, fmt.Errorf("%w: %d funds entries, exactly one expected", kind, len(funds))
	}

	if funds[0].Denom != currency {
		return Coin{}, fmt.Errorf("%w: unexpected denomination '%s'", kind, funds[0].Denom)
	}

	return funds[0], nil
}

// checkDeposit returns amount to be credited for the given deposit funds.
func checkDeposit(funds []Coin, currency string) (*big.Int, error) {
	c, err := singleCoin(funds, currency, ErrInvalidDeposit)
	if err != nil {
		return nil, err
	}

	if c.Amount == nil || c.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: non-positive amount", ErrInvalidDeposit)
	}

	return new(big.Int).Set(c.Amount), nil
}

// checkBootstrap returns bootstrap amount of the ledger being instantiated.
func checkBootstrap(funds []Coin, currency string, minimum *big.Int) (*big.Int, error) {
	c, err := singleCoin(funds, currency, ErrInvalidInstantiation)
	if err != nil {
		return nil, err
	}

	if c.Amount == nil || c.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: non-positive amount", ErrInvalidInstantiation)
	}

	if c.Amount.Cmp(minimum) < 0 {
		return nil, fmt.Errorf("%w: amount %s is less than %s", ErrInvalidInstantiation, c.Amount, minimum)
	}

	return new(big.Int).Set(c.Amount), nil
}
