package custody

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// maxAmountBits is a bit size of the largest amount accepted on the wire.
const maxAmountBits = 128

var errInvalidCoin = errors.New("invalid coin")

// Coin is a single (denomination, amount) entry of the funds attached to a
// call.
type Coin struct {
	Denom  string
	Amount *big.Int
}

// coinJSON is a wire representation of Coin. Amount is a decimal string.
type coinJSON struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// NewCoin returns Coin of the given amount and denomination.
func NewCoin(amount int64, denom string) Coin {
	return Coin{Denom: denom, Amount: big.NewInt(amount)}
}

// Coins returns single-entry funds of the given amount and denomination.
func Coins(amount int64, denom string) []Coin {
	return []Coin{NewCoin(amount, denom)}
}

// String returns amount immediately followed by the denomination, e.g.
// "100uosmo".
func (c Coin) String() string {
	if c.Amount == nil {
		return "0" + c.Denom
	}
	return c.Amount.String() + c.Denom
}

// MarshalJSON implements json.Marshaler.
func (c Coin) MarshalJSON() ([]byte, error) {
	amount := "0"
	if c.Amount != nil {
		amount = c.Amount.String()
	}
	return json.Marshal(coinJSON{Denom: c.Denom, Amount: amount})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Coin) UnmarshalJSON(data []byte) error {
	var j coinJSON

	err := json.Unmarshal(data, &j)
	if err != nil {
		return err
	}

	amount, err := parseAmount(j.Amount)
	if err != nil {
		return err
	}

	c.Denom = j.Denom
	c.Amount = amount

	return nil
}

// ParseCoin decodes Coin from its string form, see Coin.String.
func ParseCoin(s string) (Coin, error) {
	s = strings.TrimSpace(s)

	i := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	switch i {
	case -1:
		return Coin{}, fmt.Errorf("%w: missing denomination in '%s'", errInvalidCoin, s)
	case 0:
		return Coin{}, fmt.Errorf("%w: missing amount in '%s'", errInvalidCoin, s)
	}

	amount, err := parseAmount(s[:i])
	if err != nil {
		return Coin{}, err
	}

	return Coin{Denom: s[i:], Amount: amount}, nil
}

// ParseCoins decodes comma-separated list of coins. Empty string means no
// funds. Entries are neither merged nor deduplicated.
func ParseCoins(s string) ([]Coin, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	ss := strings.Split(s, ",")
	res := make([]Coin, 0, len(ss))

	for i := range ss {
		c, err := ParseCoin(ss[i])
		if err != nil {
			return nil, fmt.Errorf("coin #%d: %w", i, err)
		}
		res = append(res, c)
	}

	return res, nil
}

func parseAmount(s string) (*big.Int, error) {
	if s == "" || s[0] < '0' || s[0] > '9' {
		return nil, fmt.Errorf("%w: invalid amount '%s'", errInvalidCoin, s)
	}

	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: invalid amount '%s'", errInvalidCoin, s)
	}
	if amount.BitLen() > maxAmountBits {
		return nil, fmt.Errorf("%w: amount %s overflows %d bits", errInvalidCoin, s, maxAmountBits)
	}
	return amount, nil
}
