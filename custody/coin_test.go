package custody

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCoins(t *testing.T) {
	cs, err := ParseCoins("")
	require.NoError(t, err)
	require.Empty(t, cs)

	cs, err = ParseCoins("1000umyr, 0uosmo")
	require.NoError(t, err)
	require.Equal(t, []Coin{NewCoin(1000, "umyr"), NewCoin(0, "uosmo")}, cs)

	cs, err = ParseCoins("5uosmo,5uosmo")
	require.NoError(t, err)
	require.Len(t, cs, 2, "entries must not be merged")

	for _, s := range []string{
		"uosmo",
		"100",
		"-1uosmo",
		"100uosmo,",
		"340282366920938463463374607431768211456uosmo", // 2^128
	} {
		_, err := ParseCoins(s)
		require.ErrorIs(t, err, errInvalidCoin, s)
	}

	c, err := ParseCoin("340282366920938463463374607431768211455uosmo")
	require.NoError(t, err)
	require.Equal(t, 128, c.Amount.BitLen())
}

func TestCoin_String(t *testing.T) {
	require.Equal(t, "100uosmo", NewCoin(100, "uosmo").String())
	require.Equal(t, "0uosmo", Coin{Denom: "uosmo"}.String())
}

func TestCoin_JSON(t *testing.T) {
	data, err := json.Marshal(NewCoin(100, "uosmo"))
	require.NoError(t, err)
	require.JSONEq(t, `{"denom":"uosmo","amount":"100"}`, string(data))

	data, err = json.Marshal(Coin{Denom: "uosmo"})
	require.NoError(t, err)
	require.JSONEq(t, `{"denom":"uosmo","amount":"0"}`, string(data))

	var c Coin
	require.NoError(t, json.Unmarshal([]byte(`{"denom":"uluna","amount":"10"}`), &c))
	require.Equal(t, "uluna", c.Denom)
	require.Zero(t, c.Amount.Cmp(big.NewInt(10)))

	for _, s := range []string{
		`{"denom":"uluna","amount":10}`,
		`{"denom":"uluna","amount":"-10"}`,
		`{"denom":"uluna","amount":"ten"}`,
		`{"denom":"uluna","amount":"+10"}`,
		`{"denom":"uluna","amount":" 10"}`,
		`{"denom":"uluna","amount":""}`,
		`{"denom":"uluna"}`,
	} {
		require.Error(t, json.Unmarshal([]byte(s), &c), s)
	}
}

func TestCoin_UnmarshalAmountDigits(t *testing.T) {
	var c Coin

	for _, amount := range []string{"+5", "-0", " 5", "5 ", "0x5", ""} {
		err := json.Unmarshal([]byte(`{"denom":"uosmo","amount":"`+amount+`"}`), &c)
		require.ErrorIs(t, err, errInvalidCoin, amount)
	}

	require.NoError(t, json.Unmarshal([]byte(`{"denom":"uosmo","amount":"05"}`), &c))
	require.EqualValues(t, 5, c.Amount.Int64())
}
