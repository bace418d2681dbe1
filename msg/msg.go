/*
Package msg provides JSON messages of the custody ledger and dispatches them
to the custody.Contract.

	instantiate: {}
	execute:     {"deposit":{}}
	query:       {"get_balance":{"address":"<account>"}}
	             {"total_supply":{}}
	             {"config":{}}

Funds and caller identity are not a part of the message, they are passed in
MessageInfo by the host.
*/
package msg

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/nspcc-dev/custody-contract/custody"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
)

// ErrUnknownMessage is returned for malformed messages and messages with
// unsupported or ambiguous variant.
var ErrUnknownMessage = errors.New("unknown message")

type (
	// MessageInfo groups information about the call provided by the host.
	MessageInfo struct {
		Sender string
		Funds  []custody.Coin
	}

	// InstantiateMsg is a message instantiating the ledger.
	InstantiateMsg struct{}

	// ExecuteMsg is a message of state-changing call. Exactly one field must
	// be set.
	ExecuteMsg struct {
		Deposit *DepositMsg `json:"deposit,omitempty"`
	}

	// DepositMsg credits sender with attached funds.
	DepositMsg struct{}

	// QueryMsg is a message of read-only call. Exactly one field must be set.
	QueryMsg struct {
		GetBalance  *GetBalanceQuery `json:"get_balance,omitempty"`
		TotalSupply *struct{}        `json:"total_supply,omitempty"`
		Config      *struct{}        `json:"config,omitempty"`
	}

	// GetBalanceQuery requests balance of the account.
	GetBalanceQuery struct {
		Address string `json:"address"`
	}

	// BalanceResponse is a response to GetBalanceQuery and TotalSupply query.
	BalanceResponse struct {
		Amount custody.Coin `json:"amount"`
	}

	// ConfigResponse is a response to Config query.
	ConfigResponse struct {
		Currency     string `json:"currency"`
		MinBootstrap string `json:"min_bootstrap"`
		Owner        string `json:"owner"`
		Bootstrap    string `json:"bootstrap"`
		Version      int    `json:"version"`
	}
)

// Env groups host parameters of the ledger which are not a part of
// InstantiateMsg.
type Env struct {
	custody.Prm

	Currency     string
	MinBootstrap *big.Int
}

// Instantiate decodes InstantiateMsg and instantiates the ledger in the given
// storage.
func Instantiate(st storage.Store, env Env, info MessageInfo, raw []byte) (*custody.Contract, error) {
	var m InstantiateMsg

	err := decode(raw, &m)
	if err != nil {
		return nil, err
	}

	return custody.Instantiate(st, custody.InstantiatePrm{
		Prm:          env.Prm,
		Currency:     env.Currency,
		MinBootstrap: env.MinBootstrap,
		Owner:        info.Sender,
		Funds:        info.Funds,
	})
}

// Execute decodes ExecuteMsg and executes it on the ledger.
func Execute(c *custody.Contract, info MessageInfo, raw []byte) error {
	var m ExecuteMsg

	err := decode(raw, &m)
	if err != nil {
		return err
	}

	switch {
	case m.Deposit != nil:
		return c.Deposit(info.Sender, info.Funds)
	default:
		return fmt.Errorf("%w: no execute variant", ErrUnknownMessage)
	}
}

// Query decodes QueryMsg, executes it on the ledger and returns JSON-encoded
// response.
func Query(c *custody.Contract, raw []byte) ([]byte, error) {
	var m QueryMsg

	err := decode(raw, &m)
	if err != nil {
		return nil, err
	}

	var n int
	for _, set := range []bool{m.GetBalance != nil, m.TotalSupply != nil, m.Config != nil} {
		if set {
			n++
		}
	}
	if n != 1 {
		return nil, fmt.Errorf("%w: %d query variants, exactly one expected", ErrUnknownMessage, n)
	}

	var resp any

	switch {
	case m.GetBalance != nil:
		coin, err := c.Balance(m.GetBalance.Address)
		if err != nil {
			return nil, fmt.Errorf("get balance: %w", err)
		}
		resp = BalanceResponse{Amount: coin}
	case m.TotalSupply != nil:
		coin, err := c.TotalSupply()
		if err != nil {
			return nil, fmt.Errorf("get total supply: %w", err)
		}
		resp = BalanceResponse{Amount: coin}
	default:
		cfg := c.Config()
		resp = ConfigResponse{
			Currency:     cfg.Currency,
			MinBootstrap: cfg.MinBootstrap.String(),
			Owner:        cfg.Owner,
			Bootstrap:    cfg.Bootstrap.String(),
			Version:      cfg.Version,
		}
	}

	return json.Marshal(resp)
}

func decode(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	err := dec.Decode(v)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnknownMessage, err)
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", ErrUnknownMessage)
	}

	return nil
}
