package main

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/custody-contract/config"
	"github.com/nspcc-dev/custody-contract/custody"
	"github.com/nspcc-dev/custody-contract/dump"
	"github.com/nspcc-dev/custody-contract/msg"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// env groups resources shared by all commands.
type env struct {
	cfg   config.Config
	log   *zap.Logger
	store storage.Store
}

// withEnv loads configuration, opens configured storage and passes them into
// f. Storage is closed after f returns.
func withEnv(ctx *cli.Context, f func(*env) error) error {
	cfg, err := config.Load(ctx.GlobalString("config"))
	if err != nil {
		return err
	}

	log, err := cfg.Logger.Build()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	defer func() { _ = log.Sync() }()

	st, err := storage.NewStore(cfg.DB)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.DB.Type, err)
	}

	e := &env{cfg: cfg, log: log, store: st}
	err = f(e)

	closeErr := st.Close()
	if err == nil && closeErr != nil {
		err = fmt.Errorf("close storage: %w", closeErr)
	}

	return err
}

// withLedger is the same as withEnv but also opens the ledger.
func withLedger(ctx *cli.Context, f func(*env, *custody.Contract) error) error {
	return withEnv(ctx, func(e *env) error {
		c, err := custody.Open(e.store, custody.Prm{Logger: e.log})
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		return f(e, c)
	})
}

func callInfo(ctx *cli.Context) (msg.MessageInfo, error) {
	funds, err := custody.ParseCoins(ctx.String("funds"))
	if err != nil {
		return msg.MessageInfo{}, fmt.Errorf("parse funds: %w", err)
	}

	return msg.MessageInfo{
		Sender: ctx.String("from"),
		Funds:  funds,
	}, nil
}

func instantiate(ctx *cli.Context) error {
	info, err := callInfo(ctx)
	if err != nil {
		return err
	}

	return withEnv(ctx, func(e *env) error {
		c, err := msg.Instantiate(e.store, msg.Env{
			Prm:          custody.Prm{Logger: e.log},
			Currency:     e.cfg.Ledger.Currency,
			MinBootstrap: e.cfg.Ledger.MinBootstrapAmount(),
		}, info, []byte(`{}`))
		if err != nil {
			return err
		}

		cfg := c.Config()
		fmt.Fprintf(ctx.App.Writer, "ledger of %s instantiated by %s with %s\n",
			cfg.Currency, cfg.Owner, custody.Coin{Denom: cfg.Currency, Amount: cfg.Bootstrap})

		return nil
	})
}

func deposit(ctx *cli.Context) error {
	info, err := callInfo(ctx)
	if err != nil {
		return err
	}

	return withLedger(ctx, func(e *env, c *custody.Contract) error {
		err := msg.Execute(c, info, []byte(`{"deposit":{}}`))
		if err != nil {
			return err
		}

		fmt.Fprintf(ctx.App.Writer, "deposited %s to %s\n", info.Funds[0], info.Sender)

		return nil
	})
}

func printBalance(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("exactly one account must be specified")
	}

	account := ctx.Args().First()

	return withLedger(ctx, func(e *env, c *custody.Contract) error {
		b, err := c.Balance(account)
		if err != nil {
			return err
		}

		fmt.Fprintln(ctx.App.Writer, formatCoin(ctx, e, b))

		return nil
	})
}

func printSupply(ctx *cli.Context) error {
	return withLedger(ctx, func(e *env, c *custody.Contract) error {
		s, err := c.TotalSupply()
		if err != nil {
			return err
		}

		fmt.Fprintln(ctx.App.Writer, formatCoin(ctx, e, s))

		return nil
	})
}

func listAccounts(ctx *cli.Context) error {
	return withLedger(ctx, func(e *env, c *custody.Contract) error {
		c.IterateBalances(func(account string, amount custody.Coin) bool {
			fmt.Fprintf(ctx.App.Writer, "%s\t%s\n", account, formatCoin(ctx, e, amount))
			return true
		})
		return nil
	})
}

func query(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("exactly one JSON query message must be specified")
	}

	raw := []byte(ctx.Args().First())

	return withLedger(ctx, func(e *env, c *custody.Contract) error {
		resp, err := msg.Query(c, raw)
		if err != nil {
			return err
		}

		fmt.Fprintln(ctx.App.Writer, string(resp))

		return nil
	})
}

func dumpLedger(ctx *cli.Context) error {
	return withLedger(ctx, func(e *env, c *custody.Contract) error {
		id, err := dump.Ledger(c, ctx.String("dir"), ctx.String("label"))
		if err != nil {
			return err
		}

		e.log.Info("ledger dumped", zap.String("dir", ctx.String("dir")), zap.Stringer("id", id))
		fmt.Fprintf(ctx.App.Writer, "ledger is dumped as '%s'\n", id)

		return nil
	})
}

func restoreLedger(ctx *cli.Context) error {
	id := dump.ID{
		Label:  ctx.String("label"),
		Height: ctx.Uint64("height"),
	}

	r, err := dump.ReadDump(ctx.String("dir"), id)
	if err != nil {
		return fmt.Errorf("read dump '%s': %w", id, err)
	}

	return withEnv(ctx, func(e *env) error {
		err := r.Restore(e.store)
		if err != nil {
			return err
		}

		c, err := custody.Open(e.store, custody.Prm{Logger: e.log})
		if err != nil {
			return fmt.Errorf("open restored ledger: %w", err)
		}

		h, err := c.Height()
		if err != nil {
			return err
		}

		fmt.Fprintf(ctx.App.Writer, "ledger is restored at height %d\n", h)

		return nil
	})
}

func formatCoin(ctx *cli.Context, e *env, c custody.Coin) string {
	if !ctx.Bool("human") {
		return c.String()
	}

	amount := c.Amount
	if amount == nil {
		amount = new(big.Int)
	}

	return fixedn.ToString(amount, e.cfg.Ledger.Decimals) + " " + c.Denom
}
