package main

import (
	"fmt"
	"io"
	"os"

	"github.com/nspcc-dev/custody-contract/common"
	"github.com/urfave/cli"
)

func main() {
	err := newApp(os.Stdout).Run(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(w io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "custody"
	app.Usage = "Custody ledger accepting deposits of a single currency"
	app.Version = common.VersionString(common.Version)
	app.Writer = w
	app.ErrWriter = w
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "Path to the YAML configuration file",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "instantiate",
			Usage:  "Create a new ledger funded with bootstrap deposit",
			Flags:  []cli.Flag{fromFlag, fundsFlag},
			Action: instantiate,
		},
		{
			Name:   "deposit",
			Usage:  "Deposit funds to the sender account",
			Flags:  []cli.Flag{fromFlag, fundsFlag},
			Action: deposit,
		},
		{
			Name:      "balance",
			Usage:     "Print balance of the account",
			ArgsUsage: "<account>",
			Flags:     []cli.Flag{humanFlag},
			Action:    printBalance,
		},
		{
			Name:   "supply",
			Usage:  "Print sum of all deposits",
			Flags:  []cli.Flag{humanFlag},
			Action: printSupply,
		},
		{
			Name:   "accounts",
			Usage:  "Print all accounts with their balances",
			Flags:  []cli.Flag{humanFlag},
			Action: listAccounts,
		},
		{
			Name:      "query",
			Usage:     "Execute JSON query message and print JSON response",
			ArgsUsage: `'{"get_balance":{"address":"<account>"}}'`,
			Action:    query,
		},
		{
			Name:   "dump",
			Usage:  "Dump ledger state into the directory",
			Flags:  []cli.Flag{dirFlag, labelFlag},
			Action: dumpLedger,
		},
		{
			Name:  "restore",
			Usage: "Restore ledger state from the dump into empty storage",
			Flags: []cli.Flag{dirFlag, labelFlag, cli.Uint64Flag{
				Name:  "height",
				Usage: "Ledger height of the dump",
			}},
			Action: restoreLedger,
		},
	}

	return app
}

var (
	fromFlag = cli.StringFlag{
		Name:  "from",
		Usage: "Caller account",
	}
	fundsFlag = cli.StringFlag{
		Name:  "funds",
		Usage: "Comma-separated list of attached coins, e.g. '100uosmo'",
	}
	humanFlag = cli.BoolFlag{
		Name:  "human",
		Usage: "Print amounts with the configured currency precision",
	}
	dirFlag = cli.StringFlag{
		Name:  "dir",
		Usage: "Directory with ledger dumps",
		Value: "testdata",
	}
	labelFlag = cli.StringFlag{
		Name:  "label",
		Usage: "Label of the dump (e.g. 'backup')",
		Value: "custody",
	}
)
