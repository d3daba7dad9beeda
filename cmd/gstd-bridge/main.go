package main

import (
	"os"

	"github.com/gstdnetwork/go-compute-bridge/build"
	"github.com/urfave/cli/v2"
)

const (
	FlagBridgeRepo = "repo"
)

func main() {
	app := &cli.App{
		Name:                 "gstd-bridge",
		Usage:                "A bridge client is a tool for submitting compute tasks to the GSTD decentralized marketplace and managing the wallet and task records behind them.",
		EnableBashCompletion: true,
		Version:              build.UserVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    FlagBridgeRepo,
				EnvVars: []string{"GSTD_PATH"},
				Usage:   "bridge repo path",
				Value:   "~/.gstd/bridge",
			},
		},
		Commands: []*cli.Command{
			executeCmd,
			statusCmd,
			benchCmd,
			taskCmd,
			walletCmd,
		},
	}
	app.Setup()

	if err := app.Run(os.Args); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
	}
}
