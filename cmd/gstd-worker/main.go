package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gstdnetwork/go-compute-bridge/build"
	"github.com/gstdnetwork/go-compute-bridge/util"
	"github.com/gstdnetwork/go-compute-bridge/worker"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:                 "gstd-worker",
		Usage:                "A worker node pulls compute tasks from the GSTD marketplace queue, processes them and submits the results back for settlement.",
		EnableBashCompletion: true,
		Version:              build.UserVersion(),
		Commands: []*cli.Command{
			runCmd,
		},
	}
	app.Setup()

	if err := app.Run(os.Args); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
	}
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "Start a worker process",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "node-id",
			EnvVars: []string{"GSTD_NODE_ID"},
			Usage:   "worker node identifier",
		},
		&cli.StringFlag{
			Name:    "api",
			EnvVars: []string{"GSTD_API_URL"},
			Usage:   "marketplace api url",
			Value:   "http://localhost:8085/api/v1/gstd",
		},
		&cli.IntFlag{
			Name:  "poll-interval",
			Usage: "queue poll interval in seconds",
			Value: 10,
		},
		&cli.StringFlag{
			Name:  "status-file",
			Usage: "mirror the status banner to a plain-text file",
		},
	},
	Action: func(cctx *cli.Context) error {
		nodeId := cctx.String("node-id")
		if nodeId == "" {
			return fmt.Errorf("missing node id, set --node-id or GSTD_NODE_ID")
		}

		w := worker.New(nodeId, cctx.String("api"))
		if statusFile := cctx.String("status-file"); statusFile != "" {
			w.SetStatusFile(statusFile)
		}

		ctx := util.ReqContext()
		err := w.Run(ctx, time.Duration(cctx.Int("poll-interval"))*time.Second)
		if err == context.Canceled {
			return nil
		}
		return err
	},
}
