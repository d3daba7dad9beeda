package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/filswan/go-swan-lib/logs"
	"github.com/gstdnetwork/go-compute-bridge/bridge"
	"github.com/gstdnetwork/go-compute-bridge/conf"
	"github.com/gstdnetwork/go-compute-bridge/ledger"
	"github.com/gstdnetwork/go-compute-bridge/models"
	"github.com/gstdnetwork/go-compute-bridge/stress"
	"github.com/gstdnetwork/go-compute-bridge/util"
	"github.com/gstdnetwork/go-compute-bridge/wallet"
	"github.com/gstdnetwork/go-compute-bridge/yaml"
	"github.com/urfave/cli/v2"
)

var executeCmd = &cli.Command{
	Name:      "execute",
	Usage:     "Execute a task on the marketplace end to end",
	ArgsUsage: "[payload (optional when --file is set)]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "file",
			Usage:   "path to a task definition yaml file",
			Aliases: []string{"f"},
		},
		&cli.StringFlag{
			Name:  "type",
			Usage: "task type: compute, inference or render",
			Value: "compute",
		},
		&cli.Float64Flag{
			Name:  "budget",
			Usage: "max budget in gstd",
		},
		&cli.IntFlag{
			Name:  "timeout",
			Usage: "result wait timeout in seconds",
		},
		&cli.BoolFlag{
			Name:  "no-wait",
			Usage: "submit only, do not wait for the result",
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := util.ReqContext()

		if err := initRepoConfig(); err != nil {
			return err
		}

		req := bridge.ExecuteRequest{
			TaskType:      cctx.String("type"),
			MaxBudgetGstd: cctx.Float64("budget"),
			Timeout:       time.Duration(cctx.Int("timeout")) * time.Second,
			NoWait:        cctx.Bool("no-wait"),
		}

		if taskFile := cctx.String("file"); taskFile != "" {
			taskDef, err := yaml.HandlerYaml(taskFile)
			if err != nil {
				return err
			}
			req.TaskType = taskDef.TaskType
			req.Payload = taskDef.Payload
			req.Capabilities = taskDef.Capabilities
			req.MinReputation = taskDef.MinReputation
			req.Metadata = taskDef.Metadata
			req.Priority = models.TaskPriority(taskDef.Priority)
			if req.MaxBudgetGstd <= 0 {
				req.MaxBudgetGstd = taskDef.MaxBudgetGstd
			}
			if req.Timeout <= 0 {
				req.Timeout = time.Duration(taskDef.TimeoutSeconds) * time.Second
			}
		} else {
			if !cctx.Args().Present() {
				return fmt.Errorf("must specify a payload or a task definition file")
			}
			var payload interface{}
			raw := cctx.Args().First()
			if err := json.Unmarshal([]byte(raw), &payload); err != nil {
				payload = raw
			}
			req.Payload = payload
		}

		b := newBridgeFromConf()
		defer b.Close()

		task, err := b.Execute(ctx, req)
		if err != nil {
			return err
		}

		if err := ledger.SaveTask(task); err != nil {
			logs.GetLogger().Errorf("failed save task record, task: %s, error: %+v", task.Id, err)
		}

		fmt.Printf("task id: %s\n", task.Id)
		fmt.Printf("status:  %s\n", task.Status)
		if task.Status == models.TaskStatusCompleted {
			fmt.Printf("cost:    %s gstd\n", strconv.FormatFloat(task.ActualCostGstd, 'f', -1, 64))
			fmt.Printf("result:  %v\n", task.ResultData)
		}
		return nil
	},
}

var statusCmd = &cli.Command{
	Name:  "status",
	Usage: "Show marketplace health and wallet liquidity",
	Action: func(cctx *cli.Context) error {
		ctx := util.ReqContext()

		if err := initRepoConfig(); err != nil {
			return err
		}

		b := newBridgeFromConf()
		defer b.Close()

		status, err := b.GetStatus(ctx)
		if err != nil {
			return err
		}

		liquidity, _, err := b.EnsureLiquidity(ctx, 0, nil)
		if err != nil {
			return err
		}

		var data [][]string
		data = append(data, []string{"ONLINE:", strconv.FormatBool(status.IsOnline)})
		data = append(data, []string{"ACTIVE WORKERS:", strconv.Itoa(status.ActiveWorkers)})
		data = append(data, []string{"PENDING TASKS:", strconv.Itoa(status.PendingTasks)})
		data = append(data, []string{"AVG LATENCY:", strconv.Itoa(status.AvgLatencyMs) + " ms"})
		data = append(data, []string{"GSTD BALANCE:", strconv.FormatFloat(liquidity.GstdBalance, 'f', -1, 64)})
		data = append(data, []string{"TON BALANCE:", strconv.FormatFloat(liquidity.TonBalance, 'f', -1, 64)})
		data = append(data, []string{"RESERVED GSTD:", strconv.FormatFloat(liquidity.ReservedGstd, 'f', -1, 64)})
		data = append(data, []string{"AVAILABLE GSTD:", strconv.FormatFloat(liquidity.AvailableGstd, 'f', -1, 64)})

		header := []string{"MARKETPLACE:", conf.GetConfig().API.Url}
		NewVisualTable(header, data, nil).Generate()
		return nil
	},
}

var benchCmd = &cli.Command{
	Name:  "bench",
	Usage: "Run a concurrent execution benchmark against the marketplace",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "clients",
			Usage: "number of concurrent clients",
			Value: 4,
		},
		&cli.IntFlag{
			Name:  "tasks",
			Usage: "tasks per client",
			Value: 5,
		},
		&cli.Float64Flag{
			Name:  "budget",
			Usage: "per task budget in gstd",
			Value: 1.0,
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := util.ReqContext()

		if err := initRepoConfig(); err != nil {
			return err
		}

		report := stress.Run(ctx, func(clientId string) *bridge.Bridge {
			cfg := bridgeConfigFromConf()
			cfg.ClientId = clientId
			return bridge.New(cfg)
		}, stress.Options{
			Clients:        cctx.Int("clients"),
			TasksPerClient: cctx.Int("tasks"),
			BudgetGstd:     cctx.Float64("budget"),
		})

		fmt.Println(report)
		for _, errMsg := range report.Errors {
			fmt.Println("  " + errMsg)
		}
		return nil
	},
}

func bridgeConfigFromConf() bridge.Config {
	cfg := bridge.DefaultConfig()
	apiConf := conf.GetConfig()
	if apiConf.API.Url != "" {
		cfg.ApiUrl = apiConf.API.Url
	}
	if apiConf.API.ApiKey != "" {
		cfg.ApiKey = apiConf.API.ApiKey
	}
	if apiConf.WALLET.Address != "" {
		cfg.WalletAddress = apiConf.WALLET.Address
		cfg.ClientId = wallet.ClientIdForAddress(apiConf.WALLET.Address)
	}
	cfg.AutoSwapEnabled = apiConf.SWAP.AutoSwapEnabled
	if apiConf.SWAP.MaxAutoSwapTon > 0 {
		cfg.MaxAutoSwapTon = apiConf.SWAP.MaxAutoSwapTon
	}
	if apiConf.TASK.PollIntervalSeconds > 0 {
		cfg.PollIntervalSeconds = apiConf.TASK.PollIntervalSeconds
	}
	if apiConf.TASK.TimeoutSeconds > 0 {
		cfg.TaskTimeoutSeconds = apiConf.TASK.TimeoutSeconds
	}
	return cfg
}

func newBridgeFromConf() *bridge.Bridge {
	return bridge.New(bridgeConfigFromConf())
}
