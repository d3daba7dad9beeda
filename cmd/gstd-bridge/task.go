package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gstdnetwork/go-compute-bridge/conf"
	"github.com/gstdnetwork/go-compute-bridge/constants"
	"github.com/gstdnetwork/go-compute-bridge/ledger"
	"github.com/gstdnetwork/go-compute-bridge/models"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
)

var taskCmd = &cli.Command{
	Name:  "task",
	Usage: "Manage task records",
	Subcommands: []*cli.Command{
		taskList,
		taskDetail,
		taskDelete,
	},
}

var taskList = &cli.Command{
	Name:  "list",
	Usage: "List task records",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Usage:   "--verbose",
			Aliases: []string{"v"},
		},
	},
	Action: func(cctx *cli.Context) error {

		fullFlag := cctx.Bool("verbose")

		if err := initRepoConfig(); err != nil {
			return err
		}

		records, err := ledger.ListTasks()
		if err != nil {
			return fmt.Errorf("failed list task records, error: %+v", err)
		}

		var taskData [][]string
		var rowColorList []RowColor
		var number int
		for _, record := range records {
			createdAt := time.Unix(record.CreatedAt, 0).Format("2006-01-02 15:04:05")

			if fullFlag {
				taskData = append(taskData,
					[]string{record.TaskId, record.TaskType, record.Status, record.WorkerId, record.PayloadHash,
						formatGstd(record.MaxBudgetGstd), formatGstd(record.ActualCostGstd), createdAt})
			} else {
				var taskId string
				if len(record.TaskId) > 12 {
					taskId = "..." + record.TaskId[len(record.TaskId)-12:]
				} else {
					taskId = record.TaskId
				}

				var payloadHash string
				if len(record.PayloadHash) > 10 {
					payloadHash = record.PayloadHash[:10] + "..."
				}

				taskData = append(taskData,
					[]string{taskId, record.TaskType, record.Status, record.WorkerId, payloadHash,
						formatGstd(record.MaxBudgetGstd), formatGstd(record.ActualCostGstd), createdAt})
			}

			rowColorList = append(rowColorList, RowColor{
				row:    number,
				column: []int{2},
				color:  statusRowColor(record.Status),
			})
			number++
		}

		header := []string{"TASK ID", "TASK TYPE", "STATUS", "WORKER ID", "PAYLOAD HASH", "MAX BUDGET", "ACTUAL COST", "CREATED AT"}
		fmt.Println("")
		NewVisualTable(header, taskData, rowColorList).Generate()

		return nil
	},
}

var taskDetail = &cli.Command{
	Name:      "get",
	Usage:     "Get task record detail",
	ArgsUsage: "[task_id]",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return fmt.Errorf("incorrect number of arguments, got %d, missing args: task_id", cctx.NArg())
		}

		if err := initRepoConfig(); err != nil {
			return err
		}

		key := constants.REDIS_TASK_PREFIX + cctx.Args().First()
		record, err := ledger.RetrieveTask(key)
		if err != nil {
			return fmt.Errorf("failed get task record: %s, error: %+v", key, err)
		}

		var completedAt string
		if record.CompletedAt > 0 {
			completedAt = time.Unix(record.CompletedAt, 0).Format("2006-01-02 15:04:05")
		}

		var taskData [][]string
		taskData = append(taskData, []string{"TASK TYPE:", record.TaskType})
		taskData = append(taskData, []string{"STATUS:", record.Status})
		taskData = append(taskData, []string{"WORKER ID:", record.WorkerId})
		taskData = append(taskData, []string{"PAYLOAD HASH:", record.PayloadHash})
		taskData = append(taskData, []string{"MAX BUDGET:", formatGstd(record.MaxBudgetGstd)})
		taskData = append(taskData, []string{"ACTUAL COST:", formatGstd(record.ActualCostGstd)})
		taskData = append(taskData, []string{"CREATED AT:", time.Unix(record.CreatedAt, 0).Format("2006-01-02 15:04:05")})
		taskData = append(taskData, []string{"COMPLETED AT:", completedAt})

		header := []string{"TASK ID:", record.TaskId}

		var rowColorList []RowColor
		rowColorList = append(rowColorList, RowColor{
			row:    1,
			column: []int{1},
			color:  statusRowColor(record.Status),
		})
		NewVisualTable(header, taskData, rowColorList).Generate()
		return nil
	},
}

var taskDelete = &cli.Command{
	Name:      "delete",
	Usage:     "Delete a task record",
	ArgsUsage: "[task_id]",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return fmt.Errorf("incorrect number of arguments, got %d, missing args: task_id", cctx.NArg())
		}

		if err := initRepoConfig(); err != nil {
			return err
		}

		if err := ledger.DeleteTask(cctx.Args().First()); err != nil {
			return fmt.Errorf("failed delete task record, error: %+v", err)
		}
		return nil
	},
}

func initRepoConfig() error {
	repoPath, exit := os.LookupEnv("GSTD_PATH")
	if !exit {
		return fmt.Errorf("missing GSTD_PATH env, please set export GSTD_PATH=xxx")
	}
	if err := conf.InitConfig(repoPath); err != nil {
		return fmt.Errorf("load config file failed, error: %+v", err)
	}
	return nil
}

func formatGstd(amount float64) string {
	if amount == 0 {
		return ""
	}
	return strconv.FormatFloat(amount, 'f', -1, 64) + " gstd"
}

func statusRowColor(status string) []tablewriter.Colors {
	switch models.TaskStatus(status) {
	case models.TaskStatusCompleted:
		return []tablewriter.Colors{{tablewriter.Bold, tablewriter.FgGreenColor}, {tablewriter.Bold, tablewriter.FgWhiteColor}}
	case models.TaskStatusPending, models.TaskStatusProcessing:
		return []tablewriter.Colors{{tablewriter.Bold, tablewriter.FgYellowColor}, {tablewriter.Bold, tablewriter.FgWhiteColor}}
	default:
		return []tablewriter.Colors{{tablewriter.Bold, tablewriter.FgRedColor}, {tablewriter.Bold, tablewriter.FgWhiteColor}}
	}
}
