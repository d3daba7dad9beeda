package stress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/filswan/go-swan-lib/logs"
	"github.com/gstdnetwork/go-compute-bridge/bridge"
	"github.com/gstdnetwork/go-compute-bridge/constants"
	"github.com/gstdnetwork/go-compute-bridge/models"
	"github.com/shopspring/decimal"
)

// Options shapes a stress run: how many concurrent clients, how many
// tasks each submits, and the per-task parameters.
type Options struct {
	Clients        int
	TasksPerClient int
	TaskType       string
	Capabilities   []string
	BudgetGstd     float64
	Timeout        time.Duration
}

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.Clients <= 0 {
		opts.Clients = 4
	}
	if opts.TasksPerClient <= 0 {
		opts.TasksPerClient = 5
	}
	if opts.TaskType == "" {
		opts.TaskType = constants.TaskTypeCompute
	}
	if len(opts.Capabilities) == 0 {
		opts.Capabilities = []string{"cpu"}
	}
	if opts.BudgetGstd <= 0 {
		opts.BudgetGstd = 1.0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return opts
}

// Report aggregates the outcome of a stress run. Money amounts use
// fixed-point decimals so totals can be audited against the escrow
// summary without float drift.
type Report struct {
	Submitted int
	Completed int
	Failed    int

	TotalBudgetGstd decimal.Decimal
	TotalCostGstd   decimal.Decimal
	Duration        time.Duration

	Errors []string
}

func (r *Report) String() string {
	return fmt.Sprintf("submitted: %d, completed: %d, failed: %d, total cost: %s gstd, duration: %s",
		r.Submitted, r.Completed, r.Failed, r.TotalCostGstd.StringFixed(9), r.Duration.Round(time.Millisecond))
}

// BridgeFactory builds one bridge client per simulated tenant.
type BridgeFactory func(clientId string) *bridge.Bridge

// Run drives concurrent end-to-end executions through independent
// bridge clients and aggregates the settled costs.
func Run(ctx context.Context, newBridge BridgeFactory, options Options) *Report {
	opts := (&options).withDefaults()
	started := time.Now()

	var mu sync.Mutex
	report := &Report{}

	var wg sync.WaitGroup
	for i := 0; i < opts.Clients; i++ {
		wg.Add(1)
		go func(clientNum int) {
			defer wg.Done()

			clientId := fmt.Sprintf("gstd_stress_%03d", clientNum)
			b := newBridge(clientId)
			defer b.Close()

			for j := 0; j < opts.TasksPerClient; j++ {
				task, err := b.Execute(ctx, bridge.ExecuteRequest{
					TaskType:      opts.TaskType,
					Payload:       map[string]interface{}{"client": clientId, "seq": j},
					Capabilities:  opts.Capabilities,
					MaxBudgetGstd: opts.BudgetGstd,
					Timeout:       opts.Timeout,
				})

				mu.Lock()
				report.Submitted++
				if err != nil {
					report.Failed++
					report.Errors = append(report.Errors, fmt.Sprintf("%s/%d: %v", clientId, j, err))
					mu.Unlock()
					continue
				}
				if task.Status == models.TaskStatusCompleted {
					report.Completed++
					report.TotalBudgetGstd = report.TotalBudgetGstd.Add(decimal.NewFromFloat(opts.BudgetGstd))
					report.TotalCostGstd = report.TotalCostGstd.Add(decimal.NewFromFloat(task.ActualCostGstd))
				} else {
					report.Failed++
					report.Errors = append(report.Errors, fmt.Sprintf("%s/%d: terminal status %s", clientId, j, task.Status))
				}
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	report.Duration = time.Since(started)
	logs.GetLogger().Infof("stress run finished: %s", report)
	return report
}

var (
	conservationTolerance = decimal.RequireFromString("0.01")
	rewardShare           = decimal.RequireFromString("0.95")
	feeShare              = decimal.RequireFromString("0.05")
)

// VerifyConservation checks the payout distribution against the budgets
// the run escrowed: workers receive 95% of the completed budgets and
// the platform keeps 5%, each within tolerance.
func VerifyConservation(report *Report, totalRewards, totalFees decimal.Decimal) error {
	expectedRewards := report.TotalBudgetGstd.Mul(rewardShare)
	if diff := totalRewards.Sub(expectedRewards).Abs(); diff.GreaterThan(conservationTolerance) {
		return fmt.Errorf("reward distribution violated, rewards: %s, expected 95%% of %s budgets: %s, diff: %s",
			totalRewards.StringFixed(9), report.TotalBudgetGstd.StringFixed(9), expectedRewards.StringFixed(9), diff.StringFixed(9))
	}

	expectedFees := report.TotalBudgetGstd.Mul(feeShare)
	if diff := totalFees.Sub(expectedFees).Abs(); diff.GreaterThan(conservationTolerance) {
		return fmt.Errorf("fee distribution violated, fees: %s, expected 5%% of %s budgets: %s, diff: %s",
			totalFees.StringFixed(9), report.TotalBudgetGstd.StringFixed(9), expectedFees.StringFixed(9), diff.StringFixed(9))
	}

	booked := totalRewards.Add(totalFees)
	if diff := report.TotalBudgetGstd.Sub(booked).Abs(); diff.GreaterThan(conservationTolerance) {
		return fmt.Errorf("escrow conservation violated, budgets: %s, rewards+fees: %s, diff: %s",
			report.TotalBudgetGstd.StringFixed(9), booked.StringFixed(9), diff.StringFixed(9))
	}
	return nil
}
