package sim

import (
	"strings"
	"testing"
	"time"

	"github.com/gstdnetwork/go-compute-bridge/models"
	"github.com/shopspring/decimal"
)

const wallet = "EQSimTestWallet001"

func newSeededMarket() *MarketplaceService {
	m := NewMarketplaceService()
	m.SetBalance(wallet, 100.0, 50.0)
	m.AddWorker("worker_01", "EQWorker01", "https://worker-01.test", []string{"gpu"}, 0.9, 50, 1.0)
	return m
}

func TestWorkerLifecycleSettlement(t *testing.T) {
	m := newSeededMarket()

	task, err := m.SubmitTask(SubmitTaskInput{
		ClientId:      "gstd_client",
		ClientWallet:  wallet,
		TaskType:      "render",
		Payload:       `{"prompt":"fox"}`,
		Capabilities:  []string{"gpu"},
		MinReputation: 0.8,
		MaxBudgetGstd: 5.0,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Escrow holds the budget while the task runs.
	status, _, err := m.EnsureLiquidity(wallet, 0, false, 0)
	if err != nil {
		t.Fatal(err)
	}
	if status.ReservedGstd != 5.0 {
		t.Errorf("expected 5.0 gstd reserved, got %v", status.ReservedGstd)
	}

	pending := m.PendingTasks("worker_01")
	if len(pending) != 1 || pending[0].TaskId != task.Id {
		t.Fatalf("expected the queued task for worker_01, got %+v", pending)
	}

	err = m.SubmitResult(task.Id, "worker_01", models.WorkerResult{
		TaskId: task.Id,
		NodeId: "worker_01",
		Result: map[string]interface{}{"frames": 1},
	})
	if err != nil {
		t.Fatal(err)
	}

	resp, err := m.GetTask(task.Id)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != string(models.TaskStatusCompleted) {
		t.Fatalf("expected completed, got %s", resp.Status)
	}
	if resp.ResultHash == "" {
		t.Error("completed task missing result hash")
	}

	// The 5.0 budget splits 95/5: 4.75 to the worker, 0.25 platform
	// fee, escrow released. The reported compute cost is 4.2.
	summary := m.GetEscrowSummary()
	if summary.TotalClientSpend != "5.000000000" {
		t.Errorf("unexpected client spend: %s", summary.TotalClientSpend)
	}
	if summary.TotalWorkerRewards != "4.750000000" {
		t.Errorf("unexpected worker rewards: %s", summary.TotalWorkerRewards)
	}
	if summary.TotalPlatformFees != "0.250000000" {
		t.Errorf("unexpected platform fees: %s", summary.TotalPlatformFees)
	}
	if summary.OpenReservedGstd != "0.000000000" {
		t.Errorf("escrow not released: %s", summary.OpenReservedGstd)
	}
	if resp.ActualCostGstd != 4.2 {
		t.Errorf("unexpected actual cost: %v", resp.ActualCostGstd)
	}
}

func TestSettlementConservesValue(t *testing.T) {
	m := newSeededMarket()

	for i := 0; i < 20; i++ {
		task, err := m.SubmitTask(SubmitTaskInput{
			ClientId:      "gstd_client",
			ClientWallet:  wallet,
			TaskType:      "compute",
			Payload:       `{"seq":1}`,
			MaxBudgetGstd: 0.7,
		})
		if err != nil {
			t.Fatal(err)
		}
		m.PendingTasks("worker_01")
		if err := m.SubmitResult(task.Id, "worker_01", models.WorkerResult{Result: map[string]interface{}{"n": i}}); err != nil {
			t.Fatal(err)
		}
	}

	summary := m.GetEscrowSummary()
	spend := decimal.RequireFromString(summary.TotalClientSpend)
	rewards := decimal.RequireFromString(summary.TotalWorkerRewards)
	fees := decimal.RequireFromString(summary.TotalPlatformFees)

	if !spend.Equal(rewards.Add(fees)) {
		t.Errorf("settlement must conserve value exactly: spend %s, rewards %s, fees %s",
			spend, rewards, fees)
	}

	// 20 budgets of 0.7 split 95/5 over the full budget sum.
	totalBudget := decimal.RequireFromString("14.0")
	if !rewards.Equal(totalBudget.Mul(decimal.RequireFromString("0.95"))) {
		t.Errorf("rewards must be 95%% of the budgets, got %s", rewards)
	}
	if !fees.Equal(totalBudget.Mul(decimal.RequireFromString("0.05"))) {
		t.Errorf("fees must be 5%% of the budgets, got %s", fees)
	}
	if summary.CompletedTasks != 20 {
		t.Errorf("expected 20 completed tasks, got %d", summary.CompletedTasks)
	}
}

func TestSubmitResultDoubleSettleRejected(t *testing.T) {
	m := newSeededMarket()

	task, err := m.SubmitTask(SubmitTaskInput{
		ClientWallet:  wallet,
		TaskType:      "compute",
		Payload:       "p",
		MaxBudgetGstd: 1.0,
	})
	if err != nil {
		t.Fatal(err)
	}
	m.PendingTasks("worker_01")

	result := models.WorkerResult{Result: map[string]interface{}{"n": 1}}
	if err := m.SubmitResult(task.Id, "worker_01", result); err != nil {
		t.Fatal(err)
	}
	if err := m.SubmitResult(task.Id, "worker_01", result); err == nil {
		t.Fatal("a settled task must not settle twice")
	}
}

func TestReservationExpiry(t *testing.T) {
	m := newSeededMarket()
	m.SetReservationTtl(time.Millisecond)

	resv, err := m.FindWorker(models.MatchRequest{
		TaskType:      "render",
		Capabilities:  []string{"gpu"},
		MinReputation: 0.8,
		MaxLatencyMs:  300,
	})
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(10 * time.Millisecond)

	_, err = m.SubmitTask(SubmitTaskInput{
		ClientWallet:     wallet,
		TaskType:         "render",
		Payload:          "p",
		MaxBudgetGstd:    1.0,
		ReservationToken: resv.ReservationToken,
	})
	if err == nil || !strings.Contains(err.Error(), "reservation expired") {
		t.Fatalf("expected reservation expiry failure, got %v", err)
	}
}

func TestFindWorkerFilters(t *testing.T) {
	m := newSeededMarket()
	m.AddWorker("worker_02", "EQWorker02", "https://worker-02.test", []string{"gpu"}, 0.99, 40, 1.2)

	resv, err := m.FindWorker(models.MatchRequest{
		Capabilities:  []string{"gpu"},
		MinReputation: 0.8,
		MaxLatencyMs:  300,
	})
	if err != nil {
		t.Fatal(err)
	}
	if resv.WorkerId != "worker_02" {
		t.Errorf("expected the highest reputation worker, got %s", resv.WorkerId)
	}

	if _, err := m.FindWorker(models.MatchRequest{MinReputation: 0.999}); err == nil {
		t.Error("reputation filter not applied")
	}
	if _, err := m.FindWorker(models.MatchRequest{Capabilities: []string{"tpu"}}); err == nil {
		t.Error("capability filter not applied")
	}
	if _, err := m.FindWorker(models.MatchRequest{MaxLatencyMs: 10}); err == nil {
		t.Error("latency filter not applied")
	}
}

func TestEnsureLiquiditySwapBounds(t *testing.T) {
	m := NewMarketplaceService()
	m.SetBalance(wallet, 0, 1.0)

	// Shortfall needs 2.5 ton at rate 2.0, but the cap and the balance
	// only allow 1.0 ton in.
	status, receipt, err := m.EnsureLiquidity(wallet, 5.0, true, 10.0)
	if err == nil {
		t.Fatal("partial fill must report insufficient funds")
	}
	if receipt == nil {
		t.Fatal("partial swap must still produce a receipt")
	}
	if receipt.AmountInTon != 1.0 || receipt.AmountOutGstd != 2.0 {
		t.Errorf("unexpected swap amounts: %+v", receipt)
	}
	if status.AvailableGstd != 2.0 {
		t.Errorf("unexpected available after partial swap: %v", status.AvailableGstd)
	}
}

func TestInitBridgeSession(t *testing.T) {
	m := newSeededMarket()

	info, err := m.InitBridge("gstd_client", wallet)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(info.SessionToken, "sess_") {
		t.Errorf("unexpected session token: %s", info.SessionToken)
	}
	if info.BridgeStatus.ActiveWorkers != 1 {
		t.Errorf("unexpected worker count: %d", info.BridgeStatus.ActiveWorkers)
	}
	if info.Liquidity.GstdBalance != 100.0 {
		t.Errorf("unexpected balance snapshot: %v", info.Liquidity.GstdBalance)
	}

	if _, err := m.InitBridge("", ""); err == nil {
		t.Error("missing identity must fail")
	}
}
