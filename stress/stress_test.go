package stress

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gstdnetwork/go-compute-bridge/bridge"
	"github.com/gstdnetwork/go-compute-bridge/routers"
	"github.com/gstdnetwork/go-compute-bridge/sim"
	"github.com/shopspring/decimal"
)

func TestConcurrentExecutionsConserveEscrow(t *testing.T) {
	if testing.Short() {
		t.Skip("stress run takes a few seconds")
	}
	gin.SetMode(gin.TestMode)

	market := sim.NewMarketplaceService()
	market.SetAutoAdvance(true)
	market.SetBalance("EQStressWallet001", 1000.0, 0)
	market.AddWorker("worker_01", "EQWorker01", "https://worker-01.test", []string{"cpu"}, 0.9, 50, 0.5)
	market.AddWorker("worker_02", "EQWorker02", "https://worker-02.test", []string{"cpu"}, 0.85, 70, 0.4)

	r := gin.New()
	routers.BridgeManager(r.Group("/"), market)
	srv := httptest.NewServer(r)
	defer srv.Close()

	report := Run(context.Background(), func(clientId string) *bridge.Bridge {
		return bridge.New(bridge.Config{
			ApiUrl:              srv.URL,
			WalletAddress:       "EQStressWallet001",
			ClientId:            clientId,
			PollIntervalSeconds: 1,
			TaskTimeoutSeconds:  30,
		})
	}, Options{
		Clients:        3,
		TasksPerClient: 2,
		BudgetGstd:     1.0,
	})

	if report.Submitted != 6 {
		t.Fatalf("expected 6 submissions, got %d", report.Submitted)
	}
	if report.Failed != 0 {
		t.Fatalf("unexpected failures: %v", report.Errors)
	}
	if report.Completed != 6 {
		t.Fatalf("expected 6 completions, got %d", report.Completed)
	}

	// 6 budgets of 1.0 escrowed: 5.7 to workers, 0.3 to the platform.
	summary := market.GetEscrowSummary()
	rewards := decimal.RequireFromString(summary.TotalWorkerRewards)
	fees := decimal.RequireFromString(summary.TotalPlatformFees)
	if err := VerifyConservation(report, rewards, fees); err != nil {
		t.Fatal(err)
	}
	if !rewards.Equal(decimal.RequireFromString("5.7")) {
		t.Errorf("unexpected worker rewards: %s", rewards)
	}
	if !fees.Equal(decimal.RequireFromString("0.3")) {
		t.Errorf("unexpected platform fees: %s", fees)
	}
	if summary.OpenReservedGstd != "0.000000000" {
		t.Errorf("escrow left open after the run: %s", summary.OpenReservedGstd)
	}
}

func TestVerifyConservation(t *testing.T) {
	report := &Report{TotalBudgetGstd: decimal.RequireFromString("5.0")}

	if err := VerifyConservation(report, decimal.RequireFromString("4.75"), decimal.RequireFromString("0.25")); err != nil {
		t.Errorf("exact split must pass: %v", err)
	}
	if err := VerifyConservation(report, decimal.RequireFromString("4.75"), decimal.RequireFromString("0.255")); err != nil {
		t.Errorf("drift inside tolerance must pass: %v", err)
	}
	if err := VerifyConservation(report, decimal.RequireFromString("3.0"), decimal.RequireFromString("0.25")); err == nil {
		t.Error("a reward shortfall must fail the audit")
	}
	if err := VerifyConservation(report, decimal.RequireFromString("4.75"), decimal.RequireFromString("0.5")); err == nil {
		t.Error("an inflated fee must fail the audit")
	}
}
