package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gstdnetwork/go-compute-bridge/models"
)

func TestPollUntilFinalFetchAtDeadline(t *testing.T) {
	// The interval never fires; only the immediate call and the one extra
	// call at the deadline happen. A terminal state observed exactly at
	// the boundary wins over the local timeout.
	var calls int
	err := pollUntil(context.Background(), time.Hour, 50*time.Millisecond, func(ctx context.Context) (bool, error) {
		calls++
		return calls >= 2, nil
	})
	if err != nil {
		t.Fatalf("boundary observation must win over the deadline, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected exactly 2 calls, got %d", calls)
	}
}

func TestPollUntilDeadline(t *testing.T) {
	var calls int
	err := pollUntil(context.Background(), time.Hour, 50*time.Millisecond, func(ctx context.Context) (bool, error) {
		calls++
		return false, nil
	})
	if !errors.Is(err, errPollDeadline) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected immediate call plus boundary call, got %d", calls)
	}
}

func TestPollUntilPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	err := pollUntil(context.Background(), time.Millisecond, time.Second, func(ctx context.Context) (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
}

func TestPollUntilContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := pollUntil(ctx, time.Hour, time.Hour, func(ctx context.Context) (bool, error) {
		return false, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAwaitResultTerminalTaskReturnsImmediately(t *testing.T) {
	// The endpoint is unreachable; a network round-trip would fail loudly.
	b := New(Config{ApiUrl: "http://127.0.0.1:1", WalletAddress: testWallet})
	defer b.Close()

	task := &models.Task{Id: "task_done", Status: models.TaskStatusCompleted}
	got, err := b.AwaitResult(context.Background(), task, time.Millisecond, time.Second)
	if err != nil {
		t.Fatalf("terminal task must not be re-polled: %v", err)
	}
	if got != task {
		t.Error("expected the same task back")
	}
}

func TestAwaitResultTimeout(t *testing.T) {
	market, srv, _ := newTestMarket(t)
	market.SetBalance(testWallet, 10.0, 0)
	addGpuWorker(market)

	b := newTestBridge(srv)
	defer b.Close()

	task, err := b.SubmitTask(context.Background(), SubmitTaskRequest{
		TaskType: "render",
		Payload:  "payload",
	})
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	got, err := b.AwaitResult(context.Background(), task, 20*time.Millisecond, 150*time.Millisecond)
	if !IsExecutionTimeout(err) {
		t.Fatalf("expected execution timeout, got %v", err)
	}
	if got.Status != models.TaskStatusTimeout {
		t.Errorf("expected timeout status, got %s", got.Status)
	}

	var be *Error
	if !errors.As(err, &be) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if be.Elapsed < 150*time.Millisecond {
		t.Errorf("elapsed below the deadline: %s", be.Elapsed)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout took far too long: %s", elapsed)
	}
}

func TestAwaitResultToleratesTransientFetchErrors(t *testing.T) {
	market, srv, _ := newTestMarket(t)
	market.SetBalance(testWallet, 10.0, 0)
	addGpuWorker(market)

	b := newTestBridge(srv)
	defer b.Close()
	if _, err := b.Init(context.Background()); err != nil {
		t.Fatal(err)
	}

	// The id is unknown to the server, every tick fails server-side. That
	// must classify as a timeout at the deadline, not an execution failure.
	task := &models.Task{Id: "task_unknown", Status: models.TaskStatusPending}
	_, err := b.AwaitResult(context.Background(), task, 20*time.Millisecond, 100*time.Millisecond)
	if !IsExecutionTimeout(err) {
		t.Fatalf("transient fetch errors must not surface before the deadline, got %v", err)
	}
}
