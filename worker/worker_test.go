package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gstdnetwork/go-compute-bridge/models"
)

type fakeQueue struct {
	mu        sync.Mutex
	pending   []models.PendingTask
	submitted []models.WorkerSubmitRequest
}

func (q *fakeQueue) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tasks/worker/pending", func(w http.ResponseWriter, r *http.Request) {
		q.mu.Lock()
		tasks := q.pending
		q.pending = nil
		q.mu.Unlock()
		json.NewEncoder(w).Encode(models.PendingTasksResponse{Tasks: tasks})
	})
	mux.HandleFunc("/tasks/worker/submit", func(w http.ResponseWriter, r *http.Request) {
		var req models.WorkerSubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		q.mu.Lock()
		q.submitted = append(q.submitted, req)
		q.mu.Unlock()
		w.Write([]byte(`{"success":true}`))
	})
	return mux
}

func TestRunOnce(t *testing.T) {
	queue := &fakeQueue{
		pending: []models.PendingTask{
			{TaskId: "task_1", TaskType: "inference", Payload: `{"prompt":"hi"}`, BudgetGstd: 2.0},
			{TaskId: "task_2", TaskType: "render", BudgetGstd: 4.0},
		},
	}
	srv := httptest.NewServer(queue.handler())
	defer srv.Close()

	w := New("node_test", srv.URL)
	completed, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if completed != 2 {
		t.Fatalf("expected 2 completed tasks, got %d", completed)
	}

	queue.mu.Lock()
	defer queue.mu.Unlock()
	if len(queue.submitted) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(queue.submitted))
	}
	if queue.submitted[0].NodeId != "node_test" {
		t.Errorf("submission missing node id: %+v", queue.submitted[0])
	}

	// Rewards are 95% of the settled budgets: (2.0 + 4.0) * 0.95.
	stats := w.Stats()
	if stats.TotalRewards != "5.700000000" {
		t.Errorf("unexpected reward total: %s", stats.TotalRewards)
	}
	if stats.TasksCompleted != 2 {
		t.Errorf("unexpected completed count: %d", stats.TasksCompleted)
	}
}

func TestRunOnceEmptyQueue(t *testing.T) {
	srv := httptest.NewServer((&fakeQueue{}).handler())
	defer srv.Close()

	w := New("node_test", srv.URL)
	completed, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if completed != 0 {
		t.Errorf("expected no work, got %d", completed)
	}
}

func TestProcessTaskShapes(t *testing.T) {
	w := New("node_test", "http://unused")

	cases := []struct {
		taskType string
		wantKey  string
	}{
		{"inference", "confidence"},
		{"render", "frames"},
		{"compute", "result"},
		{"something_else", "status"},
	}

	for _, tc := range cases {
		result := w.ProcessTask(models.PendingTask{TaskId: "t", TaskType: tc.taskType})
		if result.TaskId != "t" || result.NodeId != "node_test" {
			t.Errorf("%s: result not attributed: %+v", tc.taskType, result)
		}
		if _, ok := result.Result[tc.wantKey]; !ok {
			t.Errorf("%s: missing %q in result: %+v", tc.taskType, tc.wantKey, result.Result)
		}
	}
}

func TestProcessTaskValidatesResultFile(t *testing.T) {
	w := New("node_test", "http://unused")

	artifact := filepath.Join(t.TempDir(), "frame.png")
	if err := os.WriteFile(artifact, []byte("rendered bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	payload, _ := json.Marshal(map[string]string{"result_file": artifact})
	result := w.ProcessTask(models.PendingTask{TaskId: "t", TaskType: "render", Payload: string(payload)})
	if result.Result["validation"] != "passed" {
		t.Errorf("expected validation to pass: %+v", result.Result)
	}
	if result.Result["result_file_bytes"] != int64(14) {
		t.Errorf("unexpected artifact size: %v", result.Result["result_file_bytes"])
	}

	payload, _ = json.Marshal(map[string]string{"result_file": filepath.Join(t.TempDir(), "missing")})
	result = w.ProcessTask(models.PendingTask{TaskId: "t", TaskType: "render", Payload: string(payload)})
	if result.Result["validation"] != "failed" {
		t.Errorf("expected validation to fail: %+v", result.Result)
	}
}

func TestProcessTaskEchoesPayload(t *testing.T) {
	w := New("node_test", "http://unused")
	result := w.ProcessTask(models.PendingTask{
		TaskId:   "t",
		TaskType: "compute",
		Payload:  `{"code":"print(1)"}`,
	})

	input, ok := result.Result["input_payload"].(map[string]interface{})
	if !ok {
		t.Fatalf("payload not echoed: %+v", result.Result)
	}
	if input["code"] != "print(1)" {
		t.Errorf("unexpected echoed payload: %+v", input)
	}
}
