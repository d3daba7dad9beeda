package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/filswan/go-swan-lib/logs"
	"github.com/gstdnetwork/go-compute-bridge/constants"
	"github.com/gstdnetwork/go-compute-bridge/models"
	"github.com/gstdnetwork/go-compute-bridge/validator"
	"github.com/shopspring/decimal"
)

var rewardRatio = decimal.RequireFromString(constants.REWARD_RATIO)

// Worker pulls pending tasks assigned to a node, processes them and
// posts the results back. The heavy lifting (matching, escrow, payout)
// stays on the marketplace side.
type Worker struct {
	nodeId     string
	apiUrl     string
	client     *http.Client
	statusFile string

	tasksCompleted int
	totalRewards   decimal.Decimal
	startTime      time.Time
}

func New(nodeId, apiUrl string) *Worker {
	return &Worker{
		nodeId:    nodeId,
		apiUrl:    strings.TrimSuffix(apiUrl, "/"),
		client:    NewHTTPClient(30 * time.Second),
		startTime: time.Now(),
	}
}

func (w *Worker) NodeId() string {
	return w.nodeId
}

// FetchPendingTasks asks the marketplace for tasks assigned to this node.
func (w *Worker) FetchPendingTasks(ctx context.Context) ([]models.PendingTask, error) {
	reqUrl := fmt.Sprintf("%s/tasks/worker/pending?node_id=%s", w.apiUrl, url.QueryEscape(w.nodeId))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqUrl, nil)
	if err != nil {
		return nil, err
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed fetch pending tasks, error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed fetch pending tasks, status code: %d", resp.StatusCode)
	}

	var pending models.PendingTasksResponse
	if err = json.Unmarshal(body, &pending); err != nil {
		return nil, err
	}
	return pending.Tasks, nil
}

// ProcessTask runs the simulated processing for a task type and shapes
// the result posted back to the marketplace.
func (w *Worker) ProcessTask(task models.PendingTask) models.WorkerResult {
	logs.GetLogger().Infof("processing task %s, type: %s", task.TaskId, task.TaskType)

	var payload map[string]interface{}
	if task.Payload != "" {
		if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
			logs.GetLogger().Warnf("invalid json payload for task %s", task.TaskId)
		}
	}

	result := models.WorkerResult{
		TaskId:      task.TaskId,
		NodeId:      w.nodeId,
		ProcessedAt: time.Now().Format(time.RFC3339),
	}

	switch strings.ToLower(task.TaskType) {
	case constants.TaskTypeInference:
		result.Result = map[string]interface{}{
			"type":               "inference",
			"output":             "simulated inference result",
			"confidence":         0.95,
			"processing_time_ms": 2000,
		}
	case constants.TaskTypeRender:
		result.Result = map[string]interface{}{
			"type":               "render",
			"frames":             1,
			"processing_time_ms": 1500,
		}
	case constants.TaskTypeCompute:
		result.Result = map[string]interface{}{
			"type":               "compute",
			"result":             42,
			"processing_time_ms": 1000,
		}
	default:
		logs.GetLogger().Warnf("unknown task type: %s, using default processing", task.TaskType)
		result.Result = map[string]interface{}{
			"type":               "generic",
			"status":             "completed",
			"processing_time_ms": 1000,
		}
	}

	if ref, ok := payload["result_file"].(string); ok && ref != "" {
		if size, err := validator.ValidateSubmission(ref); err != nil {
			logs.GetLogger().Warnf("result validation failed, task: %s, error: %v", task.TaskId, err)
			result.Result["validation"] = "failed"
		} else {
			result.Result["validation"] = "passed"
			result.Result["result_file_bytes"] = size
		}
	}

	if payload != nil {
		result.Result["input_payload"] = payload
	}
	return result
}

// SubmitResult posts a task result back to the marketplace.
func (w *Worker) SubmitResult(ctx context.Context, taskId string, result models.WorkerResult) error {
	payload, err := json.Marshal(models.WorkerSubmitRequest{
		TaskId: taskId,
		NodeId: w.nodeId,
		Result: result,
	})
	if err != nil {
		return fmt.Errorf("failed convert to json, error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.apiUrl+"/tasks/worker/submit", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed submit result for task %s, error: %w", taskId, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed submit result for task %s, status code: %d", taskId, resp.StatusCode)
	}

	logs.GetLogger().Infof("task %s submitted successfully", taskId)
	return nil
}

// RunOnce drains the currently pending queue one time and returns the
// number of tasks completed.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	tasks, err := w.FetchPendingTasks(ctx)
	if err != nil {
		return 0, err
	}

	var completed int
	for _, task := range tasks {
		result := w.ProcessTask(task)
		if err := w.SubmitResult(ctx, task.TaskId, result); err != nil {
			logs.GetLogger().Errorf("failed submit result, task: %s, error: %+v", task.TaskId, err)
			continue
		}

		completed++
		w.tasksCompleted++
		// The marketplace pays out 95% of the escrowed budget on completion.
		reward := decimal.NewFromFloat(task.BudgetGstd).Mul(rewardRatio)
		w.totalRewards = w.totalRewards.Add(reward)
		logs.GetLogger().Infof("task %s completed, reward: %s gstd", task.TaskId, reward.StringFixed(9))
	}
	return completed, nil
}

// Run is the main worker loop: poll, process, submit, repeat until the
// context is cancelled.
func (w *Worker) Run(ctx context.Context, pollInterval time.Duration) error {
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}

	logs.GetLogger().Infof("starting worker, node: %s, api: %s", w.nodeId, w.apiUrl)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		w.DisplayStatus()

		if _, err := w.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logs.GetLogger().Errorf("failed fetch tasks, error: %+v", err)
		}

		select {
		case <-ctx.Done():
			logs.GetLogger().Info("shutting down worker...")
			w.DisplayStatus()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
