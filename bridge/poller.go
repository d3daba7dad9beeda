package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/filswan/go-swan-lib/logs"
	"github.com/gstdnetwork/go-compute-bridge/models"
)

var errPollDeadline = errors.New("poll deadline exceeded")

// pollUntil invokes fn at the given cadence until fn reports done, the
// wall-clock deadline elapses or ctx is cancelled. fn runs once more when
// the deadline fires, so a state observed exactly at the boundary takes
// precedence over the local timeout.
func pollUntil(ctx context.Context, interval, timeout time.Duration, fn func(ctx context.Context) (bool, error)) error {
	if interval <= 0 {
		interval = 2 * time.Second
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, err := fn(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			done, err = fn(ctx)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
			return errPollDeadline
		case <-ticker.C:
		}
	}
}

// GetTask fetches the current server-side state of a task. Read-only and
// safe to call any number of times.
func (b *Bridge) GetTask(ctx context.Context, taskId string) (*models.TaskStatusResponse, error) {
	statusCode, body, err := b.session.do(ctx, http.MethodGet, "/bridge/task/"+taskId, nil)
	if err != nil {
		return nil, err
	}
	if statusCode != http.StatusOK {
		errBody := parseErrorBody(body)
		return nil, &Error{
			Kind:    KindExecutionFailure,
			Message: fmt.Sprintf("failed get task %s, status code: %d, message: %s", taskId, statusCode, errBody.Message),
			TaskId:  taskId,
		}
	}

	var taskResp models.TaskStatusResponse
	if err = unmarshalBody(body, &taskResp); err != nil {
		return nil, err
	}
	return &taskResp, nil
}

// AwaitResult polls the task until the server reports a terminal status
// or the deadline elapses. Task state transitions are driven exclusively
// by what the server reports; the one exception is the local deadline,
// which forces a timeout classification even if the server has not
// reported one yet. Polling is read-only: it never resubmits work or
// moves money, and a task already terminal returns immediately.
func (b *Bridge) AwaitResult(ctx context.Context, task *models.Task, pollInterval, timeout time.Duration) (*models.Task, error) {
	if task.Status.Terminal() {
		return task, nil
	}

	if pollInterval <= 0 {
		pollInterval = b.pollInterval
	}
	if timeout <= 0 {
		if task.TimeoutSeconds > 0 {
			timeout = time.Duration(task.TimeoutSeconds) * time.Second
		} else {
			timeout = b.taskTimeout
		}
	}

	logs.GetLogger().Infof("waiting for task %s, poll interval: %s, timeout: %s", task.Id, pollInterval, timeout)
	start := time.Now()

	err := pollUntil(ctx, pollInterval, timeout, func(ctx context.Context) (bool, error) {
		taskResp, err := b.GetTask(ctx, task.Id)
		if err != nil {
			// A transient server-side error is not a terminal observation;
			// keep polling until the deadline. Transport failures and
			// cancellation still surface immediately.
			if IsExecutionFailure(err) {
				logs.GetLogger().Debugf("poll tick failed for task %s, error: %+v", task.Id, err)
				return false, nil
			}
			return false, err
		}

		status := models.ParseTaskStatus(taskResp.Status)
		if taskResp.WorkerId != "" {
			task.WorkerId = taskResp.WorkerId
		}
		if !status.Terminal() {
			task.Status = status
			return false, nil
		}

		// Result data is only attached together with the terminal
		// transition, never before it.
		completedAt := time.Now()
		task.Status = status
		task.ResultHash = taskResp.ResultHash
		task.ResultData = taskResp.ResultData
		task.ActualCostGstd = taskResp.ActualCostGstd
		task.CompletedAt = &completedAt
		return true, nil
	})

	if err != nil {
		if errors.Is(err, errPollDeadline) {
			task.Status = models.TaskStatusTimeout
			return task, &Error{
				Kind:    KindExecutionTimeout,
				Message: fmt.Sprintf("task %s timed out after %s", task.Id, timeout),
				TaskId:  task.Id,
				Elapsed: time.Since(start),
			}
		}
		return task, err
	}

	if task.Status == models.TaskStatusCompleted {
		logs.GetLogger().Infof("task completed, id: %s, cost: %.4f gstd", task.Id, task.ActualCostGstd)
	} else {
		logs.GetLogger().Warnf("task %s finished with status: %s", task.Id, task.Status)
	}
	return task, nil
}
