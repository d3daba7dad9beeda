package bridge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/filswan/go-swan-lib/logs"
	"github.com/gstdnetwork/go-compute-bridge/constants"
	"github.com/gstdnetwork/go-compute-bridge/models"
)

// SubmitTaskRequest packages a task for submission into escrow.
type SubmitTaskRequest struct {
	TaskType       string
	Payload        interface{}
	Capabilities   []string
	MinReputation  float64
	MaxBudgetGstd  float64
	Priority       models.TaskPriority
	TimeoutSeconds int
	Metadata       map[string]interface{}

	// Reservation optionally pins the submission to a previously matched
	// worker. An expired reservation fails the submission outright.
	Reservation *models.WorkerReservation
}

// SubmitTask serializes the payload to its canonical form, records its
// content hash and submits the task. Liquidity for MaxBudgetGstd is
// expected to be assured by the caller flow; this method does not
// re-check it. The raw payload is not retained on the returned Task.
func (b *Bridge) SubmitTask(ctx context.Context, req SubmitTaskRequest) (*models.Task, error) {
	if err := b.session.ensureInit(ctx); err != nil {
		return nil, err
	}

	if req.Reservation != nil && req.Reservation.Expired(time.Now()) {
		return nil, &Error{
			Kind: KindExecutionFailure,
			Message: fmt.Sprintf("worker reservation expired at %s, worker: %s",
				req.Reservation.ExpiresAt.Format("2006-01-02 15:04:05"), req.Reservation.WorkerId),
		}
	}

	if req.TaskType == "" {
		req.TaskType = constants.TaskTypeCompute
	}
	if len(req.Capabilities) == 0 {
		req.Capabilities = []string{"gpu"}
	}
	if req.MinReputation <= 0 {
		req.MinReputation = constants.DEFAULT_SUBMIT_MIN_REPUTATION
	}
	if req.MaxBudgetGstd <= 0 {
		req.MaxBudgetGstd = constants.DEFAULT_MAX_BUDGET_GSTD
	}
	if req.Priority == "" {
		req.Priority = models.PriorityNormal
	}
	if req.TimeoutSeconds <= 0 {
		req.TimeoutSeconds = constants.DEFAULT_TASK_TIMEOUT_SECONDS
	}
	if req.Metadata == nil {
		req.Metadata = make(map[string]interface{})
	}

	payload, err := CanonicalPayload(req.Payload)
	if err != nil {
		return nil, &Error{Kind: KindExecutionFailure, Message: "failed serialize payload", Err: err}
	}
	payloadHash := HashPayload(payload)

	logs.GetLogger().Infof("submitting task, type: %s, budget: %.4f gstd", req.TaskType, req.MaxBudgetGstd)

	wireReq := models.SubmitRequest{
		ClientId:       b.session.ClientId(),
		ClientWallet:   b.session.WalletAddress(),
		SessionToken:   b.session.Token(),
		TaskType:       req.TaskType,
		Payload:        payload,
		Capabilities:   req.Capabilities,
		MinReputation:  req.MinReputation,
		MaxBudgetGstd:  req.MaxBudgetGstd,
		Priority:       string(req.Priority),
		TimeoutSeconds: req.TimeoutSeconds,
		Metadata:       req.Metadata,
	}
	if req.Reservation != nil {
		wireReq.ReservationToken = req.Reservation.ReservationToken
	}

	statusCode, body, err := b.session.do(ctx, http.MethodPost, "/bridge/submit", wireReq)
	if err != nil {
		return nil, err
	}

	if statusCode != http.StatusOK && statusCode != http.StatusAccepted {
		errBody := parseErrorBody(body)
		if statusCode == http.StatusPaymentRequired || strings.Contains(strings.ToLower(errBody.Message), "insufficient") {
			return nil, &Error{
				Kind:         KindInsufficientFunds,
				Message:      errBody.Message,
				RequiredGstd: req.MaxBudgetGstd,
			}
		}
		return nil, &Error{
			Kind:    KindExecutionFailure,
			Message: fmt.Sprintf("submit failed, status code: %d, message: %s", statusCode, errBody.Message),
		}
	}

	var submitResp models.SubmitResponse
	if err = unmarshalBody(body, &submitResp); err != nil {
		return nil, err
	}

	task := &models.Task{
		Id:             submitResp.TaskId,
		ClientId:       b.session.ClientId(),
		TaskType:       req.TaskType,
		Status:         models.ParseTaskStatus(submitResp.Status),
		PayloadHash:    payloadHash,
		WorkerId:       submitResp.WorkerId,
		MaxBudgetGstd:  req.MaxBudgetGstd,
		TimeoutSeconds: req.TimeoutSeconds,
		CreatedAt:      time.Now(),
		Metadata:       req.Metadata,
	}

	logs.GetLogger().Infof("task submitted, id: %s, worker: %s", task.Id, task.WorkerId)
	return task, nil
}

// CanonicalPayload returns the canonical wire form of a task payload.
// Strings and raw bytes pass through unchanged; everything else is
// marshalled to JSON, which orders object keys deterministically.
func CanonicalPayload(payload interface{}) (string, error) {
	switch p := payload.(type) {
	case nil:
		return "", nil
	case string:
		return p, nil
	case []byte:
		return string(p), nil
	default:
		data, err := json.Marshal(p)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// HashPayload is the content hash recorded on a Task: a pure function of
// the canonical payload.
func HashPayload(payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
