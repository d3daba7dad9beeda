package bridge

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/filswan/go-swan-lib/logs"
	"github.com/gstdnetwork/go-compute-bridge/constants"
	"github.com/gstdnetwork/go-compute-bridge/models"
)

// FindWorkerRequest carries the matchmaking constraints. Zero values fall
// back to the platform defaults.
type FindWorkerRequest struct {
	TaskType      string
	Capabilities  []string
	MinReputation float64
	MaxLatencyMs  int
	PreferRegion  string
}

// FindWorker asks the marketplace for a worker assignment matching the
// given constraints. The remote match decision is authoritative; no local
// scoring happens here. A successful match consumes a lease slot on the
// remote side tied to the returned reservation's expiry, and the
// reservation is not renewable.
func (b *Bridge) FindWorker(ctx context.Context, req FindWorkerRequest) (*models.WorkerReservation, error) {
	if err := b.session.ensureInit(ctx); err != nil {
		return nil, err
	}

	if req.TaskType == "" {
		req.TaskType = constants.TaskTypeCompute
	}
	if len(req.Capabilities) == 0 {
		req.Capabilities = []string{"gpu"}
	}
	if req.MinReputation <= 0 {
		req.MinReputation = constants.DEFAULT_MIN_REPUTATION
	}
	if req.MaxLatencyMs <= 0 {
		req.MaxLatencyMs = constants.DEFAULT_MAX_LATENCY_MS
	}

	logs.GetLogger().Infof("finding worker, type: %s, capabilities: %v", req.TaskType, req.Capabilities)

	statusCode, body, err := b.session.do(ctx, http.MethodPost, "/bridge/match", models.MatchRequest{
		TaskType:      req.TaskType,
		Capabilities:  req.Capabilities,
		MinReputation: req.MinReputation,
		MaxLatencyMs:  req.MaxLatencyMs,
		PreferRegion:  req.PreferRegion,
	})
	if err != nil {
		return nil, err
	}

	if statusCode != http.StatusOK {
		errBody := parseErrorBody(body)
		if strings.Contains(errBody.Error, "no_workers") {
			return nil, &Error{Kind: KindNoWorkersAvailable, Message: errBody.Message}
		}
		return nil, connectivityErr(fmt.Sprintf("match failed, status code: %d, message: %s", statusCode, errBody.Message), nil)
	}

	var matchResp models.MatchResponse
	if err = unmarshalBody(body, &matchResp); err != nil {
		return nil, err
	}

	worker := matchResp.Worker
	logs.GetLogger().Infof("worker matched: %s, reputation: %.2f, expires at: %s",
		worker.WorkerId, worker.Reputation, worker.ExpiresAt.Format("2006-01-02 15:04:05"))
	return &worker, nil
}
