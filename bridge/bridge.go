package bridge

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/filswan/go-swan-lib/logs"
	"github.com/gstdnetwork/go-compute-bridge/constants"
	"github.com/gstdnetwork/go-compute-bridge/models"
)

// Bridge is the client-side orchestration layer of the GSTD compute
// marketplace: it establishes a session, matches workers, assures
// liquidity, submits tasks into escrow and retrieves results.
type Bridge struct {
	session *Session

	autoSwapEnabled bool
	maxAutoSwapTon  float64
	pollInterval    time.Duration
	taskTimeout     time.Duration
}

type Config struct {
	ApiUrl        string
	WalletAddress string
	ApiKey        string
	ClientId      string

	AutoSwapEnabled bool
	MaxAutoSwapTon  float64
	TimeoutSeconds  int

	PollIntervalSeconds int
	TaskTimeoutSeconds  int
}

// DefaultConfig fills in the instance defaults, reading the endpoint and
// wallet from the environment when unset.
func DefaultConfig() Config {
	return Config{
		ApiUrl:              os.Getenv("GSTD_API_URL"),
		WalletAddress:       os.Getenv("GSTD_WALLET_ADDRESS"),
		ApiKey:              os.Getenv("GSTD_API_KEY"),
		AutoSwapEnabled:     true,
		MaxAutoSwapTon:      constants.DEFAULT_MAX_AUTO_SWAP_TON,
		TimeoutSeconds:      30,
		PollIntervalSeconds: constants.DEFAULT_POLL_INTERVAL_SECONDS,
		TaskTimeoutSeconds:  constants.DEFAULT_TASK_TIMEOUT_SECONDS,
	}
}

func New(cfg Config) *Bridge {
	if cfg.ApiUrl == "" {
		cfg.ApiUrl = os.Getenv("GSTD_API_URL")
	}
	if cfg.WalletAddress == "" {
		cfg.WalletAddress = os.Getenv("GSTD_WALLET_ADDRESS")
	}
	if cfg.ApiKey == "" {
		cfg.ApiKey = os.Getenv("GSTD_API_KEY")
	}
	if cfg.ClientId == "" {
		cfg.ClientId = GenerateClientId()
	}
	if cfg.MaxAutoSwapTon <= 0 {
		cfg.MaxAutoSwapTon = constants.DEFAULT_MAX_AUTO_SWAP_TON
	}
	if cfg.PollIntervalSeconds <= 0 {
		cfg.PollIntervalSeconds = constants.DEFAULT_POLL_INTERVAL_SECONDS
	}
	if cfg.TaskTimeoutSeconds <= 0 {
		cfg.TaskTimeoutSeconds = constants.DEFAULT_TASK_TIMEOUT_SECONDS
	}

	return &Bridge{
		session:         NewSession(cfg.ApiUrl, cfg.ClientId, cfg.WalletAddress, cfg.ApiKey, time.Duration(cfg.TimeoutSeconds)*time.Second),
		autoSwapEnabled: cfg.AutoSwapEnabled,
		maxAutoSwapTon:  cfg.MaxAutoSwapTon,
		pollInterval:    time.Duration(cfg.PollIntervalSeconds) * time.Second,
		taskTimeout:     time.Duration(cfg.TaskTimeoutSeconds) * time.Second,
	}
}

// GenerateClientId derives a fresh client identifier.
func GenerateClientId() string {
	seed := make([]byte, 16)
	rand.Read(seed)
	sum := sha256.Sum256(seed)
	return "gstd_" + hex.EncodeToString(sum[:])[:12]
}

func (b *Bridge) Session() *Session {
	return b.session
}

// Init establishes the bridge session. Optional: every operation
// initializes lazily when required.
func (b *Bridge) Init(ctx context.Context) (*models.SessionInfo, error) {
	return b.session.Init(ctx)
}

func (b *Bridge) Close() {
	b.session.Close()
}

// GetStatus fetches the current bridge health snapshot. The snapshot is
// recomputed server-side on demand and never cached here.
func (b *Bridge) GetStatus(ctx context.Context) (*models.BridgeStatus, error) {
	statusCode, body, err := b.session.do(ctx, http.MethodGet, "/bridge/status", nil)
	if err != nil {
		return nil, err
	}
	if statusCode != http.StatusOK {
		errBody := parseErrorBody(body)
		return nil, connectivityErr("failed get bridge status: "+errBody.Message, nil)
	}

	var status models.BridgeStatus
	if err = unmarshalBody(body, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ExecuteRequest describes an end-to-end execution through the facade.
type ExecuteRequest struct {
	TaskType      string
	Payload       interface{}
	Capabilities  []string
	MinReputation float64
	MaxBudgetGstd float64
	Priority      models.TaskPriority
	Timeout       time.Duration
	Metadata      map[string]interface{}

	// NoWait returns the pending task right after submission instead of
	// polling for the result.
	NoWait bool
}

// Execute runs the full flow: liquidity assurance for the budget, task
// submission, then result polling unless NoWait is set. Liquidity is
// always resolved before submission; an InsufficientFunds outcome stops
// the flow before any task is created.
func (b *Bridge) Execute(ctx context.Context, req ExecuteRequest) (*models.Task, error) {
	budget := req.MaxBudgetGstd
	if budget <= 0 {
		budget = constants.DEFAULT_MAX_BUDGET_GSTD
	}

	if _, _, err := b.EnsureLiquidity(ctx, budget, nil); err != nil {
		return nil, err
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = b.taskTimeout
	}

	task, err := b.SubmitTask(ctx, SubmitTaskRequest{
		TaskType:       req.TaskType,
		Payload:        req.Payload,
		Capabilities:   req.Capabilities,
		MinReputation:  req.MinReputation,
		MaxBudgetGstd:  budget,
		Priority:       req.Priority,
		TimeoutSeconds: int(timeout / time.Second),
		Metadata:       req.Metadata,
	})
	if err != nil {
		return nil, err
	}

	if req.NoWait {
		return task, nil
	}
	return b.AwaitResult(ctx, task, b.pollInterval, timeout)
}

// Render executes a render task on a gpu worker.
func (b *Bridge) Render(ctx context.Context, prompt string, maxBudgetGstd float64) (*models.Task, error) {
	return b.Execute(ctx, ExecuteRequest{
		TaskType:      constants.TaskTypeRender,
		Payload:       map[string]interface{}{"prompt": prompt},
		Capabilities:  []string{"gpu"},
		MaxBudgetGstd: maxBudgetGstd,
	})
}

// Inference executes a model inference task.
func (b *Bridge) Inference(ctx context.Context, prompt, model string, maxBudgetGstd float64) (*models.Task, error) {
	if model == "" {
		model = "llama3"
	}
	return b.Execute(ctx, ExecuteRequest{
		TaskType:      constants.TaskTypeInference,
		Payload:       map[string]interface{}{"prompt": prompt, "model": model},
		Capabilities:  []string{"gpu", "inference"},
		MaxBudgetGstd: maxBudgetGstd,
	})
}

// Compute executes arbitrary code in a containerized runtime.
func (b *Bridge) Compute(ctx context.Context, code, runtime string, maxBudgetGstd float64) (*models.Task, error) {
	if runtime == "" {
		runtime = "python"
	}
	return b.Execute(ctx, ExecuteRequest{
		TaskType:      constants.TaskTypeCompute,
		Payload:       map[string]interface{}{"code": code, "runtime": runtime},
		Capabilities:  []string{"docker"},
		MaxBudgetGstd: maxBudgetGstd,
	})
}

func unmarshalBody(body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		logs.GetLogger().Errorf("failed parse response body, error: %+v", err)
		return connectivityErr("failed parse response body", err)
	}
	return nil
}
