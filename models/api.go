package models

// Wire bodies for the bridge API. Responses are parsed into the typed
// entities at the boundary; optional fields default to their zero value.

type InitRequest struct {
	ClientId     string `json:"client_id"`
	ClientWallet string `json:"client_wallet"`
	ApiKey       string `json:"api_key,omitempty"`
}

type MatchRequest struct {
	TaskType      string   `json:"task_type"`
	Capabilities  []string `json:"capabilities"`
	MinReputation float64  `json:"min_reputation"`
	MaxLatencyMs  int      `json:"max_latency_ms"`
	PreferRegion  string   `json:"prefer_region,omitempty"`
}

type MatchResponse struct {
	Success bool              `json:"success"`
	Worker  WorkerReservation `json:"worker"`
}

type LiquidityRequest struct {
	WalletAddress  string  `json:"wallet_address"`
	RequiredGstd   float64 `json:"required_gstd"`
	AutoSwap       bool    `json:"auto_swap"`
	MaxAutoSwapTon float64 `json:"max_auto_swap_ton,omitempty"`
}

type LiquidityResponse struct {
	Success     bool            `json:"success"`
	Status      LiquidityStatus `json:"status"`
	Required    float64         `json:"required"`
	AutoSwapped bool            `json:"auto_swapped,omitempty"`
	Swap        *SwapReceipt    `json:"swap,omitempty"`
}

type SubmitRequest struct {
	ClientId         string                 `json:"client_id"`
	ClientWallet     string                 `json:"client_wallet"`
	SessionToken     string                 `json:"session_token"`
	TaskType         string                 `json:"task_type"`
	Payload          string                 `json:"payload"`
	Capabilities     []string               `json:"capabilities"`
	MinReputation    float64                `json:"min_reputation"`
	MaxBudgetGstd    float64                `json:"max_budget_gstd"`
	Priority         string                 `json:"priority"`
	TimeoutSeconds   int                    `json:"timeout_seconds"`
	ReservationToken string                 `json:"reservation_token,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

type SubmitResponse struct {
	Success     bool   `json:"success"`
	TaskId      string `json:"task_id"`
	Status      string `json:"status"`
	WorkerId    string `json:"worker_id,omitempty"`
	PayloadHash string `json:"payload_hash,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type TaskStatusResponse struct {
	TaskId         string      `json:"task_id"`
	Status         string      `json:"status"`
	WorkerId       string      `json:"worker_id,omitempty"`
	ResultHash     string      `json:"result_hash,omitempty"`
	ResultData     interface{} `json:"result_data,omitempty"`
	ActualCostGstd float64     `json:"actual_cost_gstd,omitempty"`
}

// ErrorBody is the error envelope returned by the bridge service.
type ErrorBody struct {
	Error    string           `json:"error"`
	Message  string           `json:"message"`
	Status   *LiquidityStatus `json:"status,omitempty"`
	Required float64          `json:"required,omitempty"`
}

// PendingTask is a queue entry handed to a worker node.
type PendingTask struct {
	TaskId         string  `json:"task_id"`
	TaskType       string  `json:"task_type"`
	Payload        string  `json:"payload,omitempty"`
	BudgetGstd     float64 `json:"budget_gstd"`
	TimeoutSeconds int     `json:"timeout_seconds,omitempty"`
}

type PendingTasksResponse struct {
	Tasks []PendingTask `json:"tasks"`
}

type WorkerResult struct {
	TaskId      string                 `json:"task_id"`
	NodeId      string                 `json:"node_id"`
	ProcessedAt string                 `json:"processed_at"`
	Result      map[string]interface{} `json:"result"`
}

type WorkerSubmitRequest struct {
	TaskId string       `json:"task_id"`
	NodeId string       `json:"node_id"`
	Result WorkerResult `json:"result"`
}
