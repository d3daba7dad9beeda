package models

import "time"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusTimeout    TaskStatus = "timeout"
	TaskStatusDisputed   TaskStatus = "disputed"
)

// Terminal reports whether no further status transition can occur.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusTimeout, TaskStatusDisputed:
		return true
	}
	return false
}

// ParseTaskStatus maps a server-reported status string to a TaskStatus.
// An empty or unknown value defaults to pending.
func ParseTaskStatus(status string) TaskStatus {
	switch TaskStatus(status) {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted,
		TaskStatusFailed, TaskStatusTimeout, TaskStatusDisputed:
		return TaskStatus(status)
	}
	return TaskStatusPending
}

type TaskPriority string

const (
	PriorityLow      TaskPriority = "low"
	PriorityNormal   TaskPriority = "normal"
	PriorityHigh     TaskPriority = "high"
	PriorityCritical TaskPriority = "critical"
)

// Task is a compute task tracked through the bridge. The record keeps the
// payload content hash rather than the raw payload.
type Task struct {
	Id             string                 `json:"task_id"`
	ClientId       string                 `json:"client_id"`
	TaskType       string                 `json:"task_type"`
	Status         TaskStatus             `json:"status"`
	PayloadHash    string                 `json:"payload_hash"`
	WorkerId       string                 `json:"worker_id,omitempty"`
	ResultHash     string                 `json:"result_hash,omitempty"`
	ResultData     interface{}            `json:"result_data,omitempty"`
	ActualCostGstd float64                `json:"actual_cost_gstd,omitempty"`
	MaxBudgetGstd  float64                `json:"max_budget_gstd,omitempty"`
	TimeoutSeconds int                    `json:"timeout_seconds,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	CompletedAt    *time.Time             `json:"completed_at,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// WorkerReservation is a time-limited claim on a matched worker.
type WorkerReservation struct {
	WorkerId         string    `json:"worker_id"`
	WalletAddress    string    `json:"wallet_address"`
	Endpoint         string    `json:"endpoint"`
	ReservationToken string    `json:"reservation_token"`
	Capabilities     []string  `json:"capabilities"`
	Reputation       float64   `json:"reputation"`
	LatencyMs        int       `json:"latency_ms"`
	PricePerUnitGstd float64   `json:"price_per_unit_gstd"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// Expired reports whether the reservation lease has lapsed.
func (r *WorkerReservation) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

type LiquidityStatus struct {
	WalletAddress   string  `json:"wallet_address"`
	GstdBalance     float64 `json:"gstd_balance"`
	TonBalance      float64 `json:"ton_balance"`
	ReservedGstd    float64 `json:"reserved_gstd"`
	AvailableGstd   float64 `json:"available_gstd"`
	AutoSwapEnabled bool    `json:"auto_swap_enabled"`
}

// SwapReceipt records an automatic TON to GSTD conversion. Immutable once
// produced by the remote service.
type SwapReceipt struct {
	TxHash        string    `json:"tx_hash"`
	AmountInTon   float64   `json:"amount_in_ton"`
	AmountOutGstd float64   `json:"amount_out_gstd"`
	Rate          float64   `json:"rate"`
	ExecutedAt    time.Time `json:"executed_at"`
}

type BridgeStatus struct {
	IsOnline                bool      `json:"is_online"`
	ActiveWorkers           int       `json:"active_workers"`
	AvailableCapacityPflops float64   `json:"available_capacity_pflops"`
	PendingTasks            int       `json:"pending_tasks"`
	GenesisNodeOnline       bool      `json:"genesis_node_online"`
	LastHealthCheck         time.Time `json:"last_health_check"`
	AvgLatencyMs            int       `json:"avg_latency_ms"`
}

// SessionInfo is returned by bridge init: the session token plus the peer's
// advertised health and liquidity snapshot at connection time.
type SessionInfo struct {
	SessionToken string          `json:"session_token"`
	BridgeStatus BridgeStatus    `json:"bridge_status"`
	Liquidity    LiquidityStatus `json:"liquidity"`
}
