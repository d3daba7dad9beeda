package sim

import (
	"github.com/filswan/go-swan-lib/logs"
	"github.com/gin-gonic/gin"
	"github.com/gstdnetwork/go-compute-bridge/constants"
	"github.com/gstdnetwork/go-compute-bridge/models"
)

// GinHandler exposes the marketplace over HTTP.
type GinHandler struct {
	market *MarketplaceService
}

func NewGinHandler(market *MarketplaceService) *GinHandler {
	return &GinHandler{market: market}
}

func (h *GinHandler) Init(c *gin.Context) {
	var req models.InitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid_request", "message": "Failed to parse request body"})
		return
	}
	if req.ClientId == "" || req.ClientWallet == "" {
		c.JSON(400, gin.H{"error": "missing_fields", "message": "client_id and client_wallet are required"})
		return
	}

	info, err := h.market.InitBridge(req.ClientId, req.ClientWallet)
	if err != nil {
		logs.GetLogger().Errorf("bridge init failed, error: %+v", err)
		c.JSON(500, gin.H{"error": "init_failed", "message": err.Error()})
		return
	}
	c.JSON(200, info)
}

func (h *GinHandler) Status(c *gin.Context) {
	c.JSON(200, h.market.GetBridgeStatus())
}

func (h *GinHandler) Match(c *gin.Context) {
	var req models.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid_request", "message": "Failed to parse request body"})
		return
	}
	if req.MinReputation == 0 {
		req.MinReputation = constants.DEFAULT_MIN_REPUTATION
	}
	if req.MaxLatencyMs == 0 {
		req.MaxLatencyMs = constants.DEFAULT_MAX_LATENCY_MS
	}

	worker, err := h.market.FindWorker(req)
	if err != nil {
		c.JSON(503, gin.H{"error": "no_workers", "message": err.Error()})
		return
	}
	c.JSON(200, gin.H{"success": true, "worker": worker})
}

func (h *GinHandler) Liquidity(c *gin.Context) {
	var req models.LiquidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	status, receipt, err := h.market.EnsureLiquidity(req.WalletAddress, req.RequiredGstd, req.AutoSwap, req.MaxAutoSwapTon)
	if err != nil {
		c.JSON(402, gin.H{
			"error":    "insufficient_funds",
			"message":  err.Error(),
			"status":   status,
			"required": req.RequiredGstd,
		})
		return
	}

	response := gin.H{
		"success":  true,
		"status":   status,
		"required": req.RequiredGstd,
	}
	if receipt != nil {
		response["swap"] = receipt
		response["auto_swapped"] = true
	}
	c.JSON(200, response)
}

func (h *GinHandler) Submit(c *gin.Context) {
	var req models.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	if req.ClientWallet == "" || req.TaskType == "" || req.Payload == "" {
		c.JSON(400, gin.H{"error": "missing_fields", "message": "client_wallet, task_type, and payload are required"})
		return
	}
	if req.MinReputation == 0 {
		req.MinReputation = constants.DEFAULT_SUBMIT_MIN_REPUTATION
	}
	if req.MaxBudgetGstd == 0 {
		req.MaxBudgetGstd = constants.DEFAULT_MAX_BUDGET_GSTD
	}
	if req.TimeoutSeconds == 0 {
		req.TimeoutSeconds = constants.DEFAULT_TASK_TIMEOUT_SECONDS
	}

	task, err := h.market.SubmitTask(SubmitTaskInput{
		ClientId:         req.ClientId,
		ClientWallet:     req.ClientWallet,
		TaskType:         req.TaskType,
		Payload:          req.Payload,
		Capabilities:     req.Capabilities,
		MinReputation:    req.MinReputation,
		MaxBudgetGstd:    req.MaxBudgetGstd,
		TimeoutSeconds:   req.TimeoutSeconds,
		ReservationToken: req.ReservationToken,
	})
	if err != nil {
		logs.GetLogger().Errorf("task submit failed, error: %+v", err)
		c.JSON(500, gin.H{"error": "submit_failed", "message": err.Error()})
		return
	}

	c.JSON(202, gin.H{
		"success":      true,
		"task_id":      task.Id,
		"status":       string(task.Status),
		"worker_id":    task.WorkerId,
		"payload_hash": task.PayloadHash,
		"created_at":   task.CreatedAt,
	})
}

func (h *GinHandler) TaskStatus(c *gin.Context) {
	taskId := c.Param("task_id")
	if taskId == "" {
		c.JSON(400, gin.H{"error": "missing_task_id"})
		return
	}

	resp, err := h.market.GetTask(taskId)
	if err != nil {
		c.JSON(404, gin.H{"error": "task_not_found", "message": err.Error()})
		return
	}
	c.JSON(200, resp)
}

func (h *GinHandler) WorkerPending(c *gin.Context) {
	nodeId := c.Query("node_id")
	if nodeId == "" {
		c.JSON(400, gin.H{"error": "missing_node_id"})
		return
	}
	c.JSON(200, models.PendingTasksResponse{Tasks: h.market.PendingTasks(nodeId)})
}

func (h *GinHandler) WorkerSubmit(c *gin.Context) {
	var req models.WorkerSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	if err := h.market.SubmitResult(req.TaskId, req.NodeId, req.Result); err != nil {
		c.JSON(500, gin.H{"error": "result_rejected", "message": err.Error()})
		return
	}
	c.JSON(200, gin.H{"success": true, "task_id": req.TaskId})
}

func (h *GinHandler) EscrowSummary(c *gin.Context) {
	c.JSON(200, h.market.GetEscrowSummary())
}
