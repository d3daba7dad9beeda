package sim

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gstdnetwork/go-compute-bridge/constants"
	"github.com/gstdnetwork/go-compute-bridge/models"
	"github.com/shopspring/decimal"
)

// Default swap rate applied by the simulated DEX, GSTD per TON.
var defaultSwapRate = decimal.RequireFromString("2.0")

// Fraction of the escrowed budget a completed task reports as its
// actual compute cost.
var defaultUsageRatio = decimal.RequireFromString("0.84")

var rewardRatio = decimal.RequireFromString(constants.REWARD_RATIO)

type account struct {
	gstdBalance  decimal.Decimal
	tonBalance   decimal.Decimal
	reservedGstd decimal.Decimal
}

type workerNode struct {
	id           string
	wallet       string
	endpoint     string
	capabilities []string
	reputation   float64
	latencyMs    int
	priceGstd    float64
}

type reservation struct {
	workerId  string
	expiresAt time.Time
}

type simTask struct {
	id             string
	clientId       string
	clientWallet   string
	taskType       string
	payload        string
	payloadHash    string
	status         models.TaskStatus
	workerId       string
	budget         decimal.Decimal
	actualCost     decimal.Decimal
	resultHash     string
	resultData     interface{}
	timeoutSeconds int
	createdAt      time.Time
	completedAt    time.Time
}

// MarketplaceService is an in-memory marketplace used for local
// development and tests. It keeps the same wire behavior as the hosted
// bridge: escrow on submit, 95/5 settlement on completion, 402 on
// liquidity shortfall.
type MarketplaceService struct {
	mu sync.Mutex

	accounts     map[string]*account
	workers      []*workerNode
	reservations map[string]*reservation
	sessions     map[string]string
	tasks        map[string]*simTask

	workerEarnings map[string]decimal.Decimal
	platformFees   decimal.Decimal

	reservationTtl time.Duration
	swapRate       decimal.Decimal
	usageRatio     decimal.Decimal

	// When set, every task status read advances the task one step
	// toward completion. Keeps demos and tests free of worker nodes.
	autoAdvance bool

	startTime time.Time
}

func NewMarketplaceService() *MarketplaceService {
	return &MarketplaceService{
		accounts:       make(map[string]*account),
		reservations:   make(map[string]*reservation),
		sessions:       make(map[string]string),
		tasks:          make(map[string]*simTask),
		workerEarnings: make(map[string]decimal.Decimal),
		reservationTtl: 60 * time.Second,
		swapRate:       defaultSwapRate,
		usageRatio:     defaultUsageRatio,
		startTime:      time.Now(),
	}
}

// SetAutoAdvance toggles task progression on status reads.
func (m *MarketplaceService) SetAutoAdvance(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoAdvance = enabled
}

// SetReservationTtl overrides the worker reservation lease duration.
func (m *MarketplaceService) SetReservationTtl(ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservationTtl = ttl
}

// SetBalance seeds a wallet with GSTD and TON balances.
func (m *MarketplaceService) SetBalance(wallet string, gstd, ton float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct := m.getAccount(wallet)
	acct.gstdBalance = decimal.NewFromFloat(gstd)
	acct.tonBalance = decimal.NewFromFloat(ton)
	acct.reservedGstd = decimal.Zero
}

// AddWorker registers a worker node with the matchmaking pool.
func (m *MarketplaceService) AddWorker(id, wallet, endpoint string, capabilities []string, reputation float64, latencyMs int, priceGstd float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers = append(m.workers, &workerNode{
		id:           id,
		wallet:       wallet,
		endpoint:     endpoint,
		capabilities: capabilities,
		reputation:   reputation,
		latencyMs:    latencyMs,
		priceGstd:    priceGstd,
	})
}

func (m *MarketplaceService) getAccount(wallet string) *account {
	acct, ok := m.accounts[wallet]
	if !ok {
		acct = &account{}
		m.accounts[wallet] = acct
	}
	return acct
}

// InitBridge opens a session and returns the token plus the current
// health and liquidity snapshot.
func (m *MarketplaceService) InitBridge(clientId, clientWallet string) (*models.SessionInfo, error) {
	if clientId == "" || clientWallet == "" {
		return nil, fmt.Errorf("client_id and client_wallet are required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	token := "sess_" + uuid.NewString()
	m.sessions[token] = clientId
	acct := m.getAccount(clientWallet)

	info := &models.SessionInfo{
		SessionToken: token,
		BridgeStatus: m.bridgeStatusLocked(),
		Liquidity:    liquiditySnapshot(clientWallet, acct),
	}
	return info, nil
}

// GetBridgeStatus reports marketplace health.
func (m *MarketplaceService) GetBridgeStatus() *models.BridgeStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	status := m.bridgeStatusLocked()
	return &status
}

func (m *MarketplaceService) bridgeStatusLocked() models.BridgeStatus {
	var pending int
	for _, task := range m.tasks {
		if !task.status.Terminal() {
			pending++
		}
	}
	var latencySum, avgLatency int
	for _, w := range m.workers {
		latencySum += w.latencyMs
	}
	if len(m.workers) > 0 {
		avgLatency = latencySum / len(m.workers)
	}
	return models.BridgeStatus{
		IsOnline:                true,
		ActiveWorkers:           len(m.workers),
		AvailableCapacityPflops: float64(len(m.workers)) * 0.5,
		PendingTasks:            pending,
		GenesisNodeOnline:       true,
		LastHealthCheck:         time.Now().UTC(),
		AvgLatencyMs:            avgLatency,
	}
}

func liquiditySnapshot(wallet string, acct *account) models.LiquidityStatus {
	gstd, _ := acct.gstdBalance.Float64()
	ton, _ := acct.tonBalance.Float64()
	reserved, _ := acct.reservedGstd.Float64()
	available, _ := acct.gstdBalance.Sub(acct.reservedGstd).Float64()
	return models.LiquidityStatus{
		WalletAddress: wallet,
		GstdBalance:   gstd,
		TonBalance:    ton,
		ReservedGstd:  reserved,
		AvailableGstd: available,
	}
}

// FindWorker matches a worker against the request constraints and
// places a lease on it.
func (m *MarketplaceService) FindWorker(req models.MatchRequest) (*models.WorkerReservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var best *workerNode
	for _, w := range m.workers {
		if w.reputation < req.MinReputation {
			continue
		}
		if req.MaxLatencyMs > 0 && w.latencyMs > req.MaxLatencyMs {
			continue
		}
		if !hasCapabilities(w.capabilities, req.Capabilities) {
			continue
		}
		if best == nil || w.reputation > best.reputation {
			best = w
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no workers available matching criteria, task type: %s", req.TaskType)
	}

	token := "resv_" + uuid.NewString()
	expiresAt := time.Now().UTC().Add(m.reservationTtl)
	m.reservations[token] = &reservation{workerId: best.id, expiresAt: expiresAt}

	return &models.WorkerReservation{
		WorkerId:         best.id,
		WalletAddress:    best.wallet,
		Endpoint:         best.endpoint,
		ReservationToken: token,
		Capabilities:     best.capabilities,
		Reputation:       best.reputation,
		LatencyMs:        best.latencyMs,
		PricePerUnitGstd: best.priceGstd,
		ExpiresAt:        expiresAt,
	}, nil
}

func hasCapabilities(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if strings.EqualFold(h, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// EnsureLiquidity checks available GSTD and swaps TON when allowed. An
// unmet requirement returns the status alongside the error so callers
// can report the shortfall.
func (m *MarketplaceService) EnsureLiquidity(wallet string, requiredGstd float64, autoSwap bool, maxAutoSwapTon float64) (*models.LiquidityStatus, *models.SwapReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct := m.getAccount(wallet)
	required := decimal.NewFromFloat(requiredGstd)
	available := acct.gstdBalance.Sub(acct.reservedGstd)

	var receipt *models.SwapReceipt
	if available.LessThan(required) && autoSwap {
		shortfall := required.Sub(available)
		tonNeeded := shortfall.Div(m.swapRate)
		tonIn := tonNeeded
		if maxAutoSwapTon > 0 {
			if maxTon := decimal.NewFromFloat(maxAutoSwapTon); tonIn.GreaterThan(maxTon) {
				tonIn = maxTon
			}
		}
		if tonIn.GreaterThan(acct.tonBalance) {
			tonIn = acct.tonBalance
		}
		if tonIn.IsPositive() {
			gstdOut := tonIn.Mul(m.swapRate)
			acct.tonBalance = acct.tonBalance.Sub(tonIn)
			acct.gstdBalance = acct.gstdBalance.Add(gstdOut)
			available = acct.gstdBalance.Sub(acct.reservedGstd)

			tonInF, _ := tonIn.Float64()
			gstdOutF, _ := gstdOut.Float64()
			rateF, _ := m.swapRate.Float64()
			receipt = &models.SwapReceipt{
				TxHash:        "0x" + strings.ReplaceAll(uuid.NewString(), "-", ""),
				AmountInTon:   tonInF,
				AmountOutGstd: gstdOutF,
				Rate:          rateF,
				ExecutedAt:    time.Now().UTC(),
			}
		}
	}

	status := liquiditySnapshot(wallet, acct)
	if available.LessThan(required) {
		return &status, receipt, fmt.Errorf("insufficient gstd balance, available: %s, required: %s",
			available.StringFixed(9), required.StringFixed(9))
	}
	return &status, receipt, nil
}

// SubmitTaskInput carries the accepted submit body.
type SubmitTaskInput struct {
	ClientId         string
	ClientWallet     string
	TaskType         string
	Payload          string
	Capabilities     []string
	MinReputation    float64
	MaxBudgetGstd    float64
	TimeoutSeconds   int
	ReservationToken string
}

// SubmitTask escrows the budget, binds a worker and queues the task.
func (m *MarketplaceService) SubmitTask(in SubmitTaskInput) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct := m.getAccount(in.ClientWallet)
	budget := decimal.NewFromFloat(in.MaxBudgetGstd)
	available := acct.gstdBalance.Sub(acct.reservedGstd)
	if available.LessThan(budget) {
		return nil, fmt.Errorf("insufficient funds to escrow budget, available: %s, required: %s",
			available.StringFixed(9), budget.StringFixed(9))
	}

	var workerId string
	now := time.Now().UTC()
	if in.ReservationToken != "" {
		resv, ok := m.reservations[in.ReservationToken]
		if !ok || now.After(resv.expiresAt) {
			delete(m.reservations, in.ReservationToken)
			return nil, fmt.Errorf("reservation expired or unknown, token: %s", in.ReservationToken)
		}
		workerId = resv.workerId
		delete(m.reservations, in.ReservationToken)
	} else {
		for _, w := range m.workers {
			if w.reputation >= in.MinReputation && hasCapabilities(w.capabilities, in.Capabilities) {
				workerId = w.id
				break
			}
		}
		if workerId == "" && len(m.workers) > 0 {
			workerId = m.workers[0].id
		}
	}
	if workerId == "" {
		return nil, fmt.Errorf("no workers available to take the task")
	}

	acct.reservedGstd = acct.reservedGstd.Add(budget)

	hash := sha256.Sum256([]byte(in.Payload))
	task := &simTask{
		id:             "task_" + uuid.NewString(),
		clientId:       in.ClientId,
		clientWallet:   in.ClientWallet,
		taskType:       in.TaskType,
		payload:        in.Payload,
		payloadHash:    hex.EncodeToString(hash[:]),
		status:         models.TaskStatusPending,
		workerId:       workerId,
		budget:         budget,
		timeoutSeconds: in.TimeoutSeconds,
		createdAt:      now,
	}
	m.tasks[task.id] = task

	return &models.Task{
		Id:          task.id,
		ClientId:    task.clientId,
		TaskType:    task.taskType,
		Status:      task.status,
		PayloadHash: task.payloadHash,
		WorkerId:    task.workerId,
		CreatedAt:   task.createdAt,
	}, nil
}

// GetTask reports a task's current state. With auto advance enabled it
// also moves the task one step toward completion per read.
func (m *MarketplaceService) GetTask(taskId string) (*models.TaskStatusResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[taskId]
	if !ok {
		return nil, fmt.Errorf("task not found: %s", taskId)
	}

	if m.autoAdvance && !task.status.Terminal() {
		switch task.status {
		case models.TaskStatusPending:
			task.status = models.TaskStatusProcessing
		case models.TaskStatusProcessing:
			m.settleLocked(task, map[string]interface{}{
				"type":   task.taskType,
				"output": "simulated result",
			})
		}
	}

	resp := &models.TaskStatusResponse{
		TaskId:   task.id,
		Status:   string(task.status),
		WorkerId: task.workerId,
	}
	if task.status.Terminal() {
		resp.ResultHash = task.resultHash
		resp.ResultData = task.resultData
		resp.ActualCostGstd, _ = task.actualCost.Float64()
	}
	return resp, nil
}

// PendingTasks hands queued tasks to a worker node and marks them
// processing.
func (m *MarketplaceService) PendingTasks(nodeId string) []models.PendingTask {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pending []models.PendingTask
	for _, task := range m.tasks {
		if task.status != models.TaskStatusPending || task.workerId != nodeId {
			continue
		}
		task.status = models.TaskStatusProcessing
		budget, _ := task.budget.Float64()
		pending = append(pending, models.PendingTask{
			TaskId:         task.id,
			TaskType:       task.taskType,
			Payload:        task.payload,
			BudgetGstd:     budget,
			TimeoutSeconds: task.timeoutSeconds,
		})
	}
	return pending
}

// SubmitResult records a worker result and settles the escrow.
func (m *MarketplaceService) SubmitResult(taskId, nodeId string, result models.WorkerResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[taskId]
	if !ok {
		return fmt.Errorf("task not found: %s", taskId)
	}
	if task.workerId != nodeId {
		return fmt.Errorf("task %s is not assigned to node %s", taskId, nodeId)
	}
	if task.status.Terminal() {
		return fmt.Errorf("task %s already settled, status: %s", taskId, task.status)
	}

	m.settleLocked(task, result.Result)
	return nil
}

// settleLocked completes a task: debits the full escrowed budget and
// splits it 95/5 between the worker and the platform. The fee is taken
// by subtraction so client debits always equal worker credits plus fees.
func (m *MarketplaceService) settleLocked(task *simTask, resultData interface{}) {
	acct := m.getAccount(task.clientWallet)

	reward := task.budget.Mul(rewardRatio)
	fee := task.budget.Sub(reward)

	acct.reservedGstd = acct.reservedGstd.Sub(task.budget)
	acct.gstdBalance = acct.gstdBalance.Sub(task.budget)
	m.workerEarnings[task.workerId] = m.workerEarnings[task.workerId].Add(reward)
	m.platformFees = m.platformFees.Add(fee)

	resultJson, err := json.Marshal(resultData)
	if err != nil {
		resultJson = []byte(fmt.Sprintf("%v", resultData))
	}
	hash := sha256.Sum256(resultJson)

	task.status = models.TaskStatusCompleted
	task.actualCost = task.budget.Mul(m.usageRatio)
	task.resultHash = hex.EncodeToString(hash[:])
	task.resultData = resultData
	task.completedAt = time.Now().UTC()
}

// EscrowSummary is a snapshot of the money flow, used to audit that
// settlement conserves value.
type EscrowSummary struct {
	TotalClientSpend   string            `json:"total_client_spend"`
	TotalWorkerRewards string            `json:"total_worker_rewards"`
	TotalPlatformFees  string            `json:"total_platform_fees"`
	WorkerEarnings     map[string]string `json:"worker_earnings"`
	OpenReservedGstd   string            `json:"open_reserved_gstd"`
	CompletedTasks     int               `json:"completed_tasks"`
}

func (m *MarketplaceService) GetEscrowSummary() EscrowSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	var spend, reserved decimal.Decimal
	var completed int
	for _, task := range m.tasks {
		if task.status == models.TaskStatusCompleted {
			spend = spend.Add(task.budget)
			completed++
		}
	}
	for _, acct := range m.accounts {
		reserved = reserved.Add(acct.reservedGstd)
	}

	var rewards decimal.Decimal
	earnings := make(map[string]string)
	for id, amount := range m.workerEarnings {
		rewards = rewards.Add(amount)
		earnings[id] = amount.StringFixed(9)
	}

	return EscrowSummary{
		TotalClientSpend:   spend.StringFixed(9),
		TotalWorkerRewards: rewards.StringFixed(9),
		TotalPlatformFees:  m.platformFees.StringFixed(9),
		WorkerEarnings:     earnings,
		OpenReservedGstd:   reserved.StringFixed(9),
		CompletedTasks:     completed,
	}
}
