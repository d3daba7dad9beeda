package constants

const StatusActive = "Active"
const StatusOffline = "Offline"

// task types
const TaskTypeCompute string = "compute"
const TaskTypeInference string = "inference"
const TaskTypeRender string = "render"

const REDIS_TASK_PREFIX = "BRIDGE_TASK:"

// default matchmaking constraints
const DEFAULT_MIN_REPUTATION = 0.8
const DEFAULT_SUBMIT_MIN_REPUTATION = 0.7
const DEFAULT_MAX_LATENCY_MS = 300
const DEFAULT_MAX_BUDGET_GSTD = 10.0
const DEFAULT_TASK_TIMEOUT_SECONDS = 300
const DEFAULT_POLL_INTERVAL_SECONDS = 2
const DEFAULT_MAX_AUTO_SWAP_TON = 10.0

// settlement split applied by the marketplace on task completion
const REWARD_RATIO = "0.95"
const PLATFORM_FEE_RATIO = "0.05"

// request headers
const HEADER_API_KEY = "X-GSTD-API-Key"
const HEADER_SESSION = "X-GSTD-Session"
