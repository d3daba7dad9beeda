package ledger

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/gstdnetwork/go-compute-bridge/conf"
	"github.com/gstdnetwork/go-compute-bridge/constants"
	"github.com/gstdnetwork/go-compute-bridge/models"
)

var redisPool *redis.Pool
var poolOnce sync.Once

func newRedisPool(url string, password string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     5,
		MaxActive:   0,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			if password != "" {
				return redis.DialURL(url, redis.DialPassword(password))
			}
			return redis.DialURL(url)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			_, err := c.Do("PING")
			return err
		},
	}
}

func GetRedisClient() redis.Conn {
	poolOnce.Do(func() {
		redisPool = newRedisPool(conf.GetConfig().API.RedisUrl, conf.GetConfig().API.RedisPassword)
	})
	return redisPool.Get()
}

// TaskRecord is the local metadata kept for a submitted task; the raw
// payload is never stored, only its content hash.
type TaskRecord struct {
	TaskId         string
	TaskType       string
	Status         string
	PayloadHash    string
	WorkerId       string
	MaxBudgetGstd  float64
	ActualCostGstd float64
	CreatedAt      int64
	CompletedAt    int64
}

// SaveTask writes the task record under its redis key, overwriting any
// previous snapshot of the same task.
func SaveTask(task *models.Task) error {
	record := TaskRecord{
		TaskId:         task.Id,
		TaskType:       task.TaskType,
		Status:         string(task.Status),
		PayloadHash:    task.PayloadHash,
		WorkerId:       task.WorkerId,
		MaxBudgetGstd:  task.MaxBudgetGstd,
		ActualCostGstd: task.ActualCostGstd,
		CreatedAt:      task.CreatedAt.Unix(),
	}
	if task.CompletedAt != nil {
		record.CompletedAt = task.CompletedAt.Unix()
	}

	conn := GetRedisClient()
	defer conn.Close()

	fullArgs := []interface{}{constants.REDIS_TASK_PREFIX + record.TaskId}
	fields := map[string]string{
		"task_id":          record.TaskId,
		"task_type":        record.TaskType,
		"status":           record.Status,
		"payload_hash":     record.PayloadHash,
		"worker_id":        record.WorkerId,
		"max_budget_gstd":  strconv.FormatFloat(record.MaxBudgetGstd, 'f', -1, 64),
		"actual_cost_gstd": strconv.FormatFloat(record.ActualCostGstd, 'f', -1, 64),
		"created_at":       strconv.FormatInt(record.CreatedAt, 10),
		"completed_at":     strconv.FormatInt(record.CompletedAt, 10),
	}
	for key, val := range fields {
		fullArgs = append(fullArgs, key, val)
	}

	_, err := conn.Do("HSET", fullArgs...)
	return err
}

// RetrieveTask reads a task record by its full redis key.
func RetrieveTask(key string) (*TaskRecord, error) {
	conn := GetRedisClient()
	defer conn.Close()

	values, err := redis.StringMap(conn.Do("HGETALL", key))
	if err != nil {
		return nil, fmt.Errorf("failed get redis key data, key: %s, error: %w", key, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("task record not found, key: %s", key)
	}

	record := &TaskRecord{
		TaskId:      values["task_id"],
		TaskType:    values["task_type"],
		Status:      values["status"],
		PayloadHash: values["payload_hash"],
		WorkerId:    values["worker_id"],
	}
	record.MaxBudgetGstd, _ = strconv.ParseFloat(values["max_budget_gstd"], 64)
	record.ActualCostGstd, _ = strconv.ParseFloat(values["actual_cost_gstd"], 64)
	record.CreatedAt, _ = strconv.ParseInt(values["created_at"], 10, 64)
	record.CompletedAt, _ = strconv.ParseInt(values["completed_at"], 10, 64)
	return record, nil
}

// ListTasks returns all locally recorded task records.
func ListTasks() ([]*TaskRecord, error) {
	conn := GetRedisClient()
	defer conn.Close()

	prefix := constants.REDIS_TASK_PREFIX + "*"
	keys, err := redis.Strings(conn.Do("KEYS", prefix))
	if err != nil {
		return nil, fmt.Errorf("failed get redis %s prefix, error: %w", prefix, err)
	}

	var records []*TaskRecord
	for _, key := range keys {
		record, err := RetrieveTask(key)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// DeleteTask removes a task record.
func DeleteTask(taskId string) error {
	conn := GetRedisClient()
	defer conn.Close()

	_, err := conn.Do("DEL", constants.REDIS_TASK_PREFIX+taskId)
	return err
}
