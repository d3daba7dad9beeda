package yaml

import (
	"fmt"
	"strings"

	"github.com/gstdnetwork/go-compute-bridge/constants"
)

type TaskYamlV1 struct {
	Version string   `yaml:"version"`
	Task    TaskSpec `yaml:"task"`
}

type TaskSpec struct {
	Type           string                 `yaml:"type"`
	Payload        map[string]interface{} `yaml:"payload"`
	Capabilities   []string               `yaml:"capabilities"`
	MinReputation  float64                `yaml:"min_reputation"`
	MaxBudgetGstd  float64                `yaml:"max_budget_gstd"`
	Priority       string                 `yaml:"priority"`
	TimeoutSeconds int                    `yaml:"timeout_seconds"`
	Metadata       map[string]interface{} `yaml:"metadata"`
}

func (ty *TaskYamlV1) checkRequired() error {
	if strings.TrimSpace(ty.Task.Type) == "" {
		return fmt.Errorf("task type must be defined")
	}
	return nil
}

// ToTaskDefinition resolves the raw yaml into a TaskDefinition with
// marketplace defaults filled in.
func (ty *TaskYamlV1) ToTaskDefinition() (*TaskDefinition, error) {
	if err := ty.checkRequired(); err != nil {
		return nil, err
	}

	taskDef := &TaskDefinition{
		TaskType:       strings.ToLower(strings.TrimSpace(ty.Task.Type)),
		Payload:        ty.Task.Payload,
		Capabilities:   ty.Task.Capabilities,
		MinReputation:  ty.Task.MinReputation,
		MaxBudgetGstd:  ty.Task.MaxBudgetGstd,
		Priority:       ty.Task.Priority,
		TimeoutSeconds: ty.Task.TimeoutSeconds,
		Metadata:       ty.Task.Metadata,
	}

	if len(taskDef.Capabilities) == 0 {
		switch taskDef.TaskType {
		case constants.TaskTypeRender:
			taskDef.Capabilities = []string{"gpu", "render"}
		case constants.TaskTypeInference:
			taskDef.Capabilities = []string{"gpu", "inference"}
		default:
			taskDef.Capabilities = []string{"cpu"}
		}
	}
	if taskDef.MinReputation <= 0 {
		taskDef.MinReputation = constants.DEFAULT_SUBMIT_MIN_REPUTATION
	}
	if taskDef.MaxBudgetGstd <= 0 {
		taskDef.MaxBudgetGstd = constants.DEFAULT_MAX_BUDGET_GSTD
	}
	if taskDef.Priority == "" {
		taskDef.Priority = "normal"
	}
	if taskDef.TimeoutSeconds <= 0 {
		taskDef.TimeoutSeconds = constants.DEFAULT_TASK_TIMEOUT_SECONDS
	}
	return taskDef, nil
}
