package yaml

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// TaskDefinition is the parsed form of a task file handed to the
// execute command.
type TaskDefinition struct {
	TaskType       string
	Payload        map[string]interface{}
	Capabilities   []string
	MinReputation  float64
	MaxBudgetGstd  float64
	Priority       string
	TimeoutSeconds int
	Metadata       map[string]interface{}
}

type Parser interface {
	Parse(yamlFile []byte) error
	GetConfig() interface{}
}

type ParserTaskV1 struct {
	config TaskYamlV1
}

func (p *ParserTaskV1) Parse(yamlFile []byte) error {
	var task TaskYamlV1
	if err := yaml.Unmarshal(yamlFile, &task); err != nil {
		return err
	}
	p.config = task
	return nil
}

func (p *ParserTaskV1) GetConfig() interface{} {
	return p.config
}

type Version struct {
	Version string `yaml:"version"`
}

func getYAMLFileVersion(yamlFile []byte) (string, error) {
	var version Version
	err := yaml.Unmarshal(yamlFile, &version)
	if err != nil {
		return "", err
	}
	return version.Version, nil
}

// HandlerYaml reads a task file and resolves it into a TaskDefinition,
// dispatching on the declared version.
func HandlerYaml(yamlFilePath string) (*TaskDefinition, error) {
	yamlFile, err := os.ReadFile(yamlFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed unable to read file, %w", err)
	}

	var taskDef *TaskDefinition
	version, _ := getYAMLFileVersion(yamlFile)
	switch version {
	case "", "1.0":
		parser := &ParserTaskV1{}
		if err = parser.Parse(yamlFile); err != nil {
			return nil, fmt.Errorf("failed unable to parse YAML file, %w", err)
		}
		taskDef, err = parser.config.ToTaskDefinition()
		if err != nil {
			return nil, fmt.Errorf("failed unable to resolve task definition, %w", err)
		}
	default:
		return nil, fmt.Errorf("not support yaml version: %s", version)
	}
	return taskDef, err
}
