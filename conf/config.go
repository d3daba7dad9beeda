package conf

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

var config *BridgeNode

// BridgeNode is a bridge client config
type BridgeNode struct {
	API    API
	WALLET WALLET
	SWAP   SWAP
	TASK   TASK
}

type API struct {
	Port          int
	Url           string
	ApiKey        string
	RedisUrl      string
	RedisPassword string
}

type WALLET struct {
	Address string
}

type SWAP struct {
	AutoSwapEnabled bool
	MaxAutoSwapTon  float64
}

type TASK struct {
	PollIntervalSeconds int
	TimeoutSeconds      int
}

func InitConfig(repoPath string) error {
	configFile := filepath.Join(repoPath, "config.toml")

	if metaData, err := toml.DecodeFile(configFile, &config); err != nil {
		return fmt.Errorf("failed load config file, path: %s, error: %w", configFile, err)
	} else {
		if !requiredFieldsAreGiven(metaData) {
			log.Fatal("Required fields not given")
		}
	}
	return nil
}

func GetConfig() *BridgeNode {
	return config
}

func requiredFieldsAreGiven(metaData toml.MetaData) bool {
	requiredFields := [][]string{
		{"API"},
		{"WALLET"},
		{"SWAP"},
		{"TASK"},

		{"API", "Url"},
		{"API", "RedisUrl"},

		{"WALLET", "Address"},

		{"SWAP", "AutoSwapEnabled"},
		{"SWAP", "MaxAutoSwapTon"},

		{"TASK", "PollIntervalSeconds"},
		{"TASK", "TimeoutSeconds"},
	}

	for _, v := range requiredFields {
		if !metaData.IsDefined(v...) {
			log.Fatal("Required fields ", v)
		}
	}

	return true
}
