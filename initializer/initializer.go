package initializer

import (
	"os"

	"github.com/filswan/go-swan-lib/logs"
	"github.com/gstdnetwork/go-compute-bridge/conf"
	"github.com/joho/godotenv"
)

func loadEnv() {
	if err := godotenv.Load(".env"); err != nil {
		if !os.IsNotExist(err) {
			logs.GetLogger().Error(err)
		}
	}
}

// ProjectInit loads the environment and the toml config for the
// marketplace node.
func ProjectInit(repoPath string) {
	loadEnv()
	if err := conf.InitConfig(repoPath); err != nil {
		logs.GetLogger().Fatal(err)
	}
}
