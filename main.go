package main

import (
	"os"
	"strconv"
	"time"

	"github.com/filswan/go-swan-lib/logs"
	"github.com/gin-gonic/gin"
	"github.com/gstdnetwork/go-compute-bridge/conf"
	"github.com/gstdnetwork/go-compute-bridge/initializer"
	"github.com/gstdnetwork/go-compute-bridge/routers"
	"github.com/gstdnetwork/go-compute-bridge/sim"
	"github.com/gstdnetwork/go-compute-bridge/util"
	cors "github.com/itsjamie/gin-cors"
)

// main runs the local marketplace node: the bridge API plus the worker
// queue endpoints, backed by the in-memory marketplace.
func main() {
	logs.GetLogger().Info("Start in marketplace node mode.")

	repoPath := os.Getenv("GSTD_PATH")
	if repoPath == "" {
		repoPath = "."
	}
	initializer.ProjectInit(repoPath)

	market := sim.NewMarketplaceService()
	seedMarketplace(market)

	r := gin.Default()
	r.Use(cors.Middleware(cors.Config{
		Origins:         "*",
		Methods:         "GET, PUT, POST, DELETE",
		RequestHeaders:  "Origin, Authorization, Content-Type, X-GSTD-API-Key, X-GSTD-Session",
		ExposedHeaders:  "",
		MaxAge:          50 * time.Second,
		ValidateHeaders: false,
	}))

	v1 := r.Group("/api/v1")
	routers.BridgeManager(v1.Group("/gstd"), market)

	port := conf.GetConfig().API.Port
	if port == 0 {
		port = 8085
	}

	shutdownChan := make(chan struct{})
	httpStopper, err := util.ServeHttp(r, "bridge-api", ":"+strconv.Itoa(port))
	if err != nil {
		logs.GetLogger().Fatalf("failed to start bridge-api endpoint: %s", err)
	}

	finishCh := util.MonitorShutdown(shutdownChan,
		util.ShutdownHandler{Component: "bridge-api", StopFunc: httpStopper},
	)
	<-finishCh
}

// seedMarketplace registers a small default worker pool and funds the
// configured wallet so a fresh node is usable immediately.
func seedMarketplace(market *sim.MarketplaceService) {
	market.AddWorker("worker_gpu_01", "EQWorkerGpu01", "https://worker-gpu-01.gstd.network",
		[]string{"gpu", "render", "inference"}, 0.95, 45, 1.0)
	market.AddWorker("worker_gpu_02", "EQWorkerGpu02", "https://worker-gpu-02.gstd.network",
		[]string{"gpu", "inference"}, 0.88, 80, 0.8)
	market.AddWorker("worker_cpu_01", "EQWorkerCpu01", "https://worker-cpu-01.gstd.network",
		[]string{"cpu", "docker", "python"}, 0.82, 120, 0.3)

	if wallet := conf.GetConfig().WALLET.Address; wallet != "" {
		market.SetBalance(wallet, 100.0, 50.0)
		logs.GetLogger().Infof("seeded wallet %s with demo balances", wallet)
	}
}
