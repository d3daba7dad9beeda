package routers

import (
	"github.com/gin-gonic/gin"
	"github.com/gstdnetwork/go-compute-bridge/sim"
)

func BridgeManager(router *gin.RouterGroup, market *sim.MarketplaceService) {
	h := sim.NewGinHandler(market)

	router.POST("/bridge/init", h.Init)
	router.GET("/bridge/status", h.Status)
	router.POST("/bridge/match", h.Match)
	router.POST("/bridge/liquidity", h.Liquidity)
	router.POST("/bridge/submit", h.Submit)
	router.GET("/bridge/task/:task_id", h.TaskStatus)

	router.GET("/tasks/worker/pending", h.WorkerPending)
	router.POST("/tasks/worker/submit", h.WorkerSubmit)

	router.GET("/escrow/summary", h.EscrowSummary)
}
