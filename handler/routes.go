package handler

import (
	"attribution/model"
	"attribution/task"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles the engine components the handlers dispatch to.
type Services struct {
	Store       model.Store
	Reports     *task.ReportBuilder
	Experiments *task.ExperimentManager
	Trainer     *task.Trainer
}

var services *Services

// InitAppRoutes registers the engine's query/command surface on the router.
func InitAppRoutes(r *gin.Engine, s *Services) {
	services = s

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	r.Use(cors.New(corsConfig))

	r.GET("/status", GetStatusHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/touchpoints", IngestTouchPointHandler)
	r.GET("/reports", GenerateReportHandler)

	r.GET("/models", GetModelsHandler)
	r.PUT("/models/:id/activate", SetActiveModelHandler)
	r.POST("/models/:id/train", TrainModelHandler)
	r.GET("/models/:id", GetModelHandler)

	r.GET("/experiments", GetExperimentsHandler)
	r.POST("/experiments", CreateExperimentHandler)
	r.POST("/experiments/:id/start", StartExperimentHandler)
	r.POST("/experiments/:id/stop", StopExperimentHandler)

	r.GET("/alerts", GetAlertsHandler)
	r.PUT("/alerts/:id/resolve", ResolveAlertHandler)
}

func GetStatusHandler(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok", "touchpoints": services.Store.GetTouchPointCount()})
}
