package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	C "attribution/config"
	"attribution/demo"
	H "attribution/handler"
	"attribution/middleware"
	"attribution/model"
	"attribution/model/store"
	"attribution/task"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ./app --env=development --port=8080 --attribution_window_days=30 --drift_interval=1m --experiment_interval=1m
func main() {
	env := flag.String("env", C.DEVELOPMENT, "")
	port := flag.Int("port", 8080, "")

	attributionWindowDays := flag.Int("attribution_window_days", 30, "Attribution window in days")
	halfLifeDays := flag.Float64("half_life_days", 7.0, "Time decay half life in days")
	synergyMinSample := flag.Int("synergy_min_sample", 4, "Minimum journeys for a synergy pair")
	driftThreshold := flag.Float64("drift_accuracy_threshold", 3.0, "Accuracy drop in points that raises a drift alert")
	shareShiftThreshold := flag.Float64("share_shift_threshold", 10.0, "Attribution share shift in points that raises an alert")
	minEvaluationDays := flag.Int("experiment_min_evaluation_days", 7, "Minimum days before an experiment can auto-conclude")
	significanceCutoff := flag.Float64("experiment_significance_cutoff", 95.0, "Significance required for auto-conclusion")
	driftInterval := flag.Duration("drift_interval", time.Minute, "Drift monitor tick interval")
	experimentInterval := flag.Duration("experiment_interval", time.Minute, "Experiment evaluation tick interval")
	reportWorkers := flag.Int("report_workers", 8, "Journey weighting worker pool size")
	seedDemoCustomers := flag.Int("seed_demo_customers", 0, "Seed this many synthetic customers on startup")
	flag.Parse()

	conf := C.DefaultConfiguration()
	conf.Env = *env
	conf.Port = *port
	conf.AttributionWindowDays = *attributionWindowDays
	conf.TimeDecayHalfLifeDays = *halfLifeDays
	conf.SynergyMinSampleSize = *synergyMinSample
	conf.DriftAccuracyThreshold = *driftThreshold
	conf.ShareShiftThreshold = *shareShiftThreshold
	conf.ExperimentMinEvaluationDays = *minEvaluationDays
	conf.ExperimentSignificanceCutoff = *significanceCutoff
	conf.DriftInterval = *driftInterval
	conf.ExperimentInterval = *experimentInterval
	conf.ReportWorkers = *reportWorkers
	if err := C.InitConf(conf); err != nil {
		log.WithError(err).Fatal("Failed to initialize config.")
	}

	if conf.Env == C.PRODUCTION {
		log.SetFormatter(&log.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	}

	engineStore := store.GetStore()
	if *seedDemoCustomers > 0 {
		generator := demo.NewGenerator(42)
		startTime := time.Now().Unix() - int64(conf.AttributionWindowDays)*model.SecsInADay
		for _, tp := range generator.GenerateTouchPoints(*seedDemoCustomers, startTime) {
			seeded := tp
			if _, err := engineStore.CreateTouchPoint(&seeded); err != nil {
				log.WithError(err).Error("Failed to seed demo touchpoint.")
			}
		}
		log.WithField("customers", *seedDemoCustomers).Info("Seeded demo touchpoints.")
	}
	reports := task.NewReportBuilder(engineStore)
	experiments := task.NewExperimentManager(engineStore)
	trainer := task.NewTrainer(engineStore)
	monitor := task.NewDriftMonitor(engineStore)
	monitor.Start()

	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())
	H.InitAppRoutes(r, &H.Services{
		Store:       engineStore,
		Reports:     reports,
		Experiments: experiments,
		Trainer:     trainer,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", conf.Port),
		Handler: r,
	}
	go func() {
		log.WithField("port", conf.Port).Info("Attribution engine listening.")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed.")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down.")

	// Background loops first, so no tick mutates state during shutdown.
	monitor.Stop()
	experiments.Shutdown()
	trainer.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Forced shutdown.")
	}
}
