package task

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	C "attribution/config"
	"attribution/metrics"
	"attribution/model"

	log "github.com/sirupsen/logrus"
)

// DriftMonitor periodically inspects the active model's accuracy history and
// the per-channel attribution shares of the two most recent windows, and
// raises severity-graded alerts when they shift past the configured
// thresholds. A rule does not re-fire while an unresolved alert for the same
// subject exists.
type DriftMonitor struct {
	store    model.Store
	interval time.Duration
	nowFn    func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDriftMonitor(store model.Store) *DriftMonitor {
	return &DriftMonitor{
		store:    store,
		interval: C.GetConfig().DriftInterval,
		nowFn:    time.Now,
	}
}

// Start launches the evaluation loop. Stop cancels it and waits for any
// in-flight tick.
func (dm *DriftMonitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	dm.cancel = cancel
	dm.wg.Add(1)
	go func() {
		defer dm.wg.Done()
		ticker := time.NewTicker(dm.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				dm.RunOnce()
			}
		}
	}()
}

func (dm *DriftMonitor) Stop() {
	if dm.cancel != nil {
		dm.cancel()
	}
	dm.wg.Wait()
}

// RunOnce executes a single evaluation pass. Exported so callers can force
// an evaluation outside the periodic schedule.
func (dm *DriftMonitor) RunOnce() {
	activeModel, err := dm.store.GetActiveModel()
	if err != nil {
		log.WithError(err).Error("Drift monitor found no active model.")
		return
	}
	dm.checkAccuracyDrift(activeModel)
	dm.checkAttributionShift(activeModel)
}

// checkAccuracyDrift compares the earliest and latest accuracy observations
// within the lookback window.
func (dm *DriftMonitor) checkAccuracyDrift(activeModel *model.AttributionModel) {
	conf := C.GetConfig()
	since := dm.nowFn().Unix() - int64(conf.DriftLookbackDays)*model.SecsInADay
	history := dm.store.GetAccuracyHistory(activeModel.ID, since)
	if len(history) < 2 {
		return
	}
	before := history[0].Accuracy
	after := history[len(history)-1].Accuracy
	drop := before - after
	if drop < conf.DriftAccuracyThreshold {
		return
	}
	if dm.store.HasUnresolvedAlert(model.AlertTypeModelDrift, activeModel.ID) {
		return
	}
	dm.emit(&model.AttributionAlert{
		Type:         model.AlertTypeModelDrift,
		Severity:     model.SeverityForDrop(drop, conf.DriftAccuracyThreshold),
		Title:        "Attribution model accuracy drifting",
		Description:  fmt.Sprintf("Accuracy of model %s dropped from %.1f to %.1f within the lookback window.", activeModel.ID, before, after),
		Subject:      activeModel.ID,
		MetricBefore: before,
		MetricAfter:  after,
		Change:       -drop,
		Threshold:    conf.DriftAccuracyThreshold,
		RecommendedActions: []string{
			"retrain the model on recent journeys",
			"compare against challenger models in an experiment",
		},
	})
}

// checkAttributionShift weighs the previous and current attribution windows
// with the active model and alerts on channel share shifts and on channels
// whose efficiency improved enough to be worth reallocating towards.
func (dm *DriftMonitor) checkAttributionShift(activeModel *model.AttributionModel) {
	conf := C.GetConfig()
	window := int64(conf.AttributionWindowDays) * model.SecsInADay
	now := dm.nowFn().Unix()

	currentShares, currentROAS, err := dm.windowStats(activeModel, now-window, now)
	if err != nil {
		log.WithError(err).Error("Failed to compute current attribution window stats.")
		return
	}
	previousShares, previousROAS, err := dm.windowStats(activeModel, now-2*window, now-window-1)
	if err != nil {
		log.WithError(err).Error("Failed to compute previous attribution window stats.")
		return
	}
	if len(previousShares) == 0 {
		return
	}

	channelIDs := make(map[string]bool, len(currentShares)+len(previousShares))
	for channelID := range currentShares {
		channelIDs[channelID] = true
	}
	for channelID := range previousShares {
		channelIDs[channelID] = true
	}

	for channelID := range channelIDs {
		current := currentShares[channelID]
		previous := previousShares[channelID]
		shift := math.Abs(current-previous) * 100
		if shift >= conf.ShareShiftThreshold && !dm.store.HasUnresolvedAlert(model.AlertTypeBudgetReallocation, channelID) {
			dm.emit(&model.AttributionAlert{
				Type:         model.AlertTypeBudgetReallocation,
				Severity:     model.SeverityForDrop(shift, conf.ShareShiftThreshold),
				Title:        "Channel attribution share shifted",
				Description:  fmt.Sprintf("Attribution share of channel %s moved from %.0f%% to %.0f%% between windows.", channelID, previous*100, current*100),
				Subject:      channelID,
				MetricBefore: previous * 100,
				MetricAfter:  current * 100,
				Change:       (current - previous) * 100,
				Threshold:    conf.ShareShiftThreshold,
				RecommendedActions: []string{
					"review budget allocation for " + channelID,
				},
			})
		}

		gain := currentROAS[channelID] - previousROAS[channelID]
		if gain >= conf.EfficiencyGainThreshold && !dm.store.HasUnresolvedAlert(model.AlertTypeChannelOptimization, channelID) {
			dm.emit(&model.AttributionAlert{
				Type:         model.AlertTypeChannelOptimization,
				Severity:     model.AlertSeverityLow,
				Title:        "Channel efficiency improving",
				Description:  fmt.Sprintf("ROAS of channel %s improved from %.2f to %.2f between windows.", channelID, previousROAS[channelID], currentROAS[channelID]),
				Subject:      channelID,
				MetricBefore: previousROAS[channelID],
				MetricAfter:  currentROAS[channelID],
				Change:       gain,
				Threshold:    conf.EfficiencyGainThreshold,
				AutoResolve:  true,
				RecommendedActions: []string{
					"shift incremental budget into " + channelID,
				},
			})
		}
	}
}

// windowStats weighs the window's journeys with the active model and returns
// per-channel attribution share and ROAS.
func (dm *DriftMonitor) windowStats(activeModel *model.AttributionModel,
	from, to int64) (map[string]float64, map[string]float64, error) {

	journeys := dm.store.GetJourneysInRange(from, to)
	shares := make(map[string]float64)
	roas := make(map[string]float64)
	if len(journeys) == 0 {
		return shares, roas, nil
	}

	conf := C.GetConfig()
	weighter, err := model.NewJourneyWeighter(activeModel, weightParams(conf), journeys, dm.store.GetModel)
	if err != nil {
		return nil, nil, err
	}

	cost := make(map[string]float64)
	total := 0.0
	for _, journey := range journeys {
		weights, err := weighter.Weights(journey)
		if err != nil {
			continue
		}
		journey.ApplyWeights(weights)
		for channelID, revenue := range journey.RevenueDistribution {
			shares[channelID] += revenue
			total += revenue
		}
		for _, tp := range journey.TouchPoints {
			cost[tp.ChannelID] += tp.Cost
		}
	}
	for channelID, revenue := range shares {
		if total > 0 {
			shares[channelID] = revenue / total
		}
		if cost[channelID] > 0 {
			roas[channelID] = revenue / cost[channelID]
		}
	}
	return shares, roas, nil
}

func (dm *DriftMonitor) emit(alert *model.AttributionAlert) {
	created, err := dm.store.CreateAlert(alert)
	if err != nil {
		log.WithError(err).Error("Failed to create alert.")
		return
	}
	metrics.AlertsEmitted.Inc()
	log.WithFields(log.Fields{
		"alert_id": created.ID,
		"type":     created.Type,
		"severity": created.Severity,
		"subject":  created.Subject,
	}).Warn("Attribution alert raised.")
}
