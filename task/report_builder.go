package task

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	C "attribution/config"
	"attribution/metrics"
	"attribution/model"
	U "attribution/util"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ReportBuilder orchestrates journey weighting, channel aggregation, synergy
// analysis and the experiment/alert snapshots into one immutable report.
// Reports are cached in an LRU keyed by the normalized range, the champion
// model version and the touchpoint count, so any ingest naturally misses;
// alert and experiment sections are re-read from the store on every hit.
type ReportBuilder struct {
	store   model.Store
	cache   *lru.Cache
	workers int
}

type weightResult struct {
	journey *model.CustomerJourney
	err     error
}

func NewReportBuilder(store model.Store) *ReportBuilder {
	conf := C.GetConfig()
	cache, err := lru.New(conf.ReportCacheSize)
	if err != nil {
		log.WithError(err).Fatal("Failed to init report cache.")
	}
	return &ReportBuilder{
		store:   store,
		cache:   cache,
		workers: C.GetReportWorkers(),
	}
}

// GenerateReport builds the attribution report for [from, to]. The range is
// normalized to day bounds. A cancelled context discards all partial work
// and returns the context error; per-journey weighting failures only
// increment the report's ErrorCount.
func (rb *ReportBuilder) GenerateReport(ctx context.Context, from, to int64) (*model.AttributionReport, error) {
	if from <= 0 || to <= 0 || from > to {
		return nil, model.NewValidationError("date_range", "from must be a positive timestamp not after to")
	}
	from = U.BeginningOfDayTimestamp(from)
	to = U.EndOfDayTimestamp(to)

	activeModel, err := rb.store.GetActiveModel()
	if err != nil {
		return nil, errors.Wrap(err, "no active model for report")
	}

	cacheKey := fmt.Sprintf("%d:%d:%s:%s:%d", from, to, activeModel.ID, activeModel.Version, rb.store.GetTouchPointCount())
	if cached, ok := rb.cache.Get(cacheKey); ok {
		return rb.refreshSnapshots(cached.(*model.AttributionReport)), nil
	}

	journeys := rb.store.GetJourneysInRange(from, to)
	conf := C.GetConfig()
	weighter, err := model.NewJourneyWeighter(activeModel, weightParams(conf), journeys, rb.store.GetModel)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build weighter for model %s", activeModel.ID)
	}

	weighted, errorCount, err := rb.weighJourneys(ctx, activeModel.ID, weighter, journeys)
	if err != nil {
		return nil, err
	}

	report := rb.assembleReport(activeModel, weighted, errorCount, from, to)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rb.cache.Add(cacheKey, report)
	metrics.ReportsGenerated.Inc()
	return report, nil
}

// weighJourneys fans the journeys out across the worker pool and joins the
// results. The merge downstream is pure summation, so worker scheduling
// cannot affect the report.
func (rb *ReportBuilder) weighJourneys(ctx context.Context, modelID string,
	weighter model.JourneyWeighter, journeys []*model.CustomerJourney) ([]*model.CustomerJourney, int, error) {

	workers := rb.workers
	if workers > len(journeys) {
		workers = len(journeys)
	}
	if workers == 0 {
		return nil, 0, nil
	}

	jobs := make(chan *model.CustomerJourney)
	results := make(chan weightResult, len(journeys))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for journey := range jobs {
				weights, err := weighter.Weights(journey)
				if err != nil {
					results <- weightResult{err: &model.PartialComputationError{
						CustomerID: journey.CustomerID, ModelID: modelID, Err: err}}
					continue
				}
				journey.ApplyWeights(weights)
				results <- weightResult{journey: journey}
			}
		}()
	}

feed:
	for _, journey := range journeys {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- journey:
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	var weighted []*model.CustomerJourney
	errorCount := 0
	for result := range results {
		if result.err != nil {
			log.WithError(result.err).Warn("Journey excluded from report.")
			errorCount++
			continue
		}
		weighted = append(weighted, result.journey)
	}
	// Restore a deterministic order after the fan-in.
	sort.Slice(weighted, func(i, j int) bool {
		if weighted[i].CustomerID != weighted[j].CustomerID {
			return weighted[i].CustomerID < weighted[j].CustomerID
		}
		return weighted[i].StartedAt < weighted[j].StartedAt
	})
	return weighted, errorCount, nil
}

// refreshSnapshots re-reads the operational sections of a cached report.
// Alerts and experiments mutate outside the ingest path, so the cache key
// never misses on them; the weighted sections stay shared with the cached
// copy.
func (rb *ReportBuilder) refreshSnapshots(cached *model.AttributionReport) *model.AttributionReport {
	report := *cached
	report.Alerts = rb.store.GetAllAlerts(false)
	report.Experiments = rb.experimentSnapshot()
	return &report
}

// experimentSnapshot returns every experiment that has left draft.
func (rb *ReportBuilder) experimentSnapshot() []model.AttributionExperiment {
	var experiments []model.AttributionExperiment
	for _, experiment := range rb.store.GetAllExperiments() {
		if experiment.Status != model.ExperimentStatusDraft {
			experiments = append(experiments, experiment)
		}
	}
	return experiments
}

func (rb *ReportBuilder) assembleReport(activeModel *model.AttributionModel,
	journeys []*model.CustomerJourney, errorCount int, from, to int64) *model.AttributionReport {

	conf := C.GetConfig()
	report := &model.AttributionReport{
		GeneratedAt:  time.Now().Unix(),
		From:         from,
		To:           to,
		ModelID:      activeModel.ID,
		JourneyCount: len(journeys),
		ErrorCount:   errorCount,
	}
	for _, journey := range journeys {
		if journey.Converted {
			report.ConvertedCount++
		}
		report.TouchPointCount += len(journey.TouchPoints)
		report.TotalRevenue += journey.TotalValue
		for _, revenue := range journey.RevenueDistribution {
			report.AttributedRevenue += revenue
		}
		for _, tp := range journey.TouchPoints {
			report.TotalCost += tp.Cost
		}
	}

	criticality := model.CriticalityWeights{
		ROAS:          conf.CriticalityROASWeight,
		Revenue:       conf.CriticalityRevenueWeight,
		AssistingRate: conf.CriticalityAssistWeight,
	}
	report.ChannelInsights = model.BuildChannelInsights(journeys, criticality)
	report.Recommendations = model.BuildRecommendations(report.ChannelInsights, conf.RecommendationTopN)
	report.Synergies = model.BuildSynergyInsights(journeys, conf.SynergyMinSampleSize, conf.SynergyTopN)
	report.TopJourneys = topJourneysByValue(journeys, conf.TopJourneys)
	report.Alerts = rb.store.GetAllAlerts(false)
	report.Experiments = rb.experimentSnapshot()
	for _, m := range rb.store.GetAllModels() {
		if m.Status == model.ModelStatusDeprecated {
			continue
		}
		report.ModelComparison = append(report.ModelComparison, model.ModelSnapshot{
			ID: m.ID, Name: m.Name, Type: m.Type, Status: m.Status,
			Version: m.Version, IsActive: m.IsActive, Metrics: m.Metrics,
		})
	}
	return report
}

func topJourneysByValue(journeys []*model.CustomerJourney, topN int) []*model.CustomerJourney {
	top := make([]*model.CustomerJourney, len(journeys))
	copy(top, journeys)
	sort.Slice(top, func(i, j int) bool {
		if top[i].TotalValue != top[j].TotalValue {
			return top[i].TotalValue > top[j].TotalValue
		}
		return top[i].CustomerID < top[j].CustomerID
	})
	if topN > 0 && len(top) > topN {
		top = top[:topN]
	}
	return top
}

func weightParams(conf *C.Configuration) model.WeightParams {
	return model.WeightParams{
		FirstTouchWeight:  conf.FirstTouchWeight,
		LastTouchWeight:   conf.LastTouchWeight,
		MiddleTouchWeight: conf.MiddleTouchWeight,
		HalfLifeDays:      conf.TimeDecayHalfLifeDays,
	}
}
