package task

import (
	"context"
	"sync"
	"time"

	C "attribution/config"
	"attribution/model"

	"github.com/rs/xid"
	log "github.com/sirupsen/logrus"
)

// Trainer runs model training as a background task. Training never blocks
// registry reads: the model is evaluated on a copy and published in a single
// update at the end. Cancellation restores the model's prior status without
// touching its metrics.
type Trainer struct {
	store model.Store
	nowFn func() time.Time

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

func NewTrainer(store model.Store) *Trainer {
	return &Trainer{
		store:   store,
		nowFn:   time.Now,
		cancels: make(map[string]context.CancelFunc),
	}
}

// TrainModel flips the model into training status and evaluates it in the
// background, returning a handle id immediately. Callers poll the model's
// status through the registry. Training an already-training model is a
// StateConflictError.
func (t *Trainer) TrainModel(modelID string) (string, error) {
	m, err := t.store.GetModel(modelID)
	if err != nil {
		return "", err
	}
	if m.Status == model.ModelStatusTraining {
		return "", model.NewStateConflictError("model", modelID, m.Status, "train")
	}
	priorStatus := m.Status
	m.Status = model.ModelStatusTraining
	if err := t.store.UpdateModel(m); err != nil {
		return "", err
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.mu.Lock()
	t.cancels[modelID] = cancel
	t.mu.Unlock()

	handle := xid.New().String()
	t.wg.Add(1)
	go t.run(ctx, modelID, priorStatus, handle)
	return handle, nil
}

// CancelTraining aborts an in-flight training run, if any.
func (t *Trainer) CancelTraining(modelID string) {
	t.mu.Lock()
	cancel, ok := t.cancels[modelID]
	t.mu.Unlock()
	if ok {
		cancel()
	}
}

// Shutdown aborts all in-flight training runs and waits them out.
func (t *Trainer) Shutdown() {
	t.mu.Lock()
	for _, cancel := range t.cancels {
		cancel()
	}
	t.mu.Unlock()
	t.wg.Wait()
}

func (t *Trainer) run(ctx context.Context, modelID, priorStatus, handle string) {
	defer t.wg.Done()
	defer func() {
		t.mu.Lock()
		delete(t.cancels, modelID)
		t.mu.Unlock()
	}()

	logCtx := log.WithFields(log.Fields{"model_id": modelID, "handle": handle})

	now := t.nowFn().Unix()
	journeys := t.store.GetJourneysInRange(0, now)
	evaluated, err := t.evaluate(ctx, modelID, journeys)

	m, getErr := t.store.GetModel(modelID)
	if getErr != nil {
		logCtx.WithError(getErr).Error("Model vanished during training.")
		return
	}

	if err != nil {
		// Cancelled or failed: the model keeps its prior status and metrics.
		m.Status = priorStatus
		if updateErr := t.store.UpdateModel(m); updateErr != nil {
			logCtx.WithError(updateErr).Error("Failed to restore model status after training abort.")
		}
		logCtx.WithError(err).Warn("Training aborted.")
		return
	}

	m.Metrics = evaluated
	m.Training = model.TrainingInfo{
		JourneyCount: len(journeys),
		From:         trainingFrom(journeys),
		To:           now,
		Features:     []string{"channel_sequence", "touch_timing", "conversion_value"},
		TrainedAt:    now,
	}
	m.Version = model.BumpMinorVersion(m.Version)
	if priorStatus == model.ModelStatusDeployed {
		m.Status = model.ModelStatusDeployed
	} else {
		m.Status = model.ModelStatusReady
	}
	if err := t.store.UpdateModel(m); err != nil {
		logCtx.WithError(err).Error("Failed to publish trained model.")
		return
	}
	if err := t.store.AppendAccuracyPoint(modelID, model.AccuracyPoint{Timestamp: now, Accuracy: evaluated.Accuracy}); err != nil {
		logCtx.WithError(err).Error("Failed to record accuracy point.")
	}
	logCtx.WithField("accuracy", evaluated.Accuracy).Info("Training completed.")
}

// evaluate scores the model against the journey corpus. Accuracy is the
// agreement between the model's top-credited channel and the channel that
// immediately preceded each conversion; precision and recall weigh that
// agreement by credited revenue. These are heuristic proxies kept
// deterministic so repeated training on the same corpus yields the same
// metrics.
func (t *Trainer) evaluate(ctx context.Context, modelID string,
	journeys []*model.CustomerJourney) (model.ModelMetrics, error) {

	m, err := t.store.GetModel(modelID)
	if err != nil {
		return model.ModelMetrics{}, err
	}
	weighter, err := model.NewJourneyWeighter(m, weightParams(C.GetConfig()), journeys, t.store.GetModel)
	if err != nil {
		return model.ModelMetrics{}, err
	}

	var converted, agreements int
	var creditedValue, totalValue float64
	for _, journey := range journeys {
		if err := ctx.Err(); err != nil {
			return model.ModelMetrics{}, err
		}
		if !journey.Converted {
			continue
		}
		weights, err := weighter.Weights(journey)
		if err != nil {
			continue
		}
		converted++
		totalValue += journey.TotalValue
		top := topChannel(weights)
		if top == journey.LastTouch || top == journey.FirstTouch {
			agreements++
			creditedValue += journey.TotalValue
		}
	}
	if converted == 0 {
		return model.ModelMetrics{}, nil
	}

	accuracy := 100 * float64(agreements) / float64(converted)
	precision := accuracy
	recall := accuracy
	if totalValue > 0 {
		precision = 100 * creditedValue / totalValue
		recall = (accuracy + precision) / 2
	}
	metrics := model.ModelMetrics{
		Accuracy:  accuracy,
		Precision: precision,
		Recall:    recall,
	}
	if precision+recall > 0 {
		metrics.F1Score = 2 * precision * recall / (precision + recall)
	}
	return metrics, nil
}

func topChannel(weights map[string]float64) string {
	top := ""
	best := -1.0
	for channelID, w := range weights {
		if w > best || (w == best && channelID < top) {
			top = channelID
			best = w
		}
	}
	return top
}

func trainingFrom(journeys []*model.CustomerJourney) int64 {
	var earliest int64
	for _, journey := range journeys {
		if earliest == 0 || journey.StartedAt < earliest {
			earliest = journey.StartedAt
		}
	}
	return earliest
}
