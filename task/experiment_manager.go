package task

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sync"
	"time"

	C "attribution/config"
	"attribution/model"

	log "github.com/sirupsen/logrus"
)

// ExperimentManager owns the experiment lifecycle: creation, the
// draft -> running -> completed|cancelled state machine, and the periodic
// evaluation loop of every running experiment. Each loop is an independently
// cancellable task; Stop waits for the in-flight tick, so no tick can mutate
// state after an experiment terminates.
type ExperimentManager struct {
	store    model.Store
	interval time.Duration
	nowFn    func() time.Time

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

func NewExperimentManager(store model.Store) *ExperimentManager {
	return &ExperimentManager{
		store:    store,
		interval: C.GetConfig().ExperimentInterval,
		nowFn:    time.Now,
		cancels:  make(map[string]context.CancelFunc),
	}
}

// CreateExperiment validates inputs and registers a draft experiment.
func (mgr *ExperimentManager) CreateExperiment(name, controlModelID, treatmentModelID string,
	trafficSplit int) (*model.AttributionExperiment, error) {

	if name == "" {
		return nil, model.NewValidationError("name", "is required")
	}
	if trafficSplit < 0 || trafficSplit > 100 {
		return nil, model.NewValidationError("traffic_split", "must be between 0 and 100")
	}
	if controlModelID == treatmentModelID {
		return nil, model.NewValidationError("treatment_model_id", "control and treatment must differ")
	}
	if _, err := mgr.store.GetModel(controlModelID); err != nil {
		return nil, err
	}
	if _, err := mgr.store.GetModel(treatmentModelID); err != nil {
		return nil, err
	}

	experiment := &model.AttributionExperiment{
		Name:             name,
		Status:           model.ExperimentStatusDraft,
		ControlModelID:   controlModelID,
		TreatmentModelID: treatmentModelID,
		TrafficSplit:     trafficSplit,
		Control:          model.ExperimentArm{ModelID: controlModelID},
		Treatment:        model.ExperimentArm{ModelID: treatmentModelID},
		CreatedAt:        mgr.nowFn().Unix(),
	}
	if err := mgr.store.CreateExperiment(experiment); err != nil {
		return nil, err
	}
	return experiment, nil
}

// StartExperiment transitions a draft experiment to running and schedules
// its evaluation loop.
func (mgr *ExperimentManager) StartExperiment(id string) error {
	experiment, err := mgr.store.GetExperiment(id)
	if err != nil {
		return err
	}
	if experiment.Status != model.ExperimentStatusDraft {
		return model.NewStateConflictError("experiment", id, experiment.Status, "start")
	}
	experiment.Status = model.ExperimentStatusRunning
	experiment.StartedAt = mgr.nowFn().Unix()
	if err := mgr.store.UpdateExperiment(experiment); err != nil {
		return err
	}
	mgr.startLoop(id)
	log.WithFields(log.Fields{"experiment_id": id, "name": experiment.Name}).Info("Experiment started.")
	return nil
}

// StopExperiment ends a running experiment. With an explicit winner the
// experiment completes; without one it is cancelled.
func (mgr *ExperimentManager) StopExperiment(id, winner string) error {
	if winner != "" && winner != model.ExperimentWinnerControl && winner != model.ExperimentWinnerTreatment {
		return model.NewValidationError("winner", "must be control or treatment")
	}
	experiment, err := mgr.store.GetExperiment(id)
	if err != nil {
		return err
	}
	if experiment.Status != model.ExperimentStatusRunning {
		return model.NewStateConflictError("experiment", id, experiment.Status, "stop")
	}
	experiment.EndedAt = mgr.nowFn().Unix()
	if winner != "" {
		experiment.Status = model.ExperimentStatusCompleted
		experiment.Winner = winner
		experiment.Conclusion = "stopped manually with explicit winner"
	} else {
		experiment.Status = model.ExperimentStatusCancelled
		experiment.Conclusion = "stopped manually"
	}
	if err := mgr.store.UpdateExperiment(experiment); err != nil {
		return err
	}
	mgr.stopLoop(id)
	return nil
}

// Shutdown cancels every evaluation loop and waits them out.
func (mgr *ExperimentManager) Shutdown() {
	mgr.mu.Lock()
	for id, cancel := range mgr.cancels {
		cancel()
		delete(mgr.cancels, id)
	}
	mgr.mu.Unlock()
	mgr.wg.Wait()
}

func (mgr *ExperimentManager) startLoop(id string) {
	ctx, cancel := context.WithCancel(context.Background())
	mgr.mu.Lock()
	mgr.cancels[id] = cancel
	mgr.mu.Unlock()

	mgr.wg.Add(1)
	go func() {
		defer mgr.wg.Done()
		ticker := time.NewTicker(mgr.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := mgr.EvaluateExperiment(id); err != nil {
					log.WithError(err).WithField("experiment_id", id).Error("Experiment evaluation failed.")
				}
			}
		}
	}()
}

func (mgr *ExperimentManager) stopLoop(id string) {
	mgr.mu.Lock()
	cancel, ok := mgr.cancels[id]
	if ok {
		delete(mgr.cancels, id)
	}
	mgr.mu.Unlock()
	if ok {
		cancel()
	}
}

// EvaluateExperiment recomputes arm metrics, lift and significance for a
// running experiment and auto-completes it when the thresholds are met.
// Evaluating a terminal experiment is a no-op, which makes the
// auto-completion transition idempotent under repeated ticks.
func (mgr *ExperimentManager) EvaluateExperiment(id string) error {
	experiment, err := mgr.store.GetExperiment(id)
	if err != nil {
		return err
	}
	if experiment.Status != model.ExperimentStatusRunning {
		return nil
	}

	now := mgr.nowFn().Unix()
	journeys := mgr.store.GetJourneysInRange(experiment.StartedAt, now)
	control, treatment := splitArms(experiment, journeys)
	if m, err := mgr.store.GetModel(control.ModelID); err == nil {
		control.Accuracy = m.Metrics.Accuracy
	}
	if m, err := mgr.store.GetModel(treatment.ModelID); err == nil {
		treatment.Accuracy = m.Metrics.Accuracy
	}
	experiment.Control, experiment.Treatment = control, treatment
	experiment.Lift = revenueLift(control, treatment)
	experiment.Significance = conversionSignificance(control, treatment)
	experiment.Confidence = experiment.Significance

	mgr.concludeIfReady(experiment, now)
	return mgr.store.UpdateExperiment(experiment)
}

// concludeIfReady applies the auto-completion rule: significance at or above
// the cutoff after the minimum evaluation period completes the experiment,
// with the treatment winning only on a lift above the cutoff.
func (mgr *ExperimentManager) concludeIfReady(experiment *model.AttributionExperiment, now int64) {
	conf := C.GetConfig()
	if experiment.Status != model.ExperimentStatusRunning {
		return
	}
	if experiment.Significance < conf.ExperimentSignificanceCutoff {
		return
	}
	elapsedDays := float64(now-experiment.StartedAt) / float64(model.SecsInADay)
	if elapsedDays < float64(conf.ExperimentMinEvaluationDays) {
		return
	}
	experiment.Status = model.ExperimentStatusCompleted
	experiment.EndedAt = now
	if experiment.Lift > conf.ExperimentLiftCutoff {
		experiment.Winner = model.ExperimentWinnerTreatment
	} else {
		experiment.Winner = model.ExperimentWinnerControl
	}
	experiment.Conclusion = fmt.Sprintf("auto-concluded at %.1f%% significance with %.1f%% lift",
		experiment.Significance, experiment.Lift)
	mgr.stopLoop(experiment.ID)
	log.WithFields(log.Fields{"experiment_id": experiment.ID, "winner": experiment.Winner}).
		Info("Experiment auto-concluded.")
}

// splitArms assigns each journey to an arm by hashing the customer id
// against the traffic split, so a customer always lands in the same arm.
func splitArms(experiment *model.AttributionExperiment,
	journeys []*model.CustomerJourney) (model.ExperimentArm, model.ExperimentArm) {

	control := model.ExperimentArm{ModelID: experiment.ControlModelID}
	treatment := model.ExperimentArm{ModelID: experiment.TreatmentModelID}
	for _, journey := range journeys {
		arm := &control
		if int(hashBucket(journey.CustomerID)) < experiment.TrafficSplit {
			arm = &treatment
		}
		arm.Journeys++
		if journey.Converted {
			arm.Conversions++
			arm.Revenue += journey.TotalValue
		}
	}
	return control, treatment
}

func hashBucket(customerID string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(customerID))
	return h.Sum32() % 100
}

// revenueLift is the treatment's revenue-per-journey gain over control, in
// percent. Per-journey normalization keeps uneven traffic splits from
// biasing the comparison.
func revenueLift(control, treatment model.ExperimentArm) float64 {
	if control.Journeys == 0 || treatment.Journeys == 0 {
		return 0
	}
	controlPerJourney := control.Revenue / float64(control.Journeys)
	if controlPerJourney == 0 {
		return 0
	}
	treatmentPerJourney := treatment.Revenue / float64(treatment.Journeys)
	return (treatmentPerJourney/controlPerJourney - 1) * 100
}

// conversionSignificance runs a two-proportion z-test on the arms'
// conversion rates and maps the z score to a 0-100 confidence.
func conversionSignificance(control, treatment model.ExperimentArm) float64 {
	n1, n2 := float64(control.Journeys), float64(treatment.Journeys)
	if n1 == 0 || n2 == 0 {
		return 0
	}
	p1 := float64(control.Conversions) / n1
	p2 := float64(treatment.Conversions) / n2
	pooled := (float64(control.Conversions) + float64(treatment.Conversions)) / (n1 + n2)
	variance := pooled * (1 - pooled) * (1/n1 + 1/n2)
	if variance == 0 {
		return 0
	}
	z := math.Abs(p2-p1) / math.Sqrt(variance)
	return math.Erf(z/math.Sqrt2) * 100
}
