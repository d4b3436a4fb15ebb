package task

import (
	"fmt"
	"testing"
	"time"

	"attribution/model"
	"attribution/model/store/memory"

	"github.com/stretchr/testify/assert"
)

func newTestManager() (*ExperimentManager, *memory.MemoryStore) {
	store := memory.NewMemoryStore(30, 128)
	mgr := NewExperimentManager(store)
	mgr.interval = time.Hour
	return mgr, store
}

// armCustomerIDs picks customer ids that hash deterministically into the
// requested arm for the given split.
func armCustomerIDs(prefix string, treatment bool, split, n int) []string {
	var ids []string
	for i := 0; len(ids) < n; i++ {
		id := fmt.Sprintf("%s-%d", prefix, i)
		if (int(hashBucket(id)) < split) == treatment {
			ids = append(ids, id)
		}
	}
	return ids
}

func ingestArm(t *testing.T, store *memory.MemoryStore, ids []string, conversions int,
	value float64, timestamp int64) {

	t.Helper()
	for i, customerID := range ids {
		tp := &model.TouchPoint{
			Timestamp:  timestamp,
			ChannelID:  "google_ads",
			TouchType:  model.TouchTypeClick,
			CustomerID: customerID,
		}
		if i < conversions {
			tp.IsConversion = true
			tp.Value = value
		}
		_, err := store.CreateTouchPoint(tp)
		assert.Nil(t, err)
	}
}

func TestCreateExperimentValidations(t *testing.T) {
	mgr, _ := newTestManager()

	_, err := mgr.CreateExperiment("", model.AttributionModelPositionBased, model.AttributionModelTimeDecay, 50)
	assert.IsType(t, &model.ValidationError{}, err)

	_, err = mgr.CreateExperiment("x", model.AttributionModelPositionBased, model.AttributionModelTimeDecay, 101)
	assert.IsType(t, &model.ValidationError{}, err)

	_, err = mgr.CreateExperiment("x", model.AttributionModelPositionBased, model.AttributionModelPositionBased, 50)
	assert.IsType(t, &model.ValidationError{}, err)

	_, err = mgr.CreateExperiment("x", "no_such_model", model.AttributionModelTimeDecay, 50)
	assert.IsType(t, &model.NotFoundError{}, err)

	experiment, err := mgr.CreateExperiment("decay-challenger",
		model.AttributionModelPositionBased, model.AttributionModelTimeDecay, 50)
	assert.Nil(t, err)
	assert.Equal(t, model.ExperimentStatusDraft, experiment.Status)
	assert.NotEmpty(t, experiment.ID)
}

func TestExperimentStateMachine(t *testing.T) {
	mgr, store := newTestManager()
	defer mgr.Shutdown()

	experiment, err := mgr.CreateExperiment("lifecycle",
		model.AttributionModelPositionBased, model.AttributionModelTimeDecay, 50)
	assert.Nil(t, err)

	// Stopping a draft is a conflict.
	err = mgr.StopExperiment(experiment.ID, "")
	assert.IsType(t, &model.StateConflictError{}, err)

	assert.Nil(t, mgr.StartExperiment(experiment.ID))
	running, err := store.GetExperiment(experiment.ID)
	assert.Nil(t, err)
	assert.Equal(t, model.ExperimentStatusRunning, running.Status)
	assert.NotZero(t, running.StartedAt)

	// Starting twice is a conflict.
	err = mgr.StartExperiment(experiment.ID)
	assert.IsType(t, &model.StateConflictError{}, err)

	err = mgr.StopExperiment(experiment.ID, "everyone")
	assert.IsType(t, &model.ValidationError{}, err)

	assert.Nil(t, mgr.StopExperiment(experiment.ID, model.ExperimentWinnerControl))
	stopped, err := store.GetExperiment(experiment.ID)
	assert.Nil(t, err)
	assert.Equal(t, model.ExperimentStatusCompleted, stopped.Status)
	assert.Equal(t, model.ExperimentWinnerControl, stopped.Winner)
	assert.True(t, stopped.IsTerminal())

	// Terminal experiments reject further transitions.
	err = mgr.StopExperiment(experiment.ID, "")
	assert.IsType(t, &model.StateConflictError{}, err)
}

func TestStopWithoutWinnerCancels(t *testing.T) {
	mgr, store := newTestManager()
	defer mgr.Shutdown()

	experiment, err := mgr.CreateExperiment("abandoned",
		model.AttributionModelPositionBased, model.AttributionModelTimeDecay, 50)
	assert.Nil(t, err)
	assert.Nil(t, mgr.StartExperiment(experiment.ID))
	assert.Nil(t, mgr.StopExperiment(experiment.ID, ""))

	stopped, err := store.GetExperiment(experiment.ID)
	assert.Nil(t, err)
	assert.Equal(t, model.ExperimentStatusCancelled, stopped.Status)
	assert.Empty(t, stopped.Winner)
}

func TestExperimentAutoCompletion(t *testing.T) {
	mgr, store := newTestManager()
	defer mgr.Shutdown()

	start := time.Date(2020, 5, 10, 0, 0, 0, 0, time.UTC)
	mgr.nowFn = func() time.Time { return start }

	experiment, err := mgr.CreateExperiment("decay-challenger",
		model.AttributionModelPositionBased, model.AttributionModelTimeDecay, 50)
	assert.Nil(t, err)
	assert.Nil(t, mgr.StartExperiment(experiment.ID))

	// 50 journeys per arm: control converts 5 at 100, treatment 25 at 100.
	// The conversion-rate gap is far past the significance cutoff and the
	// revenue-per-journey lift is far past the lift cutoff.
	controlIDs := armCustomerIDs("ctl", false, 50, 50)
	treatmentIDs := armCustomerIDs("trt", true, 50, 50)
	ingestArm(t, store, controlIDs, 5, 100, start.Unix()+3600)
	ingestArm(t, store, treatmentIDs, 25, 100, start.Unix()+3600)

	// One day in: significant but below the minimum evaluation period.
	mgr.nowFn = func() time.Time { return start.Add(24 * time.Hour) }
	assert.Nil(t, mgr.EvaluateExperiment(experiment.ID))
	early, err := store.GetExperiment(experiment.ID)
	assert.Nil(t, err)
	assert.Equal(t, model.ExperimentStatusRunning, early.Status)
	assert.Greater(t, early.Significance, 95.0)

	// Eight days in: auto-completes with the treatment winning.
	mgr.nowFn = func() time.Time { return start.Add(8 * 24 * time.Hour) }
	assert.Nil(t, mgr.EvaluateExperiment(experiment.ID))
	done, err := store.GetExperiment(experiment.ID)
	assert.Nil(t, err)
	assert.Equal(t, model.ExperimentStatusCompleted, done.Status)
	assert.Equal(t, model.ExperimentWinnerTreatment, done.Winner)
	assert.Equal(t, 50, done.Control.Journeys)
	assert.Equal(t, 50, done.Treatment.Journeys)
	assert.Equal(t, 5, done.Control.Conversions)
	assert.Equal(t, 25, done.Treatment.Conversions)
	assert.Greater(t, done.Lift, 5.0)
	assert.NotZero(t, done.EndedAt)
	assert.Contains(t, done.Conclusion, "auto-concluded")

	// Repeated evaluation of a terminal experiment changes nothing.
	assert.Nil(t, mgr.EvaluateExperiment(experiment.ID))
	again, err := store.GetExperiment(experiment.ID)
	assert.Nil(t, err)
	assert.Equal(t, done.EndedAt, again.EndedAt)
	assert.Equal(t, done.Winner, again.Winner)
}

func TestSplitArmsIsDeterministicPerCustomer(t *testing.T) {
	experiment := &model.AttributionExperiment{
		ControlModelID:   model.AttributionModelPositionBased,
		TreatmentModelID: model.AttributionModelTimeDecay,
		TrafficSplit:     50,
	}
	journeys := []*model.CustomerJourney{
		{CustomerID: "repeat", Converted: true, TotalValue: 100},
		{CustomerID: "repeat", Converted: false},
	}
	control, treatment := splitArms(experiment, journeys)
	// Both journeys of the same customer land in the same arm.
	assert.Equal(t, 2, control.Journeys+treatment.Journeys)
	assert.True(t, control.Journeys == 2 || treatment.Journeys == 2)
}

func TestConversionSignificanceScales(t *testing.T) {
	even := conversionSignificance(
		model.ExperimentArm{Journeys: 100, Conversions: 10},
		model.ExperimentArm{Journeys: 100, Conversions: 10})
	assert.Equal(t, 0.0, even)

	skewed := conversionSignificance(
		model.ExperimentArm{Journeys: 100, Conversions: 10},
		model.ExperimentArm{Journeys: 100, Conversions: 50})
	assert.Greater(t, skewed, 99.0)

	assert.Equal(t, 0.0, conversionSignificance(model.ExperimentArm{}, model.ExperimentArm{}))
}

func TestRevenueLiftNormalizesPerJourney(t *testing.T) {
	lift := revenueLift(
		model.ExperimentArm{Journeys: 200, Revenue: 2000},
		model.ExperimentArm{Journeys: 100, Revenue: 1100})
	assert.InDelta(t, 10.0, lift, 1e-9)

	assert.Equal(t, 0.0, revenueLift(model.ExperimentArm{}, model.ExperimentArm{Journeys: 10, Revenue: 100}))
}
