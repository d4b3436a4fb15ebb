package memory

import (
	"testing"

	"attribution/model"

	"github.com/stretchr/testify/assert"
)

func newTestStore() *MemoryStore {
	return NewMemoryStore(30, 128)
}

func validTouchPoint(customerID, channelID string, timestamp int64) *model.TouchPoint {
	return &model.TouchPoint{
		Timestamp:   timestamp,
		ChannelID:   channelID,
		ChannelName: channelID,
		TouchType:   model.TouchTypeClick,
		CustomerID:  customerID,
	}
}

func TestCreateTouchPointAssignsIDAndCounts(t *testing.T) {
	store := newTestStore()

	stored, err := store.CreateTouchPoint(validTouchPoint("cust-1", "google_ads", 1589068800))
	assert.Nil(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, 1, store.GetTouchPointCount())
}

func TestCreateTouchPointRejectsInvalidWithoutMutation(t *testing.T) {
	store := newTestStore()

	tp := validTouchPoint("", "google_ads", 1589068800)
	stored, err := store.CreateTouchPoint(tp)
	assert.Nil(t, stored)
	assert.IsType(t, &model.ValidationError{}, err)
	assert.Equal(t, 0, store.GetTouchPointCount())

	tp = validTouchPoint("cust-1", "google_ads", 1589068800)
	tp.Value = -10
	_, err = store.CreateTouchPoint(tp)
	assert.IsType(t, &model.ValidationError{}, err)
	assert.Equal(t, 0, store.GetTouchPointCount())
}

func TestGetTouchPointsInRangeIsInclusive(t *testing.T) {
	store := newTestStore()
	for _, ts := range []int64{100, 200, 300} {
		_, err := store.CreateTouchPoint(validTouchPoint("cust-1", "email", ts))
		assert.Nil(t, err)
	}

	assert.Len(t, store.GetTouchPointsInRange(100, 300), 3)
	assert.Len(t, store.GetTouchPointsInRange(101, 299), 1)
	assert.Empty(t, store.GetTouchPointsInRange(400, 500))
}

func TestGetJourneysInRangeReflectsNewIngest(t *testing.T) {
	store := newTestStore()
	base := int64(1589068800)

	_, err := store.CreateTouchPoint(validTouchPoint("cust-1", "google_ads", base))
	assert.Nil(t, err)

	journeys := store.GetJourneysInRange(base, base+model.SecsInADay)
	assert.Len(t, journeys, 1)
	assert.Len(t, journeys[0].TouchPoints, 1)

	// A later touchpoint must show up even though the customer's journeys
	// were cached by the previous read.
	tp := validTouchPoint("cust-1", "email", base+3600)
	tp.IsConversion = true
	tp.Value = 250
	_, err = store.CreateTouchPoint(tp)
	assert.Nil(t, err)

	journeys = store.GetJourneysInRange(base, base+model.SecsInADay)
	assert.Len(t, journeys, 1)
	assert.Len(t, journeys[0].TouchPoints, 2)
	assert.True(t, journeys[0].Converted)
	assert.Equal(t, 250.0, journeys[0].TotalValue)
}

func TestGetJourneysInRangeReturnsCopies(t *testing.T) {
	store := newTestStore()
	base := int64(1589068800)
	_, err := store.CreateTouchPoint(validTouchPoint("cust-1", "google_ads", base))
	assert.Nil(t, err)

	first := store.GetJourneysInRange(base, base+model.SecsInADay)
	first[0].AttributionWeights = map[string]float64{"google_ads": 1}
	first[0].TouchPoints[0].ChannelID = "mutated"

	second := store.GetJourneysInRange(base, base+model.SecsInADay)
	assert.Nil(t, second[0].AttributionWeights)
	assert.Equal(t, "google_ads", second[0].TouchPoints[0].ChannelID)
}

func TestDefaultModelsSeededWithSingleChampion(t *testing.T) {
	store := newTestStore()

	models := store.GetAllModels()
	assert.Len(t, models, 9)

	activeCount := 0
	for _, m := range models {
		if m.IsActive {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)

	active, err := store.GetActiveModel()
	assert.Nil(t, err)
	assert.Equal(t, model.AttributionModelPositionBased, active.ID)
}

func TestSetActiveModelFlipsChampionAtomically(t *testing.T) {
	store := newTestStore()

	assert.Nil(t, store.SetActiveModel(model.AttributionModelTimeDecay))

	active, err := store.GetActiveModel()
	assert.Nil(t, err)
	assert.Equal(t, model.AttributionModelTimeDecay, active.ID)

	activeCount := 0
	for _, m := range store.GetAllModels() {
		if m.IsActive {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)

	err = store.SetActiveModel("no_such_model")
	assert.IsType(t, &model.NotFoundError{}, err)
}

func TestUpdateModelPreservesChampionFlag(t *testing.T) {
	store := newTestStore()

	m, err := store.GetModel(model.AttributionModelPositionBased)
	assert.Nil(t, err)
	assert.True(t, m.IsActive)

	m.IsActive = false
	m.Name = "Position Based Decay (tuned)"
	assert.Nil(t, store.UpdateModel(m))

	updated, err := store.GetModel(model.AttributionModelPositionBased)
	assert.Nil(t, err)
	assert.Equal(t, "Position Based Decay (tuned)", updated.Name)
	assert.True(t, updated.IsActive)
}

func TestGetModelReturnsCopy(t *testing.T) {
	store := newTestStore()

	m, err := store.GetModel(model.AttributionModelLinear)
	assert.Nil(t, err)
	m.Status = model.ModelStatusDeprecated

	fresh, err := store.GetModel(model.AttributionModelLinear)
	assert.Nil(t, err)
	assert.NotEqual(t, model.ModelStatusDeprecated, fresh.Status)
}

func TestAccuracyHistoryFiltersBySince(t *testing.T) {
	store := newTestStore()

	assert.Nil(t, store.AppendAccuracyPoint(model.AttributionModelLinear, model.AccuracyPoint{Timestamp: 100, Accuracy: 80}))
	assert.Nil(t, store.AppendAccuracyPoint(model.AttributionModelLinear, model.AccuracyPoint{Timestamp: 200, Accuracy: 85}))

	history := store.GetAccuracyHistory(model.AttributionModelLinear, 150)
	assert.Len(t, history, 1)
	assert.Equal(t, 85.0, history[0].Accuracy)

	err := store.AppendAccuracyPoint("no_such_model", model.AccuracyPoint{Timestamp: 100})
	assert.IsType(t, &model.NotFoundError{}, err)
}

func TestExperimentLifecycleInStore(t *testing.T) {
	store := newTestStore()

	exp := &model.AttributionExperiment{
		Name:             "decay-vs-position",
		ControlModelID:   model.AttributionModelPositionBased,
		TreatmentModelID: model.AttributionModelTimeDecay,
		TrafficSplit:     50,
		Status:           model.ExperimentStatusDraft,
	}
	assert.Nil(t, store.CreateExperiment(exp))
	assert.NotEmpty(t, exp.ID)

	fetched, err := store.GetExperiment(exp.ID)
	assert.Nil(t, err)
	assert.Equal(t, "decay-vs-position", fetched.Name)

	fetched.Status = model.ExperimentStatusRunning
	assert.Nil(t, store.UpdateExperiment(fetched))

	again, err := store.GetExperiment(exp.ID)
	assert.Nil(t, err)
	assert.Equal(t, model.ExperimentStatusRunning, again.Status)

	_, err = store.GetExperiment("missing")
	assert.IsType(t, &model.NotFoundError{}, err)
	err = store.UpdateExperiment(&model.AttributionExperiment{ID: "missing"})
	assert.IsType(t, &model.NotFoundError{}, err)
}

func TestResolveAlertIsIdempotent(t *testing.T) {
	store := newTestStore()

	alert, err := store.CreateAlert(&model.AttributionAlert{
		Type:     model.AlertTypeModelDrift,
		Severity: model.AlertSeverityWarning,
		Subject:  model.AttributionModelPositionBased,
		Title:    "accuracy dropped",
	})
	assert.Nil(t, err)
	assert.True(t, store.HasUnresolvedAlert(model.AlertTypeModelDrift, model.AttributionModelPositionBased))

	assert.Nil(t, store.ResolveAlert(alert.ID))
	resolvedAt := findAlert(t, store, alert.ID).ResolvedAt
	assert.NotZero(t, resolvedAt)

	// Second resolve keeps the original ResolvedAt.
	assert.Nil(t, store.ResolveAlert(alert.ID))
	assert.Equal(t, resolvedAt, findAlert(t, store, alert.ID).ResolvedAt)

	assert.False(t, store.HasUnresolvedAlert(model.AlertTypeModelDrift, model.AttributionModelPositionBased))
	assert.Empty(t, store.GetAllAlerts(false))
	assert.Len(t, store.GetAllAlerts(true), 1)

	err = store.ResolveAlert("missing")
	assert.IsType(t, &model.NotFoundError{}, err)
}

func findAlert(t *testing.T, store *MemoryStore, id string) model.AttributionAlert {
	t.Helper()
	for _, alert := range store.GetAllAlerts(true) {
		if alert.ID == id {
			return alert
		}
	}
	t.Fatalf("alert %s not found", id)
	return model.AttributionAlert{}
}
