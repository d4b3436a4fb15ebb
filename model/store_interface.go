package model

// AccuracyPoint is one observation of a model's accuracy over time, used by
// the drift monitor.
type AccuracyPoint struct {
	Timestamp int64   `json:"timestamp"`
	Accuracy  float64 `json:"accuracy"`
}

// Store is the persistence contract of the engine. Touchpoints and alerts
// are append-only; journeys are always derived from the touchpoint log,
// never stored, so there is a single source of truth.
type Store interface {
	// Touchpoints and journeys.
	CreateTouchPoint(tp *TouchPoint) (*TouchPoint, error)
	GetTouchPointsInRange(from, to int64) []TouchPoint
	GetTouchPointCount() int
	GetJourneysInRange(from, to int64) []*CustomerJourney

	// Model registry.
	CreateModel(m *AttributionModel) error
	GetModel(id string) (*AttributionModel, error)
	GetAllModels() []AttributionModel
	GetActiveModel() (*AttributionModel, error)
	SetActiveModel(id string) error
	UpdateModel(m *AttributionModel) error

	// Accuracy history per model.
	AppendAccuracyPoint(modelID string, point AccuracyPoint) error
	GetAccuracyHistory(modelID string, since int64) []AccuracyPoint

	// Experiments.
	CreateExperiment(e *AttributionExperiment) error
	GetExperiment(id string) (*AttributionExperiment, error)
	GetAllExperiments() []AttributionExperiment
	UpdateExperiment(e *AttributionExperiment) error

	// Alerts.
	CreateAlert(a *AttributionAlert) (*AttributionAlert, error)
	GetAllAlerts(includeResolved bool) []AttributionAlert
	ResolveAlert(id string) error
	HasUnresolvedAlert(alertType, subject string) bool
}
