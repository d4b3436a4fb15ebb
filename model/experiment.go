package model

const (
	ExperimentStatusDraft     = "draft"
	ExperimentStatusRunning   = "running"
	ExperimentStatusCompleted = "completed"
	ExperimentStatusCancelled = "cancelled"

	ExperimentWinnerControl   = "control"
	ExperimentWinnerTreatment = "treatment"
)

// ExperimentArm holds the running metrics of one side of an experiment.
type ExperimentArm struct {
	ModelID     string  `json:"model_id"`
	Journeys    int     `json:"journeys"`
	Conversions int     `json:"conversions"`
	Revenue     float64 `json:"revenue"`
	Accuracy    float64 `json:"accuracy"`
}

// AttributionExperiment is a controlled A/B comparison between two
// registered models on a traffic split. Status transitions are
// one-directional: draft -> running -> completed | cancelled.
type AttributionExperiment struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Status           string        `json:"status"`
	ControlModelID   string        `json:"control_model_id"`
	TreatmentModelID string        `json:"treatment_model_id"`
	TrafficSplit     int           `json:"traffic_split"`
	Control          ExperimentArm `json:"control"`
	Treatment        ExperimentArm `json:"treatment"`
	Lift             float64       `json:"lift"`
	Significance     float64       `json:"significance"`
	Confidence       float64       `json:"confidence"`
	Winner           string        `json:"winner,omitempty"`
	Conclusion       string        `json:"conclusion,omitempty"`
	CreatedAt        int64         `json:"created_at"`
	StartedAt        int64         `json:"started_at,omitempty"`
	EndedAt          int64         `json:"ended_at,omitempty"`
}

// IsTerminal reports whether the experiment has reached a final state.
func (e *AttributionExperiment) IsTerminal() bool {
	return e.Status == ExperimentStatusCompleted || e.Status == ExperimentStatusCancelled
}
