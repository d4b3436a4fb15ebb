package model

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	AttributionModelPositionBased = "position_based"
	AttributionModelTimeDecay     = "time_decay"
	AttributionModelLinear        = "linear"
	AttributionModelFirstTouch    = "first_touch"
	AttributionModelLastTouch     = "last_touch"
	AttributionModelUShaped       = "u_shaped"
	AttributionModelMarkovChain   = "markov_chain"
	AttributionModelShapley       = "shapley"
	AttributionModelEnsemble      = "ensemble"

	ModelTypeRuleBased   = "rule_based"
	ModelTypeAlgorithmic = "algorithmic"
	ModelTypeML          = "ml"
	ModelTypeEnsemble    = "ensemble"
	ModelTypeDataDriven  = "data_driven"
	ModelTypeMarkovChain = "markov_chain"

	ModelStatusTraining   = "training"
	ModelStatusReady      = "ready"
	ModelStatusDeployed   = "deployed"
	ModelStatusDeprecated = "deprecated"
)

// ModelMetrics holds the evaluation metrics of a model, on a 0-100 scale.
type ModelMetrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
}

// TrainingInfo records what the model was last trained on.
type TrainingInfo struct {
	JourneyCount int      `json:"journey_count"`
	From         int64    `json:"from"`
	To           int64    `json:"to"`
	Features     []string `json:"features"`
	TrainedAt    int64    `json:"trained_at"`
}

// AttributionModel is the registry entry for one attribution algorithm. The
// algorithm itself is a pure function selected by ID; the struct carries only
// metadata. Exactly one model in the registry has IsActive set at a time.
type AttributionModel struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Type      string       `json:"type"`
	Metrics   ModelMetrics `json:"metrics"`
	Training  TrainingInfo `json:"training"`
	Status    string       `json:"status"`
	Version   string       `json:"version"`
	IsActive  bool         `json:"is_active"`
	CreatedAt int64        `json:"created_at"`
	UpdatedAt int64        `json:"updated_at"`

	// EnsembleMembers maps member model id to its ensemble weight. Only set
	// for ensemble models; the weights must sum to 1.
	EnsembleMembers map[string]float64 `json:"ensemble_members,omitempty"`
}

// WeightParams carries the tunable constants of the built-in weighters.
// The defaults mirror the documented configuration surface.
type WeightParams struct {
	FirstTouchWeight    float64
	LastTouchWeight     float64
	MiddleTouchWeight   float64
	HalfLifeDays        float64
	PlatformMultipliers map[string]float64
}

// DefaultWeightParams returns the documented default weighting constants.
func DefaultWeightParams() WeightParams {
	return WeightParams{
		FirstTouchWeight:  0.4,
		LastTouchWeight:   0.4,
		MiddleTouchWeight: 0.2,
		HalfLifeDays:      7.0,
	}
}

// BumpMinorVersion increments the minor component of a semantic version
// string, e.g. "1.2.0" -> "1.3.0". Unparseable versions restart at "1.0.0".
func BumpMinorVersion(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return "1.0.0"
	}
	major, errMajor := strconv.Atoi(parts[0])
	minor, errMinor := strconv.Atoi(parts[1])
	if errMajor != nil || errMinor != nil {
		return "1.0.0"
	}
	return fmt.Sprintf("%d.%d.0", major, minor+1)
}

// DefaultModels returns the registry entries shipped with the engine.
// position_based starts out as the champion.
func DefaultModels(createdAt int64) []*AttributionModel {
	models := []*AttributionModel{
		{ID: AttributionModelPositionBased, Name: "Position Based Decay", Type: ModelTypeRuleBased, IsActive: true, Status: ModelStatusDeployed},
		{ID: AttributionModelTimeDecay, Name: "Time Decay", Type: ModelTypeRuleBased, Status: ModelStatusReady},
		{ID: AttributionModelLinear, Name: "Linear", Type: ModelTypeRuleBased, Status: ModelStatusReady},
		{ID: AttributionModelFirstTouch, Name: "First Touch", Type: ModelTypeRuleBased, Status: ModelStatusReady},
		{ID: AttributionModelLastTouch, Name: "Last Touch", Type: ModelTypeRuleBased, Status: ModelStatusReady},
		{ID: AttributionModelUShaped, Name: "U Shaped", Type: ModelTypeRuleBased, Status: ModelStatusReady},
		{ID: AttributionModelMarkovChain, Name: "Markov Chain Removal Effect", Type: ModelTypeMarkovChain, Status: ModelStatusReady},
		{ID: AttributionModelShapley, Name: "Shapley Value", Type: ModelTypeDataDriven, Status: ModelStatusReady},
		{
			ID: AttributionModelEnsemble, Name: "Ensemble", Type: ModelTypeEnsemble, Status: ModelStatusReady,
			EnsembleMembers: map[string]float64{
				AttributionModelPositionBased: 0.5,
				AttributionModelTimeDecay:     0.3,
				AttributionModelMarkovChain:   0.2,
			},
		},
	}
	for _, m := range models {
		m.Version = "1.0.0"
		m.CreatedAt = createdAt
		m.UpdatedAt = createdAt
	}
	return models
}
