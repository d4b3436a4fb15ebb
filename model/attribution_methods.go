package model

import (
	"math"

	"github.com/pkg/errors"
)

// JourneyWeighter is the single computation interface behind which all
// attribution algorithms live: a pure function from a journey to a
// per-channel weight distribution summing to 1.
type JourneyWeighter interface {
	Weights(journey *CustomerJourney) (map[string]float64, error)
}

// WeighterFunc adapts a plain function to the JourneyWeighter interface.
type WeighterFunc func(journey *CustomerJourney) (map[string]float64, error)

func (f WeighterFunc) Weights(journey *CustomerJourney) (map[string]float64, error) {
	return f(journey)
}

// ModelResolver looks up a registered model by id. Used by the ensemble
// weighter to resolve its members.
type ModelResolver func(modelID string) (*AttributionModel, error)

// NewJourneyWeighter builds the weighter for a registered model. Corpus
// models (Markov chain, Shapley) are fitted on the supplied journey set;
// rule-based models ignore it. The resolver is only consulted for ensembles.
func NewJourneyWeighter(m *AttributionModel, params WeightParams,
	journeys []*CustomerJourney, resolve ModelResolver) (JourneyWeighter, error) {

	switch m.ID {
	case AttributionModelPositionBased:
		return WeighterFunc(func(j *CustomerJourney) (map[string]float64, error) {
			return getPositionBasedWeights(j, params), nil
		}), nil

	case AttributionModelTimeDecay:
		return WeighterFunc(func(j *CustomerJourney) (map[string]float64, error) {
			return getTimeDecayWeights(j, params.HalfLifeDays), nil
		}), nil

	case AttributionModelLinear:
		return WeighterFunc(func(j *CustomerJourney) (map[string]float64, error) {
			return getLinearWeights(j), nil
		}), nil

	case AttributionModelFirstTouch:
		return WeighterFunc(func(j *CustomerJourney) (map[string]float64, error) {
			return getFirstTouchWeights(j), nil
		}), nil

	case AttributionModelLastTouch:
		return WeighterFunc(func(j *CustomerJourney) (map[string]float64, error) {
			return getLastTouchWeights(j), nil
		}), nil

	case AttributionModelUShaped:
		return WeighterFunc(func(j *CustomerJourney) (map[string]float64, error) {
			return getUShapedWeights(j), nil
		}), nil

	case AttributionModelMarkovChain:
		return FitMarkov(journeys), nil

	case AttributionModelShapley:
		return FitShapley(journeys), nil

	case AttributionModelEnsemble:
		return NewEnsembleWeighter(m, params, journeys, resolve)

	default:
		return nil, errors.Errorf("no weighter for model %s", m.ID)
	}
}

// getPositionBasedWeights gives the first and last touch a base weight each
// and splits the remaining weight evenly across middle touches. Raw touch
// weights are scaled by the per-platform effectiveness multiplier and the
// vector is renormalized so it sums to 1.
func getPositionBasedWeights(journey *CustomerJourney, params WeightParams) map[string]float64 {
	weights := make(map[string]float64)
	n := len(journey.TouchPoints)
	if n == 0 {
		return weights
	}
	if n == 1 {
		weights[journey.TouchPoints[0].ChannelID] = 1.0
		return weights
	}

	for i, tp := range journey.TouchPoints {
		var w float64
		switch {
		case i == 0:
			w = params.FirstTouchWeight
		case i == n-1:
			w = params.LastTouchWeight
		default:
			w = params.MiddleTouchWeight / float64(n-2)
		}
		if multiplier, ok := params.PlatformMultipliers[tp.Platform]; ok {
			w *= multiplier
		}
		weights[tp.ChannelID] += w
	}
	NormalizeWeights(weights)
	return weights
}

// getTimeDecayWeights credits each touch proportionally to
// 2^(-days/halfLife), where days is how long before the conversion the touch
// happened. A touch a half-life earlier receives half the credit.
func getTimeDecayWeights(journey *CustomerJourney, halfLifeDays float64) map[string]float64 {
	weights := make(map[string]float64)
	if len(journey.TouchPoints) == 0 {
		return weights
	}
	reference := journey.ConvertedAt
	if !journey.Converted {
		reference = journey.TouchPoints[len(journey.TouchPoints)-1].Timestamp
	}
	for _, tp := range journey.TouchPoints {
		weights[tp.ChannelID] += calculateWeightForTimeDecay(reference, tp.Timestamp, halfLifeDays)
	}
	NormalizeWeights(weights)
	return weights
}

func getLinearWeights(journey *CustomerJourney) map[string]float64 {
	weights := make(map[string]float64)
	n := len(journey.TouchPoints)
	if n == 0 {
		return weights
	}
	for _, tp := range journey.TouchPoints {
		weights[tp.ChannelID] += 1.0 / float64(n)
	}
	return weights
}

func getFirstTouchWeights(journey *CustomerJourney) map[string]float64 {
	weights := make(map[string]float64)
	if len(journey.TouchPoints) > 0 {
		weights[journey.TouchPoints[0].ChannelID] = 1.0
	}
	return weights
}

func getLastTouchWeights(journey *CustomerJourney) map[string]float64 {
	weights := make(map[string]float64)
	if len(journey.TouchPoints) > 0 {
		weights[journey.TouchPoints[len(journey.TouchPoints)-1].ChannelID] = 1.0
	}
	return weights
}

// getUShapedWeights splits credit 0.5/0.5 between the first and the last
// touch. A single-touch journey keeps the full credit.
func getUShapedWeights(journey *CustomerJourney) map[string]float64 {
	weights := make(map[string]float64)
	n := len(journey.TouchPoints)
	if n == 0 {
		return weights
	}
	if n == 1 {
		weights[journey.TouchPoints[0].ChannelID] = 1.0
		return weights
	}
	weights[journey.TouchPoints[0].ChannelID] += 0.5
	weights[journey.TouchPoints[n-1].ChannelID] += 0.5
	return weights
}

// calculateWeightForTimeDecay returns weight based on reference time and
// interaction time using y = pow(2, -x/halfLife), where x is the number of
// days the interaction happened prior to the reference. If touchpoint x1 is a
// half-life before touchpoint x2 and x2 receives credit y, x1 receives y/2.
func calculateWeightForTimeDecay(referenceTime, interactionTime int64, halfLifeDays float64) float64 {
	days := float64(referenceTime-interactionTime) / float64(SecsInADay)
	if days < 0 {
		days = 0
	}
	return math.Pow(2, -days/halfLifeDays)
}
