package model

import (
	U "attribution/util"
)

// ensembleWeighter averages the weight vectors of two or more registered
// member models. Member weights are validated at construction time and must
// sum to 1.
type ensembleWeighter struct {
	members []ensembleMember
}

type ensembleMember struct {
	weight   float64
	weighter JourneyWeighter
}

// NewEnsembleWeighter resolves and builds the ensemble's member weighters.
// A malformed member list is a ValidationError; an unknown member id
// surfaces the resolver's NotFoundError.
func NewEnsembleWeighter(m *AttributionModel, params WeightParams,
	journeys []*CustomerJourney, resolve ModelResolver) (JourneyWeighter, error) {

	if len(m.EnsembleMembers) < 2 {
		return nil, NewValidationError("ensemble_members", "an ensemble needs at least two member models")
	}
	total := 0.0
	for _, weight := range m.EnsembleMembers {
		if weight < 0 {
			return nil, NewValidationError("ensemble_members", "member weights must be non-negative")
		}
		total += weight
	}
	if !U.FloatEquals(total, 1.0, 1e-6) {
		return nil, NewValidationError("ensemble_members", "member weights must sum to 1")
	}

	ensemble := &ensembleWeighter{}
	for memberID, weight := range m.EnsembleMembers {
		if memberID == m.ID {
			return nil, NewValidationError("ensemble_members", "an ensemble cannot contain itself")
		}
		member, err := resolve(memberID)
		if err != nil {
			return nil, err
		}
		weighter, err := NewJourneyWeighter(member, params, journeys, resolve)
		if err != nil {
			return nil, err
		}
		ensemble.members = append(ensemble.members, ensembleMember{weight: weight, weighter: weighter})
	}
	return ensemble, nil
}

func (e *ensembleWeighter) Weights(journey *CustomerJourney) (map[string]float64, error) {
	combined := make(map[string]float64)
	for _, member := range e.members {
		weights, err := member.weighter.Weights(journey)
		if err != nil {
			return nil, err
		}
		for channelID, w := range weights {
			combined[channelID] += member.weight * w
		}
	}
	NormalizeWeights(combined)
	return combined, nil
}
