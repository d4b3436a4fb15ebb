package model

import "strings"

const coalitionKeyDelimiter = ":-:"

// ShapleyModel credits channels by their average marginal contribution over
// the observed channel coalitions. Each observed coalition's value (its
// conversion count) is shared equally among its members, which is the Shapley
// value under the restriction to observed subsets.
type ShapleyModel struct {
	values map[string]float64
}

// FitShapley computes per-channel Shapley scores from the journey set.
func FitShapley(journeys []*CustomerJourney) *ShapleyModel {
	coalitionConversions := make(map[string]float64)
	for _, journey := range journeys {
		if !journey.Converted {
			continue
		}
		channels := journey.Channels()
		if len(channels) == 0 {
			continue
		}
		coalitionConversions[strings.Join(channels, coalitionKeyDelimiter)]++
	}

	values := make(map[string]float64)
	for coalitionKey, conversions := range coalitionConversions {
		members := strings.Split(coalitionKey, coalitionKeyDelimiter)
		share := conversions / float64(len(members))
		for _, channelID := range members {
			values[channelID] += share
		}
	}
	return &ShapleyModel{values: values}
}

// Values returns the fitted per-channel Shapley scores.
func (m *ShapleyModel) Values() map[string]float64 {
	values := make(map[string]float64, len(m.values))
	for channelID, v := range m.values {
		values[channelID] = v
	}
	return values
}

// Weights restricts the fitted scores to the journey's channels and
// normalizes. Journeys whose channels were never part of a converting
// coalition fall back to a linear split.
func (m *ShapleyModel) Weights(journey *CustomerJourney) (map[string]float64, error) {
	weights := make(map[string]float64)
	channels := journey.Channels()
	if len(channels) == 0 {
		return weights, nil
	}
	total := 0.0
	for _, channelID := range channels {
		total += m.values[channelID]
	}
	if total == 0 {
		return getLinearWeights(journey), nil
	}
	for _, channelID := range channels {
		weights[channelID] = m.values[channelID] / total
	}
	return weights, nil
}
