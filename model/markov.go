package model

import "math"

const (
	markovStateStart      = "$start"
	markovStateConversion = "$conversion"
	markovStateNull       = "$null"

	markovMaxIterations = 200
	markovEpsilon       = 1e-9
)

// MarkovModel is a first-order transition-probability graph over observed
// channel sequences. A channel's credit is proportional to the drop in
// overall conversion probability when the channel is removed from the graph
// (the removal effect).
type MarkovModel struct {
	transitions    map[string]map[string]float64
	removalEffects map[string]float64
	baseConversion float64
}

// FitMarkov builds the transition graph from the journey set and precomputes
// the removal effect of every observed channel.
func FitMarkov(journeys []*CustomerJourney) *MarkovModel {
	counts := make(map[string]map[string]float64)
	observe := func(from, to string) {
		if counts[from] == nil {
			counts[from] = make(map[string]float64)
		}
		counts[from][to]++
	}

	for _, journey := range journeys {
		sequence := journey.ChannelSequence()
		if len(sequence) == 0 {
			continue
		}
		previous := markovStateStart
		for _, channelID := range sequence {
			observe(previous, channelID)
			previous = channelID
		}
		if journey.Converted {
			observe(previous, markovStateConversion)
		} else {
			observe(previous, markovStateNull)
		}
	}

	m := &MarkovModel{transitions: make(map[string]map[string]float64)}
	for from, row := range counts {
		total := 0.0
		for _, c := range row {
			total += c
		}
		m.transitions[from] = make(map[string]float64, len(row))
		for to, c := range row {
			m.transitions[from][to] = c / total
		}
	}

	m.baseConversion = m.conversionProbability("")
	m.removalEffects = make(map[string]float64)
	for from := range m.transitions {
		if from == markovStateStart {
			continue
		}
		dropped := m.baseConversion - m.conversionProbability(from)
		if dropped < 0 {
			dropped = 0
		}
		m.removalEffects[from] = dropped
	}
	return m
}

// conversionProbability computes the probability of reaching the conversion
// state from the start state by fixed-point iteration, with the removed
// channel treated as an immediate null (its state contributes nothing).
func (m *MarkovModel) conversionProbability(removed string) float64 {
	probability := make(map[string]float64, len(m.transitions))
	for iteration := 0; iteration < markovMaxIterations; iteration++ {
		delta := 0.0
		for from, row := range m.transitions {
			if from == removed {
				continue
			}
			p := 0.0
			for to, transition := range row {
				switch to {
				case markovStateConversion:
					p += transition
				case markovStateNull, removed:
					// absorbed without converting
				default:
					p += transition * probability[to]
				}
			}
			delta = math.Max(delta, math.Abs(p-probability[from]))
			probability[from] = p
		}
		if delta < markovEpsilon {
			break
		}
	}
	return probability[markovStateStart]
}

// RemovalEffects returns the precomputed conversion-probability drop per
// channel.
func (m *MarkovModel) RemovalEffects() map[string]float64 {
	effects := make(map[string]float64, len(m.removalEffects))
	for channelID, effect := range m.removalEffects {
		effects[channelID] = effect
	}
	return effects
}

// Weights distributes a journey's credit across its channels proportionally
// to their removal effects. Journeys whose channels all have zero removal
// effect fall back to a linear split.
func (m *MarkovModel) Weights(journey *CustomerJourney) (map[string]float64, error) {
	weights := make(map[string]float64)
	channels := journey.Channels()
	if len(channels) == 0 {
		return weights, nil
	}
	total := 0.0
	for _, channelID := range channels {
		total += m.removalEffects[channelID]
	}
	if total == 0 {
		return getLinearWeights(journey), nil
	}
	for _, channelID := range channels {
		weights[channelID] = m.removalEffects[channelID] / total
	}
	return weights, nil
}
