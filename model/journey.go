package model

import (
	"math"
	"sort"
)

// CustomerJourney is the ordered set of touchpoints for one customer, bounded
// by a conversion event or by the attribution window. Journeys are always
// derived from the touchpoint log, never stored directly.
type CustomerJourney struct {
	CustomerID       string       `json:"customer_id"`
	TouchPoints      []TouchPoint `json:"touch_points"`
	TotalValue       float64      `json:"total_value"`
	DurationSecs     int64        `json:"duration_secs"`
	StartedAt        int64        `json:"started_at"`
	ConvertedAt      int64        `json:"converted_at,omitempty"`
	FirstTouch       string       `json:"first_touch"`
	LastTouch        string       `json:"last_touch"`
	AssistingTouches int          `json:"assisting_touches"`
	Converted        bool         `json:"converted"`

	// AttributionWeights sums to 1.0 across touched channels, and
	// RevenueDistribution sums to TotalValue. Both are filled by
	// ApplyWeights once a model has been run on the journey.
	AttributionWeights  map[string]float64 `json:"attribution_weights,omitempty"`
	RevenueDistribution map[string]float64 `json:"revenue_distribution,omitempty"`
}

// BuildJourneys groups touchpoints by customer, orders them by timestamp and
// cuts journeys at conversion events or when the attribution window elapses
// since the journey start. Positions are reassigned 1..N within each journey.
func BuildJourneys(touchPoints []TouchPoint, attributionWindowDays int) []*CustomerJourney {
	byCustomer := make(map[string][]TouchPoint)
	for _, tp := range touchPoints {
		byCustomer[tp.CustomerID] = append(byCustomer[tp.CustomerID], tp)
	}

	customerIDs := make([]string, 0, len(byCustomer))
	for customerID := range byCustomer {
		customerIDs = append(customerIDs, customerID)
	}
	sort.Strings(customerIDs)

	window := int64(attributionWindowDays) * SecsInADay
	var journeys []*CustomerJourney
	for _, customerID := range customerIDs {
		journeys = append(journeys, buildCustomerJourneys(customerID, byCustomer[customerID], window)...)
	}
	return journeys
}

func buildCustomerJourneys(customerID string, touchPoints []TouchPoint, window int64) []*CustomerJourney {
	sort.SliceStable(touchPoints, func(i, j int) bool {
		return touchPoints[i].Timestamp < touchPoints[j].Timestamp
	})

	var journeys []*CustomerJourney
	var current []TouchPoint
	for _, tp := range touchPoints {
		if len(current) > 0 && tp.Timestamp-current[0].Timestamp > window {
			journeys = append(journeys, newJourney(customerID, current))
			current = nil
		}
		current = append(current, tp)
		if tp.IsConversion {
			journeys = append(journeys, newJourney(customerID, current))
			current = nil
		}
	}
	if len(current) > 0 {
		journeys = append(journeys, newJourney(customerID, current))
	}
	return journeys
}

func newJourney(customerID string, touchPoints []TouchPoint) *CustomerJourney {
	journey := &CustomerJourney{
		CustomerID:  customerID,
		TouchPoints: make([]TouchPoint, len(touchPoints)),
	}
	copy(journey.TouchPoints, touchPoints)

	for i := range journey.TouchPoints {
		journey.TouchPoints[i].Position = i + 1
	}
	first := journey.TouchPoints[0]
	last := journey.TouchPoints[len(journey.TouchPoints)-1]

	journey.StartedAt = first.Timestamp
	journey.DurationSecs = last.Timestamp - first.Timestamp
	journey.FirstTouch = first.ChannelID
	journey.LastTouch = last.ChannelID
	if len(journey.TouchPoints) > 2 {
		journey.AssistingTouches = len(journey.TouchPoints) - 2
	}
	for _, tp := range journey.TouchPoints {
		if tp.IsConversion {
			journey.Converted = true
			journey.ConvertedAt = tp.Timestamp
			journey.TotalValue += tp.Value
		}
	}
	return journey
}

// Channels returns the distinct channel ids touched in the journey, sorted.
func (j *CustomerJourney) Channels() []string {
	seen := make(map[string]bool)
	var channels []string
	for _, tp := range j.TouchPoints {
		if !seen[tp.ChannelID] {
			seen[tp.ChannelID] = true
			channels = append(channels, tp.ChannelID)
		}
	}
	sort.Strings(channels)
	return channels
}

// ChannelSequence returns channel ids in touch order, consecutive duplicates
// collapsed. Used by the Markov model to build the transition graph.
func (j *CustomerJourney) ChannelSequence() []string {
	var sequence []string
	for _, tp := range j.TouchPoints {
		if len(sequence) == 0 || sequence[len(sequence)-1] != tp.ChannelID {
			sequence = append(sequence, tp.ChannelID)
		}
	}
	return sequence
}

// ApplyWeights records a model's weight vector on the journey and derives the
// revenue distribution from it. Weights are renormalized first, so the
// distribution always sums to TotalValue.
func (j *CustomerJourney) ApplyWeights(weights map[string]float64) {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	j.AttributionWeights = make(map[string]float64, len(weights))
	j.RevenueDistribution = make(map[string]float64, len(weights))
	if total == 0 {
		return
	}
	for channelID, w := range weights {
		normalized := w / total
		j.AttributionWeights[channelID] = normalized
		j.RevenueDistribution[channelID] = normalized * j.TotalValue
	}
}

// NormalizeWeights scales a weight vector in place so it sums to 1. Vectors
// summing to zero are left untouched.
func NormalizeWeights(weights map[string]float64) {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total == 0 || math.IsNaN(total) {
		return
	}
	for k, w := range weights {
		weights[k] = w / total
	}
}
