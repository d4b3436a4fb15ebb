// Package demo generates deterministic synthetic touchpoint data for test
// harnesses and local demos. Nothing in the computation path depends on it.
package demo

import (
	"fmt"
	"math/rand"

	"attribution/model"
)

// Channel describes one synthetic channel and its cost/value profile.
type Channel struct {
	ID       string
	Name     string
	Platform string
	Cost     float64
}

// DefaultChannels is a small realistic channel mix.
func DefaultChannels() []Channel {
	return []Channel{
		{ID: "google_ads", Name: "Google Ads", Platform: "google", Cost: 2.5},
		{ID: "facebook", Name: "Facebook", Platform: "meta", Cost: 1.8},
		{ID: "email", Name: "Email", Platform: "email", Cost: 0.1},
		{ID: "organic", Name: "Organic Search", Platform: "web", Cost: 0},
		{ID: "linkedin", Name: "LinkedIn", Platform: "linkedin", Cost: 4.0},
	}
}

// Generator produces reproducible touchpoint streams from a fixed seed.
type Generator struct {
	rng      *rand.Rand
	channels []Channel
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		rng:      rand.New(rand.NewSource(seed)),
		channels: DefaultChannels(),
	}
}

// GenerateTouchPoints emits journeys for the given number of customers,
// starting at startTime. Roughly a third of customers convert; journeys have
// 1-6 touches spread over up to ten days.
func (g *Generator) GenerateTouchPoints(customers int, startTime int64) []model.TouchPoint {
	var touchPoints []model.TouchPoint
	for c := 0; c < customers; c++ {
		customerID := fmt.Sprintf("customer-%04d", c)
		touches := 1 + g.rng.Intn(6)
		converts := g.rng.Intn(3) == 0
		timestamp := startTime + int64(g.rng.Intn(5))*model.SecsInADay
		for i := 0; i < touches; i++ {
			channel := g.channels[g.rng.Intn(len(g.channels))]
			tp := model.TouchPoint{
				Timestamp:   timestamp,
				ChannelID:   channel.ID,
				ChannelName: channel.Name,
				Platform:    channel.Platform,
				TouchType:   model.TouchTypeClick,
				Cost:        channel.Cost,
				CustomerID:  customerID,
				SessionID:   fmt.Sprintf("%s-s%d", customerID, i),
				Device:      "desktop",
			}
			if converts && i == touches-1 {
				tp.IsConversion = true
				tp.TouchType = model.TouchTypeVisit
				tp.Value = 50 + float64(g.rng.Intn(200))
			}
			touchPoints = append(touchPoints, tp)
			timestamp += int64(1+g.rng.Intn(2)) * model.SecsInADay
		}
	}
	return touchPoints
}
