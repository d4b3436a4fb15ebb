package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func touch(customerID, channelID string, timestamp int64) TouchPoint {
	return TouchPoint{
		Timestamp:  timestamp,
		ChannelID:  channelID,
		CustomerID: customerID,
		TouchType:  TouchTypeClick,
	}
}

func conversion(customerID, channelID string, timestamp int64, value float64) TouchPoint {
	tp := touch(customerID, channelID, timestamp)
	tp.IsConversion = true
	tp.Value = value
	return tp
}

func TestTouchPointValidation(t *testing.T) {
	valid := touch("u1", "google_ads", 1000)
	assert.Nil(t, valid.Validate())

	missingChannel := touch("u1", "", 1000)
	err := missingChannel.Validate()
	assert.NotNil(t, err)
	assert.Equal(t, "channel_id", err.Field)

	missingCustomer := touch("", "google_ads", 1000)
	err = missingCustomer.Validate()
	assert.NotNil(t, err)
	assert.Equal(t, "customer_id", err.Field)

	negativeCost := touch("u1", "google_ads", 1000)
	negativeCost.Cost = -1
	err = negativeCost.Validate()
	assert.NotNil(t, err)
	assert.Equal(t, "cost", err.Field)

	badType := touch("u1", "google_ads", 1000)
	badType.TouchType = "hover"
	assert.NotNil(t, badType.Validate())

	noTimestamp := touch("u1", "google_ads", 0)
	assert.NotNil(t, noTimestamp.Validate())
}

func TestBuildJourneysOrdersAndPositions(t *testing.T) {
	base := int64(1589068800)
	touchPoints := []TouchPoint{
		touch("u1", "facebook", base+2*SecsInADay),
		touch("u1", "google_ads", base),
		conversion("u1", "email", base+4*SecsInADay, 150),
	}
	journeys := BuildJourneys(touchPoints, 30)
	assert.Len(t, journeys, 1)

	journey := journeys[0]
	assert.Equal(t, "google_ads", journey.FirstTouch)
	assert.Equal(t, "email", journey.LastTouch)
	assert.Equal(t, 1, journey.AssistingTouches)
	assert.True(t, journey.Converted)
	assert.Equal(t, 150.0, journey.TotalValue)
	assert.Equal(t, 4*SecsInADay, journey.DurationSecs)
	for i, tp := range journey.TouchPoints {
		assert.Equal(t, i+1, tp.Position)
	}
}

func TestBuildJourneysSplitsOnConversion(t *testing.T) {
	base := int64(1589068800)
	touchPoints := []TouchPoint{
		touch("u1", "google_ads", base),
		conversion("u1", "email", base+SecsInADay, 100),
		touch("u1", "facebook", base+2*SecsInADay),
	}
	journeys := BuildJourneys(touchPoints, 30)
	assert.Len(t, journeys, 2)
	assert.True(t, journeys[0].Converted)
	assert.False(t, journeys[1].Converted)
	assert.Equal(t, 0.0, journeys[1].TotalValue)
	assert.Equal(t, 1, journeys[1].TouchPoints[0].Position)
}

func TestBuildJourneysSplitsOnWindow(t *testing.T) {
	base := int64(1589068800)
	touchPoints := []TouchPoint{
		touch("u1", "google_ads", base),
		touch("u1", "facebook", base+31*SecsInADay),
	}
	journeys := BuildJourneys(touchPoints, 30)
	assert.Len(t, journeys, 2)
	assert.Equal(t, "google_ads", journeys[0].FirstTouch)
	assert.Equal(t, "facebook", journeys[1].FirstTouch)
}

func TestApplyWeightsConservesValue(t *testing.T) {
	base := int64(1589068800)
	journeys := BuildJourneys([]TouchPoint{
		touch("u1", "google_ads", base),
		conversion("u1", "email", base+SecsInADay, 200),
	}, 30)
	assert.Len(t, journeys, 1)

	journey := journeys[0]
	journey.ApplyWeights(map[string]float64{"google_ads": 0.5, "email": 0.5})

	weightSum, revenueSum := 0.0, 0.0
	for _, w := range journey.AttributionWeights {
		weightSum += w
	}
	for _, r := range journey.RevenueDistribution {
		revenueSum += r
	}
	assert.InDelta(t, 1.0, weightSum, 1e-6)
	assert.InDelta(t, journey.TotalValue, revenueSum, 1e-6)
}

func TestChannelSequenceCollapsesRepeats(t *testing.T) {
	base := int64(1589068800)
	journeys := BuildJourneys([]TouchPoint{
		touch("u1", "google_ads", base),
		touch("u1", "google_ads", base+1),
		touch("u1", "facebook", base+2),
		conversion("u1", "facebook", base+3, 10),
	}, 30)
	assert.Len(t, journeys, 1)
	assert.Equal(t, []string{"google_ads", "facebook"}, journeys[0].ChannelSequence())
	assert.Equal(t, []string{"facebook", "google_ads"}, journeys[0].Channels())
}
