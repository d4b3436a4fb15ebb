package model

import (
	"sort"

	U "attribution/util"
)

const (
	RecommendationIncreaseBudget  = "increase_budget"
	RecommendationOptimizeOrCut   = "optimize_or_reduce"
	RecommendationAwarenessBudget = "increase_awareness_budget"
)

// CriticalityWeights blends ROAS, attributed revenue scale and assisting rate
// into the criticality score. The constants are tunable defaults used only
// for ranking, not for any conservation guarantee.
type CriticalityWeights struct {
	ROAS          float64
	Revenue       float64
	AssistingRate float64
}

// DefaultCriticalityWeights returns the documented 0.4/0.3/0.3 blend.
func DefaultCriticalityWeights() CriticalityWeights {
	return CriticalityWeights{ROAS: 0.4, Revenue: 0.3, AssistingRate: 0.3}
}

// AttributionInsight is the per-channel rollup of one report. Recomputed
// fresh for every report, never persisted.
type AttributionInsight struct {
	ChannelID          string  `json:"channel_id"`
	ChannelName        string  `json:"channel_name"`
	TotalTouchPoints   int     `json:"total_touch_points"`
	TotalRevenue       float64 `json:"total_revenue"`
	AttributedRevenue  float64 `json:"attributed_revenue"`
	TotalCost          float64 `json:"total_cost"`
	Conversions        int     `json:"conversions"`
	ROAS               float64 `json:"roas"`
	CPA                float64 `json:"cpa"`
	AttributionPercent float64 `json:"attribution_percent"`
	FirstTouchShare    float64 `json:"first_touch_share"`
	MiddleTouchShare   float64 `json:"middle_touch_share"`
	LastTouchShare     float64 `json:"last_touch_share"`
	AssistingRate      float64 `json:"assisting_rate"`
	CriticalityScore   float64 `json:"criticality_score"`
	BudgetDelta        float64 `json:"recommended_budget_delta"`
}

// Recommendation is a ranked budget-optimization suggestion derived from the
// channel insights by fixed rule thresholds.
type Recommendation struct {
	ChannelID     string  `json:"channel_id"`
	Action        string  `json:"action"`
	Reason        string  `json:"reason"`
	Confidence    float64 `json:"confidence"`
	EstimatedLift float64 `json:"estimated_lift"`
}

// BuildChannelInsights aggregates weighted journeys into per-channel
// financial and behavioral metrics, sorted descending by criticality score.
// Journeys must have been run through ApplyWeights beforehand.
func BuildChannelInsights(journeys []*CustomerJourney, weights CriticalityWeights) []AttributionInsight {
	byChannel := make(map[string]*AttributionInsight)
	channelOf := func(tp TouchPoint) *AttributionInsight {
		insight, ok := byChannel[tp.ChannelID]
		if !ok {
			insight = &AttributionInsight{ChannelID: tp.ChannelID, ChannelName: tp.ChannelName}
			byChannel[tp.ChannelID] = insight
		}
		return insight
	}

	assisting := make(map[string]int)
	totalAttributed := 0.0
	for _, journey := range journeys {
		n := len(journey.TouchPoints)
		for i, tp := range journey.TouchPoints {
			insight := channelOf(tp)
			insight.TotalTouchPoints++
			insight.TotalCost += tp.Cost
			insight.TotalRevenue += tp.Value
			switch {
			case i == 0:
				insight.FirstTouchShare++
			case i == n-1:
				insight.LastTouchShare++
			default:
				insight.MiddleTouchShare++
				assisting[tp.ChannelID]++
			}
		}
		for channelID, revenue := range journey.RevenueDistribution {
			if insight, ok := byChannel[channelID]; ok {
				insight.AttributedRevenue += revenue
				totalAttributed += revenue
				if journey.Converted && revenue > 0 {
					insight.Conversions++
				}
			}
		}
	}

	insights := make([]AttributionInsight, 0, len(byChannel))
	maxROAS, maxRevenue := 0.0, 0.0
	for _, insight := range byChannel {
		insight.ROAS = U.SafeDivide(insight.AttributedRevenue, insight.TotalCost)
		insight.CPA = U.SafeDivide(insight.TotalCost, float64(insight.Conversions))
		insight.AttributionPercent = 100 * U.SafeDivide(insight.AttributedRevenue, totalAttributed)
		if insight.TotalTouchPoints > 0 {
			total := float64(insight.TotalTouchPoints)
			insight.FirstTouchShare /= total
			insight.MiddleTouchShare /= total
			insight.LastTouchShare /= total
			insight.AssistingRate = float64(assisting[insight.ChannelID]) / total
		}
		if insight.ROAS > maxROAS {
			maxROAS = insight.ROAS
		}
		if insight.AttributedRevenue > maxRevenue {
			maxRevenue = insight.AttributedRevenue
		}
	}

	for _, insight := range byChannel {
		score := weights.AssistingRate * insight.AssistingRate
		if maxROAS > 0 {
			score += weights.ROAS * insight.ROAS / maxROAS
		}
		if maxRevenue > 0 {
			score += weights.Revenue * insight.AttributedRevenue / maxRevenue
		}
		insight.CriticalityScore = score
		insight.BudgetDelta = budgetDelta(insight)
		insights = append(insights, *insight)
	}

	sort.Slice(insights, func(i, j int) bool {
		if insights[i].CriticalityScore != insights[j].CriticalityScore {
			return insights[i].CriticalityScore > insights[j].CriticalityScore
		}
		return insights[i].ChannelID < insights[j].ChannelID
	})
	return insights
}

func budgetDelta(insight *AttributionInsight) float64 {
	switch {
	case insight.ROAS > 4 && insight.CriticalityScore >= 0.6:
		return 0.2 * insight.TotalCost
	case insight.ROAS < 2 && insight.CriticalityScore < 0.4:
		return -0.15 * insight.TotalCost
	default:
		return 0
	}
}

// BuildRecommendations derives budget recommendations from the insights
// using fixed rule thresholds and ranks them by confidence times estimated
// revenue lift, capped to topN.
func BuildRecommendations(insights []AttributionInsight, topN int) []Recommendation {
	var recommendations []Recommendation
	for _, insight := range insights {
		switch {
		case insight.ROAS > 4 && insight.CriticalityScore >= 0.6:
			recommendations = append(recommendations, Recommendation{
				ChannelID:     insight.ChannelID,
				Action:        RecommendationIncreaseBudget,
				Reason:        "high ROAS and high criticality",
				Confidence:    0.8,
				EstimatedLift: 0.2 * insight.AttributedRevenue,
			})
		case insight.ROAS < 2 && insight.CriticalityScore < 0.4:
			recommendations = append(recommendations, Recommendation{
				ChannelID:     insight.ChannelID,
				Action:        RecommendationOptimizeOrCut,
				Reason:        "low ROAS and low criticality",
				Confidence:    0.7,
				EstimatedLift: 0.15 * insight.TotalCost,
			})
		}
		if insight.AssistingRate > 0.7 {
			recommendations = append(recommendations, Recommendation{
				ChannelID:     insight.ChannelID,
				Action:        RecommendationAwarenessBudget,
				Reason:        "channel mostly assists conversions",
				Confidence:    0.6,
				EstimatedLift: 0.1 * insight.AttributedRevenue,
			})
		}
	}
	sort.Slice(recommendations, func(i, j int) bool {
		scoreI := recommendations[i].Confidence * recommendations[i].EstimatedLift
		scoreJ := recommendations[j].Confidence * recommendations[j].EstimatedLift
		if scoreI != scoreJ {
			return scoreI > scoreJ
		}
		return recommendations[i].ChannelID < recommendations[j].ChannelID
	})
	if topN > 0 && len(recommendations) > topN {
		recommendations = recommendations[:topN]
	}
	return recommendations
}
