package model

import "sort"

// SynergyInsight scores an unordered channel pair by how well journeys
// containing both channels convert relative to the pair's prevalence.
type SynergyInsight struct {
	ChannelA       string  `json:"channel_a"`
	ChannelB       string  `json:"channel_b"`
	SynergyScore   float64 `json:"synergy_score"`
	CombinedROAS   float64 `json:"combined_roas"`
	JourneyCount   int     `json:"journey_count"`
	Recommendation string  `json:"recommendation"`
}

type pairStats struct {
	journeys int
	value    float64
	cost     float64
}

// BuildSynergyInsights computes pairwise channel-combination effects over
// journeys where both channels received non-zero revenue distribution.
// Pairs with fewer than minSampleSize such journeys are skipped. The synergy
// score is the pair's combined ROAS normalized by its share of all journeys,
// so ubiquitous pairs are not over-credited. Symmetric by construction: the
// pair key is always ordered ChannelA < ChannelB.
func BuildSynergyInsights(journeys []*CustomerJourney, minSampleSize, topN int) []SynergyInsight {
	if len(journeys) == 0 {
		return nil
	}
	stats := make(map[[2]string]*pairStats)
	for _, journey := range journeys {
		var credited []string
		for _, channelID := range journey.Channels() {
			if journey.RevenueDistribution[channelID] > 0 {
				credited = append(credited, channelID)
			}
		}
		// credited is sorted because Channels() is sorted
		for i := 0; i < len(credited); i++ {
			for j := i + 1; j < len(credited); j++ {
				key := [2]string{credited[i], credited[j]}
				ps, ok := stats[key]
				if !ok {
					ps = &pairStats{}
					stats[key] = ps
				}
				ps.journeys++
				ps.value += journey.TotalValue
				for _, tp := range journey.TouchPoints {
					if tp.ChannelID == credited[i] || tp.ChannelID == credited[j] {
						ps.cost += tp.Cost
					}
				}
			}
		}
	}

	var insights []SynergyInsight
	for key, ps := range stats {
		if ps.journeys < minSampleSize {
			continue
		}
		combinedROAS := 0.0
		if ps.cost > 0 {
			combinedROAS = ps.value / ps.cost
		}
		share := float64(ps.journeys) / float64(len(journeys))
		insight := SynergyInsight{
			ChannelA:     key[0],
			ChannelB:     key[1],
			CombinedROAS: combinedROAS,
			SynergyScore: combinedROAS * (1 - share),
			JourneyCount: ps.journeys,
		}
		if insight.SynergyScore > 2 {
			insight.Recommendation = "run combined campaigns across both channels"
		} else if insight.SynergyScore > 1 {
			insight.Recommendation = "keep both channels in shared journeys"
		} else {
			insight.Recommendation = "no amplification observed, budget independently"
		}
		insights = append(insights, insight)
	}

	sort.Slice(insights, func(i, j int) bool {
		if insights[i].SynergyScore != insights[j].SynergyScore {
			return insights[i].SynergyScore > insights[j].SynergyScore
		}
		if insights[i].ChannelA != insights[j].ChannelA {
			return insights[i].ChannelA < insights[j].ChannelA
		}
		return insights[i].ChannelB < insights[j].ChannelB
	})
	if topN > 0 && len(insights) > topN {
		insights = insights[:topN]
	}
	return insights
}
