package model

// ModelSnapshot captures one registry entry for the report's model
// comparison section.
type ModelSnapshot struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Type     string       `json:"type"`
	Status   string       `json:"status"`
	Version  string       `json:"version"`
	IsActive bool         `json:"is_active"`
	Metrics  ModelMetrics `json:"metrics"`
}

// AttributionReport is the immutable top-level output for one date range.
// Regenerated on demand, never updated in place. ErrorCount counts journeys
// excluded because their weighting failed.
type AttributionReport struct {
	GeneratedAt       int64   `json:"generated_at"`
	From              int64   `json:"from"`
	To                int64   `json:"to"`
	ModelID           string  `json:"model_id"`
	JourneyCount      int     `json:"journey_count"`
	ConvertedCount    int     `json:"converted_count"`
	TouchPointCount   int     `json:"touch_point_count"`
	ErrorCount        int     `json:"error_count"`
	TotalRevenue      float64 `json:"total_revenue"`
	AttributedRevenue float64 `json:"attributed_revenue"`
	TotalCost         float64 `json:"total_cost"`

	ChannelInsights []AttributionInsight    `json:"channel_insights"`
	TopJourneys     []*CustomerJourney      `json:"top_journeys"`
	Synergies       []SynergyInsight        `json:"synergies"`
	Recommendations []Recommendation        `json:"recommendations"`
	Alerts          []AttributionAlert      `json:"alerts"`
	Experiments     []AttributionExperiment `json:"experiments"`
	ModelComparison []ModelSnapshot         `json:"model_comparison"`
}
