package model

const (
	AlertTypeModelDrift          = "model_drift"
	AlertTypePerformanceDrop     = "performance_drop"
	AlertTypeBudgetReallocation  = "budget_reallocation"
	AlertTypeAttributionAnomaly  = "attribution_anomaly"
	AlertTypeChannelOptimization = "channel_optimization"

	AlertSeverityLow      = "low"
	AlertSeverityWarning  = "warning"
	AlertSeverityHigh     = "high"
	AlertSeverityCritical = "critical"
)

// AttributionAlert is raised by the drift monitor when model accuracy or
// attribution shares shift past a threshold. Alerts are append-only; the
// only mutation is resolving, and resolving twice is a no-op.
type AttributionAlert struct {
	ID                 string   `json:"id"`
	CreatedAt          int64    `json:"created_at"`
	Type               string   `json:"type"`
	Severity           string   `json:"severity"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Subject            string   `json:"subject"`
	MetricBefore       float64  `json:"metric_before"`
	MetricAfter        float64  `json:"metric_after"`
	Change             float64  `json:"change"`
	Threshold          float64  `json:"threshold"`
	RecommendedActions []string `json:"recommended_actions"`
	AutoResolve        bool     `json:"auto_resolve"`
	Resolved           bool     `json:"resolved"`
	ResolvedAt         int64    `json:"resolved_at,omitempty"`
}

// SeverityForDrop grades a metric drop against its threshold: within 2x the
// threshold is a warning, within 3x is high, beyond that critical.
func SeverityForDrop(drop, threshold float64) string {
	switch {
	case drop < 2*threshold:
		return AlertSeverityWarning
	case drop < 3*threshold:
		return AlertSeverityHigh
	default:
		return AlertSeverityCritical
	}
}
