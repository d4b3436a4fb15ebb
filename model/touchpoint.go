package model

const (
	TouchTypeImpression = "impression"
	TouchTypeClick      = "click"
	TouchTypeEngagement = "engagement"
	TouchTypeView       = "view"
	TouchTypeVisit      = "visit"

	SecsInADay = int64(86400)
)

var validTouchTypes = map[string]bool{
	TouchTypeImpression: true,
	TouchTypeClick:      true,
	TouchTypeEngagement: true,
	TouchTypeView:       true,
	TouchTypeVisit:      true,
}

// TouchPoint is a single recorded marketing exposure for a customer on a
// channel. Touchpoints are created once at ingestion and never mutated.
type TouchPoint struct {
	ID           string            `json:"id"`
	Timestamp    int64             `json:"timestamp"`
	ChannelID    string            `json:"channel_id"`
	ChannelName  string            `json:"channel_name"`
	Platform     string            `json:"platform"`
	TouchType    string            `json:"touch_type"`
	Position     int               `json:"position"`
	IsConversion bool              `json:"is_conversion"`
	Value        float64           `json:"value"`
	Cost         float64           `json:"cost"`
	CustomerID   string            `json:"customer_id"`
	SessionID    string            `json:"session_id"`
	Device       string            `json:"device"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Validate checks the required fields before ingestion. It returns a
// ValidationError naming the first offending field, nil otherwise.
func (tp *TouchPoint) Validate() *ValidationError {
	if tp.Timestamp <= 0 {
		return NewValidationError("timestamp", "must be a positive unix timestamp")
	}
	if tp.ChannelID == "" {
		return NewValidationError("channel_id", "is required")
	}
	if tp.CustomerID == "" {
		return NewValidationError("customer_id", "is required")
	}
	if tp.Cost < 0 {
		return NewValidationError("cost", "must be non-negative")
	}
	if tp.Value < 0 {
		return NewValidationError("value", "must be non-negative")
	}
	if tp.TouchType != "" && !validTouchTypes[tp.TouchType] {
		return NewValidationError("touch_type", "unknown touch type "+tp.TouchType)
	}
	return nil
}
