package entities

import "time"

// RecommendationEventType classifies bus events.
type RecommendationEventType string

const (
	// EventRecommendationCompleted fires for every finished request.
	EventRecommendationCompleted RecommendationEventType = "recommendation.completed"

	// EventRecommendationFlagged fires additionally when the result is a
	// sentinel needing manual protocoling.
	EventRecommendationFlagged RecommendationEventType = "recommendation.flagged"
)

// RecommendationEvent is the payload published to worklist dashboards when a
// recommendation request finishes.
type RecommendationEvent struct {
	ID        string                  `json:"id"`
	EventType RecommendationEventType `json:"event_type"`
	RecordID  string                  `json:"record_id"`
	StudyID   string                  `json:"study_id"`
	Location  string                  `json:"location"`
	Priority  int                     `json:"priority"`
	Protocol  string                  `json:"protocol"`
	Sentinel  bool                    `json:"sentinel"`
	Timestamp time.Time               `json:"timestamp"`
}
