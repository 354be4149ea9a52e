package entities

import "time"

// RecommendationRecord is the audit artifact persisted for every
// recommendation request, sentinel results included.
type RecommendationRecord struct {
	ID            string               `json:"id"`
	Case          PatientCase          `json:"case"`
	Draft         *DraftRecommendation `json:"draft,omitempty"`
	Final         FinalRecommendation  `json:"final"`
	RenalStatus   string               `json:"renal_status"`
	MatchedRule   string               `json:"matched_rule,omitempty"`
	Corrections   []Correction         `json:"corrections,omitempty"`
	Sentinel      bool                 `json:"sentinel"`
	FailureReason string               `json:"failure_reason,omitempty"`
	Model         string               `json:"model,omitempty"`
	DraftAttempts int                  `json:"draft_attempts"`
	DurationMS    int64                `json:"duration_ms"`
	CreatedAt     time.Time            `json:"created_at"`
}

// Failure reasons recorded on sentinel results.
const (
	FailureReferenceUnavailable = "reference_unavailable"
	FailureDraftFailed          = "draft_failed"
)
