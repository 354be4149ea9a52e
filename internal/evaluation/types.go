package evaluation

import (
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
)

// GoldenCase is a labeled regression case: a patient case plus the draft the
// collaborator produced for it, and the final recommendation policy requires.
// A nil draft marks a degraded-path case where the sentinel is expected.
type GoldenCase struct {
	ID          string                        `json:"id"`
	Description string                        `json:"description"`
	Tags        []string                      `json:"tags"`
	Case        entities.PatientCase          `json:"case"`
	Draft       *entities.DraftRecommendation `json:"draft"`
	Expected    entities.FinalRecommendation  `json:"expected"`
}

// FieldMismatch records one recommendation field that diverged from the
// expected value.
type FieldMismatch struct {
	Field string `json:"field"`
	Want  string `json:"want"`
	Got   string `json:"got"`
}

// CaseResult holds the evaluation outcome for a single golden case.
type CaseResult struct {
	CaseID      string                       `json:"case_id"`
	Description string                       `json:"description,omitempty"`
	Tags        []string                     `json:"tags,omitempty"`
	Pass        bool                         `json:"pass"`
	Got         entities.FinalRecommendation `json:"got"`
	Expected    entities.FinalRecommendation `json:"expected"`
	Mismatches  []FieldMismatch              `json:"mismatches,omitempty"`
	MatchedRule string                       `json:"matched_rule,omitempty"`
}

// FieldSummary holds per-field accuracy across the corpus.
type FieldSummary struct {
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

// TagSummary holds metrics grouped by corpus tag.
type TagSummary struct {
	Count    int     `json:"count"`
	Passed   int     `json:"passed"`
	Accuracy float64 `json:"accuracy"`
}

// Summary holds aggregate metrics across all golden cases.
type Summary struct {
	TotalCases int                      `json:"total_cases"`
	Passed     int                      `json:"passed"`
	Accuracy   float64                  `json:"accuracy"`
	ByField    map[string]*FieldSummary `json:"by_field"`
	ByTag      map[string]*TagSummary   `json:"by_tag"`
}
