package entities

import (
	"strings"

	apperrors "github.com/ethan-saco/radiololgy-ct-protocoling/pkg/errors"
)

// PatientCase is one radiology order as received from the worklist. It is
// immutable once constructed; a case maps to exactly one recommendation
// request.
type PatientCase struct {
	StudyID       string `json:"study_id"`
	Location      string `json:"location"`
	Exam          string `json:"ct_exam"`
	ClinicalInfo  string `json:"clinical_info"`
	PriorReaction string `json:"prior_reaction,omitempty"`
	EGFR          string `json:"egfr"`
}

// emergencyLocations are the care-location codes that force priority 1.
var emergencyLocations = map[string]struct{}{
	"er": {},
	"ed": {},
}

// IsEmergency reports whether the care location normalizes to ER or ED.
func (c *PatientCase) IsEmergency() bool {
	loc := strings.ToLower(strings.TrimSpace(c.Location))
	_, ok := emergencyLocations[loc]
	return ok
}

// PriorReactionOrDefault returns the prior contrast reaction text, defaulting
// to "None" when the field was left empty on the order.
func (c *PatientCase) PriorReactionOrDefault() string {
	if strings.TrimSpace(c.PriorReaction) == "" {
		return "None"
	}
	return c.PriorReaction
}

// Validate checks the essential order fields. A case missing any of them is
// an input error; no recommendation is produced for it.
func (c *PatientCase) Validate() error {
	essential := []struct {
		name  string
		value string
	}{
		{"study_id", c.StudyID},
		{"location", c.Location},
		{"ct_exam", c.Exam},
		{"clinical_info", c.ClinicalInfo},
		{"egfr", c.EGFR},
	}
	for _, field := range essential {
		if strings.TrimSpace(field.value) == "" {
			return apperrors.NewValidationError("missing required field: " + field.name)
		}
	}
	return nil
}
