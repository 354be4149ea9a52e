package entities

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NoData is the sentinel marker used in place of a field the pipeline could
// not determine. A caller seeing it should route the case to manual
// protocoling.
const NoData = "no data"

// DraftRecommendation is the untrusted output of the draft-generation
// collaborator. Every field is free text and subject to correction; priority
// is carried as the raw string rendering of whatever the model returned.
type DraftRecommendation struct {
	Priority     string `json:"priority"`
	Protocol     string `json:"protocol"`
	IVContrast   string `json:"iv_contrast"`
	OralContrast string `json:"oral_contrast"`
}

// draftKeys are the four keys the collaborator contract requires.
var draftKeys = []string{"priority", "protocol", "iv_contrast", "oral_contrast"}

// ParseDraftRecommendation decodes a model reply into a draft. All four keys
// must be present syntactically; values are type-tolerant (JSON numbers,
// floats, and strings are all accepted and stringified).
func ParseDraftRecommendation(data []byte) (*DraftRecommendation, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("draft is not a JSON object: %w", err)
	}

	values := make(map[string]string, len(draftKeys))
	for _, key := range draftKeys {
		field, ok := raw[key]
		if !ok {
			return nil, fmt.Errorf("draft is missing required key %q", key)
		}
		values[key] = stringifyDraftValue(field)
	}

	return &DraftRecommendation{
		Priority:     values["priority"],
		Protocol:     values["protocol"],
		IVContrast:   values["iv_contrast"],
		OralContrast: values["oral_contrast"],
	}, nil
}

// stringifyDraftValue renders a raw JSON value as the string the rule engine
// sanitizes. Strings are unquoted; numbers keep their literal rendering so
// "2" and 2 and 2.0 all reach the priority coercion intact.
func stringifyDraftValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// FinalRecommendation is the sole output artifact of the pipeline. Unlike the
// draft it carries a closed-world guarantee: priority is 1-4 and both
// contrast fields hold valid enum values (or the sentinel markers on a
// degraded result).
type FinalRecommendation struct {
	Priority     int    `json:"priority"`
	Protocol     string `json:"protocol"`
	IVContrast   string `json:"iv_contrast"`
	OralContrast string `json:"oral_contrast"`
}

// IsSentinel reports whether this is the degraded "no data" fallback result.
func (r *FinalRecommendation) IsSentinel() bool {
	return r.Protocol == NoData && r.IVContrast == NoData && r.OralContrast == NoData
}

// AsDraft re-renders the final recommendation in draft shape. Used by the
// fixed-point tests and the evaluation harness to replay engine output
// through the rule sequence.
func (r *FinalRecommendation) AsDraft() *DraftRecommendation {
	return &DraftRecommendation{
		Priority:     fmt.Sprintf("%d", r.Priority),
		Protocol:     r.Protocol,
		IVContrast:   r.IVContrast,
		OralContrast: r.OralContrast,
	}
}

// Correction is the tagged outcome of one validate-and-default step: which
// rule fired, which field it changed, and why. Corrections are audit data,
// not errors.
type Correction struct {
	Rule   string `json:"rule"`
	Field  string `json:"field"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}
