// Package protocoling implements the deterministic validation and override
// pipeline that turns an untrusted draft CT protocol recommendation into a
// final, policy-compliant one. The pipeline has three stages: a renal
// function assessment, a protocol reference matcher that can short-circuit
// the rest, and an ordered sequence of named correction rules.
package protocoling

import (
	"strings"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
)

// Enum values of the closed recommendation world.
const (
	IVContrastPositive = "C+"
	IVContrastNegative = "C-"
	IVContrastDual     = "C+ and C-"

	OralNone        = "None"
	OralWaterBase   = "Water base"
	OralWaterOnly   = "Water Only"
	OralReadiCat    = "Readi-Cat"
	OralOther       = "Other"
	OralRectal      = "Other (rectal)"
	OralSorbitol    = "Other (3% sorbitol)"
	ProtocolAP      = "A/P"
	ProtocolCAP     = "C/A/P"
	ProtocolColic   = "Renal colic"
	protocolStone   = "Renal stone"
	renalMassMarker = "renal mass"
)

// Policy is the immutable institutional policy value threaded through the
// pipeline: the eGFR threshold, the closed enum lists, the recognized "no
// data" spellings, and the keyword term table. Multiple policy versions can
// be exercised side by side; nothing in the engine reads process-wide state.
type Policy struct {
	EGFRContraindicationThreshold float64
	EmergencyPriority             int
	DefaultPriority               int
	ValidPriorities               []int
	ValidIVContrast               []string
	ValidOralContrast             []string
	NoDataSpellings               []string
	Terms                         TermTable
}

// DefaultPolicy returns the institutional policy as currently published.
func DefaultPolicy() Policy {
	return Policy{
		EGFRContraindicationThreshold: 30,
		EmergencyPriority:             1,
		DefaultPriority:               4,
		ValidPriorities:               []int{1, 2, 3, 4},
		ValidIVContrast: []string{
			IVContrastPositive,
			IVContrastNegative,
			IVContrastDual,
		},
		ValidOralContrast: []string{
			OralNone,
			OralWaterBase,
			OralWaterOnly,
			OralReadiCat,
			OralOther,
			OralRectal,
			OralSorbitol,
		},
		NoDataSpellings: []string{
			"no data", "no_data", "nodata", "n/a", "na",
			"none", "not available", "unknown", "pending",
		},
		Terms: DefaultTerms(),
	}
}

// IsValidPriority reports whether p is an allowed priority value.
func (p Policy) IsValidPriority(priority int) bool {
	for _, v := range p.ValidPriorities {
		if v == priority {
			return true
		}
	}
	return false
}

// IsValidIVContrast reports whether v is an allowed IV contrast value.
// Comparison is exact after trimming; casing differences are draft errors
// that the resolver corrects by defaulting.
func (p Policy) IsValidIVContrast(v string) bool {
	return containsValue(p.ValidIVContrast, v)
}

// IsValidOralContrast reports whether v is an allowed oral contrast value.
func (p Policy) IsValidOralContrast(v string) bool {
	return containsValue(p.ValidOralContrast, v)
}

// IsNoData reports whether the raw eGFR field is one of the recognized "no
// data" spellings, case-insensitively after trimming.
func (p Policy) IsNoData(raw string) bool {
	candidate := strings.ToLower(strings.TrimSpace(raw))
	for _, spelling := range p.NoDataSpellings {
		if candidate == spelling {
			return true
		}
	}
	return false
}

// Sentinel returns the degraded fallback recommendation for a case the
// pipeline could not complete: emergency cases keep priority 1 so they are
// never deprioritized by a system failure, everything else files at the
// default priority with "no data" markers.
func (p Policy) Sentinel(c *entities.PatientCase) entities.FinalRecommendation {
	priority := p.DefaultPriority
	if c != nil && c.IsEmergency() {
		priority = p.EmergencyPriority
	}
	return entities.FinalRecommendation{
		Priority:     priority,
		Protocol:     entities.NoData,
		IVContrast:   entities.NoData,
		OralContrast: entities.NoData,
	}
}

func containsValue(values []string, v string) bool {
	v = strings.TrimSpace(v)
	for _, candidate := range values {
		if v == candidate {
			return true
		}
	}
	return false
}
