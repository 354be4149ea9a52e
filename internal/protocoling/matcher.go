package protocoling

import (
	"strings"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
	"github.com/ethan-saco/radiololgy-ct-protocoling/pkg/utils"
)

// Matcher rule names recorded on the audit trail.
const (
	MatchRenalMass  = "renal_mass_reference"
	MatchRenalColic = "renal_colic_reference"
)

// ReferenceMatch is a protocol resolved directly from the reference table.
// A match short-circuits the override resolver: only the emergency priority
// correction and priority sanitation still apply.
type ReferenceMatch struct {
	Rule         string
	Protocol     string
	IVContrast   string
	OralContrast string
}

// MatchReference attempts to resolve a specific named protocol before the
// generic override rules run. Checks are ordered; the first match wins.
//
//  1. Renal mass: a reference protocol whose name contains "renal mass" and
//     whose name appears in the exam text, or any of whose indication tokens
//     appears in the clinical info. Contrast values come from the row.
//  2. Renal colic: a reference protocol literally named "renal colic" plus a
//     renal-stone synonym anywhere in the order text. IV contrast is forced
//     to C- regardless of the row and regardless of renal function; oral
//     contrast comes from the row.
func MatchReference(c *entities.PatientCase, table *entities.ProtocolTable, terms TermTable) (*ReferenceMatch, bool) {
	if table == nil {
		return nil, false
	}

	exam := utils.NormalizeForMatch(c.Exam)
	clinical := utils.NormalizeForMatch(c.ClinicalInfo)

	for _, p := range table.Protocols() {
		name := utils.NormalizeForMatch(p.Name)
		if !strings.Contains(name, renalMassMarker) {
			continue
		}
		if strings.Contains(exam, name) || anyTokenIn(clinical, p.IndicationTokens()) {
			return &ReferenceMatch{
				Rule:         MatchRenalMass,
				Protocol:     p.Name,
				IVContrast:   p.IVContrast,
				OralContrast: p.OralContrast,
			}, true
		}
	}

	if p, ok := table.GetByName(ProtocolColic); ok {
		if _, hit := terms.MatchAny(TermsRenalStone, c.Exam, c.ClinicalInfo); hit {
			return &ReferenceMatch{
				Rule:         MatchRenalColic,
				Protocol:     ProtocolColic,
				IVContrast:   IVContrastNegative,
				OralContrast: p.OralContrast,
			}, true
		}
	}

	return nil, false
}

func anyTokenIn(text string, tokens []string) bool {
	for _, token := range tokens {
		normalized := utils.NormalizeForMatch(token)
		if normalized == "" {
			continue
		}
		if strings.Contains(text, normalized) {
			return true
		}
	}
	return false
}
