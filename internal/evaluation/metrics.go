package evaluation

import (
	"strconv"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
)

// Recommendation field names used in per-field accuracy reporting.
const (
	FieldPriority     = "priority"
	FieldProtocol     = "protocol"
	FieldIVContrast   = "iv_contrast"
	FieldOralContrast = "oral_contrast"
)

// RecommendationFields lists the compared fields in report order.
func RecommendationFields() []string {
	return []string{FieldPriority, FieldProtocol, FieldIVContrast, FieldOralContrast}
}

// CompareRecommendations returns one mismatch per field where got diverges
// from want. An empty slice means the case passed.
func CompareRecommendations(want, got entities.FinalRecommendation) []FieldMismatch {
	var mismatches []FieldMismatch

	if want.Priority != got.Priority {
		mismatches = append(mismatches, FieldMismatch{
			Field: FieldPriority,
			Want:  strconv.Itoa(want.Priority),
			Got:   strconv.Itoa(got.Priority),
		})
	}
	if want.Protocol != got.Protocol {
		mismatches = append(mismatches, FieldMismatch{Field: FieldProtocol, Want: want.Protocol, Got: got.Protocol})
	}
	if want.IVContrast != got.IVContrast {
		mismatches = append(mismatches, FieldMismatch{Field: FieldIVContrast, Want: want.IVContrast, Got: got.IVContrast})
	}
	if want.OralContrast != got.OralContrast {
		mismatches = append(mismatches, FieldMismatch{Field: FieldOralContrast, Want: want.OralContrast, Got: got.OralContrast})
	}

	return mismatches
}
