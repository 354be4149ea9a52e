package evaluation

import (
	"math"
	"testing"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func TestCompareRecommendations_Identical(t *testing.T) {
	rec := entities.FinalRecommendation{
		Priority:     3,
		Protocol:     "Appendicitis",
		IVContrast:   "C+",
		OralContrast: "None",
	}
	mismatches := CompareRecommendations(rec, rec)
	if len(mismatches) != 0 {
		t.Errorf("expected no mismatches, got %v", mismatches)
	}
}

func TestCompareRecommendations_SingleField(t *testing.T) {
	want := entities.FinalRecommendation{Priority: 1, Protocol: "Renal colic", IVContrast: "C-", OralContrast: "None"}
	got := entities.FinalRecommendation{Priority: 4, Protocol: "Renal colic", IVContrast: "C-", OralContrast: "None"}

	mismatches := CompareRecommendations(want, got)
	if len(mismatches) != 1 {
		t.Fatalf("expected 1 mismatch, got %d", len(mismatches))
	}
	if mismatches[0].Field != FieldPriority {
		t.Errorf("expected field %s, got %s", FieldPriority, mismatches[0].Field)
	}
	if mismatches[0].Want != "1" || mismatches[0].Got != "4" {
		t.Errorf("unexpected mismatch values: %+v", mismatches[0])
	}
}

func TestCompareRecommendations_AllFields(t *testing.T) {
	want := entities.FinalRecommendation{Priority: 2, Protocol: "Renal mass", IVContrast: "C+ and C-", OralContrast: "None"}
	got := entities.FinalRecommendation{Priority: 4, Protocol: "Routine abdomen pelvis", IVContrast: "C+", OralContrast: "Water base"}

	mismatches := CompareRecommendations(want, got)
	if len(mismatches) != 4 {
		t.Fatalf("expected 4 mismatches, got %d", len(mismatches))
	}

	fields := make(map[string]bool)
	for _, m := range mismatches {
		fields[m.Field] = true
	}
	for _, field := range RecommendationFields() {
		if !fields[field] {
			t.Errorf("expected mismatch for field %s", field)
		}
	}
}
