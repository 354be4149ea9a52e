package evaluation

import (
	"context"
	"testing"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/protocoling"
)

func validGoldenCase(id string) GoldenCase {
	return GoldenCase{
		ID:          id,
		Description: "appendicitis outpatient",
		Tags:        []string{"routine"},
		Case: entities.PatientCase{
			StudyID:      "S-" + id,
			Location:     "OP",
			Exam:         "CT abdomen pelvis",
			ClinicalInfo: "right lower quadrant pain",
			EGFR:         "85",
		},
		Draft: &entities.DraftRecommendation{
			Priority:     "3",
			Protocol:     "Appendicitis",
			IVContrast:   "C+",
			OralContrast: "None",
		},
		Expected: entities.FinalRecommendation{
			Priority:     3,
			Protocol:     "Appendicitis",
			IVContrast:   "C+",
			OralContrast: "None",
		},
	}
}

func evaluationTable() *entities.ProtocolTable {
	return entities.NewProtocolTable([]*entities.Protocol{
		{
			Name:         "Renal mass",
			IVContrast:   "C+ and C-",
			OralContrast: "None",
			Indications:  "renal lesion, renal mass characterization",
		},
		{
			Name:         "Renal colic",
			IVContrast:   "C+",
			OralContrast: "None",
			Indications:  "flank pain, suspected stone",
		},
		{
			Name:         "Appendicitis",
			IVContrast:   "C+",
			OralContrast: "None",
			Indications:  "right lower quadrant pain",
		},
	})
}

func newTestRunner() *Runner {
	engine := protocoling.NewEngine(protocoling.DefaultPolicy())
	return NewRunner(engine, evaluationTable())
}

func TestRunner_AllPass(t *testing.T) {
	runner := newTestRunner()

	summary, results, err := runner.Run(context.Background(), []GoldenCase{
		validGoldenCase("gc1"),
		validGoldenCase("gc2"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.TotalCases != 2 || summary.Passed != 2 {
		t.Errorf("expected 2/2 passed, got %d/%d", summary.Passed, summary.TotalCases)
	}
	if !almostEqual(summary.Accuracy, 1.0) {
		t.Errorf("expected accuracy 1.0, got %f", summary.Accuracy)
	}
	for _, res := range results {
		if !res.Pass {
			t.Errorf("case %s: expected pass, got mismatches %v", res.CaseID, res.Mismatches)
		}
	}
}

func TestRunner_EmergencyPriorityOverride(t *testing.T) {
	runner := newTestRunner()

	gc := validGoldenCase("gc-er")
	gc.Case.Location = "ER"
	gc.Expected.Priority = 1

	summary, results, err := runner.Run(context.Background(), []GoldenCase{gc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Passed != 1 {
		t.Errorf("expected emergency case to pass, got %+v", results[0].Mismatches)
	}
}

func TestRunner_ReferenceMatchRecorded(t *testing.T) {
	runner := newTestRunner()

	gc := validGoldenCase("gc-mass")
	gc.Case.ClinicalInfo = "indeterminate renal mass on ultrasound"
	gc.Draft.Protocol = "Routine abdomen pelvis"
	gc.Expected = entities.FinalRecommendation{
		Priority:     3,
		Protocol:     "Renal mass",
		IVContrast:   "C+ and C-",
		OralContrast: "None",
	}

	_, results, err := runner.Run(context.Background(), []GoldenCase{gc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !results[0].Pass {
		t.Fatalf("expected renal mass case to pass, got mismatches %v", results[0].Mismatches)
	}
	if results[0].MatchedRule == "" {
		t.Error("expected matched rule to be recorded for reference match")
	}
}

func TestRunner_DegradedCaseUsesSentinel(t *testing.T) {
	runner := newTestRunner()

	gc := GoldenCase{
		ID:   "gc-degraded",
		Tags: []string{"degraded"},
		Case: entities.PatientCase{
			StudyID:      "S-9",
			Location:     "ER",
			Exam:         "CT abdomen",
			ClinicalInfo: "trauma",
			EGFR:         "70",
		},
		Expected: entities.FinalRecommendation{
			Priority:     1,
			Protocol:     entities.NoData,
			IVContrast:   entities.NoData,
			OralContrast: entities.NoData,
		},
	}

	summary, _, err := runner.Run(context.Background(), []GoldenCase{gc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Passed != 1 {
		t.Error("expected degraded case to match sentinel")
	}
}

func TestRunner_FailureBreakdown(t *testing.T) {
	runner := newTestRunner()

	pass := validGoldenCase("gc-pass")
	fail := validGoldenCase("gc-fail")
	fail.Tags = []string{"routine", "priority"}
	fail.Expected.Priority = 1 // engine will keep 3 for an outpatient

	summary, results, err := runner.Run(context.Background(), []GoldenCase{pass, fail})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Passed != 1 {
		t.Fatalf("expected 1 pass, got %d", summary.Passed)
	}
	if !almostEqual(summary.Accuracy, 0.5) {
		t.Errorf("expected accuracy 0.5, got %f", summary.Accuracy)
	}

	// Only the priority field missed; the other three stay perfect.
	if !almostEqual(summary.ByField[FieldPriority].Accuracy, 0.5) {
		t.Errorf("expected priority accuracy 0.5, got %f", summary.ByField[FieldPriority].Accuracy)
	}
	if !almostEqual(summary.ByField[FieldProtocol].Accuracy, 1.0) {
		t.Errorf("expected protocol accuracy 1.0, got %f", summary.ByField[FieldProtocol].Accuracy)
	}

	routine := summary.ByTag["routine"]
	if routine == nil || routine.Count != 2 || routine.Passed != 1 {
		t.Errorf("unexpected routine tag summary: %+v", routine)
	}
	priority := summary.ByTag["priority"]
	if priority == nil || priority.Count != 1 || priority.Passed != 0 {
		t.Errorf("unexpected priority tag summary: %+v", priority)
	}

	var failRes *CaseResult
	for i := range results {
		if results[i].CaseID == "gc-fail" {
			failRes = &results[i]
		}
	}
	if failRes == nil || failRes.Pass {
		t.Fatal("expected gc-fail to fail")
	}
	if len(failRes.Mismatches) != 1 || failRes.Mismatches[0].Field != FieldPriority {
		t.Errorf("expected single priority mismatch, got %v", failRes.Mismatches)
	}
}

func TestRunner_RejectsInvalidCorpus(t *testing.T) {
	runner := newTestRunner()

	_, _, err := runner.Run(context.Background(), []GoldenCase{
		validGoldenCase("dup"),
		validGoldenCase("dup"),
	})
	if err == nil {
		t.Fatal("expected error for duplicate case ids")
	}
}
