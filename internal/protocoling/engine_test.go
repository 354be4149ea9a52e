package protocoling

import (
	"testing"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultPolicy())
}

func TestFinalize_EmergencyAlwaysPriorityOne(t *testing.T) {
	// Property: any ER/ED case ends at priority 1 regardless of the draft
	// and regardless of what other rules fire.
	locations := []string{"ER", "er", "ED", "ed", " ER ", "Ed"}
	drafts := []*entities.DraftRecommendation{
		{Priority: "4", Protocol: "A/P", IVContrast: "C+", OralContrast: "None"},
		{Priority: "garbage", Protocol: "C/A/P", IVContrast: "bad", OralContrast: "bad"},
		{Priority: "2.0", Protocol: "Renal stone", IVContrast: "C-", OralContrast: "Readi-Cat"},
	}

	engine := newTestEngine()
	for _, loc := range locations {
		for _, draft := range drafts {
			c := &entities.PatientCase{
				StudyID:      "e1",
				Location:     loc,
				Exam:         "CT urogram",
				ClinicalInfo: "rectal cancer staging, flank pain",
				EGFR:         "20",
			}
			result := engine.Finalize(c, testTable(), draft)
			if result.Final.Priority != 1 {
				t.Errorf("location %q draft %+v: priority = %d, want 1", loc, draft, result.Final.Priority)
			}
		}
	}
}

func TestFinalize_ContraindicatedEGFRForcesNegativeIV(t *testing.T) {
	engine := newTestEngine()
	c := &entities.PatientCase{
		StudyID:      "e2",
		Location:     "IP",
		Exam:         "CT abdomen pelvis",
		ClinicalInfo: "abdominal pain",
		EGFR:         "22",
	}
	draft := &entities.DraftRecommendation{Priority: "3", Protocol: "A/P", IVContrast: "C+", OralContrast: "None"}

	result := engine.Finalize(c, testTable(), draft)
	if result.Final.IVContrast != IVContrastNegative {
		t.Errorf("iv contrast = %q, want C- for eGFR 22", result.Final.IVContrast)
	}
	if result.Renal.Classification != RenalContraindicated {
		t.Errorf("renal classification = %q", result.Renal.Classification)
	}
}

func TestFinalize_UrogramOverridesRenalGuard(t *testing.T) {
	// Known policy tension, preserved deliberately: the urogram override runs
	// after the renal IV guard and is not re-checked, so a urogram order with
	// contraindicated renal function still ends at dual-phase contrast.
	engine := newTestEngine()
	c := &entities.PatientCase{
		StudyID:      "e3",
		Location:     "OP",
		Exam:         "CT urogram",
		ClinicalInfo: "hematuria workup",
		EGFR:         "20",
	}
	draft := &entities.DraftRecommendation{Priority: "3", Protocol: "CT urogram", IVContrast: "C+", OralContrast: "None"}

	result := engine.Finalize(c, testTable(), draft)
	if result.Final.IVContrast != IVContrastDual {
		t.Errorf("iv contrast = %q, want C+ and C- (urogram wins over the renal guard)", result.Final.IVContrast)
	}
	if result.Final.OralContrast != OralWaterBase {
		t.Errorf("oral contrast = %q, want Water base", result.Final.OralContrast)
	}

	// The audit trail should show both rules firing in order.
	var sawRenal, sawUrogram bool
	for _, corr := range result.Corrections {
		if corr.Rule == RuleIVContrastRenal && corr.Field == "iv_contrast" {
			sawRenal = true
		}
		if corr.Rule == RuleUrogramContrast && corr.Field == "iv_contrast" {
			if !sawRenal {
				t.Error("urogram correction recorded before the renal guard")
			}
			sawUrogram = true
		}
	}
	if !sawRenal || !sawUrogram {
		t.Errorf("expected both renal and urogram iv corrections, got %+v", result.Corrections)
	}
}

func TestFinalize_CAPWithoutEvidenceDowngrades(t *testing.T) {
	engine := newTestEngine()
	c := &entities.PatientCase{
		StudyID:      "e4",
		Location:     "OP",
		Exam:         "CT abdomen pelvis",
		ClinicalInfo: "nonspecific abdominal pain",
		EGFR:         "85",
	}
	draft := &entities.DraftRecommendation{Priority: "3", Protocol: "C/A/P", IVContrast: "C+", OralContrast: "None"}

	result := engine.Finalize(c, testTable(), draft)
	if result.Final.Protocol != ProtocolAP {
		t.Errorf("protocol = %q, want A/P", result.Final.Protocol)
	}
}

func TestFinalize_Idempotent(t *testing.T) {
	// Property: re-running the resolver on its own output is a fixed point.
	engine := newTestEngine()
	cases := []*entities.PatientCase{
		{StudyID: "f1", Location: "ER", Exam: "CT C/A/P", ClinicalInfo: "major trauma, MVA", EGFR: "no data"},
		{StudyID: "f2", Location: "OP", Exam: "CT urogram", ClinicalInfo: "hematuria", EGFR: "20"},
		{StudyID: "f3", Location: "IP", Exam: "CT abdomen pelvis", ClinicalInfo: "rectal cancer staging", EGFR: "60"},
		{StudyID: "f4", Location: "OP", Exam: "CT abdomen", ClinicalInfo: "crohn flare, radiologist requested", EGFR: "45"},
	}
	drafts := []*entities.DraftRecommendation{
		{Priority: "2", Protocol: "C/A/P", IVContrast: "C+", OralContrast: "Readi-Cat"},
		{Priority: "nine", Protocol: "", IVContrast: "maybe", OralContrast: "barium"},
	}

	for _, c := range cases {
		for _, draft := range drafts {
			first := engine.Finalize(c, testTable(), draft)
			second := engine.Finalize(c, testTable(), first.Final.AsDraft())
			if first.Final != second.Final {
				t.Errorf("case %s: not a fixed point: first %+v, second %+v", c.StudyID, first.Final, second.Final)
			}
		}
	}
}

func TestFinalize_ScenarioRenalMass(t *testing.T) {
	engine := newTestEngine()
	c := &entities.PatientCase{
		StudyID:      "s-mass",
		Location:     "OP",
		Exam:         "CT renal mass",
		ClinicalInfo: "3cm right renal lesion on US, characterization needed",
		EGFR:         "85",
	}
	draft := &entities.DraftRecommendation{Priority: "3", Protocol: "A/P", IVContrast: "C+", OralContrast: "None"}

	result := engine.Finalize(c, testTable(), draft)
	if result.MatchedRule != MatchRenalMass {
		t.Fatalf("matched rule = %q, want renal mass short-circuit", result.MatchedRule)
	}
	want := entities.FinalRecommendation{Priority: 3, Protocol: "Renal mass", IVContrast: "C+ and C-", OralContrast: "None"}
	if result.Final != want {
		t.Errorf("final = %+v, want %+v", result.Final, want)
	}
}

func TestFinalize_ScenarioRenalColicER(t *testing.T) {
	engine := newTestEngine()
	c := &entities.PatientCase{
		StudyID:      "s-colic",
		Location:     "ER",
		Exam:         "Renal stone",
		ClinicalInfo: "Left flank pain, hematuria",
		EGFR:         "no data",
	}
	// Draft says C+ to prove the colic match overrides it.
	draft := &entities.DraftRecommendation{Priority: "3", Protocol: "Renal stone", IVContrast: "C+", OralContrast: "None"}

	result := engine.Finalize(c, testTable(), draft)
	if result.MatchedRule != MatchRenalColic {
		t.Fatalf("matched rule = %q, want renal colic short-circuit", result.MatchedRule)
	}
	want := entities.FinalRecommendation{Priority: 1, Protocol: "Renal colic", IVContrast: "C-", OralContrast: "None"}
	if result.Final != want {
		t.Errorf("final = %+v, want %+v", result.Final, want)
	}
}

func TestFinalize_ScenarioUrogram(t *testing.T) {
	engine := newTestEngine()
	c := &entities.PatientCase{
		StudyID:      "s-uro",
		Location:     "OP",
		Exam:         "CT urogram",
		ClinicalInfo: "Hematuria workup",
		EGFR:         "95",
	}
	draft := &entities.DraftRecommendation{Priority: "3", Protocol: "CT urogram", IVContrast: "C+", OralContrast: "None"}

	result := engine.Finalize(c, testTable(), draft)
	if result.Final.IVContrast != IVContrastDual {
		t.Errorf("iv contrast = %q, want C+ and C-", result.Final.IVContrast)
	}
	if result.Final.OralContrast != OralWaterBase && result.Final.OralContrast != OralWaterOnly {
		t.Errorf("oral contrast = %q, want a water-based value", result.Final.OralContrast)
	}
}

func TestFinalize_ScenarioRectalStaging(t *testing.T) {
	engine := newTestEngine()
	c := &entities.PatientCase{
		StudyID:      "s-rectal",
		Location:     "IP",
		Exam:         "CT abdomen pelvis",
		ClinicalInfo: "rectal cancer staging",
		EGFR:         "60",
	}
	draft := &entities.DraftRecommendation{Priority: "2", Protocol: "A/P", IVContrast: "C+", OralContrast: "None"}

	result := engine.Finalize(c, testTable(), draft)
	if result.Final.OralContrast != OralRectal {
		t.Errorf("oral contrast = %q, want Other (rectal)", result.Final.OralContrast)
	}
}

func TestFinalize_ReadiCatNeedsBothTermCategories(t *testing.T) {
	engine := newTestEngine()
	draft := &entities.DraftRecommendation{Priority: "3", Protocol: "A/P", IVContrast: "C+", OralContrast: "Readi-Cat"}

	tests := []struct {
		name     string
		clinical string
		want     string
	}{
		{"both present", "SBO, oral contrast per radiologist", OralReadiCat},
		{"bowel only", "bowel obstruction suspected", OralNone},
		{"request only", "radiologist requested contrast", OralNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &entities.PatientCase{
				StudyID:      "rc",
				Location:     "OP",
				Exam:         "CT abdomen",
				ClinicalInfo: tt.clinical,
				EGFR:         "70",
			}
			result := engine.Finalize(c, testTable(), draft)
			if result.Final.OralContrast != tt.want {
				t.Errorf("oral contrast = %q, want %q", result.Final.OralContrast, tt.want)
			}
		})
	}
}

func TestFinalize_BlankProtocolDefaultsToAP(t *testing.T) {
	engine := newTestEngine()
	c := &entities.PatientCase{
		StudyID:      "blank",
		Location:     "OP",
		Exam:         "CT abdomen",
		ClinicalInfo: "pain",
		EGFR:         "80",
	}
	draft := &entities.DraftRecommendation{Priority: "3", Protocol: "", IVContrast: "C+", OralContrast: "None"}

	result := engine.Finalize(c, testTable(), draft)
	if result.Final.Protocol != ProtocolAP {
		t.Errorf("protocol = %q, want A/P default", result.Final.Protocol)
	}
}

func TestFinalize_RenalMassBypassesRenalGuard(t *testing.T) {
	// The renal-mass short-circuit copies the reference IV value verbatim,
	// even when renal function is contraindicated. Documented source
	// behavior, not a bug to fix here.
	engine := newTestEngine()
	c := &entities.PatientCase{
		StudyID:      "mass-low-egfr",
		Location:     "OP",
		Exam:         "CT renal mass",
		ClinicalInfo: "renal lesion characterization",
		EGFR:         "20",
	}
	draft := &entities.DraftRecommendation{Priority: "3", Protocol: "A/P", IVContrast: "C-", OralContrast: "None"}

	result := engine.Finalize(c, testTable(), draft)
	if result.Final.IVContrast != "C+ and C-" {
		t.Errorf("iv contrast = %q, want the reference row value", result.Final.IVContrast)
	}
}

func TestSentinel(t *testing.T) {
	engine := newTestEngine()

	er := engine.Sentinel(&entities.PatientCase{Location: "ER"})
	if er.Priority != 1 || !er.IsSentinel() {
		t.Errorf("ER sentinel = %+v", er)
	}

	op := engine.Sentinel(&entities.PatientCase{Location: "OP"})
	if op.Priority != 4 || !op.IsSentinel() {
		t.Errorf("OP sentinel = %+v", op)
	}
}
