package protocoling

import (
	"github.com/ethan-saco/radiololgy-ct-protocoling/pkg/utils"
)

// TermCategory names one audited list of trigger keywords. The rule functions
// consult the table by category; the lists themselves are policy data and can
// be versioned independently of rule logic.
type TermCategory string

const (
	// TermsRenalStone triggers the renal-colic reference match and the
	// "Renal stone" draft rename.
	TermsRenalStone TermCategory = "renal_stone"

	// TermsChestExam is exam-text evidence that a C/A/P protocol is wanted.
	TermsChestExam TermCategory = "chest_exam"

	// TermsChestClinical is clinical-info evidence for a C/A/P protocol.
	TermsChestClinical TermCategory = "chest_clinical"

	// TermsBowelCondition gates Readi-Cat oral contrast.
	TermsBowelCondition TermCategory = "bowel_condition"

	// TermsRadiologistRequest is the explicit-request gate for Readi-Cat.
	TermsRadiologistRequest TermCategory = "radiologist_request"

	// TermsUrography triggers the urogram contrast override.
	TermsUrography TermCategory = "urography"

	// TermsBowelPerforation triggers the water-soluble oral override.
	TermsBowelPerforation TermCategory = "bowel_perforation"

	// TermsFistula triggers the water-soluble oral override.
	TermsFistula TermCategory = "fistula"

	// TermsRectal triggers the rectal contrast override.
	TermsRectal TermCategory = "rectal_perianal"
)

// TermTable maps a category to its trigger terms. Matching is normalized
// substring containment on both sides.
type TermTable map[TermCategory][]string

// DefaultTerms returns the institutional keyword lists.
func DefaultTerms() TermTable {
	return TermTable{
		TermsRenalStone: {
			"stone", "kidney stone", "nephrolithiasis",
			"renal calculus", "flank pain", "renal colic",
		},
		TermsChestExam: {
			"c/a/p", "cap", "chest", "thorax", "c.a.p",
		},
		TermsChestClinical: {
			"metastatic cancer", "major trauma", "chest and abdomen",
		},
		TermsBowelCondition: {
			"bowel obstruction", "obstruction", "ileus", "sbo",
			"crohn", "ulcerative colitis", "inflammatory bowel",
		},
		TermsRadiologistRequest: {
			"radiologist requested", "radiologist request",
			"per radiologist", "as requested by radiologist",
		},
		TermsUrography: {
			"urogram", "ctu", "ct urography",
		},
		TermsBowelPerforation: {
			"perforation", "perforated", "leak", "anastomotic leak",
		},
		TermsFistula: {
			"fistula", "enterocutaneous", "enterovaginal",
		},
		TermsRectal: {
			"rectal cancer", "rectal mass", "rectal tumor",
			"perianal", "anal cancer", "anus cancer",
		},
	}
}

// Match reports the first trigger term of the category contained in text.
func (t TermTable) Match(category TermCategory, text string) (string, bool) {
	return utils.ContainsAny(text, t[category])
}

// MatchAny reports whether any of the texts contains a trigger term of the
// category.
func (t TermTable) MatchAny(category TermCategory, texts ...string) (string, bool) {
	for _, text := range texts {
		if term, ok := t.Match(category, text); ok {
			return term, true
		}
	}
	return "", false
}
