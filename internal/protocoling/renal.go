package protocoling

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// RenalClassification is the outcome of the renal function evaluation.
type RenalClassification string

const (
	// RenalUnknown means the order carried no usable eGFR value; normal
	// renal function is assumed.
	RenalUnknown RenalClassification = "unknown"

	// RenalNormal means the eGFR is at or above the contraindication
	// threshold.
	RenalNormal RenalClassification = "normal"

	// RenalContraindicated means the eGFR is below the threshold and IV
	// contrast must be withheld.
	RenalContraindicated RenalClassification = "contraindicated"
)

// Guidance lines carried into the draft-generation prompt.
const (
	guidanceUnknown         = "eGFR data not available - assuming normal renal function."
	guidanceContraindicated = "Due to eGFR < 30, IV contrast is typically contraindicated."
	guidanceNormal          = "eGFR > 30, IV contrast can be administered with low risk."
)

// RenalAssessment is the renal function evaluation result: the classification
// the IV contrast guard acts on plus the guidance line used in the prompt.
type RenalAssessment struct {
	Classification RenalClassification `json:"classification"`
	EGFR           float64             `json:"egfr,omitempty"`
	Guidance       string              `json:"guidance"`
}

// Contraindicated reports whether IV contrast must be forced to C-.
func (a RenalAssessment) Contraindicated() bool {
	return a.Classification == RenalContraindicated
}

// AssessRenalFunction classifies the raw eGFR field from the order. A
// recognized "no data" spelling is Unknown; a numeric value below the policy
// threshold is Contraindicated; anything else, malformed strings included,
// degrades to Normal (the permissive institutional default).
func AssessRenalFunction(policy Policy, raw string) RenalAssessment {
	if policy.IsNoData(raw) {
		return RenalAssessment{
			Classification: RenalUnknown,
			Guidance:       guidanceUnknown,
		}
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		log.Debug().Str("egfr", raw).Msg("unparseable eGFR value, assuming normal renal function")
		return RenalAssessment{
			Classification: RenalNormal,
			Guidance:       guidanceNormal,
		}
	}

	if value < policy.EGFRContraindicationThreshold {
		return RenalAssessment{
			Classification: RenalContraindicated,
			EGFR:           value,
			Guidance:       guidanceContraindicated,
		}
	}

	return RenalAssessment{
		Classification: RenalNormal,
		EGFR:           value,
		Guidance:       guidanceNormal,
	}
}
