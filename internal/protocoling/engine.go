package protocoling

import (
	"strings"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
)

// Assembler-level guard names. These normally never fire: the resolver's own
// rules keep the fields valid, so a correction tagged with one of them means
// a reference row carried an out-of-enum value past the matcher.
const (
	RuleAssemblerProtocol = "assembler_protocol_default"
	RuleAssemblerOral     = "assembler_oral_enum"
	RuleAssemblerIV       = "assembler_iv_enum"
)

// Result is the full outcome of one engine run: the final recommendation, the
// corrections that produced it, the matched reference rule if the matcher
// short-circuited, and the renal assessment the IV guard acted on.
type Result struct {
	Final       entities.FinalRecommendation
	Corrections []entities.Correction
	MatchedRule string
	Renal       RenalAssessment
}

// Engine runs the deterministic pipeline. It is stateless apart from the
// immutable policy value and safe for concurrent use across requests.
type Engine struct {
	policy Policy
}

// NewEngine creates an engine bound to a policy version.
func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Policy returns the policy the engine was built with.
func (e *Engine) Policy() Policy {
	return e.policy
}

// AssessRenal classifies the case's eGFR under the engine's policy.
func (e *Engine) AssessRenal(c *entities.PatientCase) RenalAssessment {
	return AssessRenalFunction(e.policy, c.EGFR)
}

// Sentinel returns the degraded fallback recommendation for the case.
func (e *Engine) Sentinel(c *entities.PatientCase) entities.FinalRecommendation {
	return e.policy.Sentinel(c)
}

// Finalize consumes a case, the loaded protocol reference, and the untrusted
// draft, and produces the final policy-compliant recommendation.
//
// The renal evaluation and the reference matcher run first. A reference match
// short-circuits the override resolver: protocol and contrast come from the
// match, and only the emergency priority correction and priority sanitation
// still apply. Otherwise the draft (after the renal-stone rename
// normalization) runs through the full ordered rule sequence, and the
// assembler validates the surviving enums.
func (e *Engine) Finalize(c *entities.PatientCase, table *entities.ProtocolTable, draft *entities.DraftRecommendation) *Result {
	renal := AssessRenalFunction(e.policy, c.EGFR)
	s := newState(e.policy, c, renal, draft)

	if match, ok := MatchReference(c, table, e.policy.Terms); ok {
		s.setProtocol(match.Rule, match.Protocol, "matched reference protocol")
		s.setIVContrast(match.Rule, match.IVContrast, "contrast from reference protocol")
		s.setOralContrast(match.Rule, match.OralContrast, "contrast from reference protocol")
		for _, r := range priorityRules() {
			r.apply(r.name, s)
		}
		return e.assemble(s, match.Rule)
	}

	applyRenalStoneRename(s)
	for _, r := range resolverRules() {
		r.apply(r.name, s)
	}
	return e.assemble(s, "")
}

// assemble merges the resolver state into the closed-world final
// recommendation, defaulting anything a catastrophic path left unset.
func (e *Engine) assemble(s *state, matchedRule string) *Result {
	if strings.TrimSpace(s.protocol) == "" {
		s.setProtocol(RuleAssemblerProtocol, ProtocolAP, "blank protocol defaults to A/P")
	}
	if !e.policy.IsValidOralContrast(s.oralContrast) {
		s.setOralContrast(RuleAssemblerOral, OralNone, "oral contrast not a valid value after resolution")
	}
	if !e.policy.IsValidIVContrast(s.ivContrast) {
		fallback := IVContrastPositive
		if s.renal.Contraindicated() {
			fallback = IVContrastNegative
		}
		s.setIVContrast(RuleAssemblerIV, fallback, "iv contrast not a valid value after resolution")
	}
	if !s.prioritySet {
		s.setPriority(RulePriorityBounds, e.policy.DefaultPriority, "priority never resolved")
	}

	return &Result{
		Final: entities.FinalRecommendation{
			Priority:     s.priority,
			Protocol:     s.protocol,
			IVContrast:   s.ivContrast,
			OralContrast: s.oralContrast,
		},
		Corrections: s.corrections,
		MatchedRule: matchedRule,
		Renal:       s.renal,
	}
}
