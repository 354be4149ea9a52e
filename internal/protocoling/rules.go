package protocoling

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
)

// Resolver rule names, in execution order. The sequence is order-sensitive:
// later rules may overwrite fields set by earlier ones, and the emergency
// priority correction runs both first and last so no intermediate rule can
// undo it.
const (
	RuleRenalStoneRename      = "renal_stone_rename"
	RuleEmergencyPriority     = "emergency_priority"
	RulePriorityBounds        = "priority_bounds"
	RuleCAPEvidence           = "cap_evidence"
	RuleOralContrastEnum      = "oral_contrast_enum"
	RuleIVContrastRenal       = "iv_contrast_renal"
	RuleReadiCatRestriction   = "readi_cat_restriction"
	RuleUrogramContrast       = "urogram_contrast"
	RuleLuminalLeak           = "luminal_leak"
	RuleRectalProtocol        = "rectal_protocol"
	RuleEmergencyPriorityLast = "emergency_priority_final"
)

// state is the working recommendation being corrected, together with the case
// context every rule may consult. Rules mutate the state and append tagged
// corrections; nothing else is shared between them.
type state struct {
	policy Policy
	c      *entities.PatientCase
	renal  RenalAssessment

	rawPriority  string
	priority     int
	prioritySet  bool
	protocol     string
	ivContrast   string
	oralContrast string

	corrections []entities.Correction
}

func newState(policy Policy, c *entities.PatientCase, renal RenalAssessment, draft *entities.DraftRecommendation) *state {
	return &state{
		policy:       policy,
		c:            c,
		renal:        renal,
		rawPriority:  strings.TrimSpace(draft.Priority),
		protocol:     strings.TrimSpace(draft.Protocol),
		ivContrast:   strings.TrimSpace(draft.IVContrast),
		oralContrast: strings.TrimSpace(draft.OralContrast),
	}
}

func (s *state) correct(rule, field, from, to, reason string) {
	s.corrections = append(s.corrections, entities.Correction{
		Rule:   rule,
		Field:  field,
		From:   from,
		To:     to,
		Reason: reason,
	})
}

func (s *state) setPriority(rule string, priority int, reason string) {
	from := s.rawPriority
	if s.prioritySet {
		if s.priority == priority {
			return
		}
		from = strconv.Itoa(s.priority)
	}
	if from != strconv.Itoa(priority) {
		s.correct(rule, "priority", from, strconv.Itoa(priority), reason)
	}
	s.priority = priority
	s.prioritySet = true
}

func (s *state) setProtocol(rule, protocol, reason string) {
	if s.protocol == protocol {
		return
	}
	s.correct(rule, "protocol", s.protocol, protocol, reason)
	s.protocol = protocol
}

func (s *state) setIVContrast(rule, value, reason string) {
	if s.ivContrast == value {
		return
	}
	s.correct(rule, "iv_contrast", s.ivContrast, value, reason)
	s.ivContrast = value
}

func (s *state) setOralContrast(rule, value, reason string) {
	if s.oralContrast == value {
		return
	}
	s.correct(rule, "oral_contrast", s.oralContrast, value, reason)
	s.oralContrast = value
}

// rule is one named, independent correction step.
type rule struct {
	name  string
	apply func(name string, s *state)
}

// resolverRules returns the fixed override sequence. The urogram rule runs
// after the renal IV guard on purpose: a urogram order with contraindicated
// renal function ends up with dual-phase contrast. The source policy exhibits
// this ordering and it is preserved here rather than silently fixed.
func resolverRules() []rule {
	return []rule{
		{RuleEmergencyPriority, ruleEmergencyPriority},
		{RulePriorityBounds, rulePriorityBounds},
		{RuleCAPEvidence, ruleCAPEvidence},
		{RuleOralContrastEnum, ruleOralContrastEnum},
		{RuleIVContrastRenal, ruleIVContrastRenal},
		{RuleReadiCatRestriction, ruleReadiCatRestriction},
		{RuleUrogramContrast, ruleUrogramContrast},
		{RuleLuminalLeak, ruleLuminalLeak},
		{RuleRectalProtocol, ruleRectalProtocol},
		{RuleEmergencyPriorityLast, ruleEmergencyPriority},
	}
}

// priorityRules returns the truncated sequence applied when a reference match
// short-circuits the pipeline: only the location correction and priority
// sanitation still run.
func priorityRules() []rule {
	return []rule{
		{RuleEmergencyPriority, ruleEmergencyPriority},
		{RulePriorityBounds, rulePriorityBounds},
	}
}

// applyRenalStoneRename normalizes a draft that picked "Renal stone" when the
// order text carries renal-stone synonyms: the institutional name is "Renal
// colic". Unlike the reference match this rename never touches contrast.
func applyRenalStoneRename(s *state) {
	if !strings.EqualFold(s.protocol, protocolStone) {
		return
	}
	if term, ok := s.policy.Terms.MatchAny(TermsRenalStone, s.c.Exam, s.c.ClinicalInfo); ok {
		s.setProtocol(RuleRenalStoneRename, ProtocolColic,
			fmt.Sprintf("draft used %q but order mentions %q", protocolStone, term))
	}
}

func ruleEmergencyPriority(name string, s *state) {
	if !s.c.IsEmergency() {
		return
	}
	s.setPriority(name, s.policy.EmergencyPriority, "ER/ED cases are always priority 1")
}

func rulePriorityBounds(name string, s *state) {
	if s.prioritySet {
		return
	}

	value, err := coercePriority(s.rawPriority)
	if err != nil {
		s.setPriority(name, s.policy.DefaultPriority,
			fmt.Sprintf("priority %q is not an integer", s.rawPriority))
		return
	}
	if !s.policy.IsValidPriority(value) {
		s.setPriority(name, s.policy.DefaultPriority,
			fmt.Sprintf("priority %d is out of range", value))
		return
	}
	s.priority = value
	s.prioritySet = true
}

// coercePriority accepts integer strings and integral floats ("2", "2.0").
func coercePriority(raw string) (int, error) {
	if v, err := strconv.Atoi(raw); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("priority %q is not integral", raw)
	}
	return int(f), nil
}

func ruleCAPEvidence(name string, s *state) {
	if !strings.EqualFold(s.protocol, ProtocolCAP) {
		return
	}
	if _, ok := s.policy.Terms.Match(TermsChestExam, s.c.Exam); ok {
		return
	}
	if _, ok := s.policy.Terms.Match(TermsChestClinical, s.c.ClinicalInfo); ok {
		return
	}
	s.setProtocol(name, ProtocolAP, "no chest or trauma evidence for a C/A/P protocol")
}

func ruleOralContrastEnum(name string, s *state) {
	if s.policy.IsValidOralContrast(s.oralContrast) {
		return
	}
	s.setOralContrast(name, OralNone, "oral contrast missing or not a valid value")
}

func ruleIVContrastRenal(name string, s *state) {
	if s.renal.Contraindicated() {
		s.setIVContrast(name, IVContrastNegative, "eGFR below contraindication threshold")
		return
	}
	if !s.policy.IsValidIVContrast(s.ivContrast) {
		s.setIVContrast(name, IVContrastPositive, "iv contrast missing or not a valid value")
	}
}

func ruleReadiCatRestriction(name string, s *state) {
	if s.oralContrast != OralReadiCat {
		return
	}
	_, bowel := s.policy.Terms.Match(TermsBowelCondition, s.c.ClinicalInfo)
	_, requested := s.policy.Terms.Match(TermsRadiologistRequest, s.c.ClinicalInfo)
	if bowel && requested {
		return
	}
	s.setOralContrast(name, OralNone,
		"Readi-Cat requires both a bowel condition and an explicit radiologist request")
}

func ruleUrogramContrast(name string, s *state) {
	if _, ok := s.policy.Terms.Match(TermsUrography, s.c.Exam); !ok {
		return
	}
	if s.oralContrast != OralWaterOnly && s.oralContrast != OralWaterBase {
		s.setOralContrast(name, OralWaterBase, "urography uses water-based oral contrast")
	}
	s.setIVContrast(name, IVContrastDual, "urography requires dual-phase IV contrast")
}

func ruleLuminalLeak(name string, s *state) {
	term, perforation := s.policy.Terms.Match(TermsBowelPerforation, s.c.ClinicalInfo)
	if !perforation {
		term, perforation = s.policy.Terms.Match(TermsFistula, s.c.ClinicalInfo)
	}
	if !perforation {
		return
	}
	s.setOralContrast(name, OralWaterBase,
		fmt.Sprintf("suspected luminal leak (%q) requires water-soluble oral contrast", term))
}

func ruleRectalProtocol(name string, s *state) {
	clinical := s.c.ClinicalInfo
	_, rectal := s.policy.Terms.Match(TermsRectal, clinical)
	if !rectal {
		lowered := strings.ToLower(clinical)
		rectal = strings.Contains(lowered, "rect") &&
			(strings.Contains(lowered, "cancer") || strings.Contains(lowered, "staging"))
	}
	if !rectal {
		return
	}
	s.setOralContrast(name, OralRectal, "rectal/perianal indication requires rectal contrast")
}
