package evaluation

// GuardrailConfig bounds what an evaluation run will accept and report.
type GuardrailConfig struct {
	MinAccuracy         float64
	MaxReportedFailures int
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	if config.MaxReportedFailures <= 0 {
		config.MaxReportedFailures = 20
	}
	return &Guardrails{config: config}
}

// ShouldPass reports whether the run clears the configured accuracy gate.
func (g *Guardrails) ShouldPass(accuracy float64) bool {
	return accuracy >= g.config.MinAccuracy
}

// LimitFailures truncates the failing-case list for report output.
func (g *Guardrails) LimitFailures(failures []CaseResult) []CaseResult {
	if len(failures) > g.config.MaxReportedFailures {
		return failures[:g.config.MaxReportedFailures]
	}
	return failures
}
