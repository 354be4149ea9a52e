package evaluation

import (
	"context"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/protocoling"
)

// Runner replays a golden case corpus through the deterministic engine. The
// drafts are part of the corpus, so a run never touches the collaborator and
// is fully reproducible.
type Runner struct {
	engine *protocoling.Engine
	table  *entities.ProtocolTable
}

func NewRunner(engine *protocoling.Engine, table *entities.ProtocolTable) *Runner {
	return &Runner{engine: engine, table: table}
}

func (r *Runner) Run(ctx context.Context, cases []GoldenCase) (*Summary, []CaseResult, error) {
	if err := ValidateGoldenCases(cases); err != nil {
		return nil, nil, err
	}

	summary := &Summary{
		TotalCases: len(cases),
		ByField:    make(map[string]*FieldSummary),
		ByTag:      make(map[string]*TagSummary),
	}
	for _, field := range RecommendationFields() {
		summary.ByField[field] = &FieldSummary{}
	}

	results := make([]CaseResult, 0, len(cases))
	for _, gc := range cases {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		result := r.evaluate(gc)
		r.updateSummary(summary, result)
		results = append(results, result)
	}

	r.finalizeSummary(summary)
	return summary, results, nil
}

func (r *Runner) evaluate(gc GoldenCase) CaseResult {
	var got entities.FinalRecommendation
	var matchedRule string

	if gc.Draft == nil {
		// Degraded-path case: the draft never arrived.
		got = r.engine.Sentinel(&gc.Case)
	} else {
		res := r.engine.Finalize(&gc.Case, r.table, gc.Draft)
		got = res.Final
		matchedRule = res.MatchedRule
	}

	mismatches := CompareRecommendations(gc.Expected, got)
	return CaseResult{
		CaseID:      gc.ID,
		Description: gc.Description,
		Tags:        gc.Tags,
		Pass:        len(mismatches) == 0,
		Got:         got,
		Expected:    gc.Expected,
		Mismatches:  mismatches,
		MatchedRule: matchedRule,
	}
}

func (r *Runner) updateSummary(s *Summary, res CaseResult) {
	if res.Pass {
		s.Passed++
	}

	missed := make(map[string]bool, len(res.Mismatches))
	for _, m := range res.Mismatches {
		missed[m.Field] = true
	}
	for field, fs := range s.ByField {
		if !missed[field] {
			fs.Correct++
		}
	}

	for _, tag := range res.Tags {
		if _, ok := s.ByTag[tag]; !ok {
			s.ByTag[tag] = &TagSummary{}
		}
		ts := s.ByTag[tag]
		ts.Count++
		if res.Pass {
			ts.Passed++
		}
	}
}

func (r *Runner) finalizeSummary(s *Summary) {
	if s.TotalCases > 0 {
		n := float64(s.TotalCases)
		s.Accuracy = float64(s.Passed) / n
		for _, fs := range s.ByField {
			fs.Accuracy = float64(fs.Correct) / n
		}
	}

	for _, ts := range s.ByTag {
		if ts.Count > 0 {
			ts.Accuracy = float64(ts.Passed) / float64(ts.Count)
		}
	}
}
