package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/adapters/reference"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/evaluation"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/protocoling"
	"github.com/ethan-saco/radiololgy-ct-protocoling/pkg/config"
)

func main() {
	var casesPath string
	var resultsPath string
	var minAccuracy float64

	flag.StringVar(&casesPath, "cases", "config/golden_cases.json", "Golden case corpus")
	flag.StringVar(&resultsPath, "results", "", "Optional path for full JSON results")
	flag.Float64Var(&minAccuracy, "min-accuracy", 0, "Fail the run below this overall accuracy (0-1)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// The runner replays recorded drafts; only the reference table is needed.
	loader := reference.NewCSVLoader(cfg.Reference.Path)
	table, err := loader.Load(context.Background())
	if err != nil {
		log.Fatalf("Failed to load protocol reference: %v", err)
	}

	policy := protocoling.DefaultPolicy()
	if cfg.Policy.EGFRContraindicationThreshold > 0 {
		policy.EGFRContraindicationThreshold = cfg.Policy.EGFRContraindicationThreshold
	}
	engine := protocoling.NewEngine(policy)

	cases, err := evaluation.LoadGoldenCases(casesPath)
	if err != nil {
		log.Fatalf("Failed to load golden cases: %v", err)
	}

	runner := evaluation.NewRunner(engine, table)
	summary, results, err := runner.Run(context.Background(), cases)
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	// Output summary as JSON
	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))

	if resultsPath != "" {
		data, _ := json.MarshalIndent(results, "", "  ")
		if err := os.WriteFile(resultsPath, data, 0o644); err != nil {
			log.Fatalf("Failed to write results: %v", err)
		}
		log.Printf("Full results written to %s", resultsPath)
	}

	guardrails := evaluation.NewGuardrails(evaluation.GuardrailConfig{MinAccuracy: minAccuracy})
	if !guardrails.ShouldPass(summary.Accuracy) {
		var failures []evaluation.CaseResult
		for _, res := range results {
			if !res.Pass {
				failures = append(failures, res)
			}
		}
		for _, res := range guardrails.LimitFailures(failures) {
			log.Printf("FAIL %s: %+v", res.CaseID, res.Mismatches)
		}
		log.Fatalf("Accuracy %.3f below required %.3f", summary.Accuracy, minAccuracy)
	}
}
