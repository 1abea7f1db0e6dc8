package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/veridraft/veridraft/internal/model"
)

// renderResults prints a verification summary and details every flagged claim
func renderResults(results []model.Result) {
	flagged := 0
	for _, r := range results {
		if r.Verdict.Flagged() {
			flagged++
		}
	}

	fmt.Printf("Verified %d claims, %d flagged for revision\n", len(results), flagged)
	if flagged == 0 {
		return
	}

	fmt.Println()
	for _, r := range results {
		if !r.Verdict.Flagged() {
			continue
		}
		fmt.Printf("  [%.2f] %s\n", r.Verdict.FaithfulnessScore, r.Claim)
		if r.Verdict.Rationale != "" {
			fmt.Printf("         %s\n", r.Verdict.Rationale)
		}
	}
	fmt.Println()
}

// writeReport writes the full verification results as indented JSON
func writeReport(path string, results []model.Result) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
