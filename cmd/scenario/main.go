// Demo program running the full generate-and-verify loop on a small
// built-in source about mango exports. Requires OPENAI_API_KEY.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/veridraft/veridraft/internal/model"
	"github.com/veridraft/veridraft/internal/pipeline"
)

const sourceKnowledge = `Mango cultivation in the region dates back over four centuries, with the
earliest orchards planted along the coastal lowlands.

The Tommy Atkins variety accounts for roughly 80% of mango exports, prized
for its long shelf life rather than its flavor.

Harvest season runs from late March to early July, peaking in May when daily
shipments can exceed four hundred tonnes.

Export volumes doubled between 2010 and 2020, driven almost entirely by
demand from European markets.`

func main() {
	fmt.Println("=== Veridraft Scenario: Mango Export Report ===")
	fmt.Println()

	if os.Getenv("OPENAI_API_KEY") == "" {
		fmt.Println("OPENAI_API_KEY is not set; this demo makes real API calls.")
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg := model.DefaultConfig()
	cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.Generation.NumSections = 3

	p, err := pipeline.NewFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipeline setup: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	doc, results, err := p.GenerateAndVerify(ctx, sourceKnowledge,
		"Write a short report on the state of mango exports.", "scenario-draft.md")
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(strings.Repeat("-", 60))
	fmt.Println(doc)
	fmt.Println(strings.Repeat("-", 60))
	fmt.Println()

	flagged := 0
	for _, r := range results {
		if r.Verdict.Flagged() {
			flagged++
			fmt.Printf("FLAGGED [%.2f] %s\n", r.Verdict.FaithfulnessScore, r.Claim)
			fmt.Printf("        %s\n", r.Verdict.Rationale)
		}
	}

	fmt.Println()
	fmt.Printf("Verified %d claims, %d flagged. Draft saved to scenario-draft.md\n", len(results), flagged)

	// Verify the same draft again in batch mode, windows of two sentences
	batch, err := p.VerifyDocument(ctx, "scenario-draft.md")
	if err != nil {
		fmt.Fprintf(os.Stderr, "verify: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Batch re-verification: %d windows checked\n", len(batch))
}
