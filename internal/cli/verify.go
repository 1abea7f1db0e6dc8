package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veridraft/veridraft/internal/model"
	"github.com/veridraft/veridraft/internal/pipeline"
)

var (
	verifySource      string
	verifyReport      string
	verifyModel       string
	verifyConcurrency int
	verifyDirect      bool
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify [document-file]",
	Short: "Verify an existing document against a source knowledge file",
	Long: `Verify every sentence of an existing document against a source knowledge
file. Sentences are checked in overlapping windows so the evaluator sees
enough context for pronouns and references.

Example:
  veridraft verify draft.md -s source.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if verifyModel != "" {
			cfg.LLM.Model = verifyModel
		}
		if verifyConcurrency > 0 {
			cfg.Verification.MaxConcurrency = verifyConcurrency
		}
		setupLogging(cfg.Output)

		p, err := pipeline.NewFromConfig(cfg)
		if err != nil {
			return err
		}

		source := pipeline.LoadSourceFile(verifySource)
		if err := p.LoadSource(cmd.Context(), source); err != nil {
			return err
		}

		var results []model.Result
		if verifyDirect {
			results, err = p.ScoreDocument(cmd.Context(), args[0])
		} else {
			results, err = p.VerifyDocument(cmd.Context(), args[0])
		}
		if err != nil {
			return err
		}

		renderResults(results)

		if verifyReport != "" {
			if err := writeReport(verifyReport, results); err != nil {
				return err
			}
			fmt.Printf("Verification report written to %s\n", verifyReport)
		}

		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVarP(&verifySource, "source", "s", "", "source knowledge file (required)")
	verifyCmd.Flags().StringVar(&verifyReport, "report", "", "optional path for a JSON verification report")
	verifyCmd.Flags().StringVar(&verifyModel, "model", "", "chat model override")
	verifyCmd.Flags().IntVar(&verifyConcurrency, "concurrency", 0, "max concurrent verifications")
	verifyCmd.Flags().BoolVar(&verifyDirect, "direct", false, "score by vector distance only, skipping the evaluator model")
	_ = verifyCmd.MarkFlagRequired("source")

	rootCmd.AddCommand(verifyCmd)
}
