package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/veridraft/veridraft/internal/pipeline"
)

var (
	genPrompt      string
	genOut         string
	genReport      string
	genModel       string
	genSections    int
	genConcurrency int
	genTimeout     time.Duration
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate [source-file]",
	Short: "Generate a fact-checked document from a source knowledge file",
	Long: `Generate a long-form document based strictly on the given source file,
verifying every sentence against the source while the text streams.

The draft is written as soon as generation finishes; verification verdicts
follow once all in-flight evaluations complete.

Example:
  veridraft generate source.txt -p "Write a report on mango exports" -o draft.md`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if genModel != "" {
			cfg.LLM.Model = genModel
		}
		if genSections > 0 {
			cfg.Generation.NumSections = genSections
		}
		if genConcurrency > 0 {
			cfg.Verification.MaxConcurrency = genConcurrency
		}
		if genTimeout > 0 {
			cfg.LLM.Timeout = genTimeout
		}
		setupLogging(cfg.Output)

		p, err := pipeline.NewFromConfig(cfg)
		if err != nil {
			return err
		}

		source := pipeline.LoadSourceFile(args[0])

		doc, results, err := p.GenerateAndVerify(cmd.Context(), source, genPrompt, genOut)
		if err != nil {
			return err
		}

		fmt.Printf("Draft written to %s (%d characters)\n\n", genOut, len(doc))
		renderResults(results)

		if genReport != "" {
			if err := writeReport(genReport, results); err != nil {
				return err
			}
			fmt.Printf("Verification report written to %s\n", genReport)
		}

		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&genPrompt, "prompt", "p", "", "what the document should cover (required)")
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "draft.md", "output path for the generated draft")
	generateCmd.Flags().StringVar(&genReport, "report", "", "optional path for a JSON verification report")
	generateCmd.Flags().StringVar(&genModel, "model", "", "chat model override")
	generateCmd.Flags().IntVar(&genSections, "sections", 0, "target outline section count")
	generateCmd.Flags().IntVar(&genConcurrency, "concurrency", 0, "max concurrent verifications")
	generateCmd.Flags().DurationVar(&genTimeout, "timeout", 0, "per-request timeout")
	_ = generateCmd.MarkFlagRequired("prompt")

	rootCmd.AddCommand(generateCmd)
}
