package cli

import (
	"context"
	"fmt"
	"strings"

	"resumelens/internal/common"
	"resumelens/internal/config"
	"resumelens/internal/engine"
	"resumelens/internal/errors"
	"resumelens/internal/scorer"
	"resumelens/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file] [job-description-file]",
	Short: "Analyze a resume against a target job",
	Long: `Analyze a resume against a target job description. The resume is
scored across four dimensions:
- Keyword match against the job's keywords
- Grammar and readability
- Format and ATS compatibility
- Quantified achievements

The analysis produces an overall score, per-dimension details, and a
prioritized list of improvement suggestions. The job description file is
optional; keywords can also be passed directly with --keywords.`,
	Args: cobra.RangeArgs(1, 2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if analyzeConfig.OutputFormat == "" {
			analyzeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(analyzeConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runAnalyze,
}

var (
	analyzeConfig   common.CommandConfig
	analyzeKeywords string
	analyzeJobTitle string
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	analyzeCmd.Flags().StringVar(&analyzeKeywords, "keywords", "", "Comma-separated target keywords (overrides extraction from the job description)")
	analyzeCmd.Flags().StringVar(&analyzeJobTitle, "title", "", "Target job title")

	// Add completion for format flag
	_ = analyzeCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

// analyzeInput is the assembled input for one analysis run.
type analyzeInput struct {
	ResumeText string
	Job        types.JobContext
}

// buildJobContext assembles the job context from the optional description
// file content and the command flags.
func buildJobContext(contents []string, keywords, title string) types.JobContext {
	job := types.JobContext{Title: title}
	if len(contents) > 1 {
		job.Description = contents[1]
	}
	if keywords != "" {
		for _, kw := range strings.Split(keywords, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				job.Keywords = append(job.Keywords, kw)
			}
		}
	}
	return job
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	analyzeConfig.MaxFileSize = cfg.App.MaxFileSize

	createInput := func(contents []string) (analyzeInput, error) {
		if len(contents) == 0 {
			return analyzeInput{}, fmt.Errorf("expected at least 1 file path")
		}
		return analyzeInput{
			ResumeText: contents[0],
			Job:        buildJobContext(contents, analyzeKeywords, analyzeJobTitle),
		}, nil
	}

	logDetails := func(input analyzeInput, cfg common.CommandConfig) {
		logger.Info("Starting resume analysis",
			"resume_chars", len(input.ResumeText),
			"keywords", len(input.Job.Keywords),
			"output_format", cfg.OutputFormat)
	}

	analyzeOperation := func(ctx context.Context, input analyzeInput) (*types.AnalysisResult, error) {
		return eng.Analyze(ctx, input.ResumeText, input.Job)
	}

	err = common.RunEngineCommand(
		cmd.Context(),
		logger,
		analyzeConfig,
		args,
		createInput,
		analyzeOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to analyze resume: %w", err)
	}
	logger.Info("Resume analysis completed successfully")
	return nil
}

// newEngine builds the analysis engine from the static configuration,
// loading the scoring policy file when one is configured.
func newEngine(cfg *config.Config, logger *errors.Logger) (*engine.Engine, error) {
	sc, err := scorer.New(cfg.Scoring, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create scorer: %w", err)
	}
	eng := engine.New(sc, cfg.Scoring, logger)

	if cfg.Scoring.PolicyFile != "" {
		policy, err := config.LoadPolicyFile(cfg.Scoring.PolicyFile, cfg.Scoring)
		if err != nil {
			return nil, fmt.Errorf("failed to load scoring policy: %w", err)
		}
		eng.SetPolicy(policy)
	}
	return eng, nil
}
