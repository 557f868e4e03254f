package cli

import (
	"context"
	"fmt"

	"resumelens/internal/common"
	"resumelens/internal/engine"
	"resumelens/internal/errors"
	"resumelens/internal/types"

	"github.com/spf13/cobra"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [resume-file] [job-description-file]",
	Short: "Apply suggestion patches to produce an improved resume",
	Long: `Optimize a resume for a target job. The resume is analyzed, every
suggestion that carries a concrete text patch is adopted and applied to the
document, and the result is re-analyzed. The output contains the patched
resume text alongside the before and after scores.

The job description file is optional; keywords can also be passed directly
with --keywords.`,
	Args: cobra.RangeArgs(1, 2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if optimizeConfig.OutputFormat == "" {
			optimizeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(optimizeConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runOptimize,
}

var (
	optimizeConfig   common.CommandConfig
	optimizeKeywords string
	optimizeJobTitle string
)

func init() {
	optimizeCmd.Flags().StringVarP(&optimizeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	optimizeCmd.Flags().StringVar(&optimizeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	optimizeCmd.Flags().StringVar(&optimizeKeywords, "keywords", "", "Comma-separated target keywords (overrides extraction from the job description)")
	optimizeCmd.Flags().StringVar(&optimizeJobTitle, "title", "", "Target job title")

	_ = optimizeCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	optimizeConfig.MaxFileSize = cfg.App.MaxFileSize

	createInput := func(contents []string) (analyzeInput, error) {
		if len(contents) == 0 {
			return analyzeInput{}, fmt.Errorf("expected at least 1 file path")
		}
		return analyzeInput{
			ResumeText: contents[0],
			Job:        buildJobContext(contents, optimizeKeywords, optimizeJobTitle),
		}, nil
	}

	logDetails := func(input analyzeInput, cfg common.CommandConfig) {
		logger.Info("Starting resume optimization",
			"resume_chars", len(input.ResumeText),
			"keywords", len(input.Job.Keywords),
			"output_format", cfg.OutputFormat)
	}

	optimizeOperation := func(ctx context.Context, input analyzeInput) (*types.OptimizeResumeOutput, error) {
		return optimizeResume(ctx, eng, logger, input)
	}

	err = common.RunEngineCommand(
		cmd.Context(),
		logger,
		optimizeConfig,
		args,
		createInput,
		optimizeOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to optimize resume: %w", err)
	}
	logger.Info("Resume optimization completed successfully")
	return nil
}

// optimizeResume runs one full improvement cycle: analyze, adopt and apply
// every suggestion with a text patch, then reanalyze the patched document.
func optimizeResume(ctx context.Context, eng *engine.Engine, logger *errors.Logger, input analyzeInput) (*types.OptimizeResumeOutput, error) {
	sess, err := eng.NewSession(ctx, input.ResumeText, input.Job)
	if err != nil {
		return nil, err
	}

	initial := sess.Result()
	applied := 0
	for _, s := range initial.Suggestions {
		if !s.HasPatch() {
			continue
		}
		if _, err := sess.Adopt(initial.ID, s.ID); err != nil {
			return nil, err
		}
		if _, err := sess.ApplyToDocument(initial.ID, s.ID); err != nil {
			// A later patch can invalidate an earlier suggestion's anchor
			// text. Skip it rather than failing the whole run.
			if errors.TypeOf(err) == errors.ErrorTypePatch {
				logger.Warn("Skipping suggestion whose patch no longer applies",
					"suggestion_id", s.ID, "title", s.Title)
				continue
			}
			return nil, err
		}
		applied++
	}

	final := initial
	if applied > 0 {
		final, err = sess.Reanalyze(ctx)
		if err != nil {
			return nil, err
		}
	}

	return &types.OptimizeResumeOutput{
		Document:       sess.WorkingText(),
		AppliedPatches: applied,
		InitialScore:   initial.OverallScore,
		FinalScore:     final.OverallScore,
		Analysis:       *final,
	}, nil
}
