package engine

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"resumelens/internal/config"
	"resumelens/internal/errors"
	"resumelens/internal/scorer"
	"resumelens/internal/types"
)

// Engine runs analyses: it fans the resume text out to the four dimension
// scorers, joins their results, and builds an AnalysisResult with prioritized
// suggestions. The engine itself is stateless across calls; per-document
// state lives in Session.
type Engine struct {
	scorer scorer.Scorer
	logger *errors.Logger
	policy atomic.Pointer[config.Policy]
}

// New creates an engine over the given scoring backend. The initial policy
// is derived from the static configuration; SetPolicy swaps it at runtime.
func New(sc scorer.Scorer, cfg config.ScoringConfig, logger *errors.Logger) *Engine {
	e := &Engine{
		scorer: sc,
		logger: logger,
	}
	e.policy.Store(config.DefaultPolicy(cfg))
	return e
}

// SetPolicy atomically replaces the active scoring policy. Analyses already
// in flight keep the policy they started with.
func (e *Engine) SetPolicy(p *config.Policy) {
	if p == nil {
		return
	}
	e.policy.Store(p)
}

// Policy returns the active scoring policy.
func (e *Engine) Policy() *config.Policy {
	return e.policy.Load()
}

// Scorer returns the configured scoring backend.
func (e *Engine) Scorer() scorer.Scorer {
	return e.scorer
}

// Analyze scores resumeText against the job context and returns a new
// immutable AnalysisResult. It fails with a validation error on
// empty/whitespace-only input and with a scorer error naming the failed
// dimension when any scorer fails; no partial result is ever returned.
func (e *Engine) Analyze(ctx context.Context, resumeText string, job types.JobContext) (*types.AnalysisResult, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidInput,
			"resume text is empty or whitespace-only", nil)
	}

	started := time.Now()
	policy := e.policy.Load()
	in := scorer.Input{ResumeText: resumeText, Job: job, Policy: policy}

	dims, err := e.runScorers(ctx, in)
	if err != nil {
		return nil, err
	}

	suggestions := GenerateSuggestions(dims, resumeText, policy)
	result := Aggregate(dims, suggestions, policy)
	result.ProcessingTimeMs = time.Since(started).Milliseconds()

	if e.logger != nil {
		e.logger.Info("Analysis completed",
			"analysis_id", result.ID,
			"overall_score", result.OverallScore,
			"suggestion_count", len(result.Suggestions),
			"duration_ms", result.ProcessingTimeMs,
			"backend", e.scorer.Name())
	}
	return result, nil
}

// DimensionResults is the join point of the four scorers.
type DimensionResults struct {
	Keyword      types.KeywordAnalysis
	Grammar      types.GrammarCheck
	Format       types.FormatAnalysis
	Quantitative types.QuantitativeAnalysis
}

// runScorers runs the four dimension scorers concurrently over the same
// immutable input and waits for all of them. The first failure cancels the
// rest and fails the whole run.
func (e *Engine) runScorers(ctx context.Context, in scorer.Input) (DimensionResults, error) {
	var dims DimensionResults

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dims.Keyword, err = e.scorer.ScoreKeywords(gctx, in)
		return wrapScorerErr("keyword", err)
	})
	g.Go(func() error {
		var err error
		dims.Grammar, err = e.scorer.CheckGrammar(gctx, in)
		return wrapScorerErr("grammar", err)
	})
	g.Go(func() error {
		var err error
		dims.Format, err = e.scorer.AnalyzeFormat(gctx, in)
		return wrapScorerErr("format", err)
	})
	g.Go(func() error {
		var err error
		dims.Quantitative, err = e.scorer.ScoreQuantitative(gctx, in)
		return wrapScorerErr("quantitative", err)
	})

	if err := g.Wait(); err != nil {
		return DimensionResults{}, err
	}
	return dims, nil
}

// wrapScorerErr tags a scorer failure with the dimension that produced it.
func wrapScorerErr(dimension string, err error) error {
	if err == nil {
		return nil
	}
	return errors.NewScorerError(errors.ErrCodeScorerFailed,
		"scorer failed for dimension "+dimension, err).
		WithContext("dimension", dimension)
}
