package scorer

import (
	"context"
	"fmt"

	"resumelens/internal/config"
	"resumelens/internal/errors"
	"resumelens/internal/types"
)

// Input carries one immutable text snapshot plus job context into a scorer.
// Policy may be nil, in which case built-in defaults apply.
type Input struct {
	ResumeText string
	Job        types.JobContext
	Policy     *config.Policy
}

// Scorer is the contract every scoring backend satisfies. The four dimension
// methods are independent and safe to call concurrently on the same Input:
// they share no mutable state.
type Scorer interface {
	Name() string
	ScoreKeywords(ctx context.Context, in Input) (types.KeywordAnalysis, error)
	CheckGrammar(ctx context.Context, in Input) (types.GrammarCheck, error)
	AnalyzeFormat(ctx context.Context, in Input) (types.FormatAnalysis, error)
	ScoreQuantitative(ctx context.Context, in Input) (types.QuantitativeAnalysis, error)
}

// New creates the scorer backend selected by the configuration.
func New(cfg config.ScoringConfig, logger *errors.Logger) (Scorer, error) {
	switch cfg.Provider {
	case "rules", "":
		return NewRulesScorer(), nil
	case "gemini":
		return NewGeminiScorer(cfg.Gemini, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown scoring provider: %s", cfg.Provider), nil)
	}
}

// clampScore bounds a computed score to [0,100].
func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
