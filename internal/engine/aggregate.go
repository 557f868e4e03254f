package engine

import (
	"math"
	"time"

	"github.com/google/uuid"

	"resumelens/internal/config"
	"resumelens/internal/types"
)

// Score bands for deriving strengths and weaknesses from dimension scores.
const (
	strengthThreshold = 85
	weaknessThreshold = 60
)

type dimensionStatement struct {
	name     string
	score    int
	strength string
	weakness string
}

// Aggregate combines dimension results and suggestions into a fresh
// AnalysisResult. The overall score is the weighted average of the four
// dimension scores; weights come from the active policy.
func Aggregate(dims DimensionResults, suggestions []types.Suggestion, policy *config.Policy) *types.AnalysisResult {
	weights := config.WeightsConfig{Keyword: 0.4, Grammar: 0.2, Format: 0.2, Quantitative: 0.2}
	if policy != nil {
		weights = policy.Weights
	}

	overall := float64(dims.Keyword.Score)*weights.Keyword +
		float64(dims.Grammar.Score)*weights.Grammar +
		float64(dims.Format.Score)*weights.Format +
		float64(dims.Quantitative.Score)*weights.Quantitative

	statements := []dimensionStatement{
		{
			name:     "keyword",
			score:    dims.Keyword.Score,
			strength: "Strong keyword coverage for the target role",
			weakness: "Resume is missing many keywords the target role asks for",
		},
		{
			name:     "grammar",
			score:    dims.Grammar.Score,
			strength: "Clear, well-edited writing",
			weakness: "Writing has grammar or readability problems",
		},
		{
			name:     "format",
			score:    dims.Format.Score,
			strength: "Clean, ATS-friendly structure",
			weakness: "Structure will be hard for ATS software to parse",
		},
		{
			name:     "quantitative",
			score:    dims.Quantitative.Score,
			strength: "Achievements are backed by concrete numbers",
			weakness: "Few achievements carry measurable results",
		},
	}

	strengths := []string{}
	weaknesses := []string{}
	for _, st := range statements {
		switch {
		case st.score >= strengthThreshold:
			strengths = append(strengths, st.strength)
		case st.score < weaknessThreshold:
			weaknesses = append(weaknesses, st.weakness)
		}
	}

	if suggestions == nil {
		suggestions = []types.Suggestion{}
	}

	return &types.AnalysisResult{
		ID:                   uuid.NewString(),
		OverallScore:         clampScore(int(math.Round(overall))),
		ATSScore:             clampScore(dims.Format.ATSCompatibility),
		KeywordAnalysis:      dims.Keyword,
		GrammarCheck:         dims.Grammar,
		FormatAnalysis:       dims.Format,
		QuantitativeAnalysis: dims.Quantitative,
		Suggestions:          suggestions,
		Strengths:            strengths,
		Weaknesses:           weaknesses,
		CreatedAt:            time.Now().UTC(),
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
