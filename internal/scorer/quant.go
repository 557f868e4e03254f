package scorer

import (
	"context"
	"math"
	"strings"

	"resumelens/internal/types"
)

// ScoreQuantitative implements Scorer. It measures what share of
// achievement-style lines carry a numeric result.
func (s *RulesScorer) ScoreQuantitative(_ context.Context, in Input) (types.QuantitativeAnalysis, error) {
	analysis := types.QuantitativeAnalysis{ImpactWords: []string{}}

	var extraVerbs []string
	if in.Policy != nil {
		extraVerbs = in.Policy.ImpactWords
	}

	seenVerbs := map[string]struct{}{}
	for _, line := range Lines(in.ResumeText) {
		if !IsAchievementLine(line, extraVerbs) {
			continue
		}
		analysis.TotalAchievements++
		if HasQuantifier(line.Text) {
			analysis.AchievementsWithNumbers++
		}
		if verb, ok := ImpactVerb(line, extraVerbs); ok {
			if _, dup := seenVerbs[verb]; !dup {
				seenVerbs[verb] = struct{}{}
				analysis.ImpactWords = append(analysis.ImpactWords, verb)
			}
		}
	}

	if analysis.TotalAchievements > 0 {
		ratio := float64(analysis.AchievementsWithNumbers) / float64(analysis.TotalAchievements)
		analysis.Score = clampScore(int(math.Round(100 * ratio)))
	}
	return analysis, nil
}

// UnquantifiedAchievements returns achievement-style lines lacking a numeric
// result, in document order. The suggestion generator rewrites these.
func UnquantifiedAchievements(text string, policyVerbs []string) []Line {
	var lines []Line
	for _, line := range Lines(text) {
		if !IsAchievementLine(line, policyVerbs) {
			continue
		}
		if HasQuantifier(line.Text) {
			continue
		}
		// Headings can start with an impact-verb lookalike; skip anything
		// that is itself a recognized section heading.
		if _, isHeading := canonicalSection(line.Trimmed); isHeading {
			continue
		}
		if strings.TrimSpace(line.Trimmed) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
