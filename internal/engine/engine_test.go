package engine

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"resumelens/internal/config"
	"resumelens/internal/errors"
	"resumelens/internal/scorer"
	"resumelens/internal/types"
)

const testResume = `John Doe

Summary
Software engineer with a focus on frontend platforms.

Experience
- Built React dashboards used by 40+ internal teams
- Led migration to TypeScript
- Improved the onboarding flow

Skills
React, TypeScript

Education
BS Computer Science, 2018
`

func testScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		Provider: "rules",
		Weights: config.WeightsConfig{
			Keyword:      0.4,
			Grammar:      0.2,
			Format:       0.2,
			Quantitative: 0.2,
		},
		MaxSuggestions: 10,
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(scorer.NewRulesScorer(), testScoringConfig(), nil)
}

// stubScorer wraps the rules scorer, optionally failing or blocking the
// grammar dimension.
type stubScorer struct {
	scorer.Scorer
	grammarErr  error
	grammarGate chan struct{}
}

func newStubScorer() *stubScorer {
	return &stubScorer{Scorer: scorer.NewRulesScorer()}
}

func (s *stubScorer) CheckGrammar(ctx context.Context, in scorer.Input) (types.GrammarCheck, error) {
	if s.grammarGate != nil {
		select {
		case <-s.grammarGate:
		case <-ctx.Done():
			return types.GrammarCheck{}, ctx.Err()
		}
	}
	if s.grammarErr != nil {
		return types.GrammarCheck{}, s.grammarErr
	}
	return s.Scorer.CheckGrammar(ctx, in)
}

func TestAnalyzeRejectsEmptyInput(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"whitespace only", "   \n\t  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := e.Analyze(context.Background(), tt.input, types.JobContext{})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if result != nil {
				t.Error("expected nil result on validation failure")
			}
			if errors.TypeOf(err) != errors.ErrorTypeValidation {
				t.Errorf("error type = %s, want validation", errors.TypeOf(err))
			}
		})
	}
}

func TestAnalyzeScoreBounds(t *testing.T) {
	e := newTestEngine(t)

	inputs := []string{
		testResume,
		"Managed projects.",
		"x",
		strings.Repeat("Responsible for the the rollout. ", 30),
	}
	for _, input := range inputs {
		result, err := e.Analyze(context.Background(), input, types.JobContext{Keywords: []string{"React"}})
		if err != nil {
			t.Fatalf("Analyze(%q): %v", input, err)
		}
		scores := map[string]int{
			"overall":      result.OverallScore,
			"ats":          result.ATSScore,
			"keyword":      result.KeywordAnalysis.Score,
			"grammar":      result.GrammarCheck.Score,
			"readability":  result.GrammarCheck.OverallReadability,
			"format":       result.FormatAnalysis.Score,
			"quantitative": result.QuantitativeAnalysis.Score,
		}
		for name, score := range scores {
			if score < 0 || score > 100 {
				t.Errorf("input %q: %s score %d out of [0,100]", input, name, score)
			}
		}
		if result.QuantitativeAnalysis.AchievementsWithNumbers > result.QuantitativeAnalysis.TotalAchievements {
			t.Errorf("input %q: AchievementsWithNumbers exceeds TotalAchievements", input)
		}
	}
}

func TestAnalyzeDeterminism(t *testing.T) {
	e := newTestEngine(t)
	job := types.JobContext{Keywords: []string{"React", "Kubernetes", "Leadership"}}

	first, err := e.Analyze(context.Background(), testResume, job)
	if err != nil {
		t.Fatalf("first analysis: %v", err)
	}
	second, err := e.Analyze(context.Background(), testResume, job)
	if err != nil {
		t.Fatalf("second analysis: %v", err)
	}

	if first.OverallScore != second.OverallScore {
		t.Errorf("OverallScore differs: %d vs %d", first.OverallScore, second.OverallScore)
	}
	if first.KeywordAnalysis.Score != second.KeywordAnalysis.Score ||
		first.GrammarCheck.Score != second.GrammarCheck.Score ||
		first.FormatAnalysis.Score != second.FormatAnalysis.Score ||
		first.QuantitativeAnalysis.Score != second.QuantitativeAnalysis.Score {
		t.Error("dimension scores differ between identical runs")
	}
	if len(first.Suggestions) != len(second.Suggestions) {
		t.Fatalf("suggestion counts differ: %d vs %d", len(first.Suggestions), len(second.Suggestions))
	}
	for i := range first.Suggestions {
		a, b := first.Suggestions[i], second.Suggestions[i]
		if a.Title != b.Title || a.Priority != b.Priority || a.BeforeText != b.BeforeText || a.AfterText != b.AfterText {
			t.Errorf("suggestion %d differs between identical runs: %+v vs %+v", i, a, b)
		}
	}
}

func TestAnalyzeScorerFailureNamesDimension(t *testing.T) {
	stub := newStubScorer()
	stub.grammarErr = stderrors.New("backend unavailable")
	e := New(stub, testScoringConfig(), nil)

	result, err := e.Analyze(context.Background(), testResume, types.JobContext{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if result != nil {
		t.Error("expected no partial result when a scorer fails")
	}
	if errors.TypeOf(err) != errors.ErrorTypeScorer {
		t.Errorf("error type = %s, want scorer", errors.TypeOf(err))
	}

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		t.Fatalf("error is not an AppError: %v", err)
	}
	if appErr.Context["dimension"] != "grammar" {
		t.Errorf("dimension context = %v, want grammar", appErr.Context["dimension"])
	}
	if !strings.Contains(appErr.Message, "grammar") {
		t.Errorf("message %q does not name the failed dimension", appErr.Message)
	}
	if !stderrors.Is(err, stub.grammarErr) {
		t.Error("underlying scorer error is not wrapped")
	}
}

func TestSetPolicy(t *testing.T) {
	e := newTestEngine(t)

	original := e.Policy()
	e.SetPolicy(nil)
	if e.Policy() != original {
		t.Error("SetPolicy(nil) replaced the active policy")
	}

	next := &config.Policy{
		Weights:        testScoringConfig().Weights,
		MaxSuggestions: 3,
	}
	e.SetPolicy(next)
	if e.Policy() != next {
		t.Error("SetPolicy did not install the new policy")
	}

	result, err := e.Analyze(context.Background(), "Managed projects.", types.JobContext{Keywords: []string{"React", "Leadership"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Suggestions) > 3 {
		t.Errorf("got %d suggestions, policy caps at 3", len(result.Suggestions))
	}
}
