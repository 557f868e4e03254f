package engine

import (
	"context"
	"strings"
	"testing"

	"resumelens/internal/config"
	"resumelens/internal/scorer"
	"resumelens/internal/types"
)

func analyzeDims(t *testing.T, text string, job types.JobContext, policy *config.Policy) DimensionResults {
	t.Helper()
	s := scorer.NewRulesScorer()
	in := scorer.Input{ResumeText: text, Job: job, Policy: policy}
	ctx := context.Background()

	var dims DimensionResults
	var err error
	if dims.Keyword, err = s.ScoreKeywords(ctx, in); err != nil {
		t.Fatal(err)
	}
	if dims.Grammar, err = s.CheckGrammar(ctx, in); err != nil {
		t.Fatal(err)
	}
	if dims.Format, err = s.AnalyzeFormat(ctx, in); err != nil {
		t.Fatal(err)
	}
	if dims.Quantitative, err = s.ScoreQuantitative(ctx, in); err != nil {
		t.Fatal(err)
	}
	return dims
}

func TestGenerateSuggestionsPriorities(t *testing.T) {
	text := "Managed projects."
	job := types.JobContext{Keywords: []string{"React", "Leadership"}}
	dims := analyzeDims(t, text, job, nil)

	suggestions := GenerateSuggestions(dims, text, nil)
	if len(suggestions) == 0 {
		t.Fatal("expected suggestions for a weak resume")
	}

	for i, sg := range suggestions {
		if sg.Priority != i+1 {
			t.Errorf("suggestion %d has Priority %d, want dense ascending from 1", i, sg.Priority)
		}
		if sg.ID == "" {
			t.Errorf("suggestion %d has empty ID", i)
		}
	}

	// Ordering: impact rank never increases, and within one impact level the
	// estimated improvement never increases
	for i := 1; i < len(suggestions); i++ {
		prev, cur := suggestions[i-1], suggestions[i]
		if impactRank(cur.Impact) > impactRank(prev.Impact) {
			t.Errorf("suggestion %d (%s impact) ranked below %d (%s impact)", i-1, prev.Impact, i, cur.Impact)
		}
		if prev.Impact == cur.Impact && cur.EstimatedScoreImprovement > prev.EstimatedScoreImprovement {
			t.Errorf("suggestion %d (est %d) ranked below %d (est %d) at the same impact",
				i-1, prev.EstimatedScoreImprovement, i, cur.EstimatedScoreImprovement)
		}
	}
}

func TestGenerateSuggestionsPatchFields(t *testing.T) {
	text := "Managed projects."
	job := types.JobContext{Keywords: []string{"React", "Leadership"}}
	dims := analyzeDims(t, text, job, nil)

	suggestions := GenerateSuggestions(dims, text, nil)
	for _, sg := range suggestions {
		// BeforeText and AfterText come as a pair or not at all
		if (sg.BeforeText == "") != (sg.AfterText == "") {
			t.Errorf("suggestion %q has unpaired patch fields: before=%q after=%q",
				sg.Title, sg.BeforeText, sg.AfterText)
		}
		if sg.BeforeText != "" && !strings.Contains(text, sg.BeforeText) {
			t.Errorf("suggestion %q BeforeText %q does not occur in the document", sg.Title, sg.BeforeText)
		}
	}
}

func TestGenerateSuggestionsKeywordPatch(t *testing.T) {
	text := "Managed projects."
	job := types.JobContext{Keywords: []string{"React", "Leadership"}}
	dims := analyzeDims(t, text, job, nil)

	suggestions := GenerateSuggestions(dims, text, nil)

	var patch *types.Suggestion
	for i := range suggestions {
		if suggestions[i].Type == types.SuggestionTypeKeyword && suggestions[i].HasPatch() {
			patch = &suggestions[i]
			break
		}
	}
	if patch == nil {
		t.Fatal("expected a keyword suggestion with a literal patch")
	}
	if patch.BeforeText != "Managed projects." {
		t.Errorf("BeforeText = %q, want the unquantified achievement line", patch.BeforeText)
	}
	if !strings.Contains(patch.AfterText, "React") {
		t.Errorf("AfterText %q does not mention the missing keyword", patch.AfterText)
	}
	if !scorer.HasQuantifier(patch.AfterText) {
		t.Errorf("AfterText %q carries no quantifier", patch.AfterText)
	}
	if patch.Priority != 1 {
		t.Errorf("keyword patch Priority = %d, want 1 (highest impact, largest estimate)", patch.Priority)
	}
}

func TestGenerateSuggestionsCap(t *testing.T) {
	// A resume bad enough to produce more findings than the cap
	text := "Managed projects.\nResponsible for the the rollout.\nHelped with releases.\nWorked on tooling."
	job := types.JobContext{Keywords: []string{"React", "Leadership", "Kubernetes", "Docker", "AWS", "SQL", "Agile", "Scrum"}}
	dims := analyzeDims(t, text, job, nil)

	policy := &config.Policy{
		Weights:        config.WeightsConfig{Keyword: 0.4, Grammar: 0.2, Format: 0.2, Quantitative: 0.2},
		MaxSuggestions: 5,
	}
	suggestions := GenerateSuggestions(dims, text, policy)
	if len(suggestions) != 5 {
		t.Fatalf("got %d suggestions, want exactly the cap of 5", len(suggestions))
	}
	for i, sg := range suggestions {
		if sg.Priority != i+1 {
			t.Errorf("post-cap priorities not dense: suggestion %d has Priority %d", i, sg.Priority)
		}
	}
}

func TestGenerateSuggestionsRepeatedWordPatch(t *testing.T) {
	text := "Experience\n- Reduced costs 10%\n\nled the the team daily\n\nEducation\nBS\n\nSkills\nGo"
	dims := analyzeDims(t, text, types.JobContext{}, nil)

	suggestions := GenerateSuggestions(dims, text, nil)
	var found bool
	for _, sg := range suggestions {
		if sg.Type == types.SuggestionTypeGrammar && sg.HasPatch() {
			found = true
			if sg.BeforeText != "the the" {
				t.Errorf("BeforeText = %q, want %q", sg.BeforeText, "the the")
			}
			if sg.AfterText != "the" {
				t.Errorf("AfterText = %q, want %q", sg.AfterText, "the")
			}
		}
	}
	if !found {
		t.Error("expected a repeated-word patch suggestion")
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name        string
		dims        DimensionResults
		wantOverall int
		wantStr     int
		wantWeak    int
	}{
		{
			name: "weighted average",
			dims: DimensionResults{
				Keyword:      types.KeywordAnalysis{Score: 100},
				Grammar:      types.GrammarCheck{Score: 50},
				Format:       types.FormatAnalysis{Score: 50, ATSCompatibility: 80},
				Quantitative: types.QuantitativeAnalysis{Score: 50},
			},
			// 0.4*100 + 0.2*50*3 = 70
			wantOverall: 70,
			wantStr:     1,
			wantWeak:    3,
		},
		{
			name: "all strong",
			dims: DimensionResults{
				Keyword:      types.KeywordAnalysis{Score: 90},
				Grammar:      types.GrammarCheck{Score: 92},
				Format:       types.FormatAnalysis{Score: 95, ATSCompatibility: 100},
				Quantitative: types.QuantitativeAnalysis{Score: 88},
			},
			wantOverall: 91,
			wantStr:     4,
			wantWeak:    0,
		},
		{
			name:        "all zero",
			dims:        DimensionResults{},
			wantOverall: 0,
			wantStr:     0,
			wantWeak:    4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Aggregate(tt.dims, nil, nil)
			if result.OverallScore != tt.wantOverall {
				t.Errorf("OverallScore = %d, want %d", result.OverallScore, tt.wantOverall)
			}
			if len(result.Strengths) != tt.wantStr {
				t.Errorf("Strengths = %v, want %d entries", result.Strengths, tt.wantStr)
			}
			if len(result.Weaknesses) != tt.wantWeak {
				t.Errorf("Weaknesses = %v, want %d entries", result.Weaknesses, tt.wantWeak)
			}
			if result.ID == "" {
				t.Error("result has empty ID")
			}
			if result.Suggestions == nil {
				t.Error("nil suggestions not normalized to an empty slice")
			}
			if result.ATSScore != tt.dims.Format.ATSCompatibility {
				t.Errorf("ATSScore = %d, want %d", result.ATSScore, tt.dims.Format.ATSCompatibility)
			}
		})
	}
}
