package scorer

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"resumelens/internal/config"
	"resumelens/internal/types"
)

const sampleResume = `John Doe

Summary
Software engineer with a focus on frontend platforms.

Experience
- Built React dashboards used by 40+ internal teams
- Led migration to TypeScript, reducing build failures by 30%

Skills
React, TypeScript, Node.js

Education
BS Computer Science, 2018
`

func TestScoreKeywords(t *testing.T) {
	s := NewRulesScorer()

	tests := []struct {
		name          string
		resume        string
		job           types.JobContext
		wantScore     int
		wantMatched   []string
		wantMissing   []string
		wantTotal     int
	}{
		{
			name:        "all keywords missing",
			resume:      "Managed projects.",
			job:         types.JobContext{Keywords: []string{"React", "Leadership"}},
			wantScore:   0,
			wantMatched: []string{},
			wantMissing: []string{"React", "Leadership"},
			wantTotal:   2,
		},
		{
			name:        "all keywords matched",
			resume:      sampleResume,
			job:         types.JobContext{Keywords: []string{"React", "TypeScript"}},
			wantScore:   100,
			wantMatched: []string{"React", "TypeScript"},
			wantMissing: []string{},
			wantTotal:   2,
		},
		{
			name:        "half coverage",
			resume:      sampleResume,
			job:         types.JobContext{Keywords: []string{"React", "Kubernetes"}},
			wantScore:   50,
			wantMatched: []string{"React"},
			wantMissing: []string{"Kubernetes"},
			wantTotal:   2,
		},
		{
			name:        "duplicate keywords are deduplicated",
			resume:      sampleResume,
			job:         types.JobContext{Keywords: []string{"React", "react"}},
			wantScore:   100,
			wantMatched: []string{"React"},
			wantMissing: []string{},
			wantTotal:   1,
		},
		{
			name:      "no keywords and no description",
			resume:    sampleResume,
			job:       types.JobContext{},
			wantScore: 0,
			wantTotal: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ScoreKeywords(context.Background(), Input{ResumeText: tt.resume, Job: tt.job})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", got.Score, tt.wantScore)
			}
			if got.TotalKeywords != tt.wantTotal {
				t.Errorf("TotalKeywords = %d, want %d", got.TotalKeywords, tt.wantTotal)
			}
			if tt.wantMatched != nil && len(got.MatchedKeywords) != len(tt.wantMatched) {
				t.Errorf("MatchedKeywords = %v, want %v", got.MatchedKeywords, tt.wantMatched)
			}
			for i, want := range tt.wantMissing {
				if i >= len(got.MissingKeywords) {
					t.Fatalf("MissingKeywords missing entry %q", want)
				}
				if got.MissingKeywords[i].Keyword != want {
					t.Errorf("MissingKeywords[%d] = %q, want %q", i, got.MissingKeywords[i].Keyword, want)
				}
			}
		})
	}
}

func TestScoreKeywordsExplicitMissingAreHighImportance(t *testing.T) {
	s := NewRulesScorer()
	got, err := s.ScoreKeywords(context.Background(), Input{
		ResumeText: "Managed projects.",
		Job:        types.JobContext{Keywords: []string{"React"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.MissingKeywords) != 1 {
		t.Fatalf("expected 1 missing keyword, got %d", len(got.MissingKeywords))
	}
	if got.MissingKeywords[0].Importance != types.ImportanceHigh {
		t.Errorf("Importance = %s, want high", got.MissingKeywords[0].Importance)
	}
	if len(got.MissingKeywords[0].RelatedTerms) == 0 {
		t.Error("expected related terms for React")
	}
}

func TestScoreKeywordsPolicyWeights(t *testing.T) {
	s := NewRulesScorer()
	policy := &config.Policy{
		KeywordWeights: map[string]float64{"react": 1.0, "kubernetes": 0.0},
	}
	got, err := s.ScoreKeywords(context.Background(), Input{
		ResumeText: sampleResume,
		Job:        types.JobContext{Keywords: []string{"React", "Kubernetes"}},
		Policy:     policy,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Kubernetes carries zero weight, so missing it should not hurt coverage
	if got.Score != 100 {
		t.Errorf("Score = %d, want 100", got.Score)
	}
	if got.MissingKeywords[0].Importance != types.ImportanceLow {
		t.Errorf("zero-weight keyword importance = %s, want low", got.MissingKeywords[0].Importance)
	}
}

func TestScoreKeywordsExtractsFromDescription(t *testing.T) {
	s := NewRulesScorer()
	got, err := s.ScoreKeywords(context.Background(), Input{
		ResumeText: sampleResume,
		Job: types.JobContext{
			Description: "We need React engineers. React experience and Kubernetes knowledge required. Kubernetes is used daily.",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TotalKeywords == 0 {
		t.Fatal("expected keywords extracted from description")
	}

	found := false
	for _, m := range got.MatchedKeywords {
		if m.Keyword == "react" {
			found = true
			if m.Frequency == 0 {
				t.Error("matched keyword has zero frequency")
			}
			if len(m.ContextSnippets) == 0 {
				t.Error("matched keyword has no context snippets")
			}
		}
	}
	if !found {
		t.Error("expected react to be extracted and matched")
	}
}

func TestScoreKeywordsPolicyStopWords(t *testing.T) {
	s := NewRulesScorer()
	description := "We need React engineers. React experience and Kubernetes knowledge required. Kubernetes is used daily."

	got, err := s.ScoreKeywords(context.Background(), Input{
		ResumeText: sampleResume,
		Job:        types.JobContext{Description: description},
		Policy:     &config.Policy{StopWords: []string{"Kubernetes"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, m := range got.MissingKeywords {
		if m.Keyword == "kubernetes" {
			t.Error("policy stop word was still extracted as a keyword")
		}
	}
	found := false
	for _, m := range got.MatchedKeywords {
		if m.Keyword == "react" {
			found = true
		}
	}
	if !found {
		t.Error("expected react to survive stop-word filtering")
	}

	// Explicit keywords bypass stop-word filtering
	got, err = s.ScoreKeywords(context.Background(), Input{
		ResumeText: sampleResume,
		Job:        types.JobContext{Keywords: []string{"Kubernetes"}},
		Policy:     &config.Policy{StopWords: []string{"Kubernetes"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TotalKeywords != 1 {
		t.Errorf("TotalKeywords = %d, want 1 (explicit keywords are not filtered)", got.TotalKeywords)
	}
}

func TestContextSnippetsUnicodeSafe(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		// Lowercasing these prefixes changes their byte length, which would
		// shift snippet bounds computed on a lowered copy.
		{"length-growing prefix", strings.Repeat("Ⱥ", 20) + " built React dashboards"},
		{"length-shrinking prefix", strings.Repeat("İ", 20) + " built React dashboards"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snippets := contextSnippets(tt.text, "react", 2)
			if len(snippets) != 1 {
				t.Fatalf("contextSnippets = %v, want one snippet", snippets)
			}
			if !utf8.ValidString(snippets[0]) {
				t.Errorf("snippet is not valid UTF-8: %q", snippets[0])
			}
			if !strings.Contains(strings.ToLower(snippets[0]), "react") {
				t.Errorf("snippet %q does not contain the keyword", snippets[0])
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"tech suffixes survive", "C++ and C# and Node.js", []string{"c++", "c#", "node.js"}},
		{"stop words dropped", "the team with strong experience", []string{}},
		{"short tokens dropped", "go is ok", []string{}},
		{"mixed", "Senior React developer", []string{"senior", "react", "developer"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Tokenize(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCountWord(t *testing.T) {
	tests := []struct {
		name string
		text string
		word string
		want int
	}{
		{"whole word only", "javascript is not java", "java", 1},
		{"case insensitive", "React and REACT and react", "react", 3},
		{"absent", "plain text", "golang", 0},
		{"empty word", "anything", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountWord(tt.text, tt.word); got != tt.want {
				t.Errorf("CountWord(%q, %q) = %d, want %d", tt.text, tt.word, got, tt.want)
			}
		})
	}
}

func BenchmarkScoreKeywords(b *testing.B) {
	s := NewRulesScorer()
	in := Input{
		ResumeText: sampleResume,
		Job:        types.JobContext{Keywords: []string{"React", "TypeScript", "Kubernetes", "Leadership"}},
	}
	for b.Loop() {
		if _, err := s.ScoreKeywords(context.Background(), in); err != nil {
			b.Fatal(err)
		}
	}
}
