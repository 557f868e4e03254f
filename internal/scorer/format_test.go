package scorer

import (
	"context"
	"strings"
	"testing"

	"resumelens/internal/config"
)

func TestAnalyzeFormat(t *testing.T) {
	s := NewRulesScorer()

	tests := []struct {
		name       string
		resume     string
		wantScore  int
		wantATS    int
		wantIssues []string
	}{
		{
			name:       "complete resume",
			resume:     sampleResume,
			wantScore:  100,
			wantATS:    100,
			wantIssues: []string{},
		},
		{
			name:      "missing all required sections",
			resume:    "Managed projects.",
			wantScore: 100 - 3*15 - 5,
			wantATS:   100 - 3*12,
			wantIssues: []string{
				"missing standard section: experience",
				"missing standard section: education",
				"missing standard section: skills",
			},
		},
		{
			name: "table characters",
			resume: sampleResume + "\n| Skill | Years |\n| React | 5 |\n",
			wantScore:  85,
			wantATS:    75,
			wantIssues: []string{"contains table or column characters that break ATS text extraction"},
		},
		{
			name: "mixed date formats",
			resume: strings.Replace(sampleResume,
				"BS Computer Science, 2018",
				"BS Computer Science, Jan 2018 - 06/2022", 1),
			wantScore:  90,
			wantATS:    90,
			wantIssues: []string{"inconsistent date formats (mixes \"Jan 2020\" and \"01/2020\" styles)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.AnalyzeFormat(context.Background(), Input{ResumeText: tt.resume})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d (issues: %v)", got.Score, tt.wantScore, got.Issues)
			}
			if got.ATSCompatibility != tt.wantATS {
				t.Errorf("ATSCompatibility = %d, want %d", got.ATSCompatibility, tt.wantATS)
			}
			if len(got.Issues) != len(tt.wantIssues) {
				t.Fatalf("Issues = %v, want %v", got.Issues, tt.wantIssues)
			}
			for i := range tt.wantIssues {
				if got.Issues[i] != tt.wantIssues[i] {
					t.Errorf("Issues[%d] = %q, want %q", i, got.Issues[i], tt.wantIssues[i])
				}
			}
		})
	}
}

func TestAnalyzeFormatSectionStructure(t *testing.T) {
	s := NewRulesScorer()
	got, err := s.AnalyzeFormat(context.Background(), Input{ResumeText: sampleResume})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byName := map[string]int{}
	for _, sec := range got.SectionStructure {
		if sec.Present {
			byName[sec.Name] = sec.Order
		} else if sec.Order != -1 {
			t.Errorf("absent section %q has Order %d, want -1", sec.Name, sec.Order)
		}
	}
	// sampleResume lists Summary, Experience, Skills, Education in that order
	wantOrder := map[string]int{"summary": 1, "experience": 2, "skills": 3, "education": 4}
	for name, want := range wantOrder {
		if byName[name] != want {
			t.Errorf("section %q Order = %d, want %d", name, byName[name], want)
		}
	}
}

func TestAnalyzeFormatHeadingAliases(t *testing.T) {
	s := NewRulesScorer()
	resume := `Work History
- Maintained billing services

Academic Background
BS Mathematics

Core Competencies
Go, Postgres
`
	got, err := s.AnalyzeFormat(context.Background(), Input{ResumeText: resume})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, issue := range got.Issues {
		if strings.HasPrefix(issue, "missing standard section") {
			t.Errorf("alias headings not recognized: %q", issue)
		}
	}
}

func TestAnalyzeFormatPolicyAliases(t *testing.T) {
	s := NewRulesScorer()
	policy := &config.Policy{
		SectionAliases: map[string][]string{"experience": {"what i have done"}},
	}
	resume := `What I Have Done
- Maintained billing services

Education
BS Mathematics

Skills
Go
`
	got, err := s.AnalyzeFormat(context.Background(), Input{ResumeText: resume, Policy: policy})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, issue := range got.Issues {
		if strings.Contains(issue, "experience") {
			t.Errorf("policy alias for experience not honored: %q", issue)
		}
	}
}

func TestAnalyzeFormatEmptyText(t *testing.T) {
	s := NewRulesScorer()
	got, err := s.AnalyzeFormat(context.Background(), Input{ResumeText: ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Score != 0 || got.ATSCompatibility != 0 {
		t.Errorf("empty resume scored %d/%d, want 0/0", got.Score, got.ATSCompatibility)
	}
	if len(got.SectionStructure) != len(orderedSectionNames) {
		t.Errorf("SectionStructure has %d entries, want %d", len(got.SectionStructure), len(orderedSectionNames))
	}
	for _, sec := range got.SectionStructure {
		if sec.Present || sec.Order != -1 {
			t.Errorf("section %q should be absent with Order -1, got %+v", sec.Name, sec)
		}
	}
}
