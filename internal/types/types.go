package types

import "time"

// JobContext carries the target job a resume is analyzed against.
// Keywords is optional; when empty, keywords are extracted from Description.
type JobContext struct {
	Title       string   `json:"title"`
	Company     string   `json:"company,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Description string   `json:"description,omitempty"`
}

// KeywordImportance ranks how much a missing keyword matters for the target job.
type KeywordImportance string

const (
	ImportanceLow    KeywordImportance = "low"
	ImportanceMedium KeywordImportance = "medium"
	ImportanceHigh   KeywordImportance = "high"
)

// MatchedKeyword is a job keyword found in the resume text.
type MatchedKeyword struct {
	Keyword         string   `json:"keyword"`
	Frequency       int      `json:"frequency"`
	RelevanceScore  float64  `json:"relevanceScore"` // 0.0-1.0
	ContextSnippets []string `json:"contextSnippets"`
}

// MissingKeyword is a job keyword absent from the resume text.
type MissingKeyword struct {
	Keyword            string            `json:"keyword"`
	Importance         KeywordImportance `json:"importance"`
	SuggestedPlacement []string          `json:"suggestedPlacement"` // section names
	RelatedTerms       []string          `json:"relatedTerms"`
}

// KeywordAnalysis represents the keyword-match dimension result.
type KeywordAnalysis struct {
	Score           int              `json:"score"` // 0-100
	TotalKeywords   int              `json:"totalKeywords"`
	MatchedKeywords []MatchedKeyword `json:"matchedKeywords"`
	MissingKeywords []MissingKeyword `json:"missingKeywords"`
}

// GrammarIssue is a single grammar or readability finding with its position.
type GrammarIssue struct {
	Type       string `json:"type"` // "repeated-word", "passive-voice", "weak-verb", "long-sentence"
	Text       string `json:"text"`
	Suggestion string `json:"suggestion"`
	Start      int    `json:"start"` // byte offset into the analyzed text
	End        int    `json:"end"`
}

// GrammarCheck represents the grammar/readability dimension result.
type GrammarCheck struct {
	Score              int            `json:"score"` // 0-100
	TotalIssues        int            `json:"totalIssues"`
	Issues             []GrammarIssue `json:"issues"`
	OverallReadability int            `json:"overallReadability"` // 0-100
}

// SectionInfo describes one detected resume section.
type SectionInfo struct {
	Name    string `json:"name"`
	Present bool   `json:"present"`
	Order   int    `json:"order"` // -1 when absent
}

// FormatAnalysis represents the format/ATS-compatibility dimension result.
type FormatAnalysis struct {
	Score            int           `json:"score"`            // 0-100
	ATSCompatibility int           `json:"atsCompatibility"` // 0-100
	Issues           []string      `json:"issues"`
	Recommendations  []string      `json:"recommendations"`
	SectionStructure []SectionInfo `json:"sectionStructure"`
}

// QuantitativeAnalysis represents the quantified-achievement dimension result.
type QuantitativeAnalysis struct {
	Score                   int      `json:"score"` // 0-100
	AchievementsWithNumbers int      `json:"achievementsWithNumbers"`
	TotalAchievements       int      `json:"totalAchievements"`
	ImpactWords             []string `json:"impactWords"`
}

// SuggestionType tags which analysis dimension a suggestion came from.
// SuggestionTypeOther is the fallback for anything outside the known set.
type SuggestionType string

const (
	SuggestionTypeKeyword     SuggestionType = "keyword"
	SuggestionTypeAchievement SuggestionType = "achievement"
	SuggestionTypeGrammar     SuggestionType = "grammar"
	SuggestionTypeStructure   SuggestionType = "structure"
	SuggestionTypeFormat      SuggestionType = "format"
	SuggestionTypeOther       SuggestionType = "other"
)

// ImpactLevel grades a suggestion's expected effect on the overall score.
type ImpactLevel string

const (
	ImpactLow    ImpactLevel = "low"
	ImpactMedium ImpactLevel = "medium"
	ImpactHigh   ImpactLevel = "high"
)

// Suggestion is one actionable recommendation. When BeforeText and AfterText
// are both non-empty they define an exact-match text patch against the
// working document; when both are empty the suggestion is advisory-only.
// A suggestion is never half-specified.
type Suggestion struct {
	ID                        string         `json:"id"`
	Type                      SuggestionType `json:"type"`
	Title                     string         `json:"title"`
	Description               string         `json:"description"`
	SuggestionText            string         `json:"suggestionText"`
	Impact                    ImpactLevel    `json:"impact"`
	Priority                  int            `json:"priority"` // 1 = most urgent, dense ascending
	EstimatedScoreImprovement int            `json:"estimatedScoreImprovement"`
	BeforeText                string         `json:"beforeText,omitempty"`
	AfterText                 string         `json:"afterText,omitempty"`
	Section                   string         `json:"section"`
}

// HasPatch reports whether the suggestion carries a literal text patch.
func (s Suggestion) HasPatch() bool {
	return s.BeforeText != "" && s.AfterText != ""
}

// AnalysisResult is the immutable snapshot produced by one analysis run.
// Suggestions are sorted by ascending Priority.
type AnalysisResult struct {
	ID                   string               `json:"id"`
	OverallScore         int                  `json:"overallScore"` // 0-100
	ATSScore             int                  `json:"atsScore"`     // 0-100
	KeywordAnalysis      KeywordAnalysis      `json:"keywordAnalysis"`
	GrammarCheck         GrammarCheck         `json:"grammarCheck"`
	FormatAnalysis       FormatAnalysis       `json:"formatAnalysis"`
	QuantitativeAnalysis QuantitativeAnalysis `json:"quantitativeAnalysis"`
	Suggestions          []Suggestion         `json:"suggestions"`
	Strengths            []string             `json:"strengths"`
	Weaknesses           []string             `json:"weaknesses"`
	CreatedAt            time.Time            `json:"createdAt"`
	ProcessingTimeMs     int64                `json:"processingTimeMs"`
}

// FindSuggestion returns the suggestion with the given id, if present.
func (r *AnalysisResult) FindSuggestion(id string) (Suggestion, bool) {
	for _, s := range r.Suggestions {
		if s.ID == id {
			return s, true
		}
	}
	return Suggestion{}, false
}

// OptimizeResumeOutput is the result of an analyze-adopt-apply-reanalyze
// round trip: the patched document plus the final analysis it scores to.
type OptimizeResumeOutput struct {
	Document       string         `json:"document"`
	AppliedPatches int            `json:"appliedPatches"`
	InitialScore   int            `json:"initialScore"`
	FinalScore     int            `json:"finalScore"`
	Analysis       AnalysisResult `json:"analysis"`
}

// SuggestionStatus is the lifecycle state of a single suggestion.
type SuggestionStatus string

const (
	StatusProposed SuggestionStatus = "proposed"
	StatusAdopted  SuggestionStatus = "adopted"
	StatusIgnored  SuggestionStatus = "ignored"
	StatusModified SuggestionStatus = "modified"
)

// SuggestionState is the per-suggestion lifecycle record. ModifiedText is set
// only while Status is StatusModified.
type SuggestionState struct {
	AnalysisID   string           `json:"analysisId"`
	SuggestionID string           `json:"suggestionId"`
	Status       SuggestionStatus `json:"status"`
	ModifiedText string           `json:"modifiedText,omitempty"`
}

// LifecycleEvent records one lifecycle transition, for UI notification.
type LifecycleEvent struct {
	SuggestionID string           `json:"suggestionId"`
	OldStatus    SuggestionStatus `json:"oldStatus"`
	NewStatus    SuggestionStatus `json:"newStatus"`
}
