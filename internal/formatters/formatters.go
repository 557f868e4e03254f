package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumelens/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "AnalysisResult", &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", "AnalysisResult", &AnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", "OptimizeResumeOutput", &OptimizeTextFormatter{})
	registry.RegisterFormatter("markdown", "OptimizeResumeOutput", &OptimizeMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalysisResult, *types.AnalysisResult:
		return "AnalysisResult"
	case types.OptimizeResumeOutput, *types.OptimizeResumeOutput:
		return "OptimizeResumeOutput"
	default:
		return "any"
	}
}

func asAnalysisResult(data any) (types.AnalysisResult, bool) {
	switch v := data.(type) {
	case types.AnalysisResult:
		return v, true
	case *types.AnalysisResult:
		return *v, true
	}
	return types.AnalysisResult{}, false
}

func asOptimizeOutput(data any) (types.OptimizeResumeOutput, bool) {
	switch v := data.(type) {
	case types.OptimizeResumeOutput:
		return v, true
	case *types.OptimizeResumeOutput:
		return *v, true
	}
	return types.OptimizeResumeOutput{}, false
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// AnalysisTextFormatter handles text formatting for analysis results
type AnalysisTextFormatter struct{}

func (atf *AnalysisTextFormatter) Format(data any) (string, error) {
	result, ok := asAnalysisResult(data)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== RESUME ANALYSIS ===\n\n")
	output.WriteString(fmt.Sprintf("Overall Score: %d/100\n", result.OverallScore))
	output.WriteString(fmt.Sprintf("ATS Compatibility: %d/100\n\n", result.ATSScore))

	output.WriteString("=== DIMENSION SCORES ===\n")
	output.WriteString(fmt.Sprintf("Keywords:     %d/100 (%d of %d matched)\n",
		result.KeywordAnalysis.Score, len(result.KeywordAnalysis.MatchedKeywords), result.KeywordAnalysis.TotalKeywords))
	output.WriteString(fmt.Sprintf("Grammar:      %d/100 (%d issues, readability %d)\n",
		result.GrammarCheck.Score, result.GrammarCheck.TotalIssues, result.GrammarCheck.OverallReadability))
	output.WriteString(fmt.Sprintf("Format:       %d/100\n", result.FormatAnalysis.Score))
	output.WriteString(fmt.Sprintf("Quantitative: %d/100 (%d of %d achievements quantified)\n\n",
		result.QuantitativeAnalysis.Score, result.QuantitativeAnalysis.AchievementsWithNumbers, result.QuantitativeAnalysis.TotalAchievements))

	if len(result.Strengths) > 0 {
		output.WriteString("Strengths:\n")
		for _, strength := range result.Strengths {
			output.WriteString(fmt.Sprintf("- %s\n", strength))
		}
		output.WriteString("\n")
	}
	if len(result.Weaknesses) > 0 {
		output.WriteString("Weaknesses:\n")
		for _, weakness := range result.Weaknesses {
			output.WriteString(fmt.Sprintf("- %s\n", weakness))
		}
		output.WriteString("\n")
	}

	if len(result.KeywordAnalysis.MissingKeywords) > 0 {
		output.WriteString("=== MISSING KEYWORDS ===\n")
		for _, missing := range result.KeywordAnalysis.MissingKeywords {
			output.WriteString(fmt.Sprintf("- %s (importance: %s)\n", missing.Keyword, missing.Importance))
		}
		output.WriteString("\n")
	}

	if len(result.Suggestions) > 0 {
		output.WriteString("=== SUGGESTIONS ===\n\n")
		for _, suggestion := range result.Suggestions {
			output.WriteString(fmt.Sprintf("%d. %s [%s impact, +%d]\n",
				suggestion.Priority, suggestion.Title, suggestion.Impact, suggestion.EstimatedScoreImprovement))
			output.WriteString("   ")
			output.WriteString(suggestion.SuggestionText)
			output.WriteString("\n")
			if suggestion.HasPatch() {
				output.WriteString(fmt.Sprintf("   Before: %s\n", suggestion.BeforeText))
				output.WriteString(fmt.Sprintf("   After:  %s\n", suggestion.AfterText))
			}
			output.WriteString("\n")
		}
	} else {
		output.WriteString("No suggestions. The resume scores well across all dimensions.\n")
	}

	return output.String(), nil
}

func (atf *AnalysisTextFormatter) SupportedType() string {
	return "AnalysisResult"
}

// AnalysisMarkdownFormatter handles markdown formatting for analysis results
type AnalysisMarkdownFormatter struct{}

func (amf *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, ok := asAnalysisResult(data)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Resume Analysis\n\n")
	output.WriteString(fmt.Sprintf("**Overall Score:** %d/100\n\n", result.OverallScore))
	output.WriteString(fmt.Sprintf("**ATS Compatibility:** %d/100\n\n", result.ATSScore))

	output.WriteString("## Dimension Scores\n\n")
	output.WriteString("| Dimension | Score |\n|---|---|\n")
	output.WriteString(fmt.Sprintf("| Keywords | %d/100 |\n", result.KeywordAnalysis.Score))
	output.WriteString(fmt.Sprintf("| Grammar | %d/100 |\n", result.GrammarCheck.Score))
	output.WriteString(fmt.Sprintf("| Format | %d/100 |\n", result.FormatAnalysis.Score))
	output.WriteString(fmt.Sprintf("| Quantitative | %d/100 |\n\n", result.QuantitativeAnalysis.Score))

	if len(result.Strengths) > 0 {
		output.WriteString("## Strengths\n\n")
		for _, strength := range result.Strengths {
			output.WriteString(fmt.Sprintf("- %s\n", strength))
		}
		output.WriteString("\n")
	}
	if len(result.Weaknesses) > 0 {
		output.WriteString("## Weaknesses\n\n")
		for _, weakness := range result.Weaknesses {
			output.WriteString(fmt.Sprintf("- %s\n", weakness))
		}
		output.WriteString("\n")
	}

	if len(result.KeywordAnalysis.MissingKeywords) > 0 {
		output.WriteString("## Missing Keywords\n\n")
		for _, missing := range result.KeywordAnalysis.MissingKeywords {
			output.WriteString(fmt.Sprintf("- **%s** (importance: %s)", missing.Keyword, missing.Importance))
			if len(missing.RelatedTerms) > 0 {
				output.WriteString(fmt.Sprintf(" (related: %s)", strings.Join(missing.RelatedTerms, ", ")))
			}
			output.WriteString("\n")
		}
		output.WriteString("\n")
	}

	if len(result.Suggestions) > 0 {
		output.WriteString("## Suggestions\n\n")
		for _, suggestion := range result.Suggestions {
			output.WriteString(fmt.Sprintf("### %d. %s\n\n", suggestion.Priority, suggestion.Title))
			output.WriteString(fmt.Sprintf("**Impact:** %s (+%d estimated)\n\n", suggestion.Impact, suggestion.EstimatedScoreImprovement))
			output.WriteString(suggestion.SuggestionText)
			output.WriteString("\n\n")
			if suggestion.HasPatch() {
				output.WriteString(fmt.Sprintf("**Before:** %s\n\n", suggestion.BeforeText))
				output.WriteString(fmt.Sprintf("**After:** %s\n\n", suggestion.AfterText))
			}
		}
	} else {
		output.WriteString("## No Suggestions\n\nThe resume scores well across all dimensions.\n")
	}

	return output.String(), nil
}

func (amf *AnalysisMarkdownFormatter) SupportedType() string {
	return "AnalysisResult"
}

// OptimizeTextFormatter handles text formatting for optimize results
type OptimizeTextFormatter struct{}

func (otf *OptimizeTextFormatter) Format(data any) (string, error) {
	result, ok := asOptimizeOutput(data)
	if !ok {
		return "", fmt.Errorf("expected OptimizeResumeOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== OPTIMIZED RESUME ===\n\n")
	output.WriteString(result.Document)
	output.WriteString("\n\n")

	output.WriteString("=== OPTIMIZATION SUMMARY ===\n")
	output.WriteString(fmt.Sprintf("Patches applied: %d\n", result.AppliedPatches))
	output.WriteString(fmt.Sprintf("Score: %d -> %d\n\n", result.InitialScore, result.FinalScore))

	analysis, err := (&AnalysisTextFormatter{}).Format(result.Analysis)
	if err != nil {
		return "", err
	}
	output.WriteString(analysis)

	return output.String(), nil
}

func (otf *OptimizeTextFormatter) SupportedType() string {
	return "OptimizeResumeOutput"
}

// OptimizeMarkdownFormatter handles markdown formatting for optimize results
type OptimizeMarkdownFormatter struct{}

func (omf *OptimizeMarkdownFormatter) Format(data any) (string, error) {
	result, ok := asOptimizeOutput(data)
	if !ok {
		return "", fmt.Errorf("expected OptimizeResumeOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Optimized Resume\n\n")
	output.WriteString(result.Document)
	output.WriteString("\n\n")

	output.WriteString("## Optimization Summary\n\n")
	output.WriteString(fmt.Sprintf("**Patches applied:** %d\n\n", result.AppliedPatches))
	output.WriteString(fmt.Sprintf("**Score:** %d to %d\n\n", result.InitialScore, result.FinalScore))

	analysis, err := (&AnalysisMarkdownFormatter{}).Format(result.Analysis)
	if err != nil {
		return "", err
	}
	output.WriteString(analysis)

	return output.String(), nil
}

func (omf *OptimizeMarkdownFormatter) SupportedType() string {
	return "OptimizeResumeOutput"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
