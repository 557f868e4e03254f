package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"resumelens/internal/config"
	"resumelens/internal/scorer"
	"resumelens/internal/types"
)

// Estimated overall-score improvements per finding class. Advisory numbers
// only: they model the likely effect of adopting the suggestion and are
// never re-validated against an actual reanalysis.
const (
	estKeywordHigh    = 8
	estKeywordMedium  = 5
	estKeywordLow     = 3
	estStructure      = 7
	estAchievement    = 6
	estFormat         = 5
	estDateFormat     = 3
	estRepeatedWord   = 3
	estGrammarGeneral = 2

	maxAchievementPatches = 3
)

// GenerateSuggestions maps dimension findings to an ordered suggestion list.
// It is deterministic: identical inputs yield identical suggestion content
// and order (ids are freshly generated each call). Priorities are dense,
// ascending from 1, and the list is capped by the policy's MaxSuggestions.
func GenerateSuggestions(dims DimensionResults, workingText string, policy *config.Policy) []types.Suggestion {
	var candidates []types.Suggestion

	var policyVerbs []string
	maxSuggestions := 10
	if policy != nil {
		policyVerbs = policy.ImpactWords
		if policy.MaxSuggestions > 0 {
			maxSuggestions = policy.MaxSuggestions
		}
	}

	unquantified := scorer.UnquantifiedAchievements(workingText, policyVerbs)
	patchedLines := map[string]struct{}{}

	candidates = append(candidates, keywordSuggestions(dims.Keyword, unquantified, patchedLines)...)
	candidates = append(candidates, achievementSuggestions(unquantified, patchedLines)...)
	candidates = append(candidates, grammarSuggestions(dims.Grammar)...)
	candidates = append(candidates, formatSuggestions(dims.Format)...)

	// Priority: highest impact first, then largest estimated improvement,
	// ties broken by generation order (stable)
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Impact != candidates[j].Impact {
			return impactRank(candidates[i].Impact) > impactRank(candidates[j].Impact)
		}
		return candidates[i].EstimatedScoreImprovement > candidates[j].EstimatedScoreImprovement
	})

	if len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}
	for i := range candidates {
		candidates[i].ID = uuid.NewString()
		candidates[i].Priority = i + 1
	}
	return candidates
}

func impactRank(impact types.ImpactLevel) int {
	switch impact {
	case types.ImpactHigh:
		return 3
	case types.ImpactMedium:
		return 2
	default:
		return 1
	}
}

// keywordSuggestions turns missing keywords into suggestions. The most
// important missing keyword is paired with the first un-quantified
// achievement line to form a literal rewrite patch; the rest are advisory.
func keywordSuggestions(kw types.KeywordAnalysis, unquantified []scorer.Line, patchedLines map[string]struct{}) []types.Suggestion {
	var suggestions []types.Suggestion

	for i, missing := range kw.MissingKeywords {
		s := types.Suggestion{
			Type:        types.SuggestionTypeKeyword,
			Title:       fmt.Sprintf("Add the keyword %q", missing.Keyword),
			Description: fmt.Sprintf("The target job asks for %q but your resume never mentions it.", missing.Keyword),
			Impact:      importanceToImpact(missing.Importance),
			Section:     firstOr(missing.SuggestedPlacement, "skills"),
		}
		s.EstimatedScoreImprovement = keywordEstimate(missing.Importance)

		if i == 0 && len(unquantified) > 0 {
			// Rewrite a real line so the keyword lands with evidence, not
			// just a list entry
			line := unquantified[0]
			patchedLines[line.Text] = struct{}{}
			s.BeforeText = line.Text
			s.AfterText = rewriteWithKeyword(line.Text, missing.Keyword)
			s.Section = "experience"
			s.SuggestionText = fmt.Sprintf("Rewrite %q to mention %q with a measurable result.", line.Text, missing.Keyword)
		} else {
			s.SuggestionText = advisoryKeywordText(missing)
		}
		suggestions = append(suggestions, s)
	}
	return suggestions
}

func advisoryKeywordText(missing types.MissingKeyword) string {
	text := fmt.Sprintf("Mention %q in your %s section", missing.Keyword, firstOr(missing.SuggestedPlacement, "skills"))
	if len(missing.RelatedTerms) > 0 {
		text += fmt.Sprintf("; related terms worth covering: %s", strings.Join(missing.RelatedTerms, ", "))
	}
	return text + "."
}

// rewriteWithKeyword turns a bare achievement line into one that names the
// keyword and carries quantified results.
func rewriteWithKeyword(line, keyword string) string {
	base := strings.TrimSuffix(strings.TrimSpace(line), ".")
	return fmt.Sprintf("%s across 3+ initiatives leveraging %s, improving outcomes by 20%%.", base, keyword)
}

// rewriteWithQuantifier adds a measurable result to an achievement line.
func rewriteWithQuantifier(line string) string {
	base := strings.TrimSuffix(strings.TrimSpace(line), ".")
	return fmt.Sprintf("%s, delivering a 15%% improvement in team outcomes.", base)
}

func keywordEstimate(importance types.KeywordImportance) int {
	switch importance {
	case types.ImportanceHigh:
		return estKeywordHigh
	case types.ImportanceMedium:
		return estKeywordMedium
	default:
		return estKeywordLow
	}
}

func importanceToImpact(importance types.KeywordImportance) types.ImpactLevel {
	switch importance {
	case types.ImportanceHigh:
		return types.ImpactHigh
	case types.ImportanceMedium:
		return types.ImpactMedium
	default:
		return types.ImpactLow
	}
}

// achievementSuggestions proposes quantified rewrites for achievement lines
// that lack numbers, skipping lines already consumed by a keyword patch.
func achievementSuggestions(unquantified []scorer.Line, patchedLines map[string]struct{}) []types.Suggestion {
	var suggestions []types.Suggestion
	for _, line := range unquantified {
		if _, taken := patchedLines[line.Text]; taken {
			continue
		}
		if len(suggestions) >= maxAchievementPatches {
			break
		}
		patchedLines[line.Text] = struct{}{}
		suggestions = append(suggestions, types.Suggestion{
			Type:                      types.SuggestionTypeAchievement,
			Title:                     "Quantify this achievement",
			Description:               fmt.Sprintf("%q states what you did but not the measurable result.", line.Trimmed),
			SuggestionText:            "Add a concrete number: a percentage, dollar amount, or count.",
			Impact:                    types.ImpactMedium,
			EstimatedScoreImprovement: estAchievement,
			BeforeText:                line.Text,
			AfterText:                 rewriteWithQuantifier(line.Text),
			Section:                   "experience",
		})
	}
	return suggestions
}

// grammarSuggestions maps grammar findings to suggestions. Repeated words
// get an exact patch; everything else is advisory since the fix needs
// judgment.
func grammarSuggestions(gr types.GrammarCheck) []types.Suggestion {
	var suggestions []types.Suggestion
	for _, issue := range gr.Issues {
		s := types.Suggestion{
			Type:                      types.SuggestionTypeGrammar,
			Title:                     grammarTitle(issue.Type),
			Description:               fmt.Sprintf("Found %q.", issue.Text),
			SuggestionText:            issue.Suggestion,
			Impact:                    types.ImpactLow,
			EstimatedScoreImprovement: estGrammarGeneral,
		}
		if issue.Type == "repeated-word" {
			fields := strings.Fields(issue.Text)
			if len(fields) == 2 {
				s.BeforeText = issue.Text
				s.AfterText = fields[0]
				s.EstimatedScoreImprovement = estRepeatedWord
			}
		}
		suggestions = append(suggestions, s)
	}
	return suggestions
}

func grammarTitle(issueType string) string {
	switch issueType {
	case "repeated-word":
		return "Remove a duplicated word"
	case "passive-voice":
		return "Switch to active voice"
	case "weak-verb":
		return "Use a stronger verb"
	case "long-sentence":
		return "Shorten a long sentence"
	default:
		return "Fix a writing issue"
	}
}

// formatSuggestions maps structural findings to suggestions. Missing
// standard sections are structural; extraction hazards are format issues.
func formatSuggestions(fm types.FormatAnalysis) []types.Suggestion {
	var suggestions []types.Suggestion

	for _, section := range fm.SectionStructure {
		if section.Present || !isRequiredSection(section.Name) {
			continue
		}
		suggestions = append(suggestions, types.Suggestion{
			Type:                      types.SuggestionTypeStructure,
			Title:                     fmt.Sprintf("Add a %q section", section.Name),
			Description:               fmt.Sprintf("No %q section heading was found; ATS software relies on standard headings to classify content.", section.Name),
			SuggestionText:            fmt.Sprintf("Add a clearly labeled %q heading with the relevant content beneath it.", strings.ToUpper(section.Name[:1])+section.Name[1:]),
			Impact:                    types.ImpactHigh,
			EstimatedScoreImprovement: estStructure,
			Section:                   section.Name,
		})
	}

	for _, issue := range fm.Issues {
		if strings.HasPrefix(issue, "missing standard section") || issue == "resume text is empty" {
			continue
		}
		est := estFormat
		impact := types.ImpactMedium
		if strings.Contains(issue, "date format") {
			est = estDateFormat
			impact = types.ImpactLow
		}
		suggestions = append(suggestions, types.Suggestion{
			Type:                      types.SuggestionTypeFormat,
			Title:                     "Fix a formatting hazard",
			Description:               issue,
			SuggestionText:            matchingRecommendation(fm.Recommendations, issue),
			Impact:                    impact,
			EstimatedScoreImprovement: est,
		})
	}
	return suggestions
}

func isRequiredSection(name string) bool {
	switch name {
	case "experience", "education", "skills":
		return true
	}
	return false
}

// matchingRecommendation pairs an issue with its recommendation by shared
// keywords, falling back to the issue text itself.
func matchingRecommendation(recommendations []string, issue string) string {
	for _, rec := range recommendations {
		switch {
		case strings.Contains(issue, "table") && strings.Contains(rec, "table"):
			return rec
		case strings.Contains(issue, "date") && strings.Contains(rec, "date"):
			return rec
		}
	}
	return "Resolve: " + issue
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 {
		return values[0]
	}
	return fallback
}
