package scorer

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"resumelens/internal/config"
	"resumelens/internal/types"
)

// maxExtractedKeywords caps how many keywords are pulled from a free-text
// job description when no explicit keyword list is supplied.
const maxExtractedKeywords = 12

// relatedTerms maps common keywords to adjacent terms worth mentioning
// alongside them. Lookup is case-insensitive.
var relatedTerms = map[string][]string{
	"react":       {"javascript", "frontend", "hooks"},
	"angular":     {"typescript", "frontend"},
	"vue":         {"javascript", "frontend"},
	"typescript":  {"javascript", "node.js"},
	"javascript":  {"typescript", "es6"},
	"node.js":     {"javascript", "express", "backend"},
	"python":      {"django", "pandas", "automation"},
	"java":        {"spring", "jvm"},
	"golang":      {"go", "microservices"},
	"kubernetes":  {"docker", "helm", "containers"},
	"docker":      {"containers", "kubernetes"},
	"aws":         {"cloud", "ec2", "s3"},
	"sql":         {"postgresql", "mysql", "databases"},
	"leadership":  {"management", "mentoring", "team building"},
	"management":  {"leadership", "planning", "stakeholders"},
	"agile":       {"scrum", "kanban", "sprint planning"},
	"scrum":       {"agile", "sprint planning"},
	"devops":      {"ci/cd", "automation", "infrastructure"},
	"ci/cd":       {"jenkins", "github actions", "pipelines"},
	"testing":     {"unit tests", "qa", "automation"},
	"microservices": {"apis", "distributed systems"},
	"communication": {"presentation", "collaboration"},
}

// ScoreKeywords implements Scorer. Coverage of the effective keyword set is
// weighted by per-keyword policy overrides and scaled to [0,100].
func (s *RulesScorer) ScoreKeywords(_ context.Context, in Input) (types.KeywordAnalysis, error) {
	explicit := len(in.Job.Keywords) > 0
	keywords := effectiveKeywords(in.Job, in.Policy)

	analysis := types.KeywordAnalysis{
		TotalKeywords:   len(keywords),
		MatchedKeywords: []types.MatchedKeyword{},
		MissingKeywords: []types.MissingKeyword{},
	}
	if len(keywords) == 0 {
		return analysis, nil
	}

	var weightSum, matchedWeight float64
	for _, kw := range keywords {
		weight := keywordWeight(kw, in)
		weightSum += weight

		freq := CountWord(in.ResumeText, kw)
		if freq > 0 {
			matchedWeight += weight
			analysis.MatchedKeywords = append(analysis.MatchedKeywords, types.MatchedKeyword{
				Keyword:         kw,
				Frequency:       freq,
				RelevanceScore:  relevanceScore(in.ResumeText, kw, freq),
				ContextSnippets: contextSnippets(in.ResumeText, kw, 2),
			})
		} else {
			analysis.MissingKeywords = append(analysis.MissingKeywords, types.MissingKeyword{
				Keyword:            kw,
				Importance:         keywordImportance(kw, in, explicit),
				SuggestedPlacement: []string{"skills", "experience"},
				RelatedTerms:       lookupRelatedTerms(kw),
			})
		}
	}

	if weightSum > 0 {
		analysis.Score = clampScore(int(math.Round(100 * matchedWeight / weightSum)))
	}
	return analysis, nil
}

// effectiveKeywords returns the explicit keyword list when present, otherwise
// the most frequent terms extracted from the job description. Policy stop
// words only apply to extraction; explicit keywords were asked for by name.
func effectiveKeywords(job types.JobContext, policy *config.Policy) []string {
	if len(job.Keywords) > 0 {
		seen := make(map[string]struct{}, len(job.Keywords))
		keywords := make([]string, 0, len(job.Keywords))
		for _, kw := range job.Keywords {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			low := strings.ToLower(kw)
			if _, dup := seen[low]; dup {
				continue
			}
			seen[low] = struct{}{}
			keywords = append(keywords, kw)
		}
		return keywords
	}
	var extraStop []string
	if policy != nil {
		extraStop = policy.StopWords
	}
	return extractKeywords(job.Description, extraStop)
}

// extractKeywords pulls candidate keywords from free text, ranked by
// frequency with first-occurrence order breaking ties. extraStop holds
// policy-supplied stop words on top of the built-in set.
func extractKeywords(description string, extraStop []string) []string {
	tokens := Tokenize(description)
	if len(tokens) == 0 {
		return nil
	}

	skip := make(map[string]struct{}, len(extraStop))
	for _, w := range extraStop {
		skip[strings.ToLower(w)] = struct{}{}
	}

	type counted struct {
		token string
		count int
		first int
	}
	index := make(map[string]*counted)
	var order []*counted
	for i, tok := range tokens {
		if _, stop := skip[tok]; stop {
			continue
		}
		if c, ok := index[tok]; ok {
			c.count++
			continue
		}
		c := &counted{token: tok, count: 1, first: i}
		index[tok] = c
		order = append(order, c)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].first < order[j].first
	})

	n := min(len(order), maxExtractedKeywords)
	keywords := make([]string, 0, n)
	for _, c := range order[:n] {
		keywords = append(keywords, c.token)
	}
	return keywords
}

// keywordWeight returns the policy-assigned weight for a keyword, default 1.0.
func keywordWeight(kw string, in Input) float64 {
	if in.Policy != nil {
		if w, ok := in.Policy.KeywordWeights[strings.ToLower(kw)]; ok {
			return w
		}
	}
	return 1.0
}

// keywordImportance ranks a missing keyword. Explicit keywords are treated as
// high importance since the caller asked for them by name; extracted keywords
// rank by how often the description repeats them.
func keywordImportance(kw string, in Input, explicit bool) types.KeywordImportance {
	if in.Policy != nil {
		if w, ok := in.Policy.KeywordWeights[strings.ToLower(kw)]; ok {
			switch {
			case w >= 0.75:
				return types.ImportanceHigh
			case w <= 0.35:
				return types.ImportanceLow
			default:
				return types.ImportanceMedium
			}
		}
	}
	if explicit {
		return types.ImportanceHigh
	}
	if CountWord(in.Job.Description, kw) >= 2 {
		return types.ImportanceMedium
	}
	return types.ImportanceLow
}

// relevanceScore rates how prominently a matched keyword features in the
// resume: frequency raises it, appearing in the skills section raises it more.
func relevanceScore(text, kw string, freq int) float64 {
	score := 0.5 + 0.15*float64(freq-1)
	if section := sectionContaining(text, kw); section == "skills" || section == "experience" {
		score += 0.2
	}
	return math.Min(score, 1.0)
}

// sectionContaining returns the canonical section whose body contains the
// keyword, or "" when the keyword appears before any recognized heading.
func sectionContaining(text, kw string) string {
	current := ""
	for _, line := range Lines(text) {
		if name, ok := canonicalSection(line.Trimmed); ok {
			current = name
			continue
		}
		if ContainsWord(line.Text, kw) {
			return current
		}
	}
	return ""
}

// contextSnippets extracts up to limit short windows of text around keyword
// occurrences. Matching and slicing both happen on the original text, with
// window edges snapped to rune boundaries.
func contextSnippets(text, kw string, limit int) []string {
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(kw))
	if err != nil {
		return nil
	}

	snippets := make([]string, 0, limit)
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if len(snippets) >= limit {
			break
		}
		if !isTokenBoundary(text, loc[0]-1) || !isTokenBoundary(text, loc[1]) {
			continue
		}

		winStart := max(loc[0]-40, 0)
		winEnd := min(loc[1]+40, len(text))
		for winStart > 0 && !utf8.RuneStart(text[winStart]) {
			winStart--
		}
		for winEnd < len(text) && !utf8.RuneStart(text[winEnd]) {
			winEnd++
		}
		snippet := strings.TrimSpace(text[winStart:winEnd])
		snippet = strings.ReplaceAll(snippet, "\n", " ")
		snippets = append(snippets, snippet)
	}
	return snippets
}

func lookupRelatedTerms(kw string) []string {
	if terms, ok := relatedTerms[strings.ToLower(kw)]; ok {
		return terms
	}
	return []string{}
}
