package scorer

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"resumelens/internal/types"
)

const (
	issueRepeatedWord = "repeated-word"
	issuePassiveVoice = "passive-voice"
	issueWeakVerb     = "weak-verb"
	issueLongSentence = "long-sentence"
	issueEmptyText    = "empty-text"

	longSentenceWords = 28
	issuePenalty      = 8
)

// weakPhrases maps weak resume phrasing to a stronger alternative. The
// patterns match case-insensitively on the original text so reported
// offsets are valid byte offsets into it.
var weakPhrases = []struct {
	re         *regexp.Regexp
	suggestion string
}{
	{regexp.MustCompile(`(?i)\bresponsible for\b`), "Lead with an action verb, e.g. \"Led\" or \"Owned\""},
	{regexp.MustCompile(`(?i)\bduties included\b`), "Lead with an action verb, e.g. \"Delivered\" or \"Managed\""},
	{regexp.MustCompile(`(?i)\bworked on\b`), "Use a stronger verb, e.g. \"Built\" or \"Developed\""},
	{regexp.MustCompile(`(?i)\bhelped with\b`), "Use a stronger verb, e.g. \"Drove\" or \"Contributed\""},
	{regexp.MustCompile(`(?i)\bassisted with\b`), "Use a stronger verb, e.g. \"Supported\" or \"Co-led\""},
	{regexp.MustCompile(`(?i)\bparticipated in\b`), "Use a stronger verb, e.g. \"Contributed to\" or \"Co-authored\""},
	{regexp.MustCompile(`(?i)\binvolved in\b`), "Use a stronger verb, e.g. \"Drove\" or \"Delivered\""},
	{regexp.MustCompile(`(?i)\btasked with\b`), "Lead with an action verb, e.g. \"Owned\""},
}

var passiveAuxRe = regexp.MustCompile(`(?i)\b(was|were|been|being|is|are)\s+([a-z]+ed)\b`)

// CheckGrammar implements Scorer. Issues carry byte offsets into the
// analyzed text so the caller can highlight them.
func (s *RulesScorer) CheckGrammar(_ context.Context, in Input) (types.GrammarCheck, error) {
	text := in.ResumeText
	check := types.GrammarCheck{Issues: []types.GrammarIssue{}}

	if strings.TrimSpace(text) == "" {
		check.Issues = append(check.Issues, types.GrammarIssue{
			Type:       issueEmptyText,
			Text:       "",
			Suggestion: "resume text is empty; add content before running analysis",
		})
		check.TotalIssues = 1
		return check, nil
	}

	check.Issues = append(check.Issues, findRepeatedWords(text)...)
	check.Issues = append(check.Issues, findPassiveVoice(text)...)
	check.Issues = append(check.Issues, findWeakPhrases(text)...)
	check.Issues = append(check.Issues, findLongSentences(text)...)

	check.TotalIssues = len(check.Issues)
	check.Score = clampScore(100 - issuePenalty*check.TotalIssues)
	check.OverallReadability = readabilityScore(text)
	return check, nil
}

// findRepeatedWords flags immediately repeated words ("the the"). Matching
// runs over the original text; lowering could shift byte offsets.
func findRepeatedWords(text string) []types.GrammarIssue {
	var issues []types.GrammarIssue
	matches := wordRe.FindAllStringIndex(text, -1)
	for i := 1; i < len(matches); i++ {
		prev, cur := matches[i-1], matches[i]
		prevWord := strings.ToLower(text[prev[0]:prev[1]])
		curWord := strings.ToLower(text[cur[0]:cur[1]])
		if prevWord != curWord {
			continue
		}
		// Only adjacent repetitions count, separated by whitespace alone
		if strings.TrimSpace(text[prev[1]:cur[0]]) != "" {
			continue
		}
		issues = append(issues, types.GrammarIssue{
			Type:       issueRepeatedWord,
			Text:       text[prev[0]:cur[1]],
			Suggestion: "Remove the duplicated word \"" + curWord + "\"",
			Start:      prev[0],
			End:        cur[1],
		})
	}
	return issues
}

// findPassiveVoice flags auxiliary-verb + past-participle pairs.
func findPassiveVoice(text string) []types.GrammarIssue {
	var issues []types.GrammarIssue
	for _, loc := range passiveAuxRe.FindAllStringIndex(text, -1) {
		issues = append(issues, types.GrammarIssue{
			Type:       issuePassiveVoice,
			Text:       text[loc[0]:loc[1]],
			Suggestion: "Rewrite in active voice with yourself as the actor",
			Start:      loc[0],
			End:        loc[1],
		})
	}
	return issues
}

// findWeakPhrases flags generic phrasing that buries the candidate's impact.
func findWeakPhrases(text string) []types.GrammarIssue {
	var issues []types.GrammarIssue
	for _, weak := range weakPhrases {
		for _, loc := range weak.re.FindAllStringIndex(text, -1) {
			issues = append(issues, types.GrammarIssue{
				Type:       issueWeakVerb,
				Text:       text[loc[0]:loc[1]],
				Suggestion: weak.suggestion,
				Start:      loc[0],
				End:        loc[1],
			})
		}
	}
	return issues
}

// findLongSentences flags sentences over the word-count threshold.
func findLongSentences(text string) []types.GrammarIssue {
	var issues []types.GrammarIssue
	for _, span := range sentenceSpans(text) {
		sentence := text[span[0]:span[1]]
		if len(strings.Fields(sentence)) <= longSentenceWords {
			continue
		}
		issues = append(issues, types.GrammarIssue{
			Type:       issueLongSentence,
			Text:       sentence,
			Suggestion: "Split this sentence; aim for under " + strconv.Itoa(longSentenceWords) + " words",
			Start:      span[0],
			End:        span[1],
		})
	}
	return issues
}

// sentenceSpans returns [start,end) byte spans of sentences, splitting on
// terminal punctuation and line breaks.
func sentenceSpans(text string) [][2]int {
	var spans [][2]int
	start := 0
	flush := func(end int) {
		s, e := trimSpan(text, start, end)
		if s < e {
			spans = append(spans, [2]int{s, e})
		}
		start = end
	}
	for i, r := range text {
		switch r {
		case '.', '!', '?':
			flush(i + 1)
		case '\n':
			flush(i)
			start = i + 1
		}
	}
	flush(len(text))
	return spans
}

// trimSpan shrinks a span to exclude surrounding whitespace.
func trimSpan(text string, start, end int) (int, int) {
	for start < end && (text[start] == ' ' || text[start] == '\t' || text[start] == '\r' || text[start] == '\n') {
		start++
	}
	for end > start && (text[end-1] == ' ' || text[end-1] == '\t' || text[end-1] == '\r' || text[end-1] == '\n') {
		end--
	}
	return start, end
}

// readabilityScore computes a Flesch reading-ease style score clamped to
// [0,100]. Higher is easier to read.
func readabilityScore(text string) int {
	sentences := SplitSentences(text)
	words := strings.Fields(text)
	if len(sentences) == 0 || len(words) == 0 {
		return 0
	}

	syllables := 0
	for _, w := range words {
		syllables += countSyllables(strings.Trim(w, ",.;:!?()"))
	}

	wordsPerSentence := float64(len(words)) / float64(len(sentences))
	syllablesPerWord := float64(syllables) / float64(len(words))
	score := 206.835 - 1.015*wordsPerSentence - 84.6*syllablesPerWord
	return clampScore(int(math.Round(score)))
}
