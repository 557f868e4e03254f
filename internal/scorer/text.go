package scorer

import (
	"regexp"
	"strings"
	"unicode"
)

// stopWords are tokens too generic to carry signal during keyword extraction.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "you": {}, "your": {},
	"our": {}, "are": {}, "will": {}, "have": {}, "has": {}, "this": {},
	"that": {}, "from": {}, "who": {}, "what": {}, "when": {}, "where": {},
	"how": {}, "can": {}, "able": {}, "must": {}, "should": {}, "would": {},
	"work": {}, "working": {}, "team": {}, "role": {}, "job": {}, "years": {},
	"year": {}, "experience": {}, "skills": {}, "strong": {}, "good": {},
	"great": {}, "plus": {}, "etc": {}, "well": {}, "other": {}, "more": {},
	"both": {}, "such": {}, "using": {}, "use": {}, "used": {}, "including": {},
	"required": {}, "preferred": {}, "knowledge": {}, "ability": {}, "about": {},
}

var wordRe = regexp.MustCompile(`[a-zA-Z0-9][a-zA-Z0-9+#./-]*`)

// Tokenize splits text into lowercase tokens, keeping technology-style
// suffixes (c++, c#, node.js) intact. Tokens shorter than three runes are
// dropped unless they contain a tech marker.
func Tokenize(text string) []string {
	raw := wordRe.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		tok = strings.Trim(tok, "./-")
		if tok == "" {
			continue
		}
		if len([]rune(tok)) < 3 && !strings.ContainsAny(tok, "+#.") {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// ContainsWord reports whether text contains word as a whole token,
// case-insensitively. Substring matches inside longer words do not count,
// so "java" does not match "javascript".
func ContainsWord(text, word string) bool {
	return CountWord(text, word) > 0
}

// CountWord counts whole-token, case-insensitive occurrences of word in text.
func CountWord(text, word string) int {
	if word == "" {
		return 0
	}
	lowText := strings.ToLower(text)
	lowWord := strings.ToLower(word)

	count := 0
	for idx := 0; ; {
		pos := strings.Index(lowText[idx:], lowWord)
		if pos < 0 {
			break
		}
		start := idx + pos
		end := start + len(lowWord)
		if isTokenBoundary(lowText, start-1) && isTokenBoundary(lowText, end) {
			count++
		}
		idx = end
	}
	return count
}

func isTokenBoundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	c := rune(text[i])
	return !unicode.IsLetter(c) && !unicode.IsDigit(c)
}

// SplitSentences splits text into trimmed sentences on terminal punctuation.
// Newline-separated fragments without terminal punctuation count as
// sentences too, since resume bullets rarely end with a period.
func SplitSentences(text string) []string {
	var sentences []string
	for _, line := range strings.Split(text, "\n") {
		start := 0
		for i, r := range line {
			if r == '.' || r == '!' || r == '?' {
				if s := strings.TrimSpace(line[start : i+1]); s != "" {
					sentences = append(sentences, s)
				}
				start = i + 1
			}
		}
		if s := strings.TrimSpace(line[start:]); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// Line is one non-empty line of the resume with its original text preserved
// for exact-match patching.
type Line struct {
	Text    string // original line, untrimmed except for trailing whitespace
	Trimmed string // leading bullet markers and whitespace removed
	Number  int    // 1-based line number
}

var bulletPrefixRe = regexp.MustCompile(`^[\s]*[-*•·◦▪]+[\s]*`)

// Lines returns all non-empty lines of text.
func Lines(text string) []Line {
	var lines []Line
	for i, raw := range strings.Split(text, "\n") {
		raw = strings.TrimRight(raw, " \t\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		lines = append(lines, Line{
			Text:    raw,
			Trimmed: bulletPrefixRe.ReplaceAllString(raw, ""),
			Number:  i + 1,
		})
	}
	return lines
}

// impactVerbs are verbs that signal an achievement-style statement.
var impactVerbs = map[string]struct{}{
	"achieved": {}, "accelerated": {}, "built": {}, "created": {},
	"decreased": {}, "delivered": {}, "designed": {}, "developed": {},
	"drove": {}, "established": {}, "exceeded": {}, "expanded": {},
	"generated": {}, "grew": {}, "implemented": {}, "improved": {},
	"increased": {}, "launched": {}, "led": {}, "managed": {},
	"optimized": {}, "reduced": {}, "saved": {}, "scaled": {},
	"shipped": {}, "spearheaded": {}, "streamlined": {}, "transformed": {},
}

// IsAchievementLine reports whether a line reads like an achievement: it is
// a bullet, or it starts with an impact verb. extra contains additional
// policy-supplied impact verbs.
func IsAchievementLine(line Line, extra []string) bool {
	if bulletPrefixRe.MatchString(line.Text) {
		return true
	}
	first := firstWord(line.Trimmed)
	if first == "" {
		return false
	}
	if _, ok := impactVerbs[first]; ok {
		return true
	}
	for _, verb := range extra {
		if strings.EqualFold(verb, first) {
			return true
		}
	}
	return false
}

// ImpactVerb returns the lowercase impact verb a line leads with, if any.
func ImpactVerb(line Line, extra []string) (string, bool) {
	first := firstWord(line.Trimmed)
	if first == "" {
		return "", false
	}
	if _, ok := impactVerbs[first]; ok {
		return first, true
	}
	for _, verb := range extra {
		if strings.EqualFold(verb, first) {
			return strings.ToLower(verb), true
		}
	}
	return "", false
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.Trim(fields[0], ",.;:"))
}

var quantifierRe = regexp.MustCompile(`(\d+(\.\d+)?%)|(\$\d)|(\d+[kKmM]?\+?\b)`)

// HasQuantifier reports whether a line carries a numeric result
// (percentages, dollar amounts, counts).
func HasQuantifier(s string) bool {
	return quantifierRe.MatchString(s)
}

// countSyllables approximates syllable count by counting vowel groups.
// Every word contributes at least one syllable.
func countSyllables(word string) int {
	word = strings.ToLower(word)
	count := 0
	prevVowel := false
	for _, r := range word {
		isVowel := strings.ContainsRune("aeiouy", r)
		if isVowel && !prevVowel {
			count++
		}
		prevVowel = isVowel
	}
	// Trailing silent e
	if strings.HasSuffix(word, "e") && count > 1 {
		count--
	}
	if count == 0 {
		count = 1
	}
	return count
}
