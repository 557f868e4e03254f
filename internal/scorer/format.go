package scorer

import (
	"context"
	"regexp"
	"strings"

	"resumelens/internal/types"
)

// canonicalSections maps heading aliases to the canonical section name.
var canonicalSections = map[string]string{
	"summary":              "summary",
	"objective":            "summary",
	"profile":              "summary",
	"about":                "summary",
	"about me":             "summary",
	"professional summary": "summary",
	"experience":             "experience",
	"work experience":        "experience",
	"professional experience": "experience",
	"employment":             "experience",
	"employment history":     "experience",
	"work history":           "experience",
	"education":           "education",
	"academic background": "education",
	"qualifications":      "education",
	"skills":            "skills",
	"technical skills":  "skills",
	"core competencies": "skills",
	"technologies":      "skills",
	"expertise":         "skills",
	"projects":          "projects",
	"personal projects": "projects",
	"selected projects": "projects",
	"certifications": "certifications",
	"certificates":   "certifications",
	"licenses":       "certifications",
}

// orderedSectionNames is the canonical reporting order.
var orderedSectionNames = []string{"summary", "experience", "education", "skills", "projects", "certifications"}

// requiredSections must be present for a resume to parse cleanly in an ATS.
var requiredSections = map[string]struct{}{
	"experience": {},
	"education":  {},
	"skills":     {},
}

var (
	tableCharRe   = regexp.MustCompile("[|│┃┌┐└┘├┤┬┴┼─═║]")
	wordyDateRe   = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{4}\b`)
	numericDateRe = regexp.MustCompile(`\b\d{1,2}/\d{4}\b`)
)

// canonicalSection reports whether a line is a recognized section heading
// and returns its canonical name.
func canonicalSection(line string) (string, bool) {
	heading := normalizeHeading(line)
	if heading == "" {
		return "", false
	}
	name, ok := canonicalSections[heading]
	return name, ok
}

func normalizeHeading(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimSuffix(line, ":")
	line = strings.TrimSpace(line)
	if line == "" || len(strings.Fields(line)) > 4 {
		return ""
	}
	return strings.ToLower(line)
}

// AnalyzeFormat implements Scorer. It inspects structural cues that affect
// how reliably an ATS can extract the resume's text.
func (s *RulesScorer) AnalyzeFormat(_ context.Context, in Input) (types.FormatAnalysis, error) {
	analysis := types.FormatAnalysis{
		Issues:          []string{},
		Recommendations: []string{},
	}

	if strings.TrimSpace(in.ResumeText) == "" {
		analysis.Issues = append(analysis.Issues, "resume text is empty")
		analysis.Recommendations = append(analysis.Recommendations, "Add resume content before running analysis")
		analysis.SectionStructure = absentSectionStructure()
		return analysis, nil
	}

	detected := detectSections(in)
	analysis.SectionStructure = buildSectionStructure(detected)

	score := 100
	ats := 100

	for _, name := range orderedSectionNames {
		if _, present := detected[name]; present {
			continue
		}
		if _, required := requiredSections[name]; required {
			analysis.Issues = append(analysis.Issues, "missing standard section: "+name)
			analysis.Recommendations = append(analysis.Recommendations,
				"Add a clearly labeled \""+strings.ToUpper(name[:1])+name[1:]+"\" section so ATS parsers can classify your content")
			score -= 15
			ats -= 12
		} else if name == "summary" {
			analysis.Recommendations = append(analysis.Recommendations,
				"Consider opening with a short Summary section to frame your profile")
			score -= 5
		}
	}

	if tableCharRe.MatchString(in.ResumeText) {
		analysis.Issues = append(analysis.Issues, "contains table or column characters that break ATS text extraction")
		analysis.Recommendations = append(analysis.Recommendations,
			"Replace tables and multi-column layouts with plain single-column text")
		score -= 15
		ats -= 25
	}

	if wordyDateRe.MatchString(in.ResumeText) && numericDateRe.MatchString(in.ResumeText) {
		analysis.Issues = append(analysis.Issues, "inconsistent date formats (mixes \"Jan 2020\" and \"01/2020\" styles)")
		analysis.Recommendations = append(analysis.Recommendations,
			"Use one date format consistently, e.g. \"Jan 2020 - Mar 2022\"")
		score -= 10
		ats -= 10
	}

	analysis.Score = clampScore(score)
	analysis.ATSCompatibility = clampScore(ats)
	return analysis, nil
}

// detectSections returns canonical section name -> 1-based detection order.
func detectSections(in Input) map[string]int {
	aliases := map[string]string{}
	if in.Policy != nil {
		for canonical, extra := range in.Policy.SectionAliases {
			for _, alias := range extra {
				aliases[strings.ToLower(strings.TrimSpace(alias))] = canonical
			}
		}
	}

	detected := map[string]int{}
	order := 0
	for _, line := range Lines(in.ResumeText) {
		name, ok := canonicalSection(line.Trimmed)
		if !ok {
			heading := normalizeHeading(line.Trimmed)
			if heading != "" {
				name, ok = aliases[heading]
			}
		}
		if !ok {
			continue
		}
		if _, seen := detected[name]; !seen {
			order++
			detected[name] = order
		}
	}
	return detected
}

func buildSectionStructure(detected map[string]int) []types.SectionInfo {
	structure := make([]types.SectionInfo, 0, len(orderedSectionNames))
	for _, name := range orderedSectionNames {
		info := types.SectionInfo{Name: name, Order: -1}
		if order, ok := detected[name]; ok {
			info.Present = true
			info.Order = order
		}
		structure = append(structure, info)
	}
	return structure
}

func absentSectionStructure() []types.SectionInfo {
	return buildSectionStructure(map[string]int{})
}
