package judge

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// minRecommendationRunes is exclusive: shorter lines are noise.
	minRecommendationRunes = 15
	maxRecommendations     = 25
)

// The sentinel and the category patterns also accept the Russian wording
// some backends answer in.
var sentinelPattern = regexp.MustCompile(`(?i)(?:FINAL SCORE|ИТОГОВАЯ ОЦЕНКА)\s*:\s*(\d+)\s*/\s*100`)

// categoryPatterns finds a heading-like line naming the category, then the
// first "<n>/100" within a bounded window after it. First match wins.
var categoryPatterns = map[Category]*regexp.Regexp{
	Citation:  categoryPattern(`CITATION|ЦИТИРОВАН`),
	Semantic:  categoryPattern(`SEMANTIC|СЕМАНТИЧ`),
	Structure: categoryPattern(`STRUCTURE|СТРУКТУР`),
	Technical: categoryPattern(`TECHNICAL|ТЕХНИЧЕСК`),
	RAG:       categoryPattern(`\bRAG\b`),
}

func categoryPattern(keywords string) *regexp.Regexp {
	return regexp.MustCompile(`(?ims)^[ \t#*>\d.)-]*[^\n]{0,60}?(?:` + keywords + `).{0,200}?(\d+)\s*/\s*100`)
}

var (
	recommendationsHeading = regexp.MustCompile(`(?im)^[ \t#*>\d.)-]*[^\n]{0,40}?(?:RECOMMENDATION|РЕКОМЕНДАЦИ)[^\n]*$`)
	sectionHeading         = regexp.MustCompile(`(?m)^[ \t]*(#{1,6})[ \t]`)
	bulletLine             = regexp.MustCompile(`(?m)^[ \t]*(?:[-•*]|\d+[.)])[ \t]+(.+)$`)
	scoreMention           = regexp.MustCompile(`\d+\s*/\s*100`)
)

// Parse turns one raw response into a verdict. It never fails: anything it
// cannot find is left absent.
func Parse(raw RawResponse) Verdict {
	v := Verdict{
		JudgeID:    raw.JudgeID,
		Categories: map[Category]int{},
		Narrative:  raw.Text,
	}
	if raw.Failure != nil {
		f := *raw.Failure
		v.Failure = &f
		return v
	}

	text := raw.Text
	v.Overall = ParseOverall(text)
	for _, c := range Categories {
		if score, ok := parseCategory(text, c); ok {
			v.Categories[c] = score
		}
	}
	v.Recommendations = ParseRecommendations(text)
	if s, ok := v.Overall.Get(); ok {
		v.Label = LabelFor(float64(s))
	}
	return v
}

// ParseOverall extracts the first FINAL SCORE sentinel. Values outside
// [0,100] are treated as absent.
func ParseOverall(text string) Score {
	m := sentinelPattern.FindStringSubmatch(text)
	if m == nil {
		return Score{}
	}
	if n, ok := inRange(m[1]); ok {
		return Some(n)
	}
	return Score{}
}

func parseCategory(text string, c Category) (int, bool) {
	m := categoryPatterns[c].FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return inRange(m[1])
}

// ParseRecommendations returns bullet lines from the recommendations section,
// or from the whole text when there is no such section or it has no bullets.
// Lines are kept in order and not deduplicated.
func ParseRecommendations(text string) []string {
	if section, ok := recommendationsSection(text); ok {
		if recs := bullets(section, false); len(recs) > 0 {
			return recs
		}
	}
	return bullets(text, true)
}

func recommendationsSection(text string) (string, bool) {
	loc := recommendationsHeading.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	rest := text[loc[1]:]
	end := len(rest)
	// Only a heading at the section's own level or above closes it; a
	// section without a markdown heading runs to the sentinel.
	if level := headingLevel(text[loc[0]:loc[1]]); level > 0 {
		for _, h := range sectionHeading.FindAllStringSubmatchIndex(rest, -1) {
			if h[3]-h[2] <= level {
				end = h[0]
				break
			}
		}
	}
	if s := sentinelPattern.FindStringIndex(rest); s != nil && s[0] < end {
		end = s[0]
	}
	return rest[:end], true
}

func headingLevel(line string) int {
	if m := sectionHeading.FindStringSubmatch(line); m != nil {
		return len(m[1])
	}
	return 0
}

// bullets collects bullet or numbered lines. When skipScores is set, lines
// carrying a "<n>/100" score are section headings, not advice.
func bullets(text string, skipScores bool) []string {
	var out []string
	for _, m := range bulletLine.FindAllStringSubmatch(text, -1) {
		line := strings.Trim(strings.TrimSpace(m[1]), "*_ ")
		if utf8.RuneCountInString(line) <= minRecommendationRunes {
			continue
		}
		if skipScores && scoreMention.MatchString(line) {
			continue
		}
		out = append(out, line)
		if len(out) == maxRecommendations {
			break
		}
	}
	return out
}

func inRange(digits string) (int, bool) {
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 || n > 100 {
		return 0, false
	}
	return n, true
}
