package scoring

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/seo-optimizer/geo/content"
	"github.com/seo-optimizer/geo/judge"
)

// Summarize renders a one-paragraph description of the card.
func Summarize(card ScoreCard) string {
	var parts []string

	geo := card.OverallGeoScore
	switch {
	case geo >= 85:
		parts = append(parts, fmt.Sprintf("Excellent optimization for generative search (%.1f/100)", geo))
	case geo >= 70:
		parts = append(parts, fmt.Sprintf("Good optimization with room for improvement (%.1f/100)", geo))
	case geo >= 50:
		parts = append(parts, fmt.Sprintf("Average optimization, significant work required (%.1f/100)", geo))
	default:
		parts = append(parts, fmt.Sprintf("Low optimization, a comprehensive improvement plan is needed (%.1f/100)", geo))
	}
	if card.IsFallback {
		parts = append(parts, "Score estimated from page structure because no judge returned a score")
	}

	switch citation := card.Category(judge.Citation); {
	case citation >= 80:
		parts = append(parts, "Excellent citation potential")
	case citation >= 60:
		parts = append(parts, "Good citation potential")
	default:
		parts = append(parts, "Citation potential needs improvement")
	}

	switch semantic := card.Category(judge.Semantic); {
	case semantic >= 75:
		parts = append(parts, "High semantic density")
	case semantic >= 50:
		parts = append(parts, "Satisfactory semantic density")
	default:
		parts = append(parts, "Semantic density needs improvement")
	}

	if n := len(card.JudgesUsed); n > 0 {
		parts = append(parts, fmt.Sprintf("Analyzed by %d judges: %s", n, strings.Join(card.JudgesUsed, ", ")))
	}
	if n := len(card.Recommendations); n > 0 {
		parts = append(parts, fmt.Sprintf("%d key recommendations proposed", n))
	}

	var scores []string
	for _, id := range card.JudgesUsed {
		if s, ok := card.JudgeScores[id].Overall.Get(); ok {
			scores = append(scores, id+": "+strconv.Itoa(s)+"/100")
		}
	}
	if len(scores) > 0 {
		parts = append(parts, "Judge scores: "+strings.Join(scores, ", "))
	}

	return strings.Join(parts, ". ")
}

// StructuralHints lists page-level fixes that follow from the descriptor alone.
func StructuralHints(d content.Descriptor) []string {
	var hints []string

	switch n := len([]rune(strings.TrimSpace(d.Title))); {
	case n == 0:
		hints = append(hints, "Add a title tag to your page")
	case n < 30:
		hints = append(hints, "Title tag is too short (should be 30-60 characters)")
	case n > 60:
		hints = append(hints, "Title tag is too long (should be 30-60 characters)")
	}

	switch n := len([]rune(strings.TrimSpace(d.Description))); {
	case n == 0:
		hints = append(hints, "Add a meta description")
	case n < 120:
		hints = append(hints, "Meta description is too short (should be 120-160 characters)")
	case n > 160:
		hints = append(hints, "Meta description is too long (should be 120-160 characters)")
	}

	if h1 := d.Heading(1); h1 == 0 {
		hints = append(hints, "Add an H1 heading")
	} else if h1 > 1 {
		hints = append(hints, "Multiple H1 headings found - consider using only one")
	}
	if d.Heading(2) == 0 {
		hints = append(hints, "Split the content into sections with H2 headings so answers can be lifted")
	}

	if d.WordCount < 300 {
		hints = append(hints, "Add more content (aim for at least 300 words)")
	}
	if d.Images > 0 && d.ImagesWithAlt < d.Images {
		hints = append(hints, "Add alt text to all images")
	}
	if !d.HasSchemaOrg {
		hints = append(hints, "Add schema.org structured data (JSON-LD) describing the page")
	}
	if !d.HasOpenGraph {
		hints = append(hints, "Add Open Graph meta tags")
	}
	if !d.HasViewport {
		hints = append(hints,
			"Add a proper viewport meta tag for mobile optimization (e.g., <meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">)")
	}
	return hints
}
