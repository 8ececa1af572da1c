package scoring

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/seo-optimizer/geo/content"
	"github.com/seo-optimizer/geo/judge"
)

// MaxRecommendations caps the merged recommendation list.
const MaxRecommendations = 10

// backfillFactors derive a category score from the overall score when no
// judge scored the category.
var backfillFactors = map[judge.Category]float64{
	judge.Citation:  0.8,
	judge.Semantic:  0.7,
	judge.Structure: 0.75,
	judge.Technical: 0.7,
	judge.RAG:       0.6,
}

// genericAdvice fills a fallback card when the page has no structural gaps.
var genericAdvice = []string{
	"Add clear answers to frequently asked questions",
	"Structure content so key facts are easy to extract",
	"Use schema.org semantic markup",
	"Optimize headings and meta descriptions",
	"Close sections with explicit conclusions",
}

// Aggregate reduces a panel result to a score card. It never fails: missing
// judge output is replaced by the structural fallback and category backfill.
func Aggregate(panel judge.PanelResult) ScoreCard {
	card := ScoreCard{
		URL:         panel.Descriptor.URL,
		Categories:  make(map[judge.Category]float64, len(judge.Categories)),
		JudgeScores: make(map[string]JudgeScore, len(panel.Verdicts)),
		Narratives:  make(map[string]string, len(panel.Verdicts)),
		Failures:    panel.Failures,
		AnalyzedAt:  panel.StartedAt,
	}
	if card.AnalyzedAt.IsZero() {
		card.AnalyzedAt = time.Now()
	}

	var (
		overallSum   float64
		overallCount int
		catSum       = map[judge.Category]float64{}
		catCount     = map[judge.Category]int{}
		recs         []string
	)

	for _, v := range panel.Verdicts {
		if v.Failed() {
			continue
		}
		card.JudgesUsed = append(card.JudgesUsed, v.JudgeID)
		card.Narratives[v.JudgeID] = v.Narrative
		card.JudgeScores[v.JudgeID] = JudgeScore{Overall: v.Overall, Categories: v.Categories, Label: v.Label}

		if s, ok := v.Overall.Get(); ok {
			overallSum += float64(s)
			overallCount++
		}
		for c, s := range v.Categories {
			catSum[c] += float64(s)
			catCount[c]++
		}
		if v.Label != judge.LabelUnset {
			card.Insights = append(card.Insights, fmt.Sprintf("%s: %s", v.JudgeID, v.Label.Describe()))
		}
		recs = append(recs, v.Recommendations...)
	}
	sort.Strings(card.JudgesUsed)

	if overallCount > 0 {
		card.OverallGeoScore = clamp(overallSum / float64(overallCount))
	} else {
		card.OverallGeoScore = StructuralScore(panel.Descriptor)
		card.IsFallback = true
	}

	for _, c := range judge.Categories {
		if n := catCount[c]; n > 0 {
			card.Categories[c] = clamp(catSum[c] / float64(n))
		} else {
			card.Categories[c] = clamp(card.OverallGeoScore * backfillFactors[c])
		}
	}
	card.CitationPotential = card.Categories[judge.Citation]
	card.SemanticDensityScore = card.Categories[judge.Semantic]
	card.ClearAnswerQuality = card.Categories[judge.Structure]
	card.TechnicalScore = card.Categories[judge.Technical]
	card.RAGOptimizationScore = card.Categories[judge.RAG]

	card.StructuralHints = StructuralHints(panel.Descriptor)
	card.Recommendations = MergeRecommendations(recs, MaxRecommendations)
	if card.IsFallback && len(card.Recommendations) == 0 {
		card.Recommendations = fallbackRecommendations(card.StructuralHints)
	}
	card.SummaryLabel = judge.LabelFor(card.OverallGeoScore)
	card.Summary = Summarize(card)
	return card
}

// fallbackRecommendations seeds a card no judge advised on. Structural fixes
// come first, in the order they were detected.
func fallbackRecommendations(hints []string) []string {
	src := hints
	if len(src) == 0 {
		src = genericAdvice
	}
	if len(src) > MaxRecommendations {
		src = src[:MaxRecommendations]
	}
	return append([]string(nil), src...)
}

// StructuralScore estimates a score from page structure alone:
// 50 base, +10 title, +10 description, +15 schema.org, +10 for more than
// 300 words, +5 when more than half the images carry alt text. Capped at 100.
func StructuralScore(d content.Descriptor) float64 {
	score := 50
	if strings.TrimSpace(d.Title) != "" {
		score += 10
	}
	if strings.TrimSpace(d.Description) != "" {
		score += 10
	}
	if d.HasSchemaOrg {
		score += 15
	}
	if d.WordCount > 300 {
		score += 10
	}
	if d.ImageAltRatio > 50 {
		score += 5
	}
	return float64(min(score, 100))
}

// MergeRecommendations removes exact duplicates (keeping the first), orders
// the rest by length, longest first, and keeps at most limit entries. Ties
// keep their input order.
func MergeRecommendations(recs []string, limit int) []string {
	seen := make(map[string]struct{}, len(recs))
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i]) > utf8.RuneCountInString(out[j])
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
