// Package ranking orders a target site against its competitors and derives a
// competitive report from the ordering.
package ranking

import (
	"math"
	"sort"

	"github.com/seo-optimizer/geo/judge"
	"github.com/seo-optimizer/geo/scoring"
)

// Tier classifies a composite score.
type Tier string

const (
	TierLeader           Tier = "leader"
	TierStrong           Tier = "strong"
	TierAverage          Tier = "average"
	TierNeedsImprovement Tier = "needs_improvement"
	TierLagging          Tier = "lagging"
)

// TierFor maps a composite score to its tier.
func TierFor(composite float64) Tier {
	switch {
	case composite >= 85:
		return TierLeader
	case composite >= 70:
		return TierStrong
	case composite >= 55:
		return TierAverage
	case composite >= 40:
		return TierNeedsImprovement
	default:
		return TierLagging
	}
}

// Weak reports whether the tier calls for a fundamental rework.
func (t Tier) Weak() bool {
	return t == TierNeedsImprovement || t == TierLagging
}

// Composite weights, applied to the overall score and four categories.
const (
	weightOverall   = 0.4
	weightCitation  = 0.2
	weightSemantic  = 0.15
	weightStructure = 0.15
	weightRAG       = 0.1
)

// Entry is one ranked site.
type Entry struct {
	URL       string            `json:"url"`
	Composite float64           `json:"compositeScore"`
	Position  int               `json:"rankPosition"`
	IsTarget  bool              `json:"isTarget"`
	Tier      Tier              `json:"performanceTier"`
	Card      scoring.ScoreCard `json:"card"`
}

// Composite computes the weighted ranking score of a card, rounded to one
// decimal place.
func Composite(card scoring.ScoreCard) float64 {
	v := card.OverallGeoScore*weightOverall +
		card.Category(judge.Citation)*weightCitation +
		card.Category(judge.Semantic)*weightSemantic +
		card.Category(judge.Structure)*weightStructure +
		card.Category(judge.RAG)*weightRAG
	return round1(v)
}

// Rank orders cards by composite score, highest first. Equal scores keep
// their input order. target is the index of the target card in cards, or -1.
func Rank(cards []scoring.ScoreCard, target int) []Entry {
	entries := make([]Entry, len(cards))
	for i, card := range cards {
		c := Composite(card)
		entries[i] = Entry{
			URL:       card.URL,
			Composite: c,
			IsTarget:  i == target,
			Tier:      TierFor(c),
			Card:      card,
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Composite > entries[j].Composite
	})
	for i := range entries {
		entries[i].Position = i + 1
	}
	return entries
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
