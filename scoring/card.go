// Package scoring combines judge verdicts into one comparable score card.
package scoring

import (
	"time"

	"github.com/seo-optimizer/geo/judge"
)

// ScoreCard is the aggregated GEO assessment of one URL. Every numeric field
// is always populated.
type ScoreCard struct {
	URL             string                     `json:"url"`
	OverallGeoScore float64                    `json:"overallGeoScore"`
	Categories      map[judge.Category]float64 `json:"categories"`

	CitationPotential    float64 `json:"citationPotential"`
	SemanticDensityScore float64 `json:"semanticDensityScore"`
	ClearAnswerQuality   float64 `json:"clearAnswerQuality"`
	TechnicalScore       float64 `json:"technicalScore"`
	RAGOptimizationScore float64 `json:"ragOptimizationScore"`

	Recommendations []string    `json:"recommendations"`
	StructuralHints []string    `json:"structuralHints"`
	SummaryLabel    judge.Label `json:"summaryLabel"`
	Summary         string      `json:"summary"`
	Insights        []string    `json:"insights"`

	JudgesUsed  []string              `json:"judgesUsed"`
	JudgeScores map[string]JudgeScore `json:"judgeScores"`
	Narratives  map[string]string     `json:"narratives"`
	Failures    []judge.JudgeFailure  `json:"failures"`

	// IsFallback is set when no judge produced an overall score.
	IsFallback bool `json:"isFallback"`
	// FetchFailed is set when the page itself could not be retrieved.
	FetchFailed bool      `json:"fetchFailed"`
	AnalyzedAt  time.Time `json:"analyzedAt"`
}

// JudgeScore is what a single judge said, before aggregation.
type JudgeScore struct {
	Overall    judge.Score            `json:"overall"`
	Categories map[judge.Category]int `json:"categories"`
	Label      judge.Label            `json:"label,omitempty"`
}

// Category returns the aggregated score for c.
func (c ScoreCard) Category(cat judge.Category) float64 {
	return c.Categories[cat]
}
