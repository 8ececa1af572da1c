package ranking

import (
	"fmt"

	"github.com/seo-optimizer/geo/judge"
	"github.com/seo-optimizer/geo/scoring"
)

// Competitive intensity levels.
const (
	IntensityHigh   = "high"
	IntensityMedium = "medium"
	IntensityLow    = "low"
)

// insightThreshold is the gap, in points, beyond which a metric is called out.
const insightThreshold = 10

type metric struct {
	name  string
	value func(scoring.ScoreCard) float64
}

var performanceSet = []metric{
	{"geo_score", func(c scoring.ScoreCard) float64 { return c.OverallGeoScore }},
	{"citation_potential", func(c scoring.ScoreCard) float64 { return c.Category(judge.Citation) }},
	{"semantic_density", func(c scoring.ScoreCard) float64 { return c.Category(judge.Semantic) }},
	{"content_quality", func(c scoring.ScoreCard) float64 { return c.Category(judge.Structure) }},
	{"rag_optimization", func(c scoring.ScoreCard) float64 { return c.Category(judge.RAG) }},
}

// competitiveLevel classifies a 0-based index in the ordering.
func competitiveLevel(idx, total int) string {
	switch t := float64(total); {
	case idx == 0:
		return "market leader"
	case idx == 1:
		return "close follower"
	case float64(idx) < t*0.2:
		return "upper segment"
	case float64(idx) < t*0.5:
		return "middle segment"
	default:
		return "lower segment"
	}
}

// marketPosition is the coarser segment view used in the SWOT block.
func marketPosition(idx, total int) string {
	switch t := float64(total); {
	case idx == 0:
		return "market leader"
	case idx == 1:
		return "close follower"
	case float64(idx) < t*0.3:
		return "upper segment"
	case float64(idx) < t*0.7:
		return "middle segment"
	default:
		return "lower segment"
	}
}

func marketAnalysis(target Entry, entries []Entry) MarketAnalysis {
	pos, total := target.Position, len(entries)
	return MarketAnalysis{
		Position:             pos,
		Competitors:          total - 1,
		MarketShareEstimate:  marketShare(pos, total),
		CompetitiveIntensity: competitiveIntensity(entries),
		GrowthPotential:      growthPotential(pos, total),
		StrategicPriority:    strategicPriority(pos, total),
	}
}

func marketShare(pos, total int) string {
	switch {
	case pos == 1:
		return "market leader (25%+)"
	case pos <= 3:
		return "significant share (15-25%)"
	case float64(pos) <= float64(total)*0.3:
		return "medium share (5-15%)"
	default:
		return "minor share (<5%)"
	}
}

// competitiveIntensity is high when the field is packed closely together.
func competitiveIntensity(entries []Entry) string {
	if len(entries) < 3 {
		return IntensityLow
	}
	spread := entries[0].Composite - entries[len(entries)-1].Composite
	switch {
	case spread < 20:
		return IntensityHigh
	case spread < 40:
		return IntensityMedium
	default:
		return IntensityLow
	}
}

func growthPotential(pos, total int) string {
	switch {
	case pos == 1:
		return "limited: maintain leadership"
	case pos <= 3:
		return "high: opportunity to become the leader"
	case float64(pos) <= float64(total)*0.5:
		return "medium: gradual improvement"
	default:
		return "critical: substantial improvement required"
	}
}

func strategicPriority(pos, total int) string {
	switch {
	case pos == 1:
		return "defend the position and innovate"
	case pos <= 3:
		return "attack the leader"
	case float64(pos) <= float64(total)*0.5:
		return "consolidate and grow"
	default:
		return "survival and fundamental improvements"
	}
}

func performanceMetrics(target Entry, entries []Entry) PerformanceMetrics {
	pm := PerformanceMetrics{Metrics: []MetricComparison{}, Insights: []string{}}

	var competitors []scoring.ScoreCard
	for _, e := range entries {
		if !e.IsTarget {
			competitors = append(competitors, e.Card)
		}
	}
	if len(competitors) == 0 {
		return pm
	}

	for _, m := range performanceSet {
		var sum float64
		for _, c := range competitors {
			sum += m.value(c)
		}
		avg := sum / float64(len(competitors))
		own := m.value(target.Card)
		gap := own - avg
		pm.Metrics = append(pm.Metrics, MetricComparison{
			Metric:            m.name,
			Target:            round1(own),
			CompetitorAverage: round1(avg),
			Gap:               round1(gap),
		})
		switch {
		case gap > insightThreshold:
			pm.Insights = append(pm.Insights, fmt.Sprintf("Advantage in %s: +%.1f points", m.name, gap))
		case gap < -insightThreshold:
			pm.Insights = append(pm.Insights, fmt.Sprintf("Behind in %s: %.1f points", m.name, gap))
		}
	}
	return pm
}
