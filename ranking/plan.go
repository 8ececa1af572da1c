package ranking

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/seo-optimizer/geo/judge"
)

const (
	maxImmediate   = 3
	maxQuickWins   = 5
	maxQuickWinLen = 100
	maxSuccess     = 3
)

// quickWords mark recommendations that are usually cheap to carry out.
// Judges answer in English or Russian.
var quickWords = []string{"add", "increase", "fix", "optimiz", "добав", "увелич", "исправ", "оптимиз"}

func improvementPlan(target Entry, leader Entry, hasLeader bool) ImprovementPlan {
	card := target.Card
	plan := ImprovementPlan{
		Immediate: []string{},
		Strategic: []string{},
		QuickWins: []string{},
		LongTerm:  []string{},
	}

	if card.Category(judge.Citation) < 70 {
		plan.Immediate = append(plan.Immediate, "Increase the number of clear answers and structured data")
	}
	if card.Category(judge.Semantic) < 65 {
		plan.Immediate = append(plan.Immediate, "Improve semantic density by deepening topical coverage")
	}
	if card.Category(judge.RAG) < 60 {
		plan.Immediate = append(plan.Immediate, "Optimize content for RAG systems")
	}
	if len(plan.Immediate) > maxImmediate {
		plan.Immediate = plan.Immediate[:maxImmediate]
	}

	if hasLeader {
		if gap := leader.Composite - target.Composite; gap > 20 {
			plan.Strategic = append(plan.Strategic,
				fmt.Sprintf("Develop a comprehensive GEO improvement strategy (gap: %.1f points)", gap))
		}
	}
	if target.Tier.Weak() {
		plan.Strategic = append(plan.Strategic, "Run a full audit and redesign the content strategy")
	}

	for _, rec := range card.Recommendations {
		if len(plan.QuickWins) == maxQuickWins {
			break
		}
		if utf8.RuneCountInString(rec) < maxQuickWinLen && isQuick(rec) {
			plan.QuickWins = append(plan.QuickWins, rec)
		}
	}

	if target.Tier != TierLeader {
		plan.LongTerm = append(plan.LongTerm,
			"Introduce an AI-optimized content strategy",
			"Build continuous monitoring of GEO metrics",
			"Create a competence center for generative search")
	}

	if hasLeader {
		gap := round1(leader.Composite - target.Composite)
		plan.Impact = &ImpactEstimate{
			CurrentScore:        target.Composite,
			LeaderScore:         leader.Composite,
			Gap:                 gap,
			Timeline:            timeline(gap),
			PositionImprovement: positionImprovement(gap),
			ROI:                 roi(gap),
		}
	}
	return plan
}

func isQuick(rec string) bool {
	lower := strings.ToLower(rec)
	for _, w := range quickWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func timeline(gap float64) string {
	switch {
	case gap < 10:
		return "1-2 months"
	case gap < 25:
		return "3-6 months"
	case gap < 40:
		return "6-12 months"
	default:
		return "more than 1 year"
	}
}

func positionImprovement(gap float64) string {
	switch steps := gap / 10; {
	case steps >= 3:
		return "significant improvement in positions"
	case steps >= 1.5:
		return "moderate improvement"
	default:
		return "minor change"
	}
}

// ROI levels.
const (
	ROIHigh   = "high ROI: fast payback"
	ROIMedium = "medium ROI: moderate payback"
	ROILow    = "low ROI: long-term investment"
)

func roi(gap float64) string {
	switch {
	case gap < 15:
		return ROIHigh
	case gap < 30:
		return ROIMedium
	default:
		return ROILow
	}
}

func risks(m MarketAnalysis, plan ImprovementPlan, total int) []string {
	out := []string{}
	if inBottom(m.Position, total) {
		out = append(out, "High risk of losing visibility in AI search")
	}
	if plan.Impact != nil && plan.Impact.ROI == ROILow {
		out = append(out, "Low return on investment in improvements")
	}
	if m.CompetitiveIntensity == IntensityHigh {
		out = append(out, "High competitive pressure requires continuous improvement")
	}
	return out
}

var nextSteps = []string{
	"Draw up a detailed plan for implementing the recommendations",
	"Assign owners to each improvement area",
	"Set KPIs to track progress",
	"Schedule a repeat analysis in 3 months",
}

func executiveSummary(r *Report) ExecutiveSummary {
	tr := r.TargetRanking
	s := ExecutiveSummary{
		Overview:  overview(tr),
		NextSteps: append([]string(nil), nextSteps...),
	}

	s.KeyFindings = append(s.KeyFindings, fmt.Sprintf("Current position: %d of %d sites", tr.Position, tr.Total))
	if st := r.SWOT.Strengths; len(st) > 0 {
		s.KeyFindings = append(s.KeyFindings, "Key advantages: "+strings.Join(st[:min(2, len(st))], ", "))
	}
	if wk := r.SWOT.Weaknesses; len(wk) > 0 {
		s.KeyFindings = append(s.KeyFindings, "Main problems: "+strings.Join(wk[:min(2, len(wk))], ", "))
	}
	if r.CompetitiveGap > 0 {
		s.KeyFindings = append(s.KeyFindings, fmt.Sprintf("Gap to the leader: %.1f points", r.CompetitiveGap))
	}
	if n := len(r.FetchFailures); n > 0 {
		s.KeyFindings = append(s.KeyFindings, fmt.Sprintf("%d site(s) could not be fetched and were scored from structure only", n))
	}

	m := r.MarketAnalysis
	s.StrategicImplications = []string{
		"Strategic priority: " + m.StrategicPriority,
		"Growth potential: " + m.GrowthPotential,
		"Competitive intensity: " + m.CompetitiveIntensity,
	}

	plan := r.ImprovementPlan
	s.KeyRecommendations = append(s.KeyRecommendations, plan.QuickWins[:min(2, len(plan.QuickWins))]...)
	s.KeyRecommendations = append(s.KeyRecommendations,
		r.StrategicRecommendations[:min(3, len(r.StrategicRecommendations))]...)

	if tr.Position > 1 {
		s.ExpectedOutcomes = append(s.ExpectedOutcomes,
			fmt.Sprintf("Opportunity to climb %d position(s) in the ranking", min(3, tr.Position-1)))
	}
	if plan.Impact != nil {
		s.ImplementationTimeline = plan.Impact.Timeline
		s.ExpectedOutcomes = append(s.ExpectedOutcomes, "Noticeable improvements expected within "+plan.Impact.Timeline)
	}

	for _, mc := range r.PerformanceMetrics.Metrics {
		if len(s.SuccessMetrics) == maxSuccess {
			break
		}
		if mc.Gap > 0 {
			s.SuccessMetrics = append(s.SuccessMetrics, "Extend the lead in "+mc.Metric)
		} else {
			s.SuccessMetrics = append(s.SuccessMetrics, "Close the gap in "+mc.Metric)
		}
	}
	return s
}

func overview(tr TargetRanking) string {
	where := fmt.Sprintf("(%d/%d, %.1f percentile, %s)", tr.Position, tr.Total, tr.Percentile, tr.Level)
	switch {
	case tr.Position == 1:
		return "Leading position in the market " + where
	case tr.Position <= 3:
		return "Strong competitive position " + where
	case float64(tr.Position) <= float64(tr.Total)*0.5:
		return "Average position with growth potential " + where
	default:
		return "Requires significant improvement " + where
	}
}
