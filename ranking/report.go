package ranking

import (
	"time"
)

// SWOT lists the target's competitive strengths, weaknesses, opportunities and
// threats.
type SWOT struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

// TargetRanking places the target in the ordering.
type TargetRanking struct {
	Position   int     `json:"position"`
	Total      int     `json:"totalSites"`
	Percentile float64 `json:"percentile"`
	Level      string  `json:"competitiveLevel"`
}

// MetricComparison compares one metric of the target with the competitor mean.
type MetricComparison struct {
	Metric            string  `json:"metric"`
	Target            float64 `json:"target"`
	CompetitorAverage float64 `json:"competitorAverage"`
	Gap               float64 `json:"gap"`
}

// PerformanceMetrics holds per-metric comparisons and the notable gaps.
type PerformanceMetrics struct {
	Metrics  []MetricComparison `json:"metrics"`
	Insights []string           `json:"insights"`
}

// MarketAnalysis describes the target's market standing.
type MarketAnalysis struct {
	Position             int    `json:"currentPosition"`
	Competitors          int    `json:"totalCompetitors"`
	MarketShareEstimate  string `json:"marketShareEstimate"`
	CompetitiveIntensity string `json:"competitiveIntensity"`
	GrowthPotential      string `json:"growthPotential"`
	StrategicPriority    string `json:"strategicPriority"`
}

// ImpactEstimate projects the effect of closing the gap to the leader.
type ImpactEstimate struct {
	CurrentScore        float64 `json:"currentScore"`
	LeaderScore         float64 `json:"leaderScore"`
	Gap                 float64 `json:"performanceGap"`
	Timeline            string  `json:"estimatedTimeline"`
	PositionImprovement string  `json:"positionImprovement"`
	ROI                 string  `json:"roiEstimate"`
}

// ImprovementPlan groups actions by horizon.
type ImprovementPlan struct {
	Immediate []string        `json:"immediate"`
	Strategic []string        `json:"strategic"`
	QuickWins []string        `json:"quickWins"`
	LongTerm  []string        `json:"longTerm"`
	Impact    *ImpactEstimate `json:"estimatedImpact,omitempty"`
}

// ExecutiveSummary is the condensed reading of a report.
type ExecutiveSummary struct {
	Overview               string   `json:"overview"`
	KeyFindings            []string `json:"keyFindings"`
	StrategicImplications  []string `json:"strategicImplications"`
	KeyRecommendations     []string `json:"keyRecommendations"`
	ExpectedOutcomes       []string `json:"expectedOutcomes"`
	SuccessMetrics         []string `json:"successMetrics"`
	NextSteps              []string `json:"nextSteps"`
	ImplementationTimeline string   `json:"implementationTimeline,omitempty"`
}

// SiteFailure records a site whose page could not be fetched. The site is
// still ranked with a fallback card.
type SiteFailure struct {
	URL        string `json:"url"`
	Kind       string `json:"kind"`
	StatusCode int    `json:"statusCode,omitempty"`
}

// Report is the outcome of a competitive ranking run.
type Report struct {
	RunID       string    `json:"runId"`
	GeneratedAt time.Time `json:"generatedAt"`
	TargetURL   string    `json:"targetUrl"`
	Competitors []string  `json:"competitors"`
	Entries     []Entry   `json:"ranking"`

	TargetRanking            TargetRanking      `json:"targetRanking"`
	SWOT                     SWOT               `json:"swot"`
	CompetitiveGap           float64            `json:"competitiveGap"`
	MarketPosition           string             `json:"marketPosition"`
	ImprovementPriorities    []string           `json:"improvementPriorities"`
	StrategicRecommendations []string           `json:"strategicRecommendations"`
	PerformanceMetrics       PerformanceMetrics `json:"performanceMetrics"`
	MarketAnalysis           MarketAnalysis     `json:"marketAnalysis"`
	ImprovementPlan          ImprovementPlan    `json:"improvementPlan"`
	ExecutiveSummary         ExecutiveSummary   `json:"executiveSummary"`
	Risks                    []string           `json:"risks"`
	FetchFailures            []SiteFailure      `json:"fetchFailures,omitempty"`
}

// Target returns the target entry and its index in r.Entries.
func (r *Report) Target() (Entry, int, bool) {
	return findTarget(r.Entries)
}

// Analyze derives every report section from a ranked list. entries must be
// ordered as returned by Rank. Without a target entry only the ordering is
// filled in.
func Analyze(entries []Entry) Report {
	r := Report{Entries: entries}
	target, idx, ok := findTarget(entries)
	if !ok {
		return r
	}
	leader, hasLeader := topCompetitor(entries)
	total := len(entries)

	r.TargetURL = target.URL
	for _, e := range entries {
		if !e.IsTarget {
			r.Competitors = append(r.Competitors, e.URL)
		}
	}
	r.TargetRanking = TargetRanking{
		Position:   target.Position,
		Total:      total,
		Percentile: float64(total-target.Position) / float64(total) * 100,
		Level:      competitiveLevel(idx, total),
	}

	weak := weakCategories(target, entries)
	r.SWOT = swot(target, entries, leader, hasLeader)
	if hasLeader {
		r.CompetitiveGap = round1(leader.Composite - target.Composite)
	}
	r.MarketPosition = marketPosition(idx, total)
	r.ImprovementPriorities = improvementPriorities(weak, target.Tier)
	r.PerformanceMetrics = performanceMetrics(target, entries)
	r.MarketAnalysis = marketAnalysis(target, entries)
	r.ImprovementPlan = improvementPlan(target, leader, hasLeader)
	r.StrategicRecommendations = strategicRecommendations(target, r.CompetitiveGap, weak)
	r.Risks = risks(r.MarketAnalysis, r.ImprovementPlan, total)
	r.ExecutiveSummary = executiveSummary(&r)
	return r
}

func findTarget(entries []Entry) (Entry, int, bool) {
	for i, e := range entries {
		if e.IsTarget {
			return e, i, true
		}
	}
	return Entry{}, -1, false
}

// topCompetitor is the highest ranked entry that is not the target.
func topCompetitor(entries []Entry) (Entry, bool) {
	for _, e := range entries {
		if !e.IsTarget {
			return e, true
		}
	}
	return Entry{}, false
}
