package ranking

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/seo-optimizer/geo/scoring"
)

func TestAnalyzeTrailingTarget(t *testing.T) {
	convey.Convey("Given a target ranked last of three", t, func() {
		target := card("t", 70, 90, 50, 70, 70, 40)
		target.Recommendations = []string{
			"Add an FAQ section answering the most common product questions",
			"Rewrite the introduction so that it states the main answer in the first paragraph of the page",
			"Increase internal linking between related guides",
		}
		r := Analyze(Rank([]scoring.ScoreCard{target, flatCard("a", 85), flatCard("b", 85)}, 0))

		convey.Convey("Then the target ranking is filled in", func() {
			convey.So(r.TargetURL, convey.ShouldEqual, "t")
			convey.So(r.Competitors, convey.ShouldResemble, []string{"a", "b"})
			convey.So(r.TargetRanking.Position, convey.ShouldEqual, 3)
			convey.So(r.TargetRanking.Total, convey.ShouldEqual, 3)
			convey.So(r.TargetRanking.Percentile, convey.ShouldEqual, 0.0)
			convey.So(r.TargetRanking.Level, convey.ShouldEqual, "lower segment")
		})

		convey.Convey("Then SWOT compares each category with the mean", func() {
			convey.So(r.SWOT.Strengths, convey.ShouldResemble, []string{strengthText["citation"]})
			convey.So(r.SWOT.Weaknesses, convey.ShouldContain, weaknessText["semantic"])
			convey.So(r.SWOT.Weaknesses, convey.ShouldContain, weaknessText["rag"])
			convey.So(r.SWOT.Weaknesses, convey.ShouldNotContain, weaknessText["citation"])
		})

		convey.Convey("Then the gap to the leader is an opportunity and the position a threat", func() {
			convey.So(r.CompetitiveGap, convey.ShouldAlmostEqual, Composite(flatCard("a", 85))-r.Entries[2].Composite, 0.05)
			convey.So(r.SWOT.Opportunities, convey.ShouldHaveLength, 1)
			convey.So(r.SWOT.Threats, convey.ShouldHaveLength, 1)
			convey.So(r.Risks, convey.ShouldContain, "High risk of losing visibility in AI search")
		})

		convey.Convey("Then the market analysis follows the position", func() {
			convey.So(r.MarketAnalysis.Competitors, convey.ShouldEqual, 2)
			convey.So(r.MarketAnalysis.MarketShareEstimate, convey.ShouldEqual, "significant share (15-25%)")
			convey.So(r.MarketAnalysis.CompetitiveIntensity, convey.ShouldEqual, IntensityHigh)
			convey.So(r.MarketAnalysis.StrategicPriority, convey.ShouldEqual, "attack the leader")
		})

		convey.Convey("Then the plan picks short actionable recommendations", func() {
			convey.So(r.ImprovementPlan.QuickWins, convey.ShouldResemble, []string{
				"Add an FAQ section answering the most common product questions",
				"Increase internal linking between related guides",
			})
			convey.So(r.ImprovementPlan.Immediate, convey.ShouldResemble, []string{
				"Improve semantic density by deepening topical coverage",
				"Optimize content for RAG systems",
			})
			convey.So(r.ImprovementPlan.LongTerm, convey.ShouldHaveLength, 3)
			convey.So(r.ImprovementPlan.Impact, convey.ShouldNotBeNil)
			convey.So(r.ImprovementPlan.Impact.Timeline, convey.ShouldEqual, "3-6 months")
		})

		convey.Convey("Then performance metrics compare with the competitor mean", func() {
			convey.So(r.PerformanceMetrics.Metrics, convey.ShouldHaveLength, len(performanceSet))
			convey.So(r.PerformanceMetrics.Metrics[1].Metric, convey.ShouldEqual, "citation_potential")
			convey.So(r.PerformanceMetrics.Metrics[1].Gap, convey.ShouldEqual, 5.0)
			convey.So(r.PerformanceMetrics.Insights, convey.ShouldContain, "Behind in rag_optimization: -45.0 points")
		})

		convey.Convey("Then the executive summary is populated", func() {
			s := r.ExecutiveSummary
			convey.So(s.Overview, convey.ShouldStartWith, "Strong competitive position")
			convey.So(s.KeyFindings[0], convey.ShouldEqual, "Current position: 3 of 3 sites")
			convey.So(s.NextSteps, convey.ShouldHaveLength, 4)
			convey.So(len(s.KeyRecommendations), convey.ShouldBeLessThanOrEqualTo, 5)
			convey.So(s.SuccessMetrics, convey.ShouldHaveLength, maxSuccess)
			convey.So(s.ImplementationTimeline, convey.ShouldEqual, "3-6 months")
		})
	})
}

func TestAnalyzeLeadingTarget(t *testing.T) {
	convey.Convey("Given a target that leads the field", t, func() {
		r := Analyze(Rank([]scoring.ScoreCard{flatCard("t", 90), flatCard("a", 40)}, 0))

		convey.So(r.TargetRanking.Position, convey.ShouldEqual, 1)
		convey.So(r.TargetRanking.Percentile, convey.ShouldEqual, 50.0)
		convey.So(r.TargetRanking.Level, convey.ShouldEqual, "market leader")
		convey.So(r.SWOT.Opportunities, convey.ShouldBeEmpty)
		convey.So(r.SWOT.Threats, convey.ShouldBeEmpty)
		convey.So(r.CompetitiveGap, convey.ShouldEqual, -50.0)
		convey.So(r.ImprovementPlan.LongTerm, convey.ShouldBeEmpty)
		convey.So(r.MarketAnalysis.CompetitiveIntensity, convey.ShouldEqual, IntensityLow)
		convey.So(r.StrategicRecommendations[0], convey.ShouldEqual,
			"Strengthen the leading position through innovation in GEO optimization")
	})
}

func TestAnalyzeTargetOnly(t *testing.T) {
	convey.Convey("Given only the target", t, func() {
		r := Analyze(Rank([]scoring.ScoreCard{flatCard("t", 30)}, 0))

		convey.So(r.TargetRanking.Position, convey.ShouldEqual, 1)
		convey.So(r.Competitors, convey.ShouldBeEmpty)
		convey.So(r.CompetitiveGap, convey.ShouldEqual, 0.0)
		convey.So(r.PerformanceMetrics.Metrics, convey.ShouldBeEmpty)
		convey.So(r.ImprovementPlan.Impact, convey.ShouldBeNil)
		convey.So(r.ImprovementPriorities, convey.ShouldContain, "Critical: fundamental improvement of GEO optimization")
	})

	convey.Convey("Given no target", t, func() {
		r := Analyze(Rank([]scoring.ScoreCard{flatCard("a", 30)}, -1))

		convey.So(r.Entries, convey.ShouldHaveLength, 1)
		convey.So(r.TargetURL, convey.ShouldBeEmpty)
		_, _, ok := r.Target()
		convey.So(ok, convey.ShouldBeFalse)
	})
}

func TestBottomThreat(t *testing.T) {
	convey.Convey("The bottom 30% of the field is a threat", t, func() {
		convey.So(inBottom(3, 3), convey.ShouldBeTrue)
		convey.So(inBottom(7, 10), convey.ShouldBeFalse)
		convey.So(inBottom(8, 10), convey.ShouldBeTrue)
		convey.So(inBottom(1, 1), convey.ShouldBeTrue)
	})
}

func TestImpactHelpers(t *testing.T) {
	convey.Convey("Impact estimates follow the gap", t, func() {
		convey.So(timeline(9.9), convey.ShouldEqual, "1-2 months")
		convey.So(timeline(39), convey.ShouldEqual, "6-12 months")
		convey.So(timeline(40), convey.ShouldEqual, "more than 1 year")
		convey.So(roi(14), convey.ShouldEqual, ROIHigh)
		convey.So(roi(15), convey.ShouldEqual, ROIMedium)
		convey.So(roi(30), convey.ShouldEqual, ROILow)
		convey.So(positionImprovement(30), convey.ShouldEqual, "significant improvement in positions")
		convey.So(positionImprovement(15), convey.ShouldEqual, "moderate improvement")
		convey.So(positionImprovement(5), convey.ShouldEqual, "minor change")
	})
}
