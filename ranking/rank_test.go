package ranking

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/seo-optimizer/geo/judge"
	"github.com/seo-optimizer/geo/scoring"
)

// flatCard scores every field of the card with v, so its composite is v.
func flatCard(url string, v float64) scoring.ScoreCard {
	return card(url, v, v, v, v, v, v)
}

func card(url string, overall, citation, semantic, structure, technical, rag float64) scoring.ScoreCard {
	return scoring.ScoreCard{
		URL:             url,
		OverallGeoScore: overall,
		Categories: map[judge.Category]float64{
			judge.Citation:  citation,
			judge.Semantic:  semantic,
			judge.Structure: structure,
			judge.Technical: technical,
			judge.RAG:       rag,
		},
	}
}

func positions(entries []Entry, urls ...string) []int {
	out := make([]int, len(urls))
	for i, u := range urls {
		for _, e := range entries {
			if e.URL == u {
				out[i] = e.Position
			}
		}
	}
	return out
}

func TestComposite(t *testing.T) {
	convey.Convey("Given a score card", t, func() {
		convey.Convey("When every score is equal", func() {
			convey.So(Composite(flatCard("a", 85)), convey.ShouldEqual, 85.0)
			convey.So(Composite(flatCard("a", 0)), convey.ShouldEqual, 0.0)
		})

		convey.Convey("When the scores differ", func() {
			c := card("a", 80, 60, 50, 40, 0, 30)
			// 32 + 12 + 7.5 + 6 + 3
			convey.So(Composite(c), convey.ShouldEqual, 60.5)
		})

		convey.Convey("When the weighted sum has more than one decimal", func() {
			c := card("a", 71, 63, 0, 0, 0, 0)
			// 28.4 + 12.6
			convey.So(Composite(c), convey.ShouldEqual, 41.0)
			c = card("a", 0, 0, 0, 0, 0, 33)
			convey.So(Composite(c), convey.ShouldEqual, 3.3)
		})

		convey.Convey("Then the technical score does not count", func() {
			convey.So(Composite(card("a", 50, 50, 50, 50, 100, 50)), convey.ShouldEqual, 50.0)
		})
	})
}

func TestTierFor(t *testing.T) {
	convey.Convey("Tiers follow the composite thresholds", t, func() {
		convey.So(TierFor(100), convey.ShouldEqual, TierLeader)
		convey.So(TierFor(85), convey.ShouldEqual, TierLeader)
		convey.So(TierFor(84.9), convey.ShouldEqual, TierStrong)
		convey.So(TierFor(70), convey.ShouldEqual, TierStrong)
		convey.So(TierFor(55), convey.ShouldEqual, TierAverage)
		convey.So(TierFor(40), convey.ShouldEqual, TierNeedsImprovement)
		convey.So(TierFor(39.9), convey.ShouldEqual, TierLagging)
		convey.So(TierNeedsImprovement.Weak(), convey.ShouldBeTrue)
		convey.So(TierAverage.Weak(), convey.ShouldBeFalse)
	})
}

func TestRank(t *testing.T) {
	convey.Convey("Given three sites scoring 70, 85 and 85", t, func() {
		cards := []scoring.ScoreCard{flatCard("t", 70), flatCard("a", 85), flatCard("b", 85)}

		entries := Rank(cards, 0)

		convey.Convey("Then the tie keeps input order", func() {
			convey.So(positions(entries, "t", "a", "b"), convey.ShouldResemble, []int{3, 1, 2})
		})

		convey.Convey("Then positions run from 1 to N in sorted order", func() {
			for i, e := range entries {
				convey.So(e.Position, convey.ShouldEqual, i+1)
				if i > 0 {
					convey.So(entries[i-1].Composite, convey.ShouldBeGreaterThanOrEqualTo, e.Composite)
				}
			}
		})

		convey.Convey("Then only the target is flagged and tiers are set", func() {
			convey.So(entries[2].IsTarget, convey.ShouldBeTrue)
			convey.So(entries[0].IsTarget, convey.ShouldBeFalse)
			convey.So(entries[0].Tier, convey.ShouldEqual, TierLeader)
			convey.So(entries[2].Tier, convey.ShouldEqual, TierStrong)
		})
	})

	convey.Convey("Given the target ties with a competitor", t, func() {
		entries := Rank([]scoring.ScoreCard{flatCard("t", 60), flatCard("a", 60)}, 0)

		convey.So(entries[0].URL, convey.ShouldEqual, "t")
		convey.So(entries[0].Position, convey.ShouldEqual, 1)
	})

	convey.Convey("Given no cards", t, func() {
		convey.So(Rank(nil, 0), convey.ShouldBeEmpty)
	})
}
