package ranking

import (
	"fmt"

	"github.com/seo-optimizer/geo/judge"
)

var strengthText = map[judge.Category]string{
	judge.Citation:  "High citation potential in AI answers",
	judge.Semantic:  "Excellent semantic density of the content",
	judge.Structure: "High-quality ready-made answers for snippets",
	judge.Technical: "Solid technical optimization",
	judge.RAG:       "Good optimization for RAG systems",
}

var weaknessText = map[judge.Category]string{
	judge.Citation:  "Low citation potential compared to competitors",
	judge.Semantic:  "Insufficient semantic density",
	judge.Structure: "Answers are harder to extract than on competing sites",
	judge.Technical: "Technical optimization trails the competition",
	judge.RAG:       "Weak optimization for RAG systems",
}

var weaknessPriority = map[judge.Category]string{
	judge.Citation:  "High",
	judge.RAG:       "High",
	judge.Semantic:  "Medium",
	judge.Structure: "Medium",
	judge.Technical: "Low",
}

const maxPriorities = 5

func categoryMean(entries []Entry, c judge.Category) float64 {
	if len(entries) == 0 {
		return 0
	}
	var sum float64
	for _, e := range entries {
		sum += e.Card.Category(c)
	}
	return sum / float64(len(entries))
}

// weakCategories returns the categories where the target scores below the
// mean of all ranked entries, in category order.
func weakCategories(target Entry, entries []Entry) []judge.Category {
	var weak []judge.Category
	for _, c := range judge.Categories {
		if target.Card.Category(c) < categoryMean(entries, c) {
			weak = append(weak, c)
		}
	}
	return weak
}

func swot(target Entry, entries []Entry, leader Entry, hasLeader bool) SWOT {
	s := SWOT{
		Strengths:     []string{},
		Weaknesses:    []string{},
		Opportunities: []string{},
		Threats:       []string{},
	}
	for _, c := range judge.Categories {
		mean := categoryMean(entries, c)
		switch v := target.Card.Category(c); {
		case v > mean:
			s.Strengths = append(s.Strengths, strengthText[c])
		case v < mean:
			s.Weaknesses = append(s.Weaknesses, weaknessText[c])
		}
	}

	if hasLeader && target.Composite < leader.Composite {
		s.Opportunities = append(s.Opportunities,
			fmt.Sprintf("Opportunity to improve the score by %.1f points to take the lead", leader.Composite-target.Composite))
	}
	if target.Card.FetchFailed {
		s.Threats = append(s.Threats, "The page could not be fetched, so AI crawlers may not reach it either")
	}
	if inBottom(target.Position, len(entries)) {
		s.Threats = append(s.Threats, "Risk of losing positions in AI search results")
	}
	return s
}

// inBottom reports whether position falls in the bottom 30% of total.
func inBottom(position, total int) bool {
	return float64(position) > float64(total)*0.7
}

func improvementPriorities(weak []judge.Category, tier Tier) []string {
	var out []string
	for _, c := range weak {
		out = append(out, weaknessPriority[c]+": "+weaknessText[c])
	}
	if tier.Weak() {
		out = append(out, "Critical: fundamental improvement of GEO optimization")
	}
	if len(out) > maxPriorities {
		out = out[:maxPriorities]
	}
	return out
}

func strategicRecommendations(target Entry, gap float64, weak []judge.Category) []string {
	var recs []string
	switch {
	case target.Position == 1:
		recs = append(recs,
			"Strengthen the leading position through innovation in GEO optimization",
			"Experiment with new content formats for AI")
	case target.Position <= 3:
		recs = append(recs,
			fmt.Sprintf("Focus on closing the gap with the leader (%.1f points)", gap),
			"Analyze the best practices of the top competitors")
	default:
		recs = append(recs,
			"Priority: improve the basic GEO optimization indicators",
			"Study and adopt the approaches of the upper-segment sites")
	}

	for _, c := range weak {
		switch c {
		case judge.Citation:
			recs = append(recs, "Increase the number of clear answers and structured data")
		case judge.RAG:
			recs = append(recs, "Optimize content for Retrieval-Augmented Generation systems")
		case judge.Semantic:
			recs = append(recs, "Improve semantic density by deepening topical coverage")
		}
	}

	return append(recs,
		"Monitor competitors' GEO indicators regularly",
		"Adapt the content strategy to the specifics of different LLMs",
		"Introduce A/B testing for GEO elements")
}
