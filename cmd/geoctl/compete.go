package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/seo-optimizer/geo/analyzer"
	"github.com/seo-optimizer/geo/ranking"
)

func newCompeteCmd(g *globals, build builder) *cobra.Command {
	var opts analyzer.CompareOptions

	cmd := &cobra.Command{
		Use:   "compete <url>",
		Short: "Rank a page against its competitors",
		Long: `Score the target and every competitor with the judge panel and rank them.

Without --competitor the competitors are discovered by asking the LLM.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, p, ctx, cleanup, err := g.setup(cmd, build)
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := svc.Compare(ctx, args[0], opts)
			if err != nil {
				return err
			}
			if g.json {
				return writeJSON(cmd, report)
			}
			renderReport(p, report)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Competitors, "competitor", "c", nil, "competitor URL (repeatable)")
	cmd.Flags().IntVar(&opts.MaxCompetitors, "max", 0, "maximum competitors to discover (0 uses the configured default)")
	cmd.Flags().BoolVar(&opts.RequireCompetitors, "require", false, "fail when no competitors are found")
	return cmd
}

func renderReport(p *printer, r *ranking.Report) {
	p.Header("Competitive ranking: " + r.TargetURL)

	rows := make([][]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		url := e.URL
		if e.IsTarget {
			url = p.Bold(url + " *")
		}
		rows = append(rows, []string{
			strconv.Itoa(e.Position),
			url,
			p.Score(e.Composite),
			p.Score(e.Card.OverallGeoScore),
			p.Tier(e.Tier),
		})
	}
	p.Table([]string{"#", "site", "composite", "overall", "tier"}, rows)

	if tr := r.TargetRanking; tr.Total > 0 {
		p.Print("")
		p.Print("Position %d of %d, %s competitive level, %s market position, gap to leader %.1f",
			tr.Position, tr.Total, tr.Level, r.MarketPosition, r.CompetitiveGap)
	}
	for _, f := range r.FetchFailures {
		p.Warning("%s could not be fetched (%s)", f.URL, f.Kind)
	}

	p.List("Strengths", r.SWOT.Strengths)
	p.List("Weaknesses", r.SWOT.Weaknesses)
	p.List("Opportunities", r.SWOT.Opportunities)
	p.List("Threats", r.SWOT.Threats)

	if len(r.PerformanceMetrics.Metrics) > 0 {
		mrows := make([][]string, 0, len(r.PerformanceMetrics.Metrics))
		for _, m := range r.PerformanceMetrics.Metrics {
			mrows = append(mrows, []string{
				m.Metric,
				p.Score(m.Target),
				p.Score(m.CompetitorAverage),
				fmt.Sprintf("%+.1f", m.Gap),
			})
		}
		p.Header("Metrics")
		p.Table([]string{"metric", "target", "competitors", "gap"}, mrows)
	}
	p.List("Insights", r.PerformanceMetrics.Insights)

	p.List("Quick wins", r.ImprovementPlan.QuickWins)
	p.List("Immediate actions", r.ImprovementPlan.Immediate)
	p.List("Next steps", r.ExecutiveSummary.NextSteps)
	if r.ExecutiveSummary.Overview != "" {
		p.Header("Summary")
		p.Print("%s", r.ExecutiveSummary.Overview)
	}
}
