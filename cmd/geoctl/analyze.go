package main

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seo-optimizer/geo/analyzer"
	"github.com/seo-optimizer/geo/judge"
)

func newAnalyzeCmd(g *globals, build builder) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <url>",
		Short: "Score one page with the judge panel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, p, ctx, cleanup, err := g.setup(cmd, build)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := svc.Analyze(ctx, args[0])
			if err != nil {
				return err
			}
			if g.json {
				return writeJSON(cmd, res)
			}
			renderAnalysis(p, res)
			return nil
		},
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderAnalysis(p *printer, a *analyzer.SiteAnalysis) {
	card := a.Card

	p.Header("GEO analysis: " + a.URL)
	status := string(card.SummaryLabel)
	if card.IsFallback {
		status = "fallback"
	}
	if a.Cached {
		status += " (cached)"
	}
	p.Print("%s %s   %s", p.Bold("Overall:"), p.Score(card.OverallGeoScore), status)
	if a.FetchError != nil {
		p.Warning("page could not be fetched (%s)", a.FetchError.Kind)
	}

	rows := make([][]string, 0, len(judge.Categories)+4)
	for _, c := range judge.Categories {
		rows = append(rows, []string{string(c), p.Score(card.Category(c))})
	}
	rows = append(rows,
		[]string{"citation potential", p.Score(card.CitationPotential)},
		[]string{"semantic density", p.Score(card.SemanticDensityScore)},
		[]string{"clear answers", p.Score(card.ClearAnswerQuality)},
		[]string{"rag optimization", p.Score(card.RAGOptimizationScore)},
	)
	p.Header("Scores")
	p.Table([]string{"metric", "score"}, rows)

	if len(card.JudgeScores) > 0 {
		ids := make([]string, 0, len(card.JudgeScores))
		for id := range card.JudgeScores {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		jrows := make([][]string, 0, len(ids))
		for _, id := range ids {
			js := card.JudgeScores[id]
			jrows = append(jrows, []string{id, js.Overall.String(), string(js.Label)})
		}
		p.Header("Judges")
		p.Table([]string{"judge", "overall", "label"}, jrows)
	}

	p.List("Recommendations", card.Recommendations)
	p.List("Structure", card.StructuralHints)

	if len(card.Failures) > 0 {
		failed := make([]string, 0, len(card.Failures))
		for _, f := range card.Failures {
			failed = append(failed, f.JudgeID+": "+f.Failure.Error())
		}
		p.List("Judge failures", failed)
	}
	if card.Summary != "" {
		p.Header("Summary")
		p.Print("%s", strings.TrimSpace(card.Summary))
	}
}
