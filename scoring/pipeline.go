package scoring

import (
	"context"

	"github.com/seo-optimizer/geo/content"
	"github.com/seo-optimizer/geo/judge"
	"github.com/seo-optimizer/geo/logging"
	"github.com/seo-optimizer/geo/metrics"
)

// Judge is the part of a judge panel the pipeline needs.
type Judge interface {
	Run(ctx context.Context, d content.Descriptor) (judge.PanelResult, error)
}

// Pipeline fetches a page, asks the panel about it and aggregates the answer.
type Pipeline struct {
	fetcher content.Fetcher
	panel   Judge
	log     logging.Logger
	metrics *metrics.Manager
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) PipelineOption {
	return func(p *Pipeline) { p.log = l }
}

// WithMetrics records cards and fetch failures on m.
func WithMetrics(m *metrics.Manager) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// NewPipeline wires a fetcher to a panel.
func NewPipeline(fetcher content.Fetcher, panel Judge, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		fetcher: fetcher,
		panel:   panel,
		log:     logging.Named("scoring"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is a score card with the descriptor it was computed from.
type Result struct {
	Card       ScoreCard          `json:"card"`
	Descriptor content.Descriptor `json:"descriptor"`
	// FetchErr is set when the page could not be fetched; the card is then a
	// full structural fallback and no judge was asked.
	FetchErr *content.FetchError `json:"-"`
}

// Score produces a card for url. The only error is the caller's cancellation.
func (p *Pipeline) Score(ctx context.Context, url string) (Result, error) {
	d, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		fe, ok := content.AsFetchError(err)
		if !ok {
			fe = &content.FetchError{URL: url, Kind: content.NotReachable, Err: err}
		}
		p.log.Warn(ctx, "fetch failed, using structural fallback",
			logging.String("url", url),
			logging.String("kind", string(fe.Kind)),
			logging.Err(err))
		if p.metrics != nil {
			p.metrics.RecordFetchFailure(string(fe.Kind))
		}

		d = content.Minimal(url)
		card := Aggregate(judge.PanelResult{Descriptor: d})
		card.FetchFailed = true
		card.StructuralHints = nil
		card.Recommendations = nil
		p.record(card)
		return Result{Card: card, Descriptor: d, FetchErr: fe}, nil
	}

	panel, err := p.panel.Run(ctx, d)
	if err != nil {
		return Result{}, err
	}
	card := Aggregate(panel)
	p.record(card)
	p.log.Info(ctx, "page scored",
		logging.String("url", url),
		logging.Float64("overall", card.OverallGeoScore),
		logging.Bool("fallback", card.IsFallback),
		logging.Int("judges", len(card.JudgesUsed)))
	return Result{Card: card, Descriptor: d}, nil
}

func (p *Pipeline) record(card ScoreCard) {
	if p.metrics != nil {
		p.metrics.RecordScoreCard(card.OverallGeoScore, card.IsFallback)
	}
}
