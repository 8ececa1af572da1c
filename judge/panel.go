// Package judge prompts a panel of LLM judges about a page and parses their
// free-text answers into verdicts.
package judge

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seo-optimizer/geo/content"
	"github.com/seo-optimizer/geo/llm"
	"github.com/seo-optimizer/geo/logging"
	"github.com/seo-optimizer/geo/metrics"
)

// DefaultTimeout bounds a single judge call.
const DefaultTimeout = 60 * time.Second

// ErrNoPersonas is returned when a panel is built without judges.
var ErrNoPersonas = errors.New("judge: no personas configured")

// Panel runs every persona against the same page concurrently.
type Panel struct {
	backend  llm.Backend
	personas []Persona
	timeout  time.Duration
	log      logging.Logger
	metrics  *metrics.Manager
}

// Option configures a Panel.
type Option func(*Panel)

// WithTimeout sets the per-judge timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Panel) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(p *Panel) { p.log = l }
}

// WithMetrics records judge latency and failures on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(p *Panel) { p.metrics = m }
}

// NewPanel builds a panel. At least one persona is required.
func NewPanel(backend llm.Backend, personas []Persona, opts ...Option) (*Panel, error) {
	if len(personas) == 0 {
		return nil, ErrNoPersonas
	}
	p := &Panel{
		backend:  backend,
		personas: append([]Persona(nil), personas...),
		timeout:  DefaultTimeout,
		log:      logging.Named("judge"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Personas returns a copy of the configured judges.
func (p *Panel) Personas() []Persona {
	return append([]Persona(nil), p.personas...)
}

// Run asks every judge about d and waits for all of them. A failing judge
// never cancels the others. The only error is the caller's own cancellation.
func (p *Panel) Run(ctx context.Context, d content.Descriptor) (PanelResult, error) {
	started := time.Now()
	verdicts := make([]Verdict, len(p.personas))

	var g errgroup.Group
	g.SetLimit(len(p.personas))
	for i, persona := range p.personas {
		i, persona := i, persona
		g.Go(func() error {
			raw := Invoke(ctx, p.backend, Compose(d, persona), persona, p.timeout)
			p.observe(ctx, d.URL, raw)
			verdicts[i] = Parse(raw)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return PanelResult{}, err
	}

	res := PanelResult{
		Descriptor: d,
		Verdicts:   verdicts,
		StartedAt:  started,
		Duration:   time.Since(started),
	}
	for _, v := range verdicts {
		if v.Failure != nil {
			res.Failures = append(res.Failures, JudgeFailure{JudgeID: v.JudgeID, Failure: *v.Failure})
		}
	}
	if p.metrics != nil {
		p.metrics.RecordPanel()
	}
	p.log.Debug(ctx, "panel finished",
		logging.String("url", d.URL),
		logging.Int("judges", len(verdicts)),
		logging.Int("failures", len(res.Failures)),
		logging.Duration("duration", res.Duration))
	return res, nil
}

func (p *Panel) observe(ctx context.Context, url string, raw RawResponse) {
	kind := ""
	if raw.Failure != nil {
		kind = string(raw.Failure.Kind)
		p.log.Warn(ctx, "judge failed",
			logging.String("judge", raw.JudgeID),
			logging.String("url", url),
			logging.String("kind", kind),
			logging.Int("status", raw.Failure.StatusCode),
			logging.String("message", raw.Failure.Message))
	}
	if p.metrics != nil {
		p.metrics.RecordJudge(raw.JudgeID, kind, raw.Latency.Seconds())
	}
}
