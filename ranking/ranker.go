package ranking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/seo-optimizer/geo/logging"
	"github.com/seo-optimizer/geo/scoring"
)

// DefaultSiteConcurrency bounds how many sites are scored at once.
const DefaultSiteConcurrency = 3

// ErrEmptyTarget is returned when Rank is called without a target URL.
var ErrEmptyTarget = errors.New("ranking: empty target url")

// Scorer produces a score card for one site.
type Scorer interface {
	Score(ctx context.Context, url string) (scoring.Result, error)
}

// Ranker scores a target and its competitors and ranks them.
type Ranker struct {
	scorer      Scorer
	concurrency int
	log         logging.Logger
	now         func() time.Time
}

// RankerOption configures a Ranker.
type RankerOption func(*Ranker)

// WithConcurrency bounds how many sites are scored concurrently.
func WithConcurrency(n int) RankerOption {
	return func(r *Ranker) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) RankerOption {
	return func(r *Ranker) { r.log = l }
}

// NewRanker builds a ranker on top of a single-site scorer.
func NewRanker(scorer Scorer, opts ...RankerOption) *Ranker {
	r := &Ranker{
		scorer:      scorer,
		concurrency: DefaultSiteConcurrency,
		log:         logging.Named("ranking"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank scores target and every competitor and returns the competitive
// report. Sites whose page cannot be fetched stay in the ranking with a
// fallback card. Competitors equal to the target or to an earlier
// competitor are skipped. The only errors are an empty target and the
// caller's cancellation.
func (r *Ranker) Rank(ctx context.Context, target string, competitors []string) (*Report, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, ErrEmptyTarget
	}
	urls := siteList(target, competitors)

	results := make([]scoring.Result, len(urls))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			res, err := r.scorer.Score(ctx, u)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cards := make([]scoring.ScoreCard, len(results))
	var failures []SiteFailure
	for i, res := range results {
		cards[i] = res.Card
		if res.FetchErr != nil {
			failures = append(failures, SiteFailure{
				URL:        urls[i],
				Kind:       string(res.FetchErr.Kind),
				StatusCode: res.FetchErr.StatusCode,
			})
		}
	}

	report := Analyze(Rank(cards, 0))
	report.RunID = uuid.NewString()
	report.GeneratedAt = r.now()
	report.FetchFailures = failures
	if len(failures) > 0 {
		report.ExecutiveSummary = executiveSummary(&report)
	}

	r.log.Info(ctx, "ranking finished",
		logging.String("run_id", report.RunID),
		logging.String("target", target),
		logging.Int("sites", len(urls)),
		logging.Int("position", report.TargetRanking.Position),
		logging.Int("fetch_failures", len(failures)))
	return &report, nil
}

// siteList puts the target first and drops repeated competitors.
func siteList(target string, competitors []string) []string {
	urls := []string{target}
	seen := map[string]struct{}{canonical(target): {}}
	for _, c := range competitors {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		key := canonical(c)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		urls = append(urls, c)
	}
	return urls
}

func canonical(u string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(u)), "/")
}
