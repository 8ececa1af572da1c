// Package analyzer is the service facade: it scores single pages, compares a
// page against its competitors and keeps the cache, statistics and history
// around both operations.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/seo-optimizer/geo/cache"
	"github.com/seo-optimizer/geo/config"
	"github.com/seo-optimizer/geo/content"
	"github.com/seo-optimizer/geo/history"
	"github.com/seo-optimizer/geo/judge"
	"github.com/seo-optimizer/geo/llm"
	"github.com/seo-optimizer/geo/logging"
	"github.com/seo-optimizer/geo/metrics"
	"github.com/seo-optimizer/geo/ranking"
	"github.com/seo-optimizer/geo/scoring"
	"github.com/seo-optimizer/geo/stats"
)

const publishTimeout = 5 * time.Second

var (
	// ErrNoCompetitors is returned when competitors were required but none
	// were given or discovered.
	ErrNoCompetitors = errors.New("analyzer: no competitors found")
	// ErrMissingDependency is returned by New when a required part is nil.
	ErrMissingDependency = errors.New("analyzer: missing dependency")
)

// Scorer scores one page.
type Scorer interface {
	Score(ctx context.Context, url string) (scoring.Result, error)
}

// Ranker ranks a target against competitors.
type Ranker interface {
	Rank(ctx context.Context, target string, competitors []string) (*ranking.Report, error)
}

// Discoverer suggests competitors for a target.
type Discoverer interface {
	Discover(ctx context.Context, target string, n int) []string
}

// Deps are the parts an Analyzer is assembled from. Scorer and Ranker are
// required; everything else has a working default.
type Deps struct {
	Scorer     Scorer
	Ranker     Ranker
	Discoverer Discoverer
	Personas   []judge.Persona

	Analyses     cache.Store[SiteAnalysis]
	Reports      cache.Store[ranking.Report]
	CacheBackend string
	CacheTTL     time.Duration

	Stats   *stats.Storage
	Traffic *stats.Traffic
	History history.Publisher
	Metrics *metrics.Manager
	Log     logging.Logger

	MaxCompetitors int
	DevMode        bool
}

// Analyzer performs GEO analysis of pages and competitive comparisons.
type Analyzer struct {
	scorer     Scorer
	ranker     Ranker
	discoverer Discoverer
	personas   []judge.Persona

	analyses     cache.Store[SiteAnalysis]
	reports      cache.Store[ranking.Report]
	cacheBackend string
	cacheTTL     time.Duration

	stats   *stats.Storage
	traffic *stats.Traffic
	history history.Publisher
	metrics *metrics.Manager
	log     logging.Logger

	maxCompetitors int
	devMode        bool
}

// New assembles an Analyzer from d.
func New(d Deps) (*Analyzer, error) {
	if d.Scorer == nil || d.Ranker == nil {
		return nil, fmt.Errorf("%w: scorer and ranker are required", ErrMissingDependency)
	}
	a := &Analyzer{
		scorer:         d.Scorer,
		ranker:         d.Ranker,
		discoverer:     d.Discoverer,
		personas:       d.Personas,
		analyses:       d.Analyses,
		reports:        d.Reports,
		cacheBackend:   d.CacheBackend,
		cacheTTL:       d.CacheTTL,
		stats:          d.Stats,
		traffic:        d.Traffic,
		history:        d.History,
		metrics:        d.Metrics,
		log:            d.Log,
		maxCompetitors: d.MaxCompetitors,
		devMode:        d.DevMode,
	}
	if a.cacheTTL <= 0 {
		a.cacheTTL = 30 * time.Minute
	}
	if a.analyses == nil {
		a.analyses = cache.NewMemory[SiteAnalysis](1000, a.cacheTTL)
		a.cacheBackend = "memory"
	}
	if a.reports == nil {
		a.reports = cache.NewMemory[ranking.Report](100, a.cacheTTL)
	}
	if a.history == nil {
		a.history = history.Nop{}
	}
	if a.log == nil {
		a.log = logging.Named("analyzer")
	}
	if a.maxCompetitors <= 0 {
		a.maxCompetitors = 5
	}
	return a, nil
}

// Build wires the production dependencies described by cfg.
func Build(ctx context.Context, cfg *config.Config) (*Analyzer, error) {
	log := logging.Named("analyzer")
	m := metrics.Default()

	backend := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey,
		llm.WithOptions(llm.Options{Temperature: cfg.LLMTemperature, MaxTokens: cfg.LLMMaxTokens}),
		llm.WithRateLimit(cfg.LLMRatePerSecond, cfg.LLMBurst))

	panel, err := judge.NewPanel(backend, cfg.Personas(),
		judge.WithTimeout(cfg.JudgeTimeout),
		judge.WithLogger(logging.Named("judge")),
		judge.WithMetrics(m))
	if err != nil {
		return nil, err
	}

	pipeline := scoring.NewPipeline(content.NewHTTPFetcher(cfg.FetchTimeout), panel,
		scoring.WithLogger(logging.Named("scoring")),
		scoring.WithMetrics(m))
	ranker := ranking.NewRanker(pipeline,
		ranking.WithConcurrency(cfg.SiteConcurrency),
		ranking.WithLogger(logging.Named("ranking")))
	discoverer := ranking.NewDiscoverer(backend, cfg.DiscoveryModel,
		ranking.WithDiscoveryTimeout(cfg.JudgeTimeout),
		ranking.WithDiscoveryCache(cfg.CacheSize, cfg.CacheTTL),
		ranking.WithDiscoveryLogger(logging.Named("discovery")),
		ranking.WithDiscoveryMetrics(m))

	d := Deps{
		Scorer:         pipeline,
		Ranker:         ranker,
		Discoverer:     discoverer,
		Personas:       panel.Personas(),
		CacheTTL:       cfg.CacheTTL,
		Metrics:        m,
		Log:            log,
		MaxCompetitors: cfg.MaxCompetitors,
		DevMode:        cfg.DevMode,
	}

	if cfg.RedisAddr != "" {
		analyses, err := cache.NewRedis[SiteAnalysis](ctx, cfg.RedisAddr, "geo:analysis:", cfg.CacheTTL)
		if err != nil {
			return nil, err
		}
		reports, err := cache.NewRedis[ranking.Report](ctx, cfg.RedisAddr, "geo:report:", cfg.CacheTTL)
		if err != nil {
			_ = analyses.Close()
			return nil, err
		}
		d.Analyses, d.Reports, d.CacheBackend = analyses, reports, "redis"
	} else {
		d.Analyses = cache.NewMemory[SiteAnalysis](cfg.CacheSize, cfg.CacheTTL)
		d.Reports = cache.NewMemory[ranking.Report](max(cfg.CacheSize/10, 1), cfg.CacheTTL)
		d.CacheBackend = "memory"
	}

	if brokers := cfg.Brokers(); len(brokers) > 0 {
		d.History = history.NewKafka(brokers, cfg.KafkaTopic)
	}

	if err := openStats(&d, cfg.DataDir); err != nil {
		closeClients(d)
		return nil, err
	}

	log.Info(ctx, "analyzer ready",
		logging.Int("judges", len(d.Personas)),
		logging.String("cache", d.CacheBackend),
		logging.Bool("history", d.History != nil))
	return New(d)
}

func openStats(d *Deps, dataDir string) error {
	st, err := stats.NewStorage(dataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize stats storage: %w", err)
	}
	traffic, err := stats.NewTraffic(dataDir)
	if err != nil {
		_ = st.Shutdown()
		return fmt.Errorf("failed to initialize traffic statistics: %w", err)
	}
	d.Stats, d.Traffic = st, traffic
	return nil
}

// closeClients releases the cache and history connections of a partially
// built Analyzer.
func closeClients(d Deps) {
	if d.Analyses != nil {
		_ = d.Analyses.Close()
	}
	if d.Reports != nil {
		_ = d.Reports.Close()
	}
	if d.History != nil {
		_ = d.History.Close()
	}
}

// Personas returns the configured judges.
func (a *Analyzer) Personas() []judge.Persona {
	return append([]judge.Persona(nil), a.personas...)
}

// Traffic returns the request statistics collector, if any.
func (a *Analyzer) Traffic() *stats.Traffic { return a.traffic }

// IsCached reports whether url has a cached analysis.
func (a *Analyzer) IsCached(ctx context.Context, url string) bool {
	_, err := a.analyses.Get(ctx, analysisKey(url))
	return err == nil
}

// Analyze scores a single page. Judge and fetch failures degrade the card
// rather than failing the call; the only error is cancellation.
func (a *Analyzer) Analyze(ctx context.Context, url string) (*SiteAnalysis, error) {
	start := time.Now()
	key := analysisKey(url)

	if cached, err := a.analyses.Get(ctx, key); err == nil {
		a.recordCache("analysis", true)
		a.record(stats.Delta{Analyses: 1, CacheHits: 1})
		cached.Cached = true
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		a.log.Warn(ctx, "analysis cache lookup failed", logging.String("url", url), logging.Err(err))
	}
	a.recordCache("analysis", false)

	res, err := a.scorer.Score(ctx, url)
	if err != nil {
		return nil, err
	}

	out := &SiteAnalysis{
		URL:        url,
		Card:       res.Card,
		Descriptor: res.Descriptor,
		Duration:   time.Since(start),
	}
	delta := stats.Delta{Analyses: 1, CacheMisses: 1, JudgeFailures: len(res.Card.Failures)}
	if res.Card.IsFallback {
		delta.FallbackCards = 1
	}
	if res.FetchErr != nil {
		out.FetchError = &ranking.SiteFailure{URL: url, Kind: string(res.FetchErr.Kind), StatusCode: res.FetchErr.StatusCode}
		delta.FetchFailures = 1
	}
	a.record(delta)

	// degraded results are not cached so the next request retries
	if out.FetchError == nil && !res.Card.IsFallback {
		if err := a.analyses.Set(ctx, key, *out); err != nil {
			a.log.Warn(ctx, "caching analysis failed", logging.String("url", url), logging.Err(err))
		}
	}

	a.publish(ctx, history.Snapshot{Source: "analyze", Card: res.Card})
	if a.metrics != nil {
		a.metrics.RecordAnalysis("analyze")
	}
	return out, nil
}

// Compare ranks target against explicit or discovered competitors. Explicit
// competitors are all ranked; the competitor cap only bounds discovery.
func (a *Analyzer) Compare(ctx context.Context, target string, opts CompareOptions) (*ranking.Report, error) {
	competitors := opts.Competitors
	if len(competitors) == 0 && a.discoverer != nil {
		n := opts.MaxCompetitors
		if n <= 0 || n > a.maxCompetitors {
			n = a.maxCompetitors
		}
		competitors = a.discoverer.Discover(ctx, target, n)
	}
	if len(competitors) == 0 && opts.RequireCompetitors {
		return nil, ErrNoCompetitors
	}

	key := reportKey(target, competitors)
	if cached, err := a.reports.Get(ctx, key); err == nil {
		a.recordCache("report", true)
		a.record(stats.Delta{Comparisons: 1, CacheHits: 1})
		return &cached, nil
	}
	a.recordCache("report", false)

	report, err := a.ranker.Rank(ctx, target, competitors)
	if err != nil {
		return nil, err
	}

	delta := stats.Delta{Comparisons: 1, CacheMisses: 1, FetchFailures: len(report.FetchFailures)}
	snaps := make([]history.Snapshot, 0, len(report.Entries))
	degraded := len(report.FetchFailures) > 0
	for _, e := range report.Entries {
		delta.JudgeFailures += len(e.Card.Failures)
		if e.Card.IsFallback {
			delta.FallbackCards++
			degraded = true
		}
		snaps = append(snaps, history.Snapshot{Source: "compare", RunID: report.RunID, Card: e.Card})
	}
	a.record(delta)

	if !degraded {
		if err := a.reports.Set(ctx, key, *report); err != nil {
			a.log.Warn(ctx, "caching report failed", logging.String("target", target), logging.Err(err))
		}
	}

	a.publish(ctx, snaps...)
	if a.metrics != nil {
		a.metrics.RecordAnalysis("compare")
	}
	return report, nil
}

// Statistics returns the persisted counters and, when a traffic collector
// is configured, request statistics. Popular pages are only listed in dev
// mode.
func (a *Analyzer) Statistics() Statistics {
	var s Statistics
	if a.stats != nil {
		s.Current = a.stats.GetCurrentStats()
		s.Months = a.stats.GetAllMonths()
	}
	s.Cache = CacheStats{
		Backend:     a.cacheBackend,
		CacheHits:   s.Current.CacheHits,
		CacheMisses: s.Current.CacheMisses,
		CacheTTL:    a.cacheTTL,
	}
	if total := s.Current.CacheHits + s.Current.CacheMisses; total > 0 {
		s.Cache.HitRatePercent = float64(s.Current.CacheHits) / float64(total) * 100
	}
	if a.traffic != nil {
		popular := 0
		if a.devMode {
			popular = 5
		}
		s.Traffic = a.traffic.Summary(popular)
	}
	return s
}

// Shutdown flushes statistics and releases the cache and history clients.
func (a *Analyzer) Shutdown(ctx context.Context) error {
	var errs []error
	if a.stats != nil {
		errs = append(errs, a.stats.Shutdown())
	}
	if a.traffic != nil {
		errs = append(errs, a.traffic.Save())
	}
	errs = append(errs, a.analyses.Close(), a.reports.Close(), a.history.Close())
	err := errors.Join(errs...)
	if err != nil {
		a.log.Error(ctx, "shutdown incomplete", logging.Err(err))
	}
	return err
}

func (a *Analyzer) publish(ctx context.Context, snaps ...history.Snapshot) {
	if len(snaps) == 0 {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := a.history.Publish(pubCtx, snaps...); err != nil {
		a.log.Warn(ctx, "publishing history failed", logging.Int("snapshots", len(snaps)), logging.Err(err))
		if a.metrics != nil {
			a.metrics.RecordHistoryError()
		}
	}
}

func (a *Analyzer) record(d stats.Delta) {
	if a.stats != nil {
		a.stats.Record(d)
	}
}

func (a *Analyzer) recordCache(name string, hit bool) {
	if a.metrics != nil {
		a.metrics.RecordCache(name, hit)
	}
}

func analysisKey(url string) string {
	return cache.Key("analysis", strings.TrimSpace(url))
}

func reportKey(target string, competitors []string) string {
	parts := append([]string{"report", strings.TrimSpace(target), strconv.Itoa(len(competitors))}, competitors...)
	return cache.Key(parts...)
}
