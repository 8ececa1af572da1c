package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/geo/config"
	"github.com/seo-optimizer/geo/content"
	"github.com/seo-optimizer/geo/history"
	"github.com/seo-optimizer/geo/judge"
	"github.com/seo-optimizer/geo/ranking"
	"github.com/seo-optimizer/geo/scoring"
	"github.com/seo-optimizer/geo/stats"
)

type fakeScorer struct {
	calls    atomic.Int32
	fallback bool
	fetchErr bool
}

func (f *fakeScorer) Score(ctx context.Context, url string) (scoring.Result, error) {
	if err := ctx.Err(); err != nil {
		return scoring.Result{}, err
	}
	f.calls.Add(1)
	card := scoring.ScoreCard{URL: url, OverallGeoScore: 72, IsFallback: f.fallback}
	res := scoring.Result{Card: card, Descriptor: content.Descriptor{URL: url}}
	if f.fetchErr {
		res.Card.FetchFailed = true
		res.FetchErr = &content.FetchError{URL: url, Kind: content.HTTPStatus, StatusCode: 503}
	}
	return res, nil
}

type fakeRanker struct {
	calls       atomic.Int32
	competitors []string
}

func (f *fakeRanker) Rank(_ context.Context, target string, competitors []string) (*ranking.Report, error) {
	f.calls.Add(1)
	f.competitors = competitors
	cards := []scoring.ScoreCard{{URL: target, OverallGeoScore: 60}}
	for i, c := range competitors {
		cards = append(cards, scoring.ScoreCard{URL: c, OverallGeoScore: float64(70 + i)})
	}
	r := ranking.Analyze(ranking.Rank(cards, 0))
	r.RunID = "run-1"
	r.TargetURL = target
	r.Competitors = competitors
	return &r, nil
}

type fakeDiscoverer struct {
	urls []string
	n    int
}

func (f *fakeDiscoverer) Discover(_ context.Context, _ string, n int) []string {
	f.n = n
	return f.urls
}

type recordingPublisher struct {
	mu    sync.Mutex
	snaps []history.Snapshot
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, snaps ...history.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snaps = append(p.snaps, snaps...)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func newTestAnalyzer(t *testing.T, d Deps) *Analyzer {
	t.Helper()
	if d.Stats == nil {
		st, err := stats.NewStorage(t.TempDir())
		require.NoError(t, err)
		d.Stats = st
	}
	a, err := New(d)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func TestNewRequiresScorerAndRanker(t *testing.T) {
	_, err := New(Deps{Scorer: &fakeScorer{}})
	assert.ErrorIs(t, err, ErrMissingDependency)
}

func TestAnalyzeCachesResult(t *testing.T) {
	scorer := &fakeScorer{}
	pub := &recordingPublisher{}
	a := newTestAnalyzer(t, Deps{Scorer: scorer, Ranker: &fakeRanker{}, History: pub})
	ctx := context.Background()

	first, err := a.Analyze(ctx, "https://example.com")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Nil(t, first.FetchError)
	assert.True(t, a.IsCached(ctx, "https://example.com"))

	second, err := a.Analyze(ctx, "https://example.com")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 72.0, second.Card.OverallGeoScore)
	assert.EqualValues(t, 1, scorer.calls.Load())

	current := a.Statistics().Current
	assert.Equal(t, 2, current.Analyses)
	assert.Equal(t, 1, current.CacheHits)
	assert.Equal(t, 1, current.CacheMisses)
	assert.Equal(t, 50.0, a.Statistics().Cache.HitRatePercent)

	require.Len(t, pub.snaps, 1)
	assert.Equal(t, "analyze", pub.snaps[0].Source)
}

func TestAnalyzeDoesNotCacheDegradedResults(t *testing.T) {
	scorer := &fakeScorer{fetchErr: true}
	a := newTestAnalyzer(t, Deps{Scorer: scorer, Ranker: &fakeRanker{}})
	ctx := context.Background()

	res, err := a.Analyze(ctx, "https://down.test")
	require.NoError(t, err)
	require.NotNil(t, res.FetchError)
	assert.Equal(t, "http_status", res.FetchError.Kind)
	assert.Equal(t, 503, res.FetchError.StatusCode)

	_, err = a.Analyze(ctx, "https://down.test")
	require.NoError(t, err)
	assert.EqualValues(t, 2, scorer.calls.Load())
	assert.Equal(t, 2, a.Statistics().Current.FetchFailures)
}

func TestAnalyzeCancelled(t *testing.T) {
	a := newTestAnalyzer(t, Deps{Scorer: &fakeScorer{}, Ranker: &fakeRanker{}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Analyze(ctx, "https://example.com")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeHistoryFailureIsNotFatal(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	a := newTestAnalyzer(t, Deps{Scorer: &fakeScorer{}, Ranker: &fakeRanker{}, History: pub})

	res, err := a.Analyze(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.NotNil(t, res)
}

func TestConcurrentAnalyze(t *testing.T) {
	a := newTestAnalyzer(t, Deps{Scorer: &fakeScorer{}, Ranker: &fakeRanker{}})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := a.Analyze(context.Background(), fmt.Sprintf("https://site%d.test", i%5))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, a.Statistics().Current.Analyses)
}

func TestCompareWithExplicitCompetitors(t *testing.T) {
	ranker := &fakeRanker{}
	disc := &fakeDiscoverer{urls: []string{"https://never.test"}}
	pub := &recordingPublisher{}
	a := newTestAnalyzer(t, Deps{
		Scorer: &fakeScorer{}, Ranker: ranker, Discoverer: disc, History: pub, MaxCompetitors: 2,
	})

	explicit := []string{"https://a.test", "https://b.test", "https://c.test"}
	report, err := a.Compare(context.Background(), "https://t.test", CompareOptions{
		Competitors:    explicit,
		MaxCompetitors: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, explicit, ranker.competitors)
	assert.Len(t, report.Entries, 4)
	assert.Zero(t, disc.n)

	require.Len(t, pub.snaps, 4)
	for _, s := range pub.snaps {
		assert.Equal(t, "compare", s.Source)
		assert.Equal(t, "run-1", s.RunID)
	}

	_, err = a.Compare(context.Background(), "https://t.test", CompareOptions{
		Competitors: explicit,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, ranker.calls.Load())
	assert.Equal(t, 2, a.Statistics().Current.Comparisons)
}

func TestCompareRanksEveryExplicitCompetitor(t *testing.T) {
	scorer := &fakeScorer{}
	a := newTestAnalyzer(t, Deps{
		Scorer: scorer, Ranker: ranking.NewRanker(scorer), MaxCompetitors: 5,
	})

	competitors := make([]string, 7)
	for i := range competitors {
		competitors[i] = fmt.Sprintf("https://rival%d.test", i)
	}
	report, err := a.Compare(context.Background(), "https://t.test", CompareOptions{Competitors: competitors})
	require.NoError(t, err)
	assert.Len(t, report.Entries, 8)
	assert.ElementsMatch(t, competitors, report.Competitors)
}

func TestCompareDiscoversCompetitors(t *testing.T) {
	ranker := &fakeRanker{}
	disc := &fakeDiscoverer{urls: []string{"https://a.test"}}
	a := newTestAnalyzer(t, Deps{Scorer: &fakeScorer{}, Ranker: ranker, Discoverer: disc, MaxCompetitors: 4})

	_, err := a.Compare(context.Background(), "https://t.test", CompareOptions{MaxCompetitors: 10})
	require.NoError(t, err)
	assert.Equal(t, 4, disc.n)
	assert.Equal(t, []string{"https://a.test"}, ranker.competitors)
}

func TestCompareRequireCompetitors(t *testing.T) {
	ranker := &fakeRanker{}
	a := newTestAnalyzer(t, Deps{Scorer: &fakeScorer{}, Ranker: ranker, Discoverer: &fakeDiscoverer{}})

	_, err := a.Compare(context.Background(), "https://t.test", CompareOptions{RequireCompetitors: true})
	assert.ErrorIs(t, err, ErrNoCompetitors)

	report, err := a.Compare(context.Background(), "https://t.test", CompareOptions{})
	require.NoError(t, err)
	assert.Len(t, report.Entries, 1)
}

func TestPersonasAreCopied(t *testing.T) {
	a := newTestAnalyzer(t, Deps{
		Scorer: &fakeScorer{}, Ranker: &fakeRanker{},
		Personas: []judge.Persona{{ID: "a"}},
	})
	p := a.Personas()
	p[0].ID = "changed"
	assert.Equal(t, "a", a.Personas()[0].ID)
}

func TestBuildWithMemoryCache(t *testing.T) {
	cfg := config.New()
	cfg.DataDir = t.TempDir()

	a, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "memory", a.Statistics().Cache.Backend)
	assert.Len(t, a.Personas(), len(cfg.Judges))
	require.NoError(t, a.Shutdown(context.Background()))
}

func TestBuildReleasesClientsWhenStatsFail(t *testing.T) {
	mr := miniredis.RunT(t)

	// a regular file where the data directory should be
	blocker := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	cfg := config.New()
	cfg.RedisAddr = mr.Addr()
	cfg.DataDir = blocker

	_, err := Build(context.Background(), cfg)
	require.Error(t, err)
	assert.Eventually(t, func() bool { return mr.CurrentConnectionCount() == 0 },
		2*time.Second, 20*time.Millisecond)
}
