package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/geo/content"
	"github.com/seo-optimizer/geo/judge"
	"github.com/seo-optimizer/geo/logging"
	"github.com/seo-optimizer/geo/metrics"
)

type fakeFetcher struct {
	desc content.Descriptor
	err  error
}

func (f fakeFetcher) Fetch(_ context.Context, url string) (content.Descriptor, error) {
	if f.err != nil {
		return content.Descriptor{}, f.err
	}
	d := f.desc
	d.URL = url
	return d, nil
}

type fakePanel struct {
	calls   int
	verdict judge.Verdict
}

func (p *fakePanel) Run(_ context.Context, d content.Descriptor) (judge.PanelResult, error) {
	p.calls++
	return judge.PanelResult{Descriptor: d, Verdicts: []judge.Verdict{p.verdict}}, nil
}

func TestPipelineScore(t *testing.T) {
	panel := &fakePanel{verdict: verdict("a", 64, map[judge.Category]int{judge.Citation: 70})}
	p := NewPipeline(fakeFetcher{desc: fullDescriptor()}, panel,
		WithLogger(logging.Nop()), WithMetrics(metrics.NewManager()))

	res, err := p.Score(context.Background(), "https://site.test")
	require.NoError(t, err)

	assert.Equal(t, 1, panel.calls)
	assert.Nil(t, res.FetchErr)
	assert.Equal(t, "https://site.test", res.Card.URL)
	assert.Equal(t, 64.0, res.Card.OverallGeoScore)
	assert.False(t, res.Card.FetchFailed)
	assert.Equal(t, "https://site.test", res.Descriptor.URL)
}

func TestPipelineFetchFailure(t *testing.T) {
	panel := &fakePanel{}
	fetchErr := &content.FetchError{URL: "https://down.test", Kind: content.HTTPStatus, StatusCode: 503}
	p := NewPipeline(fakeFetcher{err: fetchErr}, panel, WithLogger(logging.Nop()))

	res, err := p.Score(context.Background(), "https://down.test")
	require.NoError(t, err)

	assert.Zero(t, panel.calls)
	require.NotNil(t, res.FetchErr)
	assert.Equal(t, content.HTTPStatus, res.FetchErr.Kind)
	assert.True(t, res.Card.FetchFailed)
	assert.True(t, res.Card.IsFallback)
	assert.Equal(t, 50.0, res.Card.OverallGeoScore)
	assert.Equal(t, "https://down.test", res.Card.URL)
	assert.Empty(t, res.Card.StructuralHints)
	assert.Empty(t, res.Card.Recommendations)
}

func TestPipelineCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewPipeline(fakeFetcher{err: context.Canceled}, &fakePanel{}, WithLogger(logging.Nop()))

	_, err := p.Score(ctx, "https://site.test")
	assert.ErrorIs(t, err, context.Canceled)
}
