package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/seo-optimizer/geo/judge"
	"github.com/seo-optimizer/geo/llm"
	"github.com/seo-optimizer/geo/logging"
	"github.com/seo-optimizer/geo/metrics"
)

const (
	defaultDiscoveryCacheSize = 256
	defaultDiscoveryTTL       = 24 * time.Hour
)

var (
	urlPattern   = regexp.MustCompile(`https?://[^\s"'<>]+`)
	codeFence    = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	trailingJunk = ".,;:)]}"
)

// Discoverer asks a model for sites comparable to a target.
type Discoverer struct {
	backend llm.Backend
	persona judge.Persona
	timeout time.Duration
	cache   *expirable.LRU[string, []string]
	log     logging.Logger
	metrics *metrics.Manager
}

// DiscovererOption configures a Discoverer.
type DiscovererOption func(*Discoverer)

// WithDiscoveryTimeout bounds the discovery call.
func WithDiscoveryTimeout(d time.Duration) DiscovererOption {
	return func(x *Discoverer) {
		if d > 0 {
			x.timeout = d
		}
	}
}

// WithDiscoveryCache keeps discovered lists for ttl, at most size targets.
func WithDiscoveryCache(size int, ttl time.Duration) DiscovererOption {
	return func(x *Discoverer) {
		if size > 0 {
			x.cache = expirable.NewLRU[string, []string](size, nil, ttl)
		}
	}
}

// WithDiscoveryLogger sets the logger.
func WithDiscoveryLogger(l logging.Logger) DiscovererOption {
	return func(x *Discoverer) { x.log = l }
}

// WithDiscoveryMetrics records discovered counts and cache use on m.
func WithDiscoveryMetrics(m *metrics.Manager) DiscovererOption {
	return func(x *Discoverer) { x.metrics = m }
}

// NewDiscoverer builds a discoverer that queries model through backend.
func NewDiscoverer(backend llm.Backend, model string, opts ...DiscovererOption) *Discoverer {
	d := &Discoverer{
		backend: backend,
		persona: judge.Persona{ID: "discovery", Name: "Competitor discovery", Model: model},
		timeout: judge.DefaultTimeout,
		cache:   expirable.NewLRU[string, []string](defaultDiscoveryCacheSize, nil, defaultDiscoveryTTL),
		log:     logging.Named("discovery"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Discover returns up to n sites comparable to target. Backend failures and
// unusable answers give an empty list, never an error.
func (d *Discoverer) Discover(ctx context.Context, target string, n int) []string {
	if n <= 0 {
		return []string{}
	}
	key := canonical(target)
	if cached, ok := d.cache.Get(key); ok {
		d.recordCache(true)
		return limit(cached, n)
	}
	d.recordCache(false)

	raw := judge.Invoke(ctx, d.backend, discoveryPrompt(target, n), d.persona, d.timeout)
	if raw.Failure != nil {
		d.log.Warn(ctx, "competitor discovery failed",
			logging.String("target", target),
			logging.String("kind", string(raw.Failure.Kind)),
			logging.String("message", raw.Failure.Message))
		d.record(0)
		return []string{}
	}

	found := ParseCompetitors(raw.Text, target)
	if len(found) > 0 {
		d.cache.Add(key, found)
	}
	out := limit(found, n)
	d.record(len(out))
	d.log.Info(ctx, "competitors discovered",
		logging.String("target", target),
		logging.Int("count", len(out)))
	return out
}

// ParseCompetitors reads a JSON array of URLs from text. When text is not
// such an array, every URL-shaped substring is used instead. The target,
// duplicates and non-http entries are dropped.
func ParseCompetitors(text, target string) []string {
	text = strings.TrimSpace(text)
	if m := codeFence.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	var candidates []string
	if err := json.Unmarshal([]byte(text), &candidates); err != nil {
		candidates = urlPattern.FindAllString(text, -1)
	}

	out := []string{}
	seen := map[string]struct{}{canonical(target): {}}
	for _, c := range candidates {
		c = strings.TrimRight(strings.TrimSpace(c), trailingJunk)
		u, err := url.Parse(c)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			continue
		}
		key := canonical(c)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

func discoveryPrompt(target string, n int) string {
	return fmt.Sprintf(`You are an expert in website analysis and search optimization.
Find %d competitor websites or web resources with similar topics for: %s

Search criteria:
- Similar topic and niche
- Comparable scale and audience
- Relevant content analogues
- Well-known sites in the same field

IMPORTANT: Return ONLY a JSON array of URLs in the format:
["url1", "url2", "url3", ...]

Do not add any other text, only plain JSON.`, n, target)
}

func limit(urls []string, n int) []string {
	if len(urls) > n {
		urls = urls[:n]
	}
	return append(make([]string, 0, len(urls)), urls...)
}

func (d *Discoverer) record(n int) {
	if d.metrics != nil {
		d.metrics.RecordDiscovery(n)
	}
}

func (d *Discoverer) recordCache(hit bool) {
	if d.metrics != nil {
		d.metrics.RecordCache("discovery", hit)
	}
}
