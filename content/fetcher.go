package content

import (
	"bytes"
	"context"
	"errors"
	"html"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/temoto/robotstxt"
)

const (
	userAgent   = "GEOAnalyzer/1.0"
	maxBodySize = 10 << 20
)

var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// HTTPFetcher downloads pages and extracts a Descriptor with goquery.
type HTTPFetcher struct {
	client      *http.Client
	policy      *bluemonday.Policy
	checkRobots bool
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithHTTPClient replaces the default pooled client.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *HTTPFetcher) { f.client = c }
}

// WithRobots toggles the robots.txt check (on by default).
func WithRobots(enabled bool) FetcherOption {
	return func(f *HTTPFetcher) { f.checkRobots = enabled }
}

// NewHTTPFetcher creates a fetcher with a pooled keep-alive client.
func NewHTTPFetcher(timeout time.Duration, opts ...FetcherOption) *HTTPFetcher {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	f := &HTTPFetcher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		policy:      bluemonday.StrictPolicy(),
		checkRobots: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads rawURL and describes it.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Descriptor, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		if err == nil {
			err = errors.New("absolute http(s) url required")
		}
		return Descriptor{}, &FetchError{URL: rawURL, Kind: NotReachable, Err: err}
	}

	if f.checkRobots && !f.allowed(ctx, u) {
		return Descriptor{}, &FetchError{URL: rawURL, Kind: Disallowed}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Descriptor{}, &FetchError{URL: rawURL, Kind: NotReachable, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Descriptor{}, &FetchError{URL: rawURL, Kind: classify(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Descriptor{}, &FetchError{URL: rawURL, Kind: HTTPStatus, StatusCode: resp.StatusCode}
	}

	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	if _, err := io.Copy(buf, io.LimitReader(resp.Body, maxBodySize)); err != nil {
		return Descriptor{}, &FetchError{URL: rawURL, Kind: classify(err), Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return Descriptor{}, &FetchError{URL: rawURL, Kind: NotReachable, Err: err}
	}
	return f.Describe(rawURL, doc), nil
}

// Describe extracts a Descriptor from an already parsed document.
func (f *HTTPFetcher) Describe(rawURL string, doc *goquery.Document) Descriptor {
	d := Descriptor{
		URL:      rawURL,
		Title:    strings.TrimSpace(doc.Find("title").First().Text()),
		Headings: make(map[int]int, 6),
	}
	d.Description, _ = doc.Find("meta[name='description']").Attr("content")
	d.Description = strings.TrimSpace(d.Description)

	for level, sel := range []string{"h1", "h2", "h3", "h4", "h5", "h6"} {
		if n := doc.Find(sel).Length(); n > 0 {
			d.Headings[level+1] = n
		}
	}

	images := doc.Find("img")
	d.Images = images.Length()
	images.Each(func(_ int, s *goquery.Selection) {
		if alt, ok := s.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
			d.ImagesWithAlt++
		}
	})
	if d.Images > 0 {
		d.ImageAltRatio = float64(d.ImagesWithAlt) / float64(d.Images) * 100
	}

	d.Lists = doc.Find("ul, ol").Length()
	d.Tables = doc.Find("table").Length()
	d.HasSchemaOrg = doc.Find(`script[type='application/ld+json']`).Length() > 0 ||
		doc.Find(`[itemtype*='schema.org']`).Length() > 0
	d.HasMicrodata = doc.Find("[itemscope]").Length() > 0
	d.HasOpenGraph = doc.Find(`meta[property^='og:']`).Length() > 0
	if vp, ok := doc.Find("meta[name='viewport']").Attr("content"); ok {
		d.HasViewport = strings.Contains(strings.ToLower(vp), "width=device-width")
	}

	d.WordCount = len(strings.Fields(doc.Find("body").Text()))
	d.TextExcerpt = f.excerpt(doc)
	return d
}

// excerpt returns the visible text of the main content area, capped at MaxExcerpt runes.
func (f *HTTPFetcher) excerpt(doc *goquery.Document) string {
	root := doc.Find("main, article").First()
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	root = root.Clone()
	root.Find("script, style, noscript, nav, header, footer, aside, form").Remove()

	markup, err := root.Html()
	if err != nil {
		return ""
	}
	text := html.UnescapeString(f.policy.Sanitize(markup))
	return Truncate(strings.Join(strings.Fields(text), " "), MaxExcerpt)
}

// allowed reports whether robots.txt on the page's host lets us fetch it.
// Any failure to obtain robots.txt counts as allowed.
func (f *HTTPFetcher) allowed(ctx context.Context, u *url.URL) bool {
	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return true
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return true
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return true
	}
	robots, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return robots.TestAgent(path, userAgent)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func classify(err error) FetchErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return Timeout
	}
	return NotReachable
}
