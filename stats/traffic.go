package stats

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const visitorWindow = 24 * time.Hour

// Traffic collects request-level statistics about the public API.
type Traffic struct {
	mutex            sync.RWMutex
	UniqueVisitors   map[string]time.Time `json:"uniqueVisitors"` // IP -> last visit
	AnalysisRequests int                  `json:"analysisRequests"`
	ErrorCount       int                  `json:"errorCount"`
	PopularURLs      map[string]int       `json:"popularUrls"`
	TotalLoadTime    float64              `json:"totalLoadTime"`
	LastPersisted    time.Time            `json:"lastPersisted"`

	filePath string
	now      func() time.Time
}

// PopularURL is one entry of the most analyzed pages.
type PopularURL struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// TrafficSummary is the externally visible view of Traffic.
type TrafficSummary struct {
	UniqueVisitors24h int          `json:"uniqueVisitors24h"`
	TotalRequests     int          `json:"totalRequests"`
	ErrorRate         float64      `json:"errorRate"`
	AverageLoadTime   float64      `json:"averageLoadTime"`
	PopularURLs       []PopularURL `json:"popularUrls,omitempty"`
}

// NewTraffic creates a collector persisted under dataDir. Existing data is
// loaded when present.
func NewTraffic(dataDir string) (*Traffic, error) {
	t := &Traffic{
		UniqueVisitors: make(map[string]time.Time),
		PopularURLs:    make(map[string]int),
		filePath:       filepath.Join(dataDir, "traffic.json"),
		now:            time.Now,
	}
	if err := t.Load(); err != nil {
		return nil, err
	}
	return t, nil
}

// TrackVisitor records a visit from ip.
func (t *Traffic) TrackVisitor(ip string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.UniqueVisitors[ip] = t.now()
}

// cleanURL reduces an analyzed page URL to scheme, host and path. Local and
// API URLs are not tracked.
func cleanURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return ""
	}

	if strings.Contains(u.Host, "localhost") ||
		strings.Contains(u.Host, "127.0.0.1") ||
		strings.Contains(strings.ToLower(u.Path), "/api/") {
		return ""
	}

	clean := u.Scheme + "://" + u.Host
	if u.Path != "" && u.Path != "/" {
		clean += u.Path
	}
	return strings.TrimSuffix(clean, "/")
}

// TrackAnalysis records one analysis request for the page at pageURL.
func (t *Traffic) TrackAnalysis(pageURL string, loadTime time.Duration, hasError bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.AnalysisRequests++
	if cleaned := cleanURL(pageURL); cleaned != "" {
		t.PopularURLs[cleaned]++
	}
	if hasError {
		t.ErrorCount++
	}
	t.TotalLoadTime += float64(loadTime.Milliseconds())
}

// Requests returns the number of analysis requests seen.
func (t *Traffic) Requests() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.AnalysisRequests
}

// Summary returns the current figures. popular limits the number of top pages
// included; zero leaves them out.
func (t *Traffic) Summary(popular int) TrafficSummary {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	s := TrafficSummary{TotalRequests: t.AnalysisRequests}

	cutoff := t.now().Add(-visitorWindow)
	for _, lastVisit := range t.UniqueVisitors {
		if lastVisit.After(cutoff) {
			s.UniqueVisitors24h++
		}
	}
	if t.AnalysisRequests > 0 {
		s.ErrorRate = float64(t.ErrorCount) / float64(t.AnalysisRequests) * 100
		s.AverageLoadTime = t.TotalLoadTime / float64(t.AnalysisRequests)
	}

	if popular > 0 {
		for u, n := range t.PopularURLs {
			s.PopularURLs = append(s.PopularURLs, PopularURL{URL: u, Count: n})
		}
		sort.Slice(s.PopularURLs, func(i, j int) bool {
			if s.PopularURLs[i].Count != s.PopularURLs[j].Count {
				return s.PopularURLs[i].Count > s.PopularURLs[j].Count
			}
			return s.PopularURLs[i].URL < s.PopularURLs[j].URL
		})
		if len(s.PopularURLs) > popular {
			s.PopularURLs = s.PopularURLs[:popular]
		}
	}
	return s
}

// Save persists the statistics and forgets visitors outside the window.
func (t *Traffic) Save() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.LastPersisted = t.now()
	cutoff := t.LastPersisted.Add(-visitorWindow)
	for ip, lastVisit := range t.UniqueVisitors {
		if !lastVisit.After(cutoff) {
			delete(t.UniqueVisitors, ip)
		}
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("could not encode traffic statistics: %w", err)
	}
	if err := writeAtomic(t.filePath, data); err != nil {
		return fmt.Errorf("could not write traffic statistics: %w", err)
	}
	return nil
}

// Load reads previously saved statistics. A missing file is not an error.
func (t *Traffic) Load() error {
	data, err := os.ReadFile(t.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not open traffic statistics: %w", err)
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if err := json.Unmarshal(data, t); err != nil {
		return fmt.Errorf("could not decode traffic statistics: %w", err)
	}
	if t.UniqueVisitors == nil {
		t.UniqueVisitors = make(map[string]time.Time)
	}
	if t.PopularURLs == nil {
		t.PopularURLs = make(map[string]int)
	}
	return nil
}
