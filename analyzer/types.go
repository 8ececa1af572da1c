package analyzer

import (
	"time"

	"github.com/seo-optimizer/geo/content"
	"github.com/seo-optimizer/geo/ranking"
	"github.com/seo-optimizer/geo/scoring"
	"github.com/seo-optimizer/geo/stats"
)

// SiteAnalysis is the result of analyzing a single page.
type SiteAnalysis struct {
	URL        string               `json:"url"`
	Card       scoring.ScoreCard    `json:"card"`
	Descriptor content.Descriptor   `json:"descriptor"`
	FetchError *ranking.SiteFailure `json:"fetchError,omitempty"`
	Cached     bool                 `json:"cached"`
	Duration   time.Duration        `json:"durationNs"`
}

// CompareOptions controls a competitive comparison.
type CompareOptions struct {
	// Competitors, when set, are used instead of discovery.
	Competitors []string `json:"competitors"`
	// MaxCompetitors caps discovery. Zero uses the configured default. It
	// never trims Competitors.
	MaxCompetitors int `json:"maxCompetitors"`
	// RequireCompetitors turns an empty competitor list into ErrNoCompetitors.
	RequireCompetitors bool `json:"requireCompetitors"`
}

// CacheStats provides statistics about the analyzer's cache
type CacheStats struct {
	Backend        string        `json:"backend"`
	CacheHits      int           `json:"cacheHits"`
	CacheMisses    int           `json:"cacheMisses"`
	CacheTTL       time.Duration `json:"cacheTTL"`
	HitRatePercent float64       `json:"hitRatePercent"`
}

// Statistics is the service-level view exposed on /api/statistics.
type Statistics struct {
	Current stats.MonthlyStats   `json:"currentMonth"`
	Months  []string             `json:"months"`
	Cache   CacheStats           `json:"cache"`
	Traffic stats.TrafficSummary `json:"traffic"`
}
