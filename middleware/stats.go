package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/geo/logging"
	"github.com/seo-optimizer/geo/metrics"
	"github.com/seo-optimizer/geo/stats"
)

// PageURLKey is the context key under which handlers store the analyzed page.
const PageURLKey = "geo.pageURL"

const saveEvery = 100

// Stats tracks visitors and analysis requests on traffic and request
// latency on m. Requests whose handler set PageURLKey count as analyses.
func Stats(traffic *stats.Traffic, m *metrics.Manager, log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		traffic.TrackVisitor(c.ClientIP())

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		if m != nil {
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			m.RecordHTTPRequest(route, c.Request.Method, strconv.Itoa(status), elapsed.Seconds())
		}

		page := c.GetString(PageURLKey)
		if page == "" {
			return
		}
		traffic.TrackAnalysis(page, elapsed, status >= 400)

		if traffic.Requests()%saveEvery == 0 {
			go func() {
				if err := traffic.Save(); err != nil {
					log.Warn(context.Background(), "saving traffic statistics failed", logging.Err(err))
				}
			}()
		}
	}
}
