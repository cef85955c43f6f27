package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	scrapeTimeout      = 5 * time.Second
	maxScrapesInFlight = 2
)

// Handler serves the collector's registry. Scrapes that fail to gather one
// metric still return the rest, and promhttp's own scrape counters are
// registered alongside the node's metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(c.registry, promhttp.HandlerFor(
		c.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics:   true,
			ErrorHandling:       promhttp.ContinueOnError,
			Timeout:             scrapeTimeout,
			MaxRequestsInFlight: maxScrapesInFlight,
		},
	))
}
