package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	testsFinalizedTotal   prometheus.Counter
	reportLinesUpdated    prometheus.Counter
	reportLinesSkipped    prometheus.Counter
	yearsAutoCreatedTotal prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		testsFinalizedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tests_finalized_total",
			Help: "Total number of class tests finalized.",
		})

		reportLinesUpdated = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "report_lines_updated_total",
			Help: "Total number of report subject lines written by score aggregation.",
		})

		reportLinesSkipped = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "report_lines_skipped_total",
			Help: "Total number of students skipped during score aggregation.",
		})

		yearsAutoCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "years_auto_created_total",
			Help: "Total number of school years provisioned automatically by the calendar resolver.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			testsFinalizedTotal,
			reportLinesUpdated,
			reportLinesSkipped,
			yearsAutoCreatedTotal,
		)
	})
}

// HTTPRequests exposes the counter for served requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for served requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// TestsFinalized exposes the counter for finalized tests.
func TestsFinalized() prometheus.Counter {
	RegisterMetrics()
	return testsFinalizedTotal
}

// ReportLinesUpdated exposes the counter for aggregated report lines.
func ReportLinesUpdated() prometheus.Counter {
	RegisterMetrics()
	return reportLinesUpdated
}

// ReportLinesSkipped exposes the counter for skipped aggregation rows.
func ReportLinesSkipped() prometheus.Counter {
	RegisterMetrics()
	return reportLinesSkipped
}

// YearsAutoCreated exposes the counter for auto-provisioned school years.
func YearsAutoCreated() prometheus.Counter {
	RegisterMetrics()
	return yearsAutoCreatedTotal
}

// MetricsHandler serves the Prometheus scrape endpoint. Registration runs
// first so a scrape before any request still sees every collector.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}))
}
