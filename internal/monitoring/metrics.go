package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Workflow metrics
	WorkflowsTotal   *prometheus.CounterVec
	WorkflowDuration *prometheus.HistogramVec
	StageFailures    *prometheus.CounterVec

	// Payment metrics
	PaymentsTotal       *prometheus.CounterVec
	ConfirmationLatency prometheus.Histogram

	// Enrichment metrics
	EnrichmentsTotal *prometheus.CounterVec
	EnrichCacheHits  prometheus.Counter
	EnrichCacheMiss  prometheus.Counter

	// Wallet metrics
	WalletConnectsTotal *prometheus.CounterVec

	// Business metrics
	CoursesCreated prometheus.Counter
	VideosEdited   prometheus.Counter
}

var metrics *Metrics

// Init initializes all Prometheus metrics
func Init() *Metrics {
	if metrics != nil {
		return metrics
	}

	metrics = &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being served",
			},
		),
		WorkflowsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "publication_workflows_total",
				Help: "Publication workflow invocations by kind and outcome",
			},
			[]string{"workflow", "outcome"},
		),
		WorkflowDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "publication_workflow_duration_seconds",
				Help:    "End-to-end workflow duration in seconds",
				Buckets: []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"workflow"},
		),
		StageFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "publication_stage_failures_total",
				Help: "Workflow failures by stage; failures after the payment stage left value consumed without a deliverable",
			},
			[]string{"workflow", "stage"},
		),
		PaymentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_total",
				Help: "On-chain payment attempts by intent and outcome",
			},
			[]string{"intent", "outcome"},
		),
		ConfirmationLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "payment_confirmation_seconds",
				Help:    "Time from submission to one-confirmation finality",
				Buckets: []float64{1, 2, 5, 10, 30, 60, 180, 600},
			},
		),
		EnrichmentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "video_enrichments_total",
				Help: "Video metadata resolutions by outcome",
			},
			[]string{"outcome"},
		),
		EnrichCacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "video_enrichment_cache_hits_total",
				Help: "Metadata cache hits",
			},
		),
		EnrichCacheMiss: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "video_enrichment_cache_misses_total",
				Help: "Metadata cache misses",
			},
		),
		WalletConnectsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_connects_total",
				Help: "Wallet session connection attempts by outcome",
			},
			[]string{"outcome"},
		),
		CoursesCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "courses_created_total",
				Help: "Courses successfully published",
			},
		),
		VideosEdited: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "course_videos_edited_total",
				Help: "Course video items replaced via the paid edit workflow",
			},
		),
	}

	return metrics
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// MetricsMiddleware is a Gin middleware recording request metrics
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}

		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.HTTPRequestsInFlight.Inc()
		c.Next()
		metrics.HTTPRequestsInFlight.Dec()

		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordPayment counts one payment attempt outcome.
func RecordPayment(intent, outcome string) {
	if metrics == nil {
		return
	}
	metrics.PaymentsTotal.WithLabelValues(intent, outcome).Inc()
}

// RecordWorkflow counts one workflow invocation outcome.
func RecordWorkflow(workflow, outcome string, elapsed time.Duration) {
	if metrics == nil {
		return
	}
	metrics.WorkflowsTotal.WithLabelValues(workflow, outcome).Inc()
	metrics.WorkflowDuration.WithLabelValues(workflow).Observe(elapsed.Seconds())
}

// RecordStageFailure counts a stage-level workflow failure.
func RecordStageFailure(workflow, stage string) {
	if metrics == nil {
		return
	}
	metrics.StageFailures.WithLabelValues(workflow, stage).Inc()
}

// RecordEnrichment counts one metadata resolution outcome.
func RecordEnrichment(outcome string) {
	if metrics == nil {
		return
	}
	metrics.EnrichmentsTotal.WithLabelValues(outcome).Inc()
}

// RecordEnrichCache counts a metadata cache lookup.
func RecordEnrichCache(hit bool) {
	if metrics == nil {
		return
	}
	if hit {
		metrics.EnrichCacheHits.Inc()
	} else {
		metrics.EnrichCacheMiss.Inc()
	}
}

// RecordWalletConnect counts one wallet connection attempt outcome.
func RecordWalletConnect(outcome string) {
	if metrics == nil {
		return
	}
	metrics.WalletConnectsTotal.WithLabelValues(outcome).Inc()
}

// RecordCourseCreated counts a successful publication.
func RecordCourseCreated() {
	if metrics == nil {
		return
	}
	metrics.CoursesCreated.Inc()
}

// RecordVideoEdited counts a successful paid edit.
func RecordVideoEdited() {
	if metrics == nil {
		return
	}
	metrics.VideosEdited.Inc()
}
