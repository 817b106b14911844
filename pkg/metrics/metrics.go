package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds every metric the service exports. All methods are safe on
// a nil *Collector so packages can run without metrics in tests.
type Collector struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge
	RateLimited     prometheus.Counter

	EpisodesCreatedTotal prometheus.Counter
	SubrecordWritesTotal *prometheus.CounterVec
	ConsistencyConflicts prometheus.Counter

	NotificationsTotal  *prometheus.CounterVec
	NotificationDropped *prometheus.CounterVec

	AuditEntriesTotal  prometheus.Counter
	AuditBufferDropped prometheus.Counter
}

func NewCollector(serviceName string, registry *prometheus.Registry) *Collector {
	f := promauto.With(registry)
	return &Collector{
		registry: registry,

		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: f.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-IP rate limiter.",
		}),

		EpisodesCreatedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "clinical",
			Name:      "episodes_created_total",
			Help:      "Total number of episodes created.",
		}),

		SubrecordWritesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "clinical",
			Name:      "subrecord_writes_total",
			Help:      "Subrecord mutations by type and operation.",
		}, []string{"type", "operation"}),

		ConsistencyConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "clinical",
			Name:      "consistency_conflicts_total",
			Help:      "Writes rejected because the record changed underneath the client.",
		}),

		NotificationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "glossolalia",
			Name:      "messages_total",
			Help:      "Change notifications delivered by sink, event and result.",
		}, []string{"sink", "event", "result"}),

		NotificationDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "glossolalia",
			Name:      "buffer_dropped_total",
			Help:      "Change notifications dropped due to full buffer.",
		}, []string{"event"}),

		AuditEntriesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "entries_total",
			Help:      "Total audit log entries written.",
		}),

		AuditBufferDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "buffer_dropped_total",
			Help:      "Audit entries dropped due to full buffer. Alert if non-zero.",
		}),
	}
}

func (c *Collector) ObserveRequest(method, path string, status int, seconds float64) {
	if c == nil {
		return
	}
	code := strconv.Itoa(status)
	c.RequestsTotal.WithLabelValues(method, path, code).Inc()
	c.RequestDuration.WithLabelValues(method, path, code).Observe(seconds)
}

func (c *Collector) RequestStarted() {
	if c != nil {
		c.InFlightGauge.Inc()
	}
}

func (c *Collector) RequestFinished() {
	if c != nil {
		c.InFlightGauge.Dec()
	}
}

func (c *Collector) RequestRateLimited() {
	if c != nil {
		c.RateLimited.Inc()
	}
}

func (c *Collector) EpisodeCreated() {
	if c != nil {
		c.EpisodesCreatedTotal.Inc()
	}
}

func (c *Collector) SubrecordWritten(apiName, operation string) {
	if c != nil {
		c.SubrecordWritesTotal.WithLabelValues(apiName, operation).Inc()
	}
}

func (c *Collector) ConsistencyConflict() {
	if c != nil {
		c.ConsistencyConflicts.Inc()
	}
}

func (c *Collector) NotificationSent(sink, event string, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.NotificationsTotal.WithLabelValues(sink, event, result).Inc()
}

func (c *Collector) NotificationDiscarded(event string) {
	if c != nil {
		c.NotificationDropped.WithLabelValues(event).Inc()
	}
}

func (c *Collector) AuditWritten() {
	if c != nil {
		c.AuditEntriesTotal.Inc()
	}
}

func (c *Collector) AuditDropped() {
	if c != nil {
		c.AuditBufferDropped.Inc()
	}
}

// Handler serves the collector's registry.
func (c *Collector) Handler() http.Handler {
	if c == nil || c.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
