package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the server.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	SettlementsTotal   *prometheus.CounterVec
	WebhookEventsTotal *prometheus.CounterVec
	GatewayCallsTotal  *prometheus.CounterVec
}

// New creates and registers the server metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coursecart_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coursecart_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),

		HTTPRequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "coursecart_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		}),

		SettlementsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coursecart_settlements_total",
			Help: "Settlement attempts by outcome.",
		}, []string{"outcome"}),

		WebhookEventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coursecart_webhook_events_total",
			Help: "Gateway webhook notifications by provider and result.",
		}, []string{"provider", "result"}),

		GatewayCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coursecart_gateway_calls_total",
			Help: "Outbound gateway calls by provider and result.",
		}, []string{"provider", "result"}),
	}
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSettlement records a settlement attempt outcome.
func (m *Metrics) RecordSettlement(outcome string) {
	m.SettlementsTotal.WithLabelValues(outcome).Inc()
}

// RecordWebhookEvent records an inbound webhook result.
func (m *Metrics) RecordWebhookEvent(provider, result string) {
	m.WebhookEventsTotal.WithLabelValues(provider, result).Inc()
}

// RecordGatewayCall records an outbound gateway call result.
func (m *Metrics) RecordGatewayCall(provider, result string) {
	m.GatewayCallsTotal.WithLabelValues(provider, result).Inc()
}
