package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "feedback_analytics"

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	analyses     *prometheus.CounterVec
	analysisTime *prometheus.HistogramVec
	uploads      *prometheus.CounterVec
	chatRequests *prometheus.CounterVec
	chatTokens   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		analyses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Analyses served by kind, outcome and cache use.",
		}, []string{"kind", "outcome", "cached"}),
		analysisTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent computing analyses that were not cached.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"kind"}),
		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_uploads_total",
			Help:      "Dataset uploads by format and outcome.",
		}, []string{"format", "outcome"}),
		chatRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Chat questions by outcome.",
		}, []string{"outcome"}),
		chatTokens: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_tokens_total",
			Help:      "Tokens consumed by the chat model.",
		}, []string{"direction"}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

func (m *Metrics) ObserveAnalysis(kind, outcome string, cached bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(kind, outcome, strconv.FormatBool(cached)).Inc()
	if !cached {
		m.analysisTime.WithLabelValues(kind).Observe(duration.Seconds())
	}
}

func (m *Metrics) ObserveUpload(format, outcome string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(format, outcome).Inc()
}

func (m *Metrics) ObserveChat(outcome string, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	m.chatRequests.WithLabelValues(outcome).Inc()
	m.chatTokens.WithLabelValues("input").Add(float64(inputTokens))
	m.chatTokens.WithLabelValues("output").Add(float64(outputTokens))
}
