// Package metrics exposes Prometheus collectors for both services.
//
// A nil *Metrics is valid and records nothing, so handlers can be built with
// metrics disabled.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"ecg-pomodoro/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace  = "ecg_pomodoro"
	otherLabel = "other"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	segmentsProcessed prometheus.Counter
	segmentSamples    prometheus.Histogram

	predictions      *prometheus.CounterVec
	externalFailures prometheus.Counter
	predictLatency   *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry, labelled with the name of
// the service that owns them.
func New(service string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(prometheus.WrapRegistererWith(prometheus.Labels{"service": service}, reg))

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		segmentsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_processed_total",
			Help:      "ECG segments turned into features.",
		}),
		segmentSamples: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "segment_samples",
			Help:      "Number of samples per ECG segment.",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 8),
		}),
		predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Predictions by producing model and label.",
		}, []string{"model", "label"}),
		externalFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_model_failures_total",
			Help:      "Predictions that fell back to the rule because the external model failed.",
		}),
		predictLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "predict_duration_seconds",
			Help:      "Time spent producing a prediction, by producing model.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"model"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency keyed by the chi route
// pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) ObserveSegment(samples int) {
	if m == nil {
		return
	}
	m.segmentsProcessed.Inc()
	m.segmentSamples.Observe(float64(samples))
}

func (m *Metrics) ObservePrediction(model, label string, fellBack bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(model, predictionLabel(label)).Inc()
	m.predictLatency.WithLabelValues(model).Observe(elapsed.Seconds())
	if fellBack {
		m.externalFailures.Inc()
	}
}

// predictionLabel keeps the label set bounded; external models can answer
// with any classification.
func predictionLabel(label string) string {
	switch label {
	case api.LabelFocus, api.LabelStress:
		return label
	default:
		return otherLabel
	}
}
