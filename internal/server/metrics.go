package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	analyses        *prometheus.CounterVec
	analyzeDuration prometheus.Histogram
	variants        prometheus.Histogram
	storeErrors     prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		analyses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "janus_analyses_total",
			Help: "Analysis requests by outcome",
		}, []string{"status"}),
		analyzeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "janus_analyze_duration_seconds",
			Help:    "Time spent sampling posteriors for one request",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		variants: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "janus_analyze_variants",
			Help:    "Number of variants per analysis request",
			Buckets: []float64{2, 3, 4, 5, 8, 13},
		}),
		storeErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "janus_store_errors_total",
			Help: "Run history writes that failed",
		}),
	}
}

func (s *Server) metricsHandler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
