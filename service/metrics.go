package services

import (
	"time"

	model "github.com/Itish41/DocLens/models"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Uploads          *prometheus.CounterVec
	Analyses         *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	Searches         *prometheus.CounterVec
	SemanticFallback prometheus.Counter
	IndexState       *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uploads_total",
				Help:      "Total number of document uploads by result",
			},
			[]string{"result"},
		),
		Analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Total number of analyze-and-index runs by result",
			},
			[]string{"result"},
		),
		AnalysisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Time spent waiting for document analysis",
				Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),
		Searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "searches_total",
				Help:      "Total number of searches by ranking mode",
			},
			[]string{"ranking"},
		),
		SemanticFallback: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "semantic_fallbacks_total",
				Help:      "Searches retried with lexical ranking after semantic ranking was rejected",
			},
		),
		IndexState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "index_state",
				Help:      "Resolved search index state (1 for the current state)",
			},
			[]string{"state"},
		),
	}
	reg.MustRegister(m.Uploads, m.Analyses, m.AnalysisDuration, m.Searches, m.SemanticFallback, m.IndexState)
	return m
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func (m *Metrics) observeUpload(ok bool) {
	if m == nil {
		return
	}
	m.Uploads.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) observeAnalysis(ok bool, started time.Time) {
	if m == nil {
		return
	}
	m.Analyses.WithLabelValues(result(ok)).Inc()
	m.AnalysisDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) observeSearch(mode model.RankingMode, fellBack bool) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(string(mode)).Inc()
	if fellBack {
		m.SemanticFallback.Inc()
	}
}

func (m *Metrics) setIndexState(st model.IndexState) {
	if m == nil {
		return
	}
	m.IndexState.Reset()
	m.IndexState.WithLabelValues(string(st)).Set(1)
}
