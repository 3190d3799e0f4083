// Package metrics exposes Prometheus instrumentation for scoring and HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gsjt/internal/model"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	submissions     *prometheus.CounterVec
	answersSaved    prometheus.Counter
	unresolved      prometheus.Counter
	scoringDuration prometheus.Histogram
	httpRequests    *prometheus.CounterVec
}

// New registers all collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		submissions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gsjt_submissions_total",
				Help: "Final submissions scored, by rating and score schema.",
			},
			[]string{"rating", "schema"},
		),
		answersSaved: f.NewCounter(prometheus.CounterOpts{
			Name: "gsjt_answers_saved_total",
			Help: "Incremental answers saved.",
		}),
		unresolved: f.NewCounter(prometheus.CounterOpts{
			Name: "gsjt_unresolved_answers_total",
			Help: "Submitted answers that referenced an unknown scenario or option.",
		}),
		scoringDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gsjt_scoring_duration_seconds",
			Help:    "Time spent loading the catalog and scoring one submission.",
			Buckets: prometheus.DefBuckets,
		}),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gsjt_http_requests_total",
				Help: "HTTP requests by route template and status code.",
			},
			[]string{"route", "code"},
		),
	}
}

// ObserveSubmission records one scored submission
func (m *Metrics) ObserveSubmission(rating model.Rating, schema model.SchemaVersion, unresolved int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(string(rating), string(schema)).Inc()
	if unresolved > 0 {
		m.unresolved.Add(float64(unresolved))
	}
	m.scoringDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveAnswerSaved() {
	if m == nil {
		return
	}
	m.answersSaved.Inc()
}

func (m *Metrics) ObserveHTTP(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
