package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PromRecorder exports the same signals as the in-memory recorder in
// Prometheus form. Register it once against the registry served by the
// scrape endpoint.
type PromRecorder struct {
	questions  *prometheus.CounterVec
	responses  *prometheus.CounterVec
	errors     prometheus.Counter
	latency    prometheus.Histogram
	confidence prometheus.Histogram
}

func NewPromRecorder(reg prometheus.Registerer) *PromRecorder {
	r := &PromRecorder{
		questions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "audichat",
			Name:      "questions_total",
			Help:      "Questions received, labeled by coarse question type.",
		}, []string{"type"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "audichat",
			Name:      "responses_total",
			Help:      "Answers produced, labeled by answer type.",
		}, []string{"type"}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "audichat",
			Name:      "errors_total",
			Help:      "Hard failures while answering questions.",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "audichat",
			Name:      "response_seconds",
			Help:      "Wall-clock time from question to answer.",
			Buckets:   prometheus.DefBuckets,
		}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "audichat",
			Name:      "answer_confidence",
			Help:      "Classification confidence of produced answers.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
	}
	reg.MustRegister(r.questions, r.responses, r.errors, r.latency, r.confidence)
	return r
}

func (r *PromRecorder) RecordQuestion(question, _ string) {
	r.questions.WithLabelValues(categorize(question)).Inc()
}

func (r *PromRecorder) RecordResponse(_, answerType string, latency time.Duration, confidence float64) {
	r.responses.WithLabelValues(answerType).Inc()
	r.latency.Observe(latency.Seconds())
	r.confidence.Observe(confidence)
}

func (r *PromRecorder) RecordError(string, error) {
	r.errors.Inc()
}
