// Package metrics tracks question and answer activity. The analytic
// core receives a Recorder by injection and never reaches into a
// singleton; the in-memory recorder backs the reporting endpoint and
// the Prometheus recorder feeds the scrape endpoint.
package metrics

import (
	"strings"
	"sync"
	"time"
)

// Recorder receives one call per question asked, per answer produced
// and per hard failure.
type Recorder interface {
	RecordQuestion(question, session string)
	RecordResponse(question, answerType string, latency time.Duration, confidence float64)
	RecordError(question string, err error)
}

// Multi fans every record call out to several recorders.
func Multi(recorders ...Recorder) Recorder {
	return multiRecorder(recorders)
}

type multiRecorder []Recorder

func (m multiRecorder) RecordQuestion(question, session string) {
	for _, r := range m {
		r.RecordQuestion(question, session)
	}
}

func (m multiRecorder) RecordResponse(question, answerType string, latency time.Duration, confidence float64) {
	for _, r := range m {
		r.RecordResponse(question, answerType, latency, confidence)
	}
}

func (m multiRecorder) RecordError(question string, err error) {
	for _, r := range m {
		r.RecordError(question, err)
	}
}

// MemoryRecorder accumulates counters in process memory and answers
// reporting queries. Safe for concurrent use.
type MemoryRecorder struct {
	mu sync.Mutex

	now       func() time.Time
	startedAt time.Time

	totalQuestions      int
	totalResponses      int
	successfulResponses int
	failedResponses     int

	latencies   []time.Duration
	confidences []float64

	questionTypes    map[string]int
	popularQuestions map[string]int
	responseTypes    map[string]int
	dailyStats       map[string]int
	hourlyStats      [24]int
	sessions         map[string]bool
	errors           []ErrorEntry
}

// ErrorEntry is one recorded hard failure.
type ErrorEntry struct {
	Question  string    `json:"question"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMemoryRecorder() *MemoryRecorder {
	return newMemoryRecorder(time.Now)
}

func newMemoryRecorder(now func() time.Time) *MemoryRecorder {
	return &MemoryRecorder{
		now:              now,
		startedAt:        now(),
		questionTypes:    map[string]int{},
		popularQuestions: map[string]int{},
		responseTypes:    map[string]int{},
		dailyStats:       map[string]int{},
		sessions:         map[string]bool{},
	}
}

func (r *MemoryRecorder) RecordQuestion(question, session string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totalQuestions++
	if session == "" {
		session = "anonymous"
	}
	r.sessions[session] = true

	key := strings.ToLower(question)
	if len(key) > 50 {
		key = key[:50]
	}
	r.popularQuestions[key]++

	now := r.now()
	r.hourlyStats[now.Hour()]++
	r.dailyStats[now.Format("2006-01-02")]++
	r.questionTypes[categorize(question)]++
}

func (r *MemoryRecorder) RecordResponse(question, answerType string, latency time.Duration, confidence float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totalResponses++
	r.latencies = append(r.latencies, latency)
	r.confidences = append(r.confidences, confidence)
	if answerType != "" {
		r.responseTypes[answerType]++
	}
	if confidence > 0.5 || answerType == "detailed_analysis" {
		r.successfulResponses++
	} else {
		r.failedResponses++
	}
}

func (r *MemoryRecorder) RecordError(question string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failedResponses++
	r.errors = append(r.errors, ErrorEntry{
		Question:  question,
		Message:   err.Error(),
		Timestamp: r.now(),
	})
}

// categorize assigns a coarse type by keyword, first match wins.
func categorize(question string) string {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "utilisateur") || strings.Contains(q, "user"):
		return "users"
	case strings.Contains(q, "action") || strings.Contains(q, "opération"):
		return "actions"
	case strings.Contains(q, "objet") || strings.Contains(q, "table"):
		return "objects"
	case strings.Contains(q, "schéma") || strings.Contains(q, "schema"):
		return "schemas"
	case strings.Contains(q, "statistique") || strings.Contains(q, "analyse"):
		return "analytics"
	case strings.Contains(q, "chatbot") || strings.Contains(q, "système"):
		return "meta"
	default:
		return "other"
	}
}
