package metrics

import (
	"fmt"
	"sort"
	"time"
)

// Report is the full reporting snapshot served by the metrics endpoint.
type Report struct {
	Overview         Overview        `json:"overview"`
	PopularQuestions []QuestionCount `json:"popular_questions"`
	QuestionTypes    []TypeCount     `json:"question_types"`
	HourlyActivity   []HourCount     `json:"hourly_activity"`
	DailyActivity    []DayCount      `json:"daily_activity"`
	Latency          LatencyStats    `json:"latency"`
	RecentErrors     []ErrorEntry    `json:"recent_errors"`
}

type Overview struct {
	TotalQuestions    int    `json:"total_questions"`
	TotalResponses    int    `json:"total_responses"`
	SuccessRate       string `json:"success_rate"`
	UniqueUsers       int    `json:"unique_users"`
	Uptime            string `json:"uptime"`
	QuestionsPerHour  int    `json:"questions_per_hour"`
	AverageConfidence string `json:"average_confidence"`
}

type QuestionCount struct {
	Question   string `json:"question"`
	Count      int    `json:"count"`
	Percentage string `json:"percentage"`
}

type TypeCount struct {
	Type       string `json:"type"`
	Count      int    `json:"count"`
	Percentage string `json:"percentage"`
}

type HourCount struct {
	Hour      int `json:"hour"`
	Questions int `json:"questions"`
}

type DayCount struct {
	Day       string `json:"day"`
	Questions int    `json:"questions"`
}

// LatencyStats summarizes response times in milliseconds.
type LatencyStats struct {
	AverageMs int64 `json:"average_ms"`
	MedianMs  int64 `json:"median_ms"`
	P95Ms     int64 `json:"p95_ms"`
	MinMs     int64 `json:"min_ms"`
	MaxMs     int64 `json:"max_ms"`
}

// Report builds a consistent snapshot of everything recorded so far.
func (r *MemoryRecorder) Report() Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	uptime := r.now().Sub(r.startedAt)
	hours := int(uptime.Hours())
	perHour := r.totalQuestions
	if hours > 0 {
		perHour = r.totalQuestions / hours
	}

	successRate := "0%"
	if r.totalResponses > 0 {
		successRate = fmt.Sprintf("%.1f%%", float64(r.successfulResponses)/float64(r.totalResponses)*100)
	}
	avgConfidence := "0%"
	if len(r.confidences) > 0 {
		sum := 0.0
		for _, c := range r.confidences {
			sum += c
		}
		avgConfidence = fmt.Sprintf("%.1f%%", sum/float64(len(r.confidences))*100)
	}

	report := Report{
		Overview: Overview{
			TotalQuestions:    r.totalQuestions,
			TotalResponses:    r.totalResponses,
			SuccessRate:       successRate,
			UniqueUsers:       len(r.sessions),
			Uptime:            fmt.Sprintf("%dh %dm", hours, int(uptime.Minutes())%60),
			QuestionsPerHour:  perHour,
			AverageConfidence: avgConfidence,
		},
		PopularQuestions: r.topQuestions(5),
		QuestionTypes:    r.typeCounts(),
		HourlyActivity:   r.hourlyActivity(),
		DailyActivity:    r.dailyActivity(),
		Latency:          latencyStats(r.latencies),
		RecentErrors:     r.recentErrors(10),
	}
	return report
}

func (r *MemoryRecorder) topQuestions(limit int) []QuestionCount {
	type qc struct {
		q string
		c int
	}
	pairs := make([]qc, 0, len(r.popularQuestions))
	for q, c := range r.popularQuestions {
		pairs = append(pairs, qc{q, c})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].c == pairs[j].c {
			return pairs[i].q < pairs[j].q
		}
		return pairs[i].c > pairs[j].c
	})
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	out := make([]QuestionCount, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, QuestionCount{
			Question:   p.q,
			Count:      p.c,
			Percentage: ratio(p.c, r.totalQuestions),
		})
	}
	return out
}

func (r *MemoryRecorder) typeCounts() []TypeCount {
	types := make([]string, 0, len(r.questionTypes))
	for t := range r.questionTypes {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if r.questionTypes[types[i]] == r.questionTypes[types[j]] {
			return types[i] < types[j]
		}
		return r.questionTypes[types[i]] > r.questionTypes[types[j]]
	})
	out := make([]TypeCount, 0, len(types))
	for _, t := range types {
		out = append(out, TypeCount{
			Type:       t,
			Count:      r.questionTypes[t],
			Percentage: ratio(r.questionTypes[t], r.totalQuestions),
		})
	}
	return out
}

func (r *MemoryRecorder) hourlyActivity() []HourCount {
	out := make([]HourCount, 0, 24)
	for h := 0; h < 24; h++ {
		out = append(out, HourCount{Hour: h, Questions: r.hourlyStats[h]})
	}
	return out
}

func (r *MemoryRecorder) dailyActivity() []DayCount {
	days := make([]string, 0, len(r.dailyStats))
	for d := range r.dailyStats {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]DayCount, 0, len(days))
	for _, d := range days {
		out = append(out, DayCount{Day: d, Questions: r.dailyStats[d]})
	}
	return out
}

func (r *MemoryRecorder) recentErrors(limit int) []ErrorEntry {
	if len(r.errors) <= limit {
		return append([]ErrorEntry(nil), r.errors...)
	}
	return append([]ErrorEntry(nil), r.errors[len(r.errors)-limit:]...)
}

func latencyStats(latencies []time.Duration) LatencyStats {
	if len(latencies) == 0 {
		return LatencyStats{}
	}
	sorted := append([]time.Duration(nil), latencies...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}
	p95 := sorted[(len(sorted)*95)/100]
	if (len(sorted)*95)%100 == 0 && len(sorted) > 1 {
		p95 = sorted[(len(sorted)*95)/100-1]
	}
	return LatencyStats{
		AverageMs: (sum / time.Duration(len(sorted))).Milliseconds(),
		MedianMs:  sorted[len(sorted)/2].Milliseconds(),
		P95Ms:     p95.Milliseconds(),
		MinMs:     sorted[0].Milliseconds(),
		MaxMs:     sorted[len(sorted)-1].Milliseconds(),
	}
}

func ratio(count, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(count)/float64(total)*100)
}
