package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func pinnedRecorder() *MemoryRecorder {
	clock := time.Date(2024, 5, 6, 14, 30, 0, 0, time.UTC)
	return newMemoryRecorder(func() time.Time { return clock })
}

func TestRecordQuestionCounters(t *testing.T) {
	r := pinnedRecorder()
	r.RecordQuestion("Quels sont les utilisateurs les plus actifs ?", "s1")
	r.RecordQuestion("Quels sont les utilisateurs les plus actifs ?", "s2")
	r.RecordQuestion("Combien d'actions par jour ?", "")

	report := r.Report()
	if report.Overview.TotalQuestions != 3 {
		t.Errorf("TotalQuestions = %d, want 3", report.Overview.TotalQuestions)
	}
	// Two named sessions plus the anonymous bucket.
	if report.Overview.UniqueUsers != 3 {
		t.Errorf("UniqueUsers = %d, want 3", report.Overview.UniqueUsers)
	}
	if len(report.PopularQuestions) != 2 {
		t.Fatalf("PopularQuestions = %d entries, want 2", len(report.PopularQuestions))
	}
	if report.PopularQuestions[0].Count != 2 {
		t.Errorf("top question count = %d, want 2", report.PopularQuestions[0].Count)
	}
}

func TestPopularQuestionKeyTruncation(t *testing.T) {
	r := pinnedRecorder()
	long := "Quels utilisateurs ont accédé aux objets du schéma FINANCE pendant la nuit ?"
	r.RecordQuestion(long, "s1")
	r.RecordQuestion(strings.ToUpper(long), "s1")

	report := r.Report()
	if len(report.PopularQuestions) != 1 {
		t.Fatalf("case and tail variations must share a key, got %d keys", len(report.PopularQuestions))
	}
	if got := report.PopularQuestions[0].Question; len(got) > 50 {
		t.Errorf("key length = %d, want at most 50", len(got))
	}
	if report.PopularQuestions[0].Count != 2 {
		t.Errorf("count = %d, want 2", report.PopularQuestions[0].Count)
	}
}

func TestSuccessRule(t *testing.T) {
	tests := []struct {
		name       string
		answerType string
		confidence float64
		success    bool
	}{
		{"high confidence", "meta_analysis", 0.9, true},
		{"detailed analysis low confidence", "detailed_analysis", 0.2, true},
		{"low confidence other type", "error", 0.2, false},
		{"boundary confidence not enough", "other", 0.5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := pinnedRecorder()
			r.RecordResponse("q", tt.answerType, 10*time.Millisecond, tt.confidence)
			report := r.Report()
			want := "0.0%"
			if tt.success {
				want = "100.0%"
			}
			if report.Overview.SuccessRate != want {
				t.Errorf("SuccessRate = %q, want %q", report.Overview.SuccessRate, want)
			}
		})
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		q    string
		want string
	}{
		{"quels utilisateurs sont actifs", "users"},
		{"répartition des actions", "actions"},
		{"quelles tables sont modifiées", "objects"},
		{"activité par schéma", "schemas"},
		{"statistiques globales", "analytics"},
		{"comment va le chatbot", "meta"},
		{"bonjour", "other"},
		// First matching branch wins over later ones.
		{"actions des utilisateurs", "users"},
	}
	for _, tt := range tests {
		if got := categorize(tt.q); got != tt.want {
			t.Errorf("categorize(%q) = %q, want %q", tt.q, got, tt.want)
		}
	}
}

func TestRecordError(t *testing.T) {
	r := pinnedRecorder()
	r.RecordError("question cassée", errors.New("dataset unavailable"))

	report := r.Report()
	if len(report.RecentErrors) != 1 {
		t.Fatalf("RecentErrors = %d, want 1", len(report.RecentErrors))
	}
	e := report.RecentErrors[0]
	if e.Question != "question cassée" || e.Message != "dataset unavailable" {
		t.Errorf("entry = %+v", e)
	}
}

func TestRecentErrorsKeepLastTen(t *testing.T) {
	r := pinnedRecorder()
	for i := 0; i < 15; i++ {
		r.RecordError(strings.Repeat("x", i+1), errors.New("boom"))
	}
	report := r.Report()
	if len(report.RecentErrors) != 10 {
		t.Fatalf("RecentErrors = %d, want 10", len(report.RecentErrors))
	}
	// The oldest five entries are dropped; the first kept question has
	// six characters.
	if report.RecentErrors[0].Question != strings.Repeat("x", 6) {
		t.Errorf("first kept = %q", report.RecentErrors[0].Question)
	}
}

func TestLatencyStats(t *testing.T) {
	latencies := []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		30 * time.Millisecond,
		40 * time.Millisecond,
		100 * time.Millisecond,
	}
	stats := latencyStats(latencies)
	if stats.AverageMs != 40 {
		t.Errorf("AverageMs = %d, want 40", stats.AverageMs)
	}
	if stats.MedianMs != 30 {
		t.Errorf("MedianMs = %d, want 30", stats.MedianMs)
	}
	if stats.MinMs != 10 || stats.MaxMs != 100 {
		t.Errorf("Min/Max = %d/%d", stats.MinMs, stats.MaxMs)
	}
	if stats.P95Ms != 100 {
		t.Errorf("P95Ms = %d, want 100", stats.P95Ms)
	}

	empty := latencyStats(nil)
	if empty != (LatencyStats{}) {
		t.Errorf("empty stats = %+v", empty)
	}
}

func TestReportSnapshot(t *testing.T) {
	r := pinnedRecorder()
	r.RecordQuestion("analyse des utilisateurs", "s1")
	r.RecordResponse("analyse des utilisateurs", "detailed_analysis", 25*time.Millisecond, 0.8)

	report := r.Report()
	if report.Overview.Uptime != "0h 0m" {
		t.Errorf("Uptime = %q", report.Overview.Uptime)
	}
	if report.Overview.AverageConfidence != "80.0%" {
		t.Errorf("AverageConfidence = %q", report.Overview.AverageConfidence)
	}
	if len(report.HourlyActivity) != 24 {
		t.Fatalf("HourlyActivity = %d buckets, want 24", len(report.HourlyActivity))
	}
	if report.HourlyActivity[14].Questions != 1 {
		t.Errorf("hour 14 = %d, want 1", report.HourlyActivity[14].Questions)
	}
	if len(report.DailyActivity) != 1 || report.DailyActivity[0].Day != "2024-05-06" {
		t.Errorf("DailyActivity = %+v", report.DailyActivity)
	}
	if report.Latency.AverageMs != 25 {
		t.Errorf("latency average = %d", report.Latency.AverageMs)
	}
}

func TestMultiRecorderFansOut(t *testing.T) {
	a := pinnedRecorder()
	b := pinnedRecorder()
	m := Multi(a, b)

	m.RecordQuestion("q", "s1")
	m.RecordResponse("q", "detailed_analysis", time.Millisecond, 0.9)

	for i, r := range []*MemoryRecorder{a, b} {
		report := r.Report()
		if report.Overview.TotalQuestions != 1 || report.Overview.TotalResponses != 1 {
			t.Errorf("recorder %d: %+v", i, report.Overview)
		}
	}
}
