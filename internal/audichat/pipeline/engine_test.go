package pipeline

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/catalog"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/classify"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/metrics"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/respond"
)

func newTestEngine(rec metrics.Recorder) *Engine {
	return New(classify.DefaultVocabulary(), catalog.NewCoreRegistry(), catalog.NewComplexRegistry(), rec)
}

func event(user, action, schema, object string, ts time.Time) model.AuditEvent {
	return model.AuditEvent{
		DBUsername:   user,
		ActionName:   action,
		ObjectSchema: schema,
		ObjectName:   object,
		SessionID:    "1001",
		Timestamp:    ts,
	}
}

func groupingDataset() model.Dataset {
	base := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	var ds model.Dataset
	for i := 0; i < 5; i++ {
		ds = append(ds, event("ALICE", "SELECT", "APP", "ORDERS", base.Add(time.Duration(i)*time.Minute)))
	}
	for i := 0; i < 2; i++ {
		ds = append(ds, event("BOB", "INSERT", "APP", "CLIENTS", base.Add(time.Hour)))
	}
	return ds
}

func TestAnswerGroupingQuestion(t *testing.T) {
	engine := newTestEngine(nil)
	eval := engine.Answer("Combien d'actions par dbusername ?", "s1", groupingDataset())

	if eval.RequestID == "" {
		t.Error("missing request id")
	}
	if eval.Normalized != "combien d'actions par dbusername ?" {
		t.Errorf("Normalized = %q", eval.Normalized)
	}
	ans := eval.Answer
	if ans.Type != respond.TypeAnalysis {
		t.Fatalf("Type = %q", ans.Type)
	}
	if ans.Category != "regroupement" {
		t.Errorf("Category = %q, want regroupement", ans.Category)
	}
	if len(ans.Data) != 2 {
		t.Fatalf("Data rows = %d, want 2", len(ans.Data))
	}
	if ans.Data[0]["utilisateur"] != "ALICE" || ans.Data[0]["actions"] != 5 {
		t.Errorf("row 0 = %v", ans.Data[0])
	}
	if ans.Data[1]["utilisateur"] != "BOB" || ans.Data[1]["actions"] != 2 {
		t.Errorf("row 1 = %v", ans.Data[1])
	}
	if ans.Performance == nil || ans.Performance.TotalRecordsAnalyzed != 7 {
		t.Errorf("Performance = %+v", ans.Performance)
	}
}

func TestAnswerSequenceQuestion(t *testing.T) {
	ds := model.Dataset{
		event("DAVE", "DROP", "FINANCE", "SOLDE", time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)),
		event("DAVE", "CREATE", "FINANCE", "SOLDE", time.Date(2024, 5, 6, 12, 3, 0, 0, time.UTC)),
	}
	engine := newTestEngine(nil)
	eval := engine.Answer("Y a-t-il des DROP suivis de CREATE sur le même objet ?", "s1", ds)

	ans := eval.Answer
	if ans.Type != respond.TypeAnalysis {
		t.Fatalf("Type = %q", ans.Type)
	}
	if ans.Category != "anomalies_securite" {
		t.Errorf("Category = %q, want anomalies_securite", ans.Category)
	}
	if len(ans.Data) != 1 {
		t.Fatalf("Data rows = %d, want 1", len(ans.Data))
	}
	row := ans.Data[0]
	if row["objet"] != "FINANCE.SOLDE" {
		t.Errorf("objet = %v", row["objet"])
	}
	if row["niveau_risque"] != "ÉLEVÉ" {
		t.Errorf("niveau_risque = %v", row["niveau_risque"])
	}
	if row["meme_utilisateur"] != "OUI" || row["meme_session"] != "OUI" {
		t.Errorf("flags = %v / %v", row["meme_utilisateur"], row["meme_session"])
	}
}

func TestAnswerUnrecognizedQuestionFallsBack(t *testing.T) {
	engine := newTestEngine(nil)
	eval := engine.Answer("xyzzy blorp", "s1", groupingDataset())

	cls := eval.Classification
	if cls.Intent.Primary != classify.IntentUnknown {
		t.Errorf("intent = %q, want UNKNOWN", cls.Intent.Primary)
	}
	if cls.ShouldProcess {
		t.Error("gibberish must not be marked processable")
	}
	if len(cls.Suggestions) == 0 {
		t.Error("low-confidence result must carry suggestions")
	}

	ans := eval.Answer
	if ans.Type != respond.TypeAnalysis {
		t.Fatalf("Type = %q", ans.Type)
	}
	if ans.Template != "user_analysis" {
		t.Errorf("Template = %q, want user_analysis", ans.Template)
	}
	if !strings.HasPrefix(ans.Summary, "ANALYSE GÉNÉRALE") {
		t.Errorf("Summary = %q", ans.Summary)
	}
	if len(ans.Data) == 0 || ans.Data[0]["utilisateur"] != "ALICE" {
		t.Errorf("fallback data = %v", ans.Data)
	}
}

func TestAnswerDeterministic(t *testing.T) {
	engine := newTestEngine(nil)
	ds := groupingDataset()
	first := engine.Answer("Combien d'actions par dbusername ?", "s1", ds)
	for i := 0; i < 3; i++ {
		again := engine.Answer("Combien d'actions par dbusername ?", "s1", ds)
		if !reflect.DeepEqual(first.Answer, again.Answer) {
			t.Fatalf("run %d produced a different answer", i)
		}
	}
}

func TestAnswerFeedsRecorder(t *testing.T) {
	rec := metrics.NewMemoryRecorder()
	engine := newTestEngine(rec)
	engine.Answer("Combien d'actions par dbusername ?", "s1", groupingDataset())
	engine.Answer("xyzzy blorp", "s2", groupingDataset())

	report := rec.Report()
	if report.Overview.TotalQuestions != 2 || report.Overview.TotalResponses != 2 {
		t.Errorf("Overview = %+v", report.Overview)
	}
	// Both answers are detailed analyses, so both count as successes.
	if report.Overview.SuccessRate != "100.0%" {
		t.Errorf("SuccessRate = %q", report.Overview.SuccessRate)
	}
	if report.Overview.UniqueUsers != 2 {
		t.Errorf("UniqueUsers = %d, want 2", report.Overview.UniqueUsers)
	}
}
