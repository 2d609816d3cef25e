package respond

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/classify"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/dispatch"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

func testEvent(user, action, object string, ts time.Time) model.AuditEvent {
	return model.AuditEvent{
		DBUsername:   user,
		ActionName:   action,
		ObjectSchema: "APP",
		ObjectName:   object,
		SessionID:    "5001",
		Timestamp:    ts,
	}
}

func testDataset() model.Dataset {
	base := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	var ds model.Dataset
	for i := 0; i < 5; i++ {
		ds = append(ds, testEvent("ALICE", "SELECT", "ORDERS", base.Add(time.Duration(i)*time.Minute)))
	}
	for i := 0; i < 2; i++ {
		ds = append(ds, testEvent("BOB", "INSERT", "CLIENTS", base.Add(time.Hour)))
	}
	return ds
}

func TestCapRows(t *testing.T) {
	rows := make([]dispatch.Row, 0, 25)
	for i := 0; i < 25; i++ {
		rows = append(rows, dispatch.Row{"valeur": i})
	}

	capped := capRows(rows)
	require.Len(t, capped, 20)
	assert.Equal(t, 1, capped[0]["_rank"])
	assert.Equal(t, 20, capped[19]["_rank"])
	assert.Equal(t, 25, capped[0]["_total_items"])
	assert.Equal(t, "4.00%", capped[0]["_display_percentage"])

	// Input rows stay untouched.
	assert.NotContains(t, rows[0], "_rank")
}

func TestCapRowsShortInput(t *testing.T) {
	capped := capRows([]dispatch.Row{{"valeur": 1}, {"valeur": 2}})
	require.Len(t, capped, 2)
	assert.Equal(t, 2, capped[1]["_rank"])
	assert.Equal(t, 2, capped[1]["_total_items"])
	assert.Equal(t, "100.00%", capped[1]["_display_percentage"])
}

func TestTierSentence(t *testing.T) {
	assert.Equal(t, " Analyse de haute précision avec données complètes.", tierSentence(0.9))
	assert.Equal(t, " Analyse fiable avec quelques approximations.", tierSentence(0.7))
	assert.Equal(t, " Analyse préliminaire nécessitant validation.", tierSentence(0.5))
	assert.Equal(t, " Analyse préliminaire nécessitant validation.", tierSentence(0.0))
}

func TestFormatDispatch(t *testing.T) {
	res := dispatch.Result{
		Data:        []dispatch.Row{{"utilisateur": "ALICE", "actions": 5}},
		Summary:     "Répartition des actions",
		Explanation: "Analyse quantitative.",
		Columns:     []string{"Utilisateur", "Actions"},
	}
	cls := classify.Result{Confidence: 0.9}

	ans := FormatDispatch("regroupement", res, cls, testDataset())
	assert.Equal(t, TypeAnalysis, ans.Type)
	assert.Equal(t, "regroupement", ans.Category)
	assert.Equal(t, "Répartition des actions", ans.Summary)
	assert.True(t, strings.HasSuffix(ans.Explanation, "Analyse de haute précision avec données complètes."))
	assert.Equal(t, 0.9, ans.Confidence)

	require.NotNil(t, ans.Performance)
	assert.Equal(t, 7, ans.Performance.TotalRecordsAnalyzed)
	assert.Equal(t, 1, ans.Performance.UniqueResults)
	assert.Equal(t, 100, ans.Performance.DataQualityScore)
}

func TestGenerateFallbackOnUnknownIntent(t *testing.T) {
	cls := classify.Result{Intent: classify.Intent{Primary: classify.IntentUnknown}, Confidence: 0.14}
	ans := Generate(cls, testDataset())

	assert.Equal(t, TypeAnalysis, ans.Type)
	assert.Equal(t, "user_analysis", ans.Template)
	assert.True(t, strings.HasPrefix(ans.Summary, "ANALYSE GÉNÉRALE - 2 utilisateurs identifiés"), ans.Summary)
	assert.LessOrEqual(t, len(ans.Data), 10)
	assert.Equal(t, "ALICE", ans.Data[0]["utilisateur"])
}

func TestGenerateFallbackCapsAtTenUsers(t *testing.T) {
	base := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	var ds model.Dataset
	for i := 0; i < 14; i++ {
		ds = append(ds, testEvent(fmt.Sprintf("USER%02d", i), "SELECT", "ORDERS", base))
	}
	ans := Generate(classify.Result{Intent: classify.Intent{Primary: classify.IntentUnknown}}, ds)
	assert.Len(t, ans.Data, 10)
	assert.Contains(t, ans.Summary, "14 utilisateurs identifiés")
}

func TestGenerateByIntent(t *testing.T) {
	tests := []struct {
		intent   string
		template string
		prefix   string
	}{
		{classify.IntentUsers, "user_analysis", "ANALYSE DÉTAILLÉE UTILISATEURS"},
		{classify.IntentActions, "action_analysis", "ANALYSE DÉTAILLÉE ACTIONS"},
		{classify.IntentPerformance, "action_analysis", "ANALYSE DÉTAILLÉE ACTIONS"},
		{classify.IntentObjects, "object_analysis", "ANALYSE DÉTAILLÉE OBJETS"},
		{classify.IntentSecurity, "security_analysis", "ANALYSE SÉCURITÉ"},
		{classify.IntentSessions, "session_analysis", "ANALYSE SESSIONS"},
		{classify.IntentTemporal, "temporal_analysis", "ANALYSE TEMPORELLE"},
	}
	for _, tt := range tests {
		t.Run(tt.intent, func(t *testing.T) {
			cls := classify.Result{Intent: classify.Intent{Primary: tt.intent}, Confidence: 0.7}
			ans := Generate(cls, testDataset())
			assert.Equal(t, tt.template, ans.Template)
			assert.True(t, strings.HasPrefix(ans.Summary, tt.prefix), ans.Summary)
			assert.True(t, strings.HasSuffix(ans.Explanation, "Analyse fiable avec quelques approximations."))
		})
	}
}

func TestUserStatisticsEmptyDataset(t *testing.T) {
	stats := userStatistics(nil)
	assert.Empty(t, stats.rows)
	assert.Contains(t, stats.summary, "Utilisateur le plus actif: AUCUN (0 actions, 0%)")
}

func TestActionStatisticsEmptyDataset(t *testing.T) {
	stats := actionStatistics(nil)
	assert.Empty(t, stats.rows)
	assert.Contains(t, stats.summary, "Action dominante: AUCUNE")
}

func TestTemporalStatisticsFullDay(t *testing.T) {
	stats := temporalStatistics(testDataset())
	require.Len(t, stats.rows, 24)
	assert.Equal(t, 5, stats.rows[9]["activite"])
	assert.Contains(t, stats.summary, "Pic d'activité: 9h (5 actions)")
	assert.Contains(t, stats.summary, "activité diurne")
}

func TestErrorAnswer(t *testing.T) {
	ans := ErrorAnswer("boom")
	assert.Equal(t, TypeError, ans.Type)
	assert.Equal(t, "Erreur lors de l'analyse des données", ans.Summary)
	assert.Equal(t, "Une erreur s'est produite: boom", ans.Explanation)
	assert.Empty(t, ans.Data)
	assert.Zero(t, ans.Confidence)
}

func TestDataQualityScore(t *testing.T) {
	assert.Equal(t, 0, dataQualityScore(nil))

	full := testDataset()
	assert.Equal(t, 100, dataQualityScore(full))

	// One complete event plus one empty event averages to 50.
	mixed := model.Dataset{
		testEvent("ALICE", "SELECT", "ORDERS", time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)),
		{},
	}
	assert.Equal(t, 50, dataQualityScore(mixed))
}

func TestCompletenessScore(t *testing.T) {
	assert.Equal(t, 0, completenessScore(nil))

	// Two of the four tracked fields present scores 50.
	ds := model.Dataset{{DBUsername: "ALICE", ActionName: "SELECT"}}
	assert.Equal(t, 50, completenessScore(ds))
}

func TestCriticality(t *testing.T) {
	tests := []struct {
		action string
		want   string
	}{
		{"DROP", "CRITIQUE"},
		{"truncate", "CRITIQUE"},
		{"DELETE", "CRITIQUE"},
		{"GRANT", "ÉLEVÉ"},
		{"alter", "ÉLEVÉ"},
		{"UPDATE", "MOYEN"},
		{"SELECT", "FAIBLE"},
		{"", "FAIBLE"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, criticality(tt.action), tt.action)
	}
}

func TestListPreview(t *testing.T) {
	assert.Equal(t, "a, b", listPreview([]string{"a", "b"}))
	got := listPreview([]string{"a", "b", "c", "d", "e", "f", "g"})
	assert.Equal(t, "a, b, c, d, e... (+2 autres)", got)
}
