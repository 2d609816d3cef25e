package catalog

import (
	"reflect"
	"testing"
	"time"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/dispatch"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

// at builds a timestamp on the fixed test day.
func at(h, m int) time.Time {
	return time.Date(2024, 5, 6, h, m, 0, 0, time.UTC)
}

// ev builds a minimal event for grouping and filter tests.
func ev(user, action string, ts time.Time) model.AuditEvent {
	return model.AuditEvent{
		DBUsername: user,
		ActionName: action,
		Timestamp:  ts,
		SessionID:  "1001",
	}
}

func scenarioDataset() model.Dataset {
	var ds model.Dataset
	for i := 0; i < 5; i++ {
		ds = append(ds, ev("ALICE", "SELECT", at(9, i)))
	}
	for i := 0; i < 2; i++ {
		ds = append(ds, ev("BOB", "INSERT", at(10, i)))
	}
	return ds
}

func TestCoreDispatchGroupByUser(t *testing.T) {
	core := NewCoreRegistry()
	out := core.Dispatch("combien d'actions par dbusername ?", scenarioDataset())
	if out.Kind != dispatch.Matched {
		t.Fatalf("Kind = %v, want Matched", out.Kind)
	}
	if out.Category != CatRegroupement {
		t.Errorf("Category = %q, want %q", out.Category, CatRegroupement)
	}
	want := []dispatch.Row{
		{"utilisateur": "ALICE", "actions": 5},
		{"utilisateur": "BOB", "actions": 2},
	}
	if !reflect.DeepEqual(out.Result.Data, want) {
		t.Errorf("Data = %v, want %v", out.Result.Data, want)
	}
}

func TestCoreDispatchFilterCapture(t *testing.T) {
	ds := scenarioDataset()
	core := NewCoreRegistry()
	out := core.Dispatch(`les entrées d'audit avec dbusername 'alice'`, ds)
	if out.Kind != dispatch.Matched {
		t.Fatalf("Kind = %v, want Matched", out.Kind)
	}
	if out.Category != CatFiltres {
		t.Errorf("Category = %q, want %q", out.Category, CatFiltres)
	}
	if len(out.Result.Data) != 5 {
		t.Errorf("len(Data) = %d, want 5 ALICE rows", len(out.Result.Data))
	}
	for _, row := range out.Result.Data {
		if row["utilisateur"] != "ALICE" {
			t.Errorf("unexpected user in filtered row: %v", row["utilisateur"])
		}
	}
}

func TestCoreDispatchNoMatch(t *testing.T) {
	core := NewCoreRegistry()
	out := core.Dispatch("xyzzy blorp", scenarioDataset())
	if out.Kind != dispatch.NoMatch {
		t.Errorf("Kind = %v, want NoMatch", out.Kind)
	}
}

func TestRegistrySizes(t *testing.T) {
	if n := NewCoreRegistry().Len(); n < 60 {
		t.Errorf("core registry has %d entries, expected at least 60", n)
	}
	if n := NewComplexRegistry().Len(); n < 40 {
		t.Errorf("complex registry has %d entries, expected at least 40", n)
	}
}

func TestHourlyTrendAlwaysFullDay(t *testing.T) {
	res, err := hourlyTrend(scenarioDataset(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 24 {
		t.Fatalf("len(Data) = %d, want 24 hour buckets", len(res.Data))
	}
	if res.Data[9]["activite"] != 5 {
		t.Errorf("hour 9 = %v, want 5", res.Data[9]["activite"])
	}
	if res.Data[10]["activite"] != 2 {
		t.Errorf("hour 10 = %v, want 2", res.Data[10]["activite"])
	}
	if res.Data[3]["activite"] != 0 {
		t.Errorf("empty hour 3 = %v, want 0", res.Data[3]["activite"])
	}
}

func TestTodayYesterdayPinnedClock(t *testing.T) {
	restore := timeNow
	timeNow = func() time.Time { return time.Date(2024, 5, 7, 12, 0, 0, 0, time.UTC) }
	defer func() { timeNow = restore }()

	// Events are all on 2024-05-06, which is "yesterday" for the
	// pinned clock.
	ds := scenarioDataset()

	res, err := filterByToday(ds, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 0 {
		t.Errorf("today rows = %d, want 0", len(res.Data))
	}

	res, err = filterByYesterday(ds, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != len(ds) {
		t.Errorf("yesterday rows = %d, want %d", len(res.Data), len(ds))
	}
}

func TestPercentage(t *testing.T) {
	if got := percentage(1, 3); got != "33.33%" {
		t.Errorf("percentage(1,3) = %q", got)
	}
	if got := percentage(0, 0); got != "0%" {
		t.Errorf("percentage(0,0) = %q, want 0%%", got)
	}
}

func TestHandlersTolerateEmptyDataset(t *testing.T) {
	handlers := map[string]dispatch.HandlerFunc{
		"groupByDBUsername":       groupByDBUsername,
		"groupByActionName":       groupByActionName,
		"hourlyTrend":             hourlyTrend,
		"multiHostSessions":       multiHostSessions,
		"multiSchemaUpdates":      multiSchemaUpdates,
		"highVolumeShortSessions": highVolumeShortSessions,
		"dropCreateSequences":     dropCreateSequences,
		"systemObjectPrivileges":  systemObjectPrivileges,
		"activitySpikes":          activitySpikes,
		"selectDeleteSequences":   selectDeleteSequences,
		"consecutiveInserts":      consecutiveInserts,
		"incidentTimeline":        incidentTimeline,
	}
	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			res, err := h(nil, nil)
			if err != nil {
				t.Fatalf("error on empty dataset: %v", err)
			}
			if res.Summary == "" {
				t.Error("empty dataset must still produce a summary")
			}
			if name != "hourlyTrend" && len(res.Data) != 0 {
				t.Errorf("expected no data rows, got %d", len(res.Data))
			}
		})
	}
}

func TestDispatchDeterministic(t *testing.T) {
	// Tied counts force the key-order tie-break; two runs must agree.
	ds := model.Dataset{
		ev("ZOE", "SELECT", at(9, 0)),
		ev("ANA", "SELECT", at(9, 1)),
		ev("MIA", "SELECT", at(9, 2)),
	}
	core := NewCoreRegistry()
	first := core.Dispatch("combien d'actions par dbusername", ds)
	for i := 0; i < 5; i++ {
		again := core.Dispatch("combien d'actions par dbusername", ds)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs from first run", i)
		}
	}
	if first.Result.Data[0]["utilisateur"] != "ANA" {
		t.Errorf("tie-break order wrong: %v", first.Result.Data)
	}
}
