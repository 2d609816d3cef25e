package catalog

import (
	"testing"
	"time"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/dispatch"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

func update(user, schema string, ts time.Time) model.AuditEvent {
	return model.AuditEvent{
		DBUsername:   user,
		ActionName:   "UPDATE",
		ObjectSchema: schema,
		ObjectName:   "T1",
		Timestamp:    ts,
		SessionID:    "2001",
	}
}

func TestMultiSchemaUpdatesThresholdBoundary(t *testing.T) {
	// Four distinct schemas inside the window stays below the default
	// threshold of five.
	below := model.Dataset{
		update("CAROL", "S1", at(9, 0)),
		update("CAROL", "S2", at(9, 2)),
		update("CAROL", "S3", at(9, 4)),
		update("CAROL", "S4", at(9, 6)),
	}
	res, err := multiSchemaUpdates(below, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 0 {
		t.Errorf("below threshold produced %d rows", len(res.Data))
	}

	// A fifth schema inside the window flags exactly one window: only
	// the first event anchors a window seeing all five schemas.
	exact := append(below, update("CAROL", "S5", at(9, 8)))
	res, err = multiSchemaUpdates(exact, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 1 {
		t.Fatalf("at threshold produced %d rows, want 1", len(res.Data))
	}
	row := res.Data[0]
	if row["utilisateur"] != "CAROL" || row["schemas"] != 5 {
		t.Errorf("row = %v", row)
	}
	if row["liste"] != "S1, S2, S3, S4, S5" {
		t.Errorf("liste = %v", row["liste"])
	}
	if row["score_risque"] != 10 {
		t.Errorf("score_risque = %v, want capped 10", row["score_risque"])
	}
}

func TestMultiSchemaUpdatesWindowBoundary(t *testing.T) {
	base := model.Dataset{
		update("CAROL", "S1", at(9, 0)),
		update("CAROL", "S2", at(9, 1)),
		update("CAROL", "S3", at(9, 2)),
		update("CAROL", "S4", at(9, 3)),
	}

	// The fifth schema exactly at the ten-minute bound is inside the
	// window; one minute later it is not.
	inside := append(model.Dataset{}, base...)
	inside = append(inside, update("CAROL", "S5", at(9, 10)))
	res, err := multiSchemaUpdates(inside, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 1 {
		t.Errorf("event at window bound: %d rows, want 1", len(res.Data))
	}

	outside := append(model.Dataset{}, base...)
	outside = append(outside, update("CAROL", "S5", at(9, 11)))
	res, err = multiSchemaUpdates(outside, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 0 {
		t.Errorf("event past window bound: %d rows, want 0", len(res.Data))
	}
}

func TestMultiSchemaUpdatesCapturedThreshold(t *testing.T) {
	ds := model.Dataset{
		update("CAROL", "S1", at(9, 0)),
		update("CAROL", "S2", at(9, 1)),
	}
	res, err := multiSchemaUpdates(ds, dispatch.Captures{"", "2", "10"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 1 {
		t.Fatalf("captured threshold 2: %d rows, want 1", len(res.Data))
	}
	if res.Data[0]["score_risque"] != 4 {
		t.Errorf("score_risque = %v, want 4", res.Data[0]["score_risque"])
	}
}

func objAction(action string, ts time.Time) model.AuditEvent {
	return model.AuditEvent{
		DBUsername:   "DAVE",
		ActionName:   action,
		ObjectSchema: "FINANCE",
		ObjectName:   "SOLDE",
		Timestamp:    ts,
		SessionID:    "3001",
	}
}

func TestDropCreateSequenceDetection(t *testing.T) {
	ds := model.Dataset{
		objAction("DROP", at(12, 0)),
		objAction("CREATE", at(12, 3)),
	}
	res, err := dropCreateSequences(ds, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 1 {
		t.Fatalf("rows = %d, want 1", len(res.Data))
	}
	row := res.Data[0]
	if row["objet"] != "FINANCE.SOLDE" {
		t.Errorf("objet = %v", row["objet"])
	}
	if row["delai_minutes"] != "3.00" {
		t.Errorf("delai_minutes = %v", row["delai_minutes"])
	}
	if row["niveau_risque"] != RiskHigh {
		t.Errorf("niveau_risque = %v, want %s", row["niveau_risque"], RiskHigh)
	}
	if row["meme_utilisateur"] != "OUI" || row["meme_session"] != "OUI" {
		t.Errorf("same user/session flags: %v / %v", row["meme_utilisateur"], row["meme_session"])
	}
}

func TestDropCreateSequenceAdjacencyOnly(t *testing.T) {
	// CREATE, DROP, CREATE yields exactly one pair: the adjacent
	// DROP then CREATE. The leading CREATE pairs with nothing.
	ds := model.Dataset{
		objAction("CREATE", at(8, 0)),
		objAction("DROP", at(9, 0)),
		objAction("CREATE", at(9, 30)),
	}
	res, err := dropCreateSequences(ds, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 1 {
		t.Fatalf("rows = %d, want 1", len(res.Data))
	}
	if res.Data[0]["suppression"] != formatTime(at(9, 0)) {
		t.Errorf("suppression = %v", res.Data[0]["suppression"])
	}
	if res.Data[0]["niveau_risque"] != RiskMedium {
		t.Errorf("30 minute delay should be %s, got %v", RiskMedium, res.Data[0]["niveau_risque"])
	}
}

func TestDropCreateRiskLevels(t *testing.T) {
	tests := []struct {
		name  string
		delay time.Duration
		want  string
	}{
		{"under five minutes", 4 * time.Minute, RiskHigh},
		{"under an hour", 59 * time.Minute, RiskMedium},
		{"over an hour", 2 * time.Hour, RiskLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := at(10, 0)
			ds := model.Dataset{
				objAction("TRUNCATE", start),
				objAction("CREATE", start.Add(tt.delay)),
			}
			res, err := dropCreateSequences(ds, nil)
			if err != nil {
				t.Fatal(err)
			}
			if len(res.Data) != 1 {
				t.Fatalf("rows = %d, want 1", len(res.Data))
			}
			if res.Data[0]["niveau_risque"] != tt.want {
				t.Errorf("niveau_risque = %v, want %s", res.Data[0]["niveau_risque"], tt.want)
			}
		})
	}
}

func TestMultiHostSessions(t *testing.T) {
	hostEvent := func(user, host string, ts time.Time) model.AuditEvent {
		return model.AuditEvent{DBUsername: user, UserHost: host, ActionName: "LOGON", Timestamp: ts}
	}
	var ds model.Dataset
	// EVE on three hosts the same day, FRANK on six, GINA on two.
	for i, h := range []string{"h1", "h2", "h3"} {
		ds = append(ds, hostEvent("EVE", h, at(8, i)))
	}
	for i, h := range []string{"h1", "h2", "h3", "h4", "h5", "h6"} {
		ds = append(ds, hostEvent("FRANK", h, at(9, i)))
	}
	for i, h := range []string{"h1", "h2"} {
		ds = append(ds, hostEvent("GINA", h, at(10, i)))
	}

	res, err := multiHostSessions(ds, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 2 {
		t.Fatalf("rows = %d, want 2 (GINA below threshold)", len(res.Data))
	}
	// Most hosts first.
	if res.Data[0]["utilisateur"] != "FRANK" || res.Data[0]["niveau_risque"] != RiskHigh {
		t.Errorf("row 0 = %v", res.Data[0])
	}
	if res.Data[1]["utilisateur"] != "EVE" || res.Data[1]["niveau_risque"] != RiskMedium {
		t.Errorf("row 1 = %v", res.Data[1])
	}
	if res.Data[1]["hosts"] != "h1, h2, h3" {
		t.Errorf("hosts list = %v", res.Data[1]["hosts"])
	}
}

func TestHighVolumeShortSessions(t *testing.T) {
	var ds model.Dataset
	// Session 4001 packs 120 events into 4 minutes; session 4002 is slow.
	for i := 0; i < 120; i++ {
		ds = append(ds, model.AuditEvent{
			DBUsername: "HUGO",
			ActionName: "SELECT",
			SessionID:  "4001",
			Timestamp:  at(9, 0).Add(time.Duration(i) * 2 * time.Second),
		})
	}
	ds = append(ds,
		model.AuditEvent{DBUsername: "IRIS", ActionName: "SELECT", SessionID: "4002", Timestamp: at(9, 0)},
		model.AuditEvent{DBUsername: "IRIS", ActionName: "SELECT", SessionID: "4002", Timestamp: at(11, 0)},
	)

	res, err := highVolumeShortSessions(ds, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 1 {
		t.Fatalf("rows = %d, want 1", len(res.Data))
	}
	row := res.Data[0]
	if row["session_id"] != "4001" || row["actions"] != 120 {
		t.Errorf("row = %v", row)
	}
}

func TestSystemObjectPrivilegesAllCritical(t *testing.T) {
	ds := model.Dataset{
		{DBUsername: "JACK", ActionName: "GRANT", ObjectSchema: "SYS", ObjectName: "DBA_USERS", Timestamp: at(9, 0)},
		{DBUsername: "JACK", ActionName: "REVOKE", ObjectSchema: "APP", ObjectName: "SYS_CONFIG", Timestamp: at(9, 5)},
		{DBUsername: "JACK", ActionName: "GRANT", ObjectSchema: "APP", ObjectName: "ORDERS", Timestamp: at(9, 10)},
		{DBUsername: "JACK", ActionName: "SELECT", ObjectSchema: "SYS", ObjectName: "DBA_USERS", Timestamp: at(9, 15)},
	}
	res, err := systemObjectPrivileges(ds, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 2 {
		t.Fatalf("rows = %d, want 2", len(res.Data))
	}
	for _, row := range res.Data {
		if row["criticite"] != RiskCritical {
			t.Errorf("criticite = %v, want %s", row["criticite"], RiskCritical)
		}
	}
}

func TestAfterHoursRangeDefaults(t *testing.T) {
	ds := model.Dataset{
		ev("KIM", "SELECT", at(7, 59)),
		ev("KIM", "SELECT", at(8, 0)),
		ev("KIM", "SELECT", at(18, 0)),
		ev("KIM", "SELECT", at(19, 0)),
	}
	res, err := afterHoursRange(ds, nil)
	if err != nil {
		t.Fatal(err)
	}
	// 8h and 18h are inside the default working range.
	if len(res.Data) != 1 || res.Data[0]["actions"] != 2 {
		t.Errorf("Data = %v, want one user with 2 off-hours actions", res.Data)
	}
}
