package catalog

import (
	"testing"
	"time"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/dispatch"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

func seqEvent(session, action, object string, ts time.Time) model.AuditEvent {
	return model.AuditEvent{
		DBUsername:   "LEA",
		ActionName:   action,
		ObjectSchema: "APP",
		ObjectName:   object,
		SessionID:    session,
		Timestamp:    ts,
	}
}

func TestSelectDeleteSequences(t *testing.T) {
	ds := model.Dataset{
		seqEvent("6001", "SELECT", "ORDERS", at(9, 0)),
		seqEvent("6001", "UPDATE", "ORDERS", at(9, 5)),
		seqEvent("6001", "DELETE", "ORDERS", at(9, 10)),
		// DELETE without a prior SELECT on that object is ignored.
		seqEvent("6001", "DELETE", "CLIENTS", at(9, 15)),
		// A second DELETE after the pair needs a fresh SELECT.
		seqEvent("6001", "DELETE", "ORDERS", at(9, 20)),
	}
	res, err := selectDeleteSequences(ds, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 1 {
		t.Fatalf("rows = %d, want 1", len(res.Data))
	}
	row := res.Data[0]
	if row["objet"] != "APP.ORDERS" {
		t.Errorf("objet = %v", row["objet"])
	}
	if row["delai_minutes"] != "10.00" {
		t.Errorf("delai_minutes = %v", row["delai_minutes"])
	}
}

func TestSelectDeleteSequencesCrossSessionIsolated(t *testing.T) {
	// The SELECT and DELETE land in different sessions, so no pair.
	ds := model.Dataset{
		seqEvent("7001", "SELECT", "ORDERS", at(9, 0)),
		seqEvent("7002", "DELETE", "ORDERS", at(9, 10)),
	}
	res, err := selectDeleteSequences(ds, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 0 {
		t.Errorf("rows = %d, want 0", len(res.Data))
	}
}

func TestConsecutiveInserts(t *testing.T) {
	var ds model.Dataset
	// Five INSERTs in a row on ORDERS, then one SELECT breaking the
	// run, then four INSERTs that stay below the default threshold.
	for i := 0; i < 5; i++ {
		ds = append(ds, seqEvent("8001", "INSERT", "ORDERS", at(9, i)))
	}
	ds = append(ds, seqEvent("8001", "SELECT", "ORDERS", at(9, 5)))
	for i := 0; i < 4; i++ {
		ds = append(ds, seqEvent("8001", "INSERT", "ORDERS", at(9, 6+i)))
	}

	res, err := consecutiveInserts(ds, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 1 {
		t.Fatalf("rows = %d, want 1", len(res.Data))
	}
	row := res.Data[0]
	if row["insertions"] != 5 {
		t.Errorf("insertions = %v, want 5", row["insertions"])
	}
	if row["debut"] != formatTime(at(9, 0)) || row["fin"] != formatTime(at(9, 4)) {
		t.Errorf("run bounds = %v / %v", row["debut"], row["fin"])
	}
}

func TestConsecutiveInsertsObjectChangeBreaksRun(t *testing.T) {
	var ds model.Dataset
	for i := 0; i < 3; i++ {
		ds = append(ds, seqEvent("8002", "INSERT", "ORDERS", at(9, i)))
	}
	for i := 0; i < 3; i++ {
		ds = append(ds, seqEvent("8002", "INSERT", "CLIENTS", at(9, 3+i)))
	}
	res, err := consecutiveInserts(ds, dispatch.Captures{"", "3"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 2 {
		t.Fatalf("rows = %d, want 2 separate runs", len(res.Data))
	}
	if res.Data[0]["objet"] != "APP.ORDERS" || res.Data[1]["objet"] != "APP.CLIENTS" {
		t.Errorf("runs = %v", res.Data)
	}
}

func TestUpdateLoops(t *testing.T) {
	var ds model.Dataset
	for i := 0; i < 10; i++ {
		e := seqEvent("9001", "UPDATE", "ORDERS", at(9, i))
		e.SQLText = "UPDATE orders SET status = 'X' WHERE id = 1"
		ds = append(ds, e)
	}
	for i := 0; i < 3; i++ {
		e := seqEvent("9001", "UPDATE", "ORDERS", at(10, i))
		e.SQLText = "UPDATE orders SET status = 'Y' WHERE id = 2"
		ds = append(ds, e)
	}

	res, err := updateLoops(ds, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 1 {
		t.Fatalf("rows = %d, want 1", len(res.Data))
	}
	if res.Data[0]["repetitions"] != 10 {
		t.Errorf("repetitions = %v, want 10", res.Data[0]["repetitions"])
	}
}

func TestUpdateSelectPatterns(t *testing.T) {
	ds := model.Dataset{
		seqEvent("9100", "UPDATE", "ORDERS", at(9, 0)),
		seqEvent("9100", "SELECT", "ORDERS", at(9, 1)),
		seqEvent("9100", "UPDATE", "ORDERS", at(9, 2)),
		seqEvent("9100", "SELECT", "ORDERS", at(9, 3)),
		// Adjacent pair on different objects does not count.
		seqEvent("9100", "UPDATE", "CLIENTS", at(9, 4)),
		seqEvent("9100", "SELECT", "ORDERS", at(9, 5)),
	}
	res, err := updateSelectPatterns(ds, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 1 {
		t.Fatalf("rows = %d, want 1", len(res.Data))
	}
	if res.Data[0]["objet"] != "APP.ORDERS" || res.Data[0]["occurrences"] != 2 {
		t.Errorf("row = %v", res.Data[0])
	}
}
