package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.ndjson")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadNDJSON(t *testing.T) {
	path := writeDataset(t, strings.Join([]string{
		`{"dbusername":"ALICE","action_name":"SELECT","event_timestamp":"2024-05-06 09:00:00"}`,
		``,
		`{"dbusername":"UNKNOWN","action_name":"INSERT","object_name":"ORDERS"}`,
	}, "\n"))

	ds, err := LoadNDJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(ds) != 2 {
		t.Fatalf("len = %d, want 2 (blank line skipped)", len(ds))
	}
	if ds[0].DBUsername != "ALICE" || !ds[0].HasTimestamp() {
		t.Errorf("event 0 = %+v", ds[0])
	}
	// The UNKNOWN sentinel normalizes to the empty string.
	if ds[1].DBUsername != "" {
		t.Errorf("event 1 user = %q, want empty", ds[1].DBUsername)
	}
	if ds[1].ObjectName != "ORDERS" {
		t.Errorf("event 1 object = %q", ds[1].ObjectName)
	}
}

func TestLoadNDJSONMalformedLineFailsLoad(t *testing.T) {
	path := writeDataset(t, strings.Join([]string{
		`{"dbusername":"ALICE"}`,
		`not json at all`,
		`{"dbusername":"BOB"}`,
	}, "\n"))

	_, err := LoadNDJSON(path)
	if err == nil {
		t.Fatal("expected an error on the malformed line")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should name the offending line: %v", err)
	}
}

func TestLoadNDJSONMissingFile(t *testing.T) {
	if _, err := LoadNDJSON(filepath.Join(t.TempDir(), "absent.ndjson")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
