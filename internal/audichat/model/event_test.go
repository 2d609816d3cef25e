package model

import (
	"testing"
	"time"
)

func TestFromRecordNormalizesMissingSpellings(t *testing.T) {
	tests := []struct {
		name string
		rec  map[string]any
		want string
	}{
		{"absent key", map[string]any{}, ""},
		{"nil value", map[string]any{"dbusername": nil}, ""},
		{"empty string", map[string]any{"dbusername": ""}, ""},
		{"literal unknown", map[string]any{"dbusername": "UNKNOWN"}, ""},
		{"lowercase unknown", map[string]any{"dbusername": "unknown"}, ""},
		{"literal null", map[string]any{"dbusername": "null"}, ""},
		{"padded value", map[string]any{"dbusername": "  ALICE  "}, "ALICE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := FromRecord(tt.rec)
			if e.DBUsername != tt.want {
				t.Errorf("DBUsername = %q, want %q", e.DBUsername, tt.want)
			}
		})
	}
}

func TestFromRecordTimestamp(t *testing.T) {
	e := FromRecord(map[string]any{"event_timestamp": "2024-03-15 14:30:00"})
	if !e.HasTimestamp() {
		t.Fatal("expected parsable timestamp")
	}
	if e.Timestamp.Hour() != 14 {
		t.Errorf("hour = %d, want 14", e.Timestamp.Hour())
	}

	e = FromRecord(map[string]any{"event_timestamp": "pas une date"})
	if e.HasTimestamp() {
		t.Error("unparsable timestamp should leave the zero value")
	}

	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	e = FromRecord(map[string]any{"event_timestamp": now})
	if !e.Timestamp.Equal(now) {
		t.Errorf("time.Time value should pass through, got %v", e.Timestamp)
	}
}

func TestOrMissing(t *testing.T) {
	if got := OrMissing(""); got != Missing {
		t.Errorf("OrMissing(\"\") = %q, want %q", got, Missing)
	}
	if got := OrMissing("ALICE"); got != "ALICE" {
		t.Errorf("OrMissing(ALICE) = %q", got)
	}
}
