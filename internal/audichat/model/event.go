package model

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Missing is the display sentinel substituted for absent fields when
// bucketing or rendering. Internally an absent field is always the empty
// string; storage adapters must never hand mixed null/""/"UNKNOWN"
// spellings past the construction boundary.
const Missing = "UNKNOWN"

// AuditEvent is one observed database action: who did what, to which
// object, when, from where. A zero Timestamp means the source value was
// absent or unparsable; such events are excluded from temporal
// computations but kept for everything else.
type AuditEvent struct {
	DBUsername         string
	OSUsername         string
	ActionName         string
	ObjectSchema       string
	ObjectName         string
	SQLText            string
	SQLBinds           string
	Timestamp          time.Time
	SessionID          string
	UserHost           string
	Terminal           string
	AuthenticationType string
	ClientProgramName  string
	InstanceID         string
}

// HasTimestamp reports whether the event carries a parsable timestamp.
func (e AuditEvent) HasTimestamp() bool {
	return !e.Timestamp.IsZero()
}

// Dataset is the fully materialized collection of audit events one
// question is evaluated against. Handlers treat it as read-only; the
// storage collaborator owns its lifecycle and must swap it atomically
// when refreshing.
type Dataset []AuditEvent

// FromRecord builds an AuditEvent from a raw storage record, normalizing
// every spelling of "missing" (nil, empty, literal UNKNOWN) into the
// canonical empty string and parsing the timestamp with dateparse so the
// many formats found in exported audit trails all work.
func FromRecord(rec map[string]any) AuditEvent {
	e := AuditEvent{
		DBUsername:         cleanField(rec["dbusername"]),
		OSUsername:         cleanField(rec["os_username"]),
		ActionName:         cleanField(rec["action_name"]),
		ObjectSchema:       cleanField(rec["object_schema"]),
		ObjectName:         cleanField(rec["object_name"]),
		SQLText:            cleanField(rec["sql_text"]),
		SQLBinds:           cleanField(rec["sql_binds"]),
		SessionID:          cleanField(rec["sessionid"]),
		UserHost:           cleanField(rec["userhost"]),
		Terminal:           cleanField(rec["terminal"]),
		AuthenticationType: cleanField(rec["authentication_type"]),
		ClientProgramName:  cleanField(rec["client_program_name"]),
		InstanceID:         cleanField(rec["instance_id"]),
	}

	switch ts := rec["event_timestamp"].(type) {
	case time.Time:
		e.Timestamp = ts
	case string:
		if ts != "" {
			if parsed, err := dateparse.ParseAny(ts); err == nil {
				e.Timestamp = parsed
			}
		}
	}

	return e
}

// cleanField collapses the missing-value spellings found in raw exports.
func cleanField(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, Missing) || strings.EqualFold(s, "null") {
		return ""
	}
	return s
}

// OrMissing substitutes the display sentinel for an absent field value.
func OrMissing(s string) string {
	if s == "" {
		return Missing
	}
	return s
}
