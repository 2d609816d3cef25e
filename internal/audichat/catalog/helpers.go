// Package catalog holds the two question catalogs (core and complex)
// and every analytic handler they dispatch to. Handlers are pure
// functions of (Dataset, Captures); they never mutate the dataset and
// their row order is stable for identical input.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/dispatch"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

// timeNow is swapped out by tests that pin "today"/"yesterday" filters.
var timeNow = time.Now

const timeLayout = "2006-01-02 15:04:05"

// Risk labels shared across handlers.
const (
	RiskCritical = "CRITIQUE"
	RiskHigh     = "ÉLEVÉ"
	RiskMedium   = "MOYEN"
	RiskLow      = "FAIBLE"
)

// percentage renders count/total*100 with two decimals. A zero total
// yields "0%" rather than NaN.
func percentage(count, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", float64(count)/float64(total)*100)
}

// yesNo renders a boolean as the French display labels used in result rows.
func yesNo(b bool) string {
	if b {
		return "OUI"
	}
	return "NON"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return model.Missing
	}
	return t.Format(timeLayout)
}

// fieldValue extracts the named canonical column from an event, with the
// empty string for anything absent.
func fieldValue(e model.AuditEvent, field string) string {
	switch field {
	case "dbusername":
		return e.DBUsername
	case "os_username":
		return e.OSUsername
	case "action_name":
		return e.ActionName
	case "object_schema":
		return e.ObjectSchema
	case "object_name":
		return e.ObjectName
	case "sessionid":
		return e.SessionID
	case "userhost":
		return e.UserHost
	case "terminal":
		return e.Terminal
	case "authentication_type":
		return e.AuthenticationType
	case "client_program_name":
		return e.ClientProgramName
	case "instance_id":
		return e.InstanceID
	default:
		return ""
	}
}

// countByField buckets events on a field (Missing for absent values) and
// returns the buckets sorted by count descending, then key ascending so
// equal counts render in a stable order.
type bucket struct {
	Key   string
	Count int
}

func countByField(ds model.Dataset, field string) []bucket {
	counts := map[string]int{}
	for _, e := range ds {
		counts[model.OrMissing(fieldValue(e, field))]++
	}
	return sortBuckets(counts)
}

func sortBuckets(counts map[string]int) []bucket {
	buckets := make([]bucket, 0, len(counts))
	for k, v := range counts {
		buckets = append(buckets, bucket{k, v})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count == buckets[j].Count {
			return buckets[i].Key < buckets[j].Key
		}
		return buckets[i].Count > buckets[j].Count
	})
	return buckets
}

// filterEvents returns the events matching the predicate, in dataset order.
func filterEvents(ds model.Dataset, keep func(model.AuditEvent) bool) model.Dataset {
	var out model.Dataset
	for _, e := range ds {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// eventRow projects an event onto the standard display columns used by
// the simple filter handlers.
func eventRow(e model.AuditEvent) dispatch.Row {
	return dispatch.Row{
		"timestamp":   formatTime(e.Timestamp),
		"utilisateur": model.OrMissing(e.DBUsername),
		"action":      model.OrMissing(e.ActionName),
		"schema":      model.OrMissing(e.ObjectSchema),
		"objet":       model.OrMissing(e.ObjectName),
		"programme":   model.OrMissing(e.ClientProgramName),
	}
}

func eventRows(ds model.Dataset) []dispatch.Row {
	rows := make([]dispatch.Row, 0, len(ds))
	for _, e := range ds {
		rows = append(rows, eventRow(e))
	}
	return rows
}

var filterColumns = []string{"Timestamp", "Utilisateur", "Action", "Schema", "Objet", "Programme"}

// truncateSQL caps SQL text for display rows.
func truncateSQL(sql string) string {
	if len(sql) > 100 {
		return sql[:100] + "..."
	}
	return sql
}

func equalFold(a, b string) bool {
	return strings.EqualFold(a, b)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// dayKey buckets a timestamp by calendar day.
func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// uniqueCount counts distinct non-empty values of a field.
func uniqueCount(ds model.Dataset, field string) int {
	seen := map[string]bool{}
	for _, e := range ds {
		if v := fieldValue(e, field); v != "" {
			seen[v] = true
		}
	}
	return len(seen)
}

// placeholder returns a handler honoring the standard result contract
// for analyses that are recognized but not implemented yet. The empty
// data set is the accepted "not yet implemented" state, not a masked
// failure.
func placeholder(summary, explanation string) dispatch.HandlerFunc {
	return func(model.Dataset, dispatch.Captures) (dispatch.Result, error) {
		return dispatch.Result{
			Data:        []dispatch.Row{},
			Summary:     summary,
			Explanation: explanation + " Détection en cours d'implémentation.",
			Columns:     []string{},
		}, nil
	}
}
