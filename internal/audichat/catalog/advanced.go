package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/dispatch"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

// simultaneousSessions counts users holding several sessions on the same
// calendar day.
func simultaneousSessions(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	sessions := map[string]map[string]bool{}
	for _, e := range withTimestamps(ds) {
		if e.DBUsername == "" || e.SessionID == "" {
			continue
		}
		key := e.DBUsername + "|" + dayKey(e.Timestamp)
		if sessions[key] == nil {
			sessions[key] = map[string]bool{}
		}
		sessions[key][e.SessionID] = true
	}
	counts := map[string]int{}
	for key, set := range sessions {
		if len(set) > 1 {
			counts[key] = len(set)
		}
	}
	buckets := sortBuckets(counts)
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		parts := strings.SplitN(b.Key, "|", 2)
		rows = append(rows, dispatch.Row{"utilisateur": parts[0], "jour": parts[1], "sessions": b.Count})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d cas de sessions multiples le même jour", len(rows)),
		Explanation: "Utilisateurs ayant ouvert plusieurs sessions dans une même journée.",
		Columns:     []string{"Utilisateur", "Jour", "Sessions"},
	}, nil
}

// programActionCorrelation crosses client program and action type.
func programActionCorrelation(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	buckets := groupPairCounts(ds, func(e model.AuditEvent) string {
		return model.OrMissing(e.ClientProgramName) + " / " + model.OrMissing(e.ActionName)
	})
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{"programme_action": b.Key, "occurrences": b.Count})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d combinaisons programme/action observées", len(buckets)),
		Explanation: "Corrélation entre programme client et type d'opération exécutée.",
		Columns:     []string{"Programme_Action", "Occurrences"},
	}, nil
}

// eventPeakAnalysis finds the busiest calendar day.
func eventPeakAnalysis(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	counts := map[string]int{}
	for _, e := range withTimestamps(ds) {
		counts[dayKey(e.Timestamp)]++
	}
	buckets := sortBuckets(counts)
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{"jour": b.Key, "actions": b.Count})
	}
	summary := "Aucun pic d'activité identifiable (0 événement daté)"
	if len(buckets) > 0 {
		summary = fmt.Sprintf("Pic d'activité le %s avec %d actions", buckets[0].Key, buckets[0].Count)
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     summary,
		Explanation: "Journées classées par volume d'événements pour repérer les pics.",
		Columns:     []string{"Jour", "Actions"},
	}, nil
}

// commonActionSequences counts adjacent action pairs within sessions.
func commonActionSequences(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	bySession := map[string][]model.AuditEvent{}
	for _, e := range withTimestamps(ds) {
		id := model.OrMissing(e.SessionID)
		bySession[id] = append(bySession[id], e)
	}
	counts := map[string]int{}
	for _, events := range bySession {
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Timestamp.Before(events[j].Timestamp)
		})
		for i := 0; i+1 < len(events); i++ {
			pair := model.OrMissing(events[i].ActionName) + " -> " + model.OrMissing(events[i+1].ActionName)
			counts[pair]++
		}
	}
	buckets := sortBuckets(counts)
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{"sequence": b.Key, "occurrences": b.Count})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d séquences d'actions distinctes observées", len(buckets)),
		Explanation: "Paires d'actions consécutives au sein d'une même session, les plus fréquentes en tête.",
		Columns:     []string{"Sequence", "Occurrences"},
	}, nil
}

// sqlInjectionPatterns flags SQL text showing classic injection markers.
func sqlInjectionPatterns(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	markers := []string{"or 1=1", "union select", "--", "/*", "xp_", "; drop"}
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		lower := strings.ToLower(e.SQLText)
		for _, m := range markers {
			if strings.Contains(lower, m) {
				return true
			}
		}
		return false
	})
	return dispatch.Result{
		Data:        sqlRows(filtered),
		Summary:     fmt.Sprintf("%d requêtes présentant des motifs d'injection SQL", len(filtered)),
		Explanation: "Requêtes contenant des constructions typiques d'attaques par injection.",
		Columns:     sqlColumns,
	}, nil
}

// systemObjectAccess lists touches on SYS-owned or SYS-prefixed objects.
func systemObjectAccess(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return equalFold(e.ObjectSchema, "SYS") || strings.HasPrefix(strings.ToUpper(e.ObjectName), "SYS")
	})
	return dispatch.Result{
		Data:        eventRows(filtered),
		Summary:     fmt.Sprintf("%d accès à des objets système", len(filtered)),
		Explanation: "Opérations touchant le schéma SYS ou des objets à préfixe système.",
		Columns:     filterColumns,
	}, nil
}
