package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/dispatch"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

// sessionTimelines groups timestamped events by session and sorts each
// timeline chronologically.
func sessionTimelines(ds model.Dataset) (ids []string, timelines map[string]model.Dataset) {
	timelines = map[string]model.Dataset{}
	for _, e := range withTimestamps(ds) {
		if e.SessionID == "" {
			continue
		}
		timelines[e.SessionID] = append(timelines[e.SessionID], e)
	}
	for id, events := range timelines {
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Timestamp.Before(events[j].Timestamp)
		})
		timelines[id] = events
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, timelines
}

// selectDeleteSequences finds sessions reading a table then deleting
// from that same table afterwards.
func selectDeleteSequences(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	ids, timelines := sessionTimelines(ds)
	rows := []dispatch.Row{}
	for _, id := range ids {
		events := timelines[id]
		seen := map[string]model.AuditEvent{}
		for _, e := range events {
			if e.ObjectName == "" {
				continue
			}
			key := model.OrMissing(e.ObjectSchema) + "." + e.ObjectName
			switch {
			case equalFold(e.ActionName, "SELECT"):
				if _, ok := seen[key]; !ok {
					seen[key] = e
				}
			case equalFold(e.ActionName, "DELETE"):
				sel, ok := seen[key]
				if !ok {
					continue
				}
				rows = append(rows, dispatch.Row{
					"session_id":    id,
					"utilisateur":   model.OrMissing(e.DBUsername),
					"objet":         key,
					"lecture":       formatTime(sel.Timestamp),
					"suppression":   formatTime(e.Timestamp),
					"delai_minutes": fmt.Sprintf("%.2f", e.Timestamp.Sub(sel.Timestamp).Minutes()),
				})
				delete(seen, key)
			}
		}
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d séquences SELECT puis DELETE sur le même objet", len(rows)),
		Explanation: "Lecture d'une table suivie d'une suppression dans la même session, motif de vérification avant destruction.",
		Columns:     []string{"Session_ID", "Utilisateur", "Objet", "Lecture", "Suppression", "Delai_Minutes"},
	}, nil
}

// consecutiveInserts flags runs of INSERT on the same object inside a
// session. The minimum run length defaults to 5 and can be overridden
// by the first capture.
func consecutiveInserts(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	minRun := caps.Int(1, 5)
	ids, timelines := sessionTimelines(ds)
	rows := []dispatch.Row{}
	for _, id := range ids {
		events := timelines[id]
		runStart := -1
		var runKey string
		flush := func(end int) {
			if runStart < 0 {
				return
			}
			length := end - runStart
			if length >= minRun {
				first, last := events[runStart], events[end-1]
				rows = append(rows, dispatch.Row{
					"session_id":  id,
					"utilisateur": model.OrMissing(first.DBUsername),
					"objet":       runKey,
					"insertions":  length,
					"debut":       formatTime(first.Timestamp),
					"fin":         formatTime(last.Timestamp),
				})
			}
			runStart = -1
		}
		for i, e := range events {
			key := model.OrMissing(e.ObjectSchema) + "." + model.OrMissing(e.ObjectName)
			if equalFold(e.ActionName, "INSERT") && runStart >= 0 && key == runKey {
				continue
			}
			flush(i)
			if equalFold(e.ActionName, "INSERT") {
				runStart, runKey = i, key
			}
		}
		flush(len(events))
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d rafales d'au moins %d INSERT consécutifs", len(rows), minRun),
		Explanation: "Suites ininterrompues d'insertions sur un même objet au sein d'une session, signature de chargements en masse.",
		Columns:     []string{"Session_ID", "Utilisateur", "Objet", "Insertions", "Debut", "Fin"},
	}, nil
}

// updateLoops detects the same UPDATE statement repeated inside a
// session, which usually points at a retry loop. The repetition floor
// defaults to 10.
func updateLoops(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	minRepeats := caps.Int(1, 10)
	ids, timelines := sessionTimelines(ds)
	rows := []dispatch.Row{}
	for _, id := range ids {
		counts := map[string]int{}
		users := map[string]string{}
		for _, e := range timelines[id] {
			if !equalFold(e.ActionName, "UPDATE") || e.SQLText == "" {
				continue
			}
			key := strings.ToLower(strings.TrimSpace(e.SQLText))
			counts[key]++
			users[key] = e.DBUsername
		}
		buckets := sortBuckets(counts)
		for _, b := range buckets {
			if b.Count < minRepeats {
				continue
			}
			rows = append(rows, dispatch.Row{
				"session_id":  id,
				"utilisateur": model.OrMissing(users[b.Key]),
				"repetitions": b.Count,
				"requete":     truncateSQL(b.Key),
			})
		}
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d requêtes UPDATE répétées en boucle", len(rows)),
		Explanation: fmt.Sprintf("Même ordre UPDATE exécuté au moins %d fois dans une session.", minRepeats),
		Columns:     []string{"Session_ID", "Utilisateur", "Repetitions", "Requete"},
	}, nil
}

// updateSelectPatterns finds sessions alternating UPDATE and SELECT on
// the same object, a read back after write pattern.
func updateSelectPatterns(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	ids, timelines := sessionTimelines(ds)
	counts := map[string]int{}
	for _, id := range ids {
		events := timelines[id]
		for i := 0; i+1 < len(events); i++ {
			a, b := events[i], events[i+1]
			if a.ObjectName == "" || !equalFold(a.ObjectName, b.ObjectName) {
				continue
			}
			if equalFold(a.ActionName, "UPDATE") && equalFold(b.ActionName, "SELECT") {
				counts[model.OrMissing(a.ObjectSchema)+"."+a.ObjectName]++
			}
		}
	}
	buckets := sortBuckets(counts)
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{"objet": b.Key, "occurrences": b.Count})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d motifs UPDATE suivi de SELECT sur le même objet", len(buckets)),
		Explanation: "Écriture immédiatement relue sur le même objet au sein d'une session.",
		Columns:     []string{"Objet", "Occurrences"},
	}, nil
}
