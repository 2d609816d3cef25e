package catalog

import (
	"fmt"
	"sort"
	"time"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/dispatch"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

// withTimestamps keeps only events usable for temporal computations.
func withTimestamps(ds model.Dataset) model.Dataset {
	return filterEvents(ds, model.AuditEvent.HasTimestamp)
}

func filterByToday(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	today := timeNow()
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return e.HasTimestamp() && sameDay(e.Timestamp, today)
	})
	return dispatch.Result{
		Data:        eventRows(filtered),
		Summary:     fmt.Sprintf("%d actions effectuées aujourd'hui", len(filtered)),
		Explanation: "Activité du jour en cours. Monitoring des opérations pour surveillance opérationnelle.",
		Columns:     filterColumns,
	}, nil
}

func filterByYesterday(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	yesterday := timeNow().AddDate(0, 0, -1)
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return e.HasTimestamp() && sameDay(e.Timestamp, yesterday)
	})
	return dispatch.Result{
		Data:        eventRows(filtered),
		Summary:     fmt.Sprintf("%d requêtes effectuées hier", len(filtered)),
		Explanation: "Activité de la journée précédente.",
		Columns:     filterColumns,
	}, nil
}

// hourlyTrend buckets activity by hour of day. All 24 buckets are
// reported even when empty.
func hourlyTrend(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	var byHour [24]int
	for _, e := range withTimestamps(ds) {
		byHour[e.Timestamp.Hour()]++
	}
	rows := make([]dispatch.Row, 0, 24)
	for h := 0; h < 24; h++ {
		rows = append(rows, dispatch.Row{"heure": h, "activite": byHour[h]})
	}
	return dispatch.Result{
		Data:    rows,
		Summary: "Répartition horaire de l'activité sur 24h",
		Explanation: "Analyse des patterns temporels d'utilisation. Identification des heures " +
			"de pointe et optimisation des ressources.",
		Columns: []string{"Heure", "Activité"},
	}, nil
}

// peakActivity reports the busiest hour of the day.
func peakActivity(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	var byHour [24]int
	total := 0
	for _, e := range withTimestamps(ds) {
		byHour[e.Timestamp.Hour()]++
		total++
	}
	peak, peakCount := 0, 0
	for h, c := range byHour {
		if c > peakCount {
			peak, peakCount = h, c
		}
	}
	rows := []dispatch.Row{{
		"heure_pic":   peak,
		"actions":     peakCount,
		"pourcentage": percentage(peakCount, total),
	}}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("Pic d'activité à %dh avec %d actions", peak, peakCount),
		Explanation: "Heure de la journée concentrant le plus d'opérations.",
		Columns:     []string{"Heure_Pic", "Actions", "Pourcentage"},
	}, nil
}

func weeklyActivity(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	dayNames := []string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}
	var byDay [7]int
	for _, e := range withTimestamps(ds) {
		byDay[int(e.Timestamp.Weekday())]++
	}
	rows := make([]dispatch.Row, 0, 7)
	for d := 0; d < 7; d++ {
		rows = append(rows, dispatch.Row{"jour": dayNames[d], "actions": byDay[d]})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     "Répartition des actions par jour de la semaine",
		Explanation: "Volume d'opérations par jour calendaire, du dimanche au samedi.",
		Columns:     []string{"Jour", "Actions"},
	}, nil
}

// deleteHourPattern finds the hours when DELETE runs most often.
func deleteHourPattern(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	counts := map[string]int{}
	total := 0
	for _, e := range withTimestamps(ds) {
		if equalFold(e.ActionName, "DELETE") {
			counts[fmt.Sprintf("%02dh", e.Timestamp.Hour())]++
			total++
		}
	}
	buckets := sortBuckets(counts)
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{"heure": b.Key, "suppressions": b.Count})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d opérations DELETE réparties sur %d créneaux horaires", total, len(buckets)),
		Explanation: "Créneaux horaires où les suppressions sont les plus fréquentes.",
		Columns:     []string{"Heure", "Suppressions"},
	}, nil
}

// monthlyConnections counts LOGON events per calendar day.
func monthlyConnections(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	counts := map[string]int{}
	for _, e := range withTimestamps(ds) {
		if equalFold(e.ActionName, "LOGON") || equalFold(e.ActionName, "CONNECT") {
			counts[dayKey(e.Timestamp)]++
		}
	}
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)
	rows := make([]dispatch.Row, 0, len(days))
	for _, d := range days {
		rows = append(rows, dispatch.Row{"jour": d, "connexions": counts[d]})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("Connexions quotidiennes sur %d jours observés", len(days)),
		Explanation: "Nombre de connexions par jour calendaire.",
		Columns:     []string{"Jour", "Connexions"},
	}, nil
}

// sessionDuration computes the wall-clock span of each session.
func sessionDuration(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	spans := sessionSpans(ds)
	ids := make([]string, 0, len(spans))
	for id := range spans {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		di := spans[ids[i]].end.Sub(spans[ids[i]].start)
		dj := spans[ids[j]].end.Sub(spans[ids[j]].start)
		if di == dj {
			return ids[i] < ids[j]
		}
		return di > dj
	})
	rows := make([]dispatch.Row, 0, len(ids))
	for _, id := range ids {
		s := spans[id]
		rows = append(rows, dispatch.Row{
			"session_id":    id,
			"utilisateur":   model.OrMissing(s.user),
			"duree_minutes": fmt.Sprintf("%.2f", s.end.Sub(s.start).Minutes()),
			"actions":       s.count,
		})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("Durée calculée pour %d sessions", len(rows)),
		Explanation: "Durée entre la première et la dernière action de chaque session.",
		Columns:     []string{"Session_ID", "Utilisateur", "Duree_Minutes", "Actions"},
	}, nil
}

type sessionSpan struct {
	user       string
	start, end time.Time
	count      int
}

// sessionSpans groups timestamped events by session id and tracks the
// min/max timestamp and event count per session.
func sessionSpans(ds model.Dataset) map[string]*sessionSpan {
	spans := map[string]*sessionSpan{}
	for _, e := range withTimestamps(ds) {
		id := model.OrMissing(e.SessionID)
		s, ok := spans[id]
		if !ok {
			spans[id] = &sessionSpan{user: e.DBUsername, start: e.Timestamp, end: e.Timestamp, count: 1}
			continue
		}
		s.count++
		if e.Timestamp.Before(s.start) {
			s.start = e.Timestamp
		}
		if e.Timestamp.After(s.end) {
			s.end = e.Timestamp
		}
	}
	return spans
}
