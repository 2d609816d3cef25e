package catalog

import (
	"fmt"
	"sort"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/dispatch"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

// queriesPerHour reports the request rate per hour-of-day bucket.
func queriesPerHour(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	var byHour [24]int
	for _, e := range withTimestamps(ds) {
		byHour[e.Timestamp.Hour()]++
	}
	rows := make([]dispatch.Row, 0, 24)
	for h := 0; h < 24; h++ {
		rows = append(rows, dispatch.Row{
			"heure":               h,
			"requetes":            byHour[h],
			"requetes_par_minute": fmt.Sprintf("%.2f", float64(byHour[h])/60.0),
		})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     "Débit de requêtes par tranche horaire",
		Explanation: "Charge du système exprimée en requêtes par heure et par minute.",
		Columns:     []string{"Heure", "Requetes", "Requetes_Par_Minute"},
	}, nil
}

// heavyUsers ranks users by events per active minute.
func heavyUsers(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	type userLoad struct {
		count      int
		start, end int64
	}
	loads := map[string]*userLoad{}
	for _, e := range withTimestamps(ds) {
		user := model.OrMissing(e.DBUsername)
		ts := e.Timestamp.Unix()
		l, ok := loads[user]
		if !ok {
			loads[user] = &userLoad{count: 1, start: ts, end: ts}
			continue
		}
		l.count++
		if ts < l.start {
			l.start = ts
		}
		if ts > l.end {
			l.end = ts
		}
	}
	users := make([]string, 0, len(loads))
	for u := range loads {
		users = append(users, u)
	}
	rates := map[string]float64{}
	for u, l := range loads {
		minutes := float64(l.end-l.start) / 60.0
		if minutes < 0.1 {
			minutes = 0.1
		}
		rates[u] = float64(l.count) / minutes
	}
	sort.Slice(users, func(i, j int) bool {
		if rates[users[i]] == rates[users[j]] {
			return users[i] < users[j]
		}
		return rates[users[i]] > rates[users[j]]
	})
	rows := make([]dispatch.Row, 0, len(users))
	for _, u := range users {
		rows = append(rows, dispatch.Row{
			"utilisateur":         u,
			"requetes":            loads[u].count,
			"requetes_par_minute": fmt.Sprintf("%.1f", rates[u]),
		})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("Classement de %d utilisateurs par débit de requêtes", len(rows)),
		Explanation: "Utilisateurs générant le plus de requêtes par minute d'activité.",
		Columns:     []string{"Utilisateur", "Requetes", "Requetes_Par_Minute"},
	}, nil
}

func actionsPerInstance(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	buckets := countByField(ds, "instance_id")
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{
			"instance":    b.Key,
			"actions":     b.Count,
			"pourcentage": percentage(b.Count, len(ds)),
		})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("Répartition des actions sur %d instances", len(buckets)),
		Explanation: "Volume d'opérations par instance de base de données.",
		Columns:     []string{"Instance", "Actions", "Pourcentage"},
	}, nil
}

// instanceHourlyLoad crosses instance and hour-of-day.
func instanceHourlyLoad(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	buckets := groupPairCounts(withTimestamps(ds), func(e model.AuditEvent) string {
		return fmt.Sprintf("%s@%02dh", model.OrMissing(e.InstanceID), e.Timestamp.Hour())
	})
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{"instance_heure": b.Key, "actions": b.Count})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     "Charge horaire croisée par instance",
		Explanation: "Répartition du volume d'actions par instance et par heure.",
		Columns:     []string{"Instance_Heure", "Actions"},
	}, nil
}

func topClientsByQueries(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	return topClientPrograms(ds, caps)
}
