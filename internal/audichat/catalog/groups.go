package catalog

import (
	"fmt"
	"sort"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/dispatch"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

// groupByDBUsername counts actions per database user, most active first.
func groupByDBUsername(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	buckets := countByField(ds, "dbusername")
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{"utilisateur": b.Key, "actions": b.Count})
	}
	return dispatch.Result{
		Data:    rows,
		Summary: fmt.Sprintf("Répartition des %d actions sur %d utilisateurs DB", len(ds), len(buckets)),
		Explanation: "Analyse quantitative de l'activité par utilisateur de base de données. " +
			"Identification des utilisateurs les plus actifs et répartition de la charge.",
		Columns: []string{"Utilisateur", "Actions"},
	}, nil
}

// groupByActionName counts occurrences per action type with the share of
// the total row count.
func groupByActionName(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	buckets := countByField(ds, "action_name")
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{
			"action":      b.Key,
			"occurrences": b.Count,
			"pourcentage": percentage(b.Count, len(ds)),
		})
	}
	return dispatch.Result{
		Data:    rows,
		Summary: fmt.Sprintf("%d types d'actions différents sur %d entrées", len(buckets), len(ds)),
		Explanation: "Distribution des types d'opérations. Analyse des patterns d'utilisation " +
			"et identification des actions dominantes dans le système.",
		Columns: []string{"Action", "Occurrences", "Pourcentage"},
	}, nil
}

// groupUsersBySessions ranks users by their number of distinct sessions.
func groupUsersBySessions(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	sessions := map[string]map[string]bool{}
	for _, e := range ds {
		user := model.OrMissing(e.DBUsername)
		if sessions[user] == nil {
			sessions[user] = map[string]bool{}
		}
		if e.SessionID != "" {
			sessions[user][e.SessionID] = true
		}
	}
	counts := map[string]int{}
	for user, set := range sessions {
		counts[user] = len(set)
	}
	buckets := sortBuckets(counts)
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{"utilisateur": b.Key, "sessions": b.Count})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("Classement de %d utilisateurs par nombre de sessions", len(buckets)),
		Explanation: "Nombre de sessions distinctes ouvertes par chaque utilisateur.",
		Columns:     []string{"Utilisateur", "Sessions"},
	}, nil
}

func groupByAuthType(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	buckets := countByField(ds, "authentication_type")
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{
			"authentification": b.Key,
			"requetes":         b.Count,
			"pourcentage":      percentage(b.Count, len(ds)),
		})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("Répartition des requêtes sur %d types d'authentification", len(buckets)),
		Explanation: "Volume de requêtes par méthode d'authentification.",
		Columns:     []string{"Authentification", "Requetes", "Pourcentage"},
	}, nil
}

func topClientPrograms(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	buckets := countByField(ds, "client_program_name")
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{
			"programme":   b.Key,
			"actions":     b.Count,
			"pourcentage": percentage(b.Count, len(ds)),
		})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("Top des %d programmes clients par volume d'actions", len(buckets)),
		Explanation: "Classement des programmes clients générant le plus d'activité.",
		Columns:     []string{"Programme", "Actions", "Pourcentage"},
	}, nil
}

func groupByObjectSchema(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	buckets := countByField(ds, "object_schema")
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{
			"schema":      b.Key,
			"acces":       b.Count,
			"pourcentage": percentage(b.Count, len(ds)),
		})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("Statistiques d'accès pour %d schémas", len(buckets)),
		Explanation: "Volume d'opérations par schéma, schémas les plus sollicités en tête.",
		Columns:     []string{"Schema", "Acces", "Pourcentage"},
	}, nil
}

// objectsPerUser counts distinct objects touched by each user.
func objectsPerUser(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	objects := map[string]map[string]bool{}
	for _, e := range ds {
		user := model.OrMissing(e.DBUsername)
		if objects[user] == nil {
			objects[user] = map[string]bool{}
		}
		if e.ObjectName != "" {
			objects[user][e.ObjectName] = true
		}
	}
	counts := map[string]int{}
	for user, set := range objects {
		counts[user] = len(set)
	}
	buckets := sortBuckets(counts)
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{"utilisateur": b.Key, "objets_distincts": b.Count})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("Objets distincts accédés par %d utilisateurs", len(buckets)),
		Explanation: "Diversité des objets manipulés par chaque utilisateur.",
		Columns:     []string{"Utilisateur", "Objets_Distincts"},
	}, nil
}

func groupByOSUsername(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	buckets := countByField(ds, "os_username")
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{"os_username": b.Key, "actions": b.Count})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("Classement de %d comptes OS par activité", len(buckets)),
		Explanation: "Volume d'actions par compte du système d'exploitation.",
		Columns:     []string{"OS_Username", "Actions"},
	}, nil
}

// groupPairCounts buckets on a composite key and is shared by the
// correlation handlers.
func groupPairCounts(ds model.Dataset, keyOf func(model.AuditEvent) string) []bucket {
	counts := map[string]int{}
	for _, e := range ds {
		counts[keyOf(e)]++
	}
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
