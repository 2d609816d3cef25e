package catalog

import (
	"fmt"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/dispatch"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

// totalEntries reports global counts over the whole dataset.
func totalEntries(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	row := dispatch.Row{
		"total":                len(ds),
		"utilisateurs_uniques": uniqueCount(ds, "dbusername"),
		"actions_uniques":      uniqueCount(ds, "action_name"),
		"objets_uniques":       uniqueCount(ds, "object_name"),
		"programmes_uniques":   uniqueCount(ds, "client_program_name"),
	}
	return dispatch.Result{
		Data:    []dispatch.Row{row},
		Summary: fmt.Sprintf("%d entrées d'audit analysées", len(ds)),
		Explanation: "Statistiques globales du journal d'audit. Vue d'ensemble quantitative " +
			"pour reporting et conformité.",
		Columns: []string{"Métrique", "Valeur"},
	}, nil
}

// selectVsDML splits reads from writes as a percentage.
func selectVsDML(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	selects, dml := 0, 0
	for _, e := range ds {
		switch {
		case equalFold(e.ActionName, "SELECT"):
			selects++
		case equalFold(e.ActionName, "INSERT"), equalFold(e.ActionName, "UPDATE"),
			equalFold(e.ActionName, "DELETE"), equalFold(e.ActionName, "MERGE"):
			dml++
		}
	}
	total := selects + dml
	rows := []dispatch.Row{
		{"categorie": "SELECT", "operations": selects, "pourcentage": percentage(selects, total)},
		{"categorie": "DML", "operations": dml, "pourcentage": percentage(dml, total)},
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d lectures contre %d écritures DML", selects, dml),
		Explanation: "Poids relatif des lectures et des écritures dans l'activité.",
		Columns:     []string{"Categorie", "Operations", "Pourcentage"},
	}, nil
}

func avgQueriesPerSession(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	counts := map[string]int{}
	for _, e := range ds {
		counts[model.OrMissing(e.SessionID)]++
	}
	avg := 0.0
	if len(counts) > 0 {
		avg = float64(len(ds)) / float64(len(counts))
	}
	rows := []dispatch.Row{{
		"sessions":            len(counts),
		"actions":             len(ds),
		"moyenne_par_session": fmt.Sprintf("%.2f", avg),
	}}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("En moyenne %.2f requêtes par session sur %d sessions", avg, len(counts)),
		Explanation: "Volume moyen d'opérations par session.",
		Columns:     []string{"Sessions", "Actions", "Moyenne_Par_Session"},
	}, nil
}

func actionTypeDistribution(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	return groupByActionName(ds, caps)
}

func authTypeUsage(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	return groupByAuthType(ds, caps)
}

func hostDistribution(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	buckets := countByField(ds, "userhost")
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{
			"host":        b.Key,
			"connexions":  b.Count,
			"pourcentage": percentage(b.Count, len(ds)),
		})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("Répartition des connexions sur %d machines", len(buckets)),
		Explanation: "Volume d'activité par machine cliente.",
		Columns:     []string{"Host", "Connexions", "Pourcentage"},
	}, nil
}
