package catalog

import (
	"fmt"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/dispatch"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

// isModifying reports whether an action changes data or structure.
func isModifying(action string) bool {
	switch {
	case equalFold(action, "INSERT"), equalFold(action, "UPDATE"), equalFold(action, "DELETE"),
		equalFold(action, "MERGE"), equalFold(action, "TRUNCATE"), equalFold(action, "DROP"),
		equalFold(action, "ALTER"), equalFold(action, "CREATE"):
		return true
	}
	return false
}

// schemaAccessUsers lists the users touching a business schema.
func schemaAccessUsers(schema string) dispatch.HandlerFunc {
	return func(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
		touched := filterEvents(ds, func(e model.AuditEvent) bool {
			return containsFold(e.ObjectSchema, schema)
		})
		buckets := countByField(touched, "dbusername")
		rows := make([]dispatch.Row, 0, len(buckets))
		for _, b := range buckets {
			rows = append(rows, dispatch.Row{"utilisateur": b.Key, "acces": b.Count})
		}
		return dispatch.Result{
			Data:        rows,
			Summary:     fmt.Sprintf("%d utilisateurs ont accédé aux données %s", len(buckets), schema),
			Explanation: fmt.Sprintf("Utilisateurs ayant touché le périmètre %s, classés par volume d'accès.", schema),
			Columns:     []string{"Utilisateur", "Acces"},
		}, nil
	}
}

// schemaModifications lists modifying operations on a business schema.
func schemaModifications(schema string) dispatch.HandlerFunc {
	return func(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
		filtered := filterEvents(ds, func(e model.AuditEvent) bool {
			return containsFold(e.ObjectSchema, schema) && isModifying(e.ActionName)
		})
		return dispatch.Result{
			Data:        eventRows(filtered),
			Summary:     fmt.Sprintf("%d modifications sur le périmètre %s", len(filtered), schema),
			Explanation: fmt.Sprintf("Opérations modifiant les données ou structures du schéma %s.", schema),
			Columns:     filterColumns,
		}, nil
	}
}

// readOnlyObjects finds objects only ever read, never modified.
func readOnlyObjects(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	reads := map[string]int{}
	written := map[string]bool{}
	for _, e := range ds {
		if e.ObjectName == "" {
			continue
		}
		key := model.OrMissing(e.ObjectSchema) + "." + e.ObjectName
		if isModifying(e.ActionName) {
			written[key] = true
		} else if equalFold(e.ActionName, "SELECT") {
			reads[key]++
		}
	}
	counts := map[string]int{}
	for key, n := range reads {
		if !written[key] {
			counts[key] = n
		}
	}
	buckets := sortBuckets(counts)
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{"objet": b.Key, "consultations": b.Count})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d objets consultés mais jamais modifiés", len(rows)),
		Explanation: "Objets en lecture seule sur la période observée.",
		Columns:     []string{"Objet", "Consultations"},
	}, nil
}

func mostModifiedTables(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	modified := filterEvents(ds, func(e model.AuditEvent) bool {
		return e.ObjectName != "" && isModifying(e.ActionName)
	})
	buckets := groupPairCounts(modified, func(e model.AuditEvent) string {
		return model.OrMissing(e.ObjectSchema) + "." + e.ObjectName
	})
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{"table": b.Key, "modifications": b.Count})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("Tables les plus modifiées (%d tables touchées)", len(buckets)),
		Explanation: "Classement des tables par nombre d'opérations modifiantes.",
		Columns:     []string{"Table", "Modifications"},
	}, nil
}

// actionCountByUser returns a handler counting one action type per user.
func actionCountByUser(action string) dispatch.HandlerFunc {
	return func(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
		filtered := filterEvents(ds, func(e model.AuditEvent) bool {
			return equalFold(e.ActionName, action)
		})
		buckets := countByField(filtered, "dbusername")
		rows := make([]dispatch.Row, 0, len(buckets))
		for _, b := range buckets {
			rows = append(rows, dispatch.Row{"utilisateur": b.Key, "operations": b.Count})
		}
		return dispatch.Result{
			Data:        rows,
			Summary:     fmt.Sprintf("%d opérations %s réparties sur %d utilisateurs", len(filtered), action, len(buckets)),
			Explanation: fmt.Sprintf("Volume d'opérations %s par utilisateur.", action),
			Columns:     []string{"Utilisateur", "Operations"},
		}, nil
	}
}
