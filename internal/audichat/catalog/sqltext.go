package catalog

import (
	"fmt"
	"strings"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/dispatch"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

// sqlWithKeyword returns a handler matching SQL text containing the
// given keyword anywhere.
func sqlWithKeyword(keyword string) dispatch.HandlerFunc {
	return func(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
		filtered := filterEvents(ds, func(e model.AuditEvent) bool {
			return e.SQLText != "" && containsFold(e.SQLText, keyword)
		})
		return dispatch.Result{
			Data:    sqlRows(filtered),
			Summary: fmt.Sprintf("%d requêtes contenant \"%s\"", len(filtered), keyword),
			Explanation: fmt.Sprintf("Requêtes SQL contenant le mot-clé %s. Analyse de sécurité et "+
				"conformité des opérations critiques.", keyword),
			Columns: sqlColumns,
		}, nil
	}
}

// sqlStartingWith returns a handler matching SQL text beginning with the
// given verb.
func sqlStartingWith(verb string) dispatch.HandlerFunc {
	return func(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
		filtered := filterEvents(ds, func(e model.AuditEvent) bool {
			return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(e.SQLText)), verb)
		})
		return dispatch.Result{
			Data:        sqlRows(filtered),
			Summary:     fmt.Sprintf("%d requêtes commençant par %s", len(filtered), verb),
			Explanation: fmt.Sprintf("Requêtes SQL dont le texte débute par %s.", verb),
			Columns:     sqlColumns,
		}, nil
	}
}

// sqlOnTable matches SQL text referencing the captured table name.
func sqlOnTable(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	table := caps.Str(1)
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return (e.SQLText != "" && containsFold(e.SQLText, table)) || equalFold(e.ObjectName, table)
	})
	return dispatch.Result{
		Data:        sqlRows(filtered),
		Summary:     fmt.Sprintf("%d requêtes référencant la table %s", len(filtered), strings.ToUpper(table)),
		Explanation: fmt.Sprintf("Requêtes SQL portant sur la table %s.", strings.ToUpper(table)),
		Columns:     sqlColumns,
	}, nil
}

// selectQueriesPerUser counts SELECT statements per user.
func selectQueriesPerUser(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	selects := filterEvents(ds, func(e model.AuditEvent) bool {
		return equalFold(e.ActionName, "SELECT")
	})
	buckets := countByField(selects, "dbusername")
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{"utilisateur": b.Key, "selects": b.Count})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d requêtes SELECT réparties sur %d utilisateurs", len(selects), len(buckets)),
		Explanation: "Volume de lectures par utilisateur.",
		Columns:     []string{"Utilisateur", "Selects"},
	}, nil
}

// insertOnSchema lists INSERT operations targeting the captured schema.
func insertOnSchema(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	schema := caps.Str(1)
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return equalFold(e.ActionName, "INSERT") && equalFold(e.ObjectSchema, schema)
	})
	return dispatch.Result{
		Data:        eventRows(filtered),
		Summary:     fmt.Sprintf("%d INSERT sur le schéma %s", len(filtered), strings.ToUpper(schema)),
		Explanation: fmt.Sprintf("Insertions ciblant le schéma %s.", strings.ToUpper(schema)),
		Columns:     filterColumns,
	}, nil
}

// sqlWithBinds finds statements carrying bind variables.
func sqlWithBinds(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return e.SQLBinds != ""
	})
	rows := make([]dispatch.Row, 0, len(filtered))
	for _, e := range filtered {
		rows = append(rows, dispatch.Row{
			"utilisateur": model.OrMissing(e.DBUsername),
			"timestamp":   formatTime(e.Timestamp),
			"sql_text":    truncateSQL(e.SQLText),
			"sql_binds":   e.SQLBinds,
		})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d requêtes avec variables de liaison", len(filtered)),
		Explanation: "Requêtes exécutées avec des bind variables.",
		Columns:     []string{"Utilisateur", "Timestamp", "SQL_Text", "SQL_Binds"},
	}, nil
}

// sqlWithoutWhere flags DML statements with no WHERE clause, a classic
// full-table operation smell.
func sqlWithoutWhere(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		upper := strings.ToUpper(e.SQLText)
		if upper == "" {
			return false
		}
		isDML := strings.HasPrefix(strings.TrimSpace(upper), "UPDATE") ||
			strings.HasPrefix(strings.TrimSpace(upper), "DELETE")
		return isDML && !strings.Contains(upper, "WHERE")
	})
	return dispatch.Result{
		Data:        sqlRows(filtered),
		Summary:     fmt.Sprintf("%d requêtes DML sans clause WHERE", len(filtered)),
		Explanation: "UPDATE/DELETE sans WHERE, affectant potentiellement toutes les lignes d'une table.",
		Columns:     sqlColumns,
	}, nil
}
