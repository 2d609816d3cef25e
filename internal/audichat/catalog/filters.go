package catalog

import (
	"fmt"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/dispatch"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

// filterByDBUsername selects events whose database user equals the
// captured literal (case-insensitive).
func filterByDBUsername(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	user := caps.Str(1)
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return e.DBUsername != "" && equalFold(e.DBUsername, user)
	})
	return dispatch.Result{
		Data:    eventRows(filtered),
		Summary: fmt.Sprintf("%d entrées d'audit pour l'utilisateur DB %s", len(filtered), user),
		Explanation: fmt.Sprintf("Filtrage des actions effectuées par l'utilisateur de base de données %s. "+
			"Analyse complète de l'activité avec détails des opérations, objets accédés et timestamps.", user),
		Columns: filterColumns,
	}, nil
}

func filterByOSUsername(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	user := caps.Str(1)
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return e.OSUsername != "" && equalFold(e.OSUsername, user)
	})
	return dispatch.Result{
		Data:    eventRows(filtered),
		Summary: fmt.Sprintf("%d actions effectuées depuis l'OS %s", len(filtered), user),
		Explanation: fmt.Sprintf("Actions lancées par l'utilisateur système %s. Corrélation entre "+
			"utilisateur OS et activités base de données pour analyse de sécurité.", user),
		Columns: filterColumns,
	}, nil
}

func filterByTerminal(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	term := caps.Str(1)
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return e.Terminal != "" && equalFold(e.Terminal, term)
	})
	return dispatch.Result{
		Data:        eventRows(filtered),
		Summary:     fmt.Sprintf("%d actions depuis le terminal %s", len(filtered), term),
		Explanation: fmt.Sprintf("Activité observée depuis le terminal %s.", term),
		Columns:     filterColumns,
	}, nil
}

func filterBySession(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	session := caps.Str(1)
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return e.SessionID == session
	})
	return dispatch.Result{
		Data:        eventRows(filtered),
		Summary:     fmt.Sprintf("%d actions pour la session %s", len(filtered), session),
		Explanation: fmt.Sprintf("Chronologie des opérations de la session %s.", session),
		Columns:     filterColumns,
	}, nil
}

func filterByClientProgram(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	program := caps.Str(1)
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return e.ClientProgramName != "" && equalFold(e.ClientProgramName, program)
	})
	return dispatch.Result{
		Data:        eventRows(filtered),
		Summary:     fmt.Sprintf("%d actions via le programme %s", len(filtered), program),
		Explanation: fmt.Sprintf("Actions émises par le programme client %s.", program),
		Columns:     filterColumns,
	}, nil
}

func filterByObjectSchema(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	schema := caps.Str(1)
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return e.ObjectSchema != "" && equalFold(e.ObjectSchema, schema)
	})
	return dispatch.Result{
		Data:        eventRows(filtered),
		Summary:     fmt.Sprintf("%d actions sur le schéma %s", len(filtered), schema),
		Explanation: fmt.Sprintf("Activité ciblant le schéma %s, tous objets confondus.", schema),
		Columns:     filterColumns,
	}, nil
}

// filterBySQLContent matches the literal anywhere inside the SQL text.
func filterBySQLContent(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	needle := caps.Str(1)
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return e.SQLText != "" && containsFold(e.SQLText, needle)
	})
	return dispatch.Result{
		Data:        sqlRows(filtered),
		Summary:     fmt.Sprintf("%d requêtes contenant \"%s\"", len(filtered), needle),
		Explanation: fmt.Sprintf("Requêtes SQL dont le texte contient \"%s\".", needle),
		Columns:     sqlColumns,
	}, nil
}

func filterByUserHost(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	host := caps.Str(1)
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return e.UserHost != "" && equalFold(e.UserHost, host)
	})
	return dispatch.Result{
		Data:        eventRows(filtered),
		Summary:     fmt.Sprintf("%d actions depuis l'hôte %s", len(filtered), host),
		Explanation: fmt.Sprintf("Activité observée depuis la machine %s.", host),
		Columns:     filterColumns,
	}, nil
}

func filterByAuthType(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	auth := caps.Str(1)
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return e.AuthenticationType != "" && containsFold(e.AuthenticationType, auth)
	})
	return dispatch.Result{
		Data:        eventRows(filtered),
		Summary:     fmt.Sprintf("%d actions avec authentification %s", len(filtered), auth),
		Explanation: fmt.Sprintf("Actions authentifiées via %s.", auth),
		Columns:     filterColumns,
	}, nil
}

var sqlColumns = []string{"Utilisateur", "Timestamp", "SQL_Text", "Objet"}

func sqlRows(ds model.Dataset) []dispatch.Row {
	rows := make([]dispatch.Row, 0, len(ds))
	for _, e := range ds {
		rows = append(rows, dispatch.Row{
			"utilisateur": model.OrMissing(e.DBUsername),
			"timestamp":   formatTime(e.Timestamp),
			"sql_text":    truncateSQL(e.SQLText),
			"objet":       model.OrMissing(e.ObjectName),
		})
	}
	return rows
}
