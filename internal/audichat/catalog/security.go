package catalog

import (
	"fmt"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/dispatch"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

func failedConnections(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return containsFold(e.ActionName, "LOGON") && containsFold(e.SQLText, "fail") ||
			containsFold(e.ActionName, "FAILED")
	})
	return dispatch.Result{
		Data:        eventRows(filtered),
		Summary:     fmt.Sprintf("%d tentatives de connexion échouées", len(filtered)),
		Explanation: "Connexions rejetées ou en échec, à surveiller pour détecter des tentatives d'intrusion.",
		Columns:     filterColumns,
	}, nil
}

func externalAuth(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return containsFold(e.AuthenticationType, "EXTERNAL")
	})
	return dispatch.Result{
		Data:        eventRows(filtered),
		Summary:     fmt.Sprintf("%d actions avec authentification EXTERNAL", len(filtered)),
		Explanation: "Actions authentifiées par un mécanisme externe à la base.",
		Columns:     filterColumns,
	}, nil
}

// unknownUsers surfaces events whose database user is absent entirely.
func unknownUsers(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return e.DBUsername == ""
	})
	return dispatch.Result{
		Data:        eventRows(filtered),
		Summary:     fmt.Sprintf("%d actions sans utilisateur identifié", len(filtered)),
		Explanation: "Entrées d'audit dont l'utilisateur de base de données est inconnu.",
		Columns:     filterColumns,
	}, nil
}

// suspiciousSessions flags sessions mixing destructive actions with an
// unusually high action count.
func suspiciousSessions(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	destructive := map[string]bool{}
	counts := map[string]int{}
	users := map[string]string{}
	for _, e := range ds {
		id := model.OrMissing(e.SessionID)
		counts[id]++
		users[id] = e.DBUsername
		switch {
		case equalFold(e.ActionName, "DROP"), equalFold(e.ActionName, "TRUNCATE"), equalFold(e.ActionName, "DELETE"):
			destructive[id] = true
		}
	}
	var rows []dispatch.Row
	for _, b := range sortBuckets(counts) {
		if !destructive[b.Key] || b.Count < 10 {
			continue
		}
		rows = append(rows, dispatch.Row{
			"session_id":  b.Key,
			"utilisateur": model.OrMissing(users[b.Key]),
			"actions":     b.Count,
			"risque":      RiskHigh,
		})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d sessions suspectes détectées", len(rows)),
		Explanation: "Sessions combinant un fort volume d'actions et des opérations destructives.",
		Columns:     []string{"Session_ID", "Utilisateur", "Actions", "Risque"},
	}, nil
}

func dropTableActions(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return equalFold(e.ActionName, "DROP")
	})
	return dispatch.Result{
		Data:        eventRows(filtered),
		Summary:     fmt.Sprintf("%d opérations DROP enregistrées", len(filtered)),
		Explanation: "Suppressions de structures, opérations critiques à tracer systématiquement.",
		Columns:     filterColumns,
	}, nil
}

// afterHoursActivity lists actions outside the 6h-20h window.
func afterHoursActivity(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		if !e.HasTimestamp() {
			return false
		}
		h := e.Timestamp.Hour()
		return h < 6 || h > 20
	})
	rows := make([]dispatch.Row, 0, len(filtered))
	for _, e := range filtered {
		rows = append(rows, dispatch.Row{
			"utilisateur": model.OrMissing(e.DBUsername),
			"heure":       e.Timestamp.Format("15:04:05"),
			"action":      model.OrMissing(e.ActionName),
			"objet":       model.OrMissing(e.ObjectName),
			"programme":   model.OrMissing(e.ClientProgramName),
		})
	}
	return dispatch.Result{
		Data:    rows,
		Summary: fmt.Sprintf("%d actions détectées hors heures de travail", len(rows)),
		Explanation: "Activité hors heures normales (20h-6h). Monitoring de sécurité pour " +
			"détecter des accès non autorisés.",
		Columns: []string{"Utilisateur", "Heure", "Action", "Objet", "Programme"},
	}, nil
}

func privilegeActions(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return equalFold(e.ActionName, "GRANT") || equalFold(e.ActionName, "REVOKE")
	})
	return dispatch.Result{
		Data:        eventRows(filtered),
		Summary:     fmt.Sprintf("%d opérations GRANT/REVOKE", len(filtered)),
		Explanation: "Changements de privilèges, à auditer pour la conformité.",
		Columns:     filterColumns,
	}, nil
}

func systemAlterations(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return equalFold(e.ActionName, "ALTER") && containsFold(e.SQLText, "SYSTEM")
	})
	return dispatch.Result{
		Data:        sqlRows(filtered),
		Summary:     fmt.Sprintf("%d opérations ALTER SYSTEM", len(filtered)),
		Explanation: "Modifications de paramètres système, réservées aux administrateurs.",
		Columns:     sqlColumns,
	}, nil
}
