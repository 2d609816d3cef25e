package catalog

import (
	"fmt"
	"strings"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/dispatch"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

// whoModifiedObject identifies the users who changed the captured object.
func whoModifiedObject(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	object := caps.Str(1)
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return equalFold(e.ObjectName, object) && isModifying(e.ActionName)
	})
	buckets := countByField(filtered, "dbusername")
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{"utilisateur": b.Key, "modifications": b.Count})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d utilisateurs ont modifié l'objet %s", len(buckets), strings.ToUpper(object)),
		Explanation: fmt.Sprintf("Auteurs des modifications portées à l'objet %s.", strings.ToUpper(object)),
		Columns:     []string{"Utilisateur", "Modifications"},
	}, nil
}

// lastModificationOn reports the most recent modifying event on the
// captured object.
func lastModificationOn(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	object := caps.Str(1)
	var last *model.AuditEvent
	for i := range ds {
		e := ds[i]
		if !equalFold(e.ObjectName, object) || !isModifying(e.ActionName) || !e.HasTimestamp() {
			continue
		}
		if last == nil || e.Timestamp.After(last.Timestamp) {
			last = &ds[i]
		}
	}
	if last == nil {
		return dispatch.Result{
			Data:        []dispatch.Row{},
			Summary:     fmt.Sprintf("Aucune modification trouvée pour %s (0 entrée)", strings.ToUpper(object)),
			Explanation: "Aucune opération modifiante datée n'a touché cet objet.",
			Columns:     filterColumns,
		}, nil
	}
	return dispatch.Result{
		Data:        []dispatch.Row{eventRow(*last)},
		Summary:     fmt.Sprintf("Dernière modification de %s le %s", strings.ToUpper(object), formatTime(last.Timestamp)),
		Explanation: fmt.Sprintf("Dernière opération modifiante observée sur %s.", strings.ToUpper(object)),
		Columns:     filterColumns,
	}, nil
}

func sysdbaActions(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return containsFold(e.SQLText, "SYSDBA") || containsFold(e.AuthenticationType, "SYSDBA")
	})
	return dispatch.Result{
		Data:        sqlRows(filtered),
		Summary:     fmt.Sprintf("%d requêtes exécutées avec le privilège SYSDBA", len(filtered)),
		Explanation: "Opérations menées sous le privilège d'administration le plus élevé.",
		Columns:     sqlColumns,
	}, nil
}

// multiMachineUsers lists users seen from more than one host.
func multiMachineUsers(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	hosts := map[string]map[string]bool{}
	for _, e := range ds {
		if e.DBUsername == "" || e.UserHost == "" {
			continue
		}
		if hosts[e.DBUsername] == nil {
			hosts[e.DBUsername] = map[string]bool{}
		}
		hosts[e.DBUsername][e.UserHost] = true
	}
	counts := map[string]int{}
	for user, set := range hosts {
		if len(set) > 1 {
			counts[user] = len(set)
		}
	}
	buckets := sortBuckets(counts)
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{"utilisateur": b.Key, "machines": b.Count})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d utilisateurs actifs depuis plusieurs machines", len(rows)),
		Explanation: "Utilisateurs observés sur plus d'une machine cliente.",
		Columns:     []string{"Utilisateur", "Machines"},
	}, nil
}

// unknownPrograms surfaces events whose client program is absent.
func unknownPrograms(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return e.ClientProgramName == ""
	})
	return dispatch.Result{
		Data:        eventRows(filtered),
		Summary:     fmt.Sprintf("%d actions issues d'un programme inconnu", len(filtered)),
		Explanation: "Entrées dont le programme client n'est pas renseigné.",
		Columns:     filterColumns,
	}, nil
}

func deletionsYesterday(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	yesterday := timeNow().AddDate(0, 0, -1)
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return e.HasTimestamp() && sameDay(e.Timestamp, yesterday) &&
			(equalFold(e.ActionName, "DELETE") || equalFold(e.ActionName, "TRUNCATE") || equalFold(e.ActionName, "DROP"))
	})
	return dispatch.Result{
		Data:        eventRows(filtered),
		Summary:     fmt.Sprintf("%d suppressions de données hier", len(filtered)),
		Explanation: "Opérations destructives enregistrées la veille, avec leurs auteurs.",
		Columns:     filterColumns,
	}, nil
}
