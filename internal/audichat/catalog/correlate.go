package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/dispatch"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

// changingClientPrograms flags sessions whose client program varies
// between events.
func changingClientPrograms(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	programs := map[string]map[string]bool{}
	users := map[string]string{}
	for _, e := range ds {
		if e.SessionID == "" || e.ClientProgramName == "" {
			continue
		}
		if programs[e.SessionID] == nil {
			programs[e.SessionID] = map[string]bool{}
			users[e.SessionID] = e.DBUsername
		}
		programs[e.SessionID][e.ClientProgramName] = true
	}
	ids := make([]string, 0, len(programs))
	for id, set := range programs {
		if len(set) > 1 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		pi, pj := len(programs[ids[i]]), len(programs[ids[j]])
		if pi == pj {
			return ids[i] < ids[j]
		}
		return pi > pj
	})
	rows := make([]dispatch.Row, 0, len(ids))
	for _, id := range ids {
		list := make([]string, 0, len(programs[id]))
		for p := range programs[id] {
			list = append(list, p)
		}
		sort.Strings(list)
		rows = append(rows, dispatch.Row{
			"session_id":  id,
			"utilisateur": model.OrMissing(users[id]),
			"programmes":  len(list),
			"liste":       strings.Join(list, ", "),
		})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d sessions changeant de programme client en cours de route", len(rows)),
		Explanation: "Sessions où le programme client varie d'un événement à l'autre, incohérence rare en usage légitime.",
		Columns:     []string{"Session_ID", "Utilisateur", "Programmes", "Liste"},
	}, nil
}

// usernameDiscrepancies flags database accounts used from several OS
// accounts.
func usernameDiscrepancies(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	osUsers := map[string]map[string]bool{}
	for _, e := range ds {
		if e.DBUsername == "" || e.OSUsername == "" {
			continue
		}
		if osUsers[e.DBUsername] == nil {
			osUsers[e.DBUsername] = map[string]bool{}
		}
		osUsers[e.DBUsername][e.OSUsername] = true
	}
	counts := map[string]int{}
	for user, set := range osUsers {
		if len(set) > 1 {
			counts[user] = len(set)
		}
	}
	buckets := sortBuckets(counts)
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		list := make([]string, 0, len(osUsers[b.Key]))
		for u := range osUsers[b.Key] {
			list = append(list, u)
		}
		sort.Strings(list)
		rows = append(rows, dispatch.Row{
			"utilisateur": b.Key,
			"comptes_os":  b.Count,
			"liste":       strings.Join(list, ", "),
		})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d comptes base utilisés depuis plusieurs comptes OS", len(rows)),
		Explanation: "Discordances entre compte base de données et compte système d'exploitation.",
		Columns:     []string{"Utilisateur", "Comptes_OS", "Liste"},
	}, nil
}

// multiUserObjectAccess flags objects modified by several distinct
// users on the same calendar day. Minimum user count defaults to 3.
func multiUserObjectAccess(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	minUsers := caps.Int(1, 3)
	byKey := map[string]map[string]bool{}
	for _, e := range withTimestamps(ds) {
		if e.ObjectName == "" || e.DBUsername == "" || !isModifying(e.ActionName) {
			continue
		}
		key := model.OrMissing(e.ObjectSchema) + "." + e.ObjectName + "|" + dayKey(e.Timestamp)
		if byKey[key] == nil {
			byKey[key] = map[string]bool{}
		}
		byKey[key][e.DBUsername] = true
	}
	counts := map[string]int{}
	for key, set := range byKey {
		if len(set) >= minUsers {
			counts[key] = len(set)
		}
	}
	buckets := sortBuckets(counts)
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		parts := strings.SplitN(b.Key, "|", 2)
		rows = append(rows, dispatch.Row{
			"objet":        parts[0],
			"jour":         parts[1],
			"utilisateurs": b.Count,
		})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d objets modifiés par au moins %d utilisateurs le même jour", len(rows), minUsers),
		Explanation: "Objets concentrant des modifications de plusieurs auteurs sur une seule journée.",
		Columns:     []string{"Objet", "Jour", "Utilisateurs"},
	}, nil
}

// repetitiveBinds groups identical bind payloads appearing many times.
func repetitiveBinds(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	counts := map[string]int{}
	for _, e := range ds {
		if e.SQLBinds != "" {
			counts[e.SQLBinds]++
		}
	}
	repeated := map[string]int{}
	for binds, n := range counts {
		if n >= 5 {
			repeated[binds] = n
		}
	}
	buckets := sortBuckets(repeated)
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{"binds": truncateSQL(b.Key), "occurrences": b.Count})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d jeux de variables liées répétés au moins 5 fois", len(rows)),
		Explanation: "Constantes répétitives dans les variables liées, indice d'exécutions scriptées.",
		Columns:     []string{"Binds", "Occurrences"},
	}, nil
}

// fullTableUpdates lists UPDATE statements carrying no WHERE clause.
func fullTableUpdates(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		upper := strings.ToUpper(e.SQLText)
		return strings.HasPrefix(strings.TrimSpace(upper), "UPDATE") && !strings.Contains(upper, "WHERE")
	})
	return dispatch.Result{
		Data:        sqlRows(filtered),
		Summary:     fmt.Sprintf("%d UPDATE sans clause WHERE, affectant potentiellement toutes les lignes", len(filtered)),
		Explanation: "Mises à jour non restreintes, chaque occurrence mérite vérification.",
		Columns:     sqlColumns,
	}, nil
}

// instanceSchemaUsage crosses instance and schema activity.
func instanceSchemaUsage(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	buckets := groupPairCounts(ds, func(e model.AuditEvent) string {
		return model.OrMissing(e.InstanceID) + " / " + model.OrMissing(e.ObjectSchema)
	})
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{"instance_schema": b.Key, "actions": b.Count})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d couples instance/schéma actifs", len(buckets)),
		Explanation: "Volume d'opérations par instance et par schéma cible.",
		Columns:     []string{"Instance_Schema", "Actions"},
	}, nil
}

// crossInstanceSessions flags session ids observed on several instances.
func crossInstanceSessions(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	instances := map[string]map[string]bool{}
	for _, e := range ds {
		if e.SessionID == "" || e.InstanceID == "" {
			continue
		}
		if instances[e.SessionID] == nil {
			instances[e.SessionID] = map[string]bool{}
		}
		instances[e.SessionID][e.InstanceID] = true
	}
	counts := map[string]int{}
	for id, set := range instances {
		if len(set) > 1 {
			counts[id] = len(set)
		}
	}
	buckets := sortBuckets(counts)
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{"session_id": b.Key, "instances": b.Count})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d sessions observées sur plusieurs instances", len(rows)),
		Explanation: "Identifiants de session apparaissant sur plus d'une instance.",
		Columns:     []string{"Session_ID", "Instances"},
	}, nil
}

// multiInstanceUsers flags users active on several instances.
func multiInstanceUsers(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	instances := map[string]map[string]bool{}
	for _, e := range ds {
		if e.DBUsername == "" || e.InstanceID == "" {
			continue
		}
		if instances[e.DBUsername] == nil {
			instances[e.DBUsername] = map[string]bool{}
		}
		instances[e.DBUsername][e.InstanceID] = true
	}
	counts := map[string]int{}
	for user, set := range instances {
		if len(set) > 1 {
			counts[user] = len(set)
		}
	}
	buckets := sortBuckets(counts)
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{"utilisateur": b.Key, "instances": b.Count})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d utilisateurs actifs sur plusieurs instances", len(rows)),
		Explanation: "Comptes travaillant simultanément sur plus d'une instance.",
		Columns:     []string{"Utilisateur", "Instances"},
	}, nil
}

// sqlFingerprints ranks normalized SQL statements by frequency.
func sqlFingerprints(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	counts := map[string]int{}
	for _, e := range ds {
		if e.SQLText == "" {
			continue
		}
		fp := strings.Join(strings.Fields(strings.ToLower(e.SQLText)), " ")
		counts[fp]++
	}
	buckets := sortBuckets(counts)
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{"empreinte": truncateSQL(b.Key), "executions": b.Count})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d empreintes SQL distinctes classées par fréquence", len(buckets)),
		Explanation: "Requêtes normalisées (casse et espaces) classées par nombre d'exécutions.",
		Columns:     []string{"Empreinte", "Executions"},
	}, nil
}

// objectUsageFrequency ranks objects by how many distinct users touch them.
func objectUsageFrequency(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	users := map[string]map[string]bool{}
	for _, e := range ds {
		if e.ObjectName == "" || e.DBUsername == "" {
			continue
		}
		key := model.OrMissing(e.ObjectSchema) + "." + e.ObjectName
		if users[key] == nil {
			users[key] = map[string]bool{}
		}
		users[key][e.DBUsername] = true
	}
	counts := map[string]int{}
	for key, set := range users {
		if len(set) > 1 {
			counts[key] = len(set)
		}
	}
	buckets := sortBuckets(counts)
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{"objet": b.Key, "utilisateurs": b.Count})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d objets partagés entre plusieurs utilisateurs", len(rows)),
		Explanation: "Objets classés par nombre d'utilisateurs distincts y accédant.",
		Columns:     []string{"Objet", "Utilisateurs"},
	}, nil
}

// recentObjectModifications lists modifying events within the captured
// number of hours before now, default 24.
func recentObjectModifications(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	hours := caps.Int(1, 24)
	cutoff := timeNow().Add(-time.Duration(hours) * time.Hour)
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return e.HasTimestamp() && e.Timestamp.After(cutoff) && isModifying(e.ActionName)
	})
	return dispatch.Result{
		Data:        eventRows(filtered),
		Summary:     fmt.Sprintf("%d modifications dans les %d dernières heures", len(filtered), hours),
		Explanation: "Opérations modifiantes récentes avec leurs auteurs, pour investigation ciblée.",
		Columns:     filterColumns,
	}, nil
}

// lastObjectActions reports the most recent action per object.
func lastObjectActions(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	latest := map[string]model.AuditEvent{}
	for _, e := range withTimestamps(ds) {
		if e.ObjectName == "" {
			continue
		}
		key := model.OrMissing(e.ObjectSchema) + "." + e.ObjectName
		if cur, ok := latest[key]; !ok || e.Timestamp.After(cur.Timestamp) {
			latest[key] = e
		}
	}
	keys := make([]string, 0, len(latest))
	for k := range latest {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([]dispatch.Row, 0, len(keys))
	for _, k := range keys {
		e := latest[k]
		rows = append(rows, dispatch.Row{
			"objet":       k,
			"action":      model.OrMissing(e.ActionName),
			"utilisateur": model.OrMissing(e.DBUsername),
			"timestamp":   formatTime(e.Timestamp),
		})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("Dernière action connue pour %d objets", len(rows)),
		Explanation: "Action la plus récente enregistrée sur chaque objet.",
		Columns:     []string{"Objet", "Action", "Utilisateur", "Timestamp"},
	}, nil
}

// schemaAccessHistory lists every event on a schema chronologically.
func schemaAccessHistory(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	schema := caps.Str(1)
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return schema == "" || equalFold(e.ObjectSchema, schema)
	})
	sorted := make(model.Dataset, len(filtered))
	copy(sorted, filtered)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	label := strings.ToUpper(schema)
	if label == "" {
		label = "tous schémas"
	}
	return dispatch.Result{
		Data:        eventRows(sorted),
		Summary:     fmt.Sprintf("Historique de %d accès (%s)", len(sorted), label),
		Explanation: "Chronologie complète des accès au périmètre demandé.",
		Columns:     filterColumns,
	}, nil
}

// incidentTimeline rebuilds a chronological view of destructive and
// privilege operations.
func incidentTimeline(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	sensitive := filterEvents(withTimestamps(ds), func(e model.AuditEvent) bool {
		switch {
		case equalFold(e.ActionName, "DROP"), equalFold(e.ActionName, "TRUNCATE"),
			equalFold(e.ActionName, "DELETE"), equalFold(e.ActionName, "GRANT"),
			equalFold(e.ActionName, "REVOKE"), equalFold(e.ActionName, "ALTER"):
			return true
		}
		return false
	})
	sorted := make(model.Dataset, len(sensitive))
	copy(sorted, sensitive)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return dispatch.Result{
		Data:        eventRows(sorted),
		Summary:     fmt.Sprintf("Chronologie reconstruite sur %d opérations sensibles", len(sorted)),
		Explanation: "Opérations destructives et changements de privilèges remis dans l'ordre d'exécution.",
		Columns:     filterColumns,
	}, nil
}
