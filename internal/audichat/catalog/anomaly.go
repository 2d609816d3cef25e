package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/dispatch"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

// Detection thresholds for the anomaly handlers. Matching regexes may
// capture an override for the first value of each pair.
const (
	defaultMinHosts         = 3
	defaultMinSchemas       = 5
	defaultUpdateWindowMin  = 10
	defaultBurstCount       = 100
	defaultBurstSpanMin     = 5
	defaultLongSessionHours = 12
	defaultMinObjects       = 50
)

// multiHostSessions flags users connecting from several distinct hosts
// on the same calendar day. The minimum host count defaults to 3 and
// can be overridden by the first capture group.
func multiHostSessions(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	minHosts := caps.Int(1, defaultMinHosts)
	type userDay struct {
		hosts map[string]bool
		count int
	}
	byKey := map[string]*userDay{}
	for _, e := range withTimestamps(ds) {
		if e.DBUsername == "" || e.UserHost == "" {
			continue
		}
		key := e.DBUsername + "|" + dayKey(e.Timestamp)
		ud, ok := byKey[key]
		if !ok {
			ud = &userDay{hosts: map[string]bool{}}
			byKey[key] = ud
		}
		ud.hosts[e.UserHost] = true
		ud.count++
	}
	keys := make([]string, 0, len(byKey))
	for key, ud := range byKey {
		if len(ud.hosts) >= minHosts {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		hi, hj := len(byKey[keys[i]].hosts), len(byKey[keys[j]].hosts)
		if hi == hj {
			return keys[i] < keys[j]
		}
		return hi > hj
	})
	rows := make([]dispatch.Row, 0, len(keys))
	for _, key := range keys {
		ud := byKey[key]
		parts := strings.SplitN(key, "|", 2)
		hostList := make([]string, 0, len(ud.hosts))
		for h := range ud.hosts {
			hostList = append(hostList, h)
		}
		sort.Strings(hostList)
		risk := RiskMedium
		if len(ud.hosts) > 5 {
			risk = RiskHigh
		}
		rows = append(rows, dispatch.Row{
			"utilisateur":   parts[0],
			"jour":          parts[1],
			"machines":      len(ud.hosts),
			"hosts":         strings.Join(hostList, ", "),
			"actions":       ud.count,
			"niveau_risque": risk,
		})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d cas d'utilisateurs connectés depuis %d machines ou plus le même jour", len(rows), minHosts),
		Explanation: "Connexions multi-machines sur une même journée. Un compte partagé ou compromis se manifeste souvent ainsi.",
		Columns:     []string{"Utilisateur", "Jour", "Machines", "Hosts", "Actions", "Niveau_Risque"},
	}, nil
}

// multiSchemaUpdates looks for users running UPDATE against several
// distinct schemas inside a short sliding window. A window opens at
// every UPDATE event, so overlapping bursts are reported once per
// triggering event.
func multiSchemaUpdates(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	minSchemas := caps.Int(1, defaultMinSchemas)
	windowMin := caps.Int(2, defaultUpdateWindowMin)
	window := time.Duration(windowMin) * time.Minute

	byUser := map[string]model.Dataset{}
	for _, e := range withTimestamps(ds) {
		if e.DBUsername == "" || !equalFold(e.ActionName, "UPDATE") {
			continue
		}
		byUser[e.DBUsername] = append(byUser[e.DBUsername], e)
	}
	users := make([]string, 0, len(byUser))
	for u := range byUser {
		users = append(users, u)
	}
	sort.Strings(users)

	var rows []dispatch.Row
	for _, user := range users {
		events := byUser[user]
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Timestamp.Before(events[j].Timestamp)
		})
		for i, anchor := range events {
			schemas := map[string]bool{}
			for j := i; j < len(events); j++ {
				if events[j].Timestamp.Sub(anchor.Timestamp) > window {
					break
				}
				schemas[model.OrMissing(events[j].ObjectSchema)] = true
			}
			if len(schemas) < minSchemas {
				continue
			}
			list := make([]string, 0, len(schemas))
			for s := range schemas {
				list = append(list, s)
			}
			sort.Strings(list)
			score := len(schemas) * 2
			if score > 10 {
				score = 10
			}
			rows = append(rows, dispatch.Row{
				"utilisateur":  user,
				"debut":        formatTime(anchor.Timestamp),
				"schemas":      len(schemas),
				"liste":        strings.Join(list, ", "),
				"score_risque": score,
			})
		}
	}
	if rows == nil {
		rows = []dispatch.Row{}
	}
	return dispatch.Result{
		Data: rows,
		Summary: fmt.Sprintf("%d fenêtres d'UPDATE touchant au moins %d schémas en %d minutes",
			len(rows), minSchemas, windowMin),
		Explanation: "Rafales de modifications multi-schémas dans une fenêtre glissante. Ce motif accompagne les scripts de migration non déclarés et certaines compromissions.",
		Columns:     []string{"Utilisateur", "Debut", "Schemas", "Liste", "Score_Risque"},
	}, nil
}

// highVolumeShortSessions flags sessions packing an unusual number of
// events into a few minutes.
func highVolumeShortSessions(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	minCount := caps.Int(1, defaultBurstCount)
	maxSpan := float64(caps.Int(2, defaultBurstSpanMin))

	spans := sessionSpans(ds)
	ids := make([]string, 0, len(spans))
	for id, s := range spans {
		minutes := s.end.Sub(s.start).Minutes()
		if s.count >= minCount && minutes <= maxSpan {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		if spans[ids[i]].count == spans[ids[j]].count {
			return ids[i] < ids[j]
		}
		return spans[ids[i]].count > spans[ids[j]].count
	})
	rows := make([]dispatch.Row, 0, len(ids))
	for _, id := range ids {
		s := spans[id]
		minutes := s.end.Sub(s.start).Minutes()
		denom := minutes
		if denom < 0.1 {
			denom = 0.1
		}
		rows = append(rows, dispatch.Row{
			"session_id":         id,
			"utilisateur":        model.OrMissing(s.user),
			"actions":            s.count,
			"duree_minutes":      fmt.Sprintf("%.2f", minutes),
			"actions_par_minute": fmt.Sprintf("%.2f", float64(s.count)/denom),
		})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d sessions à très haut débit (au moins %d actions en %.0f minutes)", len(rows), minCount, maxSpan),
		Explanation: "Sessions concentrant un volume anormal d'opérations sur une durée très courte, typique d'une extraction massive ou d'un script incontrôlé.",
		Columns:     []string{"Session_ID", "Utilisateur", "Actions", "Duree_Minutes", "Actions_Par_Minute"},
	}, nil
}

// afterHoursRange lists activity outside a captured working range,
// defaulting to 8h-18h when no bounds are captured.
func afterHoursRange(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	startHour := caps.Int(1, 8)
	endHour := caps.Int(2, 18)
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		if !e.HasTimestamp() {
			return false
		}
		h := e.Timestamp.Hour()
		return h < startHour || h > endHour
	})
	counts := map[string]int{}
	for _, e := range filtered {
		counts[model.OrMissing(e.DBUsername)]++
	}
	buckets := sortBuckets(counts)
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{
			"utilisateur": b.Key,
			"actions":     b.Count,
			"pourcentage": percentage(b.Count, len(filtered)),
		})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d actions en dehors de la plage %dh-%dh", len(filtered), startHour, endHour),
		Explanation: "Activité nocturne ou hors plage ouvrée, agrégée par utilisateur.",
		Columns:     []string{"Utilisateur", "Actions", "Pourcentage"},
	}, nil
}

// longSessions reports sessions exceeding the captured duration in
// hours, default 12.
func longSessions(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	minMinutes := float64(caps.Int(1, defaultLongSessionHours)) * 60
	spans := sessionSpans(ds)
	ids := make([]string, 0, len(spans))
	for id, s := range spans {
		if s.end.Sub(s.start).Minutes() >= minMinutes {
			ids = append(ids, id)
		}
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
			"debut":         formatTime(s.start),
			"fin":           formatTime(s.end),
			"duree_minutes": fmt.Sprintf("%.2f", s.end.Sub(s.start).Minutes()),
			"actions":       s.count,
		})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d sessions dépassant %.0f heures d'activité", len(rows), minMinutes/60),
		Explanation: "Sessions anormalement longues entre première et dernière action.",
		Columns:     []string{"Session_ID", "Utilisateur", "Debut", "Fin", "Duree_Minutes", "Actions"},
	}, nil
}

// activitySpikes compares each day's volume to the dataset daily average
// and reports days at twice the average or more.
func activitySpikes(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	counts := map[string]int{}
	for _, e := range withTimestamps(ds) {
		counts[dayKey(e.Timestamp)]++
	}
	if len(counts) == 0 {
		return dispatch.Result{
			Data:        []dispatch.Row{},
			Summary:     "Aucun pic détectable (0 événement daté)",
			Explanation: "La détection de pics exige des événements horodatés.",
			Columns:     []string{"Jour", "Actions", "Ratio"},
		}, nil
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	avg := float64(total) / float64(len(counts))
	spikes := map[string]int{}
	for day, c := range counts {
		if float64(c) >= 2*avg {
			spikes[day] = c
		}
	}
	buckets := sortBuckets(spikes)
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dispatch.Row{
			"jour":    b.Key,
			"actions": b.Count,
			"ratio":   fmt.Sprintf("%.1fx", float64(b.Count)/avg),
		})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d journées à plus du double de la moyenne (%.1f actions/jour)", len(rows), avg),
		Explanation: "Journées dont le volume dépasse deux fois la moyenne quotidienne observée.",
		Columns:     []string{"Jour", "Actions", "Ratio"},
	}, nil
}

// dropCreateSequences scans each (schema, object) timeline for a
// destructive action immediately followed by a CREATE. Only adjacent
// pairs count: a CREATE, DROP, CREATE timeline yields one pair.
func dropCreateSequences(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	byObject := map[string]model.Dataset{}
	for _, e := range withTimestamps(ds) {
		if e.ObjectName == "" {
			continue
		}
		key := model.OrMissing(e.ObjectSchema) + "." + e.ObjectName
		byObject[key] = append(byObject[key], e)
	}
	keys := make([]string, 0, len(byObject))
	for k := range byObject {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := []dispatch.Row{}
	for _, key := range keys {
		events := byObject[key]
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Timestamp.Before(events[j].Timestamp)
		})
		for i := 0; i+1 < len(events); i++ {
			first, second := events[i], events[i+1]
			destructive := equalFold(first.ActionName, "DROP") || equalFold(first.ActionName, "TRUNCATE")
			if !destructive || !equalFold(second.ActionName, "CREATE") {
				continue
			}
			delay := second.Timestamp.Sub(first.Timestamp).Minutes()
			risk := RiskLow
			switch {
			case delay < 5:
				risk = RiskHigh
			case delay < 60:
				risk = RiskMedium
			}
			rows = append(rows, dispatch.Row{
				"objet":            key,
				"action_initiale":  strings.ToUpper(first.ActionName),
				"suppression":      formatTime(first.Timestamp),
				"recreation":       formatTime(second.Timestamp),
				"delai_minutes":    fmt.Sprintf("%.2f", delay),
				"meme_utilisateur": yesNo(equalFold(first.DBUsername, second.DBUsername)),
				"meme_session":     yesNo(first.SessionID != "" && first.SessionID == second.SessionID),
				"niveau_risque":    risk,
			})
		}
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d séquences de suppression puis recréation d'objet", len(rows)),
		Explanation: "Objets détruits puis recréés. Un délai court entre les deux opérations peut signaler un remplacement de structure visant à masquer une altération.",
		Columns:     []string{"Objet", "Action_Initiale", "Suppression", "Recreation", "Delai_Minutes", "Meme_Utilisateur", "Meme_Session", "Niveau_Risque"},
	}, nil
}

// systemObjectPrivileges lists GRANT and REVOKE hitting system-owned
// objects. Every hit is critical.
func systemObjectPrivileges(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		privilege := equalFold(e.ActionName, "GRANT") || equalFold(e.ActionName, "REVOKE")
		system := equalFold(e.ObjectSchema, "SYS") || strings.HasPrefix(strings.ToUpper(e.ObjectName), "SYS")
		return privilege && system
	})
	rows := make([]dispatch.Row, 0, len(filtered))
	for _, e := range filtered {
		rows = append(rows, dispatch.Row{
			"timestamp":   formatTime(e.Timestamp),
			"utilisateur": model.OrMissing(e.DBUsername),
			"action":      model.OrMissing(e.ActionName),
			"objet":       model.OrMissing(e.ObjectSchema) + "." + model.OrMissing(e.ObjectName),
			"criticite":   RiskCritical,
		})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d opérations de privilèges sur des objets système", len(rows)),
		Explanation: "GRANT et REVOKE visant le schéma SYS ou des objets système. Chaque occurrence doit être validée par l'administration.",
		Columns:     []string{"Timestamp", "Utilisateur", "Action", "Objet", "Criticite"},
	}, nil
}

// multipleAuthMethods flags users seen with more than one
// authentication type.
func multipleAuthMethods(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	methods := map[string]map[string]bool{}
	for _, e := range ds {
		if e.DBUsername == "" || e.AuthenticationType == "" {
			continue
		}
		if methods[e.DBUsername] == nil {
			methods[e.DBUsername] = map[string]bool{}
		}
		methods[e.DBUsername][e.AuthenticationType] = true
	}
	counts := map[string]int{}
	for user, set := range methods {
		if len(set) > 1 {
			counts[user] = len(set)
		}
	}
	buckets := sortBuckets(counts)
	rows := make([]dispatch.Row, 0, len(buckets))
	for _, b := range buckets {
		list := make([]string, 0, len(methods[b.Key]))
		for m := range methods[b.Key] {
			list = append(list, m)
		}
		sort.Strings(list)
		rows = append(rows, dispatch.Row{
			"utilisateur": b.Key,
			"methodes":    b.Count,
			"liste":       strings.Join(list, ", "),
		})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d utilisateurs employant plusieurs méthodes d'authentification", len(rows)),
		Explanation: "Comptes observés avec des types d'authentification différents selon les sessions.",
		Columns:     []string{"Utilisateur", "Methodes", "Liste"},
	}, nil
}

// highObjectAccessSessions flags sessions touching an unusually large
// set of distinct objects.
func highObjectAccessSessions(ds model.Dataset, caps dispatch.Captures) (dispatch.Result, error) {
	minObjects := caps.Int(1, defaultMinObjects)
	type sessionObjects struct {
		user    string
		objects map[string]bool
	}
	bySession := map[string]*sessionObjects{}
	for _, e := range ds {
		if e.SessionID == "" || e.ObjectName == "" {
			continue
		}
		so, ok := bySession[e.SessionID]
		if !ok {
			so = &sessionObjects{user: e.DBUsername, objects: map[string]bool{}}
			bySession[e.SessionID] = so
		}
		so.objects[model.OrMissing(e.ObjectSchema)+"."+e.ObjectName] = true
	}
	ids := make([]string, 0, len(bySession))
	for id, so := range bySession {
		if len(so.objects) >= minObjects {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		oi, oj := len(bySession[ids[i]].objects), len(bySession[ids[j]].objects)
		if oi == oj {
			return ids[i] < ids[j]
		}
		return oi > oj
	})
	rows := make([]dispatch.Row, 0, len(ids))
	for _, id := range ids {
		so := bySession[id]
		rows = append(rows, dispatch.Row{
			"session_id":  id,
			"utilisateur": model.OrMissing(so.user),
			"objets":      len(so.objects),
		})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("%d sessions accédant à %d objets distincts ou plus", len(rows), minObjects),
		Explanation: "Sessions balayant un très grand nombre d'objets, motif classique d'exploration ou d'exfiltration.",
		Columns:     []string{"Session_ID", "Utilisateur", "Objets"},
	}, nil
}

// unknownHosts lists activity whose client host is absent from the log.
func unknownHosts(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	filtered := filterEvents(ds, func(e model.AuditEvent) bool {
		return e.UserHost == ""
	})
	return dispatch.Result{
		Data:        eventRows(filtered),
		Summary:     fmt.Sprintf("%d actions sans machine d'origine identifiée", len(filtered)),
		Explanation: "Entrées dont la machine cliente n'est pas renseignée.",
		Columns:     filterColumns,
	}, nil
}

// avgActionInterval computes the mean gap between consecutive actions
// inside each session.
func avgActionInterval(ds model.Dataset, _ dispatch.Captures) (dispatch.Result, error) {
	bySession := map[string]model.Dataset{}
	for _, e := range withTimestamps(ds) {
		if e.SessionID == "" {
			continue
		}
		bySession[e.SessionID] = append(bySession[e.SessionID], e)
	}
	ids := make([]string, 0, len(bySession))
	for id, events := range bySession {
		if len(events) > 1 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	rows := make([]dispatch.Row, 0, len(ids))
	for _, id := range ids {
		events := bySession[id]
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Timestamp.Before(events[j].Timestamp)
		})
		var totalGap time.Duration
		for i := 0; i+1 < len(events); i++ {
			totalGap += events[i+1].Timestamp.Sub(events[i].Timestamp)
		}
		avg := totalGap.Seconds() / float64(len(events)-1)
		rows = append(rows, dispatch.Row{
			"session_id":          id,
			"utilisateur":         model.OrMissing(events[0].DBUsername),
			"actions":             len(events),
			"intervalle_secondes": fmt.Sprintf("%.2f", avg),
		})
	}
	return dispatch.Result{
		Data:        rows,
		Summary:     fmt.Sprintf("Intervalle moyen calculé pour %d sessions", len(rows)),
		Explanation: "Temps moyen entre deux actions consécutives d'une même session. Un intervalle très court et régulier signale une exécution scriptée.",
		Columns:     []string{"Session_ID", "Utilisateur", "Actions", "Intervalle_Secondes"},
	}, nil
}
