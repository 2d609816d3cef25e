package respond

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/classify"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/dispatch"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

// statistics is one computed aggregate ready for templating.
type statistics struct {
	rows        []dispatch.Row
	columns     []string
	summary     string
	explanation string
}

// analysisTypeFor maps a primary intent onto one of the six built-in
// analysis types. Performance questions reuse the action aggregate.
func analysisTypeFor(intent string) string {
	switch intent {
	case classify.IntentUsers:
		return "user_analysis"
	case classify.IntentActions:
		return "action_analysis"
	case classify.IntentObjects:
		return "object_analysis"
	case classify.IntentSecurity:
		return "security_analysis"
	case classify.IntentSessions:
		return "session_analysis"
	case classify.IntentTemporal:
		return "temporal_analysis"
	case classify.IntentPerformance:
		return "action_analysis"
	default:
		return "user_analysis"
	}
}

func statisticsFor(analysisType string, ds model.Dataset) statistics {
	switch analysisType {
	case "action_analysis":
		return actionStatistics(ds)
	case "object_analysis":
		return objectStatistics(ds)
	case "security_analysis":
		return securityStatistics(ds)
	case "session_analysis":
		return sessionStatistics(ds)
	case "temporal_analysis":
		return temporalStatistics(ds)
	default:
		return userStatistics(ds)
	}
}

// criticality classifies an action verb into the shared risk labels.
func criticality(action string) string {
	switch strings.ToUpper(action) {
	case "DROP", "TRUNCATE", "DELETE":
		return "CRITIQUE"
	case "CREATE", "ALTER", "GRANT", "REVOKE":
		return "ÉLEVÉ"
	case "UPDATE", "INSERT":
		return "MOYEN"
	default:
		return "FAIBLE"
	}
}

func userStatistics(ds model.Dataset) statistics {
	type userAgg struct {
		actions  int
		objects  map[string]bool
		schemas  map[string]bool
		types    map[string]bool
		sessions map[string]bool
		last     time.Time
	}
	aggs := map[string]*userAgg{}
	for _, e := range ds {
		user := e.DBUsername
		if user == "" {
			user = e.OSUsername
		}
		user = model.OrMissing(user)
		a, ok := aggs[user]
		if !ok {
			a = &userAgg{
				objects:  map[string]bool{},
				schemas:  map[string]bool{},
				types:    map[string]bool{},
				sessions: map[string]bool{},
			}
			aggs[user] = a
		}
		a.actions++
		if e.ObjectName != "" {
			a.objects[e.ObjectName] = true
		}
		if e.ObjectSchema != "" {
			a.schemas[e.ObjectSchema] = true
		}
		if e.ActionName != "" {
			a.types[e.ActionName] = true
		}
		if e.SessionID != "" {
			a.sessions[e.SessionID] = true
		}
		if e.HasTimestamp() && e.Timestamp.After(a.last) {
			a.last = e.Timestamp
		}
	}
	users := sortedKeysByCount(len(aggs), func(yield func(string, int)) {
		for u, a := range aggs {
			yield(u, a.actions)
		}
	})
	rows := make([]dispatch.Row, 0, len(users))
	for _, u := range users {
		a := aggs[u]
		last := missing
		if !a.last.IsZero() {
			last = a.last.Format("2006-01-02 15:04:05")
		}
		rows = append(rows, dispatch.Row{
			"utilisateur":       u,
			"nombre_actions":    a.actions,
			"pourcentage":       percentage(a.actions, len(ds)),
			"derniere_activite": last,
			"types_actions":     len(a.types),
			"schemas_accedes":   len(a.schemas),
			"sessions":          len(a.sessions),
			"objets_uniques":    len(a.objects),
		})
	}
	topUser, topActions, topPct := missing, 0, "0%"
	if len(rows) > 0 {
		topUser = rows[0]["utilisateur"].(string)
		topActions = rows[0]["nombre_actions"].(int)
		topPct = rows[0]["pourcentage"].(string)
	}
	return statistics{
		rows:    rows,
		columns: []string{"Utilisateur", "Nombre_Actions", "Pourcentage", "Dernière_Activité", "Types_Actions", "Schemas_Accédés", "Sessions", "Objets_Uniques"},
		summary: fmt.Sprintf(
			"ANALYSE DÉTAILLÉE UTILISATEURS - %d utilisateurs identifiés : %s. Utilisateur le plus actif: %s (%d actions, %s)",
			len(rows), listPreview(users), topUser, topActions, topPct),
		explanation: fmt.Sprintf(
			"Étude complète des %d utilisateurs avec statistiques d'activité détaillées. "+
				"Répartition quantitative des actions par utilisateur, pourcentages d'utilisation et diversité des opérations.",
			len(rows)),
	}
}

func actionStatistics(ds model.Dataset) statistics {
	type actionAgg struct {
		count int
		users map[string]bool
		last  time.Time
	}
	aggs := map[string]*actionAgg{}
	for _, e := range ds {
		action := model.OrMissing(e.ActionName)
		a, ok := aggs[action]
		if !ok {
			a = &actionAgg{users: map[string]bool{}}
			aggs[action] = a
		}
		a.count++
		if e.DBUsername != "" {
			a.users[e.DBUsername] = true
		}
		if e.HasTimestamp() && e.Timestamp.After(a.last) {
			a.last = e.Timestamp
		}
	}
	actions := sortedKeysByCount(len(aggs), func(yield func(string, int)) {
		for k, a := range aggs {
			yield(k, a.count)
		}
	})
	rows := make([]dispatch.Row, 0, len(actions))
	for _, k := range actions {
		a := aggs[k]
		last := missing
		if !a.last.IsZero() {
			last = a.last.Format("2006-01-02 15:04:05")
		}
		rows = append(rows, dispatch.Row{
			"action":               k,
			"frequence":            a.count,
			"pourcentage":          percentage(a.count, len(ds)),
			"utilisateurs_uniques": len(a.users),
			"criticite":            criticality(k),
			"derniere_occurrence":  last,
		})
	}
	topAction, topCount, topPct := missingFem, 0, "0%"
	if len(rows) > 0 {
		topAction = rows[0]["action"].(string)
		topCount = rows[0]["frequence"].(int)
		topPct = rows[0]["pourcentage"].(string)
	}
	dist := make([]string, 0, 3)
	for i := 0; i < len(rows) && i < 3; i++ {
		dist = append(dist, fmt.Sprintf("%s (%s)", rows[i]["action"], rows[i]["pourcentage"]))
	}
	return statistics{
		rows:    rows,
		columns: []string{"Action", "Fréquence", "Pourcentage", "Utilisateurs_Uniques", "Criticité", "Dernière_Occurrence"},
		summary: fmt.Sprintf(
			"ANALYSE DÉTAILLÉE ACTIONS - %d types d'actions sur %d entrées. Action dominante: %s (%d fois, %s). Distribution: %s",
			len(rows), len(ds), topAction, topCount, topPct, strings.Join(dist, ", ")),
		explanation: fmt.Sprintf(
			"Étude statistique approfondie des %d types d'opérations. Analyse fréquentielle avec pourcentages, "+
				"répartition par utilisateurs et identification des actions critiques.",
			len(rows)),
	}
}

func objectStatistics(ds model.Dataset) statistics {
	type objectAgg struct {
		schema  string
		name    string
		access  int
		users   map[string]bool
		actions map[string]bool
		last    time.Time
	}
	aggs := map[string]*objectAgg{}
	for _, e := range ds {
		key := model.OrMissing(e.ObjectSchema) + "." + model.OrMissing(e.ObjectName)
		a, ok := aggs[key]
		if !ok {
			a = &objectAgg{
				schema:  model.OrMissing(e.ObjectSchema),
				name:    model.OrMissing(e.ObjectName),
				users:   map[string]bool{},
				actions: map[string]bool{},
			}
			aggs[key] = a
		}
		a.access++
		if e.DBUsername != "" {
			a.users[e.DBUsername] = true
		}
		if e.ActionName != "" {
			a.actions[e.ActionName] = true
		}
		if e.HasTimestamp() && e.Timestamp.After(a.last) {
			a.last = e.Timestamp
		}
	}
	keys := sortedKeysByCount(len(aggs), func(yield func(string, int)) {
		for k, a := range aggs {
			yield(k, a.access)
		}
	})
	schemas := map[string]bool{}
	rows := make([]dispatch.Row, 0, len(keys))
	for _, k := range keys {
		a := aggs[k]
		schemas[a.schema] = true
		actionList := make([]string, 0, len(a.actions))
		for act := range a.actions {
			actionList = append(actionList, act)
		}
		sort.Strings(actionList)
		last := missingFem
		if !a.last.IsZero() {
			last = a.last.Format("2006-01-02 15:04:05")
		}
		rows = append(rows, dispatch.Row{
			"objet":                  a.name,
			"schema":                 a.schema,
			"acces_total":            a.access,
			"utilisateurs_distincts": len(a.users),
			"types_actions":          strings.Join(actionList, ", "),
			"derniere_modification":  last,
		})
	}
	topObject, topAccess, topSchema := missing, 0, missing
	if len(rows) > 0 {
		topObject = rows[0]["objet"].(string)
		topAccess = rows[0]["acces_total"].(int)
		topSchema = rows[0]["schema"].(string)
	}
	return statistics{
		rows:    rows,
		columns: []string{"Objet", "Schema", "Accès_Total", "Utilisateurs_Distincts", "Types_Actions", "Dernière_Modification"},
		summary: fmt.Sprintf(
			"ANALYSE DÉTAILLÉE OBJETS - %d objets dans %d schémas. Objet le plus accédé: %s (%d accès). Schéma dominant: %s",
			len(rows), len(schemas), topObject, topAccess, topSchema),
		explanation: "Cartographie complète des objets audités avec statistiques d'accès. " +
			"Identification des ressources critiques, patterns d'utilisation par schéma et analyse de la charge de travail.",
	}
}

func securityStatistics(ds model.Dataset) statistics {
	alerts := make([]dispatch.Row, 0)
	critical := []string{}
	worst := "FAIBLE"
	rank := map[string]int{"FAIBLE": 0, "MOYEN": 1, "ÉLEVÉ": 2, "CRITIQUE": 3}
	for _, e := range ds {
		level := criticality(e.ActionName)
		if level != "CRITIQUE" && level != "ÉLEVÉ" {
			continue
		}
		ts := missing
		if e.HasTimestamp() {
			ts = e.Timestamp.Format("2006-01-02 15:04:05")
		}
		alerts = append(alerts, dispatch.Row{
			"timestamp":   ts,
			"utilisateur": model.OrMissing(e.DBUsername),
			"action":      model.OrMissing(e.ActionName),
			"objet":       model.OrMissing(e.ObjectSchema) + "." + model.OrMissing(e.ObjectName),
			"criticite":   level,
		})
		if rank[level] > rank[worst] {
			worst = level
		}
		if level == "CRITIQUE" && len(critical) < 5 {
			critical = append(critical, model.OrMissing(e.ActionName)+" sur "+model.OrMissing(e.ObjectName))
		}
	}
	points := missing
	if len(critical) > 0 {
		points = strings.Join(critical, ", ")
	}
	return statistics{
		rows:    alerts,
		columns: []string{"Timestamp", "Utilisateur", "Action", "Objet", "Criticité"},
		summary: fmt.Sprintf(
			"ANALYSE SÉCURITÉ - %d alertes détectées. Niveau de risque: %s. Points critiques: %s",
			len(alerts), worst, points),
		explanation: "Évaluation de la sécurité avec identification des opérations sensibles et violations potentielles. " +
			"Classification par niveau de criticité.",
	}
}

func sessionStatistics(ds model.Dataset) statistics {
	type sessAgg struct {
		user       string
		auth       string
		count      int
		start, end time.Time
	}
	aggs := map[string]*sessAgg{}
	authCounts := map[string]int{}
	for _, e := range ds {
		id := model.OrMissing(e.SessionID)
		a, ok := aggs[id]
		if !ok {
			a = &sessAgg{user: e.DBUsername, auth: e.AuthenticationType}
			aggs[id] = a
		}
		a.count++
		if e.AuthenticationType != "" {
			authCounts[e.AuthenticationType]++
		}
		if e.HasTimestamp() {
			if a.start.IsZero() || e.Timestamp.Before(a.start) {
				a.start = e.Timestamp
			}
			if e.Timestamp.After(a.end) {
				a.end = e.Timestamp
			}
		}
	}
	ids := sortedKeysByCount(len(aggs), func(yield func(string, int)) {
		for id, a := range aggs {
			yield(id, a.count)
		}
	})
	rows := make([]dispatch.Row, 0, len(ids))
	var totalMinutes float64
	timed := 0
	for _, id := range ids {
		a := aggs[id]
		duration := "0.00"
		if !a.start.IsZero() {
			m := a.end.Sub(a.start).Minutes()
			duration = fmt.Sprintf("%.2f", m)
			totalMinutes += m
			timed++
		}
		rows = append(rows, dispatch.Row{
			"session_id":       id,
			"utilisateur":      model.OrMissing(a.user),
			"actions":          a.count,
			"duree_minutes":    duration,
			"authentification": model.OrMissing(a.auth),
		})
	}
	avgDuration := "0.00 min"
	if timed > 0 {
		avgDuration = fmt.Sprintf("%.2f min", totalMinutes/float64(timed))
	}
	topAuth := missingFem
	if len(authCounts) > 0 {
		for _, k := range sortedKeysByCount(len(authCounts), func(yield func(string, int)) {
			for a, c := range authCounts {
				yield(a, c)
			}
		})[:1] {
			topAuth = k
		}
	}
	return statistics{
		rows:    rows,
		columns: []string{"Session_ID", "Utilisateur", "Actions", "Durée_Minutes", "Authentification"},
		summary: fmt.Sprintf(
			"ANALYSE SESSIONS - %d sessions actives. Durée moyenne: %s. Type d'authentification dominant: %s",
			len(rows), avgDuration, topAuth),
		explanation: "Analyse comportementale des sessions avec patterns de connexion, durées d'activité et " +
			"méthodes d'authentification.",
	}
}

func temporalStatistics(ds model.Dataset) statistics {
	var byHour [24]int
	var first, last time.Time
	dated := 0
	for _, e := range ds {
		if !e.HasTimestamp() {
			continue
		}
		byHour[e.Timestamp.Hour()]++
		dated++
		if first.IsZero() || e.Timestamp.Before(first) {
			first = e.Timestamp
		}
		if e.Timestamp.After(last) {
			last = e.Timestamp
		}
	}
	rows := make([]dispatch.Row, 0, 24)
	peak, peakCount := 0, 0
	for h := 0; h < 24; h++ {
		rows = append(rows, dispatch.Row{
			"heure":       h,
			"activite":    byHour[h],
			"pourcentage": percentage(byHour[h], dated),
		})
		if byHour[h] > peakCount {
			peak, peakCount = h, byHour[h]
		}
	}
	period := missingFem
	if dated > 0 {
		period = first.Format("2006-01-02") + " au " + last.Format("2006-01-02")
	}
	pattern := "activité diurne"
	if peak < 6 || peak > 20 {
		pattern = "activité hors heures ouvrées"
	}
	return statistics{
		rows:    rows,
		columns: []string{"Heure", "Activité", "Pourcentage"},
		summary: fmt.Sprintf(
			"ANALYSE TEMPORELLE - Période %s. Pic d'activité: %dh (%d actions). Pattern: %s",
			period, peak, peakCount, pattern),
		explanation: "Étude chronologique des activités avec identification des tendances temporelles, " +
			"pics de charge et répartition horaire.",
	}
}

// sortedKeysByCount collects (key, count) pairs from the iterator and
// returns the keys sorted by count descending, key ascending.
func sortedKeysByCount(size int, iterate func(yield func(string, int))) []string {
	type kc struct {
		key   string
		count int
	}
	pairs := make([]kc, 0, size)
	iterate(func(k string, c int) {
		pairs = append(pairs, kc{k, c})
	})
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count == pairs[j].count {
			return pairs[i].key < pairs[j].key
		}
		return pairs[i].count > pairs[j].count
	})
	keys := make([]string, 0, len(pairs))
	for _, p := range pairs {
		keys = append(keys, p.key)
	}
	return keys
}
