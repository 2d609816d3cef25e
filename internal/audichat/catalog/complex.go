package catalog

import (
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/dispatch"
)

// Complex catalog category names, in traversal order.
const (
	CatCorrelations = "correlations"
	CatTemporalAdv  = "temporal_avance"
	CatAnomalies    = "anomalies_securite"
	CatSQLAvance    = "sql_avance"
	CatInstances    = "instances"
	CatSequences    = "sequences"
	CatRisques      = "risques"
	CatMetierAvance = "metier_avance"
	CatComportement = "comportement"
	CatScenarios    = "scenarios_investigation"
)

// NewComplexRegistry builds the complex catalog: correlation, anomaly
// and investigation questions with richer handlers. Same ordered
// first-match contract as the core catalog; callers try core first,
// then this one.
func NewComplexRegistry() *dispatch.Registry {
	entries := []dispatch.Entry{
		// corrélations multi-colonnes
		entry(CatCorrelations, `sessions.*même.*dbusername.*(\d+).*userhost.*différents.*journée`, multiHostSessions),
		entry(CatCorrelations, `utilisateur.*update.*(\d+).*schémas.*(\d+).*minutes`, multiSchemaUpdates),
		entry(CatCorrelations, `sessions.*client_program_name.*change.*cours.*session`, changingClientPrograms),
		entry(CatCorrelations, `comptes.*os_username.*diffère.*dbusername`, usernameDiscrepancies),
		entry(CatCorrelations, `objet.*modifiés.*(\d+).*utilisateur.*même.*journée`, multiUserObjectAccess),

		// analyses temporelles avancées
		entry(CatTemporalAdv, `sessions.*(\d+).*requêtes.*(\d+).*minutes`, highVolumeShortSessions),
		entry(CatTemporalAdv, `actions.*hors.*plage.*horaire.*(\d+)h.*(\d+)h`, afterHoursRange),
		entry(CatTemporalAdv, `temps.*moyen.*deux.*actions.*même.*session`, avgActionInterval),
		entry(CatTemporalAdv, `sessions.*(\d+)h.*activité`, longSessions),
		entry(CatTemporalAdv, `pics.*activité.*inhabituels`, activitySpikes),

		// anomalies de sécurité
		entry(CatAnomalies, `(?:drop|truncate).*suivis?.*create.*même.*objet`, dropCreateSequences),
		entry(CatAnomalies, `(?:grant|revoke).*objet.*système.*sys`, systemObjectPrivileges),
		entry(CatAnomalies, `authentifications.*multiples.*authentication_type.*différents`, multipleAuthMethods),
		entry(CatAnomalies, `sessions.*(\d+).*objet.*distincts`, highObjectAccessSessions),
		entry(CatAnomalies, `sessions.*userhost.*inconnu`, unknownHosts),

		// patterns SQL avancés
		entry(CatSQLAvance, `constantes.*répétitives.*sql_binds`, repetitiveBinds),
		entry(CatSQLAvance, `select.*retournant.*gros.*volume.*données`, placeholder(
			"Analyse des SELECT à gros volume",
			"L'estimation du volume retourné exige les statistiques d'exécution, absentes du journal.")),
		entry(CatSQLAvance, `sql_text.*sous.requêtes.*imbriquées`, placeholder(
			"Analyse des sous-requêtes imbriquées",
			"L'analyse syntaxique profonde du SQL n'est pas encore branchée.")),
		entry(CatSQLAvance, `absence.*where.*grosses.*tables`, sqlWithoutWhere),
		entry(CatSQLAvance, `update.*affectant.*toutes.*lignes.*table`, fullTableUpdates),

		// analyses par instance
		entry(CatInstances, `instances.*exécutant.*actions.*même.*schéma`, instanceSchemaUsage),
		entry(CatInstances, `sessions.*migrées.*entre.*instances`, crossInstanceSessions),
		entry(CatInstances, `différences.*utilisation.*action_name.*instance`, actionsPerInstance),
		entry(CatInstances, `utilisateur.*simultanément.*plusieurs.*instances`, multiInstanceUsers),

		// analyses séquentielles
		entry(CatSequences, `select.*immédiatement.*suivi.*delete.*même.*objet`, selectDeleteSequences),
		entry(CatSequences, `(\d+).*insert.*consécutifs`, consecutiveInserts),
		entry(CatSequences, `boucles.*update.*(\d+).*fois.*objet`, updateLoops),
		entry(CatSequences, `alternance.*update.*select.*répétée`, updateSelectPatterns),

		// indicateurs de risque
		entry(CatRisques, `score.*risque.*basé.*type.*action`, placeholder(
			"Scores de risque composites",
			"Le score combinant action, heure et diversité d'objets n'est pas encore branché.")),
		entry(CatRisques, `classement.*empreinte.*sql`, sqlFingerprints),
		entry(CatRisques, `latence.*moyenne.*deux.*actions.*identiques`, placeholder(
			"Latence inter-sessions des actions identiques",
			"La corrélation d'actions identiques entre sessions n'est pas encore branchée.")),
		entry(CatRisques, `fréquence.*utilisation.*objet.*plusieurs.*utilisateur`, objectUsageFrequency),

		// analyses métier avancées
		entry(CatMetierAvance, `utilisateur.*accédant.*schémas.*hors.*périmètre`, placeholder(
			"Accès hors périmètre métier",
			"Le référentiel des périmètres autorisés par utilisateur n'est pas encore chargé.")),
		entry(CatMetierAvance, `pics.*tables.*paie.*avant.*dates.*clés`, placeholder(
			"Pics d'accès aux tables de paie",
			"Le calendrier des dates clés de paie n'est pas encore chargé.")),
		entry(CatMetierAvance, `actions.*inhabituelles.*comptes.*service`, placeholder(
			"Activité inhabituelle des comptes de service",
			"La liste des comptes de service n'est pas encore chargée.")),
		entry(CatMetierAvance, `utilisation.*outils.*non.*approuvés.*client_program_name`, placeholder(
			"Outils clients non approuvés",
			"La liste blanche des programmes approuvés n'est pas encore chargée.")),

		// surveillance comportementale
		entry(CatComportement, `comparaison.*activité.*utilisateur.*historique`, placeholder(
			"Comparaison à l'historique personnel",
			"Le profil d'activité historique par utilisateur n'est pas encore constitué.")),
		entry(CatComportement, `activité.*anormale.*jours.*fériés`, placeholder(
			"Activité des jours fériés",
			"Le calendrier des jours fériés n'est pas encore chargé.")),
		entry(CatComportement, `connexions.*ip.*géolocalisées`, placeholder(
			"Géolocalisation des connexions",
			"Le journal ne porte pas d'adresse IP géolocalisable.")),
		entry(CatComportement, `changements.*habitude.*horaire.*utilisateur`, placeholder(
			"Changements d'habitudes horaires",
			"Le profil horaire de référence par utilisateur n'est pas encore constitué.")),

		// scénarios d'investigation
		entry(CatScenarios, `qui.*modifié.*objet.*dernières.*(\d+)h`, recentObjectModifications),
		entry(CatScenarios, `dernière.*action.*objet.*donné`, lastObjectActions),
		entry(CatScenarios, `historique.*complet.*accès.*schéma(?:.*['"]([^'"]+)['"])?`, schemaAccessHistory),
		entry(CatScenarios, `traçage.*actions.*utilisateur.*suspect`, placeholder(
			"Traçage d'un utilisateur suspect",
			"Le traçage ciblé attend la désignation du compte à suivre.")),
		entry(CatScenarios, `reconstruction.*chronologique.*incident`, incidentTimeline),
	}
	return dispatch.NewRegistry("complex", entries)
}
