package catalog

import (
	"regexp"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/dispatch"
)

// entry is a convenience constructor keeping the catalog tables compact.
func entry(category, pattern string, h dispatch.HandlerFunc) dispatch.Entry {
	return dispatch.Entry{
		Category: category,
		Pattern:  regexp.MustCompile("(?i)" + pattern),
		Handler:  h,
	}
}

// Core catalog category names, in traversal order.
const (
	CatFiltres       = "filtres"
	CatRegroupement  = "regroupement"
	CatTemporelles   = "temporelles"
	CatSQL           = "sql"
	CatSecurite      = "securite"
	CatPerformance   = "performance"
	CatMetier        = "metier"
	CatInvestigation = "investigation"
	CatStatistiques  = "statistiques"
	CatAvancees      = "avancees"
)

// NewCoreRegistry builds the core catalog: simple filter, grouping,
// temporal, SQL, security, performance and business questions. Entry
// order is part of the contract — dispatch returns the first match in
// this exact order.
func NewCoreRegistry() *dispatch.Registry {
	entries := []dispatch.Entry{
		// filtrage simple sur une colonne
		entry(CatFiltres, `entrées.*audit.*dbusername.*['"]([^'"]+)['"]`, filterByDBUsername),
		entry(CatFiltres, `actions.*os_username.*['"]([^'"]+)['"]`, filterByOSUsername),
		entry(CatFiltres, `terminal.*['"]([^'"]+)['"]`, filterByTerminal),
		entry(CatFiltres, `session.*sessionid.*(\d+)`, filterBySession),
		entry(CatFiltres, `client_program_name.*['"]([^'"]+)['"]`, filterByClientProgram),
		entry(CatFiltres, `object_schema.*['"]([^'"]+)['"]`, filterByObjectSchema),
		entry(CatFiltres, `requêtes.*contenant.*['"]([^'"]+)['"]`, filterBySQLContent),
		entry(CatFiltres, `userhost.*['"]([^'"]+)['"]`, filterByUserHost),
		entry(CatFiltres, `authentication_type.*['"]([^'"]+)['"]`, filterByAuthType),

		// regroupements et classements
		entry(CatRegroupement, `combien.*actions.*dbusername`, groupByDBUsername),
		entry(CatRegroupement, `classe.*utilisateur.*sessions`, groupUsersBySessions),
		entry(CatRegroupement, `nombre.*requêtes.*authentification`, groupByAuthType),
		entry(CatRegroupement, `top.*client_program_name`, topClientPrograms),
		entry(CatRegroupement, `statistiques.*object_schema`, groupByObjectSchema),
		entry(CatRegroupement, `objet.*distincts.*utilisateur`, objectsPerUser),
		entry(CatRegroupement, `classement.*os.*utilisés`, groupByOSUsername),
		entry(CatRegroupement, `actions.*action_name`, groupByActionName),
		entry(CatRegroupement, `répartition.*utilisateur`, groupByDBUsername),

		// questions temporelles
		entry(CatTemporelles, `actions.*aujourd'hui`, filterByToday),
		entry(CatTemporelles, `requêtes.*hier`, filterByYesterday),
		entry(CatTemporelles, `tendance.*horaire`, hourlyTrend),
		entry(CatTemporelles, `pic.*activité.*heure`, peakActivity),
		entry(CatTemporelles, `jours.*semaine.*actions`, weeklyActivity),
		entry(CatTemporelles, `heure.*fréquente.*delete`, deleteHourPattern),
		entry(CatTemporelles, `connexions.*jour.*mois`, monthlyConnections),
		entry(CatTemporelles, `durée.*session`, sessionDuration),

		// texte SQL
		entry(CatSQL, `requêtes.*contenant.*drop`, sqlWithKeyword("DROP")),
		entry(CatSQL, `requêtes.*commencent.*update`, sqlStartingWith("UPDATE")),
		entry(CatSQL, `requêtes.*table.*([a-z_]+)`, sqlOnTable),
		entry(CatSQL, `select.*utilisateur`, selectQueriesPerUser),
		entry(CatSQL, `insert.*schéma.*([a-z_]+)`, insertOnSchema),
		entry(CatSQL, `requêtes.*merge`, sqlWithKeyword("MERGE")),
		entry(CatSQL, `bind.*:1`, sqlWithBinds),
		entry(CatSQL, `requêtes.*sans.*where`, sqlWithoutWhere),

		// sécurité
		entry(CatSecurite, `connexions.*échouées`, failedConnections),
		entry(CatSecurite, `authentification.*external`, externalAuth),
		entry(CatSecurite, `utilisateur.*inconnu`, unknownUsers),
		entry(CatSecurite, `sessions.*suspectes`, suspiciousSessions),
		entry(CatSecurite, `drop.*table`, dropTableActions),
		entry(CatSecurite, `hors.*heures.*travail`, afterHoursActivity),
		entry(CatSecurite, `grant.*revoke`, privilegeActions),
		entry(CatSecurite, `alter.*system`, systemAlterations),

		// performance
		entry(CatPerformance, `requêtes.*seconde.*heure`, queriesPerHour),
		entry(CatPerformance, `utilisateur.*requêtes.*minute`, heavyUsers),
		entry(CatPerformance, `client_program_name.*requêtes`, topClientsByQueries),
		entry(CatPerformance, `actions.*instance_id`, actionsPerInstance),
		entry(CatPerformance, `temps.*moyen.*requêtes`, placeholder(
			"Temps moyen des requêtes",
			"Le journal d'audit ne porte pas de durée d'exécution par requête.")),
		entry(CatPerformance, `charge.*horaire.*instance`, instanceHourlyLoad),

		// métier
		entry(CatMetier, `utilisateur.*données.*rh`, schemaAccessUsers("RH")),
		entry(CatMetier, `modifications.*finance`, schemaModifications("FINANCE")),
		entry(CatMetier, `objet.*consultés.*jamais.*modifiés`, readOnlyObjects),
		entry(CatMetier, `tables.*plus.*modifiées`, mostModifiedTables),
		entry(CatMetier, `insert.*utilisateur`, actionCountByUser("INSERT")),
		entry(CatMetier, `truncate.*utilisateur`, actionCountByUser("TRUNCATE")),

		// investigation
		entry(CatInvestigation, `modifié.*objet.*([a-z_]+)`, whoModifiedObject),
		entry(CatInvestigation, `dernière.*modification.*([a-z_]+)`, lastModificationOn),
		entry(CatInvestigation, `requêtes.*sysdba`, sysdbaActions),
		entry(CatInvestigation, `utilisateur.*plusieurs.*machines`, multiMachineUsers),
		entry(CatInvestigation, `programme.*inconnu`, unknownPrograms),
		entry(CatInvestigation, `supprimé.*données.*hier`, deletionsYesterday),

		// statistiques
		entry(CatStatistiques, `nombre.*total.*entrées`, totalEntries),
		entry(CatStatistiques, `pourcentage.*select.*dml`, selectVsDML),
		entry(CatStatistiques, `moyenne.*requêtes.*session`, avgQueriesPerSession),
		entry(CatStatistiques, `répartition.*actions.*type`, actionTypeDistribution),
		entry(CatStatistiques, `taux.*utilisation.*authentication_type`, authTypeUsage),
		entry(CatStatistiques, `répartition.*connexions.*userhost`, hostDistribution),

		// analyses avancées
		entry(CatAvancees, `sessions.*simultanées.*utilisateur`, simultaneousSessions),
		entry(CatAvancees, `corrélation.*client_program_name.*actions`, programActionCorrelation),
		entry(CatAvancees, `pic.*activité.*événement`, eventPeakAnalysis),
		entry(CatAvancees, `séquence.*fréquente.*actions`, commonActionSequences),
		entry(CatAvancees, `patterns.*attaque.*sql`, sqlInjectionPatterns),
		entry(CatAvancees, `objet.*système`, systemObjectAccess),
	}
	return dispatch.NewRegistry("core", entries)
}
