package classify

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Primary intent identifiers. Declaration order is the tie-break order
// for intent scoring: when two intents reach the same keyword count the
// one declared first wins.
const (
	IntentUsers       = "ANALYZE_USERS"
	IntentActions     = "ANALYZE_ACTIONS"
	IntentObjects     = "ANALYZE_OBJECTS"
	IntentSessions    = "ANALYZE_SESSIONS"
	IntentSecurity    = "ANALYZE_SECURITY"
	IntentPerformance = "ANALYZE_PERFORMANCE"
	IntentTemporal    = "ANALYZE_TEMPORAL"
	IntentUnknown     = "UNKNOWN"
)

// Modifier identifiers. Modifiers are independent of each other and of
// the primary intent.
const (
	ModFilter    = "FILTER"
	ModAggregate = "AGGREGATE"
	ModSort      = "SORT"
	ModTemporal  = "TEMPORAL"
)

type intentEntry struct {
	Name     string
	Keywords []string
}

type modifierEntry struct {
	Name     string
	Keywords []string
}

// Vocabulary holds every fixed word list the classifier matches against.
// The zero value is unusable; start from DefaultVocabulary and optionally
// merge a site dictionary with MergeDictionary.
type Vocabulary struct {
	Intents   []intentEntry
	Modifiers []modifierEntry

	SchemaColumns []string
	Actions       []string
	Programs      []string
	AuthTypes     []string
}

// DefaultVocabulary returns the built-in French/audit vocabulary.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Intents: []intentEntry{
			{IntentUsers, []string{"utilisateur", "user", "dbusername", "qui", "combien d'utilisateur"}},
			{IntentActions, []string{"action", "activité", "select", "insert", "update", "delete", "que fait"}},
			{IntentObjects, []string{"objet", "table", "schéma", "object_name", "object_schema"}},
			{IntentSessions, []string{"session", "connexion", "logon", "login"}},
			{IntentSecurity, []string{"sécurité", "suspect", "privilège", "authentification"}},
			{IntentPerformance, []string{"performance", "lent", "volume", "fréquence"}},
			{IntentTemporal, []string{"quand", "heure", "jour", "récent", "historique"}},
		},
		Modifiers: []modifierEntry{
			{ModFilter, []string{"pour", "avec", "où", "qui", "dont"}},
			{ModAggregate, []string{"combien", "nombre", "total", "somme", "moyenne"}},
			{ModSort, []string{"plus", "moins", "meilleur", "top", "classement"}},
			{ModTemporal, []string{"depuis", "entre", "pendant", "avant", "après"}},
		},
		SchemaColumns: []string{
			"id", "audit_type", "sessionid", "os_username", "userhost", "terminal",
			"authentication_type", "dbusername", "client_program_name",
			"object_schema", "object_name", "sql_text", "sql_binds",
			"event_timestamp", "action_name", "instance_id", "instance",
		},
		Actions: []string{
			"select", "insert", "update", "delete", "merge", "create", "drop",
			"alter", "grant", "revoke", "truncate", "commit", "rollback",
			"logon", "logoff", "connect", "disconnect",
		},
		Programs: []string{
			"sqlplus", "toad", "sql_developer", "plsql_developer", "jdbc",
			"odbc", "oci", "oracle_forms", "oracle_reports",
		},
		AuthTypes: []string{"password", "external", "proxy", "global", "network"},
	}
}

// timePatterns recognizes explicit day references, clock times and
// relative ranges ("depuis N", "entre X et Y") inside questions.
var timePatterns = []*regexp.Regexp{
	regexp.MustCompile(`aujourd'hui`),
	regexp.MustCompile(`\bhier\b`),
	regexp.MustCompile(`\bdemain\b`),
	regexp.MustCompile(`cette\s+semaine`),
	regexp.MustCompile(`ce\s+mois`),
	regexp.MustCompile(`cette\s+année`),
	regexp.MustCompile(`\d{1,2}h\d{0,2}`),
	regexp.MustCompile(`\d{1,2}:\d{2}`),
	regexp.MustCompile(`depuis\s+\d+`),
	regexp.MustCompile(`entre\s+.*\s+et\s+`),
}

// Dictionary is the YAML shape of an optional site vocabulary file. Each
// list extends (never replaces) the built-in vocabulary, so deployments
// can teach the classifier local program names or schema aliases.
type Dictionary struct {
	IntentKeywords map[string][]string `yaml:"intent_keywords"`
	SchemaColumns  []string            `yaml:"schema_columns"`
	Actions        []string            `yaml:"actions"`
	Programs       []string            `yaml:"programs"`
	AuthTypes      []string            `yaml:"auth_types"`
}

// LoadDictionary reads and parses a YAML vocabulary file.
func LoadDictionary(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary %s: %w", path, err)
	}
	var d Dictionary
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse dictionary %s: %w", path, err)
	}
	return &d, nil
}

// MergeDictionary appends the dictionary's entries onto the vocabulary.
// Unknown intent names in the dictionary are ignored rather than failing
// the whole load.
func (v *Vocabulary) MergeDictionary(d *Dictionary) {
	if d == nil {
		return
	}
	for i := range v.Intents {
		if extra, ok := d.IntentKeywords[v.Intents[i].Name]; ok {
			v.Intents[i].Keywords = append(v.Intents[i].Keywords, extra...)
		}
	}
	v.SchemaColumns = append(v.SchemaColumns, d.SchemaColumns...)
	v.Actions = append(v.Actions, d.Actions...)
	v.Programs = append(v.Programs, d.Programs...)
	v.AuthTypes = append(v.AuthTypes, d.AuthTypes...)
}
