// seedr generates synthetic audit trails for exercising audichat:
// an NDJSON dataset plus an optional SQL insert script. Generation is
// deterministic for a fixed seed, and known anomaly shapes can be
// injected so the anomaly handlers have something to find.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"gopkg.in/yaml.v3"
)

type seedConfig struct {
	Seed     int64  `yaml:"seed"`
	Output   string `yaml:"output"`
	SQL      string `yaml:"sql"`
	Driver   string `yaml:"driver"`
	Table    string `yaml:"table"`
	Events   int    `yaml:"events"`
	Users    int    `yaml:"users"`
	Sessions int    `yaml:"sessions"`
	Days     int    `yaml:"days"`

	Anomalies struct {
		MultiHostUsers    int `yaml:"multiHostUsers"`
		SchemaBursts      int `yaml:"schemaBursts"`
		DropCreatePairs   int `yaml:"dropCreatePairs"`
		HighVolumeBursts  int `yaml:"highVolumeBursts"`
		AfterHoursActions int `yaml:"afterHoursActions"`
	} `yaml:"anomalies"`
}

type event struct {
	DBUsername         string `json:"dbusername"`
	OSUsername         string `json:"os_username"`
	ActionName         string `json:"action_name"`
	ObjectSchema       string `json:"object_schema"`
	ObjectName         string `json:"object_name"`
	SQLText            string `json:"sql_text"`
	SQLBinds           string `json:"sql_binds,omitempty"`
	EventTimestamp     string `json:"event_timestamp"`
	SessionID          string `json:"sessionid"`
	UserHost           string `json:"userhost"`
	Terminal           string `json:"terminal"`
	AuthenticationType string `json:"authentication_type"`
	ClientProgramName  string `json:"client_program_name"`
	InstanceID         string `json:"instance_id"`
}

var (
	schemas  = []string{"RH", "FINANCE", "VENTES", "STOCK", "PAIE", "SYS"}
	actions  = []string{"SELECT", "SELECT", "SELECT", "INSERT", "UPDATE", "DELETE", "LOGON", "LOGOFF", "CREATE", "ALTER"}
	programs = []string{"sqlplus", "SQL Developer", "JDBC Thin Client", "python.exe", "toad.exe"}
	auths    = []string{"DATABASE", "DATABASE", "DATABASE", "EXTERNAL", "SYSDBA"}
)

func main() {
	configPath := flag.String("config", "", "Path to YAML generation config")
	flag.Parse()
	if *configPath == "" {
		fmt.Println("Error: --config is required")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := readConfig(*configPath)
	if err != nil {
		log.Fatalf("[FATAL] Error loading config: %v", err)
	}

	gofakeit.Seed(cfg.Seed)
	rng := rand.New(rand.NewSource(cfg.Seed))

	events := generate(cfg, rng)
	if err := writeNDJSON(cfg.Output, events); err != nil {
		log.Fatalf("[FATAL] cannot write dataset: %v", err)
	}
	log.Printf("[INFO] Dataset written: %s (%d events)", cfg.Output, len(events))

	if cfg.SQL != "" {
		if err := writeSQL(cfg, events); err != nil {
			log.Fatalf("[FATAL] cannot write SQL script: %v", err)
		}
		log.Printf("[INFO] SQL script written: %s", cfg.SQL)
	}
}

func readConfig(path string) (seedConfig, error) {
	cfg := seedConfig{
		Output:   "audit.ndjson",
		Driver:   "postgres",
		Table:    "audit_trail",
		Events:   5000,
		Users:    20,
		Sessions: 200,
		Days:     30,
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func generate(cfg seedConfig, rng *rand.Rand) []event {
	users := make([]string, cfg.Users)
	hosts := make([]string, cfg.Users)
	for i := range users {
		users[i] = strings.ToUpper(gofakeit.Username())
		hosts[i] = "WS-" + strings.ToUpper(gofakeit.LetterN(6))
	}
	end := time.Now().Truncate(time.Hour)
	start := end.AddDate(0, 0, -cfg.Days)

	events := make([]event, 0, cfg.Events)
	for i := 0; i < cfg.Events; i++ {
		u := rng.Intn(len(users))
		ts := start.Add(time.Duration(rng.Int63n(int64(end.Sub(start)))))
		// bias toward business hours
		if h := ts.Hour(); h < 8 || h > 18 {
			if rng.Float64() < 0.8 {
				ts = ts.Add(time.Duration(10-h%10) * time.Hour)
			}
		}
		action := actions[rng.Intn(len(actions))]
		schema := schemas[rng.Intn(len(schemas)-1)] // SYS reserved for injected anomalies
		object := strings.ToUpper(gofakeit.NounConcrete())
		events = append(events, event{
			DBUsername:         users[u],
			OSUsername:         strings.ToLower(users[u]),
			ActionName:         action,
			ObjectSchema:       schema,
			ObjectName:         object,
			SQLText:            sqlFor(action, schema, object),
			EventTimestamp:     ts.Format(time.RFC3339),
			SessionID:          fmt.Sprintf("%d", 100000+rng.Intn(cfg.Sessions)),
			UserHost:           hosts[u],
			Terminal:           fmt.Sprintf("pts/%d", rng.Intn(9)),
			AuthenticationType: auths[rng.Intn(len(auths))],
			ClientProgramName:  programs[rng.Intn(len(programs))],
			InstanceID:         fmt.Sprintf("%d", 1+rng.Intn(3)),
		})
	}

	events = append(events, injectAnomalies(cfg, rng, users, end)...)
	return events
}

func sqlFor(action, schema, object string) string {
	target := schema + "." + object
	switch action {
	case "SELECT":
		return "SELECT * FROM " + target + " WHERE id = :1"
	case "INSERT":
		return "INSERT INTO " + target + " VALUES (:1, :2, :3)"
	case "UPDATE":
		return "UPDATE " + target + " SET statut = :1 WHERE id = :2"
	case "DELETE":
		return "DELETE FROM " + target + " WHERE id = :1"
	case "CREATE":
		return "CREATE TABLE " + target + " (id NUMBER)"
	case "ALTER":
		return "ALTER TABLE " + target + " ADD (note VARCHAR2(200))"
	default:
		return ""
	}
}

// injectAnomalies appends the deliberate anomaly shapes the complex
// catalog is designed to find.
func injectAnomalies(cfg seedConfig, rng *rand.Rand, users []string, end time.Time) []event {
	var out []event
	day := end.AddDate(0, 0, -1).Truncate(24 * time.Hour).Add(9 * time.Hour)

	for i := 0; i < cfg.Anomalies.MultiHostUsers && len(users) > 0; i++ {
		user := users[rng.Intn(len(users))]
		for h := 0; h < 4; h++ {
			out = append(out, event{
				DBUsername: user, OSUsername: strings.ToLower(user),
				ActionName: "LOGON", EventTimestamp: day.Add(time.Duration(h) * time.Hour).Format(time.RFC3339),
				SessionID: fmt.Sprintf("9%05d", rng.Intn(99999)),
				UserHost:  fmt.Sprintf("WS-ANOM%d", h), AuthenticationType: "DATABASE",
				ClientProgramName: "sqlplus", InstanceID: "1",
			})
		}
	}

	for i := 0; i < cfg.Anomalies.SchemaBursts && len(users) > 0; i++ {
		user := users[rng.Intn(len(users))]
		session := fmt.Sprintf("8%05d", rng.Intn(99999))
		for s := 0; s < 6; s++ {
			schema := schemas[s%len(schemas)]
			out = append(out, event{
				DBUsername: user, ActionName: "UPDATE",
				ObjectSchema: schema, ObjectName: "CONFIG",
				SQLText:        "UPDATE " + schema + ".CONFIG SET valeur = :1",
				EventTimestamp: day.Add(time.Duration(s) * time.Minute).Format(time.RFC3339),
				SessionID:      session, UserHost: "WS-BURST", AuthenticationType: "DATABASE",
				ClientProgramName: "python.exe", InstanceID: "2",
			})
		}
	}

	for i := 0; i < cfg.Anomalies.DropCreatePairs && len(users) > 0; i++ {
		user := users[rng.Intn(len(users))]
		object := fmt.Sprintf("TMP_%d", i)
		session := fmt.Sprintf("7%05d", rng.Intn(99999))
		base := day.Add(time.Duration(i) * time.Hour)
		out = append(out,
			event{
				DBUsername: user, ActionName: "DROP", ObjectSchema: "STOCK", ObjectName: object,
				SQLText: "DROP TABLE STOCK." + object, EventTimestamp: base.Format(time.RFC3339),
				SessionID: session, UserHost: "WS-SEQ", AuthenticationType: "DATABASE",
				ClientProgramName: "sqlplus", InstanceID: "1",
			},
			event{
				DBUsername: user, ActionName: "CREATE", ObjectSchema: "STOCK", ObjectName: object,
				SQLText: "CREATE TABLE STOCK." + object + " (id NUMBER)", EventTimestamp: base.Add(3 * time.Minute).Format(time.RFC3339),
				SessionID: session, UserHost: "WS-SEQ", AuthenticationType: "DATABASE",
				ClientProgramName: "sqlplus", InstanceID: "1",
			},
		)
	}

	for i := 0; i < cfg.Anomalies.HighVolumeBursts && len(users) > 0; i++ {
		user := users[rng.Intn(len(users))]
		session := fmt.Sprintf("6%05d", rng.Intn(99999))
		for n := 0; n < 120; n++ {
			out = append(out, event{
				DBUsername: user, ActionName: "SELECT", ObjectSchema: "VENTES", ObjectName: "CLIENTS",
				SQLText:        "SELECT * FROM VENTES.CLIENTS WHERE id = :1",
				EventTimestamp: day.Add(time.Duration(n) * 2 * time.Second).Format(time.RFC3339),
				SessionID:      session, UserHost: "WS-VOL", AuthenticationType: "DATABASE",
				ClientProgramName: "JDBC Thin Client", InstanceID: "3",
			})
		}
	}

	night := day.Add(-7 * time.Hour)
	for i := 0; i < cfg.Anomalies.AfterHoursActions && len(users) > 0; i++ {
		user := users[rng.Intn(len(users))]
		out = append(out, event{
			DBUsername: user, ActionName: "DELETE", ObjectSchema: "PAIE", ObjectName: "SALAIRES",
			SQLText:        "DELETE FROM PAIE.SALAIRES WHERE annee = :1",
			EventTimestamp: night.Add(time.Duration(i) * time.Minute).Format(time.RFC3339),
			SessionID:      fmt.Sprintf("5%05d", rng.Intn(99999)),
			UserHost:       "WS-NIGHT", AuthenticationType: "DATABASE",
			ClientProgramName: "python.exe", InstanceID: "1",
		})
	}
	return out
}

func writeNDJSON(path string, events []event) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

// sqlEscape escapes single quotes for safe inline SQL generation.
func sqlEscape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func writeSQL(cfg seedConfig, events []event) error {
	f, err := os.Create(cfg.SQL)
	if err != nil {
		return err
	}
	defer f.Close()

	if cfg.Driver == "postgres" {
		fmt.Fprintf(f, "-- Generated audit trail for PostgreSQL\n")
		fmt.Fprintf(f, "-- Import with: psql -f %s\n\n", cfg.SQL)
	} else {
		fmt.Fprintf(f, "-- Generated audit trail for MySQL\n")
		fmt.Fprintf(f, "-- Import with: mysql < %s\n\n", cfg.SQL)
	}

	fmt.Fprintf(f, `CREATE TABLE IF NOT EXISTS %s (
    dbusername VARCHAR(128),
    os_username VARCHAR(128),
    action_name VARCHAR(64),
    object_schema VARCHAR(128),
    object_name VARCHAR(128),
    sql_text TEXT,
    sql_binds TEXT,
    event_timestamp TIMESTAMP,
    sessionid VARCHAR(32),
    userhost VARCHAR(128),
    terminal VARCHAR(32),
    authentication_type VARCHAR(32),
    client_program_name VARCHAR(128),
    instance_id VARCHAR(8)
);

`, cfg.Table)

	for _, e := range events {
		fmt.Fprintf(f,
			"INSERT INTO %s VALUES ('%s','%s','%s','%s','%s','%s','%s','%s','%s','%s','%s','%s','%s','%s');\n",
			cfg.Table,
			sqlEscape(e.DBUsername), sqlEscape(e.OSUsername), sqlEscape(e.ActionName),
			sqlEscape(e.ObjectSchema), sqlEscape(e.ObjectName), sqlEscape(e.SQLText),
			sqlEscape(e.SQLBinds), e.EventTimestamp, e.SessionID, sqlEscape(e.UserHost),
			e.Terminal, e.AuthenticationType, sqlEscape(e.ClientProgramName), e.InstanceID,
		)
	}
	return nil
}
