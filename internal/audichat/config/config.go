package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type LoggingCfg struct {
	Level string `mapstructure:"level"`
}

// DataCfg describes where the audit dataset comes from.
// Source is either "ndjson" (Path points at the file) or "sql"
// (Driver is "postgres" or "mysql", DSN is the connection string).
type DataCfg struct {
	Source string `mapstructure:"source"`
	Path   string `mapstructure:"path"`
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Table  string `mapstructure:"table"`
}

type ServerCfg struct {
	Addr string `mapstructure:"addr"`
}

// DictionaryCfg points at an optional YAML vocabulary file that extends
// the built-in classifier vocabularies (synonyms, program names, ...).
type DictionaryCfg struct {
	File string `mapstructure:"file"`
}

type Config struct {
	Version    string        `mapstructure:"version"`
	Data       DataCfg       `mapstructure:"data"`
	Server     ServerCfg     `mapstructure:"server"`
	Dictionary DictionaryCfg `mapstructure:"dictionary"`
	Logging    LoggingCfg    `mapstructure:"logging"`
}

var cfg *Config

// Load populates global config from a viper instance
func Load(v *viper.Viper) error {
	// set defaults
	v.SetDefault("version", "0.1")
	v.SetDefault("data.source", "ndjson")
	v.SetDefault("data.table", "audit_trail")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("logging.level", "info")

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	cfg = &c
	return nil
}

func Get() *Config {
	if cfg == nil {
		cfg = &Config{}
	}
	return cfg
}
