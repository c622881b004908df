// Package config loads Kestrel configuration from defaults, the project
// config file, environment variables, and CLI flags, in ascending precedence.
// It is decoupled from CLI concerns so other tools can load the same file.
package config

import (
	"fmt"
	"strings"

	"github.com/kestrel-data/kestrel/pkg/adapter"
	"github.com/kestrel-data/kestrel/pkg/core"
)

// TargetConfig holds database target configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // duckdb, postgres, sqlite

	// File-based databases (DuckDB, SQLite)
	Path string `koanf:"path"`

	// Database name, or file path for file-based backends without Path set.
	Database string `koanf:"database"`

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	Schema string `koanf:"schema"`

	// Additional driver-specific options (e.g. sslmode for postgres).
	Options map[string]string `koanf:"options"`
}

// Validate checks the target against the adapter registry, the single source
// of truth for available backends.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}
	return nil
}

// AdapterConfig converts the target into the connection config the adapter
// layer consumes.
func (t *TargetConfig) AdapterConfig() core.AdapterConfig {
	return core.AdapterConfig{
		Type:     strings.ToLower(t.Type),
		Path:     t.Path,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Options:  t.Options,
	}
}

// ProfileConfig holds the tunable bounds of a profiling run.
type ProfileConfig struct {
	SampleLimit         int   `koanf:"sample_limit"`
	OutlierLimit        int   `koanf:"outlier_limit"`
	TopValueLimit       int   `koanf:"top_value_limit"`
	LargeTableThreshold int64 `koanf:"large_table_threshold"`
	IncludeSamples      bool  `koanf:"include_samples"`
}

// Config is the full Kestrel configuration.
type Config struct {
	Target  TargetConfig  `koanf:"target"`
	Profile ProfileConfig `koanf:"profile"`
	Verbose bool          `koanf:"verbose"`
	Output  string        `koanf:"output"` // auto, text, json
}
