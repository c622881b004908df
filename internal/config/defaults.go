package config

// Default configuration values.
const (
	DefaultOutput              = "auto"
	DefaultSampleLimit         = 100
	DefaultOutlierLimit        = 5
	DefaultTopValueLimit       = 5
	DefaultLargeTableThreshold = 1_000_000
)

// ApplyTargetDefaults fills type-dependent defaults on a target.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}
	switch t.Type {
	case "postgres":
		if t.Host == "" {
			t.Host = "localhost"
		}
		if t.Port == 0 {
			t.Port = 5432
		}
		if t.Schema == "" {
			t.Schema = "public"
		}
	case "duckdb", "sqlite":
		if t.Schema == "" {
			t.Schema = "main"
		}
	}
}
