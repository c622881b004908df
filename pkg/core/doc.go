// Package core defines the shared language of the Kestrel system.
//
// This package contains:
//   - Domain entities (Profile, Rule, Result, Anomaly, SchemaShift)
//   - Service contracts consumed by the engines (adapter config, table metadata)
//
// The Golden Rule: pkg/core imports ONLY the stdlib.
// All other packages depend on core, not the reverse.
package core
