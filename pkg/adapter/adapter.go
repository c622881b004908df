// Package adapter provides database adapter interfaces and implementations
// for Kestrel's profiling and validation engines.
//
// This package contains the public contract that all database adapters must
// implement. Concrete adapter implementations are in pkg/adapters/
// subdirectories.
package adapter

import (
	"context"

	"github.com/kestrel-data/kestrel/pkg/core"
)

// Type aliases for the core contract types so adapter implementations only
// need this import.
type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Column is an alias for core.Column.
	Column = core.Column

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata

	// Rows is an alias for core.Rows.
	Rows = core.Rows
)

// Adapter defines the interface that all database adapters must implement.
// It provides methods for connecting to databases, executing SQL, and
// retrieving catalog metadata. One adapter instance owns one connection and
// serves one logical unit of work at a time.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// QueryValue executes a SQL statement and returns the first column of
	// the first row, or nil when the query returns no rows.
	QueryValue(ctx context.Context, sql string) (any, error)

	// TableMetadata retrieves catalog metadata for a named table: column
	// names, declared types, nullability, and primary/foreign-key flags.
	TableMetadata(ctx context.Context, table string) (*Metadata, error)

	// DialectName returns the SQL dialect token for this adapter
	// (e.g. "duckdb", "postgres"). Used to select the fragment set.
	DialectName() string
}
