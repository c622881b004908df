// Package postgres provides a PostgreSQL database adapter for Kestrel.
//
// This file registers the PostgreSQL adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/kestrel-data/kestrel/pkg/adapters/postgres"
package postgres

import (
	"log/slog"

	"github.com/kestrel-data/kestrel/pkg/adapter"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

func init() {
	adapter.Register("postgres", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
