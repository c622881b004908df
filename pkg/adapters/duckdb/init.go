// Package duckdb provides a DuckDB database adapter for Kestrel.
//
// This file registers the DuckDB adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/kestrel-data/kestrel/pkg/adapters/duckdb"
package duckdb

import (
	"log/slog"

	"github.com/kestrel-data/kestrel/pkg/adapter"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

func init() {
	adapter.Register("duckdb", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
