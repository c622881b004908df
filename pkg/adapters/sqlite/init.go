// Package sqlite provides a SQLite database adapter for Kestrel.
//
// This file registers the SQLite adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/kestrel-data/kestrel/pkg/adapters/sqlite"
package sqlite

import (
	"log/slog"

	"github.com/kestrel-data/kestrel/pkg/adapter"

	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

func init() {
	adapter.Register("sqlite", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
