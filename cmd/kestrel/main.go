package main

import (
	"os"

	"github.com/kestrel-data/kestrel/internal/cli"

	// Register the bundled driver adapters.
	_ "github.com/kestrel-data/kestrel/pkg/adapters/duckdb"
	_ "github.com/kestrel-data/kestrel/pkg/adapters/postgres"
	_ "github.com/kestrel-data/kestrel/pkg/adapters/sqlite"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
