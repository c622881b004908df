// Package sqlite provides a SQLite database adapter for Kestrel, backed by
// the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/kestrel-data/kestrel/pkg/adapter"
)

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// DialectName returns the SQL dialect token for this adapter.
func (a *Adapter) DialectName() string {
	return "sqlite"
}

// Connect establishes a connection to SQLite.
// Use ":memory:" as the path for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = cfg.Database
	}
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to sqlite", slog.String("path", path))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// TableMetadata retrieves metadata for a specified table. SQLite has no
// information_schema, so the PRAGMA table-valued functions are used instead.
func (a *Adapter) TableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	_, tableName := adapter.ParseQualifiedName(table, "main")

	rows, err := a.DB.QueryContext(ctx,
		`SELECT cid, name, type, "notnull", pk FROM pragma_table_info(?)`, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []adapter.Column
	for rows.Next() {
		var (
			cid     int
			col     adapter.Column
			notNull int
			pk      int
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Position = cid + 1
		col.Nullable = notNull == 0
		col.PrimaryKey = pk > 0
		col.MaxLength = declaredLength(col.Type)
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s: %w", table, adapter.ErrTableNotFound)
	}

	meta := &adapter.Metadata{
		Schema:  "main",
		Name:    tableName,
		Columns: columns,
	}

	// Foreign keys are best-effort.
	if err := a.applyForeignKeys(ctx, meta); err != nil {
		a.Logger.Debug("foreign key introspection failed", slog.String("table", tableName), slog.Any("error", err))
	}

	return meta, nil
}

func (a *Adapter) applyForeignKeys(ctx context.Context, meta *adapter.Metadata) error {
	rows, err := a.DB.QueryContext(ctx,
		`SELECT "from" FROM pragma_foreign_key_list(?)`, meta.Name)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var column string
		if err := rows.Scan(&column); err != nil {
			return err
		}
		for i := range meta.Columns {
			if meta.Columns[i].Name == column {
				meta.Columns[i].ForeignKey = true
			}
		}
	}
	return rows.Err()
}

// declaredLength extracts the declared maximum length from a type like
// VARCHAR(255). SQLite does not enforce it, but rule synthesis can still
// check against the declaration.
func declaredLength(colType string) int64 {
	open := strings.Index(colType, "(")
	closing := strings.Index(colType, ")")
	if open < 0 || closing <= open+1 {
		return 0
	}
	inner := colType[open+1 : closing]
	// Ignore precision/scale declarations like DECIMAL(10,2).
	if strings.Contains(inner, ",") {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(inner), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
