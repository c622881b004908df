package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kestrel-data/kestrel/pkg/core"
)

// ErrTableNotFound reports that catalog introspection matched no table.
// Adapters wrap it with the table name; match with errors.Is.
var ErrTableNotFound = errors.New("table not found")

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Exec, Query, and QueryValue implementations.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.AdapterConfig
	Logger *slog.Logger
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	_, err := b.DB.ExecContext(ctx, sqlStr)
	if err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a SQL statement that returns rows.
func (b *BaseSQLAdapter) Query(ctx context.Context, sqlStr string) (*core.Rows, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := b.DB.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &core.Rows{Rows: rows}, nil
}

// QueryValue executes a SQL statement and returns the first column of the
// first row. Returns nil when the query yields no rows.
func (b *BaseSQLAdapter) QueryValue(ctx context.Context, sqlStr string) (any, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	var value any
	err := b.DB.QueryRowContext(ctx, sqlStr).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to execute scalar query: %w", err)
	}
	// Drivers commonly hand back []byte for text values.
	if bs, ok := value.([]byte); ok {
		return string(bs), nil
	}
	return value, nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// ParseQualifiedName splits a table reference into schema and name, using
// the given default schema if none is specified.
func ParseQualifiedName(table, defaultSchema string) (schema, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return defaultSchema, table
}

// TableMetadataCommon provides a shared implementation of TableMetadata over
// information_schema, used by backends that expose it. The placeholder
// function formats positional bind parameters ("?" or "$N").
func (b *BaseSQLAdapter) TableMetadataCommon(ctx context.Context, table, defaultSchema string, placeholder func(int) string) (*core.TableMetadata, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	schema, tableName := ParseQualifiedName(table, defaultSchema)

	// The placeholders come from the adapter and are safe (? or $N).
	//nolint:gosec
	query := fmt.Sprintf(`
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position,
			COALESCE(character_maximum_length, 0)
		FROM information_schema.columns
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position
	`, placeholder(1), placeholder(2))

	rows, err := b.DB.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var col core.Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position, &col.MaxLength); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s: %w", table, ErrTableNotFound)
	}

	meta := &core.TableMetadata{
		Schema:  schema,
		Name:    tableName,
		Columns: columns,
	}

	// Key constraints are best-effort: not every backend exposes them.
	if err := b.applyKeyConstraints(ctx, meta, placeholder); err != nil && b.Logger != nil {
		b.Logger.Debug("key constraint introspection failed", slog.String("table", table), slog.Any("error", err))
	}

	return meta, nil
}

// applyKeyConstraints marks primary-key and foreign-key columns using
// information_schema constraint tables.
func (b *BaseSQLAdapter) applyKeyConstraints(ctx context.Context, meta *core.TableMetadata, placeholder func(int) string) error {
	//nolint:gosec
	query := fmt.Sprintf(`
		SELECT kcu.column_name, tc.constraint_type
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.table_schema = %s AND tc.table_name = %s
			AND tc.constraint_type IN ('PRIMARY KEY', 'FOREIGN KEY')
	`, placeholder(1), placeholder(2))

	rows, err := b.DB.QueryContext(ctx, query, meta.Schema, meta.Name)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var column, constraint string
		if err := rows.Scan(&column, &constraint); err != nil {
			return err
		}
		for i := range meta.Columns {
			if meta.Columns[i].Name != column {
				continue
			}
			switch constraint {
			case "PRIMARY KEY":
				meta.Columns[i].PrimaryKey = true
			case "FOREIGN KEY":
				meta.Columns[i].ForeignKey = true
			}
		}
	}
	return rows.Err()
}
