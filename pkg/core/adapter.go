package core

import "database/sql"

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string
}

// Column represents a column in a database table as reported by catalog
// introspection.
type Column struct {
	Name       string
	Type       string
	Nullable   bool
	PrimaryKey bool
	ForeignKey bool
	Position   int

	// MaxLength is the declared maximum length for text columns, 0 when the
	// backend does not declare one.
	MaxLength int64
}

// TableMetadata holds metadata about a database table.
type TableMetadata struct {
	Schema  string
	Name    string
	Columns []Column
}

// ColumnNames returns the column names in catalog order.
func (m *TableMetadata) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, col := range m.Columns {
		names[i] = col.Name
	}
	return names
}

// PrimaryKeys returns the names of the primary-key columns in catalog order.
func (m *TableMetadata) PrimaryKeys() []string {
	var keys []string
	for _, col := range m.Columns {
		if col.PrimaryKey {
			keys = append(keys, col.Name)
		}
	}
	return keys
}

// ForeignKeys returns the names of the foreign-key columns in catalog order.
func (m *TableMetadata) ForeignKeys() []string {
	var keys []string
	for _, col := range m.Columns {
		if col.ForeignKey {
			keys = append(keys, col.Name)
		}
	}
	return keys
}

// Rows wraps sql.Rows to provide a consistent interface across adapters.
type Rows struct {
	*sql.Rows
}
