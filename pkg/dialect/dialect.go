// Package dialect abstracts SQL-syntax differences across database backends.
//
// A Dialect is a record of pure SQL-fragment builders for a fixed capability
// set (percentile, regex match, date difference, string length, standard
// deviation, row sampling, array aggregation) plus type-classification
// keyword sets. Dialects are selected once per connection by token and passed
// explicitly to the profiling and validation engines. Nothing in this package
// executes SQL.
package dialect

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupported is returned when a dialect does not implement a capability.
// Callers are expected to catch it and fall back to a reduced computation.
var ErrUnsupported = errors.New("capability not supported by dialect")

// Dialect is a strategy record of SQL-fragment builders for one backend
// family. A nil function field means the capability is not implemented.
type Dialect struct {
	Name string

	PercentileFunc     func(column string, fraction float64) string
	RegexMatchFunc     func(column, pattern string) string
	DateDiffFunc       func(unit, start, end string) string
	LengthFunc         func(column string) string
	StdDevFunc         func(column string) string
	SampleFunc         func(table string, limit int) string
	AggregateArrayFunc func(column string) string

	// DuplicateCountFunc is an optional dialect-optimized duplicate-row
	// query. Engines fall back to a generic nested-aggregate form when nil.
	DuplicateCountFunc func(table string, columns []string) string

	// Classification keyword sets, matched case-insensitively as substrings
	// of the declared column type. Empty sets fall back to the defaults.
	NumericTypes []string
	DateTypes    []string
	TextTypes    []string
}

// Default classification keyword sets, shared by every dialect that does not
// override them.
var (
	defaultNumericTypes = []string{"int", "float", "numeric", "double", "decimal", "number", "real"}
	defaultDateTypes    = []string{"date", "time", "timestamp"}
	defaultTextTypes    = []string{"varchar", "char", "text", "string"}
)

// Percentile returns the fragment computing the given percentile (0-1) of a
// column.
func (d *Dialect) Percentile(column string, fraction float64) (string, error) {
	if d.PercentileFunc == nil {
		return "", fmt.Errorf("%s percentile: %w", d.Name, ErrUnsupported)
	}
	return d.PercentileFunc(column, fraction), nil
}

// RegexMatch returns the predicate fragment matching a column against a
// regular expression pattern.
func (d *Dialect) RegexMatch(column, pattern string) (string, error) {
	if d.RegexMatchFunc == nil {
		return "", fmt.Errorf("%s regex match: %w", d.Name, ErrUnsupported)
	}
	return d.RegexMatchFunc(column, pattern), nil
}

// DateDiff returns the fragment computing the difference between two date
// expressions in the given unit (day, month, year).
func (d *Dialect) DateDiff(unit, start, end string) (string, error) {
	if d.DateDiffFunc == nil {
		return "", fmt.Errorf("%s date diff: %w", d.Name, ErrUnsupported)
	}
	return d.DateDiffFunc(unit, start, end), nil
}

// StdDev returns the fragment computing the standard deviation of a column.
func (d *Dialect) StdDev(column string) (string, error) {
	if d.StdDevFunc == nil {
		return "", fmt.Errorf("%s stddev: %w", d.Name, ErrUnsupported)
	}
	return d.StdDevFunc(column), nil
}

// AggregateArray returns the fragment aggregating column values into an
// array (or the closest construct the backend offers).
func (d *Dialect) AggregateArray(column string) (string, error) {
	if d.AggregateArrayFunc == nil {
		return "", fmt.Errorf("%s aggregate array: %w", d.Name, ErrUnsupported)
	}
	return d.AggregateArrayFunc(column), nil
}

// Length returns the fragment computing the string length of a column.
// LENGTH() is portable enough to serve as the default.
func (d *Dialect) Length(column string) string {
	if d.LengthFunc == nil {
		return fmt.Sprintf("LENGTH(%s)", column)
	}
	return d.LengthFunc(column)
}

// SampleQuery returns a query selecting up to limit rows from a table, using
// the backend's efficient sampling construct when one exists.
func (d *Dialect) SampleQuery(table string, limit int) string {
	if d.SampleFunc == nil {
		return fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, limit)
	}
	return d.SampleFunc(table, limit)
}

// DuplicateCount returns the dialect-optimized duplicate-row query and true,
// or "" and false when the dialect has no optimized form.
func (d *Dialect) DuplicateCount(table string, columns []string) (string, bool) {
	if d.DuplicateCountFunc == nil {
		return "", false
	}
	return d.DuplicateCountFunc(table, columns), true
}

// IsNumericType reports whether a declared column type is numeric.
func (d *Dialect) IsNumericType(colType string) bool {
	return matchesAny(colType, d.NumericTypes, defaultNumericTypes)
}

// IsDateType reports whether a declared column type is a date/time type.
func (d *Dialect) IsDateType(colType string) bool {
	return matchesAny(colType, d.DateTypes, defaultDateTypes)
}

// IsTextType reports whether a declared column type is a text type.
func (d *Dialect) IsTextType(colType string) bool {
	return matchesAny(colType, d.TextTypes, defaultTextTypes)
}

func matchesAny(colType string, keywords, fallback []string) bool {
	if len(keywords) == 0 {
		keywords = fallback
	}
	colType = strings.ToLower(colType)
	for _, kw := range keywords {
		if strings.Contains(colType, kw) {
			return true
		}
	}
	return false
}
