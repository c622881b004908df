package profiler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/kestrel-data/kestrel/pkg/core"
)

func (p *Profiler) rowCount(ctx context.Context, table string) (int64, error) {
	v, err := p.adapter.QueryValue(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table))
	if err != nil {
		return 0, err
	}
	n, ok := toInt64(v)
	if !ok {
		return 0, fmt.Errorf("unexpected row count value %v (%T)", v, v)
	}
	return n, nil
}

// nullCounts counts NULLs for every column in one pass. A failure degrades
// all counts to zero rather than aborting the run.
func (p *Profiler) nullCounts(ctx context.Context, logger *slog.Logger, table string, columns []string) map[string]int64 {
	exprs := make([]string, len(columns))
	for i, col := range columns {
		exprs[i] = fmt.Sprintf("SUM(CASE WHEN %s IS NULL THEN 1 ELSE 0 END)", col)
	}
	counts, err := p.queryCounts(ctx, table, columns, exprs)
	if err != nil {
		logger.Warn("null counts unavailable", slog.Any("error", err))
		return map[string]int64{}
	}
	return counts
}

// distinctCounts counts distinct values for every column in one pass.
func (p *Profiler) distinctCounts(ctx context.Context, logger *slog.Logger, table string, columns []string) map[string]int64 {
	exprs := make([]string, len(columns))
	for i, col := range columns {
		exprs[i] = fmt.Sprintf("COUNT(DISTINCT %s)", col)
	}
	counts, err := p.queryCounts(ctx, table, columns, exprs)
	if err != nil {
		logger.Warn("distinct counts unavailable", slog.Any("error", err))
		return map[string]int64{}
	}
	return counts
}

// queryCounts runs one wide aggregate with an expression per column and maps
// the results back to column names. SUM over zero rows yields NULL, which
// counts as zero.
func (p *Profiler) queryCounts(ctx context.Context, table string, columns, exprs []string) (map[string]int64, error) {
	if len(columns) == 0 {
		return map[string]int64{}, nil
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(exprs, ", "), table)
	rows, err := p.adapter.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	values := make([]any, len(columns))
	dests := make([]any, len(columns))
	for i := range values {
		dests[i] = &values[i]
	}

	counts := make(map[string]int64, len(columns))
	if rows.Next() {
		if err := rows.Scan(dests...); err != nil {
			return nil, err
		}
		for i, col := range columns {
			n, _ := toInt64(values[i])
			counts[col] = n
		}
	}
	return counts, rows.Err()
}

// duplicateCount counts fully duplicated rows across all columns, preferring
// the dialect-optimized form when one exists.
func (p *Profiler) duplicateCount(ctx context.Context, logger *slog.Logger, table string, columns []string) int64 {
	if len(columns) == 0 {
		return 0
	}
	query, ok := p.dialect.DuplicateCount(table, columns)
	if !ok {
		query = fmt.Sprintf(
			"SELECT COUNT(*) FROM (SELECT %s, COUNT(*) AS dup_count FROM %s GROUP BY %s HAVING COUNT(*) > 1) AS duplicate_groups",
			strings.Join(columns, ", "), table, strings.Join(columns, ", "))
	}
	v, err := p.adapter.QueryValue(ctx, query)
	if err != nil {
		logger.Warn("duplicate count unavailable", slog.Any("error", err))
		return 0
	}
	n, _ := toInt64(v)
	return n
}

// numericStats computes the full aggregate set for a numeric column. When the
// full query cannot run, either because the dialect lacks stddev/percentile
// fragments or because the backend rejects it, the query is retried with only
// the portable aggregates. This is the only retry path in the engine.
func (p *Profiler) numericStats(ctx context.Context, logger *slog.Logger, table, col string) *core.NumericStats {
	stats := &core.NumericStats{}

	full, err := p.buildFullNumericQuery(table, col)
	if err != nil {
		logger.Debug("full numeric stats not supported, using reduced query",
			slog.String("column", col), slog.Any("error", err))
	} else if scanErr := p.scanNumericRow(ctx, full, stats, true); scanErr == nil {
		return stats
	} else {
		logger.Debug("full numeric stats failed, retrying reduced query",
			slog.String("column", col), slog.Any("error", scanErr))
	}

	reduced := fmt.Sprintf("SELECT MIN(%[1]s), MAX(%[1]s), AVG(%[1]s), SUM(%[1]s) FROM %[2]s", col, table)
	if err := p.scanNumericRow(ctx, reduced, stats, false); err != nil {
		logger.Warn("numeric stats unavailable", slog.String("column", col), slog.Any("error", err))
	}
	return stats
}

func (p *Profiler) buildFullNumericQuery(table, col string) (string, error) {
	stddev, err := p.dialect.StdDev(col)
	if err != nil {
		return "", err
	}
	q1, err := p.dialect.Percentile(col, 0.25)
	if err != nil {
		return "", err
	}
	median, err := p.dialect.Percentile(col, 0.5)
	if err != nil {
		return "", err
	}
	q3, err := p.dialect.Percentile(col, 0.75)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"SELECT MIN(%[1]s), MAX(%[1]s), AVG(%[1]s), SUM(%[1]s), %[2]s, %[3]s, %[4]s, %[5]s FROM %[6]s",
		col, stddev, q1, median, q3, table), nil
}

func (p *Profiler) scanNumericRow(ctx context.Context, query string, stats *core.NumericStats, full bool) error {
	rows, err := p.adapter.Query(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	n := 4
	if full {
		n = 8
	}
	values := make([]any, n)
	dests := make([]any, n)
	for i := range values {
		dests[i] = &values[i]
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return sql.ErrNoRows
	}
	if err := rows.Scan(dests...); err != nil {
		return err
	}

	stats.Min = toFloat64(values[0])
	stats.Max = toFloat64(values[1])
	stats.Avg = toFloat64(values[2])
	stats.Sum = toFloat64(values[3])
	if full {
		stats.Stdev = toFloat64(values[4])
		stats.Q1 = toFloat64(values[5])
		stats.Median = toFloat64(values[6])
		stats.Q3 = toFloat64(values[7])
	}
	return rows.Err()
}

// textLengthStats computes min/max/avg string length for a text column.
func (p *Profiler) textLengthStats(ctx context.Context, logger *slog.Logger, table, col string) *core.TextLengthStats {
	stats := &core.TextLengthStats{}
	length := p.dialect.Length(col)
	query := fmt.Sprintf("SELECT MIN(%[1]s), MAX(%[1]s), AVG(%[1]s) FROM %[2]s", length, table)

	rows, err := p.adapter.Query(ctx, query)
	if err != nil {
		logger.Warn("text length stats unavailable", slog.String("column", col), slog.Any("error", err))
		return stats
	}
	defer func() { _ = rows.Close() }()

	var minVal, maxVal, avgVal any
	if rows.Next() {
		if err := rows.Scan(&minVal, &maxVal, &avgVal); err != nil {
			logger.Warn("text length stats unavailable", slog.String("column", col), slog.Any("error", err))
			return stats
		}
		stats.MinLength = toInt64Ptr(minVal)
		stats.MaxLength = toInt64Ptr(maxVal)
		stats.AvgLength = toFloat64(avgVal)
	}
	return stats
}

// textPatterns counts values matching the numeric, email, and date shapes.
// The email check is a portable LIKE; the other two need the dialect's regex
// fragment and degrade to zero when the dialect has none.
func (p *Profiler) textPatterns(ctx context.Context, logger *slog.Logger, table, col string) *core.TextPatterns {
	patterns := &core.TextPatterns{}

	patterns.EmailPatternCount = p.patternCount(ctx, logger, table, col,
		fmt.Sprintf("%s LIKE '%%@%%.%%'", col))

	if pred, err := p.dialect.RegexMatch(col, "^[0-9]+$"); err == nil {
		patterns.NumericPatternCount = p.patternCount(ctx, logger, table, col, pred)
	} else {
		logger.Debug("numeric pattern check skipped", slog.String("column", col), slog.Any("error", err))
	}
	if pred, err := p.dialect.RegexMatch(col, `^\d{4}-\d{2}-\d{2}$`); err == nil {
		patterns.DatePatternCount = p.patternCount(ctx, logger, table, col, pred)
	} else {
		logger.Debug("date pattern check skipped", slog.String("column", col), slog.Any("error", err))
	}
	return patterns
}

func (p *Profiler) patternCount(ctx context.Context, logger *slog.Logger, table, col, predicate string) int64 {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", table, predicate)
	v, err := p.adapter.QueryValue(ctx, query)
	if err != nil {
		logger.Warn("pattern count unavailable", slog.String("column", col), slog.Any("error", err))
		return 0
	}
	n, _ := toInt64(v)
	return n
}

// dateStats computes the value range of a date column. The day span uses the
// dialect's date-diff fragment and stays null when that is unavailable or the
// column has no values.
func (p *Profiler) dateStats(ctx context.Context, logger *slog.Logger, table, col string) *core.DateStats {
	stats := &core.DateStats{}
	query := fmt.Sprintf("SELECT MIN(%[1]s), MAX(%[1]s), COUNT(DISTINCT %[1]s) FROM %[2]s", col, table)

	rows, err := p.adapter.Query(ctx, query)
	if err != nil {
		logger.Warn("date stats unavailable", slog.String("column", col), slog.Any("error", err))
		return stats
	}
	defer func() { _ = rows.Close() }()

	var minVal, maxVal, distinct any
	if rows.Next() {
		if err := rows.Scan(&minVal, &maxVal, &distinct); err != nil {
			logger.Warn("date stats unavailable", slog.String("column", col), slog.Any("error", err))
			return stats
		}
		stats.MinDate = formatDateValue(minVal)
		stats.MaxDate = formatDateValue(maxVal)
		stats.DistinctCount, _ = toInt64(distinct)
	}

	if stats.MinDate == nil || stats.MaxDate == nil {
		return stats
	}

	diff, err := p.dialect.DateDiff("day", fmt.Sprintf("MIN(%s)", col), fmt.Sprintf("MAX(%s)", col))
	if err != nil {
		logger.Debug("date range skipped", slog.String("column", col), slog.Any("error", err))
		return stats
	}
	v, err := p.adapter.QueryValue(ctx, fmt.Sprintf("SELECT %s FROM %s", diff, table))
	if err != nil {
		logger.Warn("date range unavailable", slog.String("column", col), slog.Any("error", err))
		return stats
	}
	stats.DateRangeDays = toInt64Ptr(v)
	return stats
}

// frequentValue fetches the single most frequent value of a column. Date
// columns are cast to text so the value serializes uniformly. Returns nil for
// an empty table or a failing query.
func (p *Profiler) frequentValue(ctx context.Context, logger *slog.Logger, table, col string, isDate bool) *core.FrequentValue {
	expr := col
	if isDate {
		expr = fmt.Sprintf("CAST(%s AS VARCHAR)", col)
	}
	query := fmt.Sprintf(
		"SELECT %s AS value, COUNT(*) AS frequency, COUNT(*) * 100.0 / (SELECT COUNT(*) FROM %s) AS pct FROM %s GROUP BY %s ORDER BY frequency DESC LIMIT %d",
		expr, table, table, col, p.opts.TopValueLimit)

	rows, err := p.adapter.Query(ctx, query)
	if err != nil {
		logger.Warn("frequent value unavailable", slog.String("column", col), slog.Any("error", err))
		return nil
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return nil
	}
	var value, frequency, pct any
	if err := rows.Scan(&value, &frequency, &pct); err != nil {
		logger.Warn("frequent value unavailable", slog.String("column", col), slog.Any("error", err))
		return nil
	}
	fv := &core.FrequentValue{Value: normalizeValue(value)}
	fv.Frequency, _ = toInt64(frequency)
	if f := toFloat64(pct); f != nil {
		fv.Percentage = round2(*f)
	}
	return fv
}

// outliers fetches values lying more than three standard deviations from the
// mean of a numeric column. Needs the dialect stddev fragment; skipped
// silently where there is none.
func (p *Profiler) outliers(ctx context.Context, logger *slog.Logger, table, col string) []float64 {
	stddev, err := p.dialect.StdDev(col)
	if err != nil {
		logger.Debug("outlier scan skipped", slog.String("column", col), slog.Any("error", err))
		return nil
	}
	query := fmt.Sprintf(
		"WITH stats AS (SELECT AVG(%[1]s) AS avg_val, %[2]s AS stddev_val FROM %[3]s WHERE %[1]s IS NOT NULL) "+
			"SELECT %[1]s FROM %[3]s, stats "+
			"WHERE stats.stddev_val > 0 AND (%[1]s > stats.avg_val + 3 * stats.stddev_val OR %[1]s < stats.avg_val - 3 * stats.stddev_val) "+
			"LIMIT %[4]d",
		col, stddev, table, p.opts.OutlierLimit)

	rows, err := p.adapter.Query(ctx, query)
	if err != nil {
		logger.Warn("outlier scan unavailable", slog.String("column", col), slog.Any("error", err))
		return nil
	}
	defer func() { _ = rows.Close() }()

	var values []float64
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			logger.Warn("outlier scan unavailable", slog.String("column", col), slog.Any("error", err))
			return nil
		}
		if f := toFloat64(v); f != nil {
			values = append(values, *f)
		}
	}
	if err := rows.Err(); err != nil {
		logger.Warn("outlier scan unavailable", slog.String("column", col), slog.Any("error", err))
		return nil
	}
	return values
}

// samples fetches up to SampleLimit raw rows using the dialect's sampling
// construct. Only called when sample collection was explicitly requested.
func (p *Profiler) samples(ctx context.Context, logger *slog.Logger, table string) []map[string]any {
	query := p.dialect.SampleQuery(table, p.opts.SampleLimit)
	rows, err := p.adapter.Query(ctx, query)
	if err != nil {
		logger.Warn("sample collection unavailable", slog.Any("error", err))
		return nil
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		logger.Warn("sample collection unavailable", slog.Any("error", err))
		return nil
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		dests := make([]any, len(cols))
		for i := range values {
			dests[i] = &values[i]
		}
		if err := rows.Scan(dests...); err != nil {
			logger.Warn("sample collection unavailable", slog.Any("error", err))
			return nil
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		logger.Warn("sample collection unavailable", slog.Any("error", err))
		return nil
	}
	return out
}

// round2 rounds to two decimal places for percentage fields.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// toInt64 converts scanned database values to int64.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	case []byte:
		return parseInt64(string(n))
	case string:
		return parseInt64(n)
	case nil:
		return 0, true
	default:
		return 0, false
	}
}

func parseInt64(s string) (int64, bool) {
	var n int64
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		// Some drivers return aggregates as decimal strings.
		var f float64
		if _, ferr := fmt.Sscanf(s, "%g", &f); ferr != nil {
			return 0, false
		}
		return int64(f), true
	}
	return n, true
}

func toInt64Ptr(v any) *int64 {
	if v == nil {
		return nil
	}
	n, ok := toInt64(v)
	if !ok {
		return nil
	}
	return &n
}

// toFloat64 converts scanned database values to *float64, nil for NULL or
// unconvertible values.
func toFloat64(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return nil
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case int:
		f = float64(n)
	case []byte:
		if _, err := fmt.Sscanf(string(n), "%g", &f); err != nil {
			return nil
		}
	case string:
		if _, err := fmt.Sscanf(n, "%g", &f); err != nil {
			return nil
		}
	default:
		return nil
	}
	return &f
}

// formatDateValue renders a scanned date value as an ISO-8601 string.
func formatDateValue(v any) *string {
	var s string
	switch d := v.(type) {
	case nil:
		return nil
	case time.Time:
		s = d.Format(time.RFC3339)
	case []byte:
		s = string(d)
	case string:
		s = d
	default:
		s = fmt.Sprint(d)
	}
	if s == "" {
		return nil
	}
	return &s
}

// normalizeValue makes driver values JSON-friendly.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case []byte:
		return string(n)
	case time.Time:
		return n.Format(time.RFC3339)
	default:
		return v
	}
}
