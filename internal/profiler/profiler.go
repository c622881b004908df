// Package profiler builds data-quality profiles of database tables.
//
// One Profiler call produces one complete Profile. Every metric is
// independently fault-isolated: a failing aggregate query degrades that
// metric to null/zero instead of aborting the run. Only structural failures
// (table not found, row count query failing) abort the whole call.
package profiler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kestrel-data/kestrel/internal/drift"
	"github.com/kestrel-data/kestrel/pkg/adapter"
	"github.com/kestrel-data/kestrel/pkg/core"
	"github.com/kestrel-data/kestrel/pkg/dialect"
)

// Default bounds for the optional and bounded profile sections.
const (
	DefaultSampleLimit         = 100
	DefaultOutlierLimit        = 5
	DefaultTopValueLimit       = 5
	DefaultLargeTableThreshold = 1_000_000
)

// Options controls the optional and bounded parts of a profiling run.
type Options struct {
	// IncludeSamples enables fetching raw rows into the profile. Off by
	// default: row data never leaves the backend unless explicitly asked for.
	IncludeSamples bool

	// SampleLimit bounds the number of sample rows fetched.
	SampleLimit int

	// OutlierLimit bounds the number of outlier values kept per column.
	OutlierLimit int

	// TopValueLimit bounds the frequent-values query.
	TopValueLimit int

	// LargeTableThreshold disables the per-column frequent-value scan for
	// tables with more rows than this.
	LargeTableThreshold int64
}

func (o *Options) applyDefaults() {
	if o.SampleLimit <= 0 {
		o.SampleLimit = DefaultSampleLimit
	}
	if o.OutlierLimit <= 0 {
		o.OutlierLimit = DefaultOutlierLimit
	}
	if o.TopValueLimit <= 0 {
		o.TopValueLimit = DefaultTopValueLimit
	}
	if o.LargeTableThreshold <= 0 {
		o.LargeTableThreshold = DefaultLargeTableThreshold
	}
}

// Profiler computes quality profiles for tables reachable through one
// adapter. It issues queries strictly sequentially and holds no internal
// locks; concurrent runs against the same table are the caller's problem.
type Profiler struct {
	adapter adapter.Adapter
	dialect *dialect.Dialect
	logger  *slog.Logger
	opts    Options

	// now is swappable for tests.
	now func() time.Time
}

// New creates a Profiler for the given adapter. The dialect fragment set is
// selected once from the adapter's dialect token; unrecognized tokens fall
// back to the generic dialect. If logger is nil, a discard logger is used.
func New(a adapter.Adapter, opts Options, logger *slog.Logger) *Profiler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts.applyDefaults()
	return &Profiler{
		adapter: a,
		dialect: dialect.ForToken(a.DialectName()),
		logger:  logger,
		opts:    opts,
		now:     time.Now,
	}
}

// Profile profiles a table for completeness, uniqueness, distribution, and
// numeric statistics. When historical is non-nil the result also carries
// anomalies and schema shifts relative to it.
func (p *Profiler) Profile(ctx context.Context, table string, historical *core.Profile) (*core.Profile, error) {
	logger := p.logger.With(
		slog.String("run_id", uuid.NewString()),
		slog.String("table", table),
	)
	logger.Info("starting profiling run", slog.String("dialect", p.dialect.Name))

	meta, err := p.adapter.TableMetadata(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("introspecting table %s: %w", table, err)
	}
	columns := meta.ColumnNames()

	numericCols, textCols, dateCols := p.classify(meta)

	rowCount, err := p.rowCount(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("counting rows of %s: %w", table, err)
	}
	logger.Debug("row count", slog.Int64("rows", rowCount))

	nullCounts := p.nullCounts(ctx, logger, table, columns)
	distinctCounts := p.distinctCounts(ctx, logger, table, columns)

	profile := &core.Profile{
		Table:           table,
		Timestamp:       p.now().Format(time.RFC3339),
		RowCount:        rowCount,
		DuplicateCount:  p.duplicateCount(ctx, logger, table, columns),
		Completeness:    buildCompleteness(columns, nullCounts, distinctCounts, rowCount),
		NumericStats:    map[string]*core.NumericStats{},
		TextPatterns:    map[string]*core.TextPatterns{},
		TextLengthStats: map[string]*core.TextLengthStats{},
		DateStats:       map[string]*core.DateStats{},
		FrequentValues:  map[string]*core.FrequentValue{},
		Outliers:        map[string][]float64{},
		Anomalies:       []core.Anomaly{},
		SchemaShifts:    []core.SchemaShift{},
		Trends:          core.NewTrends(),
	}

	for _, col := range numericCols {
		profile.NumericStats[col] = p.numericStats(ctx, logger, table, col)
	}
	for _, col := range textCols {
		profile.TextLengthStats[col] = p.textLengthStats(ctx, logger, table, col)
		profile.TextPatterns[col] = p.textPatterns(ctx, logger, table, col)
	}
	for _, col := range dateCols {
		profile.DateStats[col] = p.dateStats(ctx, logger, table, col)
	}

	if rowCount <= p.opts.LargeTableThreshold {
		dateSet := toSet(dateCols)
		for _, col := range columns {
			if fv := p.frequentValue(ctx, logger, table, col, dateSet[col]); fv != nil {
				profile.FrequentValues[col] = fv
			}
		}
	} else {
		logger.Debug("skipping frequent values, table over threshold",
			slog.Int64("threshold", p.opts.LargeTableThreshold))
	}

	for _, col := range numericCols {
		if vals := p.outliers(ctx, logger, table, col); len(vals) > 0 {
			profile.Outliers[col] = vals
		}
	}

	if p.opts.IncludeSamples {
		profile.Samples = p.samples(ctx, logger, table)
	}

	if historical != nil {
		profile.Anomalies, profile.SchemaShifts = drift.Compare(profile, historical)
		logger.Info("drift comparison done",
			slog.Int("anomalies", len(profile.Anomalies)),
			slog.Int("schema_shifts", len(profile.SchemaShifts)))
	}

	logger.Info("profiling run complete")
	return profile, nil
}

// classify buckets columns by dialect type predicates. Columns matching no
// predicate only appear in completeness and frequent values.
func (p *Profiler) classify(meta *core.TableMetadata) (numeric, text, date []string) {
	for _, col := range meta.Columns {
		switch {
		case p.dialect.IsNumericType(col.Type):
			numeric = append(numeric, col.Name)
		case p.dialect.IsDateType(col.Type):
			date = append(date, col.Name)
		case p.dialect.IsTextType(col.Type):
			text = append(text, col.Name)
		}
	}
	return numeric, text, date
}

// buildCompleteness assembles the per-column completeness map. Percentages
// are rounded to 2 decimals and are 0 for an empty table.
func buildCompleteness(columns []string, nulls, distincts map[string]int64, rowCount int64) map[string]*core.ColumnCompleteness {
	completeness := make(map[string]*core.ColumnCompleteness, len(columns))
	for _, col := range columns {
		c := &core.ColumnCompleteness{
			Nulls:         nulls[col],
			DistinctCount: distincts[col],
		}
		if rowCount > 0 {
			c.NullPercentage = round2(float64(c.Nulls) / float64(rowCount) * 100)
			c.DistinctPercentage = round2(float64(c.DistinctCount) / float64(rowCount) * 100)
		}
		completeness[col] = c
	}
	return completeness
}

func toSet(cols []string) map[string]bool {
	set := make(map[string]bool, len(cols))
	for _, c := range cols {
		set[c] = true
	}
	return set
}
