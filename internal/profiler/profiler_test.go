package profiler

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/kestrel-data/kestrel/internal/testutil"
	"github.com/kestrel-data/kestrel/pkg/adapter"
	"github.com/kestrel-data/kestrel/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter runs queries against a sqlmock connection and serves canned
// table metadata.
type fakeAdapter struct {
	adapter.BaseSQLAdapter
	meta  *core.TableMetadata
	token string
}

func (f *fakeAdapter) Connect(_ context.Context, cfg adapter.Config) error {
	f.Cfg = cfg
	return nil
}

func (f *fakeAdapter) DialectName() string { return f.token }

func (f *fakeAdapter) TableMetadata(_ context.Context, table string) (*core.TableMetadata, error) {
	if f.meta == nil {
		return nil, assert.AnError
	}
	return f.meta, nil
}

func newFakeAdapter(t *testing.T, token string, meta *core.TableMetadata) (*fakeAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	fa := &fakeAdapter{meta: meta, token: token}
	fa.DB = db
	return fa, mock
}

func scalarRows(value any) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"value"}).AddRow(value)
}

func TestProfileFullRun(t *testing.T) {
	meta := &core.TableMetadata{
		Schema: "main",
		Name:   "orders",
		Columns: []core.Column{
			{Name: "amount", Type: "DOUBLE", Position: 1},
			{Name: "name", Type: "VARCHAR", Position: 2},
			{Name: "created_at", Type: "DATE", Position: 3},
		},
	}
	fa, mock := newFakeAdapter(t, "duckdb", meta)

	mock.ExpectQuery("SELECT COUNT(*) FROM orders").WillReturnRows(scalarRows(100))

	mock.ExpectQuery("SELECT SUM(CASE WHEN amount IS NULL THEN 1 ELSE 0 END), SUM(CASE WHEN name IS NULL THEN 1 ELSE 0 END), SUM(CASE WHEN created_at IS NULL THEN 1 ELSE 0 END) FROM orders").
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c"}).AddRow(5, 0, 0))

	mock.ExpectQuery("SELECT COUNT(DISTINCT amount), COUNT(DISTINCT name), COUNT(DISTINCT created_at) FROM orders").
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c"}).AddRow(60, 90, 30))

	mock.ExpectQuery("SELECT COUNT(*) FROM (SELECT COUNT(*) AS dup_count FROM orders GROUP BY ALL HAVING COUNT(*) > 1) AS duplicates").
		WillReturnRows(scalarRows(2))

	mock.ExpectQuery("SELECT MIN(amount), MAX(amount), AVG(amount), SUM(amount), STDDEV(amount), PERCENTILE_CONT(0.25) WITHIN GROUP (ORDER BY amount), PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY amount), PERCENTILE_CONT(0.75) WITHIN GROUP (ORDER BY amount) FROM orders").
		WillReturnRows(sqlmock.NewRows([]string{"min", "max", "avg", "sum", "stdev", "q1", "med", "q3"}).
			AddRow(1.5, 999.0, 42.5, 4250.0, 12.3, 10.0, 40.0, 70.0))

	mock.ExpectQuery("SELECT MIN(LENGTH(name)), MAX(LENGTH(name)), AVG(LENGTH(name)) FROM orders").
		WillReturnRows(sqlmock.NewRows([]string{"min", "max", "avg"}).AddRow(1, 40, 12.5))

	mock.ExpectQuery("SELECT COUNT(*) FROM orders WHERE name LIKE '%@%.%'").WillReturnRows(scalarRows(3))
	mock.ExpectQuery("SELECT COUNT(*) FROM orders WHERE name ~ '^[0-9]+$'").WillReturnRows(scalarRows(7))
	mock.ExpectQuery(`SELECT COUNT(*) FROM orders WHERE name ~ '^\d{4}-\d{2}-\d{2}$'`).WillReturnRows(scalarRows(1))

	mock.ExpectQuery("SELECT MIN(created_at), MAX(created_at), COUNT(DISTINCT created_at) FROM orders").
		WillReturnRows(sqlmock.NewRows([]string{"min", "max", "distinct"}).
			AddRow("2026-01-01", "2026-03-01", 30))
	mock.ExpectQuery("SELECT DATEDIFF('day', MIN(created_at), MAX(created_at)) FROM orders").
		WillReturnRows(scalarRows(59))

	mock.ExpectQuery("SELECT amount AS value, COUNT(*) AS frequency, COUNT(*) * 100.0 / (SELECT COUNT(*) FROM orders) AS pct FROM orders GROUP BY amount ORDER BY frequency DESC LIMIT 5").
		WillReturnRows(sqlmock.NewRows([]string{"value", "frequency", "pct"}).AddRow(9.99, 12, 12.0))
	mock.ExpectQuery("SELECT name AS value, COUNT(*) AS frequency, COUNT(*) * 100.0 / (SELECT COUNT(*) FROM orders) AS pct FROM orders GROUP BY name ORDER BY frequency DESC LIMIT 5").
		WillReturnRows(sqlmock.NewRows([]string{"value", "frequency", "pct"}).AddRow("widget", 20, 20.0))
	mock.ExpectQuery("SELECT CAST(created_at AS VARCHAR) AS value, COUNT(*) AS frequency, COUNT(*) * 100.0 / (SELECT COUNT(*) FROM orders) AS pct FROM orders GROUP BY created_at ORDER BY frequency DESC LIMIT 5").
		WillReturnRows(sqlmock.NewRows([]string{"value", "frequency", "pct"}).AddRow("2026-01-15", 8, 8.0))

	mock.ExpectQuery("WITH stats AS (SELECT AVG(amount) AS avg_val, STDDEV(amount) AS stddev_val FROM orders WHERE amount IS NOT NULL) SELECT amount FROM orders, stats WHERE stats.stddev_val > 0 AND (amount > stats.avg_val + 3 * stats.stddev_val OR amount < stats.avg_val - 3 * stats.stddev_val) LIMIT 5").
		WillReturnRows(sqlmock.NewRows([]string{"amount"}).AddRow(999.0))

	p := New(fa, Options{}, testutil.NewTestLogger(t))
	p.now = func() time.Time { return time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC) }

	profile, err := p.Profile(context.Background(), "orders", nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, "orders", profile.Table)
	assert.Equal(t, "2026-08-30T10:00:00Z", profile.Timestamp)
	assert.Equal(t, int64(100), profile.RowCount)
	assert.Equal(t, int64(2), profile.DuplicateCount)

	require.Contains(t, profile.Completeness, "amount")
	assert.Equal(t, int64(5), profile.Completeness["amount"].Nulls)
	assert.Equal(t, 5.0, profile.Completeness["amount"].NullPercentage)
	assert.Equal(t, int64(60), profile.Completeness["amount"].DistinctCount)
	assert.Equal(t, 60.0, profile.Completeness["amount"].DistinctPercentage)

	require.Contains(t, profile.NumericStats, "amount")
	stats := profile.NumericStats["amount"]
	require.NotNil(t, stats.Min)
	assert.Equal(t, 1.5, *stats.Min)
	require.NotNil(t, stats.Stdev)
	assert.Equal(t, 12.3, *stats.Stdev)
	require.NotNil(t, stats.Median)
	assert.Equal(t, 40.0, *stats.Median)

	require.Contains(t, profile.TextLengthStats, "name")
	require.NotNil(t, profile.TextLengthStats["name"].MaxLength)
	assert.Equal(t, int64(40), *profile.TextLengthStats["name"].MaxLength)

	require.Contains(t, profile.TextPatterns, "name")
	assert.Equal(t, int64(3), profile.TextPatterns["name"].EmailPatternCount)
	assert.Equal(t, int64(7), profile.TextPatterns["name"].NumericPatternCount)
	assert.Equal(t, int64(1), profile.TextPatterns["name"].DatePatternCount)

	require.Contains(t, profile.DateStats, "created_at")
	ds := profile.DateStats["created_at"]
	require.NotNil(t, ds.MinDate)
	assert.Equal(t, "2026-01-01", *ds.MinDate)
	assert.Equal(t, int64(30), ds.DistinctCount)
	require.NotNil(t, ds.DateRangeDays)
	assert.Equal(t, int64(59), *ds.DateRangeDays)

	require.Contains(t, profile.FrequentValues, "name")
	assert.Equal(t, "widget", profile.FrequentValues["name"].Value)
	assert.Equal(t, int64(20), profile.FrequentValues["name"].Frequency)
	assert.Equal(t, 20.0, profile.FrequentValues["name"].Percentage)

	assert.Equal(t, []float64{999.0}, profile.Outliers["amount"])

	assert.Empty(t, profile.Anomalies)
	assert.Empty(t, profile.SchemaShifts)
	assert.NotNil(t, profile.Anomalies)
	assert.NotNil(t, profile.SchemaShifts)
	assert.Nil(t, profile.Samples)
}

func TestProfileReducedNumericPathWithoutStddev(t *testing.T) {
	meta := &core.TableMetadata{
		Schema:  "main",
		Name:    "metrics",
		Columns: []core.Column{{Name: "score", Type: "INTEGER", Position: 1}},
	}
	fa, mock := newFakeAdapter(t, "sqlite", meta)

	mock.ExpectQuery("SELECT COUNT(*) FROM metrics").WillReturnRows(scalarRows(10))
	mock.ExpectQuery("SELECT SUM(CASE WHEN score IS NULL THEN 1 ELSE 0 END) FROM metrics").
		WillReturnRows(scalarRows(0))
	mock.ExpectQuery("SELECT COUNT(DISTINCT score) FROM metrics").WillReturnRows(scalarRows(10))
	mock.ExpectQuery("SELECT COUNT(*) FROM (SELECT score, COUNT(*) AS dup_count FROM metrics GROUP BY score HAVING COUNT(*) > 1) AS duplicate_groups").
		WillReturnRows(scalarRows(0))

	// sqlite has no stddev/percentile fragments, so only the reduced
	// aggregate query runs and no outlier scan is attempted.
	mock.ExpectQuery("SELECT MIN(score), MAX(score), AVG(score), SUM(score) FROM metrics").
		WillReturnRows(sqlmock.NewRows([]string{"min", "max", "avg", "sum"}).AddRow(1, 10, 5.5, 55))

	mock.ExpectQuery("SELECT score AS value, COUNT(*) AS frequency, COUNT(*) * 100.0 / (SELECT COUNT(*) FROM metrics) AS pct FROM metrics GROUP BY score ORDER BY frequency DESC LIMIT 5").
		WillReturnRows(sqlmock.NewRows([]string{"value", "frequency", "pct"}).AddRow(1, 1, 10.0))

	p := New(fa, Options{}, testutil.NewTestLogger(t))
	profile, err := p.Profile(context.Background(), "metrics", nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	stats := profile.NumericStats["score"]
	require.NotNil(t, stats)
	require.NotNil(t, stats.Min)
	assert.Equal(t, 1.0, *stats.Min)
	require.NotNil(t, stats.Sum)
	assert.Equal(t, 55.0, *stats.Sum)
	assert.Nil(t, stats.Stdev)
	assert.Nil(t, stats.Q1)
	assert.Nil(t, stats.Median)
	assert.Nil(t, stats.Q3)
	assert.Empty(t, profile.Outliers)
}

func TestProfileMetricFailureDegradesNotAborts(t *testing.T) {
	meta := &core.TableMetadata{
		Schema:  "main",
		Name:    "events",
		Columns: []core.Column{{Name: "payload", Type: "JSON", Position: 1}},
	}
	fa, mock := newFakeAdapter(t, "duckdb", meta)

	mock.ExpectQuery("SELECT COUNT(*) FROM events").WillReturnRows(scalarRows(50))
	mock.ExpectQuery("SELECT SUM(CASE WHEN payload IS NULL THEN 1 ELSE 0 END) FROM events").
		WillReturnError(assert.AnError)
	mock.ExpectQuery("SELECT COUNT(DISTINCT payload) FROM events").WillReturnRows(scalarRows(48))
	mock.ExpectQuery("SELECT COUNT(*) FROM (SELECT COUNT(*) AS dup_count FROM events GROUP BY ALL HAVING COUNT(*) > 1) AS duplicates").
		WillReturnError(assert.AnError)
	mock.ExpectQuery("SELECT payload AS value, COUNT(*) AS frequency, COUNT(*) * 100.0 / (SELECT COUNT(*) FROM events) AS pct FROM events GROUP BY payload ORDER BY frequency DESC LIMIT 5").
		WillReturnError(assert.AnError)

	p := New(fa, Options{}, testutil.NewTestLogger(t))
	profile, err := p.Profile(context.Background(), "events", nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, int64(50), profile.RowCount)
	assert.Equal(t, int64(0), profile.DuplicateCount)
	assert.Equal(t, int64(0), profile.Completeness["payload"].Nulls)
	assert.Equal(t, int64(48), profile.Completeness["payload"].DistinctCount)
	assert.Empty(t, profile.FrequentValues)
}

func TestProfileRowCountFailureAborts(t *testing.T) {
	meta := &core.TableMetadata{
		Schema:  "main",
		Name:    "orders",
		Columns: []core.Column{{Name: "id", Type: "INTEGER", Position: 1}},
	}
	fa, mock := newFakeAdapter(t, "duckdb", meta)
	mock.ExpectQuery("SELECT COUNT(*) FROM orders").WillReturnError(assert.AnError)

	p := New(fa, Options{}, testutil.NewTestLogger(t))
	_, err := p.Profile(context.Background(), "orders", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "counting rows")
}

func TestProfileUnknownTableAborts(t *testing.T) {
	fa, _ := newFakeAdapter(t, "duckdb", nil)

	p := New(fa, Options{}, testutil.NewTestLogger(t))
	_, err := p.Profile(context.Background(), "missing", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "introspecting table")
}

func TestProfileSkipsFrequentValuesOverThreshold(t *testing.T) {
	meta := &core.TableMetadata{
		Schema:  "main",
		Name:    "big",
		Columns: []core.Column{{Name: "payload", Type: "JSON", Position: 1}},
	}
	fa, mock := newFakeAdapter(t, "duckdb", meta)

	mock.ExpectQuery("SELECT COUNT(*) FROM big").WillReturnRows(scalarRows(1000))
	mock.ExpectQuery("SELECT SUM(CASE WHEN payload IS NULL THEN 1 ELSE 0 END) FROM big").
		WillReturnRows(scalarRows(0))
	mock.ExpectQuery("SELECT COUNT(DISTINCT payload) FROM big").WillReturnRows(scalarRows(900))
	mock.ExpectQuery("SELECT COUNT(*) FROM (SELECT COUNT(*) AS dup_count FROM big GROUP BY ALL HAVING COUNT(*) > 1) AS duplicates").
		WillReturnRows(scalarRows(0))

	p := New(fa, Options{LargeTableThreshold: 500}, testutil.NewTestLogger(t))
	profile, err := p.Profile(context.Background(), "big", nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, profile.FrequentValues)
}

func TestProfileIncludeSamples(t *testing.T) {
	meta := &core.TableMetadata{
		Schema:  "main",
		Name:    "events",
		Columns: []core.Column{{Name: "payload", Type: "JSON", Position: 1}},
	}
	fa, mock := newFakeAdapter(t, "duckdb", meta)

	mock.ExpectQuery("SELECT COUNT(*) FROM events").WillReturnRows(scalarRows(2))
	mock.ExpectQuery("SELECT SUM(CASE WHEN payload IS NULL THEN 1 ELSE 0 END) FROM events").
		WillReturnRows(scalarRows(0))
	mock.ExpectQuery("SELECT COUNT(DISTINCT payload) FROM events").WillReturnRows(scalarRows(2))
	mock.ExpectQuery("SELECT COUNT(*) FROM (SELECT COUNT(*) AS dup_count FROM events GROUP BY ALL HAVING COUNT(*) > 1) AS duplicates").
		WillReturnRows(scalarRows(0))
	mock.ExpectQuery("SELECT payload AS value, COUNT(*) AS frequency, COUNT(*) * 100.0 / (SELECT COUNT(*) FROM events) AS pct FROM events GROUP BY payload ORDER BY frequency DESC LIMIT 5").
		WillReturnRows(sqlmock.NewRows([]string{"value", "frequency", "pct"}).AddRow("a", 1, 50.0))
	mock.ExpectQuery("SELECT * FROM events LIMIT 2").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte("a")).AddRow([]byte("b")))

	p := New(fa, Options{IncludeSamples: true, SampleLimit: 2}, testutil.NewTestLogger(t))
	profile, err := p.Profile(context.Background(), "events", nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, profile.Samples, 2)
	assert.Equal(t, "a", profile.Samples[0]["payload"])
	assert.Equal(t, "b", profile.Samples[1]["payload"])
}

func TestProfileWithHistoricalRunsDrift(t *testing.T) {
	meta := &core.TableMetadata{
		Schema:  "main",
		Name:    "events",
		Columns: []core.Column{{Name: "payload", Type: "JSON", Position: 1}},
	}
	fa, mock := newFakeAdapter(t, "duckdb", meta)

	mock.ExpectQuery("SELECT COUNT(*) FROM events").WillReturnRows(scalarRows(200))
	mock.ExpectQuery("SELECT SUM(CASE WHEN payload IS NULL THEN 1 ELSE 0 END) FROM events").
		WillReturnRows(scalarRows(0))
	mock.ExpectQuery("SELECT COUNT(DISTINCT payload) FROM events").WillReturnRows(scalarRows(180))
	mock.ExpectQuery("SELECT COUNT(*) FROM (SELECT COUNT(*) AS dup_count FROM events GROUP BY ALL HAVING COUNT(*) > 1) AS duplicates").
		WillReturnRows(scalarRows(0))
	mock.ExpectQuery("SELECT payload AS value, COUNT(*) AS frequency, COUNT(*) * 100.0 / (SELECT COUNT(*) FROM events) AS pct FROM events GROUP BY payload ORDER BY frequency DESC LIMIT 5").
		WillReturnRows(sqlmock.NewRows([]string{"value", "frequency", "pct"}).AddRow("a", 4, 2.0))

	historical := &core.Profile{
		Table:        "events",
		RowCount:     100,
		Completeness: map[string]*core.ColumnCompleteness{"payload": {}},
	}

	p := New(fa, Options{}, testutil.NewTestLogger(t))
	profile, err := p.Profile(context.Background(), "events", historical)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, profile.Anomalies, 1)
	assert.Equal(t, "row_count", profile.Anomalies[0].Type)
	assert.Equal(t, core.SeverityHigh, profile.Anomalies[0].Severity)
}
