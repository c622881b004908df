package validator

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/kestrel-data/kestrel/internal/testutil"
	"github.com/kestrel-data/kestrel/pkg/adapter"
	"github.com/kestrel-data/kestrel/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdapter struct {
	adapter.BaseSQLAdapter
}

func (f *fakeAdapter) Connect(context.Context, adapter.Config) error { return nil }
func (f *fakeAdapter) DialectName() string                           { return "duckdb" }
func (f *fakeAdapter) TableMetadata(context.Context, string) (*core.TableMetadata, error) {
	return nil, assert.AnError
}

func newFakeAdapter(t *testing.T) (*fakeAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	fa := &fakeAdapter{}
	fa.DB = db
	return fa, mock
}

func scalarRows(value any) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"value"}).AddRow(value)
}

func TestRunEvaluatesOperators(t *testing.T) {
	tests := []struct {
		name     string
		actual   any
		operator core.Operator
		expected any
		valid    bool
	}{
		{"equals pass", int64(0), core.OpEquals, 0, true},
		{"equals fail", int64(3), core.OpEquals, 0, false},
		{"equals numeric coercion", int64(5), core.OpEquals, 5.0, true},
		{"equals string", "active", core.OpEquals, "active", true},
		{"not_equals pass", int64(3), core.OpNotEquals, 0, true},
		{"not_equals fail", int64(0), core.OpNotEquals, 0, false},
		{"greater_than pass", int64(10), core.OpGreaterThan, 0, true},
		{"greater_than fail on equal", int64(0), core.OpGreaterThan, 0, false},
		{"less_than pass", 3.5, core.OpLessThan, 5, true},
		{"greater_or_equal pass on equal", int64(5), core.OpGreaterOrEqual, 5, true},
		{"less_or_equal fail", int64(6), core.OpLessOrEqual, 5, false},
		{"between inclusive lower", int64(10), core.OpBetween, []any{10, 20}, true},
		{"between inclusive upper", int64(20), core.OpBetween, []any{10, 20}, true},
		{"between outside", int64(21), core.OpBetween, []any{10, 20}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa, mock := newFakeAdapter(t)
			mock.ExpectQuery("SELECT 1").WillReturnRows(scalarRows(tt.actual))

			results := NewRunner(fa, testutil.NewTestLogger(t)).Run(context.Background(), []core.Rule{{
				Name:          "probe",
				Query:         "SELECT 1",
				Operator:      tt.operator,
				ExpectedValue: tt.expected,
			}})

			require.Len(t, results, 1)
			assert.Empty(t, results[0].Error)
			assert.Equal(t, tt.valid, results[0].IsValid)
		})
	}
}

func TestRunCapturesQueryErrorAndContinues(t *testing.T) {
	fa, mock := newFakeAdapter(t)
	mock.ExpectQuery("SELECT broken").WillReturnError(assert.AnError)
	mock.ExpectQuery("SELECT 1").WillReturnRows(scalarRows(int64(0)))

	rules := []core.Rule{
		{Name: "broken_rule", Query: "SELECT broken"},
		{Name: "working_rule", Query: "SELECT 1"},
	}
	results := NewRunner(fa, testutil.NewTestLogger(t)).Run(context.Background(), rules)

	require.Len(t, results, 2)
	assert.Equal(t, "broken_rule", results[0].RuleName)
	assert.False(t, results[0].IsValid)
	assert.NotEmpty(t, results[0].Error)
	assert.Nil(t, results[0].ActualValue)

	assert.Equal(t, "working_rule", results[1].RuleName)
	assert.True(t, results[1].IsValid)
	assert.Empty(t, results[1].Error)
}

func TestRunAppliesRuleDefaults(t *testing.T) {
	fa, mock := newFakeAdapter(t)
	mock.ExpectQuery("SELECT COUNT(*) FROM t").WillReturnRows(scalarRows(int64(0)))

	results := NewRunner(fa, testutil.NewTestLogger(t)).Run(context.Background(), []core.Rule{{
		Name:  "bare",
		Query: "SELECT COUNT(*) FROM t",
	}})

	require.Len(t, results, 1)
	assert.True(t, results[0].IsValid)
	assert.Equal(t, "Validation rule: bare", results[0].Description)
	assert.Equal(t, 0, results[0].ExpectedValue)
}

func TestRunRejectsRuleWithoutQuery(t *testing.T) {
	fa, _ := newFakeAdapter(t)

	results := NewRunner(fa, testutil.NewTestLogger(t)).Run(context.Background(), []core.Rule{{Name: "empty"}})
	require.Len(t, results, 1)
	assert.False(t, results[0].IsValid)
	assert.Equal(t, "rule has no query", results[0].Error)
}

func TestRunRejectsUnknownOperator(t *testing.T) {
	fa, _ := newFakeAdapter(t)

	results := NewRunner(fa, testutil.NewTestLogger(t)).Run(context.Background(), []core.Rule{{
		Name: "bad", Query: "SELECT 1", Operator: "approximately",
	}})
	require.Len(t, results, 1)
	assert.False(t, results[0].IsValid)
	assert.Contains(t, results[0].Error, "approximately")
}

func TestRunBetweenRejectsMalformedBounds(t *testing.T) {
	tests := []struct {
		name     string
		expected any
	}{
		{"not a list", 5},
		{"wrong arity", []any{1, 2, 3}},
		{"out of order", []any{20, 10}},
		{"non-numeric bound", []any{"low", 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa, mock := newFakeAdapter(t)
			mock.ExpectQuery("SELECT 1").WillReturnRows(scalarRows(int64(5)))

			results := NewRunner(fa, testutil.NewTestLogger(t)).Run(context.Background(), []core.Rule{{
				Name: "bad_between", Query: "SELECT 1",
				Operator: core.OpBetween, ExpectedValue: tt.expected,
			}})
			require.Len(t, results, 1)
			assert.False(t, results[0].IsValid)
			assert.NotEmpty(t, results[0].Error)
		})
	}
}

func TestRunNilScalarFromEmptyResult(t *testing.T) {
	fa, mock := newFakeAdapter(t)
	mock.ExpectQuery("SELECT missing").WillReturnRows(sqlmock.NewRows([]string{"value"}))

	results := NewRunner(fa, testutil.NewTestLogger(t)).Run(context.Background(), []core.Rule{{
		Name: "nil_actual", Query: "SELECT missing",
		Operator: core.OpEquals, ExpectedValue: 0,
	}})
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Error)
	assert.False(t, results[0].IsValid)
}
