package validator

import (
	"testing"

	"github.com/kestrel-data/kestrel/pkg/core"
	"github.com/kestrel-data/kestrel/pkg/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ordersMetadata() *core.TableMetadata {
	return &core.TableMetadata{
		Schema: "main",
		Name:   "orders",
		Columns: []core.Column{
			{Name: "order_id", Type: "INTEGER", PrimaryKey: true, Position: 1},
			{Name: "customer_id", Type: "INTEGER", ForeignKey: true, Nullable: true, Position: 2},
			{Name: "price", Type: "DECIMAL(10,2)", Nullable: true, Position: 3},
			{Name: "email", Type: "VARCHAR(255)", Nullable: true, MaxLength: 255, Position: 4},
			{Name: "status", Type: "VARCHAR(20)", MaxLength: 20, Position: 5},
			{Name: "created_at", Type: "TIMESTAMP", Position: 6},
			{Name: "updated_at", Type: "TIMESTAMP", Nullable: true, Position: 7},
			{Name: "end_date", Type: "DATE", Nullable: true, Position: 8},
			{Name: "start_date", Type: "DATE", Nullable: true, Position: 9},
		},
	}
}

func ruleNames(rules []core.Rule) map[string]core.Rule {
	byName := make(map[string]core.Rule, len(rules))
	for _, r := range rules {
		byName[r.Name] = r
	}
	return byName
}

func TestDefaultRulesCoversHeuristicFamilies(t *testing.T) {
	d := dialect.ForToken("duckdb")
	rules := DefaultRules("orders", ordersMetadata(), d)
	byName := ruleNames(rules)

	// Every rule is runnable as-is.
	for _, r := range rules {
		assert.NotEmpty(t, r.Query, r.Name)
		assert.True(t, r.Operator.Valid(), r.Name)
	}

	expected := []string{
		"check_orders_not_empty",
		"check_orders_pk_unique",
		"check_price_positive",
		"check_price_not_zero",
		"check_status_not_null",
		"check_created_at_not_future",
		"check_created_at_reasonable_past",
		"check_end_date_end_date_order",
		"check_email_max_length",
		"check_status_not_empty_string",
		"check_email_valid_email",
		"check_price_outliers",
		"check_email_null_rate",
		"check_status_distribution",
		"check_customer_id_ref_distribution",
		"check_updated_at_after_created_at",
	}
	for _, name := range expected {
		assert.Contains(t, byName, name)
	}

	// PK and FK columns are excluded from the identifier-uniqueness family.
	assert.NotContains(t, byName, "check_order_id_unique")
	assert.NotContains(t, byName, "check_customer_id_unique")

	notEmpty := byName["check_orders_not_empty"]
	assert.Equal(t, core.OpGreaterThan, notEmpty.Operator)
	assert.Equal(t, 0, notEmpty.ExpectedValue)

	// "orders" matches the medium-size table bucket.
	outliers := byName["check_price_outliers"]
	assert.Equal(t, core.OpLessThan, outliers.Operator)
	assert.Equal(t, 20, outliers.ExpectedValue)

	// end_date pairs with the sibling start_date column.
	endOrder := byName["check_end_date_end_date_order"]
	assert.Contains(t, endOrder.Query, "end_date < start_date")
}

func TestDefaultRulesDeterministic(t *testing.T) {
	d := dialect.ForToken("duckdb")
	first := DefaultRules("orders", ordersMetadata(), d)
	second := DefaultRules("orders", ordersMetadata(), d)
	assert.Equal(t, first, second)
}

func TestDefaultRulesSkipsOutliersWithoutStddev(t *testing.T) {
	rules := DefaultRules("orders", ordersMetadata(), dialect.ForToken("sqlite"))
	for _, r := range rules {
		assert.NotContains(t, r.Name, "_outliers")
	}
}

func TestDefaultRulesSkipsSignedDeltaColumns(t *testing.T) {
	meta := &core.TableMetadata{
		Name: "ledger",
		Columns: []core.Column{
			{Name: "balance", Type: "DECIMAL(12,2)", Nullable: true, Position: 1},
			{Name: "quantity", Type: "INTEGER", Nullable: true, Position: 2},
		},
	}
	byName := ruleNames(DefaultRules("ledger", meta, dialect.ForToken("duckdb")))
	assert.NotContains(t, byName, "check_balance_positive")
	assert.Contains(t, byName, "check_quantity_positive")
}

func TestDefaultRulesReferenceTableSize(t *testing.T) {
	meta := &core.TableMetadata{
		Name:    "status_lookup",
		Columns: []core.Column{{Name: "status_code", Type: "VARCHAR(10)", MaxLength: 10, Position: 1}},
	}
	byName := ruleNames(DefaultRules("status_lookup", meta, dialect.ForToken("duckdb")))

	require.Contains(t, byName, "check_status_lookup_ref_table_size")
	rule := byName["check_status_lookup_ref_table_size"]
	assert.Equal(t, core.OpLessThan, rule.Operator)
	assert.Equal(t, 1000, rule.ExpectedValue)
}

func TestGuessStartDateColumn(t *testing.T) {
	columns := []core.Column{
		{Name: "start_date", Type: "DATE"},
		{Name: "end_date", Type: "DATE"},
		{Name: "created_time", Type: "TIMESTAMP"},
	}

	tests := []struct {
		endColumn string
		want      string
	}{
		// Direct term substitution finds the sibling column.
		{"end_date", "start_date"},
		// No opened_date/issue_date sibling: first start-ish date column wins.
		{"closed_date", "start_date"},
		{"expiry_date", "start_date"},
	}

	for _, tt := range tests {
		t.Run(tt.endColumn, func(t *testing.T) {
			assert.Equal(t, tt.want, guessStartDateColumn(tt.endColumn, columns))
		})
	}

	// Without a start_date column the fallback scans for any start-ish
	// date-ish name.
	assert.Equal(t, "created_time", guessStartDateColumn("closed_date", []core.Column{
		{Name: "created_time", Type: "TIMESTAMP"},
		{Name: "closed_date", Type: "DATE"},
	}))

	// No plausible start column at all: fall back to the end column itself.
	assert.Equal(t, "finished", guessStartDateColumn("finished", nil))
}

func TestOutlierThresholdBuckets(t *testing.T) {
	tests := []struct {
		table string
		want  int
	}{
		{"transaction_log", 50},
		{"fact_sales", 50},
		{"orders", 20},
		{"customer", 20},
		{"currencies", 5},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			assert.Equal(t, tt.want, outlierThreshold(tt.table))
		})
	}
}
