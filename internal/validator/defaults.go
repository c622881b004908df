package validator

import (
	"fmt"
	"strings"

	"github.com/kestrel-data/kestrel/pkg/core"
	"github.com/kestrel-data/kestrel/pkg/dialect"
)

// Column-name heuristics for rule synthesis. All matching is lowercase
// substring matching; the heuristics are advisory and deliberately allow
// overlapping rules on the same column.
var (
	uniqueNamePatterns = []string{"id", "code", "number", "uuid", "guid", "key", "hash", "identifier"}

	negativeAllowedPatterns = []string{
		"balance", "difference", "delta", "change", "temperature",
		"coordinate", "adjustment", "net", "profit_loss", "margin",
	}

	nonZeroPatterns = []string{
		"price", "amount", "total", "cost", "rate", "fee", "tax",
		"revenue", "salary", "income", "expense",
	}

	pastDatePatterns = []string{
		"birth", "created", "start", "registered", "joined", "purchase",
		"transaction", "order", "payment", "issued", "shipped", "received",
	}

	endDatePatterns = []string{"end", "finish", "completed", "closed", "expiry", "expiration"}

	importantColumnPatterns = []string{
		"name", "description", "address", "city", "state", "country", "postal", "zip",
		"email", "phone", "status", "type", "category", "price", "cost", "amount",
	}

	categoricalPatterns = []string{
		"status", "type", "category", "level", "tier", "class", "grade",
		"priority", "severity", "state", "region", "stage", "gender",
	}

	referenceTablePatterns = []string{"ref", "type", "status", "category", "lookup"}

	updatedPatterns = []string{"updated", "modified", "edited", "changed"}
	createdPatterns = []string{"created", "inserted", "added"}
)

// DefaultRules synthesizes validation rules from table structure alone. The
// synthesis is pure and deterministic: rules appear in a fixed order per
// heuristic family, and no query executes until the rules are run.
func DefaultRules(table string, meta *core.TableMetadata, d *dialect.Dialect) []core.Rule {
	g := generator{table: table, meta: meta, dialect: d}

	g.notEmpty()
	g.primaryKeyUnique()
	g.identifierUnique()
	g.notNull()
	g.nonNegative()
	g.notZero()
	g.dateRanges()
	g.textConstraints()
	g.outliers()
	g.referenceTableSize()
	g.nullRates()
	g.categoricalDistribution()
	g.foreignKeyDistribution()
	g.updatedAfterCreated()

	return g.rules
}

type generator struct {
	table   string
	meta    *core.TableMetadata
	dialect *dialect.Dialect
	rules   []core.Rule
}

func (g *generator) add(name, description, query string, op core.Operator, expected any) {
	g.rules = append(g.rules, core.Rule{
		Name:          name,
		Description:   description,
		Query:         query,
		Operator:      op,
		ExpectedValue: expected,
	})
}

func matchesPattern(name string, patterns []string) bool {
	name = strings.ToLower(name)
	for _, p := range patterns {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

func (g *generator) notEmpty() {
	g.add(
		fmt.Sprintf("check_%s_not_empty", g.table),
		fmt.Sprintf("Ensure %s table has at least one row", g.table),
		fmt.Sprintf("SELECT COUNT(*) FROM %s", g.table),
		core.OpGreaterThan, 0)
}

func (g *generator) primaryKeyUnique() {
	pks := g.meta.PrimaryKeys()
	if len(pks) == 0 {
		return
	}
	cols := strings.Join(pks, ", ")
	g.add(
		fmt.Sprintf("check_%s_pk_unique", g.table),
		fmt.Sprintf("Ensure primary key (%s) has no duplicates", cols),
		fmt.Sprintf(
			"SELECT COUNT(*) FROM (SELECT %s, COUNT(*) AS dup_count FROM %s GROUP BY %s HAVING COUNT(*) > 1) AS duplicates",
			cols, g.table, cols),
		core.OpEquals, 0)
}

// identifierUnique covers non-key columns whose names suggest uniqueness.
func (g *generator) identifierUnique() {
	for _, col := range g.meta.Columns {
		if col.PrimaryKey || col.ForeignKey {
			continue
		}
		if !matchesPattern(col.Name, uniqueNamePatterns) {
			continue
		}
		g.add(
			fmt.Sprintf("check_%s_unique", col.Name),
			fmt.Sprintf("Check that %s values are unique", col.Name),
			fmt.Sprintf(
				"SELECT COUNT(*) FROM (SELECT %[1]s, COUNT(*) AS dup_count FROM %[2]s WHERE %[1]s IS NOT NULL GROUP BY %[1]s HAVING COUNT(*) > 1) AS duplicates",
				col.Name, g.table),
			core.OpEquals, 0)
	}
}

func (g *generator) notNull() {
	for _, col := range g.meta.Columns {
		if col.Nullable || col.PrimaryKey {
			continue
		}
		g.add(
			fmt.Sprintf("check_%s_not_null", col.Name),
			fmt.Sprintf("Ensure %s has no NULL values", col.Name),
			fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s IS NULL", g.table, col.Name),
			core.OpEquals, 0)
	}
}

// nonNegative skips unsigned types and columns whose names suggest signed
// deltas.
func (g *generator) nonNegative() {
	for _, col := range g.meta.Columns {
		if !g.dialect.IsNumericType(col.Type) || strings.Contains(strings.ToLower(col.Type), "unsigned") {
			continue
		}
		if matchesPattern(col.Name, negativeAllowedPatterns) {
			continue
		}
		g.add(
			fmt.Sprintf("check_%s_positive", col.Name),
			fmt.Sprintf("Ensure %s has no negative values", col.Name),
			fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s < 0", g.table, col.Name),
			core.OpEquals, 0)
	}
}

func (g *generator) notZero() {
	for _, col := range g.meta.Columns {
		if !g.dialect.IsNumericType(col.Type) || !matchesPattern(col.Name, nonZeroPatterns) {
			continue
		}
		g.add(
			fmt.Sprintf("check_%s_not_zero", col.Name),
			fmt.Sprintf("Ensure %s has no zero values", col.Name),
			fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = 0", g.table, col.Name),
			core.OpEquals, 0)
	}
}

// dateRanges adds no-future-date checks for historical-ish columns, a
// pre-1970 sanity check for every date column, and end-after-start ordering
// where a plausible start column exists.
func (g *generator) dateRanges() {
	for _, col := range g.meta.Columns {
		if !g.dialect.IsDateType(col.Type) {
			continue
		}
		if matchesPattern(col.Name, pastDatePatterns) {
			g.add(
				fmt.Sprintf("check_%s_not_future", col.Name),
				fmt.Sprintf("Ensure %s contains no future dates", col.Name),
				fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s > CURRENT_DATE", g.table, col.Name),
				core.OpEquals, 0)
		}
		g.add(
			fmt.Sprintf("check_%s_reasonable_past", col.Name),
			fmt.Sprintf("Ensure %s contains no unreasonably old dates", col.Name),
			fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s < '1970-01-01'", g.table, col.Name),
			core.OpEquals, 0)
		if matchesPattern(col.Name, endDatePatterns) {
			start := guessStartDateColumn(col.Name, g.meta.Columns)
			g.add(
				fmt.Sprintf("check_%s_end_date_order", col.Name),
				fmt.Sprintf("Ensure %s occurs after any start date (if applicable)", col.Name),
				fmt.Sprintf(
					"SELECT COUNT(*) FROM %[1]s WHERE %[2]s IS NOT NULL AND %[3]s IS NOT NULL AND %[2]s < %[3]s",
					g.table, col.Name, start),
				core.OpEquals, 0)
		}
	}
}

// textConstraints covers declared max length, required non-empty strings, and
// shape checks for email, phone, and postal columns.
func (g *generator) textConstraints() {
	for _, col := range g.meta.Columns {
		if !g.dialect.IsTextType(col.Type) {
			continue
		}
		name := strings.ToLower(col.Name)

		if col.MaxLength > 0 {
			g.add(
				fmt.Sprintf("check_%s_max_length", col.Name),
				fmt.Sprintf("Ensure %s does not exceed max length (%d)", col.Name, col.MaxLength),
				fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s > %d",
					g.table, g.dialect.Length(col.Name), col.MaxLength),
				core.OpEquals, 0)
		}
		if !col.Nullable {
			g.add(
				fmt.Sprintf("check_%s_not_empty_string", col.Name),
				fmt.Sprintf("Ensure %s has no empty strings", col.Name),
				fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ''", g.table, col.Name),
				core.OpEquals, 0)
		}
		if strings.Contains(name, "email") {
			g.add(
				fmt.Sprintf("check_%s_valid_email", col.Name),
				fmt.Sprintf("Ensure %s contains valid email format", col.Name),
				fmt.Sprintf(
					"SELECT COUNT(*) FROM %[1]s WHERE %[2]s IS NOT NULL AND %[2]s NOT LIKE '%%@%%.%%'",
					g.table, col.Name),
				core.OpEquals, 0)
		}
		if strings.Contains(name, "phone") || strings.Contains(name, "mobile") {
			if pred, err := g.dialect.RegexMatch(col.Name, `(\+)?[0-9][0-9 ()-]+`); err == nil {
				g.add(
					fmt.Sprintf("check_%s_valid_phone", col.Name),
					fmt.Sprintf("Ensure %s contains valid phone number format", col.Name),
					fmt.Sprintf("SELECT COUNT(*) FROM %[1]s WHERE %[2]s IS NOT NULL AND NOT %[3]s",
						g.table, col.Name, pred),
					core.OpEquals, 0)
			}
		}
		if strings.Contains(name, "zip") || strings.Contains(name, "postal") {
			g.add(
				fmt.Sprintf("check_%s_valid_postal", col.Name),
				fmt.Sprintf("Ensure %s follows postal/zip code patterns", col.Name),
				fmt.Sprintf("SELECT COUNT(*) FROM %[1]s WHERE %[2]s IS NOT NULL AND %[3]s < 3",
					g.table, col.Name, g.dialect.Length(fmt.Sprintf("TRIM(%s)", col.Name))),
				core.OpEquals, 0)
		}
	}
}

// outliers bounds the number of values beyond three standard deviations per
// numeric column, with a looser bound for tables whose names suggest volume.
// Dialects without a stddev fragment get no outlier rules.
func (g *generator) outliers() {
	threshold := outlierThreshold(g.table)
	for _, col := range g.meta.Columns {
		if !g.dialect.IsNumericType(col.Type) {
			continue
		}
		stddev, err := g.dialect.StdDev(col.Name)
		if err != nil {
			continue
		}
		g.add(
			fmt.Sprintf("check_%s_outliers", col.Name),
			fmt.Sprintf("Check for extreme outliers in %s (> 3 std deviations)", col.Name),
			fmt.Sprintf(
				"WITH stats AS (SELECT AVG(%[1]s) AS avg_val, %[2]s AS stddev_val FROM %[3]s WHERE %[1]s IS NOT NULL) "+
					"SELECT COUNT(*) FROM %[3]s, stats WHERE %[1]s > stats.avg_val + 3 * stats.stddev_val OR %[1]s < stats.avg_val - 3 * stats.stddev_val",
				col.Name, stddev, g.table),
			core.OpLessThan, threshold)
	}
}

func (g *generator) referenceTableSize() {
	if !matchesPattern(g.table, referenceTablePatterns) {
		return
	}
	g.add(
		fmt.Sprintf("check_%s_ref_table_size", g.table),
		fmt.Sprintf("Ensure reference table %s has a reasonable number of rows", g.table),
		fmt.Sprintf("SELECT COUNT(*) FROM %s", g.table),
		core.OpLessThan, 1000)
}

// nullRates bounds the null percentage of important-looking nullable columns.
func (g *generator) nullRates() {
	for _, col := range g.meta.Columns {
		if col.PrimaryKey || !col.Nullable {
			continue
		}
		if !matchesPattern(col.Name, importantColumnPatterns) {
			continue
		}
		g.add(
			fmt.Sprintf("check_%s_null_rate", col.Name),
			fmt.Sprintf("Ensure %s null rate is below acceptable threshold", col.Name),
			fmt.Sprintf(
				"SELECT SUM(CASE WHEN %s IS NULL THEN 1 ELSE 0 END) * 100.0 / NULLIF(COUNT(*), 0) FROM %s",
				col.Name, g.table),
			core.OpLessThan, 25.0)
	}
}

// categoricalDistribution flags categorical columns where one value covers
// more than 95% of rows.
func (g *generator) categoricalDistribution() {
	for _, col := range g.meta.Columns {
		if !g.dialect.IsTextType(col.Type) || !matchesPattern(col.Name, categoricalPatterns) {
			continue
		}
		g.add(
			fmt.Sprintf("check_%s_distribution", col.Name),
			fmt.Sprintf("Ensure %s has a reasonable value distribution", col.Name),
			fmt.Sprintf(
				"WITH val_counts AS (SELECT %[1]s, COUNT(*) AS cnt, COUNT(*) * 100.0 / NULLIF((SELECT COUNT(*) FROM %[2]s), 0) AS pct "+
					"FROM %[2]s WHERE %[1]s IS NOT NULL GROUP BY %[1]s) SELECT COUNT(*) FROM val_counts WHERE pct > 95.0",
				col.Name, g.table),
			core.OpEquals, 0)
	}
}

// foreignKeyDistribution requires at least two distinct referenced values per
// foreign-key column.
func (g *generator) foreignKeyDistribution() {
	for _, col := range g.meta.Columns {
		if !col.ForeignKey {
			continue
		}
		g.add(
			fmt.Sprintf("check_%s_ref_distribution", col.Name),
			fmt.Sprintf("Ensure %s references a reasonable number of distinct values", col.Name),
			fmt.Sprintf(
				"SELECT CASE WHEN (SELECT COUNT(DISTINCT %[1]s) FROM %[2]s WHERE %[1]s IS NOT NULL) = 1 THEN 1 ELSE 0 END",
				col.Name, g.table),
			core.OpEquals, 0)
	}
}

// updatedAfterCreated pairs every updated-ish timestamp with every
// created-ish one.
func (g *generator) updatedAfterCreated() {
	var updated, created []string
	for _, col := range g.meta.Columns {
		if !g.dialect.IsDateType(col.Type) {
			continue
		}
		if matchesPattern(col.Name, updatedPatterns) {
			updated = append(updated, col.Name)
		}
		if matchesPattern(col.Name, createdPatterns) {
			created = append(created, col.Name)
		}
	}
	for _, u := range updated {
		for _, c := range created {
			g.add(
				fmt.Sprintf("check_%s_after_%s", u, c),
				fmt.Sprintf("Ensure %s is not before %s", u, c),
				fmt.Sprintf(
					"SELECT COUNT(*) FROM %[1]s WHERE %[2]s IS NOT NULL AND %[3]s IS NOT NULL AND %[2]s < %[3]s",
					g.table, u, c),
				core.OpEquals, 0)
		}
	}
}

// guessStartDateColumn finds the start column matching an end-date column,
// first by term substitution (end_date -> start_date), then by looking for
// any start-ish date column, falling back to the end column itself.
func guessStartDateColumn(endColumn string, columns []core.Column) string {
	startTermMap := []struct{ end, start string }{
		{"expiration", "issue"},
		{"completed", "created"},
		{"finish", "start"},
		{"closed", "opened"},
		{"expiry", "issue"},
		{"end", "start"},
	}

	lower := strings.ToLower(endColumn)
	for _, m := range startTermMap {
		if !strings.Contains(lower, m.end) {
			continue
		}
		candidate := strings.Replace(lower, m.end, m.start, 1)
		for _, col := range columns {
			if strings.ToLower(col.Name) == candidate {
				return col.Name
			}
		}
	}

	startIndicators := []string{"start", "created", "opened", "issue", "begin"}
	dateIndicators := []string{"date", "time", "timestamp", "dt"}
	for _, col := range columns {
		name := strings.ToLower(col.Name)
		if matchesPattern(name, startIndicators) && matchesPattern(name, dateIndicators) {
			return col.Name
		}
	}
	return endColumn
}

// outlierThreshold picks an allowed outlier count from table-name hints:
// volume-suggesting names get the loosest bound, entity names a medium one,
// everything else a tight one.
func outlierThreshold(table string) int {
	largeIndicators := []string{"fact", "transaction", "event", "log", "history", "audit", "detail"}
	mediumIndicators := []string{"order", "customer", "user", "account", "product", "item"}

	switch {
	case matchesPattern(table, largeIndicators):
		return 50
	case matchesPattern(table, mediumIndicators):
		return 20
	default:
		return 5
	}
}
