package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/kestrel-data/kestrel/pkg/core"
)

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderProfile writes a human-readable profile summary: one overview line,
// then per-column completeness, numeric stats, and any drift findings.
func renderProfile(w io.Writer, p *core.Profile) {
	fmt.Fprintf(w, "Table: %s (profiled %s)\n", p.Table, p.Timestamp)
	fmt.Fprintf(w, "Rows: %d  Duplicates: %d\n\n", p.RowCount, p.DuplicateCount)

	renderCompleteness(w, p)
	renderNumericStats(w, p)
	renderDrift(w, p)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func renderCompleteness(w io.Writer, p *core.Profile) {
	if len(p.Completeness) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Nulls", "Null %", "Distinct", "Distinct %"})

	for _, col := range sortedKeys(p.Completeness) {
		c := p.Completeness[col]
		t.AppendRow(table.Row{
			col, c.Nulls,
			fmt.Sprintf("%.2f", c.NullPercentage),
			c.DistinctCount,
			fmt.Sprintf("%.2f", c.DistinctPercentage),
		})
	}
	t.Render()
	fmt.Fprintln(w)
}

func renderNumericStats(w io.Writer, p *core.Profile) {
	if len(p.NumericStats) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Min", "Max", "Avg", "Stdev", "Median"})

	for _, col := range sortedKeys(p.NumericStats) {
		s := p.NumericStats[col]
		if s == nil {
			continue
		}
		t.AppendRow(table.Row{
			col,
			formatFloat(s.Min), formatFloat(s.Max), formatFloat(s.Avg),
			formatFloat(s.Stdev), formatFloat(s.Median),
		})
	}
	t.Render()
	fmt.Fprintln(w)
}

func renderDrift(w io.Writer, p *core.Profile) {
	if len(p.Anomalies) == 0 && len(p.SchemaShifts) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Kind", "Type", "Severity", "Description"})

	for _, a := range p.Anomalies {
		t.AppendRow(table.Row{"anomaly", a.Type, a.Severity, a.Description})
	}
	for _, s := range p.SchemaShifts {
		t.AppendRow(table.Row{"schema shift", s.Type, s.Severity, s.Description})
	}
	t.Render()
	fmt.Fprintln(w)
}

// renderResults writes one row per validation result plus a pass/fail tally.
func renderResults(w io.Writer, results []core.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Rule", "Status", "Actual", "Expected", "Detail"})

	passed := 0
	for _, r := range results {
		status := "FAIL"
		detail := r.Description
		switch {
		case r.Error != "":
			status = "ERROR"
			detail = r.Error
		case r.IsValid:
			status = "PASS"
			passed++
		}
		t.AppendRow(table.Row{r.RuleName, status, formatValue(r.ActualValue), formatValue(r.ExpectedValue), detail})
	}
	t.Render()
	fmt.Fprintf(w, "%d/%d rules passed\n", passed, len(results))
}

// renderRules prints synthesized rules as name/operator/expected rows; the
// queries go to the rule file, not the terminal.
func renderRules(w io.Writer, rules []core.Rule) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Rule", "Operator", "Expected", "Description"})

	for _, r := range rules {
		t.AppendRow(table.Row{r.Name, string(r.Operator), formatValue(r.ExpectedValue), r.Description})
	}
	t.Render()
	fmt.Fprintf(w, "%d rules\n", len(rules))
}

func formatFloat(f *float64) string {
	if f == nil {
		return "NULL"
	}
	return fmt.Sprintf("%.4g", *f)
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}
