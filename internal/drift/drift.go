// Package drift compares two profiles of the same table and reports
// statistical anomalies and schema shifts. It is a pure computation over
// profile values and never touches the database.
package drift

import (
	"fmt"
	"sort"
	"time"

	"github.com/kestrel-data/kestrel/pkg/core"
)

// Thresholds for flagging a change between two profiling runs.
const (
	// RowCountChangeThreshold is the relative row-count change (in either
	// direction) that gets flagged, e.g. 0.10 means 10%.
	RowCountChangeThreshold = 0.10

	// NullRateChangeThreshold is the absolute change in a column's null
	// percentage, in percentage points.
	NullRateChangeThreshold = 5.0

	// AvgChangeThreshold is the relative change of a numeric column's average.
	AvgChangeThreshold = 0.20

	// MaxLengthGrowthFactor flags a text column whose maximum length grew
	// beyond this factor.
	MaxLengthGrowthFactor = 1.5
)

// Compare diffs current against historical and returns the detected
// anomalies and schema shifts, each in deterministic order. Both slices are
// non-nil even when empty. Timestamps on the findings are taken from the
// current profile when set, otherwise from the wall clock.
func Compare(current, historical *core.Profile) ([]core.Anomaly, []core.SchemaShift) {
	d := differ{
		current:    current,
		historical: historical,
		timestamp:  current.Timestamp,
	}
	if d.timestamp == "" {
		d.timestamp = time.Now().Format(time.RFC3339)
	}

	d.compareRowCounts()
	d.compareNullRates()
	d.compareAverages()
	d.compareColumns()
	d.compareTypes()
	d.compareLengths()

	sort.SliceStable(d.anomalies, func(i, j int) bool {
		if d.anomalies[i].Type != d.anomalies[j].Type {
			return d.anomalies[i].Type < d.anomalies[j].Type
		}
		return d.anomalies[i].Column < d.anomalies[j].Column
	})
	sort.SliceStable(d.shifts, func(i, j int) bool {
		if d.shifts[i].Type != d.shifts[j].Type {
			return d.shifts[i].Type < d.shifts[j].Type
		}
		return d.shifts[i].Column < d.shifts[j].Column
	})

	if d.anomalies == nil {
		d.anomalies = []core.Anomaly{}
	}
	if d.shifts == nil {
		d.shifts = []core.SchemaShift{}
	}
	return d.anomalies, d.shifts
}

type differ struct {
	current    *core.Profile
	historical *core.Profile
	timestamp  string

	anomalies []core.Anomaly
	shifts    []core.SchemaShift
}

func (d *differ) addAnomaly(kind, column, description string, severity core.Severity) {
	d.anomalies = append(d.anomalies, core.Anomaly{
		Type:        kind,
		Column:      column,
		Description: description,
		Severity:    severity,
		Timestamp:   d.timestamp,
	})
}

// compareRowCounts flags relative row-count changes beyond the threshold.
// A historical count of zero cannot produce a ratio and is never flagged.
func (d *differ) compareRowCounts() {
	prev, cur := d.historical.RowCount, d.current.RowCount
	if prev == 0 {
		return
	}
	change := float64(cur-prev) / float64(prev)
	if change > RowCountChangeThreshold || change < -RowCountChangeThreshold {
		d.addAnomaly("row_count", "",
			fmt.Sprintf("Row count changed by %.1f%% (from %d to %d)", change*100, prev, cur),
			core.SeverityHigh)
	}
}

// compareNullRates flags columns whose null percentage moved by more than
// the threshold in percentage points. Only columns present in both profiles
// are compared; added/removed columns are schema shifts, not anomalies.
func (d *differ) compareNullRates() {
	for col, cur := range d.current.Completeness {
		prev, ok := d.historical.Completeness[col]
		if !ok {
			continue
		}
		delta := cur.NullPercentage - prev.NullPercentage
		if delta > NullRateChangeThreshold || delta < -NullRateChangeThreshold {
			d.addAnomaly("null_rate", col,
				fmt.Sprintf("Null rate of %s changed from %.2f%% to %.2f%%", col, prev.NullPercentage, cur.NullPercentage),
				core.SeverityMedium)
		}
	}
}

// compareAverages flags numeric columns whose average shifted by more than
// the relative threshold. A nil average on either side means the metric was
// unavailable for that run and the comparison is skipped.
func (d *differ) compareAverages() {
	for col, cur := range d.current.NumericStats {
		prev, ok := d.historical.NumericStats[col]
		if !ok || cur == nil || prev == nil || cur.Avg == nil || prev.Avg == nil {
			continue
		}
		if *prev.Avg == 0 {
			continue
		}
		change := (*cur.Avg - *prev.Avg) / *prev.Avg
		if change > AvgChangeThreshold || change < -AvgChangeThreshold {
			d.addAnomaly("average_value", col,
				fmt.Sprintf("Average of %s changed by %.1f%% (from %.4g to %.4g)", col, change*100, *prev.Avg, *cur.Avg),
				core.SeverityMedium)
		}
	}
}

// compareColumns reports columns added or removed since the last run, using
// the completeness maps as the column inventory.
func (d *differ) compareColumns() {
	for col := range d.current.Completeness {
		if _, ok := d.historical.Completeness[col]; !ok {
			d.shifts = append(d.shifts, core.SchemaShift{
				Type:        "column_added",
				Column:      col,
				Description: fmt.Sprintf("Column %s was added", col),
				Severity:    core.SeverityInfo,
				Timestamp:   d.timestamp,
			})
		}
	}
	for col := range d.historical.Completeness {
		if _, ok := d.current.Completeness[col]; !ok {
			d.shifts = append(d.shifts, core.SchemaShift{
				Type:        "column_removed",
				Column:      col,
				Description: fmt.Sprintf("Column %s was removed", col),
				Severity:    core.SeverityHigh,
				Timestamp:   d.timestamp,
			})
		}
	}
}

// compareTypes flags columns whose statistical family changed between runs,
// which indicates the backend type changed. Profiles carry no raw backend
// types, so numeric and date membership are each inferred from the per-column
// stats maps and checked independently; a single column can therefore produce
// two shifts, e.g. a date column retyped to an integer.
func (d *differ) compareTypes() {
	for col := range d.current.Completeness {
		if _, ok := d.historical.Completeness[col]; !ok {
			continue
		}
		d.compareFamily(col, "numeric",
			inFamily(d.historical.NumericStats, col), inFamily(d.current.NumericStats, col))
		d.compareFamily(col, "date",
			inFamily(d.historical.DateStats, col), inFamily(d.current.DateStats, col))
	}
}

func inFamily[V any](m map[string]V, col string) bool {
	_, ok := m[col]
	return ok
}

// compareFamily emits a type_changed shift when a column entered or left one
// statistical family.
func (d *differ) compareFamily(col, family string, was, is bool) {
	if was == is {
		return
	}
	from, to := family, "non-"+family
	if is {
		from, to = to, from
	}
	d.shifts = append(d.shifts, core.SchemaShift{
		Type:        "type_changed",
		Column:      col,
		Description: fmt.Sprintf("Column %s changed from %s to %s", col, from, to),
		Severity:    core.SeverityHigh,
		Timestamp:   d.timestamp,
		FromType:    from,
		ToType:      to,
	})
}

// compareLengths flags text columns whose observed maximum length grew beyond
// the growth factor.
func (d *differ) compareLengths() {
	for col, cur := range d.current.TextLengthStats {
		prev, ok := d.historical.TextLengthStats[col]
		if !ok || cur == nil || prev == nil || cur.MaxLength == nil || prev.MaxLength == nil {
			continue
		}
		if *prev.MaxLength <= 0 {
			continue
		}
		if float64(*cur.MaxLength) > float64(*prev.MaxLength)*MaxLengthGrowthFactor {
			d.shifts = append(d.shifts, core.SchemaShift{
				Type:        "length_increased",
				Column:      col,
				Description: fmt.Sprintf("Max length of %s grew from %d to %d", col, *prev.MaxLength, *cur.MaxLength),
				Severity:    core.SeverityMedium,
				Timestamp:   d.timestamp,
				FromLength:  prev.MaxLength,
				ToLength:    cur.MaxLength,
			})
		}
	}
}
