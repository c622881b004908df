package core

// Profile is an immutable snapshot of computed quality metrics for one table
// at one point in time. It is created once per profiling run and never
// mutated afterwards.
type Profile struct {
	Table          string `json:"table"`
	Timestamp      string `json:"timestamp"`
	RowCount       int64  `json:"row_count"`
	DuplicateCount int64  `json:"duplicate_count"`

	// Completeness keys equal exactly the columns returned by catalog
	// introspection at profiling time.
	Completeness map[string]*ColumnCompleteness `json:"completeness"`

	NumericStats    map[string]*NumericStats    `json:"numeric_stats"`
	TextPatterns    map[string]*TextPatterns    `json:"text_patterns"`
	TextLengthStats map[string]*TextLengthStats `json:"text_length_stats"`
	DateStats       map[string]*DateStats       `json:"date_stats"`
	FrequentValues  map[string]*FrequentValue   `json:"frequent_values"`

	// Outliers holds a bounded list of extreme values per numeric column.
	Outliers map[string][]float64 `json:"outliers"`

	// Anomalies and SchemaShifts are populated only when a historical
	// profile was supplied; otherwise they are empty (never nil).
	Anomalies    []Anomaly     `json:"anomalies"`
	SchemaShifts []SchemaShift `json:"schema_shifts"`

	// Trends is a placeholder aggregate series, filled in by callers that
	// track profiles over time.
	Trends Trends `json:"trends"`

	// Samples holds a bounded list of raw rows, present only when sample
	// collection was explicitly requested.
	Samples []map[string]any `json:"samples,omitempty"`
}

// ColumnCompleteness holds per-column null and distinct counts.
// Percentages are in [0,100] and are 0 when the table is empty.
type ColumnCompleteness struct {
	Nulls              int64   `json:"nulls"`
	NullPercentage     float64 `json:"null_percentage"`
	DistinctCount      int64   `json:"distinct_count"`
	DistinctPercentage float64 `json:"distinct_percentage"`
}

// NumericStats holds aggregate statistics for a numeric column.
// A nil field means the metric could not be computed on this backend.
type NumericStats struct {
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
	Avg    *float64 `json:"avg"`
	Sum    *float64 `json:"sum"`
	Stdev  *float64 `json:"stdev"`
	Q1     *float64 `json:"q1"`
	Median *float64 `json:"median"`
	Q3     *float64 `json:"q3"`
}

// TextLengthStats holds string-length statistics for a text column.
type TextLengthStats struct {
	MinLength *int64   `json:"min_length"`
	MaxLength *int64   `json:"max_length"`
	AvgLength *float64 `json:"avg_length"`
}

// TextPatterns holds pattern hit-counts for a text column. Each counter
// independently defaults to 0 when its query fails on the backend.
type TextPatterns struct {
	NumericPatternCount int64 `json:"numeric_pattern_count"`
	EmailPatternCount   int64 `json:"email_pattern_count"`
	DatePatternCount    int64 `json:"date_pattern_count"`
}

// DateStats holds range statistics for a date/time column.
type DateStats struct {
	MinDate       *string `json:"min_date"`
	MaxDate       *string `json:"max_date"`
	DistinctCount int64   `json:"distinct_count"`
	DateRangeDays *int64  `json:"date_range_days"`
}

// FrequentValue records the single most frequent value of a column together
// with its absolute frequency and percentage share of all rows.
type FrequentValue struct {
	Value      any     `json:"value"`
	Frequency  int64   `json:"frequency"`
	Percentage float64 `json:"percentage"`
}

// Anomaly is drift classified as a statistical or volume change between two
// profiles of the same table (row count, null rate, average).
type Anomaly struct {
	Type        string   `json:"type"`
	Column      string   `json:"column,omitempty"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Timestamp   string   `json:"timestamp"`
}

// SchemaShift is drift classified as structural: a column added, removed,
// retyped, or grown beyond its historical length.
type SchemaShift struct {
	Type        string   `json:"type"`
	Column      string   `json:"column"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Timestamp   string   `json:"timestamp"`
	FromType    string   `json:"from_type,omitempty"`
	ToType      string   `json:"to_type,omitempty"`
	FromLength  *int64   `json:"from_length,omitempty"`
	ToLength    *int64   `json:"to_length,omitempty"`
}

// Trends is the placeholder structure for aggregate series collected across
// historical profiling runs.
type Trends struct {
	RowCounts  []int64              `json:"row_counts"`
	NullRates  map[string][]float64 `json:"null_rates"`
	Duplicates []int64              `json:"duplicates"`
}

// NewTrends returns an empty, fully initialized Trends value so the profile
// document always carries the complete key set.
func NewTrends() Trends {
	return Trends{
		RowCounts:  []int64{},
		NullRates:  map[string][]float64{},
		Duplicates: []int64{},
	}
}
