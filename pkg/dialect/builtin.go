package dialect

import (
	"fmt"
	"strings"
)

func init() {
	Register(snowflake())
	Register(duckdb())
	Register(postgres())
	Register(redshift())
	Register(bigquery())
	Register(sqlite())
	Register(generic())
}

// percentileCont is the ANSI form shared by most backends.
func percentileCont(column string, fraction float64) string {
	return fmt.Sprintf("PERCENTILE_CONT(%g) WITHIN GROUP (ORDER BY %s)", fraction, column)
}

func lengthFn(column string) string { return fmt.Sprintf("LENGTH(%s)", column) }

func stddevFn(column string) string { return fmt.Sprintf("STDDEV(%s)", column) }

func arrayAgg(column string) string { return fmt.Sprintf("ARRAY_AGG(%s)", column) }

func tildeRegex(column, pattern string) string {
	return fmt.Sprintf("%s ~ '%s'", column, pattern)
}

// groupByAllDuplicates counts duplicated row groups using GROUP BY ALL,
// available on warehouse-style engines.
func groupByAllDuplicates(table string, _ []string) string {
	return fmt.Sprintf(
		"SELECT COUNT(*) FROM (SELECT COUNT(*) AS dup_count FROM %s GROUP BY ALL HAVING COUNT(*) > 1) AS duplicates",
		table)
}

func snowflake() *Dialect {
	return &Dialect{
		Name:           "snowflake",
		PercentileFunc: percentileCont,
		RegexMatchFunc: func(column, pattern string) string {
			return fmt.Sprintf("REGEXP_LIKE(%s, '%s')", column, pattern)
		},
		DateDiffFunc: func(unit, start, end string) string {
			return fmt.Sprintf("DATEDIFF('%s', %s, %s)", unit, start, end)
		},
		LengthFunc: lengthFn,
		StdDevFunc: stddevFn,
		SampleFunc: func(table string, limit int) string {
			return fmt.Sprintf("SELECT * FROM %s SAMPLE (%d ROWS)", table, limit)
		},
		AggregateArrayFunc: arrayAgg,
		DuplicateCountFunc: groupByAllDuplicates,
	}
}

func duckdb() *Dialect {
	return &Dialect{
		Name:           "duckdb",
		PercentileFunc: percentileCont,
		RegexMatchFunc: tildeRegex,
		DateDiffFunc: func(unit, start, end string) string {
			return fmt.Sprintf("DATEDIFF('%s', %s, %s)", unit, start, end)
		},
		LengthFunc: lengthFn,
		StdDevFunc: stddevFn,
		AggregateArrayFunc: func(column string) string {
			return fmt.Sprintf("LIST(%s)", column)
		},
		DuplicateCountFunc: groupByAllDuplicates,
	}
}

func postgres() *Dialect {
	return &Dialect{
		Name:           "postgres",
		PercentileFunc: percentileCont,
		RegexMatchFunc: tildeRegex,
		DateDiffFunc: func(unit, start, end string) string {
			switch strings.ToLower(unit) {
			case "month":
				return fmt.Sprintf(
					"(DATE_PART('year', %[2]s::timestamp) - DATE_PART('year', %[1]s::timestamp)) * 12 + (DATE_PART('month', %[2]s::timestamp) - DATE_PART('month', %[1]s::timestamp))",
					start, end)
			case "year":
				return fmt.Sprintf("DATE_PART('year', %s::timestamp) - DATE_PART('year', %s::timestamp)", end, start)
			default:
				return fmt.Sprintf("DATE_PART('day', %s::timestamp - %s::timestamp)", end, start)
			}
		},
		LengthFunc:         lengthFn,
		StdDevFunc:         stddevFn,
		AggregateArrayFunc: arrayAgg,
	}
}

func redshift() *Dialect {
	return &Dialect{
		Name: "redshift",
		// Redshift has no exact PERCENTILE_CONT aggregate; use the
		// approximate form.
		PercentileFunc: func(column string, fraction float64) string {
			return fmt.Sprintf("APPROXIMATE PERCENTILE_DISC(%g) WITHIN GROUP (ORDER BY %s)", fraction, column)
		},
		RegexMatchFunc: func(column, pattern string) string {
			return fmt.Sprintf("%s REGEXP '%s'", column, pattern)
		},
		DateDiffFunc: func(unit, start, end string) string {
			return fmt.Sprintf("DATEDIFF(%s, %s, %s)", unit, start, end)
		},
		LengthFunc: func(column string) string {
			return fmt.Sprintf("LEN(%s)", column)
		},
		StdDevFunc: func(column string) string {
			return fmt.Sprintf("STDDEV_SAMP(%s)", column)
		},
		SampleFunc: func(table string, limit int) string {
			return fmt.Sprintf("SELECT * FROM %s ORDER BY RANDOM() LIMIT %d", table, limit)
		},
		// No native array aggregation; LISTAGG is the closest construct.
		AggregateArrayFunc: func(column string) string {
			return fmt.Sprintf("LISTAGG(%s, ',')", column)
		},
	}
}

func bigquery() *Dialect {
	return &Dialect{
		Name: "bigquery",
		PercentileFunc: func(column string, fraction float64) string {
			return fmt.Sprintf("PERCENTILE_CONT(%s, %g) OVER()", column, fraction)
		},
		RegexMatchFunc: func(column, pattern string) string {
			return fmt.Sprintf("REGEXP_CONTAINS(%s, r'%s')", column, pattern)
		},
		DateDiffFunc: func(unit, start, end string) string {
			return fmt.Sprintf("DATE_DIFF(%s, %s, %s)", end, start, strings.ToUpper(unit))
		},
		LengthFunc: lengthFn,
		StdDevFunc: stddevFn,
		SampleFunc: func(table string, limit int) string {
			return fmt.Sprintf("SELECT * FROM %s TABLESAMPLE SYSTEM (10 PERCENT) LIMIT %d", table, limit)
		},
		AggregateArrayFunc: arrayAgg,
	}
}

func sqlite() *Dialect {
	return &Dialect{
		Name: "sqlite",
		// No native percentile or stddev support. Both are left nil so
		// engines take the reduced-computation path.
		RegexMatchFunc: func(column, pattern string) string {
			return fmt.Sprintf("%s REGEXP '%s'", column, pattern)
		},
		DateDiffFunc: func(unit, start, end string) string {
			switch strings.ToLower(unit) {
			case "month":
				return fmt.Sprintf(
					"(CAST(STRFTIME('%%Y', %[2]s) AS INTEGER) - CAST(STRFTIME('%%Y', %[1]s) AS INTEGER)) * 12 + (CAST(STRFTIME('%%m', %[2]s) AS INTEGER) - CAST(STRFTIME('%%m', %[1]s) AS INTEGER))",
					start, end)
			case "year":
				return fmt.Sprintf("CAST(STRFTIME('%%Y', %s) AS INTEGER) - CAST(STRFTIME('%%Y', %s) AS INTEGER)", end, start)
			default:
				return fmt.Sprintf("JULIANDAY(%s) - JULIANDAY(%s)", end, start)
			}
		},
		LengthFunc: lengthFn,
		AggregateArrayFunc: func(column string) string {
			return fmt.Sprintf("GROUP_CONCAT(%s, ',')", column)
		},
	}
}

// generic is the maximally portable fallback used for unrecognized backends.
func generic() *Dialect {
	return &Dialect{
		Name:           "generic",
		PercentileFunc: percentileCont,
		// LIKE is a crude regex substitute but works everywhere.
		RegexMatchFunc: func(column, pattern string) string {
			return fmt.Sprintf("%s LIKE '%%%s%%'", column, pattern)
		},
		DateDiffFunc: func(_, start, end string) string {
			return fmt.Sprintf("%s - %s", end, start)
		},
		LengthFunc:         lengthFn,
		StdDevFunc:         stddevFn,
		AggregateArrayFunc: arrayAgg,
	}
}
