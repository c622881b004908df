package core

// Severity classifies how serious a detected drift item is.
type Severity string

// Severity levels for anomalies and schema shifts.
const (
	// SeverityHigh indicates drift that likely breaks downstream consumers.
	SeverityHigh Severity = "high"
	// SeverityMedium indicates drift that should be reviewed.
	SeverityMedium Severity = "medium"
	// SeverityInfo indicates informational drift.
	SeverityInfo Severity = "info"
)
