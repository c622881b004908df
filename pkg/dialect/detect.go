package dialect

import "strings"

// Recognized dialect tokens in match-priority order. Snowflake is checked
// first because warehouse descriptors often embed other keywords.
var tokenKeywords = []struct {
	keyword string
	token   string
}{
	{"snowflake", "snowflake"},
	{"postgres", "postgres"},
	{"redshift", "redshift"},
	{"bigquery", "bigquery"},
	{"duckdb", "duckdb"},
	{"sqlite", "sqlite"},
}

// Detect derives a lowercase dialect token from a connection descriptor.
// The scheme before "://" is matched against known keywords; anything
// unrecognized maps to "generic".
func Detect(descriptor string) string {
	token := strings.ToLower(descriptor)
	if idx := strings.Index(token, "://"); idx >= 0 {
		token = token[:idx]
	}
	for _, tk := range tokenKeywords {
		if strings.Contains(token, tk.keyword) {
			return tk.token
		}
	}
	return "generic"
}

// IsRecognized reports whether a token maps to an explicitly supported
// dialect rather than the generic fallback.
func IsRecognized(token string) bool {
	for _, tk := range tokenKeywords {
		if strings.Contains(strings.ToLower(token), tk.keyword) {
			return true
		}
	}
	return false
}
