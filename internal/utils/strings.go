package utils

import (
	"encoding/json"
	"fmt"
)

// DefaultMaxStringLength is the default maximum length for truncated strings
const DefaultMaxStringLength = 500

// TruncateString shortens s to at most maxLen bytes, appending the original
// length. If maxLen is zero or negative, DefaultMaxStringLength is used.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	if len(s) <= maxLen {
		return s
	}
	return fmt.Sprintf("%s... (truncated, total: %d chars)", s[:maxLen], len(s))
}

// Preview renders value for log output: strings are truncated as-is, other
// values are JSON-encoded first, falling back to %v.
func Preview(value any, maxLen int) string {
	if text, isString := value.(string); isString {
		return TruncateString(text, maxLen)
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return TruncateString(fmt.Sprintf("%v", value), maxLen)
	}
	return TruncateString(string(encoded), maxLen)
}
