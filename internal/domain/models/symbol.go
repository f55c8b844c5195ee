package models

import "strings"

const MaxSymbolLength = 20

// NormalizeSymbol trims and upper-cases a ticker and rejects anything outside
// [A-Z0-9.-] or longer than MaxSymbolLength.
func NormalizeSymbol(raw string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", &ValidationError{Field: "symbol", Message: "is required"}
	}
	if len(s) > MaxSymbolLength {
		return "", &ValidationError{Field: "symbol", Message: "must be at most 20 characters"}
	}
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' {
			continue
		}
		return "", &ValidationError{Field: "symbol", Message: "may contain only letters, digits, '.' and '-'"}
	}
	return s, nil
}
