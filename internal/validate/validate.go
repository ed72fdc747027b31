package validate

import "strings"

// LengthBetween returns true if n is within [min,max].
func LengthBetween(s string, min, max int) bool {
	n := len(s)
	return n >= min && n <= max
}

// IsDigits reports whether s is non-empty and made only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

var separators = strings.NewReplacer(" ", "", "-", "")

// StripSeparators removes the space and dash separators used to group card digits.
func StripSeparators(s string) string {
	return separators.Replace(s)
}
