package validate

import "strings"

// Required reports whether every value is non-blank.
func Required(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// FirstMissing returns the name of the first blank value in name/value pairs.
func FirstMissing(pairs ...[2]string) (string, bool) {
	for _, p := range pairs {
		if strings.TrimSpace(p[1]) == "" {
			return p[0], true
		}
	}
	return "", false
}
