package utils

import "strings"

// NormalizeSpace lower-cases s, collapses runs of whitespace into one space
// and trims both ends.
func NormalizeSpace(s string) string {
	return strings.ToLower(CollapseSpace(s))
}

// CollapseSpace collapses runs of whitespace into one space and trims.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FirstNonEmpty returns the first argument that is not blank after trimming.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	return ""
}
