package strutil

import "strings"

// NormalizeKey lower-cases value and collapses every run of whitespace into a
// single space so "Hetzner  Online\tGmbH" and "hetzner online gmbh" compare equal.
func NormalizeKey(value string) string {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.Join(fields, " "))
}

// JoinNonEmpty joins the non-blank values with sep, skipping empty entries
// entirely so no doubled separators appear.
func JoinNonEmpty(sep string, values ...string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		kept = append(kept, v)
	}
	return strings.Join(kept, sep)
}
