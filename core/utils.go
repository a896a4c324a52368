package core

import "strings"

// CleanString trims surrounding whitespace; pass true to also lowercase,
// e.g. for usernames and emails stored in canonical form.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}
