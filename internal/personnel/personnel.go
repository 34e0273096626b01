// Package personnel centralizes the canonical staff name lists and the
// forgiving matching applied to names found in productivity logs.
//
// Logged names arrive with spelling drift ("Laurain" for "Lauraine"), so
// matching is prefix-equality in either direction, case-insensitive. The
// tolerance is a data-quality workaround rather than an invariant; it lives
// behind Resolve so the policy stays in one place.
package personnel

import "strings"

// Roster holds the canonical name lists for each production role.
type Roster struct {
	Editors []string
	Masters []string
	QC      []string
}

// Resolve maps a raw logged name onto the canonical list. A canonical name
// matches when either string is a case-insensitive prefix of the other.
// When several canonical names qualify, the first list entry wins; that
// ordering is the tie-break rule, so rosters should list unambiguous names
// first. Unmatched names are returned as-is with ok=false.
func Resolve(raw string, canonical []string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw, false
	}
	lowered := strings.ToLower(trimmed)
	for _, name := range canonical {
		candidate := strings.ToLower(strings.TrimSpace(name))
		if candidate == "" {
			continue
		}
		if strings.HasPrefix(candidate, lowered) || strings.HasPrefix(lowered, candidate) {
			return name, true
		}
	}
	return raw, false
}

// Matches reports whether a raw logged name resolves to the given canonical
// name under the forgiving policy.
func Matches(raw, canonical string) bool {
	resolved, ok := Resolve(raw, []string{canonical})
	return ok && resolved == canonical
}

// DefaultRoster returns the built-in staff lists used when the config does
// not override them.
func DefaultRoster() Roster {
	return Roster{
		Editors: []string{"Israel", "Joseph", "Marcus", "Kendall", "Ray", "Tyler"},
		Masters: []string{"Israel", "Joseph", "Marcus", "Kendall"},
		QC:      []string{"Lauraine", "Brittany", "Shirin", "Danielle"},
	}
}
