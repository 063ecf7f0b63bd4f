package remote

import (
	"strings"

	"arrmada/pkg/logging"
)

// IdentityRule is the policy for matching a desired entity to an existing
// remote one: exact name first, then implementation, then (when Fuzzy is
// set) case- and punctuation-insensitive containment.
type IdentityRule struct {
	Fuzzy bool
}

// canon lowercases and strips everything but letters and digits, so
// "The Pirate Bay" and "thepiratebay" identify the same entity.
func canon(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// match finds the remote entity the desired one identifies, or nil.
// Fuzzy matching picks the first candidate in listing order and logs the
// alternates it passed over; no scoring is attempted.
func match(existing []RemoteEntity, desired DesiredEntity, rule IdentityRule) *RemoteEntity {
	for i := range existing {
		if strings.EqualFold(existing[i].Name, desired.Name) {
			return &existing[i]
		}
	}
	if desired.Implementation != "" {
		for i := range existing {
			if existing[i].Implementation == desired.Implementation {
				return &existing[i]
			}
		}
	}
	if !rule.Fuzzy {
		return nil
	}

	wanted := canon(desired.Name)
	if wanted == "" {
		return nil
	}
	var candidates []int
	for i := range existing {
		if strings.Contains(canon(existing[i].Name), wanted) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) > 1 {
		names := make([]string, 0, len(candidates)-1)
		for _, i := range candidates[1:] {
			names = append(names, existing[i].Name)
		}
		logging.Info(subsystem, "Fuzzy match for %q picked %q, skipping: %s",
			desired.Name, existing[candidates[0]].Name, strings.Join(names, ", "))
	}
	return &existing[candidates[0]]
}
