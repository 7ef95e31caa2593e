package pipeline

import "strings"

// NormalizePhone canonicalizes a phone number toward E.164 using the given
// country code (e.g. "+49"). The transformation is conservative: when the
// cleaned digits do not form a plausible number the input is returned
// unchanged. Idempotent: normalizing an already-normalized number is a
// no-op.
func NormalizePhone(raw, countryCode string) string {
	if raw == "" {
		return raw
	}

	// Strip everything except digits and a leading plus.
	var b strings.Builder
	for i, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		} else if r == '+' && b.Len() == 0 {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	switch {
	case strings.HasPrefix(cleaned, "+"):
		// Already prefixed; keep when structurally plausible.
		if len(cleaned) >= 8 && len(cleaned) <= 15 {
			return cleaned
		}
	case strings.HasPrefix(cleaned, "0"):
		// National prefix: swap the leading zero for the country code.
		prefixed := countryCode + cleaned[1:]
		if len(prefixed) >= 10 && len(prefixed) <= 15 {
			return prefixed
		}
	case len(cleaned) >= 10:
		// Plausibly a national number without any prefix.
		prefixed := countryCode + cleaned
		if len(prefixed) <= 15 {
			return prefixed
		}
	}

	return raw
}
