package identity

import "strings"

// Resolved is the outcome of resolving one raw identifier: either an existing
// directory contact or a synthetic placeholder built from the identifier
// itself, so display code never special-cases "no contact found".
type Resolved struct {
	Contact     *Contact
	Raw         string
	Placeholder bool
}

// DisplayName returns the resolved contact's display name, or the raw
// identifier when the placeholder carries no name of its own.
func (r Resolved) DisplayName() string {
	if name := r.Contact.DisplayName(); name != "" {
		return name
	}
	return r.Raw
}

// Resolve maps a raw sender identifier to a contact using the index.
// Precedence, first match wins:
//
//  1. Identifiers containing "@" are normalized as email and looked up
//     directly.
//  2. Otherwise the identifier is normalized as a phone number: the
//     full-digits key is tried first, then the last-10-digit fallback.
//     Exact full-number match is preferred over the lossy suffix fallback so
//     two contacts sharing a suffix are not conflated.
//  3. Anything still unmatched becomes a placeholder contact whose sole
//     identifying field is the raw identifier.
//
// Resolve is a pure function of (raw, idx): repeated calls are idempotent and
// side-effect-free. Messages from self carry no meaningful sender identifier
// and should not be resolved at all; that skip is the caller's job. An
// identifier that is empty after stripping is treated as unmatched, not as an
// error.
func Resolve(raw string, idx *Index) Resolved {
	trimmed := strings.TrimSpace(raw)

	if strings.Contains(trimmed, "@") {
		if c, ok := idx.Lookup(NormalizeEmail(trimmed)); ok {
			return Resolved{Contact: c, Raw: raw}
		}
		return placeholder(raw, true)
	}

	if c, ok := idx.LookupPhone(NormalizePhone(trimmed)); ok {
		return Resolved{Contact: c, Raw: raw}
	}
	return placeholder(raw, false)
}

// placeholder builds a synthetic contact around an unmatched identifier.
// Name fields stay empty; the raw identifier lands in the email or phone
// list so the contact shape is uniform with directory entries.
func placeholder(raw string, isEmail bool) Resolved {
	c := &Contact{}
	if isEmail {
		c.Emails = []string{raw}
	} else {
		c.Phones = []string{raw}
	}
	return Resolved{Contact: c, Raw: raw, Placeholder: true}
}
