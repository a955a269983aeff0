package identity

import "strings"

// Index maps canonical identifier keys to contacts for O(1) lookup. It is
// built once per contact-directory snapshot and never mutated afterward;
// callers replace the whole index on refresh, so readers never observe a
// half-built one.
//
// Exact keys (full-digit phone, lower-cased email) and last-10-digit fallback
// keys live in separate tables so that an exact match on one contact's full
// number is never shadowed by another contact's suffix. Within each table a
// key maps to at most one contact; on conflict the last contact inserted
// wins, which keeps lookups unambiguous at the cost of dropping the earlier
// entry.
type Index struct {
	exact  map[string]*Contact // full-digit phone keys and email keys
	suffix map[string]*Contact // last-10-digit fallback keys
	byName map[string][]*Contact
}

// BuildIndex constructs an Index from a directory snapshot. For each contact
// it inserts the full-digits key and, when the number has ten or more digits,
// the last-10 fallback key for every phone, plus the lower-cased key for
// every email. Building is side-effect-free: the input slice is not retained
// or modified, and any previously built Index remains valid.
func BuildIndex(contacts []Contact) *Index {
	idx := &Index{
		exact:  make(map[string]*Contact),
		suffix: make(map[string]*Contact),
		byName: make(map[string][]*Contact),
	}

	snapshot := make([]Contact, len(contacts))
	copy(snapshot, contacts)

	for i := range snapshot {
		c := &snapshot[i]

		for _, phone := range c.Phones {
			keys := NormalizePhone(phone)
			if keys.Empty() {
				continue
			}
			idx.exact[keys.Digits] = c
			if keys.Last10 != "" {
				idx.suffix[keys.Last10] = c
			}
		}

		for _, email := range c.Emails {
			key := NormalizeEmail(email)
			if key != "" {
				idx.exact[key] = c
			}
		}

		if name := c.DisplayName(); name != "" {
			idx.byName[name] = append(idx.byName[name], c)
		}
	}

	return idx
}

// Lookup returns the contact for an exact canonical key (full-digit phone or
// lower-cased email). An unrecognized key returns (nil, false), never an
// error.
func (idx *Index) Lookup(key string) (*Contact, bool) {
	if idx == nil || key == "" {
		return nil, false
	}
	c, ok := idx.exact[key]
	return c, ok
}

// LookupPhone resolves phone keys with exact-before-fallback precedence: the
// full-digits key is tried first, then the last-10 key. The fallback is lossy
// (two distinct numbers can share a suffix), so an exact match always wins.
func (idx *Index) LookupPhone(keys PhoneKeys) (*Contact, bool) {
	if idx == nil || keys.Empty() {
		return nil, false
	}
	if c, ok := idx.exact[keys.Digits]; ok {
		return c, true
	}
	if keys.Last10 != "" {
		if c, ok := idx.suffix[keys.Last10]; ok {
			return c, true
		}
	}
	return nil, false
}

// SameName returns every directory contact sharing the given display name.
// Duplicate address-book entries fragment a person's identifiers across
// records; the search compiler unions them so selecting one entry covers all.
func (idx *Index) SameName(name string) []*Contact {
	if idx == nil {
		return nil
	}
	return idx.byName[name]
}

// FindByName matches a display name case-insensitively. An exact-case match
// is tried first; otherwise the name tables are scanned, which is fine at
// address-book scale.
func (idx *Index) FindByName(name string) []*Contact {
	if idx == nil || name == "" {
		return nil
	}
	if cs, ok := idx.byName[name]; ok {
		return cs
	}
	lower := strings.ToLower(name)
	for k, cs := range idx.byName {
		if strings.ToLower(k) == lower {
			return cs
		}
	}
	return nil
}
