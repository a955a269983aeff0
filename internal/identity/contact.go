// Package identity resolves raw message sender identifiers (phone numbers,
// email addresses, opaque handles) against a contact directory snapshot and
// synthesizes display names and conversation titles from the results.
package identity

import "strings"

// Contact is a single contact directory entry. Multiple contacts may share a
// display name (merged address-book duplicates, a family landline), so nothing
// in this package assumes name uniqueness.
type Contact struct {
	ID           int64
	FirstName    string
	LastName     string
	Organization string
	Phones       []string
	Emails       []string
	PhotoPath    string
}

// DisplayName returns the human-readable name for the contact: the composed
// first/last name, falling back to the organization, then to the first email
// or phone on record.
func (c *Contact) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
	if name != "" {
		return name
	}
	if c.Organization != "" {
		return c.Organization
	}
	if len(c.Emails) > 0 {
		return c.Emails[0]
	}
	if len(c.Phones) > 0 {
		return c.Phones[0]
	}
	return ""
}

// Identifiers returns every raw identifier (phones and emails) on the contact.
func (c *Contact) Identifiers() []string {
	ids := make([]string, 0, len(c.Phones)+len(c.Emails))
	ids = append(ids, c.Phones...)
	ids = append(ids, c.Emails...)
	return ids
}
