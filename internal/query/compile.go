package query

import (
	"strings"

	"github.com/wesm/chatvault/internal/identity"
)

// StoreQuery is the structured predicate sent to the message store. The
// compiler builds it directly from a SearchSpec; the store owns serializing
// it to SQL as a separate step, keeping predicate construction apart from
// escaping concerns. The zero value matches all messages.
//
// All timestamp bounds are inclusive whole-second unix epoch values — the
// same unit the store uses for message dates, so no filter in a query ever
// mixes units.
type StoreQuery struct {
	// Text is a substring predicate against message text. Empty means no
	// text constraint.
	Text string

	After  *int64 // inclusive lower timestamp bound, unix seconds
	Before *int64 // inclusive upper timestamp bound, unix seconds

	// SenderGroups are OR-groups of raw sender identifiers: a message
	// matches when its sender equals any identifier in any group. Each group
	// covers one selected contact, expanded across directory duplicates.
	SenderGroups [][]string

	// ConversationID restricts to a single conversation when non-empty.
	ConversationID string

	Attachment AttachmentPredicate
	FromMeOnly bool
	Sort       SortDirection
}

// IsEmpty reports whether the query carries no constraining predicates.
func (q StoreQuery) IsEmpty() bool {
	return q.Text == "" &&
		q.After == nil && q.Before == nil &&
		len(q.SenderGroups) == 0 &&
		q.ConversationID == "" &&
		q.Attachment.IsEmpty() &&
		!q.FromMeOnly
}

// AttachmentPredicate constrains attachment presence and MIME type. When
// Require is set without MIME criteria, any attachment matches. MIMEPrefixes
// and MIMEExact combine with OR; Exclude inverts the MIME criteria to select
// attachments of none of the listed kinds ("other").
type AttachmentPredicate struct {
	Require      bool
	MIMEPrefixes []string
	MIMEExact    []string
	Exclude      bool
}

// IsEmpty reports whether the predicate constrains nothing.
func (p AttachmentPredicate) IsEmpty() bool {
	return !p.Require && len(p.MIMEPrefixes) == 0 && len(p.MIMEExact) == 0
}

// attachmentPredicateFor maps an attachment class to its MIME predicate.
func attachmentPredicateFor(class AttachmentClass) AttachmentPredicate {
	known := AttachmentPredicate{
		Require:      true,
		MIMEPrefixes: []string{"image/", "video/", "audio/"},
		MIMEExact:    []string{"application/pdf"},
	}

	switch class {
	case AttachmentsAny:
		return AttachmentPredicate{Require: true}
	case AttachmentImage:
		return AttachmentPredicate{Require: true, MIMEPrefixes: []string{"image/"}}
	case AttachmentVideo:
		return AttachmentPredicate{Require: true, MIMEPrefixes: []string{"video/"}}
	case AttachmentAudio:
		return AttachmentPredicate{Require: true, MIMEPrefixes: []string{"audio/"}}
	case AttachmentPDF:
		return AttachmentPredicate{Require: true, MIMEExact: []string{"application/pdf"}}
	case AttachmentOther:
		known.Exclude = true
		return known
	default:
		return AttachmentPredicate{}
	}
}

// Compile turns a search specification into the single query the store
// executes. Compilation is pure and never fails: an empty specification
// compiles to a query with no constraining predicates, which the store
// answers with all messages.
//
// Selected contacts are widened through the directory index: every directory
// entry sharing a selected contact's display name contributes its
// identifiers to that contact's OR-group, so fragmented duplicate entries
// are matched as one person. The conversation-class filter is NOT compiled —
// the store has no notion of participant count — and must be applied as a
// post-filter (see FilterByClass).
func Compile(spec SearchSpec, idx *identity.Index) StoreQuery {
	q := StoreQuery{Sort: spec.Sort}

	if text := strings.TrimSpace(spec.Text); text != "" {
		q.Text = text
	}

	if spec.Start != nil {
		after := spec.Start.Unix()
		q.After = &after
	}
	if spec.End != nil {
		before := spec.End.Unix()
		q.Before = &before
	}

	for i := range spec.Contacts {
		if group := senderGroup(&spec.Contacts[i], idx); len(group) > 0 {
			q.SenderGroups = append(q.SenderGroups, group)
		}
	}

	// Explicit conversation selection wins over the class filter; the class
	// is handled after the store query, and EffectiveClass already yields
	// ClassAll when a conversation is selected.
	q.ConversationID = spec.ConversationID

	q.Attachment = attachmentPredicateFor(spec.Attachments)
	q.FromMeOnly = spec.FromMeOnly

	return q
}

// senderGroup gathers every raw identifier of every directory contact
// sharing the selected contact's display name. A contact absent from the
// directory (or nameless) contributes its own identifiers.
func senderGroup(selected *identity.Contact, idx *identity.Index) []string {
	entries := idx.SameName(selected.DisplayName())
	if len(entries) == 0 {
		entries = []*identity.Contact{selected}
	}

	seen := make(map[string]bool)
	var group []string
	for _, c := range entries {
		for _, id := range c.Identifiers() {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			group = append(group, id)
		}
	}
	return group
}
