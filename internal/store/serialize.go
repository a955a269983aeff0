package store

import (
	"strings"

	"github.com/wesm/chatvault/internal/identity"
	"github.com/wesm/chatvault/internal/query"
)

// searchColumns is the shared projection for search results. The scalar
// subqueries surface one attachment per message without fanning out rows.
const searchColumns = `
	SELECT
		m.ROWID,
		COALESCE(m.text, ''),
		COALESCE(m.date, 0),
		COALESCE(m.is_from_me, 0),
		cmj.chat_id,
		COALESCE(h.uncanonicalized_id, h.id, ''),
		COALESCE((
			SELECT a.filename FROM message_attachment_join maj
			JOIN attachment a ON a.ROWID = maj.attachment_id
			WHERE maj.message_id = m.ROWID LIMIT 1
		), ''),
		COALESCE((
			SELECT a.mime_type FROM message_attachment_join maj
			JOIN attachment a ON a.ROWID = maj.attachment_id
			WHERE maj.message_id = m.ROWID LIMIT 1
		), '')
	FROM message m
	JOIN chat_message_join cmj ON cmj.message_id = m.ROWID
	LEFT JOIN handle h ON h.ROWID = m.handle_id`

// serializeSearch turns a compiled StoreQuery into parameterized SQL. It is
// the only place query structure meets SQL text; every user-supplied value
// travels as an argument, never as spliced text.
func serializeSearch(q query.StoreQuery) (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	b.WriteString(searchColumns)
	b.WriteString("\n\tWHERE 1=1")

	if q.Text != "" {
		b.WriteString("\n\t\tAND m.text LIKE ?")
		args = append(args, "%"+q.Text+"%")
	}
	if q.After != nil {
		b.WriteString("\n\t\tAND m.date >= ?")
		args = append(args, unixToAppleNS(*q.After))
	}
	if q.Before != nil {
		b.WriteString("\n\t\tAND m.date <= ?")
		args = append(args, unixToAppleNS(*q.Before))
	}
	if q.ConversationID != "" {
		b.WriteString("\n\t\tAND cmj.chat_id = ?")
		args = append(args, q.ConversationID)
	}
	if q.FromMeOnly {
		b.WriteString("\n\t\tAND m.is_from_me = 1")
	}
	if len(q.SenderGroups) > 0 {
		clause, groupArgs := senderClause(q.SenderGroups)
		if clause != "" {
			b.WriteString("\n\t\tAND ")
			b.WriteString(clause)
			args = append(args, groupArgs...)
		}
	}
	if !q.Attachment.IsEmpty() {
		clause, attArgs := attachmentClause(q.Attachment)
		b.WriteString("\n\t\tAND ")
		b.WriteString(clause)
		args = append(args, attArgs...)
	}

	b.WriteString("\n\tORDER BY m.date ")
	if q.Sort == query.SortAsc {
		b.WriteString("ASC")
	} else {
		b.WriteString("DESC")
	}
	b.WriteString("\n\tLIMIT ?")
	args = append(args, searchLimit)

	return b.String(), args
}

// senderClause matches any identifier from any group. Email identifiers
// compare case-insensitively against the handle; phone identifiers match on
// their digit sequence so that stored-format variants ("+1 (555) 123-4567"
// against "15551234567") still hit.
func senderClause(groups [][]string) (string, []any) {
	var (
		terms []string
		args  []any
	)
	for _, group := range groups {
		for _, id := range group {
			if strings.Contains(id, "@") {
				email := identity.NormalizeEmail(id)
				terms = append(terms, "LOWER(h.id) = ?", "LOWER(h.uncanonicalized_id) = ?")
				args = append(args, email, email)
				continue
			}
			keys := identity.NormalizePhone(id)
			if keys.Empty() {
				terms = append(terms, "h.id = ?", "h.uncanonicalized_id = ?")
				args = append(args, id, id)
				continue
			}
			pattern := "%" + keys.Digits + "%"
			terms = append(terms, "h.id LIKE ?", "h.uncanonicalized_id LIKE ?")
			args = append(args, pattern, pattern)
		}
	}
	if len(terms) == 0 {
		return "", nil
	}
	return "(" + strings.Join(terms, " OR ") + ")", args
}

// attachmentClause builds the attachment EXISTS predicate. MIME prefixes and
// exact types come from the attachment table's declared mime_type; Exclude
// inverts the MIME conditions while still requiring an attachment, which is
// how the "other" kind is expressed.
func attachmentClause(p query.AttachmentPredicate) (string, []any) {
	var (
		mimeTerms []string
		args      []any
	)
	for _, prefix := range p.MIMEPrefixes {
		mimeTerms = append(mimeTerms, "a.mime_type LIKE ?")
		args = append(args, prefix+"%")
	}
	for _, exact := range p.MIMEExact {
		mimeTerms = append(mimeTerms, "a.mime_type = ?")
		args = append(args, exact)
	}

	inner := "maj.message_id = m.ROWID"
	if len(mimeTerms) > 0 {
		cond := "(" + strings.Join(mimeTerms, " OR ") + ")"
		if p.Exclude {
			cond = "NOT " + cond
		}
		inner += " AND " + cond
	}

	return "EXISTS (SELECT 1 FROM message_attachment_join maj" +
		" JOIN attachment a ON a.ROWID = maj.attachment_id" +
		" WHERE " + inner + ")", args
}
