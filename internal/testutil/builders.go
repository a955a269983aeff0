// Package testutil provides shared helpers for building test fixtures.
package testutil

import (
	"strings"

	"github.com/wesm/chatvault/internal/identity"
	"github.com/wesm/chatvault/internal/query"
)

// MessageBuilder provides a fluent API for constructing query.Message in
// tests.
type MessageBuilder struct {
	m query.Message
}

// NewMessage creates a builder with sensible defaults.
func NewMessage(id int64) *MessageBuilder {
	return &MessageBuilder{
		m: query.Message{
			ID:             id,
			Text:           "test message",
			Date:           1700000000,
			ConversationID: "1",
			Sender:         "+15551234567",
		},
	}
}

func (b *MessageBuilder) WithText(text string) *MessageBuilder {
	b.m.Text = text
	return b
}

func (b *MessageBuilder) WithDate(unix int64) *MessageBuilder {
	b.m.Date = unix
	return b
}

func (b *MessageBuilder) WithSender(sender string) *MessageBuilder {
	b.m.Sender = sender
	return b
}

func (b *MessageBuilder) WithConversation(id string) *MessageBuilder {
	b.m.ConversationID = id
	return b
}

func (b *MessageBuilder) FromMe() *MessageBuilder {
	b.m.FromMe = true
	b.m.Sender = ""
	return b
}

func (b *MessageBuilder) WithContact(c *identity.Contact) *MessageBuilder {
	b.m.Contact = c
	return b
}

func (b *MessageBuilder) WithAttachment(path, mime string) *MessageBuilder {
	b.m.AttachmentPath = path
	b.m.AttachmentMIME = mime
	return b
}

// Build returns the constructed message.
func (b *MessageBuilder) Build() query.Message {
	return b.m
}

// NewContact creates a directory contact with the given name and
// identifiers. Identifiers containing "@" become emails, the rest phones.
func NewContact(id int64, first, last string, identifiers ...string) identity.Contact {
	c := identity.Contact{ID: id, FirstName: first, LastName: last}
	for _, ident := range identifiers {
		if strings.Contains(ident, "@") {
			c.Emails = append(c.Emails, ident)
		} else {
			c.Phones = append(c.Phones, ident)
		}
	}
	return c
}
