// Package query defines the message and conversation models, the user-facing
// search specification, and the compiler that turns a specification into the
// single structured query executed by the message store.
package query

import (
	"strings"
	"time"

	"github.com/wesm/chatvault/internal/identity"
)

// Conversation is a chat thread as reported by the message store.
// Participants are not stored on the entity; they are derived from the union
// of non-self sender identifiers seen across the conversation's messages.
type Conversation struct {
	ID              string
	Name            string // store-provided display name, often empty or a bare identifier
	LastMessage     string
	LastMessageDate int64 // unix seconds
}

// Message is a single archived message. Date is unix seconds. Sender is the
// raw identifier as recorded by the store; Contact is filled in by identity
// resolution and is nil until the message has passed through the annotation
// pipeline. From-self messages carry no meaningful sender identifier.
type Message struct {
	ID             int64
	Text           string
	Date           int64
	FromMe         bool
	ConversationID string
	Sender         string
	Contact        *identity.Contact
	AttachmentPath string
	AttachmentMIME string
}

// HasAttachment reports whether the store recorded attachment metadata for
// the message.
func (m Message) HasAttachment() bool {
	return m.AttachmentPath != "" || m.AttachmentMIME != ""
}

// SortDirection orders search results by timestamp.
type SortDirection int

const (
	SortDesc SortDirection = iota
	SortAsc
)

func (d SortDirection) String() string {
	if d == SortAsc {
		return "asc"
	}
	return "desc"
}

// ConversationClass partitions conversations by participant count: a direct
// conversation has at most one other participant, a group has two or more.
type ConversationClass int

const (
	ClassAll ConversationClass = iota
	ClassDirect
	ClassGroup
)

func (c ConversationClass) String() string {
	switch c {
	case ClassDirect:
		return "direct"
	case ClassGroup:
		return "group"
	default:
		return "all"
	}
}

// AttachmentClass selects messages by attachment presence and kind. Kind is
// judged from store-provided MIME metadata, never from filename suffixes.
type AttachmentClass int

const (
	AttachmentsAll AttachmentClass = iota // no attachment filter
	AttachmentsAny                        // any attachment present
	AttachmentImage
	AttachmentVideo
	AttachmentPDF
	AttachmentAudio
	AttachmentOther // attachment present but none of the known kinds
)

func (a AttachmentClass) String() string {
	switch a {
	case AttachmentsAny:
		return "any"
	case AttachmentImage:
		return "image"
	case AttachmentVideo:
		return "video"
	case AttachmentPDF:
		return "pdf"
	case AttachmentAudio:
		return "audio"
	case AttachmentOther:
		return "other"
	default:
		return "all"
	}
}

// SearchSpec captures every user-chosen search criterion. The zero value is a
// valid specification that matches everything.
type SearchSpec struct {
	Text  string
	Start *time.Time // inclusive lower bound
	End   *time.Time // inclusive upper bound

	// Contacts restricts results to messages from the selected contacts.
	// Each selected contact is expanded at compile time to cover every
	// directory entry sharing its display name.
	Contacts []identity.Contact

	// ConversationID restricts results to a single conversation. When set it
	// takes precedence over Class even if the UI failed to enforce their
	// mutual exclusion.
	ConversationID string

	Class       ConversationClass
	Attachments AttachmentClass
	FromMeOnly  bool
	Sort        SortDirection
}

// IsEmpty reports whether the specification carries no criteria at all.
func (s SearchSpec) IsEmpty() bool {
	return strings.TrimSpace(s.Text) == "" &&
		s.Start == nil && s.End == nil &&
		len(s.Contacts) == 0 &&
		s.ConversationID == "" &&
		s.Class == ClassAll &&
		s.Attachments == AttachmentsAll &&
		!s.FromMeOnly
}

// EffectiveClass returns the conversation-class filter that should actually
// be applied after the store query runs. An explicit conversation selection
// wins over the class filter.
func (s SearchSpec) EffectiveClass() ConversationClass {
	if s.ConversationID != "" {
		return ClassAll
	}
	return s.Class
}
