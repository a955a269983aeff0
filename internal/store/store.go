// Package store implements the message-store collaborator over a macOS
// iMessage chat.db, read-only. It serializes compiled StoreQuery values to
// parameterized SQL in a dedicated step and converts Apple-epoch timestamps
// to unix seconds at the boundary.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/wesm/chatvault/internal/query"
)

const (
	// appleEpochOffset converts Apple's 2001-01-01 epoch to the unix epoch.
	appleEpochOffset = 978307200

	// emptyTextPlaceholder stands in for NULL message text (attachment-only
	// rows).
	emptyTextPlaceholder = "[Attachment or empty message]"

	conversationLimit = 100
	messagePageLimit  = 1000
	searchLimit       = 500
)

// appleToUnix converts a chat.db nanosecond Apple-epoch date to unix seconds.
func appleToUnix(appleNS int64) int64 {
	if appleNS <= 0 {
		return 0
	}
	return appleNS/1_000_000_000 + appleEpochOffset
}

// unixToAppleNS converts unix seconds to a chat.db nanosecond Apple date.
func unixToAppleNS(unix int64) int64 {
	return (unix - appleEpochOffset) * 1_000_000_000
}

// SQLiteStore reads conversations and messages from an iMessage chat.db.
// It implements query.Store and never writes to the database.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens the chat.db at path read-only.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open message store: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// NewWithDB wraps an existing connection. The store does not take ownership;
// the caller closes the database.
func NewWithDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Close releases the underlying connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ListConversations returns up to 100 conversations, most recently active
// first. The store-provided name falls back to the first handle's raw
// identifier; identifier-looking names are resolved downstream, not here.
func (s *SQLiteStore) ListConversations(ctx context.Context) ([]query.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			c.ROWID,
			COALESCE(NULLIF(c.display_name, ''), h.id, ''),
			COALESCE(m.text, ''),
			COALESCE(MAX(m.date), 0)
		FROM chat c
		LEFT JOIN chat_handle_join chj ON chj.chat_id = c.ROWID
		LEFT JOIN handle h ON h.ROWID = chj.handle_id
		LEFT JOIN chat_message_join cmj ON cmj.chat_id = c.ROWID
		LEFT JOIN message m ON m.ROWID = cmj.message_id
		GROUP BY c.ROWID
		ORDER BY MAX(m.date) DESC
		LIMIT ?
	`, conversationLimit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []query.Conversation
	for rows.Next() {
		var (
			rowID   int64
			conv    query.Conversation
			appleNS int64
		)
		if err := rows.Scan(&rowID, &conv.Name, &conv.LastMessage, &appleNS); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		conv.ID = strconv.FormatInt(rowID, 10)
		conv.LastMessageDate = appleToUnix(appleNS)
		conversations = append(conversations, conv)
	}
	return conversations, rows.Err()
}

// ListMessages returns up to 1000 messages for one conversation, oldest
// first. NULL text becomes a fixed placeholder; attachment metadata comes
// from the attachment table's mime_type, not from filename sniffing.
func (s *SQLiteStore) ListMessages(ctx context.Context, conversationID string) ([]query.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			m.ROWID,
			COALESCE(m.text, ''),
			COALESCE(m.date, 0),
			COALESCE(m.is_from_me, 0),
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
		LEFT JOIN handle h ON h.ROWID = m.handle_id
		WHERE cmj.chat_id = ?
		ORDER BY m.date ASC
		LIMIT ?
	`, conversationID, messagePageLimit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	return s.scanMessages(rows, conversationID)
}

// Search executes a compiled query against the archive, returning up to 500
// messages ordered by the requested sort direction. Failures are returned to
// the caller; an empty result set is never substituted for an error.
func (s *SQLiteStore) Search(ctx context.Context, q query.StoreQuery) ([]query.Message, error) {
	sqlText, args := serializeSearch(q)

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	defer rows.Close()

	return s.scanMessages(rows, "")
}

// scanMessages reads message rows produced by the shared column list. When
// conversationID is empty, the row set includes a chat_id column.
func (s *SQLiteStore) scanMessages(rows *sql.Rows, conversationID string) ([]query.Message, error) {
	var messages []query.Message
	for rows.Next() {
		var (
			m       query.Message
			appleNS int64
			fromMe  int
		)

		var err error
		if conversationID == "" {
			var chatID int64
			err = rows.Scan(&m.ID, &m.Text, &appleNS, &fromMe, &chatID,
				&m.Sender, &m.AttachmentPath, &m.AttachmentMIME)
			m.ConversationID = strconv.FormatInt(chatID, 10)
		} else {
			err = rows.Scan(&m.ID, &m.Text, &appleNS, &fromMe,
				&m.Sender, &m.AttachmentPath, &m.AttachmentMIME)
			m.ConversationID = conversationID
		}
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}

		m.Date = appleToUnix(appleNS)
		m.FromMe = fromMe == 1
		if m.FromMe {
			// From-self rows carry a handle only on some macOS versions;
			// it is never a meaningful sender identifier.
			m.Sender = ""
		}
		if m.Text == "" {
			m.Text = emptyTextPlaceholder
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
