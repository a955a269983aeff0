package query

import "context"

// Store is the message-store collaborator contract. Implementations must
// report timestamps as unix seconds and return a conversation's messages in a
// consistent, documented order; search results are additionally ordered by
// the sort direction requested in the StoreQuery.
type Store interface {
	// ListConversations returns conversations, most recently active first.
	ListConversations(ctx context.Context) ([]Conversation, error)

	// ListMessages returns one conversation's messages, oldest first.
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)

	// Search executes a compiled query. Failures are returned as-is; the
	// store never substitutes an empty result set for an error.
	Search(ctx context.Context, q StoreQuery) ([]Message, error)
}
