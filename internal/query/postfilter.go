package query

// ParticipantCounts maps a conversation ID to the number of distinct
// non-self participants observed in its prefetched messages. It is the table
// the prefetch cache maintains for conversation-class post-filtering.
type ParticipantCounts map[string]int

// Class returns the conversation class for an ID: at most one other
// participant is direct, two or more is group. Conversations missing from
// the table (prefetch failed or never ran) are classed as direct.
func (pc ParticipantCounts) Class(conversationID string) ConversationClass {
	if pc[conversationID] >= 2 {
		return ClassGroup
	}
	return ClassDirect
}

// FilterByClass applies the conversation-class filter to resolved search
// results. The store cannot express this predicate — it has no notion of
// participant count — so it runs after the store query, against the cached
// per-conversation participant counts. ClassAll returns the input unchanged.
func FilterByClass(messages []Message, class ConversationClass, counts ParticipantCounts) []Message {
	if class == ClassAll {
		return messages
	}

	filtered := make([]Message, 0, len(messages))
	for _, m := range messages {
		if counts.Class(m.ConversationID) == class {
			filtered = append(filtered, m)
		}
	}
	return filtered
}
