package prefetch

import (
	"sync"

	"github.com/wesm/chatvault/internal/query"
)

// Cache holds prefetched per-conversation message pages for the session,
// plus the derived participant table consumed by conversation-class
// post-filtering and title synthesis. Each slot is written whole by the task
// that fetched it; concurrent writers race benignly with the last one
// winning. Invalidate clears everything on directory refresh.
type Cache struct {
	mu      sync.RWMutex
	pages   map[string][]query.Message
	senders map[string][]string // distinct non-self sender identifiers, first-seen order
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		pages:   make(map[string][]query.Message),
		senders: make(map[string][]string),
	}
}

// Put records a conversation's message page, replacing any previous entry,
// and recomputes the conversation's distinct non-self senders.
func (c *Cache) Put(conversationID string, messages []query.Message) {
	senders := distinctSenders(messages)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[conversationID] = messages
	c.senders[conversationID] = senders
}

// Get returns the cached page for a conversation, if any.
func (c *Cache) Get(conversationID string) ([]query.Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	page, ok := c.pages[conversationID]
	return page, ok
}

// Senders returns the distinct non-self sender identifiers seen in a
// conversation's cached page, in first-seen order.
func (c *Cache) Senders(conversationID string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.senders[conversationID]
}

// Counts snapshots the participant-count table: conversation ID to number of
// distinct non-self participants.
func (c *Cache) Counts() query.ParticipantCounts {
	c.mu.RLock()
	defer c.mu.RUnlock()

	counts := make(query.ParticipantCounts, len(c.senders))
	for id, s := range c.senders {
		counts[id] = len(s)
	}
	return counts
}

// Invalidate discards all cached pages and participant data.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages = make(map[string][]query.Message)
	c.senders = make(map[string][]string)
}

// distinctSenders collects the unique non-self sender identifiers in a page.
// From-self messages never carry a meaningful sender identifier and are
// skipped.
func distinctSenders(messages []query.Message) []string {
	seen := make(map[string]bool)
	var senders []string
	for _, m := range messages {
		if m.FromMe || m.Sender == "" || seen[m.Sender] {
			continue
		}
		seen[m.Sender] = true
		senders = append(senders, m.Sender)
	}
	return senders
}
