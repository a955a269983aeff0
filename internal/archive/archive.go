// Package archive wires the message store, the contact directory, and the
// prefetch cache into one service. All identity resolution happens here on
// the way out; nothing resolved is ever written back.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wesm/chatvault/internal/identity"
	"github.com/wesm/chatvault/internal/prefetch"
	"github.com/wesm/chatvault/internal/query"
)

// DirectoryLoader loads the contact directory snapshot.
type DirectoryLoader interface {
	Load(ctx context.Context) ([]identity.Contact, error)
}

// Conversation is a store conversation enriched with a synthesized title and
// the raw participant identifiers seen so far.
type Conversation struct {
	query.Conversation
	Title        string
	Participants []string
}

// Service orchestrates the archive: listing, searching, identity annotation,
// and directory refresh. It is safe for concurrent use.
type Service struct {
	store     query.Store
	directory DirectoryLoader
	cache     *prefetch.Cache
	scheduler *prefetch.Scheduler
	logger    *slog.Logger

	mu       sync.RWMutex
	idx      *identity.Index
	contacts []identity.Contact
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithPrefetchOptions forwards options to the prefetch scheduler.
func WithPrefetchOptions(opts ...prefetch.Option) Option {
	return func(s *Service) {
		s.scheduler = prefetch.New(s.store.ListMessages, s.cache, opts...)
	}
}

// NewService creates a Service over a message store and a directory loader.
// The directory index starts empty; call RefreshDirectory before serving.
func NewService(store query.Store, directory DirectoryLoader, opts ...Option) *Service {
	s := &Service{
		store:     store,
		directory: directory,
		cache:     prefetch.NewCache(),
		logger:    slog.Default(),
		idx:       identity.BuildIndex(nil),
	}
	s.scheduler = prefetch.New(store.ListMessages, s.cache)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RefreshDirectory reloads the contact directory and swaps in a freshly
// built index. On reader failure the previous index stays in place, so
// resolution keeps working with stale data, and the error is returned.
func (s *Service) RefreshDirectory(ctx context.Context) error {
	contacts, err := s.directory.Load(ctx)
	if err != nil {
		return fmt.Errorf("refresh contact directory: %w", err)
	}

	idx := identity.BuildIndex(contacts)
	s.mu.Lock()
	s.idx = idx
	s.contacts = contacts
	s.mu.Unlock()

	s.cache.Invalidate()
	s.logger.Info("contact directory refreshed", "contacts", len(contacts))
	return nil
}

// Index returns the current directory index. The index is immutable; holders
// keep a consistent view even across a concurrent refresh.
func (s *Service) Index() *identity.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx
}

// Contacts returns the current directory snapshot.
func (s *Service) Contacts() []identity.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contacts
}

// Conversations lists conversations, prefetches their message pages, and
// synthesizes display titles. The prefetch run completes before titles are
// synthesized so participant-derived titles and the participant-count table
// are populated from the start. Per-conversation fetch failures are absorbed
// by the scheduler; only the listing itself can fail.
func (s *Service) Conversations(ctx context.Context) ([]Conversation, error) {
	listed, err := s.store.ListConversations(ctx)
	if err != nil {
		return nil, err
	}

	for range s.scheduler.Run(ctx, listed) {
		// Drain; the scheduler records pages in the cache as it goes.
	}

	idx := s.Index()
	conversations := make([]Conversation, 0, len(listed))
	for _, conv := range listed {
		participants := s.cache.Senders(conv.ID)
		resolved := make([]identity.Resolved, 0, len(participants))
		for _, raw := range participants {
			resolved = append(resolved, identity.Resolve(raw, idx))
		}
		conversations = append(conversations, Conversation{
			Conversation: conv,
			Title:        identity.TitleFor(conv.Name, resolved, idx),
			Participants: participants,
		})
	}
	return conversations, nil
}

// Messages returns the sender-annotated message page for one conversation,
// serving from the prefetch cache when possible.
func (s *Service) Messages(ctx context.Context, conversationID string) ([]query.Message, error) {
	if page, ok := s.cache.Get(conversationID); ok {
		return s.annotate(page), nil
	}

	page, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	s.cache.Put(conversationID, page)
	return s.annotate(page), nil
}

// Search compiles the specification, runs it against the store, annotates
// senders, and applies the conversation-class post-filter. Store failures
// are returned as-is; an error is never flattened into an empty result.
func (s *Service) Search(ctx context.Context, spec query.SearchSpec) ([]query.Message, error) {
	idx := s.Index()

	class := spec.EffectiveClass()
	if class != query.ClassAll {
		if err := s.ensureCounts(ctx); err != nil {
			return nil, err
		}
	}

	results, err := s.store.Search(ctx, query.Compile(spec, idx))
	if err != nil {
		return nil, err
	}

	annotated := s.annotate(results)
	return query.FilterByClass(annotated, class, s.cache.Counts()), nil
}

// ensureCounts populates the participant-count table when a class filter
// needs it and nothing has been prefetched yet.
func (s *Service) ensureCounts(ctx context.Context) error {
	if len(s.cache.Counts()) > 0 {
		return nil
	}
	_, err := s.Conversations(ctx)
	return err
}

// annotate resolves sender identifiers to contacts on a copy of the page.
// From-self messages are skipped; their sender identifier is meaningless.
func (s *Service) annotate(messages []query.Message) []query.Message {
	idx := s.Index()

	annotated := make([]query.Message, len(messages))
	copy(annotated, messages)
	for i := range annotated {
		m := &annotated[i]
		if m.FromMe || m.Sender == "" {
			continue
		}
		m.Contact = identity.Resolve(m.Sender, idx).Contact
	}
	return annotated
}
