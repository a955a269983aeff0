package archive

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wesm/chatvault/internal/identity"
	"github.com/wesm/chatvault/internal/prefetch"
	"github.com/wesm/chatvault/internal/query"
)

// fakeStore is an in-memory query.Store with per-method call counters.
type fakeStore struct {
	mu            sync.Mutex
	conversations []query.Conversation
	messages      map[string][]query.Message
	searchResults []query.Message
	searchErr     error

	listMessageCalls int
	lastQuery        query.StoreQuery
}

func (f *fakeStore) ListConversations(ctx context.Context) ([]query.Conversation, error) {
	return f.conversations, nil
}

func (f *fakeStore) ListMessages(ctx context.Context, id string) ([]query.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listMessageCalls++
	return f.messages[id], nil
}

func (f *fakeStore) Search(ctx context.Context, q query.StoreQuery) ([]query.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	return f.searchResults, f.searchErr
}

type fakeDirectory struct {
	contacts []identity.Contact
	err      error
}

func (f *fakeDirectory) Load(ctx context.Context) ([]identity.Contact, error) {
	return f.contacts, f.err
}

func fixtureStore() *fakeStore {
	return &fakeStore{
		conversations: []query.Conversation{
			{ID: "1", Name: "Book Club", LastMessageDate: 300},
			{ID: "2", Name: "", LastMessageDate: 200},
			{ID: "3", Name: "(555) 123-4567", LastMessageDate: 100},
		},
		messages: map[string][]query.Message{
			"1": {
				{ID: 10, ConversationID: "1", Sender: "+15551234567"},
				{ID: 11, ConversationID: "1", Sender: "bob@example.com"},
				{ID: 12, ConversationID: "1", FromMe: true},
			},
			"2": {
				{ID: 20, ConversationID: "2", Sender: "+15551234567"},
			},
			"3": {
				{ID: 30, ConversationID: "3", Sender: "+15551234567"},
			},
		},
	}
}

func fixtureDirectory() *fakeDirectory {
	return &fakeDirectory{contacts: []identity.Contact{
		{ID: 1, FirstName: "Ann", LastName: "Archer", Phones: []string{"+1 (555) 123-4567"}},
		{ID: 2, FirstName: "Bob", LastName: "Baker", Emails: []string{"bob@example.com"}},
	}}
}

func newTestService(t *testing.T, store *fakeStore, dir *fakeDirectory) *Service {
	t.Helper()
	s := NewService(store, dir,
		WithPrefetchOptions(prefetch.WithBatchDelay(time.Millisecond)))
	if err := s.RefreshDirectory(context.Background()); err != nil {
		t.Fatalf("RefreshDirectory: %v", err)
	}
	return s
}

func TestRefreshDirectoryKeepsStaleIndexOnFailure(t *testing.T) {
	store := fixtureStore()
	dir := fixtureDirectory()
	s := newTestService(t, store, dir)

	dir.err = errors.New("directory locked")
	if err := s.RefreshDirectory(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}

	// The previous snapshot still resolves.
	msgs, err := s.Messages(context.Background(), "2")
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if msgs[0].Contact == nil || msgs[0].Contact.ID != 1 {
		t.Errorf("stale index no longer resolving: %+v", msgs[0].Contact)
	}
}

func TestConversationTitles(t *testing.T) {
	s := newTestService(t, fixtureStore(), fixtureDirectory())

	got, err := s.Conversations(context.Background())
	if err != nil {
		t.Fatalf("Conversations: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d conversations, want 3", len(got))
	}

	titles := map[string]string{}
	for _, c := range got {
		titles[c.ID] = c.Title
	}
	want := map[string]string{
		"1": "Book Club",  // real store name kept
		"2": "Ann Archer", // no name: single resolved participant
		"3": "Ann Archer", // identifier store name substituted
	}
	if diff := cmp.Diff(want, titles); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}
}

func TestConversationParticipants(t *testing.T) {
	s := newTestService(t, fixtureStore(), fixtureDirectory())

	got, err := s.Conversations(context.Background())
	if err != nil {
		t.Fatalf("Conversations: %v", err)
	}

	// Conversation 1 has two distinct non-self senders; the from-me message
	// contributes nothing.
	if len(got[0].Participants) != 2 {
		t.Errorf("participants = %v, want 2 senders", got[0].Participants)
	}
}

func TestMessagesServedFromCache(t *testing.T) {
	store := fixtureStore()
	s := newTestService(t, store, fixtureDirectory())

	if _, err := s.Conversations(context.Background()); err != nil {
		t.Fatalf("Conversations: %v", err)
	}
	calls := store.listMessageCalls

	msgs, err := s.Messages(context.Background(), "1")
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if store.listMessageCalls != calls {
		t.Errorf("cache miss: store fetched again (%d -> %d)", calls, store.listMessageCalls)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
}

func TestMessagesAnnotation(t *testing.T) {
	s := newTestService(t, fixtureStore(), fixtureDirectory())

	msgs, err := s.Messages(context.Background(), "1")
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}

	if msgs[0].Contact == nil || msgs[0].Contact.DisplayName() != "Ann Archer" {
		t.Errorf("phone sender not resolved: %+v", msgs[0].Contact)
	}
	if msgs[1].Contact == nil || msgs[1].Contact.DisplayName() != "Bob Baker" {
		t.Errorf("email sender not resolved: %+v", msgs[1].Contact)
	}
	if msgs[2].Contact != nil {
		t.Errorf("from-me message should stay unannotated: %+v", msgs[2].Contact)
	}
}

func TestMessagesAnnotationUnknownSenderPlaceholder(t *testing.T) {
	store := fixtureStore()
	store.messages["9"] = []query.Message{
		{ID: 90, ConversationID: "9", Sender: "+1 (555) 000-9999"},
	}
	s := newTestService(t, store, fixtureDirectory())

	msgs, err := s.Messages(context.Background(), "9")
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	c := msgs[0].Contact
	if c == nil || c.DisplayName() != "+1 (555) 000-9999" {
		t.Errorf("placeholder = %+v, want raw identifier as display name", c)
	}
}

func TestSearchPropagatesStoreError(t *testing.T) {
	store := fixtureStore()
	store.searchErr = errors.New("database is locked")
	s := newTestService(t, store, fixtureDirectory())

	_, err := s.Search(context.Background(), query.SearchSpec{Text: "x"})
	if !errors.Is(err, store.searchErr) {
		t.Fatalf("err = %v, want store error surfaced", err)
	}
}

func TestSearchCompilesAndAnnotates(t *testing.T) {
	store := fixtureStore()
	store.searchResults = []query.Message{
		{ID: 10, ConversationID: "1", Sender: "+15551234567"},
	}
	s := newTestService(t, store, fixtureDirectory())

	start := time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)
	got, err := s.Search(context.Background(), query.SearchSpec{Text: " hi ", Start: &start})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if store.lastQuery.Text != "hi" {
		t.Errorf("compiled text = %q, want trimmed", store.lastQuery.Text)
	}
	if store.lastQuery.After == nil || *store.lastQuery.After != start.Unix() {
		t.Errorf("compiled After = %v, want %d", store.lastQuery.After, start.Unix())
	}
	if got[0].Contact == nil || got[0].Contact.ID != 1 {
		t.Errorf("search result not annotated: %+v", got[0].Contact)
	}
}

func TestSearchClassPostFilter(t *testing.T) {
	store := fixtureStore()
	store.searchResults = []query.Message{
		{ID: 10, ConversationID: "1", Sender: "+15551234567"}, // 2 participants
		{ID: 20, ConversationID: "2", Sender: "+15551234567"}, // 1 participant
	}
	s := newTestService(t, store, fixtureDirectory())

	got, err := s.Search(context.Background(), query.SearchSpec{Class: query.ClassGroup})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].ConversationID != "1" {
		t.Fatalf("group filter kept %v, want only conversation 1", got)
	}

	got, err = s.Search(context.Background(), query.SearchSpec{Class: query.ClassDirect})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].ConversationID != "2" {
		t.Fatalf("direct filter kept %v, want only conversation 2", got)
	}
}

func TestSearchConversationSelectionDisablesClassFilter(t *testing.T) {
	store := fixtureStore()
	store.searchResults = []query.Message{
		{ID: 20, ConversationID: "2", Sender: "+15551234567"},
	}
	s := newTestService(t, store, fixtureDirectory())

	got, err := s.Search(context.Background(), query.SearchSpec{
		ConversationID: "2",
		Class:          query.ClassGroup, // would exclude conversation 2
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("explicit conversation selection must win over class filter, got %v", got)
	}
}
