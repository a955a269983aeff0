// Package prefetch fetches per-conversation message pages ahead of user
// interaction so titles and participant sets can be computed without
// blocking, while bounding the number of simultaneous store handles.
package prefetch

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wesm/chatvault/internal/query"
)

const (
	// DefaultBatchSize caps simultaneous fetches per batch.
	DefaultBatchSize = 5

	// DefaultBatchDelay is the pause between batches, easing pressure on
	// the store between bursts.
	DefaultBatchDelay = 150 * time.Millisecond
)

// FetchFunc retrieves one conversation's message page from the store.
type FetchFunc func(ctx context.Context, conversationID string) ([]query.Message, error)

// Result reports the outcome of one conversation's fetch. Err is set when
// the fetch failed; the conversation's cache entry is then left empty and
// the rest of the run proceeds.
type Result struct {
	ConversationID string
	Messages       []query.Message
	Err            error
}

// Scheduler prefetches conversation pages in fixed-size batches: all fetches
// within a batch run concurrently, the whole batch is awaited before the
// next starts, and a short delay separates batches. The batching trades some
// throughput for bounded resource pressure on the store.
type Scheduler struct {
	fetch     FetchFunc
	cache     *Cache
	batchSize int
	delay     time.Duration
	logger    *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithBatchSize overrides the batch size (values < 1 keep the default).
func WithBatchSize(n int) Option {
	return func(s *Scheduler) {
		if n >= 1 {
			s.batchSize = n
		}
	}
}

// WithBatchDelay overrides the inter-batch delay.
func WithBatchDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithLogger sets the logger for per-conversation diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// New creates a Scheduler that records fetched pages in cache.
func New(fetch FetchFunc, cache *Cache, opts ...Option) *Scheduler {
	s := &Scheduler{
		fetch:     fetch,
		cache:     cache,
		batchSize: DefaultBatchSize,
		delay:     DefaultBatchDelay,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run prefetches message pages for the given conversations and streams one
// Result per conversation. The returned channel is closed when the run
// completes or the context is cancelled.
//
// A failure fetching one conversation is reported on its Result and logged,
// but never aborts its batch or the run. Each successful page is recorded in
// the cache as it arrives; overlapping runs are safe, with the last writer
// winning per conversation.
func (s *Scheduler) Run(ctx context.Context, conversations []query.Conversation) <-chan Result {
	results := make(chan Result, s.batchSize)

	go func() {
		defer close(results)

		for start := 0; start < len(conversations); start += s.batchSize {
			end := start + s.batchSize
			if end > len(conversations) {
				end = len(conversations)
			}

			if err := s.runBatch(ctx, conversations[start:end], results); err != nil {
				// Only context cancellation surfaces here.
				return
			}

			if end < len(conversations) && s.delay > 0 {
				select {
				case <-time.After(s.delay):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return results
}

// runBatch issues every fetch in the batch concurrently and waits for all of
// them. Fetch errors are absorbed per conversation; the returned error is
// non-nil only on context cancellation.
func (s *Scheduler) runBatch(ctx context.Context, batch []query.Conversation, results chan<- Result) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, conv := range batch {
		conv := conv
		g.Go(func() error {
			messages, err := s.fetch(gctx, conv.ID)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Warn("prefetch failed, skipping conversation",
					"conversation", conv.ID, "error", err)
				select {
				case results <- Result{ConversationID: conv.ID, Err: err}:
				case <-gctx.Done():
					return gctx.Err()
				}
				return nil
			}

			s.cache.Put(conv.ID, messages)
			select {
			case results <- Result{ConversationID: conv.ID, Messages: messages}:
			case <-gctx.Done():
				return gctx.Err()
			}
			return nil
		})
	}

	return g.Wait()
}
