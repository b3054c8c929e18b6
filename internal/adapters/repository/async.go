package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/okian/courtside/internal/adapters/mq/queue"
	"github.com/okian/courtside/internal/adapters/mq/worker"
	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/pkg/logger"
)

// AsyncStore queues saves for a background writer so the caller never waits
// on disk or network. Loads see the newest queued value for a key before it
// reaches the underlying store. Writes that fail in the background are logged
// and counted, not retried.
type AsyncStore struct {
	next   Store
	queue  *queue.InMemoryQueue
	writer *worker.Writer
	cancel context.CancelFunc
	logger logger.Logger
	clock  clockwork.Clock

	mu       sync.Mutex
	seq      uint64
	inflight int
	pending  map[string]model.Write
	closed   bool
}

// NewAsyncStore starts a writer draining into next.
func NewAsyncStore(next Store, opts ...Option) *AsyncStore {
	o := newOptions(opts)
	if o.logger == nil {
		o.logger = logger.Get().Named("async-store")
	}

	s := &AsyncStore{
		next:    next,
		queue:   queue.NewInMemoryQueue(queue.WithCapacity(o.queueSize)),
		logger:  o.logger,
		clock:   o.clock,
		pending: make(map[string]model.Write),
	}
	s.writer = worker.NewWriter(s.queue, next,
		worker.WithName("state-writer"),
		worker.WithLogger(o.logger),
		worker.WithAck(s.ack),
		worker.WithClock(o.clock),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.writer.Run(ctx)
	return s
}

// Save queues value for key. When the queue is full the writes already
// queued are flushed and value is written through synchronously.
func (s *AsyncStore) Save(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.seq++
	w := model.Write{Key: key, Value: append([]byte(nil), value...), Seq: s.seq, At: s.clock.Now()}
	queued := s.queue.Enqueue(ctx, w)
	if queued {
		s.pending[key] = w
		s.inflight++
	}
	s.mu.Unlock()

	if queued {
		return nil
	}
	s.logger.Warn(ctx, "write queue full, writing through", logger.String("key", key))
	if err := s.Flush(ctx); err != nil {
		return err
	}
	return s.next.Save(ctx, key, w.Value)
}

// Load returns the pending value for key if any, else the stored one.
func (s *AsyncStore) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	w, ok := s.pending[key]
	s.mu.Unlock()
	if ok {
		return append([]byte(nil), w.Value...), nil
	}
	return s.next.Load(ctx, key)
}

// Pending returns the number of queued writes not yet attempted.
func (s *AsyncStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight
}

// Flush waits until every queued write has been attempted.
func (s *AsyncStore) Flush(ctx context.Context) error {
	ticker := s.clock.NewTicker(flushInterval)
	defer ticker.Stop()
	for s.Pending() > 0 {
		select {
		case <-ctx.Done():
			return fmt.Errorf("flush: %d pending: %w", s.Pending(), ctx.Err())
		case <-ticker.Chan():
		}
	}
	return nil
}

// Close drains pending writes, then closes the underlying store.
func (s *AsyncStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	_ = s.queue.Close()
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := s.writer.Wait(ctx); err != nil {
		s.logger.Warn(ctx, "pending writes dropped", logger.Int("pending", s.Pending()), logger.Error(err))
	}
	s.cancel()
	return s.next.Close()
}

// ack drops the pending entry once the newest value for its key was attempted.
func (s *AsyncStore) ack(w model.Write, _ error) { //nolint:gocritic // hugeParam: matches worker.AckFunc
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if p, ok := s.pending[w.Key]; ok && p.Seq == w.Seq {
		delete(s.pending, w.Key)
	}
}
