// Package worker drains queued state writes into a store.
//
// A single writer consumes the queue so writes reach the store in the order
// the engine produced them.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/pkg/logger"
	"github.com/okian/courtside/pkg/metrics"
)

// Write abstracts what the writer reads off the queue.
type Write = model.Write

// Saver persists a key-value pair.
type Saver interface {
	Save(ctx context.Context, key string, value []byte) error
}

// Queue defines how the writer receives writes.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Write
}

// AckFunc is told about every write once the store has answered.
type AckFunc func(w Write, err error)

// Worker processes queued writes.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue is
	// closed and drained.
	Run(ctx context.Context)

	// Shutdown stops the worker without draining the queue.
	Shutdown(ctx context.Context) error
}

// Writer implements Worker for a single store.
type Writer struct {
	queue Queue
	saver Saver
	name  string
	ack   AckFunc
	clock clockwork.Clock

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewWriter creates a new writer with configuration options.
func NewWriter(queue Queue, saver Saver, opts ...Option) *Writer {
	w := &Writer{
		queue:    queue,
		saver:    saver,
		name:     "writer",
		ack:      func(Write, error) {},
		clock:    clockwork.NewRealClock(),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Run starts the writer loop.
func (w *Writer) Run(ctx context.Context) {
	metrics.UpdateWorkerActiveCount(1)
	defer func() {
		metrics.UpdateWorkerActiveCount(0)
		close(w.done)
	}()

	writes := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case wr, ok := <-writes:
			if !ok {
				return
			}
			err := w.process(ctx, wr)
			w.ack(wr, err)
		}
	}
}

// Done is closed when Run returns.
func (w *Writer) Done() <-chan struct{} { return w.done }

// Wait blocks until Run returns or ctx ends.
func (w *Writer) Wait(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s wait: %w", w.name, ctx.Err())
	}
}

// Shutdown stops the writer. Writes still queued are not stored.
func (w *Writer) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process stores a single write. Failures are logged and counted; the write
// is not retried.
func (w *Writer) process(ctx context.Context, wr Write) error { //nolint:gocritic // hugeParam: Write is passed by value for channel semantics
	defer func() {
		if !wr.At.IsZero() {
			metrics.RecordWorkerProcessingLatency(float64(w.clock.Since(wr.At).Milliseconds()))
		}
	}()

	if err := w.saver.Save(ctx, wr.Key, wr.Value); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordPersistError(wr.Key)
		w.logger.Error(ctx, "write failed",
			logger.String("key", wr.Key),
			logger.Any("seq", wr.Seq),
			logger.Error(err),
		)
		return fmt.Errorf("write %s #%d: %w", wr.Key, wr.Seq, err)
	}
	return nil
}
