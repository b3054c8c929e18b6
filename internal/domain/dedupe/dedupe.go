// Package dedupe remembers operator command keys so a repeated command (a
// double click, a client retry) is acknowledged once and applied once.
package dedupe

import (
	"container/list"
	"context"
	"strings"
	"sync"
)

// Default guard configuration constants.
const (
	defaultMaxSize = 1024
	maxKeyLength   = 255
)

// Deduper records command keys to ensure at-most-once application.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen. Blank keys are never recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so the same command can be sent again, used
	// when the command it guarded was rejected.
	Unrecord(ctx context.Context, key string)

	// Size returns the number of remembered keys.
	Size() int
}

// inMemoryDeduper keeps the most recent keys, evicting the oldest first.
type inMemoryDeduper struct {
	mu      sync.Mutex
	order   *list.List // oldest at front
	seen    map[string]*list.Element
	maxSize int
}

// NewInMemoryDeduper creates an in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		order:   list.New(),
		seen:    make(map[string]*list.Element),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Normalize trims key and reports whether it is usable.
func Normalize(key string) (string, bool) {
	key = strings.TrimSpace(key)
	return key, key != "" && len(key) <= maxKeyLength
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	key, ok := Normalize(key)
	if !ok {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; exists {
		return true
	}

	if d.maxSize > 0 {
		for d.order.Len() >= d.maxSize {
			oldest := d.order.Front()
			d.order.Remove(oldest)
			delete(d.seen, oldest.Value.(string))
		}
	}
	d.seen[key] = d.order.PushBack(key)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	key, ok := Normalize(key)
	if !ok {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if e, exists := d.seen[key]; exists {
		d.order.Remove(e)
		delete(d.seen, key)
	}
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.order.Len()
}
