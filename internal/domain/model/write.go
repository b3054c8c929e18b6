// Package model contains records passed between the engine and the
// persistence layer.
package model

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores for keys that were never saved.
var ErrNotFound = errors.New("key not found")

// Write is one pending key-value save.
type Write struct {
	Key   string    // persisted key, e.g. "referee_match_data"
	Value []byte    // raw value, owned by the write
	Seq   uint64    // monotonically increasing per store
	At    time.Time // when the engine produced the value
}

// Clone returns a copy that does not share Value.
func (w Write) Clone() Write {
	if w.Value != nil {
		w.Value = append([]byte(nil), w.Value...)
	}
	return w
}
