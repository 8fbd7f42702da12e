// Package logbook holds the ordered log records of one project session.
//
// Records are append-only between clears. Subscribers receive every record
// appended after they subscribe, plus a nil record for every clear.
package logbook

import (
	"sync"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// Book is an append-only, clearable log of LogRecords
type Book struct {
	mu      sync.RWMutex
	records []types.LogRecord
	subs    map[int]chan *types.LogRecord
	nextSub int
	max     int
}

// New creates a book. max bounds the retained records; 0 means unbounded.
func New(max int) *Book {
	return &Book{subs: make(map[int]chan *types.LogRecord), max: max}
}

// Append records a message at level
func (b *Book) Append(level types.Level, message string) types.LogRecord {
	rec := types.NewLogRecord(level, message)
	b.Add(rec)
	return rec
}

// Add records a prepared record
func (b *Book) Add(rec types.LogRecord) {
	b.mu.Lock()
	b.records = append(b.records, rec)
	if b.max > 0 && len(b.records) > b.max {
		b.records = append([]types.LogRecord(nil), b.records[len(b.records)-b.max:]...)
	}
	b.broadcast(&rec)
	b.mu.Unlock()
}

// Clear drops every record
func (b *Book) Clear() {
	b.mu.Lock()
	b.records = nil
	b.broadcast(nil)
	b.mu.Unlock()
}

// List returns a copy of the records in append order
func (b *Book) List() []types.LogRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]types.LogRecord, len(b.records))
	copy(out, b.records)
	return out
}

// Len returns the number of records
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

// Subscribe returns a channel of future records and a cancel func. Slow
// subscribers lose records rather than blocking writers.
func (b *Book) Subscribe(buffer int) (<-chan *types.LogRecord, func()) {
	ch := make(chan *types.LogRecord, buffer)

	b.mu.Lock()
	key := b.nextSub
	b.nextSub++
	b.subs[key] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, key)
			close(ch)
			b.mu.Unlock()
		})
	}
}

// broadcast must be called with mu held
func (b *Book) broadcast(rec *types.LogRecord) {
	for _, ch := range b.subs {
		select {
		case ch <- rec:
		default:
		}
	}
}
