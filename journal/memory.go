package journal

import (
	"context"
	"sync"

	"github.com/goliatone/go-payment-ingest/core"
)

// MemoryJournal keeps entries in process. It backs deployments that run
// without a journal database and the test suites.
type MemoryJournal struct {
	mu      sync.Mutex
	entries []core.JournalEntry
	orders  []core.Order
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

func (j *MemoryJournal) Append(_ context.Context, entry core.JournalEntry) error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
	return nil
}

func (j *MemoryJournal) RecordOrder(_ context.Context, order core.Order) error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.orders = append(j.orders, order)
	return nil
}

func (j *MemoryJournal) Entries() []core.JournalEntry {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]core.JournalEntry(nil), j.entries...)
}

func (j *MemoryJournal) Orders() []core.Order {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]core.Order(nil), j.orders...)
}

var _ core.DeliveryJournal = (*MemoryJournal)(nil)
