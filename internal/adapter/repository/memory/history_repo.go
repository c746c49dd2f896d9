package memory

import (
	"context"
	"sync"

	"github.com/simaogato/rebalance-backend/internal/domain"
)

// historyRepository implements domain.HistoryRepository in memory.
// Entries are append-only and never mutated after creation.
type historyRepository struct {
	mu      sync.Mutex
	entries []domain.RebalanceHistoryEntry
}

// NewHistoryRepository creates a new in-memory history repository
func NewHistoryRepository() domain.HistoryRepository {
	return &historyRepository{}
}

// Create appends a finalized history entry
func (r *historyRepository) Create(_ context.Context, entry *domain.RebalanceHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, *entry)
	return nil
}

// List retrieves a paginated list of history entries, newest first
func (r *historyRepository) List(_ context.Context, limit, offset int) ([]*domain.RebalanceHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.RebalanceHistoryEntry, 0, limit)
	for i := len(r.entries) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		entry := r.entries[i]
		out = append(out, &entry)
	}
	return out, nil
}

// Count returns the total number of history entries
func (r *historyRepository) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries), nil
}
