package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/simaogato/rebalance-backend/internal/domain"
)

// overlayRepository implements domain.OverlayRepository in memory.
// Entities live in a slot slice with a separate id -> slot index, so
// references stay stable without pointer aliasing into the arena.
// Mutations are serialized by the mutex.
type overlayRepository struct {
	mu    sync.Mutex
	slots []domain.Overlay
	index map[uuid.UUID]int
}

// NewOverlayRepository creates a new in-memory overlay repository
func NewOverlayRepository() domain.OverlayRepository {
	return &overlayRepository{
		index: make(map[uuid.UUID]int),
	}
}

// GetByID retrieves an overlay by its ID
func (r *overlayRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Overlay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.index[id]
	if !ok {
		return nil, domain.ErrOverlayNotFound
	}
	return r.slots[slot].DeepCopy(), nil
}

// Create stores a new overlay
func (r *overlayRepository) Create(_ context.Context, overlay *domain.Overlay) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.slots = append(r.slots, *overlay.DeepCopy())
	r.index[overlay.ID] = len(r.slots) - 1
	return nil
}

// Update atomically replaces the stored overlay's slot
func (r *overlayRepository) Update(_ context.Context, overlay *domain.Overlay) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.index[overlay.ID]
	if !ok {
		return domain.ErrOverlayNotFound
	}
	r.slots[slot] = *overlay.DeepCopy()
	return nil
}

// Delete removes an overlay, moving the last slot into the freed position
func (r *overlayRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.index[id]
	if !ok {
		return domain.ErrOverlayNotFound
	}

	last := len(r.slots) - 1
	if slot != last {
		r.slots[slot] = r.slots[last]
		r.index[r.slots[slot].ID] = slot
	}
	r.slots = r.slots[:last]
	delete(r.index, id)
	return nil
}

// List retrieves all overlays, optionally filtered by owner
func (r *overlayRepository) List(_ context.Context, owner string) ([]*domain.Overlay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.Overlay, 0, len(r.slots))
	for i := range r.slots {
		if owner != "" && r.slots[i].Owner != owner {
			continue
		}
		out = append(out, r.slots[i].DeepCopy())
	}
	return out, nil
}
