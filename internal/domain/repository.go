package domain

import (
	"context"

	"github.com/google/uuid"
)

// OverlayRepository defines the interface for overlay catalogue persistence
type OverlayRepository interface {
	// GetByID retrieves an overlay by its ID
	// Returns ErrOverlayNotFound if no overlay exists with that ID
	GetByID(ctx context.Context, id uuid.UUID) (*Overlay, error)

	// Create stores a new overlay
	Create(ctx context.Context, overlay *Overlay) error

	// Update replaces the stored overlay with the given one.
	// Each update is a single atomic replacement of the overlay's entry.
	Update(ctx context.Context, overlay *Overlay) error

	// Delete removes an overlay from the catalogue
	Delete(ctx context.Context, id uuid.UUID) error

	// List retrieves all overlays, optionally filtered by owner
	// If owner is empty, returns all overlays
	List(ctx context.Context, owner string) ([]*Overlay, error)
}

// HistoryRepository defines the interface for the append-only rebalance history
type HistoryRepository interface {
	// Create appends a finalized history entry
	Create(ctx context.Context, entry *RebalanceHistoryEntry) error

	// List retrieves a paginated list of history entries, newest first
	List(ctx context.Context, limit, offset int) ([]*RebalanceHistoryEntry, error)

	// Count returns the total number of history entries
	Count(ctx context.Context) (int, error)
}
