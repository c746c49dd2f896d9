package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/simaogato/rebalance-backend/internal/domain"
)

// historyRepository implements domain.HistoryRepository
// The table is append-only; rows are never updated or deleted.
type historyRepository struct {
	db *DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *DB) domain.HistoryRepository {
	return &historyRepository{db: db}
}

// Create appends a finalized history entry
func (r *historyRepository) Create(ctx context.Context, entry *domain.RebalanceHistoryEntry) error {
	query := `
		INSERT INTO rebalance_history (id, before_weights, after_weights, rationale,
		                               proposed_at, confirmed, skipped, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	before, err := json.Marshal(entry.BeforeWeights)
	if err != nil {
		return fmt.Errorf("failed to marshal before weights: %w", err)
	}
	after, err := json.Marshal(entry.AfterWeights)
	if err != nil {
		return fmt.Errorf("failed to marshal after weights: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		entry.ID, before, after, entry.Rationale,
		entry.Timestamp, entry.Confirmed, entry.Skipped, entry.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	return nil
}

// List retrieves a paginated list of history entries, newest first
func (r *historyRepository) List(ctx context.Context, limit, offset int) ([]*domain.RebalanceHistoryEntry, error) {
	query := `
		SELECT id, before_weights, after_weights, rationale,
		       proposed_at, confirmed, skipped, recorded_at
		FROM rebalance_history
		ORDER BY recorded_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []*domain.RebalanceHistoryEntry
	for rows.Next() {
		var entry domain.RebalanceHistoryEntry
		var before, after []byte

		err := rows.Scan(
			&entry.ID, &before, &after, &entry.Rationale,
			&entry.Timestamp, &entry.Confirmed, &entry.Skipped, &entry.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}

		if err := json.Unmarshal(before, &entry.BeforeWeights); err != nil {
			return nil, fmt.Errorf("failed to parse before weights: %w", err)
		}
		if err := json.Unmarshal(after, &entry.AfterWeights); err != nil {
			return nil, fmt.Errorf("failed to parse after weights: %w", err)
		}

		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history entries: %w", err)
	}

	return entries, nil
}

// Count returns the total number of history entries
func (r *historyRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rebalance_history`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count history entries: %w", err)
	}
	return count, nil
}
