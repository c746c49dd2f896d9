package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/rebalance-backend/internal/domain"
)

// overlayRepository implements domain.OverlayRepository
// Rules, metadata, and the last backtest are stored as JSONB payloads.
type overlayRepository struct {
	db *DB
}

// NewOverlayRepository creates a new overlay repository
func NewOverlayRepository(db *DB) domain.OverlayRepository {
	return &overlayRepository{db: db}
}

// GetByID retrieves an overlay by its ID
func (r *overlayRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Overlay, error) {
	query := `
		SELECT id, name, description, category, owner, is_active, version,
		       rules, metadata, last_backtest, created_at, updated_at
		FROM overlays
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)
	overlay, err := scanOverlay(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOverlayNotFound
		}
		return nil, fmt.Errorf("failed to get overlay: %w", err)
	}

	return overlay, nil
}

// Create stores a new overlay
func (r *overlayRepository) Create(ctx context.Context, overlay *domain.Overlay) error {
	query := `
		INSERT INTO overlays (id, name, description, category, owner, is_active, version,
		                      rules, metadata, last_backtest, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	rules, metadata, backtest, err := marshalPayloads(overlay)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		overlay.ID, overlay.Name, overlay.Description, overlay.Category, overlay.Owner,
		overlay.IsActive, overlay.Version, rules, metadata, backtest,
		overlay.CreatedAt, overlay.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert overlay: %w", err)
	}

	return nil
}

// Update replaces the stored overlay row in a single statement
func (r *overlayRepository) Update(ctx context.Context, overlay *domain.Overlay) error {
	query := `
		UPDATE overlays
		SET name = $2, description = $3, category = $4, owner = $5, is_active = $6,
		    version = $7, rules = $8, metadata = $9, last_backtest = $10, updated_at = $11
		WHERE id = $1
	`

	rules, metadata, backtest, err := marshalPayloads(overlay)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query,
		overlay.ID, overlay.Name, overlay.Description, overlay.Category, overlay.Owner,
		overlay.IsActive, overlay.Version, rules, metadata, backtest, overlay.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update overlay: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrOverlayNotFound
	}

	return nil
}

// Delete removes an overlay
func (r *overlayRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM overlays WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete overlay: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrOverlayNotFound
	}

	return nil
}

// List retrieves all overlays, optionally filtered by owner
func (r *overlayRepository) List(ctx context.Context, owner string) ([]*domain.Overlay, error) {
	query := `
		SELECT id, name, description, category, owner, is_active, version,
		       rules, metadata, last_backtest, created_at, updated_at
		FROM overlays
	`
	args := []any{}
	if owner != "" {
		query += ` WHERE owner = $1`
		args = append(args, owner)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query overlays: %w", err)
	}
	defer rows.Close()

	var overlays []*domain.Overlay
	for rows.Next() {
		overlay, err := scanOverlay(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan overlay: %w", err)
		}
		overlays = append(overlays, overlay)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overlays: %w", err)
	}

	return overlays, nil
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanOverlay(row rowScanner) (*domain.Overlay, error) {
	var overlay domain.Overlay
	var rules, metadata, backtest []byte

	err := row.Scan(
		&overlay.ID, &overlay.Name, &overlay.Description, &overlay.Category, &overlay.Owner,
		&overlay.IsActive, &overlay.Version, &rules, &metadata, &backtest,
		&overlay.CreatedAt, &overlay.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(rules, &overlay.Rules); err != nil {
		return nil, fmt.Errorf("failed to parse overlay rules: %w", err)
	}
	if err := json.Unmarshal(metadata, &overlay.Metadata); err != nil {
		return nil, fmt.Errorf("failed to parse overlay metadata: %w", err)
	}
	if len(backtest) > 0 {
		var bt domain.BacktestResult
		if err := json.Unmarshal(backtest, &bt); err != nil {
			return nil, fmt.Errorf("failed to parse overlay backtest: %w", err)
		}
		overlay.LastBacktest = &bt
	}

	return &overlay, nil
}

func marshalPayloads(overlay *domain.Overlay) (rules, metadata, backtest []byte, err error) {
	rules, err = json.Marshal(overlay.Rules)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal overlay rules: %w", err)
	}
	metadata, err = json.Marshal(overlay.Metadata)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal overlay metadata: %w", err)
	}
	if overlay.LastBacktest != nil {
		backtest, err = json.Marshal(overlay.LastBacktest)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to marshal overlay backtest: %w", err)
		}
	}
	return rules, metadata, backtest, nil
}
