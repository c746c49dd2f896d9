package overlay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/rebalance-backend/internal/domain"
)

// exportEnvelope is the portable serialization of an overlay. Identifiers
// and version are deliberately left out: import always assigns fresh ones.
type exportEnvelope struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Category    string                 `json:"category,omitempty"`
	Rules       []domain.Rule          `json:"rules"`
	Metadata    domain.OverlayMetadata `json:"metadata"`
}

// ExportOverlay serializes an overlay to portable JSON
func (e *Engine) ExportOverlay(ctx context.Context, id uuid.UUID) ([]byte, error) {
	overlay, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	envelope := exportEnvelope{
		Name:        overlay.Name,
		Description: overlay.Description,
		Category:    overlay.Category,
		Rules:       overlay.DeepCopy().Rules,
		Metadata:    overlay.Metadata.DeepCopy(),
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export overlay: %w", err)
	}
	return data, nil
}

// ImportOverlay deserializes an exported overlay and stores it as a new
// entity: fresh overlay and rule IDs, version 1, inactive
func (e *Engine) ImportOverlay(ctx context.Context, data []byte, owner string) (*domain.Overlay, error) {
	var envelope exportEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("import overlay: %w", err)
	}
	if envelope.Name == "" {
		return nil, fmt.Errorf("import overlay: name must not be blank")
	}

	now := e.now()
	overlay := &domain.Overlay{
		ID:          uuid.New(),
		Name:        envelope.Name,
		Description: envelope.Description,
		Category:    envelope.Category,
		Owner:       owner,
		Rules:       make([]domain.Rule, 0, len(envelope.Rules)),
		IsActive:    false,
		Version:     1,
		Metadata:    envelope.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, rule := range envelope.Rules {
		rule.ID = uuid.New()
		overlay.Rules = append(overlay.Rules, rule)
	}

	if err := e.repo.Create(ctx, overlay); err != nil {
		return nil, fmt.Errorf("import overlay: %w", err)
	}

	return overlay, nil
}
