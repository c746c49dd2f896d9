package overlay

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/simaogato/rebalance-backend/internal/domain"
)

// Engine owns the full lifecycle of overlays: CRUD, validation, execution,
// backtesting, templates, and import/export. All catalogue access goes
// through the injected repository; each mutation is a single atomic update
// of one overlay's entry.
type Engine struct {
	repo       domain.OverlayRepository
	backtester Backtester
	now        func() time.Time

	templates map[uuid.UUID]domain.OverlayTemplate
	order     []uuid.UUID // template registration order
}

// NewEngine creates a new Engine instance
func NewEngine(repo domain.OverlayRepository, backtester Backtester) *Engine {
	return &Engine{
		repo:       repo,
		backtester: backtester,
		now:        time.Now,
		templates:  make(map[uuid.UUID]domain.OverlayTemplate),
	}
}

// CreateOverlay initializes a new overlay with an empty rule list,
// inactive, at version 1
func (e *Engine) CreateOverlay(ctx context.Context, name, description, category, owner string) (*domain.Overlay, error) {
	now := e.now()
	overlay := &domain.Overlay{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Category:    category,
		Owner:       owner,
		Rules:       []domain.Rule{},
		IsActive:    false,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := e.repo.Create(ctx, overlay); err != nil {
		return nil, fmt.Errorf("create overlay: %w", err)
	}

	return overlay, nil
}

// GetOverlay retrieves a single overlay
func (e *Engine) GetOverlay(ctx context.Context, id uuid.UUID) (*domain.Overlay, error) {
	return e.repo.GetByID(ctx, id)
}

// ListOverlays retrieves all overlays, optionally filtered by owner
func (e *Engine) ListOverlays(ctx context.Context, owner string) ([]*domain.Overlay, error) {
	return e.repo.List(ctx, owner)
}

// UpdateOverlayInput carries the mutable top-level overlay fields.
// Nil pointers leave the stored value untouched.
type UpdateOverlayInput struct {
	Name        *string
	Description *string
	Category    *string
	IsActive    *bool
	Metadata    *domain.OverlayMetadata
}

// UpdateOverlay applies a field update and bumps the version
func (e *Engine) UpdateOverlay(ctx context.Context, id uuid.UUID, input UpdateOverlayInput) (*domain.Overlay, error) {
	overlay, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		overlay.Name = *input.Name
	}
	if input.Description != nil {
		overlay.Description = *input.Description
	}
	if input.Category != nil {
		overlay.Category = *input.Category
	}
	if input.IsActive != nil {
		overlay.IsActive = *input.IsActive
	}
	if input.Metadata != nil {
		overlay.Metadata = input.Metadata.DeepCopy()
	}

	e.touch(overlay)
	if err := e.repo.Update(ctx, overlay); err != nil {
		return nil, fmt.Errorf("update overlay: %w", err)
	}

	return overlay, nil
}

// DeleteOverlay removes an overlay from the catalogue.
// Deletion is blocked while the overlay is active; deactivate first.
func (e *Engine) DeleteOverlay(ctx context.Context, id uuid.UUID) error {
	overlay, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if overlay.IsActive {
		return domain.ErrOverlayActive
	}

	return e.repo.Delete(ctx, id)
}

// AddRule appends a rule to an overlay and bumps the version.
// A zero rule ID is replaced with a fresh one.
func (e *Engine) AddRule(ctx context.Context, overlayID uuid.UUID, rule domain.Rule) (*domain.Overlay, error) {
	overlay, err := e.repo.GetByID(ctx, overlayID)
	if err != nil {
		return nil, err
	}

	rule = rule.DeepCopy()
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	overlay.Rules = append(overlay.Rules, rule)

	e.touch(overlay)
	if err := e.repo.Update(ctx, overlay); err != nil {
		return nil, fmt.Errorf("add rule: %w", err)
	}

	return overlay, nil
}

// UpdateRule replaces an existing rule, matched by its ID, and bumps the version
func (e *Engine) UpdateRule(ctx context.Context, overlayID uuid.UUID, rule domain.Rule) (*domain.Overlay, error) {
	overlay, err := e.repo.GetByID(ctx, overlayID)
	if err != nil {
		return nil, err
	}

	idx := overlay.RuleIndex(rule.ID)
	if idx < 0 {
		return nil, domain.ErrRuleNotFound
	}
	overlay.Rules[idx] = rule.DeepCopy()

	e.touch(overlay)
	if err := e.repo.Update(ctx, overlay); err != nil {
		return nil, fmt.Errorf("update rule: %w", err)
	}

	return overlay, nil
}

// RemoveRule deletes a rule from an overlay and bumps the version
func (e *Engine) RemoveRule(ctx context.Context, overlayID, ruleID uuid.UUID) (*domain.Overlay, error) {
	overlay, err := e.repo.GetByID(ctx, overlayID)
	if err != nil {
		return nil, err
	}

	idx := overlay.RuleIndex(ruleID)
	if idx < 0 {
		return nil, domain.ErrRuleNotFound
	}
	overlay.Rules = append(overlay.Rules[:idx], overlay.Rules[idx+1:]...)

	e.touch(overlay)
	if err := e.repo.Update(ctx, overlay); err != nil {
		return nil, fmt.Errorf("remove rule: %w", err)
	}

	return overlay, nil
}

// CloneOverlay creates a structural copy of an overlay.
// The clone gets a fresh ID, version 1, the inactive flag, a fresh ID for
// every rule, and no backtest result.
func (e *Engine) CloneOverlay(ctx context.Context, id uuid.UUID, name string) (*domain.Overlay, error) {
	source, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	clone := source.DeepCopy()
	clone.ID = uuid.New()
	if name != "" {
		clone.Name = name
	} else {
		clone.Name = source.Name + " (copy)"
	}
	clone.IsActive = false
	clone.Version = 1
	clone.LastBacktest = nil
	for i := range clone.Rules {
		clone.Rules[i].ID = uuid.New()
	}
	now := e.now()
	clone.CreatedAt = now
	clone.UpdatedAt = now

	if err := e.repo.Create(ctx, clone); err != nil {
		return nil, fmt.Errorf("clone overlay: %w", err)
	}

	return clone, nil
}

// RegisterTemplate installs a pre-built overlay template.
// Templates are immutable once registered.
func (e *Engine) RegisterTemplate(t domain.OverlayTemplate) {
	if _, exists := e.templates[t.ID]; !exists {
		e.order = append(e.order, t.ID)
	}
	e.templates[t.ID] = t
}

// Templates returns the registered templates in registration order
func (e *Engine) Templates() []domain.OverlayTemplate {
	out := make([]domain.OverlayTemplate, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.templates[id])
	}
	return out
}

// CreateFromTemplate instantiates a new overlay from a template's rule
// prototypes, assigning fresh rule IDs and copying the template metadata
func (e *Engine) CreateFromTemplate(ctx context.Context, templateID uuid.UUID, name, owner string) (*domain.Overlay, error) {
	t, ok := e.templates[templateID]
	if !ok {
		return nil, domain.ErrTemplateNotFound
	}

	if name == "" {
		name = t.Name
	}
	now := e.now()
	overlay := &domain.Overlay{
		ID:          uuid.New(),
		Name:        name,
		Description: t.Description,
		Category:    t.Category,
		Owner:       owner,
		Rules:       make([]domain.Rule, 0, len(t.Rules)),
		IsActive:    false,
		Version:     1,
		Metadata:    t.Metadata.DeepCopy(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, proto := range t.Rules {
		rule := proto.DeepCopy()
		rule.ID = uuid.New()
		overlay.Rules = append(overlay.Rules, rule)
	}

	if err := e.repo.Create(ctx, overlay); err != nil {
		return nil, fmt.Errorf("create overlay from template: %w", err)
	}

	return overlay, nil
}

// SearchOverlays performs a case-insensitive substring match over name,
// description, category, and tags. An empty query matches everything.
func (e *Engine) SearchOverlays(ctx context.Context, query, owner string) ([]*domain.Overlay, error) {
	overlays, err := e.repo.List(ctx, owner)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return overlays, nil
	}

	matched := make([]*domain.Overlay, 0, len(overlays))
	for _, o := range overlays {
		if overlayMatches(o, needle) {
			matched = append(matched, o)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Name < matched[j].Name
	})
	return matched, nil
}

func overlayMatches(o *domain.Overlay, needle string) bool {
	if strings.Contains(strings.ToLower(o.Name), needle) ||
		strings.Contains(strings.ToLower(o.Description), needle) ||
		strings.Contains(strings.ToLower(o.Category), needle) {
		return true
	}
	for _, tag := range o.Metadata.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// touch bumps the version and refreshes the modification timestamp
func (e *Engine) touch(overlay *domain.Overlay) {
	overlay.Version++
	overlay.UpdatedAt = e.now()
}
