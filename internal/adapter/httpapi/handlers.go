package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/simaogato/rebalance-backend/internal/domain"
	"github.com/simaogato/rebalance-backend/internal/usecase/overlay"
	"github.com/simaogato/rebalance-backend/internal/usecase/trigger"
)

// HealthReader provides the most recent portfolio health evaluation.
// The scheduler implements it; Latest reports false before the first cycle.
type HealthReader interface {
	Latest() (domain.HealthResult, bool)
}

// Handlers bundles the usecase services behind the HTTP surface
type Handlers struct {
	Engine     *overlay.Engine
	TriggerSvc *trigger.Service
	Health     HealthReader
}

// NewHandlers creates a new Handlers instance
func NewHandlers(engine *overlay.Engine, triggerSvc *trigger.Service, health HealthReader) *Handlers {
	return &Handlers{
		Engine:     engine,
		TriggerSvc: triggerSvc,
		Health:     health,
	}
}

// Healthz reports process liveness
func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createOverlayRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Owner       string `json:"owner"`
}

// CreateOverlay handles POST /overlays
func (h *Handlers) CreateOverlay(w http.ResponseWriter, r *http.Request) {
	var req createOverlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name must not be blank")
		return
	}

	created, err := h.Engine.CreateOverlay(r.Context(), req.Name, req.Description, req.Category, req.Owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListOverlays handles GET /overlays
func (h *Handlers) ListOverlays(w http.ResponseWriter, r *http.Request) {
	overlays, err := h.Engine.ListOverlays(r.Context(), r.URL.Query().Get("owner"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"overlays": overlays})
}

// SearchOverlays handles GET /overlays/search?q=
func (h *Handlers) SearchOverlays(w http.ResponseWriter, r *http.Request) {
	matches, err := h.Engine.SearchOverlays(r.Context(), r.URL.Query().Get("q"), r.URL.Query().Get("owner"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"overlays": matches})
}

// GetOverlay handles GET /overlays/{id}
func (h *Handlers) GetOverlay(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	found, err := h.Engine.GetOverlay(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

type updateOverlayRequest struct {
	Name        *string                 `json:"name"`
	Description *string                 `json:"description"`
	Category    *string                 `json:"category"`
	IsActive    *bool                   `json:"isActive"`
	Metadata    *domain.OverlayMetadata `json:"metadata"`
}

// UpdateOverlay handles PATCH /overlays/{id}
func (h *Handlers) UpdateOverlay(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req updateOverlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.Engine.UpdateOverlay(r.Context(), id, overlay.UpdateOverlayInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		IsActive:    req.IsActive,
		Metadata:    req.Metadata,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteOverlay handles DELETE /overlays/{id}
func (h *Handlers) DeleteOverlay(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Engine.DeleteOverlay(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddRule handles POST /overlays/{id}/rules
func (h *Handlers) AddRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var rule domain.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule body")
		return
	}

	updated, err := h.Engine.AddRule(r.Context(), id, rule)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// UpdateRule handles PUT /overlays/{id}/rules/{ruleId}
func (h *Handlers) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ruleID, ok := pathID(w, r, "ruleId")
	if !ok {
		return
	}
	var rule domain.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule body")
		return
	}
	rule.ID = ruleID

	updated, err := h.Engine.UpdateRule(r.Context(), id, rule)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// RemoveRule handles DELETE /overlays/{id}/rules/{ruleId}
func (h *Handlers) RemoveRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ruleID, ok := pathID(w, r, "ruleId")
	if !ok {
		return
	}

	updated, err := h.Engine.RemoveRule(r.Context(), id, ruleID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ValidateOverlay handles POST /overlays/{id}/validate
func (h *Handlers) ValidateOverlay(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.Engine.ValidateOverlay(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type backtestRequest struct {
	Start string `json:"start"` // YYYY-MM-DD
	End   string `json:"end"`
}

// BacktestOverlay handles POST /overlays/{id}/backtest
func (h *Handlers) BacktestOverlay(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	start, err := time.Parse(time.DateOnly, req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(time.DateOnly, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
		return
	}

	result, err := h.Engine.BacktestOverlay(r.Context(), id, start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type cloneRequest struct {
	Name string `json:"name"`
}

// CloneOverlay handles POST /overlays/{id}/clone
func (h *Handlers) CloneOverlay(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req cloneRequest
	// Body is optional; an empty body keeps the derived name
	_ = json.NewDecoder(r.Body).Decode(&req)

	clone, err := h.Engine.CloneOverlay(r.Context(), id, req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, clone)
}

// ExportOverlay handles GET /overlays/{id}/export
func (h *Handlers) ExportOverlay(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	data, err := h.Engine.ExportOverlay(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ImportOverlay handles POST /overlays/import
// The body is the export payload itself; owner comes from the query string.
func (h *Handlers) ImportOverlay(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	imported, err := h.Engine.ImportOverlay(r.Context(), raw, r.URL.Query().Get("owner"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, imported)
}

// ListTemplates handles GET /templates
func (h *Handlers) ListTemplates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"templates": h.Engine.Templates()})
}

type instantiateRequest struct {
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

// CreateFromTemplate handles POST /templates/{id}/instantiate
func (h *Handlers) CreateFromTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req instantiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.Engine.CreateFromTemplate(r.Context(), id, req.Name, req.Owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetSchedule handles GET /schedule
func (h *Handlers) GetSchedule(w http.ResponseWriter, _ *http.Request) {
	schedule := h.TriggerSvc.Schedule()
	writeJSON(w, http.StatusOK, &schedule)
}

// PutSchedule handles PUT /schedule
func (h *Handlers) PutSchedule(w http.ResponseWriter, r *http.Request) {
	var schedule domain.RebalanceSchedule
	if err := json.NewDecoder(r.Body).Decode(&schedule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid schedule body")
		return
	}
	if err := h.TriggerSvc.SetSchedule(schedule); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated := h.TriggerSvc.Schedule()
	writeJSON(w, http.StatusOK, &updated)
}

// PendingProposals handles GET /proposals
func (h *Handlers) PendingProposals(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"proposals": h.TriggerSvc.Pending()})
}

// ConfirmProposal handles POST /proposals/{id}/confirm
func (h *Handlers) ConfirmProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	entry, err := h.TriggerSvc.Confirm(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// SkipProposal handles POST /proposals/{id}/skip
func (h *Handlers) SkipProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	entry, err := h.TriggerSvc.Skip(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// History handles GET /history with limit/offset pagination
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit <= 0 {
		writeError(w, http.StatusBadRequest, "limit must be positive")
		return
	}
	if offset < 0 {
		writeError(w, http.StatusBadRequest, "offset must be non-negative")
		return
	}

	entries, total, err := h.TriggerSvc.History(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries":    entries,
		"totalCount": total,
	})
}

// PortfolioHealth handles GET /portfolio/health
func (h *Handlers) PortfolioHealth(w http.ResponseWriter, _ *http.Request) {
	result, ok := h.Health.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "health not evaluated yet")
		return
	}
	writeJSON(w, http.StatusOK, &result)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps domain sentinel errors to HTTP status codes
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrOverlayNotFound),
		errors.Is(err, domain.ErrRuleNotFound),
		errors.Is(err, domain.ErrTemplateNotFound),
		errors.Is(err, domain.ErrProposalNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrOverlayActive):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
