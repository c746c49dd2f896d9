package trigger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/simaogato/rebalance-backend/internal/domain"
)

// Service owns the rebalance schedule and the lifecycle of proposals:
// evaluation, the pending registry, and confirm/skip transitions into the
// append-only history.
type Service struct {
	evaluator   *Evaluator
	historyRepo domain.HistoryRepository

	mu       sync.Mutex
	schedule domain.RebalanceSchedule
	pending  map[uuid.UUID]*domain.RebalanceProposal
}

// NewService creates a new Service instance
func NewService(evaluator *Evaluator, historyRepo domain.HistoryRepository, schedule domain.RebalanceSchedule) *Service {
	return &Service{
		evaluator:   evaluator,
		historyRepo: historyRepo,
		schedule:    schedule,
		pending:     make(map[uuid.UUID]*domain.RebalanceProposal),
	}
}

// Schedule returns a copy of the current schedule
func (s *Service) Schedule() domain.RebalanceSchedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule
}

// SetSchedule replaces the schedule after validating it.
// The last-rebalance timestamp is kept from the existing schedule; it is
// owned by the confirm path, not by schedule edits.
func (s *Service) SetSchedule(schedule domain.RebalanceSchedule) error {
	if err := schedule.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	schedule.LastRebalance = s.schedule.LastRebalance
	s.schedule = schedule
	return nil
}

// Propose runs one trigger evaluation against the current schedule and
// registers the proposal, if any, as pending. A nil result means "no action",
// not an error.
func (s *Service) Propose(signals []domain.StrategySignal, events []domain.MarketEvent,
	currentWeights map[string]float64, activeOverlays []domain.Overlay) *domain.RebalanceProposal {

	s.mu.Lock()
	defer s.mu.Unlock()

	proposal := s.evaluator.Evaluate(EvaluateInput{
		Schedule:       s.schedule,
		LastRebalance:  s.schedule.LastRebalance,
		Signals:        signals,
		MarketEvents:   events,
		CurrentWeights: currentWeights,
		ActiveOverlays: activeOverlays,
	})
	if proposal == nil {
		return nil
	}

	s.pending[proposal.ID] = proposal
	return proposal
}

// Pending returns the proposals awaiting a confirm/skip decision
func (s *Service) Pending() []*domain.RebalanceProposal {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.RebalanceProposal, 0, len(s.pending))
	for _, p := range s.pending {
		out = append(out, p)
	}
	return out
}

// Confirm finalizes a pending proposal as accepted, records it to history,
// and advances the schedule's last-rebalance timestamp
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*domain.RebalanceHistoryEntry, error) {
	return s.finalize(ctx, id, true)
}

// Skip finalizes a pending proposal as declined and records it to history.
// A skipped proposal does not advance the last-rebalance timestamp.
func (s *Service) Skip(ctx context.Context, id uuid.UUID) (*domain.RebalanceHistoryEntry, error) {
	return s.finalize(ctx, id, false)
}

func (s *Service) finalize(ctx context.Context, id uuid.UUID, confirmed bool) (*domain.RebalanceHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, ok := s.pending[id]
	if !ok {
		return nil, domain.ErrProposalNotFound
	}

	now := time.Now()
	entry := proposal.Finalize(confirmed, now)
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := s.historyRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("record rebalance outcome: %w", err)
	}

	delete(s.pending, id)
	if confirmed {
		ts := proposal.Timestamp
		s.schedule.LastRebalance = &ts
	}

	return entry, nil
}

// History returns a page of past outcomes, newest first, plus the total count
func (s *Service) History(ctx context.Context, limit, offset int) ([]*domain.RebalanceHistoryEntry, int, error) {
	total, err := s.historyRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	entries, err := s.historyRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
