package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/simaogato/rebalance-backend/internal/domain"
	"github.com/simaogato/rebalance-backend/internal/usecase/health"
	"github.com/simaogato/rebalance-backend/internal/usecase/overlay"
	"github.com/simaogato/rebalance-backend/internal/usecase/trigger"
)

// Scheduler drives the decision loop on a fixed cadence: execute active
// overlays, rescore portfolio health, and run one trigger evaluation.
// A critical health score feeds a synthetic macro event into the same
// cycle so the evaluator can propose an automatic rebalance.
type Scheduler struct {
	cron       *cron.Cron
	engine     *overlay.Engine
	triggerSvc *trigger.Service
	scorer     *health.Scorer
	provider   domain.PortfolioProvider
	log        zerolog.Logger

	mu         sync.Mutex
	trend      []int
	lastHealth *domain.HealthResult
}

// New creates a new Scheduler
func New(engine *overlay.Engine, triggerSvc *trigger.Service, scorer *health.Scorer,
	provider domain.PortfolioProvider, log zerolog.Logger) *Scheduler {

	return &Scheduler{
		cron:       cron.New(),
		engine:     engine,
		triggerSvc: triggerSvc,
		scorer:     scorer,
		provider:   provider,
		log:        log,
	}
}

// Register installs the evaluation cycle on the given cron spec
// (five minutes in production)
func (s *Scheduler) Register(evaluateCron string) error {
	_, err := s.cron.AddFunc(evaluateCron, s.RunCycle)
	return err
}

// Start runs one cycle immediately, then starts the cron loop
func (s *Scheduler) Start() {
	s.RunCycle()
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron loop gracefully
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info().Msg("scheduler stopped")
}

// Latest returns the most recent health evaluation, false before the
// first cycle completes
func (s *Scheduler) Latest() (domain.HealthResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastHealth == nil {
		return domain.HealthResult{}, false
	}
	return *s.lastHealth, true
}

// RunCycle executes one full pass of the decision loop
func (s *Scheduler) RunCycle() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	snapshot, err := s.provider.Snapshot(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("portfolio snapshot failed")
		return
	}
	mc, err := s.provider.MarketContext(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("market context failed")
		return
	}
	events, err := s.provider.MarketEvents(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("market events failed")
		return
	}

	signals, err := s.engine.ExecuteActive(ctx, *mc)
	if err != nil {
		s.log.Error().Err(err).Msg("overlay execution failed")
		return
	}

	activeOverlays, err := s.activeOverlays(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("overlay listing failed")
		return
	}

	// Health is recomputed every cycle; the trend buffer is threaded
	// through from the previous result.
	healthCritical := false
	s.mu.Lock()
	prevTrend := s.trend
	s.mu.Unlock()

	result := s.scorer.Score(health.Input{
		Weights:      snapshot.Weights,
		ValueHistory: snapshot.ValueHistory,
		Volatility:   snapshot.Volatility,
		Correlations: snapshot.Correlations,
		Overlays:     activeOverlays,
		Trend:        prevTrend,
		OnCritical:   func() { healthCritical = true },
	})

	s.mu.Lock()
	s.trend = result.Trend
	s.lastHealth = &result
	s.mu.Unlock()

	if healthCritical {
		s.log.Warn().Int("score", result.Score).Msg("portfolio health critical, requesting rebalance")
		events = append(events, domain.MarketEvent{
			Type:        "portfolio_health",
			Description: "composite health score fell below the critical threshold",
			Severity:    "critical",
			OccurredAt:  time.Now(),
		})
	}

	proposal := s.triggerSvc.Propose(signals, events, snapshot.Weights, activeOverlays)
	if proposal == nil {
		s.log.Debug().Int("signals", len(signals)).Int("events", len(events)).
			Msg("cycle complete, no trigger fired")
		return
	}

	s.log.Info().
		Str("proposal_id", proposal.ID.String()).
		Str("rationale", proposal.Rationale).
		Int("health_score", result.Score).
		Msg("rebalance proposed")
}

func (s *Scheduler) activeOverlays(ctx context.Context) ([]domain.Overlay, error) {
	all, err := s.engine.ListOverlays(ctx, "")
	if err != nil {
		return nil, err
	}

	active := make([]domain.Overlay, 0, len(all))
	for _, o := range all {
		if o.IsActive {
			active = append(active, *o)
		}
	}
	return active, nil
}
