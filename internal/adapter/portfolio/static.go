package portfolio

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/rebalance-backend/internal/domain"
)

// StaticProvider implements domain.PortfolioProvider with fixed demo data.
// It stands in for the persistence/API collaborator that supplies real
// portfolio state; swap it out by wiring another provider in cmd/server.
type StaticProvider struct {
	mu       sync.Mutex
	snapshot domain.PortfolioSnapshot
	context  domain.MarketContext
	events   []domain.MarketEvent
}

// NewStaticProvider creates a provider pre-loaded with a small demo portfolio
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		snapshot: domain.PortfolioSnapshot{
			Weights: map[string]float64{
				"VWCE": 0.45,
				"AGGH": 0.25,
				"GLDM": 0.15,
				"CASH": 0.15,
			},
			ValueHistory: []decimal.Decimal{
				decimal.NewFromInt(100_000),
				decimal.NewFromInt(102_500),
				decimal.NewFromInt(101_200),
				decimal.NewFromInt(104_800),
				decimal.NewFromInt(103_300),
			},
			Volatility: 0.12,
			Correlations: [][]float64{
				{1.00, 0.18, 0.05, 0.00},
				{0.18, 1.00, 0.10, 0.00},
				{0.05, 0.10, 1.00, 0.00},
				{0.00, 0.00, 0.00, 1.00},
			},
		},
		context: domain.MarketContext{
			Symbol:    "VWCE",
			Sector:    "technology",
			Price:     112.40,
			Volume:    1_850_000,
			MarketCap: 9_400_000_000,
		},
	}
}

// Snapshot returns the current portfolio state
func (p *StaticProvider) Snapshot(_ context.Context) (*domain.PortfolioSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := p.snapshot
	snap.Weights = make(map[string]float64, len(p.snapshot.Weights))
	for asset, w := range p.snapshot.Weights {
		snap.Weights[asset] = w
	}
	return &snap, nil
}

// MarketContext returns the market attributes overlay rules evaluate against
func (p *StaticProvider) MarketContext(_ context.Context) (*domain.MarketContext, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	mc := p.context
	return &mc, nil
}

// MarketEvents drains the queued macro events. Each event is delivered to
// exactly one evaluation cycle so a single push cannot trigger twice.
func (p *StaticProvider) MarketEvents(_ context.Context) ([]domain.MarketEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := p.events
	p.events = nil
	return out, nil
}

// PushEvent queues a macro event for the next evaluation cycle
func (p *StaticProvider) PushEvent(event domain.MarketEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	p.events = append(p.events, event)
}
