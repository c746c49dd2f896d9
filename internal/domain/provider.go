package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// PortfolioSnapshot is the portfolio state supplied by the data collaborator
type PortfolioSnapshot struct {
	Weights      map[string]float64 // asset -> weight fraction
	ValueHistory []decimal.Decimal  // ordered market valuations, oldest first
	Volatility   float64            // annualized volatility scalar
	Correlations [][]float64        // square pairwise correlation matrix
}

// PortfolioProvider supplies portfolio and market state from outside this
// core (persistence/API layer, broker sync, market data feed)
type PortfolioProvider interface {
	// Snapshot returns the current portfolio state
	Snapshot(ctx context.Context) (*PortfolioSnapshot, error)

	// MarketContext returns the market attributes overlay rules evaluate against
	MarketContext(ctx context.Context) (*MarketContext, error)

	// MarketEvents returns recent macro-level events, empty when calm
	MarketEvents(ctx context.Context) ([]MarketEvent, error)
}
