package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EquityPoint is one step of a backtest's portfolio value series
type EquityPoint struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// BacktestResult summarizes a simulated historical run of an overlay
type BacktestResult struct {
	Start       time.Time     `json:"start"`
	End         time.Time     `json:"end"`
	TotalTrades int           `json:"totalTrades"`
	WinRate     float64       `json:"winRate"`     // fraction of winning trades, [0,1]
	Return      float64       `json:"return"`      // total fractional return over the run
	MaxDrawdown float64       `json:"maxDrawdown"` // worst fractional decline from peak, [0,1]
	EquityCurve []EquityPoint `json:"equityCurve"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

// DeepCopy returns a copy of the result with an independent equity curve
func (r BacktestResult) DeepCopy() BacktestResult {
	out := r
	out.EquityCurve = make([]EquityPoint, len(r.EquityCurve))
	copy(out.EquityCurve, r.EquityCurve)
	return out
}
