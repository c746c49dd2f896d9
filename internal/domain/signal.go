package domain

import (
	"time"

	"github.com/google/uuid"
)

// StrategySignal is emitted when an overlay rule matches the current
// market context. Signals feed the signal trigger of the evaluator.
type StrategySignal struct {
	OverlayID   uuid.UUID `json:"overlayId"`
	OverlayName string    `json:"overlayName"`
	RuleID      uuid.UUID `json:"ruleId"`
	RuleName    string    `json:"ruleName"`
	Action      Action    `json:"action"`
	Symbol      string    `json:"symbol,omitempty"`
	TriggeredAt time.Time `json:"triggeredAt"`
}

// MarketEvent represents a macro-level event supplied by the market data
// collaborator (rate decision, regime shift, volatility spike, ...)
type MarketEvent struct {
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Severity    string    `json:"severity,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// MarketContext is the snapshot of market attributes overlay conditions
// are evaluated against
type MarketContext struct {
	Symbol    string  `json:"symbol"`
	Sector    string  `json:"sector,omitempty"`
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
	MarketCap float64 `json:"marketCap"`
}

// Value returns the context attribute for the given condition field
func (m *MarketContext) Value(field ConditionField) FieldValue {
	switch field {
	case FieldPrice:
		return NumberValue(m.Price)
	case FieldVolume:
		return NumberValue(m.Volume)
	case FieldMarketCap:
		return NumberValue(m.MarketCap)
	case FieldSymbol:
		return TextValue(m.Symbol)
	case FieldSector:
		return TextValue(m.Sector)
	default:
		return FieldValue{}
	}
}
