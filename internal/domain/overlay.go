package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ConditionField identifies the market attribute a condition compares against
type ConditionField string

const (
	FieldPrice     ConditionField = "price"
	FieldVolume    ConditionField = "volume"
	FieldMarketCap ConditionField = "marketCap"
	FieldSymbol    ConditionField = "symbol"
	FieldSector    ConditionField = "sector"
)

// IsNumeric reports whether the field carries a numeric comparison value.
// Symbol and sector are the only text fields.
func (f ConditionField) IsNumeric() bool {
	switch f {
	case FieldPrice, FieldVolume, FieldMarketCap:
		return true
	default:
		return false
	}
}

// IsKnown reports whether the field is part of the closed field set
func (f ConditionField) IsKnown() bool {
	switch f {
	case FieldPrice, FieldVolume, FieldMarketCap, FieldSymbol, FieldSector:
		return true
	default:
		return false
	}
}

// Operator represents a condition comparison operator
type Operator string

const (
	OpGreater        Operator = ">"
	OpLess           Operator = "<"
	OpEqual          Operator = "="
	OpGreaterOrEqual Operator = ">="
	OpLessOrEqual    Operator = "<="
	OpNotEqual       Operator = "!="
	OpContains       Operator = "contains"
	OpBetween        Operator = "between"
	OpComplex        Operator = "complex" // catch-all, not evaluable by the engine
)

// IsKnown reports whether the operator is part of the closed operator set
func (o Operator) IsKnown() bool {
	switch o {
	case OpGreater, OpLess, OpEqual, OpGreaterOrEqual, OpLessOrEqual,
		OpNotEqual, OpContains, OpBetween, OpComplex:
		return true
	default:
		return false
	}
}

// Connector joins a condition with the one that follows it
type Connector string

const (
	ConnectorAnd Connector = "and"
	ConnectorOr  Connector = "or"
)

// ActionType represents the kind of effect a rule applies when it matches
type ActionType string

const (
	ActionBuy       ActionType = "buy"
	ActionSell      ActionType = "sell"
	ActionHold      ActionType = "hold"
	ActionRebalance ActionType = "rebalance"
	ActionAlert     ActionType = "alert"
)

// IsKnown reports whether the action type is part of the closed action set
func (t ActionType) IsKnown() bool {
	switch t {
	case ActionBuy, ActionSell, ActionHold, ActionRebalance, ActionAlert:
		return true
	default:
		return false
	}
}

// FieldValue holds a condition comparison value. Numeric fields carry Number,
// text fields carry Text; isText records which kind the value was built as,
// so an empty string stays a string across a serialization round trip.
// On the wire it is a plain JSON number or string.
type FieldValue struct {
	Number float64
	Text   string
	isText bool
}

// NumberValue builds a numeric field value
func NumberValue(n float64) FieldValue {
	return FieldValue{Number: n}
}

// TextValue builds a text field value
func TextValue(s string) FieldValue {
	return FieldValue{Text: s, isText: true}
}

// MarshalJSON encodes the value as a bare number or string
func (v FieldValue) MarshalJSON() ([]byte, error) {
	if v.isText || v.Text != "" {
		return json.Marshal(v.Text)
	}
	return json.Marshal(v.Number)
}

// UnmarshalJSON accepts either a JSON number or a JSON string
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = FieldValue{Number: n}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("condition value must be a number or a string")
	}
	*v = FieldValue{Text: s, isText: true}
	return nil
}

// Condition represents a single predicate over a named market field
type Condition struct {
	Field      ConditionField `json:"field"`
	Operator   Operator       `json:"operator"`
	Value      FieldValue     `json:"value"`
	UpperValue *FieldValue    `json:"upperValue,omitempty"` // upper bound, between only
	Connector  Connector      `json:"connector,omitempty"`  // link to the next condition, empty means "and"
}

// Action represents the effect applied when a rule's conditions hold
type Action struct {
	Type         ActionType `json:"type"`
	Percent      float64    `json:"percent,omitempty"`      // buy/sell, (0, 100]
	TargetWeight float64    `json:"targetWeight,omitempty"` // rebalance, [0, 100]
	Reason       string     `json:"reason,omitempty"`
}

// Rule represents one condition-set/action-set pair within an overlay
type Rule struct {
	ID         uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	Conditions []Condition `json:"conditions"`
	Actions    []Action    `json:"actions"`
	Priority   int         `json:"priority"` // lower number = evaluated first
	Enabled    bool        `json:"enabled"`
}

// DeepCopy returns a copy of the rule with independent condition and action slices
func (r Rule) DeepCopy() Rule {
	out := r
	out.Conditions = make([]Condition, len(r.Conditions))
	for i, c := range r.Conditions {
		out.Conditions[i] = c
		if c.UpperValue != nil {
			upper := *c.UpperValue
			out.Conditions[i].UpperValue = &upper
		}
	}
	out.Actions = make([]Action, len(r.Actions))
	copy(out.Actions, r.Actions)
	return out
}

// OverlayMetadata carries descriptive and risk attributes of an overlay
type OverlayMetadata struct {
	Complexity     string   `json:"complexity,omitempty"`
	RiskLevel      string   `json:"riskLevel,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	RiskAdjustment float64  `json:"riskAdjustment,omitempty"` // additive contribution to the portfolio risk figure
}

// DeepCopy returns a copy of the metadata with an independent tag slice
func (m OverlayMetadata) DeepCopy() OverlayMetadata {
	out := m
	out.Tags = make([]string, len(m.Tags))
	copy(out.Tags, m.Tags)
	return out
}

// Overlay represents a named, versioned rule-based rebalancing strategy
type Overlay struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Category     string          `json:"category,omitempty"`
	Owner        string          `json:"owner,omitempty"`
	Rules        []Rule          `json:"rules"`
	IsActive     bool            `json:"isActive"`
	Version      int             `json:"version"` // increments on every structural mutation
	LastBacktest *BacktestResult `json:"lastBacktest,omitempty"`
	Metadata     OverlayMetadata `json:"metadata"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// DeepCopy returns a structurally independent copy of the overlay
func (o *Overlay) DeepCopy() *Overlay {
	out := *o
	out.Rules = make([]Rule, len(o.Rules))
	for i, r := range o.Rules {
		out.Rules[i] = r.DeepCopy()
	}
	out.Metadata = o.Metadata.DeepCopy()
	if o.LastBacktest != nil {
		bt := o.LastBacktest.DeepCopy()
		out.LastBacktest = &bt
	}
	return &out
}

// RuleIndex returns the position of the rule with the given id, or -1
func (o *Overlay) RuleIndex(ruleID uuid.UUID) int {
	for i := range o.Rules {
		if o.Rules[i].ID == ruleID {
			return i
		}
	}
	return -1
}

// OverlayTemplate is a factory prototype for pre-built overlays.
// Templates are immutable once registered at startup; rule prototypes
// carry no ids, fresh ones are assigned at instantiation.
type OverlayTemplate struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Rules       []Rule          `json:"rules"`
	Metadata    OverlayMetadata `json:"metadata"`
}
