package overlay

import (
	"context"
	"sort"
	"strings"

	"github.com/simaogato/rebalance-backend/internal/domain"
)

// ExecuteActive runs every active overlay against the market context and
// collects the signals of all matching rules
func (e *Engine) ExecuteActive(ctx context.Context, mc domain.MarketContext) ([]domain.StrategySignal, error) {
	overlays, err := e.repo.List(ctx, "")
	if err != nil {
		return nil, err
	}

	var signals []domain.StrategySignal
	for _, o := range overlays {
		if !o.IsActive {
			continue
		}
		signals = append(signals, e.execute(o, mc)...)
	}
	return signals, nil
}

// Execute runs a single overlay against the market context
func (e *Engine) Execute(ctx context.Context, overlay *domain.Overlay, mc domain.MarketContext) []domain.StrategySignal {
	return e.execute(overlay, mc)
}

// execute evaluates the overlay's rules in priority order (lower first)
// and emits one signal per action of every matching enabled rule.
// Per-rule evaluation is independent and side-effect-free.
func (e *Engine) execute(overlay *domain.Overlay, mc domain.MarketContext) []domain.StrategySignal {
	rules := make([]domain.Rule, len(overlay.Rules))
	copy(rules, overlay.Rules)
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority < rules[j].Priority
	})

	now := e.now()
	var signals []domain.StrategySignal
	for _, rule := range rules {
		if !rule.Enabled || !ruleMatches(rule, mc) {
			continue
		}
		for _, action := range rule.Actions {
			signals = append(signals, domain.StrategySignal{
				OverlayID:   overlay.ID,
				OverlayName: overlay.Name,
				RuleID:      rule.ID,
				RuleName:    rule.Name,
				Action:      action,
				Symbol:      mc.Symbol,
				TriggeredAt: now,
			})
		}
	}
	return signals
}

// ruleMatches folds the rule's conditions left to right, joining each pair
// with the connector stored on the earlier condition (and when absent).
// A rule with no conditions never matches.
func ruleMatches(rule domain.Rule, mc domain.MarketContext) bool {
	if len(rule.Conditions) == 0 {
		return false
	}

	result := conditionHolds(rule.Conditions[0], mc)
	for i := 1; i < len(rule.Conditions); i++ {
		next := conditionHolds(rule.Conditions[i], mc)
		if rule.Conditions[i-1].Connector == domain.ConnectorOr {
			result = result || next
		} else {
			result = result && next
		}
	}
	return result
}

func conditionHolds(cond domain.Condition, mc domain.MarketContext) bool {
	actual := mc.Value(cond.Field)

	if cond.Field.IsNumeric() {
		return numericHolds(cond, actual.Number)
	}
	return textHolds(cond, actual.Text)
}

func numericHolds(cond domain.Condition, actual float64) bool {
	expected := cond.Value.Number
	switch cond.Operator {
	case domain.OpGreater:
		return actual > expected
	case domain.OpLess:
		return actual < expected
	case domain.OpGreaterOrEqual:
		return actual >= expected
	case domain.OpLessOrEqual:
		return actual <= expected
	case domain.OpEqual:
		return actual == expected
	case domain.OpNotEqual:
		return actual != expected
	case domain.OpBetween:
		if cond.UpperValue == nil {
			return false
		}
		return actual >= expected && actual <= cond.UpperValue.Number
	default:
		// contains and complex have no numeric semantics
		return false
	}
}

func textHolds(cond domain.Condition, actual string) bool {
	expected := cond.Value.Text
	switch cond.Operator {
	case domain.OpEqual:
		return strings.EqualFold(actual, expected)
	case domain.OpNotEqual:
		return !strings.EqualFold(actual, expected)
	case domain.OpContains:
		return strings.Contains(strings.ToLower(actual), strings.ToLower(expected))
	default:
		// complex and the numeric operators have no text semantics
		return false
	}
}
