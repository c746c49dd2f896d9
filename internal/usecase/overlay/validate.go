package overlay

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/rebalance-backend/internal/domain"
)

// maxRulesBeforeWarning is the rule count above which a performance
// warning is emitted.
const maxRulesBeforeWarning = 10

// ValidationResult is the structured outcome of an overlay validation.
// Validation never fails with an error for content problems; malformed
// overlays are reported here and may still exist in the catalogue.
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r *ValidationResult) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ValidateOverlay checks an overlay and every rule, condition, and action it
// contains against the domain contracts. Only an unknown overlay ID is an
// error; content problems come back in the result.
func (e *Engine) ValidateOverlay(ctx context.Context, id uuid.UUID) (*ValidationResult, error) {
	overlay, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{Errors: []string{}, Warnings: []string{}}

	if overlay.Name == "" {
		result.addError("overlay name must not be blank")
	}
	if len(overlay.Rules) == 0 {
		result.addError("overlay must contain at least one rule")
	}
	if len(overlay.Rules) > maxRulesBeforeWarning {
		result.addWarning("overlay has %d rules; more than %d may slow execution",
			len(overlay.Rules), maxRulesBeforeWarning)
	}

	for i, rule := range overlay.Rules {
		validateRule(result, i, rule)
	}

	result.IsValid = len(result.Errors) == 0
	return result, nil
}

func validateRule(result *ValidationResult, idx int, rule domain.Rule) {
	if rule.Name == "" {
		result.addError("rule %d: name must not be blank", idx)
	}
	if len(rule.Conditions) == 0 {
		result.addError("rule %d (%s): must have at least one condition", idx, rule.Name)
	}
	if len(rule.Actions) == 0 {
		result.addError("rule %d (%s): must have at least one action", idx, rule.Name)
	}

	for j, cond := range rule.Conditions {
		validateCondition(result, idx, j, cond)
	}
	for j, action := range rule.Actions {
		validateAction(result, idx, j, action)
	}
}

func validateCondition(result *ValidationResult, ruleIdx, condIdx int, cond domain.Condition) {
	if !cond.Field.IsKnown() {
		result.addError("rule %d condition %d: unknown field %q", ruleIdx, condIdx, cond.Field)
		return
	}
	if !cond.Operator.IsKnown() {
		result.addError("rule %d condition %d: unknown operator %q", ruleIdx, condIdx, cond.Operator)
		return
	}

	if cond.Operator == domain.OpComplex {
		result.addWarning("rule %d condition %d: the complex operator is not evaluable by the rule engine",
			ruleIdx, condIdx)
	}

	if cond.Field.IsNumeric() {
		if cond.Value.Number <= 0 {
			result.addError("rule %d condition %d: field %s requires a positive numeric value",
				ruleIdx, condIdx, cond.Field)
		}
		if cond.Operator == domain.OpBetween {
			if cond.UpperValue == nil {
				result.addError("rule %d condition %d: between requires an upper value", ruleIdx, condIdx)
			} else if cond.UpperValue.Number <= cond.Value.Number {
				result.addError("rule %d condition %d: between upper value must exceed the lower value",
					ruleIdx, condIdx)
			}
		}
	} else {
		if cond.Value.Text == "" {
			result.addError("rule %d condition %d: field %s requires a non-empty string value",
				ruleIdx, condIdx, cond.Field)
		}
		if cond.Operator == domain.OpBetween {
			result.addError("rule %d condition %d: between is not valid for field %s",
				ruleIdx, condIdx, cond.Field)
		}
	}
}

func validateAction(result *ValidationResult, ruleIdx, actionIdx int, action domain.Action) {
	if !action.Type.IsKnown() {
		result.addError("rule %d action %d: unknown action type %q", ruleIdx, actionIdx, action.Type)
		return
	}

	switch action.Type {
	case domain.ActionBuy, domain.ActionSell:
		if action.Percent <= 0 || action.Percent > 100 {
			result.addError("rule %d action %d: %s percentage must be in (0, 100]",
				ruleIdx, actionIdx, action.Type)
		}
	case domain.ActionRebalance:
		if action.TargetWeight < 0 || action.TargetWeight > 100 {
			result.addError("rule %d action %d: rebalance target weight must be in [0, 100]",
				ruleIdx, actionIdx)
		}
	}
}
