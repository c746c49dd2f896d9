package overlay

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/rebalance-backend/internal/domain"
)

var testContext = domain.MarketContext{
	Symbol:    "VWCE",
	Sector:    "technology",
	Price:     112.40,
	Volume:    1_850_000,
	MarketCap: 9_400_000_000,
}

func numCond(field domain.ConditionField, op domain.Operator, value float64) domain.Condition {
	return domain.Condition{Field: field, Operator: op, Value: domain.NumberValue(value)}
}

func textCond(field domain.ConditionField, op domain.Operator, value string) domain.Condition {
	return domain.Condition{Field: field, Operator: op, Value: domain.TextValue(value)}
}

func ruleWith(conds ...domain.Condition) domain.Rule {
	return domain.Rule{
		ID:         uuid.New(),
		Name:       "probe",
		Conditions: conds,
		Actions:    []domain.Action{{Type: domain.ActionAlert, Reason: "probe"}},
		Enabled:    true,
	}
}

func TestNumericOperators(t *testing.T) {
	tests := []struct {
		name      string
		condition domain.Condition
		want      bool
	}{
		{"greater holds", numCond(domain.FieldPrice, domain.OpGreater, 100), true},
		{"greater fails", numCond(domain.FieldPrice, domain.OpGreater, 120), false},
		{"less holds", numCond(domain.FieldPrice, domain.OpLess, 120), true},
		{"greater or equal at boundary", numCond(domain.FieldPrice, domain.OpGreaterOrEqual, 112.40), true},
		{"less or equal at boundary", numCond(domain.FieldPrice, domain.OpLessOrEqual, 112.40), true},
		{"equal holds", numCond(domain.FieldPrice, domain.OpEqual, 112.40), true},
		{"not equal holds", numCond(domain.FieldPrice, domain.OpNotEqual, 100), true},
		{"between holds inclusive", domain.Condition{
			Field: domain.FieldPrice, Operator: domain.OpBetween,
			Value: domain.NumberValue(100), UpperValue: ptrFieldValue(domain.NumberValue(112.40)),
		}, true},
		{"between fails outside range", domain.Condition{
			Field: domain.FieldPrice, Operator: domain.OpBetween,
			Value: domain.NumberValue(120), UpperValue: ptrFieldValue(domain.NumberValue(130)),
		}, false},
		{"between without upper never holds", numCond(domain.FieldPrice, domain.OpBetween, 100), false},
		{"contains has no numeric semantics", numCond(domain.FieldPrice, domain.OpContains, 112), false},
		{"complex never holds", numCond(domain.FieldPrice, domain.OpComplex, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, conditionHolds(tt.condition, testContext))
		})
	}
}

func TestTextOperators(t *testing.T) {
	tests := []struct {
		name      string
		condition domain.Condition
		want      bool
	}{
		{"equal is case-insensitive", textCond(domain.FieldSector, domain.OpEqual, "Technology"), true},
		{"equal fails on mismatch", textCond(domain.FieldSector, domain.OpEqual, "energy"), false},
		{"not equal holds", textCond(domain.FieldSector, domain.OpNotEqual, "energy"), true},
		{"contains is case-insensitive", textCond(domain.FieldSymbol, domain.OpContains, "vw"), true},
		{"contains fails", textCond(domain.FieldSymbol, domain.OpContains, "agg"), false},
		{"greater has no text semantics", textCond(domain.FieldSector, domain.OpGreater, "a"), false},
		{"complex never holds", textCond(domain.FieldSector, domain.OpComplex, "anything"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, conditionHolds(tt.condition, testContext))
		})
	}
}

func TestRuleMatches_Connectors(t *testing.T) {
	holds := numCond(domain.FieldPrice, domain.OpGreater, 100)
	fails := numCond(domain.FieldPrice, domain.OpGreater, 200)

	andLink := holds
	andLink.Connector = domain.ConnectorAnd
	orLink := fails
	orLink.Connector = domain.ConnectorOr

	tests := []struct {
		name string
		rule domain.Rule
		want bool
	}{
		{"zero conditions never match", domain.Rule{Name: "empty", Enabled: true}, false},
		{"single holding condition", ruleWith(holds), true},
		{"and requires both", ruleWith(andLink, fails), false},
		{"or accepts either", ruleWith(orLink, holds), true},
		{"missing connector defaults to and", ruleWith(fails, holds), false},
		{"left fold chains through", ruleWith(orLink, andLink, holds), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ruleMatches(tt.rule, testContext))
		})
	}
}

func TestExecute_EmitsOneSignalPerAction(t *testing.T) {
	engine := newTestEngine()
	rule := domain.Rule{
		ID:   uuid.New(),
		Name: "double action",
		Conditions: []domain.Condition{
			numCond(domain.FieldPrice, domain.OpGreater, 100),
		},
		Actions: []domain.Action{
			{Type: domain.ActionSell, Percent: 10, Reason: "trim"},
			{Type: domain.ActionAlert, Reason: "notify"},
		},
		Enabled: true,
	}
	overlay := &domain.Overlay{ID: uuid.New(), Name: "Guard", Rules: []domain.Rule{rule}}

	signals := engine.Execute(context.Background(), overlay, testContext)

	require.Len(t, signals, 2)
	assert.Equal(t, overlay.ID, signals[0].OverlayID)
	assert.Equal(t, "Guard", signals[0].OverlayName)
	assert.Equal(t, rule.ID, signals[0].RuleID)
	assert.Equal(t, domain.ActionSell, signals[0].Action.Type)
	assert.Equal(t, domain.ActionAlert, signals[1].Action.Type)
	assert.Equal(t, "VWCE", signals[0].Symbol)
}

func TestExecute_PriorityOrderAndDisabledRules(t *testing.T) {
	engine := newTestEngine()
	matching := numCond(domain.FieldPrice, domain.OpGreater, 100)
	overlay := &domain.Overlay{
		ID:   uuid.New(),
		Name: "Ordered",
		Rules: []domain.Rule{
			{ID: uuid.New(), Name: "late", Priority: 5, Enabled: true,
				Conditions: []domain.Condition{matching},
				Actions:    []domain.Action{{Type: domain.ActionAlert}}},
			{ID: uuid.New(), Name: "off", Priority: 0, Enabled: false,
				Conditions: []domain.Condition{matching},
				Actions:    []domain.Action{{Type: domain.ActionAlert}}},
			{ID: uuid.New(), Name: "early", Priority: 1, Enabled: true,
				Conditions: []domain.Condition{matching},
				Actions:    []domain.Action{{Type: domain.ActionAlert}}},
		},
	}

	signals := engine.Execute(context.Background(), overlay, testContext)

	require.Len(t, signals, 2)
	assert.Equal(t, "early", signals[0].RuleName)
	assert.Equal(t, "late", signals[1].RuleName)
}

func TestExecuteActive_SkipsInactiveOverlays(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	activeOverlay, err := engine.CreateOverlay(ctx, "Active", "", "", "alice")
	require.NoError(t, err)
	_, err = engine.AddRule(ctx, activeOverlay.ID, priceRule("fires", 100))
	require.NoError(t, err)
	on := true
	_, err = engine.UpdateOverlay(ctx, activeOverlay.ID, UpdateOverlayInput{IsActive: &on})
	require.NoError(t, err)

	dormant, err := engine.CreateOverlay(ctx, "Dormant", "", "", "alice")
	require.NoError(t, err)
	_, err = engine.AddRule(ctx, dormant.ID, priceRule("silent", 100))
	require.NoError(t, err)

	signals, err := engine.ExecuteActive(ctx, testContext)

	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, "Active", signals[0].OverlayName)
}
