package seeder

import (
	"github.com/google/uuid"
	"github.com/simaogato/rebalance-backend/internal/domain"
	"github.com/simaogato/rebalance-backend/internal/usecase/overlay"
)

// Fixed UUIDs for built-in overlay templates (immutable once registered)
var (
	TPL_MOMENTUM_TILT   = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	TPL_DRAWDOWN_GUARD  = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	TPL_SECTOR_ROTATION = uuid.MustParse("00000000-0000-0000-0000-000000000003")
)

// TemplateSeeder registers the built-in overlay templates with the engine
type TemplateSeeder struct {
	engine *overlay.Engine
}

// NewTemplateSeeder creates a new TemplateSeeder instance
func NewTemplateSeeder(engine *overlay.Engine) *TemplateSeeder {
	return &TemplateSeeder{
		engine: engine,
	}
}

// Seed installs all built-in templates. Registering the same template ID
// twice overwrites in place, so Seed is safe to run on every startup.
func (s *TemplateSeeder) Seed() {
	for _, t := range builtinTemplates() {
		s.engine.RegisterTemplate(t)
	}
}

func builtinTemplates() []domain.OverlayTemplate {
	return []domain.OverlayTemplate{
		{
			ID:          TPL_MOMENTUM_TILT,
			Name:        "Momentum Tilt",
			Description: "Lean into assets breaking above their volume-backed price range",
			Category:    "momentum",
			Rules: []domain.Rule{
				{
					Name: "Breakout add",
					Conditions: []domain.Condition{
						{Field: domain.FieldPrice, Operator: domain.OpGreater, Value: domain.NumberValue(100)},
						{Field: domain.FieldVolume, Operator: domain.OpGreater, Value: domain.NumberValue(1_000_000)},
					},
					Actions: []domain.Action{
						{Type: domain.ActionBuy, Percent: 5, Reason: "price and volume breakout"},
					},
					Priority: 1,
					Enabled:  true,
				},
			},
			Metadata: domain.OverlayMetadata{
				Complexity:     "low",
				RiskLevel:      "medium",
				Tags:           []string{"momentum", "trend"},
				RiskAdjustment: 0.05,
			},
		},
		{
			ID:          TPL_DRAWDOWN_GUARD,
			Name:        "Drawdown Guard",
			Description: "Trim exposure and raise an alert when price falls through its floor",
			Category:    "defensive",
			Rules: []domain.Rule{
				{
					Name: "Floor breach trim",
					Conditions: []domain.Condition{
						{Field: domain.FieldPrice, Operator: domain.OpLess, Value: domain.NumberValue(80)},
					},
					Actions: []domain.Action{
						{Type: domain.ActionSell, Percent: 10, Reason: "price broke the floor"},
						{Type: domain.ActionAlert, Reason: "drawdown guard tripped"},
					},
					Priority: 1,
					Enabled:  true,
				},
			},
			Metadata: domain.OverlayMetadata{
				Complexity:     "low",
				RiskLevel:      "low",
				Tags:           []string{"defensive", "drawdown"},
				RiskAdjustment: -0.05,
			},
		},
		{
			ID:          TPL_SECTOR_ROTATION,
			Name:        "Sector Rotation",
			Description: "Rebalance toward a target weight when a watched sector is in play",
			Category:    "rotation",
			Rules: []domain.Rule{
				{
					Name: "Technology target",
					Conditions: []domain.Condition{
						{Field: domain.FieldSector, Operator: domain.OpEqual, Value: domain.TextValue("technology"),
							Connector: domain.ConnectorAnd},
						{Field: domain.FieldMarketCap, Operator: domain.OpGreater, Value: domain.NumberValue(1_000_000_000)},
					},
					Actions: []domain.Action{
						{Type: domain.ActionRebalance, TargetWeight: 25, Reason: "rotate toward large-cap technology"},
					},
					Priority: 1,
					Enabled:  true,
				},
			},
			Metadata: domain.OverlayMetadata{
				Complexity:     "medium",
				RiskLevel:      "medium",
				Tags:           []string{"rotation", "sector"},
				RiskAdjustment: 0,
			},
		},
	}
}
