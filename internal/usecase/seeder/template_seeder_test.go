package seeder

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/rebalance-backend/internal/adapter/repository/memory"
	"github.com/simaogato/rebalance-backend/internal/domain"
	"github.com/simaogato/rebalance-backend/internal/usecase/overlay"
)

func newSeededEngine() *overlay.Engine {
	engine := overlay.NewEngine(memory.NewOverlayRepository(), overlay.NewSyntheticBacktester(1))
	NewTemplateSeeder(engine).Seed()
	return engine
}

func TestSeed_RegistersBuiltinTemplates(t *testing.T) {
	engine := newSeededEngine()

	templates := engine.Templates()

	require.Len(t, templates, 3)
	assert.Equal(t, "Momentum Tilt", templates[0].Name)
	assert.Equal(t, "Drawdown Guard", templates[1].Name)
	assert.Equal(t, "Sector Rotation", templates[2].Name)
}

func TestSeed_IsIdempotent(t *testing.T) {
	engine := newSeededEngine()
	NewTemplateSeeder(engine).Seed()

	assert.Len(t, engine.Templates(), 3)
}

func TestSeededTemplates_PassValidation(t *testing.T) {
	engine := newSeededEngine()
	ctx := context.Background()

	for _, id := range []uuid.UUID{TPL_MOMENTUM_TILT, TPL_DRAWDOWN_GUARD, TPL_SECTOR_ROTATION} {
		created, err := engine.CreateFromTemplate(ctx, id, "", "alice")
		require.NoError(t, err)

		result, err := engine.ValidateOverlay(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, result.IsValid, "template %s should instantiate to a valid overlay", created.Name)
		assert.Empty(t, result.Errors)
	}
}

func TestSeededTemplates_FireAgainstMatchingContext(t *testing.T) {
	engine := newSeededEngine()
	ctx := context.Background()

	created, err := engine.CreateFromTemplate(ctx, TPL_SECTOR_ROTATION, "", "alice")
	require.NoError(t, err)

	signals := engine.Execute(ctx, created, domain.MarketContext{
		Symbol:    "VWCE",
		Sector:    "Technology",
		MarketCap: 2_000_000_000,
	})

	require.Len(t, signals, 1)
	assert.Equal(t, domain.ActionRebalance, signals[0].Action.Type)
	assert.Equal(t, 25.0, signals[0].Action.TargetWeight)
}
