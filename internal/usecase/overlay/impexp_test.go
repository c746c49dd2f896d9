package overlay

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/rebalance-backend/internal/domain"
)

func TestExportOverlay_OmitsIdentityAndVersion(t *testing.T) {
	engine := newTestEngine()
	created, err := engine.CreateOverlay(context.Background(), "Momentum", "ride it", "momentum", "alice")
	require.NoError(t, err)
	_, err = engine.AddRule(context.Background(), created.ID, priceRule("breakout", 100))
	require.NoError(t, err)

	data, err := engine.ExportOverlay(context.Background(), created.ID)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "name")
	assert.Contains(t, raw, "rules")
	assert.NotContains(t, raw, "id")
	assert.NotContains(t, raw, "version")
	assert.NotContains(t, raw, "owner")
	assert.NotContains(t, raw, "isActive")
}

func TestImportOverlay_RoundTripGetsFreshIdentity(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	source, err := engine.CreateOverlay(ctx, "Momentum", "ride it", "momentum", "alice")
	require.NoError(t, err)
	source, err = engine.AddRule(ctx, source.ID, priceRule("breakout", 100))
	require.NoError(t, err)
	active := true
	source, err = engine.UpdateOverlay(ctx, source.ID, UpdateOverlayInput{
		IsActive: &active,
		Metadata: &domain.OverlayMetadata{RiskLevel: "medium", Tags: []string{"trend"}},
	})
	require.NoError(t, err)

	data, err := engine.ExportOverlay(ctx, source.ID)
	require.NoError(t, err)

	imported, err := engine.ImportOverlay(ctx, data, "bob")
	require.NoError(t, err)

	assert.NotEqual(t, source.ID, imported.ID)
	assert.Equal(t, "Momentum", imported.Name)
	assert.Equal(t, "ride it", imported.Description)
	assert.Equal(t, "bob", imported.Owner)
	assert.False(t, imported.IsActive)
	assert.Equal(t, 1, imported.Version)
	assert.Equal(t, "medium", imported.Metadata.RiskLevel)
	assert.Equal(t, []string{"trend"}, imported.Metadata.Tags)

	require.Len(t, imported.Rules, 1)
	assert.NotEqual(t, source.Rules[0].ID, imported.Rules[0].ID)
	assert.Equal(t, source.Rules[0].Name, imported.Rules[0].Name)
	assert.Equal(t, source.Rules[0].Conditions, imported.Rules[0].Conditions)
	assert.Equal(t, source.Rules[0].Actions, imported.Rules[0].Actions)
}

func TestImportOverlay_RejectsBlankName(t *testing.T) {
	engine := newTestEngine()

	_, err := engine.ImportOverlay(context.Background(), []byte(`{"name":"","rules":[]}`), "bob")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "name must not be blank")
}

func TestImportOverlay_RejectsMalformedJSON(t *testing.T) {
	engine := newTestEngine()

	_, err := engine.ImportOverlay(context.Background(), []byte(`{"name":`), "bob")

	require.Error(t, err)
}

func TestImportOverlay_StoredAndRetrievable(t *testing.T) {
	engine := newTestEngine()

	imported, err := engine.ImportOverlay(context.Background(),
		[]byte(`{"name":"External","rules":[],"metadata":{}}`), "bob")
	require.NoError(t, err)

	stored, err := engine.GetOverlay(context.Background(), imported.ID)
	require.NoError(t, err)
	assert.Equal(t, "External", stored.Name)
	assert.NotEqual(t, uuid.Nil, stored.ID)
}
