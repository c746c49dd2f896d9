package portfolio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/rebalance-backend/internal/domain"
)

func TestStaticProvider_SnapshotIsCopied(t *testing.T) {
	provider := NewStaticProvider()

	first, err := provider.Snapshot(context.Background())
	require.NoError(t, err)
	first.Weights["VWCE"] = 0.99

	second, err := provider.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.45, second.Weights["VWCE"])
}

func TestStaticProvider_MarketEventsDrainOnRead(t *testing.T) {
	provider := NewStaticProvider()
	provider.PushEvent(domain.MarketEvent{
		Type:        "rate_decision",
		Description: "central bank raised rates",
		Severity:    "high",
	})

	events, err := provider.MarketEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "rate_decision", events[0].Type)
	assert.False(t, events[0].OccurredAt.IsZero())

	events, err = provider.MarketEvents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestStaticProvider_PushEventKeepsTimestamp(t *testing.T) {
	provider := NewStaticProvider()
	occurred := time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)
	provider.PushEvent(domain.MarketEvent{Type: "earnings", OccurredAt: occurred})

	events, err := provider.MarketEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, occurred, events[0].OccurredAt)
}
