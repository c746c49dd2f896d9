package health

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/simaogato/rebalance-backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func uniformWeights(n int) map[string]float64 {
	weights := make(map[string]float64, n)
	for i := 0; i < n; i++ {
		weights[string(rune('A'+i))] = 1.0 / float64(n)
	}
	return weights
}

func TestScore_UniformAllocationMaximizesDiversification(t *testing.T) {
	scorer := NewScorer()

	result := scorer.Score(Input{Weights: uniformWeights(4)})

	assert.InDelta(t, 1.0, result.Breakdown.Diversification, 1e-9)
}

func TestScore_SingleAssetHasZeroDiversification(t *testing.T) {
	scorer := NewScorer()

	result := scorer.Score(Input{Weights: map[string]float64{
		"A": 1.0,
		"B": 0.0,
		"C": 0.0,
	}})

	assert.Equal(t, 0.0, result.Breakdown.Diversification)
}

func TestScore_OutputBounds(t *testing.T) {
	scorer := NewScorer()

	inputs := []Input{
		{}, // everything empty
		{
			Weights:      uniformWeights(2),
			ValueHistory: []decimal.Decimal{decimal.NewFromInt(100), decimal.NewFromInt(10)},
			Volatility:   5.0, // far above the ceiling
			Correlations: [][]float64{{1, 0.9}, {0.9, 1}},
		},
		{
			Weights:    map[string]float64{"A": 0.7, "B": 0.3},
			Volatility: -0.2, // nonsensical input still clamps
		},
	}

	for _, in := range inputs {
		result := scorer.Score(in)
		assert.GreaterOrEqual(t, result.Score, 0)
		assert.LessOrEqual(t, result.Score, 100)
		for _, sub := range []float64{
			result.Breakdown.Diversification,
			result.Breakdown.Drawdown,
			result.Breakdown.Correlation,
			result.Breakdown.Risk,
		} {
			assert.GreaterOrEqual(t, sub, 0.0)
			assert.LessOrEqual(t, sub, 1.0)
		}
	}
}

func TestScore_DrawdownReflectsDeclineFromPeak(t *testing.T) {
	scorer := NewScorer()

	// Peak 200, trough 100 -> max drawdown 50% -> sub-score 0.5
	result := scorer.Score(Input{
		Weights: uniformWeights(4),
		ValueHistory: []decimal.Decimal{
			decimal.NewFromInt(150),
			decimal.NewFromInt(200),
			decimal.NewFromInt(100),
			decimal.NewFromInt(180),
		},
	})

	assert.InDelta(t, 0.5, result.Breakdown.Drawdown, 1e-9)
}

func TestScore_NoHistoryMeansNoDrawdown(t *testing.T) {
	scorer := NewScorer()

	result := scorer.Score(Input{Weights: uniformWeights(4)})

	assert.Equal(t, 1.0, result.Breakdown.Drawdown)
}

func TestScore_CorrelationAveragesOffDiagonal(t *testing.T) {
	scorer := NewScorer()

	// Off-diagonal entries are -0.5 and 0.5: average magnitude 0.5
	result := scorer.Score(Input{
		Weights:      uniformWeights(2),
		Correlations: [][]float64{{1, -0.5}, {0.5, 1}},
	})

	assert.InDelta(t, 0.5, result.Breakdown.Correlation, 1e-9)
}

func TestScore_RiskCombinesVolatilityAndActiveOverlays(t *testing.T) {
	scorer := NewScorer()

	overlays := []domain.Overlay{
		{IsActive: true, Metadata: domain.OverlayMetadata{RiskAdjustment: 0.1}},
		{IsActive: false, Metadata: domain.OverlayMetadata{RiskAdjustment: 9.9}}, // inactive, ignored
	}

	// (0.15 + 0.1) / 0.5 = 0.5 -> risk sub-score 0.5
	result := scorer.Score(Input{
		Weights:    uniformWeights(4),
		Volatility: 0.15,
		Overlays:   overlays,
	})

	assert.InDelta(t, 0.5, result.Breakdown.Risk, 1e-9)
}

func TestScore_TrendBufferKeepsLast30(t *testing.T) {
	scorer := NewScorer()

	var trend []int
	var scores []int
	for i := 0; i < 40; i++ {
		result := scorer.Score(Input{Weights: uniformWeights(4), Trend: trend})
		trend = result.Trend
		scores = append(scores, result.Score)
	}

	assert.Len(t, trend, 30)
	// Chronological order preserved, oldest 10 evicted
	assert.Equal(t, scores[10:], trend)
}

func TestScore_CriticalCallbackFiresBelowThreshold(t *testing.T) {
	scorer := NewScorer()

	called := false
	// Single asset, deep drawdown, extreme volatility and correlation:
	// every sub-score bottoms out
	result := scorer.Score(Input{
		Weights: map[string]float64{"A": 1.0, "B": 0.0},
		ValueHistory: []decimal.Decimal{
			decimal.NewFromInt(100),
			decimal.NewFromInt(1),
		},
		Volatility:   2.0,
		Correlations: [][]float64{{1, 1}, {1, 1}},
		OnCritical:   func() { called = true },
	})

	assert.Less(t, result.Score, 40)
	assert.True(t, called)
}

func TestScore_CriticalCallbackSilentOnHealthyPortfolio(t *testing.T) {
	scorer := NewScorer()

	called := false
	result := scorer.Score(Input{
		Weights:    uniformWeights(4),
		OnCritical: func() { called = true },
	})

	assert.GreaterOrEqual(t, result.Score, 40)
	assert.False(t, called)
}

func TestScore_PureForSameInput(t *testing.T) {
	scorer := NewScorer()

	in := Input{
		Weights:      map[string]float64{"A": 0.6, "B": 0.4},
		ValueHistory: []decimal.Decimal{decimal.NewFromInt(100), decimal.NewFromInt(95)},
		Volatility:   0.2,
		Correlations: [][]float64{{1, 0.3}, {0.3, 1}},
		Trend:        []int{50, 60},
	}

	first := scorer.Score(in)
	second := scorer.Score(in)

	assert.Equal(t, first, second)
}
