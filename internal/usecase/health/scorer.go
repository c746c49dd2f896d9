package health

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/simaogato/rebalance-backend/internal/domain"
)

// Composite weights and bounds of the health score.
const (
	weightDiversification = 0.30
	weightDrawdown        = 0.30
	weightCorrelation     = 0.20
	weightRisk            = 0.20

	// riskCeiling is the reference combined-risk figure mapped to the
	// worst possible risk sub-score.
	riskCeiling = 0.5

	// criticalScore is the threshold below which the auto-rebalance
	// callback fires.
	criticalScore = 40

	// trendCapacity bounds the rolling score history.
	trendCapacity = 30
)

// Input carries everything one health evaluation depends on.
// Trend is caller state: the previous result's trend threaded back in.
type Input struct {
	Weights      map[string]float64
	ValueHistory []decimal.Decimal
	Volatility   float64
	Correlations [][]float64
	Overlays     []domain.Overlay
	Trend        []int

	// OnCritical, when set, is invoked with no arguments if the computed
	// score falls strictly below the critical threshold. The scorer itself
	// performs no rebalancing.
	OnCritical func()
}

// Scorer computes the composite portfolio health score.
// It holds no state between calls; the trend buffer is threaded through
// by the caller.
type Scorer struct{}

// NewScorer creates a new Scorer instance
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score converts portfolio state into a normalized health score and its
// breakdown. The result is an integer in [0,100]; every breakdown component
// lies in [0,1] where 1 is best.
func (s *Scorer) Score(in Input) domain.HealthResult {
	breakdown := domain.HealthBreakdown{
		Diversification: diversificationScore(in.Weights),
		Drawdown:        drawdownScore(in.ValueHistory),
		Correlation:     correlationScore(in.Correlations),
		Risk:            riskScore(in.Volatility, in.Overlays),
	}

	composite := weightDiversification*breakdown.Diversification +
		weightDrawdown*breakdown.Drawdown +
		weightCorrelation*breakdown.Correlation +
		weightRisk*breakdown.Risk
	score := int(math.Round(100 * composite))

	trend := make([]int, 0, len(in.Trend)+1)
	trend = append(trend, in.Trend...)
	trend = append(trend, score)
	if len(trend) > trendCapacity {
		trend = trend[len(trend)-trendCapacity:]
	}

	if score < criticalScore && in.OnCritical != nil {
		in.OnCritical()
	}

	return domain.HealthResult{
		Score:     score,
		Breakdown: breakdown,
		Trend:     trend,
	}
}

// diversificationScore is the Shannon entropy of the weight vector
// normalized by the maximum entropy for that number of assets (log n).
// Zero weights contribute zero to the sum (limit of w*log w).
func diversificationScore(weights map[string]float64) float64 {
	n := len(weights)
	if n <= 1 {
		return 0
	}

	entropy := 0.0
	for _, w := range weights {
		if w <= 0 {
			continue
		}
		entropy -= w * math.Log(w)
	}

	score := entropy / math.Log(float64(n))
	return clamp01(score)
}

// drawdownScore tracks the running peak over the value history and scores
// the maximum fractional decline from it. 1 means no drawdown.
func drawdownScore(history []decimal.Decimal) float64 {
	if len(history) == 0 {
		return 1
	}

	peak := history[0]
	maxDrawdown := 0.0
	for _, v := range history {
		if v.GreaterThan(peak) {
			peak = v
		}
		if peak.IsPositive() {
			dd := peak.Sub(v).Div(peak).InexactFloat64()
			if dd > maxDrawdown {
				maxDrawdown = dd
			}
		}
	}

	return 1 - math.Min(1, maxDrawdown)
}

// correlationScore averages the absolute off-diagonal entries of the
// correlation matrix. A portfolio of fewer than two assets scores 1.
func correlationScore(matrix [][]float64) float64 {
	sum := 0.0
	count := 0
	for i, row := range matrix {
		for j, c := range row {
			if i == j {
				continue
			}
			sum += math.Abs(c)
			count++
		}
	}
	if count == 0 {
		return 1
	}

	return 1 - math.Min(1, sum/float64(count))
}

// riskScore combines the volatility scalar with the risk adjustment of each
// active overlay, normalized against the reference ceiling and inverted so
// 1 is lowest risk.
func riskScore(volatility float64, overlays []domain.Overlay) float64 {
	combined := volatility
	for _, o := range overlays {
		if o.IsActive {
			combined += o.Metadata.RiskAdjustment
		}
	}

	return 1 - clamp01(combined/riskCeiling)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
