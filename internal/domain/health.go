package domain

// HealthBreakdown holds the four normalized sub-scores composing the
// portfolio health score. All components lie in [0,1] where 1 is best.
type HealthBreakdown struct {
	Diversification float64 `json:"diversification"`
	Drawdown        float64 `json:"drawdown"`
	Correlation     float64 `json:"correlation"`
	Risk            float64 `json:"risk"`
}

// HealthResult is the output of one portfolio health evaluation
type HealthResult struct {
	Score     int             `json:"score"` // integer in [0,100]
	Breakdown HealthBreakdown `json:"breakdown"`
	Trend     []int           `json:"trend"` // most recent scores, at most 30, oldest first
}
