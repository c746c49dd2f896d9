package trigger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/simaogato/rebalance-backend/internal/domain"
)

// Rationale fragments accumulated when triggers fire, in firing order:
// interval, macro, signal, then the cooldown advisory.
const (
	reasonMacro  = "Macro market event detected. "
	reasonSignal = "Active strategy signals present. "

	// CooldownAdvisory is appended when a rebalance happened within the last
	// 24 hours and no override is set. It documents the recommendation only;
	// it never suppresses the trigger (the user keeps the final say through
	// the confirm/skip step).
	CooldownAdvisory = "Advisory: a rebalance already occurred in the last 24 hours; at most one per day is recommended."
)

// cooldownWindow is the advisory minimum spacing between rebalances.
const cooldownWindow = 24 * time.Hour

// WeightPolicy computes the proposed after-weights from the current weights
// and the active overlays. The default identity policy is a placeholder;
// a real allocation strategy is supplied by the surrounding application.
type WeightPolicy func(current map[string]float64, overlays []domain.Overlay) map[string]float64

// IdentityWeights returns an independent copy of the current weights,
// leaving the allocation unchanged.
func IdentityWeights(current map[string]float64, _ []domain.Overlay) map[string]float64 {
	out := make(map[string]float64, len(current))
	for asset, w := range current {
		out[asset] = w
	}
	return out
}

// EvaluateInput bundles everything one trigger evaluation depends on
type EvaluateInput struct {
	Schedule       domain.RebalanceSchedule
	LastRebalance  *time.Time
	Signals        []domain.StrategySignal
	MarketEvents   []domain.MarketEvent
	CurrentWeights map[string]float64
	ActiveOverlays []domain.Overlay
}

// Evaluator decides whether a rebalance should be proposed now and builds
// the proposal payload. It is a pure function of its inputs plus the clock;
// the caller polls it on a fixed cadence and persists outcomes.
type Evaluator struct {
	policy WeightPolicy
	now    func() time.Time
}

// NewEvaluator creates a new Evaluator instance.
// A nil policy falls back to the identity copy.
func NewEvaluator(policy WeightPolicy) *Evaluator {
	if policy == nil {
		policy = IdentityWeights
	}
	return &Evaluator{
		policy: policy,
		now:    time.Now,
	}
}

// Evaluate returns a proposal when at least one trigger fires, nil otherwise.
// A disabled or paused schedule never fires regardless of other inputs.
func (e *Evaluator) Evaluate(in EvaluateInput) *domain.RebalanceProposal {
	if !in.Schedule.Enabled || in.Schedule.Paused {
		return nil
	}

	now := e.now()
	var rationale strings.Builder
	fired := false

	// Interval trigger: due when no prior rebalance exists or one full
	// interval unit has elapsed since the last one.
	if in.Schedule.Interval != domain.IntervalNone {
		if in.LastRebalance == nil || now.Sub(*in.LastRebalance) >= in.Schedule.Interval.Duration() {
			rationale.WriteString(fmt.Sprintf("Scheduled %s interval elapsed. ", in.Schedule.Interval))
			fired = true
		}
	}

	if in.Schedule.HasTrigger(domain.TriggerMacro) && len(in.MarketEvents) > 0 {
		rationale.WriteString(reasonMacro)
		fired = true
	}

	if in.Schedule.HasTrigger(domain.TriggerSignal) && len(in.Signals) > 0 {
		rationale.WriteString(reasonSignal)
		fired = true
	}

	if !fired {
		return nil
	}

	// Advisory only, never a gate.
	if !in.Schedule.CooldownOverride && in.LastRebalance != nil &&
		now.Sub(*in.LastRebalance) < cooldownWindow {
		rationale.WriteString(CooldownAdvisory)
	}

	before := make(map[string]float64, len(in.CurrentWeights))
	for asset, w := range in.CurrentWeights {
		before[asset] = w
	}

	return &domain.RebalanceProposal{
		ID:            uuid.New(),
		BeforeWeights: before,
		AfterWeights:  e.policy(in.CurrentWeights, in.ActiveOverlays),
		Rationale:     strings.TrimSpace(rationale.String()),
		Timestamp:     now,
	}
}
