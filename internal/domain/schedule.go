package domain

import (
	"errors"
	"time"
)

// Interval represents the recurring rebalance cadence
type Interval string

const (
	IntervalNone    Interval = ""
	IntervalDaily   Interval = "daily"
	IntervalWeekly  Interval = "weekly"
	IntervalMonthly Interval = "monthly"
)

// Duration returns one full unit of the interval.
// Monthly is approximated as 30 days.
func (i Interval) Duration() time.Duration {
	switch i {
	case IntervalDaily:
		return 24 * time.Hour
	case IntervalWeekly:
		return 7 * 24 * time.Hour
	case IntervalMonthly:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// TriggerKind identifies one of the three reasons a rebalance can be proposed
type TriggerKind string

const (
	TriggerInterval TriggerKind = "interval"
	TriggerMacro    TriggerKind = "macro"
	TriggerSignal   TriggerKind = "signal"
)

// RebalanceSchedule represents the long-lived policy for proposing rebalances.
// The interval gates the interval trigger by itself; macro and signal checks
// are gated by the trigger set.
type RebalanceSchedule struct {
	Enabled          bool          `json:"enabled"`
	Interval         Interval      `json:"interval,omitempty"`
	Triggers         []TriggerKind `json:"triggers"`
	Paused           bool          `json:"paused"`
	LastRebalance    *time.Time    `json:"lastRebalance,omitempty"`
	CooldownOverride bool          `json:"cooldownOverride"`
}

// HasTrigger reports whether the schedule's trigger set includes the given kind
func (s *RebalanceSchedule) HasTrigger(kind TriggerKind) bool {
	for _, t := range s.Triggers {
		if t == kind {
			return true
		}
	}
	return false
}

// Validate ensures the schedule adheres to domain rules
// Returns an error if validation fails
func (s *RebalanceSchedule) Validate() error {
	switch s.Interval {
	case IntervalNone, IntervalDaily, IntervalWeekly, IntervalMonthly:
	default:
		return errors.New("schedule interval must be daily, weekly, monthly, or absent")
	}

	for _, t := range s.Triggers {
		switch t {
		case TriggerInterval, TriggerMacro, TriggerSignal:
		default:
			return errors.New("schedule trigger must be interval, macro, or signal")
		}
	}

	return nil
}
