package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// RebalanceProposal represents a single candidate rebalance decision
// awaiting user confirmation or skip
type RebalanceProposal struct {
	ID            uuid.UUID          `json:"id"`
	BeforeWeights map[string]float64 `json:"beforeWeights"`
	AfterWeights  map[string]float64 `json:"afterWeights"`
	Rationale     string             `json:"rationale"`
	Timestamp     time.Time          `json:"timestamp"`
	Confirmed     bool               `json:"confirmed"`
	Skipped       bool               `json:"skipped"`
}

// Validate ensures the proposal adheres to domain rules
// CRITICAL: confirmed and skipped are mutually exclusive, and both weight
// maps must cover the same asset universe
func (p *RebalanceProposal) Validate() error {
	if p.Confirmed && p.Skipped {
		return errors.New("proposal cannot be both confirmed and skipped")
	}

	if len(p.BeforeWeights) != len(p.AfterWeights) {
		return errors.New("before and after weights must cover the same assets")
	}
	for asset := range p.BeforeWeights {
		if _, ok := p.AfterWeights[asset]; !ok {
			return errors.New("before and after weights must cover the same assets")
		}
	}

	return nil
}

// RebalanceHistoryEntry is an immutable record of a past proposal's outcome.
// Append-only; never mutated after creation.
type RebalanceHistoryEntry struct {
	RebalanceProposal
	RecordedAt time.Time `json:"recordedAt"`
}

// Finalize converts the proposal into a history entry with its outcome fixed
func (p *RebalanceProposal) Finalize(confirmed bool, recordedAt time.Time) *RebalanceHistoryEntry {
	entry := &RebalanceHistoryEntry{
		RebalanceProposal: *p,
		RecordedAt:        recordedAt,
	}
	entry.Confirmed = confirmed
	entry.Skipped = !confirmed
	return entry
}
