package domain

import "errors"

// Sentinel errors shared across repositories and usecases.
// Callers discriminate with errors.Is; one uniform discipline replaces
// the mixed sentinel-value/exception style of pre-existing consumers.
var (
	ErrOverlayNotFound  = errors.New("overlay not found")
	ErrRuleNotFound     = errors.New("rule not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrProposalNotFound = errors.New("proposal not found")
	ErrOverlayActive    = errors.New("overlay is active and cannot be deleted")
)
