package poam

import (
	"errors"
	"fmt"

	"github.com/opsledger/compliance-engine/pkg/models"
)

var (
	// ErrTerminalState is returned for any transition attempted on a
	// Closed item.
	ErrTerminalState = errors.New("item is closed")
	// ErrInvalidTransition is returned for status changes the lifecycle
	// does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrMissingMetadata is returned when a transition requires an actor
	// and rationale that were not supplied.
	ErrMissingMetadata = errors.New("missing transition metadata")
)

// TransitionOptions carries the audit metadata some transitions require.
type TransitionOptions struct {
	Actor     string
	Rationale string
}

// statesFromOpen are the statuses an Open item may move into.
var statesFromOpen = map[models.POAMStatus]bool{
	models.POAMStatusRiskAccepted:          true,
	models.POAMStatusInvestigating:         true,
	models.POAMStatusRemediationPlanned:    true,
	models.POAMStatusRemediationInProgress: true,
	models.POAMStatusDeviationRequested:    true,
	models.POAMStatusClosed:                true,
}

// validateTransition checks the lifecycle rules: Closed is terminal, every
// non-Closed status may close, and the remaining moves start from Open.
func validateTransition(current, next models.POAMStatus) error {
	if current == models.POAMStatusClosed {
		return fmt.Errorf("cannot transition from %s to %s: %w", current, next, ErrTerminalState)
	}
	if next == models.POAMStatusClosed {
		return nil
	}
	if current == models.POAMStatusOpen && statesFromOpen[next] {
		return nil
	}
	return fmt.Errorf("cannot transition from %s to %s: %w", current, next, ErrInvalidTransition)
}

// applyTransition mutates the item for a validated transition, capturing
// approval metadata for RiskAccepted and closure metadata for Closed.
func (g *Generator) applyTransition(item *models.POAMItem, next models.POAMStatus, opts TransitionOptions) error {
	now := g.now()
	switch next {
	case models.POAMStatusRiskAccepted:
		if opts.Actor == "" || opts.Rationale == "" {
			return fmt.Errorf("risk acceptance requires an approver and rationale: %w", ErrMissingMetadata)
		}
		item.ApprovedBy = opts.Actor
		item.ApprovedDate = &now
		item.DeviationRationale = opts.Rationale
	case models.POAMStatusClosed:
		if opts.Actor == "" || opts.Rationale == "" {
			return fmt.Errorf("closure requires a closer and rationale: %w", ErrMissingMetadata)
		}
		item.ClosedBy = opts.Actor
		item.ClosedDate = &now
		item.ClosureRationale = opts.Rationale
		item.ActualCompletionDate = &now
	}
	item.Status = next
	item.UpdatedAt = now
	return nil
}
