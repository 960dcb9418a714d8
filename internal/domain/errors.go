package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Catalog lookups
	ErrPartNotFound    = errors.New("part not found")
	ErrMachineNotFound = errors.New("machine not found")
	ErrTaskNotFound    = errors.New("production task not found")
	ErrStageNotFound   = errors.New("task stage not found")

	// Planning input validation
	ErrNoRouteStages   = errors.New("part has no processing route")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrNoAssignments   = errors.New("no stage assignments given")

	// Stage splitting
	ErrSplitQuantityMismatch = errors.New("split quantities do not sum to the stage quantity")
	ErrSplitMachineMissing   = errors.New("every split part needs a machine")
	ErrSplitTooFewParts      = errors.New("a split needs at least two parts")

	// Time tracking
	ErrInvalidTransition = errors.New("status transition not allowed")
)
