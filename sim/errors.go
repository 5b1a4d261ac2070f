package sim

import "errors"

// Sentinel errors for the pricing engine. Callers match with errors.Is.
//
// Checkpoint protocol errors (ErrNotFound, ErrInvalidState) indicate caller
// bookkeeping bugs: they are surfaced immediately and never retried.
// Budget overrun is NOT an error: it is reported through the advisory
// predicates on CheckpointManager and MemoryBudget.
var (
	// ErrInvalidConfig is returned when a simulation is configured with
	// unusable parameters (zero or negative path/step counts, missing
	// path-generation or payoff functions).
	ErrInvalidConfig = errors.New("invalid simulation configuration")

	// ErrInvalidState is returned by CheckpointManager.SaveState when the
	// state's recorded step disagrees with the step it is saved under.
	ErrInvalidState = errors.New("invalid checkpoint state")

	// ErrNotFound is returned by CheckpointManager.RestoreState when no
	// snapshot exists at the requested step, and by replay when the store
	// holds nothing at or before the target step.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrNoObservations is returned when aggregation is attempted over an
	// empty payoff vector. Config validation normally rejects this earlier.
	ErrNoObservations = errors.New("no observations to aggregate")

	// ErrReverseUnavailable is returned when reverse-mode differentiation is
	// requested strictly (ModeReverseStrict) but no adjoint engine is built in.
	ErrReverseUnavailable = errors.New("reverse-mode adjoint engine unavailable")
)
