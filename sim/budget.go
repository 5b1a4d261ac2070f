package sim

// DefaultWarningFraction is the conservative default threshold at which a
// memory budget starts reporting a warning, as a fraction of the hard ceiling.
const DefaultWarningFraction = 0.8

// MemoryBudget converts a byte ceiling into a recommended checkpoint
// interval and answers advisory budget predicates. It is pure policy: it
// never allocates or tracks memory itself -- tracking belongs to the
// CheckpointManager and, across workers, to the portfolio MemoryMonitor.
type MemoryBudget struct {
	maxBytes     uint64
	warnFraction float64
}

// NewMemoryBudget creates a budget with the default warning fraction.
func NewMemoryBudget(maxBytes uint64) *MemoryBudget {
	return NewMemoryBudgetWithWarning(maxBytes, DefaultWarningFraction)
}

// NewMemoryBudgetWithWarning creates a budget with an explicit warning
// fraction in (0, 1]. Fractions outside that range fall back to the default.
func NewMemoryBudgetWithWarning(maxBytes uint64, warnFraction float64) *MemoryBudget {
	if warnFraction <= 0 || warnFraction > 1 {
		warnFraction = DefaultWarningFraction
	}
	return &MemoryBudget{maxBytes: maxBytes, warnFraction: warnFraction}
}

// MaxBytes returns the hard ceiling.
func (b *MemoryBudget) MaxBytes() uint64 { return b.maxBytes }

// RecommendedInterval returns the tightest checkpoint spacing such that the
// number of simultaneously retained checkpoints times the per-checkpoint
// payload (nPaths * stateSizePerPath bytes) stays within the ceiling. A
// uniform spacing of interval over totalSteps retains totalSteps/interval + 1
// snapshots (step 0 plus the end), so the spacing divides the run into
// maxCheckpoints - 1 spans, rounding up to stay under the ceiling. Degrades
// gracefully, returning 1, when the budget holds fewer than two checkpoints.
func (b *MemoryBudget) RecommendedInterval(nPaths, totalSteps, stateSizePerPath int) int {
	if nPaths <= 0 || totalSteps <= 0 || stateSizePerPath <= 0 {
		return 1
	}
	bytesPerCheckpoint := uint64(nPaths) * uint64(stateSizePerPath)
	if bytesPerCheckpoint == 0 || bytesPerCheckpoint > b.maxBytes {
		return 1
	}
	maxCheckpoints := int(b.maxBytes / bytesPerCheckpoint)
	if maxCheckpoints < 2 {
		return 1
	}
	spans := maxCheckpoints - 1
	return (totalSteps + spans - 1) / spans
}

// IsWithinBudget reports whether a usage sample fits under the hard ceiling.
func (b *MemoryBudget) IsWithinBudget(currentBytes uint64) bool {
	return currentBytes <= b.maxBytes
}

// IsWarning reports whether a usage sample has crossed the warning threshold.
func (b *MemoryBudget) IsWarning(currentBytes uint64) bool {
	return float64(currentBytes) >= b.warnFraction*float64(b.maxBytes)
}

// UsagePercentage returns the usage sample as a percentage of the ceiling.
func (b *MemoryBudget) UsagePercentage(currentBytes uint64) float64 {
	if b.maxBytes == 0 {
		return 100
	}
	return 100 * float64(currentBytes) / float64(b.maxBytes)
}

// Remaining returns the bytes left under the ceiling, or 0 when exceeded.
func (b *MemoryBudget) Remaining(currentBytes uint64) uint64 {
	if currentBytes >= b.maxBytes {
		return 0
	}
	return b.maxBytes - currentBytes
}
