package sim

import "math"

// CheckpointStrategy is a pure per-step decision rule trading memory for
// recompute cost during reverse traversal. Strategies hold no mutable state:
// ShouldCheckpoint is evaluated fresh for each (step, totalSteps) pair and
// must answer in O(1).
//
// Every strategy except None answers true for step 0, so a reverse pass
// never lacks a starting point.
type CheckpointStrategy interface {
	// ShouldCheckpoint reports whether the forward pass should snapshot at step.
	ShouldCheckpoint(step, totalSteps int) bool
	// EstimatedCheckpoints returns the approximate number of snapshots the
	// strategy produces over totalSteps, used to pre-size storage.
	EstimatedCheckpoints(totalSteps int) int
	// Name identifies the strategy in logs and CLI flags.
	Name() string
}

// clampInterval floors an interval at 1 so zero-value strategy literals
// never divide by zero.
func clampInterval(interval int) int {
	if interval < 1 {
		return 1
	}
	return interval
}

// === None ===

// NoneStrategy never checkpoints. Any reverse lookup pays a full recompute
// from step 0.
type NoneStrategy struct{}

func (NoneStrategy) ShouldCheckpoint(step, totalSteps int) bool { return false }
func (NoneStrategy) EstimatedCheckpoints(totalSteps int) int    { return 0 }
func (NoneStrategy) Name() string                               { return "none" }

// === Uniform ===

// UniformStrategy checkpoints every Interval steps, always including step 0.
// Intervals below 1 behave as 1, so a zero-value literal is dense but safe.
type UniformStrategy struct {
	Interval int
}

// NewUniformStrategy creates a uniform strategy; intervals below 1 are clamped to 1.
func NewUniformStrategy(interval int) UniformStrategy {
	if interval < 1 {
		interval = 1
	}
	return UniformStrategy{Interval: interval}
}

func (s UniformStrategy) ShouldCheckpoint(step, totalSteps int) bool {
	return step == 0 || step%clampInterval(s.Interval) == 0
}

func (s UniformStrategy) EstimatedCheckpoints(totalSteps int) int {
	return totalSteps/clampInterval(s.Interval) + 1
}

func (s UniformStrategy) Name() string { return "uniform" }

// === Logarithmic ===

// LogarithmicStrategy checkpoints with spacing that grows logarithmically
// with the step index: dense early, sparse late. The effective interval at
// step s is BaseInterval * (1 + floor(log2(s/BaseInterval + 1))).
// Base intervals below 1 behave as 1.
type LogarithmicStrategy struct {
	BaseInterval int
}

// NewLogarithmicStrategy creates a logarithmic strategy; base intervals
// below 1 are clamped to 1.
func NewLogarithmicStrategy(baseInterval int) LogarithmicStrategy {
	if baseInterval < 1 {
		baseInterval = 1
	}
	return LogarithmicStrategy{BaseInterval: baseInterval}
}

func (s LogarithmicStrategy) ShouldCheckpoint(step, totalSteps int) bool {
	if step == 0 {
		return true
	}
	return step%s.intervalAt(step) == 0
}

func (s LogarithmicStrategy) intervalAt(step int) int {
	base := clampInterval(s.BaseInterval)
	return base * (1 + int(math.Log2(float64(step/base+1))))
}

func (s LogarithmicStrategy) EstimatedCheckpoints(totalSteps int) int {
	if totalSteps <= 0 {
		return 1
	}
	// Upper bound: the early dense region dominates the count.
	return totalSteps/clampInterval(s.BaseInterval) + 1
}

func (s LogarithmicStrategy) Name() string { return "logarithmic" }

// === Adaptive ===

// AdaptiveStrategy derives a uniform interval of approximately totalSteps/10
// once the total is known, aiming for about ten retained checkpoints
// regardless of simulation length.
type AdaptiveStrategy struct{}

func (AdaptiveStrategy) ShouldCheckpoint(step, totalSteps int) bool {
	return step == 0 || step%adaptiveInterval(totalSteps) == 0
}

func adaptiveInterval(totalSteps int) int {
	interval := totalSteps / 10
	if interval < 1 {
		interval = 1
	}
	return interval
}

func (AdaptiveStrategy) EstimatedCheckpoints(totalSteps int) int {
	return totalSteps/adaptiveInterval(totalSteps) + 1
}

func (AdaptiveStrategy) Name() string { return "adaptive" }

// === Binomial ===

// BinomialStrategy targets O(sqrt(totalSteps)) stored checkpoints, the
// standard space/recompute trade-off for bounded-memory reverse traversal of
// a length-n forward process. The interval is max(1, ceil(sqrt(totalSteps))),
// stretched to totalSteps/MemorySlots when a slot budget caps storage harder.
type BinomialStrategy struct {
	// MemorySlots caps the number of retained checkpoints; 0 means no cap.
	MemorySlots int
}

// NewBinomialStrategy creates a binomial strategy with an optional slot cap.
func NewBinomialStrategy(memorySlots int) BinomialStrategy {
	if memorySlots < 0 {
		memorySlots = 0
	}
	return BinomialStrategy{MemorySlots: memorySlots}
}

func (s BinomialStrategy) ShouldCheckpoint(step, totalSteps int) bool {
	return step == 0 || step%s.interval(totalSteps) == 0
}

func (s BinomialStrategy) interval(totalSteps int) int {
	interval := int(math.Ceil(math.Sqrt(float64(totalSteps))))
	if interval < 1 {
		interval = 1
	}
	if s.MemorySlots > 0 {
		if slotInterval := totalSteps / s.MemorySlots; slotInterval > interval {
			interval = slotInterval
		}
	}
	return interval
}

func (s BinomialStrategy) EstimatedCheckpoints(totalSteps int) int {
	if totalSteps <= 0 {
		return 1
	}
	return totalSteps/s.interval(totalSteps) + 1
}

func (s BinomialStrategy) Name() string { return "binomial" }
