package sim

import "math"

// PathObserverState is a value-type snapshot of one path's streaming
// statistics. Restoring a state into a fresh observer reproduces bit-identical
// subsequent statistics to what continuing the original observer would have
// produced. It carries no references back into the live simulation.
type PathObserverState struct {
	Count  int64
	Min    float64
	Max    float64
	Sum    float64
	LogSum float64
}

// PathObserver folds simulated prices into running per-path statistics in
// O(1) time and space: count, min, max, and the running sums needed to
// reconstruct arithmetic and geometric averages. No per-path history is
// retained. Path-dependent payoff logic lives elsewhere; this is a generic
// streaming accumulator that the checkpoint layer snapshots and restores.
//
// The zero value is ready to use.
type PathObserver struct {
	state PathObserverState
}

// Observe folds one more sample into the running statistics.
// Geometric statistics assume positive samples (simulated prices are).
func (o *PathObserver) Observe(value float64) {
	if o.state.Count == 0 {
		o.state.Min = value
		o.state.Max = value
	} else {
		if value < o.state.Min {
			o.state.Min = value
		}
		if value > o.state.Max {
			o.state.Max = value
		}
	}
	o.state.Count++
	o.state.Sum += value
	o.state.LogSum += math.Log(value)
}

// Snapshot returns a copy of the observer's state. The copy is independent:
// mutating the observer afterwards does not affect the snapshot.
func (o *PathObserver) Snapshot() PathObserverState {
	return o.state
}

// Restore is the exact inverse of Snapshot.
func (o *PathObserver) Restore(state PathObserverState) {
	o.state = state
}

// Reset returns the observer to the zero-observation state.
func (o *PathObserver) Reset() {
	o.state = PathObserverState{}
}

// Count returns the number of samples observed.
func (o *PathObserver) Count() int64 { return o.state.Count }

// Min returns the smallest observed sample, or 0 before any observation.
func (o *PathObserver) Min() float64 { return o.state.Min }

// Max returns the largest observed sample, or 0 before any observation.
func (o *PathObserver) Max() float64 { return o.state.Max }

// ArithmeticMean returns the running arithmetic average,
// or 0 before any observation.
func (o *PathObserver) ArithmeticMean() float64 {
	if o.state.Count == 0 {
		return 0
	}
	return o.state.Sum / float64(o.state.Count)
}

// GeometricMean returns the running geometric average,
// or 0 before any observation.
func (o *PathObserver) GeometricMean() float64 {
	if o.state.Count == 0 {
		return 0
	}
	return math.Exp(o.state.LogSum / float64(o.state.Count))
}
