package sim

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// PerPathStateBytes is the estimated per-path payload of one checkpoint:
// an observer snapshot (count, min, max, sum, logsum) plus the price.
const PerPathStateBytes = 48

// stateHeaderBytes approximates the fixed cost of one SimulationState.
const stateHeaderBytes = 64

// === SimulationState ===

// SimulationState is one checkpoint's payload: the step index, the RNG seed
// in effect, the monotonically increasing draw counter (so replay can
// fast-forward the stream to the exact point it was at), a snapshot of every
// path's observer state, and the per-path price vector.
//
// States have value semantics with respect to storage: the manager clones on
// save and clones out on restore, so a caller mutating a returned state can
// never corrupt the checkpoint store.
type SimulationState struct {
	Step      int
	Seed      uint64
	DrawCount uint64
	Observers []PathObserverState
	Prices    []float64
}

// Clone returns a deep copy with no shared backing storage.
func (s *SimulationState) Clone() *SimulationState {
	c := &SimulationState{
		Step:      s.Step,
		Seed:      s.Seed,
		DrawCount: s.DrawCount,
		Observers: make([]PathObserverState, len(s.Observers)),
		Prices:    make([]float64, len(s.Prices)),
	}
	copy(c.Observers, s.Observers)
	copy(c.Prices, s.Prices)
	return c
}

// SizeBytes estimates the in-memory footprint of the state.
func (s *SimulationState) SizeBytes() int {
	return stateHeaderBytes + len(s.Observers)*40 + len(s.Prices)*8
}

// === CheckpointStorage ===

// CheckpointStorage is a capacity-bounded mapping from step index to
// SimulationState. Steps are unique keys; ascending order is meaningful for
// nearest-before lookup. On overflow the oldest non-zero step is evicted --
// step 0 is never evicted so a reverse pass always has a starting point.
type CheckpointStorage struct {
	capacity int
	states   map[int]*SimulationState
	steps    []int // sorted ascending
	bytes    int
}

// NewCheckpointStorage creates an empty store holding at most capacity
// snapshots. Capacities below 1 are clamped to 1.
func NewCheckpointStorage(capacity int) *CheckpointStorage {
	if capacity < 1 {
		capacity = 1
	}
	return &CheckpointStorage{
		capacity: capacity,
		states:   make(map[int]*SimulationState),
	}
}

// Len returns the number of stored snapshots. Invariant: Len() <= Capacity().
func (cs *CheckpointStorage) Len() int { return len(cs.states) }

// Capacity returns the maximum number of snapshots the store retains.
func (cs *CheckpointStorage) Capacity() int { return cs.capacity }

// Bytes returns the estimated total footprint of stored snapshots.
func (cs *CheckpointStorage) Bytes() int { return cs.bytes }

// Put stores a snapshot under its step, overwriting any prior entry at that
// step and evicting the oldest non-zero step on overflow.
func (cs *CheckpointStorage) Put(step int, state *SimulationState) {
	if prior, ok := cs.states[step]; ok {
		cs.bytes -= prior.SizeBytes()
		cs.states[step] = state
		cs.bytes += state.SizeBytes()
		return
	}

	cs.states[step] = state
	cs.bytes += state.SizeBytes()
	idx := sort.SearchInts(cs.steps, step)
	cs.steps = append(cs.steps, 0)
	copy(cs.steps[idx+1:], cs.steps[idx:])
	cs.steps[idx] = step

	if len(cs.states) > cs.capacity {
		cs.evictOldest()
	}
}

func (cs *CheckpointStorage) evictOldest() {
	for i, step := range cs.steps {
		if step == 0 {
			continue
		}
		logrus.Debugf("checkpoint storage full (capacity %d), evicting step %d", cs.capacity, step)
		cs.bytes -= cs.states[step].SizeBytes()
		delete(cs.states, step)
		cs.steps = append(cs.steps[:i], cs.steps[i+1:]...)
		return
	}
}

// Get returns the snapshot stored at exactly step.
func (cs *CheckpointStorage) Get(step int) (*SimulationState, bool) {
	s, ok := cs.states[step]
	return s, ok
}

// NearestAtOrBefore returns the largest stored step <= the requested step,
// or false if the store is empty or every stored step is later.
func (cs *CheckpointStorage) NearestAtOrBefore(step int) (int, bool) {
	idx := sort.SearchInts(cs.steps, step+1)
	if idx == 0 {
		return 0, false
	}
	return cs.steps[idx-1], true
}

// Clear empties the store.
func (cs *CheckpointStorage) Clear() {
	cs.states = make(map[int]*SimulationState)
	cs.steps = cs.steps[:0]
	cs.bytes = 0
}

// === CheckpointManager ===

// CheckpointManager owns the step-keyed snapshot store for one simulation
// and applies a CheckpointStrategy over a recorded total step count. All
// save/restore failures are typed errors surfaced to the caller; checkpoint
// correctness is a precondition, not a recoverable fault, so there is no
// retry logic anywhere in this type.
//
// Ownership is exclusive: one manager per simulation, no sharing across
// workers.
type CheckpointManager struct {
	strategy   CheckpointStrategy
	totalSteps int
	storage    *CheckpointStorage
	budget     *MemoryBudget
}

// NewCheckpointManager creates a manager for a simulation of totalSteps
// steps, pre-sizing storage from the strategy's estimated checkpoint count.
func NewCheckpointManager(strategy CheckpointStrategy, totalSteps int) *CheckpointManager {
	if strategy == nil {
		strategy = NoneStrategy{}
	}
	capacity := strategy.EstimatedCheckpoints(totalSteps)
	return &CheckpointManager{
		strategy:   strategy,
		totalSteps: totalSteps,
		storage:    NewCheckpointStorage(capacity),
	}
}

// WithMemoryBudget attaches a budget and returns the manager for chaining.
// Once attached, the budget predicates report against MemoryUsage() and
// RecommendedInterval prefers the budget's computed interval.
func (m *CheckpointManager) WithMemoryBudget(budget *MemoryBudget) *CheckpointManager {
	m.budget = budget
	return m
}

// TotalSteps returns the step count the manager was configured for.
func (m *CheckpointManager) TotalSteps() int { return m.totalSteps }

// Strategy returns the configured checkpoint strategy.
func (m *CheckpointManager) Strategy() CheckpointStrategy { return m.strategy }

// ShouldCheckpoint delegates to the configured strategy using the manager's
// recorded total step count.
func (m *CheckpointManager) ShouldCheckpoint(step int) bool {
	return m.strategy.ShouldCheckpoint(step, m.totalSteps)
}

// SaveState stores a clone of state under step. It fails with
// ErrInvalidState when the state's recorded step disagrees with step, which
// defends against caller step-bookkeeping drift. A prior entry at the same
// step is overwritten.
func (m *CheckpointManager) SaveState(step int, state *SimulationState) error {
	if state == nil {
		return fmt.Errorf("%w: nil state for step %d", ErrInvalidState, step)
	}
	if state.Step != step {
		return fmt.Errorf("%w: saving at step %d but state records step %d",
			ErrInvalidState, step, state.Step)
	}
	m.storage.Put(step, state.Clone())
	return nil
}

// RestoreState returns a clone of the snapshot stored at exactly step, or
// ErrNotFound when no snapshot exists there.
func (m *CheckpointManager) RestoreState(step int) (*SimulationState, error) {
	state, ok := m.storage.Get(step)
	if !ok {
		return nil, fmt.Errorf("%w: no snapshot at step %d", ErrNotFound, step)
	}
	return state.Clone(), nil
}

// NearestCheckpoint returns the largest stored step at or before the
// requested step -- the lookup a reverse pass uses to find where to resume
// forward recomputation. The second result is false when storage holds
// nothing at or before the step.
func (m *CheckpointManager) NearestCheckpoint(step int) (int, bool) {
	return m.storage.NearestAtOrBefore(step)
}

// Len returns the number of stored snapshots.
func (m *CheckpointManager) Len() int { return m.storage.Len() }

// Clear empties storage between independent simulation runs.
func (m *CheckpointManager) Clear() {
	m.storage.Clear()
}

// MemoryUsage reports the estimated bytes currently held by storage.
func (m *CheckpointManager) MemoryUsage() int {
	return m.storage.Bytes()
}

// IsWithinBudget reports whether current usage fits the attached budget.
// Without a budget it always reports true.
func (m *CheckpointManager) IsWithinBudget() bool {
	if m.budget == nil {
		return true
	}
	return m.budget.IsWithinBudget(uint64(m.storage.Bytes()))
}

// IsMemoryWarning reports whether current usage has crossed the attached
// budget's warning threshold. Without a budget it always reports false.
func (m *CheckpointManager) IsMemoryWarning() bool {
	if m.budget == nil {
		return false
	}
	return m.budget.IsWarning(uint64(m.storage.Bytes()))
}

// RecommendedInterval returns the checkpoint spacing to use for nPaths paths
// with the given per-path state size. The attached budget's computed
// interval takes precedence; otherwise the spacing implied by the strategy's
// own estimate is used.
func (m *CheckpointManager) RecommendedInterval(nPaths, stateSizePerPath int) int {
	if m.budget != nil {
		return m.budget.RecommendedInterval(nPaths, m.totalSteps, stateSizePerPath)
	}
	estimated := m.strategy.EstimatedCheckpoints(m.totalSteps)
	if estimated <= 1 {
		if m.totalSteps < 1 {
			return 1
		}
		return m.totalSteps
	}
	interval := m.totalSteps / (estimated - 1)
	if interval < 1 {
		interval = 1
	}
	return interval
}
