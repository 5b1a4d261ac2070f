package sim

import (
	"errors"
	"testing"
)

func newCheckpointedPricer(t *testing.T, paths, steps int, seed uint64) *MonteCarloPricer {
	t.Helper()
	p, err := NewMonteCarloPricer(NewSimulationConfig(paths, steps, seed), gbmFuncs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

// TestSimulateCheckpointed_SavesExpectedSteps verifies the uniform-25 layout
// over a 100-step run and the final-state bookkeeping.
func TestSimulateCheckpointed_SavesExpectedSteps(t *testing.T) {
	p := newCheckpointedPricer(t, 50, 100, 42)
	mgr := NewCheckpointManager(NewUniformStrategy(25), 100)

	final, err := p.SimulateCheckpointed(testParams, mgr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mgr.Len() != 5 {
		t.Errorf("expected 5 checkpoints {0,25,50,75,100}, got %d", mgr.Len())
	}
	for _, step := range []int{0, 25, 50, 75, 100} {
		if _, err := mgr.RestoreState(step); err != nil {
			t.Errorf("expected checkpoint at step %d: %v", step, err)
		}
	}

	if final.Step != 100 {
		t.Errorf("expected final state at step 100, got %d", final.Step)
	}
	if final.DrawCount != 100*50 {
		t.Errorf("expected %d draws recorded, got %d", 100*50, final.DrawCount)
	}
	if len(final.Prices) != 50 || len(final.Observers) != 50 {
		t.Errorf("expected per-path payload of 50, got %d prices, %d observers",
			len(final.Prices), len(final.Observers))
	}
}

// TestSimulateCheckpointed_ObserversCoverEveryStep verifies each path's
// observer saw the initial price plus one sample per step.
func TestSimulateCheckpointed_ObserversCoverEveryStep(t *testing.T) {
	p := newCheckpointedPricer(t, 10, 40, 7)
	mgr := NewCheckpointManager(NoneStrategy{}, 40)

	final, err := p.SimulateCheckpointed(testParams, mgr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for path, obs := range final.Observers {
		if obs.Count != 41 {
			t.Errorf("path %d: expected 41 observations, got %d", path, obs.Count)
		}
		if obs.Min > testParams.Spot || obs.Max < testParams.Spot {
			t.Errorf("path %d: extremes %v..%v must bracket the spot", path, obs.Min, obs.Max)
		}
	}
}

// TestSimulateCheckpointed_RequiresStepFunc verifies the missing-step-function
// contract error.
func TestSimulateCheckpointed_RequiresStepFunc(t *testing.T) {
	p, err := NewMonteCarloPricer(NewSimulationConfig(10, 10, 1),
		EngineFuncs{PathGen: gbmPathGen, Payoff: terminalPayoffEval})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mgr := NewCheckpointManager(NewUniformStrategy(5), 10)
	if _, err := p.SimulateCheckpointed(testParams, mgr); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

// TestReplayToStep_MatchesUninterruptedForward verifies the core replay
// equivalence: a state reconstructed from a sparse checkpoint plus
// recomputation is bit-identical to the state a dense forward pass held at
// that step.
func TestReplayToStep_MatchesUninterruptedForward(t *testing.T) {
	const paths, steps = 50, 100
	const seed = 42

	// Dense run: checkpoint at every step so intermediate states are exact
	// forward-pass artifacts.
	dense := newCheckpointedPricer(t, paths, steps, seed)
	denseMgr := NewCheckpointManager(NewUniformStrategy(1), steps)
	if _, err := dense.SimulateCheckpointed(testParams, denseMgr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Sparse run: same seed, checkpoints only every 25 steps.
	sparse := newCheckpointedPricer(t, paths, steps, seed)
	sparseMgr := NewCheckpointManager(NewUniformStrategy(25), steps)
	if _, err := sparse.SimulateCheckpointed(testParams, sparseMgr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, target := range []int{0, 13, 25, 60, 99, 100} {
		want, err := denseMgr.RestoreState(target)
		if err != nil {
			t.Fatalf("target %d: %v", target, err)
		}
		got, err := sparse.ReplayToStep(testParams, sparseMgr, target)
		if err != nil {
			t.Fatalf("target %d: %v", target, err)
		}

		if got.Step != want.Step || got.Seed != want.Seed || got.DrawCount != want.DrawCount {
			t.Fatalf("target %d: header differs: got step=%d seed=%d draws=%d, want step=%d seed=%d draws=%d",
				target, got.Step, got.Seed, got.DrawCount, want.Step, want.Seed, want.DrawCount)
		}
		for path := 0; path < paths; path++ {
			if got.Prices[path] != want.Prices[path] {
				t.Fatalf("target %d path %d: price %v differs from forward pass %v",
					target, path, got.Prices[path], want.Prices[path])
			}
			if got.Observers[path] != want.Observers[path] {
				t.Fatalf("target %d path %d: observer state differs", target, path)
			}
		}
	}

	if sparse.Metrics.Replays != 6 {
		t.Errorf("expected 6 replays recorded, got %d", sparse.Metrics.Replays)
	}
}

// TestReplayToStep_RecomputeCostIsBounded verifies a replay recomputes at
// most one checkpoint interval of steps.
func TestReplayToStep_RecomputeCostIsBounded(t *testing.T) {
	p := newCheckpointedPricer(t, 20, 100, 9)
	mgr := NewCheckpointManager(NewUniformStrategy(25), 100)
	if _, err := p.SimulateCheckpointed(testParams, mgr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	before := p.Metrics.RecomputedSteps
	if _, err := p.ReplayToStep(testParams, mgr, 99); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recomputed := p.Metrics.RecomputedSteps - before; recomputed != 24 {
		t.Errorf("replay to 99 from checkpoint 75 should recompute 24 steps, got %d", recomputed)
	}
}

// TestReplayToStep_NoCheckpointAvailable verifies ErrNotFound when the store
// holds nothing at or before the target.
func TestReplayToStep_NoCheckpointAvailable(t *testing.T) {
	p := newCheckpointedPricer(t, 10, 50, 3)
	mgr := NewCheckpointManager(NoneStrategy{}, 50)
	if _, err := p.SimulateCheckpointed(testParams, mgr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := p.ReplayToStep(testParams, mgr, 30); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestReplayToStep_TargetOutOfRange verifies range validation.
func TestReplayToStep_TargetOutOfRange(t *testing.T) {
	p := newCheckpointedPricer(t, 10, 50, 3)
	mgr := NewCheckpointManager(NewUniformStrategy(10), 50)
	if _, err := p.SimulateCheckpointed(testParams, mgr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, target := range []int{-1, 51} {
		if _, err := p.ReplayToStep(testParams, mgr, target); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("target %d: expected ErrInvalidConfig, got %v", target, err)
		}
	}
}
