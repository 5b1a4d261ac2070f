package sim

import (
	"testing"
)

// TestWorkspace_EnsureCapacitySetsLogicalSize verifies a grown workspace
// reports the requested logical shape.
func TestWorkspace_EnsureCapacitySetsLogicalSize(t *testing.T) {
	ws := NewSimulationWorkspace()
	ws.EnsureCapacity(100, 50)

	if ws.Paths() != 100 || ws.Steps() != 50 {
		t.Errorf("expected logical shape 100x50, got %dx%d", ws.Paths(), ws.Steps())
	}
	if len(ws.RandomRow(0)) != 50 {
		t.Errorf("expected random row length 50, got %d", len(ws.RandomRow(0)))
	}
	if len(ws.PathRow(0)) != 51 {
		t.Errorf("expected path row length 51, got %d", len(ws.PathRow(0)))
	}
	if len(ws.Payoffs()) != 100 {
		t.Errorf("expected payoff vector length 100, got %d", len(ws.Payoffs()))
	}
}

// TestWorkspace_GrowNeverShrink verifies shrinking the logical size leaves
// capacity untouched.
func TestWorkspace_GrowNeverShrink(t *testing.T) {
	ws := NewSimulationWorkspace()
	ws.EnsureCapacity(1000, 100)
	capPaths, capSteps := ws.CapacityPaths(), ws.CapacitySteps()

	ws.EnsureCapacity(10, 10)
	if ws.CapacityPaths() != capPaths || ws.CapacitySteps() != capSteps {
		t.Errorf("capacity shrank: %dx%d -> %dx%d",
			capPaths, capSteps, ws.CapacityPaths(), ws.CapacitySteps())
	}
	if ws.Paths() != 10 || ws.Steps() != 10 {
		t.Errorf("expected logical shape 10x10, got %dx%d", ws.Paths(), ws.Steps())
	}
}

// TestWorkspace_AmortizedDoubling verifies growth goes to
// max(requested, 2*old) per dimension.
func TestWorkspace_AmortizedDoubling(t *testing.T) {
	ws := NewSimulationWorkspace()
	ws.EnsureCapacity(100, 10)

	// Small overflow doubles.
	ws.EnsureCapacity(101, 10)
	if ws.CapacityPaths() != 200 {
		t.Errorf("expected path capacity 200 after doubling, got %d", ws.CapacityPaths())
	}

	// A request beyond double lands exactly on the request.
	ws.EnsureCapacity(1000, 10)
	if ws.CapacityPaths() != 1000 {
		t.Errorf("expected path capacity 1000, got %d", ws.CapacityPaths())
	}
}

// TestWorkspace_NonPositiveShapePanics verifies the programmer-error contract.
func TestWorkspace_NonPositiveShapePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for non-positive shape")
		}
	}()
	NewSimulationWorkspace().EnsureCapacity(0, 10)
}

// TestWorkspace_OutOfRangeAccessPanics verifies logical-bounds enforcement on
// the accessors.
func TestWorkspace_OutOfRangeAccessPanics(t *testing.T) {
	ws := NewSimulationWorkspace()
	ws.EnsureCapacity(4, 8)

	assertPanics := func(name string, fn func()) {
		defer func() {
			if recover() == nil {
				t.Errorf("%s: expected panic", name)
			}
		}()
		fn()
	}

	assertPanics("path beyond logical count", func() { ws.RandomRow(4) })
	assertPanics("negative path", func() { ws.PathRow(-1) })
	assertPanics("step beyond logical count", func() { ws.PriceAt(0, 9) })
	assertPanics("negative step", func() { ws.SetPrice(0, -1, 1.0) })
}

// TestWorkspace_RowsAreDisjoint verifies writes to one path's row never
// bleed into a neighbor, including when capacity exceeds logical size.
func TestWorkspace_RowsAreDisjoint(t *testing.T) {
	ws := NewSimulationWorkspace()
	ws.EnsureCapacity(8, 16)
	ws.EnsureCapacity(3, 5) // logical shape smaller than capacity

	for p := 0; p < 3; p++ {
		row := ws.RandomRow(p)
		for i := range row {
			row[i] = float64(p*100 + i)
		}
	}
	for p := 0; p < 3; p++ {
		for i, v := range ws.RandomRow(p) {
			if v != float64(p*100+i) {
				t.Fatalf("path %d slot %d corrupted: got %v", p, i, v)
			}
		}
	}
}

// TestWorkspace_PriceRoundTrip verifies PriceAt reads back SetPrice writes,
// including the step-0 initial price slot.
func TestWorkspace_PriceRoundTrip(t *testing.T) {
	ws := NewSimulationWorkspace()
	ws.EnsureCapacity(2, 3)

	ws.SetPrice(1, 0, 100.0)
	ws.SetPrice(1, 3, 117.5)
	if ws.PriceAt(1, 0) != 100.0 || ws.PriceAt(1, 3) != 117.5 {
		t.Errorf("price round trip failed: got %v and %v", ws.PriceAt(1, 0), ws.PriceAt(1, 3))
	}
}

// TestWorkspace_ClearAll verifies logical contents and observers are wiped
// and the logical size zeroed.
func TestWorkspace_ClearAll(t *testing.T) {
	ws := NewSimulationWorkspace()
	ws.EnsureCapacity(2, 4)
	ws.RandomRow(0)[0] = 3.14
	ws.SetPrice(0, 1, 99)
	ws.SetPayoff(0, 7)
	ws.Observer(0).Observe(100)

	ws.ClearAll()
	if ws.Paths() != 0 || ws.Steps() != 0 {
		t.Fatalf("expected zero logical size, got %dx%d", ws.Paths(), ws.Steps())
	}

	// Re-acquire the same shape: contents must be zero.
	ws.EnsureCapacity(2, 4)
	if ws.RandomRow(0)[0] != 0 || ws.PriceAt(0, 1) != 0 || ws.Payoffs()[0] != 0 {
		t.Error("ClearAll left stale contents behind")
	}
	if ws.Observer(0).Count() != 0 {
		t.Error("ClearAll left a live observer behind")
	}
}

// TestWorkspace_ResetKeepsContents verifies Reset only zeroes the logical
// size, so same-shape reuse sees prior capacity without reallocation.
func TestWorkspace_ResetKeepsContents(t *testing.T) {
	ws := NewSimulationWorkspace()
	ws.EnsureCapacity(4, 4)
	capPaths := ws.CapacityPaths()

	ws.Reset()
	if ws.Paths() != 0 {
		t.Errorf("expected zero logical paths after Reset, got %d", ws.Paths())
	}
	ws.EnsureCapacity(4, 4)
	if ws.CapacityPaths() != capPaths {
		t.Error("Reset should not force reallocation on same-shape reuse")
	}
}
