package sim

import "fmt"

// SimulationWorkspace is the reusable buffer set for one pricer: random
// draws, simulated price paths, per-path payoffs, and per-path streaming
// observers. Buffers are flat and row-major by path.
//
// Each dimension carries an explicit (capacity, logical size) pair. Growth
// uses amortized doubling and never shrinks; accessors expose only the
// logical-size prefix, so stale bytes beyond logical size are never observed.
// This is what makes repeated pricing calls with similar-but-not-identical
// path counts allocation-free in the steady state.
type SimulationWorkspace struct {
	capPaths int
	capSteps int
	nPaths   int
	nSteps   int

	randoms   []float64      // capPaths x capSteps
	paths     []float64      // capPaths x (capSteps+1); column 0 holds the initial price
	payoffs   []float64      // capPaths
	observers []PathObserver // capPaths
}

// NewSimulationWorkspace creates an empty workspace with no capacity.
func NewSimulationWorkspace() *SimulationWorkspace {
	return &SimulationWorkspace{}
}

// EnsureCapacity grows backing storage so the workspace can hold nPaths
// paths of nSteps steps, then sets the logical size to exactly those values.
// Growth applies new_capacity = max(requested, 2*old_capacity) independently
// per dimension and never shrinks.
//
// Growing either dimension reallocates the flat buffers (the row stride is
// the steps capacity), which invalidates both previously returned views and
// previously written contents. Callers must re-acquire views and refill
// buffers after any call that grows capacity.
func (w *SimulationWorkspace) EnsureCapacity(nPaths, nSteps int) {
	if nPaths <= 0 || nSteps <= 0 {
		panic(fmt.Sprintf("EnsureCapacity: nPaths=%d nSteps=%d, both must be positive", nPaths, nSteps))
	}

	newCapPaths := grownCapacity(nPaths, w.capPaths)
	newCapSteps := grownCapacity(nSteps, w.capSteps)

	if newCapPaths != w.capPaths || newCapSteps != w.capSteps {
		w.capPaths = newCapPaths
		w.capSteps = newCapSteps
		w.randoms = make([]float64, newCapPaths*newCapSteps)
		w.paths = make([]float64, newCapPaths*(newCapSteps+1))
		w.payoffs = make([]float64, newCapPaths)
		w.observers = make([]PathObserver, newCapPaths)
	}

	w.nPaths = nPaths
	w.nSteps = nSteps
}

func grownCapacity(requested, old int) int {
	if requested <= old {
		return old
	}
	if doubled := 2 * old; doubled > requested {
		return doubled
	}
	return requested
}

// Reset zeroes the logical size without touching buffer contents or
// observers. Cheap; intended for immediate reuse within the same run shape.
func (w *SimulationWorkspace) Reset() {
	w.nPaths = 0
	w.nSteps = 0
}

// ClearAll zeroes all buffer contents within the current logical bounds,
// resets every observer in the logical prefix, and then zeroes the logical
// size. Used when switching to an unrelated simulation so no stale state
// leaks across runs.
func (w *SimulationWorkspace) ClearAll() {
	for p := 0; p < w.nPaths; p++ {
		randoms := w.randoms[p*w.capSteps : p*w.capSteps+w.nSteps]
		for i := range randoms {
			randoms[i] = 0
		}
		prices := w.paths[p*(w.capSteps+1) : p*(w.capSteps+1)+w.nSteps+1]
		for i := range prices {
			prices[i] = 0
		}
		w.payoffs[p] = 0
		w.observers[p].Reset()
	}
	w.Reset()
}

// Paths returns the logical path count.
func (w *SimulationWorkspace) Paths() int { return w.nPaths }

// Steps returns the logical step count.
func (w *SimulationWorkspace) Steps() int { return w.nSteps }

// CapacityPaths returns the allocated path capacity.
func (w *SimulationWorkspace) CapacityPaths() int { return w.capPaths }

// CapacitySteps returns the allocated step capacity.
func (w *SimulationWorkspace) CapacitySteps() int { return w.capSteps }

// RandomRow returns the random-draw row for one path, length Steps().
// The view is valid until the next EnsureCapacity call that grows capacity.
func (w *SimulationWorkspace) RandomRow(path int) []float64 {
	w.checkPath(path)
	start := path * w.capSteps
	return w.randoms[start : start+w.nSteps]
}

// PathRow returns the simulated price row for one path, length Steps()+1.
// Slot 0 holds the initial price.
func (w *SimulationWorkspace) PathRow(path int) []float64 {
	w.checkPath(path)
	start := path * (w.capSteps + 1)
	return w.paths[start : start+w.nSteps+1]
}

// Payoffs returns the per-path payoff vector, length Paths().
func (w *SimulationWorkspace) Payoffs() []float64 {
	return w.payoffs[:w.nPaths]
}

// SetPayoff records one path's payoff.
func (w *SimulationWorkspace) SetPayoff(path int, value float64) {
	w.checkPath(path)
	w.payoffs[path] = value
}

// PriceAt reads the simulated price at (path, step). Step 0 is the initial price.
func (w *SimulationWorkspace) PriceAt(path, step int) float64 {
	w.checkPath(path)
	w.checkPriceStep(step)
	return w.paths[path*(w.capSteps+1)+step]
}

// SetPrice writes the simulated price at (path, step).
func (w *SimulationWorkspace) SetPrice(path, step int, value float64) {
	w.checkPath(path)
	w.checkPriceStep(step)
	w.paths[path*(w.capSteps+1)+step] = value
}

// Observer returns the streaming observer for one path.
func (w *SimulationWorkspace) Observer(path int) *PathObserver {
	w.checkPath(path)
	return &w.observers[path]
}

// Out-of-bounds logical access is a caller contract violation, not malformed
// market data, so it panics rather than returning an error.
func (w *SimulationWorkspace) checkPath(path int) {
	if path < 0 || path >= w.nPaths {
		panic(fmt.Sprintf("workspace: path %d out of logical range [0,%d)", path, w.nPaths))
	}
}

func (w *SimulationWorkspace) checkPriceStep(step int) {
	if step < 0 || step > w.nSteps {
		panic(fmt.Sprintf("workspace: step %d out of logical range [0,%d]", step, w.nSteps))
	}
}
