package portfolio

import "sync/atomic"

// MemoryMonitor is the one piece of cross-worker shared state: an
// atomically updated aggregate of simulation memory in use, passed by
// reference to workers rather than hidden in process-wide globals. Workers
// consult it read-only, as advice, to decide whether to enable checkpointing
// for a workload size; nothing in the engine hard-aborts on overrun.
type MemoryMonitor struct {
	current   atomic.Int64
	peak      atomic.Int64
	softLimit int64
}

// NewMemoryMonitor creates a monitor with an advisory soft limit in bytes.
// A zero soft limit disables the advisory threshold.
func NewMemoryMonitor(softLimit int64) *MemoryMonitor {
	return &MemoryMonitor{softLimit: softLimit}
}

// Reserve records n bytes entering use and returns the new total. The peak
// is tracked with a compare-and-swap retry loop rather than a lock.
func (m *MemoryMonitor) Reserve(n int64) int64 {
	cur := m.current.Add(n)
	for {
		peak := m.peak.Load()
		if cur <= peak || m.peak.CompareAndSwap(peak, cur) {
			return cur
		}
	}
}

// Release records n bytes leaving use.
func (m *MemoryMonitor) Release(n int64) {
	m.current.Add(-n)
}

// Current returns the bytes currently in use across workers.
func (m *MemoryMonitor) Current() int64 { return m.current.Load() }

// Peak returns the largest concurrent usage observed.
func (m *MemoryMonitor) Peak() int64 { return m.peak.Load() }

// SoftLimit returns the advisory threshold, 0 when disabled.
func (m *MemoryMonitor) SoftLimit() int64 { return m.softLimit }

// AdviseCheckpointing reports whether a workload of the given byte size
// should run with checkpointing enabled: either the workload is large in
// its own right against the soft limit, or aggregate usage is already
// crowding it. Purely advisory.
func (m *MemoryMonitor) AdviseCheckpointing(workloadBytes int64) bool {
	if m.softLimit <= 0 {
		return false
	}
	return workloadBytes >= m.softLimit/4 || m.current.Load()+workloadBytes >= m.softLimit
}
