// Tracks engine-wide counters across pricing and replay calls.

package sim

import (
	"fmt"
	"time"
)

// Metrics aggregates statistics about a pricer's activity for final
// reporting. Useful for judging recompute cost of a checkpoint strategy
// and for debugging buffer reuse behavior over repeated calls.
type Metrics struct {
	Pricings         int    // Number of completed pricing calls
	PathsSimulated   int64  // Total paths simulated across calls
	DrawsConsumed    uint64 // Total random draws consumed
	CheckpointsSaved int    // Snapshots handed to the checkpoint manager
	Replays          int    // Reverse-pass replay requests served
	RecomputedSteps  int64  // Forward steps recomputed during replays
}

// Print displays the aggregated counters.
func (m *Metrics) Print(elapsed time.Duration) {
	fmt.Println("=== Pricing Engine Metrics ===")
	fmt.Printf("Wall clock           : %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Pricing calls        : %d\n", m.Pricings)
	fmt.Printf("Paths simulated      : %d\n", m.PathsSimulated)
	fmt.Printf("Random draws         : %d\n", m.DrawsConsumed)
	fmt.Printf("Checkpoints saved    : %d\n", m.CheckpointsSaved)
	if m.Replays > 0 {
		fmt.Printf("Replays served       : %d\n", m.Replays)
		fmt.Printf("Steps recomputed     : %d (%.1f per replay)\n",
			m.RecomputedSteps, float64(m.RecomputedSteps)/float64(m.Replays))
	}
}
