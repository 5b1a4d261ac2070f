// Package sim provides the core Monte Carlo pricing and sensitivity engine.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - workspace.go: the reusable (capacity, logical size) buffer set
//   - pricer.go: orchestration, aggregation, and checkpointed stepping
//   - greeks.go: sensitivity mode resolution and dispatch
//
// # Architecture
//
// The sim package defines the engine and its collaborator contracts;
// implementations live in sub-packages:
//   - sim/model/: path generation (risk-neutral GBM step and path functions)
//   - sim/payoff/: payoff specs (vanilla, Asian, lookback) and evaluators
//   - sim/analytic/: closed-form Black-Scholes reference prices and Greeks
//   - sim/portfolio/: shared-nothing parallel pricing and the memory monitor
//
// # Key Contracts
//
// The extension points are small function types and interfaces:
//   - PathGenFunc: write simulated prices from the filled random buffer
//   - PayoffEvalFunc: write per-path payoffs from the path buffer
//   - StepFunc: advance one price by one time step (checkpointing, forward AD)
//   - PayoffSpec: scalar payoff used by forward-mode tangent propagation
//   - CheckpointStrategy: pure per-step snapshot decision rule
//
// Determinism is the load-bearing property throughout: a RandomStream seed
// plus a draw counter fully determine every downstream number, which is what
// makes checkpoint replay exact and common-random-number Greeks noise-free.
package sim
