// Package portfolio prices books of trades in parallel over shared-nothing
// workers. Each worker owns a complete pricer (stream, workspace, metrics);
// the only shared state is the read-mostly trade list, the indexed result
// slice, and the atomic MemoryMonitor. Per-trade seeds are derived from the
// master seed and the trade ID, so results are independent of worker count
// and scheduling order.
package portfolio

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	sim "github.com/pricing-sim/pricing-sim/sim"
)

// Trade is one position in the book.
type Trade struct {
	ID       string
	Params   sim.ModelParams
	Spec     sim.PayoffSpec
	Quantity float64 // signed position size; negative means short
}

// Config groups the shared pricing parameters applied to every trade.
type Config struct {
	Paths      int
	Steps      int
	MasterSeed uint64
	Workers    int // 0 means GOMAXPROCS
	GreeksMode sim.GreeksMode
	Bumps      sim.BumpConfig
}

// Validate rejects unusable configurations and resolves the Greeks mode once,
// before any worker starts.
func (c Config) Validate() error {
	if err := sim.NewSimulationConfig(c.Paths, c.Steps, c.MasterSeed).Validate(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers=%d, must be non-negative", sim.ErrInvalidConfig, c.Workers)
	}
	if _, err := c.GreeksMode.Resolve(); err != nil {
		return err
	}
	return c.Bumps.Validate()
}

// TradeResult is one trade's pricing outcome. Err is set when the trade
// failed; the remaining fields are then zero.
type TradeResult struct {
	TradeID  string
	Seed     uint64
	Quantity float64
	sim.GreeksResult
	PV  decimal.Decimal // quantity-weighted present value
	Err error
}

// Result is the priced book.
type Result struct {
	Trades  []TradeResult
	TotalPV decimal.Decimal
	Delta   float64 // quantity-weighted book delta
	Failed  int
}

// workspaceBytes estimates one worker's simulation memory: randoms, the
// path grid including the spot column, payoffs, and observer state.
func workspaceBytes(paths, steps int) int64 {
	perPath := int64(steps)*8 + int64(steps+1)*8 + 8 + sim.PerPathStateBytes
	return int64(paths) * perPath
}

// PriceAll prices every trade in the book. Trades are distributed over
// min(Workers, len(trades)) workers; each worker builds its own pricer from
// funcs and reseeds it per trade with DeriveSeed(MasterSeed, trade.ID).
// Results land at the trade's own index, so output order matches input order
// regardless of scheduling. A nil monitor disables memory accounting.
func PriceAll(cfg Config, funcs sim.EngineFuncs, trades []Trade, monitor *MemoryMonitor) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(trades) {
		workers = len(trades)
	}

	results := make([]TradeResult, len(trades))
	tasks := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := priceWorker(cfg, funcs, trades, tasks, results, monitor); err != nil {
				// Construction failures surface identically on every trade the
				// worker would have priced; record once per drained task.
				for idx := range tasks {
					results[idx] = TradeResult{TradeID: trades[idx].ID, Err: err}
				}
			}
		}()
	}

	for idx := range trades {
		tasks <- idx
	}
	close(tasks)
	wg.Wait()

	return aggregate(results), nil
}

// priceWorker owns one pricer for its whole lifetime and prices every task
// index it receives. Returns an error only when the pricer cannot be built.
func priceWorker(cfg Config, funcs sim.EngineFuncs, trades []Trade, tasks <-chan int, results []TradeResult, monitor *MemoryMonitor) error {
	pricer, err := sim.NewMonteCarloPricer(sim.NewSimulationConfig(cfg.Paths, cfg.Steps, cfg.MasterSeed), funcs)
	if err != nil {
		return err
	}

	held := workspaceBytes(cfg.Paths, cfg.Steps)
	if monitor != nil {
		total := monitor.Reserve(held)
		defer monitor.Release(held)
		if limit := monitor.SoftLimit(); limit > 0 && total > limit {
			logrus.Warnf("portfolio: simulation memory %d bytes exceeds advisory limit %d", total, limit)
		}
	}

	for idx := range tasks {
		results[idx] = priceTrade(pricer, cfg, trades[idx])
	}
	return nil
}

// priceTrade prices one trade under its derived seed.
func priceTrade(pricer *sim.MonteCarloPricer, cfg Config, trade Trade) TradeResult {
	seed := sim.DeriveSeed(cfg.MasterSeed, trade.ID)
	pricer.ResetWithSeed(seed)

	df := math.Exp(-trade.Params.Rate * trade.Params.Maturity)
	res, err := pricer.PriceWithGreeksBumped(trade.Params, trade.Spec, df, cfg.GreeksMode, cfg.Bumps)
	if err != nil {
		return TradeResult{TradeID: trade.ID, Seed: seed, Err: fmt.Errorf("trade %s: %w", trade.ID, err)}
	}

	pv := decimal.NewFromFloat(res.Price).Mul(decimal.NewFromFloat(trade.Quantity))
	logrus.Debugf("[trade %s] seed=%d price=%.6f delta=%.6f pv=%s",
		trade.ID, seed, res.Price, res.Greeks.Delta, pv.StringFixed(4))
	return TradeResult{
		TradeID:      trade.ID,
		Seed:         seed,
		Quantity:     trade.Quantity,
		GreeksResult: res,
		PV:           pv,
	}
}

// aggregate folds per-trade results into book totals. Present values are
// summed in decimal so the book PV does not accumulate binary round-off on
// top of Monte Carlo error.
func aggregate(results []TradeResult) Result {
	out := Result{Trades: results}
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			out.Failed++
			continue
		}
		out.TotalPV = out.TotalPV.Add(r.PV)
		out.Delta += r.Greeks.Delta * r.Quantity
	}
	return out
}
