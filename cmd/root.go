package cmd

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/pricing-sim/pricing-sim/sim"
	"github.com/pricing-sim/pricing-sim/sim/analytic"
	"github.com/pricing-sim/pricing-sim/sim/model"
	"github.com/pricing-sim/pricing-sim/sim/payoff"
	"github.com/pricing-sim/pricing-sim/sim/portfolio"
)

var (
	// CLI flags for the market and contract
	spot       float64 // Current underlying price
	strike     float64 // Option strike
	rate       float64 // Continuously compounded risk-free rate
	vol        float64 // Annualized volatility
	maturity   float64 // Time to expiry in years
	optionType string  // "call" or "put"
	payoffKind string  // "vanilla", "asian", "asian-geometric", "lookback"

	// CLI flags for the simulation
	seed       uint64 // Seed for random draw generation
	paths      int    // Number of Monte Carlo paths
	steps      int    // Number of time steps per path
	greeksMode string // Sensitivity mode (auto, fd, forward, reverse, reverse-strict)
	logLevel   string // Log verbosity level

	// CLI flags for checkpointing
	ckptStrategy string // Checkpoint strategy name
	ckptInterval int    // Uniform interval / logarithmic base interval
	ckptSlots    int    // Binomial memory slot cap
	ckptBudget   uint64 // Checkpoint memory budget in bytes

	// CLI flags for portfolio pricing
	scenarioPath string // Path to the yaml scenario file
	workers      int    // Worker count (0 = GOMAXPROCS)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "pricing-sim",
	Short: "Monte Carlo derivatives pricing and sensitivity engine",
}

// engineFuncs wires the GBM model and path-aware payoff evaluation into the
// pricer. Every command prices through this same assembly.
func engineFuncs() sim.EngineFuncs {
	return sim.EngineFuncs{
		PathGen: model.GeneratePaths,
		Payoff:  payoff.EvaluatePath,
		Step:    model.GBMStep,
	}
}

func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

func buildSpec() sim.PayoffSpec {
	t := payoff.Call
	if optionType == "put" {
		t = payoff.Put
	} else if optionType != "call" {
		logrus.Fatalf("Unknown option type %q (want call or put)", optionType)
	}

	switch payoffKind {
	case "vanilla":
		return payoff.Vanilla{Type: t, Strike: strike}
	case "asian":
		return payoff.Asian{Type: t, Strike: strike}
	case "asian-geometric":
		return payoff.Asian{Type: t, Strike: strike, Geometric: true}
	case "lookback":
		return payoff.Lookback{Type: t}
	default:
		logrus.Fatalf("Unknown payoff %q (want vanilla, asian, asian-geometric or lookback)", payoffKind)
		return nil
	}
}

// priceCmd prices a single option from CLI flags
var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Price a single option and compute its Greeks",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		mode, err := sim.ParseGreeksMode(greeksMode)
		if err != nil {
			logrus.Fatalf("Invalid greeks mode: %v", err)
		}
		spec := buildSpec()
		params := sim.ModelParams{Spot: spot, Rate: rate, Volatility: vol, Maturity: maturity}

		logrus.Infof("Starting pricing with paths=%d steps=%d seed=%d payoff=%s-%s mode=%s",
			paths, steps, seed, payoffKind, optionType, mode)

		startTime := time.Now()

		pricer, err := sim.NewMonteCarloPricer(sim.NewSimulationConfig(paths, steps, seed), engineFuncs())
		if err != nil {
			logrus.Fatalf("Could not build pricer: %v", err)
		}

		df := math.Exp(-rate * maturity)
		result, err := pricer.PriceWithGreeks(params, spec, df, mode)
		if err != nil {
			logrus.Fatalf("Pricing failed: %v", err)
		}

		if ckptStrategy != "none" {
			runCheckpointed(pricer, params)
		}

		fmt.Printf("price:  %.6f +/- %.6f (1 stderr)\n", result.Price, result.StdError)
		fmt.Printf("greeks: delta=%.6f gamma=%.6f vega=%.6f theta=%.6f rho=%.6f (mode=%s)\n",
			result.Greeks.Delta, result.Greeks.Gamma, result.Greeks.Vega,
			result.Greeks.Theta, result.Greeks.Rho, result.Mode)
		if payoffKind == "vanilla" {
			bs := analytic.CallPrice(spot, strike, rate, vol, maturity)
			if optionType == "put" {
				bs = analytic.PutPrice(spot, strike, rate, vol, maturity)
			}
			fmt.Printf("black-scholes reference: %.6f\n", bs)
		}
		pricer.Metrics.Print(time.Since(startTime))
	},
}

// runCheckpointed reruns the simulation under the configured checkpoint
// strategy and reports snapshot memory held, so strategies can be compared
// on a real workload.
func runCheckpointed(pricer *sim.MonteCarloPricer, params sim.ModelParams) {
	ckptCfg := sim.CheckpointConfig{
		Strategy:    ckptStrategy,
		Interval:    ckptInterval,
		MemorySlots: ckptSlots,
		BudgetBytes: ckptBudget,
	}
	mgr, err := ckptCfg.BuildManager(steps)
	if err != nil {
		logrus.Fatalf("Invalid checkpoint config: %v", err)
	}

	pricer.Reset()
	if _, err := pricer.SimulateCheckpointed(params, mgr); err != nil {
		logrus.Fatalf("Checkpointed simulation failed: %v", err)
	}
	fmt.Printf("checkpoints: strategy=%s saved=%d held=%d bytes\n",
		ckptStrategy, mgr.Len(), mgr.MemoryUsage())
	if ckptBudget > 0 && !mgr.IsWithinBudget() {
		logrus.Warnf("Checkpoint memory %d bytes exceeds budget %d", mgr.MemoryUsage(), ckptBudget)
	}
}

// portfolioCmd prices a yaml-defined book of trades in parallel
var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Price a yaml scenario of trades over parallel workers",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		if scenarioPath == "" {
			logrus.Fatalf("Scenario file not provided. Exiting.")
		}
		scenario, err := LoadScenario(scenarioPath)
		if err != nil {
			logrus.Fatalf("Could not load scenario: %v", err)
		}
		mode, err := sim.ParseGreeksMode(greeksMode)
		if err != nil {
			logrus.Fatalf("Invalid greeks mode: %v", err)
		}

		cfg := portfolio.Config{
			Paths:      scenario.Paths,
			Steps:      scenario.Steps,
			MasterSeed: scenario.Seed,
			Workers:    workers,
			GreeksMode: mode,
			Bumps:      sim.DefaultBumpConfig(),
		}
		trades, err := scenario.BuildTrades()
		if err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}
		monitor := portfolio.NewMemoryMonitor(scenario.SoftLimitBytes)

		logrus.Infof("Pricing %d trades with paths=%d steps=%d seed=%d workers=%d",
			len(trades), cfg.Paths, cfg.Steps, cfg.MasterSeed, workers)
		startTime := time.Now()

		book, err := portfolio.PriceAll(cfg, engineFuncs(), trades, monitor)
		if err != nil {
			logrus.Fatalf("Portfolio pricing failed: %v", err)
		}

		for _, r := range book.Trades {
			if r.Err != nil {
				fmt.Printf("%-12s FAILED: %v\n", r.TradeID, r.Err)
				continue
			}
			fmt.Printf("%-12s qty=%+.2f price=%.6f delta=%.6f pv=%s\n",
				r.TradeID, r.Quantity, r.Price, r.Greeks.Delta, r.PV.StringFixed(4))
		}
		fmt.Printf("book: pv=%s delta=%.6f failed=%d elapsed=%s peak_mem=%d bytes\n",
			book.TotalPV.StringFixed(4), book.Delta, book.Failed,
			time.Since(startTime).Round(time.Millisecond), monitor.Peak())
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {

	priceCmd.Flags().Float64Var(&spot, "spot", 100.0, "Current underlying price")
	priceCmd.Flags().Float64Var(&strike, "strike", 100.0, "Option strike")
	priceCmd.Flags().Float64Var(&rate, "rate", 0.05, "Continuously compounded risk-free rate")
	priceCmd.Flags().Float64Var(&vol, "vol", 0.2, "Annualized volatility")
	priceCmd.Flags().Float64Var(&maturity, "maturity", 1.0, "Time to expiry in years")
	priceCmd.Flags().StringVar(&optionType, "type", "call", "Option type (call, put)")
	priceCmd.Flags().StringVar(&payoffKind, "payoff", "vanilla", "Payoff (vanilla, asian, asian-geometric, lookback)")

	priceCmd.Flags().Uint64Var(&seed, "seed", 42, "Seed for random draw generation")
	priceCmd.Flags().IntVar(&paths, "paths", 10000, "Number of Monte Carlo paths")
	priceCmd.Flags().IntVar(&steps, "steps", 50, "Number of time steps per path")
	priceCmd.Flags().StringVar(&greeksMode, "greeks-mode", "auto", "Greeks mode (auto, fd, forward, reverse, reverse-strict)")
	priceCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Checkpointing configs
	priceCmd.Flags().StringVar(&ckptStrategy, "checkpoint-strategy", "none", "Checkpoint strategy (none, uniform, logarithmic, adaptive, binomial)")
	priceCmd.Flags().IntVar(&ckptInterval, "checkpoint-interval", 10, "Uniform interval / logarithmic base interval")
	priceCmd.Flags().IntVar(&ckptSlots, "checkpoint-slots", 0, "Binomial memory slot cap (0 = uncapped)")
	priceCmd.Flags().Uint64Var(&ckptBudget, "checkpoint-budget-bytes", 0, "Checkpoint memory budget in bytes (0 = no budget)")

	portfolioCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to the yaml scenario file")
	portfolioCmd.Flags().IntVar(&workers, "workers", 0, "Worker count (0 = GOMAXPROCS)")
	portfolioCmd.Flags().StringVar(&greeksMode, "greeks-mode", "auto", "Greeks mode (auto, fd, forward, reverse, reverse-strict)")
	portfolioCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Attach subcommands to `root`
	rootCmd.AddCommand(priceCmd)
	rootCmd.AddCommand(portfolioCmd)
}
