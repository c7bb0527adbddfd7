package cmd

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/buffet-sim/buffet-sim/sim/network"
	"github.com/buffet-sim/buffet-sim/sim/trace"
)

var (
	// CLI flags for the run configuration
	configPath     string    // Optional YAML run file
	seed           int64     // Seed for every random draw
	horizon        float64   // Total simulation time (virtual units)
	numCustomers   int       // Number of customers generated
	arrivalRate    float64   // Customers arriving per time unit
	arrivalProcess string    // Inter-arrival process
	arrivalCV      float64   // CV for gamma/weibull arrivals
	serviceTimes   []float64 // Mean service time per server (12)
	serviceDist    string    // Distribution applied to serviceTimes
	capacities     []int     // Capacity per queue (6)
	stallWeights   []float64 // payment,order,other-stall weights
	discipline     string    // parallel or alternating
	logLevel       string    // Log verbosity level

	// CLI flags for reporting
	printHistory bool   // Print every customer's logs
	traceLevel   string // none or decisions
	traceOut     string // Export path for the event log
	traceFormat  string // csv or sqlite
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "buffet-sim",
	Short: "Discrete-event simulator for a multi-stage buffet restaurant",
}

// runCmd executes the simulation using parameters from the run file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the buffet simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg, err := buildRunConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		var writer trace.Writer
		if traceOut != "" || cmd.Flags().Changed("trace-format") {
			if writer, err = trace.NewWriter(traceFormat, traceOut); err != nil {
				logrus.Fatalf("Cannot create trace writer: %v", err)
			}
			// export routing decisions too unless explicitly disabled
			if !cmd.Flags().Changed("trace-level") && cfg.TraceLevel == trace.TraceLevelNone {
				cfg.TraceLevel = trace.TraceLevelDecisions
			}
		}

		startTime := time.Now()
		res, err := network.Run(cfg)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Infof("Wall-clock time: %v", time.Since(startTime))

		out := cmd.OutOrStdout()
		if printHistory {
			PrintHistory(out, res.Customers)
		}
		PrintMetrics(out, res)

		if writer != nil {
			runID := trace.NewRunID()
			if err := ExportTrace(writer, runID, res); err != nil {
				logrus.Fatalf("Trace export failed: %v", err)
			}
			if err := writer.Close(); err != nil {
				logrus.Fatalf("Closing trace writer: %v", err)
			}
			logrus.Infof("Run %s exported", runID)
		}
		logrus.Info("Simulation complete.")
	},
}

// buildRunConfig layers defaults, the optional run file and explicitly set
// flags, in that order, then validates the result.
func buildRunConfig(cmd *cobra.Command) (network.RunConfig, error) {
	cfg := network.DefaultRunConfig()
	if configPath != "" {
		rf, err := loadRunFile(configPath)
		if err != nil {
			return cfg, err
		}
		rf.apply(&cfg)
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("horizon") {
		cfg.Horizon = horizon
	}
	if flags.Changed("customers") {
		cfg.NumCustomers = numCustomers
	}
	if flags.Changed("arrival-rate") {
		cfg.ArrivalRate = arrivalRate
	}
	if flags.Changed("arrival-process") {
		cfg.Arrival.Process = arrivalProcess
	}
	if flags.Changed("arrival-cv") {
		cv := arrivalCV
		cfg.Arrival.CV = &cv
	}
	if flags.Changed("service-times") || flags.Changed("service-dist") {
		means := serviceTimes
		if !flags.Changed("service-times") {
			var err error
			if means, err = specMeans(cfg.ServiceTimes); err != nil {
				return cfg, fmt.Errorf("%w: --service-dist: %v", network.ErrInvalidConfig, err)
			}
		}
		cfg.ServiceTimes = serviceSpecs(serviceDist, means)
	}
	if flags.Changed("capacities") {
		cfg.QueueCapacities = capacities
	}
	if flags.Changed("stall-weights") {
		if len(stallWeights) != 3 {
			return cfg, fmt.Errorf("%w: --stall-weights needs 3 values, got %d", network.ErrInvalidConfig, len(stallWeights))
		}
		cfg.StallWeights = network.StallWeights{Payment: stallWeights[0], Order: stallWeights[1], OtherStall: stallWeights[2]}
	}
	if flags.Changed("discipline") {
		cfg.Discipline = network.Discipline(discipline)
	}
	if flags.Changed("trace-level") {
		cfg.TraceLevel = trace.TraceLevel(traceLevel)
	}

	return cfg, cfg.Validate()
}

// Execute runs the CLI root command
func Execute() {
	// logrus.Fatal must still flush trace writers registered with atexit
	logrus.StandardLogger().ExitFunc = atexit.Exit
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// init sets up CLI flags and subcommands
func init() {
	def := network.DefaultRunConfig()
	defMeans := make([]float64, len(def.ServiceTimes))
	for i, spec := range def.ServiceTimes {
		defMeans[i] = spec.Params["mean"]
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "YAML run configuration file")
	runCmd.Flags().Int64Var(&seed, "seed", def.Seed, "Seed for all random draws")
	runCmd.Flags().Float64Var(&horizon, "horizon", def.Horizon, "Total simulation horizon (virtual time units)")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Arrivals
	runCmd.Flags().IntVar(&numCustomers, "customers", def.NumCustomers, "Number of customers to generate")
	runCmd.Flags().Float64Var(&arrivalRate, "arrival-rate", def.ArrivalRate, "Customers arriving per time unit")
	runCmd.Flags().StringVar(&arrivalProcess, "arrival-process", def.Arrival.Process, "Inter-arrival process (poisson, gamma, weibull, constant)")
	runCmd.Flags().Float64Var(&arrivalCV, "arrival-cv", 1.0, "Coefficient of variation for gamma/weibull arrivals")

	// Stations
	runCmd.Flags().Float64SliceVar(&serviceTimes, "service-times", defMeans, "Mean service time per server: 1 waiting, 4 order, 6 stall, 1 payment")
	runCmd.Flags().StringVar(&serviceDist, "service-dist", "constant", "Distribution of every service time given by --service-times (constant, exponential)")
	runCmd.Flags().IntSliceVar(&capacities, "capacities", def.QueueCapacities, "Queue capacities: 1 waiting, 2 order, 3 stall (the payment queue shares the last)")
	runCmd.Flags().Float64SliceVar(&stallWeights, "stall-weights", []float64{def.StallWeights.Payment, def.StallWeights.Order, def.StallWeights.OtherStall},
		"Weights for leaving a stall to payment, an order queue, another stall")
	runCmd.Flags().StringVar(&discipline, "discipline", string(def.Discipline), "Stage service discipline (parallel, alternating)")

	// Reporting
	runCmd.Flags().BoolVar(&printHistory, "history", true, "Print every customer's history")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", string(trace.TraceLevelNone), "Routing decision tracing (none, decisions)")
	runCmd.Flags().StringVar(&traceOut, "trace-out", "", "Export customer event logs to this file")
	runCmd.Flags().StringVar(&traceFormat, "trace-format", "csv", "Export format (csv, sqlite)")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
