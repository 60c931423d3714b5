package main

import (
	"fmt"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/episim/internal/automation"
	"github.com/san-kum/episim/internal/epidemic"
	"github.com/san-kum/episim/internal/experiment"
	"github.com/san-kum/episim/internal/observability"
	"github.com/san-kum/episim/internal/storage"
)

var (
	sweepMin     float64
	sweepMax     float64
	sweepSteps   int
	runsPerValue int
	seedStart    int64
	parallel     int
	ensembleRuns int
	saveScenario bool
	benchSizes   []int
	benchTicks   int
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep [param]",
		Short: "sweep one parameter and report averaged metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	cmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	cmd.Flags().Float64Var(&sweepMax, "max", 1, "last value")
	cmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	cmd.Flags().IntVar(&runsPerValue, "runs", 3, "seeded runs per value")
	cmd.Flags().Int64Var(&seedStart, "seed-start", 1, "seed of the first run per value")
	cmd.Flags().IntVar(&parallel, "parallel", runtime.NumCPU(), "concurrent runs")
	return cmd
}

func runSweep(cmd *cobra.Command, args []string) error {
	sw := &automation.ParameterSweep{
		ParamName:    args[0],
		ParamMin:     sweepMin,
		ParamMax:     sweepMax,
		NumSteps:     sweepSteps,
		RunsPerValue: runsPerValue,
		SeedStart:    seedStart,
		Workers:      parallel,
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	results, err := automation.RunSweep(ctx, sw, cfg, experiment.NewRegistry(), observability.GetLogger())
	if err != nil {
		return err
	}
	summary := automation.Summarize(results)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d runs in %v\n\n", len(results), time.Since(start).Round(time.Millisecond))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tPEAK I%%\tTIME TO PEAK\tATTACK%%\tDURATION\n", args[0])
	for _, s := range summary {
		fmt.Fprintf(w, "%g\t%.1f\t%.1fs\t%.1f\t%.1fs\n",
			s.ParamValue,
			s.Mean["peak_infected"],
			s.Mean["time_to_peak"],
			s.Mean["attack_rate"],
			s.Mean["epidemic_duration"],
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	lo, hi := automation.MetricRange(summary, "attack_rate")
	fmt.Fprintf(out, "\nattack rate spans %.1f%% .. %.1f%%\n", lo, hi)
	return nil
}

func newEnsembleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run independent seeded simulations in parallel",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	cmd.Flags().IntVar(&ensembleRuns, "runs", 8, "number of simulations")
	cmd.Flags().Int64Var(&seedStart, "seed-start", 1, "seed of the first simulation")
	cmd.Flags().IntVar(&parallel, "parallel", runtime.NumCPU(), "concurrent simulations")
	return cmd
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	ens := epidemic.NewEnsemble(cfg.Params(), ensembleRuns, seedStart)
	ens.SetLimit(parallel)
	steps := experiment.Config{Dt: cfg.Run.Dt, Duration: cfg.Run.Duration}.Steps()

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	histories, err := ens.Run(ctx, cfg.Run.Dt, steps)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tPEAK I%\tAT\tFINAL S%\tFINAL R%")
	var meanPeak float64
	for i, h := range histories {
		peak, at := 0.0, 0.0
		for j, v := range h.Infected {
			if v > peak {
				peak, at = v, h.Times[j]
			}
		}
		meanPeak += peak
		last := h.Len() - 1
		fmt.Fprintf(w, "%d\t%.1f\t%.1fs\t%.1f\t%.1f\n",
			seedStart+int64(i), peak, at, h.Susceptible[last], h.Recovered[last])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(histories) > 0 {
		meanPeak /= float64(len(histories))
	}
	fmt.Fprintf(out, "\nmean peak infected: %.1f%% (%d runs in %v)\n",
		meanPeak, len(histories), time.Since(start).Round(time.Millisecond))
	return nil
}

func newScenarioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "play a scenario file with timed interventions",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	cmd.Flags().BoolVar(&saveScenario, "save", true, "store the run")
	return cmd
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	res, err := automation.RunScenario(ctx, sc, cfg, experiment.NewRegistry(), observability.GetLogger())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Fprintf(out, "  %s\n", sc.Description)
	}
	for _, ev := range res.Events {
		fmt.Fprintf(out, "  t=%.1fs restart=%t S=%d I=%d R=%d\n",
			ev.Applied, ev.Restart, ev.Counts.Susceptible, ev.Counts.Infected, ev.Counts.Recovered)
		for _, w := range ev.Warnings {
			fmt.Fprintf(out, "    warning: %s\n", w)
		}
	}
	r := res.Result
	fmt.Fprintf(out, "final: S=%d I=%d R=%d\n", r.Final.Susceptible, r.Final.Infected, r.Final.Recovered)
	printMetrics(out, r.Metrics)

	if !saveScenario {
		return nil
	}
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		Name:     sc.Name,
		Seed:     cfg.Run.Seed,
		Dt:       cfg.Run.Dt,
		Duration: cfg.Run.Duration,
		Steps:    r.Steps,
		Params:   res.Initial,
		Final:    storage.CountsOf(r.Final),
		Metrics:  r.Metrics,
	}, r.History)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "run id: %s\n", runID)
	return nil
}

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "measure tick throughput",
		Args:  cobra.NoArgs,
		RunE:  runBench,
	}
	cmd.Flags().IntSliceVar(&benchSizes, "sizes", []int{20, 80, 150, 1000}, "community sizes")
	cmd.Flags().IntVar(&benchTicks, "ticks", 600, "ticks per measurement")
	return cmd
}

func runBench(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AGENTS\tWORKERS\tTICKS\tTIME\tTICKS/SEC")

	workerCounts := []int{1}
	if n := runtime.NumCPU(); n > 1 {
		workerCounts = append(workerCounts, n)
	}
	for _, size := range benchSizes {
		for _, wc := range workerCounts {
			p := cfg.Params()
			p.CommunitySize = size
			p.SocialDistancing = true
			p.Workers = wc
			if p.Seed == 0 {
				p.Seed = 1
			}
			if p.InitialInfected > size {
				p.InitialInfected = size
			}
			s, err := epidemic.New(p)
			if err != nil {
				return err
			}

			start := time.Now()
			for i := 0; i < benchTicks; i++ {
				if err := s.Tick(cfg.Run.Dt); err != nil {
					return err
				}
			}
			elapsed := time.Since(start)
			fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%.0f\n",
				size, wc, benchTicks, elapsed.Round(time.Microsecond), float64(benchTicks)/elapsed.Seconds())
		}
	}
	return w.Flush()
}
