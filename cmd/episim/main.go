package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/epidemic"
	"github.com/san-kum/episim/internal/experiment"
	"github.com/san-kum/episim/internal/export"
	"github.com/san-kum/episim/internal/observability"
	"github.com/san-kum/episim/internal/storage"
	"github.com/san-kum/episim/internal/viz"
)

var (
	configFile string
	dataDir    string
	preset     string
	overrides  []string

	dt       float64
	duration float64
	seed     int64
	workers  int

	runName string
	noSave  bool
	stop    bool
	outPath string
	maxStep float64
)

// cfg is resolved once per invocation in PersistentPreRunE.
var cfg *config.Config

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		observability.GetLogger().Error("command failed", zap.Error(err))
		observability.Sync()
		os.Exit(1)
	}
	observability.Sync()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "episim",
		Short:         "spatial SIR epidemic simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd)
			if err != nil {
				observability.InitializeLogger(config.DefaultLogger())
				return err
			}
			cfg = c
			observability.Initialize(cfg.Logger, observability.ConsoleSink(ownsTerminal(cmd)))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(cmd, args)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "config file (default is ./episim.yaml)")
	pf.StringVar(&dataDir, "data", "", "data directory (default .episim)")
	pf.StringVar(&preset, "preset", "", "apply a preset before overrides")
	pf.StringArrayVar(&overrides, "set", nil, "override a parameter, e.g. --set infection_radius=5")
	pf.Float64Var(&dt, "dt", config.DefaultDt, "timestep in seconds")
	pf.Float64Var(&duration, "time", config.DefaultDuration, "simulated seconds")
	pf.Int64Var(&seed, "seed", 0, "random seed (0 seeds from the clock)")
	pf.IntVar(&workers, "workers", config.DefaultWorkers, "workers for the pairwise stages")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and store the result",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&runName, "name", "", "run name (defaults to the preset name)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVar(&stop, "stop-on-extinction", false, "stop when no agent is infected")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run history to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(cfg.DataDir).ExportCSV(cmd.OutOrStdout(), args[0])
		},
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and history to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(cfg.DataDir).ExportJSON(cmd.OutOrStdout(), args[0])
		},
	}

	chartCmd := &cobra.Command{
		Use:   "chart [run_id]",
		Short: "render the stacked S/I/R chart of a run (png or svg)",
		Args:  cobra.ExactArgs(1),
		RunE:  chartRun,
	}
	chartCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (.png or .svg, default <run_id>.png)")

	fieldCmd := &cobra.Command{
		Use:   "field",
		Short: "simulate and draw the final population as SVG",
		Args:  cobra.NoArgs,
		RunE:  drawField,
	}
	fieldCmd.Flags().StringVarP(&outPath, "out", "o", "field.svg", "output file")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the simulation in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	liveCmd.Flags().Float64Var(&maxStep, "max-step", viz.DefaultMaxStep, "largest simulated step per frame")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, name := range config.ListPresets() {
				fmt.Fprintf(w, "%s\t%s\n", name, config.Presets[name].Description)
			}
			return w.Flush()
		},
	}

	metricsCmd := &cobra.Command{
		Use:   "metrics",
		Short: "list recorded metrics",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range experiment.NewRegistry().ListMetrics() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportJSONCmd,
		chartCmd, fieldCmd, liveCmd, presetsCmd, metricsCmd,
		newSweepCmd(), newEnsembleCmd(), newScenarioCmd(), newBenchCmd(), newConfigCmd())
	return rootCmd
}

// loadConfig merges defaults, the config file and EPISIM_* variables via
// viper, then applies the preset, --set overrides and explicit flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	config.SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("episim")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix("EPISIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	c, err := config.NewFromViper(v)
	if err != nil {
		return nil, err
	}

	if preset != "" {
		p, ok := config.Presets[preset]
		if !ok {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		p.Apply(c)
	}

	for _, kv := range overrides {
		name, value, err := parseSet(kv)
		if err != nil {
			return nil, err
		}
		if err := c.Simulation.Set(name, value); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		c.Run.Dt = dt
	}
	if flags.Changed("time") {
		c.Run.Duration = duration
	}
	if flags.Changed("seed") {
		c.Run.Seed = seed
	}
	if flags.Changed("workers") {
		c.Run.Workers = workers
	}
	if flags.Changed("data") {
		c.DataDir = dataDir
	}
	if flags.Lookup("stop-on-extinction") != nil && flags.Changed("stop-on-extinction") {
		c.Run.StopOnExtinction = stop
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

// parseSet splits name=value. Booleans may be given as true/false.
func parseSet(kv string) (string, float64, error) {
	name, raw, ok := strings.Cut(kv, "=")
	if !ok || name == "" {
		return "", 0, fmt.Errorf("invalid --set %q, want name=value", kv)
	}
	name = strings.TrimSpace(name)
	raw = strings.TrimSpace(raw)
	if b, err := strconv.ParseBool(raw); err == nil {
		if b {
			return name, 1, nil
		}
		return name, 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid value for %s: %w", name, err)
	}
	return name, v, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()
	name := runName
	if name == "" {
		name = preset
	}
	if name == "" {
		name = "run"
	}

	registry := experiment.NewRegistry()
	exp := experiment.New(experiment.Config{
		Name:             name,
		Params:           cfg.Params(),
		Dt:               cfg.Run.Dt,
		Duration:         cfg.Run.Duration,
		StopOnExtinction: cfg.Run.StopOnExtinction,
	}, experiment.WithLogger(logger))
	if err := exp.Setup(registry.DefaultMetrics()); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "running %s: %d agents, %d infected, %.0fs\n",
		name, cfg.Simulation.CommunitySize, cfg.Simulation.InitialInfected, cfg.Run.Duration)
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "completed in %v\n", result.Wall)
	fmt.Fprintf(out, "steps: %d\n", result.Steps)
	if result.Stopped {
		fmt.Fprintln(out, "stopped: outbreak over")
	}
	fmt.Fprintf(out, "final: S=%d I=%d R=%d\n", result.Final.Susceptible, result.Final.Infected, result.Final.Recovered)
	printMetrics(out, result.Metrics)

	if noSave {
		return nil
	}
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		Name:     name,
		Seed:     cfg.Run.Seed,
		Dt:       cfg.Run.Dt,
		Duration: cfg.Run.Duration,
		Steps:    result.Steps,
		Stopped:  result.Stopped,
		Params:   cfg.Simulation,
		Final:    storage.CountsOf(result.Final),
		Metrics:  result.Metrics,
	}, result.History)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "run id: %s\n", runID)
	return nil
}

func printMetrics(w io.Writer, m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "\nmetrics:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %.3f\n", name, m[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(cfg.DataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tAGENTS\tDURATION\tDT\tDIST\tQUAR\tPEAK I%\tATTACK%")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.1fs\t%.4fs\t%t\t%t\t%.1f\t%.1f\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Params.CommunitySize,
			run.Duration,
			run.Dt,
			run.Params.SocialDistancing,
			run.Params.Quarantine,
			run.Metrics["peak_infected"],
			run.Metrics["attack_rate"],
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(cfg.DataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	h, err := st.LoadHistory(args[0])
	if err != nil {
		return err
	}
	if h.Len() < 2 {
		return fmt.Errorf("no data to plot")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "samples: %d\n\n", h.Len())
	graph := asciigraph.PlotMany(
		[][]float64{h.Susceptible, h.Infected, h.Recovered},
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(100),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red, asciigraph.Gray),
		asciigraph.Caption("susceptible / infected / recovered (%)"),
	)
	fmt.Fprintln(out, graph)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(cfg.DataDir).Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func chartRun(cmd *cobra.Command, args []string) error {
	h, err := storage.New(cfg.DataDir).LoadHistory(args[0])
	if err != nil {
		return err
	}
	path := outPath
	if path == "" {
		path = args[0] + ".png"
	}
	format, err := export.FormatFromPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	opts := export.DefaultChartOptions()
	opts.Title = args[0]
	if err := export.RenderChart(f, h, format, opts); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}

func drawField(cmd *cobra.Command, args []string) error {
	p := cfg.Params()
	s, err := epidemic.New(p, epidemic.WithLogger(observability.GetLogger()))
	if err != nil {
		return err
	}
	steps := experiment.Config{Dt: cfg.Run.Dt, Duration: cfg.Run.Duration}.Steps()
	for i := 0; i < steps; i++ {
		if err := s.Tick(cfg.Run.Dt); err != nil {
			return err
		}
	}

	if err := os.WriteFile(outPath, []byte(export.FieldSVG(s.Agents(nil), s.Params())), 0644); err != nil {
		return err
	}
	c := s.Counts()
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s at t=%.1fs (S=%d I=%d R=%d)\n",
		outPath, s.Elapsed(), c.Susceptible, c.Infected, c.Recovered)
	return nil
}

// ownsTerminal reports whether cmd hands the screen to the TUI. The bare
// root command starts it too.
func ownsTerminal(cmd *cobra.Command) bool {
	return cmd == cmd.Root() || cmd.Name() == "live"
}

func runLive(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()
	s, err := epidemic.New(cfg.Params(), epidemic.WithLogger(logger))
	if err != nil {
		return err
	}
	return viz.Run(s, viz.WithLogger(logger), viz.WithMaxStep(maxStep))
}
