package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/motion/internal/config"
	"github.com/san-kum/motion/internal/export"
	"github.com/san-kum/motion/internal/metrics"
	"github.com/san-kum/motion/internal/optim"
	"github.com/san-kum/motion/internal/scene"
	"github.com/san-kum/motion/internal/sim"
	"github.com/san-kum/motion/internal/solver"
	"github.com/san-kum/motion/internal/storage"
	"github.com/san-kum/motion/internal/tui"
	"github.com/san-kum/motion/internal/viz"
)

var (
	dataDir     string
	verbose     bool
	dt          float64
	duration    float64
	solverName  string
	configFile  string
	recordEvery int
	watch       bool
	frameRate   int
	body        string
	fields      []string
	svgPath     string

	metricName    string
	velocityIters []int
	positionIters []int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "motion",
		Short:         "rigid-body motion lab",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".motion", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a scene and store the result",
		RunE:  runScene,
	}
	sceneFlags(runCmd)
	runCmd.Flags().IntVar(&recordEvery, "record-every", 1, "store one frame per n steps")
	runCmd.Flags().BoolVar(&watch, "watch", false, "print an ascii view while running")
	runCmd.Flags().IntVar(&frameRate, "fps", 15, "watch frame rate")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "step a scene in the interactive terminal view",
		RunE:  runLive,
	}
	sceneFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 60, "frame rate")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a body's motion",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&body, "body", "", "body to plot (default: last body)")
	plotCmd.Flags().StringSliceVar(&fields, "field", []string{"y", "vy"}, "fields: "+strings.Join(viz.Fields, ","))

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run frames to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a body's trajectory to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&body, "body", "", "body to trace")
	exportSVGCmd.Flags().StringVarP(&svgPath, "out", "o", "trajectory.svg", "output file")

	compareCmd := &cobra.Command{
		Use:   "compare [preset] [solver...]",
		Short: "run one scene under several solvers in parallel",
		RunE:  compareSolvers,
	}
	sceneFlags(compareCmd)

	tuneCmd := &cobra.Command{
		Use:   "tune [preset]",
		Short: "grid-search solver iterations for the lowest metric",
		RunE:  tuneScene,
	}
	sceneFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&metricName, "metric", "max_penetration", "metric to minimise")
	tuneCmd.Flags().IntSliceVar(&velocityIters, "velocity-iterations", []int{2, 5, 10, 20}, "velocity iteration caps to try")
	tuneCmd.Flags().IntSliceVar(&positionIters, "position-iterations", []int{1, 4, 8}, "position iteration caps to try")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list scene presets and solvers",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("presets:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			fmt.Println("solvers:")
			for _, s := range solver.Names() {
				fmt.Printf("  %s\n", s)
			}
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, exportJSONCmd, exportSVGCmd, compareCmd, tuneCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func sceneFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().StringVar(&solverName, "solver", config.DefaultSolver, "solver: "+strings.Join(solver.Names(), ", "))
	cmd.Flags().StringVar(&configFile, "config", "", "scene file path (yaml)")
}

func logger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadScene resolves the scene from --config or a preset name. Flags the
// user set explicitly override the file.
func loadScene(cmd *cobra.Command, args []string) (string, *config.Scene, error) {
	var (
		name string
		cfg  *config.Scene
	)
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return "", nil, fmt.Errorf("failed to load config: %w", err)
		}
		name, cfg = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile)), c
	case len(args) > 0:
		cfg = config.GetPreset(args[0])
		if cfg == nil {
			return "", nil, fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
		name = args[0]
	default:
		return "", nil, fmt.Errorf("need a preset name or --config")
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("solver") {
		cfg.Solver = solverName
	}
	return name, cfg, cfg.Validate()
}

func standardMetrics() []sim.Metric {
	return []sim.Metric{
		metrics.NewEnergy(),
		metrics.NewEnergyDrift(),
		metrics.NewStability(100),
		metrics.NewIterations(),
		metrics.NewConvergence(),
		metrics.NewPenetration(),
		metrics.NewMomentum(),
	}
}

func runScene(cmd *cobra.Command, args []string) error {
	name, cfg, err := loadScene(cmd, args)
	if err != nil {
		return err
	}
	log := logger()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	sc, err := scene.Build(cfg, log)
	if err != nil {
		return err
	}
	s := sim.New(sc.World)
	for _, m := range standardMetrics() {
		s.AddMetric(m)
	}
	if watch {
		r := tui.NewLiveRenderer(name, frameRate)
		r.Start()
		defer r.Stop()
		s.AddObserver(r)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s (%s, %d bodies)...\n", name, cfg.Solver, sc.World.Len())
	start := time.Now()
	result, err := s.Run(ctx, sim.Config{Dt: cfg.Dt, Duration: cfg.Duration, RecordEvery: recordEvery, ValidateState: true})
	if err != nil && result == nil {
		return err
	}
	if err != nil {
		log.Warn("run stopped early", "err", err, "steps", result.StepsTaken)
	}
	elapsed := time.Since(start)

	runID, err := st.Save(name, cfg.Dt, cfg.Duration, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	for _, e := range result.Errors {
		fmt.Printf("warning: %v\n", e)
	}
	fmt.Println("\nmetrics:")
	for _, m := range standardMetrics() {
		fmt.Printf("  %s: %.6f\n", m.Name(), result.Metrics[m.Name()])
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	name, cfg, err := loadScene(cmd, args)
	if err != nil {
		return err
	}
	// slog output would tear the alternate screen
	log := slog.New(slog.DiscardHandler)
	build := func() (*scene.Scene, error) { return scene.Build(cfg, log) }
	return viz.Run(name, build, cfg.Dt, frameRate)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tSOLVER\tTIME\tDURATION\tDT\tBODIES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%.4fs\t%d\n",
			run.ID,
			run.Scene,
			run.Solver,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Bodies,
		)
	}
	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, []sim.Frame, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(frames) == 0 {
		return nil, nil, fmt.Errorf("no frames in run %s", runID)
	}
	return meta, frames, nil
}

// defaultBody picks the last body in the first frame, which in the presets
// is a dynamic one placed after the ground.
func defaultBody(frames []sim.Frame) string {
	bs := frames[0].Bodies
	if len(bs) == 0 {
		return ""
	}
	return bs[len(bs)-1].Name
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	name := body
	if name == "" {
		name = defaultBody(frames)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s (%s)\n", meta.Scene, meta.Solver)
	fmt.Printf("samples: %d\n\n", len(frames))

	for _, f := range fields {
		graph, err := viz.Plot(frames, name, f, 80, 10)
		if err != nil {
			return err
		}
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}
	return export.WriteJSON(os.Stdout, export.NewData(meta, nil))
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return export.WriteJSON(os.Stdout, export.NewData(meta, frames))
}

func exportSVG(cmd *cobra.Command, args []string) error {
	_, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	name := body
	if name == "" {
		name = defaultBody(frames)
	}
	svg := export.TrajectoryToSVG(export.Trajectory(frames, name), 800, 400, "#00ffff")
	if svg == "" {
		return fmt.Errorf("not enough samples for %q", name)
	}
	if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", svgPath)
	return nil
}

func compareSolvers(cmd *cobra.Command, args []string) error {
	// with --config every argument names a solver
	names := args
	if configFile == "" && len(args) > 0 {
		names = args[1:]
	}
	name, cfg, err := loadScene(cmd, args)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		names = solver.Names()
	}

	sims := make([]*sim.Simulator, len(names))
	for i, n := range names {
		c := *cfg
		c.Solver = n
		sc, err := scene.Build(&c, slog.New(slog.DiscardHandler))
		if err != nil {
			return fmt.Errorf("%s: %w", n, err)
		}
		sims[i] = sim.New(sc.World)
		for _, m := range standardMetrics() {
			sims[i].AddMetric(m)
		}
	}

	fmt.Printf("comparing solvers on %s (dt=%.4f, duration=%.1fs)\n\n", name, cfg.Dt, cfg.Duration)
	start := time.Now()
	results, err := sim.RunAll(context.Background(), sims, sim.Config{Dt: cfg.Dt, Duration: cfg.Duration})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOLVER\tENERGY_DRIFT\tITERATIONS\tCONVERGED\tMAX_PENETRATION\tSTABILITY")
	series := make([][]float64, 0, len(results))
	for i, r := range results {
		fmt.Fprintf(w, "%s\t%.2e\t%.2f\t%.2f\t%.4f\t%.2f\n",
			names[i],
			r.Metrics["energy_drift"],
			r.Metrics["iterations"],
			r.Metrics["convergence"],
			r.Metrics["max_penetration"],
			r.Metrics["stability"],
		)
		if ys, err := viz.Series(r.Frames, defaultBody(r.Frames), "y"); err == nil {
			series = append(series, ys)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nelapsed: %v\n\n", time.Since(start))
	if len(series) > 0 {
		fmt.Println(viz.PlotMany(series, "height of "+defaultBody(results[0].Frames)+" by solver", 80, 10))
	}
	return nil
}

func tuneScene(cmd *cobra.Command, args []string) error {
	name, cfg, err := loadScene(cmd, args)
	if err != nil {
		return err
	}

	toFloats := func(xs []int) []float64 {
		out := make([]float64, len(xs))
		for i, x := range xs {
			out[i] = float64(x)
		}
		return out
	}
	g := optim.NewGridSearch(
		[]string{"velocity_iterations", "position_iterations"},
		[][]float64{toFloats(velocityIters), toFloats(positionIters)},
	)

	fmt.Printf("tuning %s (%s) for lowest %s...\n", name, cfg.Solver, metricName)
	best, val, err := g.Search(context.Background(), optim.SceneBuild(cfg, standardMetrics), sim.Config{Dt: cfg.Dt, Duration: cfg.Duration}, metricName)
	if err != nil {
		return err
	}
	fmt.Printf("best %s: %.6f\n", metricName, val)
	for _, p := range optim.Params {
		if v, ok := best[p]; ok {
			fmt.Printf("  %s: %d\n", p, int(v))
		}
	}
	return nil
}
