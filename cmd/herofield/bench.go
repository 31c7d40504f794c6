package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/herofield/internal/automation"
	"github.com/san-kum/herofield/internal/compute"
	"github.com/san-kum/herofield/internal/experiment"
	"github.com/san-kum/herofield/internal/export"
	"github.com/san-kum/herofield/internal/metrics"
	"github.com/san-kum/herofield/internal/storage"
	"github.com/san-kum/herofield/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	benchFrames   int
	benchWorkload string
	benchSeed     int64
	benchLive     bool
	benchSave     bool
	benchSnapshot string
	sweepFrom     float64
	sweepTo       float64
	sweepSteps    int
	sweepFrames   int
)

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "run the field headless with a synthetic frame cost",
		Long: "bench mounts the field on an offscreen surface with the cpu backend and drives it on a\n" +
			"virtual clock. Each frame costs what the workload says, so the governor reacts exactly as\n" +
			"it would on a device that slow. Workloads: " + strings.Join(experiment.NewRegistry().List(), ", "),
		RunE: runBench,
	}
	cmd.Flags().IntVar(&benchFrames, "frames", 300, "frames to simulate")
	cmd.Flags().StringVar(&benchWorkload, "workload", "steady", "synthetic frame cost")
	cmd.Flags().Int64Var(&benchSeed, "seed", 1, "random seed for frame jitter")
	cmd.Flags().BoolVar(&benchLive, "live", false, "show the terminal dashboard")
	cmd.Flags().BoolVar(&benchSave, "save", false, "save the report to the data directory")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	cmd.Flags().StringVar(&benchSnapshot, "snapshot", "", "write the last frame as svg to this path")

	suiteCmd := &cobra.Command{
		Use:   "suite [file]",
		Short: "run every bench in a yaml suite",
		Args:  cobra.ExactArgs(1),
		RunE:  runSuite,
	}
	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "find the constant frame cost at which effects are disabled",
		RunE:  runSweep,
	}
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 16, "lowest frame cost in ms")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 30, "highest frame cost in ms")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 15, "number of costs to try")
	sweepCmd.Flags().IntVar(&sweepFrames, "frames", 0, "frames per run (default two governor windows)")

	cmd.AddCommand(suiteCmd, sweepCmd)
	return cmd
}

func runBench(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	log, err := newLogger(settings)
	if err != nil {
		return err
	}
	defer log.Sync()

	kernel, err := resolveKernel()
	if err != nil {
		return err
	}

	m := metrics.NewCollectors()
	stop := serveMetrics(m, settings.MetricsAddr, log)
	defer stop()

	exp, err := experiment.New(experiment.Config{
		Frames:   benchFrames,
		Workload: benchWorkload,
		Seed:     benchSeed,
		Profile:  detectProfile(log),
		Settings: settings,
		Backend:  compute.NewCPUBackend(),
		Kernel:   kernel,
		Metrics:  m,
		Logger:   log,
	})
	if err != nil {
		return err
	}
	defer exp.Close()

	var res *experiment.Result
	if benchLive {
		res, err = viz.Run(exp)
	} else {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()
		res, err = exp.Run(ctx, nil)
	}
	if err != nil {
		return err
	}

	printSummary(exp, res)

	if benchSnapshot != "" {
		surf := exp.Surface()
		w, h := surf.Size()
		svg := export.PointsToSVG(surf.Points, w, h, max(len(surf.Points)/20000, 1))
		if err := os.WriteFile(benchSnapshot, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("\nsnapshot: %s\n", benchSnapshot)
	}

	if benchSave {
		st := storage.New(settings.DataDir)
		if err := st.Init(); err != nil {
			return err
		}
		report, frames := exp.Report()
		id, err := st.Save(report, frames)
		if err != nil {
			return err
		}
		log.Info("bench report saved", zap.String("id", id), zap.String("dir", st.Dir()))
		fmt.Printf("\nsaved: %s\n", id)
	}
	return nil
}

func printSummary(exp *experiment.Experiment, res *experiment.Result) {
	if res == nil || res.Stats.Count() == 0 {
		fmt.Println("no frames simulated")
		return
	}
	report, _ := exp.Report()

	fmt.Printf("workload: %s  backend: %s  kernel: %s  grid: %dx%d\n",
		exp.Workload(), report.Backend, report.Kernel, report.GridSide, report.GridSide)
	fmt.Printf("profile:  %s\n\n", report.Profile)

	fmt.Println(asciigraph.Plot(downsample(metrics.NewFrameStats(0), res.Stats.Samples(), 100),
		asciigraph.Height(10), asciigraph.Width(70), asciigraph.Caption("frame ms")))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "frames\t%d\n", res.Stats.Count())
	fmt.Fprintf(w, "mean\t%.2f ms (%.1f fps)\n", res.Stats.Value(), res.Stats.FPS())
	fmt.Fprintf(w, "p50 / p95 / max\t%.2f / %.2f / %.2f ms\n", res.Stats.Percentile(50), res.Stats.Percentile(95), res.Stats.Max())
	fmt.Fprintf(w, "over budget\t%d (%.0f ms)\n", res.Stats.OverBudget(), report.BudgetMS)
	fmt.Fprintf(w, "governor windows\t%d x %d frames\n", res.Windows, report.Window)
	if res.DegradedAt > 0 {
		fmt.Fprintf(w, "effects\tdisabled at frame %d\n", res.DegradedAt)
	} else {
		fmt.Fprintf(w, "effects\t%t\n", report.Effects)
	}
	fmt.Fprintf(w, "time scale\t%.2f\n", report.TimeScale)
	w.Flush()
}

// downsample averages samples into at most n buckets for plotting.
func downsample(acc *metrics.FrameStats, samples []float64, n int) []float64 {
	if len(samples) <= n {
		return samples
	}
	out := make([]float64, 0, n)
	per := (len(samples) + n - 1) / n
	for i := 0; i < len(samples); i += per {
		acc.Reset()
		for _, v := range samples[i:min(i+per, len(samples))] {
			acc.Observe(v)
		}
		out = append(out, acc.Value())
	}
	return out
}

func automationOptions(store bool) (automation.Options, func(), error) {
	settings, err := loadSettings()
	if err != nil {
		return automation.Options{}, nil, err
	}
	log, err := newLogger(settings)
	if err != nil {
		return automation.Options{}, nil, err
	}
	opts := automation.Options{
		Profile:  detectProfile(log),
		Settings: settings,
		Logger:   log,
	}
	if store {
		opts.Store = storage.New(settings.DataDir)
		if err := opts.Store.Init(); err != nil {
			return automation.Options{}, nil, err
		}
	}
	return opts, func() { log.Sync() }, nil
}

func runSuite(cmd *cobra.Command, args []string) error {
	suite, err := automation.LoadSuite(args[0])
	if err != nil {
		return err
	}
	opts, done, err := automationOptions(true)
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	results, err := automation.RunSuite(ctx, suite, opts)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "suite: %s\n", suite.Name)
	fmt.Fprintln(w, "RUN\tGRID\tLOW END\tMEAN\tP95\tDEGRADED\tSAVED")
	for _, r := range results {
		degraded := "-"
		if r.Report.DegradedAt > 0 {
			degraded = fmt.Sprintf("frame %d", r.Report.DegradedAt)
		}
		saved := r.SavedAs
		if saved == "" {
			saved = "-"
		}
		fmt.Fprintf(w, "%s\t%d\t%t\t%.2fms\t%.2fms\t%s\t%s\n",
			r.Name, r.Report.GridSide, r.Report.LowEnd,
			r.Report.Stats["mean_ms"], r.Report.Stats["p95_ms"], degraded, saved)
	}
	w.Flush()
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	opts, done, err := automationOptions(false)
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	results, err := automation.RunSweep(ctx, automation.CostSweep{
		FromMS: sweepFrom,
		ToMS:   sweepTo,
		Steps:  sweepSteps,
		Frames: sweepFrames,
	}, opts)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COST\tWINDOWS\tEFFECTS")
	for _, r := range results {
		state := "kept"
		if r.DegradedAt > 0 {
			state = fmt.Sprintf("disabled at frame %d", r.DegradedAt)
		}
		fmt.Fprintf(w, "%.2fms\t%d\t%s\n", r.CostMS, r.Windows, state)
	}
	w.Flush()

	if t, ok := automation.Threshold(results); ok {
		fmt.Printf("\neffects are disabled from %.2fms per frame\n", t)
	} else {
		fmt.Println("\neffects survived every cost in range")
	}
	return nil
}

func newRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "list saved bench reports",
		RunE:  listRuns,
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	runs, err := storage.New(settings.DataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tBACKEND\tGRID\tFRAMES\tMEAN\tP95\tDEGRADED")
	for _, run := range runs {
		degraded := "-"
		if run.DegradedAt > 0 {
			degraded = fmt.Sprintf("frame %d", run.DegradedAt)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.2fms\t%.2fms\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Backend,
			run.GridSide,
			run.Frames,
			run.Stats["mean_ms"],
			run.Stats["p95_ms"],
			degraded,
		)
	}
	return w.Flush()
}

var plotSVG string

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the frame times of a saved bench report",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	cmd.Flags().StringVar(&plotSVG, "svg", "", "also write the plot as svg to this path")
	return cmd
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	st := storage.New(settings.DataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("backend: %s  grid: %dx%d  frames: %d\n\n", meta.Backend, meta.GridSide, meta.GridSide, len(frames))

	durations := storage.Durations(frames)
	fmt.Println(asciigraph.Plot(downsample(metrics.NewFrameStats(0), durations, 100),
		asciigraph.Height(10), asciigraph.Width(70), asciigraph.Caption("frame ms")))

	effects := make([]float64, len(frames))
	for i, f := range frames {
		if f.Effects {
			effects[i] = 1
		}
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(downsample(metrics.NewFrameStats(0), effects, 100),
		asciigraph.Height(3), asciigraph.Width(70), asciigraph.Caption("effects on")))

	if plotSVG != "" {
		enabled := make([]bool, len(frames))
		for i, f := range frames {
			enabled[i] = f.Effects
		}
		svg := export.FrameTimesToSVG(durations, enabled, meta.BudgetMS, 900, 300)
		if err := os.WriteFile(plotSVG, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", plotSVG)
	}
	return nil
}
