package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/san-kum/herofield/internal/compute"
	"github.com/san-kum/herofield/internal/config"
	"github.com/san-kum/herofield/internal/gui"
	"github.com/san-kum/herofield/internal/logging"
	"github.com/san-kum/herofield/internal/metrics"
	"github.com/san-kum/herofield/internal/profile"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dataDir     string
	configFile  string
	preset      string
	logLevel    string
	logFormat   string
	backendName string
	kernelName  string
	metricsAddr string
	showHUD     bool
	forceFX     bool
	jsonOut     bool
)

// raylib needs every window call on the main OS thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "herofield",
		Short:        "adaptive real-time particle field",
		SilenceUsage: true,
		RunE:         runWindow,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default from settings)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "settings file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset settings ("+joinPresets()+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (console, json)")
	rootCmd.PersistentFlags().StringVar(&kernelName, "kernel", "drift", "simulation kernel (identity, drift)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "open the particle field in a window",
		RunE:  runWindow,
	}
	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().StringVar(&backendName, "backend", "", "compute backend (auto, cpu, opengl)")
		c.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
		c.Flags().BoolVar(&showHUD, "hud", false, "show the debug overlay")
		c.Flags().BoolVar(&forceFX, "force-effects", false, "keep post-processing on under load")
	}

	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "print the detected capability profile and derived configuration",
		RunE:  showProfile,
	}
	profileCmd.Flags().BoolVar(&jsonOut, "json", false, "print as json")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage settings files",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write settings (default or --preset) to a yaml file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	}
	configPresetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list settings presets",
		RunE:  listPresets,
	}
	configCmd.AddCommand(configInitCmd, configPresetsCmd)

	rootCmd.AddCommand(runCmd, profileCmd, configCmd, newBenchCmd(), newRunsCmd(), newPlotCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func joinPresets() string {
	out := ""
	for i, name := range config.ListPresets() {
		if i > 0 {
			out += ", "
		}
		out += name
	}
	return out
}

// loadSettings resolves settings from --preset, then --config, then the
// defaults, and applies flag overrides on top.
func loadSettings() (*config.Settings, error) {
	var (
		s   *config.Settings
		err error
	)
	switch {
	case preset != "":
		s, err = config.GetPreset(preset)
	case configFile != "":
		s, err = config.Load(configFile)
	default:
		s = config.DefaultSettings()
	}
	if err != nil {
		return nil, err
	}

	if backendName != "" {
		s.Backend = backendName
	}
	if metricsAddr != "" {
		s.MetricsAddr = metricsAddr
	}
	if logLevel != "" {
		s.LogLevel = logLevel
	}
	if logFormat != "" {
		s.LogFormat = logFormat
	}
	if dataDir != "" {
		s.DataDir = dataDir
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func newLogger(s *config.Settings) (*zap.Logger, error) {
	return logging.New(logging.Config{Level: s.LogLevel, Format: s.LogFormat})
}

func detectProfile(log *zap.Logger) profile.Profile {
	signals, err := profile.HostSignals()
	if err != nil {
		log.Warn("ignoring malformed environment hint", zap.Error(err))
	}
	return profile.Detect(signals)
}

func resolveKernel() (compute.Kernel, error) {
	k, ok := compute.KernelByName(kernelName)
	if !ok {
		return nil, fmt.Errorf("unknown kernel: %s", kernelName)
	}
	return k, nil
}

// serveMetrics starts the metrics endpoint when addr is set. The returned
// function shuts it down.
func serveMetrics(m *metrics.Collectors, addr string, log *zap.Logger) func() {
	if addr == "" {
		return func() {}
	}
	srv := m.NewServer(addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", addr))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func runWindow(cmd *cobra.Command, args []string) error {
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

	return gui.Run(gui.Options{
		Settings: settings,
		Profile:  detectProfile(log),
		Kernel:   kernel,
		Metrics:  m,
		Logger:   log,
		ShowHUD:  showHUD,
		Force:    forceFX,
	})
}

type profileOutput struct {
	Profile struct {
		MobileUserAgent      bool    `json:"mobile_user_agent"`
		Cores                int     `json:"cores"`
		MemoryGB             float64 `json:"memory_gb"`
		PrefersReducedMotion bool    `json:"prefers_reduced_motion"`
		LowEnd               bool    `json:"low_end"`
	} `json:"profile"`
	Config struct {
		PixelDensityCap float64 `json:"pixel_density_cap"`
		GridSide        int     `json:"grid_side"`
		Particles       int     `json:"particles"`
		EffectsEnabled  bool    `json:"effects_enabled"`
		TimeScale       float64 `json:"time_scale"`
	} `json:"config"`
}

func showProfile(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	log, err := newLogger(settings)
	if err != nil {
		return err
	}
	defer log.Sync()

	p := detectProfile(log)
	r := config.Derive(p)

	var out profileOutput
	out.Profile.MobileUserAgent = p.MobileUserAgent
	out.Profile.Cores = p.Cores
	out.Profile.MemoryGB = p.MemoryGB
	out.Profile.PrefersReducedMotion = p.PrefersReducedMotion
	out.Profile.LowEnd = p.LowEnd()
	out.Config.PixelDensityCap = r.PixelDensityCap
	out.Config.GridSide = r.GridSide
	out.Config.Particles = r.ParticleCount()
	out.Config.EffectsEnabled = r.EffectsEnabled
	out.Config.TimeScale = r.TimeScale

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "mobile\t%t\n", p.MobileUserAgent)
	fmt.Fprintf(w, "cores\t%d\n", p.Cores)
	fmt.Fprintf(w, "memory\t%.1f GB\n", p.MemoryGB)
	fmt.Fprintf(w, "reduced motion\t%t\n", p.PrefersReducedMotion)
	fmt.Fprintf(w, "low end\t%t\n", p.LowEnd())
	fmt.Fprintln(w, "\t")
	fmt.Fprintf(w, "pixel density cap\t%.2f\n", r.PixelDensityCap)
	fmt.Fprintf(w, "grid\t%dx%d (%d particles)\n", r.GridSide, r.GridSide, r.ParticleCount())
	fmt.Fprintf(w, "effects\t%t\n", r.EffectsEnabled)
	fmt.Fprintf(w, "time scale\t%.2f\n", r.TimeScale)
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := "herofield.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	s := config.DefaultSettings()
	if preset != "" {
		p, err := config.GetPreset(preset)
		if err != nil {
			return err
		}
		s = p
	}
	if err := config.Save(path, s); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBACKEND\tSIZE\tFPS\tBUDGET\tWINDOW")
	for _, name := range config.ListPresets() {
		s, err := config.GetPreset(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%dx%d\t%d\t%s\t%d\n",
			name, s.Backend, s.Width, s.Height, s.TargetFPS, s.Governor.FrameBudget, s.Governor.Window)
	}
	return w.Flush()
}
