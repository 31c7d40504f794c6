package automation

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/san-kum/herofield/internal/compute"
	"github.com/san-kum/herofield/internal/config"
	"github.com/san-kum/herofield/internal/experiment"
	"github.com/san-kum/herofield/internal/profile"
	"github.com/san-kum/herofield/internal/storage"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Suite is a scripted sequence of bench runs
type Suite struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Runs        []SuiteRun `yaml:"runs"`
}

// SuiteRun is a single bench run in a suite. Zero fields fall back to
// the options the suite is run with.
type SuiteRun struct {
	Name     string  `yaml:"name"`
	Workload string  `yaml:"workload"`
	Frames   int     `yaml:"frames"`
	Seed     int64   `yaml:"seed"`
	Preset   string  `yaml:"preset"`
	Kernel   string  `yaml:"kernel"`
	Device   *Device `yaml:"device"`
	Save     bool    `yaml:"save"`
}

// Device impersonates another device instead of the detected profile.
type Device struct {
	UserAgent string  `yaml:"user_agent"`
	Cores     int     `yaml:"cores"`
	MemoryGB  float64 `yaml:"memory_gb"`
}

func (d *Device) profile() profile.Profile {
	s := profile.Signals{UserAgent: d.UserAgent}
	if d.Cores > 0 {
		s.Cores = &d.Cores
	}
	if d.MemoryGB > 0 {
		s.MemoryGB = &d.MemoryGB
	}
	return profile.Detect(s)
}

type Options struct {
	Profile  profile.Profile
	Settings *config.Settings
	// Store receives reports of runs marked save; nil disables saving.
	Store  *storage.Store
	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

type SuiteResult struct {
	Name    string
	Report  storage.Report
	SavedAs string
}

// LoadSuite loads a suite from a YAML file
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, err
	}
	if len(suite.Runs) == 0 {
		return nil, fmt.Errorf("suite %s: no runs", path)
	}
	return &suite, nil
}

// RunSuite executes every run in order and stops at the first failure.
func RunSuite(ctx context.Context, suite *Suite, opts Options) ([]SuiteResult, error) {
	log := opts.logger()
	results := make([]SuiteResult, 0, len(suite.Runs))

	for i, run := range suite.Runs {
		name := run.Name
		if name == "" {
			name = fmt.Sprintf("run-%d", i+1)
		}
		log.Info("suite run", zap.String("suite", suite.Name), zap.String("run", name),
			zap.Int("index", i+1), zap.Int("of", len(suite.Runs)))

		cfg, err := runConfig(run, opts)
		if err != nil {
			return results, fmt.Errorf("run %s: %w", name, err)
		}
		report, frames, err := runOnce(ctx, cfg)
		if err != nil {
			return results, fmt.Errorf("run %s: %w", name, err)
		}

		res := SuiteResult{Name: name, Report: report}
		if run.Save && opts.Store != nil {
			report.ID = fmt.Sprintf("%s_%s_%d", suite.Name, name, time.Now().UnixNano())
			if res.SavedAs, err = opts.Store.Save(report, frames); err != nil {
				return results, fmt.Errorf("run %s save: %w", name, err)
			}
		}
		results = append(results, res)
	}

	return results, nil
}

func runConfig(run SuiteRun, opts Options) (experiment.Config, error) {
	settings := opts.Settings
	if run.Preset != "" {
		p, err := config.GetPreset(run.Preset)
		if err != nil {
			return experiment.Config{}, err
		}
		settings = p
	}
	if settings == nil {
		settings = config.DefaultSettings()
	}

	cfg := experiment.Config{
		Frames:   run.Frames,
		Workload: run.Workload,
		Seed:     run.Seed,
		Profile:  opts.Profile,
		Settings: settings,
		Backend:  compute.NewCPUBackend(),
		Logger:   opts.logger(),
	}
	if cfg.Frames <= 0 {
		cfg.Frames = 300
	}
	if run.Kernel != "" {
		k, ok := compute.KernelByName(run.Kernel)
		if !ok {
			return experiment.Config{}, fmt.Errorf("unknown kernel: %s", run.Kernel)
		}
		cfg.Kernel = k
	}
	if run.Device != nil {
		cfg.Profile = run.Device.profile()
	}
	return cfg, nil
}

func runOnce(ctx context.Context, cfg experiment.Config) (storage.Report, []storage.Frame, error) {
	exp, err := experiment.New(cfg)
	if err != nil {
		return storage.Report{}, nil, err
	}
	defer exp.Close()

	if _, err := exp.Run(ctx, nil); err != nil {
		return storage.Report{}, nil, err
	}
	report, frames := exp.Report()
	return report, frames, nil
}

// CostSweep runs constant-cost benches across a range of frame costs
type CostSweep struct {
	FromMS float64
	ToMS   float64
	Steps  int
	Frames int
}

// SweepResult holds one point of a cost sweep
type SweepResult struct {
	CostMS     float64
	DegradedAt int
	Windows    int
}

// RunSweep executes a cost sweep
func RunSweep(ctx context.Context, sweep CostSweep, opts Options) ([]SweepResult, error) {
	if sweep.Steps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.Steps)
	}
	if sweep.ToMS <= sweep.FromMS {
		return nil, fmt.Errorf("sweep range %.2f..%.2f is empty", sweep.FromMS, sweep.ToMS)
	}
	frames := sweep.Frames
	if frames <= 0 {
		frames = 2 * config.DefaultSampleWindow
	}

	log := opts.logger()
	stepMS := (sweep.ToMS - sweep.FromMS) / float64(sweep.Steps-1)
	results := make([]SweepResult, 0, sweep.Steps)

	for i := 0; i < sweep.Steps; i++ {
		costMS := sweep.FromMS + float64(i)*stepMS
		cfg, err := runConfig(SuiteRun{Frames: frames}, opts)
		if err != nil {
			return nil, err
		}
		cfg.Cost = experiment.Constant(time.Duration(costMS * float64(time.Millisecond)))

		report, _, err := runOnce(ctx, cfg)
		if err != nil {
			return results, err
		}
		results = append(results, SweepResult{
			CostMS:     costMS,
			DegradedAt: report.DegradedAt,
			Windows:    report.Windows,
		})
		log.Debug("sweep step", zap.Int("step", i+1), zap.Float64("cost_ms", costMS),
			zap.Int("degraded_at", report.DegradedAt))
	}

	return results, nil
}

// Threshold returns the smallest swept cost that degraded effects.
func Threshold(results []SweepResult) (float64, bool) {
	for _, r := range results {
		if r.DegradedAt > 0 {
			return r.CostMS, true
		}
	}
	return 0, false
}
