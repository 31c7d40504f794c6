// Package metrics measures the particle field: in-process frame
// statistics for run summaries, and Prometheus collectors for live
// scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/san-kum/herofield/internal/config"
)

// Collectors are the Prometheus series exported by a mounted field.
type Collectors struct {
	registry *prometheus.Registry

	FrameDuration  prometheus.Histogram
	WindowMean     prometheus.Gauge
	Windows        prometheus.Counter
	Degradations   prometheus.Counter
	EffectsEnabled prometheus.Gauge
	TimeScale      prometheus.Gauge
	ConfigChanges  prometheus.Counter
	Particles      prometheus.Gauge

	effects bool
}

// NewCollectors registers every series on a fresh registry so that
// several fields (or tests) never collide.
func NewCollectors() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		FrameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "herofield",
			Name:      "frame_duration_seconds",
			Help:      "Wall-clock time between consecutive frames.",
			Buckets:   []float64{0.008, 0.012, 0.0167, 0.022, 0.033, 0.05, 0.1},
		}),
		WindowMean: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "herofield",
			Name:      "frame_window_mean_seconds",
			Help:      "Mean frame duration of the last completed governor window.",
		}),
		Windows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "herofield",
			Name:      "governor_windows_total",
			Help:      "Completed governor sample windows.",
		}),
		Degradations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "herofield",
			Name:      "effects_degradations_total",
			Help:      "Times post-processing was disabled under load.",
		}),
		EffectsEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "herofield",
			Name:      "effects_enabled",
			Help:      "1 while the post-processing chain is enabled.",
		}),
		TimeScale: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "herofield",
			Name:      "time_scale",
			Help:      "Current simulation time scale.",
		}),
		ConfigChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "herofield",
			Name:      "config_changes_total",
			Help:      "Applied render configuration changes.",
		}),
		Particles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "herofield",
			Name:      "particles",
			Help:      "Particles in the live simulation.",
		}),
	}
	c.registry.MustRegister(
		c.FrameDuration, c.WindowMean, c.Windows, c.Degradations,
		c.EffectsEnabled, c.TimeScale, c.ConfigChanges, c.Particles,
	)
	return c
}

func (c *Collectors) Registry() *prometheus.Registry { return c.registry }

// ObserveFrame matches governor.FrameFunc.
func (c *Collectors) ObserveFrame(ms float64) {
	c.FrameDuration.Observe(ms / 1000)
}

// ObserveWindow matches governor.WindowFunc.
func (c *Collectors) ObserveWindow(meanMS float64) error {
	c.Windows.Inc()
	c.WindowMean.Set(meanMS / 1000)
	return nil
}

// Seed records the initial configuration.
func (c *Collectors) Seed(r config.Render) {
	c.effects = r.EffectsEnabled
	c.EffectsEnabled.Set(boolGauge(r.EffectsEnabled))
	c.TimeScale.Set(r.TimeScale)
	c.Particles.Set(float64(r.ParticleCount()))
}

// ObserveConfig is a store listener.
func (c *Collectors) ObserveConfig(r config.Render) {
	c.ConfigChanges.Inc()
	if c.effects && !r.EffectsEnabled {
		c.Degradations.Inc()
	}
	c.Seed(r)
}

// NewServer exposes the registry on /metrics.
func (c *Collectors) NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
