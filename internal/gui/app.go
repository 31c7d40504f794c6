// Package gui hosts the particle field in a desktop window using raylib.
package gui

import (
	"errors"
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/san-kum/herofield/internal/compute"
	"github.com/san-kum/herofield/internal/config"
	"github.com/san-kum/herofield/internal/field"
	"github.com/san-kum/herofield/internal/input"
	"github.com/san-kum/herofield/internal/metrics"
	"github.com/san-kum/herofield/internal/profile"
	"go.uber.org/zap"
)

var (
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
)

type Options struct {
	Settings *config.Settings
	Profile  profile.Profile
	Kernel   compute.Kernel
	Metrics  *metrics.Collectors
	Logger   *zap.Logger
	ShowHUD  bool
	// Force keeps post-processing on whatever the governor decides.
	Force bool
}

type App struct {
	opts    Options
	log     *zap.Logger
	field   *field.Field
	surface *Surface
	backend string

	events  []input.Event
	touches []rl.Vector2
	showHUD bool
}

func initWindow(s *config.Settings) {
	rl.SetTraceLogLevel(rl.LogWarning)
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagWindowHighdpi | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(s.Width), int32(s.Height), "herofield")
	rl.SetTargetFPS(int32(s.TargetFPS))
	rl.SetExitKey(0)
}

// Run opens the window and blocks until it is closed. If the field cannot
// be mounted the window stays up without the animated background.
func Run(opts Options) error {
	if opts.Settings == nil {
		opts.Settings = config.DefaultSettings()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	initWindow(opts.Settings)
	defer rl.CloseWindow()

	app := NewApp(opts)
	defer app.Close()
	app.RunLoop()
	return nil
}

// NewApp mounts the field. It needs an open window for the GL context.
func NewApp(opts Options) *App {
	a := &App{opts: opts, log: opts.Logger, showHUD: opts.ShowHUD}
	if err := a.mount(); err != nil {
		a.log.Error("particle field disabled", zap.Error(err))
	}
	return a
}

func (a *App) mount() error {
	surface, err := NewSurface()
	if err != nil {
		return err
	}
	surface.Overlay = a.DrawHUD

	backend := compute.AutoSelect(a.opts.Settings.Backend, a.log)
	f, err := field.Mount(field.Options{
		Profile:      a.opts.Profile,
		Settings:     a.opts.Settings,
		Backend:      backend,
		Kernel:       a.opts.Kernel,
		Surface:      surface,
		Metrics:      a.opts.Metrics,
		Logger:       a.log,
		ForceEffects: a.opts.Force,
	})
	if err != nil {
		var initErr *compute.InitError
		if errors.As(err, &initErr) {
			a.log.Warn("compute backend failed", zap.String("backend", initErr.Backend), zap.String("stage", initErr.Stage))
		}
		return err
	}
	a.field, a.surface, a.backend = f, surface, backend.Name()
	return nil
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		if rl.IsKeyPressed(rl.KeyQ) {
			return
		}
		if rl.IsKeyPressed(rl.KeyH) {
			a.showHUD = !a.showHUD
		}
		a.Update()
	}
}

// Update runs one frame: forward input, then tick the field, which draws
// and presents. Without a field only the HUD is drawn.
func (a *App) Update() {
	if a.field == nil {
		rl.BeginDrawing()
		rl.ClearBackground(ColBg)
		a.DrawHUD()
		rl.EndDrawing()
		return
	}

	a.field.SetVisible(windowVisible())
	in := pollInput(a.touches)
	a.touches = in.Touches
	a.events = in.events(a.events)
	for _, ev := range a.events {
		a.field.Handle(ev)
	}

	if err := a.field.Tick(time.Now()); err != nil {
		a.log.Error("frame failed, removing particle field", zap.Error(err))
		a.field.Unmount()
		a.field = nil
	}
}

func (a *App) DrawHUD() {
	if !a.showHUD {
		return
	}
	rl.DrawText("herofield", 30, 30, 20, ColSelect)
	rl.DrawText(fmt.Sprintf("%d FPS", rl.GetFPS()), 30, int32(rl.GetScreenHeight())-40, 14, ColTextDim)
	if a.field == nil {
		rl.DrawText("particle field unavailable", 30, 60, 14, ColText)
		return
	}

	cfg := a.field.Store().Get()
	frame := a.field.LastFrame()
	effects := "OFF"
	if cfg.EffectsEnabled {
		effects = "ON"
	}
	lines := []string{
		fmt.Sprintf("backend  %s / %s", a.backend, a.field.Stage().Kernel()),
		fmt.Sprintf("profile  %s", a.field.Profile()),
		fmt.Sprintf("grid     %dx%d (%d points)", cfg.GridSide, cfg.GridSide, frame.DrawCount),
		fmt.Sprintf("ratio    %.2f (cap %.2f)", frame.PixelRatio, cfg.PixelDensityCap),
		fmt.Sprintf("effects  %s %v", effects, frame.Passes),
		fmt.Sprintf("speed    %.2fx", cfg.TimeScale),
		fmt.Sprintf("pointer  %+.2f %+.2f", cfg.Pointer.X, cfg.Pointer.Y),
	}
	for i, line := range lines {
		rl.DrawText(line, 30, int32(60+i*18), 14, ColText)
	}
	rl.DrawText("[WHEEL] SPEED  [H] HUD  [Q] QUIT", int32(rl.GetScreenWidth())-300, int32(rl.GetScreenHeight())-40, 14, ColTextDim)
}

// Close unmounts the field, which releases the surface and backend.
func (a *App) Close() {
	if a.field != nil {
		a.field.Unmount()
		a.field = nil
		return
	}
	if a.surface != nil {
		a.surface.Close()
	}
}
