package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/herofield/internal/experiment"
	"github.com/san-kum/herofield/internal/input"
)

const (
	width           = 60
	height          = 20
	historyCapacity = 120
	// stepsPerTick frames are simulated per UI refresh.
	stepsPerTick = 2
)

type TickMsg time.Time

// Model steps a bench run and renders its state.
type Model struct {
	exp      *experiment.Experiment
	canvas   *Canvas
	history  []float64
	running  bool
	done     bool
	err      error
	showHelp bool
	last     experiment.Sample
}

func NewModel(exp *experiment.Experiment) Model {
	return Model{
		exp:     exp,
		canvas:  NewCanvas(width, height),
		history: make([]float64, 0, historyCapacity),
		running: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "up", "k":
			m.exp.Handle(input.Wheel{DeltaY: -1})
		case "down", "j":
			m.exp.Handle(input.Wheel{DeltaY: 1})
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionMotion {
			m.steer(msg.X, msg.Y)
		}
	case TickMsg:
		if m.running && !m.done {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	for i := 0; i < stepsPerTick; i++ {
		if m.exp.Frame() >= m.exp.Frames() {
			m.done = true
			return
		}
		s, err := m.exp.Step()
		if err != nil {
			m.err = err
			m.done = true
			return
		}
		m.last = s
		m.history = append(m.history, s.MS)
		if len(m.history) > historyCapacity {
			m.history = m.history[1:]
		}
	}
}

// steer maps a terminal cell over the preview onto the headless surface.
// The preview starts after canvasStyle's padding.
func (m *Model) steer(col, row int) {
	x, y := col-2, row-1
	if x < 0 || y < 0 || x >= width || y >= height {
		return
	}
	s := m.exp.Surface()
	if s == nil {
		return
	}
	w, h := s.Size()
	m.exp.Handle(input.PointerMove{
		Point: input.Point{
			ClientX: (float64(x) + 0.5) / width * float64(w),
			ClientY: (float64(y) + 0.5) / height * float64(h),
		},
		Device: input.Mouse,
	})
}

func (m *Model) draw() {
	m.canvas.Clear()
	s := m.exp.Surface()
	if s == nil {
		return
	}
	w, h := s.Size()
	m.canvas.Plot(s.Points, w, h)
	if f := m.exp.Field(); f != nil && f.Mounted() {
		p := f.Store().Get().Pointer
		m.canvas.Crosshair(p.X, p.Y, 3)
	}
}

func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	res := m.exp.Result()
	var s strings.Builder
	s.WriteString(headerStyle().Render(GradientText("HEROFIELD BENCH", CurrentTheme.Primary, CurrentTheme.Secondary)) + "\n")

	status := statusStyle(CurrentTheme.Success).Render("RUNNING")
	switch {
	case m.err != nil:
		status = statusStyle(CurrentTheme.Error).Render("FAILED: " + m.err.Error())
	case m.done:
		status = statusStyle(CurrentTheme.Accent).Render("DONE")
	case !m.running:
		status = statusStyle(CurrentTheme.Warning).Render("PAUSED")
	}
	s.WriteString(status + "\n\n")

	progress := 0.0
	if m.exp.Frames() > 0 {
		progress = float64(m.exp.Frame()) / float64(m.exp.Frames())
	}
	s.WriteString(ProgressBar(progress, 30) + fmt.Sprintf(" %d/%d\n", m.exp.Frame(), m.exp.Frames()))

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history,
			asciigraph.Height(5), asciigraph.Width(36),
			asciigraph.Caption("frame ms"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	effects := statusStyle(CurrentTheme.Success).Render("ON")
	if !m.last.Effects && m.exp.Frame() > 0 {
		effects = statusStyle(CurrentTheme.Error).Render(fmt.Sprintf("OFF (frame %d)", res.DegradedAt))
	}
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Workload", m.exp.Workload())
	row("Frame", fmt.Sprintf("%.2f ms", m.last.MS))
	row("Mean", fmt.Sprintf("%.2f ms (%.0f fps)", res.Stats.Value(), res.Stats.FPS()))
	row("p95", fmt.Sprintf("%.2f ms", res.Stats.Percentile(95)))
	row("Windows", fmt.Sprintf("%d", res.Windows))
	s.WriteString(labelStyle.Render("Effects") + effects + "\n")
	row("Speed", fmt.Sprintf("%.2fx", m.last.TimeScale))
	if surf := m.exp.Surface(); surf != nil {
		row("Points", fmt.Sprintf("%d (%.0f%% lit)", len(surf.Points), m.canvas.Fill()*100))
	}

	s.WriteString("\n" + Separator(36) + "\n")
	s.WriteString(helpStyle.Render("SP:Pause ↑↓:Speed T:Theme\n?:Help Q:Quit  mouse:steer"))
	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  Up/K     - Speed up (+0.05)         ║
║  Down/J   - Slow down (-0.05)        ║
║  Mouse    - Steer the pointer        ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// Run shows the dashboard until the user quits, then returns the run so far.
func Run(exp *experiment.Experiment) (*experiment.Result, error) {
	if exp.Field() == nil {
		if err := exp.Setup(); err != nil {
			return nil, err
		}
	}
	final, err := tea.NewProgram(NewModel(exp), tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
	if err != nil {
		return nil, err
	}
	if m, ok := final.(Model); ok && m.err != nil {
		return exp.Result(), m.err
	}
	return exp.Result(), nil
}
