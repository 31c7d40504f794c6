package experiment

import "github.com/san-kum/herofield/internal/render"

// Surface is a headless render target. It records what each frame asked
// for so a bench run can be inspected or previewed in a terminal.
type Surface struct {
	width, height int
	ratio         float64

	Frames     int
	Composites int
	Points     []render.Point
	Passes     []render.Pass
	PixelRatio float64
	closed     bool
}

func NewSurface(width, height int, devicePixelRatio float64) *Surface {
	return &Surface{width: width, height: height, ratio: devicePixelRatio}
}

func (s *Surface) DevicePixelRatio() float64 { return s.ratio }
func (s *Surface) Size() (int, int)          { return s.width, s.height }

func (s *Surface) BeginFrame(ratio float64) error {
	s.PixelRatio = ratio
	s.Passes = nil
	return nil
}

// DrawPoints keeps a reference to points; it is valid until the next frame.
func (s *Surface) DrawPoints(points []render.Point, _ float64) error {
	s.Points = points
	return nil
}

func (s *Surface) Composite(passes []render.Pass, _ float64) error {
	s.Composites++
	s.Passes = passes
	return nil
}

func (s *Surface) EndFrame() error {
	s.Frames++
	return nil
}

func (s *Surface) Close() error {
	s.closed = true
	s.Points = nil
	return nil
}

func (s *Surface) Closed() bool { return s.closed }
