package gui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/san-kum/herofield/internal/input"
)

// frameInput is the raw window input gathered once per frame.
type frameInput struct {
	Mouse      rl.Vector2
	MouseDelta rl.Vector2
	Wheel      float32
	Touches    []rl.Vector2
}

func pollInput(buf []rl.Vector2) frameInput {
	in := frameInput{
		Mouse:      rl.GetMousePosition(),
		MouseDelta: rl.GetMouseDelta(),
		Wheel:      rl.GetMouseWheelMove(),
		Touches:    buf[:0],
	}
	for i := int32(0); i < rl.GetTouchPointCount(); i++ {
		in.Touches = append(in.Touches, rl.GetTouchPosition(i))
	}
	return in
}

// events converts one frame of window input into field events. Touch wins
// over the mouse, which raylib also reports for the primary touch. A
// positive raylib wheel move scrolls up, the opposite sign of DeltaY.
func (in frameInput) events(dst []input.Event) []input.Event {
	dst = dst[:0]
	switch {
	case len(in.Touches) > 0:
		touches := make([]input.Point, len(in.Touches))
		for i, t := range in.Touches {
			touches[i] = input.Point{ClientX: float64(t.X), ClientY: float64(t.Y)}
		}
		dst = append(dst, input.TouchMove{Touches: touches})
	case in.MouseDelta.X != 0 || in.MouseDelta.Y != 0:
		dst = append(dst, input.PointerMove{
			Point:  input.Point{ClientX: float64(in.Mouse.X), ClientY: float64(in.Mouse.Y)},
			Device: input.Mouse,
		})
	}
	if in.Wheel != 0 {
		dst = append(dst, input.Wheel{DeltaY: -float64(in.Wheel)})
	}
	return dst
}

// windowVisible reports whether the window can currently be seen.
func windowVisible() bool {
	return !rl.IsWindowMinimized() && !rl.IsWindowHidden()
}
