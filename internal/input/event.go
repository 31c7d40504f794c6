package input

// Device identifies what produced a pointer event. Mouse, pen and touch
// are handled the same way.
type Device int

const (
	Mouse Device = iota
	Pen
	Touch
)

func (d Device) String() string {
	switch d {
	case Mouse:
		return "mouse"
	case Pen:
		return "pen"
	case Touch:
		return "touch"
	}
	return "unknown"
}

// Event is anything the mapper understands.
type Event interface{ isEvent() }

// Point is a position in viewport pixels.
type Point struct {
	ClientX, ClientY float64
}

type PointerMove struct {
	Point
	Device Device
}

// TouchMove carries every active touch. Only the first one steers the field.
type TouchMove struct {
	Touches []Point
}

type Wheel struct {
	DeltaY float64
}

func (PointerMove) isEvent() {}
func (TouchMove) isEvent()   {}
func (Wheel) isEvent()       {}

// Viewport reports the current viewport size in pixels. It is read at
// every move event, so resizes need no separate notification.
type Viewport func() (width, height float64)
