// Package viz renders a headless bench run in the terminal.
//
// The dashboard is a Bubble Tea program that steps an
// [experiment.Experiment] on every tick and shows:
//
//   - a Braille [Canvas] preview of the particle layout
//   - the recent frame times against the governor budget
//   - the current effects state, time scale and governor windows
//
// # Key Bindings
//
//	Space - Pause/Resume
//	Up/K  - Speed up (wheel up)
//	Down/J - Slow down (wheel down)
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
//
// Mouse motion over the preview steers the field's pointer.
package viz
