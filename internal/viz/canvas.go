package viz

import (
	"strings"

	"github.com/san-kum/herofield/internal/render"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800 // Empty braille char
		}
	}
	return c
}

// Set sets a pixel at (x, y) where x,y are in "sub-pixel" coordinates.
// The canvas size in sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	// Early bounds check for negative coordinates
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	subX := x % 2
	subY := y % 4

	c.Grid[row][col] |= rune(pixelMap[subY][subX])
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

// Crosshair marks a point given in normalized [-1, 1] coordinates, y up.
func (c *Canvas) Crosshair(nx, ny float64, arm int) {
	x := int((nx + 1) / 2 * float64(c.Width*2-1))
	y := int((1 - ny) / 2 * float64(c.Height*4-1))
	c.DrawLine(x-arm, y, x+arm, y)
	c.DrawLine(x, y-arm, x, y+arm)
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Plot sets one dot per point, scaling a width x height surface onto the
// canvas.
func (c *Canvas) Plot(points []render.Point, width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	sx := float32(c.Width*2) / float32(width)
	sy := float32(c.Height*4) / float32(height)
	for _, p := range points {
		if p.X < 0 || p.Y < 0 {
			continue
		}
		c.Set(int(p.X*sx), int(p.Y*sy))
	}
}

// Fill reports the share of lit dots, 0 to 1.
func (c *Canvas) Fill() float64 {
	lit := 0
	for _, row := range c.Grid {
		for _, r := range row {
			for v := r - 0x2800; v != 0; v &= v - 1 {
				lit++
			}
		}
	}
	total := c.Width * c.Height * 8
	if total == 0 {
		return 0
	}
	return float64(lit) / float64(total)
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
