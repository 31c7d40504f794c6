// Package export writes bench results as standalone SVG images.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/herofield/internal/render"
)

const background = "#06060a"

func header(sb *strings.Builder, width, height int) {
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background))
}

// PointsToSVG draws a frame's particle layout. Every stride-th point is
// kept so large grids stay a reasonable file size.
func PointsToSVG(points []render.Point, width, height, stride int) string {
	if stride < 1 {
		stride = 1
	}
	var sb strings.Builder
	header(&sb, width, height)
	sb.WriteString("<g>\n")
	for i := 0; i < len(points); i += stride {
		p := points[i]
		if p.X < 0 || p.Y < 0 || p.X > float32(width) || p.Y > float32(height) {
			continue
		}
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="#%02x%02x%02x" fill-opacity="%.2f"/>
`, p.X, p.Y, p.Size, p.Color.R, p.Color.G, p.Color.B, float64(p.Color.A)/255))
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// FrameTimesToSVG plots frame durations in milliseconds with the governor
// budget as a dashed line. Frames where effects were off are shaded.
func FrameTimesToSVG(ms []float64, effects []bool, budgetMS float64, width, height int) string {
	if len(ms) < 2 {
		return ""
	}

	maxY := budgetMS
	for _, v := range ms {
		if v > maxY {
			maxY = v
		}
	}
	if maxY <= 0 {
		maxY = 1
	}
	maxY *= 1.1

	x := func(i int) float64 { return float64(i) / float64(len(ms)-1) * float64(width) }
	y := func(v float64) float64 { return float64(height) - v/maxY*float64(height) }

	var sb strings.Builder
	header(&sb, width, height)

	for i := 0; i < len(effects) && i < len(ms); i++ {
		if effects[i] {
			continue
		}
		start := i
		for i < len(effects) && i < len(ms) && !effects[i] {
			i++
		}
		sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="0" width="%.1f" height="%d" fill="#ff4757" fill-opacity="0.12"/>
`, x(start), x(i-1)-x(start), height))
	}

	if budgetMS > 0 {
		sb.WriteString(fmt.Sprintf(`<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="#ffcc00" stroke-dasharray="6 4"/>
`, y(budgetMS), width, y(budgetMS)))
	}

	sb.WriteString(`<path fill="none" stroke="#64ffda" stroke-width="1.5" d="M`)
	for i, v := range ms {
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x(i), y(v)))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x(i), y(v)))
		}
	}
	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
