// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package softgl

import (
	"fmt"
	"io"
	"math"

	"github.com/2dChan/glvoronoi/render"
	svg "github.com/ajstarks/svgo"
)

// errWriter remembers the first write error; svgo ignores them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

// WriteSVG writes the draws since the last Clear as an SVG document of the
// context's size, on the last clear color.
func (c *Context) WriteSVG(w io.Writer) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(c.width, c.height)
	canvas.Rect(0, 0, c.width, c.height, fill(c.background))

	for _, dc := range c.draws {
		xs, ys := c.screen(dc.Positions)
		stroke := "fill:none;" + strokeStyle(dc.Color)
		switch dc.Mode {
		case render.Points:
			side := max(int(math.Round(float64(dc.PointSize))), 1)
			for i := range xs {
				canvas.Square(xs[i]-side/2, ys[i]-side/2, side, fill(dc.Color))
			}
		case render.Lines:
			for _, s := range segments(dc.Mode, len(xs)) {
				canvas.Line(xs[s[0]], ys[s[0]], xs[s[1]], ys[s[1]], strokeStyle(dc.Color))
			}
		case render.LineStrip:
			canvas.Polyline(xs, ys, stroke)
		case render.LineLoop:
			canvas.Polygon(xs, ys, stroke)
		default:
			for _, t := range triangles(dc.Mode, len(xs)) {
				canvas.Polygon(
					[]int{xs[t[0]], xs[t[1]], xs[t[2]]},
					[]int{ys[t[0]], ys[t[1]], ys[t[2]]},
					fill(dc.Color))
			}
		}
	}
	canvas.End()
	return ew.err
}

// screen rounds the window coordinates of positions to pixels. Positions
// behind the eye are dropped.
func (c *Context) screen(positions [][4]float32) (xs, ys []int) {
	xs = make([]int, 0, len(positions))
	ys = make([]int, 0, len(positions))
	for _, v := range positions {
		p, ok := c.window(v)
		if !ok {
			continue
		}
		xs = append(xs, int(math.Round(float64(p.x))))
		ys = append(ys, int(math.Round(float64(p.y))))
	}
	return xs, ys
}

func rgb(col [4]float32) string {
	n := toNRGBA(col)
	return fmt.Sprintf("rgb(%d,%d,%d)", n.R, n.G, n.B)
}

func fill(col [4]float32) string {
	return fmt.Sprintf("fill:%s;fill-opacity:%.3g", rgb(col), clamp01(col[3]))
}

func strokeStyle(col [4]float32) string {
	return fmt.Sprintf("stroke:%s;stroke-width:1;stroke-opacity:%.3g", rgb(col), clamp01(col[3]))
}
