// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package softgl

import (
	"image"
	"image/draw"
	"math"

	"github.com/2dChan/glvoronoi/render"
)

const floatSize = 4

func (c *Context) VertexAttribPointer(index uint32, size int32, typ render.Enum, normalized bool, stride, offset int32) {
	c.call("VertexAttribPointer")
	switch {
	case index >= MaxVertexAttribs, size < 1 || size > 4, stride < 0 || offset < 0:
		c.record(render.InvalidValue)
		return
	case typ != render.Float:
		c.record(render.InvalidEnum)
		return
	case stride%floatSize != 0 || offset%floatSize != 0, c.arrayBuffer == 0:
		c.record(render.InvalidOperation)
		return
	}
	a := &c.attribs[index]
	a.set = true
	a.size, a.stride, a.offset = size, stride, offset
	a.buffer = c.arrayBuffer
}

func (c *Context) EnableVertexAttribArray(index uint32) {
	c.call("EnableVertexAttribArray")
	if index >= MaxVertexAttribs {
		c.record(render.InvalidValue)
		return
	}
	c.attribs[index].enabled = true
}

func (c *Context) DrawArrays(mode render.Enum, first, count int32) {
	c.call("DrawArrays")
	switch {
	case mode > render.TriangleFan:
		c.record(render.InvalidEnum)
		return
	case first < 0 || count < 0:
		c.record(render.InvalidValue)
		return
	case c.current == 0:
		c.record(render.InvalidOperation)
		return
	}
	prog := c.programs[c.current]
	if !prog.linked {
		c.record(render.InvalidOperation)
		return
	}
	a := c.attribs[prog.position]

	var data []float32
	if a.enabled {
		buf, ok := c.buffers[a.buffer]
		if !a.set || !ok {
			c.record(render.InvalidOperation)
			return
		}
		data = buf.data
	}
	stride := int(a.stride / floatSize)
	if stride == 0 {
		stride = int(a.size)
	}
	base := int(a.offset / floatSize)
	if a.enabled && count > 0 && base+int(first+count-1)*stride+int(a.size) > len(data) {
		c.record(render.InvalidOperation)
		return
	}

	positions := make([][4]float32, count)
	for i := range positions {
		v := [4]float32{0, 0, 0, 1}
		if a.enabled {
			k := base + (int(first)+i)*stride
			copy(v[:a.size], data[k:k+int(a.size)])
		}
		for j := range v {
			v[j] += prog.vs.offset[j]
		}
		positions[i] = v
	}

	dc := DrawCall{
		Mode:      mode,
		First:     first,
		Count:     count,
		Positions: positions,
		PointSize: prog.vs.pointSize,
		Color:     prog.fs.color,
	}
	if a.enabled {
		dc.Buffer = a.buffer
	}
	c.draws = append(c.draws, dc)
	c.rasterize(dc)
}

type point struct {
	x, y float32
}

// window maps a clip-space position to pixel coordinates with y down.
func (c *Context) window(v [4]float32) (point, bool) {
	if v[3] <= 0 {
		return point{}, false
	}
	x, y := v[0]/v[3], v[1]/v[3]
	return point{
		x: (x + 1) / 2 * float32(c.width),
		y: (1 - y) / 2 * float32(c.height),
	}, true
}

func (c *Context) rasterize(dc DrawCall) {
	src := image.NewUniform(toNRGBA(dc.Color))
	n := len(dc.Positions)

	switch dc.Mode {
	case render.Points:
		half := max(dc.PointSize, 1) / 2
		for _, v := range dc.Positions {
			if v[3] <= 0 || math.Abs(float64(v[0]/v[3])) > 1 || math.Abs(float64(v[1]/v[3])) > 1 {
				continue
			}
			p, _ := c.window(v)
			c.fill(src, []point{
				{p.x - half, p.y - half}, {p.x + half, p.y - half},
				{p.x + half, p.y + half}, {p.x - half, p.y + half},
			})
		}
	case render.Lines, render.LineStrip, render.LineLoop:
		for _, s := range segments(dc.Mode, n) {
			a, aok := c.window(dc.Positions[s[0]])
			b, bok := c.window(dc.Positions[s[1]])
			if !aok || !bok {
				continue
			}
			if q := lineQuad(a, b, 1); q != nil {
				c.fill(src, q)
			}
		}
	default:
		for _, t := range triangles(dc.Mode, n) {
			poly := make([]point, 0, 3)
			for _, i := range t {
				if p, ok := c.window(dc.Positions[i]); ok {
					poly = append(poly, p)
				}
			}
			if len(poly) == 3 {
				c.fill(src, poly)
			}
		}
	}
}

// fill composites the polygon, clipped to the viewport, over the color buffer.
func (c *Context) fill(src image.Image, poly []point) {
	poly = clipViewport(poly, float32(c.width), float32(c.height))
	if len(poly) < 3 {
		return
	}
	c.raster.Reset(c.width, c.height)
	c.raster.DrawOp = draw.Over
	c.raster.MoveTo(poly[0].x, poly[0].y)
	for _, p := range poly[1:] {
		c.raster.LineTo(p.x, p.y)
	}
	c.raster.ClosePath()
	c.raster.Draw(c.img, c.img.Bounds(), src, image.Point{})
}

// lineQuad returns the rectangle covering the segment ab with the given width.
func lineQuad(a, b point, width float32) []point {
	dx, dy := b.x-a.x, b.y-a.y
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		return nil
	}
	nx, ny := -dy/l*width/2, dx/l*width/2
	return []point{
		{a.x + nx, a.y + ny}, {b.x + nx, b.y + ny},
		{b.x - nx, b.y - ny}, {a.x - nx, a.y - ny},
	}
}

// segments returns the vertex index pairs of the line primitives of a draw.
func segments(mode render.Enum, n int) [][2]int {
	var s [][2]int
	switch mode {
	case render.Lines:
		for i := 0; i+1 < n; i += 2 {
			s = append(s, [2]int{i, i + 1})
		}
	case render.LineStrip, render.LineLoop:
		for i := 0; i+1 < n; i++ {
			s = append(s, [2]int{i, i + 1})
		}
		if mode == render.LineLoop && n > 2 {
			s = append(s, [2]int{n - 1, 0})
		}
	}
	return s
}

// triangles returns the vertex index triples of the triangle primitives of
// a draw.
func triangles(mode render.Enum, n int) [][3]int {
	var t [][3]int
	switch mode {
	case render.Triangles:
		for i := 0; i+2 < n; i += 3 {
			t = append(t, [3]int{i, i + 1, i + 2})
		}
	case render.TriangleStrip:
		for i := 0; i+2 < n; i++ {
			if i%2 == 0 {
				t = append(t, [3]int{i, i + 1, i + 2})
			} else {
				t = append(t, [3]int{i + 1, i, i + 2})
			}
		}
	case render.TriangleFan:
		for i := 1; i+1 < n; i++ {
			t = append(t, [3]int{0, i, i + 1})
		}
	}
	return t
}

// clipViewport clips poly to [0,w]×[0,h] (Sutherland-Hodgman).
func clipViewport(poly []point, w, h float32) []point {
	edges := []struct {
		inside func(point) bool
		cross  func(a, b point) point
	}{
		{func(p point) bool { return p.x >= 0 }, func(a, b point) point { return atX(a, b, 0) }},
		{func(p point) bool { return p.x <= w }, func(a, b point) point { return atX(a, b, w) }},
		{func(p point) bool { return p.y >= 0 }, func(a, b point) point { return atY(a, b, 0) }},
		{func(p point) bool { return p.y <= h }, func(a, b point) point { return atY(a, b, h) }},
	}
	for _, e := range edges {
		if len(poly) == 0 {
			return nil
		}
		out := make([]point, 0, len(poly)+2)
		prev := poly[len(poly)-1]
		for _, cur := range poly {
			switch {
			case e.inside(cur) && e.inside(prev):
				out = append(out, cur)
			case e.inside(cur):
				out = append(out, e.cross(prev, cur), cur)
			case e.inside(prev):
				out = append(out, e.cross(prev, cur))
			}
			prev = cur
		}
		poly = out
	}
	return poly
}

func atX(a, b point, x float32) point {
	t := (x - a.x) / (b.x - a.x)
	return point{x, a.y + t*(b.y-a.y)}
}

func atY(a, b point, y float32) point {
	t := (y - a.y) / (b.y - a.y)
	return point{a.x + t*(b.x-a.x), y}
}
