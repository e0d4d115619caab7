// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package glvoronoi

import (
	"math"

	"github.com/golang/geo/r2"
)

// vertex is a polygon corner together with the site whose bisector carries
// the edge leaving it.
type vertex struct {
	p    r2.Point
	edge int
}

func boxPolygon(box r2.Rect) []vertex {
	return []vertex{
		{p: box.Lo(), edge: BoxEdge},
		{p: r2.Point{X: box.X.Hi, Y: box.Y.Lo}, edge: BoxEdge},
		{p: box.Hi(), edge: BoxEdge},
		{p: r2.Point{X: box.X.Lo, Y: box.Y.Hi}, edge: BoxEdge},
	}
}

// clipBisector keeps the part of the convex polygon poly that is at least as
// close to s as to o. New edges along the bisector are tagged with tag.
// The result is nil when fewer than three distinct corners remain.
func clipBisector(poly []vertex, s, o r2.Point, tag int, eps float64) []vertex {
	n := o.Sub(s)
	m := s.Add(o).Mul(0.5)
	tol := eps * n.Norm()
	side := func(p r2.Point) float64 { return p.Sub(m).Dot(n) }

	out := make([]vertex, 0, len(poly)+1)
	for k, a := range poly {
		b := poly[(k+1)%len(poly)]
		da, db := side(a.p), side(b.p)
		inA, inB := da <= tol, db <= tol
		switch {
		case inA && inB:
			out = appendVertex(out, a, eps)
		case inA && !inB:
			out = appendVertex(out, a, eps)
			out = appendVertex(out, vertex{p: intersect(a.p, b.p, da, db), edge: tag}, eps)
		case !inA && inB:
			out = appendVertex(out, vertex{p: intersect(a.p, b.p, da, db), edge: a.edge}, eps)
		}
	}

	for len(out) > 1 && samePoint(out[len(out)-1].p, out[0].p, eps) {
		out = out[:len(out)-1]
	}
	if len(out) < 3 {
		return nil
	}
	return out
}

// appendVertex appends v unless it repeats the last corner, in which case
// the zero-length edge is dropped and the last corner takes v's edge.
func appendVertex(out []vertex, v vertex, eps float64) []vertex {
	if n := len(out); n > 0 && samePoint(out[n-1].p, v.p, eps) {
		out[n-1].edge = v.edge
		return out
	}
	return append(out, v)
}

func intersect(a, b r2.Point, da, db float64) r2.Point {
	t := da / (da - db)
	return a.Add(b.Sub(a).Mul(t))
}

func samePoint(a, b r2.Point, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps
}
