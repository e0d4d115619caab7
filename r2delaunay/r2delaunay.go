// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package r2delaunay computes planar Delaunay triangulations by lifting the
// points onto a paraboloid and keeping the lower faces of their convex hull.
package r2delaunay

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/markus-wa/quickhull-go/v2"
)

const (
	defaultEps = 1e-12

	// Tolerance on normalized coordinates below which a point set is
	// considered collinear or cocircular.
	degenerateTol = 1e-10
)

var (
	ErrInsufficientVertices = errors.New("r2delaunay: insufficient vertices for triangulation (minimum 3 required)")
	ErrDuplicateVertex      = errors.New("r2delaunay: duplicate vertex")
	ErrCollinear            = errors.New("r2delaunay: all vertices are collinear")
	ErrInconsistentHull     = errors.New("r2delaunay: inconsistent convex hull returned from QuickHull")
)

type Triangulation struct {
	Vertices []r2.Point
	// NOTE: Each triangle is sorted in CCW.
	Triangles [][3]int
	// NOTE: Sorted in CCW around each vertex.
	IncidentTriangleIndices []int
	IncidentTriangleOffsets []int
}

// IncidentTriangles returns the indices of the triangles sharing vertex vIdx.
func (t *Triangulation) IncidentTriangles(vIdx int) []int {
	if vIdx < 0 || vIdx+1 >= len(t.IncidentTriangleOffsets) {
		panic("IncidentTriangles: vIdx out of range")
	}
	start := t.IncidentTriangleOffsets[vIdx]
	end := t.IncidentTriangleOffsets[vIdx+1]
	return t.IncidentTriangleIndices[start:end]
}

// TriangleVertices returns the three corners of triangle tIdx.
func (t *Triangulation) TriangleVertices(tIdx int) (r2.Point, r2.Point, r2.Point) {
	if tIdx < 0 || tIdx >= len(t.Triangles) {
		panic("TriangleVertices: tIdx out of bounds")
	}
	tri := t.Triangles[tIdx]
	return t.Vertices[tri[0]], t.Vertices[tri[1]], t.Vertices[tri[2]]
}

// Neighbors returns the vertices joined to vIdx by a triangulation edge,
// without repetitions, in CCW order.
func (t *Triangulation) Neighbors(vIdx int) []int {
	incident := t.IncidentTriangles(vIdx)
	out := make([]int, 0, len(incident)+1)
	seen := make(map[int]struct{}, len(incident)+1)
	add := func(v int) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	for _, tIdx := range incident {
		tri := t.Triangles[tIdx]
		add(NextVertex(tri, vIdx))
		add(PrevVertex(tri, vIdx))
	}
	return out
}

type TriangulationOptions struct {
	Eps float64
}

type TriangulationOption func(*TriangulationOptions) error

// WithEps sets the tolerance handed to the convex hull computation.
func WithEps(eps float64) TriangulationOption {
	return func(o *TriangulationOptions) error {
		if eps <= 0 || math.IsNaN(eps) {
			return fmt.Errorf("WithEps: eps must be positive, got %v", eps)
		}
		o.Eps = eps
		return nil
	}
}

// NewTriangulation computes the Delaunay triangulation of vertices.
// Vertices must be pairwise distinct and not all collinear. Cocircular
// inputs, which have no unique triangulation, are fanned around the circle.
func NewTriangulation(vertices []r2.Point, setters ...TriangulationOption) (*Triangulation, error) {
	opts := TriangulationOptions{
		Eps: defaultEps,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	numVertices := len(vertices)
	if numVertices < 3 {
		return nil, ErrInsufficientVertices
	}
	seen := make(map[r2.Point]int, numVertices)
	for i, v := range vertices {
		if j, ok := seen[v]; ok {
			return nil, fmt.Errorf("%w: %d and %d at %v", ErrDuplicateVertex, j, i, v)
		}
		seen[v] = i
	}

	lifted := liftNormalized(vertices)
	i0, i1, i2, i3, ok := spanningTetrahedron(lifted)
	if !ok {
		return nil, ErrCollinear
	}

	var triangles [][3]int
	if i3 < 0 {
		triangles = fanTriangles(vertices, i0, i1, i2)
	} else {
		var err error
		triangles, err = lowerHullTriangles(lifted, opts.Eps)
		if err != nil {
			return nil, err
		}
	}

	t := &Triangulation{
		Vertices:                vertices,
		Triangles:               triangles,
		IncidentTriangleIndices: make([]int, len(triangles)*3),
		IncidentTriangleOffsets: make([]int, numVertices+1),
	}
	for i := range t.Triangles {
		sortTriangleVerticesCCW(&t.Triangles[i], vertices)
		for _, v := range t.Triangles[i] {
			t.IncidentTriangleOffsets[v+1]++
		}
	}
	for i := 0; i < numVertices; i++ {
		t.IncidentTriangleOffsets[i+1] += t.IncidentTriangleOffsets[i]
	}

	nxt := make([]int, numVertices)
	copy(nxt, t.IncidentTriangleOffsets[:numVertices])
	for i, tri := range t.Triangles {
		for _, v := range tri {
			t.IncidentTriangleIndices[nxt[v]] = i
			nxt[v]++
		}
	}

	for i := 0; i < numVertices; i++ {
		sortIncidentTrianglesCCW(i, t.IncidentTriangles(i), t)
	}

	return t, nil
}

// liftNormalized maps the points into a unit-sized frame around their
// centroid and lifts them onto the paraboloid z = x² + y².
func liftNormalized(vertices []r2.Point) []r3.Vector {
	var c r2.Point
	for _, v := range vertices {
		c = c.Add(v)
	}
	c = c.Mul(1 / float64(len(vertices)))

	scale := 0.0
	for _, v := range vertices {
		scale = math.Max(scale, v.Sub(c).Norm())
	}
	if scale == 0 {
		scale = 1
	}

	lifted := make([]r3.Vector, len(vertices))
	for i, v := range vertices {
		p := v.Sub(c).Mul(1 / scale)
		lifted[i] = r3.Vector{X: p.X, Y: p.Y, Z: p.X*p.X + p.Y*p.Y}
	}
	return lifted
}

// spanningTetrahedron picks four lifted points spanning the largest volume
// it can find greedily. ok is false when the planar points are collinear;
// i3 is -1 when they are cocircular (the lifted points are coplanar).
func spanningTetrahedron(lifted []r3.Vector) (i0, i1, i2, i3 int, ok bool) {
	flat := func(v r3.Vector) r3.Vector { return r3.Vector{X: v.X, Y: v.Y} }

	best := 0.0
	for i, v := range lifted {
		if d := flat(v).Sub(flat(lifted[i0])).Norm(); d > best {
			best, i1 = d, i
		}
	}
	if best <= degenerateTol {
		return 0, 0, 0, 0, false
	}

	e := flat(lifted[i1]).Sub(flat(lifted[i0]))
	best = 0
	for i, v := range lifted {
		if a := math.Abs(e.Cross(flat(v).Sub(flat(lifted[i0]))).Z); a > best {
			best, i2 = a, i
		}
	}
	if best <= degenerateTol {
		return 0, 0, 0, 0, false
	}

	n := lifted[i1].Sub(lifted[i0]).Cross(lifted[i2].Sub(lifted[i0]))
	best = 0
	i3 = -1
	for i, v := range lifted {
		if vol := math.Abs(n.Dot(v.Sub(lifted[i0]))); vol > best {
			best, i3 = vol, i
		}
	}
	if best <= degenerateTol {
		i3 = -1
	}
	return i0, i1, i2, i3, true
}

// fanTriangles triangulates points lying on a common circle, which form a
// convex polygon, as a fan from the first point in angular order.
func fanTriangles(vertices []r2.Point, i0, i1, i2 int) [][3]int {
	a, b, c := vertices[i0], vertices[i1], vertices[i2]
	center := circumcenter(a, b, c)

	order := make([]int, len(vertices))
	for i := range order {
		order[i] = i
	}
	angle := func(i int) float64 {
		d := vertices[i].Sub(center)
		return math.Atan2(d.Y, d.X)
	}
	sort.Slice(order, func(i, j int) bool { return angle(order[i]) < angle(order[j]) })

	tris := make([][3]int, 0, len(vertices)-2)
	for k := 1; k+1 < len(order); k++ {
		tris = append(tris, [3]int{order[0], order[k], order[k+1]})
	}
	return tris
}

func lowerHullTriangles(lifted []r3.Vector, eps float64) ([][3]int, error) {
	qh := new(quickhull.QuickHull)
	ch := qh.ConvexHull(lifted, true, true, eps)
	if len(ch.Indices) == 0 || len(ch.Indices)%3 != 0 {
		return nil, ErrInconsistentHull
	}

	var g r3.Vector
	for _, v := range lifted {
		g = g.Add(v)
	}
	g = g.Mul(1 / float64(len(lifted)))

	tris := make([][3]int, 0, len(ch.Indices)/3)
	for base := 0; base < len(ch.Indices); base += 3 {
		tri := [3]int{ch.Indices[base], ch.Indices[base+1], ch.Indices[base+2]}
		for _, v := range tri {
			if v < 0 || v >= len(lifted) {
				return nil, ErrInconsistentHull
			}
		}
		a, b, c := lifted[tri[0]], lifted[tri[1]], lifted[tri[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		norm := n.Norm()
		if norm <= degenerateTol {
			continue
		}
		// Orient the normal away from the hull interior.
		if g.Sub(a).Dot(n) > 0 {
			n = n.Mul(-1)
		}
		if n.Z < -degenerateTol*norm {
			tris = append(tris, tri)
		}
	}
	if len(tris) == 0 {
		return nil, ErrInconsistentHull
	}
	return tris, nil
}

func circumcenter(a, b, c r2.Point) r2.Point {
	ab, ac := b.Sub(a), c.Sub(a)
	d := 2 * ab.Cross(ac)
	ab2, ac2 := ab.Dot(ab), ac.Dot(ac)
	return r2.Point{
		X: a.X + (ac.Y*ab2-ab.Y*ac2)/d,
		Y: a.Y + (ab.X*ac2-ac.X*ab2)/d,
	}
}

func sortTriangleVerticesCCW(t *[3]int, v []r2.Point) {
	p0, p1, p2 := v[t[0]], v[t[1]], v[t[2]]
	if p1.Sub(p0).Cross(p2.Sub(p0)) < 0 {
		t[1], t[2] = t[2], t[1]
	}
}

func sortIncidentTrianglesCCW(vIdx int, incidentTris []int, t *Triangulation) {
	p := t.Vertices[vIdx]
	angle := func(tIdx int) float64 {
		a, b, c := t.TriangleVertices(tIdx)
		d := a.Add(b).Add(c).Mul(1.0 / 3).Sub(p)
		return math.Atan2(d.Y, d.X)
	}
	sort.Slice(incidentTris, func(i, j int) bool {
		return angle(incidentTris[i]) < angle(incidentTris[j])
	})
}

func PrevVertex(t [3]int, vIdx int) int {
	switch vIdx {
	case t[0]:
		return t[2]
	case t[1]:
		return t[0]
	case t[2]:
		return t[1]
	}
	panic("PrevVertex: vIdx not in triangle")
}

func NextVertex(t [3]int, vIdx int) int {
	switch vIdx {
	case t[0]:
		return t[1]
	case t[1]:
		return t[2]
	case t[2]:
		return t[0]
	}
	panic("NextVertex: vIdx not in triangle")
}
