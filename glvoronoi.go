// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package glvoronoi

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/2dChan/glvoronoi/r2delaunay"
	"github.com/golang/geo/r2"
)

const (
	// BoxSize is the side of the square clipping box [0, BoxSize]² used for
	// sites sampled from [0, 2).
	BoxSize = 1.98

	// BoxEdge marks a cell edge that lies on the clipping box.
	BoxEdge = -1

	defaultEps = 1e-12
)

var ErrInvalidBoxSize = errors.New("glvoronoi: box size must be positive and finite")

type Diagram struct {
	Sites []r2.Point
	Box   r2.Rect

	// NOTE: Sort in CCW per Cell.
	CellVertices []r2.Point
	// CellNeighbors[k] is the site whose bisector carries the edge leaving
	// CellVertices[k], or BoxEdge.
	CellNeighbors []int
	CellOffsets   []int
}

type DiagramOptions struct {
	Eps         float64
	Triangulate bool
}

type DiagramOption func(*DiagramOptions) error

// WithEps sets the distance under which two points are considered equal.
func WithEps(eps float64) DiagramOption {
	return func(o *DiagramOptions) error {
		if eps <= 0 || math.IsNaN(eps) {
			return fmt.Errorf("WithEps: eps must be positive, got %v", eps)
		}
		o.Eps = eps
		return nil
	}
}

// WithoutTriangulation makes every other site a clipping candidate instead
// of only the Delaunay neighbours.
func WithoutTriangulation() DiagramOption {
	return func(o *DiagramOptions) error {
		o.Triangulate = false
		return nil
	}
}

// NewDiagram computes the Voronoi diagram of sites clipped to the square
// [0, boxSize]². Every site gets a cell; sites outside the box and repeated
// sites get an empty one.
func NewDiagram(sites []r2.Point, boxSize float64, setters ...DiagramOption) (*Diagram, error) {
	opts := DiagramOptions{
		Eps:         defaultEps,
		Triangulate: true,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}
	if !(boxSize > 0) || math.IsInf(boxSize, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBoxSize, boxSize)
	}

	d := &Diagram{
		Sites:       sites,
		Box:         r2.RectFromPoints(r2.Point{}, r2.Point{X: boxSize, Y: boxSize}),
		CellOffsets: make([]int, len(sites)+1),
	}

	active := activeSites(sites, d.Box, opts.Eps)
	ids := activeIDs(active)

	var cells [][]vertex
	if opts.Triangulate {
		if neighbors, ok := d.delaunayCandidates(ids, opts.Eps); ok {
			cells = d.clipCells(active, neighbors, opts.Eps)
			if !partitionsBox(cells, d.Box) {
				Logger().Debug("triangulated cells overlap, clipping against all sites")
				cells = nil
			}
		}
	}
	if cells == nil {
		cells = d.clipCells(active, allCandidates(ids), opts.Eps)
	}

	for i, cell := range cells {
		for _, v := range cell {
			d.CellVertices = append(d.CellVertices, v.p)
			d.CellNeighbors = append(d.CellNeighbors, v.edge)
		}
		d.CellOffsets[i+1] = len(d.CellVertices)
	}

	return d, nil
}

func (d *Diagram) NumCells() int {
	return len(d.Sites)
}

func (d *Diagram) Cell(i int) (Cell, error) {
	if i < 0 || i >= d.NumCells() {
		return Cell{}, fmt.Errorf("Cell: index %d out of range [0 %d)", i, d.NumCells())
	}
	return Cell{idx: i, d: d}, nil
}

// Polygons returns one closed CCW vertex loop per site, clipped to the box.
// Degenerate cells yield empty polygons. The slices are copies.
func (d *Diagram) Polygons() [][]r2.Point {
	polys := make([][]r2.Point, d.NumCells())
	for i := range polys {
		start, end := d.CellOffsets[i], d.CellOffsets[i+1]
		polys[i] = append(make([]r2.Point, 0, end-start), d.CellVertices[start:end]...)
	}
	return polys
}

// activeSites marks the sites that take part in the diagram: inside the box
// and not a repeat of an earlier site.
func activeSites(sites []r2.Point, box r2.Rect, eps float64) []bool {
	active := make([]bool, len(sites))
	order := make([]int, 0, len(sites))
	for i, s := range sites {
		if !box.ContainsPoint(s) {
			Logger().Debug("site outside box", "site", i, "x", s.X, "y", s.Y)
			continue
		}
		active[i] = true
		order = append(order, i)
	}

	sort.Slice(order, func(a, b int) bool { return sites[order[a]].X < sites[order[b]].X })
	for a, i := range order {
		for _, j := range order[a+1:] {
			if sites[j].X-sites[i].X > eps {
				break
			}
			if math.Abs(sites[j].Y-sites[i].Y) > eps || !active[i] || !active[j] {
				continue
			}
			dup := max(i, j)
			active[dup] = false
			Logger().Debug("coincident site", "site", dup, "with", min(i, j))
		}
	}
	return active
}

// clipCells clips the box against the bisectors of every candidate of each
// active site.
func (d *Diagram) clipCells(active []bool, candidates func(int) []int, eps float64) [][]vertex {
	box := boxPolygon(d.Box)
	cells := make([][]vertex, len(d.Sites))
	for i, s := range d.Sites {
		if !active[i] {
			continue
		}
		cell := box
		for _, j := range candidates(i) {
			cell = clipBisector(cell, s, d.Sites[j], j, eps)
			if len(cell) == 0 {
				break
			}
		}
		cells[i] = cell
	}
	return cells
}

// partitionsBox reports whether the cell areas add up to the box area.
// A missing clipping candidate only ever enlarges a cell, so a larger sum
// means some cells overlap.
func partitionsBox(cells [][]vertex, box r2.Rect) bool {
	var sum float64
	for _, cell := range cells {
		sum += polygonArea(cell)
	}
	want := box.Size().X * box.Size().Y
	return math.Abs(sum-want) <= 1e-9*want
}

func polygonArea(poly []vertex) float64 {
	var a float64
	for k, v := range poly {
		w := poly[(k+1)%len(poly)]
		a += v.p.Cross(w.p)
	}
	return a / 2
}

func activeIDs(active []bool) []int {
	ids := make([]int, 0, len(active))
	for i, ok := range active {
		if ok {
			ids = append(ids, i)
		}
	}
	return ids
}

// allCandidates makes every other active site a clipping candidate.
func allCandidates(ids []int) func(int) []int {
	return func(i int) []int {
		out := make([]int, 0, len(ids))
		for _, j := range ids {
			if j != i {
				out = append(out, j)
			}
		}
		return out
	}
}

// delaunayCandidates returns the Delaunay neighbours of each active site.
// ok is false when no triangulation exists or its neighbour sets are not
// consistent: some site lies in no triangle or a neighbour relation is one
// sided.
func (d *Diagram) delaunayCandidates(ids []int, eps float64) (candidates func(int) []int, ok bool) {
	if len(ids) < 3 {
		return nil, false
	}

	points := make([]r2.Point, len(ids))
	local := make(map[int]int, len(ids))
	for k, i := range ids {
		points[k] = d.Sites[i]
		local[i] = k
	}
	dt, err := r2delaunay.NewTriangulation(points, r2delaunay.WithEps(eps))
	if err != nil {
		Logger().Debug("triangulation unavailable, clipping against all sites", "err", err)
		return nil, false
	}

	neighbors := make([][]int, len(ids))
	for k := range ids {
		neighbors[k] = dt.Neighbors(k)
	}
	if !symmetric(neighbors) {
		Logger().Debug("inconsistent triangulation, clipping against all sites")
		return nil, false
	}

	return func(i int) []int {
		nb := neighbors[local[i]]
		out := make([]int, len(nb))
		for k, v := range nb {
			out[k] = ids[v]
		}
		return out
	}, true
}

// symmetric reports whether every vertex has a neighbour and every
// neighbour relation holds in both directions.
func symmetric(neighbors [][]int) bool {
	for k, nb := range neighbors {
		if len(nb) == 0 {
			return false
		}
		for _, v := range nb {
			if v < 0 || v >= len(neighbors) || !slices.Contains(neighbors[v], k) {
				return false
			}
		}
	}
	return true
}
