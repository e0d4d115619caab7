// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package glvoronoi computes planar Voronoi diagrams clipped to a square box
// and renders them with OpenGL-family backends (see the render package).
package glvoronoi

import (
	"fmt"

	"github.com/golang/geo/r2"
)

// Cell represents a Voronoi cell. It is a view structure for accessing a cell in a Diagram.
// The cell's index corresponds to the index of its site in the Diagram's Sites.
type Cell struct {
	idx int
	d   *Diagram
}

// SiteIndex returns the index of the site in the Diagram's Sites.
func (c Cell) SiteIndex() int {
	return c.idx
}

// Site returns the site point of the cell.
func (c Cell) Site() r2.Point {
	return c.d.Sites[c.idx]
}

// IsEmpty reports whether the cell degenerated: its site lies outside the
// box or repeats an earlier site.
func (c Cell) IsEmpty() bool {
	return c.NumVertices() == 0
}

// NumVertices returns the number of vertices in the cell.
// This equals the number of edges.
func (c Cell) NumVertices() int {
	return c.d.CellOffsets[c.idx+1] - c.d.CellOffsets[c.idx]
}

// Vertices returns the cell's corners in counter-clockwise order.
// The slice aliases the Diagram's storage.
func (c Cell) Vertices() []r2.Point {
	return c.d.CellVertices[c.d.CellOffsets[c.idx]:c.d.CellOffsets[c.idx+1]]
}

// Vertex returns the vertex at the specified index.
// It returns an error if the index is out of range.
func (c Cell) Vertex(i int) (r2.Point, error) {
	start := c.d.CellOffsets[c.idx]
	end := c.d.CellOffsets[c.idx+1]
	if i < 0 || i >= end-start {
		return r2.Point{}, fmt.Errorf("Vertex: index %d out of range [0 %d)", i, end-start)
	}
	return c.d.CellVertices[start+i], nil
}

// NumNeighbors returns the number of edges shared with another cell.
func (c Cell) NumNeighbors() int {
	n := 0
	for _, nb := range c.NeighborIndices() {
		if nb != BoxEdge {
			n++
		}
	}
	return n
}

// NeighborIndices returns, per edge, the index of the cell on the other
// side or BoxEdge. Edge i runs from Vertex(i) to Vertex(i+1).
func (c Cell) NeighborIndices() []int {
	return c.d.CellNeighbors[c.d.CellOffsets[c.idx]:c.d.CellOffsets[c.idx+1]]
}

// Neighbor returns the cell across edge i.
// It returns an error if the index is out of range or the edge lies on the box.
func (c Cell) Neighbor(i int) (Cell, error) {
	start := c.d.CellOffsets[c.idx]
	end := c.d.CellOffsets[c.idx+1]
	if i < 0 || i >= end-start {
		return Cell{}, fmt.Errorf("Neighbor: index %d out of range [0 %d)", i, end-start)
	}
	nb := c.d.CellNeighbors[start+i]
	if nb == BoxEdge {
		return Cell{}, fmt.Errorf("Neighbor: edge %d lies on the box", i)
	}
	return c.d.Cell(nb)
}
