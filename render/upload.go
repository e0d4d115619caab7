// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package render

import (
	"context"
	"log/slog"

	"github.com/2dChan/glvoronoi"
	"github.com/golang/geo/r2"
)

// ComponentsPerVertex is the number of floats stored per point: x, y and a
// zero z.
const ComponentsPerVertex = 3

// VertexBuffer is a GPU buffer holding Count float components.
type VertexBuffer struct {
	Handle Buffer
	Count  int
}

// NumVertices returns the number of points stored in the buffer.
func (vb VertexBuffer) NumVertices() int {
	return vb.Count / ComponentsPerVertex
}

// Vertices widens points to (x, y, 0) triples narrowed to float32.
func Vertices(points []r2.Point) []float32 {
	data := make([]float32, 0, len(points)*ComponentsPerVertex)
	for _, p := range points {
		data = append(data, float32(p.X), float32(p.Y), 0)
	}
	return data
}

// Upload creates a static vertex buffer holding Vertices(points).
// A *BufferCreationError is returned when the backend cannot create the
// buffer; GL errors while filling it are returned as *GLStateError.
func Upload(ctx Context, points []r2.Point) (VertexBuffer, error) {
	b := ctx.CreateBuffer()
	if b == 0 {
		return VertexBuffer{}, &BufferCreationError{Points: len(points)}
	}
	ctx.BindBuffer(ArrayBuffer, b)
	if err := CheckError(ctx, "upload: bind buffer"); err != nil {
		return VertexBuffer{}, err
	}

	data := Vertices(points)
	traceVertices(points, data)

	ctx.BufferData(ArrayBuffer, data, StaticDraw)
	if err := CheckError(ctx, "upload: buffer data"); err != nil {
		return VertexBuffer{}, err
	}
	return VertexBuffer{Handle: b, Count: len(data)}, nil
}

func traceVertices(points []r2.Point, data []float32) {
	l := glvoronoi.Logger()
	bg := context.Background()
	if !l.Enabled(bg, slog.LevelDebug) {
		return
	}
	for _, p := range points {
		l.LogAttrs(bg, slog.LevelDebug, "conversion", slog.Float64("x", p.X), slog.Float64("y", p.Y))
	}
	for i, v := range data {
		l.LogAttrs(bg, slog.LevelDebug, "vertex buffer", slog.Int("index", i), slog.Float64("value", float64(v)))
	}
}
