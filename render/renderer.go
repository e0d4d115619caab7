// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package render

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/2dChan/glvoronoi"
	"github.com/golang/geo/r2"
)

// DefaultClearColor is the paper-like background behind the diagram.
var DefaultClearColor = [4]float32{0.973, 0.945, 0.906, 1.0}

type Options struct {
	ClearColor     [4]float32
	VertexSource   string
	FragmentSource string
}

type Option func(*Options) error

// WithClearColor sets the background the color buffer is cleared to.
func WithClearColor(c color.Color) Option {
	return func(o *Options) error {
		if c == nil {
			return errors.New("WithClearColor: nil color")
		}
		r, g, b, a := c.RGBA()
		o.ClearColor = [4]float32{
			float32(r) / 0xffff, float32(g) / 0xffff, float32(b) / 0xffff, float32(a) / 0xffff,
		}
		return nil
	}
}

// WithShaderSources replaces the built-in shader program. The vertex stage
// must read the "position" attribute.
func WithShaderSources(vertex, fragment string) Option {
	return func(o *Options) error {
		if vertex == "" || fragment == "" {
			return errors.New("WithShaderSources: empty shader source")
		}
		o.VertexSource, o.FragmentSource = vertex, fragment
		return nil
	}
}

// Renderer owns the linked program and draws Scenes with it.
type Renderer struct {
	ctx     Context
	program Program
	clear   [4]float32
}

// NewRenderer builds the shader program on ctx. Shader errors are returned
// before anything is drawn.
func NewRenderer(ctx Context, setters ...Option) (*Renderer, error) {
	opts := Options{
		ClearColor:     DefaultClearColor,
		VertexSource:   VertexShaderSource,
		FragmentSource: FragmentShaderSource,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	p, err := NewProgram(ctx, opts.VertexSource, opts.FragmentSource)
	if err != nil {
		return nil, err
	}
	return &Renderer{ctx: ctx, program: p, clear: opts.ClearColor}, nil
}

// Program returns the linked shader program.
func (r *Renderer) Program() Program {
	return r.program
}

// Scene is the uploaded geometry of one render: a buffer of sites and one
// buffer per non-empty cell.
type Scene struct {
	Sites VertexBuffer
	Cells []VertexBuffer

	// Dropped lists the items whose buffer could not be created.
	Dropped []*BufferCreationError
	// Skipped counts empty polygons, which are never uploaded.
	Skipped int

	consumed bool
}

// HasSites reports whether the site pass has anything to draw.
func (s *Scene) HasSites() bool {
	return s.Sites.Handle != 0 && s.Sites.Count > 0
}

// Stats summarises a Render.
type Stats struct {
	Points    int
	LineLoops int
	Vertices  int
	Dropped   int
	Skipped   int
}

// BuildScene uploads the cell polygons and then the sites. Items whose
// buffer cannot be created are dropped and recorded in Scene.Dropped; any
// GL error aborts.
func (r *Renderer) BuildScene(sites []r2.Point, polygons [][]r2.Point) (*Scene, error) {
	s := &Scene{Cells: make([]VertexBuffer, 0, len(polygons))}

	for i, poly := range polygons {
		if len(poly) == 0 {
			s.Skipped++
			continue
		}
		vb, err := r.upload(s, fmt.Sprintf("cells[%d]", i), poly)
		if err != nil {
			return nil, err
		}
		if vb.Handle != 0 {
			s.Cells = append(s.Cells, vb)
		}
	}

	if len(sites) > 0 {
		vb, err := r.upload(s, "sites", sites)
		if err != nil {
			return nil, err
		}
		s.Sites = vb
	}

	glvoronoi.Logger().Info("scene built",
		"sites", len(sites), "cells", len(s.Cells), "dropped", len(s.Dropped), "skipped", s.Skipped)
	return s, nil
}

// upload returns a zero VertexBuffer and no error when the item was dropped.
func (r *Renderer) upload(s *Scene, item string, points []r2.Point) (VertexBuffer, error) {
	vb, err := Upload(r.ctx, points)
	var bce *BufferCreationError
	switch {
	case errors.As(err, &bce):
		bce.Item = item
		s.Dropped = append(s.Dropped, bce)
		glvoronoi.Logger().Warn("geometry dropped", "item", item, "err", bce)
		return VertexBuffer{}, nil
	case err != nil:
		return VertexBuffer{}, fmt.Errorf("upload %s: %w", item, err)
	}
	return vb, nil
}

// Render clears the canvas and draws s: the sites as points, then every cell
// as a line loop. The first recognised GL error aborts the render.
// A Scene can be rendered once.
func (r *Renderer) Render(s *Scene) (Stats, error) {
	if s == nil {
		return Stats{}, ErrNilScene
	}
	if s.consumed {
		return Stats{}, ErrSceneConsumed
	}
	s.consumed = true

	st := Stats{Dropped: len(s.Dropped), Skipped: s.Skipped}

	c := r.clear
	r.ctx.ClearColor(c[0], c[1], c[2], c[3])
	r.ctx.Clear(ColorBufferBit)
	if err := CheckError(r.ctx, "clear"); err != nil {
		return st, err
	}

	r.ctx.UseProgram(r.program)
	if err := CheckError(r.ctx, "sites: use program"); err != nil {
		return st, err
	}
	if s.HasSites() {
		if err := r.draw(s.Sites, Points, "sites"); err != nil {
			return st, err
		}
		st.Points++
		st.Vertices += s.Sites.NumVertices()
	} else {
		glvoronoi.Logger().Debug("no sites to draw")
	}

	r.ctx.UseProgram(r.program)
	if err := CheckError(r.ctx, "cells: use program"); err != nil {
		return st, err
	}
	for i, vb := range s.Cells {
		if vb.Handle == 0 || vb.Count == 0 {
			continue
		}
		if err := r.draw(vb, LineLoop, fmt.Sprintf("cells[%d]", i)); err != nil {
			return st, err
		}
		st.LineLoops++
		st.Vertices += vb.NumVertices()
		glvoronoi.Logger().Debug("cell drawn", "buffer size", vb.Count)
	}

	glvoronoi.Logger().Info("scene rendered", "points", st.Points, "line loops", st.LineLoops)
	return st, nil
}

func (r *Renderer) draw(vb VertexBuffer, mode Enum, tag string) error {
	r.ctx.BindBuffer(ArrayBuffer, vb.Handle)
	if err := CheckError(r.ctx, tag+": bind buffer"); err != nil {
		return err
	}
	r.ctx.VertexAttribPointer(PositionAttrib, ComponentsPerVertex, Float, false, 0, 0)
	if err := CheckError(r.ctx, tag+": vertex attrib pointer"); err != nil {
		return err
	}
	r.ctx.EnableVertexAttribArray(PositionAttrib)
	if err := CheckError(r.ctx, tag+": enable vertex attrib array"); err != nil {
		return err
	}
	r.ctx.DrawArrays(mode, 0, int32(vb.NumVertices()))
	return CheckError(r.ctx, tag+": draw")
}
