// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package softgl is a software implementation of render.Context.
//
// It keeps GL object and error state the way an OpenGL ES 2.0 / WebGL 1
// driver does, runs shaders written in a small GLSL subset (an attribute
// plus constant offset, a constant point size and a constant fragment
// color), and rasterises draws into an *image.RGBA. Draw calls are recorded
// and can be exported as SVG.
//
// Faults can be injected with WithBufferFault and WithCallFault.
package softgl

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"slices"

	"github.com/2dChan/glvoronoi/render"
	"golang.org/x/image/vector"
)

// MaxVertexAttribs is the number of vertex attribute slots.
const MaxVertexAttribs = 8

var ErrInvalidDimensions = errors.New("softgl: invalid dimensions")

type Options struct {
	// BufferFault reports whether the n-th CreateBuffer call (1-based) fails.
	BufferFault func(n int) bool
	// CallFault returns the error to record for the n-th call (1-based) of
	// the named Context method, or render.NoError.
	CallFault func(call string, n int) render.Enum
}

type Option func(*Options) error

// WithBufferFault makes CreateBuffer return 0 whenever f returns true.
func WithBufferFault(f func(n int) bool) Option {
	return func(o *Options) error {
		if f == nil {
			return errors.New("WithBufferFault: nil func")
		}
		o.BufferFault = f
		return nil
	}
}

// WithCallFault records f's result as a GL error on every call it names.
func WithCallFault(f func(call string, n int) render.Enum) Option {
	return func(o *Options) error {
		if f == nil {
			return errors.New("WithCallFault: nil func")
		}
		o.CallFault = f
		return nil
	}
}

// DrawCall is a draw recorded by DrawArrays.
type DrawCall struct {
	Mode   render.Enum
	First  int32
	Count  int32
	Buffer render.Buffer
	// Positions are the clip-space vertex positions after the vertex stage.
	Positions [][4]float32
	PointSize float32
	Color     [4]float32
}

type buffer struct {
	data  []float32
	usage render.Enum
}

type attrib struct {
	enabled bool
	set     bool
	size    int32
	stride  int32
	offset  int32
	buffer  render.Buffer
}

// Context is a software GL context. It is not safe for concurrent use.
type Context struct {
	width, height int
	img           *image.RGBA
	raster        *vector.Rasterizer
	opts          Options

	err  render.Enum
	next uint32

	buffers     map[render.Buffer]*buffer
	shaders     map[render.Shader]*shader
	programs    map[render.Program]*program
	arrayBuffer render.Buffer
	current     render.Program
	attribs     [MaxVertexAttribs]attrib

	clearColor [4]float32
	background [4]float32

	counts map[string]int
	calls  []string
	draws  []DrawCall
}

var _ render.Context = (*Context)(nil)

// New creates a context with a width×height color buffer, initially
// transparent black.
func New(width, height int, setters ...Option) (*Context, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	var opts Options
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}
	return &Context{
		width:    width,
		height:   height,
		img:      image.NewRGBA(image.Rect(0, 0, width, height)),
		raster:   vector.NewRasterizer(width, height),
		opts:     opts,
		buffers:  make(map[render.Buffer]*buffer),
		shaders:  make(map[render.Shader]*shader),
		programs: make(map[render.Program]*program),
		counts:   make(map[string]int),
	}, nil
}

// Image returns the color buffer.
func (c *Context) Image() *image.RGBA {
	return c.img
}

// Draws returns the draw calls issued so far.
func (c *Context) Draws() []DrawCall {
	return c.draws
}

// Calls returns the names of the Context methods called so far, in order.
func (c *Context) Calls() []string {
	return c.calls
}

// BufferContents returns the data store of b, or nil for an unknown buffer.
func (c *Context) BufferContents(b render.Buffer) []float32 {
	if buf, ok := c.buffers[b]; ok {
		return buf.data
	}
	return nil
}

// call logs a Context method invocation and applies any injected fault.
func (c *Context) call(name string) {
	c.counts[name]++
	c.calls = append(c.calls, name)
	if c.opts.CallFault != nil {
		if code := c.opts.CallFault(name, c.counts[name]); code != render.NoError {
			c.record(code)
		}
	}
}

// record keeps the first error until GetError reads it.
func (c *Context) record(code render.Enum) {
	if c.err == render.NoError {
		c.err = code
	}
}

func (c *Context) name() uint32 {
	c.next++
	return c.next
}

func (c *Context) GetError() render.Enum {
	c.counts["GetError"]++
	c.calls = append(c.calls, "GetError")
	e := c.err
	c.err = render.NoError
	return e
}

func (c *Context) CreateBuffer() render.Buffer {
	c.call("CreateBuffer")
	if c.opts.BufferFault != nil && c.opts.BufferFault(c.counts["CreateBuffer"]) {
		return 0
	}
	b := render.Buffer(c.name())
	c.buffers[b] = &buffer{}
	return b
}

func (c *Context) BindBuffer(target render.Enum, b render.Buffer) {
	c.call("BindBuffer")
	if target != render.ArrayBuffer {
		c.record(render.InvalidEnum)
		return
	}
	if _, ok := c.buffers[b]; b != 0 && !ok {
		c.record(render.InvalidOperation)
		return
	}
	c.arrayBuffer = b
}

func (c *Context) BufferData(target render.Enum, data []float32, usage render.Enum) {
	c.call("BufferData")
	if target != render.ArrayBuffer {
		c.record(render.InvalidEnum)
		return
	}
	switch usage {
	case render.StreamDraw, render.StaticDraw, render.DynamicDraw:
	default:
		c.record(render.InvalidEnum)
		return
	}
	buf, ok := c.buffers[c.arrayBuffer]
	if !ok {
		c.record(render.InvalidOperation)
		return
	}
	buf.data = slices.Clone(data)
	buf.usage = usage
}

func (c *Context) ClearColor(r, g, b, a float32) {
	c.call("ClearColor")
	c.clearColor = [4]float32{clamp01(r), clamp01(g), clamp01(b), clamp01(a)}
}

func (c *Context) Clear(mask render.Enum) {
	c.call("Clear")
	const all = render.ColorBufferBit | render.DepthBufferBit | render.StencilBufferBit
	if mask&^all != 0 {
		c.record(render.InvalidValue)
		return
	}
	if mask&render.ColorBufferBit == 0 {
		return
	}
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(toNRGBA(c.clearColor)), image.Point{}, draw.Src)
	c.background = c.clearColor
	c.draws = c.draws[:0]
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}

func toNRGBA(c [4]float32) color.NRGBA {
	to8 := func(v float32) uint8 { return uint8(clamp01(v)*255 + 0.5) }
	return color.NRGBA{R: to8(c[0]), G: to8(c[1]), B: to8(c[2]), A: to8(c[3])}
}
