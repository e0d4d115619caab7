// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

//go:build js && wasm

// Package webgl implements render.Context on a browser WebGL 1 context.
package webgl

import (
	"encoding/binary"
	"errors"
	"math"
	"syscall/js"

	"github.com/2dChan/glvoronoi"
	"github.com/2dChan/glvoronoi/render"
)

var ErrNoContext = errors.New("webgl: canvas has no WebGL context")

// Context maps GL object names to the JavaScript objects WebGL hands out.
type Context struct {
	gl js.Value

	next     uint32
	buffers  map[render.Buffer]js.Value
	shaders  map[render.Shader]js.Value
	programs map[render.Program]js.Value
}

var _ render.Context = (*Context)(nil)

// New acquires the "webgl" context of canvas.
func New(canvas js.Value) (*Context, error) {
	if canvas.IsUndefined() || canvas.IsNull() {
		return nil, ErrNoContext
	}
	gl := canvas.Call("getContext", "webgl")
	if gl.IsUndefined() || gl.IsNull() {
		return nil, ErrNoContext
	}
	glvoronoi.Logger().Info("WebGL context acquired",
		"width", canvas.Get("width").Int(), "height", canvas.Get("height").Int())
	return &Context{
		gl:       gl,
		buffers:  make(map[render.Buffer]js.Value),
		shaders:  make(map[render.Shader]js.Value),
		programs: make(map[render.Program]js.Value),
	}, nil
}

func (c *Context) name() uint32 {
	c.next++
	return c.next
}

// object returns v for valid names and JavaScript null otherwise, so WebGL
// reports the error itself.
func object[K comparable](m map[K]js.Value, k K) js.Value {
	if v, ok := m[k]; ok {
		return v
	}
	return js.Null()
}

func (c *Context) CreateBuffer() render.Buffer {
	v := c.gl.Call("createBuffer")
	if v.IsNull() {
		return 0
	}
	b := render.Buffer(c.name())
	c.buffers[b] = v
	return b
}

func (c *Context) BindBuffer(target render.Enum, b render.Buffer) {
	c.gl.Call("bindBuffer", int(target), object(c.buffers, b))
}

func (c *Context) BufferData(target render.Enum, data []float32, usage render.Enum) {
	c.gl.Call("bufferData", int(target), float32Array(data), int(usage))
}

// float32Array copies data into a new JavaScript Float32Array.
func float32Array(data []float32) js.Value {
	raw := make([]byte, 4*len(data))
	for i, f := range data {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(f))
	}
	bytes := js.Global().Get("Uint8Array").New(len(raw))
	js.CopyBytesToJS(bytes, raw)
	return js.Global().Get("Float32Array").New(bytes.Get("buffer"))
}

func (c *Context) CreateShader(kind render.Enum) render.Shader {
	v := c.gl.Call("createShader", int(kind))
	if v.IsNull() {
		return 0
	}
	s := render.Shader(c.name())
	c.shaders[s] = v
	return s
}

func (c *Context) ShaderSource(s render.Shader, source string) {
	c.gl.Call("shaderSource", object(c.shaders, s), source)
}

func (c *Context) CompileShader(s render.Shader) {
	c.gl.Call("compileShader", object(c.shaders, s))
}

func (c *Context) ShaderCompileStatus(s render.Shader) bool {
	return truthy(c.gl.Call("getShaderParameter", object(c.shaders, s), c.constant("COMPILE_STATUS")))
}

func (c *Context) ShaderInfoLog(s render.Shader) string {
	return str(c.gl.Call("getShaderInfoLog", object(c.shaders, s)))
}

func (c *Context) CreateProgram() render.Program {
	v := c.gl.Call("createProgram")
	if v.IsNull() {
		return 0
	}
	p := render.Program(c.name())
	c.programs[p] = v
	return p
}

func (c *Context) AttachShader(p render.Program, s render.Shader) {
	c.gl.Call("attachShader", object(c.programs, p), object(c.shaders, s))
}

func (c *Context) BindAttribLocation(p render.Program, index uint32, name string) {
	c.gl.Call("bindAttribLocation", object(c.programs, p), index, name)
}

func (c *Context) LinkProgram(p render.Program) {
	c.gl.Call("linkProgram", object(c.programs, p))
}

func (c *Context) ProgramLinkStatus(p render.Program) bool {
	return truthy(c.gl.Call("getProgramParameter", object(c.programs, p), c.constant("LINK_STATUS")))
}

func (c *Context) ProgramInfoLog(p render.Program) string {
	return str(c.gl.Call("getProgramInfoLog", object(c.programs, p)))
}

func (c *Context) UseProgram(p render.Program) {
	c.gl.Call("useProgram", object(c.programs, p))
}

func (c *Context) VertexAttribPointer(index uint32, size int32, typ render.Enum, normalized bool, stride, offset int32) {
	c.gl.Call("vertexAttribPointer", index, size, int(typ), normalized, stride, offset)
}

func (c *Context) EnableVertexAttribArray(index uint32) {
	c.gl.Call("enableVertexAttribArray", index)
}

func (c *Context) DrawArrays(mode render.Enum, first, count int32) {
	c.gl.Call("drawArrays", int(mode), first, count)
}

func (c *Context) ClearColor(r, g, b, a float32) {
	c.gl.Call("clearColor", r, g, b, a)
}

func (c *Context) Clear(mask render.Enum) {
	c.gl.Call("clear", int(mask))
}

func (c *Context) GetError() render.Enum {
	return render.Enum(c.gl.Call("getError").Int())
}

func (c *Context) constant(name string) js.Value {
	return c.gl.Get(name)
}

func truthy(v js.Value) bool {
	return v.Type() == js.TypeBoolean && v.Bool()
}

// str maps a null info log, reported for a lost context, to "".
func str(v js.Value) string {
	if v.Type() != js.TypeString {
		return ""
	}
	return v.String()
}
