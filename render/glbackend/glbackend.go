// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

//go:build !js

// Package glbackend implements render.Context on desktop OpenGL 2.1.
//
// The GL context must be current on the calling goroutine's OS thread
// before New is called, and every method must be called from that thread.
package glbackend

import (
	"fmt"
	"strings"

	"github.com/2dChan/glvoronoi"
	"github.com/2dChan/glvoronoi/render"
	"github.com/go-gl/gl/v2.1/gl"
)

// Context forwards render.Context calls to the current OpenGL context.
type Context struct{}

var _ render.Context = (*Context)(nil)

// New loads the GL entry points and enables shader-controlled point size.
func New() (*Context, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("glbackend: init: %w", err)
	}
	gl.Enable(gl.VERTEX_PROGRAM_POINT_SIZE)
	glvoronoi.Logger().Info("OpenGL initialised",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)))
	return &Context{}, nil
}

func (*Context) CreateBuffer() render.Buffer {
	var b uint32
	gl.GenBuffers(1, &b)
	return render.Buffer(b)
}

func (*Context) BindBuffer(target render.Enum, b render.Buffer) {
	gl.BindBuffer(uint32(target), uint32(b))
}

func (*Context) BufferData(target render.Enum, data []float32, usage render.Enum) {
	if len(data) == 0 {
		gl.BufferData(uint32(target), 0, nil, uint32(usage))
		return
	}
	gl.BufferData(uint32(target), len(data)*4, gl.Ptr(data), uint32(usage))
}

func (*Context) CreateShader(kind render.Enum) render.Shader {
	return render.Shader(gl.CreateShader(uint32(kind)))
}

func (*Context) ShaderSource(s render.Shader, source string) {
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(uint32(s), 1, csources, nil)
	free()
}

func (*Context) CompileShader(s render.Shader) {
	gl.CompileShader(uint32(s))
}

func (*Context) ShaderCompileStatus(s render.Shader) bool {
	var status int32
	gl.GetShaderiv(uint32(s), gl.COMPILE_STATUS, &status)
	return status == gl.TRUE
}

func (*Context) ShaderInfoLog(s render.Shader) string {
	var logLength int32
	gl.GetShaderiv(uint32(s), gl.INFO_LOG_LENGTH, &logLength)
	if logLength == 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetShaderInfoLog(uint32(s), logLength, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func (*Context) CreateProgram() render.Program {
	return render.Program(gl.CreateProgram())
}

func (*Context) AttachShader(p render.Program, s render.Shader) {
	gl.AttachShader(uint32(p), uint32(s))
}

func (*Context) BindAttribLocation(p render.Program, index uint32, name string) {
	gl.BindAttribLocation(uint32(p), index, gl.Str(name+"\x00"))
}

func (*Context) LinkProgram(p render.Program) {
	gl.LinkProgram(uint32(p))
}

func (*Context) ProgramLinkStatus(p render.Program) bool {
	var status int32
	gl.GetProgramiv(uint32(p), gl.LINK_STATUS, &status)
	return status == gl.TRUE
}

func (*Context) ProgramInfoLog(p render.Program) string {
	var logLength int32
	gl.GetProgramiv(uint32(p), gl.INFO_LOG_LENGTH, &logLength)
	if logLength == 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(uint32(p), logLength, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func (*Context) UseProgram(p render.Program) {
	gl.UseProgram(uint32(p))
}

func (*Context) VertexAttribPointer(index uint32, size int32, typ render.Enum, normalized bool, stride, offset int32) {
	gl.VertexAttribPointerWithOffset(index, size, uint32(typ), normalized, stride, uintptr(offset))
}

func (*Context) EnableVertexAttribArray(index uint32) {
	gl.EnableVertexAttribArray(index)
}

func (*Context) DrawArrays(mode render.Enum, first, count int32) {
	gl.DrawArrays(uint32(mode), first, count)
}

func (*Context) ClearColor(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
}

func (*Context) Clear(mask render.Enum) {
	gl.Clear(uint32(mask))
}

func (*Context) GetError() render.Enum {
	return render.Enum(gl.GetError())
}
