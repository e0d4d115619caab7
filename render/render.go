// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package render uploads planar geometry into GPU vertex buffers and draws it
// with a fixed shader program in two passes: sites as points, then cells as
// line loops. Every state-changing GL call is followed by an error check.
//
// The GL surface is abstracted by Context. Implementations live in
// render/glbackend (desktop OpenGL), render/webgl (browser WebGL) and
// render/softgl (software reference device).
package render

// Enum is a GL enumerant. Values match OpenGL ES 2.0 / WebGL 1.
type Enum uint32

const (
	NoError                     Enum = 0
	InvalidEnum                 Enum = 0x0500
	InvalidValue                Enum = 0x0501
	InvalidOperation            Enum = 0x0502
	StackOverflow               Enum = 0x0503
	StackUnderflow              Enum = 0x0504
	OutOfMemory                 Enum = 0x0505
	InvalidFramebufferOperation Enum = 0x0506
	ContextLostWebGL            Enum = 0x9242

	Points        Enum = 0x0000
	Lines         Enum = 0x0001
	LineLoop      Enum = 0x0002
	LineStrip     Enum = 0x0003
	Triangles     Enum = 0x0004
	TriangleStrip Enum = 0x0005
	TriangleFan   Enum = 0x0006

	ArrayBuffer Enum = 0x8892
	StreamDraw  Enum = 0x88E0
	StaticDraw  Enum = 0x88E4
	DynamicDraw Enum = 0x88E8

	Float Enum = 0x1406

	FragmentShader Enum = 0x8B30
	VertexShader   Enum = 0x8B31

	DepthBufferBit   Enum = 0x00000100
	StencilBufferBit Enum = 0x00000400
	ColorBufferBit   Enum = 0x00004000
)

// Buffer, Shader and Program are GL object names. Zero is never a valid name.
type (
	Buffer  uint32
	Shader  uint32
	Program uint32
)

// Context is the subset of a GL rendering context the pipeline drives.
// Methods mirror the GL entry points of the same name; errors are reported
// through GetError, as in GL.
type Context interface {
	// CreateBuffer returns 0 when no buffer object could be created.
	CreateBuffer() Buffer
	BindBuffer(target Enum, b Buffer)
	BufferData(target Enum, data []float32, usage Enum)

	// CreateShader returns 0 when no shader object could be created.
	CreateShader(kind Enum) Shader
	ShaderSource(s Shader, source string)
	CompileShader(s Shader)
	ShaderCompileStatus(s Shader) bool
	ShaderInfoLog(s Shader) string

	// CreateProgram returns 0 when no program object could be created.
	CreateProgram() Program
	AttachShader(p Program, s Shader)
	BindAttribLocation(p Program, index uint32, name string)
	LinkProgram(p Program)
	ProgramLinkStatus(p Program) bool
	ProgramInfoLog(p Program) string
	UseProgram(p Program)

	VertexAttribPointer(index uint32, size int32, typ Enum, normalized bool, stride, offset int32)
	EnableVertexAttribArray(index uint32)
	DrawArrays(mode Enum, first, count int32)

	ClearColor(r, g, b, a float32)
	Clear(mask Enum)

	// GetError returns and clears the oldest recorded error.
	GetError() Enum
}
