// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package render

import "github.com/2dChan/glvoronoi"

// PositionAttrib is the vertex attribute location of "position".
const PositionAttrib uint32 = 0

// VertexShaderSource shifts [0, 2) coordinates into clip space and sets the
// point size used by the site pass.
const VertexShaderSource = `
attribute vec4 position;
void main() {
    gl_Position = position + vec4(-1,-1,0,0);
    gl_PointSize = 3.0;
}
`

// FragmentShaderSource paints everything opaque black.
const FragmentShaderSource = `
void main() {
    gl_FragColor = vec4(0.0, 0.0, 0.0, 1.0);
}
`

// CompileShader compiles source as a shader of the given kind.
func CompileShader(ctx Context, kind Enum, source string) (Shader, error) {
	s := ctx.CreateShader(kind)
	if s == 0 {
		return 0, &ShaderCompileError{Kind: kind, Log: msgCreateShader}
	}
	ctx.ShaderSource(s, source)
	ctx.CompileShader(s)

	if ctx.ShaderCompileStatus(s) {
		return s, nil
	}
	log := ctx.ShaderInfoLog(s)
	if log == "" {
		log = msgCompileShader
	}
	return 0, &ShaderCompileError{Kind: kind, Log: log}
}

// LinkProgram links a vertex and a fragment shader, binding the "position"
// attribute to PositionAttrib.
func LinkProgram(ctx Context, vs, fs Shader) (Program, error) {
	p := ctx.CreateProgram()
	if p == 0 {
		return 0, &ProgramLinkError{Log: msgCreateProgram}
	}
	ctx.AttachShader(p, vs)
	ctx.AttachShader(p, fs)
	ctx.BindAttribLocation(p, PositionAttrib, "position")
	ctx.LinkProgram(p)

	if ctx.ProgramLinkStatus(p) {
		return p, nil
	}
	log := ctx.ProgramInfoLog(p)
	if log == "" {
		log = msgLinkProgram
	}
	return 0, &ProgramLinkError{Log: log}
}

// NewProgram compiles and links the given vertex and fragment sources.
func NewProgram(ctx Context, vertexSource, fragmentSource string) (Program, error) {
	vs, err := CompileShader(ctx, VertexShader, vertexSource)
	if err != nil {
		return 0, err
	}
	fs, err := CompileShader(ctx, FragmentShader, fragmentSource)
	if err != nil {
		return 0, err
	}
	p, err := LinkProgram(ctx, vs, fs)
	if err != nil {
		return 0, err
	}
	glvoronoi.Logger().Info("shader program linked", "program", uint32(p))
	return p, nil
}
