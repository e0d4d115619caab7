// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package render

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/2dChan/glvoronoi"
)

var (
	// ErrBufferCreation matches every *BufferCreationError.
	ErrBufferCreation = errors.New("render: buffer creation failed")

	// ErrSceneConsumed is returned when a Scene is rendered a second time.
	ErrSceneConsumed = errors.New("render: scene already rendered")

	// ErrNilScene is returned when Render is called with a nil Scene.
	ErrNilScene = errors.New("render: nil scene")
)

// Fallback diagnostics for backends that report no info log.
const (
	msgCreateShader  = "unable to create shader object"
	msgCompileShader = "unknown error creating shader"
	msgCreateProgram = "unable to create program object"
	msgLinkProgram   = "unknown error creating program object"
)

// GLStateError is a recognised GL error reported after a state-changing call.
type GLStateError struct {
	Code Enum
	Name string
	// Tag names the guarded call, e.g. "cells[3]: draw".
	Tag string
	// Caller is the file:line of the guard.
	Caller string
}

func (e *GLStateError) Error() string {
	return fmt.Sprintf("render: GL error %s (0x%04X) after %s at %s", e.Name, uint32(e.Code), e.Tag, e.Caller)
}

// ShaderCompileError carries the compiler's diagnostic log.
type ShaderCompileError struct {
	Kind Enum
	Log  string
}

func (e *ShaderCompileError) Error() string {
	return fmt.Sprintf("render: compile %s shader: %s", shaderKindName(e.Kind), e.Log)
}

// ProgramLinkError carries the linker's diagnostic log.
type ProgramLinkError struct {
	Log string
}

func (e *ProgramLinkError) Error() string {
	return "render: link program: " + e.Log
}

// BufferCreationError reports a vertex buffer that could not be created.
// It is recoverable: the geometry item is dropped and rendering continues.
type BufferCreationError struct {
	// Item names the dropped geometry, e.g. "sites" or "cells[4]".
	Item   string
	Points int
}

func (e *BufferCreationError) Error() string {
	item := e.Item
	if item == "" {
		item = "geometry"
	}
	return fmt.Sprintf("render: create vertex buffer for %s (%d points): no buffer object", item, e.Points)
}

func (e *BufferCreationError) Is(target error) bool {
	return target == ErrBufferCreation
}

// errorName returns the name of a GL error code the guard treats as fatal.
func errorName(code Enum) (string, bool) {
	switch code {
	case InvalidEnum:
		return "INVALID_ENUM", true
	case InvalidValue:
		return "INVALID_VALUE", true
	case InvalidOperation:
		return "INVALID_OPERATION", true
	case InvalidFramebufferOperation:
		return "INVALID_FRAMEBUFFER_OPERATION", true
	case OutOfMemory:
		return "OUT_OF_MEMORY", true
	case ContextLostWebGL:
		return "CONTEXT_LOST_WEBGL", true
	}
	return "", false
}

func shaderKindName(kind Enum) string {
	switch kind {
	case VertexShader:
		return "vertex"
	case FragmentShader:
		return "fragment"
	}
	return fmt.Sprintf("0x%04X", uint32(kind))
}

// CheckError inspects the GL error state after the call named by tag.
// A recognised error code yields a *GLStateError; NO_ERROR and codes outside
// the recognised set yield nil.
func CheckError(ctx Context, tag string) error {
	code := ctx.GetError()
	if code == NoError {
		return nil
	}
	name, fatal := errorName(code)
	if !fatal {
		glvoronoi.Logger().Debug("ignoring unrecognised GL error", "code", uint32(code), "tag", tag)
		return nil
	}

	caller := "unknown"
	if _, file, line, ok := runtime.Caller(1); ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	return &GLStateError{Code: code, Name: name, Tag: tag, Caller: caller}
}
