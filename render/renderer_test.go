// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package render_test

import (
	"errors"
	"image/color"
	"math/rand"
	"strings"
	"testing"

	"github.com/2dChan/glvoronoi"
	"github.com/2dChan/glvoronoi/render"
	"github.com/2dChan/glvoronoi/render/softgl"
	"github.com/2dChan/glvoronoi/utils"
	"github.com/golang/geo/r2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const canvasSize = 128

var squareSites = []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}

// Upload

func TestVertices(t *testing.T) {
	tests := []struct {
		points []r2.Point
		want   []float32
	}{
		{nil, []float32{}},
		{[]r2.Point{{X: 0.5, Y: 1.25}}, []float32{0.5, 1.25, 0}},
		{
			[]r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}},
			[]float32{0, 0, 0, 1, 0, 0, 1, 1, 0},
		},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, render.Vertices(tt.points)); diff != "" {
			t.Errorf("Vertices(%v) mismatch (-want +got):\n%s", tt.points, diff)
		}
	}
}

func TestVertices_Layout(t *testing.T) {
	points := utils.GenerateRandomPoints(50, 1)
	data := render.Vertices(points)

	if got, want := len(data), render.ComponentsPerVertex*len(points); got != want {
		t.Fatalf("len(Vertices(...)) = %d, want %d", got, want)
	}
	want := make([]float32, 0, len(data))
	for _, p := range points {
		want = append(want, float32(p.X), float32(p.Y), 0)
	}
	if diff := cmp.Diff(want, data, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("Vertices(...) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(data, render.Vertices(points)); diff != "" {
		t.Errorf("second Vertices(...) mismatch (-first +second):\n%s", diff)
	}
}

func TestUpload(t *testing.T) {
	c := mustContext(t)
	points := utils.GenerateRandomPoints(7, 3)

	vb, err := render.Upload(c, points)
	if err != nil {
		t.Fatalf("Upload(...) error = %v, want nil", err)
	}

	if vb.Handle == 0 {
		t.Errorf("vb.Handle = 0, want non-zero")
	}
	if vb.Count != 21 {
		t.Errorf("vb.Count = %d, want 21", vb.Count)
	}
	if got := vb.NumVertices(); got != 7 {
		t.Errorf("vb.NumVertices() = %d, want 7", got)
	}
	if diff := cmp.Diff(render.Vertices(points), c.BufferContents(vb.Handle)); diff != "" {
		t.Errorf("BufferContents(%d) mismatch (-want +got):\n%s", vb.Handle, diff)
	}
}

func TestUpload_BufferCreationFailure(t *testing.T) {
	c := mustContext(t, softgl.WithBufferFault(func(int) bool { return true }))

	_, err := render.Upload(c, squareSites)

	if !errors.Is(err, render.ErrBufferCreation) {
		t.Errorf("Upload(...) error = %v, want %v", err, render.ErrBufferCreation)
	}
	var bce *render.BufferCreationError
	if !errors.As(err, &bce) {
		t.Fatalf("Upload(...) error = %T, want *BufferCreationError", err)
	}
	if bce.Points != 4 {
		t.Errorf("bce.Points = %d, want 4", bce.Points)
	}
}

func TestUpload_GLError(t *testing.T) {
	c := mustContext(t, faultOn("BufferData", 1, render.OutOfMemory))

	_, err := render.Upload(c, squareSites)

	gse := mustGLStateError(t, err)
	want := glState{Code: render.OutOfMemory, Name: "OUT_OF_MEMORY", Tag: "upload: buffer data"}
	if diff := cmp.Diff(want, stateOf(gse)); diff != "" {
		t.Errorf("GLStateError mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(gse.Caller, "upload.go:") {
		t.Errorf("gse.Caller = %q, want upload.go:<line>", gse.Caller)
	}
}

// CheckError

func TestCheckError(t *testing.T) {
	tests := []struct {
		code  render.Enum
		fatal bool
		name  string
	}{
		{render.NoError, false, ""},
		{render.InvalidEnum, true, "INVALID_ENUM"},
		{render.InvalidValue, true, "INVALID_VALUE"},
		{render.InvalidOperation, true, "INVALID_OPERATION"},
		{render.InvalidFramebufferOperation, true, "INVALID_FRAMEBUFFER_OPERATION"},
		{render.OutOfMemory, true, "OUT_OF_MEMORY"},
		{render.ContextLostWebGL, true, "CONTEXT_LOST_WEBGL"},
		{render.StackOverflow, false, ""},
		{render.StackUnderflow, false, ""},
	}
	for _, tt := range tests {
		c := mustContext(t, faultOn("ClearColor", 1, tt.code))
		c.ClearColor(0, 0, 0, 1)

		err := render.CheckError(c, "clear color")
		if !tt.fatal {
			if err != nil {
				t.Errorf("CheckError after 0x%04X = %v, want nil", uint32(tt.code), err)
			}
			continue
		}
		var gse *render.GLStateError
		if !errors.As(err, &gse) {
			t.Errorf("CheckError after 0x%04X = %v, want *GLStateError", uint32(tt.code), err)
			continue
		}
		want := glState{Code: tt.code, Name: tt.name, Tag: "clear color"}
		if diff := cmp.Diff(want, stateOf(gse)); diff != "" {
			t.Errorf("CheckError after 0x%04X mismatch (-want +got):\n%s", uint32(tt.code), diff)
		}
		if !strings.HasPrefix(gse.Caller, "renderer_test.go:") {
			t.Errorf("gse.Caller = %q, want renderer_test.go:<line>", gse.Caller)
		}
		if got := c.GetError(); got != render.NoError {
			t.Errorf("GetError() after CheckError = 0x%04X, want NO_ERROR", uint32(got))
		}
	}
}

// ShaderPipeline

func TestCompileShader(t *testing.T) {
	c := mustContext(t)

	vs, err := render.CompileShader(c, render.VertexShader, render.VertexShaderSource)
	if err != nil || vs == 0 {
		t.Fatalf("CompileShader(vertex) = %d, %v, want non-zero, nil", vs, err)
	}
	fs, err := render.CompileShader(c, render.FragmentShader, render.FragmentShaderSource)
	if err != nil || fs == 0 {
		t.Fatalf("CompileShader(fragment) = %d, %v, want non-zero, nil", fs, err)
	}
	p, err := render.LinkProgram(c, vs, fs)
	if err != nil || p == 0 {
		t.Fatalf("LinkProgram(%d, %d) = %d, %v, want non-zero, nil", vs, fs, p, err)
	}
}

func TestCompileShader_Malformed(t *testing.T) {
	c := mustContext(t)

	s, err := render.CompileShader(c, render.VertexShader, "void main() { gl_Position = ; }")

	if s != 0 {
		t.Errorf("CompileShader(...) = %d, want 0", s)
	}
	var sce *render.ShaderCompileError
	if !errors.As(err, &sce) {
		t.Fatalf("CompileShader(...) error = %v, want *ShaderCompileError", err)
	}
	if sce.Kind != render.VertexShader {
		t.Errorf("sce.Kind = 0x%04X, want VERTEX_SHADER", uint32(sce.Kind))
	}
	if want := "render: compile vertex shader: ERROR: 0:1:"; !strings.HasPrefix(err.Error(), want) {
		t.Errorf("err.Error() = %q, want prefix %q", err.Error(), want)
	}
}

func TestCompileShader_NoShaderObject(t *testing.T) {
	c := mustContext(t)

	_, err := render.CompileShader(c, 0x1234, render.VertexShaderSource)

	var sce *render.ShaderCompileError
	if !errors.As(err, &sce) {
		t.Fatalf("CompileShader(0x1234, ...) error = %v, want *ShaderCompileError", err)
	}
	if want := "unable to create shader object"; sce.Log != want {
		t.Errorf("sce.Log = %q, want %q", sce.Log, want)
	}
}

func TestLinkProgram_Failure(t *testing.T) {
	c := mustContext(t)
	vs, err := render.CompileShader(c, render.VertexShader, render.VertexShaderSource)
	if err != nil {
		t.Fatalf("CompileShader(vertex) error = %v, want nil", err)
	}

	_, err = render.LinkProgram(c, vs, vs)

	var ple *render.ProgramLinkError
	if !errors.As(err, &ple) {
		t.Fatalf("LinkProgram(vs, vs) error = %v, want *ProgramLinkError", err)
	}
	if !strings.Contains(ple.Log, "missing fragment shader") {
		t.Errorf("ple.Log = %q, want it to mention the missing fragment shader", ple.Log)
	}
}

// Renderer

func TestNewRenderer_InvalidOption(t *testing.T) {
	tests := []struct {
		name string
		opt  render.Option
	}{
		{"NilClearColor", render.WithClearColor(nil)},
		{"EmptyVertexSource", render.WithShaderSources("", render.FragmentShaderSource)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := render.NewRenderer(mustContext(t), tt.opt); err == nil {
				t.Errorf("NewRenderer(..., %s) error = nil, want non-nil", tt.name)
			}
		})
	}
}

func TestNewRenderer_ShaderError(t *testing.T) {
	c := mustContext(t)

	_, err := render.NewRenderer(c, render.WithShaderSources("void main() {}", render.FragmentShaderSource))

	var sce *render.ShaderCompileError
	if !errors.As(err, &sce) {
		t.Fatalf("NewRenderer(...) error = %v, want *ShaderCompileError", err)
	}
	if sce.Kind != render.VertexShader {
		t.Errorf("sce.Kind = 0x%04X, want VERTEX_SHADER", uint32(sce.Kind))
	}
	if n := len(c.Draws()); n != 0 {
		t.Errorf("len(Draws()) = %d, want 0", n)
	}
}

func TestRender_FullRun(t *testing.T) {
	c := mustContext(t)
	r := mustRenderer(t, c)
	sites := utils.SampleSites(rand.New(rand.NewSource(7)), utils.Domain)
	polygons := mustPolygons(t, sites)

	st := mustRender(t, r, sites, polygons)

	if got := c.GetError(); got != render.NoError {
		t.Errorf("GetError() = 0x%04X, want NO_ERROR", uint32(got))
	}
	want := render.Stats{Points: 1, LineLoops: nonEmpty(polygons)}
	if diff := cmp.Diff(want, st, cmpopts.IgnoreFields(render.Stats{}, "Vertices", "Skipped")); diff != "" {
		t.Errorf("Render(...) stats mismatch (-want +got):\n%s", diff)
	}

	guarded := map[string]bool{
		"BindBuffer": true, "BufferData": true, "Clear": true, "UseProgram": true,
		"VertexAttribPointer": true, "EnableVertexAttribArray": true, "DrawArrays": true,
	}
	calls := c.Calls()
	for i, name := range calls {
		if !guarded[name] {
			continue
		}
		if i+1 == len(calls) || calls[i+1] != "GetError" {
			t.Errorf("call %d (%s) is not followed by GetError", i, name)
		}
	}

	draws := c.Draws()
	if len(draws) == 0 {
		t.Fatalf("Draws() is empty, want a site draw and cell draws")
	}
	if draws[0].Mode != render.Points || draws[0].Count != int32(len(sites)) {
		t.Errorf("Draws()[0] = %+v, want POINTS of %d sites", draws[0], len(sites))
	}
	for i, dc := range draws[1:] {
		if dc.Mode != render.LineLoop {
			t.Errorf("Draws()[%d].Mode = 0x%04X, want LINE_LOOP", i+1, uint32(dc.Mode))
		}
	}
}

func TestRender_Square(t *testing.T) {
	c := mustContext(t)
	r := mustRenderer(t, c)
	polygons := mustPolygons(t, squareSites)
	if len(polygons) != 4 {
		t.Fatalf("len(polygons) = %d, want 4", len(polygons))
	}

	s, err := r.BuildScene(squareSites, polygons)
	if err != nil {
		t.Fatalf("BuildScene(...) error = %v, want nil", err)
	}
	if _, err := r.Render(s); err != nil {
		t.Fatalf("Render(...) error = %v, want nil", err)
	}

	total, stored := 0, 0
	for i, p := range polygons {
		if len(p) == 0 {
			t.Fatalf("polygons[%d] is empty", i)
		}
		total += len(p)
	}
	for i, vb := range s.Cells {
		data := c.BufferContents(vb.Handle)
		if len(data) != vb.Count || len(data)%3 != 0 {
			t.Errorf("cell buffer %d holds %d floats, want %d (a multiple of 3)", i, len(data), vb.Count)
		}
		stored += len(data)
	}
	if stored != 3*total {
		t.Errorf("stored floats = %d, want %d", stored, 3*total)
	}

	loops := drawsOf(c, render.LineLoop)
	if len(loops) != nonEmpty(polygons) {
		t.Fatalf("len(LINE_LOOP draws) = %d, want %d", len(loops), nonEmpty(polygons))
	}
	for i, dc := range loops {
		if want := int32(len(polygons[i])); dc.Count != want {
			t.Errorf("loop %d count = %d, want %d", i, dc.Count, want)
		}
	}
}

func TestRender_ClearColor(t *testing.T) {
	c := mustContext(t)
	r := mustRenderer(t, c, render.WithClearColor(color.RGBA{B: 255, A: 255}))

	mustRender(t, r, nil, nil)

	want := color.RGBA{B: 255, A: 255}
	if got := c.Image().RGBAAt(canvasSize/2, canvasSize/2); got != want {
		t.Errorf("centre pixel = %v, want %v", got, want)
	}
}

func TestRender_NoSites(t *testing.T) {
	c := mustContext(t)
	r := mustRenderer(t, c)

	s, err := r.BuildScene(nil, mustPolygons(t, squareSites))
	if err != nil {
		t.Fatalf("BuildScene(...) error = %v, want nil", err)
	}
	if s.HasSites() {
		t.Errorf("s.HasSites() = true, want false")
	}
	st, err := r.Render(s)
	if err != nil {
		t.Fatalf("Render(...) error = %v, want nil", err)
	}

	if st.Points != 0 || st.LineLoops != 4 {
		t.Errorf("Render(...) = %+v, want 0 points and 4 line loops", st)
	}
	if n := len(drawsOf(c, render.Points)); n != 0 {
		t.Errorf("len(POINTS draws) = %d, want 0", n)
	}
}

func TestBuildScene_SkipsEmptyPolygons(t *testing.T) {
	c := mustContext(t)
	r := mustRenderer(t, c)
	polygons := [][]r2.Point{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}, nil, {}}

	s, err := r.BuildScene(nil, polygons)
	if err != nil {
		t.Fatalf("BuildScene(...) error = %v, want nil", err)
	}
	if len(s.Cells) != 1 || s.Skipped != 2 {
		t.Errorf("BuildScene(...) = %d cells, %d skipped, want 1, 2", len(s.Cells), s.Skipped)
	}

	st, err := r.Render(s)
	if err != nil {
		t.Fatalf("Render(...) error = %v, want nil", err)
	}
	if st.Skipped != 2 || st.LineLoops != 1 {
		t.Errorf("Render(...) = %+v, want 2 skipped and 1 line loop", st)
	}
}

func TestBuildScene_DropsFailedBuffers(t *testing.T) {
	c := mustContext(t, softgl.WithBufferFault(func(n int) bool { return n == 2 }))
	r := mustRenderer(t, c)
	polygons := mustPolygons(t, squareSites)

	s, err := r.BuildScene(squareSites, polygons)
	if err != nil {
		t.Fatalf("BuildScene(...) error = %v, want nil", err)
	}
	if len(s.Dropped) != 1 {
		t.Fatalf("len(s.Dropped) = %d, want 1", len(s.Dropped))
	}
	if s.Dropped[0].Item != "cells[1]" {
		t.Errorf("s.Dropped[0].Item = %q, want %q", s.Dropped[0].Item, "cells[1]")
	}
	if !errors.Is(s.Dropped[0], render.ErrBufferCreation) {
		t.Errorf("s.Dropped[0] = %v, want %v", s.Dropped[0], render.ErrBufferCreation)
	}

	st, err := r.Render(s)
	if err != nil {
		t.Fatalf("Render(...) error = %v, want nil", err)
	}
	want := render.Stats{Points: 1, LineLoops: 3, Dropped: 1}
	if diff := cmp.Diff(want, st, cmpopts.IgnoreFields(render.Stats{}, "Vertices")); diff != "" {
		t.Errorf("Render(...) stats mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildScene_GLErrorAborts(t *testing.T) {
	c := mustContext(t, faultOn("BufferData", 1, render.InvalidValue))
	r := mustRenderer(t, c)

	_, err := r.BuildScene(squareSites, mustPolygons(t, squareSites))

	gse := mustGLStateError(t, err)
	if gse.Tag != "upload: buffer data" {
		t.Errorf("gse.Tag = %q, want %q", gse.Tag, "upload: buffer data")
	}
	if !strings.Contains(err.Error(), "upload cells[0]") {
		t.Errorf("err.Error() = %q, want it to name cells[0]", err.Error())
	}
}

func TestRender_InjectedDrawError(t *testing.T) {
	c := mustContext(t, faultOn("DrawArrays", 2, render.InvalidOperation))
	r := mustRenderer(t, c)
	s, err := r.BuildScene(squareSites, mustPolygons(t, squareSites))
	if err != nil {
		t.Fatalf("BuildScene(...) error = %v, want nil", err)
	}

	st, err := r.Render(s)

	gse := mustGLStateError(t, err)
	want := glState{Code: render.InvalidOperation, Name: "INVALID_OPERATION", Tag: "cells[0]: draw"}
	if diff := cmp.Diff(want, stateOf(gse)); diff != "" {
		t.Errorf("GLStateError mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(gse.Caller, "renderer.go:") {
		t.Errorf("gse.Caller = %q, want renderer.go:<line>", gse.Caller)
	}
	if st.Points != 1 || st.LineLoops != 0 {
		t.Errorf("Render(...) = %+v, want 1 point pass and 0 line loops", st)
	}
}

func TestRender_IgnoresUnrecognisedError(t *testing.T) {
	c := mustContext(t, faultOn("DrawArrays", 1, render.StackOverflow))
	r := mustRenderer(t, c)

	st := mustRender(t, r, squareSites, mustPolygons(t, squareSites))

	if st.LineLoops != 4 {
		t.Errorf("st.LineLoops = %d, want 4", st.LineLoops)
	}
}

func TestRender_SceneUsedOnce(t *testing.T) {
	c := mustContext(t)
	r := mustRenderer(t, c)
	s, err := r.BuildScene(squareSites, nil)
	if err != nil {
		t.Fatalf("BuildScene(...) error = %v, want nil", err)
	}

	if _, err := r.Render(s); err != nil {
		t.Fatalf("Render(s) error = %v, want nil", err)
	}
	if _, err := r.Render(s); !errors.Is(err, render.ErrSceneConsumed) {
		t.Errorf("second Render(s) error = %v, want %v", err, render.ErrSceneConsumed)
	}
	if _, err := r.Render(nil); !errors.Is(err, render.ErrNilScene) {
		t.Errorf("Render(nil) error = %v, want %v", err, render.ErrNilScene)
	}
}

func TestErrors(t *testing.T) {
	if !errors.Is(&render.BufferCreationError{}, render.ErrBufferCreation) {
		t.Errorf("errors.Is(&BufferCreationError{}, ErrBufferCreation) = false, want true")
	}

	tests := []struct {
		err  error
		want string
	}{
		{
			&render.BufferCreationError{Item: "sites", Points: 12},
			"render: create vertex buffer for sites (12 points): no buffer object",
		},
		{
			&render.ShaderCompileError{Kind: render.FragmentShader, Log: "boom"},
			"render: compile fragment shader: boom",
		},
		{
			&render.GLStateError{Code: render.InvalidEnum, Name: "INVALID_ENUM", Tag: "clear", Caller: "renderer.go:10"},
			"render: GL error INVALID_ENUM (0x0500) after clear at renderer.go:10",
		},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("%T.Error() = %q, want %q", tt.err, got, tt.want)
		}
	}
}

// Helpers

func mustContext(t *testing.T, setters ...softgl.Option) *softgl.Context {
	t.Helper()
	c, err := softgl.New(canvasSize, canvasSize, setters...)
	if err != nil {
		t.Fatalf("softgl.New(%d, %d) error = %v, want nil", canvasSize, canvasSize, err)
	}
	return c
}

func mustRenderer(t *testing.T, ctx render.Context, setters ...render.Option) *render.Renderer {
	t.Helper()
	r, err := render.NewRenderer(ctx, setters...)
	if err != nil {
		t.Fatalf("NewRenderer(...) error = %v, want nil", err)
	}
	return r
}

func mustPolygons(t *testing.T, sites []r2.Point) [][]r2.Point {
	t.Helper()
	d, err := glvoronoi.NewDiagram(sites, glvoronoi.BoxSize)
	if err != nil {
		t.Fatalf("NewDiagram(...) error = %v, want nil", err)
	}
	return d.Polygons()
}

func mustRender(t *testing.T, r *render.Renderer, sites []r2.Point, polygons [][]r2.Point) render.Stats {
	t.Helper()
	s, err := r.BuildScene(sites, polygons)
	if err != nil {
		t.Fatalf("BuildScene(...) error = %v, want nil", err)
	}
	st, err := r.Render(s)
	if err != nil {
		t.Fatalf("Render(...) error = %v, want nil", err)
	}
	return st
}

func mustGLStateError(t *testing.T, err error) *render.GLStateError {
	t.Helper()
	var gse *render.GLStateError
	if !errors.As(err, &gse) {
		t.Fatalf("error = %v, want *GLStateError", err)
	}
	return gse
}

type glState struct {
	Code render.Enum
	Name string
	Tag  string
}

func stateOf(e *render.GLStateError) glState {
	return glState{Code: e.Code, Name: e.Name, Tag: e.Tag}
}

// faultOn records code on the n-th call of the named Context method.
func faultOn(call string, n int, code render.Enum) softgl.Option {
	return softgl.WithCallFault(func(c string, i int) render.Enum {
		if c == call && i == n {
			return code
		}
		return render.NoError
	})
}

func drawsOf(c *softgl.Context, mode render.Enum) []softgl.DrawCall {
	var out []softgl.DrawCall
	for _, dc := range c.Draws() {
		if dc.Mode == mode {
			out = append(out, dc)
		}
	}
	return out
}

func nonEmpty(polygons [][]r2.Point) int {
	n := 0
	for _, p := range polygons {
		if len(p) > 0 {
			n++
		}
	}
	return n
}
