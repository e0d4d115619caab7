// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package softgl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/2dChan/glvoronoi/render"
)

type shader struct {
	kind     render.Enum
	source   string
	compiled bool
	log      string
	stage    *stage
}

// stage is a compiled shader: the only programs the subset can express are
// an attribute plus a constant offset, a constant point size and a constant
// fragment color.
type stage struct {
	kind      render.Enum
	attribute string
	offset    [4]float32
	pointSize float32
	color     [4]float32
}

type program struct {
	shaders  []render.Shader
	bindings map[string]uint32
	linked   bool
	log      string
	vs, fs   *stage
	position uint32
}

var (
	reLineComment  = regexp.MustCompile(`//[^\n]*`)
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)

	reVersion   = regexp.MustCompile(`^#\s*version\s+\d+(\s+es)?$`)
	rePrecision = regexp.MustCompile(`^precision\s+(lowp|mediump|highp)\s+float$`)
	reAttribute = regexp.MustCompile(`^attribute\s+(\w+)\s+([A-Za-z_]\w*)$`)
	reMain      = regexp.MustCompile(`^void\s+main\s*\(\s*(void)?\s*\)$`)

	rePosition  = regexp.MustCompile(`^gl_Position\s*=\s*([A-Za-z_]\w*)(?:\s*\+\s*vec4\s*\(([^()]*)\))?$`)
	rePointSize = regexp.MustCompile(`^gl_PointSize\s*=\s*(\S+)$`)
	reFragColor = regexp.MustCompile(`^gl_FragColor\s*=\s*vec4\s*\(([^()]*)\)$`)
	reFloat     = regexp.MustCompile(`^[-+]?(\d+\.\d*|\.\d+|\d+(\.\d*)?[eE][-+]?\d+)$`)
)

// statement is a source fragment terminated by ';', '{' or '}'.
type statement struct {
	text string
	term byte
	line int
}

type diagnostics []string

func (d *diagnostics) errorf(line int, format string, args ...any) {
	*d = append(*d, fmt.Sprintf("ERROR: 0:%d: ", line)+fmt.Sprintf(format, args...))
}

func (d diagnostics) String() string {
	if len(d) == 0 {
		return ""
	}
	return strings.Join(d, "\n") + fmt.Sprintf("\nERROR: %d compilation errors.  No code generated.\n", len(d))
}

// stripComments blanks comments, keeping newlines so line numbers survive.
func stripComments(src string) string {
	blank := func(s string) string {
		return strings.Map(func(r rune) rune {
			if r == '\n' {
				return r
			}
			return ' '
		}, s)
	}
	src = reBlockComment.ReplaceAllStringFunc(src, blank)
	return reLineComment.ReplaceAllStringFunc(src, blank)
}

// split returns the preprocessor lines and the statements of src.
func split(src string) (directives, stmts []statement, rest statement) {
	line := 1
	var b strings.Builder
	start := 0
	flush := func(term byte) {
		stmts = append(stmts, statement{text: strings.TrimSpace(b.String()), term: term, line: start})
		b.Reset()
		start = 0
	}
	atLineStart := true
	for i := 0; i < len(src); i++ {
		ch := src[i]
		if atLineStart && ch == '#' {
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src) - i
			}
			directives = append(directives, statement{text: strings.TrimSpace(src[i : i+end]), line: line})
			i += end - 1
			continue
		}
		switch ch {
		case '\n':
			line++
			atLineStart = true
			b.WriteByte(' ')
			continue
		case ';', '{', '}':
			if start == 0 {
				start = line
			}
			flush(ch)
		default:
			if start == 0 && ch != ' ' && ch != '\t' && ch != '\r' {
				start = line
			}
			b.WriteByte(ch)
		}
		if ch != ' ' && ch != '\t' && ch != '\r' {
			atLineStart = false
		}
	}
	rest = statement{text: strings.TrimSpace(b.String()), line: line}
	return directives, stmts, rest
}

// compile translates src for the given stage kind.
func compile(kind render.Enum, src string) (*stage, diagnostics) {
	var diag diagnostics
	st := &stage{kind: kind, pointSize: 1}

	directives, stmts, rest := split(stripComments(src))
	for _, d := range directives {
		if !reVersion.MatchString(d.text) {
			diag.errorf(d.line, "'%s' : unsupported preprocessor directive", d.text)
		}
	}

	var (
		inMain, sawMain bool
		wrotePosition   bool
		wroteColor      bool
		lastLine        = rest.line
	)
	for _, s := range stmts {
		switch {
		case s.term == '{':
			if inMain || !reMain.MatchString(s.text) {
				diag.errorf(s.line, "'%s' : syntax error", s.text)
				continue
			}
			if sawMain {
				diag.errorf(s.line, "'main' : function already has a body")
			}
			inMain, sawMain = true, true
		case s.term == '}':
			if s.text != "" {
				diag.errorf(s.line, "'%s' : syntax error", s.text)
			}
			if !inMain {
				diag.errorf(s.line, "'}' : syntax error")
			}
			inMain = false
		case s.text == "":
		case !inMain:
			compileGlobal(kind, st, s, &diag)
		default:
			p, c := compileMain(kind, st, s, &diag)
			wrotePosition = wrotePosition || p
			wroteColor = wroteColor || c
		}
	}

	switch {
	case rest.text != "":
		diag.errorf(rest.line, "'%s' : syntax error: unexpected end of file", rest.text)
	case inMain:
		diag.errorf(lastLine, "'' : syntax error: unexpected end of file")
	case !sawMain:
		diag.errorf(lastLine, "'main' : function not defined")
	}
	if sawMain && len(diag) == 0 {
		if kind == render.VertexShader && !wrotePosition {
			diag.errorf(lastLine, "'gl_Position' : vertex shader does not write the position")
		}
		if kind == render.FragmentShader && !wroteColor {
			diag.errorf(lastLine, "'gl_FragColor' : fragment shader does not write a color")
		}
	}
	if len(diag) > 0 {
		return nil, diag
	}
	return st, nil
}

func compileGlobal(kind render.Enum, st *stage, s statement, diag *diagnostics) {
	if rePrecision.MatchString(s.text) {
		return
	}
	m := reAttribute.FindStringSubmatch(s.text)
	switch {
	case m == nil:
		diag.errorf(s.line, "'%s' : syntax error", s.text)
	case kind != render.VertexShader:
		diag.errorf(s.line, "'attribute' : supported in vertex shaders only")
	case m[1] != "vec4":
		diag.errorf(s.line, "'%s' : attribute type not supported", m[1])
	case st.attribute != "":
		diag.errorf(s.line, "'%s' : only one attribute is supported", m[2])
	case strings.HasPrefix(m[2], "gl_"):
		diag.errorf(s.line, "'%s' : reserved built-in name", m[2])
	default:
		st.attribute = m[2]
	}
}

func compileMain(kind render.Enum, st *stage, s statement, diag *diagnostics) (position, color bool) {
	if kind == render.VertexShader {
		if m := rePosition.FindStringSubmatch(s.text); m != nil {
			if m[1] != st.attribute {
				diag.errorf(s.line, "'%s' : undeclared identifier", m[1])
				return false, false
			}
			if m[2] != "" {
				v, err := parseVec4(m[2])
				if err != nil {
					diag.errorf(s.line, "'vec4' : %v", err)
					return false, false
				}
				st.offset = v
			}
			return true, false
		}
		if m := rePointSize.FindStringSubmatch(s.text); m != nil {
			v, err := parseFloat(m[1])
			if err != nil {
				diag.errorf(s.line, "'=' : %v", err)
				return false, false
			}
			st.pointSize = v
			return false, false
		}
	}
	if kind == render.FragmentShader {
		if m := reFragColor.FindStringSubmatch(s.text); m != nil {
			v, err := parseVec4(m[1])
			if err != nil {
				diag.errorf(s.line, "'vec4' : %v", err)
				return false, false
			}
			st.color = v
			return false, true
		}
	}
	name := s.text
	if i := strings.IndexAny(name, " =("); i > 0 {
		name = name[:i]
	}
	if strings.HasPrefix(name, "gl_") && !builtin(kind, name) {
		diag.errorf(s.line, "'%s' : undeclared identifier", name)
	} else {
		diag.errorf(s.line, "'%s' : syntax error", s.text)
	}
	return false, false
}

// parseVec4 parses constructor arguments: four scalars, or one scalar that
// fills every component.
func parseVec4(args string) ([4]float32, error) {
	parts := strings.Split(args, ",")
	if len(parts) != 1 && len(parts) != 4 {
		return [4]float32{}, fmt.Errorf("constructor takes 1 or 4 arguments, got %d", len(parts))
	}
	var v [4]float32
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return [4]float32{}, fmt.Errorf("'%s' : not a constant", strings.TrimSpace(p))
		}
		v[i] = float32(f)
	}
	if len(parts) == 1 {
		v[1], v[2], v[3] = v[0], v[0], v[0]
	}
	return v, nil
}

// parseFloat accepts float literals only; GLSL ES does not convert int
// constants implicitly.
func parseFloat(lit string) (float32, error) {
	if !reFloat.MatchString(lit) {
		return 0, fmt.Errorf("cannot convert from '%s' to 'float'", lit)
	}
	f, err := strconv.ParseFloat(lit, 32)
	if err != nil {
		return 0, err
	}
	return float32(f), nil
}

func (c *Context) CreateShader(kind render.Enum) render.Shader {
	c.call("CreateShader")
	if kind != render.VertexShader && kind != render.FragmentShader {
		c.record(render.InvalidEnum)
		return 0
	}
	s := render.Shader(c.name())
	c.shaders[s] = &shader{kind: kind}
	return s
}

func (c *Context) ShaderSource(s render.Shader, source string) {
	c.call("ShaderSource")
	sh, ok := c.shaders[s]
	if !ok {
		c.record(render.InvalidValue)
		return
	}
	sh.source = source
}

func (c *Context) CompileShader(s render.Shader) {
	c.call("CompileShader")
	sh, ok := c.shaders[s]
	if !ok {
		c.record(render.InvalidValue)
		return
	}
	st, diag := compile(sh.kind, sh.source)
	sh.stage, sh.compiled, sh.log = st, st != nil, diag.String()
}

func (c *Context) ShaderCompileStatus(s render.Shader) bool {
	c.call("ShaderCompileStatus")
	sh, ok := c.shaders[s]
	if !ok {
		c.record(render.InvalidValue)
		return false
	}
	return sh.compiled
}

func (c *Context) ShaderInfoLog(s render.Shader) string {
	c.call("ShaderInfoLog")
	sh, ok := c.shaders[s]
	if !ok {
		c.record(render.InvalidValue)
		return ""
	}
	return sh.log
}

func (c *Context) CreateProgram() render.Program {
	c.call("CreateProgram")
	p := render.Program(c.name())
	c.programs[p] = &program{bindings: make(map[string]uint32)}
	return p
}

func (c *Context) AttachShader(p render.Program, s render.Shader) {
	c.call("AttachShader")
	prog, ok := c.programs[p]
	sh, sok := c.shaders[s]
	if !ok || !sok {
		c.record(render.InvalidValue)
		return
	}
	for _, attached := range prog.shaders {
		if attached == s || c.shaders[attached].kind == sh.kind {
			c.record(render.InvalidOperation)
			return
		}
	}
	prog.shaders = append(prog.shaders, s)
}

func (c *Context) BindAttribLocation(p render.Program, index uint32, name string) {
	c.call("BindAttribLocation")
	prog, ok := c.programs[p]
	switch {
	case !ok, index >= MaxVertexAttribs:
		c.record(render.InvalidValue)
	case strings.HasPrefix(name, "gl_"):
		c.record(render.InvalidOperation)
	default:
		prog.bindings[name] = index
	}
}

func (c *Context) LinkProgram(p render.Program) {
	c.call("LinkProgram")
	prog, ok := c.programs[p]
	if !ok {
		c.record(render.InvalidValue)
		return
	}

	var vs, fs *stage
	var log []string
	for _, s := range prog.shaders {
		sh := c.shaders[s]
		if !sh.compiled {
			log = append(log, fmt.Sprintf("error: attached %s shader is not compiled", kindName(sh.kind)))
			continue
		}
		if sh.kind == render.VertexShader {
			vs = sh.stage
		} else {
			fs = sh.stage
		}
	}
	if vs == nil && len(log) == 0 {
		log = append(log, "error: missing vertex shader")
	}
	if fs == nil && len(log) == 0 {
		log = append(log, "error: missing fragment shader")
	}
	if len(log) > 0 {
		prog.linked, prog.vs, prog.fs = false, nil, nil
		prog.log = strings.Join(log, "\n") + "\n"
		return
	}

	prog.linked, prog.vs, prog.fs, prog.log = true, vs, fs, ""
	prog.position = prog.bindings[vs.attribute]
}

func (c *Context) ProgramLinkStatus(p render.Program) bool {
	c.call("ProgramLinkStatus")
	prog, ok := c.programs[p]
	if !ok {
		c.record(render.InvalidValue)
		return false
	}
	return prog.linked
}

func (c *Context) ProgramInfoLog(p render.Program) string {
	c.call("ProgramInfoLog")
	prog, ok := c.programs[p]
	if !ok {
		c.record(render.InvalidValue)
		return ""
	}
	return prog.log
}

func (c *Context) UseProgram(p render.Program) {
	c.call("UseProgram")
	if p == 0 {
		c.current = 0
		return
	}
	prog, ok := c.programs[p]
	switch {
	case !ok:
		c.record(render.InvalidValue)
	case !prog.linked:
		c.record(render.InvalidOperation)
	default:
		c.current = p
	}
}

func builtin(kind render.Enum, name string) bool {
	if kind == render.VertexShader {
		return name == "gl_Position" || name == "gl_PointSize"
	}
	return name == "gl_FragColor"
}

func kindName(kind render.Enum) string {
	if kind == render.VertexShader {
		return "vertex"
	}
	return "fragment"
}
