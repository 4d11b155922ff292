// Package shader builds GLSL programs and resolves their uniforms.
package shader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/multierr"
)

var (
	// ErrCompile wraps a stage that failed to compile.
	ErrCompile = errors.New("shader compile failed")
	// ErrLink wraps a program that failed to link.
	ErrLink = errors.New("program link failed")
	// ErrMissingUniform is returned by Require for uniforms the linker dropped.
	ErrMissingUniform = errors.New("missing uniform")
)

// Sources is the GLSL text of a vertex/fragment pair.
type Sources struct {
	Vertex   string
	Fragment string
}

// Program is a linked GL program.
type Program struct {
	ID   uint32
	Name string
}

// Build compiles both stages and links them. name only labels errors.
func Build(name string, src Sources) (*Program, error) {
	vs, err := compile(name, "vertex", gl.VERTEX_SHADER, src.Vertex)
	if err != nil {
		return nil, err
	}
	defer gl.DeleteShader(vs)

	fs, err := compile(name, "fragment", gl.FRAGMENT_SHADER, src.Fragment)
	if err != nil {
		return nil, err
	}
	defer gl.DeleteShader(fs)

	id := gl.CreateProgram()
	gl.AttachShader(id, vs)
	gl.AttachShader(id, fs)
	gl.LinkProgram(id)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var n int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &n)
		buf := make([]byte, n+1)
		gl.GetProgramInfoLog(id, n, nil, &buf[0])
		gl.DeleteProgram(id)
		return nil, fmt.Errorf("%s: %w: %s", name, ErrLink, cleanLog(buf))
	}
	return &Program{ID: id, Name: name}, nil
}

func compile(name, stage string, kind uint32, source string) (uint32, error) {
	id := gl.CreateShader(kind)
	csrc, free := gl.Strs(source + "\x00")
	gl.ShaderSource(id, 1, csrc, nil)
	free()
	gl.CompileShader(id)

	var status int32
	gl.GetShaderiv(id, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var n int32
		gl.GetShaderiv(id, gl.INFO_LOG_LENGTH, &n)
		buf := make([]byte, n+1)
		gl.GetShaderInfoLog(id, n, nil, &buf[0])
		gl.DeleteShader(id)
		return 0, fmt.Errorf("%s %s: %w: %s", name, stage, ErrCompile, cleanLog(buf))
	}
	return id, nil
}

// cleanLog turns a NUL-terminated driver info log into one trimmed line.
func cleanLog(buf []byte) string {
	s := string(buf)
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return strings.Join(strings.Fields(s), " ")
}

// Uniform returns the location of name, or -1 when the linker dropped it.
// Setting location -1 is a no-op in GL.
func (p *Program) Uniform(name string) int32 {
	return gl.GetUniformLocation(p.ID, gl.Str(name+"\x00"))
}

// Require resolves uniforms the program cannot work without. Every missing
// name is reported, not just the first.
func (p *Program) Require(names ...string) (map[string]int32, error) {
	locs := make(map[string]int32, len(names))
	var err error
	for _, name := range names {
		loc := p.Uniform(name)
		if loc < 0 {
			err = multierr.Append(err, fmt.Errorf("%s: %w %q", p.Name, ErrMissingUniform, name))
			continue
		}
		locs[name] = loc
	}
	return locs, err
}

// Use makes p the current program.
func (p *Program) Use() {
	gl.UseProgram(p.ID)
}

// Delete frees the program. It is safe on a nil or deleted program.
func (p *Program) Delete() {
	if p == nil || p.ID == 0 {
		return
	}
	gl.DeleteProgram(p.ID)
	p.ID = 0
}
