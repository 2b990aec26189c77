package texquad

import (
	"fmt"
	"log/slog"
	"strings"
)

// Symbolic binding names and the shader identifiers they resolve to.
const (
	AttrCoordinate        = "coordinate"
	AttrTextureCoordinate = "textureCoordinate"

	UniformViewport          = "viewport"
	UniformSampler           = "sampler"
	UniformTextureDimensions = "textureDimensions"
)

// binding maps a symbolic name to its shader identifier.
type binding struct {
	name   string
	symbol string
}

var attributeBindings = []binding{
	{AttrCoordinate, "aCoordinate"},
	{AttrTextureCoordinate, "aTextureCoord"},
}

var uniformBindings = []binding{
	{UniformViewport, "uViewport"},
	{UniformSampler, "uSampler"},
	{UniformTextureDimensions, "uTextureDimensions"},
}

// Program is a linked pipeline program with its attribute and uniform
// locations resolved once at link time. Locations are never re-queried.
type Program struct {
	ID uint32

	attributes map[string]uint32
	uniforms   map[string]int32
}

// Attribute returns the location of a symbolic attribute name.
func (p *Program) Attribute(name string) (uint32, bool) {
	loc, ok := p.attributes[name]
	return loc, ok
}

// Uniform returns the location of a symbolic uniform name.
func (p *Program) Uniform(name string) (int32, bool) {
	loc, ok := p.uniforms[name]
	return loc, ok
}

// Locations returns every resolved binding keyed by symbolic name.
func (p *Program) Locations() map[string]int32 {
	out := make(map[string]int32, len(p.attributes)+len(p.uniforms))
	for name, loc := range p.attributes {
		out[name] = int32(loc)
	}
	for name, loc := range p.uniforms {
		out[name] = loc
	}
	return out
}

// Link links a vertex and a fragment unit into a program and resolves the
// fixed attribute and uniform names. Once linking has been attempted both
// units are deleted.
func Link(dev Device, vs, fs *Shader) (*Program, error) {
	return link(dev, logger, vs, fs)
}

func link(dev Device, log *slog.Logger, vs, fs *Shader) (*Program, error) {
	if vs == nil || !vs.Compiled || vs.Kind != VertexShader {
		return nil, &ProgramLinkError{Log: "first unit is not a compiled vertex shader"}
	}
	if fs == nil || !fs.Compiled || fs.Kind != FragmentShader {
		return nil, &ProgramLinkError{Log: "second unit is not a compiled fragment shader"}
	}

	id := dev.CreateProgram()
	dev.AttachShader(id, vs.ID)
	dev.AttachShader(id, fs.ID)
	dev.LinkProgram(id)

	if !dev.ProgramLinked(id) {
		infoLog := strings.TrimRight(dev.ProgramInfoLog(id), "\x00")
		if strings.TrimSpace(infoLog) == "" {
			infoLog = "link status false, no info log"
		}
		dev.DeleteProgram(id)
		dev.DeleteShader(vs.ID)
		dev.DeleteShader(fs.ID)
		return nil, &ProgramLinkError{Log: infoLog}
	}

	// Cleanup shaders (they're linked into the program now)
	dev.DeleteShader(vs.ID)
	dev.DeleteShader(fs.ID)

	p := &Program{
		ID:         id,
		attributes: make(map[string]uint32, len(attributeBindings)),
		uniforms:   make(map[string]int32, len(uniformBindings)),
	}
	for _, b := range attributeBindings {
		loc := dev.AttribLocation(id, b.symbol)
		if loc < 0 {
			dev.DeleteProgram(id)
			return nil, &BindingResolutionError{Kind: "attribute", Name: b.name, Symbol: b.symbol}
		}
		p.attributes[b.name] = uint32(loc)
	}
	for _, b := range uniformBindings {
		loc := dev.UniformLocation(id, b.symbol)
		if loc < 0 {
			dev.DeleteProgram(id)
			return nil, &BindingResolutionError{Kind: "uniform", Name: b.name, Symbol: b.symbol}
		}
		p.uniforms[b.name] = loc
	}

	if verbose() {
		log.Debug("program linked", "id", id, "locations", fmt.Sprint(p.Locations()))
	}
	return p, nil
}
