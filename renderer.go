package texquad

import (
	"errors"
	"log/slog"
)

// Uniforms are the per-draw constants set once during Renderer.Setup.
type Uniforms struct {
	Viewport          [2]float32
	TextureDimensions [2]float32
	Sampler           int32
}

// Renderer binds the program, quad buffers and texture and issues the draw.
// It borrows everything it references; the owner must keep them alive.
type Renderer struct {
	dev  Device
	prog *Program
	bufs *QuadBuffers
	tex  *Texture
	vp   Viewport
	log  *slog.Logger

	uniforms Uniforms
	ready    bool
	draws    int
}

// NewRenderer creates a renderer over already-built pipeline objects.
func NewRenderer(dev Device, prog *Program, bufs *QuadBuffers, tex *Texture, vp Viewport) *Renderer {
	return &Renderer{dev: dev, prog: prog, bufs: bufs, tex: tex, vp: vp, log: logger}
}

// WireAttributes records the position and texture-coordinate attribute
// layout into the quad's vertex array: stride 4 floats, position at float 0,
// texture coordinate at float 2.
func WireAttributes(dev Device, prog *Program, bufs *QuadBuffers) error {
	coord, ok := prog.Attribute(AttrCoordinate)
	if !ok {
		return &BindingResolutionError{Kind: "attribute", Name: AttrCoordinate, Symbol: "aCoordinate"}
	}
	texCoord, ok := prog.Attribute(AttrTextureCoordinate)
	if !ok {
		return &BindingResolutionError{Kind: "attribute", Name: AttrTextureCoordinate, Symbol: "aTextureCoord"}
	}

	stride := int32(VertexStride * floatSize)

	dev.BindVertexArray(bufs.VAO)
	dev.BindBuffer(ArrayBuffer, bufs.Vertices)

	// Position attribute
	dev.VertexAttribPointer(coord, 2, stride, PositionOffset*floatSize)
	dev.EnableVertexAttribArray(coord)

	// Texture coordinate attribute
	dev.VertexAttribPointer(texCoord, 2, stride, TexCoordOffset*floatSize)
	dev.EnableVertexAttribArray(texCoord)

	dev.BindVertexArray(0)
	bufs.Wired = true
	return nil
}

// Setup sets the viewport, texture-dimension and sampler uniforms, wiring
// the vertex attributes first if that has not happened yet.
func (r *Renderer) Setup() error {
	if r.prog == nil || r.bufs == nil || r.tex == nil {
		return errors.New("renderer: program, buffers and texture are required")
	}
	if !r.bufs.Wired {
		if err := WireAttributes(r.dev, r.prog, r.bufs); err != nil {
			return err
		}
	}
	locs := make(map[string]int32, len(uniformBindings))
	for _, b := range uniformBindings {
		loc, ok := r.prog.Uniform(b.name)
		if !ok {
			return &BindingResolutionError{Kind: "uniform", Name: b.name, Symbol: b.symbol}
		}
		locs[b.name] = loc
	}

	r.uniforms = Uniforms{
		Viewport:          [2]float32{float32(r.vp.Width), float32(r.vp.Height)},
		TextureDimensions: [2]float32{float32(r.tex.Width), float32(r.tex.Height)},
		Sampler:           int32(r.tex.Unit),
	}

	dev := r.dev
	dev.UseProgram(r.prog.ID)
	dev.Uniform2f(locs[UniformViewport], r.uniforms.Viewport[0], r.uniforms.Viewport[1])
	dev.Uniform2f(locs[UniformTextureDimensions], r.uniforms.TextureDimensions[0], r.uniforms.TextureDimensions[1])
	dev.Uniform1i(locs[UniformSampler], r.uniforms.Sampler)

	r.ready = true
	return nil
}

// Draw clears the color buffer and draws the quad's indices as triangles.
// Geometry and texture are immutable, so repeated draws produce the same
// frame. Backend errors are logged as warnings, not returned.
func (r *Renderer) Draw() {
	if !r.ready {
		r.log.Warn("draw before setup ignored")
		return
	}
	dev := r.dev

	dev.UseProgram(r.prog.ID)
	dev.BindVertexArray(r.bufs.VAO)
	dev.ActiveTexture(r.tex.Unit)
	dev.BindTexture(r.tex.ID)

	dev.Clear(ColorBufferBit)
	dev.DrawElements(r.bufs.IndexCount, 0)

	dev.BindVertexArray(0)
	r.draws++

	if err := dev.Err(); err != nil {
		r.log.Warn("backend reported error after draw", "error", err, "draw", r.draws)
	}
}

// Uniforms returns the uniform values set by Setup.
func (r *Renderer) Uniforms() Uniforms {
	return r.uniforms
}

// DrawCount returns how many draws have been issued.
func (r *Renderer) DrawCount() int {
	return r.draws
}
