package texquad

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
)

// State is a pipeline startup stage. Transitions only move forward.
type State int

const (
	Uninitialized State = iota
	ShadersCompiled
	ProgramLinked
	TextureLoading
	BuffersBuilt
	TextureBound
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case ShadersCompiled:
		return "shaders-compiled"
	case ProgramLinked:
		return "program-linked"
	case TextureLoading:
		return "texture-loading"
	case BuffersBuilt:
		return "buffers-built"
	case TextureBound:
		return "texture-bound"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Sources holds the vertex and fragment shader texts.
type Sources struct {
	Vertex   string
	Fragment string
}

// Pipeline owns the program, quad buffers and texture and drives startup:
// compile, link, load image, build geometry, wire attributes, bind texture,
// set uniforms. Once Ready, Draw may be called any number of times.
type Pipeline struct {
	dev    Device
	vp     Viewport
	fb     Viewport // zero means same as vp
	quad   Rect
	clear  Color
	loader *Loader
	log    *slog.Logger

	state    State
	prog     *Program
	img      *Image
	bufs     *QuadBuffers
	tex      *Texture
	renderer *Renderer
}

// New creates a pipeline on dev. Nothing is issued to dev until Init.
func New(dev Device, opts ...Option) *Pipeline {
	p := &Pipeline{
		dev:    dev,
		vp:     DefaultViewport,
		quad:   DefaultQuad,
		clear:  DefaultClearColor,
		loader: NewLoader(),
		log:    logger,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Init runs the whole startup sequence. The image load is the only point
// where Init suspends; ctx cancels that wait. Every error is fatal for the
// pipeline, which stays in the last state it reached.
func (p *Pipeline) Init(ctx context.Context, src Sources, ref string) error {
	if p.state != Uninitialized {
		return fmt.Errorf("init: pipeline already %s", p.state)
	}
	if err := p.validate(); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := p.dev.Err(); err != nil {
		p.log.Debug("discarding backend error raised before init", "error", err)
	}
	p.configureSurface()
	if err := p.checkDevice("surface setup"); err != nil {
		return err
	}

	vs, err := compile(p.dev, p.log, VertexShader, src.Vertex)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	fs, err := compile(p.dev, p.log, FragmentShader, src.Fragment)
	if err != nil {
		p.dev.DeleteShader(vs.ID)
		return fmt.Errorf("init: %w", err)
	}
	p.setState(ShadersCompiled)

	p.prog, err = link(p.dev, p.log, vs, fs)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	p.setState(ProgramLinked)

	pending := p.loader.Load(ctx, ref)
	p.setState(TextureLoading)
	p.img, err = pending.Wait(ctx)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	p.log.Debug("texture loaded", "ref", ref, "width", p.img.Width, "height", p.img.Height)

	geom, err := BuildQuad(p.quad, p.img.Width, p.img.Height)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	p.bufs, err = NewQuadBuffers(p.dev, geom)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := WireAttributes(p.dev, p.prog, p.bufs); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := p.checkDevice("buffer upload"); err != nil {
		return err
	}
	p.setState(BuffersBuilt)

	p.tex, err = BindTexture(p.dev, p.img)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := p.checkDevice("texture upload"); err != nil {
		return err
	}
	p.setState(TextureBound)

	p.renderer = NewRenderer(p.dev, p.prog, p.bufs, p.tex, p.vp)
	p.renderer.log = p.log
	if err := p.renderer.Setup(); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := p.checkDevice("uniform setup"); err != nil {
		return err
	}
	p.setState(Ready)
	return nil
}

func (p *Pipeline) validate() error {
	if p.vp.Width <= 0 || p.vp.Height <= 0 {
		return fmt.Errorf("viewport %dx%d must be positive", p.vp.Width, p.vp.Height)
	}
	if p.fb != (Viewport{}) && (p.fb.Width <= 0 || p.fb.Height <= 0) {
		return fmt.Errorf("framebuffer %dx%d must be positive", p.fb.Width, p.fb.Height)
	}
	return nil
}

// checkDevice turns a pending backend error into a setup failure.
func (p *Pipeline) checkDevice(stage string) error {
	if err := p.dev.Err(); err != nil {
		p.log.Error("backend error during setup", "stage", stage, "state", p.state, "error", err)
		return fmt.Errorf("init: %s: %w", stage, err)
	}
	return nil
}

// Framebuffer returns the pixel size of the render target. It equals the
// viewport unless WithFramebuffer set a different one.
func (p *Pipeline) Framebuffer() Viewport {
	if p.fb == (Viewport{}) {
		return p.vp
	}
	return p.fb
}

// configureSurface applies the one-time surface state. The GL viewport
// covers the framebuffer; uViewport keeps the logical surface size.
func (p *Pipeline) configureSurface() {
	dev := p.dev
	fb := p.Framebuffer()
	dev.Viewport(0, 0, int32(fb.Width), int32(fb.Height))
	dev.ClearColor(p.clear.R, p.clear.G, p.clear.B, p.clear.A)
	dev.Enable(Blend)
	dev.BlendFunc(BlendOne, BlendOneMinusSrcAlpha)
	dev.Enable(DepthTest)
	// Only the color buffer is cleared per draw; LessEqual lets the quad pass
	// at its own depth on every redraw.
	dev.DepthFunc(DepthLessEqual)
}

func (p *Pipeline) setState(s State) {
	p.log.Debug("pipeline state", "from", p.state, "to", s)
	p.state = s
}

// Draw renders one frame. It returns ErrNotReady until Init has succeeded.
func (p *Pipeline) Draw() error {
	if p.state != Ready {
		return ErrNotReady
	}
	p.renderer.Draw()
	return nil
}

// Snapshot draws one frame and reads it back at framebuffer size, top row
// first.
func (p *Pipeline) Snapshot() (*image.RGBA, error) {
	if err := p.Draw(); err != nil {
		return nil, err
	}
	fb := p.Framebuffer()
	img := p.dev.ReadPixels(fb.Width, fb.Height)
	if img == nil {
		return nil, errors.New("snapshot: backend returned no pixels")
	}
	return img, nil
}

// Close releases every GPU object the pipeline created.
func (p *Pipeline) Close() {
	if p.tex != nil {
		p.tex.Delete(p.dev)
		p.tex = nil
	}
	if p.bufs != nil {
		p.bufs.Delete(p.dev)
		p.bufs = nil
	}
	if p.prog != nil {
		p.dev.DeleteProgram(p.prog.ID)
		p.prog = nil
	}
	p.renderer = nil
	p.state = Uninitialized
}

// State returns the current startup state.
func (p *Pipeline) State() State { return p.state }

// Viewport returns the logical surface size the pipeline renders to.
func (p *Pipeline) Viewport() Viewport { return p.vp }

// Program returns the linked program, or nil before ProgramLinked.
func (p *Pipeline) Program() *Program { return p.prog }

// Image returns the loaded image, or nil before it resolves.
func (p *Pipeline) Image() *Image { return p.img }

// Buffers returns the quad buffers, or nil before BuffersBuilt.
func (p *Pipeline) Buffers() *QuadBuffers { return p.bufs }

// Texture returns the bound texture, or nil before TextureBound.
func (p *Pipeline) Texture() *Texture { return p.tex }

// Renderer returns the frame renderer, or nil before Ready.
func (p *Pipeline) Renderer() *Renderer { return p.renderer }
