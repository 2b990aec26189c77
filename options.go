package texquad

import "log/slog"

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithViewport sets the surface size in pixels.
func WithViewport(vp Viewport) Option {
	return func(p *Pipeline) { p.vp = vp }
}

// WithFramebuffer sets the render target size in pixels when it differs
// from the viewport, as on high-DPI displays. Geometry stays in viewport
// pixels and is scaled to fill the framebuffer.
func WithFramebuffer(width, height int) Option {
	return func(p *Pipeline) { p.fb = Viewport{Width: width, Height: height} }
}

// WithQuad sets the rectangle, in surface pixels, the image is laid onto.
func WithQuad(r Rect) Option {
	return func(p *Pipeline) { p.quad = r }
}

// WithClearColor sets the background color.
func WithClearColor(c Color) Option {
	return func(p *Pipeline) {
		p.clear = Color{
			R: clampf(c.R, 0, 1),
			G: clampf(c.G, 0, 1),
			B: clampf(c.B, 0, 1),
			A: clampf(c.A, 0, 1),
		}
	}
}

// WithLoader sets the texture loader.
func WithLoader(l *Loader) Option {
	return func(p *Pipeline) { p.loader = l }
}

// WithLogger sets the logger for this pipeline.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}
