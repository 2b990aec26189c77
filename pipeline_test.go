package texquad_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-theft-auto/texquad"
	"github.com/go-theft-auto/texquad/backend/softgl"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

// newPipeline initializes a pipeline over the default surface with a solid
// red 400x100 image and an opaque blue background.
func newPipeline(t *testing.T, opts ...texquad.Option) (*texquad.Pipeline, *softgl.Device) {
	t.Helper()
	dev := newDevice(texquad.DefaultViewport)
	opts = append([]texquad.Option{
		texquad.WithClearColor(texquad.Color{B: 1, A: 1}),
		texquad.WithLoader(texquad.NewLoader(texquad.WithFS(testFS(t)))),
	}, opts...)
	p := texquad.New(dev, opts...)
	require.NoError(t, p.Init(context.Background(), sources(), "red.png"))
	require.NoError(t, dev.Err())
	return p, dev
}

func TestPipelineEndToEnd(t *testing.T) {
	p, dev := newPipeline(t)
	defer p.Close()

	assert.Equal(t, texquad.Ready, p.State())
	assert.Equal(t, 400, p.Image().Width)
	assert.Equal(t, 100, p.Image().Height)
	assert.True(t, p.Buffers().Wired)

	u := p.Renderer().Uniforms()
	assert.Equal(t, [2]float32{800, 600}, u.Viewport)
	assert.Equal(t, [2]float32{400, 100}, u.TextureDimensions)
	assert.Equal(t, int32(0), u.Sampler)

	require.NoError(t, p.Draw())
	require.NoError(t, dev.Err())

	draws := dev.Draws()
	require.Len(t, draws, 1)
	d := draws[0]
	assert.Equal(t, p.Program().ID, d.Program)
	assert.Equal(t, int32(6), d.Count)
	assert.Equal(t, []uint16{0, 1, 2, 1, 2, 3}, d.Indices)
	assert.Equal(t, [2]float32{800, 600}, d.Uniforms["uViewport"])
	assert.Equal(t, [2]float32{400, 100}, d.Uniforms["uTextureDimensions"])
	assert.Equal(t, int32(0), d.Uniforms["uSampler"])
	assert.Equal(t, p.Texture().ID, d.Texture)
	assert.Equal(t, 780*150, d.Fragments)
	assert.Equal(t, 1, p.Renderer().DrawCount())
}

func TestPipelineTextureState(t *testing.T) {
	p, dev := newPipeline(t)
	defer p.Close()

	info, ok := dev.Texture(p.Texture().ID)
	require.True(t, ok)
	assert.Equal(t, softgl.TextureInfo{
		Width: 400, Height: 100,
		WrapS: texquad.ClampToEdge, WrapT: texquad.ClampToEdge,
		MinFilter: texquad.Linear, MagFilter: texquad.Linear,
		Complete: true,
	}, info)
	assert.Equal(t, p.Texture().ID, dev.BoundTexture(0))
}

func TestPipelineSurfaceState(t *testing.T) {
	p, dev := newPipeline(t)
	defer p.Close()

	calls := dev.Calls()
	for _, want := range []string{
		"Viewport(0, 0, 800, 600)",
		"ClearColor(0, 0, 1, 1)",
		fmt.Sprintf("Enable(%d)", texquad.Blend),
		fmt.Sprintf("BlendFunc(%d, %d)", texquad.BlendOne, texquad.BlendOneMinusSrcAlpha),
		fmt.Sprintf("Enable(%d)", texquad.DepthTest),
		fmt.Sprintf("DepthFunc(%d)", texquad.DepthLessEqual),
	} {
		assert.Contains(t, calls, want)
	}
}

func TestPipelineQuadCoverage(t *testing.T) {
	p, _ := newPipeline(t)
	defer p.Close()

	frame, err := p.Snapshot()
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 800, 600), frame.Bounds())

	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{10, 10, red},
		{789, 10, red},
		{10, 159, red},
		{789, 159, red},
		{400, 85, red},
		{9, 10, blue},
		{10, 9, blue},
		{790, 159, blue},
		{789, 160, blue},
		{0, 0, blue},
		{799, 599, blue},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, frame.RGBAAt(tt.x, tt.y), "pixel (%d, %d)", tt.x, tt.y)
	}
}

func TestPipelineImageUpright(t *testing.T) {
	// 2x2 image: top row red, bottom row blue, with a green top-right texel.
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, red)
	img.SetRGBA(1, 0, color.RGBA{G: 255, A: 255})
	img.SetRGBA(0, 1, blue)
	img.SetRGBA(1, 1, blue)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	dev := newDevice(texquad.DefaultViewport)
	p := texquad.New(dev,
		texquad.WithLoader(texquad.NewLoader(texquad.WithFS(fstest.MapFS{"quad.png": {Data: buf.Bytes()}}))),
	)
	require.NoError(t, p.Init(context.Background(), sources(), "quad.png"))
	defer p.Close()

	frame, err := p.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, red, frame.RGBAAt(10, 10), "top-left of quad shows top-left texel")
	assert.Equal(t, color.RGBA{G: 255, A: 255}, frame.RGBAAt(789, 10), "top-right of quad shows top-right texel")
	assert.Equal(t, blue, frame.RGBAAt(10, 159), "bottom of quad shows bottom row")
}

func TestPipelineDrawIsIdempotent(t *testing.T) {
	p, dev := newPipeline(t)
	defer p.Close()

	first, err := p.Snapshot()
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		frame, err := p.Snapshot()
		require.NoError(t, err)
		require.True(t, bytes.Equal(first.Pix, frame.Pix), "frame %d differs from the first", i+2)
	}

	draws := dev.Draws()
	require.Len(t, draws, 5)
	for _, d := range draws {
		assert.Equal(t, draws[0].Fragments, d.Fragments)
	}
	assert.Equal(t, 5, dev.Clears())
}

func TestPipelineNotReady(t *testing.T) {
	p := texquad.New(newDevice(texquad.DefaultViewport))
	assert.Equal(t, texquad.Uninitialized, p.State())
	assert.ErrorIs(t, p.Draw(), texquad.ErrNotReady)

	_, err := p.Snapshot()
	assert.ErrorIs(t, err, texquad.ErrNotReady)
}

func TestPipelineCompileFailure(t *testing.T) {
	dev := newDevice(texquad.DefaultViewport)
	p := texquad.New(dev, texquad.WithLoader(texquad.NewLoader(texquad.WithFS(testFS(t)))))

	src := sources()
	src.Fragment = "#version 410 core\nvoid main() {\n"
	err := p.Init(context.Background(), src, "red.png")

	var compileErr *texquad.ShaderCompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, texquad.FragmentShader, compileErr.Kind)
	assert.Equal(t, texquad.Uninitialized, p.State())
	assert.Equal(t, 0, dev.Live()["shader"])
	assert.ErrorIs(t, p.Draw(), texquad.ErrNotReady)
}

func TestPipelineTextureFailure(t *testing.T) {
	dev := newDevice(texquad.DefaultViewport)
	p := texquad.New(dev, texquad.WithLoader(texquad.NewLoader(texquad.WithFS(testFS(t)))))

	err := p.Init(context.Background(), sources(), "notes.txt")
	var loadErr *texquad.TextureLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, texquad.TextureLoading, p.State())
	assert.Nil(t, p.Buffers())
	assert.ErrorIs(t, p.Draw(), texquad.ErrNotReady)
	assert.Empty(t, dev.Draws())

	p.Close()
	assert.Equal(t, 0, dev.Live()["program"])
}

func TestPipelineInitTwice(t *testing.T) {
	p, _ := newPipeline(t)
	defer p.Close()

	err := p.Init(context.Background(), sources(), "red.png")
	assert.Error(t, err)
	assert.Equal(t, texquad.Ready, p.State())
}

func TestPipelineCloseReleasesEverything(t *testing.T) {
	p, dev := newPipeline(t)
	require.NoError(t, p.Draw())
	p.Close()

	for kind, n := range dev.Live() {
		assert.Zero(t, n, kind)
	}
	assert.Equal(t, texquad.Uninitialized, p.State())
	assert.True(t, errors.Is(p.Draw(), texquad.ErrNotReady))
}

func TestPipelineLogsStateTransitions(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	p, _ := newPipeline(t, texquad.WithLogger(log))
	defer p.Close()

	out := buf.String()
	assert.Contains(t, out, "to=shaders-compiled")
	assert.Contains(t, out, "to=ready")
}

func TestPipelineRejectsInvalidSurface(t *testing.T) {
	tests := []struct {
		name string
		opt  texquad.Option
	}{
		{"negative viewport", texquad.WithViewport(texquad.Viewport{Width: -5, Height: 0})},
		{"zero height viewport", texquad.WithViewport(texquad.Viewport{Width: 800, Height: 0})},
		{"negative framebuffer", texquad.WithFramebuffer(-1, 600)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newDevice(texquad.DefaultViewport)
			p := texquad.New(dev, tt.opt, texquad.WithLoader(texquad.NewLoader(texquad.WithFS(testFS(t)))))

			err := p.Init(context.Background(), sources(), "red.png")
			require.Error(t, err)
			assert.Equal(t, texquad.Uninitialized, p.State())
			assert.Empty(t, dev.Calls())
			assert.ErrorIs(t, p.Draw(), texquad.ErrNotReady)
		})
	}
}

// failingUpload reports a backend error after every texture upload.
type failingUpload struct {
	*softgl.Device
	pending error
}

func (d *failingUpload) TexImage2D(width, height int, pixels []byte) {
	d.Device.TexImage2D(width, height, pixels)
	d.pending = errors.New("out of memory")
}

func (d *failingUpload) Err() error {
	if err := d.Device.Err(); err != nil {
		return err
	}
	err := d.pending
	d.pending = nil
	return err
}

func TestPipelineBackendErrorStopsSetup(t *testing.T) {
	dev := &failingUpload{Device: newDevice(texquad.DefaultViewport)}
	p := texquad.New(dev, texquad.WithLoader(texquad.NewLoader(texquad.WithFS(testFS(t)))))

	err := p.Init(context.Background(), sources(), "red.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "texture upload")
	assert.Contains(t, err.Error(), "out of memory")
	assert.Equal(t, texquad.BuffersBuilt, p.State())
	assert.ErrorIs(t, p.Draw(), texquad.ErrNotReady)
	assert.Empty(t, dev.Draws())

	p.Close()
	for kind, n := range dev.Live() {
		assert.Zero(t, n, kind)
	}
}

func TestPipelineFramebufferScale(t *testing.T) {
	// Logical 100x50 surface on a 2x framebuffer.
	dev := newDevice(texquad.Viewport{Width: 200, Height: 100})
	p := texquad.New(dev,
		texquad.WithViewport(texquad.Viewport{Width: 100, Height: 50}),
		texquad.WithFramebuffer(200, 100),
		texquad.WithQuad(texquad.Rect{X: 10, Y: 10, W: 40, H: 20}),
		texquad.WithClearColor(texquad.Color{B: 1, A: 1}),
		texquad.WithLoader(texquad.NewLoader(texquad.WithFS(testFS(t)))),
	)
	defer p.Close()
	require.NoError(t, p.Init(context.Background(), sources(), "red.png"))

	assert.Contains(t, dev.Calls(), "Viewport(0, 0, 200, 100)")
	assert.Equal(t, [2]float32{100, 50}, p.Renderer().Uniforms().Viewport)
	assert.Equal(t, texquad.Viewport{Width: 200, Height: 100}, p.Framebuffer())

	frame, err := p.Snapshot()
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 200, 100), frame.Bounds())

	draws := dev.Draws()
	require.Len(t, draws, 1)
	assert.Equal(t, 80*40, draws[0].Fragments)

	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{20, 20, red},
		{99, 59, red},
		{19, 20, blue},
		{20, 19, blue},
		{100, 20, blue},
		{20, 60, blue},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, frame.RGBAAt(tt.x, tt.y), "pixel (%d, %d)", tt.x, tt.y)
	}
}
