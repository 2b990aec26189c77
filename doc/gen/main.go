// Command gen renders the quad in a few configurations, reads back the
// framebuffer and saves JPEG screenshots to doc/imgs/.
//
// Usage:
//
//	go run ./doc/gen/          # software device only
//	devbox shell
//	go run ./doc/gen/ -gl      # also capture through OpenGL in a hidden window
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-theft-auto/texquad"
	"github.com/go-theft-auto/texquad/assets"
	"github.com/go-theft-auto/texquad/backend/opengl"
	"github.com/go-theft-auto/texquad/backend/softgl"
)

// Hidden window size; every screenshot must fit inside it.
const (
	maxWidth  = 800
	maxHeight = 600
)

func init() {
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// screenshot defines a single capture.
type screenshot struct {
	name  string // filename without extension
	vp    texquad.Viewport
	quad  texquad.Rect
	clear texquad.Color
}

func run() error {
	withGL := flag.Bool("gl", false, "also capture through the OpenGL backend")
	flag.Parse()

	outDir := filepath.Join("doc", "imgs")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	shots := buildScreenshots()

	for _, s := range shots {
		dev := softgl.New(s.vp.Width, s.vp.Height, softgl.WithStages(texquad.ReferenceVertex, texquad.ReferenceFragment))
		if err := capture(dev, s, filepath.Join(outDir, s.name+"-soft.jpg")); err != nil {
			return fmt.Errorf("capture %s: %w", s.name, err)
		}
		fmt.Printf("  %s-soft.jpg (%dx%d)\n", s.name, s.vp.Width, s.vp.Height)
	}

	if *withGL {
		win, err := opengl.OpenWindow(maxWidth, maxHeight, opengl.WithTitle("screenshot-gen"), opengl.Hidden())
		if err != nil {
			return err
		}
		defer win.Close()

		// Framebuffer pixels per window pixel; 2 on most high-DPI displays.
		winWidth, _ := win.Size()
		fbWidth, _ := win.FramebufferSize()
		scale := fbWidth / winWidth

		dev := opengl.NewDevice()
		for _, s := range shots {
			fb := texquad.WithFramebuffer(s.vp.Width*scale, s.vp.Height*scale)
			if err := capture(dev, s, filepath.Join(outDir, s.name+"-gl.jpg"), fb); err != nil {
				return fmt.Errorf("capture %s: %w", s.name, err)
			}
			fmt.Printf("  %s-gl.jpg (%dx%d)\n", s.name, s.vp.Width, s.vp.Height)
		}
	}

	fmt.Printf("\nGenerated screenshots in %s/\n", outDir)
	return nil
}

func capture(dev texquad.Device, s screenshot, path string, extra ...texquad.Option) error {
	// Fresh pipeline per screenshot so no GPU objects leak between captures.
	opts := []texquad.Option{
		texquad.WithViewport(s.vp),
		texquad.WithQuad(s.quad),
		texquad.WithClearColor(s.clear),
		texquad.WithLoader(texquad.NewLoader(texquad.WithFS(assets.FS))),
	}
	p := texquad.New(dev, append(opts, extra...)...)
	defer p.Close()

	if err := p.Init(context.Background(), assets.Sources(), texquad.DefaultImage); err != nil {
		return err
	}
	img, err := p.Snapshot()
	if err != nil {
		return err
	}
	return writeJPEG(path, img)
}

func writeJPEG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
}

// buildScreenshots returns the list of all screenshots to generate.
func buildScreenshots() []screenshot {
	return []screenshot{
		{
			name:  "reference",
			vp:    texquad.DefaultViewport,
			quad:  texquad.DefaultQuad,
			clear: texquad.DefaultClearColor,
		},
		{
			name:  "native-size",
			vp:    texquad.Viewport{Width: 420, Height: 120},
			quad:  texquad.Rect{X: 10, Y: 10, W: 400, H: 100},
			clear: texquad.Color{R: 0.12, G: 0.12, B: 0.14, A: 1},
		},
		{
			name:  "stretched",
			vp:    texquad.Viewport{Width: 300, Height: 300},
			quad:  texquad.Rect{X: 20, Y: 20, W: 260, H: 260},
			clear: texquad.Color{R: 1, G: 1, B: 1, A: 1},
		},
	}
}
