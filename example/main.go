// Example draws the reference textured quad.
//
// Prerequisites:
//
//	Install devbox: https://www.jetify.com/devbox
//	devbox shell              # enter the dev environment (provides Go + OpenGL/X11 headers)
//	go run ./example/         # open a window and draw until it is closed
//
// With -headless the quad is rendered by the software device instead and
// written as a PNG; no display or GL driver is needed:
//
//	go run ./example/ -headless -out quad.png
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"runtime"

	"github.com/go-theft-auto/texquad"
	"github.com/go-theft-auto/texquad/assets"
	"github.com/go-theft-auto/texquad/backend/opengl"
	"github.com/go-theft-auto/texquad/backend/softgl"
)

func init() {
	// GLFW must run on the main thread.
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "texquad.yaml", "YAML config file; defaults apply when it does not exist")
	assetDir := flag.String("assets", "", "directory image refs are resolved against (default: embedded assets)")
	headless := flag.Bool("headless", false, "render with the software device and write a PNG")
	out := flag.String("out", "quad.png", "output file for -headless")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	texquad.SetVerbose(*verbose)

	cfg, err := texquad.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	var fsys fs.FS = assets.FS
	if *assetDir != "" {
		fsys = os.DirFS(*assetDir)
	}
	opts := cfg.Options(texquad.WithFS(fsys))

	if *headless {
		return renderHeadless(cfg, opts, *out)
	}
	return renderWindow(cfg, opts)
}

func renderWindow(cfg texquad.Config, opts []texquad.Option) error {
	vp := cfg.Viewport()
	win, err := opengl.OpenWindow(vp.Width, vp.Height, opengl.WithTitle("texquad"))
	if err != nil {
		return err
	}
	defer win.Close()

	dev := opengl.NewDevice()
	fmt.Println(dev.Version())

	// On high-DPI displays the framebuffer is larger than the window.
	fbWidth, fbHeight := win.FramebufferSize()
	p := texquad.New(dev, append(opts, texquad.WithFramebuffer(fbWidth, fbHeight))...)
	defer p.Close()
	if err := p.Init(context.Background(), assets.Sources(), cfg.Image); err != nil {
		return err
	}

	// Main loop.
	for !win.ShouldClose() {
		if err := p.Draw(); err != nil {
			return err
		}
		win.Present()
	}
	return nil
}

func renderHeadless(cfg texquad.Config, opts []texquad.Option, out string) error {
	vp := cfg.Viewport()
	dev := softgl.New(vp.Width, vp.Height, softgl.WithStages(texquad.ReferenceVertex, texquad.ReferenceFragment))

	p := texquad.New(dev, opts...)
	defer p.Close()
	if err := p.Init(context.Background(), assets.Sources(), cfg.Image); err != nil {
		return err
	}

	frame, err := p.Snapshot()
	if err != nil {
		return err
	}
	if err := writePNG(out, frame); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%dx%d)\n", out, vp.Width, vp.Height)
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
