package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Window is a fixed-size GLFW drawing surface with a current OpenGL 4.1 core
// context. The calling goroutine must be locked to the main OS thread.
type Window struct {
	window        *glfw.Window
	width, height int
}

// WindowOption configures window creation.
type WindowOption func(*windowConfig)

type windowConfig struct {
	title   string
	visible bool
}

// WithTitle sets the window title.
func WithTitle(title string) WindowOption {
	return func(c *windowConfig) { c.title = title }
}

// Hidden creates an invisible window, for offscreen capture.
func Hidden() WindowOption {
	return func(c *windowConfig) { c.visible = false }
}

// OpenWindow initializes GLFW and OpenGL and opens a non-resizable window.
// Close must be called to terminate GLFW.
func OpenWindow(width, height int, opts ...WindowOption) (*Window, error) {
	cfg := windowConfig{title: "texquad", visible: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.DepthBits, 24)
	if !cfg.visible {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}

	window, err := glfw.CreateWindow(width, height, cfg.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("gl init: %w", err)
	}

	return &Window{window: window, width: width, height: height}, nil
}

// Size returns the surface size the window was created with.
func (w *Window) Size() (int, int) {
	return w.width, w.height
}

// FramebufferSize returns the framebuffer size in pixels, which differs from
// Size on high-DPI displays.
func (w *Window) FramebufferSize() (int, int) {
	return w.window.GetFramebufferSize()
}

// ShouldClose reports whether the user asked to close the window.
func (w *Window) ShouldClose() bool {
	return w.window.ShouldClose()
}

// Present swaps buffers and processes pending window events.
func (w *Window) Present() {
	w.window.SwapBuffers()
	glfw.PollEvents()
}

// Close destroys the window and terminates GLFW.
func (w *Window) Close() {
	w.window.Destroy()
	glfw.Terminate()
}
