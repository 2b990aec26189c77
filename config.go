package texquad

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the file form of the pipeline options.
//
//	surface: {width: 800, height: 600}
//	quad: {x: 10, y: 10, width: 780, height: 150}
//	clear_color: [0.9, 0.9, 0.9, 1]
//	image: texture.png
//	load_timeout: 5s
type Config struct {
	Surface     SurfaceConfig `yaml:"surface"`
	Quad        QuadConfig    `yaml:"quad"`
	ClearColor  []float32     `yaml:"clear_color"`
	Image       string        `yaml:"image"`
	LoadTimeout string        `yaml:"load_timeout"` // Go duration, empty = no timeout
}

// SurfaceConfig is the drawing surface size.
type SurfaceConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// QuadConfig is the quad rectangle in surface pixels.
type QuadConfig struct {
	X      float32 `yaml:"x"`
	Y      float32 `yaml:"y"`
	Width  float32 `yaml:"width"`
	Height float32 `yaml:"height"`
}

// DefaultImage is the embedded image ref of the reference configuration.
const DefaultImage = "texture.png"

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	c := DefaultClearColor
	return Config{
		Surface:    SurfaceConfig{Width: DefaultViewport.Width, Height: DefaultViewport.Height},
		Quad:       QuadConfig{X: DefaultQuad.X, Y: DefaultQuad.Y, Width: DefaultQuad.W, Height: DefaultQuad.H},
		ClearColor: []float32{c.R, c.G, c.B, c.A},
		Image:      DefaultImage,
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing or empty
// file yields the defaults; unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("config file not found, using defaults", "path", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Surface.Width <= 0 || c.Surface.Height <= 0 {
		return fmt.Errorf("surface size %dx%d must be positive", c.Surface.Width, c.Surface.Height)
	}
	if c.Quad.Width <= 0 || c.Quad.Height <= 0 {
		return fmt.Errorf("quad size %gx%g must be positive", c.Quad.Width, c.Quad.Height)
	}
	if len(c.ClearColor) != 4 {
		return fmt.Errorf("clear_color needs 4 components, got %d", len(c.ClearColor))
	}
	if c.Image == "" {
		return errors.New("image is required")
	}
	if _, err := c.loadTimeout(); err != nil {
		return err
	}
	return nil
}

func (c Config) loadTimeout() (time.Duration, error) {
	if c.LoadTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.LoadTimeout)
	if err != nil {
		return 0, fmt.Errorf("load_timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("load_timeout %s is negative", d)
	}
	return d, nil
}

// Viewport returns the configured surface size.
func (c Config) Viewport() Viewport {
	return Viewport{Width: c.Surface.Width, Height: c.Surface.Height}
}

// Options converts the config into pipeline options. Loader options (such as
// the asset filesystem) are combined with the configured load timeout.
func (c Config) Options(loaderOpts ...LoaderOption) []Option {
	opts := []Option{
		WithViewport(c.Viewport()),
		WithQuad(Rect{X: c.Quad.X, Y: c.Quad.Y, W: c.Quad.Width, H: c.Quad.Height}),
	}
	if len(c.ClearColor) == 4 {
		opts = append(opts, WithClearColor(Color{R: c.ClearColor[0], G: c.ClearColor[1], B: c.ClearColor[2], A: c.ClearColor[3]}))
	}
	if d, err := c.loadTimeout(); err == nil && d > 0 {
		loaderOpts = append(loaderOpts, WithLoadTimeout(d))
	}
	return append(opts, WithLoader(NewLoader(loaderOpts...)))
}
