package texquad_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-theft-auto/texquad"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "texquad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := texquad.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, texquad.DefaultConfig(), cfg)
	assert.Equal(t, texquad.DefaultViewport, cfg.Viewport())
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
surface: {width: 320, height: 240}
quad: {x: 4, y: 8, width: 100, height: 50}
clear_color: [0, 0, 0, 1]
image: https://example.com/tex.png
load_timeout: 250ms
`)
	cfg, err := texquad.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, texquad.Viewport{Width: 320, Height: 240}, cfg.Viewport())
	assert.Equal(t, texquad.QuadConfig{X: 4, Y: 8, Width: 100, Height: 50}, cfg.Quad)
	assert.Equal(t, []float32{0, 0, 0, 1}, cfg.ClearColor)
	assert.Equal(t, "https://example.com/tex.png", cfg.Image)
	assert.Equal(t, "250ms", cfg.LoadTimeout)
}

func TestLoadConfigEmptyFileUsesDefaults(t *testing.T) {
	cfg, err := texquad.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, texquad.DefaultConfig(), cfg)
}

func TestLoadConfigPartialKeepsDefaults(t *testing.T) {
	cfg, err := texquad.LoadConfig(writeConfig(t, "load_timeout: 2s\n"))
	require.NoError(t, err)
	assert.Equal(t, texquad.DefaultImage, cfg.Image)
	assert.Equal(t, texquad.DefaultViewport, cfg.Viewport())
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero surface", "surface: {width: 0, height: 600}\n"},
		{"empty quad", "quad: {x: 0, y: 0, width: 0, height: 10}\n"},
		{"short clear color", "clear_color: [1, 1]\n"},
		{"bad timeout", "load_timeout: soon\n"},
		{"negative timeout", "load_timeout: -1s\n"},
		{"empty image", "image: \"\"\n"},
		{"not yaml", "surface: [\n"},
		{"misspelled key", "clear_colour: [0, 0, 0, 1]\n"},
		{"unknown nested key", "surface: {width: 800, hieght: 600}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := texquad.LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestConfigOptions(t *testing.T) {
	cfg := texquad.DefaultConfig()
	cfg.Surface = texquad.SurfaceConfig{Width: 64, Height: 32}
	cfg.Quad = texquad.QuadConfig{X: 2, Y: 2, Width: 60, Height: 28}
	cfg.LoadTimeout = time.Second.String()
	require.NoError(t, cfg.Validate())

	p := texquad.New(newDevice(texquad.Viewport{Width: 64, Height: 32}), cfg.Options()...)
	assert.Equal(t, texquad.Viewport{Width: 64, Height: 32}, p.Viewport())
}
