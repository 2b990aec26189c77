package texquad_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"

	"github.com/go-theft-auto/texquad"
	"github.com/go-theft-auto/texquad/assets"
	"github.com/go-theft-auto/texquad/backend/softgl"
)

// newDevice returns a headless device running the reference stages.
func newDevice(vp texquad.Viewport) *softgl.Device {
	return softgl.New(vp.Width, vp.Height, softgl.WithStages(texquad.ReferenceVertex, texquad.ReferenceFragment))
}

// solidPNG encodes a w x h image filled with c.
func solidPNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// testFS serves the embedded shaders plus a solid 400x100 red image.
func testFS(t *testing.T) fstest.MapFS {
	t.Helper()
	return fstest.MapFS{
		"red.png":   {Data: solidPNG(t, 400, 100, color.RGBA{R: 255, A: 255})},
		"notes.txt": {Data: []byte("this is not an image\n")},
	}
}

func sources() texquad.Sources {
	return assets.Sources()
}
