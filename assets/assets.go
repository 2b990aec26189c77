// Package assets bundles the default shader pair and texture.
package assets

import (
	"embed"

	"github.com/go-theft-auto/texquad"
)

//go:embed vertex.glsl fragment.glsl texture.png
var FS embed.FS

//go:embed vertex.glsl
var VertexShader string

//go:embed fragment.glsl
var FragmentShader string

// Sources returns the embedded shader pair.
func Sources() texquad.Sources {
	return texquad.Sources{Vertex: VertexShader, Fragment: FragmentShader}
}
