package texquad

import "fmt"

// Rect is a rectangle in surface pixel coordinates (top-left origin).
type Rect struct {
	X, Y float32 // Top-left position
	W, H float32 // Width and height
}

// String implements fmt.Stringer.
func (r Rect) String() string {
	return fmt.Sprintf("(%g,%g %gx%g)", r.X, r.Y, r.W, r.H)
}

// Viewport is the drawing surface size in pixels.
type Viewport struct {
	Width, Height int
}

// Color is a linear RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Vertex is one record of the interleaved quad vertex buffer.
// Memory layout matches the attribute wiring in WireAttributes.
type Vertex struct {
	Pos      [2]float32 // Surface pixel position (x, y)
	TexCoord [2]float32 // Image pixel coordinate (u, v)
}

// Vertex buffer layout. Stride and offsets are in float32 components.
const (
	VertexStride   = 4
	PositionOffset = 0
	TexCoordOffset = 2

	floatSize = 4 // bytes per float32
	indexSize = 2 // bytes per uint16 index
)

// Reference configuration.
var (
	DefaultViewport   = Viewport{Width: 800, Height: 600}
	DefaultQuad       = Rect{X: 10, Y: 10, W: 780, H: 150}
	DefaultClearColor = Color{R: 0.9, G: 0.9, B: 0.9, A: 1}
)

// clampf clamps a float32 value to a range.
func clampf(v, minVal, maxVal float32) float32 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
