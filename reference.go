package texquad

import "github.com/go-gl/mathgl/mgl32"

// StageInput is what a CPU shader stage can read: per-vertex attributes,
// uniforms by shader identifier and texture units.
type StageInput interface {
	Attrib(symbol string) mgl32.Vec4
	Uniform2f(symbol string) mgl32.Vec2
	Uniform1i(symbol string) int32
	Sample(unit int32, uv mgl32.Vec2) mgl32.Vec4
}

// VertexStage returns the clip-space position and one varying.
type VertexStage func(in StageInput) (clip, varying mgl32.Vec4)

// FragmentStage returns the premultiplied RGBA output for an interpolated varying.
type FragmentStage func(in StageInput, varying mgl32.Vec4) mgl32.Vec4

// ReferenceVertex mirrors vertex.glsl: surface pixels to clip space with
// y pointing down, texture coordinate passed through in image pixels.
func ReferenceVertex(in StageInput) (clip, varying mgl32.Vec4) {
	pos := in.Attrib("aCoordinate").Vec2()
	vp := in.Uniform2f("uViewport")
	ndc := mgl32.Vec2{pos.X()/vp.X()*2 - 1, pos.Y()/vp.Y()*2 - 1}

	tc := in.Attrib("aTextureCoord")
	return mgl32.Vec4{ndc.X(), -ndc.Y(), 0, 1}, mgl32.Vec4{tc.X(), tc.Y(), 0, 0}
}

// ReferenceFragment mirrors fragment.glsl: normalize the pixel texture
// coordinate by the image size and sample.
func ReferenceFragment(in StageInput, varying mgl32.Vec4) mgl32.Vec4 {
	dims := in.Uniform2f("uTextureDimensions")
	uv := mgl32.Vec2{varying.X() / dims.X(), varying.Y() / dims.Y()}
	return in.Sample(in.Uniform1i("uSampler"), uv)
}

// PixelToClip is the vertex stage's position transform on its own.
func PixelToClip(pos mgl32.Vec2, vp Viewport) mgl32.Vec2 {
	w, h := float32(vp.Width), float32(vp.Height)
	return mgl32.Vec2{pos.X()/w*2 - 1, -(pos.Y()/h*2 - 1)}
}
