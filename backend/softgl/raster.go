package softgl

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/go-theft-auto/texquad"
)

// DrawCall is the state captured by one DrawElements.
type DrawCall struct {
	Program   uint32
	Count     int32
	Offset    int
	Indices   []uint16
	Uniforms  map[string]any // [2]float32 for vec2, int32 otherwise
	Texture   uint32         // texture on the lowest-location sampler's unit
	Fragments int            // fragments that passed the depth test
}

// stageInput feeds one vertex (or, for fragments, the uniforms and samplers)
// to the installed Go stages.
type stageInput struct {
	d       *Device
	p       *program
	attribs map[string]mgl32.Vec4
}

func (in *stageInput) Attrib(symbol string) mgl32.Vec4 {
	if v, ok := in.attribs[symbol]; ok {
		return v
	}
	return mgl32.Vec4{0, 0, 0, 1}
}

func (in *stageInput) Uniform2f(symbol string) mgl32.Vec2 {
	if u, ok := in.p.uniforms[symbol]; ok {
		return mgl32.Vec2{u.f[0], u.f[1]}
	}
	return mgl32.Vec2{}
}

func (in *stageInput) Uniform1i(symbol string) int32 {
	if u, ok := in.p.uniforms[symbol]; ok {
		return u.i
	}
	return 0
}

func (in *stageInput) Sample(unit int32, uv mgl32.Vec2) mgl32.Vec4 {
	if unit < 0 || unit >= maxTextureUnits {
		return incompleteColor
	}
	t, ok := in.d.textures[in.d.units[unit]]
	if !ok {
		return incompleteColor
	}
	return t.sample(uv)
}

// shaded is a vertex after the vertex stage, in window coordinates.
type shaded struct {
	x, y, z float32
	varying mgl32.Vec4
}

func (d *Device) drawElements(count int32, offset int) {
	p, ok := d.programs[d.current]
	if !ok || !p.linked {
		d.fail("DrawElements: no linked program in use")
		return
	}
	va, ok := d.arrays[d.vao]
	if !ok {
		d.fail("DrawElements: no vertex array bound")
		return
	}
	eb, ok := d.buffers[va.elements]
	if !ok {
		d.fail("DrawElements: no element array buffer bound")
		return
	}
	if count < 0 || offset < 0 || offset%2 != 0 {
		d.fail("DrawElements: invalid count %d or offset %d", count, offset)
		return
	}
	end := offset + int(count)*2
	if end > len(eb.data) {
		d.fail("DrawElements: %d indices at offset %d overrun a %d byte element buffer", count, offset, len(eb.data))
		return
	}

	indices := make([]uint16, count)
	for i := range indices {
		indices[i] = binary.LittleEndian.Uint16(eb.data[offset+i*2:])
	}

	call := DrawCall{
		Program:  d.current,
		Count:    count,
		Offset:   offset,
		Indices:  indices,
		Uniforms: make(map[string]any, len(p.uniforms)),
	}
	var sampler *uniform
	for name, u := range p.uniforms {
		if u.typ == "vec2" {
			call.Uniforms[name] = u.f
			continue
		}
		call.Uniforms[name] = u.i
		if u.typ == "sampler2D" && (sampler == nil || u.location < sampler.location) {
			sampler = u
		}
	}
	if sampler != nil {
		call.Texture = d.units[sampler.i]
	}

	if d.vertex != nil && d.fragment != nil {
		verts := make([]shaded, len(indices))
		for i, idx := range indices {
			in, ok := d.fetch(p, va, idx)
			if !ok {
				return
			}
			clip, varying := d.vertex(in)
			verts[i] = d.toWindow(clip, varying)
		}
		fin := &stageInput{d: d, p: p}
		for i := 0; i+2 < len(verts); i += 3 {
			call.Fragments += d.rasterize(fin, verts[i], verts[i+1], verts[i+2])
		}
	}
	d.draws = append(d.draws, call)
}

// fetch assembles the active attributes of one vertex.
func (d *Device) fetch(p *program, va *vertexArray, idx uint16) (*stageInput, bool) {
	in := &stageInput{d: d, p: p, attribs: make(map[string]mgl32.Vec4, len(p.attribs))}
	for name, loc := range p.attribs {
		ap, ok := va.attribs[uint32(loc)]
		if !ok || !ap.enabled {
			continue
		}
		buf, ok := d.buffers[ap.buffer]
		if !ok {
			d.fail("DrawElements: attribute %s sources deleted buffer %d", name, ap.buffer)
			return nil, false
		}
		stride := int(ap.stride)
		if stride == 0 {
			stride = int(ap.size) * 4
		}
		start := ap.offset + int(idx)*stride
		if start+int(ap.size)*4 > len(buf.data) {
			d.fail("DrawElements: index %d reads past the end of buffer %d", idx, ap.buffer)
			return nil, false
		}
		v := mgl32.Vec4{0, 0, 0, 1}
		for c := 0; c < int(ap.size); c++ {
			v[c] = math.Float32frombits(binary.LittleEndian.Uint32(buf.data[start+c*4:]))
		}
		in.attribs[name] = v
	}
	return in, true
}

// toWindow applies the perspective divide and viewport transform. Window y
// grows upward from the bottom of the framebuffer.
func (d *Device) toWindow(clip, varying mgl32.Vec4) shaded {
	w := clip.W()
	if w == 0 {
		w = 1
	}
	vx, vy := float32(d.viewport[0]), float32(d.viewport[1])
	vw, vh := float32(d.viewport[2]), float32(d.viewport[3])
	return shaded{
		x:       (clip.X()/w+1)/2*vw + vx,
		y:       (clip.Y()/w+1)/2*vh + vy,
		z:       (clip.Z()/w + 1) / 2,
		varying: varying,
	}
}

func edge(a, b shaded, px, py float32) float32 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// topLeft reports whether edge a->b of a counter-clockwise triangle owns
// the samples lying exactly on it.
func topLeft(a, b shaded) bool {
	dx, dy := b.x-a.x, b.y-a.y
	return dy == 0 && dx < 0 || dy < 0
}

// rasterize shades every pixel center the triangle covers and returns how
// many fragments were written.
func (d *Device) rasterize(in *stageInput, a, b, c shaded) int {
	area := edge(a, b, c.x, c.y)
	if area == 0 {
		return 0
	}
	if area < 0 {
		b, c = c, b
		area = -area
	}

	minX := int(floor(min(a.x, b.x, c.x)))
	maxX := int(math.Ceil(float64(max(a.x, b.x, c.x))))
	minY := int(floor(min(a.y, b.y, c.y)))
	maxY := int(math.Ceil(float64(max(a.y, b.y, c.y))))

	x0, y0 := int(d.viewport[0]), int(d.viewport[1])
	x1, y1 := x0+int(d.viewport[2]), y0+int(d.viewport[3])
	minX, minY = max(minX, x0, 0), max(minY, y0, 0)
	maxX, maxY = min(maxX, x1, d.width), min(maxY, y1, d.height)

	tlBC, tlCA, tlAB := topLeft(b, c), topLeft(c, a), topLeft(a, b)
	written := 0
	for py := minY; py < maxY; py++ {
		sy := float32(py) + 0.5
		for px := minX; px < maxX; px++ {
			sx := float32(px) + 0.5
			w0 := edge(b, c, sx, sy)
			w1 := edge(c, a, sx, sy)
			w2 := edge(a, b, sx, sy)
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			if w0 == 0 && !tlBC || w1 == 0 && !tlCA || w2 == 0 && !tlAB {
				continue
			}
			l0, l1, l2 := w0/area, w1/area, w2/area
			if d.fragmentAt(in, px, py, l0, l1, l2, a, b, c) {
				written++
			}
		}
	}
	return written
}

func (d *Device) fragmentAt(in *stageInput, px, py int, l0, l1, l2 float32, a, b, c shaded) bool {
	z := l0*a.z + l1*b.z + l2*c.z
	di := py*d.width + px
	if d.depthTest {
		if !depthPass(d.depthFunc, z, d.depth[di]) {
			return false
		}
		d.depth[di] = z
	}

	varying := a.varying.Mul(l0).Add(b.varying.Mul(l1)).Add(c.varying.Mul(l2))
	src := d.fragment(in, varying)

	// Framebuffer rows run top-down; window y runs bottom-up.
	o := d.color.PixOffset(px, d.height-1-py)
	pix := d.color.Pix[o : o+4 : o+4]
	if d.blend {
		dst := mgl32.Vec4{float32(pix[0]) / 255, float32(pix[1]) / 255, float32(pix[2]) / 255, float32(pix[3]) / 255}
		src = src.Mul(factor(d.blendSrc, src)).Add(dst.Mul(factor(d.blendDst, src)))
	}
	pix[0], pix[1], pix[2], pix[3] = toByte(src[0]), toByte(src[1]), toByte(src[2]), toByte(src[3])
	return true
}

func depthPass(f texquad.DepthFunc, z, stored float32) bool {
	switch f {
	case texquad.DepthLess:
		return z < stored
	case texquad.DepthLessEqual:
		return z <= stored
	default:
		return true
	}
}

func factor(f texquad.BlendFactor, src mgl32.Vec4) float32 {
	switch f {
	case texquad.BlendZero:
		return 0
	case texquad.BlendSrcAlpha:
		return src.W()
	case texquad.BlendOneMinusSrcAlpha:
		return 1 - src.W()
	default:
		return 1
	}
}
