package softgl

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/go-theft-auto/texquad"
)

// mipmapDefault stands in for GL's default NEAREST_MIPMAP_LINEAR min filter.
// softgl never has mipmaps, so a texture left on it is incomplete.
const mipmapDefault texquad.TextureValue = -1

// incompleteColor is what sampling an incomplete texture returns.
var incompleteColor = mgl32.Vec4{0, 0, 0, 1}

type texture struct {
	width, height int
	pix           []byte // RGBA8, row 0 is t=0

	wrapS, wrapT         texquad.TextureValue
	minFilter, magFilter texquad.TextureValue
}

func newTexture() *texture {
	return &texture{
		wrapS:     texquad.Repeat,
		wrapT:     texquad.Repeat,
		minFilter: mipmapDefault,
		magFilter: texquad.Linear,
	}
}

func (t *texture) setParam(param texquad.TextureParam, value texquad.TextureValue) error {
	switch param {
	case texquad.TextureWrapS, texquad.TextureWrapT:
		if value != texquad.ClampToEdge && value != texquad.Repeat {
			return fmt.Errorf("invalid wrap mode %d", value)
		}
		if param == texquad.TextureWrapS {
			t.wrapS = value
		} else {
			t.wrapT = value
		}
	case texquad.TextureMinFilter, texquad.TextureMagFilter:
		if value != texquad.Linear && value != texquad.Nearest {
			return fmt.Errorf("invalid filter %d", value)
		}
		if param == texquad.TextureMinFilter {
			t.minFilter = value
		} else {
			t.magFilter = value
		}
	default:
		return fmt.Errorf("unknown parameter %d", param)
	}
	return nil
}

func (t *texture) complete() bool {
	return t.width > 0 && t.height > 0 && t.minFilter != mipmapDefault
}

// sample looks up premultiplied RGBA at normalized (u, v). There are no
// screen-space derivatives, so every lookup uses the mag filter unless both
// filters agree.
func (t *texture) sample(uv mgl32.Vec2) mgl32.Vec4 {
	if !t.complete() {
		return incompleteColor
	}
	filter := t.magFilter
	if t.minFilter == t.magFilter {
		filter = t.minFilter
	}

	x := uv.X() * float32(t.width)
	y := uv.Y() * float32(t.height)
	if filter == texquad.Nearest {
		return t.texel(wrap(int(floor(x)), t.width, t.wrapS), wrap(int(floor(y)), t.height, t.wrapT))
	}

	x -= 0.5
	y -= 0.5
	x0, y0 := floor(x), floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)

	i0 := wrap(ix, t.width, t.wrapS)
	i1 := wrap(ix+1, t.width, t.wrapS)
	j0 := wrap(iy, t.height, t.wrapT)
	j1 := wrap(iy+1, t.height, t.wrapT)

	top := lerp(t.texel(i0, j0), t.texel(i1, j0), fx)
	bottom := lerp(t.texel(i0, j1), t.texel(i1, j1), fx)
	return lerp(top, bottom, fy)
}

func (t *texture) texel(x, y int) mgl32.Vec4 {
	i := (y*t.width + x) * 4
	p := t.pix[i : i+4 : i+4]
	return mgl32.Vec4{float32(p[0]) / 255, float32(p[1]) / 255, float32(p[2]) / 255, float32(p[3]) / 255}
}

func wrap(i, n int, mode texquad.TextureValue) int {
	if mode == texquad.Repeat {
		i %= n
		if i < 0 {
			i += n
		}
		return i
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func floor(v float32) float32 {
	return float32(math.Floor(float64(v)))
}

func lerp(a, b mgl32.Vec4, t float32) mgl32.Vec4 {
	return a.Mul(1 - t).Add(b.Mul(t))
}
