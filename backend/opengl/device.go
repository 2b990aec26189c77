// Package opengl provides an OpenGL 4.1 backend for the texquad package.
package opengl

import (
	"fmt"
	"image"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/go-theft-auto/texquad"
)

// Device implements texquad.Device on the current OpenGL context.
// gl.Init must have been called with the context current, and every call
// must come from the thread that owns the context.
type Device struct{}

var _ texquad.Device = (*Device)(nil)

// NewDevice returns a device for the current context.
func NewDevice() *Device {
	return &Device{}
}

// Version reports the GL version and renderer strings.
func (d *Device) Version() string {
	return fmt.Sprintf("%s (%s)", gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)))
}

func (d *Device) CreateShader(kind texquad.ShaderKind) uint32 {
	if kind == texquad.FragmentShader {
		return gl.CreateShader(gl.FRAGMENT_SHADER)
	}
	return gl.CreateShader(gl.VERTEX_SHADER)
}

func (d *Device) ShaderSource(shader uint32, source string) {
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
}

func (d *Device) CompileShader(shader uint32) { gl.CompileShader(shader) }

func (d *Device) ShaderCompiled(shader uint32) bool {
	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	return status != gl.FALSE
}

func (d *Device) ShaderInfoLog(shader uint32) string {
	var logLength int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
	if logLength <= 0 {
		return ""
	}
	log := make([]byte, logLength+1)
	gl.GetShaderInfoLog(shader, logLength, nil, &log[0])
	return strings.TrimRight(string(log), "\x00")
}

func (d *Device) DeleteShader(shader uint32) { gl.DeleteShader(shader) }

func (d *Device) CreateProgram() uint32 { return gl.CreateProgram() }

func (d *Device) AttachShader(program, shader uint32) { gl.AttachShader(program, shader) }

func (d *Device) LinkProgram(program uint32) { gl.LinkProgram(program) }

func (d *Device) ProgramLinked(program uint32) bool {
	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	return status != gl.FALSE
}

func (d *Device) ProgramInfoLog(program uint32) string {
	var logLength int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
	if logLength <= 0 {
		return ""
	}
	log := make([]byte, logLength+1)
	gl.GetProgramInfoLog(program, logLength, nil, &log[0])
	return strings.TrimRight(string(log), "\x00")
}

func (d *Device) UseProgram(program uint32) { gl.UseProgram(program) }

func (d *Device) DeleteProgram(program uint32) { gl.DeleteProgram(program) }

func (d *Device) AttribLocation(program uint32, name string) int32 {
	return gl.GetAttribLocation(program, gl.Str(name+"\x00"))
}

func (d *Device) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (d *Device) Uniform1i(location int32, v int32) { gl.Uniform1i(location, v) }

func (d *Device) Uniform2f(location int32, x, y float32) { gl.Uniform2f(location, x, y) }

func (d *Device) CreateVertexArray() uint32 {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return vao
}

func (d *Device) BindVertexArray(vao uint32) { gl.BindVertexArray(vao) }

func (d *Device) DeleteVertexArray(vao uint32) { gl.DeleteVertexArrays(1, &vao) }

func (d *Device) CreateBuffer() uint32 {
	var buf uint32
	gl.GenBuffers(1, &buf)
	return buf
}

func (d *Device) BindBuffer(target texquad.BufferTarget, buffer uint32) {
	gl.BindBuffer(bufferTarget(target), buffer)
}

func (d *Device) BufferData(target texquad.BufferTarget, data []byte, usage texquad.BufferUsage) {
	if len(data) == 0 {
		gl.BufferData(bufferTarget(target), 0, nil, bufferUsage(usage))
		return
	}
	gl.BufferData(bufferTarget(target), len(data), gl.Ptr(data), bufferUsage(usage))
}

func (d *Device) DeleteBuffer(buffer uint32) { gl.DeleteBuffers(1, &buffer) }

func (d *Device) VertexAttribPointer(location uint32, size, stride int32, offset int) {
	gl.VertexAttribPointerWithOffset(location, size, gl.FLOAT, false, stride, uintptr(offset))
}

func (d *Device) EnableVertexAttribArray(location uint32) { gl.EnableVertexAttribArray(location) }

func (d *Device) CreateTexture() uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	return tex
}

func (d *Device) ActiveTexture(unit uint32) { gl.ActiveTexture(gl.TEXTURE0 + unit) }

func (d *Device) BindTexture(texture uint32) { gl.BindTexture(gl.TEXTURE_2D, texture) }

func (d *Device) TexParameter(param texquad.TextureParam, value texquad.TextureValue) {
	gl.TexParameteri(gl.TEXTURE_2D, textureParam(param), textureValue(value))
}

func (d *Device) TexImage2D(width, height int, pixels []byte) {
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
}

func (d *Device) DeleteTexture(texture uint32) { gl.DeleteTextures(1, &texture) }

func (d *Device) Viewport(x, y, width, height int32) { gl.Viewport(x, y, width, height) }

func (d *Device) ClearColor(r, g, b, a float32) { gl.ClearColor(r, g, b, a) }

func (d *Device) Enable(c texquad.Capability) {
	switch c {
	case texquad.Blend:
		gl.Enable(gl.BLEND)
	case texquad.DepthTest:
		gl.Enable(gl.DEPTH_TEST)
	}
}

func (d *Device) BlendFunc(src, dst texquad.BlendFactor) {
	gl.BlendFunc(blendFactor(src), blendFactor(dst))
}

func (d *Device) DepthFunc(f texquad.DepthFunc) {
	switch f {
	case texquad.DepthLess:
		gl.DepthFunc(gl.LESS)
	case texquad.DepthLessEqual:
		gl.DepthFunc(gl.LEQUAL)
	case texquad.DepthAlways:
		gl.DepthFunc(gl.ALWAYS)
	}
}

func (d *Device) Clear(mask texquad.ClearMask) {
	var bits uint32
	if mask&texquad.ColorBufferBit != 0 {
		bits |= gl.COLOR_BUFFER_BIT
	}
	if mask&texquad.DepthBufferBit != 0 {
		bits |= gl.DEPTH_BUFFER_BIT
	}
	gl.Clear(bits)
}

func (d *Device) DrawElements(count int32, offset int) {
	gl.DrawElementsWithOffset(gl.TRIANGLES, count, gl.UNSIGNED_SHORT, uintptr(offset))
}

// ReadPixels reads the framebuffer and flips it so the top row comes first.
func (d *Device) ReadPixels(width, height int) *image.RGBA {
	pixels := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 4)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))

	// Flip vertically (OpenGL origin is bottom-left)
	rowLen := width * 4
	tmp := make([]byte, rowLen)
	for y := 0; y < height/2; y++ {
		top := y * rowLen
		bot := (height - 1 - y) * rowLen
		copy(tmp, pixels[top:top+rowLen])
		copy(pixels[top:top+rowLen], pixels[bot:bot+rowLen])
		copy(pixels[bot:bot+rowLen], tmp)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, pixels)
	return img
}

// Err drains the GL error queue and returns the first error.
func (d *Device) Err() error {
	var first uint32
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		if first == 0 {
			first = code
		}
	}
	if first == 0 {
		return nil
	}
	return fmt.Errorf("gl error %s (0x%04x)", errorName(first), first)
}

func bufferTarget(t texquad.BufferTarget) uint32 {
	if t == texquad.ElementArrayBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func bufferUsage(u texquad.BufferUsage) uint32 {
	if u == texquad.DynamicDraw {
		return gl.DYNAMIC_DRAW
	}
	return gl.STATIC_DRAW
}

func textureParam(p texquad.TextureParam) uint32 {
	switch p {
	case texquad.TextureWrapS:
		return gl.TEXTURE_WRAP_S
	case texquad.TextureWrapT:
		return gl.TEXTURE_WRAP_T
	case texquad.TextureMinFilter:
		return gl.TEXTURE_MIN_FILTER
	default:
		return gl.TEXTURE_MAG_FILTER
	}
}

func textureValue(v texquad.TextureValue) int32 {
	switch v {
	case texquad.ClampToEdge:
		return gl.CLAMP_TO_EDGE
	case texquad.Repeat:
		return gl.REPEAT
	case texquad.Nearest:
		return gl.NEAREST
	default:
		return gl.LINEAR
	}
}

func blendFactor(f texquad.BlendFactor) uint32 {
	switch f {
	case texquad.BlendZero:
		return gl.ZERO
	case texquad.BlendOne:
		return gl.ONE
	case texquad.BlendSrcAlpha:
		return gl.SRC_ALPHA
	default:
		return gl.ONE_MINUS_SRC_ALPHA
	}
}

func errorName(code uint32) string {
	switch code {
	case gl.INVALID_ENUM:
		return "INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "INVALID_OPERATION"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "INVALID_FRAMEBUFFER_OPERATION"
	case gl.OUT_OF_MEMORY:
		return "OUT_OF_MEMORY"
	default:
		return "UNKNOWN"
	}
}
