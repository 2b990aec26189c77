package texquad

import "image"

// Device is the render context every pipeline component issues its GL calls
// through. Handles are opaque non-zero integers; locations follow GL
// conventions (negative means "not found").
//
// A Device is not reentrant. All calls must come from the goroutine that owns
// the underlying context.
type Device interface {
	CreateShader(kind ShaderKind) uint32
	ShaderSource(shader uint32, source string)
	CompileShader(shader uint32)
	ShaderCompiled(shader uint32) bool
	ShaderInfoLog(shader uint32) string
	DeleteShader(shader uint32)

	CreateProgram() uint32
	AttachShader(program, shader uint32)
	LinkProgram(program uint32)
	ProgramLinked(program uint32) bool
	ProgramInfoLog(program uint32) string
	UseProgram(program uint32)
	DeleteProgram(program uint32)
	AttribLocation(program uint32, name string) int32
	UniformLocation(program uint32, name string) int32
	Uniform1i(location int32, v int32)
	Uniform2f(location int32, x, y float32)

	CreateVertexArray() uint32
	BindVertexArray(vao uint32)
	DeleteVertexArray(vao uint32)
	CreateBuffer() uint32
	BindBuffer(target BufferTarget, buffer uint32)
	BufferData(target BufferTarget, data []byte, usage BufferUsage)
	DeleteBuffer(buffer uint32)
	VertexAttribPointer(location uint32, size, stride int32, offset int)
	EnableVertexAttribArray(location uint32)

	CreateTexture() uint32
	ActiveTexture(unit uint32)
	BindTexture(texture uint32)
	TexParameter(param TextureParam, value TextureValue)
	TexImage2D(width, height int, pixels []byte)
	DeleteTexture(texture uint32)

	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	Enable(c Capability)
	BlendFunc(src, dst BlendFactor)
	DepthFunc(f DepthFunc)
	Clear(mask ClearMask)

	// DrawElements draws count uint16 indices as a triangle list, starting
	// at byte offset into the bound element buffer.
	DrawElements(count int32, offset int)

	// ReadPixels returns the framebuffer contents, top row first.
	ReadPixels(width, height int) *image.RGBA

	// Err returns and clears the first pending backend error, if any.
	Err() error
}

// ShaderKind selects the pipeline stage of a shader unit.
type ShaderKind int

const (
	VertexShader ShaderKind = iota
	FragmentShader
)

func (k ShaderKind) String() string {
	switch k {
	case VertexShader:
		return "vertex"
	case FragmentShader:
		return "fragment"
	default:
		return "unknown"
	}
}

// BufferTarget is a buffer binding point.
type BufferTarget int

const (
	ArrayBuffer BufferTarget = iota
	ElementArrayBuffer
)

// BufferUsage hints how buffer contents will be used.
type BufferUsage int

const (
	StaticDraw BufferUsage = iota
	DynamicDraw
)

// TextureParam names a 2D texture sampling parameter.
type TextureParam int

const (
	TextureWrapS TextureParam = iota
	TextureWrapT
	TextureMinFilter
	TextureMagFilter
)

// TextureValue is a value for a TextureParam.
type TextureValue int

const (
	ClampToEdge TextureValue = iota
	Repeat
	Linear
	Nearest
)

// Capability is a server-side capability toggled with Device.Enable.
type Capability int

const (
	Blend Capability = iota
	DepthTest
)

// BlendFactor is a source or destination blend factor.
type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
)

// DepthFunc is the depth comparison used when DepthTest is enabled.
type DepthFunc int

const (
	DepthLess DepthFunc = iota
	DepthLessEqual
	DepthAlways
)

// ClearMask selects the buffers cleared by Device.Clear.
type ClearMask int

const (
	ColorBufferBit ClearMask = 1 << iota
	DepthBufferBit
)
