// Package softgl is a headless texquad.Device. It validates shader pairs by
// reflecting their declarations, keeps GL object and binding state, records
// every call and rasterizes indexed triangles with Go shader stages.
//
// softgl does not execute GLSL. Draws run the texquad.VertexStage and
// texquad.FragmentStage installed with WithStages; without stages a draw is
// validated and recorded but produces no fragments.
package softgl

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-theft-auto/texquad"
)

// maxTextureUnits is the number of texture units the device exposes.
const maxTextureUnits = 8

type shader struct {
	kind     texquad.ShaderKind
	source   string
	compiled bool
	log      string
	unit     *unit
}

type uniform struct {
	name     string
	typ      string
	location int32
	f        [2]float32
	i        int32
}

type program struct {
	shaders  []uint32
	linked   bool
	log      string
	attribs  map[string]int32
	uniforms map[string]*uniform
	byLoc    map[int32]*uniform
}

type buffer struct {
	data  []byte
	usage texquad.BufferUsage
}

type attribPointer struct {
	enabled bool
	buffer  uint32
	size    int32
	stride  int32
	offset  int
}

type vertexArray struct {
	elements uint32
	attribs  map[uint32]*attribPointer
}

// Device is a software render context. The zero value is not usable; call New.
type Device struct {
	width, height int
	vertex        texquad.VertexStage
	fragment      texquad.FragmentStage
	log           *slog.Logger

	nextID   uint32
	shaders  map[uint32]*shader
	programs map[uint32]*program
	buffers  map[uint32]*buffer
	arrays   map[uint32]*vertexArray
	textures map[uint32]*texture

	current     uint32
	arrayBuffer uint32
	vao         uint32
	activeUnit  uint32
	units       [maxTextureUnits]uint32

	viewport   [4]int32
	clearColor [4]float32
	blend      bool
	depthTest  bool
	blendSrc   texquad.BlendFactor
	blendDst   texquad.BlendFactor
	depthFunc  texquad.DepthFunc

	color *image.RGBA
	depth []float32

	err    error
	calls  []string
	draws  []DrawCall
	clears int
}

var _ texquad.Device = (*Device)(nil)

// Option configures a Device.
type Option func(*Device)

// WithStages installs the CPU shader stages draws execute.
func WithStages(v texquad.VertexStage, f texquad.FragmentStage) Option {
	return func(d *Device) {
		d.vertex = v
		d.fragment = f
	}
}

// WithLogger traces every call at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(d *Device) { d.log = l }
}

// New creates a device with a width x height framebuffer. GL defaults apply:
// viewport covers the framebuffer, clear color is transparent black, blending
// and depth testing are off, depth function is Less.
func New(width, height int, opts ...Option) *Device {
	d := &Device{
		width:     width,
		height:    height,
		shaders:   make(map[uint32]*shader),
		programs:  make(map[uint32]*program),
		buffers:   make(map[uint32]*buffer),
		arrays:    make(map[uint32]*vertexArray),
		textures:  make(map[uint32]*texture),
		viewport:  [4]int32{0, 0, int32(width), int32(height)},
		blendSrc:  texquad.BlendOne,
		blendDst:  texquad.BlendZero,
		depthFunc: texquad.DepthLess,
		color:     image.NewRGBA(image.Rect(0, 0, width, height)),
		depth:     make([]float32, width*height),
	}
	for i := range d.depth {
		d.depth[i] = 1
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Device) trace(format string, args ...any) {
	call := fmt.Sprintf(format, args...)
	d.calls = append(d.calls, call)
	if d.log != nil {
		d.log.Debug("softgl", "call", call)
	}
}

// fail records the first error until Err is called, like glGetError.
func (d *Device) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf(format, args...)
	}
}

func (d *Device) newID() uint32 {
	d.nextID++
	return d.nextID
}

func (d *Device) CreateShader(kind texquad.ShaderKind) uint32 {
	id := d.newID()
	d.shaders[id] = &shader{kind: kind}
	d.trace("CreateShader(%s) = %d", kind, id)
	return id
}

func (d *Device) ShaderSource(id uint32, source string) {
	d.trace("ShaderSource(%d)", id)
	s, ok := d.shaders[id]
	if !ok {
		d.fail("ShaderSource: invalid shader %d", id)
		return
	}
	s.source = source
}

func (d *Device) CompileShader(id uint32) {
	d.trace("CompileShader(%d)", id)
	s, ok := d.shaders[id]
	if !ok {
		d.fail("CompileShader: invalid shader %d", id)
		return
	}
	u, errs := reflectSource(s.source)
	s.unit = u
	s.compiled = len(errs) == 0
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.String()
	}
	s.log = strings.Join(lines, "\n")
}

func (d *Device) ShaderCompiled(id uint32) bool {
	s, ok := d.shaders[id]
	return ok && s.compiled
}

func (d *Device) ShaderInfoLog(id uint32) string {
	if s, ok := d.shaders[id]; ok {
		return s.log
	}
	return ""
}

func (d *Device) DeleteShader(id uint32) {
	d.trace("DeleteShader(%d)", id)
	delete(d.shaders, id)
}

func (d *Device) CreateProgram() uint32 {
	id := d.newID()
	d.programs[id] = &program{}
	d.trace("CreateProgram() = %d", id)
	return id
}

func (d *Device) AttachShader(prog, sh uint32) {
	d.trace("AttachShader(%d, %d)", prog, sh)
	p, ok := d.programs[prog]
	if !ok {
		d.fail("AttachShader: invalid program %d", prog)
		return
	}
	if _, ok := d.shaders[sh]; !ok {
		d.fail("AttachShader: invalid shader %d", sh)
		return
	}
	p.shaders = append(p.shaders, sh)
}

func (d *Device) LinkProgram(id uint32) {
	d.trace("LinkProgram(%d)", id)
	p, ok := d.programs[id]
	if !ok {
		d.fail("LinkProgram: invalid program %d", id)
		return
	}
	d.link(p)
}

func (d *Device) ProgramLinked(id uint32) bool {
	p, ok := d.programs[id]
	return ok && p.linked
}

func (d *Device) ProgramInfoLog(id uint32) string {
	if p, ok := d.programs[id]; ok {
		return p.log
	}
	return ""
}

func (d *Device) UseProgram(id uint32) {
	d.trace("UseProgram(%d)", id)
	if id != 0 {
		p, ok := d.programs[id]
		if !ok || !p.linked {
			d.fail("UseProgram: program %d is not linked", id)
			return
		}
	}
	d.current = id
}

func (d *Device) DeleteProgram(id uint32) {
	d.trace("DeleteProgram(%d)", id)
	delete(d.programs, id)
	if d.current == id {
		d.current = 0
	}
}

func (d *Device) AttribLocation(prog uint32, name string) int32 {
	p, ok := d.programs[prog]
	if !ok || !p.linked {
		d.fail("AttribLocation: program %d is not linked", prog)
		return -1
	}
	if loc, ok := p.attribs[name]; ok {
		return loc
	}
	return -1
}

func (d *Device) UniformLocation(prog uint32, name string) int32 {
	p, ok := d.programs[prog]
	if !ok || !p.linked {
		d.fail("UniformLocation: program %d is not linked", prog)
		return -1
	}
	if u, ok := p.uniforms[name]; ok {
		return u.location
	}
	return -1
}

// currentUniform resolves a location in the current program. Location -1 is
// silently ignored, as in GL.
func (d *Device) currentUniform(op string, loc int32) *uniform {
	if loc == -1 {
		return nil
	}
	p, ok := d.programs[d.current]
	if !ok {
		d.fail("%s: no current program", op)
		return nil
	}
	u, ok := p.byLoc[loc]
	if !ok {
		d.fail("%s: invalid location %d", op, loc)
		return nil
	}
	return u
}

func (d *Device) Uniform1i(loc int32, v int32) {
	d.trace("Uniform1i(%d, %d)", loc, v)
	u := d.currentUniform("Uniform1i", loc)
	if u == nil {
		return
	}
	switch u.typ {
	case "int", "bool", "sampler2D":
		if u.typ == "sampler2D" && (v < 0 || v >= maxTextureUnits) {
			d.fail("Uniform1i: sampler unit %d out of range", v)
			return
		}
		u.i = v
	default:
		d.fail("Uniform1i: uniform %s has type %s", u.name, u.typ)
	}
}

func (d *Device) Uniform2f(loc int32, x, y float32) {
	d.trace("Uniform2f(%d, %g, %g)", loc, x, y)
	u := d.currentUniform("Uniform2f", loc)
	if u == nil {
		return
	}
	if u.typ != "vec2" {
		d.fail("Uniform2f: uniform %s has type %s", u.name, u.typ)
		return
	}
	u.f = [2]float32{x, y}
}

func (d *Device) CreateVertexArray() uint32 {
	id := d.newID()
	d.arrays[id] = &vertexArray{attribs: make(map[uint32]*attribPointer)}
	d.trace("CreateVertexArray() = %d", id)
	return id
}

func (d *Device) BindVertexArray(id uint32) {
	d.trace("BindVertexArray(%d)", id)
	if _, ok := d.arrays[id]; id != 0 && !ok {
		d.fail("BindVertexArray: invalid vertex array %d", id)
		return
	}
	d.vao = id
}

func (d *Device) DeleteVertexArray(id uint32) {
	d.trace("DeleteVertexArray(%d)", id)
	delete(d.arrays, id)
	if d.vao == id {
		d.vao = 0
	}
}

func (d *Device) CreateBuffer() uint32 {
	id := d.newID()
	d.buffers[id] = &buffer{}
	d.trace("CreateBuffer() = %d", id)
	return id
}

func (d *Device) BindBuffer(target texquad.BufferTarget, id uint32) {
	d.trace("BindBuffer(%d, %d)", target, id)
	if _, ok := d.buffers[id]; id != 0 && !ok {
		d.fail("BindBuffer: invalid buffer %d", id)
		return
	}
	if target == texquad.ArrayBuffer {
		d.arrayBuffer = id
		return
	}
	// The element binding is vertex array state.
	va, ok := d.arrays[d.vao]
	if !ok {
		d.fail("BindBuffer: element array binding requires a bound vertex array")
		return
	}
	va.elements = id
}

func (d *Device) boundBuffer(target texquad.BufferTarget) uint32 {
	if target == texquad.ArrayBuffer {
		return d.arrayBuffer
	}
	if va, ok := d.arrays[d.vao]; ok {
		return va.elements
	}
	return 0
}

func (d *Device) BufferData(target texquad.BufferTarget, data []byte, usage texquad.BufferUsage) {
	d.trace("BufferData(%d, %d bytes)", target, len(data))
	b, ok := d.buffers[d.boundBuffer(target)]
	if !ok {
		d.fail("BufferData: no buffer bound to target %d", target)
		return
	}
	b.data = append([]byte(nil), data...)
	b.usage = usage
}

func (d *Device) DeleteBuffer(id uint32) {
	d.trace("DeleteBuffer(%d)", id)
	delete(d.buffers, id)
	if d.arrayBuffer == id {
		d.arrayBuffer = 0
	}
}

func (d *Device) VertexAttribPointer(loc uint32, size, stride int32, offset int) {
	d.trace("VertexAttribPointer(%d, %d, %d, %d)", loc, size, stride, offset)
	va, ok := d.arrays[d.vao]
	if !ok {
		d.fail("VertexAttribPointer: no vertex array bound")
		return
	}
	if d.arrayBuffer == 0 {
		d.fail("VertexAttribPointer: no array buffer bound")
		return
	}
	if size < 1 || size > 4 || stride < 0 || offset < 0 {
		d.fail("VertexAttribPointer: invalid layout size=%d stride=%d offset=%d", size, stride, offset)
		return
	}
	ap := va.pointer(loc)
	ap.buffer, ap.size, ap.stride, ap.offset = d.arrayBuffer, size, stride, offset
}

func (d *Device) EnableVertexAttribArray(loc uint32) {
	d.trace("EnableVertexAttribArray(%d)", loc)
	va, ok := d.arrays[d.vao]
	if !ok {
		d.fail("EnableVertexAttribArray: no vertex array bound")
		return
	}
	va.pointer(loc).enabled = true
}

func (va *vertexArray) pointer(loc uint32) *attribPointer {
	ap, ok := va.attribs[loc]
	if !ok {
		ap = &attribPointer{}
		va.attribs[loc] = ap
	}
	return ap
}

func (d *Device) CreateTexture() uint32 {
	id := d.newID()
	d.textures[id] = newTexture()
	d.trace("CreateTexture() = %d", id)
	return id
}

func (d *Device) ActiveTexture(unit uint32) {
	d.trace("ActiveTexture(%d)", unit)
	if unit >= maxTextureUnits {
		d.fail("ActiveTexture: unit %d out of range", unit)
		return
	}
	d.activeUnit = unit
}

func (d *Device) BindTexture(id uint32) {
	d.trace("BindTexture(%d)", id)
	if _, ok := d.textures[id]; id != 0 && !ok {
		d.fail("BindTexture: invalid texture %d", id)
		return
	}
	d.units[d.activeUnit] = id
}

func (d *Device) TexParameter(param texquad.TextureParam, value texquad.TextureValue) {
	d.trace("TexParameter(%d, %d)", param, value)
	t, ok := d.textures[d.units[d.activeUnit]]
	if !ok {
		d.fail("TexParameter: no texture bound to unit %d", d.activeUnit)
		return
	}
	if err := t.setParam(param, value); err != nil {
		d.fail("TexParameter: %v", err)
	}
}

func (d *Device) TexImage2D(width, height int, pixels []byte) {
	d.trace("TexImage2D(%d, %d)", width, height)
	t, ok := d.textures[d.units[d.activeUnit]]
	if !ok {
		d.fail("TexImage2D: no texture bound to unit %d", d.activeUnit)
		return
	}
	if width <= 0 || height <= 0 || len(pixels) < width*height*4 {
		d.fail("TexImage2D: invalid image %dx%d with %d bytes", width, height, len(pixels))
		return
	}
	t.width, t.height = width, height
	t.pix = append([]byte(nil), pixels[:width*height*4]...)
}

func (d *Device) DeleteTexture(id uint32) {
	d.trace("DeleteTexture(%d)", id)
	delete(d.textures, id)
	for i, bound := range d.units {
		if bound == id {
			d.units[i] = 0
		}
	}
}

func (d *Device) Viewport(x, y, width, height int32) {
	d.trace("Viewport(%d, %d, %d, %d)", x, y, width, height)
	if width < 0 || height < 0 {
		d.fail("Viewport: negative size %dx%d", width, height)
		return
	}
	d.viewport = [4]int32{x, y, width, height}
}

func (d *Device) ClearColor(r, g, b, a float32) {
	d.trace("ClearColor(%g, %g, %g, %g)", r, g, b, a)
	d.clearColor = [4]float32{clamp01(r), clamp01(g), clamp01(b), clamp01(a)}
}

func (d *Device) Enable(c texquad.Capability) {
	d.trace("Enable(%d)", c)
	switch c {
	case texquad.Blend:
		d.blend = true
	case texquad.DepthTest:
		d.depthTest = true
	default:
		d.fail("Enable: unknown capability %d", c)
	}
}

func (d *Device) BlendFunc(src, dst texquad.BlendFactor) {
	d.trace("BlendFunc(%d, %d)", src, dst)
	d.blendSrc, d.blendDst = src, dst
}

func (d *Device) DepthFunc(f texquad.DepthFunc) {
	d.trace("DepthFunc(%d)", f)
	d.depthFunc = f
}

func (d *Device) Clear(mask texquad.ClearMask) {
	d.trace("Clear(%d)", mask)
	d.clears++
	if mask&texquad.ColorBufferBit != 0 {
		c := color.RGBA{
			R: toByte(d.clearColor[0]),
			G: toByte(d.clearColor[1]),
			B: toByte(d.clearColor[2]),
			A: toByte(d.clearColor[3]),
		}
		pix := d.color.Pix
		for i := 0; i < len(pix); i += 4 {
			pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
		}
	}
	if mask&texquad.DepthBufferBit != 0 {
		for i := range d.depth {
			d.depth[i] = 1
		}
	}
}

func (d *Device) DrawElements(count int32, offset int) {
	d.trace("DrawElements(%d, %d)", count, offset)
	d.drawElements(count, offset)
}

// ReadPixels returns the bottom-left width x height region of the
// framebuffer, top row first.
func (d *Device) ReadPixels(width, height int) *image.RGBA {
	d.trace("ReadPixels(%d, %d)", width, height)
	if width > d.width {
		width = d.width
	}
	if height > d.height {
		height = d.height
	}
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	top := d.height - height
	for y := 0; y < height; y++ {
		src := d.color.PixOffset(0, top+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+width*4], d.color.Pix[src:src+width*4])
	}
	return out
}

func (d *Device) Err() error {
	err := d.err
	d.err = nil
	return err
}

// Calls returns the call trace in issue order.
func (d *Device) Calls() []string {
	return append([]string(nil), d.calls...)
}

// Draws returns every recorded draw.
func (d *Device) Draws() []DrawCall {
	return append([]DrawCall(nil), d.draws...)
}

// Clears returns how many times Clear was called.
func (d *Device) Clears() int {
	return d.clears
}

// Framebuffer returns a copy of the color buffer.
func (d *Device) Framebuffer() *image.RGBA {
	out := image.NewRGBA(d.color.Rect)
	copy(out.Pix, d.color.Pix)
	return out
}

// Live reports how many objects of each kind are still allocated, for leak checks.
func (d *Device) Live() map[string]int {
	return map[string]int{
		"shader":      len(d.shaders),
		"program":     len(d.programs),
		"buffer":      len(d.buffers),
		"vertexArray": len(d.arrays),
		"texture":     len(d.textures),
	}
}

// Buffer returns a copy of a buffer's contents and its usage hint.
func (d *Device) Buffer(id uint32) ([]byte, texquad.BufferUsage, bool) {
	b, ok := d.buffers[id]
	if !ok {
		return nil, 0, false
	}
	return append([]byte(nil), b.data...), b.usage, true
}

// TextureInfo describes a texture object.
type TextureInfo struct {
	Width, Height        int
	WrapS, WrapT         texquad.TextureValue
	MinFilter, MagFilter texquad.TextureValue
	Complete             bool
}

// Texture returns the state of a texture object.
func (d *Device) Texture(id uint32) (TextureInfo, bool) {
	t, ok := d.textures[id]
	if !ok {
		return TextureInfo{}, false
	}
	return TextureInfo{
		Width: t.width, Height: t.height,
		WrapS: t.wrapS, WrapT: t.wrapT,
		MinFilter: t.minFilter, MagFilter: t.magFilter,
		Complete: t.complete(),
	}, true
}

// BoundTexture returns the texture bound to a unit.
func (d *Device) BoundTexture(unit uint32) uint32 {
	if unit >= maxTextureUnits {
		return 0
	}
	return d.units[unit]
}

// ActiveAttributes lists a program's active attribute names, sorted.
func (d *Device) ActiveAttributes(prog uint32) []string {
	p, ok := d.programs[prog]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(p.attribs))
	for name := range p.attribs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func toByte(v float32) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}
