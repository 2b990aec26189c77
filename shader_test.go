package texquad_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-theft-auto/texquad"
)

const missingSemicolonVertex = `#version 410 core

in vec2 aCoordinate;
in vec2 aTextureCoord;
uniform vec2 uViewport;
out vec2 vTextureCoord;

void main() {
    vec2 clip = aCoordinate / uViewport * 2.0 - 1.0
    gl_Position = vec4(clip.x, -clip.y, 0.0, 1.0);
    vTextureCoord = aTextureCoord;
}
`

// Declares aTextureCoord but never reads it, so the linker drops it.
const unusedTexCoordVertex = `#version 410 core

in vec2 aCoordinate;
in vec2 aTextureCoord;
uniform vec2 uViewport;
out vec2 vTextureCoord;

void main() {
    vec2 clip = aCoordinate / uViewport * 2.0 - 1.0;
    gl_Position = vec4(clip.x, -clip.y, 0.0, 1.0);
    vTextureCoord = vec2(0.0);
}
`

// Reads a varying the vertex stage never writes.
const mismatchedFragment = `#version 410 core

in vec2 vUV;
uniform sampler2D uSampler;
uniform vec2 uTextureDimensions;
out vec4 FragColor;

void main() {
    FragColor = texture(uSampler, vUV / uTextureDimensions);
}
`

func TestCompileReferenceShaders(t *testing.T) {
	dev := newDevice(texquad.DefaultViewport)
	src := sources()

	vs, err := texquad.Compile(dev, texquad.VertexShader, src.Vertex)
	require.NoError(t, err)
	assert.True(t, vs.Compiled)
	assert.Equal(t, texquad.VertexShader, vs.Kind)

	fs, err := texquad.Compile(dev, texquad.FragmentShader, src.Fragment)
	require.NoError(t, err)
	assert.NotEqual(t, vs.ID, fs.ID)
	assert.Equal(t, 2, dev.Live()["shader"])
}

func TestCompileSyntaxError(t *testing.T) {
	dev := newDevice(texquad.DefaultViewport)

	_, err := texquad.Compile(dev, texquad.VertexShader, missingSemicolonVertex)
	var compileErr *texquad.ShaderCompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, texquad.VertexShader, compileErr.Kind)
	assert.NotEmpty(t, strings.TrimSpace(compileErr.Log))
	assert.Contains(t, compileErr.Log, "0:9(0)")
	assert.Equal(t, 0, dev.Live()["shader"], "failed unit must be deleted")

	numbered := compileErr.NumberedSource()
	assert.Contains(t, numbered, "   9      vec2 clip")
}

func TestCompileEmptySource(t *testing.T) {
	dev := newDevice(texquad.DefaultViewport)

	_, err := texquad.Compile(dev, texquad.FragmentShader, "  \n")
	var compileErr *texquad.ShaderCompileError
	require.ErrorAs(t, err, &compileErr)
	assert.NotEmpty(t, compileErr.Log)
	assert.Empty(t, dev.Calls(), "empty source never reaches the device")
}

func TestCompileMissingMain(t *testing.T) {
	dev := newDevice(texquad.DefaultViewport)
	_, err := texquad.Compile(dev, texquad.FragmentShader, "#version 410 core\nout vec4 FragColor;\n")
	var compileErr *texquad.ShaderCompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Contains(t, compileErr.Log, "main")
}

func compilePair(t *testing.T, dev texquad.Device, vsrc, fsrc string) (*texquad.Shader, *texquad.Shader) {
	t.Helper()
	vs, err := texquad.Compile(dev, texquad.VertexShader, vsrc)
	require.NoError(t, err)
	fs, err := texquad.Compile(dev, texquad.FragmentShader, fsrc)
	require.NoError(t, err)
	return vs, fs
}

func TestLinkResolvesAllBindings(t *testing.T) {
	dev := newDevice(texquad.DefaultViewport)
	src := sources()
	vs, fs := compilePair(t, dev, src.Vertex, src.Fragment)

	prog, err := texquad.Link(dev, vs, fs)
	require.NoError(t, err)
	require.NotZero(t, prog.ID)

	locs := prog.Locations()
	assert.Len(t, locs, 5)
	for _, name := range []string{
		texquad.AttrCoordinate,
		texquad.AttrTextureCoordinate,
		texquad.UniformViewport,
		texquad.UniformSampler,
		texquad.UniformTextureDimensions,
	} {
		loc, ok := locs[name]
		if assert.True(t, ok, name) {
			assert.GreaterOrEqual(t, loc, int32(0), name)
		}
	}

	coord, _ := prog.Attribute(texquad.AttrCoordinate)
	texCoord, _ := prog.Attribute(texquad.AttrTextureCoordinate)
	assert.NotEqual(t, coord, texCoord)

	assert.Equal(t, 0, dev.Live()["shader"], "units are released after linking")
	assert.Equal(t, 1, dev.Live()["program"])
}

func TestLinkFailure(t *testing.T) {
	dev := newDevice(texquad.DefaultViewport)
	vs, fs := compilePair(t, dev, sources().Vertex, mismatchedFragment)

	_, err := texquad.Link(dev, vs, fs)
	var linkErr *texquad.ProgramLinkError
	require.ErrorAs(t, err, &linkErr)
	assert.Contains(t, linkErr.Log, "vUV")
	assert.Equal(t, 0, dev.Live()["program"])
	assert.Equal(t, 0, dev.Live()["shader"])
}

func TestLinkRejectsSwappedUnits(t *testing.T) {
	dev := newDevice(texquad.DefaultViewport)
	src := sources()
	vs, fs := compilePair(t, dev, src.Vertex, src.Fragment)

	_, err := texquad.Link(dev, fs, vs)
	var linkErr *texquad.ProgramLinkError
	assert.ErrorAs(t, err, &linkErr)
}

func TestLinkMissingBinding(t *testing.T) {
	dev := newDevice(texquad.DefaultViewport)
	vs, fs := compilePair(t, dev, unusedTexCoordVertex, sources().Fragment)

	_, err := texquad.Link(dev, vs, fs)
	var bindErr *texquad.BindingResolutionError
	require.True(t, errors.As(err, &bindErr), "got %v", err)
	assert.Equal(t, "attribute", bindErr.Kind)
	assert.Equal(t, texquad.AttrTextureCoordinate, bindErr.Name)
	assert.Equal(t, "aTextureCoord", bindErr.Symbol)
	assert.Equal(t, 0, dev.Live()["program"])
}
