package texquad

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/mobile/exp/f32"
)

// QuadIndices is the fixed index pattern covering the quad with two triangles.
var QuadIndices = [6]uint16{0, 1, 2, 1, 2, 3}

// Geometry is the CPU-side quad: four interleaved vertices and six indices.
type Geometry struct {
	Vertices [4]Vertex
	Indices  [6]uint16
}

// BuildQuad lays out a rect of surface pixels and pairs each corner with an
// image pixel coordinate:
//
//	0: (x+w, y)   <-> (W, 0)
//	1: (x+w, y+h) <-> (W, H)
//	2: (x, y)     <-> (0, 0)
//	3: (x, y+h)   <-> (0, H)
//
// The vertex stage maps surface y downwards while row 0 of the uploaded image
// is t=0, so this pairing shows the image upright; relative to a bottom-left
// GL origin the texture is vertically flipped. The order is fixed.
func BuildQuad(rect Rect, imageWidth, imageHeight int) (Geometry, error) {
	if imageWidth <= 0 || imageHeight <= 0 {
		return Geometry{}, fmt.Errorf("image dimensions %dx%d must be nonzero", imageWidth, imageHeight)
	}
	if rect.W <= 0 || rect.H <= 0 {
		return Geometry{}, fmt.Errorf("quad %s has empty size", rect)
	}

	x, y, w, h := rect.X, rect.Y, rect.W, rect.H
	iw, ih := float32(imageWidth), float32(imageHeight)

	return Geometry{
		Vertices: [4]Vertex{
			{Pos: [2]float32{x + w, y}, TexCoord: [2]float32{iw, 0}},
			{Pos: [2]float32{x + w, y + h}, TexCoord: [2]float32{iw, ih}},
			{Pos: [2]float32{x, y}, TexCoord: [2]float32{0, 0}},
			{Pos: [2]float32{x, y + h}, TexCoord: [2]float32{0, ih}},
		},
		Indices: QuadIndices,
	}, nil
}

// Validate checks that every index addresses an existing vertex.
func (g Geometry) Validate() error {
	for i, idx := range g.Indices {
		if int(idx) >= len(g.Vertices) {
			return fmt.Errorf("index %d = %d out of range [0, %d)", i, idx, len(g.Vertices))
		}
	}
	return nil
}

// VertexBytes returns the interleaved vertex buffer payload, little-endian.
func (g Geometry) VertexBytes() []byte {
	data := make([]float32, 0, len(g.Vertices)*VertexStride)
	for _, v := range g.Vertices {
		data = append(data, v.Pos[0], v.Pos[1], v.TexCoord[0], v.TexCoord[1])
	}
	return f32.Bytes(binary.LittleEndian, data...)
}

// IndexBytes returns the index buffer payload, little-endian uint16.
func (g Geometry) IndexBytes() []byte {
	b := make([]byte, 0, len(g.Indices)*indexSize)
	for _, idx := range g.Indices {
		b = binary.LittleEndian.AppendUint16(b, idx)
	}
	return b
}

// QuadBuffers holds the uploaded static vertex and index buffers.
type QuadBuffers struct {
	VAO        uint32
	Vertices   uint32
	Indices    uint32
	IndexCount int32
	Wired      bool // Attribute layout recorded by WireAttributes
}

// NewQuadBuffers validates g and uploads it into two static buffers. The
// vertex array object is created here so WireAttributes can record the
// attribute layout into it; the element buffer binding is stored in it too.
func NewQuadBuffers(dev Device, g Geometry) (*QuadBuffers, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("quad geometry: %w", err)
	}
	vb, ib := g.VertexBytes(), g.IndexBytes()
	if len(vb) == 0 || len(ib) == 0 {
		return nil, errors.New("quad geometry: empty buffers")
	}

	b := &QuadBuffers{IndexCount: int32(len(g.Indices))}

	b.VAO = dev.CreateVertexArray()
	dev.BindVertexArray(b.VAO)

	b.Vertices = dev.CreateBuffer()
	dev.BindBuffer(ArrayBuffer, b.Vertices)
	dev.BufferData(ArrayBuffer, vb, StaticDraw)

	b.Indices = dev.CreateBuffer()
	dev.BindBuffer(ElementArrayBuffer, b.Indices)
	dev.BufferData(ElementArrayBuffer, ib, StaticDraw)

	dev.BindVertexArray(0)
	return b, nil
}

// Delete releases the buffers.
func (b *QuadBuffers) Delete(dev Device) {
	if b.Indices != 0 {
		dev.DeleteBuffer(b.Indices)
	}
	if b.Vertices != 0 {
		dev.DeleteBuffer(b.Vertices)
	}
	if b.VAO != 0 {
		dev.DeleteVertexArray(b.VAO)
	}
}
