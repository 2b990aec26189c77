package texquad

import "errors"

// Texture is a GPU-resident copy of an Image bound to texture unit 0, with
// edge-clamped wrapping and linear filtering. It is never updated.
type Texture struct {
	ID            uint32
	Unit          uint32
	Width, Height int
}

// BindTexture creates one texture object on unit 0, configures sampling and
// uploads img as 8-bit RGBA. No mipmaps are generated.
func BindTexture(dev Device, img *Image) (*Texture, error) {
	if img == nil || img.RGBA == nil {
		return nil, errors.New("bind texture: no image")
	}
	if img.Width <= 0 || img.Height <= 0 {
		return nil, errors.New("bind texture: image has zero size")
	}
	if len(img.Pix()) < img.Width*img.Height*4 {
		return nil, errors.New("bind texture: pixel data shorter than dimensions")
	}

	tex := &Texture{Unit: 0, Width: img.Width, Height: img.Height}
	tex.ID = dev.CreateTexture()
	dev.ActiveTexture(tex.Unit)
	dev.BindTexture(tex.ID)

	// Clamp prevents sampling artifacts at the quad borders.
	dev.TexParameter(TextureWrapS, ClampToEdge)
	dev.TexParameter(TextureWrapT, ClampToEdge)
	dev.TexParameter(TextureMinFilter, Linear)
	dev.TexParameter(TextureMagFilter, Linear)

	dev.TexImage2D(img.Width, img.Height, img.Pix())
	return tex, nil
}

// Delete releases the texture object.
func (t *Texture) Delete(dev Device) {
	if t.ID != 0 {
		dev.DeleteTexture(t.ID)
	}
}
