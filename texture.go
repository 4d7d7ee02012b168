package crucible

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Texture is a CPU-side RGBA8 texture with an optional mip chain.
// Levels[0] is the full-size image; GPU-facing queues upload the chain as-is.
type Texture struct {
	id     uint32
	Name   string
	Width  uint32
	Height uint32
	Levels [][]byte
}

// NewTexture wraps tightly packed RGBA8 pixels. The pixel slice length must
// match width*height*4.
func NewTexture(name string, width, height uint32, pixels []byte) (*Texture, error) {
	if uint32(len(pixels)) != width*height*4 {
		return nil, fmt.Errorf("texture %q: have %d pixel bytes, want %d", name, len(pixels), width*height*4)
	}
	return &Texture{
		id:     nextObjectID(),
		Name:   name,
		Width:  width,
		Height: height,
		Levels: [][]byte{pixels},
	}, nil
}

func (t *Texture) ObjectID() uint32 { return t.id }

// MipLevels returns the number of populated mip levels.
func (t *Texture) MipLevels() uint32 { return uint32(len(t.Levels)) }

// GenerateMips rebuilds the mip chain below level 0 by successive
// half-resolution downsampling.
func (t *Texture) GenerateMips() {
	t.Levels = t.Levels[:1]

	w, h := int(t.Width), int(t.Height)
	src := &image.RGBA{Pix: t.Levels[0], Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
	for w > 1 || h > 1 {
		w = max(w/2, 1)
		h = max(h/2, 1)
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Rect, src, src.Rect, draw.Src, nil)
		t.Levels = append(t.Levels, dst.Pix)
		src = dst
	}
}
