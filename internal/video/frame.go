package video

import (
	"image"
)

// Allocates a display bitmap matching the negotiated format
func NewBitmap(f VideoFormat) *image.RGBA {
	if f.IsZero() {
		return nil
	}
	return &image.RGBA{
		Pix:    make([]uint8, f.Size()),
		Stride: f.Stride,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// Reports whether img can receive a frame of format f
func BitmapMatches(img *image.RGBA, f VideoFormat) bool {
	if img == nil || f.IsZero() {
		return false
	}
	b := img.Bounds()
	return b.Dx() == f.Width && b.Dy() == f.Height &&
		img.Stride == f.Stride && len(img.Pix) == f.Size()
}
