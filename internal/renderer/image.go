package renderer

import (
	"image"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/image/draw"
)

// Draws an RGBA image using half-block characters with caching
func (r *Renderer) RenderImage(img *image.RGBA, offsetX, offsetY int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if img == nil || !r.usableLocked() {
		return
	}
	r.renderLocked(img, offsetX, offsetY)
}

// RenderScaled draws src resized to width x height pixels, two pixel rows per
// terminal cell.
func (r *Renderer) RenderScaled(src *image.RGBA, width, height, offsetX, offsetY int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if src == nil || !r.usableLocked() || width <= 0 || height <= 0 {
		return
	}

	if src.Bounds().Dx() == width && src.Bounds().Dy() == height {
		r.renderLocked(src, offsetX, offsetY)
		return
	}

	if r.scaled == nil || r.scaled.Bounds().Dx() != width || r.scaled.Bounds().Dy() != height {
		r.scaled = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	draw.ApproxBiLinear.Scale(r.scaled, r.scaled.Bounds(), src, src.Bounds(), draw.Src, nil)
	r.renderLocked(r.scaled, offsetX, offsetY)
}

// unknown marks a cache slot no cell colour can match
const unknown = ^uint64(0)

// caller holds mu
func (r *Renderer) renderLocked(img *image.RGBA, offsetX, offsetY int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	screenW, screenH := r.screen.Size()
	if w <= 0 || h <= 0 || screenW <= 0 || screenH <= 0 {
		return
	}

	rows := (h + 1) / 2
	if r.cellW != w || r.cellH != rows || len(r.cells) != w*rows {
		r.cells = make([]uint64, w*rows)
		for i := range r.cells {
			r.cells[i] = unknown
		}
		r.cellW, r.cellH = w, rows
	}

	for row := 0; row < rows; row++ {
		y := offsetY + row
		if y < 0 || y >= screenH {
			continue
		}
		top := img.PixOffset(b.Min.X, b.Min.Y+2*row)
		bottom := top
		if 2*row+1 < h {
			bottom += img.Stride
		}
		for col := 0; col < w; col++ {
			x := offsetX + col
			if x < 0 || x >= screenW {
				continue
			}
			t := img.Pix[top+col*4 : top+col*4+3 : top+col*4+3]
			u := img.Pix[bottom+col*4 : bottom+col*4+3 : bottom+col*4+3]
			packed := packColors(t[0], t[1], t[2], u[0], u[1], u[2])

			slot := &r.cells[row*w+col]
			if *slot == packed {
				continue
			}
			*slot = packed
			r.screen.SetContent(x, y, '▀', nil, tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(t[0]), int32(t[1]), int32(t[2]))).
				Background(tcell.NewRGBColor(int32(u[0]), int32(u[1]), int32(u[2]))))
		}
	}
}

func packColors(tr, tg, tb, br, bg, bb byte) uint64 {
	return uint64(tr)<<40 | uint64(tg)<<32 | uint64(tb)<<24 |
		uint64(br)<<16 | uint64(bg)<<8 | uint64(bb)
}
