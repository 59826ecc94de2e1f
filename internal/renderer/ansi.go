package renderer

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"
)

// asciiRamp orders characters from dark to bright.
var asciiRamp = []rune(" .:-=+*#%@")

// WriteANSI writes img to w as 24-bit colour half blocks, two pixel rows
// per line. Bounds need not start at the origin.
func WriteANSI(w io.Writer, img *image.RGBA) error {
	if img == nil {
		return nil
	}
	_, err := io.WriteString(w, ANSI(img))
	return err
}

// ANSI renders img with escape sequences; each character covers two
// vertical pixels.
func ANSI(img *image.RGBA) string {
	if img == nil {
		return ""
	}

	bounds := img.Bounds()
	var sb strings.Builder

	for y := bounds.Min.Y; y < bounds.Max.Y; y += 2 {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			// Top pixel - Foreground
			top := img.RGBAAt(x, y)

			// Bottom pixel - Background
			var bottom color.RGBA
			if y+1 < bounds.Max.Y {
				bottom = img.RGBAAt(x, y+1)
			} else {
				bottom = top
			}

			fmt.Fprintf(&sb, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀",
				top.R, top.G, top.B,
				bottom.R, bottom.G, bottom.B)
		}
		sb.WriteString("\x1b[0m\n")
	}
	return sb.String()
}

// ASCII renders img as brightness characters, one per pixel, for
// terminals without colour.
func ASCII(img *image.RGBA) string {
	if img == nil {
		return ""
	}

	bounds := img.Bounds()
	var sb strings.Builder
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			brightness := (int(c.R) + int(c.G) + int(c.B)) / 3
			sb.WriteRune(asciiRamp[brightness*(len(asciiRamp)-1)/255])
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}
