package tui

import (
	"fmt"
	"time"
)

// StatusRows is the number of rows below the video: progress and status.
const StatusRows = 2

// CalculateFrameDimensions returns the pixel size that fits a srcW x srcH
// frame into the screen above the status rows, two pixel rows per cell.
func CalculateFrameDimensions(screenW, screenH, srcW, srcH int) (int, int) {
	availH := screenH - StatusRows
	if availH < 2 {
		availH = 2
	}
	frameW := screenW
	frameH := availH * 2

	if srcW > 0 && srcH > 0 {
		aspect := float64(srcW) / float64(srcH)
		frameAspect := float64(frameW) / float64(frameH)

		if frameAspect > aspect {
			frameW = int(float64(frameH) * aspect)
		} else {
			frameH = int(float64(frameW) / aspect)
		}
	}

	frameW = clamp((frameW/2)*2, 4, screenW)
	frameH = clamp((frameH/2)*2, 4, availH*2)

	return frameW, frameH
}

// frameOffset centres a frame of frameW x frameH pixels in the video area.
func frameOffset(screenW, screenH, frameW, frameH int) (int, int) {
	cellH := frameH / 2
	offsetX := (screenW - frameW) / 2
	offsetY := (screenH - StatusRows - cellH) / 2
	if offsetX < 0 {
		offsetX = 0
	}
	if offsetY < 0 {
		offsetY = 0
	}
	return offsetX, offsetY
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
