package renderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/gdamore/tcell/v2"
)

func newTestRenderer(t *testing.T, w, h int) (*Renderer, tcell.SimulationScreen) {
	t.Helper()
	sim := tcell.NewSimulationScreen("")
	r, err := NewWithScreen(sim)
	if err != nil {
		t.Fatalf("NewWithScreen failed: %v", err)
	}
	sim.SetSize(w, h)
	t.Cleanup(r.Close)
	return r, sim
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func cellColors(t *testing.T, sim tcell.SimulationScreen, x, y int) (rune, tcell.Color, tcell.Color) {
	t.Helper()
	ch, _, style, _ := sim.GetContent(x, y)
	fg, bg, _ := style.Decompose()
	return ch, fg, bg
}

func TestRenderImage_HalfBlocks(t *testing.T) {
	r, sim := newTestRenderer(t, 20, 10)

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	img.SetRGBA(1, 0, color.RGBA{255, 0, 0, 255})
	img.SetRGBA(0, 1, color.RGBA{0, 0, 255, 255})
	img.SetRGBA(1, 1, color.RGBA{0, 0, 255, 255})

	r.RenderImage(img, 3, 2)

	ch, fg, bg := cellColors(t, sim, 3, 2)
	if ch != '▀' {
		t.Errorf("cell rune = %q, want upper half block", ch)
	}
	if fg != tcell.NewRGBColor(255, 0, 0) {
		t.Errorf("foreground = %v, want red top pixel", fg)
	}
	if bg != tcell.NewRGBColor(0, 0, 255) {
		t.Errorf("background = %v, want blue bottom pixel", bg)
	}

	if ch, _, _ := cellColors(t, sim, 5, 2); ch == '▀' {
		t.Error("image drawn past its width")
	}
}

func TestRenderImage_ClipsToScreen(t *testing.T) {
	r, _ := newTestRenderer(t, 4, 2)

	// must not panic when the image is larger than the screen
	r.RenderImage(solid(10, 10, color.RGBA{1, 2, 3, 255}), -2, -1)
	r.RenderImage(nil, 0, 0)
}

func TestRenderScaled(t *testing.T) {
	r, sim := newTestRenderer(t, 20, 10)
	green := color.RGBA{0, 200, 0, 255}

	r.RenderScaled(solid(64, 36, green), 8, 4, 0, 0)

	for x := 0; x < 8; x++ {
		for y := 0; y < 2; y++ {
			ch, fg, bg := cellColors(t, sim, x, y)
			if ch != '▀' || fg != tcell.NewRGBColor(0, 200, 0) || bg != tcell.NewRGBColor(0, 200, 0) {
				t.Fatalf("cell (%d,%d) = %q %v/%v, want green half block", x, y, ch, fg, bg)
			}
		}
	}
	if ch, _, _ := cellColors(t, sim, 8, 0); ch == '▀' {
		t.Error("scaled image wider than requested")
	}
	if ch, _, _ := cellColors(t, sim, 0, 2); ch == '▀' {
		t.Error("scaled image taller than requested")
	}

	r.RenderScaled(solid(4, 4, green), 0, 4, 0, 0)
}

func TestDrawText(t *testing.T) {
	r, sim := newTestRenderer(t, 20, 3)

	next := r.DrawText(1, 1, "▶ ab", tcell.StyleDefault)
	if next != 5 {
		t.Errorf("DrawText returned column %d, want 5", next)
	}

	want := []rune{'▶', ' ', 'a', 'b'}
	for i, w := range want {
		ch, _, _, _ := sim.GetContent(1+i, 1)
		if ch != w {
			t.Errorf("cell %d = %q, want %q", 1+i, ch, w)
		}
	}

	if got := r.DrawText(0, 5, "off screen", tcell.StyleDefault); got != 0 {
		t.Errorf("DrawText off screen returned %d, want 0", got)
	}
}

func TestRenderMessage(t *testing.T) {
	r, sim := newTestRenderer(t, 11, 5)

	r.RenderMessage("abc", tcell.ColorDarkBlue)

	ch, _, _, _ := sim.GetContent(4, 2)
	if ch != 'a' {
		t.Errorf("message starts with %q at column 4, want 'a'", ch)
	}
}

func TestProgressBar(t *testing.T) {
	r, sim := newTestRenderer(t, 12, 3)

	r.ProgressBar(1, 0.5, tcell.ColorRed, tcell.ColorGray)

	marker := -1
	for x := 0; x < 12; x++ {
		if ch, _, _, _ := sim.GetContent(x, 1); ch == '●' {
			marker = x
		}
	}
	if marker != 6 {
		t.Errorf("marker at column %d, want 6", marker)
	}
}

func TestRenderer_Close(t *testing.T) {
	r, _ := newTestRenderer(t, 10, 5)

	r.Close()
	r.Close()

	if !r.IsClosed() {
		t.Error("renderer should report closed")
	}
	if w, h := r.Size(); w != 80 || h != 24 {
		t.Errorf("Size after close = %dx%d, want 80x24", w, h)
	}
	if w, h := r.BeginFrame(1, 2); w != 80 || h != 24 {
		t.Errorf("BeginFrame after close = %dx%d, want 80x24", w, h)
	}

	// all of these must be safe on a closed renderer
	r.RenderImage(solid(2, 2, color.RGBA{}), 0, 0)
	r.RenderScaled(solid(2, 2, color.RGBA{}), 4, 4, 0, 0)
	r.DrawText(0, 0, "x", tcell.StyleDefault)
	r.FillLine(0, tcell.StyleDefault)
	r.Invalidate(DamageScreen)
	r.EndFrame()
}

func TestBeginFrame_Damage(t *testing.T) {
	tests := []struct {
		name      string
		damage    Damage
		scene     int
		wantClear bool
	}{
		{"nothing changed", DamageNone, 0, false},
		{"video damage", DamageVideo, 0, true},
		{"screen damage", DamageScreen, 0, true},
		{"new scene", DamageNone, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, sim := newTestRenderer(t, 10, 5)
			if w, h := r.BeginFrame(0, 2); w != 10 || h != 5 {
				t.Fatalf("BeginFrame = %dx%d, want 10x5", w, h)
			}
			r.DrawText(0, 0, "video", tcell.StyleDefault)
			r.DrawText(0, 4, "status", tcell.StyleDefault)
			r.EndFrame()

			r.Invalidate(tt.damage)
			r.BeginFrame(tt.scene, 2)

			ch, _, _, _ := sim.GetContent(0, 0)
			if cleared := ch == ' '; cleared != tt.wantClear {
				t.Errorf("video area cleared = %v, want %v", cleared, tt.wantClear)
			}
			status, _, _, _ := sim.GetContent(0, 4)
			if tt.damage != DamageScreen && status != 's' {
				t.Errorf("status row = %q, want it kept", status)
			}
		})
	}
}

func TestInvalidate_WidestWins(t *testing.T) {
	r, sim := newTestRenderer(t, 10, 5)
	r.BeginFrame(0, 2)
	r.DrawText(0, 4, "status", tcell.StyleDefault)

	r.Invalidate(DamageScreen)
	r.Invalidate(DamageVideo)
	r.BeginFrame(0, 2)

	if ch, _, _, _ := sim.GetContent(0, 4); ch == 's' {
		t.Error("screen damage downgraded by a later video damage")
	}
}

func TestRenderImage_SkipsUnchangedCells(t *testing.T) {
	r, sim := newTestRenderer(t, 10, 5)
	img := solid(2, 2, color.RGBA{200, 0, 0, 255})

	r.BeginFrame(0, 2)
	r.RenderImage(img, 0, 0)
	// overwrite behind the renderer's back
	sim.SetContent(0, 0, 'x', nil, tcell.StyleDefault)

	r.RenderImage(img, 0, 0)
	if ch, _, _ := cellColors(t, sim, 0, 0); ch != 'x' {
		t.Fatalf("unchanged cell redrawn as %q", ch)
	}

	r.Invalidate(DamageVideo)
	r.BeginFrame(0, 2)
	r.RenderImage(img, 0, 0)
	if ch, _, _ := cellColors(t, sim, 0, 0); ch != '▀' {
		t.Errorf("cell after damage = %q, want the image redrawn", ch)
	}
}
