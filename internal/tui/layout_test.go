package tui

import (
	"testing"
	"time"
)

func TestCalculateFrameDimensions(t *testing.T) {
	tests := []struct {
		name         string
		screenW      int
		screenH      int
		srcW, srcH   int
		wantW, wantH int
	}{
		{"wide source on wide screen", 80, 24, 1920, 1080, 78, 44},
		{"tall source", 80, 24, 1080, 1920, 24, 44},
		{"unknown source fills area", 80, 24, 0, 0, 80, 44},
		{"tiny screen", 6, 3, 640, 360, 6, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := CalculateFrameDimensions(tt.screenW, tt.screenH, tt.srcW, tt.srcH)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("got %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestFrameOffset(t *testing.T) {
	x, y := frameOffset(80, 24, 40, 20)
	if x != 20 || y != 6 {
		t.Errorf("got (%d, %d), want (20, 6)", x, y)
	}

	x, y = frameOffset(10, 4, 40, 20)
	if x != 0 || y != 0 {
		t.Errorf("oversized frame: got (%d, %d), want (0, 0)", x, y)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{-time.Second, "0:00"},
		{65 * time.Second, "1:05"},
		{1500 * time.Millisecond, "0:02"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("▶ 0:01", 3); got != "▶ 0" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Errorf("truncate = %q", got)
	}
}
