package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/0bVdnt/pixlview/internal/dispatch"
	"github.com/0bVdnt/pixlview/internal/mocks"
	"github.com/0bVdnt/pixlview/internal/player"
)

// lateFrameDecoder negotiates when playback starts and, on seek, lets one
// frame of the replaced run land before the new run negotiates and
// delivers the seek target.
type lateFrameDecoder struct {
	*mocks.Decoder
}

func (d *lateFrameDecoder) Play() error {
	if err := d.Decoder.Play(); err != nil {
		return err
	}
	if _, err := d.Negotiate(4, 4); err != nil {
		return err
	}
	d.Frame(1)
	return nil
}

func (d *lateFrameDecoder) Seek(pos time.Duration) error {
	if err := d.Decoder.Seek(pos); err != nil {
		return err
	}
	d.Frame(1)
	if _, err := d.Negotiate(4, 4); err != nil {
		return err
	}
	d.Frame(9)
	return nil
}

func TestCapture_SkipsFramesFromBeforeTheSeek(t *testing.T) {
	dec := &lateFrameDecoder{Decoder: mocks.NewDecoder(time.Minute)}
	loop := dispatch.NewLoop(0)
	defer loop.Close()

	p, err := player.New(dec, loop, player.Config{PollInterval: 5 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	img, err := capture(ctx, p, loop, "clip.mp4", 5*time.Second)
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 4 {
		t.Fatalf("bounds = %v, want 4x4", img.Bounds())
	}
	for i, v := range img.Pix {
		if v != 9 {
			t.Fatalf("byte %d = %d, want 9 from the seek target", i, v)
		}
	}
}

func TestCapture_TimesOutWithoutFrame(t *testing.T) {
	dec := mocks.NewDecoder(time.Minute)
	loop := dispatch.NewLoop(0)
	defer loop.Close()

	p, err := player.New(dec, loop, player.Config{PollInterval: 5 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := capture(ctx, p, loop, "clip.mp4", time.Second); !errors.Is(err, errNoFrame) {
		t.Fatalf("error = %v, want errNoFrame", err)
	}
}
