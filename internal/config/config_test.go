package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/0bVdnt/pixlview/internal/logger"
	"github.com/0bVdnt/pixlview/internal/native"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pixlview.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults_Valid(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if got := cfg.PollInterval(); got != 100*time.Millisecond {
		t.Errorf("PollInterval = %v", got)
	}
	if got := cfg.SeekStep(); got != 5*time.Second {
		t.Errorf("SeekStep = %v", got)
	}
	if got := cfg.Level(); got != logger.LevelInfo {
		t.Errorf("Level = %v", got)
	}
}

func TestLoadFromFile_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
ffmpeg: /opt/ffmpeg/bin/ffmpeg
max_width: 320
target_fps: 12.5
log_level: debug
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.FFmpegPath != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("FFmpegPath = %q", cfg.FFmpegPath)
	}
	if cfg.MaxWidth != 320 || cfg.MaxHeight != 360 {
		t.Errorf("max size = %dx%d, want 320x360", cfg.MaxWidth, cfg.MaxHeight)
	}
	if cfg.TargetFPS != 12.5 {
		t.Errorf("TargetFPS = %g", cfg.TargetFPS)
	}
	if cfg.FFprobePath != "ffprobe" {
		t.Errorf("FFprobePath = %q, want default", cfg.FFprobePath)
	}
	if cfg.Level() != logger.LevelDebug {
		t.Errorf("Level = %v", cfg.Level())
	}

	ff := cfg.ToFFmpegConfig()
	if ff.MaxWidth != 320 || ff.TargetFPS != 12.5 || ff.FFmpegPath != cfg.FFmpegPath {
		t.Errorf("ToFFmpegConfig = %+v", ff)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); !os.IsNotExist(err) {
		t.Errorf("missing file: got %v", err)
	}

	path := writeConfig(t, "max_width: [1, 2\n")
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.MaxWidth = 0
	cfg.PollIntervalMs = 0
	cfg.Allocator = "mmap"
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"max size", "poll_interval_ms", "allocator", "loud"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestNewAllocator(t *testing.T) {
	cfg := Defaults()
	alloc, err := cfg.NewAllocator()
	if err != nil {
		t.Fatalf("heap allocator: %v", err)
	}
	if _, ok := alloc.(*native.Heap); !ok {
		t.Errorf("got %T, want *native.Heap", alloc)
	}

	cfg.Allocator = "bogus"
	alloc, err = cfg.NewAllocator()
	if err == nil {
		t.Error("expected error for unknown allocator")
	}
	if _, ok := alloc.(*native.Heap); !ok {
		t.Errorf("fallback is %T, want *native.Heap", alloc)
	}
}
