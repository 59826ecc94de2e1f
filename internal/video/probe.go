package video

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"
)

// Contains video file information
type Metadata struct {
	Width    int
	Height   int
	FPS      float64
	Duration time.Duration
	Codec    string
}

// Checks if metadata has all the required fields
func (m *Metadata) IsValid() bool {
	return m.Width > 0 && m.Height > 0
}

// ProbeFile reads the container header directly for ISO BMFF files and falls
// back to ffprobe for everything else.
func ProbeFile(path, ffprobePath string) (*Metadata, error) {
	if isMP4(path) {
		if meta, err := ProbeMP4(path); err == nil {
			return meta, nil
		}
	}
	return Probe(path, ffprobePath)
}

func isMP4(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".m4v", ".mov":
		return true
	}
	return false
}

// ProbeMP4 extracts metadata from the moov box of an MP4 file
func ProbeMP4(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	mp4File, err := mp4.DecodeFile(f)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}
	if mp4File.Moov == nil {
		return nil, fmt.Errorf("no moov box found")
	}

	var videoTrack *mp4.TrakBox
	for _, trak := range mp4File.Moov.Traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" {
			videoTrack = trak
			break
		}
	}
	if videoTrack == nil {
		return nil, ErrNoVideoStream
	}

	meta := &Metadata{}
	if minf := videoTrack.Mdia.Minf; minf != nil && minf.Stbl != nil {
		if stsd := minf.Stbl.Stsd; stsd != nil {
			for _, child := range stsd.Children {
				if vse, ok := child.(*mp4.VisualSampleEntryBox); ok {
					meta.Width = int(vse.Width)
					meta.Height = int(vse.Height)
					meta.Codec = vse.Type()
					break
				}
			}
		}
		if stts := minf.Stbl.Stts; stts != nil && len(stts.SampleTimeDelta) > 0 &&
			stts.SampleTimeDelta[0] > 0 && videoTrack.Mdia.Mdhd != nil {
			meta.FPS = float64(videoTrack.Mdia.Mdhd.Timescale) / float64(stts.SampleTimeDelta[0])
		}
	}

	if mdhd := videoTrack.Mdia.Mdhd; mdhd != nil && mdhd.Timescale > 0 {
		meta.Duration = time.Duration(float64(mdhd.Duration) / float64(mdhd.Timescale) * float64(time.Second))
	}

	if meta.FPS <= 0 {
		meta.FPS = 25
	}
	if !meta.IsValid() {
		return nil, ErrNoVideoStream
	}
	return meta, nil
}

// Extracts metadata from the video file using ffprobe
func Probe(path, ffprobePath string) (*Metadata, error) {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	meta := &Metadata{}

	// Probe video stream
	if err := probeVideoStream(ctx, ffprobePath, path, meta); err != nil {
		return nil, err
	}

	// Probe Duration
	probeDuration(ctx, ffprobePath, path, meta)

	// Set defaults
	if meta.FPS <= 0 {
		meta.FPS = 25
	}

	if !meta.IsValid() {
		return nil, ErrNoVideoStream
	}

	return meta, nil
}

func probeVideoStream(ctx context.Context, ffprobePath, path string, meta *Metadata) error {
	// Video stream info
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,codec_name",
		"-of", "default=noprint_wrappers=1",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("ffprobe failed: %w", err)
	}

	parseProbeOutput(string(out), meta)
	return nil
}

func parseProbeOutput(output string, meta *Metadata) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}

		key := line[:idx]
		val := line[idx+1:]

		switch key {
		case "width":
			meta.Width, _ = strconv.Atoi(val)
		case "height":
			meta.Height, _ = strconv.Atoi(val)
		case "r_frame_rate":
			meta.FPS = parseFPS(val)
		case "codec_name":
			meta.Codec = val
		}
	}
}

func probeDuration(ctx context.Context, ffprobePath, path string, meta *Metadata) {
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return
	}

	meta.Duration = parseDuration(string(out))
}

func parseDuration(s string) time.Duration {
	if dur, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && dur > 0 {
		return time.Duration(dur * float64(time.Second))
	}
	return 0
}

func parseFPS(s string) float64 {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "/"); idx > 0 {
		num, _ := strconv.ParseFloat(s[:idx], 64)
		den, _ := strconv.ParseFloat(s[idx+1:], 64)
		if den > 0 {
			return num / den
		}
		return 0
	}
	fps, _ := strconv.ParseFloat(s, 64)
	return fps
}
