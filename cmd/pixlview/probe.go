package main

import (
	"fmt"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/0bVdnt/pixlview/internal/video"
)

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("Print video metadata"),
		ArgsUsage: "<video-file>",
		Action:    runProbe,
	}
}

func runProbe(c *cli.Context) error {
	source, err := sourceArg(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	meta, err := video.ProbeFile(source, cfg.FFprobePath)
	if err != nil {
		return fmt.Errorf("probe %s: %w", source, err)
	}

	w, h := video.FitDimensions(meta.Width, meta.Height, cfg.MaxWidth, cfg.MaxHeight)
	fps := cfg.TargetFPS
	if fps <= 0 {
		fps = video.DefaultTargetFPS(w, h, meta.FPS)
	}

	out := c.App.Writer
	fmt.Fprintf(out, l10n.T("File:     %s\n"), source)
	fmt.Fprintf(out, l10n.T("Size:     %dx%d\n"), meta.Width, meta.Height)
	fmt.Fprintf(out, l10n.T("Codec:    %s\n"), meta.Codec)
	fmt.Fprintf(out, l10n.T("FPS:      %.2f\n"), meta.FPS)
	fmt.Fprintf(out, l10n.T("Duration: %v\n"), meta.Duration)
	fmt.Fprintf(out, l10n.T("Decode:   %dx%d @ %.1f fps\n"), w, h, fps)
	return nil
}
