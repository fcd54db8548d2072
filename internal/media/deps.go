package media

import (
	"context"
	"strings"

	"github.com/silentcut/silentcut-api/internal/proc"
)

// hardwareEncoderName is the accelerated H.264 encoder the pipeline prefers.
const hardwareEncoderName = "h264_nvenc"

// Dependencies reports which external tools and encoders are usable.
type Dependencies struct {
	// FFmpeg is true when the ffmpeg binary runs.
	FFmpeg bool `json:"ffmpeg"`
	// FFprobe is true when the ffprobe binary runs.
	FFprobe bool `json:"ffprobe"`
	// HardwareEncoder is true when ffmpeg lists the NVENC H.264 encoder.
	HardwareEncoder bool `json:"hardware_encoder"`
}

// DependencyChecker probes the external tools the pipeline relies on.
type DependencyChecker struct {
	ffmpegPath  string
	ffprobePath string
	runner      proc.Runner
}

// NewDependencyChecker creates a new DependencyChecker.
// Empty paths default to "ffmpeg" and "ffprobe" found via PATH.
func NewDependencyChecker(ffmpegPath, ffprobePath string, runner proc.Runner) *DependencyChecker {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if runner == nil {
		runner = proc.NewExecRunner()
	}
	return &DependencyChecker{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		runner:      runner,
	}
}

// Check probes tool availability and hardware encoder support.
// It never returns an error: an unusable tool is reported as false.
func (c *DependencyChecker) Check(ctx context.Context) Dependencies {
	deps := Dependencies{
		FFmpeg:  c.toolRuns(ctx, c.ffmpegPath),
		FFprobe: c.toolRuns(ctx, c.ffprobePath),
	}

	if deps.FFmpeg {
		res, err := c.runner.Run(ctx, c.ffmpegPath, "-encoders")
		if err == nil && res.ExitCode == 0 {
			deps.HardwareEncoder = strings.Contains(res.Stdout, hardwareEncoderName)
		}
	}

	return deps
}

func (c *DependencyChecker) toolRuns(ctx context.Context, path string) bool {
	res, err := c.runner.Run(ctx, path, "-version")
	return err == nil && res.ExitCode == 0
}
