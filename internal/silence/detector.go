package silence

import (
	"context"
	"fmt"

	"github.com/silentcut/silentcut-api/internal/proc"
)

// Detector runs ffmpeg silence detection over a media file and parses the
// resulting timestamp stream.
type Detector struct {
	ffmpegPath string
	runner     proc.Runner
}

// NewDetector creates a new Detector.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewDetector(ffmpegPath string, runner proc.Runner) *Detector {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if runner == nil {
		runner = proc.NewExecRunner()
	}
	return &Detector{ffmpegPath: ffmpegPath, runner: runner}
}

// Detect runs silencedetect with the given noise floor (dBFS) and minimum
// silence duration (seconds) and returns the alternating timestamp stream.
// The exit status is deliberately ignored: ffmpeg exits non-zero for the
// null muxer in some builds, and an absence of markers simply means no
// silence was found.
func (d *Detector) Detect(ctx context.Context, inputPath string, noiseFloorDB, minSilenceSec float64) ([]float64, error) {
	filter := fmt.Sprintf("silencedetect=n=%gdB:d=%g", noiseFloorDB, minSilenceSec)

	res, err := d.runner.Run(ctx, d.ffmpegPath,
		"-i", inputPath,
		"-af", filter,
		"-f", "null",
		"-",
	)
	if err != nil {
		return nil, fmt.Errorf("run silence detection: %w", err)
	}

	return ParseDetection(res.Stderr), nil
}
