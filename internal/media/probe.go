// Package media provides metadata extraction and tool probing for the
// silence-removal pipeline. All codec work is delegated to the external
// ffmpeg/ffprobe binaries; nothing here decodes media in-process.
package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/silentcut/silentcut-api/internal/proc"
)

// Static errors for media probing.
var (
	// ErrFFprobeExecution is returned when ffprobe exits non-zero.
	ErrFFprobeExecution = errors.New("ffprobe execution failed")
	// ErrNoFormat is returned when ffprobe output carries no format section.
	ErrNoFormat = errors.New("ffprobe output missing format section")
)

// VideoInfo describes a media file as reported by ffprobe.
// A zero VideoInfo means the file could not be inspected.
type VideoInfo struct {
	// Duration is the container duration in seconds.
	Duration float64
	// Size is the container size in bytes.
	Size int64
	// Bitrate is the overall bitrate in bits per second.
	Bitrate int64
	// VideoStreams is the number of video streams.
	VideoStreams int
	// AudioStreams is the number of audio streams.
	AudioStreams int
	// VideoCodec is the codec name of the first video stream, if any.
	VideoCodec string
	// AudioCodec is the codec name of the first audio stream, if any.
	AudioCodec string
	// Resolution is "WxH" of the first video stream, if any.
	Resolution string
	// FPS is the frame rate of the first video stream.
	FPS float64
}

// Prober defines the interface for media metadata extraction.
type Prober interface {
	// Probe inspects a media file. On failure it returns a zero VideoInfo
	// together with the error; callers treat a zero duration as
	// "metadata unavailable" and never see a panic from this boundary.
	Probe(ctx context.Context, path string) (VideoInfo, error)
}

// FFprobeProber implements Prober using the ffprobe CLI.
type FFprobeProber struct {
	ffprobePath string
	runner      proc.Runner
}

// NewFFprobeProber creates a new FFprobeProber.
// If ffprobePath is empty, it defaults to "ffprobe" (found via PATH).
func NewFFprobeProber(ffprobePath string, runner proc.Runner) *FFprobeProber {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if runner == nil {
		runner = proc.NewExecRunner()
	}
	return &FFprobeProber{ffprobePath: ffprobePath, runner: runner}
}

// ffprobe JSON output shapes. Numeric fields arrive as strings.
type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	Duration string `json:"duration"`
	Size     string `json:"size"`
	BitRate  string `json:"bit_rate"`
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
}

// Probe implements Prober.Probe.
func (p *FFprobeProber) Probe(ctx context.Context, path string) (VideoInfo, error) {
	res, err := p.runner.Run(ctx, p.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return VideoInfo{}, fmt.Errorf("probe %s: %w", path, err)
	}
	if res.ExitCode != 0 {
		return VideoInfo{}, fmt.Errorf("%w: exit %d, stderr: %s", ErrFFprobeExecution, res.ExitCode, res.Stderr)
	}

	var out probeOutput
	if err := json.Unmarshal([]byte(res.Stdout), &out); err != nil {
		return VideoInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if out.Format == (probeFormat{}) {
		return VideoInfo{}, ErrNoFormat
	}

	info := VideoInfo{
		Duration: parseFloatField(out.Format.Duration),
		Size:     parseIntField(out.Format.Size),
		Bitrate:  parseIntField(out.Format.BitRate),
	}

	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			info.VideoStreams++
			if info.VideoStreams == 1 {
				info.VideoCodec = s.CodecName
				info.Resolution = fmt.Sprintf("%dx%d", s.Width, s.Height)
				info.FPS = parseFrameRate(s.RFrameRate)
			}
		case "audio":
			info.AudioStreams++
			if info.AudioStreams == 1 {
				info.AudioCodec = s.CodecName
			}
		}
	}

	return info, nil
}

// parseFrameRate converts ffprobe's "num/den" rational into frames per second.
func parseFrameRate(rate string) float64 {
	parts := strings.SplitN(rate, "/", 2)
	num := parseFloatField(parts[0])
	den := 1.0
	if len(parts) == 2 {
		den = parseFloatField(parts[1])
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func parseFloatField(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseIntField(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// Verify interface implementation at compile time.
var _ Prober = (*FFprobeProber)(nil)
