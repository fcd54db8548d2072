// Package encode drives the external ffmpeg encode that materialises the
// keep segments into the output file. Filter expressions are handed to
// ffmpeg as script files because they grow with the segment count and would
// otherwise hit argv length limits.
package encode

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/silentcut/silentcut-api/internal/proc"
	"github.com/silentcut/silentcut-api/internal/silence"
)

// maxStderrLen bounds the diagnostic text surfaced on encode failure so the
// error message stays display-friendly.
const maxStderrLen = 500

// Quality constant for the software tier (x264 CRF).
const softwareCRF = "23"

// Tier selects the encoder configuration for a run. The choice is made once
// before invocation; a failed hardware encode is not retried in software.
type Tier struct {
	// UseHardware selects the NVENC encoder instead of libx264.
	UseHardware bool
	// Preset is the encoder speed/quality preset.
	Preset string
}

// EncodeError is returned when the encode process exits non-zero. Stderr is
// truncated to maxStderrLen characters.
type EncodeError struct {
	ExitCode int
	Stderr   string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode failed with exit %d: %s", e.ExitCode, e.Stderr)
}

// Encoder orchestrates a single encode invocation: temp filter scripts,
// encoder tier arguments, and outcome interpretation.
type Encoder struct {
	ffmpegPath string
	runner     proc.Runner
	logger     *slog.Logger
}

// NewEncoder creates a new Encoder.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewEncoder(ffmpegPath string, runner proc.Runner, logger *slog.Logger) *Encoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if runner == nil {
		runner = proc.NewExecRunner()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Encoder{ffmpegPath: ffmpegPath, runner: runner, logger: logger}
}

// Encode re-encodes input into output keeping only the filtered segments.
// Both filter scripts are deleted on every return path; a cleanup failure is
// logged, never escalated.
func (e *Encoder) Encode(ctx context.Context, inputPath, outputPath string, filters silence.FilterPair, tier Tier) error {
	videoScript, err := writeFilterScript("silentcut-vf-*.txt", filters.Video)
	if err != nil {
		return fmt.Errorf("write video filter script: %w", err)
	}
	defer e.removeScript(videoScript)

	audioScript, err := writeFilterScript("silentcut-af-*.txt", filters.Audio)
	if err != nil {
		return fmt.Errorf("write audio filter script: %w", err)
	}
	defer e.removeScript(audioScript)

	args := []string{
		"-y",
		"-i", inputPath,
		"-filter_script:v", videoScript,
		"-filter_script:a", audioScript,
	}
	args = append(args, encoderArgs(tier)...)
	args = append(args, "-c:a", "aac", "-b:a", "128k", outputPath)

	res, err := e.runner.Run(ctx, e.ffmpegPath, args...)
	if err != nil {
		return fmt.Errorf("run encode: %w", err)
	}
	if res.ExitCode != 0 {
		return &EncodeError{
			ExitCode: res.ExitCode,
			Stderr:   truncate(res.Stderr, maxStderrLen),
		}
	}

	return nil
}

// encoderArgs builds the codec arguments for the chosen tier.
func encoderArgs(tier Tier) []string {
	if tier.UseHardware {
		return []string{"-c:v", "h264_nvenc", "-preset", tier.Preset}
	}
	return []string{"-c:v", "libx264", "-preset", tier.Preset, "-crf", softwareCRF}
}

func writeFilterScript(pattern, expr string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name := f.Name()

	if _, err := f.WriteString(expr); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return name, nil
}

func (e *Encoder) removeScript(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		e.logger.Warn("failed to remove filter script",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
