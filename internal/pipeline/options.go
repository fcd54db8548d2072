// Package pipeline sequences silence detection, segment computation, and
// encoding for a single input/output pair, exposing cancellation and
// producing a structured result.
package pipeline

// Presets is the fixed ordered set of encoder speed/quality presets, from
// fastest to slowest.
var Presets = []string{
	"ultrafast",
	"superfast",
	"veryfast",
	"faster",
	"fast",
	"medium",
	"slow",
	"slower",
	"veryslow",
}

// ValidPreset reports whether p is a known quality preset.
func ValidPreset(p string) bool {
	for _, known := range Presets {
		if p == known {
			return true
		}
	}
	return false
}

// Options configures a single pipeline run. Options are immutable once
// passed to Process; validation happens at the boundary that builds them.
type Options struct {
	// NoiseFloorDB is the silencedetect threshold in dBFS.
	NoiseFloorDB float64 `json:"noise_floor_db"`
	// MinSilenceSec is the minimum silence duration in seconds.
	MinSilenceSec float64 `json:"min_silence_sec"`
	// PreferHardware requests the NVENC tier when available.
	PreferHardware bool `json:"prefer_hardware"`
	// QualityPreset is one of Presets.
	QualityPreset string `json:"quality_preset"`
}

// DefaultOptions returns the default run options.
func DefaultOptions() Options {
	return Options{
		NoiseFloorDB:   -35.0,
		MinSilenceSec:  0.5,
		PreferHardware: true,
		QualityPreset:  "medium",
	}
}
