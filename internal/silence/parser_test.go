package silence

import (
	"reflect"
	"testing"
)

// detectionFixture mimics real ffmpeg silencedetect stderr output, including
// banner noise and the silence_duration suffix on end lines.
const detectionFixture = `ffmpeg version 6.1 Copyright (c) 2000-2023 the FFmpeg developers
Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'input.mp4':
  Duration: 00:01:40.00, start: 0.000000, bitrate: 834 kb/s
Output #0, null, to 'pipe:':
[silencedetect @ 0x55d1c3a2e880] silence_start: 10
[silencedetect @ 0x55d1c3a2e880] silence_end: 12.5 | silence_duration: 2.5
[silencedetect @ 0x55d1c3a2e880] silence_start: 50.25
[silencedetect @ 0x55d1c3a2e880] silence_end: 55.75 | silence_duration: 5.5
size=N/A time=00:01:40.00 bitrate=N/A speed= 198x
`

func TestParseDetection(t *testing.T) {
	got := ParseDetection(detectionFixture)
	want := []float64{10, 12.5, 50.25, 55.75}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseDetection() = %v, want %v", got, want)
	}
}

func TestParseDetection_NoMarkers(t *testing.T) {
	out := "ffmpeg version 6.1\nDuration: 00:00:30.00\nsize=N/A\n"
	if got := ParseDetection(out); len(got) != 0 {
		t.Errorf("expected no events, got %v", got)
	}
}

func TestParseDetection_TrailingStart(t *testing.T) {
	out := `[silencedetect @ 0x1] silence_start: 5.0
[silencedetect @ 0x1] silence_end: 7.0 | silence_duration: 2.0
[silencedetect @ 0x1] silence_start: 90.0
`
	got := ParseDetection(out)
	want := []float64{5, 7, 90}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseDetection() = %v, want %v", got, want)
	}
}

func TestParseDetection_MalformedPayloadSkipsLine(t *testing.T) {
	out := `[silencedetect @ 0x1] silence_start: 1.5
[silencedetect @ 0x1] silence_end: 2.5.7
[silencedetect @ 0x1] silence_start: 4.0
[silencedetect @ 0x1] silence_end: 6.0
`
	got := ParseDetection(out)
	want := []float64{1.5, 4, 6}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseDetection() = %v, want %v", got, want)
	}
}

func TestParseDetection_Empty(t *testing.T) {
	if got := ParseDetection(""); len(got) != 0 {
		t.Errorf("expected no events for empty input, got %v", got)
	}
}
