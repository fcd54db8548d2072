// Package silence implements the core silence-to-segment transformation:
// parsing ffmpeg silencedetect output into timestamps, converting timestamps
// into keep segments, and compiling segments into filter-graph expressions.
package silence

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

// Markers emitted by ffmpeg's silencedetect filter on stderr. Lines look like:
//
//	[silencedetect @ 0x55d1c3a2e880] silence_start: 10.2345
//	[silencedetect @ 0x55d1c3a2e880] silence_end: 12.5 | silence_duration: 2.2655
var (
	startRe = regexp.MustCompile(`silence_start:\s*(-?[\d.]+)`)
	endRe   = regexp.MustCompile(`silence_end:\s*(-?[\d.]+)`)
)

// ParseDetection extracts alternating silence-start/silence-end timestamps
// from silencedetect diagnostic output. Lines matching neither marker are
// ignored; a matched marker with a malformed numeric payload skips that line
// only. Emission order is trusted, no reordering is performed. The result may
// be empty (no silence) or end on an unmatched start (input ends silent).
func ParseDetection(output string) []float64 {
	var events []float64

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()

		if m := startRe.FindStringSubmatch(line); len(m) > 1 {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				events = append(events, v)
			}
			continue
		}
		if m := endRe.FindStringSubmatch(line); len(m) > 1 {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				events = append(events, v)
			}
		}
	}

	return events
}
