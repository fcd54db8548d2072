package silence

// Segment is a half-open interval of the original timeline to retain.
// Invariant: 0 <= Start < End.
type Segment struct {
	Start float64
	End   float64
}

// Length returns the segment duration in seconds.
func (s Segment) Length() float64 {
	return s.End - s.Start
}

// TotalLength returns the summed duration of all segments.
func TotalLength(segs []Segment) float64 {
	var total float64
	for _, s := range segs {
		total += s.Length()
	}
	return total
}

// SegmentsFromSilence converts an alternating silence-start/silence-end
// timestamp stream plus the total duration into the ordered list of keep
// segments. An empty event list yields one segment covering the whole file.
// An unmatched trailing start (input ends while still silent) is ignored:
// no segment is cut for it, the walk only consumes complete pairs. An
// entirely silent file yields an empty list, which callers must treat as
// "nothing to keep".
func SegmentsFromSilence(events []float64, totalDuration float64) []Segment {
	if len(events) == 0 {
		return []Segment{{Start: 0, End: totalDuration}}
	}

	var segs []Segment
	cur := 0.0
	for i := 0; i+1 < len(events); i += 2 {
		start, end := events[i], events[i+1]
		if start > cur {
			segs = append(segs, Segment{Start: cur, End: start})
		}
		cur = end
	}

	if cur < totalDuration {
		segs = append(segs, Segment{Start: cur, End: totalDuration})
	}
	return segs
}
