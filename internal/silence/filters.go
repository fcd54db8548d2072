package silence

import (
	"fmt"
	"strings"
)

// FilterPair holds the two filter-graph expressions driving segment
// selection: one for the video stream, one for the audio stream.
type FilterPair struct {
	Video string
	Audio string
}

// CompileFilters renders keep segments into selection filter expressions.
// Each segment becomes a between(t,start,end) predicate; predicates are
// joined with + (logical OR in ffmpeg's expression language). Timestamps are
// rendered with millisecond precision to keep boundaries unambiguous. There
// is no cap on segment count: expressions can grow arbitrarily long, which is
// why the encoder passes them as filter script files rather than argv.
func CompileFilters(segs []Segment) FilterPair {
	preds := make([]string, len(segs))
	for i, s := range segs {
		preds[i] = fmt.Sprintf("between(t,%.3f,%.3f)", s.Start, s.End)
	}
	sel := strings.Join(preds, "+")

	return FilterPair{
		Video: fmt.Sprintf("select='%s',setpts=N/FRAME_RATE/TB", sel),
		Audio: fmt.Sprintf("aselect='%s',asetpts=N/SR/TB", sel),
	}
}
