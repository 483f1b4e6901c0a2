package chunker

import "strings"

// segmentState is the fold accumulator for Segment.
type segmentState struct {
	header  string
	open    bool
	pending []string
	emitted []RawSection
}

func (s segmentState) flush() segmentState {
	if s.open && len(s.pending) > 0 {
		s.emitted = append(s.emitted, RawSection{
			Header:  s.header,
			Content: strings.Join(s.pending, "\n"),
		})
	}
	s.pending = nil
	return s
}

func (s segmentState) step(b Block) segmentState {
	switch {
	case b.Kind == BlockHeading:
		s = s.flush()
		s.header = b.Text
		s.open = true
	case s.open:
		s.pending = append(s.pending, b.Text)
	}
	// content before the first heading has no owner and is dropped
	return s
}

// Segment partitions blocks into sections anchored to the nearest preceding
// heading. Headings of every level are flat boundaries, and a heading with no
// content before the next heading emits nothing.
func Segment(blocks []Block) []RawSection {
	var s segmentState
	for _, b := range blocks {
		s = s.step(b)
	}
	return s.flush().emitted
}
