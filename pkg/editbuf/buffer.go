/*
Package editbuf holds the ordered list of segments a generated text is built
from. Every segment is either a slice of the source text or synthesized
text, and every segment carries the capabilities the host may use on it.

	source:    struct Foo { }
	segments:  [synthetic "class " @0] [source 6..14 " Foo { }"]
	generated: class  Foo { }

Rewrite passes edit the buffer with generated offsets of its current state,
so each pass sees the output of the passes before it. Splicing a range only
shifts what follows it.
*/
package editbuf

import (
	"sort"
	"strings"

	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
)

type Kind int

const (
	KindSource Kind = iota
	KindSynthetic
)

func (k Kind) String() string {
	if k == KindSynthetic {
		return "synthetic"
	}
	return "source"
}

// Segment is one run of generated text.
type Segment struct {
	Kind Kind
	// SourceStart and SourceEnd bound a source segment, [start, end).
	SourceStart int
	SourceEnd   int
	// Text and Anchor describe a synthetic segment. The whole text maps to
	// the single source offset Anchor.
	Text   string
	Anchor int
	Caps   Capabilities
}

func SourceSegment(start, end int, caps Capabilities) Segment {
	return Segment{Kind: KindSource, SourceStart: start, SourceEnd: end, Caps: caps}
}

func SyntheticSegment(text string, anchor int, caps Capabilities) Segment {
	return Segment{Kind: KindSynthetic, Text: text, Anchor: anchor, Caps: caps}
}

// Len is the segment's length in generated bytes.
func (s Segment) Len() int {
	if s.Kind == KindSynthetic {
		return len(s.Text)
	}
	return s.SourceEnd - s.SourceStart
}

// Content returns the generated text of the segment.
func (s Segment) Content(source string) string {
	if s.Kind == KindSynthetic {
		return s.Text
	}
	return source[s.SourceStart:s.SourceEnd]
}

// split cuts the segment d bytes in. 0 < d < Len.
func (s Segment) split(d int) (Segment, Segment) {
	left, right := s, s
	if s.Kind == KindSynthetic {
		left.Text = s.Text[:d]
		right.Text = s.Text[d:]
		return left, right
	}
	left.SourceEnd = s.SourceStart + d
	right.SourceStart = s.SourceStart + d
	return left, right
}

type Buffer struct {
	source   string
	segments []Segment
}

// New returns a buffer holding the whole source as one fully capable
// segment.
func New(source string) *Buffer {
	b := NewEmpty(source)
	if len(source) > 0 {
		b.segments = append(b.segments, SourceSegment(0, len(source), Full))
	}
	return b
}

// NewEmpty returns a buffer with no segments, to be filled with Append.
func NewEmpty(source string) *Buffer {
	return &Buffer{source: source}
}

func (b *Buffer) Source() string {
	return b.source
}

// Append adds a segment at the end of the generated text. Empty segments are
// dropped.
func (b *Buffer) Append(seg Segment) error {
	if err := b.checkSegment(seg); err != nil {
		return err
	}
	if seg.Len() == 0 {
		return nil
	}
	b.segments = append(b.segments, seg)
	return nil
}

func (b *Buffer) checkSegment(seg Segment) error {
	switch seg.Kind {
	case KindSource:
		if seg.SourceStart < 0 || seg.SourceEnd > len(b.source) || seg.SourceStart > seg.SourceEnd {
			return errors.Errorf("source segment [%d,%d) outside source of length %d", seg.SourceStart, seg.SourceEnd, len(b.source))
		}
	case KindSynthetic:
		if seg.Anchor < 0 || seg.Anchor > len(b.source) {
			return errors.Errorf("synthetic segment anchor %d outside source of length %d", seg.Anchor, len(b.source))
		}
	default:
		return errors.Errorf("unknown segment kind %d", seg.Kind)
	}
	return nil
}

// Len returns the generated length.
func (b *Buffer) Len() int {
	n := 0
	for _, s := range b.segments {
		n += s.Len()
	}
	return n
}

// Text concatenates the segments.
func (b *Buffer) Text() string {
	var sb strings.Builder
	sb.Grow(b.Len())
	for _, s := range b.segments {
		sb.WriteString(s.Content(b.source))
	}
	return sb.String()
}

// Segments returns a copy of the segment list.
func (b *Buffer) Segments() []Segment {
	out := make([]Segment, len(b.segments))
	copy(out, b.segments)
	return out
}

// ReplaceRange replaces the generated range [start, end) with text. The new
// segment is anchored at the source offset of the first replaced character,
// or of the character following an insertion. An empty text deletes.
func (b *Buffer) ReplaceRange(start, end int, text string, caps Capabilities) error {
	return b.ReplaceRangeAnchored(start, end, text, b.anchorAt(start), caps)
}

// ReplaceRangeAnchored is ReplaceRange with an explicit source anchor for
// the new text.
func (b *Buffer) ReplaceRangeAnchored(start, end int, text string, anchor int, caps Capabilities) error {
	total := b.Len()
	if start < 0 || end > total || start > end {
		return errors.Errorf("replace range [%d,%d) outside generated text of length %d", start, end, total)
	}
	if anchor < 0 || anchor > len(b.source) {
		return errors.Errorf("anchor %d outside source of length %d", anchor, len(b.source))
	}

	i := b.splitAt(start)
	j := b.splitAt(end)

	repl := make([]Segment, 0, len(b.segments)-(j-i)+1)
	repl = append(repl, b.segments[:i]...)
	if text != "" {
		repl = append(repl, SyntheticSegment(text, anchor, caps))
	}
	repl = append(repl, b.segments[j:]...)
	b.segments = repl

	return nil
}

// Insert places text at generated offset at.
func (b *Buffer) Insert(at int, text string, caps Capabilities) error {
	return b.ReplaceRange(at, at, text, caps)
}

// InsertAnchored places text at generated offset at, mapped to the source
// offset anchor.
func (b *Buffer) InsertAnchored(at int, text string, anchor int, caps Capabilities) error {
	return b.ReplaceRangeAnchored(at, at, text, anchor, caps)
}

// Delete removes the generated range [start, end).
func (b *Buffer) Delete(start, end int) error {
	return b.ReplaceRange(start, end, "", None)
}

// splitAt makes off a segment boundary and returns the index of the first
// segment starting at or after it.
func (b *Buffer) splitAt(off int) int {
	cum := 0
	for k, s := range b.segments {
		if off == cum {
			return k
		}
		l := s.Len()
		if off < cum+l {
			left, right := s.split(off - cum)
			b.segments = append(b.segments[:k+1], b.segments[k:]...)
			b.segments[k] = left
			b.segments[k+1] = right
			return k + 1
		}
		cum += l
	}
	return len(b.segments)
}

// anchorAt returns the source offset the generated offset stands for.
func (b *Buffer) anchorAt(off int) int {
	src, _ := b.ToSource(off)
	return src
}

// ToSource maps a generated offset to the source. fromSource is false when
// the offset falls in synthesized text, in which case the anchor is
// returned.
func (b *Buffer) ToSource(gen int) (src int, fromSource bool) {
	cum := 0
	for _, s := range b.segments {
		l := s.Len()
		if gen < cum+l {
			if s.Kind == KindSynthetic {
				return s.Anchor, false
			}
			return s.SourceStart + (gen - cum), true
		}
		cum += l
	}
	if n := len(b.segments); n > 0 {
		last := b.segments[n-1]
		if last.Kind == KindSynthetic {
			return last.Anchor, false
		}
		return last.SourceEnd, true
	}
	return len(b.source), false
}

// ToGenerated maps a source offset to the generated text. An offset that is
// the end of a source segment, but not inside any, maps to that segment's
// generated end. ok is false when the source offset was replaced or removed.
func (b *Buffer) ToGenerated(src int) (gen int, ok bool) {
	cum := 0
	boundary := -1
	for _, s := range b.segments {
		l := s.Len()
		if s.Kind == KindSource {
			if s.SourceStart <= src && src < s.SourceEnd {
				return cum + (src - s.SourceStart), true
			}
			if src == s.SourceEnd && boundary < 0 {
				boundary = cum + l
			}
		}
		cum += l
	}
	if boundary >= 0 {
		return boundary, true
	}
	return 0, false
}

// Validate checks that segments stay inside the source, that synthetic
// segments carry text, and that no source byte is owned by two segments.
func (b *Buffer) Validate() error {
	var errs error
	var spans [][2]int
	for k, s := range b.segments {
		if err := b.checkSegment(s); err != nil {
			errs = multierr.Append(errs, errors.Errorf("segment %d: %w", k, err))
			continue
		}
		if s.Len() == 0 {
			errs = multierr.Append(errs, errors.Errorf("segment %d is empty", k))
		}
		if s.Kind == KindSource {
			spans = append(spans, [2]int{s.SourceStart, s.SourceEnd})
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })
	for k := 1; k < len(spans); k++ {
		if spans[k][0] < spans[k-1][1] {
			errs = multierr.Append(errs, errors.Errorf("source ranges [%d,%d) and [%d,%d) overlap",
				spans[k-1][0], spans[k-1][1], spans[k][0], spans[k][1]))
		}
	}

	return errs
}
