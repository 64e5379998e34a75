package position

import (
	"fmt"
)

// Place is a zero-based line and character pair. Character counts UTF-16
// code units, which is what editors speak.
type Place struct {
	Line      int
	Character int
}

type Range struct {
	Start Place
	End   Place
}

// Span is a half-open byte range [Start, End) into one text.
type Span struct {
	Start int
	End   int
}

func NewSpan(start, end int) Span {
	return Span{Start: start, End: end}
}

func (s Span) Len() int {
	return s.End - s.Start
}

func (s Span) IsEmpty() bool {
	return s.Start == s.End
}

func (s Span) IsValid() bool {
	return s.Start >= 0 && s.End >= s.Start
}

// Contains reports whether off falls inside [Start, End).
func (s Span) Contains(off int) bool {
	return s.Start <= off && off < s.End
}

func (s Span) ContainsSpan(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// Overlaps reports whether the spans share at least one offset. Spans that
// only touch at a boundary do not overlap.
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

func (s Span) Text(text string) string {
	if !s.IsValid() || s.End > len(text) {
		return ""
	}
	return text[s.Start:s.End]
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// RawPosition is a piece of text anchored at a byte offset.
type RawPosition struct {
	// Offset is the byte offset in the source text
	Offset int
	// Text is the actual text at this position
	Text string
}

func NewBasicPosition(text string, offset int) RawPosition {
	return RawPosition{Text: text, Offset: offset}
}

// ID returns a unique identifier for this position based on offset and text
func (p RawPosition) ID() string {
	return fmt.Sprintf("%s@%d", p.Text, p.Offset)
}

func (p RawPosition) Length() int {
	return len(p.Text)
}

func (p RawPosition) Span() Span {
	return Span{Start: p.Offset, End: p.Offset + p.Length()}
}

func (p RawPosition) String() string {
	return p.ID()
}
