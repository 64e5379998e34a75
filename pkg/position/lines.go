package position

import (
	"sort"
)

// LineIndex translates between byte offsets and zero-based line/character
// places, characters counted in UTF-16 code units.
type LineIndex struct {
	text       string
	lineStarts []int
	units      *UTF16Index
}

func NewLineIndex(text string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{
		text:       text,
		lineStarts: starts,
		units:      NewUTF16Index(text),
	}
}

func (me *LineIndex) LineCount() int {
	return len(me.lineStarts)
}

// PlaceAt returns the place of a byte offset. Offsets past the end clamp to
// the end of the text.
func (me *LineIndex) PlaceAt(offset int) Place {
	if offset < 0 {
		offset = 0
	}
	if offset > len(me.text) {
		offset = len(me.text)
	}
	line := sort.Search(len(me.lineStarts), func(i int) bool {
		return me.lineStarts[i] > offset
	}) - 1
	start := me.lineStarts[line]
	return Place{
		Line:      line,
		Character: me.units.ToUTF16(offset) - me.units.ToUTF16(start),
	}
}

// OffsetAt returns the byte offset of a place. A character past the end of
// its line clamps to the line end (before the line break), and a line past
// the last line clamps to the end of the text.
func (me *LineIndex) OffsetAt(p Place) int {
	if p.Line < 0 {
		return 0
	}
	if p.Line >= len(me.lineStarts) {
		return len(me.text)
	}
	start := me.lineStarts[p.Line]
	end := len(me.text)
	if p.Line+1 < len(me.lineStarts) {
		end = me.lineStarts[p.Line+1] - 1
		if end > start && me.text[end-1] == '\r' {
			end--
		}
	}
	if p.Character <= 0 {
		return start
	}
	off := me.units.ToByte(me.units.ToUTF16(start) + p.Character)
	if off > end {
		return end
	}
	return off
}

// RangeOf converts a byte span into a line/character range.
func (me *LineIndex) RangeOf(s Span) Range {
	return Range{Start: me.PlaceAt(s.Start), End: me.PlaceAt(s.End)}
}

// GetLineAndColumn returns the one-based line and column of a byte offset,
// the column counted in bytes.
func GetLineAndColumn(text string, offset int) (line, col int) {
	if offset > len(text) {
		offset = len(text)
	}
	line = 1
	lastNewline := -1
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			lastNewline = i
		}
	}
	return line, offset - lastNewline
}
