package position

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

/*
UTF16Index converts between UTF-8 byte offsets (what Go strings and the
tree-sitter parser use) and UTF-16 code unit offsets (what the host language
service uses).

Only runes outside ASCII make the two counts drift apart, so the index only
records a checkpoint at every such rune:

	text:    a b é c 😀 d
	bytes:   0 1 2   4 5       9
	utf16:   0 1 2   3 4     6

	checkpoints: {byte: 2, unit: 2, width: 2, units: 1}
	             {byte: 5, unit: 4, width: 4, units: 2}

Between two checkpoints the mapping is a plain shift.
*/
type UTF16Index struct {
	length     int
	checkpoint []utf16Checkpoint
}

type utf16Checkpoint struct {
	byteOffset int
	unitOffset int
	byteWidth  int
	unitWidth  int
}

func NewUTF16Index(text string) *UTF16Index {
	idx := &UTF16Index{length: len(text)}
	unit := 0
	for i := 0; i < len(text); {
		if text[i] < utf8.RuneSelf {
			i++
			unit++
			continue
		}
		r, w := utf8.DecodeRuneInString(text[i:])
		units := utf16.RuneLen(r)
		if units < 0 {
			// invalid runes are replaced by U+FFFD, which is one unit
			units = 1
		}
		idx.checkpoint = append(idx.checkpoint, utf16Checkpoint{
			byteOffset: i,
			unitOffset: unit,
			byteWidth:  w,
			unitWidth:  units,
		})
		i += w
		unit += units
	}
	return idx
}

// Len returns the length of the whole text in UTF-16 code units.
func (me *UTF16Index) Len() int {
	return me.ToUTF16(me.length)
}

// IsASCII reports whether byte and UTF-16 offsets coincide everywhere.
func (me *UTF16Index) IsASCII() bool {
	return len(me.checkpoint) == 0
}

// ToUTF16 converts a byte offset. Offsets inside a multi-byte rune resolve
// to the rune's first code unit.
func (me *UTF16Index) ToUTF16(byteOffset int) int {
	if byteOffset <= 0 {
		return 0
	}
	if byteOffset > me.length {
		byteOffset = me.length
	}
	i := sort.Search(len(me.checkpoint), func(i int) bool {
		return me.checkpoint[i].byteOffset >= byteOffset
	})
	if i == 0 {
		return byteOffset
	}
	prev := me.checkpoint[i-1]
	end := prev.byteOffset + prev.byteWidth
	if byteOffset < end {
		return prev.unitOffset
	}
	return prev.unitOffset + prev.unitWidth + (byteOffset - end)
}

// ToByte converts a UTF-16 offset. Offsets that split a surrogate pair
// resolve to the start of the rune.
func (me *UTF16Index) ToByte(unitOffset int) int {
	if unitOffset <= 0 {
		return 0
	}
	i := sort.Search(len(me.checkpoint), func(i int) bool {
		return me.checkpoint[i].unitOffset >= unitOffset
	})
	var b int
	if i == 0 {
		b = unitOffset
	} else {
		prev := me.checkpoint[i-1]
		end := prev.unitOffset + prev.unitWidth
		if unitOffset < end {
			return prev.byteOffset
		}
		b = prev.byteOffset + prev.byteWidth + (unitOffset - end)
	}
	if b > me.length {
		return me.length
	}
	return b
}

// UTF16Len counts the UTF-16 code units of s.
func UTF16Len(s string) int {
	n := 0
	for i := 0; i < len(s); {
		if s[i] < utf8.RuneSelf {
			n++
			i++
			continue
		}
		r, w := utf8.DecodeRuneInString(s[i:])
		if u := utf16.RuneLen(r); u > 0 {
			n += u
		} else {
			n++
		}
		i += w
	}
	return n
}
