package extract

import (
	"regexp"

	"github.com/walteh/etsls/pkg/position"
	"github.com/walteh/etsls/pkg/scanner"
)

// StructDescriptor locates one `struct` declaration. All offsets are byte
// offsets into the text it was extracted from.
//
//	export struct Foo { build() {} }
//	^      ^     ^   ^               ^
//	Start  Keyword Name BodyStart    BodyEnd == End
//
// BodyEnd is exclusive: the byte before it is the closing '}', unless the
// body never closes, in which case BodyEnd is the length of the text.
type StructDescriptor struct {
	Start      int
	End        int
	Keyword    position.Span
	Name       position.Span
	BodyStart  int
	BodyEnd    int
	IsExported bool
	// Closed is false when the text ended before the body balanced.
	Closed bool
}

func (d StructDescriptor) NameText(text string) string {
	return d.Name.Text(text)
}

// Body is the span of the braces and everything between them.
func (d StructDescriptor) Body() position.Span {
	return position.Span{Start: d.BodyStart, End: d.BodyEnd}
}

var structRegex = regexp.MustCompile(`\b(?:(export)\s+)?(?:(declare)\s+)?(?:(abstract)\s+)?(struct)\s+([A-Za-z_$][\w$]*)\s*\{`)

// Structs returns every struct declaration in source order. A struct's body
// is not searched for further structs.
func Structs(text string) []StructDescriptor {
	var out []StructDescriptor
	sc := scanner.New(text)

	for pos := 0; pos < len(text); {
		m := structRegex.FindStringSubmatchIndex(text[pos:])
		if m == nil {
			break
		}
		for i := range m {
			if m[i] >= 0 {
				m[i] += pos
			}
		}

		start := m[0]
		keyword := m[8]
		open := m[1] - 1

		if !isDeclarationStart(text, start) || !sc.StateAt(start).InCode() || !sc.StateAt(keyword).InCode() {
			pos = start + 1
			continue
		}

		d := StructDescriptor{
			Start:      start,
			Keyword:    position.Span{Start: m[8], End: m[9]},
			Name:       position.Span{Start: m[10], End: m[11]},
			BodyStart:  open,
			IsExported: m[2] >= 0,
		}

		end := scanner.MatchBrace(text, open)
		if end < len(text) {
			d.BodyEnd = end + 1
			d.Closed = true
		} else {
			d.BodyEnd = len(text)
		}
		d.End = d.BodyEnd

		out = append(out, d)
		pos = d.End
	}

	return out
}

// isDeclarationStart rejects matches that continue an identifier or follow
// a member access. A spread ("...struct") is still accepted.
func isDeclarationStart(text string, start int) bool {
	if start == 0 {
		return true
	}
	prev := text[start-1]
	if scanner.IsIdentPart(prev) {
		return false
	}
	if prev == '.' {
		return start >= 3 && text[start-3:start] == "..."
	}
	return true
}
