package extract

import (
	"regexp"

	"github.com/walteh/etsls/pkg/position"
	"github.com/walteh/etsls/pkg/scanner"
)

// FunctionDescriptor locates a function declared at the top level of a
// file, together with the decorators and modifiers written in front of it.
//
//	@Builder export function Card(title: string) { Text(title) }
//	^                ^        ^                  ^               ^
//	Start            Keyword  Name               BodyStart       BodyEnd
type FunctionDescriptor struct {
	Start      int
	Keyword    position.Span
	Name       position.Span
	BodyStart  int
	BodyEnd    int
	Decorators []Decorator
}

// HasBody is false for overloads and ambient declarations.
func (d FunctionDescriptor) HasBody() bool {
	return d.BodyStart >= 0
}

// Prefix is the span holding decorators and modifiers.
func (d FunctionDescriptor) Prefix() position.Span {
	return position.Span{Start: d.Start, End: d.Keyword.Start}
}

func (d FunctionDescriptor) Body() position.Span {
	if !d.HasBody() {
		return position.Span{Start: d.Keyword.End, End: d.Keyword.End}
	}
	return position.Span{Start: d.BodyStart, End: d.BodyEnd}
}

// Decorator is one `@Name` or `@Name(args)` token.
type Decorator struct {
	Span     position.Span
	Name     string
	NameSpan position.Span
	// Args is the text between the parentheses; ArgsSpan is empty with
	// Start == -1 when the decorator has no argument list.
	Args     string
	ArgsSpan position.Span
}

func (d Decorator) HasArgs() bool {
	return d.ArgsSpan.Start >= 0
}

var functionModifiers = map[string]bool{
	"export":  true,
	"default": true,
	"async":   true,
	"declare": true,
}

// FirstLevelFunctions returns the function declarations at brace depth zero,
// in source order.
func FirstLevelFunctions(text string) []FunctionDescriptor {
	var out []FunctionDescriptor

	sc := scanner.New(text)
	depth := 0
	declStart := -1

	for i := 0; i < len(text); {
		if !sc.StateAt(i).InCode() {
			i++
			continue
		}
		ch := text[i]

		if depth > 0 {
			switch ch {
			case '{':
				depth++
			case '}':
				depth--
			}
			i++
			continue
		}

		switch {
		case scanner.IsSpace(ch):
			i++

		case ch == '/' && i+1 < len(text) && (text[i+1] == '/' || text[i+1] == '*'):
			// comments between decorators keep the declaration going
			i++

		case ch == '@' && i+1 < len(text) && scanner.IsIdentStart(text[i+1]):
			if declStart < 0 {
				declStart = i
			}
			i = skipDecorator(text, i)

		case scanner.IsIdentStart(ch) && (i == 0 || !scanner.IsIdentPart(text[i-1])):
			end := scanner.ScanIdent(text, i)
			word := text[i:end]
			switch {
			case functionModifiers[word]:
				if declStart < 0 {
					declStart = i
				}
				i = end
			case word == "function" && !afterMemberAccess(text, i) && (declStart >= 0 || !inExpression(text, i)):
				start := declStart
				if start < 0 {
					start = i
				}
				d := parseFunction(text, sc, start, position.Span{Start: i, End: end})
				d.Decorators = Decorators(text, d.Prefix())
				out = append(out, d)
				declStart = -1
				i = d.Body().End
			default:
				declStart = -1
				i = end
			}

		case ch == '{':
			depth++
			declStart = -1
			i++

		default:
			declStart = -1
			i++
		}
	}

	return out
}

func afterMemberAccess(text string, i int) bool {
	p := scanner.PrevNonSpace(text, i)
	return p >= 0 && text[p] == '.' && !(p >= 2 && text[p-2:p+1] == "...")
}

// inExpression reports whether the token at i continues an expression, as
// in `const f = function () {}`.
func inExpression(text string, i int) bool {
	p := scanner.PrevNonSpace(text, i)
	if p < 0 {
		return false
	}
	switch text[p] {
	case '=', '(', ',', ':', '?', '!', '&', '|', '+', '-', '*', '<', '>', '[':
		return true
	}
	return false
}

func skipDecorator(text string, at int) int {
	i := scanner.ScanIdent(text, at+1)
	for i+1 < len(text) && text[i] == '.' && scanner.IsIdentStart(text[i+1]) {
		i = scanner.ScanIdent(text, i+1)
	}
	j := scanner.NextNonSpace(text, i)
	if j < len(text) && text[j] == '(' {
		end := scanner.MatchPair(text, j, '(', ')')
		if end >= len(text) {
			return len(text)
		}
		return end + 1
	}
	return i
}

func parseFunction(text string, sc *scanner.Scanner, start int, keyword position.Span) FunctionDescriptor {
	d := FunctionDescriptor{
		Start:     start,
		Keyword:   keyword,
		BodyStart: -1,
		BodyEnd:   -1,
	}

	i := scanner.NextNonSpace(text, keyword.End)
	if i < len(text) && text[i] == '*' {
		i = scanner.NextNonSpace(text, i+1)
	}
	nameEnd := scanner.ScanIdent(text, i)
	d.Name = position.Span{Start: i, End: nameEnd}

	i = scanner.NextNonSpace(text, nameEnd)
	if i < len(text) && text[i] == '<' {
		i = scanner.NextNonSpace(text, scanner.MatchPair(text, i, '<', '>')+1)
	}
	if i >= len(text) || text[i] != '(' {
		return d
	}
	paramsEnd := scanner.MatchPair(text, i, '(', ')')
	if paramsEnd >= len(text) {
		return d
	}

	open := -1
	for j := paramsEnd + 1; j < len(text); j++ {
		if !sc.StateAt(j).InCode() {
			continue
		}
		if text[j] == ';' {
			return d
		}
		if text[j] == '{' {
			open = j
			break
		}
	}
	if open < 0 {
		return d
	}

	// `): { a: number } {` - the first brace is the return type
	if p := scanner.PrevNonSpace(text, open); p >= 0 && text[p] == ':' {
		typeEnd := scanner.MatchBrace(text, open)
		if next := scanner.NextNonSpace(text, typeEnd+1); next < len(text) && text[next] == '{' {
			open = next
		}
	}

	d.BodyStart = open
	if end := scanner.MatchBrace(text, open); end < len(text) {
		d.BodyEnd = end + 1
	} else {
		d.BodyEnd = len(text)
	}
	return d
}

var decoratorRegex = regexp.MustCompile(`@([A-Za-z_$][\w$]*(?:\.[A-Za-z_$][\w$]*)*)(?:\s*\(([^()]*(?:\([^()]*\)[^()]*)*)\))?`)

// Decorators returns the decorator tokens inside span, skipping matches
// that sit inside comments or string literals. span must start in code.
func Decorators(text string, span position.Span) []Decorator {
	if !span.IsValid() || span.End > len(text) || span.IsEmpty() {
		return nil
	}
	prefix := text[span.Start:span.End]
	sc := scanner.New(prefix)

	var out []Decorator
	for _, m := range decoratorRegex.FindAllStringSubmatchIndex(prefix, -1) {
		if !sc.StateAt(m[0]).InCode() {
			continue
		}
		if m[0] > 0 && scanner.IsIdentPart(prefix[m[0]-1]) {
			continue
		}
		base := span.Start
		d := Decorator{
			Span:     position.Span{Start: base + m[0], End: base + m[1]},
			Name:     prefix[m[2]:m[3]],
			NameSpan: position.Span{Start: base + m[2], End: base + m[3]},
			ArgsSpan: position.Span{Start: -1, End: -1},
		}
		if m[4] >= 0 {
			d.Args = prefix[m[4]:m[5]]
			d.ArgsSpan = position.Span{Start: base + m[4], End: base + m[5]}
		}
		out = append(out, d)
	}
	return out
}
