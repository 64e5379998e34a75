/*
Package scanner classifies offsets of ETS/TypeScript text as code, string
literal, line comment or block comment, and matches brackets while skipping
anything that is not code.

	text:   let s = "{"; // }
	        ^^^^^^^^^      code
	                ^^^    string
	                     ^^^^ line comment

A Scanner walks the text once. Asking for increasing offsets only moves it
forward; asking for an earlier offset rescans from zero.
*/
package scanner

// State describes what encloses one character of the text.
type State struct {
	InString       bool
	InLineComment  bool
	InBlockComment bool
}

// InCode reports whether the character is neither inside a literal nor a
// comment.
func (s State) InCode() bool {
	return !s.InString && !s.InLineComment && !s.InBlockComment
}

func (s State) InComment() bool {
	return s.InLineComment || s.InBlockComment
}

type Scanner struct {
	text string
	pos  int

	quote        byte
	escaped      bool
	lineComment  bool
	blockComment bool
	// blockOpen is the offset of the '/' that opened the current block
	// comment, so "/*/" is not read as open-and-close.
	blockOpen  int
	closeAfter bool
}

func New(text string) *Scanner {
	return &Scanner{text: text}
}

// Classify reports the state of the character at offset with a fresh scan.
// Callers asking about many offsets should keep a Scanner instead.
func Classify(text string, offset int) State {
	return New(text).StateAt(offset)
}

// StateAt reports the state of the character at offset: the state after
// every character before it has been consumed. Delimiters that open a
// literal or comment are themselves reported as code.
func (me *Scanner) StateAt(offset int) State {
	if offset < me.pos {
		me.reset()
	}
	if offset > len(me.text) {
		offset = len(me.text)
	}
	for me.pos < offset {
		me.step()
	}
	return me.state()
}

// Pos returns how far the scanner has consumed the text.
func (me *Scanner) Pos() int {
	return me.pos
}

func (me *Scanner) state() State {
	return State{
		InString:       me.quote != 0,
		InLineComment:  me.lineComment,
		InBlockComment: me.blockComment,
	}
}

func (me *Scanner) reset() {
	*me = Scanner{text: me.text}
}

func (me *Scanner) peek(i int) byte {
	if i < len(me.text) {
		return me.text[i]
	}
	return 0
}

func (me *Scanner) step() {
	i := me.pos
	ch := me.text[i]
	me.pos++

	switch {
	case me.closeAfter:
		// the '/' of "*/"
		me.closeAfter = false
		me.blockComment = false

	case me.lineComment:
		if ch == '\n' {
			me.lineComment = false
		}

	case me.blockComment:
		if ch == '*' && me.peek(i+1) == '/' && i > me.blockOpen+1 {
			me.closeAfter = true
		}

	case me.quote != 0:
		switch {
		case me.escaped:
			me.escaped = false
		case ch == '\\':
			me.escaped = true
		case ch == me.quote:
			me.quote = 0
		case ch == '\n' && me.quote != '`':
			// unterminated single line literal, recover at the line end
			me.quote = 0
		}

	default:
		switch ch {
		case '/':
			switch me.peek(i + 1) {
			case '/':
				me.lineComment = true
			case '*':
				me.blockComment = true
				me.blockOpen = i
			}
		case '"', '\'', '`':
			me.quote = ch
		}
	}
}
