package scanner

// MatchBrace returns the offset of the '}' balancing the '{' at open. When
// the text ends before the braces balance it returns len(text).
//
// open must be code; braces inside literals and comments are not counted.
func MatchBrace(text string, open int) int {
	end, _ := MatchPairWithin(text, open, len(text), '{', '}')
	return end
}

// MatchPair is MatchBrace for any bracket pair, e.g. '(' and ')'.
func MatchPair(text string, open int, openCh, closeCh byte) int {
	end, _ := MatchPairWithin(text, open, len(text), openCh, closeCh)
	return end
}

// MatchPairWithin matches the bracket at open without looking at or past
// limit. ok is false when the pair does not balance before limit, in which
// case the returned offset is limit.
func MatchPairWithin(text string, open, limit int, openCh, closeCh byte) (end int, ok bool) {
	if limit > len(text) {
		limit = len(text)
	}
	if open < 0 || open >= limit || text[open] != openCh {
		return limit, false
	}

	sc := New(text[open:limit])
	depth := 0
	for i := open; i < limit; i++ {
		ch := text[i]
		if ch != openCh && ch != closeCh {
			continue
		}
		if !sc.StateAt(i - open).InCode() {
			continue
		}
		if ch == openCh {
			depth++
			continue
		}
		depth--
		if depth == 0 {
			return i, true
		}
	}
	return limit, false
}

// NextNonSpace returns the offset of the first non-whitespace byte at or
// after from, or len(text).
func NextNonSpace(text string, from int) int {
	for i := from; i < len(text); i++ {
		if !IsSpace(text[i]) {
			return i
		}
	}
	return len(text)
}

// PrevNonSpace returns the offset of the last non-whitespace byte before
// from, or -1.
func PrevNonSpace(text string, from int) int {
	for i := from - 1; i >= 0; i-- {
		if !IsSpace(text[i]) {
			return i
		}
	}
	return -1
}

func IsSpace(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func IsIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}

func IsIdentPart(ch byte) bool {
	return IsIdentStart(ch) || (ch >= '0' && ch <= '9')
}

// ScanIdent returns the end of the identifier starting at from, or from if
// there is none.
func ScanIdent(text string, from int) int {
	if from >= len(text) || !IsIdentStart(text[from]) {
		return from
	}
	i := from + 1
	for i < len(text) && IsIdentPart(text[i]) {
		i++
	}
	return i
}
