package scanner

// Brackets records how the braces and parentheses in the code of a text
// pair up, from one forward scan.
//
//	f() { g() { } }
//	 ^^ ^  ^^ ^ ^ ^
//	 |  |     |   close of the outer brace
//	 |  |     parent is the outer brace
//	 ')' pairs with '('
type Brackets struct {
	// Braces lists every '{' in code, in text order.
	Braces []int

	closeOf  map[int]int
	parentOf map[int]int
	openOf   map[int]int
}

func ScanBrackets(text string) *Brackets {
	b := &Brackets{
		closeOf:  map[int]int{},
		parentOf: map[int]int{},
		openOf:   map[int]int{},
	}

	sc := New(text)
	var braces, parens []int

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch != '{' && ch != '}' && ch != '(' && ch != ')' {
			continue
		}
		if !sc.StateAt(i).InCode() {
			continue
		}

		switch ch {
		case '{':
			parent := -1
			if n := len(braces); n > 0 {
				parent = braces[n-1]
			}
			b.parentOf[i] = parent
			b.Braces = append(b.Braces, i)
			braces = append(braces, i)
		case '}':
			if n := len(braces); n > 0 {
				b.closeOf[braces[n-1]] = i
				braces = braces[:n-1]
			}
		case '(':
			parens = append(parens, i)
		case ')':
			if n := len(parens); n > 0 {
				b.openOf[i] = parens[n-1]
				parens = parens[:n-1]
			}
		}
	}

	return b
}

// Close returns the '}' balancing the '{' at open.
func (b *Brackets) Close(open int) (int, bool) {
	end, ok := b.closeOf[open]
	return end, ok
}

// Parent returns the '{' enclosing the one at open, or -1 at the top level.
func (b *Brackets) Parent(open int) int {
	if p, ok := b.parentOf[open]; ok {
		return p
	}
	return -1
}

// OpenParen returns the '(' balanced by the ')' at close.
func (b *Brackets) OpenParen(close int) (int, bool) {
	open, ok := b.openOf[close]
	return open, ok
}

// IdentStart returns the start of the identifier that ends at end, or end
// when the byte before end is not part of one.
func IdentStart(text string, end int) int {
	i := end
	for i > 0 && IsIdentPart(text[i-1]) {
		i--
	}
	return i
}
