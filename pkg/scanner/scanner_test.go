package scanner_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/walteh/etsls/pkg/scanner"
)

func TestClassify(t *testing.T) {
	code := scanner.State{}
	str := scanner.State{InString: true}
	line := scanner.State{InLineComment: true}
	block := scanner.State{InBlockComment: true}

	tests := []struct {
		name   string
		text   string
		marker string
		nth    int
		want   scanner.State
	}{
		{name: "plain_code", text: "let a = 1;", marker: "a", want: code},
		{name: "double_quoted", text: `let a = "x{y";`, marker: "{", want: str},
		{name: "opening_quote_is_code", text: `let a = "x";`, marker: `"`, want: code},
		{name: "single_quoted", text: `f('}')`, marker: "}", want: str},
		{name: "template_literal_spans_lines", text: "let a = `\n{\n`;", marker: "{", want: str},
		{name: "escaped_quote_stays_in_string", text: `"a\"{"`, marker: "{", want: str},
		{name: "even_backslashes_close_string", text: `"a\\" {`, marker: "{", want: code},
		{name: "line_comment", text: "a // { b\nc", marker: "{", want: line},
		{name: "line_comment_ends_at_newline", text: "a // x\n{", marker: "{", want: code},
		{name: "comment_start_is_code", text: "a // x", marker: "/", want: code},
		{name: "second_slash_is_comment", text: "a // x", marker: "/", nth: 1, want: line},
		{name: "block_comment", text: "a /* { */ b", marker: "{", want: block},
		{name: "block_comment_closed", text: "a /* x */ {", marker: "{", want: code},
		{name: "closing_slash_is_comment", text: "a /* x */ b", marker: "/", nth: 1, want: block},
		{name: "slash_star_slash_is_not_closed", text: "/*/ { */", marker: "{", want: block},
		{name: "comment_marker_in_string", text: `"//" {`, marker: "{", want: code},
		{name: "quote_in_comment", text: "// \"\n{", marker: "{", want: code},
		{name: "unterminated_string_recovers_at_newline", text: "'abc\n{", marker: "{", want: code},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			off := nthIndex(tt.text, tt.marker, tt.nth)
			require.GreaterOrEqual(t, off, 0)
			assert.Equal(t, tt.want, scanner.Classify(tt.text, off))
		})
	}
}

func TestScannerCarriesStateForward(t *testing.T) {
	text := `a "b" /* c */ d // e` + "\nf"
	sc := scanner.New(text)

	for i := 0; i <= len(text); i++ {
		got := sc.StateAt(i)
		require.Equal(t, scanner.Classify(text, i), got, "offset %d", i)
		require.Equal(t, i, sc.Pos())
	}

	// going backwards rescans
	assert.True(t, sc.StateAt(3).InString)
	assert.True(t, sc.StateAt(0).InCode())
}

func TestMatchBrace(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty_body", text: "{}", want: 1},
		{name: "nested", text: "{ a { b } c }", want: 12},
		{name: "brace_in_string", text: `{ "}" }`, want: 6},
		{name: "brace_in_comment", text: "{ // }\n}", want: 7},
		{name: "brace_in_template", text: "{ `}` }", want: 6},
		{name: "unbalanced", text: "{ {", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scanner.MatchBrace(tt.text, 0))
		})
	}
}

func TestMatchPairWithin(t *testing.T) {
	text := "{ foo() { bar } }"

	end, ok := scanner.MatchPairWithin(text, 8, len(text), '{', '}')
	require.True(t, ok)
	assert.Equal(t, 14, end)

	end, ok = scanner.MatchPairWithin(text, 8, 12, '{', '}')
	assert.False(t, ok)
	assert.Equal(t, 12, end)

	assert.Equal(t, 6, scanner.MatchPair(text, 5, '(', ')'))

	_, ok = scanner.MatchPairWithin(text, 1, len(text), '{', '}')
	assert.False(t, ok, "not an opening brace")
}

func TestTokenHelpers(t *testing.T) {
	assert.Equal(t, 3, scanner.NextNonSpace("  \n}", 0))
	assert.Equal(t, 4, scanner.NextNonSpace("a   ", 1))
	assert.Equal(t, 0, scanner.PrevNonSpace("a  ", 3))
	assert.Equal(t, -1, scanner.PrevNonSpace("   ", 3))
	assert.Equal(t, 5, scanner.ScanIdent("$$thi s", 0))
	assert.Equal(t, 0, scanner.ScanIdent("1abc", 0))
}

func nthIndex(s, sub string, n int) int {
	off := 0
	for i := 0; ; i++ {
		idx := strings.Index(s[off:], sub)
		if idx < 0 {
			return -1
		}
		if i == n {
			return off + idx
		}
		off += idx + len(sub)
	}
}

func TestMatchBraceBalances(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		parts := rapid.SliceOf(rapid.SampledFrom([]string{"{", "}", "a", " ", ";"})).Draw(t, "parts")
		text := "{" + strings.Join(parts, "")

		end := scanner.MatchBrace(text, 0)

		depth := 0
		for i := 0; i < len(text) && i <= end; i++ {
			switch text[i] {
			case '{':
				depth++
			case '}':
				depth--
			}
			if i < end && depth <= 0 {
				t.Fatalf("braces balanced at %d before the match at %d in %q", i, end, text)
			}
		}

		if end == len(text) {
			return
		}
		if text[end] != '}' || depth != 0 {
			t.Fatalf("match at %d does not close the brace in %q", end, text)
		}
	})
}

func TestScanBrackets(t *testing.T) {
	text := "f() { g('}') { } /* { */ }\nh("
	b := scanner.ScanBrackets(text)

	require.Equal(t, []int{4, 13}, b.Braces)

	end, ok := b.Close(4)
	require.True(t, ok)
	assert.Equal(t, 25, end)

	end, ok = b.Close(13)
	require.True(t, ok)
	assert.Equal(t, 15, end)

	assert.Equal(t, -1, b.Parent(4))
	assert.Equal(t, 4, b.Parent(13))
	assert.Equal(t, -1, b.Parent(99))

	open, ok := b.OpenParen(11)
	require.True(t, ok)
	assert.Equal(t, 7, open)

	_, ok = b.OpenParen(len(text) - 1)
	assert.False(t, ok, "an unclosed paren pairs with nothing")
}

func TestIdentStart(t *testing.T) {
	assert.Equal(t, 4, scanner.IdentStart("a.b $$this", 10))
	assert.Equal(t, 2, scanner.IdentStart("a.b", 3))
	assert.Equal(t, 3, scanner.IdentStart("a.(", 3))
}
