package rewrite

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/etsls/pkg/editbuf"
	"github.com/walteh/etsls/pkg/parser"
	"github.com/walteh/etsls/pkg/pipeline"
	"github.com/walteh/etsls/pkg/scanner"
)

type edit struct {
	at     int
	text   string
	anchor int
	// anchored is false when the anchor follows from at.
	anchored bool
}

// trailingCall is a call directly followed by a block on the same line.
type trailingCall struct {
	start int
	end   int
	brace int
}

var (
	// heads of blocks that hold members instead of statements
	memberBlockHead = regexp.MustCompile(`(?:^|[^\w$.])(?:class|struct|interface|enum)\s`)
	returnTypeHead  = regexp.MustCompile(`\)\s*:`)
	caseHead        = regexp.MustCompile(`^\s*(?:case\b[^:]*|default\s*):\s*$`)

	// words that make `word(...) {` something other than a call
	controlWords = map[string]bool{
		"if": true, "for": true, "while": true, "switch": true, "catch": true, "with": true, "function": true,
	}
	// words in front of a callee that make it a declaration
	declarationWords = map[string]bool{
		"function": true, "new": true, "get": true, "set": true, "async": true, "static": true,
		"extends": true, "implements": true, "public": true, "private": true, "protected": true,
		"abstract": true, "override": true, "constructor": true,
	}
)

// Disambiguate separates a call from the block that follows it:
//
//	Column() {          Column()
//	  Text('a')    ->   {
//	}.width(100)          Text('a')
//	                    }Column().width(100)
//
// Candidates come from the calls of the parse tree and from a bracket scan
// of the text; tree-sitter recovers from `call() {` in ways that drop nested
// calls, so neither source alone finds them all. Only calls inside a
// recorded struct or first-level function body are touched. A call whose
// block cannot be bounded, or whose block starts on a later line, is left
// alone.
func Disambiguate(ctx context.Context, rc *pipeline.Context, parse TreeParser) error {
	if len(rc.Structs) == 0 && len(rc.Functions) == 0 {
		return nil
	}

	logger := zerolog.Ctx(ctx)
	text := rc.Buffer.Text()

	tree, err := parse(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return errors.Errorf("parsing generated text: %w", err)
		}
		logger.Debug().Err(err).Str("path", rc.Path).Msg("parse failed, skipping disambiguation")
		return nil
	}

	brackets := scanner.ScanBrackets(text)

	var edits []edit
	for _, call := range trailingCalls(text, tree, brackets) {
		if !inStatementBlock(text, brackets, call) {
			continue
		}

		src, fromSource := rc.Buffer.ToSource(call.start)
		if !fromSource || !rc.InRecordedBody(src) {
			continue
		}

		end, ok := closingBrace(text, tree, brackets, call.brace)
		if !ok {
			logger.Debug().
				Str("call", text[call.start:call.end]).
				Int("offset", call.start).
				Msg("trailing block does not close inside its enclosing block")
			continue
		}

		edits = append(edits, edit{at: call.end, text: rc.NewLine})

		if dot := scanner.NextNonSpace(text, end+1); dot < len(text) && text[dot] == '.' {
			edits = append(edits, edit{
				at:       dot,
				text:     text[call.start:call.end],
				anchor:   src,
				anchored: true,
			})
		}
	}

	return applyEdits(rc.Buffer, edits)
}

// trailingCalls collects one call per block brace, ordered by brace. Calls
// found by the bracket scan come first; the tree adds calls whose callee
// the scan does not read, such as `a.b<T>()`.
func trailingCalls(text string, tree *parser.Tree, brackets *scanner.Brackets) []trailingCall {
	byBrace := map[int]trailingCall{}

	for _, brace := range brackets.Braces {
		p := scanner.PrevNonSpace(text, brace)
		if p < 0 || text[p] != ')' || hasLineBreak(text[p+1:brace]) {
			continue
		}
		open, ok := brackets.OpenParen(p)
		if !ok {
			continue
		}
		start, ok := calleeStart(text, open)
		if !ok {
			continue
		}
		byBrace[brace] = trailingCall{start: start, end: p + 1, brace: brace}
	}

	for _, call := range parser.CallExpressions(tree.Root) {
		if call.End <= call.Start || call.End > len(text) || text[call.End-1] != ')' {
			continue
		}
		if parser.HasAncestor(call, parser.KindClassHeritage, parser.KindExtendsClause) {
			continue
		}
		if blk := parser.InnermostBlock(tree.Root, call.Start); blk != nil && blk.Kind == parser.KindClassBody {
			continue
		}
		brace := scanner.NextNonSpace(text, call.End)
		if brace >= len(text) || text[brace] != '{' || hasLineBreak(text[call.End:brace]) {
			continue
		}
		if _, seen := byBrace[brace]; seen {
			continue
		}
		first := text[call.Start:scanner.ScanIdent(text, call.Start)]
		if controlWords[first] || precededByDeclarationWord(text, call.Start) {
			continue
		}
		byBrace[brace] = trailingCall{start: call.Start, end: call.End, brace: brace}
	}

	out := make([]trailingCall, 0, len(byBrace))
	for _, c := range byBrace {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].brace < out[j].brace })
	return out
}

// calleeStart reads the callee in front of the '(' at open, an identifier
// optionally reached through member accesses, and returns where it starts.
func calleeStart(text string, open int) (int, bool) {
	end := scanner.PrevNonSpace(text, open) + 1
	if end <= 0 || !scanner.IsIdentPart(text[end-1]) {
		return 0, false
	}
	start := scanner.IdentStart(text, end)
	if !scanner.IsIdentStart(text[start]) || controlWords[text[start:end]] {
		return 0, false
	}

	for start > 0 && text[start-1] == '.' {
		dot := start - 1
		if dot > 0 && text[dot-1] == '?' {
			dot--
		}
		s := scanner.IdentStart(text, dot)
		if s == dot || !scanner.IsIdentStart(text[s]) {
			// the receiver is itself a call or an index
			return 0, false
		}
		start = s
	}

	if precededByDeclarationWord(text, start) {
		return 0, false
	}
	if p := scanner.PrevNonSpace(text, start); p >= 0 && (text[p] == '*' || text[p] == '#') {
		return 0, false
	}
	return start, true
}

func precededByDeclarationWord(text string, start int) bool {
	p := scanner.PrevNonSpace(text, start)
	if p < 0 || !scanner.IsIdentPart(text[p]) {
		return false
	}
	return declarationWords[text[scanner.IdentStart(text, p+1):p+1]]
}

// inStatementBlock reports whether the call sits in a closed block of
// statements, such as a function body, and not in a class body or an
// object literal.
func inStatementBlock(text string, brackets *scanner.Brackets, call trailingCall) bool {
	parent := brackets.Parent(call.brace)
	if parent < 0 || parent >= call.start {
		return false
	}
	if _, ok := brackets.Close(parent); !ok {
		return false
	}

	head := blockHead(text, parent)
	if memberBlockHead.MatchString(head) {
		return false
	}

	p := scanner.PrevNonSpace(text, parent)
	if p < 0 {
		return true
	}
	switch ch := text[p]; {
	case ch == '{' || ch == '}' || ch == ';' || ch == ')':
		return true
	case ch == '>':
		return (p > 0 && text[p-1] == '=') || returnTypeHead.MatchString(head)
	case scanner.IsIdentPart(ch):
		switch text[scanner.IdentStart(text, p+1) : p+1] {
		case "else", "try", "finally", "do":
			return true
		}
		return returnTypeHead.MatchString(head)
	}
	return caseHead.MatchString(head)
}

// blockHead is the text between the previous statement boundary and the
// brace.
func blockHead(text string, brace int) string {
	i := strings.LastIndexAny(text[:brace], ";{}")
	return text[i+1 : brace]
}

func hasLineBreak(s string) bool {
	return strings.ContainsAny(s, "\n\r")
}

// closingBrace finds the '}' of the block opening at brace. The parser's
// block is trusted when the parse needed no recovery; otherwise the braces
// are counted.
func closingBrace(text string, tree *parser.Tree, brackets *scanner.Brackets, brace int) (int, bool) {
	if !tree.HasError {
		if blk := parser.BlockAt(tree.Root, brace); blk != nil && !blk.Missing && blk.End-1 > brace && text[blk.End-1] == '}' {
			return blk.End - 1, true
		}
	}
	return brackets.Close(brace)
}

// applyEdits inserts every edit, highest offset first, so each offset is
// still valid when it is applied. Edits at the same offset keep the order
// they were collected in.
func applyEdits(buf *editbuf.Buffer, edits []edit) error {
	order := make([]int, len(edits))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := edits[order[i]], edits[order[j]]
		if a.at != b.at {
			return a.at > b.at
		}
		return order[i] > order[j]
	})

	for _, i := range order {
		e := edits[i]
		var err error
		if e.anchored {
			err = buf.InsertAnchored(e.at, e.text, e.anchor, editbuf.None)
		} else {
			err = buf.Insert(e.at, e.text, editbuf.None)
		}
		if err != nil {
			return errors.Errorf("inserting %q at %d: %w", e.text, e.at, err)
		}
	}
	return nil
}
