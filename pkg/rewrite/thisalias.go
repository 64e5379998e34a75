package rewrite

import (
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/etsls/pkg/editbuf"
	"github.com/walteh/etsls/pkg/pipeline"
)

const (
	thisAlias       = "$$this"
	thisAliasPrefix = "  "
)

// RewriteThisAlias blanks the `$$` of every `$$this` in the generated text.
// The replacement has the same length, so no later offset moves.
func RewriteThisAlias(rc *pipeline.Context) error {
	text := rc.Buffer.Text()

	var found []int
	for from := 0; ; {
		i := strings.Index(text[from:], thisAlias)
		if i < 0 {
			break
		}
		found = append(found, from+i)
		from += i + len(thisAlias)
	}

	for i := len(found) - 1; i >= 0; i-- {
		at := found[i]
		if err := rc.Buffer.ReplaceRange(at, at+len(thisAliasPrefix), thisAliasPrefix, editbuf.None); err != nil {
			return errors.Errorf("rewriting $$this at %d: %w", at, err)
		}
	}
	return nil
}
