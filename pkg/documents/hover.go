package documents

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/walteh/etsls/pkg/position"
	"github.com/walteh/etsls/pkg/virtualcode"
)

const thisAlias = "$$this"

// thisAliasHover is keyed by a locale fragment; "" is the fallback.
var thisAliasHover = []struct {
	locale string
	text   string
}{
	{"zh", "$$运算符为系统组件提供TS变量的引用, 使得TS变量和系统组件的内部状态保持同步。详见: https://developer.huawei.com/consumer/cn/doc/harmonyos-guides/arkts-two-way-sync"},
	{"", "$$ operator provides a reference to the TS variable for system components, keeping the TS variable synchronized with the internal state of the system component. See: https://developer.huawei.com/consumer/cn/doc/harmonyos-guides/arkts-two-way-sync"},
}

// Hover is markdown shown over a range of the document.
type Hover struct {
	Contents string
	Range    position.Range
}

// HoverText picks the hover text for a locale such as "zh-cn".
func HoverText(locale string) string {
	locale = strings.ToLower(locale)
	for _, h := range thisAliasHover {
		if h.locale != "" && strings.Contains(locale, h.locale) {
			return h.text
		}
	}
	return thisAliasHover[len(thisAliasHover)-1].text
}

// Hover explains the `$$this` under place. Both ends of the alias count as
// under it. It returns false for documents that are not ETS, when nothing
// is found, or when ctx is cancelled at any point of the lookup.
func (m *Manager) Hover(ctx context.Context, uri string, place position.Place) (*Hover, bool) {
	if ctx.Err() != nil {
		return nil, false
	}

	doc, ok := m.Get(uri)
	if !ok || doc.Code == nil || doc.Code.LanguageID != virtualcode.LanguageETS {
		return nil, false
	}

	if ctx.Err() != nil {
		return nil, false
	}

	offset := doc.Lines.OffsetAt(place)
	text := doc.Content
	for from := 0; ; {
		if ctx.Err() != nil {
			return nil, false
		}
		i := strings.Index(text[from:], thisAlias)
		if i < 0 {
			return nil, false
		}
		start := from + i
		end := start + len(thisAlias)
		if start <= offset && offset <= end {
			zerolog.Ctx(ctx).Trace().Str("uri", doc.URI).Int("offset", start).Msg("hovering $$this")
			return &Hover{
				Contents: HoverText(m.locale),
				Range:    doc.Lines.RangeOf(position.NewSpan(start, end)),
			}, true
		}
		if start > offset {
			return nil, false
		}
		from = end
	}
}
