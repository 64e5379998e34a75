// Package documents keeps the open documents of an editor session and the
// virtual code of their current revision.
package documents

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/etsls/pkg/editbuf"
	"github.com/walteh/etsls/pkg/position"
	"github.com/walteh/etsls/pkg/virtualcode"
)

// Document is one revision of an open text document.
type Document struct {
	URI        string
	LanguageID virtualcode.LanguageID
	Version    int32
	Content    string

	Lines          *position.LineIndex
	GeneratedLines *position.LineIndex
	Code           *virtualcode.VirtualCode
}

// Revision is the id of the virtual code built for this revision.
func (me *Document) Revision() string {
	return me.Code.ID
}

// Change is one edit from the editor. A nil Range replaces the whole text.
type Change struct {
	Range *position.Range
	Text  string
}

// Manager handles document operations
type Manager struct {
	store   *sync.Map // map[string]*Document
	factory *virtualcode.Factory
	locale  string
}

type ManagerOpt func(*Manager)

// WithLocale picks the language of hover texts.
func WithLocale(locale string) ManagerOpt {
	return func(m *Manager) {
		m.locale = locale
	}
}

func NewManager(factory *virtualcode.Factory, opts ...ManagerOpt) *Manager {
	if factory == nil {
		factory = virtualcode.NewFactory()
	}
	m := &Manager{
		store:   &sync.Map{},
		factory: factory,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NormalizeURI strips the file scheme so that paths and URIs share keys.
func NormalizeURI(uri string) string {
	uri = strings.TrimPrefix(uri, "file://")
	// remove the file:/private prefix
	uri = strings.TrimPrefix(uri, "file:")
	return uri
}

func (m *Manager) Get(uri string) (*Document, bool) {
	content, ok := m.store.Load(NormalizeURI(uri))
	if !ok {
		return nil, false
	}
	doc, ok := content.(*Document)
	return doc, ok
}

// Open stores the first revision of a document.
func (m *Manager) Open(ctx context.Context, uri string, version int32, text string) (*Document, error) {
	return m.build(ctx, NormalizeURI(uri), version, text)
}

// Change applies edits in order and rebuilds the document's virtual code
// from the resulting full text.
func (m *Manager) Change(ctx context.Context, uri string, version int32, changes []Change) (*Document, error) {
	key := NormalizeURI(uri)
	prev, ok := m.Get(key)
	if !ok {
		return nil, errors.Errorf("document not open: %s", uri)
	}

	text := prev.Content
	for _, c := range changes {
		text = apply(text, c)
	}

	return m.build(ctx, key, version, text)
}

func (m *Manager) Close(uri string) {
	m.store.Delete(NormalizeURI(uri))
}

func apply(text string, c Change) string {
	if c.Range == nil {
		return c.Text
	}
	lines := position.NewLineIndex(text)
	start := lines.OffsetAt(c.Range.Start)
	end := lines.OffsetAt(c.Range.End)
	if end < start {
		start, end = end, start
	}
	return text[:start] + c.Text + text[end:]
}

func (m *Manager) build(ctx context.Context, key string, version int32, text string) (*Document, error) {
	lang := virtualcode.GetLanguageID(key)

	code, err := m.factory.CreateVirtualCode(ctx, key, lang, text)
	if err != nil {
		return nil, errors.Errorf("building revision %d of %s: %w", version, key, err)
	}

	doc := &Document{
		URI:            key,
		LanguageID:     lang,
		Version:        version,
		Content:        text,
		Lines:          position.NewLineIndex(text),
		GeneratedLines: position.NewLineIndex(code.GeneratedText),
		Code:           code,
	}
	m.store.Store(key, doc)

	zerolog.Ctx(ctx).Debug().
		Str("uri", key).
		Int32("version", version).
		Str("revision", code.ID).
		Msg("stored document revision")

	return doc, nil
}

// Resolution is a source place resolved into the virtual code.
type Resolution struct {
	Document *Document
	// SourceOffset and GeneratedOffset are UTF-16 offsets.
	SourceOffset    int
	GeneratedOffset int
	GeneratedPlace  position.Place
}

// Resolve finds where a request at place should run in the virtual code.
// It returns false when the document is unknown, the feature is disabled at
// place, or ctx is cancelled before or after the lookup.
func (m *Manager) Resolve(ctx context.Context, uri string, place position.Place, feature editbuf.Feature) (*Resolution, bool) {
	if ctx.Err() != nil {
		return nil, false
	}

	doc, ok := m.Get(uri)
	if !ok {
		return nil, false
	}

	code := doc.Code
	src := code.SourceIndex().ToUTF16(doc.Lines.OffsetAt(place))
	gen, ok := code.ToGeneratedOffset(src, feature)
	if !ok {
		zerolog.Ctx(ctx).Trace().Str("uri", doc.URI).Str("feature", string(feature)).Int("offset", src).Msg("feature disabled at offset")
		return nil, false
	}

	if ctx.Err() != nil {
		return nil, false
	}

	return &Resolution{
		Document:        doc,
		SourceOffset:    src,
		GeneratedOffset: gen,
		GeneratedPlace:  doc.GeneratedLines.PlaceAt(code.GeneratedIndex().ToByte(gen)),
	}, true
}

// SourcePlace maps a place in the virtual code, such as a diagnostic from
// the host, back to the document.
func (m *Manager) SourcePlace(uri string, generated position.Place) (position.Place, editbuf.Capabilities, bool) {
	doc, ok := m.Get(uri)
	if !ok {
		return position.Place{}, editbuf.Capabilities{}, false
	}

	code := doc.Code
	gen := code.GeneratedIndex().ToUTF16(doc.GeneratedLines.OffsetAt(generated))
	src, caps, ok := code.ToSourceOffset(gen)
	if !ok {
		return position.Place{}, editbuf.Capabilities{}, false
	}
	return doc.Lines.PlaceAt(code.SourceIndex().ToByte(src)), caps, true
}
