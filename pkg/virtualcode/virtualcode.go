/*
Package virtualcode builds the TypeScript text a host language service sees
in place of an ETS file, and the mappings back to the file.

	source --pipeline--> editbuf.Buffer --Assemble--> VirtualCode
	                                                   |- GeneratedText
	                                                   '- Mappings (UTF-16)

A VirtualCode belongs to one revision of one file. A new revision gets a new
VirtualCode; nothing is carried over.
*/
package virtualcode

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/etsls/pkg/editbuf"
	"github.com/walteh/etsls/pkg/pipeline"
	"github.com/walteh/etsls/pkg/position"
	"github.com/walteh/etsls/pkg/rewrite"
)

type LanguageID string

const (
	LanguageETS        LanguageID = "ets"
	LanguageTypeScript LanguageID = "typescript"
	LanguageNone       LanguageID = ""
)

// GetLanguageID routes a path by its extension. Only ETS files are
// rewritten; TypeScript files are recognized but passed through.
func GetLanguageID(path string) LanguageID {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(base, ".ets"):
		return LanguageETS
	case strings.HasSuffix(base, ".ts"),
		strings.HasSuffix(base, ".mts"),
		strings.HasSuffix(base, ".cts"),
		strings.HasSuffix(base, ".tsx"):
		return LanguageTypeScript
	}
	return LanguageNone
}

// ScriptKind mirrors the host's script kinds.
type ScriptKind int

const (
	ScriptKindUnknown ScriptKind = iota
	ScriptKindJS
	ScriptKindJSX
	ScriptKindTS
	ScriptKindTSX
)

// ServiceScript tells the host how to parse a VirtualCode.
type ServiceScript struct {
	Code      *VirtualCode `json:"-"`
	Extension string       `json:"extension"`
	Kind      ScriptKind   `json:"scriptKind"`
}

type VirtualCode struct {
	// ID identifies the revision the code was built from.
	ID         string     `json:"id"`
	Path       string     `json:"path"`
	LanguageID LanguageID `json:"languageId"`

	Source        string          `json:"-"`
	GeneratedText string          `json:"generatedText"`
	Mappings      []MappingRecord `json:"mappings"`

	// SourceLength and GeneratedLength are in UTF-16 code units.
	SourceLength    int `json:"sourceLength"`
	GeneratedLength int `json:"generatedLength"`

	// Fallback is set when the rewrite failed and the source was passed
	// through unchanged.
	Fallback bool `json:"fallback,omitempty"`

	sourceIndex    *position.UTF16Index
	generatedIndex *position.UTF16Index
}

func (me *VirtualCode) ServiceScript() ServiceScript {
	ext := ".ts"
	if me.LanguageID == LanguageETS {
		ext = ".ets"
	}
	return ServiceScript{Code: me, Extension: ext, Kind: ScriptKindTS}
}

// SourceIndex converts between source bytes and UTF-16 units.
func (me *VirtualCode) SourceIndex() *position.UTF16Index {
	return me.sourceIndex
}

// GeneratedIndex converts between generated bytes and UTF-16 units.
func (me *VirtualCode) GeneratedIndex() *position.UTF16Index {
	return me.generatedIndex
}

// Factory builds VirtualCodes with one pipeline.
type Factory struct {
	pipeline *pipeline.Pipeline
	newLine  func(path string) string

	// verification overrides the flag on copied source when set.
	verification *bool
	sdkPaths     []string
}

type FactoryOpt func(*Factory)

func WithPipeline(p *pipeline.Pipeline) FactoryOpt {
	return func(f *Factory) {
		f.pipeline = p
	}
}

func WithRewriteOptions(opts rewrite.Options) FactoryOpt {
	return func(f *Factory) {
		f.pipeline = rewrite.New(opts)
	}
}

// WithNewLine picks the line break synthesized for a path.
func WithNewLine(newLine func(path string) string) FactoryOpt {
	return func(f *Factory) {
		f.newLine = newLine
	}
}

// WithVerification turns diagnostics on or off for the text copied from
// the source. Synthesized text keeps its own capabilities.
func WithVerification(enabled bool) FactoryOpt {
	return func(f *Factory) {
		f.verification = &enabled
	}
}

// WithSDKPaths lists the directories of the SDK. Declaration files under
// them are passed through with every capability off, so the host reads
// their types without reporting on or navigating into them.
func WithSDKPaths(dirs ...string) FactoryOpt {
	return func(f *Factory) {
		for _, d := range dirs {
			f.sdkPaths = append(f.sdkPaths, filepath.Clean(d))
		}
	}
}

func NewFactory(opts ...FactoryOpt) *Factory {
	f := &Factory{
		pipeline: rewrite.New(rewrite.DefaultOptions()),
		newLine:  func(string) string { return "\n" },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateVirtualCode builds the code of one revision. Malformed input never
// fails: if a stage errors the file is passed through unchanged. Only a
// cancelled context returns an error.
func (me *Factory) CreateVirtualCode(ctx context.Context, path string, lang LanguageID, source string) (*VirtualCode, error) {
	logger := zerolog.Ctx(ctx).With().Str("path", path).Str("language", string(lang)).Logger()

	if err := ctx.Err(); err != nil {
		return nil, errors.Errorf("creating virtual code for %s: %w", path, err)
	}

	if me.IsSDKDeclaration(path) {
		buf := editbuf.NewEmpty(source)
		if err := buf.Append(editbuf.SourceSegment(0, len(source), editbuf.None)); err != nil {
			return nil, errors.Errorf("creating virtual code for %s: %w", path, err)
		}
		logger.Debug().Msg("sdk declaration file, all capabilities off")
		return me.finish(logger, Assemble(buf), path, lang), nil
	}

	fallback := false
	buf, err := me.rewrite(ctx, path, lang, source)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Errorf("creating virtual code for %s: %w", path, err)
		}
		logger.Warn().Err(err).Msg("rewrite failed, passing source through")
		buf = editbuf.New(source)
		fallback = true
	}

	vc := Assemble(buf)
	vc.Fallback = fallback
	if me.verification != nil {
		vc.setSourceVerification(*me.verification)
	}

	return me.finish(logger, vc, path, lang), nil
}

func (me *Factory) finish(logger zerolog.Logger, vc *VirtualCode, path string, lang LanguageID) *VirtualCode {
	vc.ID = uuid.NewString()
	vc.Path = path
	vc.LanguageID = lang

	logger.Debug().
		Str("id", vc.ID).
		Int("mappings", len(vc.Mappings)).
		Int("generated_length", vc.GeneratedLength).
		Msg("created virtual code")

	return vc
}

// IsSDKDeclaration reports whether path is a declaration file inside one of
// the SDK directories.
func (me *Factory) IsSDKDeclaration(path string) bool {
	if len(me.sdkPaths) == 0 || !IsDeclarationFile(path) {
		return false
	}
	clean := filepath.Clean(path)
	for _, dir := range me.sdkPaths {
		rel, err := filepath.Rel(dir, clean)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		if rel != ".." && !strings.HasPrefix(rel, "../") {
			return true
		}
	}
	return false
}

// IsDeclarationFile matches .d.ts, .d.mts, .d.cts and .d.ets.
func IsDeclarationFile(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range []string{".d.ts", ".d.mts", ".d.cts", ".d.ets"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func (me *Factory) rewrite(ctx context.Context, path string, lang LanguageID, source string) (*editbuf.Buffer, error) {
	if lang != LanguageETS {
		return editbuf.New(source), nil
	}

	rc := pipeline.NewContext(path, source)
	if me.newLine != nil {
		if nl := me.newLine(path); nl != "" {
			rc.NewLine = nl
		}
	}

	if err := me.pipeline.Run(ctx, rc); err != nil {
		return nil, err
	}
	if err := rc.Buffer.Validate(); err != nil {
		return nil, errors.Errorf("invalid edit buffer: %w", err)
	}
	return rc.Buffer, nil
}

// CreateVirtualCode builds a revision with the default factory.
func CreateVirtualCode(ctx context.Context, path string, lang LanguageID, source string) (*VirtualCode, error) {
	return NewFactory().CreateVirtualCode(ctx, path, lang, source)
}
