/*
Package rewrite holds the stages that turn ETS text into TypeScript.

	pre     structs        record struct declarations, rewrite to classes
	pre     functions      record first-level function declarations
	pre     decorators     strip `@Name(...)` in front of functions
	normal  disambiguate   split `call() {` into a call and a block
	post    this-alias     `$$this` -> `  this`

Decorators go before disambiguate: tree-sitter gives up on the body of a
function that still starts with `@Name`.

Every stage edits the shared editbuf.Buffer with generated offsets and
records what later stages need in the pipeline.Context.
*/
package rewrite

import (
	"context"

	"github.com/walteh/etsls/pkg/parser"
	"github.com/walteh/etsls/pkg/pipeline"
)

const (
	StageStructs      = "structs"
	StageFunctions    = "functions"
	StageDisambiguate = "disambiguate"
	StageDecorators   = "decorators"
	StageThisAlias    = "this-alias"

	DefaultStructClassPrefix = "__Struct_"
)

// TreeParser parses generated text for the disambiguate stage.
type TreeParser func(ctx context.Context, text string) (*parser.Tree, error)

type Options struct {
	Structs      bool
	Disambiguate bool
	Decorators   bool
	ThisAlias    bool

	// StructClassPrefix names the class a struct is rewritten to.
	StructClassPrefix string

	// Parse defaults to parser.Parse.
	Parse TreeParser
}

func DefaultOptions() Options {
	return Options{
		Structs:           true,
		Disambiguate:      true,
		Decorators:        true,
		ThisAlias:         true,
		StructClassPrefix: DefaultStructClassPrefix,
	}
}

// Stages returns the stages enabled by opts. Structs and functions are
// always recorded, since disambiguation depends on their bodies; the
// Structs toggle only controls the class rewrite.
func Stages(opts Options) []pipeline.Stage {
	if opts.StructClassPrefix == "" {
		opts.StructClassPrefix = DefaultStructClassPrefix
	}
	if opts.Parse == nil {
		opts.Parse = parser.Parse
	}

	stages := []pipeline.Stage{
		StructStage(opts.StructClassPrefix, opts.Structs),
		FunctionStage(),
	}
	if opts.Decorators {
		stages = append(stages, DecoratorStage())
	}
	if opts.Disambiguate {
		stages = append(stages, DisambiguateStage(opts.Parse))
	}
	if opts.ThisAlias {
		stages = append(stages, ThisAliasStage())
	}
	return stages
}

// New builds the pipeline for opts.
func New(opts Options) *pipeline.Pipeline {
	return pipeline.New(Stages(opts)...)
}

func StructStage(prefix string, rewrite bool) pipeline.Stage {
	return pipeline.Stage{
		Name:  StageStructs,
		Order: pipeline.OrderPre,
		Resolve: func(ctx context.Context, rc *pipeline.Context) error {
			RecordStructs(rc)
			if !rewrite {
				return nil
			}
			return RewriteStructs(ctx, rc, prefix)
		},
	}
}

func FunctionStage() pipeline.Stage {
	return pipeline.Stage{
		Name:  StageFunctions,
		Order: pipeline.OrderPre,
		Resolve: func(ctx context.Context, rc *pipeline.Context) error {
			RecordFunctions(rc)
			return nil
		},
	}
}

func DisambiguateStage(parse TreeParser) pipeline.Stage {
	return pipeline.Stage{
		Name:  StageDisambiguate,
		Order: pipeline.OrderNormal,
		Resolve: func(ctx context.Context, rc *pipeline.Context) error {
			return Disambiguate(ctx, rc, parse)
		},
	}
}

func DecoratorStage() pipeline.Stage {
	return pipeline.Stage{
		Name:  StageDecorators,
		Order: pipeline.OrderPre,
		Resolve: func(ctx context.Context, rc *pipeline.Context) error {
			return StripDecorators(ctx, rc)
		},
	}
}

func ThisAliasStage() pipeline.Stage {
	return pipeline.Stage{
		Name:  StageThisAlias,
		Order: pipeline.OrderPost,
		Resolve: func(ctx context.Context, rc *pipeline.Context) error {
			return RewriteThisAlias(rc)
		},
	}
}
