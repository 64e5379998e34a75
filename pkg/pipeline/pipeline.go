/*
Package pipeline runs the named rewrite stages of one file revision in a
fixed order.

	   New(stages...)
	        |
	  dedupe by name (last registration wins)
	        |
	  stable sort:  pre  ->  normal  ->  post
	        |
	   Run(ctx, rc)  -- ctx checked before every stage

A Pipeline is built once per file-type configuration and is safe to Run for
any number of revisions; all per-revision state lives in the Context.
*/
package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/etsls/pkg/editbuf"
	"github.com/walteh/etsls/pkg/extract"
)

type Order int

const (
	OrderPre Order = iota
	OrderNormal
	OrderPost
)

func (o Order) String() string {
	switch o {
	case OrderPre:
		return "pre"
	case OrderPost:
		return "post"
	}
	return "normal"
}

// ResolveFunc applies one rewrite to the revision's buffer.
type ResolveFunc func(ctx context.Context, rc *Context) error

type Stage struct {
	Name    string
	Order   Order
	Resolve ResolveFunc
}

type Pipeline struct {
	stages []Stage
}

// New dedupes stages by name, keeping the last registration at the position
// of the first, and orders them pre, normal, post.
func New(stages ...Stage) *Pipeline {
	index := map[string]int{}
	var deduped []Stage
	for _, s := range stages {
		if i, ok := index[s.Name]; ok {
			deduped[i] = s
			continue
		}
		index[s.Name] = len(deduped)
		deduped = append(deduped, s)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Order < deduped[j].Order
	})

	return &Pipeline{stages: deduped}
}

// Names lists the stages in run order.
func (p *Pipeline) Names() []string {
	out := make([]string, len(p.stages))
	for i, s := range p.stages {
		out[i] = s.Name
	}
	return out
}

// Run applies every stage to rc. A stage error aborts the run; callers that
// want to degrade to pass-through text rebuild from a fresh Context.
func (p *Pipeline) Run(ctx context.Context, rc *Context) error {
	logger := zerolog.Ctx(ctx)

	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return errors.Errorf("running stage %q: %w", s.Name, err)
		}
		if s.Resolve == nil {
			continue
		}

		start := time.Now()
		if err := s.Resolve(ctx, rc); err != nil {
			return errors.Errorf("running stage %q: %w", s.Name, err)
		}

		logger.Debug().
			Str("stage", s.Name).
			Str("order", s.Order.String()).
			Str("path", rc.Path).
			Int("generated_len", rc.Buffer.Len()).
			Dur("took", time.Since(start)).
			Msg("stage resolved")
	}

	return nil
}

// Context is the state shared by the stages of one revision.
type Context struct {
	Path   string
	Source string
	Buffer *editbuf.Buffer

	// Structs and Functions are recorded by the extraction stages, in
	// source offsets.
	Structs   []extract.StructDescriptor
	Functions []extract.FunctionDescriptor

	// NewLine is the line break synthesized by the rewrites.
	NewLine string
}

func NewContext(path, source string) *Context {
	return &Context{
		Path:    path,
		Source:  source,
		Buffer:  editbuf.New(source),
		NewLine: "\n",
	}
}

// InRecordedBody reports whether a source offset lies inside the body of a
// recorded struct or first-level function.
func (rc *Context) InRecordedBody(src int) bool {
	for _, s := range rc.Structs {
		if s.Body().Contains(src) {
			return true
		}
	}
	for _, f := range rc.Functions {
		if f.HasBody() && f.Body().Contains(src) {
			return true
		}
	}
	return false
}
