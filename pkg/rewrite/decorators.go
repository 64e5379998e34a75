package rewrite

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/etsls/pkg/editbuf"
	"github.com/walteh/etsls/pkg/extract"
	"github.com/walteh/etsls/pkg/pipeline"
)

// ExtendDecorator marks a function whose body chains onto another
// component's attributes.
const ExtendDecorator = "Extend"

// StripDecorators drops the '@' of every decorator in front of a
// first-level function and breaks the line after it:
//
//	@Builder function Card() {}   ->   Builder
//	                                    function Card() {}
//
// An @Extend(X) function also gets a receiver of type X at the start of its
// body, so `.fontSize(12)` chains on something.
func StripDecorators(ctx context.Context, rc *pipeline.Context) error {
	logger := zerolog.Ctx(ctx)

	for i := len(rc.Functions) - 1; i >= 0; i-- {
		f := rc.Functions[i]

		if err := injectExtendReceiver(rc, f); err != nil {
			return err
		}

		for j := len(f.Decorators) - 1; j >= 0; j-- {
			d := f.Decorators[j]

			end, ok := rc.Buffer.ToGenerated(d.Span.End)
			if !ok {
				logger.Debug().Str("decorator", d.Name).Msg("decorator end was rewritten, skipping")
				continue
			}
			if err := rc.Buffer.Insert(end, rc.NewLine, editbuf.None); err != nil {
				return errors.Errorf("breaking line after @%s: %w", d.Name, err)
			}

			at, ok := rc.Buffer.ToGenerated(d.Span.Start)
			if !ok {
				continue
			}
			if err := rc.Buffer.Delete(at, at+1); err != nil {
				return errors.Errorf("removing @ of %s: %w", d.Name, err)
			}
		}
	}

	return nil
}

func injectExtendReceiver(rc *pipeline.Context, f extract.FunctionDescriptor) error {
	if !f.HasBody() {
		return nil
	}
	for _, d := range f.Decorators {
		if d.Name != ExtendDecorator || !d.HasArgs() {
			continue
		}
		target := strings.TrimSpace(d.Args)
		if target == "" {
			continue
		}

		open, ok := rc.Buffer.ToGenerated(f.BodyStart)
		if !ok {
			return nil
		}
		receiver := "(undefined as unknown as ReturnType<typeof " + target + ">)"
		if err := rc.Buffer.InsertAnchored(open+1, receiver, f.BodyStart, editbuf.None); err != nil {
			return errors.Errorf("injecting receiver of @Extend(%s): %w", target, err)
		}
		return nil
	}
	return nil
}
