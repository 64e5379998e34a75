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

func RecordStructs(rc *pipeline.Context) {
	rc.Structs = extract.Structs(rc.Source)
}

func RecordFunctions(rc *pipeline.Context) {
	rc.Functions = extract.FirstLevelFunctions(rc.Source)
}

// RewriteStructs turns every recorded struct into a class and declares a
// callable binding under the struct's own name:
//
//	struct Foo { }
//	class  __Struct_Foo { }
//	declare const Foo: ((options?: Partial<__Struct_Foo>) => __Struct_Foo) & typeof __Struct_Foo;
func RewriteStructs(ctx context.Context, rc *pipeline.Context, prefix string) error {
	logger := zerolog.Ctx(ctx)

	for i := len(rc.Structs) - 1; i >= 0; i-- {
		d := rc.Structs[i]
		name := d.NameText(rc.Source)

		if d.Closed {
			if err := insertBinding(rc, d, name, prefix); err != nil {
				return errors.Errorf("declaring struct %s: %w", name, err)
			}
		} else {
			logger.Warn().Str("struct", name).Int("start", d.Start).Msg("struct body never closes, skipping binding")
		}

		at, ok := rc.Buffer.ToGenerated(d.Name.Start)
		if !ok {
			continue
		}
		if err := rc.Buffer.Insert(at, prefix, editbuf.None); err != nil {
			return errors.Errorf("prefixing struct %s: %w", name, err)
		}

		kw, ok := rc.Buffer.ToGenerated(d.Keyword.Start)
		if !ok {
			continue
		}
		if err := rc.Buffer.ReplaceRange(kw, kw+d.Keyword.Len(), "class ", editbuf.Keyword); err != nil {
			return errors.Errorf("rewriting struct keyword %s: %w", name, err)
		}
	}

	return nil
}

func insertBinding(rc *pipeline.Context, d extract.StructDescriptor, name, prefix string) error {
	at, ok := rc.Buffer.ToGenerated(d.End)
	if !ok {
		return nil
	}

	class := prefix + name

	var head strings.Builder
	head.WriteString(rc.NewLine)
	if d.IsExported {
		head.WriteString("export ")
	}
	head.WriteString("declare const ")

	tail := ": ((options?: Partial<" + class + ">) => " + class + ") & typeof " + class + ";"

	if err := rc.Buffer.Insert(at, head.String(), editbuf.None); err != nil {
		return err
	}
	at += head.Len()
	if err := rc.Buffer.InsertAnchored(at, name, d.Name.Start, editbuf.Reference); err != nil {
		return err
	}
	at += len(name)
	return rc.Buffer.InsertAnchored(at, tail, d.End, editbuf.None)
}
