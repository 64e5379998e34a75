package structs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/etsls/pkg/extract"
	"github.com/walteh/etsls/pkg/position"
)

type Handler struct {
	fs   afero.Fs
	json bool
}

func NewStructsCommand(fs afero.Fs) *cobra.Command {
	me := &Handler{fs: fs}

	cmd := &cobra.Command{
		Use:   "structs <file>",
		Short: "list the struct declarations of an ETS file",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().BoolVar(&me.json, "json", false, "print the descriptors as JSON")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), cmd.OutOrStdout(), args[0])
	}

	return cmd
}

// Struct is a StructDescriptor with its offsets in UTF-16 code units.
type Struct struct {
	Name       string `json:"name"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	NameStart  int    `json:"nameStart"`
	BodyStart  int    `json:"bodyStart"`
	IsExported bool   `json:"isExported"`
	Closed     bool   `json:"closed"`
}

func (me *Handler) Run(ctx context.Context, out io.Writer, file string) error {
	data, err := afero.ReadFile(me.fs, file)
	if err != nil {
		return errors.Errorf("reading %s: %w", file, err)
	}
	text := string(data)
	units := position.NewUTF16Index(text)

	var found []Struct
	for _, d := range extract.Structs(text) {
		found = append(found, Struct{
			Name:       d.NameText(text),
			Start:      units.ToUTF16(d.Start),
			End:        units.ToUTF16(d.End),
			NameStart:  units.ToUTF16(d.Name.Start),
			BodyStart:  units.ToUTF16(d.BodyStart),
			IsExported: d.IsExported,
			Closed:     d.Closed,
		})
	}

	zerolog.Ctx(ctx).Debug().Str("file", file).Int("structs", len(found)).Msg("extracted structs")

	if me.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if found == nil {
			found = []Struct{}
		}
		if err := enc.Encode(found); err != nil {
			return errors.Errorf("encoding structs: %w", err)
		}
		return nil
	}

	for _, s := range found {
		flags := ""
		if s.IsExported {
			flags += " exported"
		}
		if !s.Closed {
			flags += " unclosed"
		}
		fmt.Fprintf(out, "%s [%d,%d)%s\n", s.Name, s.Start, s.End, flags)
	}
	return nil
}
