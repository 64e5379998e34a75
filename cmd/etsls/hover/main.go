package hover

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/etsls/pkg/config"
	"github.com/walteh/etsls/pkg/documents"
	"github.com/walteh/etsls/pkg/position"
)

type Handler struct {
	fs     afero.Fs
	locale string
}

func NewHoverCommand(fs afero.Fs) *cobra.Command {
	me := &Handler{fs: fs}

	cmd := &cobra.Command{
		Use:   "hover <file> <line> <character>",
		Short: "show the hover text at a zero-based line and UTF-16 character of an ETS file",
		Args:  cobra.ExactArgs(3),
	}

	cmd.Flags().StringVar(&me.locale, "locale", "", "language of the hover text, overrides the config")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		line, err := strconv.Atoi(args[1])
		if err != nil || line < 0 {
			return errors.Errorf("invalid line %q", args[1])
		}
		char, err := strconv.Atoi(args[2])
		if err != nil || char < 0 {
			return errors.Errorf("invalid character %q", args[2])
		}
		return me.Run(cmd.Context(), cmd.OutOrStdout(), args[0], position.Place{Line: line, Character: char})
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, out io.Writer, file string, place position.Place) error {
	data, err := afero.ReadFile(me.fs, file)
	if err != nil {
		return errors.Errorf("reading %s: %w", file, err)
	}

	cfg, _, err := config.Find(me.fs, filepath.Dir(file))
	if err != nil {
		return err
	}

	locale := cfg.Locale
	if me.locale != "" {
		locale = me.locale
	}

	docs := documents.NewManager(cfg.Factory(me.fs), documents.WithLocale(locale))
	if _, err := docs.Open(ctx, file, 0, string(data)); err != nil {
		return err
	}

	h, ok := docs.Hover(ctx, file, place)
	if !ok {
		return errors.Errorf("nothing to show at %d:%d of %s", place.Line, place.Character, file)
	}

	fmt.Fprintf(out, "%d:%d-%d:%d\n%s\n", h.Range.Start.Line, h.Range.Start.Character, h.Range.End.Line, h.Range.End.Character, h.Contents)
	return nil
}
