package mapoffset

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
	"github.com/walteh/etsls/pkg/editbuf"
	"github.com/walteh/etsls/pkg/virtualcode"
)

type Handler struct {
	fs       afero.Fs
	toSource bool
	feature  string
}

func NewMapCommand(fs afero.Fs) *cobra.Command {
	me := &Handler{fs: fs}

	cmd := &cobra.Command{
		Use:   "map <file> <offset>",
		Short: "map a UTF-16 offset between an ETS file and its generated TypeScript",
		Args:  cobra.ExactArgs(2),
	}

	cmd.Flags().BoolVar(&me.toSource, "to-source", false, "treat the offset as generated and map it back to the source")
	cmd.Flags().StringVar(&me.feature, "feature", string(editbuf.FeatureNavigation), "feature the generated region must enable")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		offset, err := strconv.Atoi(args[1])
		if err != nil || offset < 0 {
			return errors.Errorf("invalid offset %q", args[1])
		}
		return me.Run(cmd.Context(), cmd.OutOrStdout(), args[0], offset)
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, out io.Writer, file string, offset int) error {
	feature, err := editbuf.ParseFeature(me.feature)
	if err != nil {
		return err
	}

	vc, err := me.load(ctx, file)
	if err != nil {
		return err
	}

	if me.toSource {
		src, caps, ok := vc.ToSourceOffset(offset)
		if !ok {
			return errors.Errorf("generated offset %d is outside %s (length %d)", offset, file, vc.GeneratedLength)
		}
		fmt.Fprintf(out, "%d %s\n", src, caps)
		return nil
	}

	gen, ok := vc.ToGeneratedOffset(offset, feature)
	if !ok {
		return errors.Errorf("source offset %d has no generated offset enabling %s", offset, feature)
	}
	fmt.Fprintf(out, "%d\n", gen)
	return nil
}

func (me *Handler) load(ctx context.Context, file string) (*virtualcode.VirtualCode, error) {
	data, err := afero.ReadFile(me.fs, file)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", file, err)
	}

	cfg, _, err := config.Find(me.fs, filepath.Dir(file))
	if err != nil {
		return nil, err
	}

	lang := cfg.LanguageID(file)
	if lang == virtualcode.LanguageNone {
		lang = virtualcode.LanguageETS
	}

	return cfg.Factory(me.fs).CreateVirtualCode(ctx, file, lang, string(data))
}
