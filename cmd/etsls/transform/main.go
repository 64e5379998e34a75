package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/etsls/pkg/config"
	"github.com/walteh/etsls/pkg/virtualcode"
)

type Handler struct {
	fs         afero.Fs
	configPath string
	mappings   bool
	diff       bool
}

func NewTransformCommand(fs afero.Fs) *cobra.Command {
	me := &Handler{fs: fs}

	cmd := &cobra.Command{
		Use:   "transform [paths...]",
		Short: "print the TypeScript generated for ETS files",
		Long: "Print the TypeScript generated for each file. Directories are walked " +
			"and filtered by the extensions and include/exclude globs of the nearest config file.",
		Args: cobra.MinimumNArgs(1),
	}

	cmd.Flags().StringVar(&me.configPath, "config", "", "config file (default: nearest .etsls.yaml, .etsls.yml or .etsls.hcl)")
	cmd.Flags().BoolVar(&me.mappings, "mappings", false, "print the virtual code with its mappings as JSON")
	cmd.Flags().BoolVar(&me.diff, "diff", false, "print a line diff of source and generated text")
	cmd.MarkFlagsMutuallyExclusive("mappings", "diff")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), cmd.OutOrStdout(), args)
	}

	return cmd
}

type job struct {
	path string
	cfg  *config.Config
}

func (me *Handler) Run(ctx context.Context, out io.Writer, paths []string) error {
	jobs, err := me.collect(ctx, paths)
	if err != nil {
		return err
	}

	var result *multierror.Error
	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			return errors.Errorf("transform canceled: %w", err)
		}
		if err := me.transform(ctx, out, j, len(jobs) > 1); err != nil {
			result = multierror.Append(result, errors.Errorf("transforming %s: %w", j.path, err))
		}
	}

	return result.ErrorOrNil()
}

func (me *Handler) loadConfig(dir string) (*config.Config, error) {
	if me.configPath != "" {
		return config.Load(me.fs, me.configPath)
	}
	cfg, _, err := config.Find(me.fs, dir)
	return cfg, err
}

func (me *Handler) collect(ctx context.Context, paths []string) ([]job, error) {
	logger := zerolog.Ctx(ctx)
	var jobs []job

	for _, p := range paths {
		info, err := me.fs.Stat(p)
		if err != nil {
			return nil, errors.Errorf("reading %s: %w", p, err)
		}

		if !info.IsDir() {
			cfg, err := me.loadConfig(filepath.Dir(p))
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, job{path: p, cfg: cfg})
			continue
		}

		cfg, err := me.loadConfig(p)
		if err != nil {
			return nil, err
		}

		var found []string
		err = afero.Walk(me.fs, p, func(file string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if fi.IsDir() || !cfg.Match(file) {
				return nil
			}
			found = append(found, file)
			return nil
		})
		if err != nil {
			return nil, errors.Errorf("walking %s: %w", p, err)
		}

		sort.Strings(found)
		logger.Debug().Str("dir", p).Int("files", len(found)).Msg("collected files")

		for _, f := range found {
			jobs = append(jobs, job{path: f, cfg: cfg})
		}
	}

	return jobs, nil
}

func (me *Handler) transform(ctx context.Context, out io.Writer, j job, header bool) error {
	data, err := afero.ReadFile(me.fs, j.path)
	if err != nil {
		return errors.Errorf("reading file: %w", err)
	}
	source := string(data)

	lang := j.cfg.LanguageID(j.path)
	if lang == virtualcode.LanguageNone {
		// named on the command line
		lang = virtualcode.LanguageETS
	}

	vc, err := j.cfg.Factory(me.fs).CreateVirtualCode(ctx, j.path, lang, source)
	if err != nil {
		return err
	}

	switch {
	case me.mappings:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(vc); err != nil {
			return errors.Errorf("encoding mappings: %w", err)
		}
	case me.diff:
		fmt.Fprintf(out, "--- %s\n+++ %s (generated)\n", j.path, j.path)
		fmt.Fprint(out, LineDiff(source, vc.GeneratedText))
	default:
		if header {
			fmt.Fprintf(out, "// %s\n", j.path)
		}
		fmt.Fprint(out, vc.GeneratedText)
		if len(vc.GeneratedText) > 0 && vc.GeneratedText[len(vc.GeneratedText)-1] != '\n' {
			fmt.Fprintln(out)
		}
	}

	return nil
}
