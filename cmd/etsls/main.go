package main

import (
	"context"
	"os"
	"runtime/debug"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/etsls/cmd/etsls/hover"
	"github.com/walteh/etsls/cmd/etsls/mapoffset"
	"github.com/walteh/etsls/cmd/etsls/structs"
	"github.com/walteh/etsls/cmd/etsls/transform"
	logging "github.com/walteh/etsls/pkg/debug"
)

func main() {
	if err := run(); err != nil {
		println(err.Error())
		os.Exit(1)
	}
}

func run() error {
	var (
		logLevel string
		jsonLog  bool
	)

	rootCmd := &cobra.Command{
		Use:           "etsls",
		Short:         "A tool for mapping ETS sources onto TypeScript",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		rootCmd.Version = "unknown"
	} else {
		rootCmd.Version = info.Main.Version
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "write logs as JSON")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(logLevel)
		if err != nil {
			return errors.Errorf("parsing log level: %w", err)
		}
		cmd.SetContext(logging.WithLogger(cmd.Context(), os.Stderr, logging.Options{
			Level: level,
			JSON:  jsonLog,
			Color: isatty.IsTerminal(os.Stderr.Fd()),
		}))
		return nil
	}

	cmdVersion := &cobra.Command{
		Use: "raw-version",
		Run: func(cmdz *cobra.Command, args []string) {
			cmdz.Println(rootCmd.Version)
		},
		Hidden: true,
	}

	rootCmd.AddCommand(cmdVersion)

	fs := afero.NewOsFs()
	rootCmd.AddCommand(transform.NewTransformCommand(fs))
	rootCmd.AddCommand(mapoffset.NewMapCommand(fs))
	rootCmd.AddCommand(structs.NewStructsCommand(fs))
	rootCmd.AddCommand(hover.NewHoverCommand(fs))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		return errors.Errorf("failed to execute command: %w", err)
	}

	return nil
}
