// Package cli implements guidectl, the operator command line.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/agutierrezreginodev/potencia-agenda/internal/registration"
	"github.com/agutierrezreginodev/potencia-agenda/internal/runtime"
)

// AppFactory builds the application for commands that need providers or storage.
type AppFactory func(configPath string, logger *slog.Logger) (*runtime.App, error)

// Options holds CLI-level configuration.
type Options struct {
	// NewApp defaults to DefaultAppFactory.
	NewApp AppFactory
	Stdin  io.Reader
}

// DefaultAppFactory registers the built-in providers and assembles the App
// from the config file.
func DefaultAppFactory(configPath string, logger *slog.Logger) (*runtime.App, error) {
	registration.RegisterBuiltins()
	return runtime.New(
		runtime.WithConfigFile(configPath),
		runtime.WithLogger(logger),
	)
}

type rootFlags struct {
	configPath string
	verbose    bool
}

// NewRootCmd wires the cobra root command.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.NewApp == nil {
		opts.NewApp = DefaultAppFactory
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}

	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "guidectl",
		Short:         "Generate AI implementation guides and inspect usage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "config.yaml", "Path to config file")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log to stderr")

	open := func(cmd *cobra.Command) (*runtime.App, error) {
		return opts.NewApp(flags.configPath, newLogger(cmd.ErrOrStderr(), flags.verbose))
	}

	root.AddCommand(
		newGenerateCommand(open, opts.Stdin),
		newUsageCommand(open),
		newKeygenCommand(),
	)
	return root
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		w = io.Discard
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// closeApp drains pending audit writes before the process exits.
func closeApp(app *runtime.App) error {
	ctx, cancel := context.WithTimeout(context.Background(), runtimeCloseTimeout)
	defer cancel()
	return app.Close(ctx)
}
