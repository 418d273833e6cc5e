package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/IlyasAtabaev731/khata/internal/buildinfo"
	"github.com/IlyasAtabaev731/khata/internal/config"
	"github.com/IlyasAtabaev731/khata/internal/lib/logctx"
	"github.com/IlyasAtabaev731/khata/internal/lib/logger"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags and the lazily opened App.
type RootOptions struct {
	ConfigPath string
	Format     string

	open   Opener
	logOut io.Writer
	app    *App
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// App loads config and opens the app on first use.
func (o *RootOptions) App(ctx context.Context) (*App, error) {
	if o.app != nil {
		return o.app, nil
	}

	cfg, err := config.Load(config.ResolvePath(o.ConfigPath))
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg.Env, o.logOut)

	app, err := o.open(logctx.WithLogger(ctx, log), cfg, log)
	if err != nil {
		return nil, err
	}
	o.app = app
	return app, nil
}

func (o *RootOptions) Close() error {
	if o.app == nil || o.app.Close == nil {
		return nil
	}
	err := o.app.Close()
	o.app = nil
	return err
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() (*cobra.Command, *RootOptions) {
	return newRootCommand(OpenApp, os.Stderr)
}

func newRootCommand(open Opener, logOut io.Writer) (*cobra.Command, *RootOptions) {
	opts := &RootOptions{open: open, logOut: logOut}

	cmd := &cobra.Command{
		Use:     "khata",
		Short:   "Zone ledger with offline-first cloud sync",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config file (defaults to $CONFIG_PATH)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (json|text)")

	cmd.AddCommand(newRegisterCommand(opts))
	cmd.AddCommand(newLoginCommand(opts))
	cmd.AddCommand(newLogoutCommand(opts))
	cmd.AddCommand(newWhoamiCommand(opts))
	cmd.AddCommand(newTxnCommand(opts))
	cmd.AddCommand(newExpenseCommand(opts))
	cmd.AddCommand(newTrolleyCommand(opts))
	cmd.AddCommand(newReportCommand(opts))
	cmd.AddCommand(newSyncCommand(opts))

	return cmd, opts
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	cmd, opts := NewRootCommand()
	return execute(cmd, opts)
}

func execute(cmd *cobra.Command, opts *RootOptions) int {
	err := cmd.Execute()
	if closeErr := opts.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err == nil {
		return 0
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.ErrOrStderr()}
	if opts.Format == FormatJSON {
		f.Writer = cmd.OutOrStdout()
	}
	_ = f.Error(err)
	return 1
}
