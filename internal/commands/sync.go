package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push local changes to the cloud",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := requireUser(cmd.Context(), app); err != nil {
				return err
			}

			res := app.Syncer.Reconcile(cmd.Context())

			if !res.Success {
				return fmt.Errorf("sync failed: %s", res.Error)
			}

			return opts.formatter(cmd).Success(res, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Synced %d transaction(s), deleted %d remote record(s)\n", res.Synced, res.Deleted)
				return err
			})
		},
	}
}
