package commands

import (
	"fmt"
	"io"

	"github.com/IlyasAtabaev731/khata/internal/domain/models"
	"github.com/spf13/cobra"
)

func newRegisterCommand(opts *RootOptions) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}

			user, err := app.Gate.Register(cmd.Context(), name, email, password)
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}

			return opts.formatter(cmd).Success(user, sessionText("Registered and signed in as", user))
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "password (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLoginCommand(opts *RootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and cache the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}

			user, err := app.Gate.Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			return opts.formatter(cmd).Success(user, sessionText("Signed in as", user))
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the cached session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}

			if err := app.Gate.Clear(); err != nil {
				return err
			}

			return opts.formatter(cmd).Success(map[string]bool{"loggedOut": true}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, "Signed out")
				return err
			})
		},
	}
}

func newWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}

			user, err := requireUser(cmd.Context(), app)
			if err != nil {
				return err
			}

			return opts.formatter(cmd).Success(user, sessionText("Signed in as", user))
		},
	}
}

func sessionText(prefix string, user *models.SessionUser) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s %s <%s> (id %d)\n", prefix, user.Name, user.Email, user.ID)
		return err
	}
}
