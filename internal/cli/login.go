package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"shopfront/internal/model"
)

// LoginOptions holds flags for the login command.
type LoginOptions struct {
	*RootOptions
	Name   string
	Phone  string
	UserID string
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoginOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login <token>",
		Short: "Sign in with a backend API token",
		Long: `Sign in with a backend API token.

The server cart becomes authoritative immediately. The local cart is kept
aside untouched for the next signed-out session; it is not merged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "contact phone")
	cmd.Flags().StringVar(&opts.UserID, "user", "", "backend user id")

	return cmd
}

func runLogin(cmd *cobra.Command, opts *LoginOptions, token string) error {
	app, err := newApp(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer app.Session.Close()

	id := model.Identity{
		Token:       token,
		DisplayName: opts.Name,
		Phone:       opts.Phone,
		UserID:      opts.UserID,
	}
	app.Session.Login(cmd.Context(), id)
	if err := app.saveIdentity(id); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "signed in, %d item(s) in cart\n", app.Engine.ItemCount())
	return nil
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and return to the local cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer app.Session.Close()

			app.Session.Logout()
			app.clearIdentity()
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}
