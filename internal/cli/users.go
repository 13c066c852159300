package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"Inventario/internal/history"
)

func NewUsersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUsersRegisterCommand(rootOpts))
	cmd.AddCommand(newUsersListCommand(rootOpts))
	return cmd
}

func newUsersRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "register <username> <password>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			a, err := rootOpts.openApp(cmd, f)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.Users.Register(cmd.Context(), args[0], args[1]); err != nil {
				return report(f, err)
			}
			return f.Emit(map[string]string{"username": args[0]}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Registered %s\n", args[0])
				return err
			})
		},
	}
}

func newUsersListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered usernames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			a, err := rootOpts.openApp(cmd, f)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			names := a.Users.List(cmd.Context())
			return f.Emit(names, func(w io.Writer) error {
				for _, n := range names {
					if _, err := fmt.Fprintln(w, n); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <password>",
		Short: "Start a session; later changes are attributed to this user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			a, err := rootOpts.openApp(cmd, f)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			u, err := a.Users.Login(cmd.Context(), args[0], args[1])
			if err != nil {
				return report(f, err)
			}
			return f.Emit(map[string]string{"username": u.Username}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Logged in as %s\n", u.Username)
				return err
			})
		},
	}
}

func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			a, err := rootOpts.openApp(cmd, f)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.Users.Logout(cmd.Context()); err != nil {
				return report(f, err)
			}
			return f.Success("Logged out")
		},
	}
}

func NewWhoAmICommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the user changes are attributed to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			a, err := rootOpts.openApp(cmd, f)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			actor := a.Session.CurrentActor(cmd.Context())
			return f.Emit(map[string]any{
				"username":  actor,
				"logged_in": actor != history.SystemActor,
			}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, actor)
				return err
			})
		},
	}
}
