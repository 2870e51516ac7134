package main

import (
	"fmt"
	"time"

	"github.com/nvandessel/tanklab/internal/session"
	"github.com/spf13/cobra"
)

func newRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a user (or update name and role of an existing email)",
		Example: `  tanklab register --name Ana --email ana@lab.edu
  tanklab register --name Rui --email rui@lab.edu --role teacher`,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			role, _ := cmd.Flags().GetString("role")
			jsonOut, _ := cmd.Flags().GetBool("json")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.svc.Register(cmd.Context(), name, email, role)
			if err != nil {
				return err
			}

			if jsonOut {
				return encodeJSON(cmd, user)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s <%s> as %s\n", user.Name, user.Email, user.Role)
			return nil
		},
	}
	cmd.Flags().String("name", "", "Display name (required)")
	cmd.Flags().String("email", "", "Email address (required)")
	cmd.Flags().String("role", "student", "Role: student or teacher")
	return cmd
}

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in; unknown emails are registered as students",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			jsonOut, _ := cmd.Flags().GetBool("json")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.svc.Login(cmd.Context(), args[0], name)
			if err != nil {
				return err
			}
			st := session.SignIn(user, time.Now())
			if err := session.SaveState(st, a.home); err != nil {
				return err
			}

			if jsonOut {
				return encodeJSON(cmd, st)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
	cmd.Flags().String("name", "", "Name to use if the account is created")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := session.RemoveState(a.home); err != nil {
				return err
			}
			if jsonOut {
				return encodeJSON(cmd, map[string]string{"status": "logged_out"})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := session.LoadState(a.home)
			if err != nil {
				return err
			}
			if jsonOut {
				return encodeJSON(cmd, st)
			}
			if !st.LoggedIn() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%s), since %s\n",
				st.User.Name, st.User.Email, st.User.Role, st.LoggedInAt.Local().Format(time.DateTime))
			return nil
		},
	}
}
