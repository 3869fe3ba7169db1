package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login <username|email>",
	Short: "Sign in and save the session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := loginPassword
		if password == "" {
			password = os.Getenv("PAGECTL_PASSWORD")
		}
		if password == "" {
			return fmt.Errorf("--password or PAGECTL_PASSWORD is required")
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		user, err := c.Login(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), user)
		}
		success(cmd.OutOrStdout(), "signed in as %s", user.Username)
		if !user.IsAdmin {
			muted(cmd.OutOrStdout(), "this account cannot edit content")
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.Logout(cmd.Context()); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed in operator",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		user, err := c.Me(cmd.Context())
		if err != nil {
			return err
		}
		// the token's claim can lag behind a role change
		if user.IsAdmin, err = c.CheckAdmin(cmd.Context()); err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), user)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> admin=%s\n", user.Username, user.Email, yesNo(user.IsAdmin))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password")
}
