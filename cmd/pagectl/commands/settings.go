package commands

import (
	"fmt"

	"github.com/mx-space/pagecraft/internal/client"
	"github.com/spf13/cobra"
)

var (
	siteName  string
	logoURL   string
	clearLogo bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the site settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the site settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		s, err := c.Settings().Get(cmd.Context())
		if err != nil {
			return err
		}
		return printSettings(cmd, s)
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the site name or logo",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var in client.UpdateSettings
		if cmd.Flags().Changed("name") {
			in.SiteName = &siteName
		}
		if cmd.Flags().Changed("logo") {
			in.LogoURL = &logoURL
		}
		in.ClearLogo = clearLogo
		if in.SiteName == nil && in.LogoURL == nil && !in.ClearLogo {
			return fmt.Errorf("nothing to update")
		}
		if in.LogoURL != nil && in.ClearLogo {
			return fmt.Errorf("use either --logo or --clear-logo")
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		s, err := c.Settings().Update(cmd.Context(), in)
		if err != nil {
			return err
		}
		return printSettings(cmd, s)
	},
}

func printSettings(cmd *cobra.Command, s *client.Settings) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), s)
	}
	logo := "-"
	if s.LogoURL != nil {
		logo = *s.LogoURL
	}
	table(cmd.OutOrStdout(), []string{"SITE NAME", "LOGO"}, [][]string{{s.SiteName, logo}})
	return nil
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)

	settingsSetCmd.Flags().StringVar(&siteName, "name", "", "site name")
	settingsSetCmd.Flags().StringVar(&logoURL, "logo", "", "logo url")
	settingsSetCmd.Flags().BoolVar(&clearLogo, "clear-logo", false, "remove the logo")
}
