package commands

import (
	"fmt"

	"github.com/mx-space/pagecraft/internal/client"
	"github.com/spf13/cobra"
)

var (
	pageTitle     string
	pageSlug      string
	pageHome      bool
	pagePublished bool
	onlyPublished bool
	onlyHome      bool
)

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "List and edit pages",
}

var pagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pages, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		var opts client.ListPages
		if cmd.Flags().Changed("published") {
			opts.IsPublished = &onlyPublished
		}
		if cmd.Flags().Changed("home") {
			opts.IsHome = &onlyHome
		}
		pages, err := c.Pages().List(cmd.Context(), opts)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), pages)
		}
		rows := make([][]string, 0, len(pages))
		for _, p := range pages {
			rows = append(rows, []string{p.ID, p.Slug, p.Title, yesNo(p.IsPublished), yesNo(p.IsHome)})
		}
		table(cmd.OutOrStdout(), []string{"ID", "SLUG", "TITLE", "PUBLISHED", "HOME"}, rows)
		return nil
	},
}

var pagesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		in := client.CreatePage{Title: pageTitle, Slug: pageSlug}
		if cmd.Flags().Changed("home") {
			in.IsHome = &pageHome
		}
		if cmd.Flags().Changed("published") {
			in.IsPublished = &pagePublished
		}
		page, err := c.Pages().Create(cmd.Context(), in)
		if err != nil {
			return err
		}
		return printPage(cmd, page, "created")
	},
}

var pagesUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change the fields given as flags",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in client.UpdatePage
		if cmd.Flags().Changed("title") {
			in.Title = &pageTitle
		}
		if cmd.Flags().Changed("slug") {
			in.Slug = &pageSlug
		}
		if cmd.Flags().Changed("home") {
			in.IsHome = &pageHome
		}
		if cmd.Flags().Changed("published") {
			in.IsPublished = &pagePublished
		}
		if in == (client.UpdatePage{}) {
			return fmt.Errorf("nothing to update")
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		page, err := c.Pages().Update(cmd.Context(), args[0], in)
		if err != nil {
			return err
		}
		return printPage(cmd, page, "updated")
	},
}

var pagesSetHomeCmd = &cobra.Command{
	Use:   "set-home <id>",
	Short: "Make a page the home page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		page, err := c.Pages().SetHome(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printPage(cmd, page, "home page set to")
	},
}

var pagesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a page and its blocks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.Pages().Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "deleted %s", args[0])
		return nil
	},
}

func printPage(cmd *cobra.Command, page *client.Page, verb string) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), page)
	}
	success(cmd.OutOrStdout(), "%s %s (/%s)", verb, page.ID, page.Slug)
	return nil
}

func init() {
	rootCmd.AddCommand(pagesCmd)
	pagesCmd.AddCommand(pagesListCmd, pagesCreateCmd, pagesUpdateCmd, pagesSetHomeCmd, pagesDeleteCmd)

	pagesListCmd.Flags().BoolVar(&onlyPublished, "published", false, "filter on the published flag")
	pagesListCmd.Flags().BoolVar(&onlyHome, "home", false, "filter on the home flag")

	for _, c := range []*cobra.Command{pagesCreateCmd, pagesUpdateCmd} {
		c.Flags().StringVar(&pageTitle, "title", "", "page title")
		c.Flags().StringVar(&pageSlug, "slug", "", "url slug")
		c.Flags().BoolVar(&pageHome, "home", false, "make this the home page")
		c.Flags().BoolVar(&pagePublished, "published", false, "publish the page")
	}
	_ = pagesCreateCmd.MarkFlagRequired("title")
	_ = pagesCreateCmd.MarkFlagRequired("slug")
}
