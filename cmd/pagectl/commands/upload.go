package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload an image and print its url",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		c, err := newClient()
		if err != nil {
			return err
		}
		up, err := c.UploadImage(cmd.Context(), f.Name(), f)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), up)
		}
		success(cmd.OutOrStdout(), "%s", up.URL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}
