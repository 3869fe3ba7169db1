package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mx-space/pagecraft/internal/client"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	blocksFile  string
	appendText  string
	appendImage string
)

// blockDoc is one entry of a blocks file. JSON files parse too.
type blockDoc struct {
	ID       string  `yaml:"id"`
	Type     string  `yaml:"type"`
	Content  *string `yaml:"content"`
	ImageURL *string `yaml:"image_url"`
}

func readBlocks(r io.Reader) ([]client.DraftBlock, error) {
	var docs []blockDoc
	if err := yaml.NewDecoder(r).Decode(&docs); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse blocks: %w", err)
	}
	drafts := make([]client.DraftBlock, len(docs))
	for i, d := range docs {
		drafts[i] = client.DraftBlock{ID: d.ID, Type: d.Type, Content: d.Content, ImageURL: d.ImageURL}
	}
	return drafts, nil
}

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "List and edit the blocks of a page",
}

var blocksListCmd = &cobra.Command{
	Use:   "list <page>",
	Short: "List the blocks of a page by slug or id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		blocks, err := c.Blocks().List(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printBlocks(cmd, blocks)
	},
}

var blocksReplaceCmd = &cobra.Command{
	Use:   "replace <page-id>",
	Short: "Replace every block of a page with the ones in a YAML or JSON file",
	Long: `Replace every block of a page with the list read from --file ("-" reads stdin).
Entries that carry the id of an existing block keep it; blocks missing from
the file are deleted. An empty list clears the page.

  - type: text
    content: "## Welcome"
  - id: 5f0c...
    type: image
    image_url: /uploads/images/2026/10/hero.png`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = cmd.InOrStdin()
		if blocksFile != "-" {
			f, err := os.Open(blocksFile)
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		drafts, err := readBlocks(r)
		if err != nil {
			return err
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		blocks, err := c.Blocks().ReplaceAll(cmd.Context(), args[0], drafts)
		if err != nil {
			return err
		}
		return printBlocks(cmd, blocks)
	},
}

var blocksAppendCmd = &cobra.Command{
	Use:   "append <page-id>",
	Short: "Add one block at the end of a page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var draft client.DraftBlock
		switch {
		case appendText != "" && appendImage != "":
			return fmt.Errorf("use either --text or --image")
		case appendText != "":
			draft = client.DraftBlock{Type: client.BlockText, Content: &appendText}
		case appendImage != "":
			draft = client.DraftBlock{Type: client.BlockImage, ImageURL: &appendImage}
		default:
			return fmt.Errorf("--text or --image is required")
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		current, err := c.Blocks().List(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		drafts := make([]client.DraftBlock, 0, len(current)+1)
		for _, b := range current {
			drafts = append(drafts, b.Draft())
		}
		blocks, err := c.Blocks().ReplaceAll(cmd.Context(), args[0], append(drafts, draft))
		if err != nil {
			return err
		}
		return printBlocks(cmd, blocks)
	},
}

var blocksDeleteCmd = &cobra.Command{
	Use:   "delete <block-id>",
	Short: "Delete one block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.Blocks().Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "deleted block %s", args[0])
		return nil
	},
}

func printBlocks(cmd *cobra.Command, blocks []client.Block) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), blocks)
	}
	rows := make([][]string, 0, len(blocks))
	for _, b := range blocks {
		body := ""
		switch {
		case b.Content != nil:
			body = preview(*b.Content)
		case b.ImageURL != nil:
			body = *b.ImageURL
		}
		rows = append(rows, []string{strconv.Itoa(b.Position), b.ID, b.Type, body})
	}
	table(cmd.OutOrStdout(), []string{"#", "ID", "TYPE", "CONTENT"}, rows)
	return nil
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 48 {
		return string(r[:47]) + "…"
	}
	return s
}

func init() {
	rootCmd.AddCommand(blocksCmd)
	blocksCmd.AddCommand(blocksListCmd, blocksReplaceCmd, blocksAppendCmd, blocksDeleteCmd)

	blocksReplaceCmd.Flags().StringVarP(&blocksFile, "file", "f", "", "YAML or JSON list of blocks, - for stdin")
	_ = blocksReplaceCmd.MarkFlagRequired("file")
	blocksAppendCmd.Flags().StringVar(&appendText, "text", "", "markdown or HTML text")
	blocksAppendCmd.Flags().StringVar(&appendImage, "image", "", "image url")
}
