package main

import (
	"fmt"
	"os"

	"github.com/jwstegemann/fritz"
	"github.com/spf13/cobra"
)

// renderCmd renders a list file once and exits.
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a list file once",
	Long: `Render a list file as an element tree and exit.

The file must hold a JSON or YAML array of items; the format is picked
from the file extension. Malformed files exit non-zero, which makes the
command usable as a check in scripts.

Exit codes:
  0 - File rendered
  1 - File missing or malformed (details printed to stderr)

Example:
  fritz render -f todos.json
  fritz render --file /var/lib/app/todos.yaml`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("file", "f", "", "path to list file (required)")
	_ = renderCmd.MarkFlagRequired("file")
}

func runRender(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("file")

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var items []Item
	if err := codecFor(path).Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	list := fritz.NewElement("ul")
	for _, it := range items {
		list.Insert(list.Len(), renderItem(it))
	}

	fmt.Println(list.String())
	fmt.Printf("%d items\n", len(items))
	return nil
}
