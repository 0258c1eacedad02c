// Package categorize handles the description categorization command
package categorize

import (
	"fmt"
	"io"
	"strings"

	"banka/ingest/cmd/root"
	"banka/ingest/internal/categorizer"

	"github.com/spf13/cobra"
)

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize <description>",
	Short: "Categorize a transaction description",
	Long: `Categorize a transaction description with the configured rule table and
print its category, subcategory, counterparty and message.`,
	Args: cobra.MinimumNArgs(1),
	RunE: categorizeFunc,
}

func categorizeFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	run(cmd.OutOrStdout(), c.GetCategorizer(), strings.Join(args, " "))
	return nil
}

func run(w io.Writer, c *categorizer.Categorizer, description string) {
	a := c.Analyze(description)
	fmt.Fprintf(w, "category:     %s\n", a.Category)
	fmt.Fprintf(w, "subcategory:  %s\n", a.Subcategory)
	if a.Counterparty != "" {
		fmt.Fprintf(w, "counterparty: %s\n", a.Counterparty)
	}
	if a.Message != "" {
		fmt.Fprintf(w, "message:      %s\n", a.Message)
	}
}
