// Package convert handles statement to canonical CSV conversion
package convert

import (
	"io"

	"banka/ingest/cmd/common"
	"banka/ingest/cmd/root"
	"banka/ingest/internal/container"

	"github.com/spf13/cobra"
)

var source string

// Cmd represents the convert command
var Cmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert a statement to canonical CSV",
	Long: `Convert an Ibercaja, Revolut or Pluxee statement into canonical CSV rows
with ids and categories. Output goes to --output or stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: convertFunc,
}

func init() {
	Cmd.Flags().StringVarP(&source, "source", "s", "", "Force the statement source (Ibercaja, Revolut, Pluxee)")
}

func convertFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	input := root.SharedFlags.Input
	if len(args) == 1 {
		input = args[0]
	}
	return run(cmd.OutOrStdout(), c, input, root.SharedFlags.Output, source)
}

func run(w io.Writer, c *container.Container, input, output, source string) error {
	res, err := common.DecodeFile(c, input, source)
	if err != nil {
		return err
	}
	return common.WriteResult(w, output, res, c)
}
