// Package detect handles the statement format detection command
package detect

import (
	"fmt"
	"io"

	"banka/ingest/cmd/common"
	"banka/ingest/cmd/root"
	"banka/ingest/internal/factory"
	"banka/ingest/internal/logging"
	"banka/ingest/internal/sheet"

	"github.com/spf13/cobra"
)

// Cmd represents the detect command
var Cmd = &cobra.Command{
	Use:   "detect [files...]",
	Short: "Detect the source of statement files",
	Long:  `Detect whether each statement file comes from Ibercaja, Revolut or Pluxee, without decoding it.`,
	RunE:  detectFunc,
}

func detectFunc(cmd *cobra.Command, args []string) error {
	files, err := common.Inputs(args, root.SharedFlags.Input)
	if err != nil {
		return err
	}
	return run(cmd.OutOrStdout(), files, root.Log)
}

// run prints one "file<TAB>source" line per file. Unrecognized files are
// reported inline; the first failure is returned after all files are seen.
func run(w io.Writer, files []string, log logging.Logger) error {
	var firstErr error
	for _, f := range files {
		source, err := detectFile(f)
		if err != nil {
			log.WithError(err).Warn("Detection failed", logging.F(logging.FieldFile, f))
			fmt.Fprintf(w, "%s\terror: %v\n", f, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", f, source)
	}
	return firstErr
}

func detectFile(path string) (string, error) {
	sh, err := sheet.ReadFile(path)
	if err != nil {
		return "", err
	}
	source, err := factory.Detect(sh)
	if err != nil {
		return "", err
	}
	return string(source), nil
}
