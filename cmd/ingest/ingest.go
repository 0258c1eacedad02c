// Package ingest handles the statement ingestion command
package ingest

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"banka/ingest/cmd/common"
	"banka/ingest/cmd/root"
	"banka/ingest/internal/config"
	"banka/ingest/internal/fileutils"
	"banka/ingest/internal/ingest"
	"banka/ingest/internal/logging"
	"banka/ingest/internal/parsererror"

	"github.com/spf13/cobra"
)

var userID string

// Cmd represents the ingest command
var Cmd = &cobra.Command{
	Use:   "ingest [files or directories...]",
	Short: "Ingest statements into the transaction store",
	Long: `Ingest statements into the transaction store. Rows whose id is already
stored are skipped, so uploading the same or an overlapping statement again
is safe. Without a database URL an in-memory store is used (dry run).`,
	RunE: ingestFunc,
}

func init() {
	Cmd.Flags().StringVarP(&userID, "user", "u", "", "User to link ingested accounts to (default $BANKA_USER_ID)")
}

func ingestFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	files, err := common.Inputs(args, root.SharedFlags.Input)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := c.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	user := userID
	if user == "" {
		user = config.GetEnv("BANKA_USER_ID", "")
	}
	return run(ctx, cmd.OutOrStdout(), c.NewIngestService(store), files, user, c.GetLogger())
}

// run ingests every file in order. A failed file does not stop the others;
// the first error is returned once all files were tried. Files the decoders
// refuse are reported as rejected, anything else as an error.
func run(ctx context.Context, w io.Writer, svc *ingest.Service, files []string, user string, log logging.Logger) error {
	var firstErr error
	total := 0
	for _, f := range files {
		data, err := fileutils.ReadFile(f)
		if err == nil {
			var sum *ingest.Summary
			sum, err = svc.Ingest(ctx, ingest.Upload{Name: filepath.Base(f), Data: data, UserID: user})
			if err == nil {
				total += sum.Inserted
				printSummary(w, f, sum)
				continue
			}
		}
		if parsererror.IsInputError(err) {
			log.WithError(err).Warn("Statement rejected", logging.F(logging.FieldFile, f))
			fmt.Fprintf(w, "%s: rejected: %v\n", f, err)
		} else {
			log.WithError(err).Error("Failed to ingest statement", logging.F(logging.FieldFile, f))
			fmt.Fprintf(w, "%s: error: %v\n", f, err)
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	fmt.Fprintf(w, "inserted %d new transactions from %d files\n", total, len(files))
	return firstErr
}

func printSummary(w io.Writer, path string, sum *ingest.Summary) {
	fmt.Fprintf(w, "%s: %s account %q (%s): received %d, inserted %d, already stored %d\n",
		path, sum.Source, sum.DisplayName, sum.AccountKey, sum.Received, sum.Inserted, sum.Duplicates)
}
