// Package transfers handles the internal transfer report command
package transfers

import (
	"context"
	"fmt"
	"io"
	"sort"

	"banka/ingest/cmd/root"
	"banka/ingest/internal/common"
	"banka/ingest/internal/config"
	"banka/ingest/internal/currencyutils"
	"banka/ingest/internal/logging"
	"banka/ingest/internal/models"
	"banka/ingest/internal/transfers"
	"banka/ingest/internal/txstore"

	"github.com/spf13/cobra"
)

var userID string

// Cmd represents the transfers command
var Cmd = &cobra.Command{
	Use:   "transfers [canonical.csv]",
	Short: "Report internal transfers and latest balances",
	Long: `Report transfers between the tracked own accounts and the latest balance
of every account. Rows come from a canonical CSV file, or from the store for
the accounts linked to --user when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: transfersFunc,
}

func init() {
	Cmd.Flags().StringVarP(&userID, "user", "u", "", "Read the accounts linked to this user from the store (default $BANKA_USER_ID)")
}

func transfersFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	input := root.SharedFlags.Input
	if len(args) == 1 {
		input = args[0]
	}

	if input != "" {
		rows, err := common.ReadTransactionsCSV(input, c.GetConfig().Delimiter(), c.GetLogger())
		if err != nil {
			return err
		}
		report(cmd.OutOrStdout(), c.GetTransferDetector(), rows)
		return nil
	}

	user := userID
	if user == "" {
		user = config.GetEnv("BANKA_USER_ID", "")
	}
	if user == "" {
		return fmt.Errorf("no input given: pass a canonical CSV file or --user")
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

	return reportForUser(ctx, cmd.OutOrStdout(), store, user, c.GetLogger())
}

// reportForUser tracks exactly the accounts linked to user.
func reportForUser(ctx context.Context, w io.Writer, store txstore.Store, user string, log logging.Logger) error {
	linked, err := store.LinkedAccounts(ctx, user)
	if err != nil {
		return err
	}
	keys := make([]string, len(linked))
	for i, a := range linked {
		keys[i] = a.Key
	}
	if len(keys) == 0 {
		fmt.Fprintf(w, "no accounts linked to %s\n", user)
		return nil
	}
	rows, err := store.Fetch(ctx, keys)
	if err != nil {
		return err
	}
	log.Debug("Loaded stored transactions",
		logging.F(logging.FieldUser, user),
		logging.F(logging.FieldCount, len(rows)))

	fmt.Fprintln(w, "linked accounts:")
	for _, a := range linked {
		if a.Shared {
			fmt.Fprintf(w, "%s\t%s\tshared\n", a.DisplayName, a.Key)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", a.DisplayName, a.Key)
	}
	report(w, transfers.NewDetectorForAccounts(linked, log), rows)
	return nil
}

func report(w io.Writer, d *transfers.Detector, rows []models.Transaction) {
	pairs := d.Annotate(rows)
	fmt.Fprintf(w, "internal transfers: %d\n", len(pairs))
	for _, p := range pairs {
		fmt.Fprintf(w, "%s\t%s\t%s -> %s\t%s | %s\n",
			p.Outflow.Day(),
			currencyutils.FormatAmount(p.Inflow.Amount),
			p.Outflow.Account,
			p.Inflow.Account,
			p.Outflow.Description,
			p.Inflow.Description)
	}

	balances := transfers.LatestBalances(rows)
	names := make([]string, 0, len(balances))
	for name := range balances {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "latest balances:")
	for _, name := range names {
		b := balances[name]
		fmt.Fprintf(w, "%s\t%s\n", name, currencyutils.FormatAmount(b))
	}
}
