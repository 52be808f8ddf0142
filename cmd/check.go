package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/frahmantamala/dealership-crm/internal/cloudsync"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var (
	checkStoreID string
	checkKeys    int
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Compare row counts and keys between the local cache and the cloud",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		app, err := bootstrap(ctx, true)
		if err != nil {
			return err
		}
		defer app.Close()

		localSQL, err := app.Local.DB()
		if err != nil {
			return err
		}
		cloudSQL, err := app.Cloud.DB()
		if err != nil {
			return err
		}

		storeID := checkStoreID
		if storeID == "" {
			storeID = app.Config.Sync.StoreID
		}

		diffs := cloudsync.Diff(ctx,
			sqlx.NewDb(localSQL, "sqlite3"),
			sqlx.NewDb(cloudSQL, "pgx"),
			app.Registry, storeID)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "table\tlocal\tcloud\tonly local\tonly cloud")
		diverged := 0
		for _, d := range diffs {
			if !d.InSync() {
				diverged++
			}
			if d.LocalError != "" || d.CloudError != "" {
				fmt.Fprintf(w, "%s\t%s\t%s\t\t\n", d.Table, orDash(d.LocalError), orDash(d.CloudError))
				continue
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n", d.Table, d.LocalRows, d.CloudRows,
				sample(d.OnlyLocal, checkKeys), sample(d.OnlyCloud, checkKeys))
		}
		_ = w.Flush()

		if diverged > 0 {
			return fmt.Errorf("%d table(s) out of sync", diverged)
		}
		return nil
	},
}

func sample(keys []string, n int) string {
	if len(keys) == 0 {
		return "-"
	}
	if n > 0 && len(keys) > n {
		return fmt.Sprintf("%s (+%d)", strings.Join(keys[:n], ","), len(keys)-n)
	}
	return strings.Join(keys, ",")
}

func orDash(s string) string {
	if s == "" {
		return "ok"
	}
	return s
}

func init() {
	checkCmd.Flags().StringVar(&checkStoreID, "loja", "", "limit cloud rows to one store (defaults to sync.store_id)")
	checkCmd.Flags().IntVar(&checkKeys, "keys", 5, "how many differing keys to print per table, 0 for all")
}
