package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/frahmantamala/dealership-crm/internal/cloudsync"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Move rows between the local cache and the cloud",
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Copy every cloud table into the local cache (cloud wins)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(func(ctx context.Context, e *cloudsync.Engine) (*cloudsync.Report, error) {
			return e.Pull(ctx)
		})
	},
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Copy every local table to the cloud (local wins)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(func(ctx context.Context, e *cloudsync.Engine) (*cloudsync.Report, error) {
			return e.Push(ctx)
		})
	},
}

var syncTableCmd = &cobra.Command{
	Use:   "table [name]",
	Short: "Pull a single table, by local or cloud name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(func(ctx context.Context, e *cloudsync.Engine) (*cloudsync.Report, error) {
			return e.PullTable(ctx, args[0])
		})
	},
}

func runSync(run func(context.Context, *cloudsync.Engine) (*cloudsync.Report, error)) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap(ctx, true)
	if err != nil {
		return err
	}
	defer app.Close()

	report, err := run(ctx, app.Engine)
	if report != nil {
		printReport(report)
	}
	if err != nil {
		return err
	}
	return report.Err()
}

func printReport(r *cloudsync.Report) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tread\twritten\tfailed\terror\n", r.Direction)
	for _, t := range r.Tables {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", t.Table, t.Read, t.Written, t.Failed, t.Error)
	}
	fmt.Fprintf(w, "total\t\t%d\t%d\t%s\n", r.Written(), r.Failed(), r.Duration)
	_ = w.Flush()
}

func init() {
	syncCmd.AddCommand(syncPullCmd)
	syncCmd.AddCommand(syncPushCmd)
	syncCmd.AddCommand(syncTableCmd)
}
