package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var realtimeCmd = &cobra.Command{
	Use:   "realtime",
	Short: "Mirror cloud changes into the local cache until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := bootstrap(ctx, true)
		if err != nil {
			return err
		}
		defer app.Close()

		listener, err := app.newListener()
		if err != nil {
			return err
		}
		if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}
