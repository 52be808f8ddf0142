package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/dealership-crm/internal/cloudsync"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers that keep the local cache in step with the cloud`,
}

var syncWorkerCmd = &cobra.Command{
	Use:   "sync",
	Short: "Start the sync worker",
	Long:  `Pull on schedule and mirror realtime changes without serving the API`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startSyncWorker()
	},
}

var (
	pullSchedule string
	pullOnStart  bool
)

func startSyncWorker() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap(ctx, true)
	if err != nil {
		return err
	}
	defer app.Close()
	logger := app.Logger

	schedule := getStringFlag(pullSchedule, app.Config.Sync.PullSchedule)
	logger.Info("starting sync worker",
		"pull_schedule", schedule,
		"realtime", app.Config.Realtime.Enabled,
		"store_id", app.Config.Sync.StoreID)

	if pullOnStart {
		if _, err := app.Engine.Pull(ctx); err != nil {
			logger.Error("initial pull failed", "error", err)
		}
	}

	scheduler, err := cloudsync.NewScheduler(schedule, app.Engine, logger)
	if err != nil {
		return err
	}
	scheduler.Start(ctx)

	listenerDone := make(chan error, 1)
	if app.Config.Realtime.Enabled {
		listener, err := app.newListener()
		if err != nil {
			scheduler.Stop()
			return fmt.Errorf("failed to start realtime listener: %w", err)
		}
		go func() {
			listenerDone <- listener.Run(ctx)
		}()
	} else {
		close(listenerDone)
	}

	logger.Info("sync worker is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	logger.Info("received signal, shutting down sync worker")

	shutdownDone := make(chan struct{})
	go func() {
		scheduler.Stop()
		<-listenerDone
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		logger.Info("sync worker shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("shutdown timeout reached, forcing exit")
	}
	return nil
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func init() {
	syncWorkerCmd.Flags().StringVar(&pullSchedule, "schedule", "", "cron spec for the periodic pull (overrides config)")
	syncWorkerCmd.Flags().BoolVar(&pullOnStart, "pull-on-start", true, "run a full pull before the first tick")

	workerCmd.AddCommand(syncWorkerCmd)
}
