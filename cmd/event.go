package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/dealership-crm/internal/cloudsync"
	"github.com/frahmantamala/dealership-crm/internal/core/events"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish record events through the same bus and pusher the server uses`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [record.saved|record.deleted] [table] [key]",
	Short: "Publish a record event and push it to the cloud",
	Long: `Publish a record event as if the row had just been written locally. The
pusher picks it up and upserts or deletes the cloud row.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishRecordEvent(args[0], args[1], args[2])
	},
}

func publishRecordEvent(eventType, table, key string) error {
	var event *events.RecordEvent
	switch eventType {
	case events.EventTypeRecordSaved:
		event = events.NewRecordSavedEvent(table, key)
	case events.EventTypeRecordDeleted:
		event = events.NewRecordDeletedEvent(table, key)
	default:
		return fmt.Errorf("unknown event type %q", eventType)
	}

	ctx := context.Background()
	app, err := bootstrap(ctx, true)
	if err != nil {
		return err
	}
	defer app.Close()
	logger := app.Logger

	if _, err := app.Registry.Lookup(table); err != nil {
		return err
	}

	pusher := cloudsync.NewPusher(app.Engine, cloudsync.PusherConfig{Workers: 1, QueueSize: 1, Timeout: app.Config.Cloud.Timeout}, logger)
	pusher.Register(app.Bus)

	logger.Info("publishing record event", "event_type", eventType, "event_id", event.EventID(), "table", table, "key", key)
	if err := app.Bus.PublishSync(ctx, event); err != nil {
		pusher.Shutdown()
		return fmt.Errorf("failed to publish event: %w", err)
	}

	drainCtx, cancel := context.WithTimeout(ctx, app.Config.Cloud.Timeout+5*time.Second)
	defer cancel()
	if err := pusher.Drain(drainCtx); err != nil {
		return fmt.Errorf("push did not finish: %w", err)
	}
	pushed, failed := pusher.Stats()
	logger.Info("record event handled", "pushed", pushed, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("push of %s/%s failed", table, key)
	}
	return nil
}

func init() {
	eventCmd.AddCommand(publishEventCmd)
}
