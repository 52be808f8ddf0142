package cloudsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/dealership-crm/internal"
	"github.com/jackc/pgx/v5"
)

// PostgresFeed listens on the channel fed by the crm_notify_change trigger.
// It works against any Postgres, Supabase included, without the realtime
// service.
type PostgresFeed struct {
	dsn           string
	channel       string
	reconnectBase time.Duration
	reconnectMax  time.Duration
	logger        *slog.Logger
}

func NewPostgresFeed(dsn string, cfg internal.RealtimeConfig, logger *slog.Logger) *PostgresFeed {
	if logger == nil {
		logger = slog.Default()
	}
	channel := cfg.Channel
	if channel == "" {
		channel = "crm_changes"
	}
	return &PostgresFeed{
		dsn:           dsn,
		channel:       channel,
		reconnectBase: cfg.ReconnectBase,
		reconnectMax:  cfg.ReconnectMax,
		logger:        logger.With("feed", "postgres", "channel", channel),
	}
}

func (f *PostgresFeed) Subscribe(ctx context.Context, tables []string, handle func(context.Context, Change)) error {
	wanted := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		wanted[t] = struct{}{}
	}
	return reconnectLoop(ctx, f.reconnectBase, f.reconnectMax, f.logger, func(ctx context.Context) (bool, error) {
		return f.session(ctx, wanted, handle)
	})
}

func (f *PostgresFeed) session(ctx context.Context, wanted map[string]struct{}, handle func(context.Context, Change)) (bool, error) {
	conn, err := pgx.Connect(ctx, f.dsn)
	if err != nil {
		return false, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{f.channel}.Sanitize()); err != nil {
		return false, fmt.Errorf("listen: %w", err)
	}
	f.logger.Info("listening for cloud changes")

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return true, nil
			}
			return true, fmt.Errorf("wait for notification: %w", err)
		}

		ch, err := DecodeChange([]byte(n.Payload))
		if err != nil {
			f.logger.Warn("discarding malformed notification", "error", err)
			continue
		}
		if _, ok := wanted[ch.Table]; !ok {
			continue
		}
		handle(ctx, ch)
	}
}
