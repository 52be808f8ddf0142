package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sethvargo/go-retry"
	"go.uber.org/atomic"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// Change is one row event from a cloud change feed. Column names are cloud
// names.
type Change struct {
	Type      ChangeType     `json:"type"`
	Schema    string         `json:"schema,omitempty"`
	Table     string         `json:"table"`
	Record    map[string]any `json:"record"`
	OldRecord map[string]any `json:"old_record"`
}

// DecodeChange parses a change payload as sent by the notify trigger.
func DecodeChange(payload []byte) (Change, error) {
	var ch Change
	if err := json.Unmarshal(payload, &ch); err != nil {
		return Change{}, fmt.Errorf("decode change: %w", err)
	}
	ch.Type = ChangeType(strings.ToUpper(string(ch.Type)))
	if ch.Table == "" {
		return Change{}, errors.New("decode change: missing table")
	}
	return ch, nil
}

// Feed delivers cloud changes for the given tables until ctx is done.
type Feed interface {
	Subscribe(ctx context.Context, tables []string, handle func(context.Context, Change)) error
}

// TablePuller refreshes a whole table, used when a change arrives without
// its row.
type TablePuller interface {
	PullTable(ctx context.Context, name string) (*Report, error)
}

// Mirror applies cloud changes to the local cache.
type Mirror struct {
	local    *gorm.DB
	registry *Registry
	lock     *Lock
	puller   TablePuller
	storeID  string
	logger   *slog.Logger

	applied *atomic.Int64
	ignored *atomic.Int64
}

func NewMirror(local *gorm.DB, registry *Registry, lock *Lock, puller TablePuller, storeID string, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{
		local:    local,
		registry: registry,
		lock:     lock,
		puller:   puller,
		storeID:  storeID,
		logger:   logger,
		applied:  atomic.NewInt64(0),
		ignored:  atomic.NewInt64(0),
	}
}

// Apply mirrors one change. Changes seen while a push holds the lock are
// dropped; the lock counts them.
func (m *Mirror) Apply(ctx context.Context, ch Change) error {
	if m.lock.Held() {
		m.lock.noteSkipped()
		m.logger.Debug("realtime change skipped during push", "table", ch.Table, "type", ch.Type)
		return nil
	}

	t, err := m.registry.Lookup(ch.Table)
	if err != nil {
		m.ignored.Inc()
		m.logger.Debug("realtime change for unknown table", "table", ch.Table)
		return nil
	}

	switch ch.Type {
	case ChangeInsert, ChangeUpdate:
		if ch.Record == nil {
			return m.refresh(ctx, t)
		}
		row := t.ToLocal(ch.Record)
		key, ok := t.KeyOf(row)
		if !ok {
			return fmt.Errorf("%s change on %s without key", ch.Type, t.Local)
		}
		if !m.inStore(t, row) {
			return m.dropMoved(ctx, t, key)
		}
		if err := upsert(ctx, m.local, t.Local, t.Key, []map[string]any{row}); err != nil {
			return fmt.Errorf("mirror %s %s/%s: %w", ch.Type, t.Local, key, err)
		}

	case ChangeDelete:
		old := t.ToLocal(ch.OldRecord)
		key, ok := t.KeyOf(old)
		if !ok {
			return fmt.Errorf("DELETE change on %s without key", t.Local)
		}
		if err := deleteRow(ctx, m.local, t.Local, t.Key, key); err != nil {
			return fmt.Errorf("mirror DELETE %s/%s: %w", t.Local, key, err)
		}

	default:
		m.ignored.Inc()
		m.logger.Debug("realtime change with unknown type", "table", ch.Table, "type", ch.Type)
		return nil
	}

	m.applied.Inc()
	return nil
}

// dropMoved removes a local row whose store changed to one this install
// does not mirror. Rows that were never local are just ignored.
func (m *Mirror) dropMoved(ctx context.Context, t *Table, key string) error {
	res := m.local.WithContext(ctx).Exec("DELETE FROM ? WHERE ? = ?",
		clause.Table{Name: t.Local}, clause.Column{Name: t.Key}, key)
	if res.Error != nil {
		return fmt.Errorf("drop %s/%s moved to another store: %w", t.Local, key, res.Error)
	}
	if res.RowsAffected == 0 {
		m.ignored.Inc()
		return nil
	}
	m.logger.Info("row moved to another store, removed locally", "table", t.Local, "key", key)
	m.applied.Inc()
	return nil
}

func (m *Mirror) refresh(ctx context.Context, t *Table) error {
	if m.puller == nil {
		return fmt.Errorf("change on %s carried no row", t.Local)
	}
	m.logger.Info("realtime change without row, pulling table", "table", t.Local)
	report, err := m.puller.PullTable(ctx, t.Local)
	if err != nil {
		return err
	}
	if err := report.Err(); err != nil {
		return err
	}
	m.applied.Inc()
	return nil
}

func (m *Mirror) inStore(t *Table, row map[string]any) bool {
	if t.StoreColumn == "" || m.storeID == "" {
		return true
	}
	v, ok := row[t.StoreColumn]
	if !ok || v == nil {
		return true
	}
	return fmt.Sprint(v) == m.storeID
}

func (m *Mirror) Applied() int64 {
	return m.applied.Load()
}

func (m *Mirror) Ignored() int64 {
	return m.ignored.Load()
}

// Listener connects a feed to the mirror.
type Listener struct {
	feed     Feed
	mirror   *Mirror
	registry *Registry
	logger   *slog.Logger
	failed   *atomic.Int64
}

func NewListener(feed Feed, mirror *Mirror, registry *Registry, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		feed:     feed,
		mirror:   mirror,
		registry: registry,
		logger:   logger,
		failed:   atomic.NewInt64(0),
	}
}

// Run blocks until ctx is done or the feed gives up.
func (l *Listener) Run(ctx context.Context) error {
	tables := l.registry.CloudNames()
	l.logger.Info("realtime listener starting", "tables", tables)

	err := l.feed.Subscribe(ctx, tables, func(ctx context.Context, ch Change) {
		if err := l.mirror.Apply(ctx, ch); err != nil {
			l.failed.Inc()
			l.logger.Error("failed to mirror realtime change",
				"table", ch.Table,
				"type", ch.Type,
				"error", err)
		}
	})

	l.logger.Info("realtime listener stopped",
		"applied", l.mirror.Applied(),
		"ignored", l.mirror.Ignored(),
		"failed", l.failed.Load())
	return err
}

func (l *Listener) Failed() int64 {
	return l.failed.Load()
}

// reconnectLoop runs session until ctx is done. The backoff restarts after a
// session that got as far as subscribing.
func reconnectLoop(ctx context.Context, base, ceiling time.Duration, logger *slog.Logger, session func(context.Context) (bool, error)) error {
	if base <= 0 {
		base = time.Second
	}
	if ceiling <= 0 {
		ceiling = time.Minute
	}
	newBackoff := func() retry.Backoff {
		b := retry.NewExponential(base)
		b = retry.WithJitterPercent(10, b)
		return retry.WithCappedDuration(ceiling, b)
	}

	b := newBackoff()
	for {
		subscribed, err := session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if subscribed {
			b = newBackoff()
		}
		wait, stop := b.Next()
		if stop {
			return err
		}
		logger.Warn("realtime connection lost, reconnecting", "error", err, "retry_in", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}
