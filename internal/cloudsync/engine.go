package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/frahmantamala/dealership-crm/internal"
	"github.com/frahmantamala/dealership-crm/internal/core/events"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Options struct {
	StoreID     string
	BatchSize   int
	PruneOnPull bool
	MaxRetries  uint64
	RetryBase   time.Duration
	RetryCap    time.Duration
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 200
	}
	if o.RetryBase <= 0 {
		o.RetryBase = 500 * time.Millisecond
	}
	if o.RetryCap <= 0 {
		o.RetryCap = 10 * time.Second
	}
	return o
}

// Engine moves rows between the local cache and the cloud store. Pull lets
// the cloud win; Push lets the local cache win. Both rely on upsert order for
// conflicts.
type Engine struct {
	local    *gorm.DB
	cloud    *gorm.DB
	registry *Registry
	lock     *Lock
	bus      *events.EventBus
	opts     Options
	logger   *slog.Logger

	mu       sync.RWMutex
	lastPull *Report
	lastPush *Report
}

func NewEngine(local, cloud *gorm.DB, registry *Registry, lock *Lock, bus *events.EventBus, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		local:    local,
		cloud:    cloud,
		registry: registry,
		lock:     lock,
		bus:      bus,
		opts:     opts.withDefaults(),
		logger:   logger,
	}
}

func (e *Engine) Registry() *Registry {
	return e.registry
}

func (e *Engine) Lock() *Lock {
	return e.lock
}

// Pull copies every table from the cloud into the local cache. A failing
// table is recorded in the report and the next table is still pulled.
func (e *Engine) Pull(ctx context.Context) (*Report, error) {
	report := newReport(DirectionPull)
	for _, t := range e.registry.Tables() {
		if ctx.Err() != nil {
			break
		}
		report.add(e.pullTable(ctx, t))
	}
	report.finish()
	e.remember(report)

	e.logger.Info("pull finished",
		"tables", len(report.Tables),
		"written", report.Written(),
		"failed", report.Failed(),
		"duration", report.Duration)
	e.publish(ctx, report)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// PullTable pulls a single table, by local or cloud name.
func (e *Engine) PullTable(ctx context.Context, name string) (*Report, error) {
	t, err := e.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	report := newReport(DirectionPull)
	report.add(e.pullTable(ctx, t))
	report.finish()
	e.remember(report)
	e.publish(ctx, report)
	return report, nil
}

func (e *Engine) pullTable(ctx context.Context, t *Table) TableReport {
	tr := TableReport{Table: t.Local}
	seen := make(map[string]struct{})

	for offset := 0; ; offset += e.opts.BatchSize {
		var rows []map[string]any
		err := e.withRetry(ctx, func(ctx context.Context) error {
			rows = nil
			q := e.cloud.WithContext(ctx).Table(t.Cloud).
				Order(clause.OrderByColumn{Column: clause.Column{Name: t.CloudKey()}}).
				Limit(e.opts.BatchSize).
				Offset(offset)
			if t.StoreColumn != "" && e.opts.StoreID != "" {
				q = q.Where(clause.Eq{Column: clause.Column{Name: t.CloudColumn(t.StoreColumn)}, Value: e.opts.StoreID})
			}
			return q.Find(&rows).Error
		})
		if err != nil {
			tr.err = fmt.Errorf("read cloud: %w", err)
			e.logger.Error("pull table failed", "table", t.Local, "offset", offset, "error", err)
			return tr
		}
		tr.Read += len(rows)

		batch := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			local := t.ToLocal(row)
			key, ok := t.KeyOf(local)
			if !ok {
				tr.Failed++
				continue
			}
			seen[key] = struct{}{}
			batch = append(batch, local)
		}

		if err := upsert(ctx, e.local, t.Local, t.Key, batch); err != nil {
			tr.Failed += len(batch)
			tr.err = fmt.Errorf("write local: %w", err)
			e.logger.Error("pull table failed", "table", t.Local, "offset", offset, "error", err)
			return tr
		}
		tr.Written += len(batch)

		if len(rows) < e.opts.BatchSize {
			break
		}
	}

	if e.opts.PruneOnPull {
		pruned, err := e.prune(ctx, t, seen)
		tr.Pruned = pruned
		if err != nil {
			tr.err = fmt.Errorf("prune local: %w", err)
		}
	}
	return tr
}

// prune deletes local rows the cloud no longer has, within the store scope.
func (e *Engine) prune(ctx context.Context, t *Table, seen map[string]struct{}) (int, error) {
	var keys []string
	q := e.local.WithContext(ctx).Table(t.Local)
	if t.StoreColumn != "" && e.opts.StoreID != "" {
		q = q.Where(clause.Eq{Column: clause.Column{Name: t.StoreColumn}, Value: e.opts.StoreID})
	}
	if err := q.Pluck(t.Key, &keys).Error; err != nil {
		return 0, err
	}

	pruned := 0
	for _, k := range keys {
		if _, ok := seen[t.NormalizeKey(k)]; ok {
			continue
		}
		if err := deleteRow(ctx, e.local, t.Local, t.Key, k); err != nil {
			return pruned, err
		}
		pruned++
	}
	if pruned > 0 {
		e.logger.Info("pruned local rows missing from cloud", "table", t.Local, "count", pruned)
	}
	return pruned, nil
}

// Push copies every local table to the cloud. It holds the sync lock for the
// whole run and fails with ErrSyncInProgress if another push owns it.
func (e *Engine) Push(ctx context.Context) (*Report, error) {
	if !e.lock.TryAcquire() {
		return nil, internal.ErrSyncInProgress
	}
	defer e.lock.Release()

	report := newReport(DirectionPush)
	for _, t := range e.registry.Tables() {
		if ctx.Err() != nil {
			break
		}
		report.add(e.pushTable(ctx, t))
	}
	report.finish()
	e.remember(report)

	e.logger.Info("push finished",
		"tables", len(report.Tables),
		"written", report.Written(),
		"failed", report.Failed(),
		"duration", report.Duration)
	e.publish(ctx, report)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (e *Engine) pushTable(ctx context.Context, t *Table) TableReport {
	tr := TableReport{Table: t.Local}

	for offset := 0; ; offset += e.opts.BatchSize {
		var rows []map[string]any
		err := e.local.WithContext(ctx).Table(t.Local).
			Order(clause.OrderByColumn{Column: clause.Column{Name: t.Key}}).
			Limit(e.opts.BatchSize).
			Offset(offset).
			Find(&rows).Error
		if err != nil {
			tr.err = fmt.Errorf("read local: %w", err)
			return tr
		}
		tr.Read += len(rows)

		batch := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			if _, ok := t.KeyOf(row); !ok {
				tr.Failed++
				continue
			}
			batch = append(batch, e.cloudRow(t, row))
		}

		err = e.withRetry(ctx, func(ctx context.Context) error {
			return upsert(ctx, e.cloud, t.Cloud, t.CloudKey(), batch)
		})
		if err != nil {
			tr.Failed += len(batch)
			tr.err = fmt.Errorf("write cloud: %w", err)
			e.logger.Error("push table failed", "table", t.Local, "offset", offset, "error", err)
			return tr
		}
		tr.Written += len(batch)

		if len(rows) < e.opts.BatchSize {
			break
		}
	}
	return tr
}

// PushRecord upserts one local row into the cloud.
func (e *Engine) PushRecord(ctx context.Context, table, key string) error {
	t, err := e.registry.Lookup(table)
	if err != nil {
		return err
	}
	key = t.NormalizeKey(key)

	var rows []map[string]any
	err = e.local.WithContext(ctx).Table(t.Local).
		Where(t.localKeyMatch(key)).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return fmt.Errorf("read local %s/%s: %w", t.Local, key, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("read local %s/%s: %w", t.Local, key, gorm.ErrRecordNotFound)
	}

	row := e.cloudRow(t, rows[0])
	return e.withRetry(ctx, func(ctx context.Context) error {
		return upsert(ctx, e.cloud, t.Cloud, t.CloudKey(), []map[string]any{row})
	})
}

// DeleteRecord removes one row from the cloud.
func (e *Engine) DeleteRecord(ctx context.Context, table, key string) error {
	t, err := e.registry.Lookup(table)
	if err != nil {
		return err
	}
	key = t.NormalizeKey(key)
	return e.withRetry(ctx, func(ctx context.Context) error {
		return deleteRow(ctx, e.cloud, t.Cloud, t.CloudKey(), key)
	})
}

// cloudRow remaps a local row and stamps the configured store on rows that
// were created before a store was assigned.
func (e *Engine) cloudRow(t *Table, row map[string]any) map[string]any {
	if t.StoreColumn != "" && e.opts.StoreID != "" {
		if v, ok := row[t.StoreColumn]; !ok || v == nil || v == "" {
			row[t.StoreColumn] = e.opts.StoreID
		}
	}
	return t.ToCloud(row)
}

type Status struct {
	Locked        bool       `json:"locked"`
	LockedSince   *time.Time `json:"locked_since,omitempty"`
	SkippedEvents int64      `json:"skipped_events"`
	LastPull      *Report    `json:"last_pull,omitempty"`
	LastPush      *Report    `json:"last_push,omitempty"`
}

func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st := Status{
		Locked:        e.lock.Held(),
		SkippedEvents: e.lock.Skipped(),
		LastPull:      e.lastPull,
		LastPush:      e.lastPush,
	}
	if since := e.lock.HeldSince(); !since.IsZero() {
		st.LockedSince = &since
	}
	return st
}

func (e *Engine) remember(r *Report) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r.Direction == DirectionPush {
		e.lastPush = r
		return
	}
	e.lastPull = r
}

func (e *Engine) publish(ctx context.Context, r *Report) {
	if e.bus == nil {
		return
	}
	ev := events.NewSyncCompletedEvent(r.Direction, len(r.Tables), r.Written(), r.Failed(), r.Duration)
	if err := e.bus.Publish(ctx, ev); err != nil {
		e.logger.Warn("failed to publish sync event", "direction", r.Direction, "error", err)
	}
}

func (e *Engine) withRetry(ctx context.Context, op func(context.Context) error) error {
	b := retry.NewExponential(e.opts.RetryBase)
	b = retry.WithJitterPercent(20, b)
	b = retry.WithCappedDuration(e.opts.RetryCap, b)
	b = retry.WithMaxRetries(e.opts.MaxRetries, b)

	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		e.logger.Debug("cloud operation failed", "attempt", attempt, "error", err)
		return retry.RetryableError(err)
	})
}

// upsert writes rows with ON CONFLICT (key) DO UPDATE. Only columns present
// in the batch are updated, so a partial row never blanks other columns.
func upsert(ctx context.Context, db *gorm.DB, table, key string, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}

	present := make(map[string]struct{})
	for _, row := range rows {
		for c := range row {
			if c != key {
				present[c] = struct{}{}
			}
		}
	}
	updates := make([]string, 0, len(present))
	for c := range present {
		updates = append(updates, c)
	}
	sort.Strings(updates)

	onConflict := clause.OnConflict{Columns: []clause.Column{{Name: key}}}
	if len(updates) == 0 {
		onConflict.DoNothing = true
	} else {
		onConflict.DoUpdates = clause.AssignmentColumns(updates)
	}

	// gorm builds the column list from the first map.
	for _, row := range rows {
		for _, c := range updates {
			if _, ok := row[c]; !ok {
				row[c] = nil
			}
		}
	}

	return db.WithContext(ctx).Table(table).Clauses(onConflict).Create(&rows).Error
}

func deleteRow(ctx context.Context, db *gorm.DB, table, key string, value any) error {
	return db.WithContext(ctx).Exec("DELETE FROM ? WHERE ? = ?",
		clause.Table{Name: table}, clause.Column{Name: key}, value).Error
}
