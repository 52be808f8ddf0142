package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/dealership-crm/internal/core/events"
	"go.uber.org/atomic"
)

var ErrQueueFull = errors.New("push queue full")

// Job pushes or deletes one cloud row after a local commit.
type Job struct {
	Table  string
	Key    string
	Delete bool
}

// RecordPusher is the part of the engine the pusher drives.
type RecordPusher interface {
	PushRecord(ctx context.Context, table, key string) error
	DeleteRecord(ctx context.Context, table, key string) error
}

type worker struct {
	id     int
	jobs   chan Job
	logger *slog.Logger
}

func newWorker(id, size int, logger *slog.Logger) *worker {
	return &worker{
		id:     id,
		jobs:   make(chan Job, size),
		logger: logger,
	}
}

func (w *worker) start(ctx context.Context, wg *sync.WaitGroup, process func(Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case job := <-w.jobs:
				w.logger.Debug("worker processing job", "worker_id", w.id, "table", job.Table, "key", job.Key)
				process(job)
			case <-ctx.Done():
				w.logger.Debug("worker shutting down", "worker_id", w.id)
				return
			}
		}
	}()
}

type PusherConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// Pusher sends local writes to the cloud in the background. A failed push
// is logged and counted; the local write it follows has already succeeded.
// Jobs for one row always land on the same worker, so they reach the cloud in
// the order they were enqueued.
type Pusher struct {
	target  RecordPusher
	timeout time.Duration
	logger  *slog.Logger
	bus     *events.EventBus

	jobQueue   chan Job
	workers    []*worker
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once

	pushed  *atomic.Int64
	failed  *atomic.Int64
	pending *atomic.Int64
}

func NewPusher(target RecordPusher, config PusherConfig, logger *slog.Logger) *Pusher {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.Workers
	if maxWorkers <= 0 {
		maxWorkers = 2
	}
	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	p := &Pusher{
		target:     target,
		timeout:    timeout,
		logger:     logger,
		jobQueue:   make(chan Job, queueSize),
		maxWorkers: maxWorkers,
		ctx:        ctx,
		cancel:     cancel,
		pushed:     atomic.NewInt64(0),
		failed:     atomic.NewInt64(0),
		pending:    atomic.NewInt64(0),
	}
	p.start()
	return p
}

func (p *Pusher) start() {
	p.once.Do(func() {
		for i := 0; i < p.maxWorkers; i++ {
			w := newWorker(i, cap(p.jobQueue), p.logger)
			w.start(p.ctx, &p.wg, p.process)
			p.workers = append(p.workers, w)
		}

		p.wg.Add(1)
		go p.dispatch()

		p.logger.Info("cloud pusher started",
			"workers", p.maxWorkers,
			"queue_size", cap(p.jobQueue))
	})
}

func (p *Pusher) dispatch() {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobQueue:
			select {
			case p.workers[p.shard(job)].jobs <- job:
			case <-p.ctx.Done():
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// shard picks the worker owning a row. Keys are folded so "Ana" and "ana"
// share a worker.
func (p *Pusher) shard(job Job) int {
	h := fnv.New32a()
	h.Write([]byte(job.Table))
	h.Write([]byte{'/'})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(job.Key))))
	return int(h.Sum32() % uint32(len(p.workers)))
}

// Enqueue never blocks. A full queue drops the job with ErrQueueFull.
func (p *Pusher) Enqueue(job Job) error {
	if p.ctx.Err() != nil {
		return fmt.Errorf("pusher stopped: %w", p.ctx.Err())
	}
	p.pending.Inc()
	select {
	case p.jobQueue <- job:
		return nil
	default:
		p.pending.Dec()
		p.failed.Inc()
		p.logger.Warn("push queue full, dropping job",
			"table", job.Table,
			"key", job.Key,
			"queue_capacity", cap(p.jobQueue))
		return ErrQueueFull
	}
}

func (p *Pusher) process(job Job) {
	defer p.pending.Dec()
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()

	var err error
	if job.Delete {
		err = p.target.DeleteRecord(ctx, job.Table, job.Key)
	} else {
		err = p.target.PushRecord(ctx, job.Table, job.Key)
	}
	if err != nil {
		p.failed.Inc()
		p.logger.Error("cloud push failed",
			"table", job.Table,
			"key", job.Key,
			"delete", job.Delete,
			"error", err)
		return
	}
	p.pushed.Inc()
	p.logger.Debug("cloud push done", "table", job.Table, "key", job.Key, "delete", job.Delete)
}

// Register subscribes the pusher to local write events. The handler runs
// inline so jobs are queued in publish order.
func (p *Pusher) Register(bus *events.EventBus) {
	p.bus = bus
	bus.SubscribeInline(events.EventTypeRecordSaved, p.HandleRecordEvent)
	bus.SubscribeInline(events.EventTypeRecordDeleted, p.HandleRecordEvent)
}

func (p *Pusher) HandleRecordEvent(_ context.Context, event events.Event) error {
	ev, ok := event.(*events.RecordEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", event)
	}
	return p.Enqueue(Job{
		Table:  ev.Table,
		Key:    ev.Key,
		Delete: ev.EventType() == events.EventTypeRecordDeleted,
	})
}

// Stats returns the number of jobs pushed and failed so far.
func (p *Pusher) Stats() (pushed, failed int64) {
	return p.pushed.Load(), p.failed.Load()
}

// Shutdown stops the workers. Jobs still queued are dropped.
func (p *Pusher) Shutdown() {
	p.logger.Info("shutting down cloud pusher", "pending", len(p.jobQueue))
	p.cancel()
	p.wg.Wait()
	p.logger.Info("cloud pusher shutdown complete")
}

// Drain waits for in-flight bus handlers, then for queued and running jobs,
// and shuts the pusher down.
func (p *Pusher) Drain(ctx context.Context) error {
	if p.bus != nil {
		settled := make(chan struct{})
		go func() {
			p.bus.Wait()
			close(settled)
		}()
		select {
		case <-settled:
		case <-ctx.Done():
			p.Shutdown()
			return ctx.Err()
		}
	}

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for p.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			p.Shutdown()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	p.Shutdown()
	return nil
}
