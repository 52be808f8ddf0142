package cloudsync_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/frahmantamala/dealership-crm/internal/cloudsync"
	"github.com/frahmantamala/dealership-crm/internal/core/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingTarget struct {
	mu    sync.Mutex
	log   []string
	err   error
	block chan struct{}
	// pushDelay stands in for a slow cloud upsert.
	pushDelay time.Duration
}

func (t *recordingTarget) record(ctx context.Context, entry string) error {
	if t.block != nil {
		select {
		case <-t.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.log = append(t.log, entry)
	return t.err
}

func (t *recordingTarget) PushRecord(ctx context.Context, table, key string) error {
	if t.pushDelay > 0 {
		time.Sleep(t.pushDelay)
	}
	return t.record(ctx, fmt.Sprintf("push %s/%s", table, key))
}

func (t *recordingTarget) DeleteRecord(ctx context.Context, table, key string) error {
	return t.record(ctx, fmt.Sprintf("delete %s/%s", table, key))
}

func (t *recordingTarget) calls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.log...)
}

var _ = Describe("Pusher", func() {
	It("sends record events to the engine", func() {
		target := &recordingTarget{}
		pusher := cloudsync.NewPusher(target, cloudsync.PusherConfig{Workers: 2, QueueSize: 8}, quietLogger)
		defer pusher.Shutdown()

		Expect(pusher.Enqueue(cloudsync.Job{Table: "visitas", Key: "v1"})).To(Succeed())
		Expect(pusher.Enqueue(cloudsync.Job{Table: "visitas", Key: "v2", Delete: true})).To(Succeed())

		Eventually(func() int64 {
			pushed, _ := pusher.Stats()
			return pushed
		}).Should(Equal(int64(2)))
		Expect(target.calls()).To(ConsistOf("push visitas/v1", "delete visitas/v2"))
	})

	It("keeps the order of jobs for the same row", func() {
		target := &recordingTarget{pushDelay: 100 * time.Millisecond}
		pusher := cloudsync.NewPusher(target, cloudsync.PusherConfig{Workers: 4, QueueSize: 8}, quietLogger)
		defer pusher.Shutdown()

		Expect(pusher.Enqueue(cloudsync.Job{Table: "visitas", Key: "v1"})).To(Succeed())
		Expect(pusher.Enqueue(cloudsync.Job{Table: "visitas", Key: "v1", Delete: true})).To(Succeed())
		Expect(pusher.Enqueue(cloudsync.Job{Table: "usuarios", Key: "Ana"})).To(Succeed())
		Expect(pusher.Enqueue(cloudsync.Job{Table: "usuarios", Key: "ana", Delete: true})).To(Succeed())

		Eventually(target.calls, 2*time.Second).Should(HaveLen(4))
		calls := target.calls()
		Expect(indexOf(calls, "push visitas/v1")).To(BeNumerically("<", indexOf(calls, "delete visitas/v1")))
		Expect(indexOf(calls, "push usuarios/Ana")).To(BeNumerically("<", indexOf(calls, "delete usuarios/ana")))
	})

	It("counts failures without surfacing them", func() {
		target := &recordingTarget{err: errors.New("cloud down")}
		pusher := cloudsync.NewPusher(target, cloudsync.PusherConfig{Workers: 1, QueueSize: 1}, quietLogger)
		defer pusher.Shutdown()

		Expect(pusher.Enqueue(cloudsync.Job{Table: "estoque", Key: "e1"})).To(Succeed())
		Eventually(func() int64 {
			_, failed := pusher.Stats()
			return failed
		}).Should(Equal(int64(1)))
	})

	It("rejects jobs when the queue is full", func() {
		block := make(chan struct{})
		target := &recordingTarget{block: block}
		pusher := cloudsync.NewPusher(target, cloudsync.PusherConfig{Workers: 1, QueueSize: 1}, quietLogger)
		defer pusher.Shutdown()
		defer close(block)

		var err error
		Eventually(func() error {
			err = pusher.Enqueue(cloudsync.Job{Table: "config", Key: "k"})
			return err
		}, time.Second, time.Millisecond).Should(MatchError(cloudsync.ErrQueueFull))
	})
})

var _ = Describe("Pusher drain", func() {
	It("waits for queued jobs before shutting down", func() {
		target := &recordingTarget{}
		pusher := cloudsync.NewPusher(target, cloudsync.PusherConfig{Workers: 1, QueueSize: 8}, quietLogger)

		for _, key := range []string{"a", "b", "c"} {
			Expect(pusher.Enqueue(cloudsync.Job{Table: "config", Key: key})).To(Succeed())
		}
		Expect(pusher.Drain(context.Background())).To(Succeed())

		Expect(target.calls()).To(HaveLen(3))
		Expect(pusher.Enqueue(cloudsync.Job{Table: "config", Key: "late"})).To(HaveOccurred())
	})

	It("waits for bus handlers still running", func() {
		target := &recordingTarget{}
		pusher := cloudsync.NewPusher(target, cloudsync.PusherConfig{Workers: 1, QueueSize: 8}, quietLogger)
		bus := events.NewEventBus(quietLogger)
		pusher.Register(bus)
		bus.Subscribe(events.EventTypeRecordSaved, func(_ context.Context, _ events.Event) error {
			time.Sleep(50 * time.Millisecond)
			return pusher.Enqueue(cloudsync.Job{Table: "config", Key: "late"})
		})

		Expect(bus.Publish(context.Background(), events.NewRecordSavedEvent("config", "k"))).To(Succeed())
		Expect(pusher.Drain(context.Background())).To(Succeed())

		Expect(target.calls()).To(Equal([]string{"push config/k", "push config/late"}))
	})

	It("gives up when the context ends first", func() {
		block := make(chan struct{})
		defer close(block)
		target := &recordingTarget{block: block}
		pusher := cloudsync.NewPusher(target, cloudsync.PusherConfig{Workers: 1, QueueSize: 2}, quietLogger)

		Expect(pusher.Enqueue(cloudsync.Job{Table: "config", Key: "k"})).To(Succeed())
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		Expect(pusher.Drain(ctx)).To(MatchError(context.DeadlineExceeded))
	})
})

var _ = Describe("Pusher event wiring", func() {
	It("enqueues saved and deleted record events", func() {
		target := &recordingTarget{}
		pusher := cloudsync.NewPusher(target, cloudsync.PusherConfig{Workers: 1, QueueSize: 4}, quietLogger)
		defer pusher.Shutdown()

		bus := events.NewEventBus(quietLogger)
		pusher.Register(bus)

		Expect(bus.PublishSync(context.Background(), events.NewRecordSavedEvent("usuarios", "ana"))).To(Succeed())
		Expect(bus.PublishSync(context.Background(), events.NewRecordDeletedEvent("estoque", "e1"))).To(Succeed())

		Eventually(target.calls).Should(ConsistOf("push usuarios/ana", "delete estoque/e1"))
	})

	It("pushes a save and a later delete of one row in order", func() {
		target := &recordingTarget{pushDelay: 100 * time.Millisecond}
		pusher := cloudsync.NewPusher(target, cloudsync.PusherConfig{Workers: 2, QueueSize: 4}, quietLogger)
		defer pusher.Shutdown()

		bus := events.NewEventBus(quietLogger)
		pusher.Register(bus)

		Expect(bus.Publish(context.Background(), events.NewRecordSavedEvent("visitas", "v1"))).To(Succeed())
		Expect(bus.Publish(context.Background(), events.NewRecordDeletedEvent("visitas", "v1"))).To(Succeed())

		Eventually(target.calls, 2*time.Second).Should(Equal([]string{"push visitas/v1", "delete visitas/v1"}))
	})

	It("rejects foreign events", func() {
		pusher := cloudsync.NewPusher(&recordingTarget{}, cloudsync.PusherConfig{}, quietLogger)
		defer pusher.Shutdown()

		err := pusher.HandleRecordEvent(context.Background(), events.NewSyncCompletedEvent("pull", 1, 1, 0, time.Second))
		Expect(err).To(HaveOccurred())
	})
})

func indexOf(calls []string, entry string) int {
	for i, c := range calls {
		if c == entry {
			return i
		}
	}
	return -1
}
