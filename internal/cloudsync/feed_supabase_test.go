package cloudsync_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/frahmantamala/dealership-crm/internal"
	"github.com/frahmantamala/dealership-crm/internal/cloudsync"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type phxFrame struct {
	Topic   string         `json:"topic"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
	Ref     *string        `json:"ref"`
}

// fakeRealtime speaks enough of the Phoenix channel protocol to accept one
// join, then pushes the configured changes.
type fakeRealtime struct {
	mu         sync.Mutex
	query      string
	joins      []phxFrame
	heartbeats int
	rejectJoin bool
	changes    []map[string]any
}

func (f *fakeRealtime) handler(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.CloseNow()
	ctx := r.Context()

	f.mu.Lock()
	f.query = r.URL.RawQuery
	f.mu.Unlock()

	for {
		var frame phxFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return
		}

		switch frame.Event {
		case "phx_join":
			f.mu.Lock()
			f.joins = append(f.joins, frame)
			reject := f.rejectJoin
			f.mu.Unlock()

			status := "ok"
			if reject {
				status = "error"
			}
			_ = wsjson.Write(ctx, conn, map[string]any{
				"topic":   frame.Topic,
				"event":   "phx_reply",
				"payload": map[string]any{"status": status, "response": map[string]any{}},
				"ref":     frame.Ref,
			})
			if reject {
				return
			}
			for _, data := range f.changes {
				_ = wsjson.Write(ctx, conn, map[string]any{
					"topic":   frame.Topic,
					"event":   "postgres_changes",
					"payload": map[string]any{"data": data, "ids": []int{1}},
					"ref":     nil,
				})
			}

		case "heartbeat":
			f.mu.Lock()
			f.heartbeats++
			f.mu.Unlock()
			_ = wsjson.Write(ctx, conn, map[string]any{
				"topic":   "phoenix",
				"event":   "phx_reply",
				"payload": map[string]any{"status": "ok", "response": map[string]any{}},
				"ref":     frame.Ref,
			})
		}
	}
}

func (f *fakeRealtime) joinCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.joins)
}

func (f *fakeRealtime) heartbeatCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.heartbeats
}

var _ = Describe("SupabaseFeed", func() {
	var (
		fake   *fakeRealtime
		server *httptest.Server
		cfg    internal.RealtimeConfig
	)

	BeforeEach(func() {
		fake = &fakeRealtime{}
		server = httptest.NewServer(http.HandlerFunc(fake.handler))
		cfg = internal.RealtimeConfig{
			Enabled:           true,
			Driver:            "supabase",
			URL:               server.URL + "/realtime/v1",
			APIKey:            "anon-key",
			Channel:           "crm",
			HeartbeatInterval: 20 * time.Millisecond,
			ReconnectBase:     10 * time.Millisecond,
			ReconnectMax:      50 * time.Millisecond,
		}
	})

	AfterEach(func() {
		server.Close()
	})

	subscribe := func(feed *cloudsync.SupabaseFeed) (chan cloudsync.Change, context.CancelFunc, chan error) {
		ctx, cancel := context.WithCancel(context.Background())
		received := make(chan cloudsync.Change, 10)
		done := make(chan error, 1)
		go func() {
			done <- feed.Subscribe(ctx, []string{"visitas", "estoque"}, func(_ context.Context, ch cloudsync.Change) {
				received <- ch
			})
		}()
		return received, cancel, done
	}

	It("joins the channel and delivers postgres changes", func() {
		fake.changes = []map[string]any{
			{"type": "INSERT", "schema": "public", "table": "visitas", "record": map[string]any{"id": "v1", "cliente": "Ana"}},
			{"type": "DELETE", "schema": "public", "table": "estoque", "old_record": map[string]any{"id": "e1"}},
		}

		feed, err := cloudsync.NewSupabaseFeed(cfg, quietLogger)
		Expect(err).NotTo(HaveOccurred())
		received, cancel, done := subscribe(feed)

		var first, second cloudsync.Change
		Eventually(received).Should(Receive(&first))
		Eventually(received).Should(Receive(&second))
		Expect(first.Type).To(Equal(cloudsync.ChangeInsert))
		Expect(first.Record).To(HaveKeyWithValue("cliente", "Ana"))
		Expect(second.Type).To(Equal(cloudsync.ChangeDelete))
		Expect(second.OldRecord).To(HaveKeyWithValue("id", "e1"))

		Eventually(fake.heartbeatCount).Should(BeNumerically(">=", 1))

		fake.mu.Lock()
		join := fake.joins[0]
		query := fake.query
		fake.mu.Unlock()
		Expect(query).To(ContainSubstring("apikey=anon-key"))
		Expect(query).To(ContainSubstring("vsn=1.0.0"))
		Expect(join.Topic).To(Equal("realtime:crm"))
		config := join.Payload["config"].(map[string]any)
		Expect(config["postgres_changes"]).To(HaveLen(2))

		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})

	It("reconnects after the server rejects the join", func() {
		fake.rejectJoin = true

		feed, err := cloudsync.NewSupabaseFeed(cfg, quietLogger)
		Expect(err).NotTo(HaveOccurred())
		_, cancel, done := subscribe(feed)

		Eventually(fake.joinCount, time.Second).Should(BeNumerically(">=", 2))
		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})

	It("rejects unsupported url schemes", func() {
		cfg.URL = "ftp://example.com"
		_, err := cloudsync.NewSupabaseFeed(cfg, quietLogger)
		Expect(err).To(HaveOccurred())
	})
})
