package cloudsync

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/frahmantamala/dealership-crm/internal"
	"github.com/goccy/go-json"
	"go.uber.org/atomic"
)

const (
	phxJoin      = "phx_join"
	phxReply     = "phx_reply"
	phxError     = "phx_error"
	phxClose     = "phx_close"
	phxHeartbeat = "heartbeat"
	pgChanges    = "postgres_changes"
)

// SupabaseFeed subscribes to Postgres changes through a Supabase Realtime
// channel (Phoenix protocol v1 over a websocket).
type SupabaseFeed struct {
	endpoint      string
	apiKey        string
	topic         string
	heartbeat     time.Duration
	reconnectBase time.Duration
	reconnectMax  time.Duration
	logger        *slog.Logger
	ref           *atomic.Int64
}

func NewSupabaseFeed(cfg internal.RealtimeConfig, logger *slog.Logger) (*SupabaseFeed, error) {
	if logger == nil {
		logger = slog.Default()
	}
	endpoint, err := realtimeEndpoint(cfg.URL, cfg.APIKey)
	if err != nil {
		return nil, err
	}
	channel := cfg.Channel
	if channel == "" {
		channel = "crm_changes"
	}
	return &SupabaseFeed{
		endpoint:      endpoint,
		apiKey:        cfg.APIKey,
		topic:         "realtime:" + channel,
		heartbeat:     cfg.HeartbeatInterval,
		reconnectBase: cfg.ReconnectBase,
		reconnectMax:  cfg.ReconnectMax,
		logger:        logger.With("feed", "supabase"),
		ref:           atomic.NewInt64(0),
	}, nil
}

func realtimeEndpoint(raw, apiKey string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse realtime url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported realtime url scheme %q", u.Scheme)
	}
	if !strings.HasSuffix(u.Path, "/websocket") {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/websocket"
	}
	q := u.Query()
	q.Set("apikey", apiKey)
	q.Set("vsn", "1.0.0")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type phxOutbound struct {
	Topic   string `json:"topic"`
	Event   string `json:"event"`
	Payload any    `json:"payload"`
	Ref     string `json:"ref"`
	JoinRef string `json:"join_ref,omitempty"`
}

type phxInbound struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     *string         `json:"ref"`
}

type phxReplyPayload struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

type postgresChangesPayload struct {
	Data struct {
		Type      string         `json:"type"`
		Schema    string         `json:"schema"`
		Table     string         `json:"table"`
		Record    map[string]any `json:"record"`
		OldRecord map[string]any `json:"old_record"`
	} `json:"data"`
}

func (f *SupabaseFeed) Subscribe(ctx context.Context, tables []string, handle func(context.Context, Change)) error {
	return reconnectLoop(ctx, f.reconnectBase, f.reconnectMax, f.logger, func(ctx context.Context) (bool, error) {
		return f.session(ctx, tables, handle)
	})
}

func (f *SupabaseFeed) nextRef() string {
	return strconv.FormatInt(f.ref.Inc(), 10)
}

// session runs one websocket connection. It reports whether the channel join
// was accepted before the connection ended.
func (f *SupabaseFeed) session(ctx context.Context, tables []string, handle func(context.Context, Change)) (bool, error) {
	conn, _, err := websocket.Dial(ctx, f.endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("dial realtime: %w", err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(8 << 20)

	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	joinRef := f.nextRef()
	if err := wsjson.Write(sessCtx, conn, f.joinMessage(tables, joinRef)); err != nil {
		return false, fmt.Errorf("join realtime channel: %w", err)
	}

	go f.keepAlive(sessCtx, conn)

	joined := false
	for {
		_, data, err := conn.Read(sessCtx)
		if err != nil {
			if ctx.Err() != nil {
				conn.Close(websocket.StatusNormalClosure, "")
				return joined, nil
			}
			return joined, fmt.Errorf("read realtime: %w", err)
		}

		var msg phxInbound
		if err := json.Unmarshal(data, &msg); err != nil {
			f.logger.Warn("discarding malformed realtime message", "error", err)
			continue
		}

		switch msg.Event {
		case phxReply:
			if msg.Ref == nil || *msg.Ref != joinRef {
				continue
			}
			var reply phxReplyPayload
			if err := json.Unmarshal(msg.Payload, &reply); err != nil {
				return joined, fmt.Errorf("decode join reply: %w", err)
			}
			if reply.Status != "ok" {
				return false, fmt.Errorf("join %s rejected: %s", f.topic, string(reply.Response))
			}
			joined = true
			f.logger.Info("realtime channel joined", "topic", f.topic, "tables", len(tables))

		case pgChanges:
			var p postgresChangesPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				f.logger.Warn("discarding malformed change", "error", err)
				continue
			}
			handle(sessCtx, Change{
				Type:      ChangeType(strings.ToUpper(p.Data.Type)),
				Schema:    p.Data.Schema,
				Table:     p.Data.Table,
				Record:    p.Data.Record,
				OldRecord: p.Data.OldRecord,
			})

		case phxError, phxClose:
			if msg.Topic == f.topic {
				return joined, fmt.Errorf("channel %s ended by server: %s", f.topic, msg.Event)
			}

		default:
			f.logger.Debug("realtime message ignored", "event", msg.Event, "topic", msg.Topic)
		}
	}
}

func (f *SupabaseFeed) joinMessage(tables []string, ref string) phxOutbound {
	changes := make([]map[string]string, 0, len(tables))
	for _, t := range tables {
		changes = append(changes, map[string]string{
			"event":  "*",
			"schema": "public",
			"table":  t,
		})
	}
	return phxOutbound{
		Topic: f.topic,
		Event: phxJoin,
		Payload: map[string]any{
			"config": map[string]any{
				"broadcast":        map[string]bool{"self": false},
				"presence":         map[string]string{"key": ""},
				"postgres_changes": changes,
			},
			"access_token": f.apiKey,
		},
		Ref:     ref,
		JoinRef: ref,
	}
}

// keepAlive sends the phoenix heartbeat; the server drops silent sockets.
func (f *SupabaseFeed) keepAlive(ctx context.Context, conn *websocket.Conn) {
	interval := f.heartbeat
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msg := phxOutbound{
				Topic:   "phoenix",
				Event:   phxHeartbeat,
				Payload: map[string]any{},
				Ref:     f.nextRef(),
			}
			if err := wsjson.Write(ctx, conn, msg); err != nil {
				f.logger.Warn("realtime heartbeat failed", "error", err)
				return
			}
		}
	}
}
