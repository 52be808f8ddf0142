package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() interface{}
}

type BaseEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) EventID() string {
	return e.ID
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

func (e BaseEvent) Payload() interface{} {
	return e.Data
}

type Handler func(ctx context.Context, event Event) error

// Publisher is what services need from the bus.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// EventBus is an in-process pub/sub. Publish fans out on goroutines that
// outlive the publishing request, so handlers get a detached context.
// Inline handlers run on the publisher's goroutine before the fan-out and
// must not block.
type EventBus struct {
	handlers map[string][]Handler
	inline   map[string][]Handler
	logger   *slog.Logger
	mu       sync.RWMutex
	inflight sync.WaitGroup
}

func NewEventBus(logger *slog.Logger) *EventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBus{
		handlers: make(map[string][]Handler),
		inline:   make(map[string][]Handler),
		logger:   logger,
	}
}

func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.logger.Debug("event handler registered",
		"event_type", eventType,
		"total_handlers", len(eb.handlers[eventType]))
}

// SubscribeInline registers a handler that sees events in publish order.
func (eb *EventBus) SubscribeInline(eventType string, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.inline[eventType] = append(eb.inline[eventType], handler)
	eb.logger.Debug("inline event handler registered", "event_type", eventType)
}

func (eb *EventBus) handlersFor(eventType string) (inline, async []Handler) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return eb.inline[eventType], eb.handlers[eventType]
}

// Publish runs inline handlers, then starts the others in the background.
// Only inline handler errors are returned.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	inline, handlers := eb.handlersFor(event.EventType())
	if len(inline) == 0 && len(handlers) == 0 {
		eb.logger.Debug("no handlers for event type", "event_type", event.EventType())
		return nil
	}

	eb.logger.Debug("publishing event",
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"handlers_count", len(inline)+len(handlers))

	var inlineErr error
	for _, handler := range inline {
		if err := eb.run(ctx, handler, event); err != nil && inlineErr == nil {
			inlineErr = fmt.Errorf("handler failed for event %s: %w", event.EventType(), err)
		}
	}

	detached := context.WithoutCancel(ctx)
	for _, handler := range handlers {
		eb.inflight.Add(1)
		go func(h Handler) {
			defer eb.inflight.Done()
			eb.run(detached, h, event)
		}(handler)
	}

	return inlineErr
}

func (eb *EventBus) PublishSync(ctx context.Context, event Event) error {
	inline, handlers := eb.handlersFor(event.EventType())
	if len(inline) == 0 && len(handlers) == 0 {
		eb.logger.Debug("no handlers for event type", "event_type", event.EventType())
		return nil
	}

	for _, handler := range append(append([]Handler(nil), inline...), handlers...) {
		if err := eb.run(ctx, handler, event); err != nil {
			return fmt.Errorf("handler failed for event %s: %w", event.EventType(), err)
		}
	}

	return nil
}

// Wait blocks until handlers started by Publish have returned.
func (eb *EventBus) Wait() {
	eb.inflight.Wait()
}

func (eb *EventBus) run(ctx context.Context, h Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			eb.logger.Error("event handler panicked",
				"event_type", event.EventType(),
				"event_id", event.EventID(),
				"panic", r)
		}
	}()

	if err = h(ctx, event); err != nil {
		eb.logger.Error("event handler failed",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"error", err)
	}
	return err
}
