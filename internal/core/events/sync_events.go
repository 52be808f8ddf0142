package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeRecordSaved   = "record.saved"
	EventTypeRecordDeleted = "record.deleted"
	EventTypePullCompleted = "sync.pull.completed"
	EventTypePushCompleted = "sync.push.completed"
)

// RecordEvent is published after a local write has been committed.
type RecordEvent struct {
	BaseEvent
	Table string `json:"table"`
	Key   string `json:"key"`
}

func NewRecordSavedEvent(table, key string) *RecordEvent {
	return newRecordEvent(EventTypeRecordSaved, table, key)
}

func NewRecordDeletedEvent(table, key string) *RecordEvent {
	return newRecordEvent(EventTypeRecordDeleted, table, key)
}

func newRecordEvent(eventType, table, key string) *RecordEvent {
	return &RecordEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"table": table,
				"key":   key,
			},
		},
		Table: table,
		Key:   key,
	}
}

type SyncCompletedEvent struct {
	BaseEvent
	Direction string        `json:"direction"`
	Tables    int           `json:"tables"`
	Written   int           `json:"written"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

func NewSyncCompletedEvent(direction string, tables, written, failed int, duration time.Duration) *SyncCompletedEvent {
	eventType := EventTypePullCompleted
	if direction == "push" {
		eventType = EventTypePushCompleted
	}
	return &SyncCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"direction": direction,
				"tables":    tables,
				"written":   written,
				"failed":    failed,
				"duration":  duration.String(),
			},
		},
		Direction: direction,
		Tables:    tables,
		Written:   written,
		Failed:    failed,
		Duration:  duration,
	}
}
