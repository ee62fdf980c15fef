package entities

import (
	"time"

	"github.com/google/uuid"
)

// SyncEventType represents the lifecycle stage of an adapter sync
type SyncEventType string

const (
	SyncEventTypeStarted   SyncEventType = "sync_started"
	SyncEventTypeCompleted SyncEventType = "sync_completed"
	SyncEventTypeFailed    SyncEventType = "sync_failed"
)

// SyncEvent is published for every adapter boundary so ops consumers can
// follow a batch run without tailing log files.
type SyncEvent struct {
	ID        string        `json:"id"`
	RunID     string        `json:"run_id"`
	Adapter   string        `json:"adapter"`
	EventType SyncEventType `json:"event_type"`
	Timestamp time.Time     `json:"timestamp"`
	Inserted  int           `json:"inserted"`
	Skipped   int           `json:"skipped"`
	Error     string        `json:"error,omitempty"`
}

// NewSyncEvent creates a new sync event
func NewSyncEvent(runID, adapter string, eventType SyncEventType) *SyncEvent {
	return &SyncEvent{
		ID:        uuid.NewString(),
		RunID:     runID,
		Adapter:   adapter,
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
