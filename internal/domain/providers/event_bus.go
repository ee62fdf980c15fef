package providers

import (
	"context"

	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to sync events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.SyncEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.SyncEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelSync is the channel carrying TPA sync lifecycle events
const EventChannelSync = "tpa:sync"

// GetAdapterChannel returns the channel name for a specific TPA adapter
func GetAdapterChannel(adapter string) string {
	return EventChannelSync + ":" + adapter
}
