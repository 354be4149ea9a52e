package providers

import (
	"context"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.RecommendationEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.RecommendationEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelCompleted carries every finalized recommendation
	EventChannelCompleted = "recommendations.completed"

	// EventChannelFlagged carries sentinel results needing manual review
	EventChannelFlagged = "recommendations.flagged"
)
