package providers

import (
	"context"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
)

// ReviewNotifier defines the interface for alerting the review queue about
// recommendations that need human attention.
type ReviewNotifier interface {
	// NotifyFlagged sends a review alert for a sentinel record
	NotifyFlagged(ctx context.Context, record *entities.RecommendationRecord) error

	// IsEnabled reports whether the notifier is configured to send
	IsEnabled() bool
}
