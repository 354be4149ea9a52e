package providers

import (
	"context"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
)

// DraftProvider defines a provider that drafts an initial recommendation for a
// patient case. The draft is untrusted input to the override resolver.
type DraftProvider interface {
	DraftRecommendation(ctx context.Context, c *entities.PatientCase, table *entities.ProtocolTable, renalGuidance string) (*entities.DraftRecommendation, error)

	// Model reports the model identifier used for drafting, for audit records.
	Model() string
}
