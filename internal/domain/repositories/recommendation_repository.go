package repositories

import (
	"context"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
)

// RecommendationRepository defines the interface for recommendation record persistence
type RecommendationRepository interface {
	// Save persists a completed recommendation record
	Save(ctx context.Context, record *entities.RecommendationRecord) error

	// GetByID retrieves a record by its ID
	GetByID(ctx context.Context, id string) (*entities.RecommendationRecord, error)

	// ListByStudy retrieves all records for a study, newest first
	ListByStudy(ctx context.Context, studyID string) ([]*entities.RecommendationRecord, error)

	// ListRecent retrieves the most recent records
	ListRecent(ctx context.Context, filter RecommendationFilter) ([]*entities.RecommendationRecord, error)

	// ListFlagged retrieves sentinel records needing manual review, newest first
	ListFlagged(ctx context.Context, filter RecommendationFilter) ([]*entities.RecommendationRecord, error)
}

// RecommendationFilter defines filters for listing recommendation records
type RecommendationFilter struct {
	Location string
	Priority int
	Limit    int
	Offset   int
}
