package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/repositories"
)

// ProtocolLibraryService exposes the protocol reference as a read-only
// library: the raw table for browsing and the search index for lookup.
type ProtocolLibraryService struct {
	repo       repositories.ProtocolRepository
	searchRepo repositories.ProtocolSearchRepository
}

// NewProtocolLibraryService creates a new protocol library service.
func NewProtocolLibraryService(repo repositories.ProtocolRepository, searchRepo repositories.ProtocolSearchRepository) *ProtocolLibraryService {
	return &ProtocolLibraryService{
		repo:       repo,
		searchRepo: searchRepo,
	}
}

// List returns every protocol in reference order.
func (s *ProtocolLibraryService) List(ctx context.Context) ([]*entities.Protocol, error) {
	table, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	return table.Protocols(), nil
}

// GetByName looks up a protocol case-insensitively.
func (s *ProtocolLibraryService) GetByName(ctx context.Context, name string) (*entities.Protocol, error) {
	return s.repo.GetByName(ctx, name)
}

// Search queries the search index, falling back to source order on an empty
// query when no index is configured.
func (s *ProtocolLibraryService) Search(ctx context.Context, params repositories.ProtocolSearchParams) ([]*entities.Protocol, error) {
	if s.searchRepo == nil {
		return s.List(ctx)
	}
	return s.searchRepo.Search(ctx, params)
}

// Reindex pushes the current reference table into the search index.
func (s *ProtocolLibraryService) Reindex(ctx context.Context) (int, error) {
	if s.searchRepo == nil {
		return 0, nil
	}
	table, err := s.repo.Load(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.searchRepo.IndexAll(ctx, table); err != nil {
		return 0, err
	}
	log.Info().Int("protocols", table.Len()).Msg("Reindexed protocol library")
	return table.Len(), nil
}
