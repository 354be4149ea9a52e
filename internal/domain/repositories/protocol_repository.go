package repositories

import (
	"context"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
)

// ProtocolRepository defines the interface for loading the protocol reference
type ProtocolRepository interface {
	// Load returns the full protocol reference table
	Load(ctx context.Context) (*entities.ProtocolTable, error)

	// GetByName retrieves a single protocol by its name
	GetByName(ctx context.Context, name string) (*entities.Protocol, error)
}

// ProtocolSearchRepository defines the interface for protocol search operations (e.g. Typesense)
type ProtocolSearchRepository interface {
	// Search searches protocols by free text over names, indications and notes
	Search(ctx context.Context, params ProtocolSearchParams) ([]*entities.Protocol, error)

	// Index indexes a protocol
	Index(ctx context.Context, protocol *entities.Protocol) error

	// IndexAll indexes a full reference table in one batch
	IndexAll(ctx context.Context, table *entities.ProtocolTable) error

	// Delete removes a protocol from the index
	Delete(ctx context.Context, name string) error
}

// ProtocolSearchParams defines parameters for protocol search
type ProtocolSearchParams struct {
	Query      string
	IVContrast string
	Limit      int
	Offset     int
}
