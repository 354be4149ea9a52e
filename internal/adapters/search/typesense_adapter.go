package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/repositories"
	tsclient "github.com/ethan-saco/radiololgy-ct-protocoling/internal/infrastructure/clients/typesense"
)

const collectionName = tsclient.ProtocolsCollection

// TypesenseAdapter implements protocol library search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements ProtocolSearchRepository
var _ repositories.ProtocolSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the protocols collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	// Check if collection exists
	_, err := a.client.Client().Collection(collectionName).Retrieve(ctx)
	if err == nil {
		return nil // Collection exists
	}

	schema := &api.CollectionSchema{
		Name: collectionName,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "iv_contrast", Type: "string", Facet: pointer.True()},
			{Name: "oral_contrast", Type: "string", Facet: pointer.True()},
			{Name: "acquisitions", Type: "string", Optional: pointer.True()},
			{Name: "indications", Type: "string", Optional: pointer.True()},
			{Name: "notes", Type: "string", Optional: pointer.True()},
			{Name: "tags", Type: "string[]", Optional: pointer.True()},
		},
	}

	_, err = a.client.Client().Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}

	return nil
}

// DropCollection deletes the protocols collection. Used by the indexer's
// -reset mode before a full re-index.
func (a *TypesenseAdapter) DropCollection(ctx context.Context) error {
	_, err := a.client.Client().Collection(collectionName).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop typesense collection: %w", err)
	}
	return nil
}

// Index indexes a protocol. The document is keyed by the protocol name, so
// re-indexing the same reference is idempotent.
func (a *TypesenseAdapter) Index(ctx context.Context, protocol *entities.Protocol) error {
	_, err := a.client.Client().Collection(collectionName).Documents().Upsert(ctx, protocolDocument(protocol))
	if err != nil {
		return fmt.Errorf("failed to index protocol %q: %w", protocol.Name, err)
	}
	return nil
}

// IndexAll indexes a full reference table.
func (a *TypesenseAdapter) IndexAll(ctx context.Context, table *entities.ProtocolTable) error {
	for _, p := range table.Protocols() {
		if err := a.Index(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a protocol from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, name string) error {
	_, err := a.client.Client().Collection(collectionName).Document(documentID(name)).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete protocol from index: %w", err)
	}
	return nil
}

// Search searches protocols by free text
func (a *TypesenseAdapter) Search(ctx context.Context, params repositories.ProtocolSearchParams) ([]*entities.Protocol, error) {
	query := strings.TrimSpace(params.Query)
	if query == "" {
		query = "*"
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("name,indications,notes,tags"),
		Page:    pointer.Int(params.Offset/limit + 1),
		PerPage: pointer.Int(limit),
	}
	if params.IVContrast != "" {
		searchParams.FilterBy = pointer.String(fmt.Sprintf("iv_contrast:=%q", params.IVContrast))
	}

	result, err := a.client.Client().Collection(collectionName).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search protocols: %w", err)
	}

	protocols := []*entities.Protocol{}
	if result.Hits == nil {
		return protocols, nil
	}
	for _, hit := range *result.Hits {
		doc := *hit.Document
		protocols = append(protocols, protocolFromDocument(doc))
	}

	return protocols, nil
}

// documentID derives a stable document key from the protocol name.
func documentID(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	id = strings.ReplaceAll(id, "/", "-")
	return strings.ReplaceAll(id, " ", "-")
}

func protocolDocument(p *entities.Protocol) map[string]interface{} {
	return map[string]interface{}{
		"id":            documentID(p.Name),
		"name":          p.Name,
		"iv_contrast":   p.IVContrast,
		"oral_contrast": p.OralContrast,
		"acquisitions":  p.Acquisitions,
		"indications":   p.Indications,
		"notes":         p.Notes,
		"tags":          p.IndicationTokens(),
	}
}

// protocolFromDocument reconstructs the entity from a search hit.
// Typesense returns map[string]interface{}, so every field is cast safely.
func protocolFromDocument(doc map[string]interface{}) *entities.Protocol {
	str := func(key string) string {
		if v, ok := doc[key].(string); ok {
			return v
		}
		return ""
	}
	return &entities.Protocol{
		Name:         str("name"),
		IVContrast:   str("iv_contrast"),
		OralContrast: str("oral_contrast"),
		Acquisitions: str("acquisitions"),
		Indications:  str("indications"),
		Notes:        str("notes"),
	}
}
