package reference

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/providers"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/repositories"
	apperrors "github.com/ethan-saco/radiololgy-ct-protocoling/pkg/errors"
)

// CachedProtocolRepository wraps a protocol repository with the byte cache.
// The table is treated as immutable for the process lifetime, so a stale hit
// inside the TTL is acceptable.
type CachedProtocolRepository struct {
	inner      repositories.ProtocolRepository
	cache      providers.CacheProvider
	cacheKey   string
	ttlSeconds int
}

// NewCachedProtocolRepository creates a cached wrapper keyed by the absolute
// source path, so two processes pointed at the same file share entries.
func NewCachedProtocolRepository(inner repositories.ProtocolRepository, cache providers.CacheProvider, sourcePath string, ttlSeconds int) repositories.ProtocolRepository {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		abs = sourcePath
	}
	if ttlSeconds <= 0 {
		ttlSeconds = 300
	}
	return &CachedProtocolRepository{
		inner:      inner,
		cache:      cache,
		cacheKey:   "reference:protocols:" + abs,
		ttlSeconds: ttlSeconds,
	}
}

// Load returns the reference table, from cache when possible.
func (r *CachedProtocolRepository) Load(ctx context.Context) (*entities.ProtocolTable, error) {
	if cached, err := r.cache.Get(ctx, r.cacheKey); err == nil {
		var protocols []*entities.Protocol
		if err := json.Unmarshal(cached, &protocols); err == nil && len(protocols) > 0 {
			return entities.NewProtocolTable(protocols), nil
		}
		log.Warn().Str("key", r.cacheKey).Msg("Failed to unmarshal cached protocol reference")
	}

	table, err := r.inner.Load(ctx)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously to avoid blocking the response
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(table.Protocols()); err == nil {
			if err := r.cache.Set(bgCtx, r.cacheKey, data, r.ttlSeconds); err != nil {
				log.Warn().Err(err).Str("key", r.cacheKey).Msg("Failed to cache protocol reference")
			}
		}
	}()

	return table, nil
}

// GetByName looks up one protocol through the cached table.
func (r *CachedProtocolRepository) GetByName(ctx context.Context, name string) (*entities.Protocol, error) {
	table, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := table.GetByName(name)
	if !ok {
		return nil, apperrors.NewNotFoundError("protocol not found: " + name)
	}
	return p, nil
}
