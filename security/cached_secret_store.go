package security

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-dataflow/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const secretCacheKeyPrefix = "go-dataflow::secret::v1"

// CachedSecretStore memoises resolved secrets in a go-repository-cache
// service. Cached values live in process memory for the cache TTL.
type CachedSecretStore struct {
	base  core.SecretStore
	cache repositorycache.CacheService
}

func NewCachedSecretStore(base core.SecretStore, cacheService repositorycache.CacheService) (*CachedSecretStore, error) {
	if base == nil {
		return nil, fmt.Errorf("security: base secret store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("security: secret cache service is required")
	}
	return &CachedSecretStore{base: base, cache: cacheService}, nil
}

func SecretCacheKey(key string) string {
	return secretCacheKeyPrefix + "::" + url.PathEscape(strings.TrimSpace(key))
}

func (s *CachedSecretStore) ResolveSecret(ctx context.Context, key string) (string, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return "", fmt.Errorf("security: cached secret store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("security: secret key is required")
	}
	return repositorycache.GetOrFetch(ctx, s.cache, SecretCacheKey(key), func(ctx context.Context) (string, error) {
		return s.base.ResolveSecret(ctx, key)
	})
}

// Invalidate drops a cached secret so the next resolution reaches the base
// store.
func (s *CachedSecretStore) Invalidate(ctx context.Context, key string) error {
	if s == nil || s.cache == nil {
		return fmt.Errorf("security: cached secret store is not configured")
	}
	return s.cache.Delete(ctx, SecretCacheKey(key))
}

var _ core.SecretStore = (*CachedSecretStore)(nil)
