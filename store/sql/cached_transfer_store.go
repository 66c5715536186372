package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-dataflow/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const transferCacheKeyPrefix = "go-dataflow::transfer::v1"

// CachedTransferStore serves record reads from a cache and drops the cached
// entry on every save.
type CachedTransferStore struct {
	base  core.TransferStore
	cache repositorycache.CacheService
}

func NewCachedTransferStore(
	base core.TransferStore,
	cacheService repositorycache.CacheService,
) (*CachedTransferStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base transfer store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: transfer cache service is required")
	}
	return &CachedTransferStore{base: base, cache: cacheService}, nil
}

// TransferCacheKey returns go-dataflow::transfer::v1::<request id> with the
// id URL-path escaped.
func TransferCacheKey(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("sqlstore: transfer id is required")
	}
	return transferCacheKeyPrefix + "::" + url.PathEscape(id), nil
}

func (s *CachedTransferStore) Get(ctx context.Context, id string) (core.TransferRecord, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.TransferRecord{}, fmt.Errorf("sqlstore: cached transfer store is not configured")
	}
	cacheKey, err := TransferCacheKey(id)
	if err != nil {
		return core.TransferRecord{}, err
	}
	record, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.TransferRecord, error) {
		fetched, fetchErr := s.base.Get(ctx, strings.TrimSpace(id))
		if fetchErr != nil {
			return core.TransferRecord{}, fetchErr
		}
		return fetched.Clone(), nil
	})
	if err != nil {
		return core.TransferRecord{}, err
	}
	return record.Clone(), nil
}

func (s *CachedTransferStore) Save(ctx context.Context, record core.TransferRecord) (core.TransferRecord, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.TransferRecord{}, fmt.Errorf("sqlstore: cached transfer store is not configured")
	}
	saved, err := s.base.Save(ctx, record)
	if err != nil {
		return core.TransferRecord{}, err
	}
	cacheKey, err := TransferCacheKey(saved.ID)
	if err != nil {
		return core.TransferRecord{}, err
	}
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		return core.TransferRecord{}, err
	}
	return saved, nil
}

func (s *CachedTransferStore) List(ctx context.Context, filter core.TransferFilter) ([]core.TransferRecord, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("sqlstore: cached transfer store is not configured")
	}
	return s.base.List(ctx, filter)
}
