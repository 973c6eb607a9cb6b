package markets

import (
	"context"
	"fmt"
	"time"

	"github.com/mselser95/polyshark/pkg/cache"
)

// CachedMetadataClient wraps MetadataClient with caching. Tick sizes and
// minimum order sizes change rarely, so a long TTL is fine.
type CachedMetadataClient struct {
	client *MetadataClient
	cache  cache.Cache
	ttl    time.Duration
}

// NewCachedMetadataClient creates a new cached metadata client.
func NewCachedMetadataClient(client *MetadataClient, metadataCache cache.Cache) *CachedMetadataClient {
	return &CachedMetadataClient{
		client: client,
		cache:  metadataCache,
		ttl:    24 * time.Hour,
	}
}

// Fetch returns token metadata, consulting the cache first.
func (c *CachedMetadataClient) Fetch(ctx context.Context, tokenID string) (TokenMetadata, error) {
	MetadataLookupsTotal.Inc()

	cacheKey := fmt.Sprintf("metadata:%s", tokenID)

	if c.cache != nil {
		if cached, ok := c.cache.Get(cacheKey); ok {
			if meta, ok := cached.(*TokenMetadata); ok {
				MetadataCacheHitsTotal.Inc()
				return *meta, nil
			}
		}
		MetadataCacheMissesTotal.Inc()
	}

	meta, err := c.client.Fetch(ctx, tokenID)
	if err != nil {
		return meta, err
	}

	if c.cache != nil {
		cached := meta
		c.cache.Set(cacheKey, &cached, c.ttl)
	}

	return meta, nil
}
