// internal/services/locator_cache_service.go
// Short-TTL memoization of GameLocator lookups, keyed by queue and the
// exact set of matched player ids. Only successful lookups are stored, and
// only after they return; concurrent in-flight lookups are not deduplicated.

package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"matchqueue/internal/locator"
)

// LocatorCacheService wraps a Locator with a short-lived cache, keyed by
// queue name and the flattened, sorted set of matched player ids.
type LocatorCacheService struct {
	locator *locator.Locator
	cache   *CacheService
	ttl     time.Duration
}

// NewLocatorCacheService builds a cache in front of loc, memoizing results
// in cache for ttl.
func NewLocatorCacheService(loc *locator.Locator, cache *CacheService, ttl time.Duration) *LocatorCacheService {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &LocatorCacheService{locator: loc, cache: cache, ttl: ttl}
}

// Find resolves teams to a server descriptor, short-circuiting to a
// cached result when an identical lookup was made within the TTL.
func (s *LocatorCacheService) Find(ctx context.Context, queueName string, teams [][]string) (*locator.GameDescriptor, error) {
	key := cacheKey(queueName, teams)

	var cached locator.GameDescriptor
	if err := s.cache.Get(key, &cached); err == nil {
		return &cached, nil
	}

	desc, err := s.locator.Find(ctx, queueName, teams)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(key, desc, s.ttl); err != nil {
		s.cache.logger.WithError(err).Warn("locator cache: failed to store lookup result")
	}

	return desc, nil
}

func cacheKey(queueName string, teams [][]string) string {
	all := make([]string, 0)
	for _, team := range teams {
		all = append(all, team...)
	}
	sort.Strings(all)
	return fmt.Sprintf("locator:%s:%s", queueName, strings.Join(all, ","))
}
