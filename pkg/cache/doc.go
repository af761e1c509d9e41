// Package cache provides response caching for the BattleMetrics API with a
// Redis backend.
//
// The cache manager implements HTTP response caching with the following
// features:
//
// - Fresh entries are served without an upstream request (saves rate budget)
// - Stale entries are retained for revalidation via ETag (If-None-Match)
// - Last-Modified support (If-Modified-Since)
// - TTL from the Expires header, with a configurable fallback
// - Prometheus metrics for observability
// - Deterministic cache key generation
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create cache manager
//	manager := cache.NewManager(redisClient)
//
//	// Create cache key
//	key := cache.CacheKey{
//		Path:  "/servers/12345",
//		Query: url.Values{"include": []string{"game"}},
//	}
//
//	// Get from cache
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// Cache miss - fetch from the API
//	}
//
// # HTTP Response Caching
//
//	// Convert HTTP response to cache entry
//	entry, err := cache.ResponseToEntry(resp, 60*time.Second)
//	if err != nil {
//		return err
//	}
//
//	// Store in cache
//	if err := manager.Set(ctx, key, entry); err != nil {
//		return err
//	}
//
// # Conditional Requests
//
//	// A stale entry with a validator can be revalidated instead of refetched
//	if entry.IsExpired() && cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//		// The API returns 304 if the cached body is still current
//	}
//
// # Metrics
//
// The cache manager exports Prometheus metrics:
//
//   - bm_cache_hits_total{layer="redis"} - Cache hits
//   - bm_cache_misses_total - Cache misses
//   - bm_cache_size_bytes{layer="redis"} - Cache size
//   - bm_304_responses_total - Conditional request successes
//   - bm_cache_errors_total{operation} - Cache operation errors
package cache
