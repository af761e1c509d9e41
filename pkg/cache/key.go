package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// CacheKey represents a unique identifier for a cached API response.
type CacheKey struct {
	// Path is the request path (e.g., "/servers/12345")
	Path string

	// Query are the query parameters (e.g., {"include": "game"})
	Query url.Values
}

// String generates a deterministic cache key string.
// Format: bm:path:query1=val1:query2=val2
//
// Example:
//
//	bm:servers/12345:include=game,organization
func (k CacheKey) String() string {
	parts := []string{"bm"}

	// Add path (normalized)
	path := strings.Trim(k.Path, "/")
	if path != "" {
		parts = append(parts, path)
	}

	// Add query params (sorted for determinism, values joined)
	if len(k.Query) > 0 {
		queryKeys := make([]string, 0, len(k.Query))
		for key := range k.Query {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, strings.Join(k.Query[key], ",")))
		}
	}

	return strings.Join(parts, ":")
}
