// Package metrics provides the centralized Prometheus registry for the
// BattleMetrics client. All metrics are defined in their respective packages
// (client, cache, ratelimit) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the BattleMetrics client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - bm_rate_limit_remaining (Gauge): Requests remaining in the current rate limit window
//   - bm_rate_limit_waits_total (Counter): Requests delayed until the window reset
//
// Cache Metrics (pkg/cache):
//   - bm_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - bm_cache_misses_total (Counter): Cache misses
//   - bm_cache_size_bytes{layer="redis"} (Gauge): Current cache size in bytes
//   - bm_304_responses_total (Counter): 304 Not Modified responses to conditional requests
//   - bm_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - bm_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status.
//     Responses served from the local cache carry status="cache".
//   - bm_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - bm_errors_total{class} (Counter): Errors by class (validation, auth, not_found,
//     rate_limit, server, network, malformed)
//   - bm_rate_limit_retries_total (Counter): Requests retried once after a 429 response
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(bm_cache_hits_total[5m])) /
//   (sum(rate(bm_cache_hits_total[5m])) + sum(rate(bm_cache_misses_total[5m])))
//
//   # Remaining Request Budget
//   bm_rate_limit_remaining < 10
//
//   # Request Error Rate
//   rate(bm_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(bm_request_duration_seconds_bucket[5m]))
//
//   # 304 Response Rate
//   rate(bm_304_responses_total[5m]) / rate(bm_requests_total[5m])
