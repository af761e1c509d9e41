// Package client provides the BattleMetrics API client with rate limit
// tracking, response caching, and typed error handling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bmkit/battlemetrics-client/pkg/cache"
	"github.com/bmkit/battlemetrics-client/pkg/jsonapi"
	"github.com/bmkit/battlemetrics-client/pkg/ratelimit"
)

// Prometheus metrics for API client operations.
var (
	bmRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bm_requests_total",
		Help: "Total API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	bmRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bm_request_duration_seconds",
		Help:    "API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	bmErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bm_errors_total",
		Help: "Total API errors by class",
	}, []string{"class"})

	bmRateLimitRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bm_rate_limit_retries_total",
		Help: "Total number of requests retried after a 429 response",
	})
)

const (
	// DefaultBaseURL is the BattleMetrics API origin.
	DefaultBaseURL = "https://api.battlemetrics.com"

	// EnvToken is the environment variable consulted when Config.Token is
	// empty. Tokens are never read from files.
	EnvToken = "BATTLEMETRICS_TOKEN"

	// DefaultUserAgent identifies this library when the application does
	// not set its own.
	DefaultUserAgent = "battlemetrics-client/1.0"
)

// Client is the BattleMetrics API client. One instance owns a pooled HTTP
// client and a rate budget; it is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	budget     *ratelimit.Budget
	cache      *cache.Manager
	config     Config
	token      string
	baseURL    *url.URL
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Token authenticates requests (Authorization: Bearer). When empty,
	// New falls back to the BATTLEMETRICS_TOKEN environment variable.
	Token string

	// BaseURL overrides the API origin. Defaults to DefaultBaseURL.
	BaseURL string

	// UserAgent identifies the application.
	// Format: "AppName/Version (contact@example.com)"
	UserAgent string

	// HTTPClient overrides the default pooled client (30s timeout).
	HTTPClient *http.Client

	// Redis enables response caching when non-nil. Without it the client
	// makes an upstream request for every call.
	Redis *redis.Client

	// CacheTTL is the freshness window for cached responses that carry no
	// Expires header. Defaults to cache.DefaultTTL.
	CacheTTL time.Duration

	// Timeout applies to the default HTTP client.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration for the given token.
func DefaultConfig(token string) Config {
	return Config{
		Token:     token,
		BaseURL:   DefaultBaseURL,
		UserAgent: DefaultUserAgent,
		CacheTTL:  cache.DefaultTTL,
		Timeout:   30 * time.Second,
	}
}

// New creates a new BattleMetrics API client.
func New(cfg Config) (*Client, error) {
	token := cfg.Token
	if token == "" {
		token = os.Getenv(EnvToken)
	}
	if token == "" {
		return nil, fmt.Errorf("api token is required: set Config.Token or %s", EnvToken)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = cache.DefaultTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	// Initialize logger
	logger := log.With().Str("component", "bm-client").Logger()

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
		}
	}

	c := &Client{
		httpClient: httpClient,
		budget:     ratelimit.NewBudget(logger),
		config:     cfg,
		token:      token,
		baseURL:    baseURL,
		logger:     logger,
	}

	if cfg.Redis != nil {
		c.cache = cache.NewManager(cfg.Redis)
	}

	return c, nil
}

// do performs a request and parses the response as a JSON:API document.
// Bodies that fail envelope validation surface a *MalformedResponseError.
func (c *Client) do(ctx context.Context, route Route, body any) (*jsonapi.Document, error) {
	data, err := c.doRaw(ctx, route, body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		// 204 No Content and friends
		return &jsonapi.Document{}, nil
	}

	doc, err := jsonapi.ParseDocument(data)
	if err != nil {
		bmErrorsTotal.WithLabelValues(string(ErrorClassMalformed)).Inc()
		c.logger.Error().
			Str("endpoint", route.metricName()).
			Err(err).
			Msg("API response failed document validation")
		return nil, err
	}
	return doc, nil
}

// doRaw performs a request with rate limiting, caching, and the single 429
// retry, returning the raw response body. All other error statuses surface
// immediately as typed errors; retrying them is the caller's decision.
func (c *Client) doRaw(ctx context.Context, route Route, body any) ([]byte, error) {
	endpoint := route.metricName()

	startTime := time.Now()
	defer func() {
		bmRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	// Step 1: rate limit gate. Cancellation here leaves the budget as it
	// was; it only ever changes from response headers.
	if err := c.budget.Wait(ctx); err != nil {
		return nil, err
	}

	// Step 2: cache lookup for GETs when caching is configured.
	var cached *cache.CacheEntry
	var cacheKey cache.CacheKey
	useCache := c.cache != nil && route.Method == http.MethodGet
	if useCache {
		cacheKey = cache.CacheKey{Path: route.Path, Query: route.Query}

		entry, err := c.cache.Get(ctx, cacheKey)
		if err != nil && err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
		if entry != nil {
			if !entry.IsExpired() {
				// Fresh: serve without an upstream request.
				c.logger.Debug().
					Str("endpoint", endpoint).
					Msg("Serving fresh cache entry")
				bmRequestsTotal.WithLabelValues(endpoint, "cache").Inc()
				return entry.Data, nil
			}
			if cache.ShouldMakeConditionalRequest(entry) {
				cached = entry
			}
		}
	}

	// Step 3: execute, retrying exactly once after a 429.
	for attempt := 0; ; attempt++ {
		req, err := c.newRequest(ctx, route, payload)
		if err != nil {
			return nil, err
		}

		if cached != nil {
			cache.AddConditionalHeaders(req, cached)
			c.logger.Debug().
				Str("endpoint", endpoint).
				Str("etag", cached.ETag).
				Msg("Making conditional request")
		}

		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("method", route.Method).
			Int("attempt", attempt+1).
			Msg("Executing API request")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			bmErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			bmRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
			return nil, &NetworkError{URL: req.URL.String(), Err: err}
		}

		// Step 4: fold rate limit headers into the budget.
		c.budget.UpdateFromHeaders(resp.Header)

		if resp.StatusCode == http.StatusNotModified && cached != nil {
			resp.Body.Close()
			bmRequestsTotal.WithLabelValues(endpoint, "304").Inc()
			cache.ConditionalRequests.Inc()
			c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified, serving cached body")

			newExpires := time.Now().Add(c.config.CacheTTL)
			if expiresStr := resp.Header.Get("Expires"); expiresStr != "" {
				if parsed, err := http.ParseTime(expiresStr); err == nil {
					newExpires = parsed
				}
			}
			if err := c.cache.UpdateTTL(ctx, cacheKey, newExpires); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
			}
			return cached.Data, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := parseRetryAfter(resp.Header)
			data, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			bmRequestsTotal.WithLabelValues(endpoint, "429").Inc()

			// A 429 means the request was not processed, so one retry
			// is safe for every method once the advertised delay has
			// passed. A second 429 surfaces to the caller.
			if attempt == 0 {
				bmRateLimitRetriesTotal.Inc()
				c.logger.Info().
					Str("endpoint", endpoint).
					Dur("retry_after", retryAfter).
					Msg("Rate limited, retrying once after advertised delay")

				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(retryAfter):
				}
				continue
			}

			bmErrorsTotal.WithLabelValues(string(ErrorClassRateLimit)).Inc()
			c.logger.Warn().
				Str("endpoint", endpoint).
				Dur("retry_after", retryAfter).
				Msg("Rate limited twice, giving up")
			return nil, newRateLimitError(resp.Status, data, retryAfter)
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			bmErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return nil, &NetworkError{URL: req.URL.String(), Err: readErr}
		}

		if resp.StatusCode >= 400 {
			class := classifyStatus(resp.StatusCode)
			bmErrorsTotal.WithLabelValues(string(class)).Inc()
			bmRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(class)).
				Msg("API request error")

			return nil, mapStatusError(resp.StatusCode, resp.Status, data)
		}

		bmRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

		// Step 5: cache successful GET responses.
		if useCache && resp.StatusCode == http.StatusOK {
			resp.Body = io.NopCloser(bytes.NewReader(data))
			entry, err := cache.ResponseToEntry(resp, c.config.CacheTTL)
			if err != nil {
				c.logger.Warn().Err(err).Msg("Failed to create cache entry")
			} else if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to cache response")
			} else {
				c.logger.Debug().
					Str("endpoint", endpoint).
					Dur("ttl", entry.TTL()).
					Msg("Cached response")
			}
		}

		return data, nil
	}
}

// newRequest builds an HTTP request for a route, injecting authentication
// and content negotiation headers.
func (c *Client) newRequest(ctx context.Context, route Route, payload []byte) (*http.Request, error) {
	target := route.URL
	if target == "" {
		ref := &url.URL{Path: route.Path, RawQuery: route.Query.Encode()}
		target = c.baseURL.ResolveReference(ref).String()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, route.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// endpointURL renders an API URL for the given path and query.
func (c *Client) endpointURL(path string, query url.Values) string {
	ref := &url.URL{Path: path, RawQuery: query.Encode()}
	return c.baseURL.ResolveReference(ref).String()
}

// pageFetcher returns a pagination fetch func that routes page URLs through
// the client, so paging shares the rate gate, cache, and error mapping.
// The name keeps metric labels low-cardinality across pages.
func (c *Client) pageFetcher(name string) func(ctx context.Context, pageURL string) (*jsonapi.Document, error) {
	return func(ctx context.Context, pageURL string) (*jsonapi.Document, error) {
		u, err := url.Parse(pageURL)
		if err != nil {
			return nil, fmt.Errorf("parse page url: %w", err)
		}

		route := Route{
			Method: http.MethodGet,
			Path:   u.Path,
			Query:  u.Query(),
			Name:   name,
		}
		if u.IsAbs() {
			route.URL = pageURL
		}
		return c.do(ctx, route, nil)
	}
}

// Raw performs a GET against an arbitrary API path and returns the response
// body without decoding it. It shares the rate gate, cache, and error
// mapping of the typed operations. Most callers want those instead; Raw
// exists for passthrough use such as proxies.
func (c *Client) Raw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	route := Route{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
		Name:   "raw",
	}
	return c.doRaw(ctx, route, nil)
}

// Budget exposes the client's rate budget state: requests remaining, the
// advertised limit, and when the window resets.
func (c *Client) Budget() (remaining, limit int, resetAt time.Time) {
	return c.budget.Snapshot()
}

// Close releases pooled connections. In-flight requests governed by their
// contexts are unaffected.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
