// Package testutil provides testing utilities for the BattleMetrics client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock API endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock BattleMetrics server for testing.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount      int
	ConditionalCount  int
	LastRequestHeader http.Header
}

// NewMockAPI creates a new mock BattleMetrics server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()

		// Track conditional requests
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		mock.mu.Unlock()

		// Check for custom handler
		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		// Default handler
		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.LastRequestHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		// Add delay if specified
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		// Set headers
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		// Write status and body
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetServerResponse configures the response for a game server detail endpoint.
func (m *MockAPI) SetServerResponse(serverID string, resp MockResponse) {
	m.SetResponse(fmt.Sprintf("/servers/%s", serverID), resp)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockAPI) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// defaultHandler provides default BattleMetrics-like responses.
func (m *MockAPI) defaultHandler(w http.ResponseWriter, r *http.Request) {
	// Set default rate limit headers
	w.Header().Set("X-Rate-Limit-Limit", "60")
	w.Header().Set("X-Rate-Limit-Remaining", "59")
	w.Header().Set("X-Rate-Limit-Reset", "60")
	w.Header().Set("Content-Type", "application/json")

	// Handle conditional requests
	if r.Header.Get("If-None-Match") != "" {
		w.Header().Set("Expires", time.Now().Add(5*time.Minute).Format(http.TimeFormat))
		w.WriteHeader(http.StatusNotModified)
		return
	}

	// Default 200 OK response with an empty collection document
	w.Header().Set("ETag", `"default-etag"`)
	w.Header().Set("Expires", time.Now().Add(5*time.Minute).Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"data": []}`))
}

// ResourceDoc builds a single-resource JSON:API document body.
func ResourceDoc(resType, id string, attributes map[string]any) string {
	doc := map[string]any{
		"data": map[string]any{
			"type":       resType,
			"id":         id,
			"attributes": attributes,
		},
	}
	body, _ := json.Marshal(doc)
	return string(body)
}

// ErrorDoc builds a JSON:API error document body.
func ErrorDoc(status, title, detail string) string {
	doc := map[string]any{
		"errors": []map[string]any{
			{"status": status, "title": title, "detail": detail},
		},
	}
	body, _ := json.Marshal(doc)
	return string(body)
}

// NewHealthyResponse creates a standard 200 OK response with rate limit headers.
func NewHealthyResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"X-Rate-Limit-Limit":     "60",
			"X-Rate-Limit-Remaining": "57",
			"X-Rate-Limit-Reset":     "60",
			"ETag":                   `"test-etag-123"`,
			"Expires":                time.Now().Add(5 * time.Minute).Format(http.TimeFormat),
			"Content-Type":           "application/json",
		},
	}
}

// NewNotModifiedResponse creates a 304 Not Modified response.
func NewNotModifiedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotModified,
		Headers: map[string]string{
			"X-Rate-Limit-Limit":     "60",
			"X-Rate-Limit-Remaining": "57",
			"X-Rate-Limit-Reset":     "60",
			"Expires":                time.Now().Add(5 * time.Minute).Format(http.TimeFormat),
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse(retryAfter string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       ErrorDoc("429", "Too Many Requests", "Rate limit exceeded"),
		Headers: map[string]string{
			"X-Rate-Limit-Limit":     "60",
			"X-Rate-Limit-Remaining": "0",
			"X-Rate-Limit-Reset":     "30",
			"Retry-After":            retryAfter,
			"Content-Type":           "application/json",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       ErrorDoc("500", "Internal Server Error", "Something went wrong"),
		Headers: map[string]string{
			"X-Rate-Limit-Limit":     "60",
			"X-Rate-Limit-Remaining": "55",
			"X-Rate-Limit-Reset":     "60",
			"Content-Type":           "application/json",
		},
	}
}

// NewAuthErrorResponse creates a 401 Unauthorized response.
func NewAuthErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       ErrorDoc("401", "Unauthorized", "Invalid or missing token"),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// NewConditionalHandler creates a handler that responds with 304 for matching
// If-None-Match headers and the full document otherwise.
func NewConditionalHandler(etag string, data string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Rate-Limit-Limit", "60")
		w.Header().Set("X-Rate-Limit-Remaining", "57")
		w.Header().Set("X-Rate-Limit-Reset", "60")
		w.Header().Set("Content-Type", "application/json")

		if r.Header.Get("If-None-Match") == etag {
			w.Header().Set("Expires", time.Now().Add(5*time.Minute).Format(http.TimeFormat))
			w.WriteHeader(http.StatusNotModified)
			return
		}

		// Full response
		w.Header().Set("ETag", etag)
		w.Header().Set("Expires", time.Now().Add(5*time.Minute).Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(data))
	}
}
