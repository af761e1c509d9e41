package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/bmkit/battlemetrics-client/internal/testutil"
	"github.com/bmkit/battlemetrics-client/pkg/client"
	"github.com/bmkit/battlemetrics-client/pkg/logging"
)

func newProxyClient(t *testing.T, mock *testutil.MockAPI) *client.Client {
	t.Helper()

	cfg := client.DefaultConfig("test-token")
	cfg.BaseURL = mock.URL()

	bm, err := client.New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { bm.Close() })
	return bm
}

func TestHealthzEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()

	healthzHandler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestReadyzEndpoint(t *testing.T) {
	t.Run("no_redis_configured", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/readyz", nil)
		w := httptest.NewRecorder()

		readyzHandler(nil)(w, req)

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Result().StatusCode)
		}
	})

	t.Run("ready", func(t *testing.T) {
		mr := miniredis.RunT(t)
		redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer redisClient.Close()

		req := httptest.NewRequest("GET", "/readyz", nil)
		w := httptest.NewRecorder()

		readyzHandler(redisClient)(w, req)

		resp := w.Result()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected status 200, got %d", resp.StatusCode)
		}
		if string(body) != "OK" {
			t.Errorf("Expected body 'OK', got %s", string(body))
		}
	})

	t.Run("not_ready_redis_down", func(t *testing.T) {
		mr := miniredis.RunT(t)
		redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

		// Close the client to simulate an unreachable backend
		redisClient.Close()

		req := httptest.NewRequest("GET", "/readyz", nil)
		w := httptest.NewRecorder()

		readyzHandler(redisClient)(w, req)

		if w.Result().StatusCode != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", w.Result().StatusCode)
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	// Importing pkg/client registers every metric family with the default
	// registry; no client instance is needed.
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	promhttp.Handler().ServeHTTP(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	bodyStr := string(body)
	if !strings.Contains(bodyStr, "# HELP") || !strings.Contains(bodyStr, "# TYPE") {
		t.Error("Expected Prometheus format metrics output")
	}
	if !strings.Contains(bodyStr, "bm_rate_limit_remaining") {
		t.Error("Expected metrics output to contain bm_rate_limit_remaining")
	}
}

func TestProxyHandler(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	bm := newProxyClient(t, mock)
	handler := proxyHandler(bm, logging.NewLogger("test"))

	t.Run("forwards_upstream_document", func(t *testing.T) {
		doc := testutil.ResourceDoc("server", "42", map[string]any{"name": "Test Server"})
		mock.SetServerResponse("42", testutil.NewHealthyResponse(doc))

		req := httptest.NewRequest("GET", "/bm/servers/42", nil)
		w := httptest.NewRecorder()

		handler(w, req)

		resp := w.Result()
		body, _ := io.ReadAll(resp.Body)

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", resp.StatusCode, body)
		}
		if !strings.Contains(string(body), `"Test Server"`) {
			t.Errorf("Body missing upstream document: %s", body)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
	})

	t.Run("passes_query_through", func(t *testing.T) {
		var gotGame string
		mock.SetHandler("/servers", func(w http.ResponseWriter, r *http.Request) {
			gotGame = r.URL.Query().Get("filter[game]")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"data": []}`))
		})

		req := httptest.NewRequest("GET", "/bm/servers?filter%5Bgame%5D=rust", nil)
		w := httptest.NewRecorder()

		handler(w, req)

		if w.Result().StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Result().StatusCode)
		}
		if gotGame != "rust" {
			t.Errorf("Upstream filter[game] = %q, want rust", gotGame)
		}
	})

	t.Run("maps_upstream_status", func(t *testing.T) {
		mock.SetServerResponse("none", testutil.MockResponse{
			StatusCode: http.StatusNotFound,
			Body:       testutil.ErrorDoc("404", "Not Found", "Unknown server"),
			Headers:    map[string]string{"Content-Type": "application/json"},
		})

		req := httptest.NewRequest("GET", "/bm/servers/none", nil)
		w := httptest.NewRecorder()

		handler(w, req)

		if w.Result().StatusCode != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Result().StatusCode)
		}
	})

	t.Run("rejects_non_get", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/bm/servers/42", nil)
		w := httptest.NewRecorder()

		handler(w, req)

		if w.Result().StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("Expected status 405, got %d", w.Result().StatusCode)
		}
	})

	t.Run("missing_path", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/bm/", nil)
		w := httptest.NewRecorder()

		handler(w, req)

		if w.Result().StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Result().StatusCode)
		}
	})
}
