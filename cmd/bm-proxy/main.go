// Command bm-proxy runs a caching HTTP proxy in front of the BattleMetrics
// API. Requests under /bm/ are forwarded through the shared client, so every
// consumer behind the proxy shares one rate budget and one response cache.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/bmkit/battlemetrics-client/pkg/client"
	"github.com/bmkit/battlemetrics-client/pkg/logging"
)

type config struct {
	Port      string        `env:"PORT" envDefault:"8080"`
	RedisAddr string        `env:"REDIS_ADDR"`
	Token     string        `env:"BATTLEMETRICS_TOKEN"`
	UserAgent string        `env:"USER_AGENT" envDefault:"bm-proxy/1.0"`
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"60s"`
	LogLevel  string        `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool          `env:"LOG_PRETTY" envDefault:"false"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.LogLevel(cfg.LogLevel)
	logCfg.Pretty = cfg.LogPretty
	logging.Setup(logCfg)
	logger := logging.NewLogger("bm-proxy")

	// Redis is optional; without it the proxy still works but every request
	// hits the upstream API.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis connection failed")
		}
		logger.Info().Str("addr", cfg.RedisAddr).Msg("Connected to Redis")
	} else {
		logger.Warn().Msg("REDIS_ADDR not set, response caching disabled")
	}

	clientCfg := client.DefaultConfig(cfg.Token)
	clientCfg.UserAgent = cfg.UserAgent
	clientCfg.Redis = redisClient
	clientCfg.CacheTTL = cfg.CacheTTL

	bm, err := client.New(clientCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Client setup failed")
	}
	defer bm.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthzHandler)
	mux.HandleFunc("/readyz", readyzHandler(redisClient))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/bm/", proxyHandler(bm, logger))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Str("user_agent", cfg.UserAgent).
			Msg("Proxy listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Shutdown incomplete")
	}
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// readyzHandler reports ready once the cache backend, when configured, is
// reachable. Without Redis the proxy is ready as soon as it listens.
func readyzHandler(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	}
}

// proxyHandler forwards GET requests under /bm/ to the API through the
// caching client. /bm/servers/42?include=game proxies to /servers/42.
func proxyHandler(bm *client.Client, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "only GET is proxied", http.StatusMethodNotAllowed)
			return
		}

		path := strings.TrimPrefix(r.URL.Path, "/bm")
		if path == "" || path == "/" {
			http.Error(w, "missing API path", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		data, err := bm.Raw(ctx, path, r.URL.Query())
		if err != nil {
			status := client.StatusCode(err)
			if status == 0 {
				status = http.StatusBadGateway
			}
			logger.Warn().
				Err(err).
				Str("path", path).
				Int("status", status).
				Msg("Upstream request failed")
			http.Error(w, err.Error(), status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			logger.Warn().Err(err).Msg("Response write failed")
		}
	}
}
