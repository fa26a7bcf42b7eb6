// go_transcript: YouTube transcript HTTP API.
//
// Exposes GET /transcript/{video_id} behind an API key and per-address rate
// limits. Upstream requests can be routed through a Webshare residential
// proxy or a stealth browser client over the Webshare proxy pool.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/anatolykoptev/go_transcript/internal/apiserver"
	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/anatolykoptev/go_transcript/internal/limiter"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := engine.LoadConfig()
	if err != nil {
		return err
	}
	initLogger(cfg)

	defaultLimits, err := limiter.Parse("global", cfg.DefaultLimits)
	if err != nil {
		return &engine.ConfigError{Key: "RATE_LIMIT_DEFAULT", Reason: err.Error()}
	}
	transcriptLimits, err := limiter.Parse("transcript", cfg.TranscriptLimits)
	if err != nil {
		return &engine.ConfigError{Key: "RATE_LIMIT_TRANSCRIPT", Reason: err.Error()}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := engine.NewMetrics(reg)

	requester, err := newRequester(cfg)
	if err != nil {
		return err
	}

	yt := sources.NewYouTube(sources.YouTubeConfig{
		Requester: requester,
		Languages: cfg.Languages,
		Timeout:   cfg.UpstreamTimeout,
		RPS:       cfg.UpstreamRPS,
		Metrics:   metrics,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lim := limiter.New()
	go lim.Run(ctx, time.Minute)

	api := apiserver.New(apiserver.Options{
		Version:          version,
		APIKey:           cfg.APIKey,
		Fetcher:          yt,
		Limiter:          lim,
		DefaultLimits:    defaultLimits,
		TranscriptLimits: transcriptLimits,
		TrustProxy:       cfg.TrustProxy,
		MCPEnabled:       cfg.MCPEnabled,
		Metrics:          metrics,
		Gatherer:         reg,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	slog.Info("starting go_transcript",
		slog.String("version", version),
		slog.String("port", cfg.Port),
		slog.Any("languages", cfg.Languages),
		slog.String("default_limits", cfg.DefaultLimits),
		slog.String("transcript_limits", cfg.TranscriptLimits),
		slog.Bool("mcp", cfg.MCPEnabled),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRequester picks the upstream transport: stealth client over the Webshare
// proxy pool, rotating residential proxy, or a direct connection.
func newRequester(cfg engine.Config) (engine.Requester, error) {
	if cfg.WebshareAPIKey != "" {
		bc, err := engine.NewBrowserClient(cfg.WebshareAPIKey)
		if err != nil {
			return nil, err
		}
		slog.Info("upstream: stealth browser client via webshare proxy pool")
		return engine.NewBrowserRequester(bc), nil
	}

	proxy := cfg.Proxy()
	if proxy != nil {
		slog.Info("upstream: webshare residential proxy",
			slog.String("proxy", proxy.Domain),
			slog.Int("port", proxy.Port),
			slog.Any("locations", proxy.Locations))
	} else {
		slog.Info("upstream: direct connection")
	}
	return engine.NewHTTPRequester(engine.NewUpstreamHTTPClient(proxy)), nil
}

func initLogger(cfg engine.Config) {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler = slog.NewJSONHandler(os.Stderr, opts)
	if cfg.LogFormat == "text" {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}
