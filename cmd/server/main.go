package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/agozel5/Honeypot/internal/config"
	"github.com/agozel5/Honeypot/internal/geo"
	"github.com/agozel5/Honeypot/internal/handlers"
	"github.com/agozel5/Honeypot/internal/logger"
	"github.com/agozel5/Honeypot/internal/middleware"
	"github.com/agozel5/Honeypot/internal/repository"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	if err := logger.Initialize(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: cfg.Log.Path,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		slog.Error("logger", "error", err)
		os.Exit(1)
	}
	log := logger.Get()

	if err := os.MkdirAll(filepath.Dir(cfg.Server.DBPath), 0755); err != nil {
		log.Error("mkdir", "error", err)
		os.Exit(1)
	}

	repo, err := repository.NewSQLite(cfg.Server.DBPath)
	if err != nil {
		log.Error("db", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.Server.RateLimit.RPS), cfg.Server.RateLimit.Burst)
	routerCfg := handlers.RouterConfig{
		CSRF:    cfg.Server.CSRF,
		Limiter: limiter,
	}
	if g := cfg.Server.Geo; g.Enabled {
		locator, err := geo.New(geo.Options{
			Provider: g.Provider,
			Token:    g.Token,
			BaseURL:  g.BaseURL,
			Timeout:  g.Timeout,
			RPS:      g.RPS,
			Logger:   log,
		})
		if err != nil {
			log.Error("geo", "error", err)
			os.Exit(1)
		}
		routerCfg.Geo = locator
		log.Info("ip geolocation enabled", "provider", g.Provider)
	}
	router := handlers.NewRouter(repo, routerCfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go retention(ctx, repo, limiter, cfg.Server.RetentionDays)

	httpServer := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("http server shutdown", "error", err)
		}
	}()

	log.Info("listening", "addr", cfg.Server.Listen, "db", cfg.Server.DBPath, "csrf", cfg.Server.CSRF)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Error("http server", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// retention drops old clicks and idle rate-limit buckets every six hours.
func retention(ctx context.Context, repo repository.ClickRepository, limiter *middleware.IPRateLimiter, days int) {
	ticker := time.NewTicker(6 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Prune(time.Hour)
			if days <= 0 {
				continue
			}
			cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
			n, err := repo.DeleteClicksOlderThan(ctx, cutoff)
			if err != nil {
				slog.Error("retention", "error", err)
				continue
			}
			slog.Info("retention", "deleted", n, "cutoff", cutoff)
		}
	}
}
