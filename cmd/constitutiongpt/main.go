package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/waabox/constitutiongpt/internal/apiclient"
	"github.com/waabox/constitutiongpt/internal/config"
	"github.com/waabox/constitutiongpt/internal/session"
	"github.com/waabox/constitutiongpt/internal/tui"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

func main() {
	versionFlag := flag.Bool("version", false, "print version and exit")
	configFlag := flag.String("config", "", "path to config.toml (default ~/.config/constitutiongpt/config.toml)")
	flag.Parse()
	if *versionFlag {
		fmt.Println("constitutiongpt", version)
		os.Exit(0)
	}

	cfg, err := config.LoadFrom(config.ResolvePath(*configFlag))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := setupLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	ctx := context.Background()

	store, err := openStore(ctx, cfg.Session)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening session store: %v\n", err)
		os.Exit(1)
	}

	mgr := session.NewManager(store, logger)
	if err := mgr.Restore(ctx); err != nil {
		// A broken store is not fatal: the user just signs in again.
		logger.Warn("could not restore session", slog.String("err", err.Error()))
	}
	if c, err := mgr.Claims(); err == nil {
		logger.Info("found stored session",
			slog.String("user", c.Username),
			slog.String("role", c.Role),
			slog.Time("access_expires", c.Expiry()))
	}

	client, err := apiclient.New(apiclient.Config{
		BaseURL:        cfg.API.BaseURL,
		Session:        mgr,
		HTTPClient:     &http.Client{Timeout: cfg.API.Timeout},
		Logger:         logger,
		RefreshTimeout: cfg.API.RefreshTimeout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating API client: %v\n", err)
		os.Exit(1)
	}

	expired, unsubscribe := mgr.Subscribe()
	defer unsubscribe()

	if err := tui.Run(client, tui.Options{
		Expired:      expired,
		PollInterval: cfg.UI.PollInterval,
		Restored:     mgr.Authenticated(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogger builds the client logger. The terminal belongs to the TUI, so
// logs go to log.file or nowhere.
func setupLogger(cfg config.LogConfig) (*slog.Logger, func(), error) {
	var w io.Writer = io.Discard
	closeFn := func() {}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0700); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, err
		}
		w = f
		closeFn = func() { _ = f.Close() }
	}

	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h), closeFn, nil
}

func openStore(ctx context.Context, cfg config.SessionConfig) (session.Store, error) {
	switch cfg.Store {
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
		}
		return session.NewRedisStore(rdb, cfg.RedisPrefix), nil
	case config.StoreMemory:
		return session.NewMemoryStore(), nil
	default:
		return session.NewFileStore(cfg.Path), nil
	}
}
