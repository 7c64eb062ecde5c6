// Command api serves the recorded probe history over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitechecker/internal/config"
	"github.com/hamed0406/sitechecker/internal/httpapi"
	"github.com/hamed0406/sitechecker/internal/logging"
	"github.com/hamed0406/sitechecker/internal/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfgPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.LoadAPI(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger, err := logging.NewLogger(cfg.Log.Dir, cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("store_open_failed", zap.Error(err))
		return 1
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("schema_failed", zap.Error(err))
		return 1
	}

	api := httpapi.NewServer(logger, store)
	srv := &http.Server{
		Addr: cfg.API.Addr,
		Handler: api.Router(httpapi.RouterConfig{
			Keys:           cfg.API.Keys,
			AllowedOrigins: cfg.API.AllowedOrigins,
			RatePerMin:     cfg.API.RatePerMin,
			Burst:          cfg.API.Burst,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.API.Addr), zap.String("driver", cfg.Database.Driver))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_listen_failed", zap.Error(err))
			return 1
		}
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			logger.Warn("api_shutdown", zap.Error(err))
		}
		logger.Info("api_stopped")
	}
	return 0
}
