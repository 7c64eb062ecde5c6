// Command sitecheck probes every configured site once, records the results
// and e-mails an alert for each unhealthy one. Run it from cron or a systemd
// timer; it exits 1 only when configuration or storage fails.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/sitechecker/internal/alert"
	"github.com/hamed0406/sitechecker/internal/config"
	"github.com/hamed0406/sitechecker/internal/logging"
	"github.com/hamed0406/sitechecker/internal/notify"
	"github.com/hamed0406/sitechecker/internal/probe"
	"github.com/hamed0406/sitechecker/internal/repo"
	"github.com/hamed0406/sitechecker/internal/sitecheck"
	"github.com/hamed0406/sitechecker/internal/storage"
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	cfgPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
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
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("store_close_failed", zap.Error(err))
			code = 1
		}
	}()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("schema_failed", zap.Error(err))
		return 1
	}

	clock := clockwork.NewRealClock()
	prober := probe.NewHTTPProber(cfg.Probe.Timeout)
	prober.UserAgent = cfg.Probe.UserAgent

	runner := &sitecheck.Runner{
		Logger:   logger,
		Sites:    cfg.SiteList(),
		Prober:   prober,
		Results:  store,
		Alerts:   alert.NewDispatcher(notify.NewSMTP(cfg.Email), store, cfg.Email.From, cfg.Email.To, clock, logger),
		Clock:    clock,
		Diagnose: probe.CheckDNS,
	}

	rep, err := runner.RunOnce(ctx)
	if err != nil {
		logger.Error("run_aborted",
			zap.String("run_id", rep.RunID),
			zap.Bool("storage", repo.IsStorageError(err)),
			zap.Bool("interrupted", errors.Is(err, context.Canceled)),
			zap.Error(err),
		)
		return 1
	}
	for _, de := range multierr.Errors(rep.DispatchErr) {
		logger.Warn("alert_undelivered", zap.String("run_id", rep.RunID), zap.Error(de))
	}
	return 0
}
