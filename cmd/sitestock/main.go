package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Spok95/site-materials/internal/bot"
	"github.com/Spok95/site-materials/internal/config"
	httpx "github.com/Spok95/site-materials/internal/infra/http"
	"github.com/Spok95/site-materials/internal/infra/logger"
	"github.com/Spok95/site-materials/internal/infra/metrics"
	"github.com/Spok95/site-materials/internal/ledger"
	"github.com/Spok95/site-materials/internal/store/csvstore"
	"github.com/Spok95/site-materials/internal/store/pgstore"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (ledger.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		return pgstore.Open(ctx, cfg.Postgres.DSN, log)
	default:
		return csvstore.Open(cfg.Storage.Dir, cfg.Storage.PurchasesFile, cfg.Storage.UsageFile, log)
	}
}

func main() {
	cfgPath := flag.String("config", "config/example.yaml", "path to YAML config (empty = defaults + env)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env, cfg.App.LogFormat)
	log.Info("starting", "storage", cfg.Storage.Driver, "addr", cfg.HTTP.Addr)

	// числа в JSON без кавычек
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("storage open failed", "err", err)
		return
	}
	defer func() { _ = store.Close() }()

	policy, err := ledger.ParseReadPolicy(cfg.Storage.OnReadError)
	if err != nil {
		log.Error("bad config", "err", err)
		return
	}

	m := metrics.New(true)
	svc := ledger.New(store, log, m, ledger.Options{
		ReadPolicy:  policy,
		DropOrphans: cfg.Storage.DropOrphans,
	})

	// расход без закупки остаётся после сбоя между записями журналов
	if rep, err := svc.Reconcile(ctx); err != nil {
		log.Error("reconcile failed", "err", err)
	} else if len(rep.Orphans) > 0 {
		log.Warn("reconcile finished", "orphans", len(rep.Orphans), "dropped", rep.Dropped)
	}

	srv := httpx.New(cfg.HTTP.Addr, svc, m, log, httpx.Options{
		Env:           cfg.App.Env,
		ExposeMetrics: cfg.Metrics.Enabled,
		Location:      cfg.Location(),
	})
	go func() {
		if err := srv.Start(); err != nil {
			log.Error("http server error", "err", err)
			stop()
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	if cfg.Telegram.Enabled {
		api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			log.Error("telegram init failed", "err", err)
		} else {
			log.Info("bot authorized", "username", api.Self.UserName)
			b := bot.New(api, log, svc, cfg.Telegram.AdminChatID, cfg.Location())
			go func() {
				if err := b.Run(ctx, cfg.Telegram.TimeoutSec); err != nil && ctx.Err() == nil {
					log.Error("bot stopped", "err", err)
				}
			}()
		}
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
