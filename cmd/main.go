package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/finbase/nobisync/config"
	"github.com/finbase/nobisync/internal/assets"
	"github.com/finbase/nobisync/internal/clients"
	"github.com/finbase/nobisync/internal/nobitex"
	"github.com/finbase/nobisync/internal/services/enricher"
	"github.com/finbase/nobisync/internal/services/syncer"
	"github.com/finbase/nobisync/internal/web"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Get(ctx)
	if err != nil {
		logger.Fatal("failed to get configuration", zap.Error(err))
	}

	rules, err := assets.LoadPriceTable(cfg.PricingTable)
	if err != nil {
		logger.Fatal("failed to load pricing table", zap.Error(err))
	}
	for _, warning := range rules.Warnings() {
		logger.Warn("pricing table problem", zap.String("warning", warning))
	}

	client := clients.NewNobitex(clients.Config{
		BaseURL:    cfg.Nobitex.BaseURL,
		MaxRetries: cfg.Nobitex.MaxRetries,
		RetryDelay: cfg.Nobitex.RetryDelay,
		Timeout:    cfg.Nobitex.Timeout,
	}, logger)

	adapter := nobitex.New(client, rules, logger, nobitex.WithCandleWindow(cfg.Nobitex.CandleWindow))
	sync := syncer.New(adapter, adapter, cfg.Sync.PageSize, cfg.Sync.MaxParallelWallets, logger)
	enrich := enricher.New(adapter, rules, logger)

	server := web.NewServer(cfg.ListenAddr, adapter, adapter, sync, enrich, logger)

	logger.Info("started", zap.String("addr", cfg.ListenAddr))
	if err := server.Start(ctx); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
