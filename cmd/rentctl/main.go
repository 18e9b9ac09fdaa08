// Command rentctl walks through a car rental reservation from the
// terminal.  The draft survives between invocations in a local badger
// directory; saving, quoting and confirming go through the rental API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iliyamo/car-rental-reservation/internal/checkout"
	"github.com/iliyamo/car-rental-reservation/internal/config"
	"github.com/iliyamo/car-rental-reservation/internal/draft"
	"github.com/iliyamo/car-rental-reservation/internal/gateway"
	"github.com/iliyamo/car-rental-reservation/internal/storage"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadClientConfig()

	logger := config.NewLogger(cfg.Env)
	defer func() { _ = logger.Sync() }()

	slot, err := storage.OpenBadgerSlot(cfg.StateDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rentctl:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := 0
	if err := run(ctx, newApp(cfg, slot, logger), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "rentctl:", gateway.UserMessage(err))
		code = 1
	}
	stop()
	if err := slot.Close(); err != nil {
		logger.Warn("close state dir", zap.Error(err))
	}
	os.Exit(code)
}

func newApp(cfg config.ClientConfig, slot draft.Slot, logger *zap.Logger) *app {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := gateway.NewClient(cfg.APIURL, cfg.Token, cfg.Timeout, logger.Named("api"))
	store := draft.NewStore(slot, logger.Named("draft"))
	return &app{
		store:   store,
		catalog: gateway.NewCatalog(client),
		invoice: gateway.NewLifecycle(client),
		svc:     checkout.NewService(store, gateway.NewLifecycle(client), gateway.NewDiscountResolver(client), logger.Named("checkout")),
	}
}
