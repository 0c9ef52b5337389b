package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vitos/hl_funding_tools/internal/config"
	"github.com/vitos/hl_funding_tools/internal/console"
	"github.com/vitos/hl_funding_tools/internal/infrastructure/exchange"
	"github.com/vitos/hl_funding_tools/internal/infrastructure/logger"
	"github.com/vitos/hl_funding_tools/internal/infrastructure/storage"
	"github.com/vitos/hl_funding_tools/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config file")
	coin := flag.String("coin", "", "coin to report, e.g. BTC or xyz:COPPER (runs once without prompting)")
	hours := flag.Int("hours", 0, "hours of history to fetch (used with -coin)")
	flag.Parse()

	// 1. Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewFileLogger(cfg.Logging.File, cfg.Logging.Level, logger.FileOptions{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Init Exchange
	transport := newTransport(cfg.Hyperliquid)
	defer transport.Close()
	hl := exchange.NewHyperliquidAdapter(transport, cfg.Hyperliquid.RequestsPerMinute, log)

	// 4. Init Storage and Service
	store := storage.NewCSVStore(cfg.Output.Dir)
	service := usecase.NewFundingService(hl, log)
	session := console.NewFundingSession(service, store, os.Stdin, os.Stdout, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Funding rate tracker started",
		zap.String("transport", cfg.Hyperliquid.Transport),
		zap.String("output_dir", store.Dir()))

	if *coin != "" {
		if *hours <= 0 {
			fmt.Println("Error: -hours must be a positive number when -coin is set.")
			os.Exit(2)
		}
		err = session.RunOnce(ctx, *coin, *hours)
	} else {
		err = session.Run(ctx)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Funding rate tracker stopped with error", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func newTransport(cfg config.HyperliquidConfig) exchange.InfoTransport {
	if cfg.Transport == config.TransportWS {
		return exchange.NewWSTransport(cfg.WSEndpoint, cfg.Timeout())
	}
	return exchange.NewHTTPTransport(cfg.RESTEndpoint, cfg.Timeout())
}
