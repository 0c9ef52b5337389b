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
	"github.com/vitos/hl_funding_tools/internal/domain"
	"github.com/vitos/hl_funding_tools/internal/infrastructure/exchange"
	"github.com/vitos/hl_funding_tools/internal/infrastructure/logger"
	"github.com/vitos/hl_funding_tools/internal/infrastructure/stock"
	"github.com/vitos/hl_funding_tools/internal/infrastructure/storage"
	"github.com/vitos/hl_funding_tools/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config file")
	amount := flag.String("amount", "", "starting amount in dollars, split 50/50 between the legs")
	ticker := flag.String("stock", "", "stock or ETF ticker to go long, e.g. SPY")
	perp := flag.String("perp", "", "Hyperliquid coin to short, e.g. BTC or xyz:COPPER")
	hours := flag.Int("hours", 0, "length of the trade in hours")
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

	// 3. Init Market Data
	transport := newTransport(cfg.Hyperliquid)
	defer transport.Close()
	hl := exchange.NewHyperliquidAdapter(transport, cfg.Hyperliquid.RequestsPerMinute, log)
	yahoo := stock.NewYahooAdapter(cfg.Stock.RESTEndpoint, cfg.Stock.UserAgent, cfg.Stock.Timeout(), log)

	// 4. Init Storage and Service
	store := storage.NewCSVStore(cfg.Output.Dir)
	service := usecase.NewArbService(yahoo, hl, log)
	session := console.NewArbSession(service, store, os.Stdin, os.Stdout, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Arbitrage calculator started",
		zap.String("transport", cfg.Hyperliquid.Transport),
		zap.String("output_dir", store.Dir()))

	if *amount != "" || *ticker != "" || *perp != "" {
		req, err := oneShotRequest(*amount, *ticker, *perp, *hours)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(2)
		}
		err = session.RunOnce(ctx, req)
		exitOnError(log, err)
		return
	}

	exitOnError(log, session.Run(ctx))
}

func oneShotRequest(amount, ticker, perp string, hours int) (domain.ArbRequest, error) {
	if amount == "" || ticker == "" || perp == "" || hours <= 0 {
		return domain.ArbRequest{}, errors.New("-amount, -stock, -perp and a positive -hours are all required for a one-shot run")
	}
	value, err := console.ParseAmount(amount)
	if err != nil {
		return domain.ArbRequest{}, fmt.Errorf("-amount: %w", err)
	}
	return domain.ArbRequest{Amount: value, StockTicker: ticker, PerpCoin: perp, Hours: hours}, nil
}

func exitOnError(log *zap.Logger, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	log.Error("Arbitrage calculator stopped with error", zap.Error(err))
	log.Sync()
	os.Exit(1)
}

func newTransport(cfg config.HyperliquidConfig) exchange.InfoTransport {
	if cfg.Transport == config.TransportWS {
		return exchange.NewWSTransport(cfg.WSEndpoint, cfg.Timeout())
	}
	return exchange.NewHTTPTransport(cfg.RESTEndpoint, cfg.Timeout())
}
