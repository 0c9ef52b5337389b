package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/vitos/hl_funding_tools/internal/domain"
	"github.com/vitos/hl_funding_tools/internal/usecase"
	"go.uber.org/zap"
)

const arbWidth = 70

type ArbRunner interface {
	Run(ctx context.Context, req domain.ArbRequest, progress func(string)) (*domain.ArbReport, error)
}

type ArbStore interface {
	SaveArbReport(report *domain.ArbReport) (string, error)
}

// ArbSession drives the stock vs perp arbitrage calculator prompt loop.
type ArbSession struct {
	runner ArbRunner
	store  ArbStore
	prompt *Prompter
	out    io.Writer
	logger *zap.Logger
}

func NewArbSession(runner ArbRunner, store ArbStore, in io.Reader, out io.Writer, logger *zap.Logger) *ArbSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArbSession{
		runner: runner,
		store:  store,
		prompt: NewPrompter(in, out),
		out:    out,
		logger: logger,
	}
}

func (s *ArbSession) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *ArbSession) banner() {
	s.printf("%s\n       Stock/ETF vs Hyperliquid Perp Arbitrage Calculator\n%s\n\n", rule("=", arbWidth), rule("=", arbWidth))
	s.printf("This tool calculates the PnL from going LONG a stock/ETF\n")
	s.printf("and SHORT a Hyperliquid perpetual contract.\n\n")
}

// Run prompts until the user quits or input ends. A cancelled ctx is returned as an error.
func (s *ArbSession) Run(ctx context.Context) error {
	s.banner()
	defer s.prompt.Close()

	for {
		req, ok, err := s.ask(ctx)
		if err != nil {
			return s.stop(err)
		}
		if !ok {
			continue
		}
		if req == nil {
			s.printf("Goodbye!\n")
			return nil
		}

		err = s.process(ctx, *req)
		if ctx.Err() != nil {
			return s.stop(ctx.Err())
		}
		if isDataGap(err) {
			continue
		}

		s.printf("\n%s\n\n", rule("-", arbWidth))
	}
}

// RunOnce computes a single report without prompting.
func (s *ArbSession) RunOnce(ctx context.Context, req domain.ArbRequest) error {
	s.banner()
	return s.process(ctx, req)
}

// ask collects one request. It returns a nil request when the user quits and
// ok=false when an answer was rejected and the loop should start over.
func (s *ArbSession) ask(ctx context.Context) (*domain.ArbRequest, bool, error) {
	answer, err := s.prompt.Ask(ctx, "Starting amount ($) or 'quit' to exit: ")
	if err != nil {
		return nil, false, err
	}
	if isQuit(answer) {
		return nil, true, nil
	}
	amount, problem := parseAmount(answer)
	if problem != "" {
		s.printf("%s\n\n", problem)
		return nil, false, nil
	}

	ticker, err := s.prompt.Ask(ctx, "What stock ticker (long): ")
	if err != nil {
		return nil, false, err
	}
	ticker = strings.ToUpper(ticker)
	if ticker == "" {
		s.printf("Error: Stock ticker cannot be empty.\n\n")
		return nil, false, nil
	}

	coin, err := s.prompt.Ask(ctx, "What Hyperliquid ticker (short, e.g., BTC, xyz:COPPER): ")
	if err != nil {
		return nil, false, err
	}
	if coin == "" {
		s.printf("Error: Hyperliquid ticker cannot be empty.\n\n")
		return nil, false, nil
	}

	answer, err = s.prompt.Ask(ctx, "Length of trade (hrs): ")
	if err != nil {
		return nil, false, err
	}
	hours, problem := parseHours(answer)
	if problem != "" {
		s.printf("%s\n\n", problem)
		return nil, false, nil
	}

	return &domain.ArbRequest{Amount: amount, StockTicker: ticker, PerpCoin: coin, Hours: hours}, true, nil
}

func (s *ArbSession) stop(err error) error {
	if errors.Is(err, io.EOF) {
		s.printf("\nGoodbye!\n")
		return nil
	}
	s.printf("\n")
	return err
}

// isDataGap reports errors that already printed their own explanation.
func isDataGap(err error) bool {
	return errors.Is(err, usecase.ErrNoStockData) ||
		errors.Is(err, usecase.ErrNoCandleData) ||
		errors.Is(err, usecase.ErrNoOverlap)
}

func (s *ArbSession) process(ctx context.Context, req domain.ArbRequest) error {
	stock := strings.ToUpper(strings.TrimSpace(req.StockTicker))
	perp := domain.NormalizeCoin(req.PerpCoin)
	log := s.logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("stock", stock),
		zap.String("perp", perp),
		zap.Int("hours", req.Hours),
		zap.String("amount", req.Amount.String()))
	log.Info("Arbitrage run started")

	s.printf("\nFetching data for %s (long) vs %s (short)...\n\n", stock, perp)

	report, err := s.runner.Run(ctx, req, func(step string) {
		s.printf("  %s\n", step)
	})
	if err != nil {
		log.Warn("Arbitrage run failed", zap.Error(err))
		s.reportError(stock, perp, err)
		return err
	}

	s.printReport(report)

	path, err := s.store.SaveArbReport(report)
	if err != nil {
		log.Error("Failed to save arbitrage report", zap.Error(err))
		s.printf("Error: %v\n", err)
		return err
	}
	log.Info("Arbitrage report saved", zap.String("path", path))
	s.printf("Results saved to: %s\n", path)
	return nil
}

func (s *ArbSession) reportError(stock, perp string, err error) {
	var apiErr *domain.APIError
	switch {
	case errors.Is(err, usecase.ErrNoStockData):
		s.printf("Error: No data found for stock ticker %s\n\n", stock)
	case errors.Is(err, usecase.ErrNoCandleData):
		s.printf("Error: No candle data found for %s\n\n", perp)
	case errors.Is(err, usecase.ErrNoOverlap):
		s.printf("Error: No overlapping data between stock and Hyperliquid.\n")
		s.printf("Note: Stock markets are only open during market hours (9:30 AM - 4:00 PM ET).\n")
		s.printf("Crypto trades 24/7, so there may be limited overlap.\n\n")
	case errors.As(err, &apiErr):
		s.printf("API Error: %v\n", apiErr)
	case errors.Is(err, context.Canceled):
		s.printf("Cancelled.\n")
	default:
		s.printf("Error: %v\n", err)
	}
}

func (s *ArbSession) printReport(report *domain.ArbReport) {
	req := report.Request
	sum := report.Summary

	s.printf("\n%s\n", rule("=", arbWidth))
	s.printf("  Arbitrage Results: %s (Long) vs %s (Short)\n", req.StockTicker, req.PerpCoin)
	s.printf("  Starting Amount: %s (%s each side)\n", money(req.Amount), money(req.Amount.Div(two)))
	s.printf("%s\n\n", rule("=", arbWidth))
	s.printf("%s\n\n", gridTable(arbHeaders, arbRows(report.Hours)))

	s.printf("%s\n  SUMMARY\n%s\n", rule("=", arbWidth), rule("=", arbWidth))
	s.printf("  Hours Analyzed:        %d (%d market, %d non-market)\n", sum.Hours, sum.MarketHours, sum.ClosedHours)
	s.printf("  Total Price PnL:       %s\n", money(sum.TotalPricePnL))
	s.printf("  Total Funding Profit:  %s\n", money(sum.TotalFunding))
	s.printf("%s\n", rule("-", arbWidth))
	s.printf("  TOTAL OVERALL PROFIT:  %s (%s%%)\n", money(sum.TotalProfit), sum.ReturnPct.StringFixed(4))
	s.printf("%s\n", rule("=", arbWidth))
	if sum.ClosedHours > 0 {
		s.printf("  * = Non-market hours (stock price frozen, HL still trading)\n")
	}
	s.printf("\n")
}
