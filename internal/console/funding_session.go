package console

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/vitos/hl_funding_tools/internal/domain"
	"github.com/vitos/hl_funding_tools/internal/usecase"
	"go.uber.org/zap"
)

const fundingWidth = 60

type FundingReporter interface {
	Report(ctx context.Context, coin string, hours int) (*domain.FundingReport, error)
}

type FundingStore interface {
	SaveFundingReport(report *domain.FundingReport) (string, error)
}

// FundingSession drives the funding rate tracker prompt loop.
type FundingSession struct {
	reporter FundingReporter
	store    FundingStore
	prompt   *Prompter
	out      io.Writer
	logger   *zap.Logger
}

func NewFundingSession(reporter FundingReporter, store FundingStore, in io.Reader, out io.Writer, logger *zap.Logger) *FundingSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FundingSession{
		reporter: reporter,
		store:    store,
		prompt:   NewPrompter(in, out),
		out:      out,
		logger:   logger,
	}
}

func (s *FundingSession) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *FundingSession) banner() {
	s.printf("%s\n       Hyperliquid Funding Rate Tracker\n%s\n\n", rule("=", fundingWidth), rule("=", fundingWidth))
}

// Run prompts until the user quits or input ends. A cancelled ctx is returned as an error.
func (s *FundingSession) Run(ctx context.Context) error {
	s.banner()
	defer s.prompt.Close()

	for {
		coin, err := s.prompt.Ask(ctx, "What coin on Hyperliquid (e.g., BTC, ETH, xyz:COPPER) or 'quit' to exit: ")
		if err != nil {
			return s.stop(err)
		}
		if isQuit(coin) {
			s.printf("Goodbye!\n")
			return nil
		}
		if coin == "" {
			s.printf("Error: Coin symbol cannot be empty.\n\n")
			continue
		}

		answer, err := s.prompt.Ask(ctx, "How many hours back would you like the funding rate: ")
		if err != nil {
			return s.stop(err)
		}
		hours, problem := parseHours(answer)
		if problem != "" {
			s.printf("%s\n\n", problem)
			continue
		}

		if err := s.process(ctx, coin, hours); errors.Is(err, usecase.ErrNoFundingData) {
			continue
		} else if ctx.Err() != nil {
			return s.stop(ctx.Err())
		}

		s.printf("\n%s\n\n", rule("-", fundingWidth))
	}
}

// RunOnce computes a single report without prompting.
func (s *FundingSession) RunOnce(ctx context.Context, coin string, hours int) error {
	s.banner()
	return s.process(ctx, coin, hours)
}

func (s *FundingSession) stop(err error) error {
	if errors.Is(err, io.EOF) {
		s.printf("\nGoodbye!\n")
		return nil
	}
	s.printf("\n")
	return err
}

func (s *FundingSession) process(ctx context.Context, coin string, hours int) error {
	display := domain.NormalizeCoin(coin)
	log := s.logger.With(zap.String("run_id", uuid.NewString()), zap.String("coin", display), zap.Int("hours", hours))
	log.Info("Funding run started")

	s.printf("\nFetching funding rates for %s over the last %d hours...\n\n", display, hours)

	report, err := s.reporter.Report(ctx, coin, hours)
	if err != nil {
		log.Warn("Funding run failed", zap.Error(err))
		s.reportError(display, err)
		return err
	}

	s.printReport(report)

	path, err := s.store.SaveFundingReport(report)
	if err != nil {
		log.Error("Failed to save funding report", zap.Error(err))
		s.printf("Error saving results: %v\n", err)
		return err
	}
	log.Info("Funding report saved", zap.String("path", path))
	s.printf("Results saved to: %s\n", path)
	return nil
}

func (s *FundingSession) reportError(display string, err error) {
	var apiErr *domain.APIError
	switch {
	case errors.Is(err, usecase.ErrNoFundingData):
		s.printf("No funding rate data found for %s in the specified time range.\n", display)
		s.printf("Please check if the coin symbol is correct (e.g., BTC, ETH, xyz:COPPER).\n\n")
	case errors.As(err, &apiErr):
		s.printf("API Error: %v\n", apiErr)
		s.printf("Please check if the coin symbol is valid on Hyperliquid.\n")
	case errors.Is(err, context.Canceled):
		s.printf("Cancelled.\n")
	case errors.Is(err, usecase.ErrEmptyCoin), errors.Is(err, usecase.ErrInvalidHours):
		s.printf("Error: %v\n", err)
	default:
		s.printf("Network Error: %v\n", err)
		s.printf("Please check your internet connection.\n")
	}
}

func (s *FundingSession) printReport(report *domain.FundingReport) {
	s.printf("%s\n       Funding Rates for %s\n%s\n\n", rule("=", fundingWidth), report.Coin, rule("=", fundingWidth))
	s.printf("%s\n\n", gridTable(fundingHeaders, fundingRows(report.Records)))

	s.printf("%s\n", rule("=", fundingWidth))
	s.printf("  Average Funding Rate per Hour: %s (%s)\n", report.AverageRate.StringFixed(8), percent(report.AverageRate, 6))
	s.printf("  Average Annualized Rate: %s\n", percent(report.AverageAnnualized, 2))
	s.printf("  Total Records: %d\n", len(report.Records))
	s.printf("%s\n\n", rule("=", fundingWidth))
}
