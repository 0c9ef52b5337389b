package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vitos/hl_funding_tools/internal/domain"
	"go.uber.org/zap"
)

var (
	ErrEmptyCoin     = errors.New("coin symbol cannot be empty")
	ErrInvalidHours  = errors.New("hours must be a positive number")
	ErrNoFundingData = errors.New("no funding rate data found")
)

type FundingService struct {
	market  domain.PerpMarket
	logger  *zap.Logger
	timeNow func() time.Time // For testing
}

func NewFundingService(market domain.PerpMarket, logger *zap.Logger) *FundingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FundingService{
		market:  market,
		logger:  logger,
		timeNow: time.Now,
	}
}

// AnnualizeRate scales an hourly funding rate to a yearly one.
func AnnualizeRate(hourly decimal.Decimal) decimal.Decimal {
	return hourly.Mul(decimal.NewFromInt(domain.HoursPerYear))
}

// AverageFundingRate is the plain mean of the record rates, zero for no records.
func AverageFundingRate(records []domain.FundingRecord) decimal.Decimal {
	if len(records) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, r := range records {
		sum = sum.Add(r.Rate)
	}
	return sum.Div(decimal.NewFromInt(int64(len(records))))
}

// Report fetches the last hours of funding for coin and computes the averages.
func (s *FundingService) Report(ctx context.Context, coin string, hours int) (*domain.FundingReport, error) {
	if strings.TrimSpace(coin) == "" {
		return nil, ErrEmptyCoin
	}
	if hours <= 0 {
		return nil, ErrInvalidHours
	}
	coin = domain.NormalizeCoin(coin)

	end := s.timeNow().UTC()
	start := end.Add(-time.Duration(hours) * time.Hour)

	records, err := s.market.GetFundingHistory(ctx, coin, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch funding history for %s: %w", coin, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w for %s in the last %d hours", ErrNoFundingData, coin, hours)
	}

	avg := AverageFundingRate(records)
	s.logger.Info("Funding report built",
		zap.String("coin", coin),
		zap.Int("hours", hours),
		zap.Int("records", len(records)),
		zap.String("avg_rate", avg.String()))

	return &domain.FundingReport{
		Coin:              coin,
		Hours:             hours,
		Records:           records,
		AverageRate:       avg,
		AverageAnnualized: AnnualizeRate(avg),
	}, nil
}
