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

const CandleInterval = "1h"

var (
	ErrInvalidAmount = errors.New("starting amount must be positive")
	ErrEmptyTicker   = errors.New("stock ticker cannot be empty")
	ErrNoStockData   = errors.New("no data found for stock ticker")
	ErrNoCandleData  = errors.New("no candle data found")
	ErrNoOverlap     = errors.New("no overlapping data between stock and Hyperliquid")
)

var (
	two     = decimal.NewFromInt(2)
	hundred = decimal.NewFromInt(100)
)

type ArbService struct {
	stocks  domain.StockMarket
	perps   domain.PerpMarket
	logger  *zap.Logger
	timeNow func() time.Time // For testing
}

func NewArbService(stocks domain.StockMarket, perps domain.PerpMarket, logger *zap.Logger) *ArbService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArbService{
		stocks:  stocks,
		perps:   perps,
		logger:  logger,
		timeNow: time.Now,
	}
}

func pctChange(open, close decimal.Decimal) decimal.Decimal {
	if open.IsZero() {
		return decimal.Zero
	}
	return close.Sub(open).Div(open)
}

// CalculateArbPnL splits amount evenly between the long stock leg and the short
// perp leg and walks the aligned hours. HourPnL is price only; the short leg's
// funding is tracked separately.
func CalculateArbPnL(hours []domain.AlignedHour, amount decimal.Decimal) []domain.ArbHour {
	half := amount.Div(two)
	results := make([]domain.ArbHour, 0, len(hours))

	cumPnL := decimal.Zero
	cumFunding := decimal.Zero
	for _, h := range hours {
		stockPnL := half.Mul(pctChange(h.StockOpen, h.StockClose))
		perpPnL := half.Neg().Mul(pctChange(h.PerpOpen, h.PerpClose))
		funding := half.Mul(h.FundingRate)
		hourPnL := stockPnL.Add(perpPnL)

		cumPnL = cumPnL.Add(hourPnL)
		cumFunding = cumFunding.Add(funding)

		results = append(results, domain.ArbHour{
			Hour:              h.Hour,
			StockPrice:        h.StockClose,
			PerpPrice:         h.PerpClose,
			StockPnL:          stockPnL,
			PerpPnL:           perpPnL,
			HourPnL:           hourPnL,
			FundingRate:       h.FundingRate,
			FundingProfit:     funding,
			CumulativePnL:     cumPnL,
			CumulativeFunding: cumFunding,
			MarketOpen:        h.MarketOpen,
		})
	}

	return results
}

func Summarize(hours []domain.ArbHour, amount decimal.Decimal) domain.ArbSummary {
	s := domain.ArbSummary{
		StartingAmount: amount,
		Hours:          len(hours),
		TotalPricePnL:  decimal.Zero,
		TotalFunding:   decimal.Zero,
		TotalProfit:    decimal.Zero,
		ReturnPct:      decimal.Zero,
	}
	for _, h := range hours {
		if h.MarketOpen {
			s.MarketHours++
		}
	}
	s.ClosedHours = s.Hours - s.MarketHours

	if len(hours) == 0 {
		return s
	}
	last := hours[len(hours)-1]
	s.TotalPricePnL = last.CumulativePnL
	s.TotalFunding = last.CumulativeFunding
	s.TotalProfit = s.TotalPricePnL.Add(s.TotalFunding)
	if !amount.IsZero() {
		s.ReturnPct = s.TotalProfit.Div(amount).Mul(hundred)
	}
	return s
}

func normalizeArbRequest(r domain.ArbRequest) (domain.ArbRequest, error) {
	if !r.Amount.IsPositive() {
		return r, ErrInvalidAmount
	}
	r.StockTicker = strings.ToUpper(strings.TrimSpace(r.StockTicker))
	if r.StockTicker == "" {
		return r, ErrEmptyTicker
	}
	if strings.TrimSpace(r.PerpCoin) == "" {
		return r, ErrEmptyCoin
	}
	r.PerpCoin = domain.NormalizeCoin(r.PerpCoin)
	if r.Hours <= 0 {
		return r, ErrInvalidHours
	}
	return r, nil
}

// Run fetches both legs, aligns them and computes the hourly PnL. progress, when
// set, is told about each fetch step as it starts.
func (s *ArbService) Run(ctx context.Context, req domain.ArbRequest, progress func(string)) (*domain.ArbReport, error) {
	req, err := normalizeArbRequest(req)
	if err != nil {
		return nil, err
	}
	step := func(msg string) {
		if progress != nil {
			progress(msg)
		}
	}

	end := s.timeNow().UTC()
	start := end.Add(-time.Duration(req.Hours) * time.Hour)

	step("Fetching stock data...")
	bars, err := s.stocks.GetHourlyBars(ctx, req.StockTicker, req.Hours)
	if err != nil {
		return nil, fmt.Errorf("fetch stock data for %s: %w", req.StockTicker, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w %s", ErrNoStockData, req.StockTicker)
	}

	step("Fetching Hyperliquid candle data...")
	candles, err := s.perps.GetCandles(ctx, req.PerpCoin, CandleInterval, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch candles for %s: %w", req.PerpCoin, err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoCandleData, req.PerpCoin)
	}

	step("Fetching Hyperliquid funding data...")
	funding, err := s.perps.GetFundingHistory(ctx, req.PerpCoin, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch funding history for %s: %w", req.PerpCoin, err)
	}

	step("Aligning data...")
	aligned := AlignHours(bars, candles, funding)
	if len(aligned) == 0 {
		return nil, ErrNoOverlap
	}

	hours := CalculateArbPnL(aligned, req.Amount)
	summary := Summarize(hours, req.Amount)

	s.logger.Info("Arbitrage run computed",
		zap.String("stock", req.StockTicker),
		zap.String("perp", req.PerpCoin),
		zap.Int("hours", summary.Hours),
		zap.Int("market_hours", summary.MarketHours),
		zap.Int("stock_bars", len(bars)),
		zap.Int("candles", len(candles)),
		zap.Int("funding_records", len(funding)),
		zap.String("total_profit", summary.TotalProfit.String()))

	return &domain.ArbReport{
		Request: req,
		Hours:   hours,
		Summary: summary,
	}, nil
}
