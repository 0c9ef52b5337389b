package usecase

import (
	"context"
	"time"

	"github.com/vitos/hl_funding_tools/internal/domain"
)

// MockPerpMarket records the windows it was asked for and returns canned data.
type MockPerpMarket struct {
	Funding    []domain.FundingRecord
	Candles    []domain.Candle
	FundingErr error
	CandleErr  error

	FundingCoin  string
	FundingStart time.Time
	FundingEnd   time.Time
	CandleCoin   string
	Interval     string
}

func (m *MockPerpMarket) GetFundingHistory(ctx context.Context, coin string, start, end time.Time) ([]domain.FundingRecord, error) {
	m.FundingCoin, m.FundingStart, m.FundingEnd = coin, start, end
	return m.Funding, m.FundingErr
}

func (m *MockPerpMarket) GetCandles(ctx context.Context, coin, interval string, start, end time.Time) ([]domain.Candle, error) {
	m.CandleCoin, m.Interval = coin, interval
	return m.Candles, m.CandleErr
}

type MockStockMarket struct {
	Bars   []domain.Bar
	Err    error
	Ticker string
	Hours  int
}

func (m *MockStockMarket) GetHourlyBars(ctx context.Context, ticker string, hoursBack int) ([]domain.Bar, error) {
	m.Ticker, m.Hours = ticker, hoursBack
	return m.Bars, m.Err
}
