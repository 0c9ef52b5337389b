package domain

import (
	"context"
	"time"
)

// PerpMarket defines the read-only market data we need from a perpetuals exchange.
type PerpMarket interface {
	GetFundingHistory(ctx context.Context, coin string, start, end time.Time) ([]FundingRecord, error)
	GetCandles(ctx context.Context, coin, interval string, start, end time.Time) ([]Candle, error)
}

// StockMarket defines the hourly equity data source.
type StockMarket interface {
	GetHourlyBars(ctx context.Context, ticker string, hoursBack int) ([]Bar, error)
}
