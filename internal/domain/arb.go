package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlignedHour is one hour of stock and perp prices merged on the hour bucket.
// When MarketOpen is false the stock price is carried forward from the last close.
type AlignedHour struct {
	Hour        time.Time
	StockOpen   decimal.Decimal
	StockClose  decimal.Decimal
	PerpOpen    decimal.Decimal
	PerpClose   decimal.Decimal
	FundingRate decimal.Decimal
	MarketOpen  bool
}

// ArbHour is the PnL breakdown for one hour of a long stock / short perp position.
type ArbHour struct {
	Hour              time.Time
	StockPrice        decimal.Decimal
	PerpPrice         decimal.Decimal
	StockPnL          decimal.Decimal
	PerpPnL           decimal.Decimal
	HourPnL           decimal.Decimal // price PnL only, funding excluded
	FundingRate       decimal.Decimal
	FundingProfit     decimal.Decimal
	CumulativePnL     decimal.Decimal
	CumulativeFunding decimal.Decimal
	MarketOpen        bool
}

type ArbSummary struct {
	StartingAmount decimal.Decimal
	Hours          int
	MarketHours    int
	ClosedHours    int
	TotalPricePnL  decimal.Decimal
	TotalFunding   decimal.Decimal
	TotalProfit    decimal.Decimal
	ReturnPct      decimal.Decimal
}
