package domain

import "github.com/shopspring/decimal"

type FundingReport struct {
	Coin              string
	Hours             int
	Records           []FundingRecord
	AverageRate       decimal.Decimal
	AverageAnnualized decimal.Decimal
}

// ArbRequest describes a long stock / short perp position held for the last Hours.
type ArbRequest struct {
	Amount      decimal.Decimal
	StockTicker string
	PerpCoin    string
	Hours       int
}

type ArbReport struct {
	Request ArbRequest
	Hours   []ArbHour
	Summary ArbSummary
}
