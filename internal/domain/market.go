package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// HoursPerYear converts an hourly funding rate into an annual one.
const HoursPerYear = 8760

type FundingRecord struct {
	Coin    string          `json:"coin"`
	Rate    decimal.Decimal `json:"funding_rate"`
	Premium decimal.Decimal `json:"premium"`
	Time    time.Time       `json:"time"`
}

type Candle struct {
	Coin      string          `json:"coin"`
	Interval  string          `json:"interval"`
	OpenTime  time.Time       `json:"open_time"`
	CloseTime time.Time       `json:"close_time"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
	Trades    int             `json:"trades"`
}

// Bar is a single hourly equity bar. Only open and close are used.
type Bar struct {
	Time  time.Time       `json:"time"`
	Open  decimal.Decimal `json:"open"`
	Close decimal.Decimal `json:"close"`
}

// HourBucket floors t to the start of its UTC hour.
func HourBucket(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}

// HourLayout is how hours are shown in tables and CSV files.
const HourLayout = "2006-01-02 15:04"
