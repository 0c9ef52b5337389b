package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/hl_funding_tools/internal/domain"
	"github.com/vitos/hl_funding_tools/internal/usecase"
)

type fakeReporter struct {
	report *domain.FundingReport
	err    error
	coins  []string
	hours  []int
}

func (f *fakeReporter) Report(ctx context.Context, coin string, hours int) (*domain.FundingReport, error) {
	f.coins = append(f.coins, coin)
	f.hours = append(f.hours, hours)
	return f.report, f.err
}

type fakeRunner struct {
	report   *domain.ArbReport
	err      error
	requests []domain.ArbRequest
}

func (f *fakeRunner) Run(ctx context.Context, req domain.ArbRequest, progress func(string)) (*domain.ArbReport, error) {
	f.requests = append(f.requests, req)
	progress("Fetching stock data...")
	return f.report, f.err
}

type fakeStore struct {
	path    string
	err     error
	funding []*domain.FundingReport
	arb     []*domain.ArbReport
}

func (f *fakeStore) SaveFundingReport(report *domain.FundingReport) (string, error) {
	f.funding = append(f.funding, report)
	return f.path, f.err
}

func (f *fakeStore) SaveArbReport(report *domain.ArbReport) (string, error) {
	f.arb = append(f.arb, report)
	return f.path, f.err
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var hour0 = time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)

func sampleFundingReport() *domain.FundingReport {
	return &domain.FundingReport{
		Coin:  "BTC",
		Hours: 24,
		Records: []domain.FundingRecord{
			{Coin: "BTC", Rate: dec("0.0000125"), Premium: dec("0.0001"), Time: hour0},
		},
		AverageRate:       dec("0.0000125"),
		AverageAnnualized: dec("0.1095"),
	}
}

func TestFundingSession_Run(t *testing.T) {
	reporter := &fakeReporter{report: sampleFundingReport()}
	store := &fakeStore{path: "output/funding_rates_BTC.csv"}
	var out bytes.Buffer

	s := NewFundingSession(reporter, store, strings.NewReader("btc\n24\nquit\n"), &out, nil)
	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, []string{"btc"}, reporter.coins)
	assert.Equal(t, []int{24}, reporter.hours)
	require.Len(t, store.funding, 1)

	text := out.String()
	assert.Contains(t, text, "Hyperliquid Funding Rate Tracker")
	assert.Contains(t, text, "Fetching funding rates for BTC over the last 24 hours...")
	assert.Contains(t, text, "Funding Rates for BTC")
	assert.Contains(t, text, "2024-03-01 14:00")
	assert.Contains(t, text, "0.00001250")
	assert.Contains(t, text, "0.001250%")
	assert.Contains(t, text, "Average Annualized Rate: 10.95%")
	assert.Contains(t, text, "Total Records: 1")
	assert.Contains(t, text, "Results saved to: output/funding_rates_BTC.csv")
	assert.True(t, strings.HasSuffix(text, "Goodbye!\n"))
}

func TestFundingSession_RunRejectsInput(t *testing.T) {
	reporter := &fakeReporter{report: sampleFundingReport()}
	var out bytes.Buffer

	s := NewFundingSession(reporter, &fakeStore{}, strings.NewReader("\nbtc\nlots\nbtc\n0\n"), &out, nil)
	require.NoError(t, s.Run(context.Background()))

	assert.Empty(t, reporter.coins)
	text := out.String()
	assert.Contains(t, text, "Error: Coin symbol cannot be empty.")
	assert.Contains(t, text, "Error: Please enter a valid number.")
	assert.Contains(t, text, "Error: Hours must be a positive number.")
	assert.True(t, strings.HasSuffix(text, "\nGoodbye!\n"))
}

func TestFundingSession_RunReportsErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "no data",
			err:  usecase.ErrNoFundingData,
			want: []string{"No funding rate data found for DOGE in the specified time range."},
		},
		{
			name: "api error",
			err:  &domain.APIError{Source: "hyperliquid", StatusCode: 422, Body: "bad coin"},
			want: []string{"API Error: hyperliquid API error (status 422): bad coin", "Please check if the coin symbol is valid on Hyperliquid."},
		},
		{
			name: "network",
			err:  errors.New("dial tcp: connection refused"),
			want: []string{"Network Error: dial tcp: connection refused", "Please check your internet connection."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			var out bytes.Buffer
			s := NewFundingSession(&fakeReporter{err: tt.err}, store, strings.NewReader("doge\n12\nquit\n"), &out, nil)

			require.NoError(t, s.Run(context.Background()))
			assert.Empty(t, store.funding)
			for _, want := range tt.want {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestFundingSession_RunOnceSaveError(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	var out bytes.Buffer
	s := NewFundingSession(&fakeReporter{report: sampleFundingReport()}, store, strings.NewReader(""), &out, nil)

	err := s.RunOnce(context.Background(), "BTC", 24)
	assert.EqualError(t, err, "disk full")
	assert.Contains(t, out.String(), "Error saving results: disk full")
}

func sampleArbReport() *domain.ArbReport {
	return &domain.ArbReport{
		Request: domain.ArbRequest{Amount: dec("10000"), StockTicker: "SPY", PerpCoin: "xyz:SPX", Hours: 2},
		Hours: []domain.ArbHour{
			{
				Hour: hour0, StockPrice: dec("101"), PerpPrice: dec("99"),
				HourPnL: dec("100"), FundingProfit: dec("0.5"),
				CumulativePnL: dec("100"), CumulativeFunding: dec("0.5"), MarketOpen: true,
			},
			{
				Hour: hour0.Add(time.Hour), StockPrice: dec("101"), PerpPrice: dec("104"),
				HourPnL: dec("-252.5"), CumulativePnL: dec("-152.5"), CumulativeFunding: dec("0.5"),
			},
		},
		Summary: domain.ArbSummary{
			StartingAmount: dec("10000"), Hours: 2, MarketHours: 1, ClosedHours: 1,
			TotalPricePnL: dec("-152.5"), TotalFunding: dec("0.5"), TotalProfit: dec("-152"),
			ReturnPct: dec("-1.52"),
		},
	}
}

func TestArbSession_Run(t *testing.T) {
	runner := &fakeRunner{report: sampleArbReport()}
	store := &fakeStore{path: "output/arb_SPY_xyz_SPX.csv"}
	var out bytes.Buffer

	s := NewArbSession(runner, store, strings.NewReader("$10,000\nspy\nxyz:spx\n2\nquit\n"), &out, nil)
	require.NoError(t, s.Run(context.Background()))

	require.Len(t, runner.requests, 1)
	req := runner.requests[0]
	assert.True(t, dec("10000").Equal(req.Amount))
	assert.Equal(t, "SPY", req.StockTicker)
	assert.Equal(t, "xyz:spx", req.PerpCoin)
	assert.Equal(t, 2, req.Hours)
	require.Len(t, store.arb, 1)

	text := out.String()
	assert.Contains(t, text, "Stock/ETF vs Hyperliquid Perp Arbitrage Calculator")
	assert.Contains(t, text, "Fetching data for SPY (long) vs xyz:SPX (short)...")
	assert.Contains(t, text, "  Fetching stock data...")
	assert.Contains(t, text, "Arbitrage Results: SPY (Long) vs xyz:SPX (Short)")
	assert.Contains(t, text, "$101.00*")
	assert.Contains(t, text, "$-252.50")
	assert.Contains(t, text, "Hours Analyzed:        2 (1 market, 1 non-market)")
	assert.Contains(t, text, "(-1.5200%)")
	assert.Contains(t, text, "* = Non-market hours")
	assert.Contains(t, text, "Results saved to: output/arb_SPY_xyz_SPX.csv")
	assert.True(t, strings.HasSuffix(text, "Goodbye!\n"))
}

func TestArbSession_RunRejectsInput(t *testing.T) {
	runner := &fakeRunner{report: sampleArbReport()}
	var out bytes.Buffer
	input := strings.Join([]string{
		"abc",
		"0",
		"100", "",
		"100", "SPY", "",
		"100", "SPY", "BTC", "-1",
	}, "\n") + "\n"

	s := NewArbSession(runner, &fakeStore{}, strings.NewReader(input), &out, nil)
	require.NoError(t, s.Run(context.Background()))

	assert.Empty(t, runner.requests)
	text := out.String()
	assert.Contains(t, text, "Error: Please enter a valid number.")
	assert.Contains(t, text, "Error: Starting amount must be positive.")
	assert.Contains(t, text, "Error: Stock ticker cannot be empty.")
	assert.Contains(t, text, "Error: Hyperliquid ticker cannot be empty.")
	assert.Contains(t, text, "Error: Hours must be a positive number.")
	assert.True(t, strings.HasSuffix(text, "\nGoodbye!\n"))
}

func TestArbSession_RunReportsErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no stock data", usecase.ErrNoStockData, "Error: No data found for stock ticker QQQ"},
		{"no candles", usecase.ErrNoCandleData, "Error: No candle data found for ETH"},
		{"no overlap", usecase.ErrNoOverlap, "Crypto trades 24/7, so there may be limited overlap."},
		{"api error", &domain.APIError{Source: "yahoo", StatusCode: 404, Body: "Not Found"}, "API Error: yahoo API error (status 404): Not Found"},
		{"other", errors.New("boom"), "Error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			var out bytes.Buffer
			s := NewArbSession(&fakeRunner{err: tt.err}, store, strings.NewReader("500\nqqq\neth\n5\nquit\n"), &out, nil)

			require.NoError(t, s.Run(context.Background()))
			assert.Empty(t, store.arb)
			assert.Contains(t, out.String(), tt.want)
		})
	}
}

func TestArbSession_RunOnce(t *testing.T) {
	store := &fakeStore{path: "arb.csv"}
	var out bytes.Buffer
	s := NewArbSession(&fakeRunner{report: sampleArbReport()}, store, strings.NewReader(""), &out, nil)

	req := domain.ArbRequest{Amount: dec("10000"), StockTicker: "spy", PerpCoin: "xyz:spx", Hours: 2}
	require.NoError(t, s.RunOnce(context.Background(), req))
	assert.Len(t, store.arb, 1)
	assert.Contains(t, out.String(), "Results saved to: arb.csv")
}

func TestArbSession_RunCancelled(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewArbSession(&fakeRunner{}, &fakeStore{}, reader, io.Discard, nil)
	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
}
