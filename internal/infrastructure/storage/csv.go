package storage

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vitos/hl_funding_tools/internal/domain"
)

var ErrEmptyReport = errors.New("no data to save")

const fileTimeLayout = "20060102_150405"

var hundred = decimal.NewFromInt(100)

var fundingHeader = []string{"Time (UTC)", "Funding Rate", "Funding Rate %", "Annualized %", "Premium", "Coin"}

var arbHeader = []string{
	"Time (UTC)", "Market Open", "Stock Price", "HL Price",
	"Stock PnL", "HL PnL", "Hour PnL",
	"Funding Rate", "Funding Profit",
	"Cumulative PnL", "Cumulative Funding",
}

// CSVStore writes reports as timestamped CSV files under dir.
type CSVStore struct {
	dir     string
	timeNow func() time.Time // For testing
}

func NewCSVStore(dir string) *CSVStore {
	if dir == "" {
		dir = "output"
	}
	return &CSVStore{dir: dir, timeNow: time.Now}
}

func (s *CSVStore) Dir() string {
	return s.dir
}

func percent(d decimal.Decimal, places int32) string {
	return d.Mul(hundred).StringFixed(places) + "%"
}

// SaveFundingReport writes one row per record followed by the average rows and
// returns the file path.
func (s *CSVStore) SaveFundingReport(report *domain.FundingReport) (string, error) {
	if report == nil || len(report.Records) == 0 {
		return "", ErrEmptyReport
	}

	name := fmt.Sprintf("funding_rates_%s_%s.csv", domain.FileSafeCoin(report.Coin), s.timeNow().Format(fileTimeLayout))
	return s.write(name, func(w *csv.Writer, raw *bufio.Writer) error {
		if err := w.Write(fundingHeader); err != nil {
			return err
		}
		for _, r := range report.Records {
			row := []string{
				r.Time.UTC().Format(domain.HourLayout),
				r.Rate.StringFixed(8),
				percent(r.Rate, 6),
				percent(r.Rate.Mul(decimal.NewFromInt(domain.HoursPerYear)), 2),
				r.Premium.StringFixed(8),
				r.Coin,
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}

		if err := blankLine(w, raw); err != nil {
			return err
		}
		safeCoin := domain.FileSafeCoin(report.Coin)
		summary := [][]string{
			{"Average Funding Rate (Hourly)", report.AverageRate.StringFixed(8), percent(report.AverageRate, 6), "", "", safeCoin},
			{"Average Funding Rate (Annualized)", "", "", percent(report.AverageAnnualized, 2), "", safeCoin},
		}
		return w.WriteAll(summary)
	})
}

// SaveArbReport writes the hourly PnL rows and a summary block padded to the
// table width, returning the file path.
func (s *CSVStore) SaveArbReport(report *domain.ArbReport) (string, error) {
	if report == nil || len(report.Hours) == 0 {
		return "", ErrEmptyReport
	}

	req := report.Request
	name := fmt.Sprintf("arb_%s_%s_%s.csv", req.StockTicker, domain.FileSafeCoin(req.PerpCoin), s.timeNow().Format(fileTimeLayout))
	return s.write(name, func(w *csv.Writer, raw *bufio.Writer) error {
		if err := w.Write(arbHeader); err != nil {
			return err
		}
		for _, h := range report.Hours {
			open := "Yes"
			if !h.MarketOpen {
				open = "No"
			}
			row := []string{
				h.Hour.UTC().Format(domain.HourLayout),
				open,
				h.StockPrice.StringFixed(4),
				h.PerpPrice.StringFixed(4),
				h.StockPnL.StringFixed(2),
				h.PerpPnL.StringFixed(2),
				h.HourPnL.StringFixed(2),
				h.FundingRate.StringFixed(8),
				h.FundingProfit.StringFixed(2),
				h.CumulativePnL.StringFixed(2),
				h.CumulativeFunding.StringFixed(2),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}

		if err := blankLine(w, raw); err != nil {
			return err
		}
		sum := report.Summary
		summary := [][]string{
			padRow(len(arbHeader), "Summary"),
			padRow(len(arbHeader), "Starting Amount", sum.StartingAmount.StringFixed(2)),
			padRow(len(arbHeader), "Total Hours", fmt.Sprintf("%d (%d market / %d non-market)", sum.Hours, sum.MarketHours, sum.ClosedHours)),
			padRow(len(arbHeader), "Total Price PnL", sum.TotalPricePnL.StringFixed(2)),
			padRow(len(arbHeader), "Total Funding Profit", sum.TotalFunding.StringFixed(2)),
			padRow(len(arbHeader), "Total Overall Profit", sum.TotalProfit.StringFixed(2)),
			padRow(len(arbHeader), "Return %", sum.ReturnPct.StringFixed(2)+"%"),
		}
		return w.WriteAll(summary)
	})
}

func (s *CSVStore) write(name string, fill func(w *csv.Writer, raw *bufio.Writer) error) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	raw := bufio.NewWriter(f)
	w := csv.NewWriter(raw)
	if err := fill(w, raw); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := raw.Flush(); err != nil {
		return "", fmt.Errorf("flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}

	return path, nil
}

// blankLine separates the table from its summary rows.
func blankLine(w *csv.Writer, raw *bufio.Writer) error {
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	_, err := raw.WriteString("\n")
	return err
}

func padRow(width int, fields ...string) []string {
	row := make([]string, width)
	copy(row, fields)
	return row
}
