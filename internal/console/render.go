package console

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
	"github.com/vitos/hl_funding_tools/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	cellStyle = lipgloss.NewStyle().Padding(0, 1)
	printer   = message.NewPrinter(language.English)
	hundred   = decimal.NewFromInt(100)
	two       = decimal.NewFromInt(2)
)

func rule(ch string, width int) string {
	return strings.Repeat(ch, width)
}

// gridTable renders rows with a border around every cell.
func gridTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(true).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			return cellStyle
		})
	return t.String()
}

func percent(d decimal.Decimal, places int32) string {
	return d.Mul(hundred).StringFixed(places) + "%"
}

// money formats with thousands separators, e.g. $10,000.00 or $-1,250.50.
func money(d decimal.Decimal) string {
	rounded := d.Round(2)
	whole, frac, _ := strings.Cut(rounded.Abs().StringFixed(2), ".")
	if n, err := strconv.ParseInt(whole, 10, 64); err == nil {
		whole = printer.Sprintf("%d", n)
	}
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	return "$" + sign + whole + "." + frac
}

func dollars(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func fundingRows(records []domain.FundingRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Time.UTC().Format(domain.HourLayout),
			r.Rate.StringFixed(8),
			percent(r.Rate, 6),
			percent(r.Rate.Mul(decimal.NewFromInt(domain.HoursPerYear)), 2),
			r.Premium.StringFixed(8),
		})
	}
	return rows
}

var fundingHeaders = []string{"Time (UTC)", "Funding Rate", "Funding Rate %", "Annualized %", "Premium"}

func arbRows(hours []domain.ArbHour) [][]string {
	rows := make([][]string, 0, len(hours))
	for _, h := range hours {
		stock := dollars(h.StockPrice)
		if !h.MarketOpen {
			stock += "*"
		}
		rows = append(rows, []string{
			h.Hour.UTC().Format(domain.HourLayout),
			stock,
			dollars(h.PerpPrice),
			dollars(h.HourPnL),
			dollars(h.FundingProfit),
			dollars(h.CumulativePnL),
			dollars(h.CumulativeFunding),
		})
	}
	return rows
}

var arbHeaders = []string{"Time (UTC)", "Stock $", "HL $", "Hour PnL", "Funding Profit", "Cum. PnL", "Cum. Funding"}
