package usecase

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vitos/hl_funding_tools/internal/domain"
)

type openClose struct {
	open  decimal.Decimal
	close decimal.Decimal
}

func hourKey(t time.Time) int64 {
	return domain.HourBucket(t).Unix()
}

// AlignHours merges stock bars, perp candles and funding on their UTC hour bucket.
//
// Every perp hour is kept since the perp trades around the clock. Hours with no
// stock bar reuse the last stock close with MarketOpen false, so the stock leg
// has zero PnL while the market is shut. Perp hours before the first known stock
// price are dropped.
func AlignHours(bars []domain.Bar, candles []domain.Candle, funding []domain.FundingRecord) []domain.AlignedHour {
	perp := make(map[int64]openClose, len(candles))
	for _, c := range candles {
		perp[hourKey(c.OpenTime)] = openClose{open: c.Open, close: c.Close}
	}
	if len(perp) == 0 {
		return nil
	}

	rates := make(map[int64]decimal.Decimal, len(funding))
	for _, f := range funding {
		rates[hourKey(f.Time)] = f.Rate
	}

	stock := make(map[int64]openClose, len(bars))
	for _, b := range bars {
		stock[hourKey(b.Time)] = openClose{open: b.Open, close: b.Close}
	}
	stockHours := sortedKeys(stock)

	var (
		aligned   = make([]domain.AlignedHour, 0, len(perp))
		lastClose decimal.Decimal
		haveLast  bool
	)
	for _, h := range sortedKeys(perp) {
		entry := domain.AlignedHour{
			Hour:        time.Unix(h, 0).UTC(),
			PerpOpen:    perp[h].open,
			PerpClose:   perp[h].close,
			FundingRate: rates[h], // zero when no funding was paid this hour
		}

		if bar, ok := stock[h]; ok {
			entry.StockOpen = bar.open
			entry.StockClose = bar.close
			entry.MarketOpen = true
			lastClose, haveLast = bar.close, true
		} else {
			if !haveLast {
				prev, ok := latestBefore(stockHours, h)
				if !ok {
					continue
				}
				lastClose, haveLast = stock[prev].close, true
			}
			entry.StockOpen = lastClose
			entry.StockClose = lastClose
		}

		aligned = append(aligned, entry)
	}

	return aligned
}

// latestBefore returns the greatest key in sorted that is strictly below h.
func latestBefore(sorted []int64, h int64) (int64, bool) {
	i := sort.Search(len(sorted), func(i int) bool { return sorted[i] >= h })
	if i == 0 {
		return 0, false
	}
	return sorted[i-1], true
}

func sortedKeys(m map[int64]openClose) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
