package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vitos/hl_funding_tools/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// The info endpoint returns at most this many funding rows per call.
const fundingHistoryPageSize = 500

type HyperliquidAdapter struct {
	transport InfoTransport
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// NewHyperliquidAdapter wraps transport with a client-side limit of requestsPerMinute.
// A non-positive limit disables throttling.
func NewHyperliquidAdapter(transport InfoTransport, requestsPerMinute int, logger *zap.Logger) *HyperliquidAdapter {
	limit := rate.Inf
	burst := 1
	if requestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
		burst = requestsPerMinute / 60
		if burst < 1 {
			burst = 1
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HyperliquidAdapter{
		transport: transport,
		limiter:   rate.NewLimiter(limit, burst),
		logger:    logger,
	}
}

func (h *HyperliquidAdapter) post(ctx context.Context, requestType string, payload interface{}, out interface{}) error {
	if err := h.limiter.Wait(ctx); err != nil {
		return err
	}

	started := time.Now()
	body, err := h.transport.Post(ctx, payload)
	if err != nil {
		h.logger.Warn("Info request failed", zap.String("type", requestType), zap.Error(err))
		return err
	}
	h.logger.Debug("Info request done",
		zap.String("type", requestType),
		zap.Int("bytes", len(body)),
		zap.Duration("took", time.Since(started)))

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", requestType, err)
	}
	return nil
}

type fundingHistoryEntry struct {
	Coin        string `json:"coin"`
	FundingRate string `json:"fundingRate"`
	Premium     string `json:"premium"`
	Time        int64  `json:"time"`
}

// GetFundingHistory returns the hourly funding records for coin between start and end,
// following pages until the window is covered.
func (h *HyperliquidAdapter) GetFundingHistory(ctx context.Context, coin string, start, end time.Time) ([]domain.FundingRecord, error) {
	coin = domain.NormalizeCoin(coin)
	startMs := start.UnixMilli()
	endMs := end.UnixMilli()

	var records []domain.FundingRecord
	for {
		payload := map[string]interface{}{
			"type":      "fundingHistory",
			"coin":      coin,
			"startTime": startMs,
			"endTime":   endMs,
		}

		var page []fundingHistoryEntry
		if err := h.post(ctx, "fundingHistory", payload, &page); err != nil {
			return nil, err
		}

		for _, raw := range page {
			fundingRate, err := decimal.NewFromString(raw.FundingRate)
			if err != nil {
				return nil, fmt.Errorf("parse funding rate %q: %w", raw.FundingRate, err)
			}
			premium, err := parseOptionalDecimal(raw.Premium)
			if err != nil {
				return nil, fmt.Errorf("parse premium %q: %w", raw.Premium, err)
			}
			records = append(records, domain.FundingRecord{
				Coin:    raw.Coin,
				Rate:    fundingRate,
				Premium: premium,
				Time:    time.UnixMilli(raw.Time).UTC(),
			})
		}

		if len(page) < fundingHistoryPageSize {
			break
		}
		last := page[len(page)-1].Time
		if last+1 >= endMs || last < startMs {
			break
		}
		startMs = last + 1
	}

	return records, nil
}

type candleEntry struct {
	OpenTime  int64  `json:"t"`
	CloseTime int64  `json:"T"`
	Coin      string `json:"s"`
	Interval  string `json:"i"`
	Open      string `json:"o"`
	Close     string `json:"c"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Volume    string `json:"v"`
	Trades    int    `json:"n"`
}

// GetCandles returns candles for coin ordered oldest first.
func (h *HyperliquidAdapter) GetCandles(ctx context.Context, coin, interval string, start, end time.Time) ([]domain.Candle, error) {
	payload := map[string]interface{}{
		"type": "candleSnapshot",
		"req": map[string]interface{}{
			"coin":      domain.NormalizeCoin(coin),
			"interval":  interval,
			"startTime": start.UnixMilli(),
			"endTime":   end.UnixMilli(),
		},
	}

	var raw []candleEntry
	if err := h.post(ctx, "candleSnapshot", payload, &raw); err != nil {
		return nil, err
	}

	candles := make([]domain.Candle, 0, len(raw))
	for _, c := range raw {
		var (
			candle = domain.Candle{
				Coin:      c.Coin,
				Interval:  c.Interval,
				OpenTime:  time.UnixMilli(c.OpenTime).UTC(),
				CloseTime: time.UnixMilli(c.CloseTime).UTC(),
				Trades:    c.Trades,
			}
			err error
		)
		if candle.Open, err = decimal.NewFromString(c.Open); err != nil {
			return nil, fmt.Errorf("parse candle open %q: %w", c.Open, err)
		}
		if candle.Close, err = decimal.NewFromString(c.Close); err != nil {
			return nil, fmt.Errorf("parse candle close %q: %w", c.Close, err)
		}
		// High, low and volume are informational; tolerate blanks.
		candle.High, _ = parseOptionalDecimal(c.High)
		candle.Low, _ = parseOptionalDecimal(c.Low)
		candle.Volume, _ = parseOptionalDecimal(c.Volume)
		candles = append(candles, candle)
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].OpenTime.Before(candles[j].OpenTime)
	})

	return candles, nil
}

func parseOptionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
