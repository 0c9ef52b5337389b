package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vitos/hl_funding_tools/internal/domain"
	"go.uber.org/zap"
)

const (
	YahooBaseURL = "https://query1.finance.yahoo.com"

	// The chart API rejects requests without a browser-like agent.
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	source           = "yahoo"
)

type YahooAdapter struct {
	baseURL   string
	userAgent string
	client    *http.Client
	logger    *zap.Logger
}

func NewYahooAdapter(baseURL, userAgent string, timeout time.Duration, logger *zap.Logger) *YahooAdapter {
	if baseURL == "" {
		baseURL = YahooBaseURL
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YahooAdapter{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// RangeFor picks the smallest chart range that covers hoursBack, with two days of
// slack for weekends and closed sessions.
func RangeFor(hoursBack int) string {
	days := hoursBack/24 + 2
	if days < 1 {
		days = 1
	}
	switch {
	case days <= 5:
		return "5d"
	case days <= 30:
		return "1mo"
	default:
		return "3mo"
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open  []*float64 `json:"open"`
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetHourlyBars returns hourly bars for ticker, oldest first. Bars the provider
// reports with missing prices are dropped.
func (y *YahooAdapter) GetHourlyBars(ctx context.Context, ticker string, hoursBack int) ([]domain.Bar, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	query := url.Values{}
	query.Set("range", RangeFor(hoursBack))
	query.Set("interval", "1h")
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.baseURL, url.PathEscape(ticker), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", y.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var result chartResponse
	decodeErr := json.Unmarshal(body, &result)

	if result.Chart.Error != nil {
		return nil, &domain.APIError{
			Source:     source,
			StatusCode: resp.StatusCode,
			Body:       fmt.Sprintf("%s: %s", result.Chart.Error.Code, result.Chart.Error.Description),
		}
	}
	if resp.StatusCode >= 400 {
		return nil, &domain.APIError{Source: source, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode chart response: %w", decodeErr)
	}

	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	series := result.Chart.Result[0]
	quote := series.Indicators.Quote[0]
	bars := make([]domain.Bar, 0, len(series.Timestamp))
	for i, ts := range series.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.Close) {
			break
		}
		if quote.Open[i] == nil || quote.Close[i] == nil {
			continue
		}
		bars = append(bars, domain.Bar{
			Time:  time.Unix(ts, 0).UTC(),
			Open:  decimal.NewFromFloat(*quote.Open[i]),
			Close: decimal.NewFromFloat(*quote.Close[i]),
		})
	}

	y.logger.Debug("Fetched stock bars",
		zap.String("ticker", ticker),
		zap.String("range", RangeFor(hoursBack)),
		zap.Int("bars", len(bars)))

	return bars, nil
}
