package stock

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/hl_funding_tools/internal/domain"
	"go.uber.org/zap"
)

func TestRangeFor(t *testing.T) {
	tests := []struct {
		hours int
		want  string
	}{
		{1, "5d"},
		{72, "5d"},
		{95, "5d"},
		{96, "1mo"},
		{672, "1mo"},
		{673, "1mo"},
		{696, "3mo"},
		{2000, "3mo"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RangeFor(tt.hours), "hours=%d", tt.hours)
	}
}

const chartBody = `{"chart":{"result":[{"meta":{"symbol":"SPY"},
"timestamp":[1700055000,1700058600,1700062200],
"indicators":{"quote":[{"open":[450.5,null,451.25],"close":[451.0,452.0,450.75],"volume":[1,2,3]}]}}],"error":null}}`

func TestGetHourlyBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/SPY", r.URL.Path)
		assert.Equal(t, "5d", r.URL.Query().Get("range"))
		assert.Equal(t, "1h", r.URL.Query().Get("interval"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	adapter := NewYahooAdapter(srv.URL, "", time.Second, zap.NewNop())
	bars, err := adapter.GetHourlyBars(context.Background(), "spy", 24)
	require.NoError(t, err)

	// The null open in the middle bar drops it.
	require.Len(t, bars, 2)
	assert.Equal(t, time.Unix(1700055000, 0).UTC(), bars[0].Time)
	assert.Equal(t, "450.5", bars[0].Open.String())
	assert.Equal(t, "451", bars[0].Close.String())
	assert.Equal(t, "450.75", bars[1].Close.String())
}

func TestGetHourlyBars_ChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	adapter := NewYahooAdapter(srv.URL, "", time.Second, nil)
	_, err := adapter.GetHourlyBars(context.Background(), "NOPE", 24)

	var apiErr *domain.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "symbol may be delisted")
}

func TestGetHourlyBars_PlainHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	adapter := NewYahooAdapter(srv.URL, "", time.Second, nil)
	_, err := adapter.GetHourlyBars(context.Background(), "SPY", 24)

	var apiErr *domain.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

func TestGetHourlyBars_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}))
	defer srv.Close()

	adapter := NewYahooAdapter(srv.URL, "", time.Second, nil)
	bars, err := adapter.GetHourlyBars(context.Background(), "SPY", 24)
	require.NoError(t, err)
	assert.Empty(t, bars)
}
