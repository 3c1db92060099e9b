package bybit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	engineerrors "github.com/ducminhle1904/strategy-lab/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeExchange serves total hourly klines newest first, honouring end and limit.
type fakeExchange struct {
	total int
	calls int32
}

func (f *fakeExchange) source(_ context.Context, params map[string]interface{}) (interface{}, error) {
	atomic.AddInt32(&f.calls, 1)
	limit := params["limit"].(int)
	endMs := start.Add(time.Duration(f.total) * time.Hour).UnixMilli()
	if end, ok := params["end"].(int64); ok {
		endMs = end
	}

	list := [][]string{}
	for i := f.total - 1; i >= 0 && len(list) < limit; i-- {
		ts := start.Add(time.Duration(i) * time.Hour)
		if ts.UnixMilli() > endMs {
			continue
		}
		price := strconv.Itoa(100 + i)
		list = append(list, []string{strconv.FormatInt(ts.UnixMilli(), 10), price, price, price, price, "10", "1000"})
	}
	return &bybit_api.ServerResponse{
		RetCode: 0,
		Result:  map[string]interface{}{"symbol": params["symbol"], "category": params["category"], "list": list},
	}, nil
}

func newFakeClient(src klineSource) *Client {
	c := NewClient(Config{Testnet: true})
	c.klines = src
	c.retry = RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}
	return c
}

func TestParseInterval(t *testing.T) {
	tests := map[string]KlineInterval{
		"1m": Interval1m, "15m": Interval15m, "1h": Interval1h, "4H": Interval4h,
		"1d": Interval1d, "60": Interval1h, "d": Interval1d, "W": Interval1w,
	}
	for in, want := range tests {
		got, err := ParseInterval(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseInterval("7m")
	assert.Error(t, err)
}

func TestParseKlineResponse(t *testing.T) {
	resp := &bybit_api.ServerResponse{Result: map[string]interface{}{
		"list": [][]string{
			{"1704070800000", "101", "103", "100", "102", "5.5", "561"},
			{"short"},
		},
	}}
	klines, err := parseKlineResponse(resp)
	require.NoError(t, err)
	require.Len(t, klines, 1)

	bar := klines[0].Bar()
	assert.Equal(t, start.Add(time.Hour), bar.Timestamp)
	assert.Equal(t, 101.0, bar.Open)
	assert.Equal(t, 103.0, bar.High)
	assert.Equal(t, 100.0, bar.Low)
	assert.Equal(t, 102.0, bar.Close)
	assert.Equal(t, 5.5, bar.Volume)
	assert.Equal(t, 561.0, bar.Amount)
}

func TestParseKlineResponse_Errors(t *testing.T) {
	_, err := parseKlineResponse("not a response")
	assert.Error(t, err)

	_, err = parseKlineResponse(&bybit_api.ServerResponse{RetCode: ErrCodeSymbolNotFound, RetMsg: "symbol invalid"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrCodeSymbolNotFound, apiErr.Code)
	assert.False(t, IsRetryableError(err))
}

func TestFetchBars_SinglePage(t *testing.T) {
	fake := &fakeExchange{total: 50}
	bars, err := newFakeClient(fake.source).FetchBars(context.Background(), "btcusdt", "1h", 20)
	require.NoError(t, err)
	require.Len(t, bars, 20)
	assert.EqualValues(t, 1, fake.calls)

	// most recent 20 bars, ascending
	assert.Equal(t, start.Add(30*time.Hour), bars[0].Timestamp)
	assert.Equal(t, start.Add(49*time.Hour), bars[19].Timestamp)
	for i := 1; i < len(bars); i++ {
		assert.True(t, bars[i].Timestamp.After(bars[i-1].Timestamp))
	}
}

func TestFetchBars_Paginates(t *testing.T) {
	fake := &fakeExchange{total: 2500}
	bars, err := newFakeClient(fake.source).FetchBars(context.Background(), "BTCUSDT", "60", 2200)
	require.NoError(t, err)
	require.Len(t, bars, 2200)
	assert.EqualValues(t, 3, fake.calls)
	assert.Equal(t, start.Add(300*time.Hour), bars[0].Timestamp)
	assert.Equal(t, start.Add(2499*time.Hour), bars[len(bars)-1].Timestamp)
}

func TestFetchBars_StopsWhenHistoryRunsOut(t *testing.T) {
	fake := &fakeExchange{total: 30}
	bars, err := newFakeClient(fake.source).FetchBars(context.Background(), "BTCUSDT", "1h", 100)
	require.NoError(t, err)
	assert.Len(t, bars, 30)
	assert.Equal(t, start, bars[0].Timestamp)
}

func TestFetchBars_InvalidInterval(t *testing.T) {
	_, err := newFakeClient((&fakeExchange{}).source).FetchBars(context.Background(), "BTCUSDT", "7m", 10)
	assert.True(t, engineerrors.IsCategory(err, engineerrors.ErrorCategoryValidation))
}

func TestFetchBars_ProviderError(t *testing.T) {
	boom := errors.New("connection reset")
	c := newFakeClient(func(context.Context, map[string]interface{}) (interface{}, error) { return nil, boom })
	_, err := c.FetchBars(context.Background(), "BTCUSDT", "1h", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, engineerrors.IsCategory(err, engineerrors.ErrorCategoryProvider))
}

func TestRetry_RateLimitThenSuccess(t *testing.T) {
	fake := &fakeExchange{total: 5}
	var calls int32
	c := newFakeClient(func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return &bybit_api.ServerResponse{RetCode: ErrCodeRateLimitExceeded, RetMsg: "too many visits"}, nil
		}
		return fake.source(ctx, params)
	})
	bars, err := c.FetchBars(context.Background(), "BTCUSDT", "1h", 5)
	require.NoError(t, err)
	assert.Len(t, bars, 5)
	assert.EqualValues(t, 2, calls)
}

func TestRetry_Exhausted(t *testing.T) {
	var calls int
	c := newFakeClient(nil)
	err := c.RetryWithConfig(context.Background(), func() error {
		calls++
		return &APIError{Code: ErrCodeRateLimitExceeded}
	}, c.retry)
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "retry exhausted after 3 attempts")
}

func TestRetry_NonRetryableStopsImmediately(t *testing.T) {
	var calls int
	c := newFakeClient(nil)
	err := c.RetryWithConfig(context.Background(), func() error {
		calls++
		return fmt.Errorf("bad symbol: %w", &APIError{Code: ErrCodeInvalidParameter})
	}, c.retry)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := newFakeClient(nil)
	err := c.RetryWithConfig(ctx, func() error { return nil }, c.retry)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateDelay(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Second, MaxDelay: 5 * time.Second, BackoffFactor: 2}
	assert.Equal(t, time.Second, calculateDelay(0, cfg))
	assert.Equal(t, 4*time.Second, calculateDelay(2, cfg))
	assert.Equal(t, 5*time.Second, calculateDelay(5, cfg))

	cfg.JitterEnabled = true
	d := calculateDelay(1, cfg)
	assert.InDelta(t, float64(2*time.Second), float64(d), float64(200*time.Millisecond))
}

func TestAPIError_Describe(t *testing.T) {
	assert.Equal(t, "bybit API error 10006: rate limit exceeded", (&APIError{Code: ErrCodeRateLimitExceeded}).Error())
	assert.Equal(t, "unknown error code 42", Describe(42))
	assert.Nil(t, ParseAPIError(0, "OK"))
}
