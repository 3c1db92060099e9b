package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	engineerrors "github.com/ducminhle1904/strategy-lab/internal/errors"
	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

// maxPageSize is the most klines Bybit returns per request.
const maxPageSize = 1000

// KlineInterval is a Bybit kline interval code.
type KlineInterval string

const (
	Interval1m  KlineInterval = "1"
	Interval3m  KlineInterval = "3"
	Interval5m  KlineInterval = "5"
	Interval15m KlineInterval = "15"
	Interval30m KlineInterval = "30"
	Interval1h  KlineInterval = "60"
	Interval2h  KlineInterval = "120"
	Interval4h  KlineInterval = "240"
	Interval6h  KlineInterval = "360"
	Interval12h KlineInterval = "720"
	Interval1d  KlineInterval = "D"
	Interval1w  KlineInterval = "W"
	Interval1M  KlineInterval = "M"
)

var intervalAliases = map[string]KlineInterval{
	"1m": Interval1m, "3m": Interval3m, "5m": Interval5m, "15m": Interval15m, "30m": Interval30m,
	"1h": Interval1h, "2h": Interval2h, "4h": Interval4h, "6h": Interval6h, "12h": Interval12h,
	"1d": Interval1d, "1w": Interval1w, "1mo": Interval1M,
}

// ParseInterval accepts timeframe names like "1h" as well as Bybit codes
// like "60" or "D".
func ParseInterval(s string) (KlineInterval, error) {
	if iv, ok := intervalAliases[strings.ToLower(s)]; ok {
		return iv, nil
	}
	for _, iv := range intervalAliases {
		if string(iv) == strings.ToUpper(s) {
			return iv, nil
		}
	}
	return "", fmt.Errorf("unsupported interval %q", s)
}

// Kline is one Bybit candlestick.
type Kline struct {
	StartTime  time.Time
	OpenPrice  float64
	HighPrice  float64
	LowPrice   float64
	ClosePrice float64
	Volume     float64
	Turnover   float64
}

// Bar converts the kline; turnover becomes the bar amount.
func (k Kline) Bar() types.Bar {
	return types.Bar{
		Timestamp: k.StartTime,
		Open:      k.OpenPrice,
		High:      k.HighPrice,
		Low:       k.LowPrice,
		Close:     k.ClosePrice,
		Volume:    k.Volume,
		Amount:    k.Turnover,
	}
}

// KlineParams holds parameters for one kline request.
type KlineParams struct {
	Category string
	Symbol   string
	Interval KlineInterval
	Start    *time.Time
	End      *time.Time
	Limit    int // max 1000 (default: 200)
}

// GetKlines fetches one page of klines, newest first as Bybit returns them.
func (c *Client) GetKlines(ctx context.Context, params KlineParams) ([]Kline, error) {
	if params.Category == "" {
		params.Category = c.category
	}
	if params.Limit <= 0 {
		params.Limit = 200
	}
	params.Limit = min(params.Limit, maxPageSize)

	req := map[string]interface{}{
		"category": params.Category,
		"symbol":   params.Symbol,
		"interval": string(params.Interval),
		"limit":    params.Limit,
	}
	if params.Start != nil {
		req["start"] = params.Start.UnixMilli()
	}
	if params.End != nil {
		req["end"] = params.End.UnixMilli()
	}

	var klines []Kline
	err := c.RetryWithConfig(ctx, func() error {
		resp, err := c.klines(ctx, req)
		if err != nil {
			return err
		}
		klines, err = parseKlineResponse(resp)
		return err
	}, c.retry)
	if err != nil {
		return nil, fmt.Errorf("failed to get klines: %w", err)
	}
	return klines, nil
}

// FetchBars returns up to limit of the most recent bars for symbol in
// ascending time order, paging backwards as needed.
func (c *Client) FetchBars(ctx context.Context, symbol, interval string, limit int) ([]types.Bar, error) {
	iv, err := ParseInterval(interval)
	if err != nil {
		return nil, engineerrors.NewValidationError("bybit", "fetch bars", err.Error())
	}
	if limit <= 0 {
		limit = 200
	}

	seen := make(map[int64]bool, limit)
	bars := make([]types.Bar, 0, limit)
	var end *time.Time
	for len(bars) < limit {
		page, err := c.GetKlines(ctx, KlineParams{
			Symbol:   strings.ToUpper(symbol),
			Interval: iv,
			End:      end,
			Limit:    min(limit-len(bars), maxPageSize),
		})
		if err != nil {
			return nil, engineerrors.WrapError(err, engineerrors.ErrorCategoryProvider, "bybit", "fetch bars").
				WithContext("symbol", symbol).
				WithContext("interval", interval)
		}

		added := 0
		oldest := time.Time{}
		for _, k := range page {
			if oldest.IsZero() || k.StartTime.Before(oldest) {
				oldest = k.StartTime
			}
			if ms := k.StartTime.UnixMilli(); !seen[ms] && len(bars) < limit {
				seen[ms] = true
				bars = append(bars, k.Bar())
				added++
			}
		}
		if added == 0 {
			break
		}
		next := oldest.Add(-time.Millisecond)
		end = &next
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	c.logger.Debug().Str("symbol", symbol).Str("interval", interval).Int("bars", len(bars)).Msg("klines fetched")
	return bars, nil
}

// parseKlineResponse decodes a kline response. Each list item is
// [startTime, open, high, low, close, volume, turnover].
func parseKlineResponse(response interface{}) ([]Kline, error) {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return nil, fmt.Errorf("invalid response type %T", response)
	}
	if err := ParseAPIError(serverResp.RetCode, serverResp.RetMsg); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(serverResp.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	var result struct {
		Symbol   string     `json:"symbol"`
		Category string     `json:"category"`
		List     [][]string `json:"list"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kline result: %w", err)
	}

	klines := make([]Kline, 0, len(result.List))
	for _, item := range result.List {
		if len(item) < 7 {
			continue
		}
		klines = append(klines, Kline{
			StartTime:  time.UnixMilli(parseInt64(item[0])).UTC(),
			OpenPrice:  parseFloat64(item[1]),
			HighPrice:  parseFloat64(item[2]),
			LowPrice:   parseFloat64(item[3]),
			ClosePrice: parseFloat64(item[4]),
			Volume:     parseFloat64(item[5]),
			Turnover:   parseFloat64(item[6]),
		})
	}
	return klines, nil
}

func parseFloat64(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseInt64(s string) int64 {
	i, _ := strconv.ParseInt(s, 10, 64)
	return i
}
