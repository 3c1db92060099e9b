// Package bybit fetches historical klines from the Bybit v5 market API.
package bybit

import (
	"context"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	"github.com/rs/zerolog"
)

// Client wraps the Bybit API client for market data.
type Client struct {
	klines   klineSource
	category string
	testnet  bool
	retry    RetryConfig
	logger   zerolog.Logger
}

// Config holds the configuration for the Bybit client.
type Config struct {
	APIKey    string
	APISecret string
	Testnet   bool
	Category  string // spot, linear or inverse (default: linear)
}

// klineSource performs one kline request and returns the raw API response.
type klineSource func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// NewClient creates a Bybit client. Market data needs no credentials.
func NewClient(config Config) *Client {
	baseURL := bybit_api.MAINNET
	if config.Testnet {
		baseURL = bybit_api.TESTNET
	}
	api := bybit_api.NewBybitHttpClient(config.APIKey, config.APISecret, bybit_api.WithBaseURL(baseURL))

	category := config.Category
	if category == "" {
		category = "linear"
	}
	return &Client{
		klines: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			return api.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
		},
		category: category,
		testnet:  config.Testnet,
		retry:    DefaultRetryConfig(),
		logger:   zerolog.Nop(),
	}
}

// WithLogger sets the client logger.
func (c *Client) WithLogger(l zerolog.Logger) *Client {
	c.logger = l.With().Str("component", "bybit").Logger()
	return c
}

// Environment returns "testnet" or "mainnet".
func (c *Client) Environment() string {
	if c.testnet {
		return "testnet"
	}
	return "mainnet"
}
