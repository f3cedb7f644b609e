package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const defaultBinanceBaseURL = "https://api.binance.com"

type binanceDepthResp struct {
	LastUpdateID int64       `json:"lastUpdateId"`
	Bids         [][2]string `json:"bids"`
	Asks         [][2]string `json:"asks"`
}

// BinanceConnector fetches depth from the Binance spot REST API.
type BinanceConnector struct {
	baseURL string
	client  *http.Client
}

// NewBinanceConnector creates a Binance depth connector.
func NewBinanceConnector(cfg Config) Connector {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBinanceBaseURL
	}
	return &BinanceConnector{baseURL: baseURL, client: newHTTPClient(cfg)}
}

func (c *BinanceConnector) Name() string { return "binance" }

// FetchOrderBook calls GET /api/v3/depth for the symbol.
func (c *BinanceConnector) FetchOrderBook(ctx context.Context, symbol string, depth int) (*RawBook, error) {
	url := fmt.Sprintf("%s/api/v3/depth?symbol=%s&limit=%d", c.baseURL, symbol, depth)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build depth request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch depth: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch depth: unexpected status %d", resp.StatusCode)
	}

	var data binanceDepthResp
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode depth response: %w", err)
	}
	return &RawBook{Bids: data.Bids, Asks: data.Asks}, nil
}

func init() {
	Register("binance", NewBinanceConnector)
}
