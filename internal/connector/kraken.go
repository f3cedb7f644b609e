package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const defaultKrakenBaseURL = "https://api.kraken.com"

// Kraken depth entries are [price, volume, timestamp] with the first two as
// strings and the timestamp as a number, so entries are decoded loosely.
type krakenDepthResp struct {
	Error  []string `json:"error"`
	Result map[string]struct {
		Asks [][]json.RawMessage `json:"asks"`
		Bids [][]json.RawMessage `json:"bids"`
	} `json:"result"`
}

// KrakenConnector fetches depth from the Kraken public REST API.
type KrakenConnector struct {
	baseURL string
	client  *http.Client
}

// NewKrakenConnector creates a Kraken depth connector.
func NewKrakenConnector(cfg Config) Connector {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultKrakenBaseURL
	}
	return &KrakenConnector{baseURL: baseURL, client: newHTTPClient(cfg)}
}

func (c *KrakenConnector) Name() string { return "kraken" }

// FetchOrderBook calls GET /0/public/Depth for the pair.
func (c *KrakenConnector) FetchOrderBook(ctx context.Context, symbol string, depth int) (*RawBook, error) {
	url := fmt.Sprintf("%s/0/public/Depth?pair=%s&count=%d", c.baseURL, symbol, depth)
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

	var data krakenDepthResp
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode depth response: %w", err)
	}
	if len(data.Error) > 0 {
		return nil, fmt.Errorf("kraken error: %s", strings.Join(data.Error, "; "))
	}

	for _, book := range data.Result {
		bids, err := krakenLevels(book.Bids)
		if err != nil {
			return nil, err
		}
		asks, err := krakenLevels(book.Asks)
		if err != nil {
			return nil, err
		}
		return &RawBook{Bids: bids, Asks: asks}, nil
	}
	return nil, fmt.Errorf("kraken depth: no result for %s", symbol)
}

func krakenLevels(entries [][]json.RawMessage) ([][2]string, error) {
	out := make([][2]string, 0, len(entries))
	for _, entry := range entries {
		if len(entry) < 2 {
			return nil, fmt.Errorf("kraken depth: short level entry")
		}
		var price, volume string
		if err := json.Unmarshal(entry[0], &price); err != nil {
			return nil, fmt.Errorf("kraken depth: malformed price: %w", err)
		}
		if err := json.Unmarshal(entry[1], &volume); err != nil {
			return nil, fmt.Errorf("kraken depth: malformed volume: %w", err)
		}
		out = append(out, [2]string{price, volume})
	}
	return out, nil
}

func init() {
	Register("kraken", NewKrakenConnector)
}
