package connector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinanceFetchOrderBook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/depth", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		w.Write([]byte(`{
			"lastUpdateId": 1027024,
			"bids": [["4.00000000", "431.00000000"], ["3.90000000", "12.00000000"]],
			"asks": [["4.00000200", "12.00000000"]]
		}`))
	}))
	defer srv.Close()

	conn := NewBinanceConnector(Config{BaseURL: srv.URL})
	book, err := conn.FetchOrderBook(context.Background(), "BTCUSDT", 50)
	require.NoError(t, err)

	require.Len(t, book.Bids, 2)
	assert.Equal(t, [2]string{"4.00000000", "431.00000000"}, book.Bids[0])
	require.Len(t, book.Asks, 1)
	assert.Equal(t, [2]string{"4.00000200", "12.00000000"}, book.Asks[0])
}

func TestBinanceFetchOrderBookHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	conn := NewBinanceConnector(Config{BaseURL: srv.URL})
	_, err := conn.FetchOrderBook(context.Background(), "BTCUSDT", 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 429")
}

func TestBinanceFetchOrderBookMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bids": "oops"`))
	}))
	defer srv.Close()

	conn := NewBinanceConnector(Config{BaseURL: srv.URL})
	_, err := conn.FetchOrderBook(context.Background(), "BTCUSDT", 50)
	require.Error(t, err)
}

func TestRegistryResolvesConnectors(t *testing.T) {
	conn, err := New("binance", Config{})
	require.NoError(t, err)
	assert.Equal(t, "binance", conn.Name())

	conn, err = New("kraken", Config{})
	require.NoError(t, err)
	assert.Equal(t, "kraken", conn.Name())

	_, err = New("nope", Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown exchange connector")
}
