// Package connector fetches raw order book depth from exchange REST feeds.
// Implementations are registered by name so the configured exchange can be
// swapped without touching the polling path.
package connector

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

// RawBook is a depth snapshot as delivered by an exchange: string-encoded
// [price, quantity] pairs, possibly unsorted and with duplicate prices.
// Sorting and deduplication happen on ingestion, not here.
type RawBook struct {
	Bids [][2]string
	Asks [][2]string
}

// Config carries the shared settings every connector needs.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Connector fetches a depth-N book for one instrument. All failures are
// transient from the caller's point of view; the poller retries them.
type Connector interface {
	Name() string
	FetchOrderBook(ctx context.Context, symbol string, depth int) (*RawBook, error)
}

// Factory builds a connector from config.
type Factory func(cfg Config) Connector

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a connector available under name. Called from init.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New builds the named connector, or an error listing what is available.
func New(name string, cfg Config) (Connector, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown exchange connector %q (available: %v)", name, Names())
	}
	return factory(cfg), nil
}

// Names lists the registered connectors, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newHTTPClient(cfg Config) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
