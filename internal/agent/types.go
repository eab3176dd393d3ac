package agent

import (
	"context"
	"errors"
	"time"

	"github.com/rickgao/price-relay/internal/wire"
)

// Errors
var (
	// ErrRepeatedToken is returned by Run when the hub rejects the symbol
	// because another agent already reports it.
	ErrRepeatedToken = errors.New("token already registered by another agent")

	ErrHubClosed = errors.New("hub closed the connection")
)

// PriceFetcher fetches the current report for a contract address.
type PriceFetcher interface {
	GetPrice(ctx context.Context, address string) (wire.PriceReport, error)
}

// PriceFetcherFunc adapts a function to PriceFetcher.
type PriceFetcherFunc func(ctx context.Context, address string) (wire.PriceReport, error)

// GetPrice calls f(ctx, address).
func (f PriceFetcherFunc) GetPrice(ctx context.Context, address string) (wire.PriceReport, error) {
	return f(ctx, address)
}

// Config configures an agent.
type Config struct {
	HubURL             string        // ws:// or wss:// URL of the hub
	Token              string        // Symbol this agent reports, e.g. SUI
	TokensFile         string        // JSON symbol -> contract address table
	HandshakeTimeout   time.Duration // WebSocket handshake limit
	WriteTimeout       time.Duration // Write deadline per frame
	MaxInflightFetches int           // Concurrent price fetches
}

// DefaultConfig returns sensible defaults. HubURL and Token must still be set.
func DefaultConfig() Config {
	return Config{
		TokensFile:         "tokens.json",
		HandshakeTimeout:   10 * time.Second,
		WriteTimeout:       5 * time.Second,
		MaxInflightFetches: 4,
	}
}
