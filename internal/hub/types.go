package hub

import (
	"errors"
	"fmt"
	"time"

	"github.com/rickgao/price-relay/internal/model"
	"github.com/rickgao/price-relay/internal/registry"
)

// Errors
var (
	ErrOutboundClosed = errors.New("outbound queue closed")
	ErrServerStarted  = errors.New("server already started")
)

// State is a session's position in the registration protocol.
type State int

const (
	StateConnected State = iota
	StateRegistered
	StateRejected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateRegistered:
		return "registered"
	case StateRejected:
		return "rejected"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// PriceSink receives every TokenPrice answer from a registered agent.
// Record must not block.
type PriceSink interface {
	Record(u model.PriceUpdate)
}

// PriceSinkFunc adapts a function to PriceSink.
type PriceSinkFunc func(u model.PriceUpdate)

// Record calls f(u).
func (f PriceSinkFunc) Record(u model.PriceUpdate) {
	f(u)
}

// Config configures the hub.
type Config struct {
	ListenAddr     string        // TCP address to bind (e.g., 127.0.0.1:8080)
	PollInterval   time.Duration // Period of the TokenPrice broadcast
	OutboundBuffer int           // Frames queued per connection before it counts as dead
	WriteTimeout   time.Duration // Write deadline per frame
	PingInterval   time.Duration // Keepalive ping period
	PongTimeout    time.Duration // Max time without any frame or pong before the read side gives up
	MaxFrameSize   int64         // Largest inbound frame; a bigger one closes the connection
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:     "127.0.0.1:8080",
		PollInterval:   10 * time.Second,
		OutboundBuffer: registry.DefaultOutboundSize,
		WriteTimeout:   5 * time.Second,
		PingInterval:   30 * time.Second,
		PongTimeout:    90 * time.Second,
		MaxFrameSize:   64 << 10,
	}
}

// Stats is a point-in-time view of the registries.
type Stats struct {
	Peers      int                        `json:"peers"`
	Registered int                        `json:"registered"`
	Connected  []registry.ConnID          `json:"connected"` // Sorted; includes unregistered peers
	Tokens     map[registry.ConnID]string `json:"tokens"`
}
