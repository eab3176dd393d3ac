package config

import "time"

// Config is the root configuration for a relay process.
type Config struct {
	Hub      HubConfig      `yaml:"hub"`
	Agent    AgentConfig    `yaml:"agent"`
	Database DatabaseConfig `yaml:"database"`
	Writer   WriterConfig   `yaml:"writer"`
	Health   HealthConfig   `yaml:"health"`
}

// HubConfig holds the hub listener and session settings.
type HubConfig struct {
	ListenAddr     string        `yaml:"listen_addr"`
	PollInterval   time.Duration `yaml:"poll_interval"`   // Period of the TokenPrice broadcast
	OutboundBuffer int           `yaml:"outbound_buffer"` // Per-connection queued frames before the peer counts as dead
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	PongTimeout    time.Duration `yaml:"pong_timeout"`   // Max silence before a connection is considered stale
	MaxFrameSize   int64         `yaml:"max_frame_size"` // Largest inbound frame in bytes; bigger frames close the connection
}

// AgentConfig holds the price-reporting agent settings.
type AgentConfig struct {
	HubURL             string        `yaml:"hub_url"`
	Token              string        `yaml:"token"`
	TokensFile         string        `yaml:"tokens_file"`
	PriceSourceURL     string        `yaml:"price_source_url"` // Base URL; the contract address is appended
	FetchTimeout       time.Duration `yaml:"fetch_timeout"`
	MaxRetries         int           `yaml:"max_retries"` // 0 uses the default; negative disables retries
	MaxInflightFetches int           `yaml:"max_inflight_fetches"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig holds the optional TimescaleDB sink for relayed prices.
// The sink is disabled when Enabled is false.
type DatabaseConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Timescale DBConfig `yaml:"timescale"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// WriterConfig holds batch writer settings.
type WriterConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// HealthConfig holds the health HTTP server settings. Port 0 disables it.
type HealthConfig struct {
	Port int `yaml:"port"`
}

// Retries returns the number of retries for a failed price fetch. Negative
// values of MaxRetries mean none.
func (a AgentConfig) Retries() int {
	if a.MaxRetries < 0 {
		return 0
	}
	return a.MaxRetries
}
