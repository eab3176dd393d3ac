package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultListenAddr         = "127.0.0.1:8080"
	DefaultPollInterval       = 10 * time.Second
	DefaultOutboundBuffer     = 256
	DefaultWriteTimeout       = 5 * time.Second
	DefaultPingInterval       = 30 * time.Second
	DefaultPongTimeout        = 90 * time.Second
	DefaultMaxFrameSize       = 64 << 10
	DefaultTokensFile         = "tokens.json"
	DefaultFetchTimeout       = 10 * time.Second
	DefaultMaxRetries         = 2
	DefaultMaxInflightFetches = 4
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 4
	DefaultMinConns           = 1
	DefaultBatchSize          = 100
	DefaultFlushInterval      = 1 * time.Second
	DefaultBufferSize         = 1000
)

func (c *Config) applyDefaults() {
	// Hub defaults
	if c.Hub.ListenAddr == "" {
		c.Hub.ListenAddr = DefaultListenAddr
	}
	if c.Hub.PollInterval == 0 {
		c.Hub.PollInterval = DefaultPollInterval
	}
	if c.Hub.OutboundBuffer == 0 {
		c.Hub.OutboundBuffer = DefaultOutboundBuffer
	}
	if c.Hub.WriteTimeout == 0 {
		c.Hub.WriteTimeout = DefaultWriteTimeout
	}
	if c.Hub.PingInterval == 0 {
		c.Hub.PingInterval = DefaultPingInterval
	}
	if c.Hub.PongTimeout == 0 {
		c.Hub.PongTimeout = DefaultPongTimeout
	}
	if c.Hub.MaxFrameSize == 0 {
		c.Hub.MaxFrameSize = DefaultMaxFrameSize
	}

	// Agent defaults
	if c.Agent.TokensFile == "" {
		c.Agent.TokensFile = DefaultTokensFile
	}
	if c.Agent.FetchTimeout == 0 {
		c.Agent.FetchTimeout = DefaultFetchTimeout
	}
	// 0 means unset; a negative value disables retries.
	if c.Agent.MaxRetries == 0 {
		c.Agent.MaxRetries = DefaultMaxRetries
	}
	if c.Agent.MaxInflightFetches == 0 {
		c.Agent.MaxInflightFetches = DefaultMaxInflightFetches
	}
	if c.Agent.WriteTimeout == 0 {
		c.Agent.WriteTimeout = DefaultWriteTimeout
	}

	// Database defaults
	applyDBDefaults(&c.Database.Timescale)

	// Writer defaults
	if c.Writer.BatchSize == 0 {
		c.Writer.BatchSize = DefaultBatchSize
	}
	if c.Writer.FlushInterval == 0 {
		c.Writer.FlushInterval = DefaultFlushInterval
	}
	if c.Writer.BufferSize == 0 {
		c.Writer.BufferSize = DefaultBufferSize
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
