package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	yaml := `
hub:
  listen_addr: 0.0.0.0:9000
  poll_interval: 3s
  max_frame_size: 4096
agent:
  hub_url: ws://127.0.0.1:9000
  token: SUI
  max_retries: -1
database:
  enabled: true
  timescale:
    host: localhost
    port: 5433
    name: prices
    user: relay
    password: relaypass
`
	cfg, err := Load(writeTempFile(t, yaml))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Hub.ListenAddr)
	assert.Equal(t, 3*time.Second, cfg.Hub.PollInterval)
	assert.Equal(t, int64(4096), cfg.Hub.MaxFrameSize)
	assert.Equal(t, "ws://127.0.0.1:9000", cfg.Agent.HubURL)
	assert.Equal(t, "SUI", cfg.Agent.Token)
	assert.Equal(t, -1, cfg.Agent.MaxRetries)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, 5433, cfg.Database.Timescale.Port)
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_PRICE_URL", "https://coins.llama.fi/prices/current/sui:")

	yaml := `
agent:
  price_source_url: ${TEST_PRICE_URL}
`
	cfg, err := Load(writeTempFile(t, yaml))
	require.NoError(t, err)
	assert.Equal(t, "https://coins.llama.fi/prices/current/sui:", cfg.Agent.PriceSourceURL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeTempFile(t, "hub: [unterminated"))
	assert.Error(t, err)
}

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := LoadWithDefaults(writeTempFile(t, "agent:\n  token: SUI\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.Hub.ListenAddr)
	assert.Equal(t, DefaultPollInterval, cfg.Hub.PollInterval)
	assert.Equal(t, int64(DefaultMaxFrameSize), cfg.Hub.MaxFrameSize)
	assert.Equal(t, DefaultTokensFile, cfg.Agent.TokensFile)
	assert.Equal(t, DefaultMaxRetries, cfg.Agent.MaxRetries)
	assert.Equal(t, DefaultDBPort, cfg.Database.Timescale.Port)
	assert.Equal(t, DefaultBatchSize, cfg.Writer.BatchSize)
}

func TestLoadWithDefaultsEmptyPath(t *testing.T) {
	cfg, err := LoadWithDefaults("")
	require.NoError(t, err)
	assert.NoError(t, cfg.ValidateHub(), "default config should be a valid hub config")
}

func TestAgentRetries(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries int
		want       int
	}{
		{name: "configured", maxRetries: 5, want: 5},
		{name: "disabled", maxRetries: -1, want: 0},
		{name: "zero after defaults", maxRetries: 0, want: DefaultMaxRetries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Agent: AgentConfig{MaxRetries: tt.maxRetries}}
			cfg.applyDefaults()
			assert.Equal(t, tt.want, cfg.Agent.Retries())
		})
	}
}

func TestValidateHub(t *testing.T) {
	validDB := func(c *Config) {
		c.Database.Enabled = true
		c.Database.Timescale = DBConfig{Host: "localhost", Name: "prices", User: "relay", Password: "pass", MaxConns: 4, MinConns: 1}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "bad listen addr",
			mutate:  func(c *Config) { c.Hub.ListenAddr = "localhost" },
			wantErr: `hub.listen_addr "localhost" is invalid`,
		},
		{
			name:    "negative poll interval",
			mutate:  func(c *Config) { c.Hub.PollInterval = -time.Second },
			wantErr: "hub.poll_interval must be > 0",
		},
		{
			name:    "negative write timeout",
			mutate:  func(c *Config) { c.Hub.WriteTimeout = -time.Second },
			wantErr: "hub.write_timeout must be > 0",
		},
		{
			name:    "negative ping interval",
			mutate:  func(c *Config) { c.Hub.PingInterval = -time.Second },
			wantErr: "hub.ping_interval must be > 0",
		},
		{
			name:    "negative pong timeout",
			mutate:  func(c *Config) { c.Hub.PongTimeout = -time.Second },
			wantErr: "hub.pong_timeout must be > 0",
		},
		{
			name:    "negative max frame size",
			mutate:  func(c *Config) { c.Hub.MaxFrameSize = -1 },
			wantErr: "hub.max_frame_size must be >= 1",
		},
		{
			name: "ping slower than pong timeout",
			mutate: func(c *Config) {
				c.Hub.PingInterval = time.Minute
				c.Hub.PongTimeout = time.Second
			},
			wantErr: "hub.ping_interval (1m0s) must be shorter than hub.pong_timeout (1s)",
		},
		{
			name:    "database enabled without host",
			mutate:  func(c *Config) { c.Database.Enabled = true },
			wantErr: "database.timescale.host is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *Config) {
				validDB(c)
				c.Database.Timescale.MaxConns = 2
				c.Database.Timescale.MinConns = 5
			},
			wantErr: "database.timescale.min_conns (5) cannot exceed max_conns (2)",
		},
		{
			name:   "database enabled and valid",
			mutate: validDB,
		},
		{
			name:    "negative flush interval",
			mutate:  func(c *Config) { validDB(c); c.Writer.FlushInterval = -time.Second },
			wantErr: "writer.flush_interval must be > 0",
		},
		{
			name:   "flush interval ignored without database",
			mutate: func(c *Config) { c.Writer.FlushInterval = -time.Second },
		},
		{
			name:    "health port out of range",
			mutate:  func(c *Config) { c.Health.Port = 70000 },
			wantErr: "health.port must be between 0 and 65535, got 70000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			checkErr(t, cfg.ValidateHub(), tt.wantErr)
		})
	}
}

func TestValidateAgent(t *testing.T) {
	valid := func(c *Config) {
		c.Agent.HubURL = "ws://127.0.0.1:8080"
		c.Agent.Token = "SUI"
		c.Agent.PriceSourceURL = "https://coins.llama.fi/prices/current/sui:"
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: valid,
		},
		{
			name:   "retries disabled",
			mutate: func(c *Config) { valid(c); c.Agent.MaxRetries = -1 },
		},
		{
			name:    "missing hub url",
			mutate:  func(c *Config) { valid(c); c.Agent.HubURL = "" },
			wantErr: "agent.hub_url is required",
		},
		{
			name:    "http scheme",
			mutate:  func(c *Config) { valid(c); c.Agent.HubURL = "http://127.0.0.1:8080" },
			wantErr: `agent.hub_url scheme must be ws or wss, got "http"`,
		},
		{
			name:    "missing token",
			mutate:  func(c *Config) { valid(c); c.Agent.Token = "" },
			wantErr: "agent.token is required",
		},
		{
			name:    "missing price source",
			mutate:  func(c *Config) { valid(c); c.Agent.PriceSourceURL = "" },
			wantErr: "agent.price_source_url is required",
		},
		{
			name:    "negative fetch timeout",
			mutate:  func(c *Config) { valid(c); c.Agent.FetchTimeout = -time.Second },
			wantErr: "agent.fetch_timeout must be > 0",
		},
		{
			name:    "negative write timeout",
			mutate:  func(c *Config) { valid(c); c.Agent.WriteTimeout = -time.Second },
			wantErr: "agent.write_timeout must be > 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			checkErr(t, cfg.ValidateAgent(), tt.wantErr)
		})
	}
}

func TestExampleConfig(t *testing.T) {
	t.Setenv("TOKEN_BALANCE_URL", "https://oracle.example/price/")

	cfg, err := LoadWithDefaults(filepath.Join("..", "..", "configs", "relay.example.yaml"))
	require.NoError(t, err)

	assert.NoError(t, cfg.ValidateHub())
	assert.NoError(t, cfg.ValidateAgent())
	assert.Equal(t, "https://oracle.example/price/", cfg.Agent.PriceSourceURL)
	assert.False(t, cfg.Database.Enabled, "database sink should be disabled in the example")
}

func checkErr(t *testing.T, err error, wantErr string) {
	t.Helper()
	if wantErr == "" {
		assert.NoError(t, err)
		return
	}
	require.Error(t, err)
	assert.Truef(t, strings.HasPrefix(err.Error(), wantErr), "error = %q, want prefix %q", err.Error(), wantErr)
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
