package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ValidateHub checks the fields the hub role needs.
func (c *Config) ValidateHub() error {
	if _, _, err := net.SplitHostPort(c.Hub.ListenAddr); err != nil {
		return fmt.Errorf("hub.listen_addr %q is invalid: %w", c.Hub.ListenAddr, err)
	}
	if c.Hub.PollInterval <= 0 {
		return errors.New("hub.poll_interval must be > 0")
	}
	if c.Hub.OutboundBuffer < 1 {
		return errors.New("hub.outbound_buffer must be >= 1")
	}
	if c.Hub.WriteTimeout <= 0 {
		return errors.New("hub.write_timeout must be > 0")
	}
	if c.Hub.PingInterval <= 0 {
		return errors.New("hub.ping_interval must be > 0")
	}
	if c.Hub.PongTimeout <= 0 {
		return errors.New("hub.pong_timeout must be > 0")
	}
	if c.Hub.MaxFrameSize < 1 {
		return errors.New("hub.max_frame_size must be >= 1")
	}
	if c.Hub.PingInterval >= c.Hub.PongTimeout {
		return fmt.Errorf("hub.ping_interval (%s) must be shorter than hub.pong_timeout (%s)",
			c.Hub.PingInterval, c.Hub.PongTimeout)
	}

	if c.Database.Enabled {
		if err := c.Database.Timescale.validate("database.timescale"); err != nil {
			return err
		}
		if c.Writer.BatchSize < 1 {
			return errors.New("writer.batch_size must be >= 1")
		}
		if c.Writer.BufferSize < 1 {
			return errors.New("writer.buffer_size must be >= 1")
		}
		if c.Writer.FlushInterval <= 0 {
			return errors.New("writer.flush_interval must be > 0")
		}
	}

	if c.Health.Port < 0 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 0 and 65535, got %d", c.Health.Port)
	}

	return nil
}

// ValidateAgent checks the fields the agent role needs.
func (c *Config) ValidateAgent() error {
	if c.Agent.HubURL == "" {
		return errors.New("agent.hub_url is required")
	}
	u, err := url.Parse(c.Agent.HubURL)
	if err != nil {
		return fmt.Errorf("agent.hub_url is invalid: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("agent.hub_url scheme must be ws or wss, got %q", u.Scheme)
	}
	if c.Agent.Token == "" {
		return errors.New("agent.token is required")
	}
	if c.Agent.PriceSourceURL == "" {
		return errors.New("agent.price_source_url is required")
	}
	if c.Agent.MaxInflightFetches < 1 {
		return errors.New("agent.max_inflight_fetches must be >= 1")
	}
	if c.Agent.FetchTimeout <= 0 {
		return errors.New("agent.fetch_timeout must be > 0")
	}
	if c.Agent.WriteTimeout <= 0 {
		return errors.New("agent.write_timeout must be > 0")
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
