package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rickgao/price-relay/internal/config"
)

// rootOptions is shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string

	v      *viper.Viper
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{v: newViper()}

	rootCmd := &cobra.Command{
		Use:           "relay",
		Short:         "Token price relay: a WebSocket hub and its price-reporting agents",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(cmd, opts.logLevel)
			if err != nil {
				return err
			}
			opts.logger = logger
			slog.SetDefault(logger)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to YAML config file (defaults are used when empty)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newHubCmd(opts),
		newAgentCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

// newViper returns a viper instance that reads RELAY_* environment
// variables, e.g. RELAY_HUB_POLL_INTERVAL for hub.poll_interval.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("relay")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func newLogger(cmd *cobra.Command, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(cmd.OutOrStdout(), &slog.HandlerOptions{
		Level: lvl,
	})), nil
}

// loadConfig reads --config (or the defaults) and applies any flag or
// environment overrides bound in viper.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithDefaults(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	v := o.v
	if v.IsSet("hub.listen_addr") {
		cfg.Hub.ListenAddr = v.GetString("hub.listen_addr")
	}
	if v.IsSet("hub.poll_interval") {
		cfg.Hub.PollInterval = v.GetDuration("hub.poll_interval")
	}
	if v.IsSet("health.port") {
		cfg.Health.Port = v.GetInt("health.port")
	}
	if v.IsSet("agent.tokens_file") {
		cfg.Agent.TokensFile = v.GetString("agent.tokens_file")
	}
	if v.IsSet("agent.price_source_url") {
		cfg.Agent.PriceSourceURL = v.GetString("agent.price_source_url")
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
