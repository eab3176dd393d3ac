package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rickgao/price-relay/internal/agent"
	"github.com/rickgao/price-relay/internal/config"
	"github.com/rickgao/price-relay/internal/pricesource"
	"github.com/rickgao/price-relay/internal/version"
)

// priceSourceEnv names the variable holding the price source base URL.
const priceSourceEnv = "TOKEN_BALANCE_URL"

func newAgentCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent <hub-url> <token>",
		Short: "Run a price-reporting agent for one token",
		Long: "Connect to the hub at hub-url, register token and answer price requests " +
			"with reports fetched from $" + priceSourceEnv + "<contract address>.",
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.Agent.HubURL = args[0]
			}
			if len(args) > 1 {
				cfg.Agent.Token = args[1]
			}
			if cfg.Agent.PriceSourceURL == "" {
				return fmt.Errorf("%s must be set", priceSourceEnv)
			}
			if err := cfg.ValidateAgent(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return runAgent(cmd.Context(), opts, cfg)
		},
	}

	cmd.Flags().String("tokens", config.DefaultTokensFile, "JSON file mapping token symbols to contract addresses")
	opts.v.BindPFlag("agent.tokens_file", cmd.Flags().Lookup("tokens"))
	opts.v.BindEnv("agent.price_source_url", priceSourceEnv)

	return cmd
}

func runAgent(parent context.Context, opts *rootOptions, cfg *config.Config) error {
	logger := opts.logger
	if parent == nil {
		parent = context.Background()
	}

	logger.Info("starting agent",
		"version", version.Version,
		"hub", cfg.Agent.HubURL,
		"token", cfg.Agent.Token,
	)

	prices := pricesource.NewClient(cfg.Agent.PriceSourceURL,
		pricesource.WithLogger(logger),
		pricesource.WithTimeout(cfg.Agent.FetchTimeout),
		pricesource.WithRetries(cfg.Agent.Retries(), pricesource.DefaultRetryBackoff),
	)

	a, err := agent.New(agent.Config{
		HubURL:             cfg.Agent.HubURL,
		Token:              cfg.Agent.Token,
		TokensFile:         cfg.Agent.TokensFile,
		HandshakeTimeout:   agent.DefaultConfig().HandshakeTimeout,
		WriteTimeout:       cfg.Agent.WriteTimeout,
		MaxInflightFetches: cfg.Agent.MaxInflightFetches,
	}, prices, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(parent, logger)
	defer cancel()

	err = a.Run(ctx)
	if errors.Is(err, agent.ErrRepeatedToken) {
		logger.Warn("token is already reported by another agent, exiting", "token", cfg.Agent.Token)
		return nil
	}
	return err
}
