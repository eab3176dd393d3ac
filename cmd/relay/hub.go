package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/price-relay/internal/config"
	"github.com/rickgao/price-relay/internal/database"
	"github.com/rickgao/price-relay/internal/hub"
	"github.com/rickgao/price-relay/internal/version"
	"github.com/rickgao/price-relay/internal/writer"
)

func newHubCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hub [addr]",
		Short: "Run the relay hub",
		Long: "Accept agent connections on addr (default 127.0.0.1:8080), deduplicate " +
			"token registrations and poll every registered agent for its price.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Hub.ListenAddr = args[0]
			}
			if err := cfg.ValidateHub(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return runHub(cmd.Context(), opts, cfg)
		},
	}

	cmd.Flags().Duration("interval", config.DefaultPollInterval, "period between TokenPrice broadcasts")
	cmd.Flags().Int("health-port", 0, "port for /health and /debug/peers (0 disables)")
	opts.v.BindPFlag("hub.poll_interval", cmd.Flags().Lookup("interval"))
	opts.v.BindPFlag("health.port", cmd.Flags().Lookup("health-port"))

	return cmd
}

func runHub(parent context.Context, opts *rootOptions, cfg *config.Config) error {
	logger := opts.logger
	if parent == nil {
		parent = context.Background()
	}

	logger.Info("starting hub",
		"version", version.Version,
		"commit", version.Commit,
		"addr", cfg.Hub.ListenAddr,
		"poll_interval", cfg.Hub.PollInterval,
	)

	ctx, cancel := signalContext(parent, logger)
	defer cancel()

	var (
		sink     hub.PriceSink
		dbPinger pinger
		pw       *writer.PriceWriter
	)

	if cfg.Database.Enabled {
		db := cfg.Database.Timescale
		logger.Info("connecting to database",
			"host", db.Host,
			"port", db.Port,
			"database", db.Name,
		)

		pool, err := database.Connect(ctx, db)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
		logger.Info("database connected")

		pw = writer.NewPriceWriter(writer.WriterConfig{
			BatchSize:     cfg.Writer.BatchSize,
			FlushInterval: cfg.Writer.FlushInterval,
			BufferSize:    cfg.Writer.BufferSize,
		}, pool, logger.With("component", "price_writer"))
		if err := pw.Start(ctx); err != nil {
			return fmt.Errorf("start price writer: %w", err)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer stopCancel()
			pw.Stop(stopCtx)
		}()

		sink = pw
		dbPinger = pool
	}

	srv := hub.NewServer(hub.Config{
		ListenAddr:     cfg.Hub.ListenAddr,
		PollInterval:   cfg.Hub.PollInterval,
		OutboundBuffer: cfg.Hub.OutboundBuffer,
		WriteTimeout:   cfg.Hub.WriteTimeout,
		PingInterval:   cfg.Hub.PingInterval,
		PongTimeout:    cfg.Hub.PongTimeout,
		MaxFrameSize:   cfg.Hub.MaxFrameSize,
	}, sink, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})

	if cfg.Health.Port > 0 {
		var stats writerStats
		if pw != nil {
			stats = pw
		}
		healthServer := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Health.Port),
			Handler:           newHealthHandler(srv, dbPinger, stats),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logger.Info("starting health server", "port", cfg.Health.Port)
			if err := healthServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("health server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			return healthServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("hub failed", "error", err)
		return err
	}
	logger.Info("hub stopped")
	return nil
}
