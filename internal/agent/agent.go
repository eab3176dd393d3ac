package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/rickgao/price-relay/internal/tokens"
	"github.com/rickgao/price-relay/internal/wire"
)

// Agent reports prices for one token to a hub.
type Agent struct {
	cfg     Config
	address string
	prices  PriceFetcher
	logger  *slog.Logger
	fetches *semaphore.Weighted

	// Replies come from the read loop and from fetch goroutines.
	writeMu sync.Mutex
}

// New resolves cfg.Token through cfg.TokensFile and returns an agent ready
// to Run. An unknown symbol is an error.
func New(cfg Config, prices PriceFetcher, logger *slog.Logger) (*Agent, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if prices == nil {
		return nil, errors.New("agent: price fetcher is required")
	}
	if cfg.MaxInflightFetches <= 0 {
		cfg.MaxInflightFetches = 1
	}

	address, err := tokens.Resolve(cfg.TokensFile, cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("resolve token %q: %w", cfg.Token, err)
	}

	return &Agent{
		cfg:     cfg,
		address: address,
		prices:  prices,
		logger:  logger.With("token", cfg.Token, "address", address),
		fetches: semaphore.NewWeighted(int64(cfg.MaxInflightFetches)),
	}, nil
}

// Address returns the contract address resolved for the agent's token.
func (a *Agent) Address() string {
	return a.address
}

// Run connects to the hub and serves its requests until the connection ends.
// It returns nil when ctx is cancelled and ErrRepeatedToken when the hub
// rejects the token.
func (a *Agent) Run(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: a.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, a.cfg.HubURL, nil)
	if err != nil {
		return fmt.Errorf("dial hub %s: %w", a.cfg.HubURL, err)
	}
	defer conn.Close()

	a.logger.Info("connected to hub", "url", a.cfg.HubURL)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		a.closeConn(conn)
		return nil
	})
	g.Go(func() error {
		return a.readLoop(gctx, g, conn)
	})

	err = g.Wait()
	if ctx.Err() != nil {
		a.logger.Info("agent stopped")
		return nil
	}
	return err
}

// readLoop dispatches hub requests. It always returns a non-nil error so the
// errgroup context is cancelled when the loop ends.
func (a *Agent) readLoop(ctx context.Context, g *errgroup.Group, conn *websocket.Conn) error {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return ErrHubClosed
			}
			return fmt.Errorf("read from hub: %w", err)
		}

		if msgType != websocket.BinaryMessage {
			a.logger.Warn("dropping non-binary frame", "type", msgType, "size", len(data))
			continue
		}

		req, err := wire.DecodeRequest(data)
		if err != nil {
			a.logger.Warn("dropping undecodable frame", "error", err, "size", len(data))
			continue
		}

		switch req {
		case wire.RequestWhichToken:
			a.logger.Info("hub asked for token")
			if err := a.reply(conn, wire.WhichTokenResponse(a.cfg.Token)); err != nil {
				return err
			}

		case wire.RequestValidToken:
			a.logger.Info("token accepted by hub")

		case wire.RequestRepeatedToken:
			a.logger.Warn("token already reported by another agent")
			return ErrRepeatedToken

		case wire.RequestTokenPrice:
			a.startFetch(ctx, g, conn)
		}
	}
}

// startFetch answers a TokenPrice request in the background. The request is
// skipped when every fetch slot is busy.
func (a *Agent) startFetch(ctx context.Context, g *errgroup.Group, conn *websocket.Conn) {
	if !a.fetches.TryAcquire(1) {
		a.logger.Warn("price fetch skipped, too many in flight",
			"max_inflight", a.cfg.MaxInflightFetches,
		)
		return
	}

	g.Go(func() error {
		defer a.fetches.Release(1)

		start := time.Now()
		report, err := a.prices.GetPrice(ctx, a.address)
		if err != nil {
			if ctx.Err() == nil {
				a.logger.Error("fetch price", "error", err)
			}
			return nil
		}

		a.logger.Info("price fetched",
			"coins", len(report.Coins),
			"latency", time.Since(start),
		)
		if err := a.reply(conn, wire.TokenPriceResponse(report)); err != nil {
			a.logger.Warn("send price", "error", err)
		}
		return nil
	})
}

// reply writes one response frame.
func (a *Agent) reply(conn *websocket.Conn, resp wire.Response) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(a.cfg.WriteTimeout))
	if err := conn.WriteMessage(websocket.BinaryMessage, wire.EncodeResponse(resp)); err != nil {
		return fmt.Errorf("write to hub: %w", err)
	}
	return nil
}

// closeConn sends a close frame and closes the connection.
func (a *Agent) closeConn(conn *websocket.Conn) {
	a.writeMu.Lock()
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	a.writeMu.Unlock()
	conn.Close()
}
