package hub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rickgao/price-relay/internal/model"
	"github.com/rickgao/price-relay/internal/registry"
	"github.com/rickgao/price-relay/internal/wire"
)

// acceptedConn is an upgraded connection waiting for the dispatch loop.
type acceptedConn struct {
	conn *websocket.Conn
	id   registry.ConnID
}

// Server accepts agent connections and polls registered agents for prices.
type Server struct {
	cfg    Config
	sink   PriceSink
	logger *slog.Logger

	peers  *registry.PeerRegistry
	tokens *registry.TokenRegistry

	upgrader websocket.Upgrader
	accepted chan acceptedConn
	sessions sync.WaitGroup
	started  atomic.Bool

	// tickSource supplies broadcast ticks; replaced in tests.
	tickSource func(d time.Duration) (<-chan time.Time, func())
}

// NewServer creates a hub server. sink may be nil, in which case prices are
// only logged.
func NewServer(cfg Config, sink PriceSink, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = PriceSinkFunc(func(model.PriceUpdate) {})
	}

	return &Server{
		cfg:    cfg,
		sink:   sink,
		logger: logger,
		peers:  registry.NewPeerRegistry(),
		tokens: registry.NewTokenRegistry(),
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			// Agents are not browsers; there is no origin to check.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		accepted:   make(chan acceptedConn),
		tickSource: newTicker,
	}
}

func newTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Run binds cfg.ListenAddr and serves until ctx is cancelled. A bind failure
// is returned immediately.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.cfg.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln and runs the dispatch loop until ctx is
// cancelled or the listener fails. It closes ln and waits for every session to
// finish before returning. A Server serves once.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if !s.started.CompareAndSwap(false, true) {
		ln.Close()
		return ErrServerStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleUpgrade(ctx))

	httpServer := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(ln)
	}()

	s.logger.Info("hub listening",
		"addr", ln.Addr().String(),
		"poll_interval", s.cfg.PollInterval,
	)

	ticks, stopTicks := s.tickSource(s.cfg.PollInterval)
	defer stopTicks()

	var loopErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop

		case err := <-serveErr:
			if !errors.Is(err, http.ErrServerClosed) {
				loopErr = fmt.Errorf("accept loop: %w", err)
			}
			break loop

		case <-ticks:
			s.Broadcast()

		case ac := <-s.accepted:
			s.spawn(ctx, ac)
		}
	}

	s.shutdown(cancel, httpServer)
	return loopErr
}

// handleUpgrade upgrades each request to a WebSocket and hands it to the
// dispatch loop. Upgrade failures only affect that connection.
func (s *Server) handleUpgrade(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already replied with an HTTP error.
			s.logger.Warn("websocket upgrade failed",
				"remote", r.RemoteAddr,
				"error", err,
			)
			return
		}

		ac := acceptedConn{conn: conn, id: registry.ConnID(conn.RemoteAddr().String())}
		select {
		case s.accepted <- ac:
		case <-ctx.Done():
			conn.Close()
		}
	}
}

// spawn starts a session for an accepted connection.
func (s *Server) spawn(ctx context.Context, ac acceptedConn) {
	sessionID := uuid.New()
	sess := newSession(s, ac.conn, ac.id, sessionID)

	s.sessions.Add(1)
	go func() {
		defer s.sessions.Done()
		sess.run(ctx)
	}()
}

// shutdown stops accepting, ends every session and breaks the registries.
func (s *Server) shutdown(cancel context.CancelFunc, httpServer *http.Server) {
	s.logger.Info("hub shutting down", "peers", s.peers.Len())

	cancel()

	// Hijacked WebSocket connections are not tracked by http.Server, so
	// Close only stops the listener; sessions end via ctx.
	httpServer.Close()
	s.sessions.Wait()

	s.peers.Close()
	s.tokens.Close()

	s.logger.Info("hub stopped")
}

// Broadcast asks every registered peer for its token price. Peers whose
// outbound queue rejects the request are pruned and their queue closed so
// their session tears down.
func (s *Server) Broadcast() registry.FanOutResult {
	frame := wire.EncodeRequest(wire.RequestTokenPrice)

	res, err := registry.FanOut(s.peers, s.tokens, func(id registry.ConnID, token string, out *registry.Outbound) bool {
		if sendFrame(s.logger, wire.RequestTokenPrice, frame, out, id) {
			return true
		}
		out.Close()
		return false
	})
	if err != nil {
		s.logger.Error("broadcast abandoned", "error", err)
		return registry.FanOutResult{}
	}

	s.logger.Info("broadcast token price requests",
		"sent", res.Sent,
		"unregistered", res.Skipped,
		"pruned", res.Pruned,
	)
	return res
}

// Stats returns current registry statistics.
func (s *Server) Stats() Stats {
	connected := s.peers.IDs()
	slices.Sort(connected)

	return Stats{
		Peers:      len(connected),
		Registered: s.tokens.Len(),
		Connected:  connected,
		Tokens:     s.tokens.Snapshot(),
	}
}

// sendRequest encodes req and enqueues it for id. A false result means the
// peer is gone; it is logged, not returned as an error.
func sendRequest(logger *slog.Logger, req wire.Request, out *registry.Outbound, id registry.ConnID) bool {
	return sendFrame(logger, req, wire.EncodeRequest(req), out, id)
}

func sendFrame(logger *slog.Logger, req wire.Request, frame []byte, out *registry.Outbound, id registry.ConnID) bool {
	if out.Send(frame) {
		logger.Debug("sent request", "conn", id, "request", req)
		return true
	}
	logger.Info("send failed, peer is gone", "conn", id, "request", req)
	return false
}
