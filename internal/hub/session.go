package hub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/price-relay/internal/model"
	"github.com/rickgao/price-relay/internal/registry"
	"github.com/rickgao/price-relay/internal/wire"
)

// session drives the protocol for one agent connection. state and token are
// only touched by the read pump.
type session struct {
	srv    *Server
	conn   *websocket.Conn
	id     registry.ConnID
	sid    uuid.UUID
	out    *registry.Outbound
	logger *slog.Logger

	state    State
	token    string
	inserted bool
}

func newSession(srv *Server, conn *websocket.Conn, id registry.ConnID, sid uuid.UUID) *session {
	return &session{
		srv:    srv,
		conn:   conn,
		id:     id,
		sid:    sid,
		out:    registry.NewOutbound(srv.cfg.OutboundBuffer),
		logger: srv.logger.With("conn", id, "session", sid),
		state:  StateConnected,
	}
}

// run registers the peer, asks for its token and pumps frames until either
// direction ends. Registry cleanup runs on every exit path.
func (s *session) run(ctx context.Context) {
	defer s.teardown()

	if err := s.srv.peers.Insert(s.id, s.out); err != nil {
		s.logger.Error("insert peer", "error", err)
		return
	}
	s.inserted = true
	s.logger.Info("peer connected", "peers", s.srv.peers.Len())

	sendRequest(s.logger, wire.RequestWhichToken, s.out, s.id)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.writePump(gctx)
	})
	g.Go(s.readPump)
	g.Go(func() error {
		// Whichever pump ends first cancels gctx; closing the conn
		// unblocks a read pump stuck in ReadMessage.
		<-gctx.Done()
		s.conn.Close()
		return nil
	})

	err := g.Wait()
	s.logger.Info("peer disconnected",
		"state", s.state,
		"token", s.token,
		"reason", err,
	)
}

// teardown removes the peer and its token binding and closes the connection.
func (s *session) teardown() {
	s.out.Close()
	s.conn.Close()
	s.state = StateClosed

	if !s.inserted {
		return
	}

	if _, err := s.srv.peers.Remove(s.id, s.out); err != nil {
		s.logRegistryError("remove peer", err)
	}
	token, ok, err := s.srv.tokens.Unregister(s.id)
	if err != nil {
		s.logRegistryError("unregister token", err)
		return
	}
	if ok {
		s.logger.Info("token released", "token", token)
	}
}

// logRegistryError logs a failed registry operation. Closed registries are
// expected during hub shutdown.
func (s *session) logRegistryError(op string, err error) {
	if errors.Is(err, registry.ErrRegistryClosed) {
		s.logger.Debug(op+" skipped", "error", err)
		return
	}
	s.logger.Error(op, "error", err)
}

// writePump flushes the outbound queue to the connection and sends keepalive
// pings. It returns ErrOutboundClosed once the queue is closed and drained.
func (s *session) writePump(ctx context.Context) error {
	ping := time.NewTicker(s.srv.cfg.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case frame, ok := <-s.out.Frames():
			if !ok {
				s.conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second),
				)
				return ErrOutboundClosed
			}
			s.conn.SetWriteDeadline(time.Now().Add(s.srv.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return fmt.Errorf("write frame: %w", err)
			}

		case <-ping.C:
			deadline := time.Now().Add(s.srv.cfg.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				return fmt.Errorf("write ping: %w", err)
			}
		}
	}
}

// readPump reads frames until the connection fails or the session is
// rejected. Frames over MaxFrameSize end the session. A rejection returns
// nil so the write pump can still flush the RepeatedToken request before the
// connection closes.
func (s *session) readPump() error {
	extend := func() {
		s.conn.SetReadDeadline(time.Now().Add(s.srv.cfg.PongTimeout))
	}
	extend()
	s.conn.SetReadLimit(s.srv.cfg.MaxFrameSize)
	s.conn.SetPongHandler(func(string) error {
		extend()
		return nil
	})

	for {
		msgType, data, err := s.conn.ReadMessage()
		receivedAt := time.Now()
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		extend()

		if !s.handleFrame(msgType, data, receivedAt) {
			return nil
		}
	}
}

// handleFrame applies one inbound frame and reports whether to keep reading.
// Frames that are not binary or do not decode are logged and dropped.
func (s *session) handleFrame(msgType int, data []byte, receivedAt time.Time) bool {
	if msgType != websocket.BinaryMessage {
		s.logger.Warn("dropping non-binary frame", "type", msgType, "size", len(data))
		return true
	}

	resp, err := wire.DecodeResponse(data)
	if err != nil {
		s.logger.Warn("dropping undecodable frame", "error", err, "size", len(data))
		return true
	}

	switch resp.Kind {
	case wire.ResponseWhichToken:
		return s.handleWhichToken(resp.Token)
	case wire.ResponseTokenPrice:
		s.handleTokenPrice(resp.Report, receivedAt)
	}
	return true
}

// handleWhichToken registers token for this connection, or rejects the
// connection if another one already holds it.
func (s *session) handleWhichToken(token string) bool {
	s.logger.Info("received token registration", "token", token)

	if s.state == StateRegistered {
		s.logger.Warn("already registered, ignoring",
			"registered", s.token,
			"requested", token,
		)
		return true
	}

	err := s.srv.tokens.Register(s.id, token)
	switch {
	case err == nil:
		s.state = StateRegistered
		s.token = token
		s.logger.Info("token registered", "token", token, "registered", s.srv.tokens.Len())
		sendRequest(s.logger, wire.RequestValidToken, s.out, s.id)
		return true

	case errors.Is(err, registry.ErrTokenTaken):
		s.state = StateRejected
		owner, _, _ := s.srv.tokens.ConnOf(token)
		s.logger.Info("token already taken, rejecting peer", "token", token, "owner", owner)
		sendRequest(s.logger, wire.RequestRepeatedToken, s.out, s.id)
		s.out.Close()
		return false

	default:
		s.logger.Error("register token", "token", token, "error", err)
		return true
	}
}

// handleTokenPrice relays a price answer. Answers from unregistered peers
// are ignored.
func (s *session) handleTokenPrice(report wire.PriceReport, receivedAt time.Time) {
	if s.state != StateRegistered {
		s.logger.Info("price received but not registered yet", "state", s.state)
		return
	}

	s.logger.Info("token price",
		"token", s.token,
		"report", report.String(),
	)
	s.srv.sink.Record(model.PriceUpdate{
		SessionID:  s.sid,
		ConnID:     s.id,
		Token:      s.token,
		Report:     report,
		ReceivedAt: receivedAt,
	})
}
