package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-rtm/pkg/config"
	"github.com/goliatone/go-rtm/pkg/domain"
	"github.com/goliatone/go-rtm/pkg/interfaces/logger"
	"github.com/goliatone/go-rtm/pkg/interfaces/transport"
	gws "github.com/gorilla/websocket"
)

// Session is one upgraded client connection. Broadcast frames queue on send
// and a single writePump goroutine writes them, so frames reach the socket
// in Send order.
type Session struct {
	id        domain.ClientID
	accountID string
	conn      *gws.Conn
	send      chan []byte
	done      chan struct{}
	cfg       config.TransportConfig
	logger    logger.Logger

	mu     sync.RWMutex
	closed bool
}

var _ transport.Connection = (*Session)(nil)

func newSession(id Identity, conn *gws.Conn, cfg config.TransportConfig, lgr logger.Logger) *Session {
	return &Session{
		id:        id.Client,
		accountID: id.AccountID,
		conn:      conn,
		send:      make(chan []byte, cfg.SendBuffer),
		done:      make(chan struct{}),
		cfg:       cfg,
		logger:    lgr.With(logger.F("client_id", id.Client.String())),
	}
}

func (s *Session) ClientID() domain.ClientID { return s.id }

// AccountID returns the authenticated account, if any.
func (s *Session) AccountID() string { return s.accountID }

// Send queues frame for the writer. It never waits on the network.
func (s *Session) Send(ctx context.Context, frame []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return transport.ErrConnectionClosed
	}
	select {
	case s.send <- frame:
		return nil
	default:
		return transport.ErrSendBufferFull
	}
}

// Close stops the writer. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}

// Done is closed once the session stops accepting frames.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) writePump() {
	ticker := time.NewTicker(s.cfg.PingPeriod())
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case frame := <-s.send:
			if err := s.write(gws.TextMessage, frame); err != nil {
				s.logger.Warn("websocket write failed", logger.F("error", err))
				s.Close()
				return
			}
		case <-ticker.C:
			if err := s.write(gws.PingMessage, nil); err != nil {
				s.logger.Debug("websocket ping failed", logger.F("error", err))
				s.Close()
				return
			}
		case <-s.done:
			s.flush()
			_ = s.write(gws.CloseMessage, gws.FormatCloseMessage(gws.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes frames queued before Close.
func (s *Session) flush() {
	for {
		select {
		case frame := <-s.send:
			if err := s.write(gws.TextMessage, frame); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *Session) write(messageType int, data []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait))
	return s.conn.WriteMessage(messageType, data)
}

// readPump delivers inbound text frames to handle until the peer goes away.
func (s *Session) readPump(handle func(raw []byte)) {
	s.conn.SetReadLimit(s.cfg.MaxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if gws.IsUnexpectedCloseError(err, gws.CloseGoingAway, gws.CloseNormalClosure) {
				s.logger.Warn("websocket read error", logger.F("error", err))
			} else {
				s.logger.Debug("websocket closed", logger.F("error", err))
			}
			return
		}
		handle(raw)
	}
}
