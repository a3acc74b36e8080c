package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-rtm/pkg/commands"
	"github.com/goliatone/go-rtm/pkg/config"
	"github.com/goliatone/go-rtm/pkg/domain"
	"github.com/goliatone/go-rtm/pkg/interfaces/logger"
	gws "github.com/gorilla/websocket"
	"github.com/puzpuzpuz/xsync/v3"
)

// Inbound message types.
const (
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypePing        = "ping"
)

// Outbound control types. Broadcasts use "<namespace>.<rootKind>.broadcast".
const (
	TypeConnected     = "connected"
	TypeSubscribeOK   = "subscribe.ok"
	TypeUnsubscribeOK = "unsubscribe.ok"
	TypePong          = "pong"
	TypeError         = "error"
)

var (
	ErrMissingSubscribe  = errors.New("websocket: subscribe command is required")
	ErrMissingDisconnect = errors.New("websocket: disconnect command is required")
	errUnknownType       = errors.New("websocket: unknown message type")
	errMalformed         = errors.New("websocket: malformed message")
	errTooManyMessages   = errors.New("websocket: too many messages")
)

type limiter interface {
	Allow(key string) bool
}

// Dependencies groups the collaborators required by the gateway.
type Dependencies struct {
	Subscribe     command.Commander[commands.Subscribe]
	Unsubscribe   command.Commander[commands.Unsubscribe]
	Disconnect    command.Commander[commands.Disconnect]
	Authenticator Authenticator
	Limiter       limiter
	Logger        logger.Logger
	Config        config.TransportConfig
	CheckOrigin   func(r *http.Request) bool
}

// Gateway upgrades HTTP requests into sessions and routes their
// subscribe/unsubscribe messages to the command catalog.
type Gateway struct {
	subscribe   command.Commander[commands.Subscribe]
	unsubscribe command.Commander[commands.Unsubscribe]
	disconnect  command.Commander[commands.Disconnect]
	auth        Authenticator
	limiter     limiter
	logger      logger.Logger
	cfg         config.TransportConfig
	upgrader    gws.Upgrader

	// a nil session reserves its client id while the upgrade runs
	sessions *xsync.MapOf[domain.ClientID, *Session]
	active   atomic.Int32
}

var _ http.Handler = (*Gateway)(nil)

// inbound is a client control message.
type inbound struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	RootType string `json:"rootType"`
	RootID   string `json:"rootId"`
}

// New builds the gateway.
func New(deps Dependencies) (*Gateway, error) {
	if deps.Subscribe == nil {
		return nil, ErrMissingSubscribe
	}
	if deps.Disconnect == nil {
		return nil, ErrMissingDisconnect
	}
	if deps.Authenticator == nil {
		deps.Authenticator = HeaderAuthenticator{}
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	defaults := config.Defaults().Transport
	if deps.Config.SendBuffer <= 0 {
		deps.Config.SendBuffer = defaults.SendBuffer
	}
	if deps.Config.WriteWait <= 0 {
		deps.Config.WriteWait = defaults.WriteWait
	}
	if deps.Config.PongWait <= 0 {
		deps.Config.PongWait = defaults.PongWait
	}
	if deps.Config.MaxMessageSize <= 0 {
		deps.Config.MaxMessageSize = defaults.MaxMessageSize
	}
	checkOrigin := deps.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}

	return &Gateway{
		subscribe:   deps.Subscribe,
		unsubscribe: deps.Unsubscribe,
		disconnect:  deps.Disconnect,
		auth:        deps.Authenticator,
		limiter:     deps.Limiter,
		logger:      deps.Logger,
		cfg:         deps.Config,
		upgrader: gws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		sessions: xsync.NewMapOf[domain.ClientID, *Session](),
	}, nil
}

// ServeHTTP authenticates and upgrades the request, then serves the session
// until the peer disconnects.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := g.auth.Authenticate(r)
	if err != nil {
		g.logger.Warn("websocket authentication failed", logger.F("remote_addr", r.RemoteAddr), logger.F("error", err))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if n := g.active.Add(1); g.cfg.MaxConnections > 0 && int(n) > g.cfg.MaxConnections {
		g.active.Add(-1)
		g.logger.Warn("websocket connection limit reached", logger.F("max", g.cfg.MaxConnections))
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	if _, taken := g.sessions.LoadOrStore(id.Client, nil); taken {
		g.active.Add(-1)
		http.Error(w, "client id already connected", http.StatusConflict)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.release(id.Client, nil)
		g.logger.Error("websocket upgrade failed", logger.F("remote_addr", r.RemoteAddr), logger.F("error", err))
		return
	}

	session := newSession(id, conn, g.cfg, g.logger)
	g.sessions.Store(id.Client, session)
	g.logger.Info("websocket connected",
		logger.F("client_id", id.Client.String()),
		logger.F("remote_addr", r.RemoteAddr),
	)

	go session.writePump()
	g.reply(session, domain.Envelope{
		Type:     TypeConnected,
		Response: map[string]string{"clientId": id.Client.String()},
	})
	go g.serve(session)
}

func (g *Gateway) serve(session *Session) {
	ctx := context.Background()
	defer func() {
		if err := g.disconnect.Execute(ctx, commands.Disconnect{ClientID: session.ClientID()}); err != nil {
			g.logger.Warn("websocket disconnect cleanup failed", logger.F("error", err))
		}
		session.Close()
		g.release(session.ClientID(), session)
		g.logger.Info("websocket disconnected", logger.F("client_id", session.ClientID().String()))
	}()

	session.readPump(func(raw []byte) {
		g.handle(ctx, session, raw)
	})
}

// release frees the client id and its connection slot, provided the id is
// still held by owner.
func (g *Gateway) release(client domain.ClientID, owner *Session) {
	released := false
	g.sessions.Compute(client, func(current *Session, loaded bool) (*Session, bool) {
		released = loaded && current == owner
		return current, !loaded || released
	})
	if released {
		g.active.Add(-1)
	}
}

func (g *Gateway) handle(ctx context.Context, session *Session, raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		g.replyError(session, "", errMalformed)
		return
	}
	if g.limiter != nil && !g.limiter.Allow("ws:"+session.ClientID().String()) {
		g.replyError(session, msg.ID, errTooManyMessages)
		return
	}

	switch msg.Type {
	case TypeSubscribe:
		err := g.subscribe.Execute(ctx, commands.Subscribe{
			Conn:           session,
			SubscriptionID: msg.ID,
			RootType:       msg.RootType,
			RootID:         msg.RootID,
		})
		if err != nil {
			g.replyError(session, msg.ID, err)
			return
		}
		g.reply(session, domain.Envelope{Type: TypeSubscribeOK, ReplyTo: msg.ID})
	case TypeUnsubscribe:
		if g.unsubscribe == nil {
			g.replyError(session, msg.ID, errUnknownType)
			return
		}
		err := g.unsubscribe.Execute(ctx, commands.Unsubscribe{
			ClientID: session.ClientID(),
			RootType: msg.RootType,
			RootID:   msg.RootID,
		})
		if err != nil {
			g.replyError(session, msg.ID, err)
			return
		}
		g.reply(session, domain.Envelope{Type: TypeUnsubscribeOK, ReplyTo: msg.ID})
	case TypePing:
		g.reply(session, domain.Envelope{Type: TypePong, ReplyTo: msg.ID})
	default:
		g.replyError(session, msg.ID, errUnknownType)
	}
}

func (g *Gateway) replyError(session *Session, replyTo string, err error) {
	g.logger.Debug("websocket request rejected",
		logger.F("client_id", session.ClientID().String()),
		logger.F("error", err),
	)
	g.reply(session, domain.Envelope{
		Type:     TypeError,
		ReplyTo:  replyTo,
		Response: map[string]string{"message": err.Error()},
	})
}

func (g *Gateway) reply(session *Session, env domain.Envelope) {
	frame, err := json.Marshal(env)
	if err != nil {
		g.logger.Error("websocket encode reply failed", logger.F("error", err))
		return
	}
	if err := session.Send(context.Background(), frame); err != nil {
		g.logger.Warn("websocket reply dropped",
			logger.F("client_id", session.ClientID().String()),
			logger.F("type", env.Type),
			logger.F("error", err),
		)
	}
}

// Active reports the number of open sessions, counting upgrades in flight.
func (g *Gateway) Active() int { return int(g.active.Load()) }

// Close ends every open session. Their subscriptions are dropped as each
// read loop exits.
func (g *Gateway) Close() {
	g.sessions.Range(func(id domain.ClientID, session *Session) bool {
		if session != nil {
			session.Close()
		}
		return true
	})
}
