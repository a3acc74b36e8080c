package websocket

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goliatone/go-rtm/pkg/domain"
)

// ErrUnauthorized rejects an upgrade request.
var ErrUnauthorized = errors.New("websocket: unauthorized")

// Identity is who a connection acts for.
type Identity struct {
	Client    domain.ClientID
	AccountID string
}

// Authenticator inspects the upgrade request before the handshake.
type Authenticator interface {
	Authenticate(r *http.Request) (Identity, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(r *http.Request) (Identity, error)

func (f AuthenticatorFunc) Authenticate(r *http.Request) (Identity, error) { return f(r) }

const (
	HeaderClientID  = "X-Client-ID"
	HeaderAccountID = "X-Account-ID"
)

// HeaderAuthenticator trusts identity headers set by an upstream proxy.
// Clients without an id get a fresh one. Query parameters clientId and
// accountId are accepted for browsers that cannot set headers.
type HeaderAuthenticator struct{}

var _ Authenticator = HeaderAuthenticator{}

func (HeaderAuthenticator) Authenticate(r *http.Request) (Identity, error) {
	raw := firstNonEmpty(r.Header.Get(HeaderClientID), r.URL.Query().Get("clientId"))
	id := Identity{AccountID: firstNonEmpty(r.Header.Get(HeaderAccountID), r.URL.Query().Get("accountId"))}
	if raw == "" {
		id.Client = domain.NewClientID()
		return id, nil
	}
	client, err := domain.ParseClientID(raw)
	if err != nil {
		return Identity{}, errors.Join(ErrUnauthorized, err)
	}
	id.Client = client
	return id, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
