package websocket

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-rtm/pkg/domain"
)

func TestHeaderAuthenticatorReadsHeaders(t *testing.T) {
	client := domain.NewClientID()
	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set(HeaderClientID, client.String())
	r.Header.Set(HeaderAccountID, "acct-1")

	id, err := HeaderAuthenticator{}.Authenticate(r)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if !id.Client.Equal(client) || id.AccountID != "acct-1" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestHeaderAuthenticatorQueryFallback(t *testing.T) {
	client := domain.NewClientID()
	r := httptest.NewRequest("GET", "/ws?clientId="+client.String()+"&accountId=acct-2", nil)

	id, err := HeaderAuthenticator{}.Authenticate(r)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if !id.Client.Equal(client) || id.AccountID != "acct-2" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestHeaderAuthenticatorAssignsClientID(t *testing.T) {
	id, err := HeaderAuthenticator{}.Authenticate(httptest.NewRequest("GET", "/ws", nil))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if id.Client.IsZero() {
		t.Fatalf("expected a generated client id")
	}
}

func TestHeaderAuthenticatorRejectsMalformedID(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set(HeaderClientID, "nope")
	if _, err := (HeaderAuthenticator{}).Authenticate(r); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
