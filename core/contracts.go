package core

import (
	"context"
	"net/http"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

// HTTPDoer is the transport contract; the default is a plain http.Client
// with a request timeout.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Clock func() time.Time

// Token is the cached bearer credential issued by the gateway's OAuth
// endpoint. A single token is authoritative at any time.
type Token struct {
	AccessToken string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// TimeToExpiry reports how long the token remains valid relative to now.
func (t Token) TimeToExpiry(now time.Time) time.Duration {
	return t.ExpiresAt.Sub(now.UTC())
}

// TokenStore persists the single authoritative token slot. Load reports
// found=false when no token has been stored yet.
type TokenStore interface {
	Load(ctx context.Context) (Token, bool, error)
	Save(ctx context.Context, token Token) error
	Clear(ctx context.Context) error
}

// TokenIssuer requests a fresh bearer token from the gateway.
type TokenIssuer interface {
	Issue(ctx context.Context) (Token, error)
}

// KeyProvider resolves the gateway public key material used to build
// security credentials, keyed by environment.
type KeyProvider interface {
	PublicKey(env Environment) ([]byte, error)
}

// OperationRequest is a built, validated gateway call ready for dispatch.
type OperationRequest struct {
	Path    string
	Payload any
}

// Response carries the gateway's raw reply. The client never interprets
// gateway result codes; that stays with the caller.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}
