package core

import (
	"context"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// tokenExpiryGuardBand treats tokens expiring this close to now as already
// invalid, so a token cannot expire between validation and use.
const tokenExpiryGuardBand = 30 * time.Second

// TokenManager owns the single authoritative token slot. The whole
// read-check-refresh-write sequence runs under one mutex: concurrent
// callers racing an empty or stale slot await a single in-flight issuance
// instead of each issuing their own.
type TokenManager struct {
	mu        sync.Mutex
	store     TokenStore
	issuer    TokenIssuer
	now       Clock
	logger    Logger
	guardBand time.Duration
}

func NewTokenManager(store TokenStore, issuer TokenIssuer, logger Logger, now Clock) *TokenManager {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &TokenManager{
		store:     store,
		issuer:    issuer,
		now:       now,
		logger:    glog.Ensure(logger),
		guardBand: tokenExpiryGuardBand,
	}
}

// GetValidToken returns a bearer token that is valid for at least the
// guard band. A failed issuance never touches the stored token; callers
// receive the error and the next call retries issuance.
func (m *TokenManager) GetValidToken(ctx context.Context) (string, error) {
	if m == nil || m.issuer == nil {
		return "", internalError("core: token manager is not configured", nil)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	if m.store != nil {
		cached, found, err := m.store.Load(ctx)
		if err != nil {
			return "", internalError("core: load cached token", err)
		}
		if found && cached.TimeToExpiry(now) > m.guardBand {
			return cached.AccessToken, nil
		}
	}

	issued, err := m.issuer.Issue(ctx)
	if err != nil {
		m.logger.Error("token issuance failed", "error", err)
		return "", err
	}
	if m.store != nil {
		if err := m.store.Save(ctx, issued); err != nil {
			return "", internalError("core: persist issued token", err)
		}
	}
	m.logger.Debug("issued fresh bearer token", "expires_at", issued.ExpiresAt)
	return issued.AccessToken, nil
}

// Invalidate clears the token slot, forcing issuance on the next call.
func (m *TokenManager) Invalidate(ctx context.Context) error {
	if m == nil || m.store == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Clear(ctx)
}
