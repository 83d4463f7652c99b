package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type stubIssuer struct {
	mu    sync.Mutex
	calls int
	token Token
	err   error
}

func (s *stubIssuer) Issue(context.Context) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return Token{}, s.err
	}
	return s.token, nil
}

func (s *stubIssuer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func fixedClock(at time.Time) Clock {
	return func() time.Time { return at }
}

func TestGetValidToken_ReturnsCachedTokenOutsideGuardBand(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.August, 27, 10, 0, 0, 0, time.UTC)

	store := NewMemoryTokenStore()
	if err := store.Save(ctx, Token{
		AccessToken: "cached-token",
		IssuedAt:    now.Add(-time.Minute),
		ExpiresAt:   now.Add(3600 * time.Second),
	}); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	issuer := &stubIssuer{token: Token{AccessToken: "fresh-token"}}
	manager := NewTokenManager(store, issuer, nil, fixedClock(now))

	got, err := manager.GetValidToken(ctx)
	if err != nil {
		t.Fatalf("get valid token: %v", err)
	}
	if got != "cached-token" {
		t.Fatalf("expected cached token, got %q", got)
	}
	if issuer.callCount() != 0 {
		t.Fatalf("expected no issuance, got %d", issuer.callCount())
	}
}

func TestGetValidToken_ReissuesInsideGuardBand(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.August, 27, 10, 0, 0, 0, time.UTC)

	store := NewMemoryTokenStore()
	if err := store.Save(ctx, Token{
		AccessToken: "stale-token",
		IssuedAt:    now.Add(-time.Hour),
		ExpiresAt:   now.Add(20 * time.Second),
	}); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	issuer := &stubIssuer{token: Token{
		AccessToken: "fresh-token",
		IssuedAt:    now,
		ExpiresAt:   now.Add(time.Hour),
	}}
	manager := NewTokenManager(store, issuer, nil, fixedClock(now))

	got, err := manager.GetValidToken(ctx)
	if err != nil {
		t.Fatalf("get valid token: %v", err)
	}
	if got != "fresh-token" {
		t.Fatalf("expected fresh token, got %q", got)
	}
	if issuer.callCount() != 1 {
		t.Fatalf("expected one issuance, got %d", issuer.callCount())
	}

	persisted, found, err := store.Load(ctx)
	if err != nil || !found {
		t.Fatalf("expected persisted token, found=%v err=%v", found, err)
	}
	if persisted.AccessToken != "fresh-token" {
		t.Fatalf("expected store to hold fresh token, got %q", persisted.AccessToken)
	}
}

func TestGetValidToken_IssuanceFailureKeepsStoredToken(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.August, 27, 10, 0, 0, 0, time.UTC)

	store := NewMemoryTokenStore()
	stale := Token{
		AccessToken: "stale-token",
		IssuedAt:    now.Add(-time.Hour),
		ExpiresAt:   now.Add(10 * time.Second),
	}
	if err := store.Save(ctx, stale); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	issuer := &stubIssuer{err: tokenIssuanceError("core: token endpoint returned status 500", nil, nil)}
	manager := NewTokenManager(store, issuer, nil, fixedClock(now))

	_, err := manager.GetValidToken(ctx)
	if err == nil {
		t.Fatalf("expected issuance failure")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors type, got %T", err)
	}
	if richErr.TextCode != ClientErrorTokenIssuanceFailed {
		t.Fatalf("expected issuance text code, got %q", richErr.TextCode)
	}

	persisted, found, loadErr := store.Load(ctx)
	if loadErr != nil || !found {
		t.Fatalf("expected stored token to survive, found=%v err=%v", found, loadErr)
	}
	if persisted.AccessToken != stale.AccessToken {
		t.Fatalf("expected stored token unchanged, got %q", persisted.AccessToken)
	}
}

func TestGetValidToken_ConcurrentCallersShareOneIssuance(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.August, 27, 10, 0, 0, 0, time.UTC)

	issuer := &stubIssuer{token: Token{
		AccessToken: "shared-token",
		IssuedAt:    now,
		ExpiresAt:   now.Add(time.Hour),
	}}
	manager := NewTokenManager(NewMemoryTokenStore(), issuer, nil, fixedClock(now))

	const callers = 50
	tokens := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = manager.GetValidToken(ctx)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if tokens[i] != "shared-token" {
			t.Fatalf("caller %d: expected shared token, got %q", i, tokens[i])
		}
	}
	if issuer.callCount() != 1 {
		t.Fatalf("expected exactly one issuance, got %d", issuer.callCount())
	}
}

func TestInvalidate_ClearsTheSlot(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.August, 27, 10, 0, 0, 0, time.UTC)

	store := NewMemoryTokenStore()
	if err := store.Save(ctx, Token{AccessToken: "cached", ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	manager := NewTokenManager(store, &stubIssuer{}, nil, fixedClock(now))

	if err := manager.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, found, _ := store.Load(ctx); found {
		t.Fatalf("expected empty slot after invalidate")
	}
}

func TestGetValidToken_SaveFailurePropagates(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.August, 27, 10, 0, 0, 0, time.UTC)

	store := &failingSaveStore{}
	issuer := &stubIssuer{token: Token{AccessToken: "fresh", ExpiresAt: now.Add(time.Hour)}}
	manager := NewTokenManager(store, issuer, nil, fixedClock(now))

	if _, err := manager.GetValidToken(ctx); err == nil {
		t.Fatalf("expected persistence failure to propagate")
	}
}

type failingSaveStore struct{}

func (failingSaveStore) Load(context.Context) (Token, bool, error) { return Token{}, false, nil }
func (failingSaveStore) Save(context.Context, Token) error {
	return fmt.Errorf("disk full")
}
func (failingSaveStore) Clear(context.Context) error { return nil }
