package core

import (
	"context"
	"sync"
)

// MemoryTokenStore keeps the token slot in process memory. It is the
// default store; deployments sharing a slot across processes wire the
// bun-backed store instead.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token Token
	set   bool
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Load(context.Context) (Token, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.set, nil
}

func (s *MemoryTokenStore) Save(_ context.Context, token Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.set = true
	return nil
}

func (s *MemoryTokenStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = Token{}
	s.set = false
	return nil
}

var _ TokenStore = (*MemoryTokenStore)(nil)
