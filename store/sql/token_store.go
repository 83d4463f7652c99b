package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-mpesa/core"
)

// TokenStore keeps the single authoritative token slot in a relational
// table. Save replaces any prior rows inside one transaction so readers
// never observe two candidate tokens.
type TokenStore struct {
	db   *bun.DB
	repo repository.Repository[*tokenRecord]
}

func NewTokenStore(db *bun.DB) (*TokenStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &TokenStore{
		db:   db,
		repo: repository.NewRepository[*tokenRecord](db, tokenHandlers()),
	}, nil
}

func (s *TokenStore) Load(ctx context.Context) (core.Token, bool, error) {
	if s == nil || s.db == nil {
		return core.Token{}, false, fmt.Errorf("sqlstore: token store is not configured")
	}
	record := &tokenRecord{}
	err := s.db.NewSelect().
		Model(record).
		Order("issued_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Token{}, false, nil
		}
		return core.Token{}, false, err
	}
	return record.toDomain(), true, nil
}

func (s *TokenStore) Save(ctx context.Context, token core.Token) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: token store is not configured")
	}
	record := &tokenRecord{
		ID:          uuid.NewString(),
		AccessToken: token.AccessToken,
		IssuedAt:    token.IssuedAt.UTC(),
		ExpiresAt:   token.ExpiresAt.UTC(),
		CreatedAt:   time.Now().UTC(),
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*tokenRecord)(nil)).
			Where("1 = 1").
			Exec(ctx); err != nil {
			return err
		}
		_, err := s.repo.CreateTx(ctx, tx, record)
		return err
	})
}

func (s *TokenStore) Clear(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: token store is not configured")
	}
	_, err := s.db.NewDelete().
		Model((*tokenRecord)(nil)).
		Where("1 = 1").
		Exec(ctx)
	return err
}

var _ core.TokenStore = (*TokenStore)(nil)
