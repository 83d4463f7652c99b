package sqlstore

import (
	"context"
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
)

// NewTokenStoreFromDB builds the store over a raw bun connection.
func NewTokenStoreFromDB(db *bun.DB) (*TokenStore, error) {
	return NewTokenStore(db)
}

// NewTokenStoreFromPersistence builds the store over a go-persistence-bun
// client.
func NewTokenStoreFromPersistence(client *persistence.Client) (*TokenStore, error) {
	if client == nil {
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	}
	db, err := resolveBunDB(client)
	if err != nil {
		return nil, err
	}
	return NewTokenStore(db)
}

// NewTokenStoreFrom accepts either a *bun.DB or anything exposing
// DB() *bun.DB.
func NewTokenStoreFrom(candidate any) (*TokenStore, error) {
	db, err := resolveBunDB(candidate)
	if err != nil {
		return nil, err
	}
	return NewTokenStore(db)
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client %T", candidate)
	}
}

// CreateTokenTable provisions the token slot table. Deployments with a
// migration pipeline can recreate the schema there instead.
func CreateTokenTable(ctx context.Context, db *bun.DB) error {
	if db == nil {
		return fmt.Errorf("sqlstore: bun db is required")
	}
	_, err := db.NewCreateTable().
		Model((*tokenRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}
