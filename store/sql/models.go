package sqlstore

import (
	"time"

	"github.com/goliatone/go-mpesa/core"
	"github.com/uptrace/bun"
)

type tokenRecord struct {
	bun.BaseModel `bun:"table:mpesa_tokens,alias:mt"`

	ID          string    `bun:"id,pk"`
	AccessToken string    `bun:"access_token,notnull"`
	IssuedAt    time.Time `bun:"issued_at,notnull"`
	ExpiresAt   time.Time `bun:"expires_at,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func (r *tokenRecord) toDomain() core.Token {
	if r == nil {
		return core.Token{}
	}
	return core.Token{
		AccessToken: r.AccessToken,
		IssuedAt:    r.IssuedAt.UTC(),
		ExpiresAt:   r.ExpiresAt.UTC(),
	}
}
