// Package usecase implements short link allocation, redirection and the
// owner-facing queries on top of a link store.
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

var (
	ErrMissingURL        = errors.New("original url is required")
	ErrAliasRequiresAuth = errors.New("custom alias requires an authenticated owner")
	ErrInvalidAlias      = errors.New("invalid alias")
	ErrAliasTaken        = errors.New("alias is already in use")
	ErrKeyspaceExhausted = errors.New("maximum retries exceeded for generating short code")
	ErrUnauthenticated   = errors.New("authenticated owner required")
)

// DefaultMaxAttempts bounds the number of random codes tried per allocation.
const DefaultMaxAttempts = 10

// RecentLinksLimit is the number of links returned by LinkQuery.RecentLinks.
const RecentLinksLimit = 10

type linkInserter interface {
	Insert(ctx context.Context, link *entity.ShortLink) (*entity.ShortLink, error)
}

type linkResolver interface {
	Lookup(ctx context.Context, shortCode string) (*entity.ShortLink, error)
	IncrementClicks(ctx context.Context, shortCode string) error
}

type linkReader interface {
	Exists(ctx context.Context, shortCode string) (bool, error)
	Lookup(ctx context.Context, shortCode string) (*entity.ShortLink, error)
	ListByOwner(ctx context.Context, owner string, limit int) ([]*entity.ShortLink, error)
}

type codeGenerator interface {
	Generate(length int) (string, error)
}

type aliasValidator interface {
	Validate(alias string) error
}

type expiryPolicy interface {
	Stamp(hasOwner bool) (createdAt, expiresAt time.Time)
}
