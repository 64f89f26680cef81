package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// LinkQuery serves read-only views of stored links.
type LinkQuery struct {
	repo      linkReader
	validator aliasValidator
	now       func() time.Time
}

func NewLinkQuery(repo linkReader, validator aliasValidator) *LinkQuery {
	return &LinkQuery{
		repo:      repo,
		validator: validator,
		now:       time.Now,
	}
}

// RecentLinks returns the newest links created by owner.
func (q *LinkQuery) RecentLinks(ctx context.Context, owner entity.Identity) ([]*entity.ShortLink, error) {
	const op = "usecase.LinkQuery.RecentLinks"

	if !owner.IsPresent() {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	links, err := q.repo.ListByOwner(ctx, owner.Subject, RecentLinksLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list links: %w", op, err)
	}

	return links, nil
}

// LinkStats returns the full record of a link to its owner. Anyone else gets
// entity.ErrLinkNotFound, as if the link did not exist.
func (q *LinkQuery) LinkStats(ctx context.Context, shortCode string, owner entity.Identity) (*entity.ShortLink, error) {
	const op = "usecase.LinkQuery.LinkStats"

	link, err := q.repo.Lookup(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link stats: %w", op, err)
	}

	if !link.OwnedBy(owner) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	return link, nil
}

// ActiveLink returns the link if it exists and has not expired. No click is recorded.
func (q *LinkQuery) ActiveLink(ctx context.Context, shortCode string) (*entity.ShortLink, error) {
	const op = "usecase.LinkQuery.ActiveLink"

	link, err := q.repo.Lookup(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link: %w", op, err)
	}

	if link.IsExpired(q.now()) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	return link, nil
}

// AliasAvailable reports whether alias is valid and not taken yet. The answer
// is advisory: a concurrent allocation may still claim the alias first.
func (q *LinkQuery) AliasAvailable(ctx context.Context, alias string) (bool, error) {
	const op = "usecase.LinkQuery.AliasAvailable"

	alias = strings.TrimSpace(alias)

	if err := q.validator.Validate(alias); err != nil {
		return false, fmt.Errorf("%s: %w: %w", op, ErrInvalidAlias, err)
	}

	exists, err := q.repo.Exists(ctx, alias)
	if err != nil {
		return false, fmt.Errorf("%s: failed to check alias: %w", op, err)
	}

	return !exists, nil
}
