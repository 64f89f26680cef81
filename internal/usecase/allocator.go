package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/shortcode"
)

// Allocator mints new short links.
type Allocator struct {
	repo        linkInserter
	gen         codeGenerator
	validator   aliasValidator
	policy      expiryPolicy
	codeLength  int
	maxAttempts int
}

type AllocatorOption func(*Allocator)

// WithCodeLength sets the length of generated codes.
func WithCodeLength(n int) AllocatorOption {
	return func(a *Allocator) {
		if n > 0 {
			a.codeLength = n
		}
	}
}

// WithMaxAttempts sets how many random codes are tried before giving up.
func WithMaxAttempts(n int) AllocatorOption {
	return func(a *Allocator) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

func NewAllocator(
	repo linkInserter,
	gen codeGenerator,
	validator aliasValidator,
	policy expiryPolicy,
	opts ...AllocatorOption,
) *Allocator {
	a := &Allocator{
		repo:        repo,
		gen:         gen,
		validator:   validator,
		policy:      policy,
		codeLength:  shortcode.DefaultLength,
		maxAttempts: DefaultMaxAttempts,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Allocate creates a short link for originalURL. Surrounding whitespace is
// ignored, so a blank alias counts as none. A non-empty alias is used
// verbatim as the short code and is only allowed for an identified owner;
// otherwise a random code is generated. The store decides uniqueness: the
// code is inserted directly and a conflict is reported, never pre-checked.
func (a *Allocator) Allocate(ctx context.Context, originalURL, alias string, owner entity.Identity) (*entity.ShortLink, error) {
	const op = "usecase.Allocator.Allocate"

	originalURL = strings.TrimSpace(originalURL)
	alias = strings.TrimSpace(alias)

	if originalURL == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingURL)
	}

	if alias != "" {
		if !owner.IsPresent() {
			return nil, fmt.Errorf("%s: %w", op, ErrAliasRequiresAuth)
		}

		if err := a.validator.Validate(alias); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidAlias, err)
		}

		link, err := a.repo.Insert(ctx, a.newLink(alias, originalURL, owner))
		if err != nil {
			if errors.Is(err, entity.ErrShortCodeExists) {
				return nil, fmt.Errorf("%s: %w", op, ErrAliasTaken)
			}

			return nil, fmt.Errorf("%s: failed to save aliased link: %w", op, err)
		}

		return link, nil
	}

	for i := 0; i < a.maxAttempts; i++ {
		shortCode, err := a.gen.Generate(a.codeLength)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		link, err := a.repo.Insert(ctx, a.newLink(shortCode, originalURL, owner))
		if err != nil {
			if errors.Is(err, entity.ErrShortCodeExists) {
				continue
			}

			return nil, fmt.Errorf("%s: failed to save link: %w", op, err)
		}

		return link, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrKeyspaceExhausted)
}

func (a *Allocator) newLink(shortCode, originalURL string, owner entity.Identity) *entity.ShortLink {
	createdAt, expiresAt := a.policy.Stamp(owner.IsPresent())

	return &entity.ShortLink{
		ShortCode:   shortCode,
		OriginalURL: originalURL,
		Owner:       owner.Subject,
		CreatedAt:   createdAt,
		ExpiresAt:   expiresAt,
	}
}
