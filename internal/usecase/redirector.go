package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// Redirector resolves short codes to their destinations and counts clicks.
type Redirector struct {
	repo   linkResolver
	logger *slog.Logger
	now    func() time.Time
}

type RedirectorOption func(*Redirector)

// WithRedirectorClock replaces the clock used for expiry checks.
func WithRedirectorClock(now func() time.Time) RedirectorOption {
	return func(r *Redirector) {
		r.now = now
	}
}

func NewRedirector(repo linkResolver, logger *slog.Logger, opts ...RedirectorOption) *Redirector {
	r := &Redirector{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve returns the original URL behind shortCode. Unknown and expired
// codes both yield entity.ErrLinkNotFound. A failed click increment is
// logged and does not prevent the redirect.
func (r *Redirector) Resolve(ctx context.Context, shortCode string) (string, error) {
	const op = "usecase.Redirector.Resolve"

	link, err := r.repo.Lookup(ctx, shortCode)
	if err != nil {
		if errors.Is(err, entity.ErrLinkNotFound) {
			return "", fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return "", fmt.Errorf("%s: failed to look up short code: %w", op, err)
	}

	if link.IsExpired(r.now()) {
		return "", fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	// The click is recorded even if the client goes away mid-request.
	if err := r.repo.IncrementClicks(context.WithoutCancel(ctx), shortCode); err != nil {
		r.logger.WarnContext(ctx, "failed to record click",
			slog.String("op", op),
			slog.String("short_code", shortCode),
			slog.Any("err", err),
		)
	}

	return link.OriginalURL, nil
}
