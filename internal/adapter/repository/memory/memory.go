// Package memory provides an in-process link store used for development
// and tests. All mutations happen under a single lock, so inserts are
// atomic check-and-set and click increments never lose updates.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type LinkRepository struct {
	mu     sync.RWMutex
	links  map[string]*entity.ShortLink
	nextID int64
}

func NewLinkRepository() *LinkRepository {
	return &LinkRepository{
		links: make(map[string]*entity.ShortLink),
	}
}

func (r *LinkRepository) Exists(_ context.Context, shortCode string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.links[shortCode]
	return ok, nil
}

func (r *LinkRepository) Insert(_ context.Context, link *entity.ShortLink) (*entity.ShortLink, error) {
	const op = "adapter.repository.memory.LinkRepository.Insert"

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.links[link.ShortCode]; ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
	}

	r.nextID++

	stored := *link
	stored.ID = r.nextID
	stored.ClickCount = 0
	r.links[stored.ShortCode] = &stored

	res := stored
	return &res, nil
}

func (r *LinkRepository) Lookup(_ context.Context, shortCode string) (*entity.ShortLink, error) {
	const op = "adapter.repository.memory.LinkRepository.Lookup"

	r.mu.RLock()
	defer r.mu.RUnlock()

	link, ok := r.links[shortCode]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	res := *link
	return &res, nil
}

func (r *LinkRepository) IncrementClicks(_ context.Context, shortCode string) error {
	const op = "adapter.repository.memory.LinkRepository.IncrementClicks"

	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[shortCode]
	if !ok {
		return fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	link.ClickCount++
	return nil
}

func (r *LinkRepository) ListByOwner(_ context.Context, owner string, limit int) ([]*entity.ShortLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var links []*entity.ShortLink
	for _, link := range r.links {
		if owner != "" && link.Owner == owner {
			res := *link
			links = append(links, &res)
		}
	}

	sort.Slice(links, func(i, j int) bool {
		if links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].ID > links[j].ID
		}
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})

	if limit > 0 && len(links) > limit {
		links = links[:limit]
	}

	return links, nil
}
