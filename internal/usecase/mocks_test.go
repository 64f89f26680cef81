package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type MockLinkRepository struct {
	mock.Mock
}

func (r *MockLinkRepository) Exists(ctx context.Context, shortCode string) (bool, error) {
	args := r.Called(ctx, shortCode)
	return args.Bool(0), args.Error(1)
}

func (r *MockLinkRepository) Insert(ctx context.Context, link *entity.ShortLink) (*entity.ShortLink, error) {
	args := r.Called(ctx, link)
	res, _ := args.Get(0).(*entity.ShortLink)
	return res, args.Error(1)
}

func (r *MockLinkRepository) Lookup(ctx context.Context, shortCode string) (*entity.ShortLink, error) {
	args := r.Called(ctx, shortCode)
	link, _ := args.Get(0).(*entity.ShortLink)
	return link, args.Error(1)
}

func (r *MockLinkRepository) IncrementClicks(ctx context.Context, shortCode string) error {
	args := r.Called(ctx, shortCode)
	return args.Error(0)
}

func (r *MockLinkRepository) ListByOwner(ctx context.Context, owner string, limit int) ([]*entity.ShortLink, error) {
	args := r.Called(ctx, owner, limit)
	links, _ := args.Get(0).([]*entity.ShortLink)
	return links, args.Error(1)
}

type MockCodeGenerator struct {
	mock.Mock
}

func (g *MockCodeGenerator) Generate(length int) (string, error) {
	args := g.Called(length)
	return args.String(0), args.Error(1)
}

type fixedPolicy struct {
	now time.Time
}

func (p fixedPolicy) Stamp(hasOwner bool) (time.Time, time.Time) {
	if hasOwner {
		return p.now, p.now.Add(90 * 24 * time.Hour)
	}
	return p.now, p.now.Add(30 * 24 * time.Hour)
}
