package http

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type MockLinkAllocator struct {
	mock.Mock
}

func (m *MockLinkAllocator) Allocate(ctx context.Context, originalURL, alias string, owner entity.Identity) (*entity.ShortLink, error) {
	args := m.Called(ctx, originalURL, alias, owner)
	link, _ := args.Get(0).(*entity.ShortLink)
	return link, args.Error(1)
}

type MockLinkRedirector struct {
	mock.Mock
}

func (m *MockLinkRedirector) Resolve(ctx context.Context, shortCode string) (string, error) {
	args := m.Called(ctx, shortCode)
	return args.String(0), args.Error(1)
}

type MockLinkQuery struct {
	mock.Mock
}

func (m *MockLinkQuery) RecentLinks(ctx context.Context, owner entity.Identity) ([]*entity.ShortLink, error) {
	args := m.Called(ctx, owner)
	links, _ := args.Get(0).([]*entity.ShortLink)
	return links, args.Error(1)
}

func (m *MockLinkQuery) LinkStats(ctx context.Context, shortCode string, owner entity.Identity) (*entity.ShortLink, error) {
	args := m.Called(ctx, shortCode, owner)
	link, _ := args.Get(0).(*entity.ShortLink)
	return link, args.Error(1)
}

func (m *MockLinkQuery) ActiveLink(ctx context.Context, shortCode string) (*entity.ShortLink, error) {
	args := m.Called(ctx, shortCode)
	link, _ := args.Get(0).(*entity.ShortLink)
	return link, args.Error(1)
}

func (m *MockLinkQuery) AliasAvailable(ctx context.Context, alias string) (bool, error) {
	args := m.Called(ctx, alias)
	return args.Bool(0), args.Error(1)
}

type MockTokenVerifier struct {
	mock.Mock
}

func (m *MockTokenVerifier) Verify(token string) (entity.Identity, error) {
	args := m.Called(token)
	id, _ := args.Get(0).(entity.Identity)
	return id, args.Error(1)
}
