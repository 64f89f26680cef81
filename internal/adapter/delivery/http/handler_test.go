package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/go-chi/httplog/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/identity"
	"github.com/vadimbarashkov/shortlink/internal/shortcode"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
)

const (
	testBaseURL = "https://sho.rt"
	aliceToken  = "alice-token"
)

type HandlersTestSuite struct {
	suite.Suite
	logger         *httplog.Logger
	now            time.Time
	alice          entity.Identity
	allocatorMock  *MockLinkAllocator
	redirectorMock *MockLinkRedirector
	queryMock      *MockLinkQuery
	verifierMock   *MockTokenVerifier
	server         *httptest.Server
	e              *httpexpect.Expect
}

func (suite *HandlersTestSuite) SetupSuite() {
	suite.logger = httplog.NewLogger("", httplog.Options{Writer: io.Discard})
	suite.now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	suite.alice = entity.Identity{Subject: "alice"}
}

func (suite *HandlersTestSuite) SetupSubTest() {
	suite.allocatorMock = new(MockLinkAllocator)
	suite.redirectorMock = new(MockLinkRedirector)
	suite.queryMock = new(MockLinkQuery)
	suite.verifierMock = new(MockTokenVerifier)

	suite.verifierMock.
		On("Verify", aliceToken).
		Maybe().
		Return(suite.alice, nil)

	router := NewRouter(suite.logger, testBaseURL, suite.verifierMock, UseCases{
		Allocator:  suite.allocatorMock,
		Redirector: suite.redirectorMock,
		Query:      suite.queryMock,
	}, WithClock(func() time.Time { return suite.now }))
	suite.server = httptest.NewServer(router)
	suite.T().Cleanup(func() {
		suite.server.Close()
	})

	suite.e = httpexpect.Default(suite.T(), suite.server.URL)
}

func (suite *HandlersTestSuite) TearDownSubTest() {
	suite.allocatorMock.AssertExpectations(suite.T())
	suite.redirectorMock.AssertExpectations(suite.T())
	suite.queryMock.AssertExpectations(suite.T())
	suite.verifierMock.AssertExpectations(suite.T())
}

func (suite *HandlersTestSuite) link() *entity.ShortLink {
	return &entity.ShortLink{
		ID:          1,
		ShortCode:   "abc123",
		OriginalURL: "https://example.com",
		CreatedAt:   suite.now,
		ExpiresAt:   suite.now.Add(30 * 24 * time.Hour),
	}
}

func (suite *HandlersTestSuite) TestPing() {
	const path = "/api/v1/ping"

	suite.Run("success", func() {
		suite.e.GET(path).
			Expect().
			Status(http.StatusOK).
			Text().IsEqual("pong")
	})
}

func (suite *HandlersTestSuite) TestAuthentication() {
	const path = "/api/v1/links"

	suite.Run("malformed header", func() {
		resp := suite.e.GET(path).
			WithHeader("Authorization", "Basic dXNlcjpwYXNz").
			Expect().
			Status(http.StatusUnauthorized).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.HasValue("message", "invalid token")
	})

	suite.Run("invalid token", func() {
		suite.verifierMock.
			On("Verify", "bad-token").
			Once().
			Return(entity.Identity{}, identity.ErrInvalidToken)

		resp := suite.e.GET(path).
			WithHeader("Authorization", "Bearer bad-token").
			Expect().
			Status(http.StatusUnauthorized).
			JSON().Object()

		resp.HasValue("message", "invalid token")
	})

	suite.Run("expired token", func() {
		suite.verifierMock.
			On("Verify", "old-token").
			Once().
			Return(entity.Identity{}, identity.ErrExpiredToken)

		resp := suite.e.GET(path).
			WithHeader("Authorization", "Bearer old-token").
			Expect().
			Status(http.StatusUnauthorized).
			JSON().Object()

		resp.HasValue("message", "token expired")
	})

	suite.Run("redirect ignores token", func() {
		suite.redirectorMock.
			On("Resolve", mock.Anything, "abc123").
			Once().
			Return("https://example.com", nil)

		suite.e.GET("/abc123").
			WithHeader("Authorization", "Basic dXNlcjpwYXNz").
			WithRedirectPolicy(httpexpect.DontFollowRedirects).
			Expect().
			Status(http.StatusFound)
	})
}

func (suite *HandlersTestSuite) TestCreateLink() {
	const path = "/api/v1/links"

	suite.Run("empty request body", func() {
		resp := suite.e.POST(path).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.HasValue("message", "empty request body")
	})

	suite.Run("invalid request body", func() {
		resp := suite.e.POST(path).
			WithJSON("invalid body").
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.HasValue("message", "invalid request body")
	})

	suite.Run("validation error", func() {
		resp := suite.e.POST(path).
			WithJSON(map[string]string{"original_url": "invalid url"}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.ContainsKey("message")
		resp.Value("errors").Array().Value(0).Object().
			HasValue("field", "original_url").
			HasValue("message", "invalid url")
	})

	suite.Run("url too long", func() {
		resp := suite.e.POST(path).
			WithJSON(map[string]string{"original_url": "https://example.com/" + strings.Repeat("a", 2048)}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.Value("errors").Array().Value(0).Object().
			HasValue("field", "original_url").
			HasValue("message", "value is too long")
	})

	suite.Run("alias without authentication", func() {
		suite.allocatorMock.
			On("Allocate", mock.Anything, "https://example.com", "myalias123", entity.Identity{}).
			Once().
			Return(nil, usecase.ErrAliasRequiresAuth)

		resp := suite.e.POST(path).
			WithJSON(map[string]string{"original_url": "https://example.com", "alias": "myalias123"}).
			Expect().
			Status(http.StatusUnauthorized).
			JSON().Object()

		resp.HasValue("message", "you must be signed in to use a custom alias")
	})

	suite.Run("invalid alias", func() {
		aliasErr := &shortcode.AliasError{Reason: shortcode.ReasonTooShort, MinLength: 8, MaxLength: shortcode.MaxLength}

		suite.allocatorMock.
			On("Allocate", mock.Anything, "https://example.com", "short", suite.alice).
			Once().
			Return(nil, fmt.Errorf("%w: %w", usecase.ErrInvalidAlias, aliasErr))

		resp := suite.e.POST(path).
			WithHeader("Authorization", "Bearer "+aliceToken).
			WithJSON(map[string]string{"original_url": "https://example.com", "alias": "short"}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.Value("errors").Array().Value(0).Object().
			HasValue("field", "alias").
			HasValue("message", aliasErr.Error())
	})

	suite.Run("alias taken", func() {
		suite.allocatorMock.
			On("Allocate", mock.Anything, "https://example.com", "myalias123", suite.alice).
			Once().
			Return(nil, usecase.ErrAliasTaken)

		resp := suite.e.POST(path).
			WithHeader("Authorization", "Bearer "+aliceToken).
			WithJSON(map[string]string{"original_url": "https://example.com", "alias": "myalias123"}).
			Expect().
			Status(http.StatusConflict).
			JSON().Object()

		resp.HasValue("message", "alias is already in use")
	})

	for _, url := range []string{"", "   "} {
		suite.Run("missing url "+url, func() {
			suite.allocatorMock.
				On("Allocate", mock.Anything, "", "", entity.Identity{}).
				Once().
				Return(nil, usecase.ErrMissingURL)

			resp := suite.e.POST(path).
				WithJSON(map[string]string{"original_url": url}).
				Expect().
				Status(http.StatusBadRequest).
				JSON().Object()

			resp.HasValue("status", "error")
			resp.HasValue("message", "original url is required")
		})
	}

	suite.Run("server error", func() {
		suite.allocatorMock.
			On("Allocate", mock.Anything, "https://example.com", "", entity.Identity{}).
			Once().
			Return(nil, usecase.ErrKeyspaceExhausted)

		resp := suite.e.POST(path).
			WithJSON(map[string]string{"original_url": "https://example.com"}).
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.HasValue("message", "server error occurred")
	})

	suite.Run("success", func() {
		suite.allocatorMock.
			On("Allocate", mock.Anything, "https://example.com", "", entity.Identity{}).
			Once().
			Return(suite.link(), nil)

		resp := suite.e.POST(path).
			WithJSON(map[string]string{"original_url": "https://example.com"}).
			Expect().
			Status(http.StatusCreated).
			JSON().Object()

		resp.HasValue("id", 1)
		resp.HasValue("short_code", "abc123")
		resp.HasValue("short_url", testBaseURL+"/abc123")
		resp.HasValue("original_url", "https://example.com")
		resp.ContainsKey("created_at")
		resp.ContainsKey("expires_at")
		resp.NotContainsKey("stats")
	})

	suite.Run("success with alias", func() {
		link := suite.link()
		link.ShortCode = "myalias123"
		link.Owner = "alice"

		suite.allocatorMock.
			On("Allocate", mock.Anything, "https://example.com", "myalias123", suite.alice).
			Once().
			Return(link, nil)

		resp := suite.e.POST(path).
			WithHeader("Authorization", "Bearer "+aliceToken).
			WithJSON(map[string]string{"original_url": "https://example.com", "alias": "myalias123"}).
			Expect().
			Status(http.StatusCreated).
			JSON().Object()

		resp.HasValue("short_url", testBaseURL+"/myalias123")
	})
}

func (suite *HandlersTestSuite) TestListLinks() {
	const path = "/api/v1/links"

	suite.Run("anonymous caller", func() {
		suite.queryMock.
			On("RecentLinks", mock.Anything, entity.Identity{}).
			Once().
			Return(nil, usecase.ErrUnauthenticated)

		resp := suite.e.GET(path).
			Expect().
			Status(http.StatusUnauthorized).
			JSON().Object()

		resp.HasValue("message", "authentication required")
	})

	suite.Run("server error", func() {
		suite.queryMock.
			On("RecentLinks", mock.Anything, suite.alice).
			Once().
			Return(nil, errors.New("unknown error"))

		suite.e.GET(path).
			WithHeader("Authorization", "Bearer "+aliceToken).
			Expect().
			Status(http.StatusInternalServerError)
	})

	suite.Run("no links", func() {
		suite.queryMock.
			On("RecentLinks", mock.Anything, suite.alice).
			Once().
			Return(nil, nil)

		suite.e.GET(path).
			WithHeader("Authorization", "Bearer "+aliceToken).
			Expect().
			Status(http.StatusOK).
			JSON().Array().IsEmpty()
	})

	suite.Run("success", func() {
		suite.queryMock.
			On("RecentLinks", mock.Anything, suite.alice).
			Once().
			Return([]*entity.ShortLink{suite.link(), suite.link()}, nil)

		resp := suite.e.GET(path).
			WithHeader("Authorization", "Bearer "+aliceToken).
			Expect().
			Status(http.StatusOK).
			JSON().Array()

		resp.Length().IsEqual(2)
		resp.Value(0).Object().HasValue("short_code", "abc123")
	})
}

func (suite *HandlersTestSuite) TestGetLinkStats() {
	const path = "/api/v1/links/%s"

	suite.Run("link not found", func() {
		suite.queryMock.
			On("LinkStats", mock.Anything, "abc123", suite.alice).
			Once().
			Return(nil, entity.ErrLinkNotFound)

		resp := suite.e.GET(fmt.Sprintf(path, "abc123")).
			WithHeader("Authorization", "Bearer "+aliceToken).
			Expect().
			Status(http.StatusNotFound).
			JSON().Object()

		resp.HasValue("message", "link not found")
	})

	suite.Run("server error", func() {
		suite.queryMock.
			On("LinkStats", mock.Anything, "abc123", suite.alice).
			Once().
			Return(nil, errors.New("unknown error"))

		suite.e.GET(fmt.Sprintf(path, "abc123")).
			WithHeader("Authorization", "Bearer "+aliceToken).
			Expect().
			Status(http.StatusInternalServerError)
	})

	suite.Run("success", func() {
		link := suite.link()
		link.Owner = "alice"
		link.ClickCount = 7

		suite.queryMock.
			On("LinkStats", mock.Anything, "abc123", suite.alice).
			Once().
			Return(link, nil)

		resp := suite.e.GET(fmt.Sprintf(path, "abc123")).
			WithHeader("Authorization", "Bearer "+aliceToken).
			Expect().
			Status(http.StatusOK).
			JSON().Object()

		resp.HasValue("short_code", "abc123")
		resp.Value("stats").Object().
			HasValue("click_count", 7).
			HasValue("expired", false)
	})

	suite.Run("expired link", func() {
		link := suite.link()
		link.Owner = "alice"
		link.ExpiresAt = suite.now

		suite.queryMock.
			On("LinkStats", mock.Anything, "abc123", suite.alice).
			Once().
			Return(link, nil)

		resp := suite.e.GET(fmt.Sprintf(path, "abc123")).
			WithHeader("Authorization", "Bearer "+aliceToken).
			Expect().
			Status(http.StatusOK).
			JSON().Object()

		resp.Value("stats").Object().HasValue("expired", true)
	})
}

func (suite *HandlersTestSuite) TestGetLinkQR() {
	const path = "/api/v1/links/%s/qr"

	suite.Run("invalid size", func() {
		suite.e.GET(fmt.Sprintf(path, "abc123")).
			WithQuery("size", "10").
			Expect().
			Status(http.StatusBadRequest)
	})

	suite.Run("link not found", func() {
		suite.queryMock.
			On("ActiveLink", mock.Anything, "abc123").
			Once().
			Return(nil, entity.ErrLinkNotFound)

		suite.e.GET(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusNotFound)
	})

	suite.Run("success", func() {
		suite.queryMock.
			On("ActiveLink", mock.Anything, "abc123").
			Once().
			Return(suite.link(), nil)

		body := suite.e.GET(fmt.Sprintf(path, "abc123")).
			WithQuery("size", "128").
			Expect().
			Status(http.StatusOK).
			HasContentType("image/png").
			Body().Raw()

		suite.True(strings.HasPrefix(body, "\x89PNG"))
	})
}

func (suite *HandlersTestSuite) TestCheckAlias() {
	const path = "/api/v1/aliases/%s"

	suite.Run("invalid alias", func() {
		suite.queryMock.
			On("AliasAvailable", mock.Anything, "bad-alias").
			Once().
			Return(false, fmt.Errorf("%w: %w", usecase.ErrInvalidAlias, &shortcode.AliasError{Reason: shortcode.ReasonInvalidCharacters}))

		resp := suite.e.GET(fmt.Sprintf(path, "bad-alias")).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.Value("errors").Array().Value(0).Object().
			HasValue("field", "alias").
			HasValue("message", "alias may only contain letters and digits")
	})

	suite.Run("server error", func() {
		suite.queryMock.
			On("AliasAvailable", mock.Anything, "myalias123").
			Once().
			Return(false, errors.New("unknown error"))

		suite.e.GET(fmt.Sprintf(path, "myalias123")).
			Expect().
			Status(http.StatusInternalServerError)
	})

	suite.Run("success", func() {
		suite.queryMock.
			On("AliasAvailable", mock.Anything, "myalias123").
			Once().
			Return(true, nil)

		suite.e.GET(fmt.Sprintf(path, "myalias123")).
			Expect().
			Status(http.StatusOK).
			JSON().Object().
			HasValue("alias", "myalias123").
			HasValue("available", true)
	})
}

func (suite *HandlersTestSuite) TestRedirect() {
	const path = "/%s"

	suite.Run("link not found", func() {
		suite.redirectorMock.
			On("Resolve", mock.Anything, "abc123").
			Once().
			Return("", entity.ErrLinkNotFound)

		resp := suite.e.GET(fmt.Sprintf(path, "abc123")).
			WithRedirectPolicy(httpexpect.DontFollowRedirects).
			Expect().
			Status(http.StatusNotFound).
			JSON().Object()

		resp.HasValue("message", "link not found")
	})

	suite.Run("server error", func() {
		suite.redirectorMock.
			On("Resolve", mock.Anything, "abc123").
			Once().
			Return("", errors.New("unknown error"))

		suite.e.GET(fmt.Sprintf(path, "abc123")).
			WithRedirectPolicy(httpexpect.DontFollowRedirects).
			Expect().
			Status(http.StatusInternalServerError)
	})

	suite.Run("success", func() {
		suite.redirectorMock.
			On("Resolve", mock.Anything, "abc123").
			Once().
			Return("https://example.com/some/path?q=1", nil)

		suite.e.GET(fmt.Sprintf(path, "abc123")).
			WithRedirectPolicy(httpexpect.DontFollowRedirects).
			Expect().
			Status(http.StatusFound).
			Header("Location").IsEqual("https://example.com/some/path?q=1")
	})
}

func TestLinkHandler(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
