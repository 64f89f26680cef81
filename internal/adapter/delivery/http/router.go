// Package http provides the HTTP delivery layer for the link shortener service.
// This package contains the HTTP handlers and related types used for processing
// incoming requests, validating input, and formatting responses.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"
)

// UseCases groups the application services served over HTTP.
type UseCases struct {
	Allocator  linkAllocator
	Redirector linkRedirector
	Query      linkQuery
}

// RouterOption configures the link handlers served by NewRouter.
type RouterOption func(*linkHandler)

// WithClock sets the time source used to report whether a link has expired.
func WithClock(now func() time.Time) RouterOption {
	return func(h *linkHandler) {
		h.now = now
	}
}

// NewRouter initializes and returns a new Chi router configured with middleware and routes
// for the link shortener API. Short URLs are built from baseURL.
func NewRouter(logger *httplog.Logger, baseURL string, verifier tokenVerifier, useCases UseCases, opts ...RouterOption) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	h := newLinkHandler(useCases, validator.New(), baseURL, opts...)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger.yml")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", handlePing)

		r.Group(func(r chi.Router) {
			r.Use(authenticate(verifier))

			r.Route("/links", func(r chi.Router) {
				r.Post("/", h.createLink)
				r.Get("/", h.listLinks)

				r.Route("/{shortCode}", func(r chi.Router) {
					r.Get("/", h.getLinkStats)
					r.Get("/qr", h.getLinkQR)
				})
			})

			r.Get("/aliases/{alias}", h.checkAlias)
		})
	})

	r.Get("/{shortCode}", h.redirect)

	return r
}
