package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/identity"
)

type tokenVerifier interface {
	Verify(token string) (entity.Identity, error)
}

// authenticate attaches the caller identity to the request context. Requests
// without an Authorization header stay anonymous; a header that does not hold
// a valid bearer token is rejected.
func authenticate(verifier tokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := identity.TokenFromHeader(header)
			if !ok {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, invalidTokenResponse)
				return
			}

			id, err := verifier.Verify(token)
			if err != nil {
				httplog.LogEntrySetField(r.Context(), "auth_err", slog.AnyValue(err))

				render.Status(r, http.StatusUnauthorized)
				if errors.Is(err, identity.ErrExpiredToken) {
					render.JSON(w, r, expiredTokenResponse)
				} else {
					render.JSON(w, r, invalidTokenResponse)
				}
				return
			}

			httplog.LogEntrySetField(r.Context(), "owner", slog.StringValue(id.Subject))
			next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), id)))
		})
	}
}
