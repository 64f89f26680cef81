package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/skip2/go-qrcode"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/identity"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
)

const (
	defaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

type linkAllocator interface {
	Allocate(ctx context.Context, originalURL, alias string, owner entity.Identity) (*entity.ShortLink, error)
}

type linkRedirector interface {
	Resolve(ctx context.Context, shortCode string) (string, error)
}

type linkQuery interface {
	RecentLinks(ctx context.Context, owner entity.Identity) ([]*entity.ShortLink, error)
	LinkStats(ctx context.Context, shortCode string, owner entity.Identity) (*entity.ShortLink, error)
	ActiveLink(ctx context.Context, shortCode string) (*entity.ShortLink, error)
	AliasAvailable(ctx context.Context, alias string) (bool, error)
}

type linkHandler struct {
	allocator  linkAllocator
	redirector linkRedirector
	query      linkQuery
	validate   *validator.Validate
	baseURL    string
	now        func() time.Time
}

func newLinkHandler(useCases UseCases, validate *validator.Validate, baseURL string, opts ...RouterOption) *linkHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	h := &linkHandler{
		allocator:  useCases.Allocator,
		redirector: useCases.Redirector,
		query:      useCases.Query,
		validate:   validate,
		baseURL:    baseURL,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

func serverError(w http.ResponseWriter, r *http.Request, err error) {
	httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, serverErrorResponse)
}

func (h *linkHandler) createLink(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, emptyRequestBodyResponse)
			return
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidRequestBodyResponse)
		return
	}

	// A blank url is reported by the allocator, not the validator.
	req.OriginalURL = strings.TrimSpace(req.OriginalURL)

	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, validationErrorResponse(err))
		return
	}

	link, err := h.allocator.Allocate(r.Context(), req.OriginalURL, req.Alias, identity.FromContext(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrMissingURL):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, missingURLResponse)
		case errors.Is(err, usecase.ErrInvalidAlias):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, invalidAliasResponse(err))
		case errors.Is(err, usecase.ErrAliasRequiresAuth):
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, aliasRequiresAuthResponse)
		case errors.Is(err, usecase.ErrAliasTaken):
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, aliasTakenResponse)
		default:
			serverError(w, r, err)
		}
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toLinkResponse(h.baseURL, link))
}

func (h *linkHandler) listLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.query.RecentLinks(r.Context(), identity.FromContext(r.Context()))
	if err != nil {
		if errors.Is(err, usecase.ErrUnauthenticated) {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, unauthenticatedResponse)
			return
		}

		serverError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLinkResponses(h.baseURL, links))
}

func (h *linkHandler) getLinkStats(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	link, err := h.query.LinkStats(r.Context(), shortCode, identity.FromContext(r.Context()))
	if err != nil {
		if errors.Is(err, entity.ErrLinkNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, linkNotFoundResponse)
			return
		}

		serverError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLinkStatsResponse(h.baseURL, link, h.now()))
}

func (h *linkHandler) getLinkQR(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	size := defaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < minQRSize || n > maxQRSize {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, errorResponse{
				Status:  statusError,
				Message: fmt.Sprintf("size must be an integer between %d and %d", minQRSize, maxQRSize),
			})
			return
		}
		size = n
	}

	link, err := h.query.ActiveLink(r.Context(), shortCode)
	if err != nil {
		if errors.Is(err, entity.ErrLinkNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, linkNotFoundResponse)
			return
		}

		serverError(w, r, err)
		return
	}

	png, err := qrcode.Encode(shortURL(h.baseURL, link.ShortCode), qrcode.Medium, size)
	if err != nil {
		serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *linkHandler) checkAlias(w http.ResponseWriter, r *http.Request) {
	alias := chi.URLParam(r, "alias")

	available, err := h.query.AliasAvailable(r.Context(), alias)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidAlias) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, invalidAliasResponse(err))
			return
		}

		serverError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, aliasAvailabilityResponse{
		Alias:     alias,
		Available: available,
	})
}

func (h *linkHandler) redirect(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	originalURL, err := h.redirector.Resolve(r.Context(), shortCode)
	if err != nil {
		if errors.Is(err, entity.ErrLinkNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, linkNotFoundResponse)
			return
		}

		serverError(w, r, err)
		return
	}

	http.Redirect(w, r, originalURL, http.StatusFound)
}
