package http

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/shortcode"
)

const statusError = "error"

// createLinkRequest represents the structure for a request to shorten a URL.
type createLinkRequest struct {
	OriginalURL string `json:"original_url" validate:"omitempty,url,max=2048"`
	Alias       string `json:"alias,omitempty"`
}

// linkResponse represents a shortened URL as returned to its creator.
type linkResponse struct {
	ID          int64     `json:"id"`
	ShortCode   string    `json:"short_code"`
	ShortURL    string    `json:"short_url"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func toLinkResponse(baseURL string, link *entity.ShortLink) linkResponse {
	return linkResponse{
		ID:          link.ID,
		ShortCode:   link.ShortCode,
		ShortURL:    shortURL(baseURL, link.ShortCode),
		OriginalURL: link.OriginalURL,
		CreatedAt:   link.CreatedAt,
		ExpiresAt:   link.ExpiresAt,
	}
}

func toLinkResponses(baseURL string, links []*entity.ShortLink) []linkResponse {
	resp := make([]linkResponse, 0, len(links))
	for _, link := range links {
		resp = append(resp, toLinkResponse(baseURL, link))
	}
	return resp
}

// linkStatsResponse represents a link together with its usage statistics.
type linkStatsResponse struct {
	linkResponse
	Stats linkStats `json:"stats"`
}

type linkStats struct {
	ClickCount int64 `json:"click_count"`
	Expired    bool  `json:"expired"`
}

func toLinkStatsResponse(baseURL string, link *entity.ShortLink, now time.Time) linkStatsResponse {
	return linkStatsResponse{
		linkResponse: toLinkResponse(baseURL, link),
		Stats: linkStats{
			ClickCount: link.ClickCount,
			Expired:    link.IsExpired(now),
		},
	}
}

type aliasAvailabilityResponse struct {
	Alias     string `json:"alias"`
	Available bool   `json:"available"`
}

func shortURL(baseURL, shortCode string) string {
	return strings.TrimRight(baseURL, "/") + "/" + shortCode
}

// validationError represents an individual validation error.
type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorResponse represents a structured error response.
type errorResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Errors  []validationError `json:"errors,omitempty"`
}

// Predefined error responses for common scenarios.
var (
	emptyRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "empty request body",
	}

	invalidRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "invalid request body",
	}

	missingURLResponse = errorResponse{
		Status:  statusError,
		Message: "original url is required",
	}

	aliasRequiresAuthResponse = errorResponse{
		Status:  statusError,
		Message: "you must be signed in to use a custom alias",
	}

	aliasTakenResponse = errorResponse{
		Status:  statusError,
		Message: "alias is already in use",
	}

	unauthenticatedResponse = errorResponse{
		Status:  statusError,
		Message: "authentication required",
	}

	invalidTokenResponse = errorResponse{
		Status:  statusError,
		Message: "invalid token",
	}

	expiredTokenResponse = errorResponse{
		Status:  statusError,
		Message: "token expired",
	}

	linkNotFoundResponse = errorResponse{
		Status:  statusError,
		Message: "link not found",
	}

	serverErrorResponse = errorResponse{
		Status:  statusError,
		Message: "server error occurred",
	}
)

// messageForTag returns a user-friendly message based on the validation tag.
func messageForTag(tag string) string {
	switch tag {
	case "url":
		return "invalid url"
	case "max":
		return "value is too long"
	default:
		return "invalid value"
	}
}

// getValidationErrors processes validation errors and returns a list of validationError.
func getValidationErrors(err error) []validationError {
	var validationErrs []validationError

	errs, ok := err.(validator.ValidationErrors)
	if ok {
		for _, e := range errs {
			validationErrs = append(validationErrs, validationError{
				Field:   e.Field(),
				Message: messageForTag(e.Tag()),
			})
		}
	}

	return validationErrs
}

// validationErrorResponse constructs an errorResponse for validation errors.
func validationErrorResponse(err error) errorResponse {
	return errorResponse{
		Status:  statusError,
		Message: "validation error",
		Errors:  getValidationErrors(err),
	}
}

// invalidAliasResponse explains why an alias was rejected.
func invalidAliasResponse(err error) errorResponse {
	message := "invalid alias"

	var aliasErr *shortcode.AliasError
	if errors.As(err, &aliasErr) {
		message = aliasErr.Error()
	}

	return errorResponse{
		Status:  statusError,
		Message: "validation error",
		Errors: []validationError{{
			Field:   "alias",
			Message: message,
		}},
	}
}
