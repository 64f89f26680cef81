// Package entity defines the entities and errors used in the application.
// It includes the ShortLink struct, which represents a shortened URL, the
// Identity of the caller that owns it, and the errors shared by the store
// implementations.
package entity

import (
	"errors"
	"time"
)

var (
	// ErrShortCodeExists is returned when attempting to create a link with a short code that already exists.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrLinkNotFound is returned when a link with the specified short code cannot be found.
	ErrLinkNotFound = errors.New("link not found")
)

// Identity is the opaque handle of an authenticated caller.
// The zero value stands for an anonymous caller.
type Identity struct {
	Subject string
}

// IsPresent reports whether the identity belongs to an authenticated caller.
func (i Identity) IsPresent() bool {
	return i.Subject != ""
}

// ShortLink represents a shortened URL.
type ShortLink struct {
	ID          int64     // ID is the unique identifier of the link in the database.
	ShortCode   string    // ShortCode is the generated code or custom alias used as the lookup key.
	OriginalURL string    // OriginalURL is the full URL that the short code resolves to.
	Owner       string    // Owner is the subject of the identity that created the link, empty for anonymous links.
	ClickCount  int64     // ClickCount is the number of successful redirects through the link.
	CreatedAt   time.Time // CreatedAt is the timestamp when the link was created.
	ExpiresAt   time.Time // ExpiresAt is the timestamp after which the link no longer resolves.
}

// IsAnonymous reports whether the link was created without an owner.
func (l *ShortLink) IsAnonymous() bool {
	return l.Owner == ""
}

// IsExpired reports whether the link is expired at the given moment.
func (l *ShortLink) IsExpired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// OwnedBy reports whether the link belongs to the given identity.
func (l *ShortLink) OwnedBy(id Identity) bool {
	return id.IsPresent() && l.Owner == id.Subject
}
