// Package expiry decides how long a short link stays active.
package expiry

import "time"

const (
	DefaultAnonDays = 30
	DefaultAuthDays = 90
)

const day = 24 * time.Hour

// Policy computes expiration timestamps from the caller's identity class.
type Policy struct {
	anonTTL time.Duration
	authTTL time.Duration
	now     func() time.Time
}

type Option func(*Policy)

// WithClock replaces the clock used to compute timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Policy) {
		p.now = now
	}
}

// New returns a Policy granting anonDays to anonymous links and authDays to
// owned ones. Non-positive values fall back to the defaults.
func New(anonDays, authDays int, opts ...Option) *Policy {
	if anonDays <= 0 {
		anonDays = DefaultAnonDays
	}
	if authDays <= 0 {
		authDays = DefaultAuthDays
	}

	p := &Policy{
		anonTTL: time.Duration(anonDays) * day,
		authTTL: time.Duration(authDays) * day,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// ExpiryFor returns the expiration of a link created now.
func (p *Policy) ExpiryFor(hasOwner bool) time.Time {
	_, expiresAt := p.Stamp(hasOwner)
	return expiresAt
}

// Stamp returns the creation and expiration timestamps of a link created now,
// both derived from a single clock reading.
func (p *Policy) Stamp(hasOwner bool) (createdAt, expiresAt time.Time) {
	createdAt = p.now().UTC()

	if hasOwner {
		return createdAt, createdAt.Add(p.authTTL)
	}
	return createdAt, createdAt.Add(p.anonTTL)
}

// Now returns the current time of the policy clock.
func (p *Policy) Now() time.Time {
	return p.now()
}
