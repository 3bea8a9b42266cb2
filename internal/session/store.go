package session

import (
	"context"
	"errors"
	"time"

	"github.com/ToonLance/freelancer-nest-profile/internal/auth"
)

var (
	ErrNotFound = errors.New("session: not found")
	ErrExists   = errors.New("session: id already in use")
)

// Session is one signed-in browser. It carries the resolved identity so
// page loads need no provider round trip.
//
// ExpiresAt slides forward with activity but never past AbsoluteExpiresAt.
type Session struct {
	SessionID         string        `json:"session_id"`
	Identity          auth.Identity `json:"identity"`
	CreatedAt         time.Time     `json:"created_at"`
	AbsoluteExpiresAt time.Time     `json:"absolute_expires_at"`
	ExpiresAt         time.Time     `json:"expires_at"`
}

// Expired reports whether the session is past either expiry.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt) || !now.Before(s.AbsoluteExpiresAt)
}

// Lifetime bounds a session: Idle without activity, Absolute in total.
type Lifetime struct {
	Absolute time.Duration
	Idle     time.Duration
}

// expiry returns the idle deadline from now, capped by absolute.
func (l Lifetime) expiry(now time.Time, absolute time.Time) time.Time {
	if l.Idle <= 0 {
		return absolute
	}
	idle := now.Add(l.Idle)
	if idle.After(absolute) {
		return absolute
	}
	return idle
}

// Store persists sessions. Get returns ErrNotFound for unknown ids and
// Create returns ErrExists rather than overwrite.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Update(ctx context.Context, s Session) error
	Delete(ctx context.Context, sessionID string) error
}
