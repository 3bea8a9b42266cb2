package account

import (
	"github.com/ToonLance/freelancer-nest-profile/internal/auth"
	"github.com/ToonLance/freelancer-nest-profile/internal/profile"
)

type Status int

const (
	StatusInitializing Status = iota
	StatusAnonymous
	StatusAuthenticatedNoUsername
	StatusAuthenticatedWithUsername
)

func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticatedNoUsername:
		return "authenticated_no_username"
	case StatusAuthenticatedWithUsername:
		return "authenticated_with_username"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time view of the session. Callers must treat the
// pointed-to identity and profile as read-only.
type Snapshot struct {
	Identity     *auth.Identity
	Profile      *profile.Profile
	Initializing bool
}

func (s Snapshot) Status() Status {
	switch {
	case s.Initializing:
		return StatusInitializing
	case s.Identity == nil:
		return StatusAnonymous
	case !s.Profile.HasUsername():
		return StatusAuthenticatedNoUsername
	default:
		return StatusAuthenticatedWithUsername
	}
}

// Username returns the claimed username or "".
func (s Snapshot) Username() string {
	if !s.Profile.HasUsername() {
		return ""
	}
	return *s.Profile.Username
}
