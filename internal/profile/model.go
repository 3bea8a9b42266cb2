package profile

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

var (
	ErrNotFound           = errors.New("profile: not found")
	ErrUsernameNotFound   = errors.New("profile: username not reserved")
	ErrUsernameTaken      = errors.New("profile: username already taken")
	ErrUsernameAlreadySet = errors.New("profile: username already set")
	ErrAlreadyExists      = errors.New("profile: already exists")
)

// Profile is the application-owned record describing a user, keyed by the
// internal user id. Username stays nil until claimed.
type Profile struct {
	UID         string         `db:"uid" json:"uid"`
	DisplayName *string        `db:"display_name" json:"display_name"`
	Email       *string        `db:"email" json:"email"`
	PhotoURL    *string        `db:"photo_url" json:"photo_url"`
	Username    *string        `db:"username" json:"username"`
	Bio         *string        `db:"bio" json:"bio,omitempty"`
	Location    *string        `db:"location" json:"location,omitempty"`
	Title       *string        `db:"title" json:"title,omitempty"`
	Skills      pq.StringArray `db:"skills" json:"skills"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

func (p *Profile) HasUsername() bool {
	return p != nil && p.Username != nil && *p.Username != ""
}

// Update carries the free-form fields a user may edit. Nil means unchanged.
type Update struct {
	Bio      *string  `json:"bio" validate:"omitempty,max=2000"`
	Location *string  `json:"location" validate:"omitempty,max=120"`
	Title    *string  `json:"title" validate:"omitempty,max=120"`
	Skills   []string `json:"skills" validate:"omitempty,max=50,dive,min=1,max=40"`
}

// Apply copies the set fields of u onto p.
func (u Update) Apply(p *Profile) {
	if u.Bio != nil {
		p.Bio = u.Bio
	}
	if u.Location != nil {
		p.Location = u.Location
	}
	if u.Title != nil {
		p.Title = u.Title
	}
	if u.Skills != nil {
		p.Skills = pq.StringArray(u.Skills)
	}
}

// StringPtr returns nil for the empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
