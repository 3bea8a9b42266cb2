// Package profiletest provides an in-memory profile repository for tests.
package profiletest

import (
	"context"
	"sync"
	"time"

	"github.com/ToonLance/freelancer-nest-profile/internal/profile"

	"github.com/lib/pq"
)

// Memory mirrors the Postgres repository's semantics, including the
// atomic username claim.
type Memory struct {
	mu        sync.Mutex
	profiles  map[string]profile.Profile
	usernames map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		profiles:  make(map[string]profile.Profile),
		usernames: make(map[string]string),
	}
}

// Seed stores p and, when it has a username, its reservation.
func (m *Memory) Seed(p profile.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UID] = p
	if p.Username != nil {
		m.usernames[*p.Username] = p.UID
	}
}

func (m *Memory) GetProfile(_ context.Context, uid string) (*profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[uid]
	if !ok {
		return nil, profile.ErrNotFound
	}
	return &p, nil
}

func (m *Memory) GetProfileByUsername(ctx context.Context, username string) (*profile.Profile, error) {
	m.mu.Lock()
	uid, ok := m.usernames[username]
	m.mu.Unlock()
	if !ok {
		return nil, profile.ErrUsernameNotFound
	}
	return m.GetProfile(ctx, uid)
}

func (m *Memory) CreateProfile(_ context.Context, p *profile.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.UID]; ok {
		return profile.ErrAlreadyExists
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Skills == nil {
		p.Skills = pq.StringArray{}
	}
	m.profiles[p.UID] = *p
	return nil
}

func (m *Memory) UpdateProfile(_ context.Context, uid string, u profile.Update) (*profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[uid]
	if !ok {
		return nil, profile.ErrNotFound
	}
	u.Apply(&p)
	p.UpdatedAt = time.Now().UTC()
	m.profiles[uid] = p
	return &p, nil
}

func (m *Memory) UsernameExists(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.usernames[username]
	return ok, nil
}

func (m *Memory) ClaimUsername(_ context.Context, uid string, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if owner, ok := m.usernames[username]; ok {
		if owner == uid {
			return profile.ErrUsernameAlreadySet
		}
		return profile.ErrUsernameTaken
	}
	p, ok := m.profiles[uid]
	if !ok {
		return profile.ErrNotFound
	}
	if p.Username != nil {
		return profile.ErrUsernameAlreadySet
	}
	m.usernames[username] = uid
	p.Username = &username
	p.UpdatedAt = time.Now().UTC()
	m.profiles[uid] = p
	return nil
}

// Owner returns the uid holding username, or "".
func (m *Memory) Owner(username string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usernames[username]
}
