// Package account holds the signed-in identity and profile of one browser
// session and the operations that change them.
package account

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/ToonLance/freelancer-nest-profile/internal/auth"
	"github.com/ToonLance/freelancer-nest-profile/internal/logger"
	"github.com/ToonLance/freelancer-nest-profile/internal/notice"
	"github.com/ToonLance/freelancer-nest-profile/internal/profile"
)

// IdentitySource reports identity changes and performs interactive
// sign-in and sign-out. Subscribe must deliver the current identity first.
type IdentitySource interface {
	Subscribe(fn func(*auth.Identity)) (unsubscribe func())
	SignIn(ctx context.Context) (*auth.Identity, error)
	SignOut(ctx context.Context) error
}

// Profiles is the remote document store for profiles and username
// reservations. ClaimUsername must reserve and assign atomically.
type Profiles interface {
	GetProfile(ctx context.Context, uid string) (*profile.Profile, error)
	CreateProfile(ctx context.Context, p *profile.Profile) error
	UpdateProfile(ctx context.Context, uid string, u profile.Update) (*profile.Profile, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	ClaimUsername(ctx context.Context, uid string, username string) error
}

type SignInResult struct {
	Profile     *profile.Profile
	FirstSignIn bool
}

// NeedsUsername reports whether the user must pick a username next.
func (r SignInResult) NeedsUsername() bool {
	return !r.Profile.HasUsername()
}

// Store is the session store for one request. It subscribes to the
// identity source exactly once, in New, and stays subscribed until Close.
type Store struct {
	source   IdentitySource
	profiles Profiles
	notices  notice.Notifier

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.RWMutex
	snap Snapshot

	ready     chan struct{}
	readyOnce sync.Once

	unsubscribe func()
	closeOnce   sync.Once
}

// New creates a store and subscribes it to source. The store starts in
// the initializing state until the first identity notification is handled.
// ctx bounds the profile fetches triggered by notifications.
func New(ctx context.Context, source IdentitySource, profiles Profiles, notices notice.Notifier) *Store {
	if notices == nil {
		notices = notice.Discard{}
	}

	storeCtx, cancel := context.WithCancel(ctx)

	s := &Store{
		source:   source,
		profiles: profiles,
		notices:  notices,
		ctx:      storeCtx,
		cancel:   cancel,
		snap:     Snapshot{Initializing: true},
		ready:    make(chan struct{}),
	}

	s.unsubscribe = source.Subscribe(s.onIdentity)
	return s
}

// Close unsubscribes from the identity source. It is safe to call twice.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.unsubscribe()
		s.cancel()
	})
}

// Snapshot returns the current state without waiting.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Wait blocks until the first identity notification has been handled and
// returns the snapshot at that point or later. When ctx ends first the
// still-initializing snapshot is returned with ctx's error.
func (s *Store) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-s.ready:
		return s.Snapshot(), nil
	case <-ctx.Done():
		return s.Snapshot(), ctx.Err()
	}
}

func (s *Store) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *Store) onIdentity(identity *auth.Identity) {
	defer s.markReady()

	if identity == nil {
		s.reset()
		return
	}

	p, err := s.profiles.GetProfile(s.ctx, identity.UID)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.Identity = identity
	s.snap.Initializing = false

	switch {
	case err == nil:
		s.snap.Profile = p
	case errors.Is(err, profile.ErrNotFound):
		// A first sign-in may still be writing the profile.
		if s.snap.Profile == nil || s.snap.Profile.UID != identity.UID {
			s.snap.Profile = nil
		}
	default:
		logger.Error("failed to fetch profile", map[string]any{
			"user_id": identity.UID,
			"error":   err.Error(),
		})
		s.snap.Profile = nil
	}
}

func (s *Store) reset() {
	s.mu.Lock()
	s.snap = Snapshot{}
	s.mu.Unlock()
}

func (s *Store) set(identity *auth.Identity, p *profile.Profile) {
	s.mu.Lock()
	s.snap = Snapshot{Identity: identity, Profile: p}
	s.mu.Unlock()
	s.markReady()
}

// SignInWithProvider runs the interactive provider sign-in and loads or
// creates the profile. A first sign-in creates a profile with no username.
// On any failure the session is left signed out.
func (s *Store) SignInWithProvider(ctx context.Context) (SignInResult, error) {
	identity, err := s.source.SignIn(ctx)
	if err != nil {
		err = &ProviderError{Op: "sign in", Err: err}
		s.notices.Notify(notice.Notice{
			Title:       "Sign in error",
			Description: "Failed to sign in",
			Variant:     notice.Destructive,
		})
		s.reset()
		return SignInResult{}, err
	}

	p, first, err := s.loadOrCreateProfile(ctx, identity)
	if err != nil {
		return SignInResult{}, s.abortSignIn(ctx, err)
	}

	s.set(identity, p)

	if first {
		s.notices.Notify(notice.Notice{
			Title:       "Account created!",
			Description: "Please set up your username",
		})
	} else {
		s.notices.Notify(notice.Notice{
			Title:       "Welcome back!",
			Description: "Logged in as " + displayNameOrEmail(p, identity),
		})
	}

	return SignInResult{Profile: p, FirstSignIn: first}, nil
}

func (s *Store) loadOrCreateProfile(ctx context.Context, identity *auth.Identity) (*profile.Profile, bool, error) {
	p, err := s.profiles.GetProfile(ctx, identity.UID)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, profile.ErrNotFound) {
		return nil, false, fmt.Errorf("account: load profile: %w", err)
	}

	p = &profile.Profile{
		UID:         identity.UID,
		DisplayName: profile.StringPtr(identity.DisplayName),
		Email:       profile.StringPtr(identity.Email),
		PhotoURL:    profile.StringPtr(identity.PhotoURL),
	}

	err = s.profiles.CreateProfile(ctx, p)
	if errors.Is(err, profile.ErrAlreadyExists) {
		// Another tab finished the first sign-in before us.
		p, err = s.profiles.GetProfile(ctx, identity.UID)
		if err != nil {
			return nil, false, fmt.Errorf("account: load profile: %w", err)
		}
		return p, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("account: create profile: %w", err)
	}

	return p, true, nil
}

func (s *Store) abortSignIn(ctx context.Context, cause error) error {
	if err := s.source.SignOut(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("sign-out after failed sign-in failed", map[string]any{
			"error": err.Error(),
		})
	}
	s.reset()
	s.notices.Notify(notice.Notice{
		Title:       "Sign in error",
		Description: "Failed to load your profile",
		Variant:     notice.Destructive,
	})
	return cause
}

func displayNameOrEmail(p *profile.Profile, identity *auth.Identity) string {
	if p != nil && p.DisplayName != nil {
		return *p.DisplayName
	}
	if p != nil && p.Email != nil {
		return *p.Email
	}
	return identity.Email
}

// SignOut ends the session. The snapshot is cleared even when the provider
// call fails, and signing out twice is harmless.
func (s *Store) SignOut(ctx context.Context) error {
	err := s.source.SignOut(ctx)
	s.reset()
	s.markReady()

	if err != nil {
		logger.Warn("sign out failed", map[string]any{
			"error": err.Error(),
		})
		s.notices.Notify(notice.Notice{
			Title:       "Error signing out",
			Description: "Please try again",
			Variant:     notice.Destructive,
		})
		return &ProviderError{Op: "sign out", Err: err}
	}

	s.notices.Notify(notice.Notice{Title: "Signed out successfully"})
	return nil
}

// CheckUsernameAvailability reports whether candidate is free to claim.
// Candidates shorter than three characters are never available and are
// not looked up.
func (s *Store) CheckUsernameAvailability(ctx context.Context, candidate string) (bool, error) {
	name := canonicalUsername(candidate)
	if utf8.RuneCountInString(name) < MinUsernameLength {
		return false, nil
	}

	exists, err := s.profiles.UsernameExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("account: check username: %w", err)
	}
	return !exists, nil
}

// ClaimUsername reserves candidate for the signed-in user and records it on
// the profile. It fails with ErrUsernameTaken when the name is reserved,
// including when a concurrent claim wins the race.
func (s *Store) ClaimUsername(ctx context.Context, candidate string) (err error) {
	defer func() {
		if err != nil {
			s.notifyClaimFailure(err)
		}
	}()

	snap := s.Snapshot()
	if snap.Identity == nil {
		return ErrNotSignedIn
	}
	if snap.Profile.HasUsername() {
		return ErrUsernameAlreadySet
	}

	name, err := NormalizeUsername(candidate)
	if err != nil {
		return err
	}

	available, err := s.CheckUsernameAvailability(ctx, name)
	if err != nil {
		return err
	}
	if !available {
		return ErrUsernameTaken
	}

	if err := s.profiles.ClaimUsername(ctx, snap.Identity.UID, name); err != nil {
		if errors.Is(err, profile.ErrUsernameTaken) || errors.Is(err, profile.ErrUsernameAlreadySet) {
			return err
		}
		return fmt.Errorf("account: claim username: %w", err)
	}

	s.mirrorUsername(ctx, snap.Identity.UID, name)

	s.notices.Notify(notice.Notice{
		Title:       "Username set successfully",
		Description: "You can now access your profile page",
	})
	return nil
}

func (s *Store) mirrorUsername(ctx context.Context, uid string, name string) {
	s.mu.Lock()
	if s.snap.Identity != nil && s.snap.Identity.UID == uid && s.snap.Profile != nil {
		updated := *s.snap.Profile
		updated.Username = &name
		s.snap.Profile = &updated
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	// The profile was never loaded; fetch the stored copy.
	p, err := s.profiles.GetProfile(ctx, uid)
	if err != nil {
		logger.Warn("failed to reload profile after claim", map[string]any{
			"user_id": uid,
			"error":   err.Error(),
		})
		return
	}

	s.mu.Lock()
	if s.snap.Identity != nil && s.snap.Identity.UID == uid {
		s.snap.Profile = p
	}
	s.mu.Unlock()
}

func (s *Store) notifyClaimFailure(err error) {
	var verr *ValidationError

	switch {
	case errors.Is(err, ErrUsernameTaken):
		s.notices.Notify(notice.Notice{
			Title:       "Username already taken",
			Description: "Please choose another username",
			Variant:     notice.Destructive,
		})
	case errors.As(err, &verr):
		s.notices.Notify(notice.Notice{
			Title:       "Invalid username",
			Description: verr.Message,
			Variant:     notice.Destructive,
		})
	default:
		s.notices.Notify(notice.Notice{
			Title:       "Failed to set username",
			Description: "Please try again",
			Variant:     notice.Destructive,
		})
	}
}

// UpdateProfile edits the free-form fields of the signed-in user's profile.
func (s *Store) UpdateProfile(ctx context.Context, u profile.Update) (*profile.Profile, error) {
	snap := s.Snapshot()
	if snap.Identity == nil {
		return nil, ErrNotSignedIn
	}

	p, err := s.profiles.UpdateProfile(ctx, snap.Identity.UID, u)
	if err != nil {
		s.notices.Notify(notice.Notice{
			Title:       "Failed to update profile",
			Description: "Please try again",
			Variant:     notice.Destructive,
		})
		if errors.Is(err, profile.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("account: update profile: %w", err)
	}

	s.mu.Lock()
	if s.snap.Identity != nil && s.snap.Identity.UID == p.UID {
		s.snap.Profile = p
	}
	s.mu.Unlock()

	s.notices.Notify(notice.Notice{Title: "Profile updated"})
	return p, nil
}
