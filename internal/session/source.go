package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ToonLance/freelancer-nest-profile/internal/auth"
	"github.com/ToonLance/freelancer-nest-profile/internal/logger"
)

// ErrNoPendingSignIn is returned by SignIn when no provider callback has
// been attached to the source.
var ErrNoPendingSignIn = errors.New("session: no pending sign-in")

// Exchange completes an interactive provider sign-in and returns the
// resolved identity, UID included.
type Exchange func(ctx context.Context) (*auth.Identity, error)

// Source is the identity-change source for one browser request. It reads
// the identity from the session cookie, issues a new session on sign-in
// and destroys it on sign-out. Subscribers are notified of every change.
type Source struct {
	store    Store
	w        http.ResponseWriter
	lifetime Lifetime
	cookie   CookieOptions
	now      func() time.Time

	mu        sync.Mutex
	current   *auth.Identity
	sessionID string
	exchange  Exchange
	subs      map[int]*subscription
	nextSub   int
}

type SourceOption func(*Source)

// WithClock overrides the time source used for session expiry.
func WithClock(now func() time.Time) SourceOption {
	return func(s *Source) { s.now = now }
}

// NewSource loads the identity of the session referenced by the request
// cookie. Unknown or expired sessions load as signed out; expired ones are
// deleted from the store and their cookie cleared. A live session past half
// of its idle window has its expiry pushed forward.
func NewSource(
	ctx context.Context,
	store Store,
	w http.ResponseWriter,
	r *http.Request,
	lifetime Lifetime,
	cookie CookieOptions,
	opts ...SourceOption,
) (*Source, error) {

	s := &Source{
		store:    store,
		w:        w,
		lifetime: lifetime,
		cookie:   cookie,
		now:      time.Now,
		subs:     make(map[int]*subscription),
	}
	for _, opt := range opts {
		opt(s)
	}

	sessionID, ok := SessionIDFromRequest(r)
	if !ok {
		return s, nil
	}

	sess, err := store.Get(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		ClearCookie(w, cookie)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}

	now := s.now()
	if sess.Expired(now) {
		// Keystone rule: never trust an expired session even if Redis still has it.
		_ = store.Delete(ctx, sessionID)
		ClearCookie(w, cookie)
		return s, nil
	}

	s.touch(ctx, sess, now)

	identity := sess.Identity
	s.current = &identity
	s.sessionID = sessionID

	return s, nil
}

// touch slides the idle expiry once less than half the idle window is left.
// Failures only shorten the session, so they are logged and ignored.
func (s *Source) touch(ctx context.Context, sess *Session, now time.Time) {
	if s.lifetime.Idle <= 0 || sess.ExpiresAt.Sub(now) > s.lifetime.Idle/2 {
		return
	}

	next := s.lifetime.expiry(now, sess.AbsoluteExpiresAt)
	if !next.After(sess.ExpiresAt) {
		return
	}

	refreshed := *sess
	refreshed.ExpiresAt = next
	if err := s.store.Update(ctx, refreshed); err != nil {
		logger.Warn("failed to extend session", map[string]any{
			"user_id": sess.Identity.UID,
			"error":   err.Error(),
		})
	}
}

// Current returns the identity as of the last change.
func (s *Source) Current() *auth.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Begin attaches the provider exchange that the next SignIn will run.
func (s *Source) Begin(exchange Exchange) {
	s.mu.Lock()
	s.exchange = exchange
	s.mu.Unlock()
}

// Subscribe registers fn for identity changes. fn is called once with the
// current identity and then once per change, in order, on a goroutine
// owned by the subscription. The returned func unsubscribes.
func (s *Source) Subscribe(fn func(*auth.Identity)) (unsubscribe func()) {
	sub := newSubscription(fn)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = sub
	sub.push(s.current, nil)
	s.mu.Unlock()

	go sub.run()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
		sub.stop()
	}
}

// SignIn runs the pending exchange, persists a new session and sets the
// session cookie. Subscribers have observed the new identity when it returns.
func (s *Source) SignIn(ctx context.Context) (*auth.Identity, error) {
	s.mu.Lock()
	exchange := s.exchange
	s.exchange = nil
	s.mu.Unlock()

	if exchange == nil {
		return nil, ErrNoPendingSignIn
	}

	identity, err := exchange(ctx)
	if err != nil {
		return nil, err
	}
	if identity == nil || identity.UID == "" {
		return nil, errors.New("session: exchange returned no user")
	}

	sessionID, err := GenerateID()
	if err != nil {
		return nil, err
	}

	now := s.now()
	absoluteExpiry := now.Add(s.lifetime.Absolute)

	sess := Session{
		SessionID:         sessionID,
		Identity:          *identity,
		CreatedAt:         now,
		AbsoluteExpiresAt: absoluteExpiry,
		ExpiresAt:         s.lifetime.expiry(now, absoluteExpiry),
	}

	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("session: persist: %w", err)
	}

	SetCookie(s.w, sessionID, absoluteExpiry, s.cookie)

	s.mu.Lock()
	previous := s.sessionID
	s.current = identity
	s.sessionID = sessionID
	s.mu.Unlock()

	if previous != "" {
		_ = s.store.Delete(ctx, previous)
	}

	logger.Info("session created", map[string]any{
		"user_id":  identity.UID,
		"provider": identity.Provider,
	})

	s.publish(ctx, identity)
	return identity, nil
}

// SignOut deletes the stored session and always clears the cookie.
// Signing out without a session is not an error.
func (s *Source) SignOut(ctx context.Context) error {
	s.mu.Lock()
	sessionID := s.sessionID
	s.sessionID = ""
	s.current = nil
	s.mu.Unlock()

	ClearCookie(s.w, s.cookie)

	var err error
	if sessionID != "" {
		if delErr := s.store.Delete(ctx, sessionID); delErr != nil {
			err = delErr
		}
	}

	s.publish(ctx, nil)
	return err
}

// publish delivers identity to every subscriber and waits until each has
// handled it, ctx is done, or the subscriber goes away.
func (s *Source) publish(ctx context.Context, identity *auth.Identity) {
	s.mu.Lock()
	pending := make([]*delivery, 0, len(s.subs))
	for _, sub := range s.subs {
		d := &delivery{sub: sub, done: make(chan struct{})}
		sub.push(identity, d.done)
		pending = append(pending, d)
	}
	s.mu.Unlock()

	for _, d := range pending {
		select {
		case <-d.done:
		case <-d.sub.stopped:
		case <-ctx.Done():
			return
		}
	}
}

type delivery struct {
	sub  *subscription
	done chan struct{}
}

type notification struct {
	identity *auth.Identity
	done     chan struct{}
}

// subscription is an unbounded FIFO drained by a single goroutine.
type subscription struct {
	fn func(*auth.Identity)

	mu      sync.Mutex
	queue   []notification
	wake    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newSubscription(fn func(*auth.Identity)) *subscription {
	return &subscription{
		fn:      fn,
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
}

func (s *subscription) push(identity *auth.Identity, done chan struct{}) {
	s.mu.Lock()
	s.queue = append(s.queue, notification{identity: identity, done: done})
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription) run() {
	for {
		select {
		case <-s.stopped:
			return
		case <-s.wake:
		}

		for {
			s.mu.Lock()
			if len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			n := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()

			select {
			case <-s.stopped:
				return
			default:
			}

			s.fn(n.identity)
			if n.done != nil {
				close(n.done)
			}
		}
	}
}

func (s *subscription) stop() {
	s.once.Do(func() { close(s.stopped) })
}
