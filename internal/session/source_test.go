package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ToonLance/freelancer-nest-profile/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	seen []*auth.Identity
	got  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{got: make(chan struct{}, 16)}
}

func (r *recorder) fn(id *auth.Identity) {
	r.mu.Lock()
	r.seen = append(r.seen, id)
	r.mu.Unlock()
	r.got <- struct{}{}
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.got:
	case <-time.After(time.Second):
		t.Fatal("no notification delivered")
	}
}

func (r *recorder) all() []*auth.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*auth.Identity(nil), r.seen...)
}

func newSource(t *testing.T, store Store, req *http.Request) (*Source, *httptest.ResponseRecorder) {
	t.Helper()
	rec := httptest.NewRecorder()
	src, err := NewSource(context.Background(), store, rec, req, Lifetime{Absolute: time.Hour}, DefaultCookieOptions(false))
	require.NoError(t, err)
	return src, rec
}

func exchangeFor(uid string) Exchange {
	return func(context.Context) (*auth.Identity, error) {
		return &auth.Identity{UID: uid, Provider: "google", ProviderUserID: "sub-" + uid, Email: uid + "@example.com"}, nil
	}
}

func TestNewSource_NoCookieIsSignedOut(t *testing.T) {
	store, _ := newTestStore(t)
	src, _ := newSource(t, store, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Nil(t, src.Current())
}

func TestNewSource_LoadsStoredIdentity(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Create(context.Background(), testSession("sid-1", time.Hour)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "sid-1"})
	src, _ := newSource(t, store, req)

	require.NotNil(t, src.Current())
	assert.Equal(t, "u-1", src.Current().UID)
}

func TestNewSource_ExpiredSessionIsDeleted(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, store.Create(context.Background(), testSession("sid-1", time.Hour)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "sid-1"})

	rec := httptest.NewRecorder()
	later := func() time.Time { return time.Now().Add(2 * time.Hour) }
	src, err := NewSource(context.Background(), store, rec, req, Lifetime{Absolute: time.Hour}, DefaultCookieOptions(false), WithClock(later))
	require.NoError(t, err)

	assert.Nil(t, src.Current())
	assert.False(t, mr.Exists("session:sid-1"))
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}

func TestSource_SubscribeDeliversCurrentFirst(t *testing.T) {
	store, _ := newTestStore(t)
	src, _ := newSource(t, store, httptest.NewRequest(http.MethodGet, "/", nil))

	r := newRecorder()
	unsubscribe := src.Subscribe(r.fn)
	defer unsubscribe()

	r.wait(t)
	assert.Equal(t, []*auth.Identity{nil}, r.all())
}

func TestSource_SignInPersistsAndNotifiesInOrder(t *testing.T) {
	store, mr := newTestStore(t)
	src, rec := newSource(t, store, httptest.NewRequest(http.MethodGet, "/", nil))

	r := newRecorder()
	unsubscribe := src.Subscribe(r.fn)
	defer unsubscribe()
	r.wait(t)

	src.Begin(exchangeFor("u-7"))
	id, err := src.SignIn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u-7", id.UID)

	// SignIn returns only after delivery.
	seen := r.all()
	require.Len(t, seen, 2)
	assert.Nil(t, seen[0])
	assert.Equal(t, "u-7", seen[1].UID)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, mr.Exists("session:"+cookies[0].Value))

	require.NoError(t, src.SignOut(context.Background()))
	seen = r.all()
	require.Len(t, seen, 3)
	assert.Nil(t, seen[2])
	assert.False(t, mr.Exists("session:"+cookies[0].Value))
}

func TestSource_SignInWithoutExchange(t *testing.T) {
	store, _ := newTestStore(t)
	src, _ := newSource(t, store, httptest.NewRequest(http.MethodGet, "/", nil))

	_, err := src.SignIn(context.Background())
	assert.ErrorIs(t, err, ErrNoPendingSignIn)
}

func TestSource_SignInExchangeFailureLeavesSignedOut(t *testing.T) {
	store, _ := newTestStore(t)
	src, rec := newSource(t, store, httptest.NewRequest(http.MethodGet, "/", nil))

	boom := errors.New("popup closed")
	src.Begin(func(context.Context) (*auth.Identity, error) { return nil, boom })

	_, err := src.SignIn(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, src.Current())
	assert.Empty(t, rec.Result().Cookies())
}

func TestSource_SignOutIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	src, rec := newSource(t, store, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NoError(t, src.SignOut(context.Background()))
	require.NoError(t, src.SignOut(context.Background()))
	assert.Nil(t, src.Current())

	for _, c := range rec.Result().Cookies() {
		assert.Equal(t, CookieName, c.Name)
		assert.Equal(t, -1, c.MaxAge)
	}
}

func TestSource_UnsubscribeStopsDelivery(t *testing.T) {
	store, _ := newTestStore(t)
	src, _ := newSource(t, store, httptest.NewRequest(http.MethodGet, "/", nil))

	r := newRecorder()
	unsubscribe := src.Subscribe(r.fn)
	r.wait(t)
	unsubscribe()
	unsubscribe()

	src.Begin(exchangeFor("u-1"))
	_, err := src.SignIn(context.Background())
	require.NoError(t, err)

	assert.Len(t, r.all(), 1)
}

func TestNewSource_SlidesIdleExpiry(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	sess := testSession("sid-1", 24*time.Hour)
	sess.ExpiresAt = now.Add(10 * time.Minute)
	require.NoError(t, store.Create(ctx, sess))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "sid-1"})
	lifetime := Lifetime{Absolute: 24 * time.Hour, Idle: time.Hour}

	_, err := NewSource(ctx, store, httptest.NewRecorder(), req, lifetime, DefaultCookieOptions(false))
	require.NoError(t, err)

	got, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), got.ExpiresAt, 5*time.Second)
	assert.WithinDuration(t, sess.AbsoluteExpiresAt, got.AbsoluteExpiresAt, time.Second)
}

func TestNewSource_FreshSessionNotRewritten(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sess := testSession("sid-1", 24*time.Hour)
	sess.ExpiresAt = time.Now().Add(50 * time.Minute)
	require.NoError(t, store.Create(ctx, sess))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "sid-1"})

	_, err := NewSource(ctx, store, httptest.NewRecorder(), req, Lifetime{Absolute: 24 * time.Hour, Idle: time.Hour}, DefaultCookieOptions(false))
	require.NoError(t, err)

	got, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.WithinDuration(t, sess.ExpiresAt, got.ExpiresAt, time.Second)
}

func TestLifetime_ExpiryCappedByAbsolute(t *testing.T) {
	now := time.Now()
	l := Lifetime{Absolute: time.Hour, Idle: 2 * time.Hour}

	assert.Equal(t, now.Add(time.Hour), l.expiry(now, now.Add(time.Hour)))
	assert.Equal(t, now.Add(30*time.Minute), Lifetime{Idle: 30 * time.Minute}.expiry(now, now.Add(time.Hour)))
	assert.Equal(t, now.Add(time.Hour), Lifetime{}.expiry(now, now.Add(time.Hour)))
}
