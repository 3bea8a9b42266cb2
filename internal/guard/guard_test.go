package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ToonLance/freelancer-nest-profile/internal/account"
	"github.com/ToonLance/freelancer-nest-profile/internal/auth"
	"github.com/ToonLance/freelancer-nest-profile/internal/profile"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func withUsername(name string) *profile.Profile {
	return &profile.Profile{UID: "u-1", Username: &name}
}

func TestEvaluate(t *testing.T) {
	signedIn := &auth.Identity{UID: "u-1"}

	tests := []struct {
		name            string
		snap            account.Snapshot
		requireUsername bool
		want            Outcome
	}{
		{name: "initializing", snap: account.Snapshot{Initializing: true}, want: Loading},
		{name: "initializing beats username", snap: account.Snapshot{Initializing: true, Identity: signedIn}, requireUsername: true, want: Loading},
		{name: "signed out", snap: account.Snapshot{}, want: RedirectLogin},
		{name: "signed out requiring username", snap: account.Snapshot{}, requireUsername: true, want: RedirectLogin},
		{name: "no profile requiring username", snap: account.Snapshot{Identity: signedIn}, requireUsername: true, want: RedirectSetup},
		{name: "no username requiring username", snap: account.Snapshot{Identity: signedIn, Profile: &profile.Profile{UID: "u-1"}}, requireUsername: true, want: RedirectSetup},
		{name: "no username not required", snap: account.Snapshot{Identity: signedIn, Profile: &profile.Profile{UID: "u-1"}}, want: Render},
		{name: "alice", snap: account.Snapshot{Identity: signedIn, Profile: withUsername("alice")}, requireUsername: true, want: Render},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.snap, tt.requireUsername))
		})
	}
}

func TestDestinations_Location(t *testing.T) {
	assert.Equal(t, "/login", DefaultDestinations.Location(RedirectLogin))
	assert.Equal(t, "/setup-username", DefaultDestinations.Location(RedirectSetup))
	assert.Empty(t, DefaultDestinations.Location(Render))
}

// staticSource reports a fixed identity, or nothing at all when silent.
type staticSource struct {
	identity *auth.Identity
	silent   bool
}

func (s staticSource) Subscribe(fn func(*auth.Identity)) func() {
	if !s.silent {
		fn(s.identity)
	}
	return func() {}
}

func (staticSource) SignIn(context.Context) (*auth.Identity, error) { return nil, nil }
func (staticSource) SignOut(context.Context) error                  { return nil }

type staticProfiles struct {
	profile *profile.Profile
}

func (p staticProfiles) GetProfile(context.Context, string) (*profile.Profile, error) {
	if p.profile == nil {
		return nil, profile.ErrNotFound
	}
	return p.profile, nil
}

func (staticProfiles) CreateProfile(context.Context, *profile.Profile) error { return nil }
func (staticProfiles) UpdateProfile(context.Context, string, profile.Update) (*profile.Profile, error) {
	return nil, profile.ErrNotFound
}
func (staticProfiles) UsernameExists(context.Context, string) (bool, error) { return false, nil }
func (staticProfiles) ClaimUsername(context.Context, string, string) error   { return nil }

func serve(t *testing.T, src staticSource, p *profile.Profile, path string) *httptest.ResponseRecorder {
	t.Helper()

	g := New(DefaultDestinations, 20*time.Millisecond)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		store := account.New(c.Request.Context(), src, staticProfiles{profile: p}, nil)
		defer store.Close()
		c.Request = c.Request.WithContext(account.NewContext(c.Request.Context(), store))
		c.Next()
	})
	r.GET("/dashboard", g.Page("/dashboard"), func(c *gin.Context) { c.String(http.StatusOK, "dashboard") })
	r.GET("/setup-username", g.Page("/setup-username"), func(c *gin.Context) { c.String(http.StatusOK, "setup") })
	r.GET("/", g.Page("/"), func(c *gin.Context) { c.String(http.StatusOK, "home") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRequire_SignedOutRedirectsToLogin(t *testing.T) {
	rec := serve(t, staticSource{}, nil, "/dashboard")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRequire_FirstSignInRedirectsToSetup(t *testing.T) {
	rec := serve(t, staticSource{identity: &auth.Identity{UID: "u-1"}}, &profile.Profile{UID: "u-1"}, "/dashboard")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/setup-username", rec.Header().Get("Location"))
}

func TestRequire_SetupPageRendersWithoutUsername(t *testing.T) {
	rec := serve(t, staticSource{identity: &auth.Identity{UID: "u-1"}}, &profile.Profile{UID: "u-1"}, "/setup-username")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "setup", rec.Body.String())
}

func TestRequire_UsernameRenders(t *testing.T) {
	rec := serve(t, staticSource{identity: &auth.Identity{UID: "u-1"}}, withUsername("alice"), "/dashboard")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dashboard", rec.Body.String())
}

func TestRequire_NotReadyIsLoading(t *testing.T) {
	rec := serve(t, staticSource{silent: true}, nil, "/dashboard")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"status":"loading"}`, rec.Body.String())
}

func TestPage_PublicPassesThrough(t *testing.T) {
	rec := serve(t, staticSource{silent: true}, nil, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
}
