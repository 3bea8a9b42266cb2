package middleware

import (
	"context"
	"net/http"

	"github.com/ToonLance/freelancer-nest-profile/internal/account"
	"github.com/ToonLance/freelancer-nest-profile/internal/logger"
	"github.com/ToonLance/freelancer-nest-profile/internal/notice"
	"github.com/ToonLance/freelancer-nest-profile/internal/session"
)

// unexported, collision-proof context keys
type sourceContextKeyType struct{}
type noticesContextKeyType struct{}

var (
	sourceKey  = sourceContextKeyType{}
	noticesKey = noticesContextKeyType{}
)

// SourceFromContext extracts the request's identity source.
func SourceFromContext(ctx context.Context) (*session.Source, bool) {
	src, ok := ctx.Value(sourceKey).(*session.Source)
	return src, ok
}

// NoticesFromContext extracts the request's notice collector.
func NoticesFromContext(ctx context.Context) (*notice.Collector, bool) {
	n, ok := ctx.Value(noticesKey).(*notice.Collector)
	return n, ok
}

// SessionMiddleware builds the per-request identity source and session
// store. It never rejects a request; route guards decide access.
type SessionMiddleware struct {
	Store    session.Store
	Profiles account.Profiles
	Lifetime session.Lifetime
	Cookie   session.CookieOptions
}

func NewSessionMiddleware(
	store session.Store,
	profiles account.Profiles,
	lifetime session.Lifetime,
	cookie session.CookieOptions,
) *SessionMiddleware {
	return &SessionMiddleware{
		Store:    store,
		Profiles: profiles,
		Lifetime: lifetime,
		Cookie:   cookie,
	}
}

// Attach is the net/http form of the middleware.
func (m *SessionMiddleware) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, done, err := m.begin(w, r)
		if err != nil {
			http.Error(w, "session unavailable", http.StatusServiceUnavailable)
			return
		}
		defer done()

		next.ServeHTTP(w, r)
	})
}

// begin loads the session behind r and returns r with the identity
// source, notice collector and session store attached. done closes the
// store and must be called once the request has been served.
func (m *SessionMiddleware) begin(w http.ResponseWriter, r *http.Request) (*http.Request, func(), error) {
	src, err := session.NewSource(r.Context(), m.Store, w, r, m.Lifetime, m.Cookie)
	if err != nil {
		logger.Error("failed to load session", map[string]any{
			"path":  r.URL.Path,
			"error": err.Error(),
		})
		return nil, nil, err
	}

	notices := notice.NewCollector()
	store := account.New(r.Context(), src, m.Profiles, notices)

	ctx := account.NewContext(r.Context(), store)
	ctx = context.WithValue(ctx, sourceKey, src)
	ctx = context.WithValue(ctx, noticesKey, notices)

	return r.WithContext(ctx), store.Close, nil
}
