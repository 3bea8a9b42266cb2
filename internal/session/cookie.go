package session

import (
	"net/http"
	"time"
)

// CookieName uses the __Host- prefix: browsers only accept it with
// Secure, Path=/ and no Domain, which pins the cookie to this origin.
const CookieName = "__Host-session"

// CookieOptions controls the attributes of the session cookie.
type CookieOptions struct {
	Path     string
	HttpOnly bool
	Secure   bool
	SameSite http.SameSite
}

// DefaultCookieOptions returns the options used for session cookies.
// secure is false only for local development over plain http.
func DefaultCookieOptions(secure bool) CookieOptions {
	return CookieOptions{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (o CookieOptions) cookie(value string) *http.Cookie {
	path := o.Path
	if path == "" {
		path = "/"
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     path,
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: o.SameSite,
	}
}

// SetCookie issues the session cookie, valid until expiresAt.
func SetCookie(w http.ResponseWriter, sessionID string, expiresAt time.Time, opts CookieOptions) {
	c := opts.cookie(sessionID)
	c.Expires = expiresAt
	http.SetCookie(w, c)
}

// ClearCookie tells the browser to drop the session cookie.
func ClearCookie(w http.ResponseWriter, opts CookieOptions) {
	c := opts.cookie("")
	c.MaxAge = -1
	http.SetCookie(w, c)
}

// SessionIDFromRequest returns the session id carried by the request cookie.
func SessionIDFromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
