package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	SetCookie(rec, "sid-1", expires, DefaultCookieOptions(true))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "sid-1", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.True(t, expires.Equal(c.Expires))
}

func TestClearCookie_HttpOnlyEvenWhenUnset(t *testing.T) {
	rec := httptest.NewRecorder()

	ClearCookie(rec, CookieOptions{})

	c := rec.Result().Cookies()[0]
	assert.Equal(t, -1, c.MaxAge)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
}

func TestSessionIDFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := SessionIDFromRequest(req)
	assert.False(t, ok)

	req.AddCookie(&http.Cookie{Name: CookieName, Value: "sid-1"})
	id, ok := SessionIDFromRequest(req)
	assert.True(t, ok)
	assert.Equal(t, "sid-1", id)
}
