package notice

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_DrainEmpties(t *testing.T) {
	c := NewCollector()
	c.Notify(Notice{Title: "Welcome back!"})
	c.Notify(Notice{Title: "Sign in error", Variant: Destructive})

	got := c.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, Default, got[0].Variant)
	assert.Equal(t, Destructive, got[1].Variant)

	assert.Empty(t, c.Drain())
}

func TestFlash_RoundTripAcrossRedirect(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteFlash(rec, []Notice{{Title: "Account created!", Description: "Please set up your username", Variant: Default}}, false)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, FlashCookieName, cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/setup-username", nil)
	req.AddCookie(cookies[0])
	rec2 := httptest.NewRecorder()

	got := ReadFlash(rec2, req, false)
	require.Len(t, got, 1)
	assert.Equal(t, "Account created!", got[0].Title)

	cleared := rec2.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestReadFlash_Malformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: FlashCookieName, Value: "%%%"})

	assert.Nil(t, ReadFlash(httptest.NewRecorder(), req, false))
}

func TestWriteFlash_EmptyWritesNothing(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteFlash(rec, nil, true)
	assert.Empty(t, rec.Result().Cookies())
}
