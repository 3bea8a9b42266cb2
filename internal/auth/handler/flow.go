package handler

import (
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/ToonLance/freelancer-nest-profile/internal/utils"

	"github.com/gin-gonic/gin"
)

// The state and PKCE verifier of an OAuth round trip live in short-lived
// cookies between /oauth/login and /oauth/callback.
const (
	stateCookieName = "__oauth_state"
	pkceCookieName  = "__oauth_pkce"
	flowCookieTTL   = 5 * time.Minute
)

// startFlow issues a fresh state and PKCE verifier and returns the state
// and the S256 challenge for the authorization URL.
func (h *Handler) startFlow(c *gin.Context) (state string, challenge string, err error) {
	state, err = utils.RandomToken(utils.TokenSize)
	if err != nil {
		return "", "", err
	}
	verifier, err := utils.RandomToken(utils.TokenSize)
	if err != nil {
		return "", "", err
	}

	maxAge := int(flowCookieTTL.Seconds())
	h.setFlowCookie(c, stateCookieName, state, maxAge)
	h.setFlowCookie(c, pkceCookieName, verifier, maxAge)

	return state, pkceChallenge(verifier), nil
}

// finishFlow checks the state echoed by the provider against its cookie
// and returns the PKCE verifier. Both cookies are expired either way, so
// a callback URL cannot be replayed.
func (h *Handler) finishFlow(c *gin.Context) (verifier string, ok bool) {
	state := c.Query("state")
	expected, _ := c.Cookie(stateCookieName)
	verifier, _ = c.Cookie(pkceCookieName)

	h.setFlowCookie(c, stateCookieName, "", -1)
	h.setFlowCookie(c, pkceCookieName, "", -1)

	if state == "" || state != expected {
		return "", false
	}
	return verifier, true
}

func (h *Handler) setFlowCookie(c *gin.Context, name, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func pkceChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
