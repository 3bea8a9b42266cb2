package notice

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"
)

const (
	FlashCookieName = "__flash"
	flashTTL        = time.Minute
	maxFlashNotices = 5
)

// WriteFlash stores notices in a short-lived cookie so they survive a redirect.
// Nothing is written for an empty slice.
func WriteFlash(w http.ResponseWriter, notices []Notice, secure bool) {
	if len(notices) == 0 {
		return
	}
	if len(notices) > maxFlashNotices {
		notices = notices[len(notices)-maxFlashNotices:]
	}

	data, err := json.Marshal(notices)
	if err != nil {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(flashTTL.Seconds()),
	})
}

// ReadFlash returns the notices carried by the flash cookie and expires it.
// A malformed cookie is cleared and ignored.
func ReadFlash(w http.ResponseWriter, r *http.Request, secure bool) []Notice {
	cookie, err := r.Cookie(FlashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	data, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}

	var notices []Notice
	if err := json.Unmarshal(data, &notices); err != nil {
		return nil
	}
	return notices
}
