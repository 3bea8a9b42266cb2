// Package web holds the response helpers shared by the HTTP handlers.
package web

import (
	"errors"
	"net/http"

	"github.com/ToonLance/freelancer-nest-profile/internal/account"
	"github.com/ToonLance/freelancer-nest-profile/internal/logger"
	"github.com/ToonLance/freelancer-nest-profile/internal/middleware"
	"github.com/ToonLance/freelancer-nest-profile/internal/notice"
	"github.com/ToonLance/freelancer-nest-profile/internal/profile"

	"github.com/gin-gonic/gin"
)

// StatusFor maps a domain error to its HTTP status.
func StatusFor(err error) int {
	var verr *account.ValidationError
	var perr *account.ProviderError

	switch {
	case errors.As(err, &verr), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, account.ErrNotSignedIn):
		return http.StatusUnauthorized
	case errors.Is(err, profile.ErrNotFound), errors.Is(err, profile.ErrUsernameNotFound):
		return http.StatusNotFound
	case errors.Is(err, account.ErrUsernameTaken), errors.Is(err, account.ErrUsernameAlreadySet):
		return http.StatusConflict
	case errors.As(err, &perr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Responder writes JSON view models with the request's notices attached
// and carries pending notices across redirects.
type Responder struct {
	cookieSecure bool
}

func NewResponder(cookieSecure bool) *Responder {
	return &Responder{cookieSecure: cookieSecure}
}

// Notices returns the flashed notices followed by those raised in this request.
func (r *Responder) Notices(c *gin.Context) []notice.Notice {
	out := notice.ReadFlash(c.Writer, c.Request, r.cookieSecure)
	if collector, ok := middleware.NoticesFromContext(c.Request.Context()); ok {
		out = append(out, collector.Drain()...)
	}
	if out == nil {
		out = []notice.Notice{}
	}
	return out
}

func (r *Responder) JSON(c *gin.Context, status int, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["notices"] = r.Notices(c)
	c.JSON(status, body)
}

// Error answers with the status for err. Messages of unmapped errors stay
// in the log.
func (r *Responder) Error(c *gin.Context, err error) {
	status := StatusFor(err)
	_ = c.Error(err)

	body := gin.H{"error": err.Error()}
	var verr *account.ValidationError
	switch {
	case errors.As(err, &verr):
		body = gin.H{"error": "validation failed", "field": verr.Field, "message": verr.Message}
	case status == http.StatusInternalServerError:
		logger.Error("request failed", map[string]any{
			"path":  c.FullPath(),
			"error": err.Error(),
		})
		body = gin.H{"error": "internal server error"}
	}

	r.JSON(c, status, body)
}

// Redirect sends the browser to location with this request's notices
// carried in the flash cookie.
func (r *Responder) Redirect(c *gin.Context, location string) {
	if collector, ok := middleware.NoticesFromContext(c.Request.Context()); ok {
		notice.WriteFlash(c.Writer, collector.Drain(), r.cookieSecure)
	}
	c.Redirect(http.StatusFound, location)
}

// Store returns the request's session store, already initialized.
func Store(c *gin.Context) (*account.Store, account.Snapshot, bool) {
	s, ok := account.FromContext(c.Request.Context())
	if !ok {
		return nil, account.Snapshot{}, false
	}
	snap, _ := s.Wait(c.Request.Context())
	return s, snap, true
}
