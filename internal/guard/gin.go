package guard

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ToonLance/freelancer-nest-profile/internal/account"
	"github.com/ToonLance/freelancer-nest-profile/internal/logger"

	"github.com/gin-gonic/gin"
)

const retryAfter = time.Second

// Guard applies Evaluate to gin routes.
type Guard struct {
	dest        Destinations
	waitTimeout time.Duration
}

func New(dest Destinations, waitTimeout time.Duration) *Guard {
	return &Guard{dest: dest, waitTimeout: waitTimeout}
}

// Require lets the request through only when the session is signed in and,
// if requireUsername is set, has claimed a username. Requests without a
// session store are treated as signed out.
func (g *Guard) Require(requireUsername bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		store, ok := account.FromContext(c.Request.Context())
		if !ok {
			c.Redirect(http.StatusFound, g.dest.Login)
			c.Abort()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), g.waitTimeout)
		snap, err := store.Wait(ctx)
		cancel()
		if err != nil {
			logger.Warn("session not ready before guard timeout", map[string]any{
				"path":  c.FullPath(),
				"error": err.Error(),
			})
		}

		outcome := Evaluate(snap, requireUsername)
		switch outcome {
		case Render:
			c.Next()
		case Loading:
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"status": "loading",
			})
		default:
			c.Redirect(http.StatusFound, g.dest.Location(outcome))
			c.Abort()
		}
	}
}

// Page returns the guard for a route listed in Policies. Public and
// unknown routes pass through.
func (g *Guard) Page(path string) gin.HandlerFunc {
	policy := Policies[path]
	if !policy.Protected {
		return func(c *gin.Context) { c.Next() }
	}
	return g.Require(policy.RequireUsername)
}
