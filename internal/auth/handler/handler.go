package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/ToonLance/freelancer-nest-profile/internal/auth"
	"github.com/ToonLance/freelancer-nest-profile/internal/auth/provider"
	"github.com/ToonLance/freelancer-nest-profile/internal/auth/resolver"
	"github.com/ToonLance/freelancer-nest-profile/internal/guard"
	"github.com/ToonLance/freelancer-nest-profile/internal/logger"
	"github.com/ToonLance/freelancer-nest-profile/internal/middleware"
	"github.com/ToonLance/freelancer-nest-profile/internal/notice"
	"github.com/ToonLance/freelancer-nest-profile/internal/web"

	"github.com/gin-gonic/gin"
)

const dashboardPath = "/dashboard"

type Handler struct {
	providers    *provider.Registry
	resolver     resolver.Resolver
	guard        *guard.Guard
	dest         guard.Destinations
	respond      *web.Responder
	validator    *web.Validator
	cookieSecure bool
}

func NewHandler(
	registry *provider.Registry,
	resolver resolver.Resolver,
	g *guard.Guard,
	dest guard.Destinations,
	cookieSecure bool,
) *Handler {
	return &Handler{
		providers:    registry,
		resolver:     resolver,
		guard:        g,
		dest:         dest,
		respond:      web.NewResponder(cookieSecure),
		validator:    web.NewValidator(),
		cookieSecure: cookieSecure,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/login", h.guard.Page("/login"), h.loginPage)
	r.GET("/signup", h.guard.Page("/signup"), h.loginPage)

	r.GET("/oauth/login/:provider", h.login)
	r.GET("/oauth/callback/:provider", h.callback)
	r.POST("/auth/logout", h.Logout)

	r.GET("/setup-username", h.guard.Page("/setup-username"), h.setupUsernamePage)
	r.POST("/setup-username", h.guard.Page("/setup-username"), h.claimUsername)
	r.GET("/api/usernames/:username/availability", h.guard.Require(false), h.usernameAvailability)
}

// loginPage lists the sign-in providers. Signed-in users go to the dashboard.
func (h *Handler) loginPage(c *gin.Context) {
	_, snap, ok := web.Store(c)
	if ok && snap.Identity != nil {
		h.respond.Redirect(c, dashboardPath)
		return
	}

	h.respond.JSON(c, http.StatusOK, gin.H{
		"page":      c.FullPath()[1:],
		"providers": h.providers.Names(),
	})
}

func (h *Handler) login(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	state, codeChallenge, err := h.startFlow(c)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	authURL := p.AuthCodeURL(state, codeChallenge)
	c.Redirect(http.StatusFound, authURL)
}

func (h *Handler) callback(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	codeVerifier, ok := h.finishFlow(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "invalid state",
		})
		return
	}

	// OAuth error (cancelled consent, closed window): start over from login
	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oidc callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		h.notify(c, notice.Notice{
			Title:       "Sign in error",
			Description: "Sign in was cancelled",
			Variant:     notice.Destructive,
		})
		h.respond.Redirect(c, h.dest.Login)
		return
	}

	code := c.Query("code")
	if code == "" {
		logger.Error("oidc callback missing code and error", nil)
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	if codeVerifier == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "missing pkce verifier",
		})
		return
	}

	store, _, ok := web.Store(c)
	src, srcOK := middleware.SourceFromContext(c.Request.Context())
	if !ok || !srcOK {
		h.respond.Error(c, errors.New("session middleware not installed"))
		return
	}

	src.Begin(func(ctx context.Context) (*auth.Identity, error) {
		identity, err := p.ExchangeCode(ctx, code, codeVerifier)
		if err != nil {
			return nil, err
		}

		userID, err := h.resolver.Resolve(ctx, identity)
		if err != nil {
			return nil, err
		}

		identity.UID = userID
		return identity, nil
	})

	result, err := store.SignInWithProvider(c.Request.Context())
	if err != nil {
		logger.Warn("sign in failed", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
			"ip":       c.ClientIP(),
		})
		h.respond.Redirect(c, h.dest.Login)
		return
	}

	logger.Info("login success", map[string]any{
		"user_id":      result.Profile.UID,
		"provider":     providerName,
		"first_signin": result.FirstSignIn,
		"ip":           c.ClientIP(),
	})

	if result.NeedsUsername() {
		h.respond.Redirect(c, h.dest.SetupUsername)
		return
	}
	h.respond.Redirect(c, dashboardPath)
}

// Logout ends the session. It is idempotent and always clears the cookie.
func (h *Handler) Logout(c *gin.Context) {
	store, _, ok := web.Store(c)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}

	if err := store.SignOut(c.Request.Context()); err != nil {
		logger.Warn("logout failed", map[string]any{
			"error": err.Error(),
			"ip":    c.ClientIP(),
		})
		h.respond.Error(c, err)
		return
	}

	if collector, ok := middleware.NoticesFromContext(c.Request.Context()); ok {
		notice.WriteFlash(c.Writer, collector.Drain(), h.cookieSecure)
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) notify(c *gin.Context, n notice.Notice) {
	if collector, ok := middleware.NoticesFromContext(c.Request.Context()); ok {
		collector.Notify(n)
	}
}
