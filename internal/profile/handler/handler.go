package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ToonLance/freelancer-nest-profile/internal/guard"
	"github.com/ToonLance/freelancer-nest-profile/internal/profile"
	"github.com/ToonLance/freelancer-nest-profile/internal/web"

	"github.com/gin-gonic/gin"
)

// Directory looks up public profiles by username.
type Directory interface {
	GetProfileByUsername(ctx context.Context, username string) (*profile.Profile, error)
}

type Handler struct {
	directory Directory
	guard     *guard.Guard
	respond   *web.Responder
	validator *web.Validator
}

func NewHandler(directory Directory, g *guard.Guard, cookieSecure bool) *Handler {
	return &Handler{
		directory: directory,
		guard:     g,
		respond:   web.NewResponder(cookieSecure),
		validator: web.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/", h.guard.Page("/"), h.home)
	r.GET("/dashboard", h.guard.Page("/dashboard"), h.dashboard)
	r.GET("/profile/:username", h.guard.Page("/profile/:username"), h.publicProfile)
	r.PATCH("/api/profile", h.guard.Require(true), h.updateProfile)
}

func (h *Handler) home(c *gin.Context) {
	_, snap, _ := web.Store(c)

	h.respond.JSON(c, http.StatusOK, gin.H{
		"page":      "home",
		"signed_in": snap.Identity != nil,
		"username":  snap.Username(),
	})
}

func (h *Handler) dashboard(c *gin.Context) {
	_, snap, _ := web.Store(c)

	h.respond.JSON(c, http.StatusOK, gin.H{
		"page":     "dashboard",
		"identity": snap.Identity,
		"profile":  snap.Profile,
	})
}

func (h *Handler) publicProfile(c *gin.Context) {
	username := strings.ToLower(c.Param("username"))

	p, err := h.directory.GetProfileByUsername(c.Request.Context(), username)
	switch {
	case errors.Is(err, profile.ErrUsernameNotFound):
		h.respond.JSON(c, http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	case errors.Is(err, profile.ErrNotFound):
		h.respond.JSON(c, http.StatusNotFound, gin.H{"error": "Profile data not found"})
		return
	case err != nil:
		h.respond.Error(c, err)
		return
	}

	_, snap, _ := web.Store(c)
	isOwn := snap.Identity != nil && snap.Identity.UID == p.UID

	view := gin.H{
		"page":           "profile",
		"is_own_profile": isOwn,
		"profile":        publicView(p),
	}
	if isOwn {
		view["profile"] = p
	}
	h.respond.JSON(c, http.StatusOK, view)
}

// publicView drops the fields only the owner may see.
func publicView(p *profile.Profile) gin.H {
	return gin.H{
		"uid":          p.UID,
		"display_name": p.DisplayName,
		"photo_url":    p.PhotoURL,
		"username":     p.Username,
		"bio":          p.Bio,
		"location":     p.Location,
		"title":        p.Title,
		"skills":       p.Skills,
		"created_at":   p.CreatedAt,
	}
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req profile.Update
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respond.Error(c, web.ErrInvalidInput)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		h.respond.Error(c, err)
		return
	}

	store, _, _ := web.Store(c)
	p, err := store.UpdateProfile(c.Request.Context(), req)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	h.respond.JSON(c, http.StatusOK, gin.H{"profile": p})
}
