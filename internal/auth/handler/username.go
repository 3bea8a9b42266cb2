package handler

import (
	"net/http"

	"github.com/ToonLance/freelancer-nest-profile/internal/account"
	"github.com/ToonLance/freelancer-nest-profile/internal/web"

	"github.com/gin-gonic/gin"
)

type claimUsernameRequest struct {
	Username string `json:"username" validate:"required"`
}

// setupUsernamePage describes the username form. Users who already have a
// username are sent to the dashboard.
func (h *Handler) setupUsernamePage(c *gin.Context) {
	_, snap, _ := web.Store(c)
	if snap.Profile.HasUsername() {
		h.respond.Redirect(c, dashboardPath)
		return
	}

	h.respond.JSON(c, http.StatusOK, gin.H{
		"page":    "setup-username",
		"profile": snap.Profile,
		"rules": gin.H{
			"min_length": account.MinUsernameLength,
			"max_length": account.MaxUsernameLength,
			"pattern":    "^[a-z0-9_-]+$",
		},
	})
}

func (h *Handler) claimUsername(c *gin.Context) {
	var req claimUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respond.Error(c, web.ErrInvalidInput)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		h.respond.Error(c, err)
		return
	}

	store, _, _ := web.Store(c)
	if err := store.ClaimUsername(c.Request.Context(), req.Username); err != nil {
		h.respond.Error(c, err)
		return
	}

	snap := store.Snapshot()
	h.respond.JSON(c, http.StatusOK, gin.H{
		"username": snap.Username(),
		"redirect": dashboardPath,
	})
}

func (h *Handler) usernameAvailability(c *gin.Context) {
	candidate := c.Param("username")

	store, _, _ := web.Store(c)
	available, err := store.CheckUsernameAvailability(c.Request.Context(), candidate)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	h.respond.JSON(c, http.StatusOK, gin.H{
		"username":  candidate,
		"available": available,
	})
}
