package auth

// Identity represents the authenticated principal returned by an external
// identity provider, after it has been resolved to an internal user.
// It contains facts only, no decisions.
type Identity struct {
	UID            string `json:"uid"`              // internal user id (users.id)
	Provider       string `json:"provider"`         // e.g. "google", "oidc"
	ProviderUserID string `json:"provider_user_id"` // provider-scoped unique user identifier (sub)
	DisplayName    string `json:"display_name"`
	Email          string `json:"email"`
	EmailVerified  bool   `json:"email_verified"`
	PhotoURL       string `json:"photo_url"`
}
