package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/ToonLance/freelancer-nest-profile/internal/auth"
	"github.com/ToonLance/freelancer-nest-profile/internal/auth/provider"
	"github.com/ToonLance/freelancer-nest-profile/internal/logger"

	"golang.org/x/oauth2"
)

const (
	providerName = "google"
	issuerURL    = "https://accounts.google.com"
)

// Provider signs users in with their Google account.
type Provider struct {
	*provider.OIDCClient
}

func New(
	ctx context.Context,
	clientID string,
	clientSecret string,
	redirectURL string,
) (*Provider, error) {

	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("google oauth config missing required fields")
	}

	// prompt=select_account always shows the account chooser.
	client, err := provider.NewOIDCClient(
		ctx,
		providerName,
		issuerURL,
		oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
		},
		nil,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	if err != nil {
		return nil, err
	}

	return &Provider{OIDCClient: client}, nil
}

func (p *Provider) Name() string {
	return providerName
}

// ExchangeCode returns the Google account's identity with display name and
// photo, which seed the profile on first sign-in.
func (p *Provider) ExchangeCode(
	ctx context.Context,
	code string,
	codeVerifier string,
) (*auth.Identity, error) {

	idToken, err := p.Exchange(ctx, code, codeVerifier)
	if err != nil {
		return nil, err
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}

	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("google id_token claims parse failed: %w", err)
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, errors.New("google id_token missing required claims")
	}

	logger.Info("google oidc verified", map[string]any{
		"email_verified": claims.EmailVerified,
		"name_present":   claims.Name != "",
		"photo_present":  claims.Picture != "",
		"expiry_unix":    idToken.Expiry.Unix(),
	})

	return &auth.Identity{
		Provider:       providerName,
		ProviderUserID: claims.Subject,
		DisplayName:    claims.Name,
		Email:          claims.Email,
		EmailVerified:  claims.EmailVerified,
		PhotoURL:       claims.Picture,
	}, nil
}
