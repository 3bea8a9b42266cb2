package keycloak

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ToonLance/freelancer-nest-profile/internal/auth"
	"github.com/ToonLance/freelancer-nest-profile/internal/auth/provider"
	"github.com/ToonLance/freelancer-nest-profile/internal/logger"

	"golang.org/x/oauth2"
)

const providerName = "keycloak"

// Provider signs users in against a Keycloak realm. It is a public client:
// PKCE replaces the client secret.
type Provider struct {
	*provider.OIDCClient
}

// New discovers the realm at issuer, which must be reachable from this
// service (e.g. http://keycloak:8080/realms/nest). Browsers are sent to
// the same realm path under publicBaseURL.
func New(
	ctx context.Context,
	issuer string,
	clientID string,
	redirectURL string,
	publicBaseURL string,
) (*Provider, error) {

	if issuer == "" || clientID == "" || redirectURL == "" || publicBaseURL == "" {
		return nil, errors.New("keycloak oauth config missing required fields")
	}

	client, err := provider.NewOIDCClient(
		ctx,
		providerName,
		issuer,
		oauth2.Config{
			ClientID:    clientID,
			RedirectURL: redirectURL,
		},
		func(discovered string) string {
			return publicAuthURL(discovered, publicBaseURL)
		},
	)
	if err != nil {
		return nil, err
	}

	return &Provider{OIDCClient: client}, nil
}

// publicAuthURL swaps the origin of the discovered authorization endpoint
// for the browser-facing base URL, keeping the realm path.
func publicAuthURL(discovered string, publicBaseURL string) string {
	i := strings.Index(discovered, "/realms/")
	if i < 0 {
		return discovered
	}
	return strings.TrimRight(publicBaseURL, "/") + discovered[i:]
}

func (p *Provider) Name() string {
	return providerName
}

// ExchangeCode returns the realm user's identity. Keycloak has no picture
// claim; preferred_username stands in for a missing full name.
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
		Subject           string `json:"sub"`
		Email             string `json:"email"`
		EmailVerified     bool   `json:"email_verified"`
		Name              string `json:"name"`
		PreferredUsername string `json:"preferred_username"`
	}

	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("keycloak id_token claims parse failed: %w", err)
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, errors.New("keycloak id_token missing required claims")
	}

	displayName := claims.Name
	if displayName == "" {
		displayName = claims.PreferredUsername
	}

	logger.Info("keycloak oidc verified", map[string]any{
		"issuer":         idToken.Issuer,
		"email_verified": claims.EmailVerified,
		"expiry_unix":    idToken.Expiry.Unix(),
	})

	return &auth.Identity{
		Provider:       providerName,
		ProviderUserID: claims.Subject,
		DisplayName:    displayName,
		Email:          claims.Email,
		EmailVerified:  claims.EmailVerified,
	}, nil
}
